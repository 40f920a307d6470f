package models

// All returns every model managed by the API, in migration order
func All() []interface{} {
	return []interface{}{
		&Carrier{},
		&Appointment{},
		&Operation{},
		&Document{},
		&DocumentArchive{},
	}
}
