package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppointmentStatus is the booking state of an appointment
type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"

	// Labels the dashboard knows how to render but that nothing ever writes.
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusPending   AppointmentStatus = "pending"
)

// IsDeclared reports whether the status is one the store may hold
func (s AppointmentStatus) IsDeclared() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusCompleted, AppointmentStatusCancelled:
		return true
	default:
		return false
	}
}

// IsKnown reports whether the status has a display label, declared or not
func (s AppointmentStatus) IsKnown() bool {
	return s.IsDeclared() || s == AppointmentStatusConfirmed || s == AppointmentStatusPending
}

// Appointment represents a booked dock slot for a carrier's truck
type Appointment struct {
	ID              string            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CarrierID       string            `gorm:"not null;index;type:varchar(36)" json:"carrier_id"`
	Carrier         *Carrier          `gorm:"foreignKey:CarrierID" json:"carrier,omitempty"`
	LicensePlate    string            `gorm:"not null;index" json:"license_plate"`
	AppointmentDate string            `gorm:"type:varchar(10);not null;index" json:"appointment_date"` // YYYY-MM-DD
	TimeSlot        string            `gorm:"type:varchar(5);not null" json:"time_slot"`               // HH:MM
	Status          AppointmentStatus `gorm:"type:varchar(20);not null;default:'scheduled';index" json:"status"`
	Notes           *string           `json:"notes"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// TableName specifies the table name for the Appointment model
func (Appointment) TableName() string {
	return "appointments"
}

// BeforeCreate assigns an identifier when none was provided
func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
