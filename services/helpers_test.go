package services

import (
	"bytes"
	"mime/multipart"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/bookyourdock/bookyourdock-api/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Every pooled connection to :memory: would be a fresh empty database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func seedCarrier(t *testing.T, db *gorm.DB, name string, phone string) models.Carrier {
	carrier := models.Carrier{Name: name}
	if phone != "" {
		carrier.Phone = &phone
	}
	require.NoError(t, db.Create(&carrier).Error)
	return carrier
}

func seedAppointment(t *testing.T, db *gorm.DB, carrierID, plate, date, slot string, status models.AppointmentStatus) models.Appointment {
	appointment := models.Appointment{
		CarrierID:       carrierID,
		LicensePlate:    plate,
		AppointmentDate: date,
		TimeSlot:        slot,
		Status:          status,
	}
	require.NoError(t, db.Create(&appointment).Error)
	return appointment
}

func seedDocument(t *testing.T, db *gorm.DB, carrierID, plate string, mission *string, name string, uploadedAt time.Time) models.Document {
	document := models.Document{
		CarrierID:    carrierID,
		LicensePlate: plate,
		MissionName:  mission,
		DocumentName: name,
		DocumentURL:  "https://test-bucket.s3.eu-west-3.amazonaws.com/documents/" + name,
		StorageKey:   "documents/" + name,
		DocumentType: "cmr",
		UploadDate:   uploadedAt,
		CreatedAt:    uploadedAt,
	}
	require.NoError(t, db.Create(&document).Error)
	return document
}

func strPtr(s string) *string {
	return &s
}

// steppingClock returns a time source that advances by step on every call
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	current := start.Add(-step)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(step)
		return current
	}
}

// newTestFileHeader builds a multipart file header holding content
func newTestFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", "application/octet-stream")
	part, err := writer.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(int64(len(content)) + 1024)
	require.NoError(t, err)
	require.Len(t, form.File["file"], 1)
	return form.File["file"][0]
}
