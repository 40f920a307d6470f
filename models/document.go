package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultMissionName groups documents uploaded without a mission
const DefaultMissionName = "default"

// Document types offered by the upload form; other values are stored as given
var DocumentTypes = []string{
	"delivery_note",
	"cmr",
	"invoice",
	"transport_receipt",
	"other",
}

// Document represents an operational file uploaded for a truck
type Document struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CarrierID    string    `gorm:"not null;index;type:varchar(36)" json:"carrier_id"`
	Carrier      *Carrier  `gorm:"foreignKey:CarrierID" json:"carrier,omitempty"`
	LicensePlate string    `gorm:"not null;index" json:"license_plate"`
	MissionName  *string   `json:"mission_name"`
	DocumentName string    `gorm:"not null" json:"document_name"`
	DocumentURL  string    `gorm:"not null" json:"document_url"`
	StorageKey   string    `gorm:"not null" json:"-"`
	DocumentType string    `json:"document_type"`
	UploadDate   time.Time `gorm:"not null;index" json:"upload_date"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName specifies the table name for the Document model
func (Document) TableName() string {
	return "documents"
}

// BeforeCreate assigns the identifier and defaults the upload date
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.UploadDate.IsZero() {
		d.UploadDate = time.Now()
	}
	return nil
}

// ArchiveMission returns the mission name used for archive grouping
func (d *Document) ArchiveMission() string {
	if d.MissionName == nil || *d.MissionName == "" {
		return DefaultMissionName
	}
	return *d.MissionName
}

// ArchiveKey returns the "<plate>_<mission>" grouping key
func (d *Document) ArchiveKey() string {
	return d.LicensePlate + "_" + d.ArchiveMission()
}
