package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentArchive records one daily manifest bundling a plate and mission's documents
type DocumentArchive struct {
	ID            string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ArchiveDate   string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_archive_group" json:"archive_date"` // YYYY-MM-DD
	LicensePlate  string    `gorm:"not null;uniqueIndex:idx_archive_group" json:"license_plate"`
	MissionName   string    `gorm:"not null;uniqueIndex:idx_archive_group" json:"mission_name"`
	ArchiveURL    string    `gorm:"not null" json:"archive_url"`
	DocumentCount int       `gorm:"not null" json:"document_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName specifies the table name for the DocumentArchive model
func (DocumentArchive) TableName() string {
	return "document_archives"
}

// BeforeCreate assigns an identifier when none was provided
func (a *DocumentArchive) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

