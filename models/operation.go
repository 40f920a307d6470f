package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Operation represents one truck visit through the yard, from site entry to completion
type Operation struct {
	ID                    string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	MissionNumber         string          `gorm:"uniqueIndex;not null" json:"mission_number"`
	AppointmentID         *string         `gorm:"index;type:varchar(36)" json:"appointment_id"`
	CarrierID             string          `gorm:"not null;index;type:varchar(36)" json:"carrier_id"`
	Carrier               *Carrier        `gorm:"foreignKey:CarrierID" json:"carrier,omitempty"`
	LicensePlate          string          `gorm:"not null;index" json:"license_plate"`
	Status                OperationStatus `gorm:"type:varchar(32);not null;default:'acces_au_site';index" json:"status"`
	EnteredSiteAt         *time.Time      `json:"entered_site_at"`
	ParkingAt             *time.Time      `json:"parking_at"`
	CalledToUnloadingAt   *time.Time      `json:"called_to_unloading_at"`
	CalledToLoadingAt     *time.Time      `json:"called_to_loading_at"`
	OperationsCompletedAt *time.Time      `json:"operations_completed_at"`
	CreatedAt             time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Operation model
func (Operation) TableName() string {
	return "operations"
}

// BeforeCreate assigns the identifier and mission number
func (o *Operation) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.MissionNumber == "" {
		created := o.CreatedAt
		if created.IsZero() {
			created = time.Now()
		}
		o.MissionNumber = NewMissionNumber(created)
	}
	return nil
}

// NewMissionNumber builds a MISS-YYYYMMDD-XXXX identifier for the given day
func NewMissionNumber(day time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
	return fmt.Sprintf("MISS-%s-%s", day.Format("20060102"), suffix)
}

// StatusTimestamp returns the recorded time the operation reached status
func (o *Operation) StatusTimestamp(status OperationStatus) *time.Time {
	switch status {
	case StatusSiteAccess:
		return o.EnteredSiteAt
	case StatusParkingWait:
		return o.ParkingAt
	case StatusUnloadingDock:
		return o.CalledToUnloadingAt
	case StatusLoadingDock:
		return o.CalledToLoadingAt
	case StatusOperationsDone:
		return o.OperationsCompletedAt
	default:
		return nil
	}
}

// IsActive reports whether the operation has not reached its terminal status
func (o *Operation) IsActive() bool {
	return !o.Status.IsTerminal()
}

// ElapsedTime is the time spent on site so far
// Measured from site entry, or from creation when entry was never recorded.
func (o *Operation) ElapsedTime(now time.Time) time.Duration {
	start := o.CreatedAt
	if o.EnteredSiteAt != nil {
		start = *o.EnteredSiteAt
	}
	elapsed := now.Sub(start)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// FormatDuration renders a duration as "42min" or "1h 5min"
func FormatDuration(d time.Duration) string {
	minutes := int(d / time.Minute)
	if minutes < 60 {
		return fmt.Sprintf("%dmin", minutes)
	}
	return fmt.Sprintf("%dh %dmin", minutes/60, minutes%60)
}
