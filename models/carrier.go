package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Carrier represents a trucking company or contact booking dock slots
type Carrier struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Phone     *string   `json:"phone"`
	Email     *string   `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the Carrier model
func (Carrier) TableName() string {
	return "carriers"
}

// BeforeCreate assigns an identifier when none was provided
func (c *Carrier) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
