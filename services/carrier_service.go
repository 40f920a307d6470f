package services

import (
	"context"
	"strings"

	"github.com/bookyourdock/bookyourdock-api/models"
	"github.com/bookyourdock/bookyourdock-api/realtime"
	"gorm.io/gorm"
)

// CarrierInput is the data accepted when registering a carrier
type CarrierInput struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
	Email string `json:"email" binding:"omitempty,email"`
}

// CarrierService manages carriers
type CarrierService struct {
	db   *gorm.DB
	feed *realtime.Feed
}

// NewCarrierService creates a carrier service
func NewCarrierService(db *gorm.DB, feed *realtime.Feed) *CarrierService {
	return &CarrierService{db: db, feed: feed}
}

// List returns all carriers ordered by name
func (s *CarrierService) List(ctx context.Context) ([]models.Carrier, error) {
	carriers := []models.Carrier{}
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&carriers).Error; err != nil {
		return nil, storeError("list carriers", err)
	}
	return carriers, nil
}

// Create registers a carrier
func (s *CarrierService) Create(ctx context.Context, input CarrierInput) (*models.Carrier, error) {
	carrier, err := newCarrier(input)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(carrier).Error; err != nil {
		return nil, storeError("create carrier", err)
	}

	s.feed.Publish(realtime.Event{
		Table:    realtime.TableCarriers,
		Action:   realtime.ActionInsert,
		RecordID: carrier.ID,
	})
	return carrier, nil
}

func newCarrier(input CarrierInput) (*models.Carrier, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "Carrier name is required"}
	}

	carrier := &models.Carrier{Name: name}
	if phone := strings.TrimSpace(input.Phone); phone != "" {
		carrier.Phone = &phone
	}
	if email := strings.TrimSpace(input.Email); email != "" {
		carrier.Email = &email
	}
	return carrier, nil
}
