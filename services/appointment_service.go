package services

import (
	"context"
	"errors"
	"strings"

	"github.com/bookyourdock/bookyourdock-api/models"
	"github.com/bookyourdock/bookyourdock-api/realtime"
	"github.com/bookyourdock/bookyourdock-api/utils"
	"gorm.io/gorm"
)

// BookingRequest is the data accepted when booking a dock slot.
// Either CarrierID or CarrierName must be set.
type BookingRequest struct {
	CarrierID       string `json:"carrier_id"`
	CarrierName     string `json:"carrier_name"`
	Phone           string `json:"phone"`
	LicensePlate    string `json:"license_plate" binding:"required"`
	AppointmentDate string `json:"appointment_date" binding:"required"`
	TimeSlot        string `json:"time_slot" binding:"required"`
	Notes           string `json:"notes"`
}

// AppointmentDay groups the appointments booked on one date
type AppointmentDay struct {
	Date         string               `json:"date"`
	Appointments []models.Appointment `json:"appointments"`
}

// AppointmentService books and lists dock appointments
type AppointmentService struct {
	db   *gorm.DB
	feed *realtime.Feed
}

// NewAppointmentService creates an appointment service
func NewAppointmentService(db *gorm.DB, feed *realtime.Feed) *AppointmentService {
	return &AppointmentService{db: db, feed: feed}
}

// TimeSlots returns the bookable slot grid
func (s *AppointmentService) TimeSlots() []string {
	return utils.TimeSlots()
}

// Book creates a scheduled appointment, registering the carrier first when
// only a name is given
func (s *AppointmentService) Book(ctx context.Context, req BookingRequest) (*models.Appointment, error) {
	plate := utils.NormalizeLicensePlate(req.LicensePlate)
	if plate == "" {
		return nil, &ValidationError{Field: "license_plate", Message: "License plate is required"}
	}
	if _, err := utils.ParseCalendarDate(req.AppointmentDate); err != nil {
		return nil, &ValidationError{Field: "appointment_date", Message: "Appointment date must be formatted YYYY-MM-DD"}
	}
	if !utils.IsValidTimeSlot(req.TimeSlot) {
		return nil, &ValidationError{Field: "time_slot", Message: "Time slot is not on the booking grid"}
	}
	carrierID := strings.TrimSpace(req.CarrierID)
	if carrierID == "" && strings.TrimSpace(req.CarrierName) == "" {
		return nil, &ValidationError{Field: "carrier_id", Message: "Select a carrier or enter a carrier name"}
	}

	appointment := models.Appointment{
		LicensePlate:    plate,
		AppointmentDate: req.AppointmentDate,
		TimeSlot:        req.TimeSlot,
		Status:          models.AppointmentStatusScheduled,
	}
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		appointment.Notes = &notes
	}

	var createdCarrier *models.Carrier
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var carrier models.Carrier
		if carrierID != "" {
			if err := tx.First(&carrier, "id = ?", carrierID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrCarrierNotFound
				}
				return storeError("load carrier", err)
			}
		} else {
			created, err := newCarrier(CarrierInput{Name: req.CarrierName, Phone: req.Phone})
			if err != nil {
				return err
			}
			if err := tx.Create(created).Error; err != nil {
				return storeError("create carrier", err)
			}
			carrier = *created
			createdCarrier = created
		}

		appointment.CarrierID = carrier.ID
		if err := tx.Create(&appointment).Error; err != nil {
			return storeError("create appointment", err)
		}
		appointment.Carrier = &carrier
		return nil
	})
	if err != nil {
		return nil, err
	}

	if createdCarrier != nil {
		s.feed.Publish(realtime.Event{
			Table:    realtime.TableCarriers,
			Action:   realtime.ActionInsert,
			RecordID: createdCarrier.ID,
		})
	}
	s.feed.Publish(realtime.Event{
		Table:    realtime.TableAppointments,
		Action:   realtime.ActionInsert,
		RecordID: appointment.ID,
	})

	return &appointment, nil
}

// List returns every appointment ordered by date then slot
func (s *AppointmentService) List(ctx context.Context) ([]models.Appointment, error) {
	appointments := []models.Appointment{}
	if err := s.db.WithContext(ctx).
		Preload("Carrier").
		Order("appointment_date ASC").
		Order("time_slot ASC").
		Find(&appointments).Error; err != nil {
		return nil, storeError("list appointments", err)
	}
	return appointments, nil
}

// GroupByDate groups already ordered appointments by their date
func GroupByDate(appointments []models.Appointment) []AppointmentDay {
	days := []AppointmentDay{}
	for _, appointment := range appointments {
		last := len(days) - 1
		if last < 0 || days[last].Date != appointment.AppointmentDate {
			days = append(days, AppointmentDay{Date: appointment.AppointmentDate})
			last++
		}
		days[last].Appointments = append(days[last].Appointments, appointment)
	}
	return days
}
