package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/bookyourdock/bookyourdock-api/models"
	"github.com/bookyourdock/bookyourdock-api/realtime"
	"github.com/bookyourdock/bookyourdock-api/utils"
	"gorm.io/gorm"
)

// recentCompletedLimit caps the completed operations shown next to active ones
const recentCompletedLimit = 5

const notificationTimeout = 10 * time.Second

// missionNumberAttempts bounds the retries when a generated mission number is already taken
const missionNumberAttempts = 5

// OperationService runs the yard status state machine
type OperationService struct {
	db       *gorm.DB
	notifier Notifier
	feed     *realtime.Feed
	now      func() time.Time
}

// ActiveOperation is an in-progress operation with its read-side projections
type ActiveOperation struct {
	models.Operation
	ElapsedMinutes int                      `json:"elapsed_minutes"`
	ElapsedLabel   string                   `json:"elapsed_label"`
	NextStatuses   []models.OperationStatus `json:"next_statuses"`
}

// OperationBoard is the yard overview
type OperationBoard struct {
	Active    []ActiveOperation  `json:"active"`
	Completed []models.Operation `json:"completed"`
}

// NewOperationService creates an operation service; notifier and feed may be nil
func NewOperationService(db *gorm.DB, notifier Notifier, feed *realtime.Feed) *OperationService {
	return &OperationService{
		db:       db,
		notifier: notifier,
		feed:     feed,
		now:      time.Now,
	}
}

// WithClock replaces the time source
func (s *OperationService) WithClock(now func() time.Time) *OperationService {
	s.now = now
	return s
}

// CreateFromPlate opens an operation for the earliest scheduled appointment on plate
func (s *OperationService) CreateFromPlate(ctx context.Context, licensePlate string) (*models.Operation, error) {
	plate := utils.NormalizeLicensePlate(licensePlate)
	if plate == "" {
		return nil, &ValidationError{Field: "license_plate", Message: "License plate is required"}
	}

	db := s.db.WithContext(ctx)

	var appointment models.Appointment
	err := db.Preload("Carrier").
		Where("license_plate = ? AND status = ?", plate, models.AppointmentStatusScheduled).
		Order("appointment_date ASC").
		Order("time_slot ASC").
		First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, storeError("find appointment", err)
	}

	now := s.now().UTC()
	operation := models.Operation{
		AppointmentID: &appointment.ID,
		CarrierID:     appointment.CarrierID,
		LicensePlate:  plate,
		Status:        models.StatusSiteAccess,
		EnteredSiteAt: &now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for attempt := 1; ; attempt++ {
		err = db.Create(&operation).Error
		if err == nil {
			break
		}
		if !isMissionNumberConflict(err) || attempt == missionNumberAttempts {
			return nil, storeError("create operation", err)
		}
		log.Printf("Mission number %s already taken, regenerating", operation.MissionNumber)
		operation.ID = ""
		operation.MissionNumber = ""
	}
	operation.Carrier = appointment.Carrier

	log.Printf("Operation %s opened for %s (appointment %s)", operation.MissionNumber, plate, appointment.ID)
	s.feed.Publish(realtime.Event{
		Table:    realtime.TableOperations,
		Action:   realtime.ActionInsert,
		RecordID: operation.ID,
		At:       now,
	})

	return &operation, nil
}

// Advance moves an operation to target, stamping the status time once
func (s *OperationService) Advance(ctx context.Context, operationID string, target models.OperationStatus) (*models.Operation, error) {
	var operation models.Operation

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&operation, "id = ?", operationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOperationNotFound
			}
			return storeError("load operation", err)
		}

		current := operation.Status
		if _, err := current.Transition(target); err != nil {
			return err
		}

		now := s.now().UTC()
		updates := map[string]interface{}{
			"status":     string(target),
			"updated_at": now,
		}
		if operation.StatusTimestamp(target) == nil {
			updates[target.TimestampColumn()] = now
		}

		result := tx.Model(&models.Operation{}).
			Where("id = ? AND status = ?", operation.ID, string(current)).
			Updates(updates)
		if result.Error != nil {
			return storeError("update operation", result.Error)
		}
		if result.RowsAffected == 0 {
			// Someone else moved it first; report against the status they left
			if err := tx.First(&operation, "id = ?", operation.ID).Error; err != nil {
				return storeError("reload operation", err)
			}
			return &models.TransitionError{From: operation.Status, To: target}
		}

		if err := tx.Preload("Carrier").First(&operation, "id = ?", operation.ID).Error; err != nil {
			return storeError("reload operation", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Operation %s moved to %s", operation.MissionNumber, operation.Status)
	s.feed.Publish(realtime.Event{
		Table:    realtime.TableOperations,
		Action:   realtime.ActionUpdate,
		RecordID: operation.ID,
		At:       operation.UpdatedAt,
	})
	s.notifyCarrier(&operation)

	return &operation, nil
}

// isMissionNumberConflict reports whether err is a unique violation on operations.mission_number
func isMissionNumberConflict(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "mission_number") &&
		(strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate"))
}

// notifyCarrier sends the status SMS in the background; failures are only logged
func (s *OperationService) notifyCarrier(operation *models.Operation) {
	if s.notifier == nil || operation.Carrier == nil {
		return
	}
	if operation.Carrier.Phone == nil || *operation.Carrier.Phone == "" {
		return
	}

	sms := SMSNotification{
		CarrierID: operation.CarrierID,
		Phone:     *operation.Carrier.Phone,
		Message:   StatusMessage(operation.Status, operation.LicensePlate),
	}
	notifier := s.notifier

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notificationTimeout)
		defer cancel()
		if err := notifier.SendSMS(ctx, sms); err != nil {
			log.Printf("Failed to send SMS to carrier %s: %v", sms.CarrierID, err)
		}
	}()
}

// Get returns one operation with its carrier
func (s *OperationService) Get(ctx context.Context, operationID string) (*models.Operation, error) {
	var operation models.Operation
	if err := s.db.WithContext(ctx).Preload("Carrier").First(&operation, "id = ?", operationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOperationNotFound
		}
		return nil, storeError("load operation", err)
	}
	return &operation, nil
}

// Board returns active operations and the most recently completed ones
func (s *OperationService) Board(ctx context.Context) (*OperationBoard, error) {
	var operations []models.Operation
	if err := s.db.WithContext(ctx).
		Preload("Carrier").
		Order("created_at DESC").
		Find(&operations).Error; err != nil {
		return nil, storeError("list operations", err)
	}

	now := s.now().UTC()
	board := &OperationBoard{
		Active:    []ActiveOperation{},
		Completed: []models.Operation{},
	}
	for _, op := range operations {
		if op.IsActive() {
			elapsed := op.ElapsedTime(now)
			board.Active = append(board.Active, ActiveOperation{
				Operation:      op,
				ElapsedMinutes: int(elapsed / time.Minute),
				ElapsedLabel:   models.FormatDuration(elapsed),
				NextStatuses:   op.Status.NextStatuses(),
			})
			continue
		}
		if len(board.Completed) < recentCompletedLimit {
			board.Completed = append(board.Completed, op)
		}
	}

	return board, nil
}
