package services

import (
	"errors"

	"github.com/bookyourdock/bookyourdock-api/models"
)

// ErrNotFound is matched by every "missing record" error
var ErrNotFound = errors.New("not found")

var (
	ErrOperationNotFound   error = &notFoundError{"operation not found"}
	ErrAppointmentNotFound error = &notFoundError{"no scheduled appointment found for this license plate"}
	ErrCarrierNotFound     error = &notFoundError{"carrier not found"}
)

type notFoundError struct {
	message string
}

func (e *notFoundError) Error() string {
	return e.message
}

func (e *notFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ErrInvalidTransition is returned when a status change is not permitted
var ErrInvalidTransition = models.ErrInvalidTransition

// StoreError wraps a failed read or write; its message is the store's own
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// ValidationError reports an invalid input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
