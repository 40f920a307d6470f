package models

import (
	"errors"
	"fmt"
)

// OperationStatus is a truck's position in the yard progression
type OperationStatus string

const (
	StatusSiteAccess     OperationStatus = "acces_au_site"
	StatusParkingWait    OperationStatus = "attente_au_parking"
	StatusUnloadingDock  OperationStatus = "quai_dechargement"
	StatusLoadingDock    OperationStatus = "quai_chargement"
	StatusOperationsDone OperationStatus = "fin_des_operations"
)

// ErrInvalidTransition is matched by every TransitionError
var ErrInvalidTransition = errors.New("invalid status transition")

// TransitionError describes a rejected status change
type TransitionError struct {
	From OperationStatus
	To   OperationStatus
}

func (e *TransitionError) Error() string {
	if e.From.IsTerminal() {
		return fmt.Sprintf("operation is already %s, no further status change is allowed", e.From)
	}
	return fmt.Sprintf("cannot move operation from %s to %s", e.From, e.To)
}

// Is lets errors.Is match ErrInvalidTransition
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

var nextStatuses = map[OperationStatus][]OperationStatus{
	StatusSiteAccess:     {StatusParkingWait},
	StatusParkingWait:    {StatusUnloadingDock, StatusLoadingDock},
	StatusUnloadingDock:  {StatusLoadingDock, StatusOperationsDone},
	StatusLoadingDock:    {StatusOperationsDone},
	StatusOperationsDone: {},
}

// AllOperationStatuses returns the statuses in yard order
func AllOperationStatuses() []OperationStatus {
	return []OperationStatus{
		StatusSiteAccess,
		StatusParkingWait,
		StatusUnloadingDock,
		StatusLoadingDock,
		StatusOperationsDone,
	}
}

func (s OperationStatus) String() string {
	return string(s)
}

// IsValid reports whether s is one of the five yard statuses
func (s OperationStatus) IsValid() bool {
	_, ok := nextStatuses[s]
	return ok
}

// IsTerminal reports whether no transition leaves s
func (s OperationStatus) IsTerminal() bool {
	return s == StatusOperationsDone
}

// NextStatuses returns the statuses an operation at s may move to
func (s OperationStatus) NextStatuses() []OperationStatus {
	next := nextStatuses[s]
	out := make([]OperationStatus, len(next))
	copy(out, next)
	return out
}

// CanTransitionTo reports whether target is a permitted next status
func (s OperationStatus) CanTransitionTo(target OperationStatus) bool {
	for _, next := range nextStatuses[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Transition validates a move from s to target
func (s OperationStatus) Transition(target OperationStatus) (OperationStatus, error) {
	if !s.CanTransitionTo(target) {
		return s, &TransitionError{From: s, To: target}
	}
	return target, nil
}

// TimestampColumn returns the column recording when the status was reached
func (s OperationStatus) TimestampColumn() string {
	switch s {
	case StatusSiteAccess:
		return "entered_site_at"
	case StatusParkingWait:
		return "parking_at"
	case StatusUnloadingDock:
		return "called_to_unloading_at"
	case StatusLoadingDock:
		return "called_to_loading_at"
	case StatusOperationsDone:
		return "operations_completed_at"
	default:
		return ""
	}
}
