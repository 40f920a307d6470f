package models

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationTableName(t *testing.T) {
	assert.Equal(t, "operations", Operation{}.TableName())
}

func TestOperationStatus_Transitions(t *testing.T) {
	tests := []struct {
		from    OperationStatus
		to      OperationStatus
		allowed bool
	}{
		{StatusSiteAccess, StatusParkingWait, true},
		{StatusSiteAccess, StatusUnloadingDock, false},
		{StatusSiteAccess, StatusOperationsDone, false},
		{StatusParkingWait, StatusUnloadingDock, true},
		{StatusParkingWait, StatusLoadingDock, true},
		{StatusParkingWait, StatusOperationsDone, false},
		{StatusParkingWait, StatusSiteAccess, false},
		{StatusUnloadingDock, StatusLoadingDock, true},
		{StatusUnloadingDock, StatusOperationsDone, true},
		{StatusUnloadingDock, StatusParkingWait, false},
		{StatusLoadingDock, StatusOperationsDone, true},
		{StatusLoadingDock, StatusUnloadingDock, false},
		{StatusOperationsDone, StatusSiteAccess, false},
		{StatusOperationsDone, StatusOperationsDone, false},
		{StatusSiteAccess, OperationStatus("teleported"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))

			next, err := tt.from.Transition(tt.to)
			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, tt.to, next)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidTransition))
			assert.Equal(t, tt.from, next, "a rejected transition keeps the current status")

			var transitionErr *TransitionError
			require.True(t, errors.As(err, &transitionErr))
			assert.Equal(t, tt.from, transitionErr.From)
			assert.Equal(t, tt.to, transitionErr.To)
		})
	}
}

func TestOperationStatus_TerminalHasNoNextStatuses(t *testing.T) {
	assert.True(t, StatusOperationsDone.IsTerminal())
	assert.Empty(t, StatusOperationsDone.NextStatuses())

	for _, s := range AllOperationStatuses() {
		if s == StatusOperationsDone {
			continue
		}
		assert.False(t, s.IsTerminal(), "%s should not be terminal", s)
		assert.NotEmpty(t, s.NextStatuses(), "%s should have a next status", s)
	}
}

func TestOperationStatus_NextStatusesIsACopy(t *testing.T) {
	next := StatusParkingWait.NextStatuses()
	next[0] = StatusOperationsDone
	assert.Equal(t, StatusUnloadingDock, StatusParkingWait.NextStatuses()[0])
}

func TestOperationStatus_IsValid(t *testing.T) {
	for _, s := range AllOperationStatuses() {
		assert.True(t, s.IsValid())
		assert.NotEmpty(t, s.TimestampColumn())
	}
	assert.False(t, OperationStatus("pending").IsValid())
	assert.Empty(t, OperationStatus("pending").TimestampColumn())
}

func TestOperation_StatusTimestamp(t *testing.T) {
	ts := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	op := Operation{CalledToLoadingAt: &ts}

	assert.Equal(t, &ts, op.StatusTimestamp(StatusLoadingDock))
	assert.Nil(t, op.StatusTimestamp(StatusUnloadingDock))
	assert.Nil(t, op.StatusTimestamp(OperationStatus("unknown")))
}

func TestNewMissionNumber(t *testing.T) {
	day := time.Date(2024, 6, 1, 14, 30, 0, 0, time.UTC)
	mission := NewMissionNumber(day)

	assert.Regexp(t, regexp.MustCompile(`^MISS-20240601-[0-9A-F]{4}$`), mission)
}

func TestOperation_ElapsedTime(t *testing.T) {
	created := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	entered := created.Add(10 * time.Minute)

	op := Operation{CreatedAt: created, EnteredSiteAt: &entered, Status: StatusParkingWait}
	assert.Equal(t, 50*time.Minute, op.ElapsedTime(created.Add(time.Hour)))

	op.EnteredSiteAt = nil
	assert.Equal(t, time.Hour, op.ElapsedTime(created.Add(time.Hour)), "falls back to created_at")

	assert.Equal(t, time.Duration(0), op.ElapsedTime(created.Add(-time.Minute)), "clock skew never yields a negative duration")
}

func TestOperation_ElapsedTimeIsMonotonic(t *testing.T) {
	entered := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	op := Operation{CreatedAt: entered, EnteredSiteAt: &entered, Status: StatusUnloadingDock}

	previous := time.Duration(0)
	for i := 0; i < 200; i++ {
		polled := op.ElapsedTime(entered.Add(time.Duration(i) * 37 * time.Second))
		assert.GreaterOrEqual(t, polled, previous)
		previous = polled
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0min"},
		{59*time.Minute + 59*time.Second, "59min"},
		{60 * time.Minute, "1h 0min"},
		{125 * time.Minute, "2h 5min"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.d))
	}
}
