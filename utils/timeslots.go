package utils

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the calendar date format used by appointments and archives
	DateLayout = "2006-01-02"

	firstSlotMinutes = 6*60 + 30
	lastSlotMinutes  = 20 * 60
	slotStepMinutes  = 30
)

// TimeSlots returns the bookable half-hour grid, 06:30 through 20:00
func TimeSlots() []string {
	slots := make([]string, 0, (lastSlotMinutes-firstSlotMinutes)/slotStepMinutes+1)
	for m := firstSlotMinutes; m <= lastSlotMinutes; m += slotStepMinutes {
		slots = append(slots, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}
	return slots
}

// IsValidTimeSlot reports whether slot is on the booking grid
func IsValidTimeSlot(slot string) bool {
	for _, s := range TimeSlots() {
		if s == slot {
			return true
		}
	}
	return false
}

// ParseCalendarDate parses a YYYY-MM-DD date
func ParseCalendarDate(value string) (time.Time, error) {
	return time.Parse(DateLayout, value)
}
