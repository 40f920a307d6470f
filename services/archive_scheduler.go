package services

import (
	"context"
	"log"
	"time"

	"github.com/jinzhu/now"
)

// ArchiveScheduler runs the archiver once a day at a fixed hour
type ArchiveScheduler struct {
	archiver *ArchiveService
	hour     int
	location *time.Location
}

// NewArchiveScheduler creates a scheduler firing at hour:00 in location
func NewArchiveScheduler(archiver *ArchiveService, hour int, location *time.Location) *ArchiveScheduler {
	if location == nil {
		location = time.Local
	}
	return &ArchiveScheduler{
		archiver: archiver,
		hour:     hour,
		location: location,
	}
}

// NextRun returns the first hour:00 in loc strictly after from
func NextRun(from time.Time, hour int, loc *time.Location) time.Time {
	day := now.With(from.In(loc)).BeginningOfDay()
	next := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, loc)
	if !next.After(from) {
		day = day.AddDate(0, 0, 1)
		next = time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, loc)
	}
	return next
}

// Start blocks, running the archiver daily until ctx is cancelled
func (s *ArchiveScheduler) Start(ctx context.Context) {
	for {
		next := NextRun(time.Now(), s.hour, s.location)
		log.Printf("Archiver scheduled for %s", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Println("Archive scheduler stopped")
			return
		case firedAt := <-timer.C:
			result, err := s.archiver.Run(ctx, firedAt)
			if err != nil {
				log.Printf("Scheduled archive run failed: %v", err)
				continue
			}
			log.Printf("Scheduled archive run for %s: %s (%d archived)", result.ArchiveDate, result.Message, result.Archived)
		}
	}
}
