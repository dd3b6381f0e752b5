package shared

import (
	"context"
	"fmt"
	"time"
)

// NextRun returns the first instant strictly after now at hour:minute in now's location.
func NextRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// ValidateSchedule checks that hour and minute form a wall-clock time.
func ValidateSchedule(hour, minute int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("%w: schedule hour %d", ErrInvalidConfig, hour)
	}
	if minute < 0 || minute > 59 {
		return fmt.Errorf("%w: schedule minute %d", ErrInvalidConfig, minute)
	}
	return nil
}

// SleepUntil blocks until t or until ctx is done, whichever comes first.
func SleepUntil(ctx context.Context, t time.Time) error {
	timer := time.NewTimer(time.Until(t))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
