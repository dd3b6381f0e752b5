package shared

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DateLayout is the day-first format used in every date cell of the tracking sheet.
const DateLayout = "02.01.2006"

// MonthLayout names monthly worksheets.
const MonthLayout = "2006-01"

var lenientLayouts = []string{
	DateLayout,
	"2.1.2006",
	"02.01.06",
	"2006-01-02",
	"02/01/2006",
}

// FormatDate renders t as DD.MM.YYYY.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate reads a date cell. Reviewers type dates by hand, so a few neighbouring layouts are accepted.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	for _, layout := range lenientLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// DaysBetween returns floor((to - from) / 24h) for two calendar dates. The result is negative when to precedes from.
func DaysBetween(from, to time.Time) int {
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	to = time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(math.Floor(to.Sub(from).Hours() / 24))
}

// MonthTitle returns the worksheet title for the month containing t.
func MonthTitle(t time.Time) string {
	return t.Format(MonthLayout)
}

// Clock supplies "today" to the tracker so tests can pin the date.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock struct{ T time.Time }

func (c FixedClock) Now() time.Time { return c.T }
