package reports

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DayLayout is the accepted day format for callers.
	DayLayout = "2006-01-02"
	// KeyLayout is the day format used in cache keys and remote paths.
	KeyLayout = "20060102"
)

// ParseDay parses value as a UTC midnight.
func ParseDay(value string) (time.Time, error) {
	day, err := time.Parse(DayLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDay, value)
	}
	return day, nil
}

// Days returns every day from start to stop inclusive. A reversed range yields none.
func Days(start, stop time.Time) []time.Time {
	start = truncateToDay(start)
	stop = truncateToDay(stop)
	var days []time.Time
	for day := start; !day.After(stop); day = day.AddDate(0, 0, 1) {
		days = append(days, day)
	}
	return days
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
