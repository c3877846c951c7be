package filter

import (
	"fmt"
	"strings"
	"time"
)

// DayFormat is the canonical calendar-date layout used throughout.
const DayFormat = "2006-01-02"

// ParseDay parses a YYYY-MM-DD string into a midnight-UTC time. Using a
// fixed midnight anchor keeps all day comparisons free of timezone and
// time-of-day drift.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DayFormat, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return t, nil
}

// Day truncates an arbitrary timestamp to its calendar date at midnight UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDay renders a timestamp as YYYY-MM-DD.
func FormatDay(t time.Time) string {
	return t.Format(DayFormat)
}
