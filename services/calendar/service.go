// Package calendar aggregates canonical events onto calendar dates for the
// month view: per-day active-event counts plus a pure month cursor for
// navigation.
package calendar

import (
	"time"

	"seoulfest/models"
	"seoulfest/utils/filter"
)

// Counts maps YYYY-MM-DD dates to the number of events active that day.
// Absent keys mean zero; callers treat the two identically.
type Counts map[string]int

// CountsByDate walks every event's active days and increments the count for
// each. Range events count once per day from start to end inclusive, so a
// zero-length range (start == end) counts exactly once. Single-date events
// count only on their one day. Cost is O(events × average range length),
// fine for catalogs in the low hundreds.
func CountsByDate(events []models.Event) Counts {
	counts := make(Counts)
	for _, e := range events {
		addEvent(counts, e, nil)
	}
	return counts
}

// CountsForMonth is CountsByDate restricted to the given month: days of an
// event's range that fall outside the month are not counted.
func CountsForMonth(events []models.Event, year int, month time.Month) Counts {
	counts := make(Counts)
	inMonth := func(day time.Time) bool {
		return day.Year() == year && day.Month() == month
	}
	for _, e := range events {
		addEvent(counts, e, inMonth)
	}
	return counts
}

// addEvent increments counts for each active day of e, day by day. Events
// whose dates fail to parse contribute nothing.
func addEvent(counts Counts, e models.Event, include func(time.Time) bool) {
	start, end, ok := activeRange(e)
	if !ok {
		return
	}
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if include != nil && !include(day) {
			continue
		}
		counts[filter.FormatDay(day)]++
	}
}

// activeRange returns the inclusive day range an event is active on,
// collapsing single-date events to a one-day range. Both bounds are
// midnight-truncated so time-of-day never skews the walk.
func activeRange(e models.Event) (start, end time.Time, ok bool) {
	if e.HasRange() {
		s, err := filter.ParseDay(e.StartDate)
		if err != nil {
			return time.Time{}, time.Time{}, false
		}
		en, err := filter.ParseDay(e.EndDate)
		if err != nil {
			return time.Time{}, time.Time{}, false
		}
		if en.Before(s) {
			s, en = en, s
		}
		return s, en, true
	}
	d, err := filter.ParseDay(e.Date)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return d, d, true
}

// Cursor is a (year, month) pair for month navigation. Stepping the cursor
// is pure state advance/retreat and never requires recomputing counts.
type Cursor struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// CursorFor returns the cursor for the month containing t.
func CursorFor(t time.Time) Cursor {
	return Cursor{Year: t.Year(), Month: t.Month()}
}

// Prev returns the cursor one month back.
func (c Cursor) Prev() Cursor {
	t := time.Date(c.Year, c.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	return Cursor{Year: t.Year(), Month: t.Month()}
}

// Next returns the cursor one month forward.
func (c Cursor) Next() Cursor {
	t := time.Date(c.Year, c.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return Cursor{Year: t.Year(), Month: t.Month()}
}
