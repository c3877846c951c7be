package filter

import (
	"strings"

	"seoulfest/models"
)

// Criteria is a conjunctive predicate set over canonical events. A zero
// field passes every event, so the zero Criteria is the identity filter.
type Criteria struct {
	Category string // canonical category id, exact match
	Search   string // case-insensitive substring over title/description/location
	Date     string // YYYY-MM-DD; matches single date or inclusive range
}

// Apply returns the events matching every set criterion, preserving input
// order. The input slice is never mutated.
func Apply(events []models.Event, c Criteria) []models.Event {
	result := make([]models.Event, 0, len(events))
	for _, e := range events {
		if Matches(e, c) {
			result = append(result, e)
		}
	}
	return result
}

// Matches reports whether a single event passes all set criteria.
func Matches(e models.Event, c Criteria) bool {
	return MatchesCategory(e, c.Category) &&
		MatchesSearch(e, c.Search) &&
		MatchesDate(e, c.Date)
}

// MatchesCategory checks the event's canonical category. An empty selection
// passes everything.
func MatchesCategory(e models.Event, category string) bool {
	if category == "" {
		return true
	}
	return e.Category == category
}

// MatchesSearch does a case-insensitive substring match against title,
// description, or location. Empty search text passes everything.
func MatchesSearch(e models.Event, search string) bool {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(e.Title), search) ||
		strings.Contains(strings.ToLower(e.Description), search) ||
		strings.Contains(strings.ToLower(e.Location), search)
}

// MatchesDate checks whether the event is active on the selected date.
// Range events match when the date falls inside the inclusive start/end
// range; single-date events match on exact day equality. Comparison is at
// day granularity, so time-of-day never causes off-by-one drift. An empty
// selection passes everything; an unparseable selection passes nothing.
func MatchesDate(e models.Event, selected string) bool {
	if selected == "" {
		return true
	}
	day, err := ParseDay(selected)
	if err != nil {
		return false
	}

	if e.HasRange() {
		start, err := ParseDay(e.StartDate)
		if err != nil {
			return false
		}
		end, err := ParseDay(e.EndDate)
		if err != nil {
			return false
		}
		return !day.Before(start) && !day.After(end)
	}

	eventDay, err := ParseDay(e.Date)
	if err != nil {
		return false
	}
	return day.Equal(eventDay)
}
