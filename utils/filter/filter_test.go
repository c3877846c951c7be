package filter

import (
	"testing"

	"seoulfest/models"
)

func sampleEvents() []models.Event {
	return []models.Event{
		{ID: "1", Title: "서울 재즈 페스티벌", Description: "야외 공연", Location: "올림픽공원", Category: models.CategoryFestival, Date: "2025-05-24", StartDate: "2025-05-24", EndDate: "2025-05-26"},
		{ID: "2", Title: "시립미술관 특별전", Description: "현대 미술", Location: "서소문", Category: models.CategoryExhibition, Date: "2025-05-25"},
		{ID: "3", Title: "한강 불꽃 콘서트", Description: "밴드 공연", Location: "여의도", Category: models.CategoryConcert, Date: "2025-11-28"},
	}
}

func TestApply_EmptyCriteriaIsIdentity(t *testing.T) {
	events := sampleEvents()
	got := Apply(events, Criteria{})
	if len(got) != len(events) {
		t.Fatalf("expected %d events, got %d", len(events), len(got))
	}
	for i := range events {
		if got[i].ID != events[i].ID {
			t.Errorf("order changed at %d: expected %s, got %s", i, events[i].ID, got[i].ID)
		}
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	events := sampleEvents()
	got := Apply(events, Criteria{Category: models.CategoryConcert})
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if len(events) != 3 {
		t.Fatalf("input slice was mutated, len=%d", len(events))
	}
	got[0].Title = "changed"
	if events[2].Title == "changed" {
		t.Error("result aliases the input slice")
	}
}

func TestApply_Category(t *testing.T) {
	got := Apply(sampleEvents(), Criteria{Category: models.CategoryFestival})
	if len(got) != 1 {
		t.Fatalf("expected 1 festival, got %d", len(got))
	}
	for _, e := range got {
		if e.Category != models.CategoryFestival {
			t.Errorf("event %s has category %s", e.ID, e.Category)
		}
	}
}

func TestApply_SearchCaseInsensitive(t *testing.T) {
	events := []models.Event{
		{ID: "1", Title: "Seoul Jazz Festival", Description: "", Location: ""},
		{ID: "2", Title: "국악 한마당", Description: "전통 공연", Location: "국립국악원"},
	}

	got := Apply(events, Criteria{Search: "JAZZ"})
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("expected event 1, got %v", got)
	}

	// Search also covers description and location.
	got = Apply(events, Criteria{Search: "국악원"})
	if len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("expected event 2, got %v", got)
	}
}

func TestMatchesDate_RangeInclusive(t *testing.T) {
	e := models.Event{Date: "2025-05-24", StartDate: "2025-05-24", EndDate: "2025-05-26"}

	for _, day := range []string{"2025-05-24", "2025-05-25", "2025-05-26"} {
		if !MatchesDate(e, day) {
			t.Errorf("expected %s to match range", day)
		}
	}
	for _, day := range []string{"2025-05-23", "2025-05-27"} {
		if MatchesDate(e, day) {
			t.Errorf("expected %s not to match range", day)
		}
	}
}

func TestMatchesDate_SingleDate(t *testing.T) {
	e := models.Event{Date: "2025-11-28"}

	if !MatchesDate(e, "2025-11-28") {
		t.Error("expected exact date to match")
	}
	if MatchesDate(e, "2025-11-27") {
		t.Error("expected other date not to match")
	}
	if !MatchesDate(e, "") {
		t.Error("empty selection must pass everything")
	}
	if MatchesDate(e, "not-a-date") {
		t.Error("unparseable selection must pass nothing")
	}
}

func TestParseDay(t *testing.T) {
	day, err := ParseDay("2025-05-24")
	if err != nil {
		t.Fatalf("ParseDay failed: %v", err)
	}
	if got := FormatDay(day); got != "2025-05-24" {
		t.Errorf("round trip gave %s", got)
	}
	if _, err := ParseDay("05/24/2025"); err == nil {
		t.Error("expected error for unsupported layout")
	}
}
