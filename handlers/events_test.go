package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"seoulfest/models"
	"seoulfest/services/catalog"
)

// stubCatalog is a fixed snapshot standing in for the catalog service.
type stubCatalog struct {
	events    []models.Event
	refreshed bool
}

func (s *stubCatalog) List(q catalog.Query) []models.Event {
	out := make([]models.Event, 0)
	for _, e := range s.events {
		if q.Category != "" && e.Category != q.Category {
			continue
		}
		out = append(out, e)
	}
	if q.Skip > 0 {
		if q.Skip >= len(out) {
			return []models.Event{}
		}
		out = out[q.Skip:]
	}
	if q.Limit > 0 && q.Limit < len(out) {
		out = out[:q.Limit]
	}
	return out
}

func (s *stubCatalog) Get(id string) (models.Event, bool) {
	for _, e := range s.events {
		if e.ID == id {
			return e, true
		}
	}
	return models.Event{}, false
}

func (s *stubCatalog) Events() []models.Event { return s.events }

func (s *stubCatalog) GetStatus() catalog.Status { return catalog.Status{State: "idle"} }

func (s *stubCatalog) TriggerRefresh() { s.refreshed = true }

func testEvents() []models.Event {
	return []models.Event{
		{ID: "1", Title: "서울 재즈 페스티벌", Category: models.CategoryFestival, Date: "2025-05-24", StartDate: "2025-05-24", EndDate: "2025-05-26"},
		{ID: "2", Title: "봄 특별전", Category: models.CategoryExhibition, Date: "2025-05-25"},
	}
}

func newEventsRouter(stub *stubCatalog) *mux.Router {
	h := NewEventsHandler(stub)
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/events", h.List).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/events/calendar", h.Calendar).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/events/categories", h.Categories).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/events/refresh", h.Refresh).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/events/{id}", h.Get).Methods(http.MethodGet)
	return r
}

func doRequest(t *testing.T, router *mux.Router, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestEventsList(t *testing.T) {
	router := newEventsRouter(&stubCatalog{events: testEvents()})

	rec := doRequest(t, router, http.MethodGet, "/api/v1/events")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var got []models.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 events, got %d", len(got))
	}
}

func TestEventsList_CategoryFilter(t *testing.T) {
	router := newEventsRouter(&stubCatalog{events: testEvents()})

	rec := doRequest(t, router, http.MethodGet, "/api/v1/events?category=festival")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var got []models.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 1 || got[0].ID != "1" {
		t.Errorf("unexpected filtered result: %v", got)
	}
}

func TestEventsList_BadParams(t *testing.T) {
	router := newEventsRouter(&stubCatalog{events: testEvents()})

	cases := []string{
		"/api/v1/events?date=05/24/2025",
		"/api/v1/events?category=movies",
		"/api/v1/events?skip=-1",
		"/api/v1/events?limit=0",
		"/api/v1/events?startDate=sometime",
	}
	for _, target := range cases {
		rec := doRequest(t, router, http.MethodGet, target)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestEventsGet(t *testing.T) {
	router := newEventsRouter(&stubCatalog{events: testEvents()})

	rec := doRequest(t, router, http.MethodGet, "/api/v1/events/1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var got models.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Title != "서울 재즈 페스티벌" {
		t.Errorf("unexpected event %+v", got)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/events/999")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown id, got %d", rec.Code)
	}
}

func TestEventsCalendar(t *testing.T) {
	router := newEventsRouter(&stubCatalog{events: testEvents()})

	rec := doRequest(t, router, http.MethodGet, "/api/v1/events/calendar?year=2025&month=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var counts map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &counts); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if counts["2025-05-25"] != 2 {
		t.Errorf("expected 2 events on 2025-05-25, got %d", counts["2025-05-25"])
	}
	if _, ok := counts["2025-05-23"]; ok {
		t.Error("empty days must be absent from the counts")
	}
}

func TestEventsCalendar_BadParams(t *testing.T) {
	router := newEventsRouter(&stubCatalog{events: testEvents()})

	for _, target := range []string{
		"/api/v1/events/calendar",
		"/api/v1/events/calendar?year=1990&month=5",
		"/api/v1/events/calendar?year=2025&month=13",
	} {
		rec := doRequest(t, router, http.MethodGet, target)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestEventsCategories(t *testing.T) {
	router := newEventsRouter(&stubCatalog{})

	rec := doRequest(t, router, http.MethodGet, "/api/v1/events/categories")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var got []models.Category
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != len(models.Categories) {
		t.Errorf("expected %d categories, got %d", len(models.Categories), len(got))
	}
}

func TestEventsRefresh(t *testing.T) {
	stub := &stubCatalog{}
	router := newEventsRouter(stub)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/events/refresh")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if !stub.refreshed {
		t.Error("expected a refresh to be triggered")
	}
}
