package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"seoulfest/models"
	"seoulfest/services/calendar"
	"seoulfest/services/catalog"
	"seoulfest/utils/filter"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

type catalogService interface {
	List(q catalog.Query) []models.Event
	Get(id string) (models.Event, bool)
	Events() []models.Event
	GetStatus() catalog.Status
	TriggerRefresh()
}

var _ catalogService = (*catalog.Service)(nil)

// EventsHandler serves the event listing, detail, calendar, and category
// endpoints. All responses carry canonical events only.
type EventsHandler struct {
	Catalog catalogService
}

func NewEventsHandler(svc catalogService) *EventsHandler {
	return &EventsHandler{Catalog: svc}
}

// List handles GET /api/v1/events with the filter query parameters.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := catalog.Query{
		Category: r.URL.Query().Get("category"),
		District: r.URL.Query().Get("district"),
		Search:   r.URL.Query().Get("search"),
		Date:     r.URL.Query().Get("date"),
		From:     r.URL.Query().Get("startDate"),
		To:       r.URL.Query().Get("endDate"),
		IsFree:   r.URL.Query().Get("isFree"),
		Limit:    defaultListLimit,
	}

	for _, d := range []string{q.Date, q.From, q.To} {
		if d == "" {
			continue
		}
		if _, err := filter.ParseDay(d); err != nil {
			writeError(w, http.StatusBadRequest, "dates must be YYYY-MM-DD")
			return
		}
	}
	if q.Category != "" && !models.ValidCategory(q.Category) {
		writeError(w, http.StatusBadRequest, "unknown category")
		return
	}

	if v := r.URL.Query().Get("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "skip must be a non-negative integer")
			return
		}
		q.Skip = n
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n > maxListLimit {
			n = maxListLimit
		}
		q.Limit = n
	}

	writeJSON(w, http.StatusOK, h.Catalog.List(q))
}

// Get handles GET /api/v1/events/{id}.
func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	event, ok := h.Catalog.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// Calendar handles GET /api/v1/events/calendar?year=&month= and returns the
// per-day active event counts for that month.
func (h *EventsHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 2000 || year > 2100 {
		writeError(w, http.StatusBadRequest, "year must be between 2000 and 2100")
		return
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "month must be between 1 and 12")
		return
	}

	counts := calendar.CountsForMonth(h.Catalog.Events(), year, time.Month(month))
	writeJSON(w, http.StatusOK, counts)
}

// Categories handles GET /api/v1/events/categories.
func (h *EventsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.Categories)
}

// Status handles GET /api/v1/events/status with refresh worker state.
func (h *EventsHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Catalog.GetStatus())
}

// Refresh handles POST /api/v1/events/refresh, triggering a catalog
// re-sync. Non-blocking; poll Status for progress.
func (h *EventsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.Catalog.TriggerRefresh()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh triggered"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
