package catalog

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"seoulfest/models"
	"seoulfest/services/seoulapi"
	"seoulfest/utils/filter"
)

// Fetcher pulls raw event rows from the upstream catalog.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]seoulapi.EventRow, error)
}

var _ Fetcher = (*seoulapi.Client)(nil)

// Query is the full filter set accepted by List. Zero fields pass all
// events; criteria combine conjunctively.
type Query struct {
	Skip     int
	Limit    int
	Category string // canonical category id
	District string // exact 자치구 match
	Search   string // substring over title/description/location
	Date     string // active on this day (YYYY-MM-DD)
	From     string // range overlap: event ends on or after this day
	To       string // range overlap: event starts on or before this day
	IsFree   string // exact match on the upstream free/paid marker
}

// Status holds the current state of the catalog refresh worker.
type Status struct {
	Running         bool      `json:"running"`
	State           string    `json:"state"` // "idle", "refreshing", "stopped"
	LastRefreshAt   time.Time `json:"lastRefreshAt"`
	LastRefreshMs   int64     `json:"lastRefreshMs"`
	NextRefreshAt   time.Time `json:"nextRefreshAt"`
	RefreshInterval string    `json:"refreshInterval"`
	EventCount      int       `json:"eventCount"`
	LastError       string    `json:"lastError,omitempty"`
}

// Service owns the in-memory canonical event snapshot. The snapshot is
// rebuilt wholesale on every refresh; a failed refresh leaves the previous
// snapshot serving so browse/search/chat keep working (degrade, don't die).
type Service struct {
	mu          sync.RWMutex
	events      []models.Event
	byID        map[string]models.Event
	refreshedAt time.Time

	fetcher Fetcher
	now     func() time.Time

	stopCh          chan struct{}
	refreshNow      chan struct{}
	refreshInterval time.Duration

	statusMu      sync.RWMutex
	running       bool
	state         string
	lastRefreshAt time.Time
	lastRefreshMs int64
	nextRefreshAt time.Time
	lastError     string
}

// New creates a catalog service backed by the given fetcher.
func New(fetcher Fetcher) *Service {
	return &Service{
		fetcher: fetcher,
		byID:    make(map[string]models.Event),
		now:     time.Now,
	}
}

// Refresh fetches the full upstream catalog, normalizes it, and swaps the
// snapshot. On error the existing snapshot is left untouched. Concurrent
// refreshes are not coalesced; the last one to finish wins.
func (s *Service) Refresh(ctx context.Context) error {
	rows, err := s.fetcher.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("fetch catalog: %w", err)
	}

	events := NormalizeAll(rows, s.now())

	// Dedupe by id (upstream repeats rows across pages occasionally),
	// then order by start date the way the original listing did.
	byID := make(map[string]models.Event, len(events))
	deduped := events[:0]
	for _, e := range events {
		if _, seen := byID[e.ID]; seen {
			continue
		}
		byID[e.ID] = e
		deduped = append(deduped, e)
	}
	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].Date < deduped[j].Date
	})

	s.mu.Lock()
	s.events = deduped
	s.byID = byID
	s.refreshedAt = s.now().UTC()
	s.mu.Unlock()

	log.Printf("[catalog] snapshot refreshed: %d events", len(deduped))
	return nil
}

// Events returns a copy of the current snapshot in listing order.
func (s *Service) Events() []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Get returns a single event by id.
func (s *Service) Get(id string) (models.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byID[id]
	return e, ok
}

// RefreshedAt returns when the snapshot was last rebuilt.
func (s *Service) RefreshedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshedAt
}

// List applies the query against the snapshot. Filtering is stable: result
// order is snapshot order. Skip/Limit paging is applied last.
func (s *Service) List(q Query) []models.Event {
	s.mu.RLock()
	events := s.events
	s.mu.RUnlock()

	matched := filter.Apply(events, filter.Criteria{
		Category: q.Category,
		Search:   q.Search,
		Date:     q.Date,
	})

	if q.District != "" || q.IsFree != "" || q.From != "" || q.To != "" {
		narrowed := matched[:0]
		for _, e := range matched {
			if q.District != "" && e.District != q.District {
				continue
			}
			if q.IsFree != "" && e.Price != q.IsFree {
				continue
			}
			if q.From != "" && rangeEnd(e) < q.From {
				continue
			}
			if q.To != "" && rangeStart(e) > q.To {
				continue
			}
			narrowed = append(narrowed, e)
		}
		matched = narrowed
	}

	if q.Skip > 0 {
		if q.Skip >= len(matched) {
			return []models.Event{}
		}
		matched = matched[q.Skip:]
	}
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}

	out := make([]models.Event, len(matched))
	copy(out, matched)
	return out
}

// rangeStart and rangeEnd collapse single-date events onto their one day so
// canonical YYYY-MM-DD strings compare correctly lexicographically.
func rangeStart(e models.Event) string {
	if e.HasRange() {
		return e.StartDate
	}
	return e.Date
}

func rangeEnd(e models.Event) string {
	if e.HasRange() {
		return e.EndDate
	}
	return e.Date
}

// StartBackgroundRefresh begins the initial population and periodic refresh
// loop. A superseded in-flight refresh is not cancelled.
func (s *Service) StartBackgroundRefresh(interval time.Duration) {
	s.refreshInterval = interval
	s.stopCh = make(chan struct{})
	s.refreshNow = make(chan struct{}, 1)

	s.statusMu.Lock()
	s.running = true
	s.state = "idle"
	s.statusMu.Unlock()

	go func() {
		log.Println("[catalog] background refresh: initial population starting...")
		s.doRefresh()
		log.Println("[catalog] background refresh: initial population complete")

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			s.statusMu.Lock()
			s.nextRefreshAt = time.Now().Add(interval)
			s.statusMu.Unlock()

			select {
			case <-ticker.C:
				log.Println("[catalog] background refresh: periodic refresh starting...")
				s.doRefresh()
				log.Println("[catalog] background refresh: periodic refresh complete")
			case <-s.refreshNow:
				log.Println("[catalog] background refresh: manual refresh triggered...")
				s.doRefresh()
				log.Println("[catalog] background refresh: manual refresh complete")
				// Reset so the next periodic refresh is a full interval away
				ticker.Reset(interval)
			case <-s.stopCh:
				log.Println("[catalog] background refresh: stopped")
				s.statusMu.Lock()
				s.running = false
				s.state = "stopped"
				s.statusMu.Unlock()
				return
			}
		}
	}()
}

// doRefresh runs one refresh with status tracking. Errors are recorded and
// logged, never fatal.
func (s *Service) doRefresh() {
	s.statusMu.Lock()
	s.state = "refreshing"
	s.statusMu.Unlock()

	start := time.Now()
	err := s.Refresh(context.Background())
	elapsed := time.Since(start)

	s.statusMu.Lock()
	s.state = "idle"
	s.lastRefreshAt = time.Now()
	s.lastRefreshMs = elapsed.Milliseconds()
	if err != nil {
		s.lastError = err.Error()
		log.Printf("[catalog] refresh failed, keeping previous snapshot: %v", err)
	} else {
		s.lastError = ""
	}
	s.statusMu.Unlock()
}

// TriggerRefresh requests an immediate refresh. Non-blocking.
func (s *Service) TriggerRefresh() {
	select {
	case s.refreshNow <- struct{}{}:
	default:
		// Already a refresh pending
	}
}

// Stop gracefully stops the background refresh loop.
func (s *Service) Stop() {
	if s.stopCh != nil {
		close(s.stopCh)
	}
}

// GetStatus returns the current refresh worker status.
func (s *Service) GetStatus() Status {
	s.statusMu.RLock()
	running := s.running
	state := s.state
	lastRefreshAt := s.lastRefreshAt
	lastRefreshMs := s.lastRefreshMs
	nextRefreshAt := s.nextRefreshAt
	lastError := s.lastError
	s.statusMu.RUnlock()

	s.mu.RLock()
	count := len(s.events)
	s.mu.RUnlock()

	intervalStr := ""
	if s.refreshInterval > 0 {
		if s.refreshInterval >= time.Hour {
			intervalStr = fmt.Sprintf("%.0fh", s.refreshInterval.Hours())
		} else {
			intervalStr = fmt.Sprintf("%.0fm", s.refreshInterval.Minutes())
		}
	}

	return Status{
		Running:         running,
		State:           state,
		LastRefreshAt:   lastRefreshAt,
		LastRefreshMs:   lastRefreshMs,
		NextRefreshAt:   nextRefreshAt,
		RefreshInterval: intervalStr,
		EventCount:      count,
		LastError:       lastError,
	}
}
