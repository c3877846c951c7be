// Package likes tracks which events a user has liked. The persistent store
// owns the truth; each logged-in user gets a session-scoped tracker holding
// a local mirror that is mutated only after the store confirms.
package likes

import (
	"fmt"
	"sort"
	"sync"

	"seoulfest/internal/database"
)

// Store is the remote like store contract.
type Store interface {
	Like(userID, eventID string) error
	Unlike(userID, eventID string) error
	IsLiked(userID, eventID string) (bool, error)
	List(userID string) ([]string, error)
}

var _ Store = (*database.LikeRepository)(nil)

// Tracker mirrors one user's like set for the lifetime of their session.
type Tracker struct {
	mu     sync.Mutex
	store  Store
	userID string
	liked  map[string]bool
	loaded bool
}

// Service hands out per-user trackers and tears them down on logout.
type Service struct {
	mu       sync.Mutex
	store    Store
	trackers map[string]*Tracker
}

// New creates the likes service over the given store.
func New(store Store) *Service {
	return &Service{store: store, trackers: make(map[string]*Tracker)}
}

// ForUser returns the user's tracker, creating it on first use (login or
// session restore). The mirror is loaded lazily on first query.
func (s *Service) ForUser(userID string) *Tracker {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trackers[userID]
	if !ok {
		t = &Tracker{store: s.store, userID: userID, liked: make(map[string]bool)}
		s.trackers[userID] = t
	}
	return t
}

// Drop discards the user's tracker. Called on logout; the store keeps the
// likes themselves.
func (s *Service) Drop(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.trackers, userID)
}

// ensureLoadedLocked populates the mirror from the store once.
func (t *Tracker) ensureLoadedLocked() error {
	if t.loaded {
		return nil
	}
	ids, err := t.store.List(t.userID)
	if err != nil {
		return fmt.Errorf("load like set: %w", err)
	}
	for _, id := range ids {
		t.liked[id] = true
	}
	t.loaded = true
	return nil
}

// Refresh reloads the mirror from the store, discarding local state.
func (t *Tracker) Refresh() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.liked = make(map[string]bool)
	t.loaded = false
	return t.ensureLoadedLocked()
}

// Toggle flips the like state of one event, pessimistically: the store call
// goes first and the mirror changes only on success. On failure the mirror
// is untouched and the error is returned; there is no optimistic mutation
// to roll back. Returns the resulting liked state.
func (t *Tracker) Toggle(eventID string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.ensureLoadedLocked(); err != nil {
		return false, err
	}

	if t.liked[eventID] {
		if err := t.store.Unlike(t.userID, eventID); err != nil {
			return true, err
		}
		delete(t.liked, eventID)
		return false, nil
	}

	if err := t.store.Like(t.userID, eventID); err != nil {
		return false, err
	}
	t.liked[eventID] = true
	return true, nil
}

// Like records a like (no-op error from the store if already liked).
func (t *Tracker) Like(eventID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.ensureLoadedLocked(); err != nil {
		return err
	}
	if err := t.store.Like(t.userID, eventID); err != nil {
		return err
	}
	t.liked[eventID] = true
	return nil
}

// Unlike removes a like through the store, mirroring only on success.
func (t *Tracker) Unlike(eventID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.ensureLoadedLocked(); err != nil {
		return err
	}
	if err := t.store.Unlike(t.userID, eventID); err != nil {
		return err
	}
	delete(t.liked, eventID)
	return nil
}

// IsLiked reports the mirrored like state for one event.
func (t *Tracker) IsLiked(eventID string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.ensureLoadedLocked(); err != nil {
		return false, err
	}
	return t.liked[eventID], nil
}

// IDs returns the mirrored like set, sorted for stable output.
func (t *Tracker) IDs() ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.ensureLoadedLocked(); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(t.liked))
	for id := range t.liked {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
