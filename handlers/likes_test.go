package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"seoulfest/internal/auth"
	"seoulfest/internal/database"
	"seoulfest/models"
	"seoulfest/services/likes"
)

// memoryLikeStore is an in-memory likes.Store for handler tests.
type memoryLikeStore struct {
	liked map[string]map[string]bool
}

func newMemoryLikeStore() *memoryLikeStore {
	return &memoryLikeStore{liked: make(map[string]map[string]bool)}
}

func (m *memoryLikeStore) Like(userID, eventID string) error {
	if m.liked[userID] == nil {
		m.liked[userID] = make(map[string]bool)
	}
	if m.liked[userID][eventID] {
		return database.ErrAlreadyLiked
	}
	m.liked[userID][eventID] = true
	return nil
}

func (m *memoryLikeStore) Unlike(userID, eventID string) error {
	if !m.liked[userID][eventID] {
		return database.ErrLikeNotFound
	}
	delete(m.liked[userID], eventID)
	return nil
}

func (m *memoryLikeStore) IsLiked(userID, eventID string) (bool, error) {
	return m.liked[userID][eventID], nil
}

func (m *memoryLikeStore) List(userID string) ([]string, error) {
	var ids []string
	for id := range m.liked[userID] {
		ids = append(ids, id)
	}
	return ids, nil
}

// withUser injects an authenticated user the way the session middleware
// does.
func withUser(userID string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), auth.ContextKeyUserID, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newLikesRouter(store likes.Store, catalogStub *stubCatalog) *mux.Router {
	h := NewLikesHandler(likes.New(store), catalogStub)
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/events/liked/all", h.ListLiked).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/events/{id}/like", h.Like).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/events/{id}/like", h.Unlike).Methods(http.MethodDelete)
	r.HandleFunc("/api/v1/events/{id}/like/toggle", h.Toggle).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/events/{id}/is-liked", h.IsLiked).Methods(http.MethodGet)
	return r
}

func doUserRequest(t *testing.T, router *mux.Router, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	withUser("u1", router).ServeHTTP(rec, req)
	return rec
}

func TestLike(t *testing.T) {
	router := newLikesRouter(newMemoryLikeStore(), &stubCatalog{events: testEvents()})

	rec := doUserRequest(t, router, http.MethodPost, "/api/v1/events/1/like")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// Liking again is a client error, not an upsert.
	rec = doUserRequest(t, router, http.MethodPost, "/api/v1/events/1/like")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on duplicate like, got %d", rec.Code)
	}
}

func TestLike_UnknownEvent(t *testing.T) {
	router := newLikesRouter(newMemoryLikeStore(), &stubCatalog{events: testEvents()})

	rec := doUserRequest(t, router, http.MethodPost, "/api/v1/events/999/like")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestUnlike(t *testing.T) {
	store := newMemoryLikeStore()
	router := newLikesRouter(store, &stubCatalog{events: testEvents()})

	doUserRequest(t, router, http.MethodPost, "/api/v1/events/1/like")

	rec := doUserRequest(t, router, http.MethodDelete, "/api/v1/events/1/like")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doUserRequest(t, router, http.MethodDelete, "/api/v1/events/1/like")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on unliking an unliked event, got %d", rec.Code)
	}
}

func TestToggle(t *testing.T) {
	router := newLikesRouter(newMemoryLikeStore(), &stubCatalog{events: testEvents()})

	rec := doUserRequest(t, router, http.MethodPost, "/api/v1/events/1/like/toggle")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got["is_liked"] != true {
		t.Errorf("expected is_liked true, got %v", got["is_liked"])
	}

	rec = doUserRequest(t, router, http.MethodPost, "/api/v1/events/1/like/toggle")
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got["is_liked"] != false {
		t.Errorf("expected is_liked false after second toggle, got %v", got["is_liked"])
	}
}

func TestIsLiked(t *testing.T) {
	router := newLikesRouter(newMemoryLikeStore(), &stubCatalog{events: testEvents()})

	rec := doUserRequest(t, router, http.MethodGet, "/api/v1/events/1/is-liked")
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got["is_liked"] != false {
		t.Errorf("expected is_liked false, got %v", got["is_liked"])
	}

	doUserRequest(t, router, http.MethodPost, "/api/v1/events/1/like")

	rec = doUserRequest(t, router, http.MethodGet, "/api/v1/events/1/is-liked")
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got["is_liked"] != true {
		t.Errorf("expected is_liked true after like, got %v", got["is_liked"])
	}
}

func TestListLiked_SkipsStaleIDs(t *testing.T) {
	store := newMemoryLikeStore()
	// e1 is in the catalog, "gone" fell out of it.
	store.liked["u1"] = map[string]bool{"1": true, "gone": true}
	router := newLikesRouter(store, &stubCatalog{events: testEvents()})

	rec := doUserRequest(t, router, http.MethodGet, "/api/v1/events/liked/all")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var got []models.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("expected only the live event, got %v", got)
	}
}
