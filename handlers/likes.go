package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"seoulfest/api"
	"seoulfest/internal/database"
	"seoulfest/models"
	"seoulfest/services/likes"
)

// LikesHandler serves the like/unlike endpoints. Routes are mounted behind
// the session middleware, so a request reaching here always carries a user.
type LikesHandler struct {
	Likes   *likes.Service
	Catalog catalogService
}

func NewLikesHandler(likesSvc *likes.Service, catalogSvc catalogService) *LikesHandler {
	return &LikesHandler{Likes: likesSvc, Catalog: catalogSvc}
}

// Like handles POST /api/v1/events/{id}/like.
func (h *LikesHandler) Like(w http.ResponseWriter, r *http.Request) {
	userID := api.GetUserID(r)
	eventID := mux.Vars(r)["id"]

	if _, ok := h.Catalog.Get(eventID); !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	if err := h.Likes.ForUser(userID).Like(eventID); err != nil {
		if errors.Is(err, database.ErrAlreadyLiked) {
			writeError(w, http.StatusBadRequest, "already liked this event")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "event liked successfully",
		"event_id": eventID,
	})
}

// Unlike handles DELETE /api/v1/events/{id}/like.
func (h *LikesHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	userID := api.GetUserID(r)
	eventID := mux.Vars(r)["id"]

	if err := h.Likes.ForUser(userID).Unlike(eventID); err != nil {
		if errors.Is(err, database.ErrLikeNotFound) {
			writeError(w, http.StatusNotFound, "like not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "event unliked successfully",
		"event_id": eventID,
	})
}

// Toggle handles POST /api/v1/events/{id}/like/toggle and returns the
// resulting like state.
func (h *LikesHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID := api.GetUserID(r)
	eventID := mux.Vars(r)["id"]

	if _, ok := h.Catalog.Get(eventID); !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	liked, err := h.Likes.ForUser(userID).Toggle(eventID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"event_id": eventID,
		"is_liked": liked,
	})
}

// IsLiked handles GET /api/v1/events/{id}/is-liked.
func (h *LikesHandler) IsLiked(w http.ResponseWriter, r *http.Request) {
	userID := api.GetUserID(r)
	eventID := mux.Vars(r)["id"]

	liked, err := h.Likes.ForUser(userID).IsLiked(eventID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"event_id": eventID,
		"is_liked": liked,
	})
}

// ListLiked handles GET /api/v1/events/liked/all, joining the like set
// against the current snapshot. Likes pointing at events that fell out of
// the catalog are skipped, not errors.
func (h *LikesHandler) ListLiked(w http.ResponseWriter, r *http.Request) {
	userID := api.GetUserID(r)

	ids, err := h.Likes.ForUser(userID).IDs()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	events := make([]models.Event, 0, len(ids))
	for _, id := range ids {
		if e, ok := h.Catalog.Get(id); ok {
			events = append(events, e)
		}
	}
	writeJSON(w, http.StatusOK, events)
}
