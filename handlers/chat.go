package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"seoulfest/api"
	"seoulfest/internal/database"
	"seoulfest/models"
)

type chatService interface {
	Answer(events []models.Event, message string) string
}

// conversationStore persists chat transcripts. Persistence is best-effort:
// a failed write is logged, never surfaced as a failed chat turn.
type conversationStore interface {
	Create(id, userID string) error
	Exists(id, userID string) (bool, error)
	AppendMessage(m models.ChatMessage) error
	ListMessages(conversationID string) ([]models.ChatMessage, error)
}

var _ conversationStore = (*database.ConversationRepository)(nil)

// ChatHandler serves the conversational query endpoint. Each turn runs the
// rule matcher over the current catalog snapshot.
type ChatHandler struct {
	Chat          chatService
	Catalog       catalogService
	Conversations conversationStore
}

func NewChatHandler(chatSvc chatService, catalogSvc catalogService, store conversationStore) *ChatHandler {
	return &ChatHandler{Chat: chatSvc, Catalog: catalogSvc, Conversations: store}
}

// Handle processes POST /api/v1/chat.
func (h *ChatHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	userID := api.GetUserID(r)
	convID, err := h.resolveConversation(req.ConversationID, userID)
	if err != nil {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	reply := h.Chat.Answer(h.Catalog.Events(), req.Message)

	now := time.Now().UTC()
	h.record(models.ChatMessage{
		ID: uuid.NewString(), ConversationID: convID,
		Sender: "user", Text: req.Message, CreatedAt: now,
	})
	h.record(models.ChatMessage{
		ID: uuid.NewString(), ConversationID: convID,
		Sender: "bot", Text: reply, CreatedAt: now,
	})

	writeJSON(w, http.StatusOK, models.ChatResponse{
		ConversationID: convID,
		Reply:          reply,
	})
}

// History handles GET /api/v1/chat/{conversationId} and returns the stored
// transcript.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := api.GetUserID(r)
	convID := mux.Vars(r)["id"]

	ok, err := h.Conversations.Exists(convID, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	msgs, err := h.Conversations.ListMessages(convID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

// resolveConversation returns an existing conversation owned by the user or
// starts a new one.
func (h *ChatHandler) resolveConversation(id, userID string) (string, error) {
	if id == "" {
		newID := uuid.NewString()
		if err := h.Conversations.Create(newID, userID); err != nil {
			// Transcript storage failing must not take chat down.
			log.Printf("[chat] create conversation failed: %v", err)
		}
		return newID, nil
	}
	ok, err := h.Conversations.Exists(id, userID)
	if err != nil {
		log.Printf("[chat] conversation lookup failed: %v", err)
		return id, nil
	}
	if !ok {
		return "", database.ErrConversationNotFound
	}
	return id, nil
}

func (h *ChatHandler) record(m models.ChatMessage) {
	if err := h.Conversations.AppendMessage(m); err != nil {
		log.Printf("[chat] append message failed: %v", err)
	}
}
