package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"seoulfest/models"
)

// echoChat replies with a fixed string, recording the message it saw.
type echoChat struct {
	lastMessage string
}

func (e *echoChat) Answer(events []models.Event, message string) string {
	e.lastMessage = message
	return "1 행사를 찾았어요!"
}

// memoryConversations is an in-memory conversationStore.
type memoryConversations struct {
	owners   map[string]string
	messages map[string][]models.ChatMessage
}

func newMemoryConversations() *memoryConversations {
	return &memoryConversations{
		owners:   make(map[string]string),
		messages: make(map[string][]models.ChatMessage),
	}
}

func (m *memoryConversations) Create(id, userID string) error {
	m.owners[id] = userID
	return nil
}

func (m *memoryConversations) Exists(id, userID string) (bool, error) {
	return m.owners[id] == userID, nil
}

func (m *memoryConversations) AppendMessage(msg models.ChatMessage) error {
	m.messages[msg.ConversationID] = append(m.messages[msg.ConversationID], msg)
	return nil
}

func (m *memoryConversations) ListMessages(conversationID string) ([]models.ChatMessage, error) {
	return m.messages[conversationID], nil
}

func newChatRouter(chat chatService, store conversationStore) *mux.Router {
	h := NewChatHandler(chat, &stubCatalog{events: testEvents()}, store)
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/chat", h.Handle).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/chat/{id}", h.History).Methods(http.MethodGet)
	return r
}

func postChat(t *testing.T, router *mux.Router, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	withUser("u1", router).ServeHTTP(rec, req)
	return rec
}

func TestChat_NewConversation(t *testing.T) {
	chat := &echoChat{}
	store := newMemoryConversations()
	router := newChatRouter(chat, store)

	rec := postChat(t, router, `{"message": "축제 알려줘"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp models.ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ConversationID == "" {
		t.Error("expected a generated conversation id")
	}
	if resp.Reply != "1 행사를 찾았어요!" {
		t.Errorf("unexpected reply %q", resp.Reply)
	}
	if chat.lastMessage != "축제 알려줘" {
		t.Errorf("matcher saw %q", chat.lastMessage)
	}

	// Both turns land in the transcript.
	msgs := store.messages[resp.ConversationID]
	if len(msgs) != 2 {
		t.Fatalf("expected 2 stored messages, got %d", len(msgs))
	}
	if msgs[0].Sender != "user" || msgs[1].Sender != "bot" {
		t.Errorf("unexpected senders %s/%s", msgs[0].Sender, msgs[1].Sender)
	}
}

func TestChat_ContinuesConversation(t *testing.T) {
	store := newMemoryConversations()
	router := newChatRouter(&echoChat{}, store)

	rec := postChat(t, router, `{"message": "첫번째"}`)
	var first models.ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &first); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	rec = postChat(t, router, `{"conversationId": "`+first.ConversationID+`", "message": "두번째"}`)
	var second models.ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &second); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if second.ConversationID != first.ConversationID {
		t.Errorf("expected the same conversation, got %s and %s", first.ConversationID, second.ConversationID)
	}
	if len(store.messages[first.ConversationID]) != 4 {
		t.Errorf("expected 4 stored messages, got %d", len(store.messages[first.ConversationID]))
	}
}

func TestChat_RejectsEmptyMessage(t *testing.T) {
	router := newChatRouter(&echoChat{}, newMemoryConversations())

	for _, body := range []string{`{}`, `{"message": "   "}`, `not json`} {
		rec := postChat(t, router, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestChat_ForeignConversationRejected(t *testing.T) {
	store := newMemoryConversations()
	store.owners["someone-elses"] = "u2"
	router := newChatRouter(&echoChat{}, store)

	rec := postChat(t, router, `{"conversationId": "someone-elses", "message": "hi"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestChatHistory(t *testing.T) {
	store := newMemoryConversations()
	router := newChatRouter(&echoChat{}, store)

	rec := postChat(t, router, `{"message": "축제"}`)
	var resp models.ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chat/"+resp.ConversationID, nil)
	histRec := httptest.NewRecorder()
	withUser("u1", router).ServeHTTP(histRec, req)
	if histRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", histRec.Code)
	}

	var msgs []models.ChatMessage
	if err := json.Unmarshal(histRec.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(msgs) != 2 {
		t.Errorf("expected 2 messages, got %d", len(msgs))
	}
}

func TestChatHistory_UnknownConversation(t *testing.T) {
	router := newChatRouter(&echoChat{}, newMemoryConversations())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chat/missing", nil)
	rec := httptest.NewRecorder()
	withUser("u1", router).ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
