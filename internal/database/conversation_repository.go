package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"seoulfest/models"
)

// ErrConversationNotFound is returned for an unknown conversation id.
var ErrConversationNotFound = errors.New("conversation not found")

// ConversationRepository persists chat transcripts. The matcher itself is
// stateless; transcripts exist only so a client can re-render its history.
type ConversationRepository struct {
	db *sql.DB
}

// NewConversationRepository creates a conversation repository.
func NewConversationRepository(db *sql.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create starts a conversation owned by userID.
func (r *ConversationRepository) Create(id, userID string) error {
	_, err := r.db.Exec(
		`INSERT INTO conversations (id, user_id) VALUES (?, ?)`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

// Exists reports whether a conversation belongs to the user.
func (r *ConversationRepository) Exists(id, userID string) (bool, error) {
	var one int
	err := r.db.QueryRow(
		`SELECT 1 FROM conversations WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query conversation: %w", err)
	}
	return true, nil
}

// AppendMessage records one turn of a conversation.
func (r *ConversationRepository) AppendMessage(m models.ChatMessage) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(
		`INSERT INTO messages (id, conversation_id, sender, text, created_at) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.ConversationID, m.Sender, m.Text, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListMessages returns a conversation's messages in order.
func (r *ConversationRepository) ListMessages(conversationID string) ([]models.ChatMessage, error) {
	rows, err := r.db.Query(
		`SELECT id, conversation_id, sender, text, created_at
		 FROM messages WHERE conversation_id = ? ORDER BY created_at, id`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var msgs []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Sender, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
