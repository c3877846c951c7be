package models

import "time"

// ChatMessage is a single turn in a conversation transcript.
type ChatMessage struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Sender         string    `json:"sender"` // "user" | "bot"
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ChatRequest is the body of a chat turn.
type ChatRequest struct {
	ConversationID string `json:"conversationId,omitempty"`
	Message        string `json:"message"`
}

// ChatResponse is the reply to a chat turn.
type ChatResponse struct {
	ConversationID string `json:"conversationId"`
	Reply          string `json:"reply"`
}
