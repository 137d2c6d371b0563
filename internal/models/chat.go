package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	MessageTypeText  = "text"
	MessageTypeVoice = "voice"
)

// Message is a single persisted conversation turn. Rows are append-only and
// removed only in bulk when a user clears their history.
type Message struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Role        string    `json:"role"`
	Content     string    `json:"content"`
	MessageType string    `json:"message_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// ChatMessage is one entry of the prompt sent to the completion API.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the payload sent to the chat endpoint.
type ChatRequest struct {
	Message     string `json:"message"`
	MessageType string `json:"messageType"`
}

// ChatResponse carries the assistant reply back to the client.
type ChatResponse struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId"`
}
