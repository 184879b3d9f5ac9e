package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatSession groups a conversation's messages under one session identifier
type ChatSession struct {
	ID         uuid.UUID `json:"id"`
	SessionKey string    `json:"session_key"` // opaque caller-supplied session identifier
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"created_at"`
}

// ChatMessage is a single turn in a chat session
type ChatMessage struct {
	ID            uuid.UUID `json:"id"`
	ChatSessionID uuid.UUID `json:"chat_session_id"`
	Role          string    `json:"role"` // "user" or "assistant"
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
}
