package repository

import (
	"context"

	"compliance-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChatRepository handles database operations for chat history
type ChatRepository struct {
	db *pgxpool.Pool
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{db: db}
}

// EnsureSchema creates the chat tables if they do not exist
func (r *ChatRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS chat_sessions (
			id UUID PRIMARY KEY,
			session_key TEXT NOT NULL,
			title TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS chat_messages (
			id UUID PRIMARY KEY,
			chat_session_id UUID NOT NULL REFERENCES chat_sessions(id) ON DELETE CASCADE,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	return err
}

// CreateSession creates a new chat session record
func (r *ChatRepository) CreateSession(ctx context.Context, session *models.ChatSession) error {
	session.ID = uuid.New()
	query := `
		INSERT INTO chat_sessions (id, session_key, title)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	return r.db.QueryRow(ctx, query, session.ID, session.SessionKey, session.Title).
		Scan(&session.CreatedAt)
}

// ListSessions retrieves all chat sessions for a session key
func (r *ChatRepository) ListSessions(ctx context.Context, sessionKey string) ([]*models.ChatSession, error) {
	query := `
		SELECT id, session_key, title, created_at
		FROM chat_sessions
		WHERE session_key = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, sessionKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*models.ChatSession
	for rows.Next() {
		session := &models.ChatSession{}
		if err := rows.Scan(&session.ID, &session.SessionKey, &session.Title, &session.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// GetSession retrieves a chat session scoped to its session key
func (r *ChatRepository) GetSession(ctx context.Context, sessionKey string, id uuid.UUID) (*models.ChatSession, error) {
	session := &models.ChatSession{}
	query := `
		SELECT id, session_key, title, created_at
		FROM chat_sessions
		WHERE id = $1 AND session_key = $2`

	err := r.db.QueryRow(ctx, query, id, sessionKey).
		Scan(&session.ID, &session.SessionKey, &session.Title, &session.CreatedAt)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// AddMessage appends a message to a chat session
func (r *ChatRepository) AddMessage(ctx context.Context, message *models.ChatMessage) error {
	message.ID = uuid.New()
	query := `
		INSERT INTO chat_messages (id, chat_session_id, role, content)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	return r.db.QueryRow(ctx, query, message.ID, message.ChatSessionID, message.Role, message.Content).
		Scan(&message.CreatedAt)
}

// ListMessages retrieves a chat session's messages in chronological order
func (r *ChatRepository) ListMessages(ctx context.Context, chatSessionID uuid.UUID) ([]*models.ChatMessage, error) {
	query := `
		SELECT id, chat_session_id, role, content, created_at
		FROM chat_messages
		WHERE chat_session_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, chatSessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.ChatMessage
	for rows.Next() {
		message := &models.ChatMessage{}
		if err := rows.Scan(&message.ID, &message.ChatSessionID, &message.Role, &message.Content, &message.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, rows.Err()
}
