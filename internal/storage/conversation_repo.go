package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_conversation_store.go -package=mocks merchant-assistant/internal/storage ConversationStore

import (
	"context"
	"database/sql"
	"fmt"
)

// ConversationStore defines the interface for conversation persistence.
type ConversationStore interface {
	// Create inserts a new conversation. The ID must be set before calling.
	Create(ctx context.Context, conv *Conversation) error
	// GetByID gets a conversation by ID. Soft-deleted conversations are treated
	// as missing. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*Conversation, error)
	// ListByUser returns the user's conversations ordered by updated_at descending.
	ListByUser(ctx context.Context, userID string) ([]Conversation, error)
	// UpdateTitle replaces the conversation title.
	UpdateTitle(ctx context.Context, id, title string) error
	// Touch bumps updated_at so recency ordering reflects new messages.
	Touch(ctx context.Context, id string) error
	// SoftDelete flips the deleted flag without removing the row.
	SoftDelete(ctx context.Context, id string) error
}

// ConversationRepo provides sqlite-backed conversation persistence.
// It implements the ConversationStore interface.
type ConversationRepo struct {
	db *sql.DB
}

// NewConversationRepo creates a new ConversationRepo.
func NewConversationRepo(db *sql.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// Create inserts a new conversation.
func (r *ConversationRepo) Create(ctx context.Context, conv *Conversation) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO conversations (id, user_id, title) VALUES (?, ?, ?)",
		conv.ID, conv.UserID, conv.Title,
	)
	if err != nil {
		return fmt.Errorf("failed to insert conversation: %w", err)
	}
	return nil
}

// GetByID gets a conversation by ID. Returns ErrNotFound for missing or
// soft-deleted rows.
func (r *ConversationRepo) GetByID(ctx context.Context, id string) (*Conversation, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, title, deleted, created_at, updated_at FROM conversations WHERE id = ? AND deleted = 0",
		id,
	)

	var conv Conversation
	var deleted int
	err := row.Scan(&conv.ID, &conv.UserID, &conv.Title, &deleted, &conv.CreatedAt, &conv.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	conv.Deleted = deleted != 0
	return &conv, nil
}

// ListByUser returns the user's conversations ordered by recency.
func (r *ConversationRepo) ListByUser(ctx context.Context, userID string) ([]Conversation, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, title, deleted, created_at, updated_at FROM conversations WHERE user_id = ? AND deleted = 0 ORDER BY updated_at DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var convs []Conversation
	for rows.Next() {
		var conv Conversation
		var deleted int
		if err := rows.Scan(&conv.ID, &conv.UserID, &conv.Title, &deleted, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conv.Deleted = deleted != 0
		convs = append(convs, conv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return convs, nil
}

// UpdateTitle replaces the conversation title.
func (r *ConversationRepo) UpdateTitle(ctx context.Context, id, title string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE conversations SET title = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		title, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update conversation title: %w", err)
	}
	return nil
}

// Touch bumps updated_at.
func (r *ConversationRepo) Touch(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE conversations SET updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	return nil
}

// SoftDelete flips the deleted flag.
func (r *ConversationRepo) SoftDelete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE conversations SET deleted = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to soft-delete conversation: %w", err)
	}
	return nil
}
