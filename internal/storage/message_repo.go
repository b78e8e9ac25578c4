package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_message_store.go -package=mocks merchant-assistant/internal/storage MessageStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// MessageStore defines the interface for message persistence.
type MessageStore interface {
	// Insert persists a message. The ID must be set before calling.
	Insert(ctx context.Context, msg *Message) error
	// ListRecent returns the newest limit messages of a conversation in
	// chronological (ascending) order.
	ListRecent(ctx context.Context, conversationID string, limit int) ([]Message, error)
	// ListByConversation returns all messages of a conversation in chronological order.
	ListByConversation(ctx context.Context, conversationID string) ([]Message, error)
}

// MessageRepo provides sqlite-backed message persistence.
// It implements the MessageStore interface.
type MessageRepo struct {
	db *sql.DB
}

// NewMessageRepo creates a new MessageRepo.
func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Insert persists a message. Sources and metadata are stored as JSON text;
// nil values are stored as NULL.
func (r *MessageRepo) Insert(ctx context.Context, msg *Message) error {
	var sources, metadata any
	if msg.Sources != nil {
		data, err := json.Marshal(msg.Sources)
		if err != nil {
			return fmt.Errorf("failed to marshal message sources: %w", err)
		}
		sources = string(data)
	}
	if msg.Metadata != nil {
		data, err := json.Marshal(msg.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal message metadata: %w", err)
		}
		metadata = string(data)
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO messages (id, conversation_id, role, content, sources, metadata) VALUES (?, ?, ?, ?, ?, ?)",
		msg.ID, msg.ConversationID, msg.Role, msg.Content, sources, metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// ListRecent returns the newest limit messages in chronological order.
func (r *MessageRepo) ListRecent(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	// Select the newest rows, then reverse into chronological order.
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, sources, metadata, created_at
		 FROM messages WHERE conversation_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`,
		conversationID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent messages: %w", err)
	}
	msgs, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// ListByConversation returns all messages in chronological order.
func (r *MessageRepo) ListByConversation(ctx context.Context, conversationID string) ([]Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, sources, metadata, created_at
		 FROM messages WHERE conversation_id = ?
		 ORDER BY created_at ASC, id ASC`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]Message, error) {
	defer func() {
		_ = rows.Close()
	}()

	var msgs []Message
	for rows.Next() {
		var msg Message
		var sources, metadata sql.NullString
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &sources, &metadata, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if sources.Valid && sources.String != "" {
			if err := json.Unmarshal([]byte(sources.String), &msg.Sources); err != nil {
				return nil, fmt.Errorf("failed to unmarshal message sources: %w", err)
			}
		}
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &msg.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal message metadata: %w", err)
			}
		}
		msgs = append(msgs, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return msgs, nil
}
