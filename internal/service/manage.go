package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"merchant-assistant/internal/storage"
)

// ListConversations returns the user's conversations, most recently active
// first.
func (s *ConversationService) ListConversations(ctx context.Context, userID string) ([]storage.Conversation, error) {
	if userID == "" {
		return nil, &ValidationError{Field: "userId", Message: "缺少用户标识"}
	}
	conversations, err := s.conversations.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return conversations, nil
}

// GetMessages returns all messages of an owned conversation in chronological
// order.
func (s *ConversationService) GetMessages(ctx context.Context, userID, conversationID string) ([]storage.Message, error) {
	if _, err := s.ownedConversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	messages, err := s.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// RenameConversation sets a user-customized title.
func (s *ConversationService) RenameConversation(ctx context.Context, userID, conversationID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return &ValidationError{Field: "title", Message: "标题不能为空"}
	}
	if _, err := s.ownedConversation(ctx, userID, conversationID); err != nil {
		return err
	}
	if err := s.conversations.UpdateTitle(ctx, conversationID, title); err != nil {
		return fmt.Errorf("failed to rename conversation: %w", err)
	}
	return nil
}

// DeleteConversation flips the soft-delete flag on an owned conversation.
func (s *ConversationService) DeleteConversation(ctx context.Context, userID, conversationID string) error {
	if _, err := s.ownedConversation(ctx, userID, conversationID); err != nil {
		return err
	}
	if err := s.conversations.SoftDelete(ctx, conversationID); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

func (s *ConversationService) ownedConversation(ctx context.Context, userID, conversationID string) (*storage.Conversation, error) {
	if userID == "" {
		return nil, &ValidationError{Field: "userId", Message: "缺少用户标识"}
	}
	if conversationID == "" {
		return nil, &ValidationError{Field: "conversationId", Message: "缺少会话标识"}
	}
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: conversation %s", ErrNotFound, conversationID)
		}
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	if conv.UserID != userID {
		return nil, fmt.Errorf("%w: conversation %s", ErrNotFound, conversationID)
	}
	return conv, nil
}
