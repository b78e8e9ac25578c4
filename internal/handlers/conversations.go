package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"merchant-assistant/internal/contextutil"
	"merchant-assistant/internal/storage"
)

// ConversationsHandler handles conversation listing and management.
type ConversationsHandler struct {
	conversations ConversationAPI
}

// NewConversationsHandler creates a new ConversationsHandler.
func NewConversationsHandler(conversations ConversationAPI) *ConversationsHandler {
	return &ConversationsHandler{conversations: conversations}
}

// ConversationResponse represents one conversation in list responses.
type ConversationResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MessageResponse represents one message in history responses.
type MessageResponse struct {
	ID        string                      `json:"id"`
	Role      string                      `json:"role"`
	Content   string                      `json:"content"`
	Sources   []storage.ReferenceSnapshot `json:"sources,omitempty"`
	Metadata  map[string]any              `json:"metadata,omitempty"`
	CreatedAt time.Time                   `json:"createdAt"`
}

// RenameRequest represents the rename payload.
type RenameRequest struct {
	Title string `json:"title"`
}

// List handles GET requests for the caller's conversations.
func (h *ConversationsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	conversations, err := h.conversations.ListConversations(ctx, contextutil.UserIDFromContext(ctx))
	if err != nil {
		writeServiceError(w, ctx, err, "Failed to list conversations")
		return
	}

	resp := make([]ConversationResponse, 0, len(conversations))
	for _, conv := range conversations {
		resp = append(resp, ConversationResponse{
			ID:        conv.ID,
			Title:     conv.Title,
			CreatedAt: conv.CreatedAt,
			UpdatedAt: conv.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Messages handles GET requests for a conversation's message history.
func (h *ConversationsHandler) Messages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	messages, err := h.conversations.GetMessages(ctx,
		contextutil.UserIDFromContext(ctx), chi.URLParam(r, "conversationID"))
	if err != nil {
		writeServiceError(w, ctx, err, "Failed to load messages")
		return
	}

	resp := make([]MessageResponse, 0, len(messages))
	for _, msg := range messages {
		resp = append(resp, MessageResponse{
			ID:        msg.ID,
			Role:      msg.Role,
			Content:   msg.Content,
			Sources:   msg.Sources,
			Metadata:  msg.Metadata,
			CreatedAt: msg.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Rename handles PATCH requests updating a conversation title.
func (h *ConversationsHandler) Rename(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req RenameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.conversations.RenameConversation(ctx,
		contextutil.UserIDFromContext(ctx), chi.URLParam(r, "conversationID"), req.Title)
	if err != nil {
		writeServiceError(w, ctx, err, "Failed to rename conversation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE requests soft-deleting a conversation.
func (h *ConversationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	err := h.conversations.DeleteConversation(ctx,
		contextutil.UserIDFromContext(ctx), chi.URLParam(r, "conversationID"))
	if err != nil {
		writeServiceError(w, ctx, err, "Failed to delete conversation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
