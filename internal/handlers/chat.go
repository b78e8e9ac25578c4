package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"merchant-assistant/internal/contextutil"
	"merchant-assistant/internal/metrics"
	"merchant-assistant/internal/service"
	"merchant-assistant/internal/storage"
)

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_api.go -package=mocks merchant-assistant/internal/handlers ConversationAPI,IngestPipelineAPI

// ConversationAPI is the service surface the conversation handlers depend on.
type ConversationAPI interface {
	SendMessage(ctx context.Context, req service.SendMessageRequest) (*service.AnswerPayload, error)
	StreamMessage(ctx context.Context, req service.SendMessageRequest, emit service.EmitFunc) error
	ListConversations(ctx context.Context, userID string) ([]storage.Conversation, error)
	GetMessages(ctx context.Context, userID, conversationID string) ([]storage.Message, error)
	RenameConversation(ctx context.Context, userID, conversationID, title string) error
	DeleteConversation(ctx context.Context, userID, conversationID string) error
}

// ChatHandler handles message generation requests.
type ChatHandler struct {
	conversations ConversationAPI
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(conversations ConversationAPI) *ChatHandler {
	return &ChatHandler{conversations: conversations}
}

// SendMessageRequest represents the HTTP request payload for a message.
type SendMessageRequest struct {
	Content string `json:"content"`

	RagStrategy      string   `json:"ragStrategy,omitempty"`
	TopK             int      `json:"topK,omitempty"`
	RetrievalLimit   int      `json:"retrievalLimit,omitempty"`
	NeighborSize     *int     `json:"neighborSize,omitempty"`
	MaxContextLength int      `json:"maxContextLength,omitempty"`
	Rerank           *bool    `json:"rerank,omitempty"`
	RerankModel      string   `json:"rerankModel,omitempty"`
	DocumentFilter   []string `json:"documentFilter,omitempty"`

	Model        string   `json:"model,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	SystemPrompt string   `json:"systemPrompt,omitempty"`
}

// ServeHTTP handles POST requests for message generation. A `stream=true`
// query switches to the SSE event timeline.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	svcReq := service.SendMessageRequest{
		ConversationID:   chi.URLParam(r, "conversationID"),
		UserID:           contextutil.UserIDFromContext(ctx),
		Content:          req.Content,
		RagStrategy:      req.RagStrategy,
		TopK:             req.TopK,
		RetrievalLimit:   req.RetrievalLimit,
		NeighborSize:     req.NeighborSize,
		MaxContextLength: req.MaxContextLength,
		Rerank:           req.Rerank,
		RerankModel:      req.RerankModel,
		DocumentFilter:   req.DocumentFilter,
		Model:            req.Model,
		Temperature:      req.Temperature,
		SystemPrompt:     req.SystemPrompt,
	}

	if r.URL.Query().Get("stream") == "true" {
		h.handleStream(w, r, svcReq)
		return
	}

	answer, err := h.conversations.SendMessage(ctx, svcReq)
	if err != nil {
		writeServiceError(w, ctx, err, "Failed to generate answer")
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

// handleStream emits the generation event timeline over Server-Sent Events.
func (h *ChatHandler) handleStream(w http.ResponseWriter, r *http.Request, svcReq service.SendMessageRequest) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.ErrorContext(ctx, "streaming not supported by response writer")
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	// SSE headers are committed with the first event, so failures before any
	// event is emitted can still be rejected as a plain HTTP error.
	streaming := false
	err := h.conversations.StreamMessage(ctx, svcReq, func(event service.Event) error {
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}
		if !streaming {
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("Connection", "keep-alive")
			streaming = true
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		if !streaming {
			writeServiceError(w, ctx, err, "Failed to generate answer")
			return
		}
		// The timeline already carries an error event; log and close.
		logger.ErrorContext(ctx, "streaming generation failed", "error", err)
		return
	}

	_, _ = fmt.Fprintf(w, "data: [DONE]\n\n")
	flusher.Flush()
}
