package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_collaborators.go -package=mocks merchant-assistant/internal/service Generator,Retriever,GateClassifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"merchant-assistant/internal/contextutil"
	"merchant-assistant/internal/llm"
	"merchant-assistant/internal/metrics"
	"merchant-assistant/internal/rag"
	"merchant-assistant/internal/storage"
)

// historyWindow is the number of recent messages carried into the prompt.
// Older context is dropped, not summarized.
const historyWindow = 12

// Generator streams a chat completion, invoking onDelta per text delta.
type Generator interface {
	CompleteStream(ctx context.Context, messages []llm.ChatMessage, opts llm.ChatOptions, onDelta func(delta string) error) (string, *llm.Usage, error)
}

// Retriever runs the retrieval pipeline for one query.
type Retriever interface {
	Retrieve(ctx context.Context, req rag.RetrieveRequest) (*rag.RetrieveResult, error)
}

// GateClassifier decides whether a query needs a knowledge-base lookup.
type GateClassifier interface {
	Decide(ctx context.Context, query string, history []llm.ChatMessage) rag.GateDecision
}

// Options carry the configured generation defaults.
type Options struct {
	SystemPrompt string
	ChatModel    string
	Temperature  float64
}

// SendMessageRequest is one answer-generation request. Zero-valued fields
// fall back to configured defaults.
type SendMessageRequest struct {
	ConversationID string
	UserID         string
	Content        string

	RagStrategy      string
	TopK             int
	RetrievalLimit   int
	NeighborSize     *int
	MaxContextLength int
	Rerank           *bool
	RerankModel      string
	DocumentFilter   []string

	Model        string
	Temperature  *float64
	SystemPrompt string
}

// ConversationService orchestrates answer generation: persistence, retrieval
// gating, prompt composition, streaming and the structured event timeline.
type ConversationService struct {
	conversations storage.ConversationStore
	messages      storage.MessageStore
	gate          GateClassifier
	retriever     Retriever
	generator     Generator
	opts          Options
}

// NewConversationService creates the answer-generation orchestrator.
func NewConversationService(
	conversations storage.ConversationStore,
	messages storage.MessageStore,
	gate GateClassifier,
	retriever Retriever,
	generator Generator,
	opts Options,
) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		messages:      messages,
		gate:          gate,
		retriever:     retriever,
		generator:     generator,
		opts:          opts,
	}
}

// SendMessage answers a query in buffered mode: the full answer is returned
// once generation completes. No timeline events are emitted.
func (s *ConversationService) SendMessage(ctx context.Context, req SendMessageRequest) (*AnswerPayload, error) {
	return s.process(ctx, req, nil)
}

// StreamMessage answers a query in live mode, forwarding every timeline
// event (including one answer_token per delta) to emit. An emit error aborts
// generation; no assistant message is persisted for an aborted stream.
func (s *ConversationService) StreamMessage(ctx context.Context, req SendMessageRequest, emit EmitFunc) error {
	if emit == nil {
		return fmt.Errorf("emit callback is required for streaming")
	}
	_, err := s.process(ctx, req, emit)
	return err
}

// process runs the single-pass state machine shared by both modes:
// validate, persist user message, load history, gate, retrieve, compose,
// stream, persist assistant message.
func (s *ConversationService) process(ctx context.Context, req SendMessageRequest, emit EmitFunc) (*AnswerPayload, error) {
	logger := contextutil.LoggerFromContext(ctx)
	started := time.Now()

	send := emit
	if send == nil {
		send = func(Event) error { return nil }
	}

	query := strings.TrimSpace(req.Content)
	if query == "" {
		return nil, &ValidationError{Field: "content", Message: "消息内容不能为空"}
	}
	if req.UserID == "" {
		return nil, &ValidationError{Field: "userId", Message: "缺少用户标识"}
	}

	conv, err := s.resolveConversation(ctx, req.UserID, req.ConversationID, query)
	if err != nil {
		return nil, err
	}

	userMsg := &storage.Message{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		Role:           "user",
		Content:        query,
	}
	if err := s.messages.Insert(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("failed to persist user message: %w", err)
	}
	if err := s.conversations.Touch(ctx, conv.ID); err != nil {
		logger.WarnContext(ctx, "failed to touch conversation", "conversationId", conv.ID, "error", err)
	}

	history, err := s.loadHistory(ctx, conv.ID, userMsg.ID)
	if err != nil {
		return nil, err
	}

	// Gate decision.
	if err := send(Event{Type: EventRetrievalDecision, Payload: map[string]any{"status": "evaluating"}}); err != nil {
		return nil, err
	}
	decision := s.gate.Decide(ctx, query, toChatHistory(history))
	if err := send(Event{Type: EventRetrievalDecision, Payload: map[string]any{
		"status":           "decided",
		"useKnowledgeBase": decision.UseKnowledgeBase,
		"reason":           decision.Reason,
	}}); err != nil {
		return nil, err
	}

	var refs []rag.Reference
	strategy := req.RagStrategy
	if strategy == "" {
		strategy = rag.StrategyChunkNeighbors
	}
	rerankApplied := false

	if decision.UseKnowledgeBase {
		refs, rerankApplied, err = s.retrieve(ctx, req, conv, query, send)
		if err != nil {
			return nil, err
		}
	} else {
		metrics.RetrievalsTotal.WithLabelValues("skipped").Inc()
		if err := send(Event{Type: EventRetrievalSkipped, Payload: map[string]any{"reason": decision.Reason}}); err != nil {
			return nil, err
		}
	}

	// Prompt composition and streamed generation.
	systemPrompt := req.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = s.opts.SystemPrompt
	}
	prompt := composePrompt(systemPrompt, history, query, refs, decision.UseKnowledgeBase)

	model := req.Model
	if model == "" {
		model = s.opts.ChatModel
	}
	temperature := s.opts.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	if err := send(Event{Type: EventLLMStart, Payload: map[string]any{"model": model}}); err != nil {
		return nil, err
	}

	var emitErr error
	content, usage, err := s.generator.CompleteStream(ctx, prompt, llm.ChatOptions{
		Model:       model,
		Temperature: temperature,
	}, func(delta string) error {
		if emit == nil {
			return nil
		}
		if err := emit(Event{Type: EventAnswerToken, Payload: map[string]any{"delta": delta}}); err != nil {
			emitErr = err
			return err
		}
		return nil
	})
	if err != nil {
		if emitErr != nil {
			// The consumer went away; nothing left to notify.
			return nil, emitErr
		}
		logger.ErrorContext(ctx, "answer generation failed", "conversationId", conv.ID, "error", err)
		_ = send(Event{Type: EventError, Payload: map[string]any{"message": "回答生成失败"}})
		metrics.MessagesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: completion failed: %v", ErrExternalService, err)
	}
	if usage != nil {
		metrics.RecordTokens(model, usage.PromptTokens, usage.CompletionTokens)
	}

	sources := toSnapshots(refs)
	assistantMsg := &storage.Message{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		Role:           "assistant",
		Content:        content,
		Sources:        sources,
		Metadata: buildMetadata(strategy, rerankApplied, resolveRerankModel(req, model),
			model, temperature, usage, time.Since(started)),
	}
	if err := s.messages.Insert(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("failed to persist assistant message: %w", err)
	}
	if err := s.conversations.Touch(ctx, conv.ID); err != nil {
		logger.WarnContext(ctx, "failed to touch conversation", "conversationId", conv.ID, "error", err)
	}

	payload := &AnswerPayload{
		ConversationID:   conv.ID,
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
		References:       sources,
		Content:          content,
	}
	if err := send(Event{Type: EventAnswerCompleted, Payload: payload}); err != nil {
		return nil, err
	}

	metrics.MessagesTotal.WithLabelValues("ok").Inc()
	logger.InfoContext(ctx, "answer generated",
		"conversationId", conv.ID,
		"references", len(sources),
		"durationMs", time.Since(started).Milliseconds(),
	)
	return payload, nil
}

// retrieve runs the pipeline, forwarding its trace into the event timeline.
// A pipeline failure degrades to "no references" rather than failing the
// request; the orchestrator still produces a best-effort answer.
func (s *ConversationService) retrieve(ctx context.Context, req SendMessageRequest, conv *storage.Conversation, query string, send EmitFunc) ([]rag.Reference, bool, error) {
	logger := contextutil.LoggerFromContext(ctx)
	started := time.Now()

	var emitErr error
	result, err := s.retriever.Retrieve(ctx, rag.RetrieveRequest{
		UserID: req.UserID,
		Query:  query,
		Options: rag.RetrieveOptions{
			Strategy:         req.RagStrategy,
			RetrievalLimit:   req.RetrievalLimit,
			TopK:             req.TopK,
			NeighborSize:     req.NeighborSize,
			MaxContextLength: req.MaxContextLength,
			Rerank:           req.Rerank,
			RerankModel:      req.RerankModel,
			DocumentFilter:   req.DocumentFilter,
		},
		Trace: func(eventType string, payload map[string]any) {
			if emitErr != nil {
				return
			}
			if err := send(Event{Type: eventType, Payload: payload}); err != nil {
				emitErr = err
			}
		},
	})
	if emitErr != nil {
		return nil, false, emitErr
	}
	if err != nil {
		logger.WarnContext(ctx, "retrieval failed, answering without references",
			"conversationId", conv.ID, "error", err)
		metrics.RecordRetrieval("failed", time.Since(started).Seconds())
		if sendErr := send(Event{Type: EventRetrievalEmpty, Payload: map[string]any{"reason": "retrieval failed"}}); sendErr != nil {
			return nil, false, sendErr
		}
		return nil, false, nil
	}
	outcome := "answered"
	if len(result.References) == 0 {
		outcome = "empty"
	}
	metrics.RecordRetrieval(outcome, time.Since(started).Seconds())
	return result.References, result.RerankApplied, nil
}

// resolveConversation loads an existing conversation (owner-checked) or
// creates a new one with a title derived from the first query. A conversation
// owned by another user is reported as missing.
func (s *ConversationService) resolveConversation(ctx context.Context, userID, conversationID, query string) (*storage.Conversation, error) {
	if conversationID == "" {
		conv := &storage.Conversation{
			ID:     uuid.New().String(),
			UserID: userID,
			Title:  deriveTitle(query),
		}
		if err := s.conversations.Create(ctx, conv); err != nil {
			return nil, fmt.Errorf("failed to create conversation: %w", err)
		}
		return conv, nil
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

	// Backfill a title derived from the query, without ever overwriting a
	// user-customized one.
	if strings.TrimSpace(conv.Title) == "" {
		title := deriveTitle(query)
		if err := s.conversations.UpdateTitle(ctx, conv.ID, title); err != nil {
			contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to set conversation title",
				"conversationId", conv.ID, "error", err)
		} else {
			conv.Title = title
		}
	}
	return conv, nil
}

// loadHistory returns the recent history window excluding the message just
// persisted for the current turn. The current message counts against the
// fetch limit, so it over-fetches by one to keep a full window of prior
// turns.
func (s *ConversationService) loadHistory(ctx context.Context, conversationID, currentMessageID string) ([]storage.Message, error) {
	recent, err := s.messages.ListRecent(ctx, conversationID, historyWindow+1)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	history := make([]storage.Message, 0, len(recent))
	for _, msg := range recent {
		if msg.ID == currentMessageID {
			continue
		}
		history = append(history, msg)
	}
	return history, nil
}

func toChatHistory(history []storage.Message) []llm.ChatMessage {
	converted := make([]llm.ChatMessage, 0, len(history))
	for _, msg := range history {
		if msg.Role != "user" && msg.Role != "assistant" {
			continue
		}
		converted = append(converted, llm.ChatMessage{Role: msg.Role, Content: msg.Content})
	}
	return converted
}

func toSnapshots(refs []rag.Reference) []storage.ReferenceSnapshot {
	if len(refs) == 0 {
		return nil
	}
	snapshots := make([]storage.ReferenceSnapshot, len(refs))
	for i, ref := range refs {
		snapshots[i] = storage.ReferenceSnapshot{
			ReferenceID:     ref.ReferenceID,
			DocumentID:      ref.DocumentID,
			DocumentTitle:   ref.DocumentTitle,
			ChunkID:         ref.ChunkID,
			ChunkIndex:      ref.ChunkIndex,
			Snippet:         ref.Snippet,
			Strategy:        ref.Strategy,
			SimilarityScore: ref.SimilarityScore,
			RerankScore:     ref.RerankScore,
		}
	}
	return snapshots
}

func resolveRerankModel(req SendMessageRequest, fallback string) string {
	if req.RerankModel != "" {
		return req.RerankModel
	}
	return fallback
}

func buildMetadata(strategy string, rerankApplied bool, rerankModel, model string, temperature float64, usage *llm.Usage, duration time.Duration) map[string]any {
	metadata := map[string]any{
		"strategy":    strategy,
		"rerank":      rerankApplied,
		"model":       model,
		"temperature": temperature,
		"durationMs":  duration.Milliseconds(),
	}
	if rerankApplied {
		metadata["rerankModel"] = rerankModel
	}
	if usage != nil {
		metadata["usage"] = map[string]any{
			"promptTokens":     usage.PromptTokens,
			"completionTokens": usage.CompletionTokens,
			"totalTokens":      usage.TotalTokens,
		}
	}
	return metadata
}
