package service

import "merchant-assistant/internal/storage"

// Event is one entry in the structured timeline emitted while answering in
// streaming mode.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Event types, in the order they can appear within one request. answer_token
// events interleave with no fixed count relative to the other types.
const (
	EventRetrievalDecision  = "retrieval_decision"
	EventRetrievalStart     = "retrieval_start"
	EventRetrievalCandidate = "retrieval_candidate"
	EventRetrievalCompleted = "retrieval_completed"
	EventRetrievalSkipped   = "retrieval_skipped"
	EventRetrievalEmpty     = "retrieval_empty"
	EventRerankCompleted    = "rerank_completed"
	EventRerankResult       = "rerank_result"
	EventRerankError        = "rerank_error"
	EventRetrievalDiscarded = "retrieval_discarded"
	EventLLMStart           = "llm_start"
	EventAnswerToken        = "answer_token"
	EventAnswerCompleted    = "answer_completed"
	EventError              = "error"
)

// EmitFunc receives timeline events. Returning an error aborts the request;
// the caller is assumed gone.
type EmitFunc func(Event) error

// AnswerPayload is the terminal answer_completed payload and the buffered
// response body.
type AnswerPayload struct {
	ConversationID   string                      `json:"conversationId"`
	UserMessage      *storage.Message            `json:"userMessage"`
	AssistantMessage *storage.Message            `json:"assistantMessage"`
	References       []storage.ReferenceSnapshot `json:"references"`
	Content          string                      `json:"content"`
}
