package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_clients.go -package=mocks merchant-assistant/internal/rag ChatCompleter,Embedder

import (
	"context"

	"merchant-assistant/internal/llm"
)

// Context-building strategies. chunk_neighbors is the default.
const (
	StrategyRawChunk       = "raw_chunk"
	StrategyFullDocument   = "full_document"
	StrategyChunkNeighbors = "chunk_neighbors"
)

// ChatCompleter is the slice of the chat client the retrieval pipeline needs
// for gating and reranking.
type ChatCompleter interface {
	Complete(ctx context.Context, messages []llm.ChatMessage, opts llm.ChatOptions) (string, *llm.Usage, error)
}

// Embedder converts texts into vectors.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// RetrieveOptions are per-request overrides for the retrieval pipeline. Zero
// values fall back to configured defaults; out-of-range values are clamped.
type RetrieveOptions struct {
	// Strategy selects how context is assembled around a matched chunk.
	Strategy string
	// RetrievalLimit is the vector-search candidate count, clamped to [1,12].
	RetrievalLimit int
	// TopK is the maximum number of returned references, clamped to [1,10].
	TopK int
	// NeighborSize is the chunk_neighbors window, clamped to [0,3]. Nil means
	// use the configured default; an explicit 0 keeps the chunk alone.
	NeighborSize *int
	// MaxContextLength truncates assembled context, clamped to [500,8000].
	MaxContextLength int
	// Rerank toggles LLM reranking. Nil means use the configured default.
	Rerank *bool
	// RerankModel overrides the model used for reranking.
	RerankModel string
	// DocumentFilter restricts retrieval to the listed document IDs.
	DocumentFilter []string
}

// RetrieveRequest is one retrieval attempt on behalf of a user.
type RetrieveRequest struct {
	UserID  string
	Query   string
	Options RetrieveOptions

	// Trace, when set, receives pipeline progress events in emission order.
	Trace func(eventType string, payload map[string]any)
}

// Reference is a retrieval result handed to the caller, in final rank order.
type Reference struct {
	ReferenceID     string
	DocumentID      string
	DocumentTitle   string
	ChunkID         string
	ChunkIndex      int
	Snippet         string
	Content         string
	Strategy        string
	SimilarityScore float64
	RerankScore     *float64
	Metadata        map[string]any
}

// RetrieveResult reports the outcome of one pipeline run. An empty References
// list is a valid "no relevant knowledge" outcome, not an error.
type RetrieveResult struct {
	References     []Reference
	CandidateCount int
	RerankApplied  bool
	Discarded      bool
	TopScore       float64
	LatencyMs      int64
}

// candidate is the in-flight form of a reference during the pipeline run. The
// ordinal (C1..Cn, original ranking order) correlates LLM rerank output back
// to candidates and is never exposed to the end user.
type candidate struct {
	Ordinal string
	Reference
}

// Trace event types emitted by the retrieval pipeline.
const (
	EventRetrievalStart     = "retrieval_start"
	EventRetrievalCandidate = "retrieval_candidate"
	EventRetrievalCompleted = "retrieval_completed"
	EventRetrievalEmpty     = "retrieval_empty"
	EventRetrievalDiscarded = "retrieval_discarded"
	EventRerankCompleted    = "rerank_completed"
	EventRerankResult       = "rerank_result"
	EventRerankError        = "rerank_error"
)
