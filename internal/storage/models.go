package storage

import "time"

// Conversation represents a chat thread owned by a user.
// Deletion is a soft flag; rows are never physically removed.
type Conversation struct {
	ID        string
	UserID    string
	Title     string
	Deleted   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message represents a single turn in a conversation. Messages are immutable
// once created; answers are appended, never edited.
type Message struct {
	ID             string
	ConversationID string
	Role           string // user, assistant, system
	Content        string
	Sources        []ReferenceSnapshot // nil for user messages
	Metadata       map[string]any      // strategy, rerank config, model, usage, duration
	CreatedAt      time.Time
}

// ReferenceSnapshot is the persisted form of a retrieval reference attached to
// an assistant message.
type ReferenceSnapshot struct {
	ReferenceID     string   `json:"referenceId"`
	DocumentID      string   `json:"documentId"`
	DocumentTitle   string   `json:"documentTitle"`
	ChunkID         string   `json:"chunkId"`
	ChunkIndex      int      `json:"chunkIndex"`
	Snippet         string   `json:"snippet"`
	Strategy        string   `json:"strategy"`
	SimilarityScore float64  `json:"similarityScore"`
	RerankScore     *float64 `json:"rerankScore,omitempty"`
}

// Document represents an ingested knowledge-base document. Content holds the
// normalized full text produced by the parser.
type Document struct {
	ID         string
	UserID     string
	Title      string
	Content    string
	SourceURL  string
	CategoryID string
	Status     string // uploaded, chunked, indexed, failed
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DocumentChunk is one ordered piece of a document. chunk_index starts at 0
// and is strictly increasing with no gaps within a document.
type DocumentChunk struct {
	ID         string
	DocumentID string
	Content    string
	ChunkIndex int
	TokenCount int
	Metadata   map[string]any // recognized keys: title, categoryId, sourceUrl, length, strategy
}

// VectorIndex records a live vector-store entry for a chunk. A chunk has at
// most one live entry; the row is created only after a successful upsert.
type VectorIndex struct {
	ID             string
	ChunkID        string
	ExternalID     string
	EmbeddingModel string
	Dimension      int
	Metadata       map[string]any
	CreatedAt      time.Time
}

// SearchLog is an append-only audit record, one per retrieval attempt.
type SearchLog struct {
	ID          string
	UserID      string
	Query       string
	ResultCount int
	TopScore    float64
	LatencyMs   int64
	DocumentIDs []string
	CreatedAt   time.Time
}
