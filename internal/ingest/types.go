package ingest

import (
	"context"
	"time"

	"merchant-assistant/internal/rag"
)

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks merchant-assistant/internal/ingest Embedder

// Embedder is the embedding-client slice the ingestion pipeline needs.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
	Dimension() int
}

// PreviewSearcher runs a retrieval pass right after indexing, purely for
// ingestion-time sanity checking.
type PreviewSearcher interface {
	Retrieve(ctx context.Context, req rag.RetrieveRequest) (*rag.RetrieveResult, error)
}

// OutlineEntry is one heading of a parsed document's outline.
type OutlineEntry struct {
	Title  string `json:"title"`
	Level  int    `json:"level"`
	Anchor string `json:"anchor"`
}

// DocumentMetadata describes the parser output for a document.
type DocumentMetadata struct {
	Title       string    `json:"title"`
	SourceURL   string    `json:"sourceUrl,omitempty"`
	Parser      string    `json:"parser"`
	ExtractedAt time.Time `json:"extractedAt"`
	WordCount   int       `json:"wordCount"`
}

// ParsedDocument is the normalized shape the opaque document parser produces.
// The pipeline only consumes this; raw PDF/Word/web extraction happens
// upstream.
type ParsedDocument struct {
	Markdown  string           `json:"markdown"`
	PlainText string           `json:"plainText"`
	Outline   []OutlineEntry   `json:"outline"`
	Metadata  DocumentMetadata `json:"metadata"`
}

// ChunkOptions are per-request overrides for one chunking run. Zero values
// fall back to configured defaults.
type ChunkOptions struct {
	Strategy           string `json:"strategy,omitempty"`
	ChunkSize          int    `json:"chunkSize,omitempty"`
	ChunkOverlap       int    `json:"chunkOverlap,omitempty"`
	ParagraphMinLength int    `json:"paragraphMinLength,omitempty"`
	SlidingWindowSize  int    `json:"slidingWindowSize,omitempty"`
	SlidingWindowStep  int    `json:"slidingWindowStep,omitempty"`
	MinChunkLength     int    `json:"minChunkLength,omitempty"`
}

// VectorizeResult reports one vectorization run.
type VectorizeResult struct {
	ChunkCount     int                 `json:"chunkCount"`
	VectorCount    int                 `json:"vectorCount"`
	EmbeddingModel string              `json:"embeddingModel"`
	PreviewSearch  *rag.RetrieveResult `json:"previewSearch,omitempty"`
}

// Document ingestion statuses.
const (
	StatusUploaded = "uploaded"
	StatusChunked  = "chunked"
	StatusIndexed  = "indexed"
	StatusFailed   = "failed"
)
