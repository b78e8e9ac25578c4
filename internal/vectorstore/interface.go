package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks merchant-assistant/internal/vectorstore VectorStore

import "context"

// Point represents a vector point with metadata.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult represents one nearest-neighbor match. Distance is a
// monotonic distance metric: smaller means closer. Implementations backed by
// similarity-scoring stores must convert before returning.
type SearchResult struct {
	PointID  string
	Distance float32
	Meta     map[string]any
}

// SearchFilter narrows a similarity search. Zero values mean no filtering.
type SearchFilter struct {
	// DocumentIDs restricts matches to chunks of the listed documents.
	DocumentIDs []string
}

// VectorStore defines the interface for vector storage operations.
type VectorStore interface {
	// EnsureCollection creates the collection if it does not exist.
	EnsureCollection(ctx context.Context, collection string, vectorSize int) error

	// CollectionExists checks if a collection exists.
	CollectionExists(ctx context.Context, collection string) (bool, error)

	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search returns the k nearest points, closest first.
	Search(ctx context.Context, collection string, query []float32, k int, filter SearchFilter) ([]SearchResult, error)

	// Delete removes points by their IDs.
	Delete(ctx context.Context, collection string, ids []string) error
}
