package rag

import (
	"context"
	"fmt"
	"strings"

	"merchant-assistant/internal/storage"
)

const (
	minNeighborSize     = 0
	maxNeighborSize     = 3
	defaultNeighborSize = 1
)

// ContextBuilder assembles the LLM-facing context for a matched chunk.
type ContextBuilder struct {
	chunks storage.ChunkStore
}

// NewContextBuilder creates a new context builder.
func NewContextBuilder(chunks storage.ChunkStore) *ContextBuilder {
	return &ContextBuilder{chunks: chunks}
}

// Build returns the context text for one matched chunk according to the
// requested strategy. Unknown strategies fall back to chunk_neighbors.
func (b *ContextBuilder) Build(ctx context.Context, chunk *storage.DocumentChunk, doc *storage.Document, strategy string, neighborSize int) (string, error) {
	switch strategy {
	case StrategyRawChunk:
		return chunk.Content, nil
	case StrategyFullDocument:
		if strings.TrimSpace(doc.Content) == "" {
			return chunk.Content, nil
		}
		return doc.Content, nil
	default:
		return b.buildNeighbors(ctx, chunk, neighborSize)
	}
}

func (b *ContextBuilder) buildNeighbors(ctx context.Context, chunk *storage.DocumentChunk, neighborSize int) (string, error) {
	size := clampNeighborSize(neighborSize)
	if size == 0 {
		return chunk.Content, nil
	}

	neighbors, err := b.chunks.GetNeighbors(ctx, chunk.DocumentID, chunk.ChunkIndex, size)
	if err != nil {
		return "", fmt.Errorf("failed to fetch neighbor chunks: %w", err)
	}
	if len(neighbors) <= 1 {
		return chunk.Content, nil
	}

	parts := make([]string, 0, len(neighbors))
	for _, n := range neighbors {
		parts = append(parts, n.Content)
	}
	return strings.Join(parts, "\n"), nil
}

func clampNeighborSize(size int) int {
	if size < minNeighborSize {
		return minNeighborSize
	}
	if size > maxNeighborSize {
		return maxNeighborSize
	}
	return size
}
