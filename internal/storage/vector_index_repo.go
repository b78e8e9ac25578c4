package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_index_store.go -package=mocks merchant-assistant/internal/storage VectorIndexStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// VectorIndexStore defines the interface for vector-entry bookkeeping.
type VectorIndexStore interface {
	// Insert records a live vector entry for a chunk. Call only after a
	// successful vector-store upsert.
	Insert(ctx context.Context, entry *VectorIndex) error
	// GetByChunkID gets the entry for a chunk. Returns ErrNotFound if none exists.
	GetByChunkID(ctx context.Context, chunkID string) (*VectorIndex, error)
	// ListByChunkIDs returns entries for the given chunk IDs, in no particular order.
	ListByChunkIDs(ctx context.Context, chunkIDs []string) ([]VectorIndex, error)
	// DeleteByChunkIDs removes entries for the given chunk IDs.
	DeleteByChunkIDs(ctx context.Context, chunkIDs []string) error
}

// VectorIndexRepo provides sqlite-backed vector-entry bookkeeping.
// It implements the VectorIndexStore interface.
type VectorIndexRepo struct {
	db *sql.DB
}

// NewVectorIndexRepo creates a new VectorIndexRepo.
func NewVectorIndexRepo(db *sql.DB) *VectorIndexRepo {
	return &VectorIndexRepo{db: db}
}

// Insert records a live vector entry for a chunk.
func (r *VectorIndexRepo) Insert(ctx context.Context, entry *VectorIndex) error {
	var metadata any
	if entry.Metadata != nil {
		data, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal vector entry metadata: %w", err)
		}
		metadata = string(data)
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO vector_index (id, chunk_id, external_id, embedding_model, dimension, metadata) VALUES (?, ?, ?, ?, ?, ?)",
		entry.ID, entry.ChunkID, entry.ExternalID, entry.EmbeddingModel, entry.Dimension, metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to insert vector entry: %w", err)
	}
	return nil
}

// GetByChunkID gets the entry for a chunk. Returns ErrNotFound if none exists.
func (r *VectorIndexRepo) GetByChunkID(ctx context.Context, chunkID string) (*VectorIndex, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, chunk_id, external_id, embedding_model, dimension, metadata, created_at FROM vector_index WHERE chunk_id = ?",
		chunkID,
	)

	var entry VectorIndex
	var metadata sql.NullString
	err := row.Scan(&entry.ID, &entry.ChunkID, &entry.ExternalID, &entry.EmbeddingModel, &entry.Dimension, &metadata, &entry.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vector entry: %w", err)
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &entry.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal vector entry metadata: %w", err)
		}
	}
	return &entry, nil
}

// ListByChunkIDs returns entries for the given chunk IDs.
func (r *VectorIndexRepo) ListByChunkIDs(ctx context.Context, chunkIDs []string) ([]VectorIndex, error) {
	if len(chunkIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunkIDs)), ",")
	args := make([]any, len(chunkIDs))
	for i, id := range chunkIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, chunk_id, external_id, embedding_model, dimension, metadata, created_at FROM vector_index WHERE chunk_id IN ("+placeholders+")",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query vector entries: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var entries []VectorIndex
	for rows.Next() {
		var entry VectorIndex
		var metadata sql.NullString
		if err := rows.Scan(&entry.ID, &entry.ChunkID, &entry.ExternalID, &entry.EmbeddingModel, &entry.Dimension, &metadata, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vector entry: %w", err)
		}
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &entry.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal vector entry metadata: %w", err)
			}
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

// DeleteByChunkIDs removes entries for the given chunk IDs.
func (r *VectorIndexRepo) DeleteByChunkIDs(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunkIDs)), ",")
	args := make([]any, len(chunkIDs))
	for i, id := range chunkIDs {
		args[i] = id
	}

	_, err := r.db.ExecContext(ctx, "DELETE FROM vector_index WHERE chunk_id IN ("+placeholders+")", args...)
	if err != nil {
		return fmt.Errorf("failed to delete vector entries: %w", err)
	}
	return nil
}
