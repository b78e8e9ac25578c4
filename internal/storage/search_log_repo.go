package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_search_log_store.go -package=mocks merchant-assistant/internal/storage SearchLogStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// SearchLogStore defines the interface for the retrieval audit log.
type SearchLogStore interface {
	// Insert appends one audit row. The ID must be set before calling.
	Insert(ctx context.Context, entry *SearchLog) error
	// ListByUser returns the user's search logs, newest first, up to limit rows.
	ListByUser(ctx context.Context, userID string, limit int) ([]SearchLog, error)
}

// SearchLogRepo provides sqlite-backed search logging.
// It implements the SearchLogStore interface.
type SearchLogRepo struct {
	db *sql.DB
}

// NewSearchLogRepo creates a new SearchLogRepo.
func NewSearchLogRepo(db *sql.DB) *SearchLogRepo {
	return &SearchLogRepo{db: db}
}

// Insert appends one audit row.
func (r *SearchLogRepo) Insert(ctx context.Context, entry *SearchLog) error {
	var docIDs any
	if entry.DocumentIDs != nil {
		data, err := json.Marshal(entry.DocumentIDs)
		if err != nil {
			return fmt.Errorf("failed to marshal document IDs: %w", err)
		}
		docIDs = string(data)
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO search_logs (id, user_id, query, result_count, top_score, latency_ms, document_ids) VALUES (?, ?, ?, ?, ?, ?, ?)",
		entry.ID, entry.UserID, entry.Query, entry.ResultCount, entry.TopScore, entry.LatencyMs, docIDs,
	)
	if err != nil {
		return fmt.Errorf("failed to insert search log: %w", err)
	}
	return nil
}

// ListByUser returns the user's search logs, newest first.
func (r *SearchLogRepo) ListByUser(ctx context.Context, userID string, limit int) ([]SearchLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, query, result_count, top_score, latency_ms, document_ids, created_at
		 FROM search_logs WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query search logs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var entries []SearchLog
	for rows.Next() {
		var entry SearchLog
		var docIDs sql.NullString
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Query, &entry.ResultCount, &entry.TopScore, &entry.LatencyMs, &docIDs, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan search log: %w", err)
		}
		if docIDs.Valid && docIDs.String != "" {
			if err := json.Unmarshal([]byte(docIDs.String), &entry.DocumentIDs); err != nil {
				return nil, fmt.Errorf("failed to unmarshal document IDs: %w", err)
			}
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}
