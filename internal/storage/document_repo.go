package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks merchant-assistant/internal/storage DocumentStore

import (
	"context"
	"database/sql"
	"fmt"
)

// DocumentStore defines the interface for document persistence.
type DocumentStore interface {
	// Create inserts a new document. The ID must be set before calling.
	Create(ctx context.Context, doc *Document) error
	// GetByID gets a document by ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*Document, error)
	// ListByUser returns the user's documents ordered by creation time descending.
	ListByUser(ctx context.Context, userID string) ([]Document, error)
	// UpdateStatus sets the ingestion status of a document.
	UpdateStatus(ctx context.Context, id, status string) error
}

// DocumentRepo provides sqlite-backed document persistence.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// Create inserts a new document.
func (r *DocumentRepo) Create(ctx context.Context, doc *Document) error {
	status := doc.Status
	if status == "" {
		status = "uploaded"
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO documents (id, user_id, title, content, source_url, category_id, status) VALUES (?, ?, ?, ?, ?, ?, ?)",
		doc.ID, doc.UserID, doc.Title, doc.Content, doc.SourceURL, doc.CategoryID, status,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// GetByID gets a document by ID. Returns ErrNotFound if not found.
func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*Document, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, title, content, source_url, category_id, status, created_at, updated_at FROM documents WHERE id = ?",
		id,
	)

	var doc Document
	var sourceURL, categoryID sql.NullString
	err := row.Scan(&doc.ID, &doc.UserID, &doc.Title, &doc.Content, &sourceURL, &categoryID, &doc.Status, &doc.CreatedAt, &doc.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	doc.SourceURL = sourceURL.String
	doc.CategoryID = categoryID.String
	return &doc, nil
}

// ListByUser returns the user's documents.
func (r *DocumentRepo) ListByUser(ctx context.Context, userID string) ([]Document, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, title, content, source_url, category_id, status, created_at, updated_at FROM documents WHERE user_id = ? ORDER BY created_at DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var docs []Document
	for rows.Next() {
		var doc Document
		var sourceURL, categoryID sql.NullString
		if err := rows.Scan(&doc.ID, &doc.UserID, &doc.Title, &doc.Content, &sourceURL, &categoryID, &doc.Status, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.SourceURL = sourceURL.String
		doc.CategoryID = categoryID.String
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return docs, nil
}

// UpdateStatus sets the ingestion status of a document.
func (r *DocumentRepo) UpdateStatus(ctx context.Context, id, status string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE documents SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update document status: %w", err)
	}
	return nil
}
