package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"merchant-assistant/internal/chunking"
	"merchant-assistant/internal/contextutil"
	"merchant-assistant/internal/rag"
	"merchant-assistant/internal/storage"
	"merchant-assistant/internal/vectorstore"
)

// Pipeline persists chunks and vector entries for documents. Re-chunking
// replaces a document's entire chunk set; a chunk never has two live vector
// entries at once.
type Pipeline struct {
	documents      storage.DocumentStore
	chunks         storage.ChunkStore
	vectorIndex    storage.VectorIndexStore
	store          vectorstore.VectorStore
	collection     string
	embedder       Embedder
	registry       *chunking.Registry
	minChunkLength int
	preview        PreviewSearcher
}

// NewPipeline creates the ingestion pipeline. preview may be nil; preview
// queries are then ignored.
func NewPipeline(
	documents storage.DocumentStore,
	chunks storage.ChunkStore,
	vectorIndex storage.VectorIndexStore,
	store vectorstore.VectorStore,
	collection string,
	embedder Embedder,
	registry *chunking.Registry,
	minChunkLength int,
	preview PreviewSearcher,
) *Pipeline {
	if minChunkLength < 1 {
		minChunkLength = 1
	}
	return &Pipeline{
		documents:      documents,
		chunks:         chunks,
		vectorIndex:    vectorIndex,
		store:          store,
		collection:     collection,
		embedder:       embedder,
		registry:       registry,
		minChunkLength: minChunkLength,
		preview:        preview,
	}
}

// ChunkDocument splits a document into ordered chunks, replacing any prior
// chunk set. Old vector entries are invalidated before the chunks they point
// at are deleted.
func (p *Pipeline) ChunkDocument(ctx context.Context, documentID string, parsed *ParsedDocument, opts ChunkOptions) ([]storage.DocumentChunk, error) {
	logger := contextutil.LoggerFromContext(ctx)

	doc, err := p.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	if err := p.detachDocument(ctx, documentID); err != nil {
		return nil, err
	}
	if err := p.chunks.DeleteByDocument(ctx, documentID); err != nil {
		return nil, fmt.Errorf("failed to delete prior chunks: %w", err)
	}

	content := doc.Content
	markdown, plainText := "", ""
	if parsed != nil {
		markdown = parsed.Markdown
		plainText = parsed.PlainText
		if content == "" {
			content = parsed.PlainText
		}
	}

	chunker, strategy := p.registry.Resolve(opts.Strategy)
	pieces := chunker.Chunk(content, markdown, plainText, chunking.Options{
		ChunkSize:          opts.ChunkSize,
		ChunkOverlap:       opts.ChunkOverlap,
		ParagraphMinLength: opts.ParagraphMinLength,
		SlidingWindowSize:  opts.SlidingWindowSize,
		SlidingWindowStep:  opts.SlidingWindowStep,
	})

	minLength := opts.MinChunkLength
	if minLength <= 0 {
		minLength = p.minChunkLength
	}

	rows := make([]storage.DocumentChunk, 0, len(pieces))
	for _, piece := range pieces {
		if len([]rune(piece)) < minLength {
			continue
		}
		rows = append(rows, storage.DocumentChunk{
			ID:         uuid.New().String(),
			DocumentID: documentID,
			Content:    piece,
			ChunkIndex: len(rows),
			TokenCount: chunking.EstimateTokens(piece),
			Metadata: map[string]any{
				"title":      doc.Title,
				"categoryId": doc.CategoryID,
				"sourceUrl":  doc.SourceURL,
				"length":     len([]rune(piece)),
				"strategy":   strategy,
			},
		})
	}

	if len(rows) > 0 {
		if err := p.chunks.InsertBatch(ctx, rows); err != nil {
			return nil, fmt.Errorf("failed to persist chunks: %w", err)
		}
	}
	if err := p.documents.UpdateStatus(ctx, documentID, StatusChunked); err != nil {
		logger.WarnContext(ctx, "failed to update document status", "documentId", documentID, "error", err)
	}

	logger.InfoContext(ctx, "document chunked",
		"documentId", documentID,
		"strategy", strategy,
		"chunks", len(rows),
		"filtered", len(pieces)-len(rows),
	)
	return rows, nil
}

// VectorizeDocument embeds chunks and upserts them into the vector store.
// Prior vector entries for the target chunks are detached first. A non-empty
// previewQuery triggers a same-pipeline retrieval afterwards; preview
// failures are logged and swallowed.
func (p *Pipeline) VectorizeDocument(ctx context.Context, documentID string, chunks []storage.DocumentChunk, previewQuery string) (*VectorizeResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	doc, err := p.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	if chunks == nil {
		chunks, err = p.chunks.ListByDocument(ctx, documentID)
		if err != nil {
			return nil, fmt.Errorf("failed to list chunks: %w", err)
		}
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("document %s has no chunks to vectorize", documentID)
	}

	chunkIDs := make([]string, len(chunks))
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		chunkIDs[i] = chunk.ID
		texts[i] = chunk.Content
	}

	if err := p.detachChunks(ctx, chunkIDs); err != nil {
		return nil, err
	}

	embeddings, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		p.markFailed(ctx, documentID)
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		p.markFailed(ctx, documentID)
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(chunks), len(embeddings))
	}

	points := make([]vectorstore.Point, len(chunks))
	externalIDs := make([]string, len(chunks))
	for i, chunk := range chunks {
		externalIDs[i] = uuid.New().String()
		points[i] = vectorstore.Point{
			ID:  externalIDs[i],
			Vec: embeddings[i],
			Meta: map[string]any{
				"chunk_id":    chunk.ID,
				"document_id": documentID,
				"chunk_index": chunk.ChunkIndex,
				"title":       doc.Title,
			},
		}
	}

	if err := p.store.Upsert(ctx, p.collection, points); err != nil {
		p.markFailed(ctx, documentID)
		return nil, fmt.Errorf("vector upsert failed: %w", err)
	}

	// Bookkeeping rows only after the upsert succeeded.
	for i, chunk := range chunks {
		entry := &storage.VectorIndex{
			ID:             uuid.New().String(),
			ChunkID:        chunk.ID,
			ExternalID:     externalIDs[i],
			EmbeddingModel: p.embedder.Model(),
			Dimension:      p.embedder.Dimension(),
			Metadata:       map[string]any{"documentId": documentID},
		}
		if err := p.vectorIndex.Insert(ctx, entry); err != nil {
			return nil, fmt.Errorf("failed to record vector entry: %w", err)
		}
	}

	if err := p.documents.UpdateStatus(ctx, documentID, StatusIndexed); err != nil {
		logger.WarnContext(ctx, "failed to update document status", "documentId", documentID, "error", err)
	}

	result := &VectorizeResult{
		ChunkCount:     len(chunks),
		VectorCount:    len(points),
		EmbeddingModel: p.embedder.Model(),
	}

	if previewQuery != "" && p.preview != nil {
		preview, err := p.preview.Retrieve(ctx, rag.RetrieveRequest{
			UserID: doc.UserID,
			Query:  previewQuery,
			Options: rag.RetrieveOptions{
				DocumentFilter: []string{documentID},
			},
		})
		if err != nil {
			logger.WarnContext(ctx, "preview search failed", "documentId", documentID, "error", err)
		} else {
			result.PreviewSearch = preview
		}
	}

	logger.InfoContext(ctx, "document vectorized",
		"documentId", documentID,
		"vectors", result.VectorCount,
		"model", result.EmbeddingModel,
	)
	return result, nil
}

// detachDocument removes every live vector entry of a document, in the store
// first and then in the bookkeeping table.
func (p *Pipeline) detachDocument(ctx context.Context, documentID string) error {
	chunkIDs, err := p.chunks.ListIDsByDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to list chunk ids: %w", err)
	}
	return p.detachChunks(ctx, chunkIDs)
}

func (p *Pipeline) detachChunks(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	entries, err := p.vectorIndex.ListByChunkIDs(ctx, chunkIDs)
	if err != nil {
		return fmt.Errorf("failed to list vector entries: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}
	externalIDs := make([]string, len(entries))
	for i, entry := range entries {
		externalIDs[i] = entry.ExternalID
	}
	if err := p.store.Delete(ctx, p.collection, externalIDs); err != nil {
		return fmt.Errorf("failed to delete vectors: %w", err)
	}
	if err := p.vectorIndex.DeleteByChunkIDs(ctx, chunkIDs); err != nil {
		return fmt.Errorf("failed to delete vector entries: %w", err)
	}
	return nil
}

func (p *Pipeline) markFailed(ctx context.Context, documentID string) {
	if err := p.documents.UpdateStatus(ctx, documentID, StatusFailed); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to mark document failed",
			"documentId", documentID, "error", err)
	}
}
