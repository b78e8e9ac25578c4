package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"merchant-assistant/internal/contextutil"
	"merchant-assistant/internal/ingest"
	"merchant-assistant/internal/metrics"
	"merchant-assistant/internal/storage"
)

// IngestPipelineAPI is the pipeline surface the document handlers depend on.
type IngestPipelineAPI interface {
	ChunkDocument(ctx context.Context, documentID string, parsed *ingest.ParsedDocument, opts ingest.ChunkOptions) ([]storage.DocumentChunk, error)
	VectorizeDocument(ctx context.Context, documentID string, chunks []storage.DocumentChunk, previewQuery string) (*ingest.VectorizeResult, error)
}

// DocumentsHandler handles document upload and ingestion requests.
type DocumentsHandler struct {
	documents storage.DocumentStore
	pipeline  IngestPipelineAPI
	queue     *ingest.Queue
	progress  *ingest.ProgressBroker
}

// NewDocumentsHandler creates a new DocumentsHandler.
func NewDocumentsHandler(documents storage.DocumentStore, pipeline IngestPipelineAPI, queue *ingest.Queue, progress *ingest.ProgressBroker) *DocumentsHandler {
	return &DocumentsHandler{
		documents: documents,
		pipeline:  pipeline,
		queue:     queue,
		progress:  progress,
	}
}

// CreateDocumentRequest represents the document upload payload.
type CreateDocumentRequest struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	SourceURL  string `json:"sourceUrl,omitempty"`
	CategoryID string `json:"categoryId,omitempty"`
}

// DocumentResponse represents one document.
type DocumentResponse struct {
	ID         string                `json:"id"`
	Title      string                `json:"title"`
	SourceURL  string                `json:"sourceUrl,omitempty"`
	CategoryID string                `json:"categoryId,omitempty"`
	Status     string                `json:"status"`
	Outline    []ingest.OutlineEntry `json:"outline,omitempty"`
	CreatedAt  time.Time             `json:"createdAt"`
	UpdatedAt  time.Time             `json:"updatedAt"`
}

// ChunkResponse reports a chunking run.
type ChunkResponse struct {
	DocumentID string `json:"documentId"`
	ChunkCount int    `json:"chunkCount"`
}

// VectorizeRequest represents the vectorization payload.
type VectorizeRequest struct {
	PreviewQuery string `json:"previewQuery,omitempty"`
}

// IngestRequest represents the full-ingestion payload.
type IngestRequest struct {
	Options      ingest.ChunkOptions `json:"options"`
	PreviewQuery string              `json:"previewQuery,omitempty"`
}

// IngestResponse reports an accepted ingestion job.
type IngestResponse struct {
	JobID      string `json:"jobId"`
	DocumentID string `json:"documentId"`
	Position   int    `json:"position"`
}

// Create handles POST requests uploading a document.
func (h *DocumentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "Title must not be empty")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "Content must not be empty")
		return
	}

	doc := &storage.Document{
		ID:         uuid.New().String(),
		UserID:     contextutil.UserIDFromContext(ctx),
		Title:      strings.TrimSpace(req.Title),
		Content:    req.Content,
		SourceURL:  req.SourceURL,
		CategoryID: req.CategoryID,
		Status:     ingest.StatusUploaded,
	}
	if err := h.documents.Create(ctx, doc); err != nil {
		writeServiceError(w, ctx, err, "Failed to create document")
		return
	}

	parsed := ingest.ParseMarkdown(doc.Title, doc.Content)
	writeJSON(w, http.StatusCreated, toDocumentResponse(doc, parsed.Outline))
}

// List handles GET requests for the caller's documents.
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	documents, err := h.documents.ListByUser(ctx, contextutil.UserIDFromContext(ctx))
	if err != nil {
		writeServiceError(w, ctx, err, "Failed to list documents")
		return
	}

	resp := make([]DocumentResponse, 0, len(documents))
	for i := range documents {
		resp = append(resp, toDocumentResponse(&documents[i], nil))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Chunk handles POST requests splitting a document into chunks.
func (h *DocumentsHandler) Chunk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	doc, ok := h.ownedDocument(w, r)
	if !ok {
		return
	}

	var opts ingest.ChunkOptions
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
			logger.WarnContext(ctx, "invalid request body", "error", err)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	chunks, err := h.pipeline.ChunkDocument(ctx, doc.ID, ingest.ParseMarkdown(doc.Title, doc.Content), opts)
	if err != nil {
		writeServiceError(w, ctx, err, "Failed to chunk document")
		return
	}
	writeJSON(w, http.StatusOK, ChunkResponse{DocumentID: doc.ID, ChunkCount: len(chunks)})
}

// Vectorize handles POST requests embedding and indexing a document's chunks.
func (h *DocumentsHandler) Vectorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	doc, ok := h.ownedDocument(w, r)
	if !ok {
		return
	}

	var req VectorizeRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.WarnContext(ctx, "invalid request body", "error", err)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	result, err := h.pipeline.VectorizeDocument(ctx, doc.ID, nil, req.PreviewQuery)
	if err != nil {
		writeServiceError(w, ctx, err, "Failed to vectorize document")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Ingest handles POST requests enqueueing a full chunk-then-vectorize run.
// The request is accepted immediately; progress streams via IngestEvents.
func (h *DocumentsHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	doc, ok := h.ownedDocument(w, r)
	if !ok {
		return
	}

	var req IngestRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.WarnContext(ctx, "invalid request body", "error", err)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	jobID := uuid.New().String()
	parsed := ingest.ParseMarkdown(doc.Title, doc.Content)
	job := ingest.Job{
		ID:         jobID,
		DocumentID: doc.ID,
		Run: func(jobCtx context.Context) error {
			return h.runIngestion(jobCtx, doc.ID, parsed, req)
		},
	}

	position := h.queue.Enqueue(job)
	if position == 0 {
		writeError(w, http.StatusServiceUnavailable, "Ingestion queue is shut down")
		return
	}
	_, waiting := h.queue.Stats()
	metrics.IngestQueueWaiting.Set(float64(waiting))
	h.progress.Publish(ingest.ProgressEvent{
		DocumentID: doc.ID,
		Stage:      ingest.StageQueued,
		Message:    fmt.Sprintf("queued at position %d", position),
	})

	writeJSON(w, http.StatusAccepted, IngestResponse{
		JobID:      jobID,
		DocumentID: doc.ID,
		Position:   position,
	})
}

// runIngestion executes one queued chunk-then-vectorize run, publishing a
// progress event per stage transition.
func (h *DocumentsHandler) runIngestion(ctx context.Context, documentID string, parsed *ingest.ParsedDocument, req IngestRequest) error {
	defer func() {
		_, waiting := h.queue.Stats()
		metrics.IngestQueueWaiting.Set(float64(waiting))
	}()
	h.progress.Publish(ingest.ProgressEvent{DocumentID: documentID, Stage: ingest.StageChunking})

	chunks, err := h.pipeline.ChunkDocument(ctx, documentID, parsed, req.Options)
	if err != nil {
		metrics.IngestJobsTotal.WithLabelValues("chunk", "error").Inc()
		h.progress.Publish(ingest.ProgressEvent{
			DocumentID: documentID,
			Stage:      ingest.StageFailed,
			Error:      err.Error(),
		})
		return err
	}
	metrics.IngestJobsTotal.WithLabelValues("chunk", "ok").Inc()
	h.progress.Publish(ingest.ProgressEvent{
		DocumentID: documentID,
		Stage:      ingest.StageChunked,
		ChunkCount: len(chunks),
	})

	h.progress.Publish(ingest.ProgressEvent{DocumentID: documentID, Stage: ingest.StageVectorizing})
	result, err := h.pipeline.VectorizeDocument(ctx, documentID, chunks, req.PreviewQuery)
	if err != nil {
		metrics.IngestJobsTotal.WithLabelValues("vectorize", "error").Inc()
		h.progress.Publish(ingest.ProgressEvent{
			DocumentID: documentID,
			Stage:      ingest.StageFailed,
			Error:      err.Error(),
		})
		return err
	}
	metrics.IngestJobsTotal.WithLabelValues("vectorize", "ok").Inc()
	h.progress.Publish(ingest.ProgressEvent{
		DocumentID: documentID,
		Stage:      ingest.StageIndexed,
		ChunkCount: result.VectorCount,
	})
	return nil
}

// IngestEvents handles GET requests streaming ingestion progress over SSE.
// The stream closes after a terminal stage or when the client disconnects.
func (h *DocumentsHandler) IngestEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	doc, ok := h.ownedDocument(w, r)
	if !ok {
		return
	}

	flusher, flusherOK := w.(http.Flusher)
	if !flusherOK {
		logger.ErrorContext(ctx, "streaming not supported by response writer")
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	events, cancel := h.progress.Subscribe(doc.ID)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-events:
			data, err := json.Marshal(event)
			if err != nil {
				logger.ErrorContext(ctx, "failed to marshal progress event", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
			if event.Stage == ingest.StageIndexed || event.Stage == ingest.StageFailed {
				_, _ = fmt.Fprintf(w, "data: [DONE]\n\n")
				flusher.Flush()
				return
			}
		}
	}
}

// ownedDocument loads the URL-addressed document and enforces ownership.
// Foreign documents are indistinguishable from missing ones.
func (h *DocumentsHandler) ownedDocument(w http.ResponseWriter, r *http.Request) (*storage.Document, bool) {
	ctx := r.Context()

	doc, err := h.documents.GetByID(ctx, chi.URLParam(r, "documentID"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Resource not found")
		} else {
			writeServiceError(w, ctx, err, "Failed to load document")
		}
		return nil, false
	}
	if doc.UserID != contextutil.UserIDFromContext(ctx) {
		writeError(w, http.StatusNotFound, "Resource not found")
		return nil, false
	}
	return doc, true
}

func toDocumentResponse(doc *storage.Document, outline []ingest.OutlineEntry) DocumentResponse {
	return DocumentResponse{
		ID:         doc.ID,
		Title:      doc.Title,
		SourceURL:  doc.SourceURL,
		CategoryID: doc.CategoryID,
		Status:     doc.Status,
		Outline:    outline,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
}
