package ingest

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"merchant-assistant/internal/chunking"
	ingest_mocks "merchant-assistant/internal/ingest/mocks"
	"merchant-assistant/internal/rag"
	service_mocks "merchant-assistant/internal/service/mocks"
	"merchant-assistant/internal/storage"
	vectorstore_mocks "merchant-assistant/internal/vectorstore/mocks"
)

type pipelineFixture struct {
	pipeline    *Pipeline
	documents   *storage.DocumentRepo
	chunks      *storage.ChunkRepo
	vectorIndex *storage.VectorIndexRepo
	store       *vectorstore_mocks.MockVectorStore
	embedder    *ingest_mocks.MockEmbedder
	preview     *service_mocks.MockRetriever
}

// newPipelineFixture wires the pipeline against a real migrated sqlite
// database and mocked vector store, embedder and preview searcher.
func newPipelineFixture(t *testing.T, ctrl *gomock.Controller) *pipelineFixture {
	t.Helper()

	db, err := storage.New(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("storage.Migrate() error = %v", err)
	}

	f := &pipelineFixture{
		documents:   storage.NewDocumentRepo(db),
		chunks:      storage.NewChunkRepo(db),
		vectorIndex: storage.NewVectorIndexRepo(db),
		store:       vectorstore_mocks.NewMockVectorStore(ctrl),
		embedder:    ingest_mocks.NewMockEmbedder(ctrl),
		preview:     service_mocks.NewMockRetriever(ctrl),
	}

	registry := chunking.NewRegistry(chunking.Defaults{
		ChunkSize:          120,
		ChunkOverlap:       20,
		ParagraphMinLength: 60,
		SlidingWindowStep:  40,
	}, chunking.StrategyFixedLength)

	f.pipeline = NewPipeline(f.documents, f.chunks, f.vectorIndex, f.store, "kb",
		f.embedder, registry, 5, f.preview)
	return f
}

func (f *pipelineFixture) createDocument(t *testing.T, content string) *storage.Document {
	t.Helper()
	doc := &storage.Document{
		ID:      "doc-1",
		UserID:  "u1",
		Title:   "评价管理规则",
		Content: content,
	}
	if err := f.documents.Create(context.Background(), doc); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return doc
}

func (f *pipelineFixture) allowEmbeddings(dims int) {
	f.embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, texts []string) ([][]float32, error) {
			vecs := make([][]float32, len(texts))
			for i := range vecs {
				vecs[i] = make([]float32, dims)
			}
			return vecs, nil
		}).AnyTimes()
	f.embedder.EXPECT().Model().Return("embed-model").AnyTimes()
	f.embedder.EXPECT().Dimension().Return(dims).AnyTimes()
}

func longDocument() string {
	var sb strings.Builder
	for i := 0; i < 20; i++ {
		sb.WriteString(fmt.Sprintf("第%d条：商家应当在收到差评后七个工作日内提交申诉材料，并附相关凭证。\n\n", i+1))
	}
	return sb.String()
}

func TestPipeline_ChunkDocument(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newPipelineFixture(t, ctrl)
	doc := f.createDocument(t, longDocument())
	ctx := context.Background()

	chunks, err := f.pipeline.ChunkDocument(ctx, doc.ID, nil, ChunkOptions{})
	if err != nil {
		t.Fatalf("ChunkDocument() error = %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("ChunkDocument() produced no chunks")
	}

	for i, chunk := range chunks {
		if chunk.ChunkIndex != i {
			t.Errorf("chunk %d has index %d, want gapless ascending indexes", i, chunk.ChunkIndex)
		}
		if chunk.TokenCount <= 0 {
			t.Errorf("chunk %d token count = %d, want > 0", i, chunk.TokenCount)
		}
		if chunk.Metadata["strategy"] != chunking.StrategyFixedLength {
			t.Errorf("chunk %d strategy metadata = %v", i, chunk.Metadata["strategy"])
		}
		if chunk.Metadata["title"] != "评价管理规则" {
			t.Errorf("chunk %d title metadata = %v", i, chunk.Metadata["title"])
		}
	}

	stored, err := f.chunks.ListByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("ListByDocument() error = %v", err)
	}
	if len(stored) != len(chunks) {
		t.Errorf("stored %d chunks, returned %d", len(stored), len(chunks))
	}

	updated, err := f.documents.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if updated.Status != StatusChunked {
		t.Errorf("document status = %s, want %s", updated.Status, StatusChunked)
	}
}

func TestPipeline_ChunkDocument_MinLengthFloor(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newPipelineFixture(t, ctrl)
	doc := f.createDocument(t, "完整的一段规则说明，长度超过下限要求，应当保留。\n\n短。")

	chunks, err := f.pipeline.ChunkDocument(context.Background(), doc.ID, nil, ChunkOptions{
		Strategy:           chunking.StrategyParagraph,
		ParagraphMinLength: 5,
		MinChunkLength:     10,
	})
	if err != nil {
		t.Fatalf("ChunkDocument() error = %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want the short trailing chunk filtered", len(chunks))
	}
	if strings.Contains(chunks[0].Content, "短") {
		t.Errorf("short chunk survived the floor: %q", chunks[0].Content)
	}
}

func TestPipeline_ChunkDocument_ReplacesPriorSet(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newPipelineFixture(t, ctrl)
	doc := f.createDocument(t, longDocument())
	ctx := context.Background()
	f.allowEmbeddings(8)

	first, err := f.pipeline.ChunkDocument(ctx, doc.ID, nil, ChunkOptions{})
	if err != nil {
		t.Fatalf("first ChunkDocument() error = %v", err)
	}
	f.store.EXPECT().Upsert(gomock.Any(), "kb", gomock.Any()).Return(nil)
	if _, err := f.pipeline.VectorizeDocument(ctx, doc.ID, first, ""); err != nil {
		t.Fatalf("VectorizeDocument() error = %v", err)
	}

	// Re-chunking must invalidate the old vector entries before the chunk
	// rows they point at disappear.
	f.store.EXPECT().Delete(gomock.Any(), "kb", gomock.Len(len(first))).Return(nil)

	second, err := f.pipeline.ChunkDocument(ctx, doc.ID, nil, ChunkOptions{})
	if err != nil {
		t.Fatalf("second ChunkDocument() error = %v", err)
	}

	firstIDs := make(map[string]bool)
	for _, chunk := range first {
		firstIDs[chunk.ID] = true
	}
	for _, chunk := range second {
		if firstIDs[chunk.ID] {
			t.Error("re-chunking reused a prior chunk id")
		}
	}

	ids := make([]string, len(first))
	for i, chunk := range first {
		ids[i] = chunk.ID
	}
	entries, err := f.vectorIndex.ListByChunkIDs(ctx, ids)
	if err != nil {
		t.Fatalf("ListByChunkIDs() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("found %d orphaned vector entries after re-chunking", len(entries))
	}
}

func TestPipeline_VectorizeDocument_Idempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newPipelineFixture(t, ctrl)
	doc := f.createDocument(t, longDocument())
	ctx := context.Background()
	f.allowEmbeddings(8)

	chunks, err := f.pipeline.ChunkDocument(ctx, doc.ID, nil, ChunkOptions{})
	if err != nil {
		t.Fatalf("ChunkDocument() error = %v", err)
	}

	f.store.EXPECT().Upsert(gomock.Any(), "kb", gomock.Len(len(chunks))).Return(nil).Times(2)
	// The second run must detach the first run's vectors before upserting.
	f.store.EXPECT().Delete(gomock.Any(), "kb", gomock.Len(len(chunks))).Return(nil)

	result, err := f.pipeline.VectorizeDocument(ctx, doc.ID, nil, "")
	if err != nil {
		t.Fatalf("first VectorizeDocument() error = %v", err)
	}
	if result.VectorCount != len(chunks) {
		t.Errorf("VectorCount = %d, want %d", result.VectorCount, len(chunks))
	}
	if result.EmbeddingModel != "embed-model" {
		t.Errorf("EmbeddingModel = %s", result.EmbeddingModel)
	}

	if _, err := f.pipeline.VectorizeDocument(ctx, doc.ID, nil, ""); err != nil {
		t.Fatalf("second VectorizeDocument() error = %v", err)
	}

	// Exactly one live vector entry per chunk: no duplicates, no orphans.
	ids := make([]string, len(chunks))
	for i, chunk := range chunks {
		ids[i] = chunk.ID
	}
	entries, err := f.vectorIndex.ListByChunkIDs(ctx, ids)
	if err != nil {
		t.Fatalf("ListByChunkIDs() error = %v", err)
	}
	if len(entries) != len(chunks) {
		t.Errorf("got %d vector entries for %d chunks", len(entries), len(chunks))
	}

	updated, _ := f.documents.GetByID(ctx, doc.ID)
	if updated.Status != StatusIndexed {
		t.Errorf("document status = %s, want %s", updated.Status, StatusIndexed)
	}
}

func TestPipeline_VectorizeDocument_UpsertFailureMarksFailed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newPipelineFixture(t, ctrl)
	doc := f.createDocument(t, longDocument())
	ctx := context.Background()
	f.allowEmbeddings(8)

	chunks, err := f.pipeline.ChunkDocument(ctx, doc.ID, nil, ChunkOptions{})
	if err != nil {
		t.Fatalf("ChunkDocument() error = %v", err)
	}

	f.store.EXPECT().Upsert(gomock.Any(), "kb", gomock.Any()).
		Return(fmt.Errorf("qdrant unavailable"))

	if _, err := f.pipeline.VectorizeDocument(ctx, doc.ID, chunks, ""); err == nil {
		t.Fatal("VectorizeDocument() error = nil, want upsert failure")
	}

	updated, _ := f.documents.GetByID(ctx, doc.ID)
	if updated.Status != StatusFailed {
		t.Errorf("document status = %s, want %s", updated.Status, StatusFailed)
	}

	entries, _ := f.vectorIndex.ListByChunkIDs(ctx, []string{chunks[0].ID})
	if len(entries) != 0 {
		t.Error("vector entries recorded despite failed upsert")
	}
}

func TestPipeline_VectorizeDocument_PreviewFailureSwallowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newPipelineFixture(t, ctrl)
	doc := f.createDocument(t, longDocument())
	ctx := context.Background()
	f.allowEmbeddings(8)

	chunks, err := f.pipeline.ChunkDocument(ctx, doc.ID, nil, ChunkOptions{})
	if err != nil {
		t.Fatalf("ChunkDocument() error = %v", err)
	}

	f.store.EXPECT().Upsert(gomock.Any(), "kb", gomock.Any()).Return(nil)
	f.preview.EXPECT().Retrieve(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req rag.RetrieveRequest) (*rag.RetrieveResult, error) {
			if req.UserID != "u1" {
				t.Errorf("preview user = %s, want the document owner", req.UserID)
			}
			if len(req.Options.DocumentFilter) != 1 || req.Options.DocumentFilter[0] != doc.ID {
				t.Errorf("preview filter = %v, want [%s]", req.Options.DocumentFilter, doc.ID)
			}
			return nil, fmt.Errorf("preview backend down")
		})

	result, err := f.pipeline.VectorizeDocument(ctx, doc.ID, chunks, "差评如何申诉？")
	if err != nil {
		t.Fatalf("VectorizeDocument() error = %v, preview failures must be swallowed", err)
	}
	if result.PreviewSearch != nil {
		t.Error("PreviewSearch set despite preview failure")
	}
}

func TestPipeline_VectorizeDocument_NoChunks(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newPipelineFixture(t, ctrl)
	doc := f.createDocument(t, "内容")

	if _, err := f.pipeline.VectorizeDocument(context.Background(), doc.ID, nil, ""); err == nil {
		t.Fatal("VectorizeDocument() error = nil, want error for chunkless document")
	}
}
