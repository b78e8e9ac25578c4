package storage

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

// newTestDB opens a migrated sqlite database in a temp directory.
func newTestDB(t *testing.T) *testDB {
	t.Helper()

	dbPath := t.TempDir() + "/test.db"
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	return &testDB{
		conversations: NewConversationRepo(db),
		messages:      NewMessageRepo(db),
		documents:     NewDocumentRepo(db),
		chunks:        NewChunkRepo(db),
		vectors:       NewVectorIndexRepo(db),
		searchLogs:    NewSearchLogRepo(db),
	}
}

type testDB struct {
	conversations *ConversationRepo
	messages      *MessageRepo
	documents     *DocumentRepo
	chunks        *ChunkRepo
	vectors       *VectorIndexRepo
	searchLogs    *SearchLogRepo
}

func (d *testDB) createDocument(t *testing.T, userID string) *Document {
	t.Helper()
	doc := &Document{
		ID:      uuid.NewString(),
		UserID:  userID,
		Title:   "评价管理规则",
		Content: "差评申诉需在七天内提交证据。",
	}
	if err := d.documents.Create(context.Background(), doc); err != nil {
		t.Fatalf("Create document error = %v", err)
	}
	return doc
}

func TestConversationRepo_Lifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	conv := &Conversation{ID: uuid.NewString(), UserID: "u1", Title: "差评如何申诉"}
	if err := db.conversations.Create(ctx, conv); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := db.conversations.GetByID(ctx, conv.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.UserID != "u1" || got.Title != "差评如何申诉" {
		t.Errorf("GetByID() = %+v", got)
	}

	if err := db.conversations.UpdateTitle(ctx, conv.ID, "新标题"); err != nil {
		t.Fatalf("UpdateTitle() error = %v", err)
	}
	got, _ = db.conversations.GetByID(ctx, conv.ID)
	if got.Title != "新标题" {
		t.Errorf("title after update = %q", got.Title)
	}

	if err := db.conversations.SoftDelete(ctx, conv.ID); err != nil {
		t.Fatalf("SoftDelete() error = %v", err)
	}
	if _, err := db.conversations.GetByID(ctx, conv.ID); err != ErrNotFound {
		t.Errorf("GetByID() after soft delete error = %v, want ErrNotFound", err)
	}

	// The row must still exist for audit purposes (no physical delete).
	convs, err := db.conversations.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(convs) != 0 {
		t.Errorf("ListByUser() returned %d soft-deleted conversations", len(convs))
	}
}

func TestConversationRepo_GetByID_NotFound(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.conversations.GetByID(context.Background(), "missing"); err != ErrNotFound {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestMessageRepo_InsertAndList(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	conv := &Conversation{ID: uuid.NewString(), UserID: "u1"}
	if err := db.conversations.Create(ctx, conv); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	rerankScore := 0.8
	userMsg := &Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           "user",
		Content:        "差评如何申诉？",
	}
	assistantMsg := &Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           "assistant",
		Content:        "根据【资料1】……",
		Sources: []ReferenceSnapshot{{
			ReferenceID:     uuid.NewString(),
			DocumentID:      "d1",
			DocumentTitle:   "评价管理规则",
			ChunkID:         "c1",
			ChunkIndex:      2,
			Snippet:         "差评申诉需在七天内提交证据",
			Strategy:        "chunk_neighbors",
			SimilarityScore: 0.62,
			RerankScore:     &rerankScore,
		}},
		Metadata: map[string]any{"model": "gpt-4o-mini", "durationMs": float64(1200)},
	}

	for _, msg := range []*Message{userMsg, assistantMsg} {
		if err := db.messages.Insert(ctx, msg); err != nil {
			t.Fatalf("Insert(%s) error = %v", msg.Role, err)
		}
	}

	msgs, err := db.messages.ListByConversation(ctx, conv.ID)
	if err != nil {
		t.Fatalf("ListByConversation() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("ListByConversation() returned %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Errorf("messages out of order: %s, %s", msgs[0].Role, msgs[1].Role)
	}
	if msgs[0].Sources != nil {
		t.Errorf("user message sources = %v, want nil", msgs[0].Sources)
	}
	if len(msgs[1].Sources) != 1 || msgs[1].Sources[0].DocumentTitle != "评价管理规则" {
		t.Errorf("assistant sources = %+v", msgs[1].Sources)
	}
	if msgs[1].Sources[0].RerankScore == nil || *msgs[1].Sources[0].RerankScore != 0.8 {
		t.Errorf("rerank score not round-tripped: %+v", msgs[1].Sources[0].RerankScore)
	}
	if msgs[1].Metadata["model"] != "gpt-4o-mini" {
		t.Errorf("metadata = %v", msgs[1].Metadata)
	}
}

func TestMessageRepo_ListRecent_WindowAndOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	conv := &Conversation{ID: uuid.NewString(), UserID: "u1"}
	if err := db.conversations.Create(ctx, conv); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// IDs are used as a tiebreaker for identical timestamps, so make them sort
	// in insertion order.
	for i := 0; i < 15; i++ {
		msg := &Message{
			ID:             string(rune('a'+i)) + "-msg",
			ConversationID: conv.ID,
			Role:           "user",
			Content:        "message",
		}
		if err := db.messages.Insert(ctx, msg); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	msgs, err := db.messages.ListRecent(ctx, conv.ID, 12)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(msgs) != 12 {
		t.Fatalf("ListRecent() returned %d messages, want 12", len(msgs))
	}
	// Oldest of the window is the 4th inserted message.
	if msgs[0].ID != "d-msg" {
		t.Errorf("first message ID = %q, want d-msg", msgs[0].ID)
	}
	if msgs[11].ID != "o-msg" {
		t.Errorf("last message ID = %q, want o-msg", msgs[11].ID)
	}
}

func TestChunkRepo_BatchAndNeighbors(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	doc := db.createDocument(t, "u1")

	chunks := make([]DocumentChunk, 10)
	for i := range chunks {
		chunks[i] = DocumentChunk{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			Content:    "chunk content",
			ChunkIndex: i,
			TokenCount: 10,
			Metadata:   map[string]any{"strategy": "fixed_length"},
		}
	}
	if err := db.chunks.InsertBatch(ctx, chunks); err != nil {
		t.Fatalf("InsertBatch() error = %v", err)
	}

	neighbors, err := db.chunks.GetNeighbors(ctx, doc.ID, 5, 1)
	if err != nil {
		t.Fatalf("GetNeighbors() error = %v", err)
	}
	if len(neighbors) != 3 {
		t.Fatalf("GetNeighbors() returned %d chunks, want 3", len(neighbors))
	}
	for i, want := range []int{4, 5, 6} {
		if neighbors[i].ChunkIndex != want {
			t.Errorf("neighbor[%d].ChunkIndex = %d, want %d", i, neighbors[i].ChunkIndex, want)
		}
	}

	// Edge of the document: window is clipped, not an error.
	neighbors, err = db.chunks.GetNeighbors(ctx, doc.ID, 0, 2)
	if err != nil {
		t.Fatalf("GetNeighbors() at edge error = %v", err)
	}
	if len(neighbors) != 3 {
		t.Errorf("GetNeighbors() at edge returned %d chunks, want 3", len(neighbors))
	}

	if err := db.chunks.DeleteByDocument(ctx, doc.ID); err != nil {
		t.Fatalf("DeleteByDocument() error = %v", err)
	}
	ids, err := db.chunks.ListIDsByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("ListIDsByDocument() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("ListIDsByDocument() returned %d IDs after delete", len(ids))
	}
}

func TestVectorIndexRepo_OneLiveEntryPerChunk(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	doc := db.createDocument(t, "u1")

	chunk := DocumentChunk{ID: uuid.NewString(), DocumentID: doc.ID, Content: "c", ChunkIndex: 0}
	if err := db.chunks.InsertBatch(ctx, []DocumentChunk{chunk}); err != nil {
		t.Fatalf("InsertBatch() error = %v", err)
	}

	entry := &VectorIndex{
		ID:             uuid.NewString(),
		ChunkID:        chunk.ID,
		ExternalID:     chunk.ID,
		EmbeddingModel: "text-embedding-3-small",
		Dimension:      1536,
	}
	if err := db.vectors.Insert(ctx, entry); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	// A second live entry for the same chunk must be rejected by the schema.
	dup := &VectorIndex{
		ID:             uuid.NewString(),
		ChunkID:        chunk.ID,
		ExternalID:     uuid.NewString(),
		EmbeddingModel: "text-embedding-3-small",
		Dimension:      1536,
	}
	if err := db.vectors.Insert(ctx, dup); err == nil {
		t.Error("Insert() duplicate chunk entry succeeded, want error")
	}

	// Detach then re-insert is the supported path.
	if err := db.vectors.DeleteByChunkIDs(ctx, []string{chunk.ID}); err != nil {
		t.Fatalf("DeleteByChunkIDs() error = %v", err)
	}
	if err := db.vectors.Insert(ctx, dup); err != nil {
		t.Fatalf("Insert() after detach error = %v", err)
	}

	got, err := db.vectors.GetByChunkID(ctx, chunk.ID)
	if err != nil {
		t.Fatalf("GetByChunkID() error = %v", err)
	}
	if got.ExternalID != dup.ExternalID {
		t.Errorf("ExternalID = %q, want %q", got.ExternalID, dup.ExternalID)
	}
}

func TestSearchLogRepo_Insert(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	entry := &SearchLog{
		ID:          uuid.NewString(),
		UserID:      "u1",
		Query:       "差评如何申诉？",
		ResultCount: 3,
		TopScore:    0.71,
		LatencyMs:   148,
		DocumentIDs: []string{"d1", "d2"},
	}
	if err := db.searchLogs.Insert(ctx, entry); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	logs, err := db.searchLogs.ListByUser(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("ListByUser() returned %d logs, want 1", len(logs))
	}
	if logs[0].TopScore != 0.71 || len(logs[0].DocumentIDs) != 2 {
		t.Errorf("log = %+v", logs[0])
	}
}

func TestDocumentRepo_StatusTransitions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	doc := db.createDocument(t, "u1")

	got, err := db.documents.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != "uploaded" {
		t.Errorf("initial status = %q, want uploaded", got.Status)
	}

	for _, status := range []string{"chunked", "indexed"} {
		if err := db.documents.UpdateStatus(ctx, doc.ID, status); err != nil {
			t.Fatalf("UpdateStatus(%s) error = %v", status, err)
		}
	}
	got, _ = db.documents.GetByID(ctx, doc.ID)
	if got.Status != "indexed" {
		t.Errorf("final status = %q, want indexed", got.Status)
	}
}
