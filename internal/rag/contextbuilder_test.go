package rag

import (
	"context"
	"testing"

	"go.uber.org/mock/gomock"

	"merchant-assistant/internal/storage"
	storage_mocks "merchant-assistant/internal/storage/mocks"
)

func TestContextBuilder_RawChunk(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	builder := NewContextBuilder(storage_mocks.NewMockChunkStore(ctrl))
	chunk := &storage.DocumentChunk{ID: "c1", Content: "评价申诉需在7天内提交。"}
	doc := &storage.Document{ID: "d1", Content: "完整文档内容"}

	got, err := builder.Build(context.Background(), chunk, doc, StrategyRawChunk, 1)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got != chunk.Content {
		t.Errorf("Build() = %q, want chunk content", got)
	}
}

func TestContextBuilder_FullDocument(t *testing.T) {
	tests := []struct {
		name       string
		docContent string
		want       string
	}{
		{name: "document content present", docContent: "完整文档内容", want: "完整文档内容"},
		{name: "empty document falls back to chunk", docContent: "  ", want: "块内容"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			builder := NewContextBuilder(storage_mocks.NewMockChunkStore(ctrl))
			chunk := &storage.DocumentChunk{ID: "c1", Content: "块内容"}
			doc := &storage.Document{ID: "d1", Content: tt.docContent}

			got, err := builder.Build(context.Background(), chunk, doc, StrategyFullDocument, 1)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Build() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContextBuilder_ChunkNeighbors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockChunks := storage_mocks.NewMockChunkStore(ctrl)
	mockChunks.EXPECT().
		GetNeighbors(gomock.Any(), "d1", 5, 1).
		Return([]storage.DocumentChunk{
			{ID: "c4", ChunkIndex: 4, Content: "第四块"},
			{ID: "c5", ChunkIndex: 5, Content: "第五块"},
			{ID: "c6", ChunkIndex: 6, Content: "第六块"},
		}, nil)

	builder := NewContextBuilder(mockChunks)
	chunk := &storage.DocumentChunk{ID: "c5", DocumentID: "d1", ChunkIndex: 5, Content: "第五块"}
	doc := &storage.Document{ID: "d1"}

	got, err := builder.Build(context.Background(), chunk, doc, StrategyChunkNeighbors, 1)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	want := "第四块\n第五块\n第六块"
	if got != want {
		t.Errorf("Build() = %q, want %q", got, want)
	}
}

func TestContextBuilder_ChunkNeighbors_ZeroSize(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No GetNeighbors expectation: size 0 must not hit the store.
	builder := NewContextBuilder(storage_mocks.NewMockChunkStore(ctrl))
	chunk := &storage.DocumentChunk{ID: "c5", DocumentID: "d1", ChunkIndex: 5, Content: "第五块"}

	got, err := builder.Build(context.Background(), chunk, &storage.Document{ID: "d1"}, StrategyChunkNeighbors, 0)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got != "第五块" {
		t.Errorf("Build() = %q, want the chunk alone", got)
	}
}

func TestContextBuilder_ChunkNeighbors_NoSiblings(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockChunks := storage_mocks.NewMockChunkStore(ctrl)
	mockChunks.EXPECT().
		GetNeighbors(gomock.Any(), "d1", 0, 1).
		Return([]storage.DocumentChunk{{ID: "c0", ChunkIndex: 0, Content: "唯一块"}}, nil)

	builder := NewContextBuilder(mockChunks)
	chunk := &storage.DocumentChunk{ID: "c0", DocumentID: "d1", ChunkIndex: 0, Content: "唯一块"}

	got, err := builder.Build(context.Background(), chunk, &storage.Document{ID: "d1"}, StrategyChunkNeighbors, 1)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got != "唯一块" {
		t.Errorf("Build() = %q, want the chunk alone", got)
	}
}

func TestContextBuilder_UnknownStrategyDefaultsToNeighbors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockChunks := storage_mocks.NewMockChunkStore(ctrl)
	mockChunks.EXPECT().
		GetNeighbors(gomock.Any(), "d1", 2, 1).
		Return([]storage.DocumentChunk{
			{ID: "c1", ChunkIndex: 1, Content: "前块"},
			{ID: "c2", ChunkIndex: 2, Content: "中块"},
		}, nil)

	builder := NewContextBuilder(mockChunks)
	chunk := &storage.DocumentChunk{ID: "c2", DocumentID: "d1", ChunkIndex: 2, Content: "中块"}

	got, err := builder.Build(context.Background(), chunk, &storage.Document{ID: "d1"}, "something_else", 1)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got != "前块\n中块" {
		t.Errorf("Build() = %q, want neighbor concatenation", got)
	}
}

func TestClampNeighborSize(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{in: -2, want: 0},
		{in: 0, want: 0},
		{in: 1, want: 1},
		{in: 3, want: 3},
		{in: 7, want: 3},
	}
	for _, tt := range tests {
		if got := clampNeighborSize(tt.in); got != tt.want {
			t.Errorf("clampNeighborSize(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
