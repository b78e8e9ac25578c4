package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"merchant-assistant/internal/contextutil"
	"merchant-assistant/internal/llm"
	"merchant-assistant/internal/storage"
	"merchant-assistant/internal/vectorstore"
)

const (
	minRetrievalLimit = 1
	maxRetrievalLimit = 12
	minTopK           = 1
	maxTopK           = 10
	minContextLength  = 500
	maxContextLength  = 8000
	snippetLength     = 160
	rerankExcerptLen  = 320
)

// RetrieverConfig carries the configured defaults the pipeline falls back to
// when a request does not override them.
type RetrieverConfig struct {
	Collection          string
	Strategy            string
	RetrievalLimit      int
	TopK                int
	NeighborSize        int
	MaxContextLength    int
	RerankEnabled       bool
	RerankModel         string
	RerankThreshold     float64
	SimilarityThreshold float64
}

// Retriever runs the multi-stage retrieval pipeline: vector search, access
// filtering, context assembly, optional LLM reranking, confidence gating and
// top-K selection.
type Retriever struct {
	embedder   Embedder
	store      vectorstore.VectorStore
	chunks     storage.ChunkStore
	documents  storage.DocumentStore
	searchLogs storage.SearchLogStore
	llmClient  ChatCompleter
	builder    *ContextBuilder
	cfg        RetrieverConfig
}

// NewRetriever creates a retrieval pipeline.
func NewRetriever(
	embedder Embedder,
	store vectorstore.VectorStore,
	chunks storage.ChunkStore,
	documents storage.DocumentStore,
	searchLogs storage.SearchLogStore,
	llmClient ChatCompleter,
	cfg RetrieverConfig,
) *Retriever {
	return &Retriever{
		embedder:   embedder,
		store:      store,
		chunks:     chunks,
		documents:  documents,
		searchLogs: searchLogs,
		llmClient:  llmClient,
		builder:    NewContextBuilder(chunks),
		cfg:        cfg,
	}
}

// Retrieve runs the pipeline for one query. An empty reference list is a
// valid outcome, not an error; each run writes one search-log row.
func (r *Retriever) Retrieve(ctx context.Context, req RetrieveRequest) (*RetrieveResult, error) {
	logger := contextutil.LoggerFromContext(ctx)
	started := time.Now()

	strategy := req.Options.Strategy
	if strategy == "" {
		strategy = r.cfg.Strategy
	}
	limit := clampInt(req.Options.RetrievalLimit, minRetrievalLimit, maxRetrievalLimit, r.cfg.RetrievalLimit)
	topK := clampInt(req.Options.TopK, minTopK, maxTopK, r.cfg.TopK)
	contextLen := clampInt(req.Options.MaxContextLength, minContextLength, maxContextLength, r.cfg.MaxContextLength)
	neighborSize := r.cfg.NeighborSize
	if req.Options.NeighborSize != nil {
		neighborSize = *req.Options.NeighborSize
	}
	neighborSize = clampNeighborSize(neighborSize)
	rerank := r.cfg.RerankEnabled
	if req.Options.Rerank != nil {
		rerank = *req.Options.Rerank
	}

	trace := req.Trace
	if trace == nil {
		trace = func(string, map[string]any) {}
	}

	trace(EventRetrievalStart, map[string]any{
		"strategy":       strategy,
		"retrievalLimit": limit,
		"rerank":         rerank,
	})

	logger.InfoContext(ctx, "retrieval started",
		"userId", req.UserID,
		"strategy", strategy,
		"retrievalLimit", limit,
		"topK", topK,
		"rerank", rerank,
	)

	// Step 1: embed the query and search the vector store.
	embeddings, err := r.embedder.EmbedTexts(ctx, []string{req.Query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned for query")
	}

	matches, err := r.store.Search(ctx, r.cfg.Collection, embeddings[0], limit, vectorstore.SearchFilter{
		DocumentIDs: req.Options.DocumentFilter,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	// Steps 2-4: hydrate matches, enforce per-user isolation, assemble
	// context and normalize similarity.
	candidates := r.buildCandidates(ctx, req, matches, strategy, neighborSize, contextLen)

	for _, c := range candidates {
		trace(EventRetrievalCandidate, map[string]any{
			"referenceId":     c.ReferenceID,
			"documentId":      c.DocumentID,
			"documentTitle":   c.DocumentTitle,
			"chunkIndex":      c.ChunkIndex,
			"snippet":         c.Snippet,
			"similarityScore": c.SimilarityScore,
		})
	}

	result := &RetrieveResult{CandidateCount: len(candidates)}

	if len(candidates) == 0 {
		trace(EventRetrievalEmpty, map[string]any{"reason": "no candidates"})
		result.LatencyMs = time.Since(started).Milliseconds()
		r.logSearch(ctx, req, result)
		return result, nil
	}

	// Step 5: optional LLM rerank. A failure keeps similarity ordering.
	if rerank {
		reranked, err := r.rerankCandidates(ctx, req, candidates)
		if err != nil {
			logger.WarnContext(ctx, "rerank failed, keeping similarity order", "error", err)
			trace(EventRerankError, map[string]any{"error": err.Error()})
		} else {
			candidates = reranked
			result.RerankApplied = true
			trace(EventRerankCompleted, map[string]any{"count": len(candidates)})
			for _, c := range candidates {
				payload := map[string]any{
					"referenceId":     c.ReferenceID,
					"similarityScore": c.SimilarityScore,
				}
				if c.RerankScore != nil {
					payload["rerankScore"] = *c.RerankScore
				}
				trace(EventRerankResult, payload)
			}
		}
	}

	// Step 6: confidence gate. An uncertain top hit invalidates the whole
	// retrieval rather than returning weak results.
	best, threshold := r.bestScore(candidates, result.RerankApplied)
	result.TopScore = best
	if best < threshold {
		logger.InfoContext(ctx, "retrieval discarded by confidence gate",
			"bestScore", best,
			"threshold", threshold,
			"rerankApplied", result.RerankApplied,
		)
		trace(EventRetrievalDiscarded, map[string]any{
			"bestScore": best,
			"threshold": threshold,
		})
		result.Discarded = true
		result.LatencyMs = time.Since(started).Milliseconds()
		r.logSearch(ctx, req, result)
		return result, nil
	}

	// Step 7: top-K selection with the internal ordinal stripped.
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	result.References = make([]Reference, len(candidates))
	for i, c := range candidates {
		result.References[i] = c.Reference
	}
	result.LatencyMs = time.Since(started).Milliseconds()

	trace(EventRetrievalCompleted, map[string]any{
		"count":     len(result.References),
		"latencyMs": result.LatencyMs,
	})
	logger.InfoContext(ctx, "retrieval completed",
		"references", len(result.References),
		"topScore", result.TopScore,
		"latencyMs", result.LatencyMs,
	)

	r.logSearch(ctx, req, result)
	return result, nil
}

// buildCandidates resolves vector matches to chunk and document rows, drops
// anything the requesting user must not see, and assembles per-candidate
// context. Matches that fail to hydrate are skipped, never fatal.
func (r *Retriever) buildCandidates(ctx context.Context, req RetrieveRequest, matches []vectorstore.SearchResult, strategy string, neighborSize, contextLen int) []candidate {
	logger := contextutil.LoggerFromContext(ctx)

	allowed := make(map[string]bool, len(req.Options.DocumentFilter))
	for _, id := range req.Options.DocumentFilter {
		allowed[id] = true
	}

	candidates := make([]candidate, 0, len(matches))
	for _, match := range matches {
		chunkID := match.PointID
		if id, ok := match.Meta["chunk_id"].(string); ok && id != "" {
			chunkID = id
		}

		chunk, err := r.chunks.GetByID(ctx, chunkID)
		if err != nil {
			logger.WarnContext(ctx, "skipping stale vector match", "chunkId", chunkID, "error", err)
			continue
		}
		doc, err := r.documents.GetByID(ctx, chunk.DocumentID)
		if err != nil {
			logger.WarnContext(ctx, "skipping chunk with missing document", "documentId", chunk.DocumentID, "error", err)
			continue
		}
		// Strict per-user isolation regardless of vector-store hits.
		if doc.UserID != req.UserID {
			continue
		}
		if len(allowed) > 0 && !allowed[doc.ID] {
			continue
		}

		content, err := r.builder.Build(ctx, chunk, doc, strategy, neighborSize)
		if err != nil {
			logger.WarnContext(ctx, "context assembly failed, using raw chunk", "chunkId", chunk.ID, "error", err)
			content = chunk.Content
		}
		content = truncateWithEllipsis(content, contextLen)

		c := candidate{
			Ordinal: fmt.Sprintf("C%d", len(candidates)+1),
			Reference: Reference{
				ReferenceID:     uuid.New().String(),
				DocumentID:      doc.ID,
				DocumentTitle:   doc.Title,
				ChunkID:         chunk.ID,
				ChunkIndex:      chunk.ChunkIndex,
				Snippet:         truncateWithEllipsis(chunk.Content, snippetLength),
				Content:         content,
				Strategy:        strategy,
				SimilarityScore: normalizeDistance(float64(match.Distance)),
				Metadata:        chunk.Metadata,
			},
		}
		candidates = append(candidates, c)
	}
	return candidates
}

const rerankSystemPrompt = `你是一个相关性评分器。根据用户问题，为每条资料给出0到1之间的相关性分数，1表示高度相关。
仅输出严格的JSON数组，格式为 [{"id": "C1", "score": 0.8}, ...]，不要输出任何其他内容。`

// rerankCandidates asks the chat model to score every candidate and returns
// them sorted by rerank score descending, similarity breaking ties.
func (r *Retriever) rerankCandidates(ctx context.Context, req RetrieveRequest, candidates []candidate) ([]candidate, error) {
	var sb strings.Builder
	sb.WriteString("问题：")
	sb.WriteString(req.Query)
	sb.WriteString("\n\n资料：\n")
	for _, c := range candidates {
		sb.WriteString(c.Ordinal)
		sb.WriteString(" 《")
		sb.WriteString(c.DocumentTitle)
		sb.WriteString("》 ")
		sb.WriteString(truncateWithEllipsis(c.Content, rerankExcerptLen))
		sb.WriteString("\n")
	}

	model := req.Options.RerankModel
	if model == "" {
		model = r.cfg.RerankModel
	}

	raw, _, err := r.llmClient.Complete(ctx, []llm.ChatMessage{
		{Role: "system", Content: rerankSystemPrompt},
		{Role: "user", Content: sb.String()},
	}, llm.ChatOptions{Model: model, Temperature: 0})
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}

	scores, err := parseRerankResponse(raw)
	if err != nil {
		return nil, err
	}

	reranked := make([]candidate, len(candidates))
	copy(reranked, candidates)
	for i := range reranked {
		if score, ok := scores[reranked[i].Ordinal]; ok {
			s := score
			reranked[i].RerankScore = &s
		}
	}

	sort.SliceStable(reranked, func(i, j int) bool {
		a, b := reranked[i], reranked[j]
		as, bs := -1.0, -1.0
		if a.RerankScore != nil {
			as = *a.RerankScore
		}
		if b.RerankScore != nil {
			bs = *b.RerankScore
		}
		if as != bs {
			return as > bs
		}
		return a.SimilarityScore > b.SimilarityScore
	})
	return reranked, nil
}

func parseRerankResponse(raw string) (map[string]float64, error) {
	cleaned := stripCodeFences(raw)
	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in rerank response")
	}

	var entries []struct {
		ID    string  `json:"id"`
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &entries); err != nil {
		return nil, fmt.Errorf("failed to parse rerank response: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("rerank response is empty")
	}

	scores := make(map[string]float64, len(entries))
	for _, entry := range entries {
		score := entry.Score
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		scores[strings.TrimSpace(entry.ID)] = score
	}
	return scores, nil
}

// bestScore returns the highest score among candidates and the threshold it
// must clear: rerank score when rerank ran, similarity score otherwise.
func (r *Retriever) bestScore(candidates []candidate, rerankApplied bool) (float64, float64) {
	best := 0.0
	for _, c := range candidates {
		score := c.SimilarityScore
		if rerankApplied && c.RerankScore != nil {
			score = *c.RerankScore
		}
		if score > best {
			best = score
		}
	}
	if rerankApplied {
		return best, r.cfg.RerankThreshold
	}
	return best, r.cfg.SimilarityThreshold
}

// logSearch appends one audit row per retrieval attempt. Audit failures are
// logged and swallowed; they must not fail the user-facing request.
func (r *Retriever) logSearch(ctx context.Context, req RetrieveRequest, result *RetrieveResult) {
	seen := make(map[string]bool)
	var docIDs []string
	for _, ref := range result.References {
		if !seen[ref.DocumentID] {
			seen[ref.DocumentID] = true
			docIDs = append(docIDs, ref.DocumentID)
		}
	}

	entry := &storage.SearchLog{
		ID:          uuid.New().String(),
		UserID:      req.UserID,
		Query:       req.Query,
		ResultCount: len(result.References),
		TopScore:    result.TopScore,
		LatencyMs:   result.LatencyMs,
		DocumentIDs: docIDs,
	}
	if err := r.searchLogs.Insert(ctx, entry); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to write search log", "error", err)
	}
}

// normalizeDistance maps a monotonic distance to a score in (0,1], smaller
// distance meaning a score near 1.
func normalizeDistance(distance float64) float64 {
	if distance < 0 {
		distance = 0
	}
	return 1 / (1 + distance)
}

func clampInt(value, min, max, fallback int) int {
	if value <= 0 {
		value = fallback
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func truncateWithEllipsis(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
