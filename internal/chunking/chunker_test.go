package chunking

import (
	"strings"
	"testing"
)

var testDefaults = Defaults{
	ChunkSize:          800,
	ChunkOverlap:       160,
	ParagraphMinLength: 200,
	SlidingWindowStep:  200,
}

// allChunkers returns every built-in strategy for property-style tests.
func allChunkers() map[string]Chunker {
	paragraph := NewParagraphChunker(testDefaults)
	return map[string]Chunker{
		StrategyFixedLength:   NewFixedLengthChunker(testDefaults),
		StrategyParagraph:     paragraph,
		StrategySection:       NewSectionChunker(testDefaults, paragraph),
		StrategySlidingWindow: NewSlidingWindowChunker(testDefaults),
	}
}

func repeatSentence(sentence string, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString(sentence)
	}
	return b.String()
}

func TestChunkers_NonEmptyForNonEmptyInput(t *testing.T) {
	inputs := []string{
		"短文本",
		"A single short sentence.",
		"差评申诉需在七天内提交证据。平台将在三个工作日内审核。\n\n逾期未申诉的差评不可撤销。",
		repeatSentence("商家应当在活动开始前完成报名。", 200),
	}

	for name, chunker := range allChunkers() {
		for _, input := range inputs {
			chunks := chunker.Chunk(input, "", "", Options{})
			if len(chunks) == 0 {
				t.Errorf("%s: no chunks for input of length %d", name, len(input))
			}
			for i, chunk := range chunks {
				if strings.TrimSpace(chunk) == "" {
					t.Errorf("%s: chunk %d is blank", name, i)
				}
				if chunk != strings.TrimSpace(chunk) {
					t.Errorf("%s: chunk %d not trimmed: %q", name, i, chunk)
				}
			}
		}
	}
}

func TestChunkers_EmptyInput(t *testing.T) {
	for name, chunker := range allChunkers() {
		if chunks := chunker.Chunk("   \n\t ", "", "", Options{}); len(chunks) != 0 {
			t.Errorf("%s: got %d chunks for blank input", name, len(chunks))
		}
	}
}

func TestChunkers_Deterministic(t *testing.T) {
	input := repeatSentence("评价管理规则第三条：恶意差评可以申诉。", 100)
	for name, chunker := range allChunkers() {
		first := chunker.Chunk(input, "", "", Options{})
		second := chunker.Chunk(input, "", "", Options{})
		if len(first) != len(second) {
			t.Fatalf("%s: chunk counts differ between runs: %d vs %d", name, len(first), len(second))
		}
		for i := range first {
			if first[i] != second[i] {
				t.Errorf("%s: chunk %d differs between runs", name, i)
			}
		}
	}
}

// Every distinct sentence of the input must survive into at least one chunk:
// overlap repeats content but never drops it.
func TestChunkers_TotalCoverage(t *testing.T) {
	var b strings.Builder
	b.WriteString("# 申诉流程\n\n")
	markers := make([]string, 0, 80)
	for i := 0; i < 80; i++ {
		marker := "规则条款" + string(rune('A'+i%26)) + string(rune('0'+i/26)) + "的完整说明。"
		markers = append(markers, marker)
		b.WriteString(marker)
		if i%10 == 9 {
			b.WriteString("\n\n")
		}
	}
	input := b.String()

	for name, chunker := range allChunkers() {
		chunks := chunker.Chunk(input, "", "", Options{})
		joined := strings.Join(chunks, "\n")
		for _, marker := range markers {
			if !strings.Contains(joined, marker) {
				t.Errorf("%s: marker %q lost during chunking", name, marker)
				break
			}
		}
	}
}

func TestFixedLengthChunker_SizeAndOverlap(t *testing.T) {
	chunker := NewFixedLengthChunker(testDefaults)
	input := repeatSentence("商家应当遵守平台评价管理规则。", 200)

	chunks := chunker.Chunk(input, "", "", Options{ChunkSize: 300, ChunkOverlap: 60})
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		// size + overlap is the ceiling once the overlap prefix is prepended.
		if n := runeLen(chunk); n > 300+60 {
			t.Errorf("chunk %d has %d runes, exceeds size+overlap", i, n)
		}
	}
	// Consecutive chunks share the overlap region.
	prevTail := tailRunes(strings.TrimSpace(chunks[0]), 20)
	if !strings.Contains(chunks[1], prevTail) {
		t.Errorf("chunk 1 does not repeat the tail of chunk 0")
	}
}

func TestFixedLengthChunker_IgnoresNonPositiveOverrides(t *testing.T) {
	chunker := NewFixedLengthChunker(testDefaults)
	input := repeatSentence("规则内容。", 500)

	withDefaults := chunker.Chunk(input, "", "", Options{})
	withBadOverrides := chunker.Chunk(input, "", "", Options{ChunkSize: -100})
	if len(withDefaults) != len(withBadOverrides) {
		t.Errorf("negative override changed output: %d vs %d chunks", len(withDefaults), len(withBadOverrides))
	}
}

func TestParagraphChunker_MergesUntilMinLength(t *testing.T) {
	chunker := NewParagraphChunker(testDefaults)
	input := "第一段。\n\n第二段。\n\n第三段。\n\n" + repeatSentence("足够长的段落内容。", 30)

	chunks := chunker.Chunk(input, "", "", Options{ParagraphMinLength: 50})
	if len(chunks) == 0 {
		t.Fatal("no chunks produced")
	}
	// Short leading paragraphs are merged together rather than emitted alone.
	if runeLen(chunks[0]) < 12 {
		t.Errorf("first chunk too short, paragraphs were not merged: %q", chunks[0])
	}
	if !strings.Contains(chunks[0], "第一段") || !strings.Contains(chunks[0], "第二段") {
		t.Errorf("first chunk missing merged paragraphs: %q", chunks[0])
	}
}

func TestParagraphChunker_NoBlankLines(t *testing.T) {
	chunker := NewParagraphChunker(testDefaults)
	input := "单独一行，没有空行分隔。"
	chunks := chunker.Chunk(input, "", "", Options{})
	if len(chunks) != 1 || chunks[0] != input {
		t.Errorf("Chunk() = %v, want whole input as one chunk", chunks)
	}
}

func TestSectionChunker_SplitsOnHeadings(t *testing.T) {
	paragraph := NewParagraphChunker(testDefaults)
	chunker := NewSectionChunker(testDefaults, paragraph)

	markdown := "# 评价管理\n\n" + repeatSentence("差评可以申诉。", 30) +
		"\n\n## 申诉时限\n\n" + repeatSentence("七天内提交。", 30) +
		"\n\n## 审核流程\n\n" + repeatSentence("三个工作日。", 30)

	chunks := chunker.Chunk(markdown, markdown, "", Options{ParagraphMinLength: 50})
	if len(chunks) < 2 {
		t.Fatalf("expected multiple section chunks, got %d", len(chunks))
	}
	if !strings.HasPrefix(chunks[0], "# 评价管理") {
		t.Errorf("first chunk does not start at the first heading: %q", chunks[0][:20])
	}
	found := false
	for _, chunk := range chunks {
		if strings.Contains(chunk, "## 审核流程") {
			found = true
		}
	}
	if !found {
		t.Error("no chunk contains the last section heading")
	}
}

func TestSectionChunker_FallsBackWithoutHeadings(t *testing.T) {
	paragraph := NewParagraphChunker(testDefaults)
	chunker := NewSectionChunker(testDefaults, paragraph)

	input := "没有标题的文本。\n\n另一段内容。"
	sectionChunks := chunker.Chunk(input, "", "", Options{ParagraphMinLength: 5})
	paragraphChunks := paragraph.Chunk(input, "", "", Options{ParagraphMinLength: 5})

	if len(sectionChunks) != len(paragraphChunks) {
		t.Fatalf("fallback mismatch: section %d chunks, paragraph %d chunks", len(sectionChunks), len(paragraphChunks))
	}
	for i := range sectionChunks {
		if sectionChunks[i] != paragraphChunks[i] {
			t.Errorf("fallback chunk %d differs from paragraph output", i)
		}
	}
}

func TestSlidingWindowChunker_TailNeverTruncated(t *testing.T) {
	chunker := NewSlidingWindowChunker(testDefaults)
	input := strings.TrimSpace(repeatSentence("滑动窗口测试句子。", 150))

	chunks := chunker.Chunk(input, "", "", Options{SlidingWindowSize: 300, SlidingWindowStep: 120})
	if len(chunks) < 2 {
		t.Fatalf("expected multiple windows, got %d", len(chunks))
	}

	runes := []rune(input)
	wantTail := strings.TrimSpace(string(runes[len(runes)-300:]))
	last := chunks[len(chunks)-1]
	if last != wantTail {
		t.Errorf("last window is not anchored at the input tail")
	}

	// No exact-duplicate tail window.
	if len(chunks) >= 2 && chunks[len(chunks)-2] == last {
		t.Error("duplicate tail window not removed")
	}
}

func TestSlidingWindowChunker_ShortInput(t *testing.T) {
	chunker := NewSlidingWindowChunker(testDefaults)
	input := "短内容"
	chunks := chunker.Chunk(input, "", "", Options{SlidingWindowSize: 300})
	if len(chunks) != 1 || chunks[0] != input {
		t.Errorf("Chunk() = %v, want single whole-input chunk", chunks)
	}
}

func TestRegistry_Resolution(t *testing.T) {
	registry := NewRegistry(testDefaults, StrategyParagraph)

	tests := []struct {
		name    string
		key     string
		wantKey string
	}{
		{"exact match", StrategySection, StrategySection},
		{"case insensitive", "Sliding_Window", StrategySlidingWindow},
		{"unknown falls back to default", "semantic", StrategyParagraph},
		{"empty falls back to default", "", StrategyParagraph},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunker, resolved := registry.Resolve(tt.key)
			if chunker == nil {
				t.Fatal("Resolve() returned nil chunker")
			}
			if resolved != tt.wantKey {
				t.Errorf("Resolve(%q) key = %q, want %q", tt.key, resolved, tt.wantKey)
			}
		})
	}
}

func TestRegistry_UnknownDefaultKey(t *testing.T) {
	registry := NewRegistry(testDefaults, "does_not_exist")
	if registry.DefaultKey() != StrategyFixedLength {
		t.Errorf("DefaultKey() = %q, want fixed_length", registry.DefaultKey())
	}
	chunker, resolved := registry.Resolve("also_unknown")
	if chunker == nil {
		t.Error("Resolve() returned nil for unknown key")
	}
	if resolved != StrategyFixedLength {
		t.Errorf("Resolve() key = %q, want fixed_length", resolved)
	}
}

func TestRegistry_Has(t *testing.T) {
	registry := NewRegistry(testDefaults, "")
	if !registry.Has("FIXED_LENGTH") {
		t.Error("Has() is not case-insensitive")
	}
	if registry.Has("semantic") {
		t.Error("Has() reported an unregistered strategy")
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens(""); got != 0 {
		t.Errorf("EstimateTokens(empty) = %d, want 0", got)
	}
	if got := EstimateTokens("差评如何申诉？"); got < 1 {
		t.Errorf("EstimateTokens() = %d, want >= 1", got)
	}
	long := repeatSentence("token estimation input. ", 50)
	if short, lng := EstimateTokens("short"), EstimateTokens(long); lng <= short {
		t.Errorf("longer input should estimate more tokens: %d <= %d", lng, short)
	}
}
