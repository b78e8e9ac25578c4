package chunking

import "strings"

// SlidingWindowChunker walks the trimmed content in fixed-size windows
// advancing by a smaller step, producing overlapping windows. A final window
// anchored at the content's tail is always appended so the end of the document
// is never truncated.
type SlidingWindowChunker struct {
	defaults Defaults
}

// NewSlidingWindowChunker creates a sliding-window chunker.
func NewSlidingWindowChunker(defaults Defaults) *SlidingWindowChunker {
	return &SlidingWindowChunker{defaults: defaults}
}

// Chunk produces overlapping windows over the trimmed content.
func (c *SlidingWindowChunker) Chunk(content, markdown, plainText string, opts Options) []string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil
	}

	// The window size defaults to the general chunk size when not set.
	size := resolve(opts.SlidingWindowSize, c.defaults.SlidingWindowSize,
		resolve(opts.ChunkSize, c.defaults.ChunkSize, defaultChunkSize))
	step := resolve(opts.SlidingWindowStep, c.defaults.SlidingWindowStep, defaultSlidingWindowStep)
	if step > size {
		step = size
	}

	runes := []rune(trimmed)
	if len(runes) <= size {
		return []string{trimmed}
	}

	var chunks []string
	for start := 0; start+size < len(runes); start += step {
		window := strings.TrimSpace(string(runes[start : start+size]))
		if window != "" {
			chunks = append(chunks, window)
		}
	}

	// Tail window anchored at the end, deduplicated when the walk already
	// produced it.
	tail := strings.TrimSpace(string(runes[len(runes)-size:]))
	if tail != "" && (len(chunks) == 0 || chunks[len(chunks)-1] != tail) {
		chunks = append(chunks, tail)
	}

	if len(chunks) == 0 {
		return singleChunk(trimmed)
	}
	return chunks
}
