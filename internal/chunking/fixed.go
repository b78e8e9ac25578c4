package chunking

import "strings"

// separators in priority order: paragraph, line, CJK and Latin sentence
// punctuation, space. Character-level splitting is the last resort.
var fixedSeparators = []string{"\n\n", "\n", "。", "！", "？", ". ", "! ", "? ", "；", "; ", " "}

// FixedLengthChunker splits text recursively on a priority-ordered separator
// list, targeting chunkSize runes per chunk with chunkOverlap runes of
// repeated context between consecutive chunks.
type FixedLengthChunker struct {
	defaults Defaults
}

// NewFixedLengthChunker creates a fixed-length chunker.
func NewFixedLengthChunker(defaults Defaults) *FixedLengthChunker {
	return &FixedLengthChunker{defaults: defaults}
}

// Chunk splits content into overlapping fixed-size chunks.
func (c *FixedLengthChunker) Chunk(content, markdown, plainText string, opts Options) []string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil
	}

	size := resolve(opts.ChunkSize, c.defaults.ChunkSize, defaultChunkSize)
	overlap := resolve(opts.ChunkOverlap, c.defaults.ChunkOverlap, defaultChunkOverlap)
	if overlap >= size {
		overlap = size / 2
	}

	pieces := recursiveSplit(trimmed, fixedSeparators, size)

	var chunks []string
	for i, piece := range pieces {
		if i > 0 && overlap > 0 {
			piece = tailRunes(pieces[i-1], overlap) + piece
		}
		piece = strings.TrimSpace(piece)
		if piece != "" {
			chunks = append(chunks, piece)
		}
	}

	if len(chunks) == 0 {
		return singleChunk(trimmed)
	}
	return chunks
}

// recursiveSplit splits text into pieces of at most size runes, preferring the
// highest-priority separator present. Pieces are accumulated greedily so
// adjacent short fragments stay together.
func recursiveSplit(text string, separators []string, size int) []string {
	if runeLen(text) <= size {
		return []string{text}
	}
	if len(separators) == 0 {
		return splitByRunes(text, size)
	}

	separator := separators[0]
	rest := separators[1:]

	parts := strings.SplitAfter(text, separator)
	if len(parts) == 1 {
		// Separator absent, try the next one.
		return recursiveSplit(text, rest, size)
	}

	var pieces []string
	current := ""
	for _, part := range parts {
		if part == "" {
			continue
		}
		if runeLen(part) > size {
			// Flush what we have, then break the oversized part further down.
			if current != "" {
				pieces = append(pieces, current)
				current = ""
			}
			pieces = append(pieces, recursiveSplit(part, rest, size)...)
			continue
		}
		if runeLen(current)+runeLen(part) > size && current != "" {
			pieces = append(pieces, current)
			current = ""
		}
		current += part
	}
	if current != "" {
		pieces = append(pieces, current)
	}
	return pieces
}

// splitByRunes hard-splits text into size-rune pieces.
func splitByRunes(text string, size int) []string {
	runes := []rune(text)
	var pieces []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		pieces = append(pieces, string(runes[start:end]))
	}
	return pieces
}

func runeLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}

// tailRunes returns the last n runes of s.
func tailRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
