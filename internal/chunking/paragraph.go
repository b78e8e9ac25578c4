package chunking

import (
	"regexp"
	"strings"
)

var blankLinePattern = regexp.MustCompile(`\n[ \t]*\n+`)

// ParagraphChunker splits on blank-line boundaries and greedily merges
// consecutive paragraphs until the running buffer reaches paragraphMinLength.
type ParagraphChunker struct {
	defaults Defaults
}

// NewParagraphChunker creates a paragraph chunker.
func NewParagraphChunker(defaults Defaults) *ParagraphChunker {
	return &ParagraphChunker{defaults: defaults}
}

// Chunk splits content into merged-paragraph chunks. Input without blank-line
// boundaries is treated as a single paragraph.
func (c *ParagraphChunker) Chunk(content, markdown, plainText string, opts Options) []string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil
	}

	minLength := resolve(opts.ParagraphMinLength, c.defaults.ParagraphMinLength, defaultParagraphMinLength)

	paragraphs := blankLinePattern.Split(trimmed, -1)
	var chunks []string
	buffer := ""
	for _, paragraph := range paragraphs {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		if buffer == "" {
			buffer = paragraph
		} else {
			buffer += "\n\n" + paragraph
		}
		if runeLen(buffer) >= minLength {
			chunks = append(chunks, buffer)
			buffer = ""
		}
	}
	if buffer != "" {
		chunks = append(chunks, buffer)
	}

	if len(chunks) == 0 {
		return singleChunk(trimmed)
	}
	return chunks
}
