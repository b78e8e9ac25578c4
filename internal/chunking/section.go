package chunking

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// SectionChunker splits on markdown heading boundaries, producing one chunk
// per section (heading plus following content), then merges short adjacent
// sections the same way ParagraphChunker does. Documents without headings fall
// back to the paragraph strategy.
type SectionChunker struct {
	defaults Defaults
	parser   goldmark.Markdown
	fallback *ParagraphChunker
}

// NewSectionChunker creates a section chunker with a paragraph fallback.
func NewSectionChunker(defaults Defaults, fallback *ParagraphChunker) *SectionChunker {
	return &SectionChunker{
		defaults: defaults,
		parser:   goldmark.New(),
		fallback: fallback,
	}
}

// Chunk splits the document into heading-delimited sections. The markdown
// variant is preferred when present since headings survive normalization there.
func (c *SectionChunker) Chunk(content, markdown, plainText string, opts Options) []string {
	source := markdown
	if strings.TrimSpace(source) == "" {
		source = content
	}
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return nil
	}

	offsets := c.headingOffsets([]byte(trimmed))
	if len(offsets) == 0 {
		return c.fallback.Chunk(content, markdown, plainText, opts)
	}

	var sections []string
	if head := strings.TrimSpace(trimmed[:offsets[0]]); head != "" {
		sections = append(sections, head)
	}
	for i, start := range offsets {
		end := len(trimmed)
		if i+1 < len(offsets) {
			end = offsets[i+1]
		}
		if section := strings.TrimSpace(trimmed[start:end]); section != "" {
			sections = append(sections, section)
		}
	}

	minLength := resolve(opts.ParagraphMinLength, c.defaults.ParagraphMinLength, defaultParagraphMinLength)

	var chunks []string
	buffer := ""
	for _, section := range sections {
		if buffer == "" {
			buffer = section
		} else {
			buffer += "\n\n" + section
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
		return c.fallback.Chunk(content, markdown, plainText, opts)
	}
	return chunks
}

// headingOffsets parses the source and returns the byte offset of the line
// start of every ATX heading, in document order.
func (c *SectionChunker) headingOffsets(source []byte) []int {
	doc := c.parser.Parser().Parse(text.NewReader(source))

	var offsets []int
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		lines := heading.Lines()
		if lines.Len() == 0 {
			return ast.WalkContinue, nil
		}
		// The heading segment starts after the "#" markers; back up to the
		// beginning of the line.
		start := lines.At(0).Start
		for start > 0 && source[start-1] != '\n' {
			start--
		}
		offsets = append(offsets, start)
		return ast.WalkSkipChildren, nil
	})
	return offsets
}
