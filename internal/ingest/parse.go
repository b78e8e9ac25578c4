package ingest

import (
	"strings"
	"time"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ParseMarkdown normalizes a markdown document: plain text with formatting
// stripped, plus an outline built from the heading structure. Heading anchors
// are slugified titles, deduplication left to the consumer.
func ParseMarkdown(title, source string) *ParsedDocument {
	trimmed := strings.TrimSpace(source)
	parsed := &ParsedDocument{
		Markdown: trimmed,
		Metadata: DocumentMetadata{
			Title:       title,
			Parser:      "markdown",
			ExtractedAt: time.Now().UTC(),
		},
	}
	if trimmed == "" {
		return parsed
	}

	raw := []byte(trimmed)
	root := goldmark.New().Parser().Parse(text.NewReader(raw))

	var plain strings.Builder
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			if plain.Len() > 0 {
				plain.WriteString("\n\n")
			}
			headingTitle := strings.TrimSpace(string(node.Text(raw)))
			if headingTitle != "" {
				parsed.Outline = append(parsed.Outline, OutlineEntry{
					Title:  headingTitle,
					Level:  node.Level,
					Anchor: slugify(headingTitle),
				})
			}
		case *ast.Text:
			plain.Write(node.Segment.Value(raw))
		case *ast.Paragraph, *ast.ListItem, *ast.Blockquote:
			if plain.Len() > 0 {
				plain.WriteString("\n\n")
			}
		}
		return ast.WalkContinue, nil
	})

	parsed.PlainText = strings.TrimSpace(plain.String())
	parsed.Metadata.WordCount = len([]rune(parsed.PlainText))
	return parsed
}

// slugify lowercases and joins a title into an anchor, keeping letters and
// digits of any script.
func slugify(title string) string {
	var sb strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				sb.WriteRune('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(sb.String(), "-")
}
