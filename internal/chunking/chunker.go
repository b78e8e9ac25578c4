// Package chunking splits normalized document text into ordered chunks for
// embedding. Strategies are interchangeable behind the Chunker interface and
// resolved by name through the Registry.
package chunking

import "strings"

// Strategy keys understood by the registry.
const (
	StrategyFixedLength   = "fixed_length"
	StrategyParagraph     = "paragraph"
	StrategySection       = "section"
	StrategySlidingWindow = "sliding_window"
)

// Options carries per-call overrides for chunker parameters. Zero or negative
// values mean "unset" and fall back to the configured defaults, then to the
// hardcoded defaults.
type Options struct {
	ChunkSize          int
	ChunkOverlap       int
	ParagraphMinLength int
	SlidingWindowSize  int
	SlidingWindowStep  int
}

// Defaults holds environment-configured parameter defaults, resolved between a
// caller override and the hardcoded fallback.
type Defaults struct {
	ChunkSize          int
	ChunkOverlap       int
	ParagraphMinLength int
	SlidingWindowSize  int
	SlidingWindowStep  int
}

// Hardcoded parameter fallbacks.
const (
	defaultChunkSize          = 800
	defaultChunkOverlap       = 160
	defaultParagraphMinLength = 200
	defaultSlidingWindowStep  = 200
)

// Chunker converts document text into an ordered list of non-empty trimmed
// chunk strings. markdown and plainText are optional normalized variants of
// content produced by the parser; strategies that cannot use them ignore them.
// Chunkers never return an empty list for non-empty input: when no boundary
// heuristic fires they degrade to the whole trimmed input as a single chunk.
type Chunker interface {
	Chunk(content, markdown, plainText string, opts Options) []string
}

// resolve picks the first positive value among override, configured and fallback.
func resolve(override, configured, fallback int) int {
	if override > 0 {
		return override
	}
	if configured > 0 {
		return configured
	}
	return fallback
}

// singleChunk is the degenerate output shared by all strategies: the whole
// trimmed input, or nothing when the input is blank.
func singleChunk(content string) []string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil
	}
	return []string{trimmed}
}
