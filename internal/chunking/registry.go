package chunking

import "strings"

// Registry maps strategy keys to chunker implementations. Resolution never
// fails: unknown keys fall back to the configured default key, then to the
// fixed-length strategy, so ingestion is never blocked by an unsupported
// strategy name.
type Registry struct {
	chunkers   map[string]Chunker
	defaultKey string
}

// NewRegistry creates a registry pre-populated with the four built-in
// strategies, all sharing the given defaults. defaultKey selects the strategy
// used when a request names none; an unknown defaultKey silently resolves to
// fixed-length.
func NewRegistry(defaults Defaults, defaultKey string) *Registry {
	r := &Registry{
		chunkers:   make(map[string]Chunker),
		defaultKey: strings.ToLower(strings.TrimSpace(defaultKey)),
	}
	paragraph := NewParagraphChunker(defaults)
	r.Register(StrategyFixedLength, NewFixedLengthChunker(defaults))
	r.Register(StrategyParagraph, paragraph)
	r.Register(StrategySection, NewSectionChunker(defaults, paragraph))
	r.Register(StrategySlidingWindow, NewSlidingWindowChunker(defaults))
	if r.defaultKey == "" || !r.Has(r.defaultKey) {
		r.defaultKey = StrategyFixedLength
	}
	return r
}

// Register adds or replaces a chunker under the given key (case-insensitive).
func (r *Registry) Register(key string, chunker Chunker) {
	r.chunkers[strings.ToLower(strings.TrimSpace(key))] = chunker
}

// Resolve returns the chunker together with the key it actually resolved to,
// so callers can record the effective strategy in chunk metadata.
func (r *Registry) Resolve(key string) (Chunker, string) {
	normalized := strings.ToLower(strings.TrimSpace(key))
	if c, ok := r.chunkers[normalized]; ok {
		return c, normalized
	}
	if c, ok := r.chunkers[r.defaultKey]; ok {
		return c, r.defaultKey
	}
	return r.chunkers[StrategyFixedLength], StrategyFixedLength
}

// Has reports whether a chunker is registered under the key.
func (r *Registry) Has(key string) bool {
	_, ok := r.chunkers[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// DefaultKey returns the key used when none is requested.
func (r *Registry) DefaultKey() string {
	return r.defaultKey
}
