package chunking

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

// EstimateTokens returns an estimated token count for the text using the
// cl100k_base encoding. When the encoding cannot be loaded (offline first
// run), it falls back to a runes/4 estimate.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}

	encodingOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
		if err == nil {
			encoding = enc
		}
	})

	if encoding != nil {
		return len(encoding.Encode(text, nil, nil))
	}
	estimate := utf8.RuneCountInString(text) / 4
	if estimate == 0 {
		estimate = 1
	}
	return estimate
}
