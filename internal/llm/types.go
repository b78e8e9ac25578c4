package llm

// ChatMessage represents a single message in a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatOptions control a single completion request. A zero Model falls back to
// the client default; MaxTokens 0 means no explicit limit.
type ChatOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Usage holds cumulative token-usage stats reported by the provider. Streaming
// responses carry it on the terminal chunk only, so it may be absent.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}
