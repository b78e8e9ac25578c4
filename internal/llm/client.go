package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/sashabaranov/go-openai"
)

// Client is a chat-completion client for any OpenAI-compatible endpoint.
type Client struct {
	api          *openai.Client
	defaultModel string
}

// NewClient creates a new chat client against the given base URL.
func NewClient(baseURL, apiKey, defaultModel string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{
		api:          openai.NewClientWithConfig(cfg),
		defaultModel: defaultModel,
	}
}

// DefaultModel returns the model used when a request names none.
func (c *Client) DefaultModel() string {
	return c.defaultModel
}

func (c *Client) buildRequest(messages []ChatMessage, opts ChatOptions) openai.ChatCompletionRequest {
	model := opts.Model
	if model == "" {
		model = c.defaultModel
	}

	converted := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		converted[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	// go-openai drops a literal 0 temperature (omitempty); send the smallest
	// positive value so zero-temperature requests stay deterministic.
	temperature := float32(opts.Temperature)
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	return openai.ChatCompletionRequest{
		Model:       model,
		Messages:    converted,
		Temperature: temperature,
		MaxTokens:   opts.MaxTokens,
	}
}

// Complete sends a chat completion request and returns the full reply.
func (c *Client) Complete(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, *Usage, error) {
	resp, err := c.api.CreateChatCompletion(ctx, c.buildRequest(messages, opts))
	if err != nil {
		return "", nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil, fmt.Errorf("no choices returned")
	}

	usage := &Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	return resp.Choices[0].Message.Content, usage, nil
}

// CompleteStream sends a streaming chat completion request, invoking onDelta
// for every text delta in arrival order. It returns the concatenated reply and
// the usage stats from the terminal chunk when the provider reports them.
func (c *Client) CompleteStream(ctx context.Context, messages []ChatMessage, opts ChatOptions, onDelta func(delta string) error) (string, *Usage, error) {
	req := c.buildRequest(messages, opts)
	req.Stream = true
	req.StreamOptions = &openai.StreamOptions{IncludeUsage: true}

	stream, err := c.api.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", nil, fmt.Errorf("chat completion stream failed: %w", err)
	}
	defer stream.Close()

	var content string
	var usage *Usage
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("failed to read stream: %w", err)
		}

		if chunk.Usage != nil {
			usage = &Usage{
				PromptTokens:     chunk.Usage.PromptTokens,
				CompletionTokens: chunk.Usage.CompletionTokens,
				TotalTokens:      chunk.Usage.TotalTokens,
			}
		}

		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		content += delta
		if err := onDelta(delta); err != nil {
			return "", nil, fmt.Errorf("callback error: %w", err)
		}
	}

	return content, usage, nil
}
