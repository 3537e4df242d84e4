package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Options selects and configures a completion provider.
type Options struct {
	Provider  string
	Model     string
	APIKey    string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

// NewClient builds the client for opts.Provider.
func NewClient(ctx context.Context, opts Options) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "", "openai":
		return NewOpenAIClient(opts.APIKey, opts.BaseURL, opts.Model, opts.MaxTokens), nil
	case "anthropic", "claude":
		return NewAnthropicClient(opts.APIKey, opts.BaseURL, opts.Model, opts.MaxTokens), nil
	case "gemini", "google":
		c, err := NewGeminiClient(ctx, opts.APIKey, opts.Model)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "ollama":
		c, err := NewOllamaClient(opts.BaseURL, opts.Model, opts.Timeout)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "mock":
		return NewMockClient(opts.Model, ""), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", opts.Provider)
	}
}
