package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
)

const defaultOllamaHost = "http://localhost:11434"

// OllamaClient talks to a local or remote Ollama server.
type OllamaClient struct {
	client *ollama.Client
	model  string
}

// NewOllamaClient creates a client for host. An empty host uses the local default.
func NewOllamaClient(host, model string, timeout time.Duration) (*OllamaClient, error) {
	if host == "" {
		host = defaultOllamaHost
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}
	httpClient := &http.Client{Timeout: timeout}
	return &OllamaClient{client: ollama.NewClient(u, httpClient), model: model}, nil
}

func (o *OllamaClient) Model() string {
	return o.model
}

func (o *OllamaClient) Complete(ctx context.Context, messages []Message) (string, error) {
	stream := false
	req := &ollama.ChatRequest{
		Model:    o.model,
		Messages: make([]ollama.Message, 0, len(messages)),
		Stream:   &stream,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, ollama.Message{Role: string(m.Role), Content: m.Content})
	}

	var text strings.Builder
	err := o.client.Chat(ctx, req, func(resp ollama.ChatResponse) error {
		text.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", serviceError("ollama", o.model, err)
	}
	return text.String(), nil
}

var _ Client = (*OllamaClient)(nil)
