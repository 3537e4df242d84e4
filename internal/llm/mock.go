package llm

import (
	"context"
	"fmt"
	"strings"
)

// MockClient answers without any network call. It is meant for local
// development without provider credentials.
type MockClient struct {
	Prefix string
	model  string
}

// NewMockClient creates an offline client.
func NewMockClient(model, prefix string) *MockClient {
	if strings.TrimSpace(prefix) == "" {
		prefix = "Mock response:"
	}
	if model == "" {
		model = "mock"
	}
	return &MockClient{Prefix: prefix, model: model}
}

func (m *MockClient) Model() string {
	return m.model
}

// Complete echoes the last non-empty line of the final message.
func (m *MockClient) Complete(_ context.Context, messages []Message) (string, error) {
	last := "<empty prompt>"
	if len(messages) > 0 {
		lines := strings.Split(messages[len(messages)-1].Content, "\n")
		for i := len(lines) - 1; i >= 0; i-- {
			candidate := strings.TrimSpace(lines[i])
			if candidate != "" && candidate != ":" {
				last = candidate
				break
			}
		}
	}
	return fmt.Sprintf("%s %s", m.Prefix, last), nil
}

var _ Client = (*MockClient)(nil)
