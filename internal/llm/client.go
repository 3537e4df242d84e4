// Package llm provides chat completion clients for the hosted model
// providers the service can talk to.
package llm

import (
	"context"
	"fmt"
)

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a completion request.
type Message struct {
	Role    Role
	Content string
}

// UserMessages wraps each text as a user message, preserving order.
func UserMessages(texts ...string) []Message {
	out := make([]Message, len(texts))
	for i, t := range texts {
		out[i] = Message{Role: RoleUser, Content: t}
	}
	return out
}

// Client sends an ordered message list to a model and returns its reply.
type Client interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	Model() string
}

// ServiceError reports a failed call to a remote model provider.
type ServiceError struct {
	Provider string
	Model    string
	Err      error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s completion with %s failed: %v", e.Provider, e.Model, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func serviceError(provider, model string, err error) error {
	return &ServiceError{Provider: provider, Model: model, Err: err}
}
