package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rag-file-chatbot/backend/internal/llm"
)

// FakeClient is a scripted llm.Client that records every request.
type FakeClient struct {
	ModelName string
	// Reply computes the answer; nil answers "reply <n>" for the n-th call.
	Reply func(call int, messages []llm.Message) (string, error)

	mu    sync.Mutex
	calls [][]llm.Message
}

// NewFakeClient creates a client that answers "reply 1", "reply 2", ...
func NewFakeClient(model string) *FakeClient {
	return &FakeClient{ModelName: model}
}

// NewFailingClient creates a client whose every call fails with a ServiceError.
func NewFailingClient(model string) *FakeClient {
	return &FakeClient{
		ModelName: model,
		Reply: func(int, []llm.Message) (string, error) {
			return "", &llm.ServiceError{Provider: "fake", Model: model, Err: errors.New("service unavailable")}
		},
	}
}

func (f *FakeClient) Model() string { return f.ModelName }

func (f *FakeClient) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	f.mu.Lock()
	cp := make([]llm.Message, len(messages))
	copy(cp, messages)
	f.calls = append(f.calls, cp)
	n := len(f.calls)
	reply := f.Reply
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", &llm.ServiceError{Provider: "fake", Model: f.ModelName, Err: err}
	}
	if reply != nil {
		return reply(n, cp)
	}
	return fmt.Sprintf("reply %d", n), nil
}

// Calls returns every recorded request.
func (f *FakeClient) Calls() [][]llm.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]llm.Message, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns the number of requests made.
func (f *FakeClient) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// LastCall returns the most recent request, or nil.
func (f *FakeClient) LastCall() []llm.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

var _ llm.Client = (*FakeClient)(nil)

// FakeOCR returns fixed lines for every image.
type FakeOCR struct {
	Lines []string
	Err   error
}

func (f *FakeOCR) ReadText(context.Context, []byte, string) ([]string, error) {
	return f.Lines, f.Err
}
