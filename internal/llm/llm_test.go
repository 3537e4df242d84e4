package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newOpenAIServer(t *testing.T, status int, body string, got *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if got != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIClient_CompletePreservesOrder(t *testing.T) {
	var got chatRequest
	srv := newOpenAIServer(t, http.StatusOK, `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"created": 1,
		"model": "gpt-3.5-turbo",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "the answer"}, "finish_reason": "stop"}]
	}`, &got)

	c := NewOpenAIClient("test-key", srv.URL+"/v1", "gpt-3.5-turbo", 0)
	reply, err := c.Complete(context.Background(), UserMessages("PDF file", "what is it?", "what is it?"))
	require.NoError(t, err)
	assert.Equal(t, "the answer", reply)

	assert.Equal(t, "gpt-3.5-turbo", got.Model)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "PDF file", got.Messages[0].Content)
	assert.Equal(t, "what is it?", got.Messages[1].Content)
	for _, m := range got.Messages {
		assert.Equal(t, "user", m.Role)
	}
}

func TestOpenAIClient_ServiceError(t *testing.T) {
	srv := newOpenAIServer(t, http.StatusInternalServerError,
		`{"error": {"message": "upstream exploded", "type": "server_error"}}`, nil)

	c := NewOpenAIClient("test-key", srv.URL+"/v1", "gpt-3.5-turbo", 0)
	_, err := c.Complete(context.Background(), UserMessages("hi"))
	require.Error(t, err)

	var se *ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "openai", se.Provider)
	assert.Equal(t, "gpt-3.5-turbo", se.Model)
	assert.Contains(t, err.Error(), "upstream exploded")
}

func TestOpenAIClient_NoChoices(t *testing.T) {
	srv := newOpenAIServer(t, http.StatusOK, `{"id": "x", "choices": []}`, nil)

	c := NewOpenAIClient("test-key", srv.URL+"/v1", "gpt-4o-mini", 0)
	_, err := c.Complete(context.Background(), UserMessages("hi"))
	var se *ServiceError
	assert.ErrorAs(t, err, &se)
}

func TestOllamaClient_Complete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/x-ndjson")
		_, _ = w.Write([]byte(`{"model":"llama3","created_at":"2024-01-01T00:00:00Z","message":{"role":"assistant","content":"local reply"},"done":true}` + "\n"))
	}))
	defer srv.Close()

	c, err := NewOllamaClient(srv.URL, "llama3", 5*time.Second)
	require.NoError(t, err)

	reply, err := c.Complete(context.Background(), UserMessages("a", "b"))
	require.NoError(t, err)
	assert.Equal(t, "local reply", reply)
	assert.Equal(t, "llama3", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "b", got.Messages[1].Content)
}

func TestOllamaClient_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"missing\" not found"}`))
	}))
	defer srv.Close()

	c, err := NewOllamaClient(srv.URL, "missing", 5*time.Second)
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), UserMessages("a"))
	var se *ServiceError
	assert.ErrorAs(t, err, &se)
}

func TestMockClient(t *testing.T) {
	c := NewMockClient("", "")
	reply, err := c.Complete(context.Background(), UserMessages("first", "Answer users query:\n\nhello world\n\n:"))
	require.NoError(t, err)
	assert.Equal(t, "Mock response: hello world", reply)
	assert.Equal(t, "mock", c.Model())

	reply, err = c.Complete(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Mock response: <empty prompt>", reply)
}

func TestNewClient(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		opts     Options
		wantType Client
		wantErr  bool
	}{
		{name: "default is openai", opts: Options{Model: "gpt-3.5-turbo"}, wantType: &OpenAIClient{}},
		{name: "anthropic", opts: Options{Provider: "anthropic", Model: "claude-3-5-haiku-latest"}, wantType: &AnthropicClient{}},
		{name: "claude alias", opts: Options{Provider: "Claude", Model: "claude-3-5-haiku-latest"}, wantType: &AnthropicClient{}},
		{name: "ollama", opts: Options{Provider: "ollama", Model: "llama3"}, wantType: &OllamaClient{}},
		{name: "mock", opts: Options{Provider: "mock"}, wantType: &MockClient{}},
		{name: "gemini without key", opts: Options{Provider: "gemini", Model: "gemini-1.5-flash"}, wantErr: true},
		{name: "unknown", opts: Options{Provider: "carrier-pigeon"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(ctx, tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, c)
		})
	}
}

func TestServiceError_Unwrap(t *testing.T) {
	inner := context.DeadlineExceeded
	err := serviceError("openai", "gpt-3.5-turbo", inner)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "openai completion with gpt-3.5-turbo failed")
}
