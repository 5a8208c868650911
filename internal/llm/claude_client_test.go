package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stitts-dev/fight-edge/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestClaude(t *testing.T, handler http.HandlerFunc) *ClaudeClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClaudeClient(ClaudeConfig{
		APIKey:           "test-key",
		BaseURL:          server.URL,
		Model:            "claude-test",
		FailureThreshold: 2,
	}, quietLogger())
}

func TestClaudeClient_StructuredRequest(t *testing.T) {
	summary := contract.Summary()
	client := newTestClaude(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req claudeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-test", req.Model)
		assert.Equal(t, 1500, req.MaxTokens)
		require.Len(t, req.Tools, 1)
		assert.Equal(t, "edge_summary", req.Tools[0].Name)
		require.NotNil(t, req.ToolChoice)
		assert.Equal(t, "tool", req.ToolChoice.Type)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1", "model": "claude-test", "stop_reason": "tool_use",
			"content": [{"type": "tool_use", "name": "edge_summary", "input": {"summaries": []}}],
			"usage": {"input_tokens": 120, "output_tokens": 40}
		}`))
	})

	resp, err := client.Complete(context.Background(), CompletionRequest{
		SystemPrompt:    "system",
		Prompt:          "prompt",
		Contract:        &summary,
		MaxOutputTokens: 1500,
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{"summaries": []}`, string(resp.Content))
	assert.Equal(t, 120, resp.InputTokens)
	assert.Equal(t, Usage{Requests: 1, InputTokens: 120, OutputTokens: 40}, client.Usage())
}

func TestClaudeClient_FreeText(t *testing.T) {
	client := newTestClaude(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content": [{"type": "text", "text": "Card "}, {"type": "text", "text": "overview"}], "stop_reason": "end_turn"}`))
	})

	resp, err := client.Complete(context.Background(), CompletionRequest{Prompt: "overview", MaxOutputTokens: 500})
	require.NoError(t, err)
	assert.Equal(t, "Card overview", string(resp.Content))
}

func TestClaudeClient_Errors(t *testing.T) {
	summary := contract.Summary()

	tests := []struct {
		name      string
		status    int
		body      string
		expectErr error
	}{
		{"overloaded", 529, `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`, ErrUnavailable},
		{"rate limited", 429, `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`, ErrUnavailable},
		{"truncated", 200, `{"content":[{"type":"text","text":"{\"summ"}],"stop_reason":"max_tokens"}`, ErrMalformedOutput},
		{"no tool block", 200, `{"content":[],"stop_reason":"end_turn"}`, ErrMalformedOutput},
		{"text fallback without json", 200, `{"content":[{"type":"text","text":"I can't"}],"stop_reason":"end_turn"}`, ErrMalformedOutput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClaude(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Complete(context.Background(), CompletionRequest{Contract: &summary, MaxOutputTokens: 10})
			assert.ErrorIs(t, err, tt.expectErr)
		})
	}
}

func TestClaudeClient_CircuitOpensAfterFailures(t *testing.T) {
	calls := 0
	client := newTestClaude(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	for i := 0; i < 2; i++ {
		_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "p", MaxOutputTokens: 10})
		require.Error(t, err)
	}
	assert.False(t, client.IsHealthy())

	_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "p", MaxOutputTokens: 10})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 2, calls, "open circuit must not reach the server")
}

func TestClaudeClient_CanceledContext(t *testing.T) {
	client := newTestClaude(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not be sent")
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Complete(ctx, CompletionRequest{Prompt: "p", MaxOutputTokens: 10})
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, client.IsHealthy())
}
