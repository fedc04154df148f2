package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/siva-netizen/Promptify/internal/llm"
)

func TestChatLiftsSystemPromptAndJoinsTextBlocks(t *testing.T) {
	t.Parallel()

	p := NewProvider("http://mock", "sk-ant", 0)
	p.client = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			require.Equal(t, "/v1/messages", r.URL.Path)
			require.Equal(t, "sk-ant", r.Header.Get("x-api-key"))
			require.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

			var body messagesRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, "you are a critic", body.System)
			require.Len(t, body.Messages, 1)
			require.Equal(t, "user", body.Messages[0].Role)
			require.Equal(t, defaultMaxTokens, body.MaxTokens)

			return &http.Response{
				StatusCode: http.StatusOK,
				Header:     make(http.Header),
				Body: io.NopCloser(strings.NewReader(`{
					"model": "claude-3-5-sonnet-20241022",
					"stop_reason": "end_turn",
					"content": [{"type":"text","text":"Hello, "},{"type":"tool_use"},{"type":"text","text":"world"}],
					"usage": {"input_tokens": 10, "output_tokens": 5}
				}`)),
			}, nil
		}),
	}

	resp, err := p.Chat(context.Background(), llm.ChatRequest{
		Model:    "claude-3-5-sonnet-20241022",
		Messages: llm.SystemAndUser("you are a critic", "review this"),
	})
	require.NoError(t, err)
	require.Equal(t, "Hello, world", resp.Message.Content)
	require.Equal(t, "end_turn", resp.FinishReason)
	require.Equal(t, 15, resp.Usage.TotalTokens)
}

func TestChatRequiresKey(t *testing.T) {
	t.Parallel()

	_, err := NewProvider("", "", 0).Chat(context.Background(), llm.ChatRequest{Model: "m"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "api key")
}

func TestChatStatusError(t *testing.T) {
	t.Parallel()

	p := NewProvider("http://mock/v1", "k", 0)
	p.client = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			require.Equal(t, "/v1/messages", r.URL.Path)
			return &http.Response{
				StatusCode: http.StatusTooManyRequests,
				Header:     make(http.Header),
				Body:       io.NopCloser(strings.NewReader(`{"type":"error","error":{"type":"rate_limit_error"}}`)),
			}, nil
		}),
	}

	_, err := p.Chat(context.Background(), llm.ChatRequest{Model: "m", Messages: llm.SystemAndUser("s", "u")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}

type roundTripFunc func(r *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
