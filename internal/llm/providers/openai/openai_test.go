package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/siva-netizen/Promptify/internal/llm"
)

func TestChatSendsRequestAndParsesResponse(t *testing.T) {
	t.Parallel()

	p := NewProvider("openai", "http://mock", "key", nil, 5*time.Second)
	p.client = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			require.Equal(t, "/v1/chat/completions", r.URL.Path)
			require.Equal(t, "Bearer key", r.Header.Get("Authorization"))

			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)

			var reqBody struct {
				Model       string    `json:"model"`
				Temperature float64   `json:"temperature"`
				Messages    []message `json:"messages"`
			}
			require.NoError(t, json.Unmarshal(body, &reqBody))
			require.Equal(t, "gpt-4o-mini", reqBody.Model)
			require.Equal(t, 0.7, reqBody.Temperature)
			require.Len(t, reqBody.Messages, 2)
			require.Equal(t, "system", reqBody.Messages[0].Role)
			require.Equal(t, "user", reqBody.Messages[1].Role)

			return jsonResponse(http.StatusOK, `{
				"choices": [{
					"index": 0,
					"finish_reason": "stop",
					"message": {"role": "assistant", "content": "hello"}
				}],
				"usage": {"prompt_tokens": 1, "completion_tokens": 2, "total_tokens": 3}
			}`), nil
		}),
	}

	resp, err := p.Chat(context.Background(), llm.ChatRequest{
		Model:       "gpt-4o-mini",
		Messages:    llm.SystemAndUser("be brief", "hi"),
		Temperature: 0.7,
	})
	require.NoError(t, err)
	require.Equal(t, "hello", resp.Message.Content)
	require.Equal(t, "stop", resp.FinishReason)
	require.Equal(t, 3, resp.Usage.TotalTokens)
	require.Equal(t, "openai", resp.ProviderName)
}

func TestChatUsesVersionedBaseAndExtraHeaders(t *testing.T) {
	t.Parallel()

	headers := map[string]string{"X-Cerebras-3rd-Party-Integration": "promptify"}
	p := NewProvider("cerebras", "https://api.cerebras.ai/v1/", "key", headers, 0)
	p.client = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			require.Equal(t, "api.cerebras.ai", r.URL.Host)
			require.Equal(t, "/v1/chat/completions", r.URL.Path)
			require.Equal(t, "promptify", r.Header.Get("X-Cerebras-3rd-Party-Integration"))
			return jsonResponse(http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`), nil
		}),
	}

	resp, err := p.Chat(context.Background(), llm.ChatRequest{Model: "llama3.1-8b", Messages: llm.SystemAndUser("s", "u")})
	require.NoError(t, err)
	require.Equal(t, "ok", resp.Message.Content)
}

func TestChatEmptyChoicesYieldsEmptyContent(t *testing.T) {
	t.Parallel()

	p := NewProvider("openai", "http://mock", "", nil, 0)
	p.client = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			require.Empty(t, r.Header.Get("Authorization"))
			return jsonResponse(http.StatusOK, `{"choices":[]}`), nil
		}),
	}

	resp, err := p.Chat(context.Background(), llm.ChatRequest{Model: "m", Messages: llm.SystemAndUser("s", "u")})
	require.NoError(t, err)
	require.Empty(t, resp.Message.Content)
}

func TestChatStatusErrorCarriesBody(t *testing.T) {
	t.Parallel()

	p := NewProvider("openai", "http://mock", "bad", nil, 0)
	p.client = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusUnauthorized, `{"error":"invalid api key"}`), nil
		}),
	}

	_, err := p.Chat(context.Background(), llm.ChatRequest{Model: "m", Messages: llm.SystemAndUser("s", "u")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 401")
	require.Contains(t, err.Error(), "invalid api key")
}

func TestChatRequiresModel(t *testing.T) {
	t.Parallel()

	p := NewProvider("openai", "", "", nil, 0)
	_, err := p.Chat(context.Background(), llm.ChatRequest{})
	require.Error(t, err)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

type roundTripFunc func(r *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
