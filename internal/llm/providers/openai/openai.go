package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/siva-netizen/Promptify/internal/llm"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Provider implements an OpenAI-compatible chat provider. It also serves
// Cerebras and local servers, which speak the same protocol.
type Provider struct {
	name    string
	client  *http.Client
	baseURL string
	apiKey  string
	headers map[string]string
}

// NewProvider constructs a Provider with sane defaults. headers are added to
// every request.
func NewProvider(name, baseURL, apiKey string, headers map[string]string, timeout time.Duration) *Provider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &Provider{
		name:    name,
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		headers: headers,
	}
}

// Name returns provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// Chat executes a non-streaming chat completion.
func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	model := req.Model
	if model == "" {
		return llm.ChatResponse{}, fmt.Errorf("model is required")
	}

	body := chatRequest{
		Model:       model,
		Messages:    toMessages(req.Messages),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return llm.ChatResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return llm.ChatResponse{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	for k, v := range p.headers {
		httpReq.Header.Set(k, v)
	}

	res, err := p.client.Do(httpReq)
	if err != nil {
		return llm.ChatResponse{}, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return llm.ChatResponse{}, fmt.Errorf("%s: status %d: %s", p.name, res.StatusCode, llm.ReadErrorBody(res.Body))
	}

	var resp chatResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return llm.ChatResponse{}, fmt.Errorf("decode response: %w", err)
	}

	out := llm.ChatResponse{
		Message: llm.ChatMessage{Role: llm.RoleAssistant},
		Usage: llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		ProviderName: p.name,
		Model:        model,
	}
	// No choices means no content; the caller treats that as an empty reply.
	if len(resp.Choices) > 0 {
		out.Message.Content = resp.Choices[0].Message.Content
		out.FinishReason = resp.Choices[0].FinishReason
	}
	return out, nil
}

func (p *Provider) endpoint() string {
	if strings.HasSuffix(p.baseURL, "/v1") {
		return p.baseURL + "/chat/completions"
	}
	return p.baseURL + "/v1/chat/completions"
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Index        int     `json:"index"`
		FinishReason string  `json:"finish_reason"`
		Message      message `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func toMessages(msgs []llm.ChatMessage) []message {
	out := make([]message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, message{
			Role:    string(m.Role),
			Content: m.Content,
			Name:    m.Name,
		})
	}
	return out
}
