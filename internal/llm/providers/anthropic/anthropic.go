package anthropic

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

const (
	defaultBaseURL   = "https://api.anthropic.com"
	apiVersion       = "2023-06-01"
	defaultMaxTokens = 4096
)

// Provider implements the Anthropic Messages API.
type Provider struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewProvider constructs an Anthropic provider.
func NewProvider(baseURL, apiKey string, timeout time.Duration) *Provider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Provider{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

func (p *Provider) Name() string { return "anthropic" }

// Chat sends one Messages request. System messages are lifted into the
// top-level system field.
func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	if p.apiKey == "" {
		return llm.ChatResponse{}, fmt.Errorf("anthropic: api key not configured")
	}
	if req.Model == "" {
		return llm.ChatResponse{}, fmt.Errorf("model is required")
	}

	body := messagesRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if body.MaxTokens <= 0 {
		body.MaxTokens = defaultMaxTokens
	}
	var system []string
	for _, m := range req.Messages {
		if m.Role == llm.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		body.Messages = append(body.Messages, message{Role: string(m.Role), Content: m.Content})
	}
	body.System = strings.Join(system, "\n\n")

	payload, err := json.Marshal(body)
	if err != nil {
		return llm.ChatResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return llm.ChatResponse{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	res, err := p.client.Do(httpReq)
	if err != nil {
		return llm.ChatResponse{}, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return llm.ChatResponse{}, fmt.Errorf("anthropic: status %d: %s", res.StatusCode, llm.ReadErrorBody(res.Body))
	}

	var resp messagesResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return llm.ChatResponse{}, fmt.Errorf("decode response: %w", err)
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	model := resp.Model
	if model == "" {
		model = req.Model
	}
	return llm.ChatResponse{
		Message: llm.ChatMessage{Role: llm.RoleAssistant, Content: content.String()},
		Usage: llm.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
		FinishReason: resp.StopReason,
		ProviderName: p.Name(),
		Model:        model,
	}, nil
}

func (p *Provider) endpoint() string {
	if strings.HasSuffix(p.baseURL, "/v1") {
		return p.baseURL + "/messages"
	}
	return p.baseURL + "/v1/messages"
}

type messagesRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	System      string    `json:"system,omitempty"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Content    []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}
