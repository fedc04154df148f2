package ollama

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

// Provider talks to a local Ollama server through its native /api/chat
// endpoint. No key is sent.
type Provider struct {
	name    string
	client  *http.Client
	baseURL string
}

// NewProvider constructs an Ollama provider.
func NewProvider(name, baseURL string, timeout time.Duration) *Provider {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:11434"
	}
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &Provider{
		name:    name,
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
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
		Model:    model,
		Messages: toMessages(req.Messages),
		Options: chatOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return llm.ChatResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return llm.ChatResponse{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

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

	return llm.ChatResponse{
		Message: llm.ChatMessage{
			Role:    llm.RoleAssistant,
			Content: resp.Message.Content,
		},
		FinishReason: resp.DoneReason,
		Usage: llm.Usage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		},
		ProviderName: p.name,
		Model:        model,
	}, nil
}

// chatRequest always disables streaming; the pipeline needs whole replies.
type chatRequest struct {
	Model    string      `json:"model"`
	Messages []message   `json:"messages"`
	Stream   bool        `json:"stream"`
	Options  chatOptions `json:"options"`
}

// chatOptions maps onto Ollama's model parameters. num_predict is omitted to
// keep the model's own limit.
type chatOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message         message `json:"message"`
	DoneReason      string  `json:"done_reason"`
	PromptEvalCount int     `json:"prompt_eval_count"`
	EvalCount       int     `json:"eval_count"`
}

func toMessages(msgs []llm.ChatMessage) []message {
	out := make([]message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, message{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return out
}
