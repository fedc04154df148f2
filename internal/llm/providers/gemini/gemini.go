package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	genai "google.golang.org/genai"

	"github.com/siva-netizen/Promptify/internal/llm"
)

// Provider wraps the official genai client for the Gemini API.
type Provider struct {
	cli *genai.Client
}

// NewProvider builds a Gemini client. baseURL and httpClient are optional.
func NewProvider(ctx context.Context, apiKey, baseURL string, httpClient *http.Client) (*Provider, error) {
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	cli, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Provider{cli: cli}, nil
}

func (p *Provider) Name() string { return "gemini" }

// Chat runs GenerateContent. System messages become the system instruction;
// the rest are sent as user turns in order.
func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	if req.Model == "" {
		return llm.ChatResponse{}, fmt.Errorf("model is required")
	}

	temp := float32(req.Temperature)
	cfg := &genai.GenerateContentConfig{Temperature: &temp}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	var system []string
	var contents []*genai.Content
	for _, m := range req.Messages {
		switch m.Role {
		case llm.RoleSystem:
			system = append(system, m.Content)
		case llm.RoleAssistant:
			contents = append(contents, &genai.Content{Role: string(genai.RoleModel), Parts: []*genai.Part{{Text: m.Content}}})
		default:
			contents = append(contents, &genai.Content{Role: string(genai.RoleUser), Parts: []*genai.Part{{Text: m.Content}}})
		}
	}
	if len(system) > 0 {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: strings.Join(system, "\n\n")}}}
	}

	resp, err := p.cli.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return llm.ChatResponse{}, fmt.Errorf("gemini: %w", err)
	}

	out := llm.ChatResponse{
		Message:      llm.ChatMessage{Role: llm.RoleAssistant},
		ProviderName: p.Name(),
		Model:        req.Model,
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		var text strings.Builder
		for _, part := range resp.Candidates[0].Content.Parts {
			text.WriteString(part.Text)
		}
		out.Message.Content = text.String()
		out.FinishReason = string(resp.Candidates[0].FinishReason)
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = llm.Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return out, nil
}
