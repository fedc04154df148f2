package mock

import (
	"context"
	"sync"

	"github.com/siva-netizen/Promptify/internal/llm"
)

// Provider is a test double implementing llm.Provider. It records every
// request it receives.
type Provider struct {
	NameValue string
	ChatFn    func(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error)

	mu    sync.Mutex
	calls []llm.ChatRequest
}

func (p *Provider) Name() string {
	if p.NameValue != "" {
		return p.NameValue
	}
	return "mock"
}

func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	p.mu.Lock()
	p.calls = append(p.calls, req)
	p.mu.Unlock()

	if p.ChatFn != nil {
		return p.ChatFn(ctx, req)
	}
	return llm.ChatResponse{
		Message: llm.ChatMessage{
			Role:    llm.RoleAssistant,
			Content: "mock",
		},
		ProviderName: p.Name(),
		Model:        req.Model,
	}, nil
}

// Calls returns a copy of the recorded requests.
func (p *Provider) Calls() []llm.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]llm.ChatRequest, len(p.calls))
	copy(out, p.calls)
	return out
}

// Reply returns a ChatFn that answers every request with content.
func Reply(content string) func(context.Context, llm.ChatRequest) (llm.ChatResponse, error) {
	return func(_ context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
		return llm.ChatResponse{
			Message: llm.ChatMessage{Role: llm.RoleAssistant, Content: content},
			Model:   req.Model,
		}, nil
	}
}
