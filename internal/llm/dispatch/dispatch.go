package dispatch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/siva-netizen/Promptify/internal/llm"
	"github.com/siva-netizen/Promptify/internal/llm/providers/anthropic"
	"github.com/siva-netizen/Promptify/internal/llm/providers/gemini"
	"github.com/siva-netizen/Promptify/internal/llm/providers/ollama"
	"github.com/siva-netizen/Promptify/internal/llm/providers/openai"
)

const defaultCacheSize = 32

// Factory builds a wire client for one route.
type Factory func(ctx context.Context, route string, params llm.Params, timeout time.Duration) (llm.Provider, error)

// Pool routes completion calls to wire clients. Clients are keyed by route,
// base URL, key and headers, and kept in a bounded LRU.
type Pool struct {
	cache   *lru.Cache[string, llm.Provider]
	timeout time.Duration
	factory Factory
}

// Option customizes a Pool.
type Option func(*Pool)

// WithFactory replaces the client constructor.
func WithFactory(f Factory) Option {
	return func(p *Pool) { p.factory = f }
}

// NewPool creates a pool holding at most size clients.
func NewPool(size int, timeout time.Duration, opts ...Option) (*Pool, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, llm.Provider](size)
	if err != nil {
		return nil, fmt.Errorf("client cache: %w", err)
	}
	p := &Pool{cache: cache, timeout: timeout, factory: NewClient}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Complete sends messages using the client params route to.
func (p *Pool) Complete(ctx context.Context, params llm.Params, messages []llm.ChatMessage) (llm.ChatResponse, error) {
	route, model := params.Route()
	client, err := p.client(ctx, route, params)
	if err != nil {
		return llm.ChatResponse{}, err
	}
	return client.Chat(ctx, llm.ChatRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
	})
}

// Len reports how many clients are cached.
func (p *Pool) Len() int {
	return p.cache.Len()
}

func (p *Pool) client(ctx context.Context, route string, params llm.Params) (llm.Provider, error) {
	key := cacheKey(route, params)
	if c, ok := p.cache.Get(key); ok {
		return c, nil
	}
	c, err := p.factory(ctx, route, params, p.timeout)
	if err != nil {
		return nil, err
	}
	p.cache.Add(key, c)
	return c, nil
}

// NewClient is the default Factory.
func NewClient(ctx context.Context, route string, params llm.Params, timeout time.Duration) (llm.Provider, error) {
	switch route {
	case llm.RouteOpenAI, llm.RouteCerebras:
		return openai.NewProvider(route, params.APIBase, params.APIKey, params.Headers, timeout), nil
	case llm.RouteAnthropic:
		return anthropic.NewProvider(params.APIBase, params.APIKey, timeout), nil
	case llm.RouteGemini:
		return gemini.NewProvider(ctx, params.APIKey, params.APIBase, nil)
	case llm.RouteOllama:
		return ollama.NewProvider(route, params.APIBase, timeout), nil
	default:
		return nil, fmt.Errorf("no client for route %q", route)
	}
}

func cacheKey(route string, params llm.Params) string {
	h := sha256.New()
	h.Write([]byte(params.APIKey))
	keys := make([]string, 0, len(params.Headers))
	for k := range params.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var hdr strings.Builder
	for _, k := range keys {
		hdr.WriteString(k + "=" + params.Headers[k] + ";")
	}
	return strings.Join([]string{route, params.APIBase, hex.EncodeToString(h.Sum(nil))[:16], hdr.String()}, "|")
}
