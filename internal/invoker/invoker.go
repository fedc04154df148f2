// Package invoker turns a rendered instruction and user message into one
// completion call against the resolved backend.
package invoker

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/siva-netizen/Promptify/internal/apperr"
	"github.com/siva-netizen/Promptify/internal/config"
	"github.com/siva-netizen/Promptify/internal/llm"
	"github.com/siva-netizen/Promptify/internal/llm/dispatch"
	"github.com/siva-netizen/Promptify/internal/logging"
	"github.com/siva-netizen/Promptify/internal/observability"
)

// Completer sends one chat request described by params.
type Completer interface {
	Complete(ctx context.Context, params llm.Params, messages []llm.ChatMessage) (llm.ChatResponse, error)
}

// Key sources reported by Resolve.
const (
	KeyFromOverride = "override"
	KeyFromConfig   = "config"
	KeyFromEnv      = "env"
	KeyNone         = "none"
)

// Resolution is the outcome of merging configuration, override and
// environment for one call.
type Resolution struct {
	Provider  string
	Params    llm.Params
	KeySource string
	// KeyEnv names the variable the key came from when KeySource is KeyFromEnv.
	KeyEnv string
}

// Invoker is safe for concurrent use. It never writes process environment.
type Invoker struct {
	cfg       config.ModelConfig
	registry  *llm.Registry
	completer Completer
	lookupEnv func(string) (string, bool)
	timeout   time.Duration
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// Option customizes an Invoker.
type Option func(*Invoker)

// WithRegistry replaces the default provider registry.
func WithRegistry(r *llm.Registry) Option {
	return func(i *Invoker) { i.registry = r }
}

// WithLookupEnv replaces os.LookupEnv for API key discovery.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(i *Invoker) { i.lookupEnv = fn }
}

// WithTimeout bounds each completion call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(i *Invoker) { i.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(i *Invoker) { i.logger = logging.OrNop(l) }
}

// WithMetrics records per-call metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(i *Invoker) { i.metrics = m }
}

// New builds an Invoker over a snapshot of cfg.
func New(cfg config.ModelConfig, completer Completer, opts ...Option) *Invoker {
	inv := &Invoker{
		cfg:       cfg,
		registry:  llm.DefaultRegistry(),
		completer: completer,
		lookupEnv: os.LookupEnv,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// FromConfig wires an Invoker to a pooled set of wire clients.
func FromConfig(cfg *config.Config, logger *zap.Logger, metrics *observability.Metrics) (*Invoker, error) {
	pool, err := dispatch.NewPool(cfg.LLM.ClientCacheSize, cfg.LLM.Timeout)
	if err != nil {
		return nil, err
	}
	return New(cfg.Model, pool,
		WithTimeout(cfg.LLM.Timeout),
		WithLogger(logger),
		WithMetrics(metrics),
	), nil
}

// Resolve computes request parameters. Each non-empty override field
// replaces the configured one; the rest fall through to configuration.
// The configured key and base URL only apply to the configured provider.
func (i *Invoker) Resolve(override *llm.Override) (Resolution, error) {
	provider := strings.TrimSpace(i.cfg.Provider)
	model := strings.TrimSpace(i.cfg.Model)
	var overrideKey string
	if override != nil {
		if p := strings.TrimSpace(override.Provider); p != "" {
			provider = p
		}
		if m := strings.TrimSpace(override.Model); m != "" {
			model = m
		}
		overrideKey = strings.TrimSpace(override.APIKey)
	}

	backend, err := i.registry.Get(provider)
	if err != nil {
		return Resolution{}, err
	}

	sameProvider := strings.EqualFold(backend.Name(), strings.TrimSpace(i.cfg.Provider))
	res := Resolution{Provider: backend.Name(), KeySource: KeyNone}
	opts := llm.Options{
		Model:       model,
		Temperature: i.cfg.Temperature,
		MaxTokens:   i.cfg.MaxTokens,
	}
	if sameProvider {
		opts.APIBase = i.cfg.APIBase
	}

	switch {
	case overrideKey != "":
		opts.APIKey, res.KeySource = overrideKey, KeyFromOverride
	case sameProvider && i.cfg.APIKey != "":
		opts.APIKey, res.KeySource = i.cfg.APIKey, KeyFromConfig
	default:
		for _, name := range backend.EnvKeys() {
			if v, ok := i.lookupEnv(name); ok && strings.TrimSpace(v) != "" {
				opts.APIKey, res.KeySource, res.KeyEnv = strings.TrimSpace(v), KeyFromEnv, name
				break
			}
		}
	}

	if backend.RequiresKey() && opts.APIKey == "" {
		return Resolution{}, apperr.Configuration(
			fmt.Sprintf("no API key configured for provider %q", backend.Name()),
			missingKeyHint(backend),
		)
	}

	res.Params = backend.Params(opts)
	return res, nil
}

// Invoke sends the system instruction and user content as a two-message
// conversation and returns the first choice's text. Empty text is not an
// error.
func (i *Invoker) Invoke(ctx context.Context, system, user string, override *llm.Override) (string, error) {
	res, err := i.Resolve(override)
	if err != nil {
		return "", err
	}

	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := i.completer.Complete(ctx, res.Params, llm.SystemAndUser(system, user))
	i.metrics.RecordLLMRequest(res.Provider, err == nil, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	if err != nil {
		i.logger.Debug("llm call failed",
			zap.String("provider", res.Provider),
			zap.String("model", res.Params.Model),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		if ctx.Err() != nil {
			return "", apperr.LLM(fmt.Errorf("%w: %v", ctx.Err(), err))
		}
		return "", apperr.LLM(err)
	}

	i.logger.Debug("llm call",
		zap.String("provider", res.Provider),
		zap.String("model", res.Params.Model),
		zap.String("key_source", res.KeySource),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp.Message.Content, nil
}

func missingKeyHint(b llm.Backend) string {
	keys := b.EnvKeys()
	if len(keys) == 0 {
		return "pass an API key with --api-key"
	}
	return fmt.Sprintf("set %s, add model.api_key to your config, or pass --api-key", strings.Join(keys, " or "))
}
