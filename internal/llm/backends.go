package llm

import "strings"

const (
	DefaultTemperature = 0.7

	cerebrasBaseURL = "https://api.cerebras.ai/v1"
	localBaseURL    = "http://localhost:8000/v1"
	ollamaBaseURL   = "http://127.0.0.1:11434"

	// localPlaceholderKey is sent to OpenAI-compatible servers that ignore auth.
	localPlaceholderKey = "not-needed"
)

// Backend produces request parameters honoring one provider's wire conventions.
type Backend interface {
	Name() string
	DefaultModel() string
	// EnvKeys lists environment variables that may hold the API key, in lookup order.
	EnvKeys() []string
	RequiresKey() bool
	Params(opts Options) Params
}

// Cerebras is the default hosted backend.
type Cerebras struct{}

func (Cerebras) Name() string         { return "cerebras" }
func (Cerebras) DefaultModel() string { return "cerebras/llama3.1-8b" }
func (Cerebras) EnvKeys() []string    { return []string{"CEREBRAS_API_KEY"} }
func (Cerebras) RequiresKey() bool    { return true }

func (c Cerebras) Params(opts Options) Params {
	return Params{
		Model:       firstNonEmpty(opts.Model, c.DefaultModel()),
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		APIBase:     firstNonEmpty(opts.APIBase, cerebrasBaseURL),
		APIKey:      opts.APIKey,
		Headers:     map[string]string{"X-Cerebras-3rd-Party-Integration": "promptify"},
		Backend:     RouteCerebras,
	}
}

// OpenAI targets api.openai.com unless a base URL is configured.
type OpenAI struct{}

func (OpenAI) Name() string         { return "openai" }
func (OpenAI) DefaultModel() string { return "gpt-3.5-turbo" }
func (OpenAI) EnvKeys() []string    { return []string{"OPENAI_API_KEY"} }
func (OpenAI) RequiresKey() bool    { return true }

func (o OpenAI) Params(opts Options) Params {
	return Params{
		Model:       firstNonEmpty(opts.Model, o.DefaultModel()),
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		APIBase:     opts.APIBase,
		APIKey:      opts.APIKey,
		Backend:     RouteOpenAI,
	}
}

// Anthropic targets the Messages API.
type Anthropic struct{}

func (Anthropic) Name() string         { return "anthropic" }
func (Anthropic) DefaultModel() string { return "claude-3-5-sonnet-20241022" }
func (Anthropic) EnvKeys() []string    { return []string{"ANTHROPIC_API_KEY"} }
func (Anthropic) RequiresKey() bool    { return true }

func (a Anthropic) Params(opts Options) Params {
	return Params{
		Model:       firstNonEmpty(opts.Model, a.DefaultModel()),
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		APIBase:     opts.APIBase,
		APIKey:      opts.APIKey,
		Backend:     RouteAnthropic,
	}
}

// Gemini model ids carry a "gemini/" prefix; bare ids are prefixed here.
type Gemini struct{}

func (Gemini) Name() string         { return "gemini" }
func (Gemini) DefaultModel() string { return "gemini/gemini-1.5-flash" }
func (Gemini) EnvKeys() []string    { return []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} }
func (Gemini) RequiresKey() bool    { return true }

func (g Gemini) Params(opts Options) Params {
	return Params{
		Model:       ensurePrefix(firstNonEmpty(opts.Model, g.DefaultModel()), RouteGemini),
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		APIBase:     opts.APIBase,
		APIKey:      opts.APIKey,
	}
}

// Local is any OpenAI-compatible server (LM Studio, vLLM, llama.cpp).
type Local struct{}

func (Local) Name() string         { return "local" }
func (Local) DefaultModel() string { return "local-model" }
func (Local) EnvKeys() []string    { return []string{"LOCAL_API_KEY"} }
func (Local) RequiresKey() bool    { return false }

func (l Local) Params(opts Options) Params {
	return Params{
		Model:       RouteOpenAI + "/" + firstNonEmpty(opts.Model, l.DefaultModel()),
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		APIBase:     firstNonEmpty(opts.APIBase, localBaseURL),
		APIKey:      firstNonEmpty(opts.APIKey, localPlaceholderKey),
	}
}

// Ollama speaks the native /api/chat protocol.
type Ollama struct{}

func (Ollama) Name() string         { return "ollama" }
func (Ollama) DefaultModel() string { return "llama3" }
func (Ollama) EnvKeys() []string    { return nil }
func (Ollama) RequiresKey() bool    { return false }

func (o Ollama) Params(opts Options) Params {
	return Params{
		Model:       firstNonEmpty(opts.Model, o.DefaultModel()),
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		APIBase:     firstNonEmpty(opts.APIBase, ollamaBaseURL),
		Backend:     RouteOllama,
	}
}

func ensurePrefix(model, route string) string {
	if strings.HasPrefix(model, route+"/") {
		return model
	}
	return route + "/" + model
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
