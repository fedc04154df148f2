package llm

import "strings"

// Wire protocols a Params value can be routed to.
const (
	RouteOpenAI    = "openai"
	RouteAnthropic = "anthropic"
	RouteGemini    = "gemini"
	RouteCerebras  = "cerebras"
	RouteOllama    = "ollama"
)

// Override carries per-call selections supplied by the caller. Empty fields
// fall through to the loaded configuration.
type Override struct {
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
	APIKey   string `json:"api_key,omitempty"`
}

// IsZero reports whether the override selects nothing.
func (o *Override) IsZero() bool {
	return o == nil || (strings.TrimSpace(o.Provider) == "" &&
		strings.TrimSpace(o.Model) == "" &&
		strings.TrimSpace(o.APIKey) == "")
}

// Options are the inputs a backend turns into request parameters.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
	APIBase     string
	APIKey      string
}

// Params is the fully resolved request description for one completion call.
// Backends build a fresh value per call; nothing mutates it afterwards.
type Params struct {
	Model       string
	Temperature float64
	MaxTokens   int
	APIBase     string
	APIKey      string
	Headers     map[string]string
	// Backend forces the wire protocol. When empty the protocol is taken
	// from the model prefix, falling back to openai.
	Backend string
}

var knownRoutes = map[string]bool{
	RouteOpenAI:    true,
	RouteAnthropic: true,
	RouteGemini:    true,
	RouteCerebras:  true,
	RouteOllama:    true,
}

// Route returns the wire protocol for p and the model id to put on the wire,
// with any "<route>/" prefix removed.
func (p Params) Route() (route string, model string) {
	model = p.Model
	prefix, rest, hasPrefix := strings.Cut(p.Model, "/")
	if hasPrefix && knownRoutes[prefix] {
		model = rest
		route = prefix
	}
	if p.Backend != "" {
		route = p.Backend
	}
	if route == "" {
		route = RouteOpenAI
	}
	return route, model
}
