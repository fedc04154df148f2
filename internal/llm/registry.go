package llm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/siva-netizen/Promptify/internal/apperr"
)

// Registry maps provider names to backends. It is filled once at start-up
// and only read afterwards.
type Registry struct {
	backends map[string]Backend
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

// DefaultRegistry returns the registry with every built-in backend.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(Cerebras{})
	r.Register(OpenAI{})
	r.Register(Anthropic{})
	r.Register(Gemini{})
	r.Register(Local{})
	r.Register(Ollama{})
	return r
}

// Register adds a backend under its own name.
func (r *Registry) Register(b Backend) {
	r.backends[b.Name()] = b
}

// Get returns the backend registered as name.
func (r *Registry) Get(name string) (Backend, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	b, ok := r.backends[key]
	if !ok {
		known := strings.Join(r.Names(), ", ")
		return nil, apperr.Configuration(
			fmt.Sprintf("unknown provider: %q. Available: %s", name, known),
			"set model.provider to one of: "+known,
		)
	}
	return b, nil
}

// Names returns registered provider names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
