package config

import (
	"sort"
	"strings"

	"github.com/siva-netizen/Promptify/internal/apperr"
)

// Preset is a named provider/model pair.
type Preset struct {
	Provider string
	Model    string
}

var presets = map[string]Preset{
	"default":      {Provider: "cerebras", Model: "cerebras/llama3.1-8b"},
	"cerebras-8b":  {Provider: "cerebras", Model: "cerebras/llama3.1-8b"},
	"cerebras-70b": {Provider: "cerebras", Model: "cerebras/llama-3.3-70b"},
	"gpt-4o":       {Provider: "openai", Model: "gpt-4o"},
	"gpt-3.5":      {Provider: "openai", Model: "gpt-3.5-turbo"},
	"claude":       {Provider: "anthropic", Model: "claude-3-5-sonnet-20241022"},
}

// PresetNames returns the known preset names, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupPreset returns the preset registered as name.
func LookupPreset(name string) (Preset, bool) {
	p, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// ApplyPreset sets the provider and model from the named preset.
func (c *Config) ApplyPreset(name string) error {
	p, ok := LookupPreset(name)
	if !ok {
		known := strings.Join(PresetNames(), ", ")
		return apperr.Configuration("unknown preset: "+name, "use one of: "+known)
	}
	c.Model.Provider = p.Provider
	c.Model.Model = p.Model
	return nil
}
