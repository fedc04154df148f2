package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/siva-netizen/Promptify/internal/apperr"
)

const (
	DefaultProvider    = "cerebras"
	DefaultModel       = "cerebras/llama3.1-8b"
	DefaultTemperature = 0.7

	envPrefix = "PROMPTIFY"
	dirName   = ".promptify"
)

// Config describes the application configuration loaded from YAML and ENV.
type Config struct {
	Model   ModelConfig   `mapstructure:"model"`
	Verbose bool          `mapstructure:"verbose"`
	Logging LoggingConfig `mapstructure:"logging"`
	Server  ServerConfig  `mapstructure:"server"`
	LLM     LLMConfig     `mapstructure:"llm"`

	path string
	// file holds the defaults+file layer without environment overrides;
	// loaded is the merged view as Load returned it. fromEnv marks keys a
	// PROMPTIFY_* variable supplied.
	file    *Config
	loaded  *Config
	fromEnv map[string]bool
}

// ModelConfig selects the backend and its request parameters.
type ModelConfig struct {
	Provider    string  `mapstructure:"provider"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"` // 0 leaves the backend default
	APIBase     string  `mapstructure:"api_base"`
	APIKey      string  `mapstructure:"api_key"`
}

// LoggingConfig controls logger behaviour.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console or json
}

// ServerConfig describes daemon settings.
type ServerConfig struct {
	Addr           string `mapstructure:"addr"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
	Transport      string `mapstructure:"transport"` // connect or ndjson
}

// LLMConfig tunes the outbound client pool.
type LLMConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	ClientCacheSize int           `mapstructure:"client_cache_size"`
}

// Default returns the built-in configuration.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// SearchPaths lists the files Load tries, in order, when no path is given.
func SearchPaths() []string {
	paths := []string{"config.yml", "config.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, dirName, "config.yml"),
			filepath.Join(home, dirName, "config.yaml"),
		)
	}
	return paths
}

// DefaultPath is where Save writes when nothing was loaded from disk.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(dirName, "config.yaml")
	}
	return filepath.Join(home, dirName, "config.yaml")
}

// LoadDotEnv loads a .env file from the working directory, if present.
// Variables already set in the process take precedence.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// Load reads configuration from path, or from the first file in SearchPaths
// when path is empty. Only one file is read. A missing file yields defaults.
// Environment variables override file values (prefix: PROMPTIFY_, dots
// replaced with underscores).
func Load(path string) (*Config, error) {
	found := path
	if found == "" {
		found = findConfig()
	}

	v, err := newViper(found, true)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperr.Configurationf(err, "unmarshal config %s", found)
	}

	fv, err := newViper(found, false)
	if err != nil {
		return nil, err
	}
	var file Config
	if err := fv.Unmarshal(&file); err != nil {
		return nil, apperr.Configurationf(err, "unmarshal config %s", found)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	loaded := cfg
	cfg.path = found
	cfg.file = &file
	cfg.loaded = &loaded
	cfg.fromEnv = envOverrides(v.AllKeys())
	return &cfg, nil
}

// newViper reads the file at path (if any) over the defaults. withEnv adds
// the PROMPTIFY_ environment layer.
func newViper(path string, withEnv bool) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")

	if withEnv {
		v.SetEnvPrefix(envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, apperr.Configurationf(err, "read config %s", path)
			}
		}
	}
	return v, nil
}

// envOverrides reports which keys a non-empty environment variable set.
func envOverrides(keys []string) map[string]bool {
	out := make(map[string]bool)
	for _, key := range keys {
		if val, ok := os.LookupEnv(envName(key)); ok && val != "" {
			out[key] = true
		}
	}
	return out
}

func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func findConfig() string {
	for _, p := range SearchPaths() {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// setDefaults populates sensible defaults for optional fields.
func setDefaults(v *viper.Viper) {
	v.SetDefault("model.provider", DefaultProvider)
	v.SetDefault("model.model", DefaultModel)
	v.SetDefault("model.temperature", DefaultTemperature)
	v.SetDefault("model.max_tokens", 0)
	v.SetDefault("model.api_base", "")
	v.SetDefault("model.api_key", "")
	v.SetDefault("verbose", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.metrics_enabled", true)
	v.SetDefault("server.transport", "connect")

	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.client_cache_size", 32)
}

// Path returns the file the configuration was loaded from, or "" when it
// came from defaults alone.
func (c *Config) Path() string {
	return c.path
}

// Save writes the configuration to the file it was loaded from, or to
// DefaultPath when it was not loaded from disk.
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		path = DefaultPath()
	}
	if err := c.SaveTo(path); err != nil {
		return err
	}
	c.path = path
	return nil
}

// SaveTo writes the configuration as YAML to path, creating parent
// directories. Values supplied by PROMPTIFY_* variables are not written;
// the file keeps its own.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	out := c.document()
	data, err := yaml.Marshal(out)
	if err != nil {
		return apperr.Configurationf(err, "encode config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperr.FileOperation("create config directory", "check permissions on "+filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return apperr.FileOperation("write config "+path, "check permissions on "+path, err)
	}
	return nil
}

type document struct {
	Model struct {
		Provider    string  `yaml:"provider"`
		Model       string  `yaml:"model"`
		Temperature float64 `yaml:"temperature"`
		MaxTokens   int     `yaml:"max_tokens,omitempty"`
		APIBase     string  `yaml:"api_base,omitempty"`
		APIKey      string  `yaml:"api_key,omitempty"`
	} `yaml:"model"`
	Verbose bool `yaml:"verbose"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
	Server struct {
		Addr           string `yaml:"addr"`
		MetricsEnabled bool   `yaml:"metrics_enabled"`
		Transport      string `yaml:"transport"`
	} `yaml:"server"`
	LLM struct {
		Timeout         string `yaml:"timeout"`
		ClientCacheSize int    `yaml:"client_cache_size"`
	} `yaml:"llm"`
}

// document builds what Save writes. A value that came from the environment
// and was not changed since Load is replaced by the file's own value.
func (c *Config) document() document {
	l, f := c.loaded, c.file
	if l == nil || f == nil {
		l, f = c, c
	}

	var d document
	d.Model.Provider = persisted(c, "model.provider", c.Model.Provider, l.Model.Provider, f.Model.Provider)
	d.Model.Model = persisted(c, "model.model", c.Model.Model, l.Model.Model, f.Model.Model)
	d.Model.Temperature = persisted(c, "model.temperature", c.Model.Temperature, l.Model.Temperature, f.Model.Temperature)
	d.Model.MaxTokens = persisted(c, "model.max_tokens", c.Model.MaxTokens, l.Model.MaxTokens, f.Model.MaxTokens)
	d.Model.APIBase = persisted(c, "model.api_base", c.Model.APIBase, l.Model.APIBase, f.Model.APIBase)
	d.Model.APIKey = persisted(c, "model.api_key", c.Model.APIKey, l.Model.APIKey, f.Model.APIKey)
	d.Verbose = persisted(c, "verbose", c.Verbose, l.Verbose, f.Verbose)
	d.Logging.Level = persisted(c, "logging.level", c.Logging.Level, l.Logging.Level, f.Logging.Level)
	d.Logging.Format = persisted(c, "logging.format", c.Logging.Format, l.Logging.Format, f.Logging.Format)
	d.Server.Addr = persisted(c, "server.addr", c.Server.Addr, l.Server.Addr, f.Server.Addr)
	d.Server.MetricsEnabled = persisted(c, "server.metrics_enabled", c.Server.MetricsEnabled, l.Server.MetricsEnabled, f.Server.MetricsEnabled)
	d.Server.Transport = persisted(c, "server.transport", c.Server.Transport, l.Server.Transport, f.Server.Transport)
	d.LLM.Timeout = persisted(c, "llm.timeout", c.LLM.Timeout, l.LLM.Timeout, f.LLM.Timeout).String()
	d.LLM.ClientCacheSize = persisted(c, "llm.client_cache_size", c.LLM.ClientCacheSize, l.LLM.ClientCacheSize, f.LLM.ClientCacheSize)
	return d
}

func persisted[T comparable](c *Config, key string, cur, loaded, file T) T {
	if c.fromEnv[key] && cur == loaded {
		return file
	}
	return cur
}

// Validate performs basic sanity checks on configuration values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Model.Provider) == "" {
		return apperr.Configuration("model.provider must be set", "run: pfy config --provider cerebras")
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 1 {
		return apperr.Configuration(
			fmt.Sprintf("model.temperature must be within [0,1], got %g", c.Model.Temperature),
			"run: pfy config --temp 0.7",
		)
	}
	if c.Model.MaxTokens < 0 {
		return apperr.Configuration("model.max_tokens cannot be negative", "")
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return apperr.Configuration(fmt.Sprintf("logging.format must be console or json, got %q", c.Logging.Format), "")
	}

	switch strings.ToLower(strings.TrimSpace(c.Server.Transport)) {
	case "", "connect", "ndjson":
	default:
		return apperr.Configuration(fmt.Sprintf("server.transport must be one of connect or ndjson, got %q", c.Server.Transport), "")
	}

	if c.LLM.Timeout < 0 {
		return apperr.Configuration("llm.timeout must be >= 0", "")
	}
	if c.LLM.ClientCacheSize < 0 {
		return apperr.Configuration("llm.client_cache_size must be >= 0", "")
	}

	return nil
}
