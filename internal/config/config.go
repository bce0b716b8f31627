// Package config loads and manages olive configuration.
// Configuration source priority (highest to lowest):
// 1. Environment variables (GEMINI_API_KEY, OPENAI_API_KEY, OLIVE_CLASSIFIER_PROVIDER, etc.),
// including those from .env and .env.local in the working directory
// 2. Config file path specified via --config flag
// 3. ~/.config/olive/config.yaml
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/oliveapp/olive/internal/contextmgr"
	"github.com/oliveapp/olive/internal/intent"
	"github.com/oliveapp/olive/internal/pipeline"
	"github.com/oliveapp/olive/internal/provider"
	"github.com/oliveapp/olive/internal/router"
	"github.com/oliveapp/olive/internal/store"
)

//go:embed providers_default.yaml
var defaultProvidersYAML []byte

// ProviderDefaults holds the default base URL and model for a provider.
type ProviderDefaults struct {
	BaseURL      string `yaml:"base_url"`
	DefaultModel string `yaml:"default_model"`
}

// LoadProviderDefaults parses the embedded defaults.
func LoadProviderDefaults() map[string]ProviderDefaults {
	defs := make(map[string]ProviderDefaults)
	_ = yaml.Unmarshal(defaultProvidersYAML, &defs)
	return defs
}

// ProviderConfig holds configuration for a single provider.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// ClassifierConfig selects and tunes the classification backend.
type ClassifierConfig struct {
	// Provider: "gemini" (default) | "openai" | "anthropic" | any configured
	// OpenAI-compatible name | "none" to always use the keyword fallback.
	Provider        string  `yaml:"provider"`
	Model           string  `yaml:"model"`
	Temperature     float64 `yaml:"temperature"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
	TimeoutSec      int     `yaml:"timeout_sec"`
}

// RoutingConfig maps tiers to models and overrides pricing.
type RoutingConfig struct {
	Tiers   router.Table                   `yaml:"tiers"`
	Pricing map[string]router.ModelPricing `yaml:"pricing"`
}

// PipelineConfig tunes the calling layer.
type PipelineConfig struct {
	AutoExecuteConfidence float64 `yaml:"auto_execute_confidence"`
}

type DatabaseConfig struct {
	// Path to the sqlite file. Empty uses ~/.local/share/olive/olive.db.
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Config is the complete configuration structure for olive.
type Config struct {
	Classifier ClassifierConfig           `yaml:"classifier"`
	Providers  map[string]*ProviderConfig `yaml:"providers"`
	Routing    RoutingConfig              `yaml:"routing"`
	Context    contextmgr.Limits          `yaml:"context"`
	Pipeline   PipelineConfig             `yaml:"pipeline"`
	Database   DatabaseConfig             `yaml:"database"`
	Log        LogConfig                  `yaml:"log"`

	// SystemPrompt replaces the default assistant system prompt.
	SystemPrompt string `yaml:"system_prompt"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	opts := intent.DefaultOptions()
	return &Config{
		Classifier: ClassifierConfig{
			Provider:        "gemini",
			Temperature:     opts.Temperature,
			MaxOutputTokens: opts.MaxOutputTokens,
			TimeoutSec:      int(opts.Timeout / time.Second),
		},
		Providers: make(map[string]*ProviderConfig),
		Routing:   RoutingConfig{Tiers: router.DefaultTable()},
		Context:   contextmgr.DefaultLimits(),
		Pipeline:  PipelineConfig{AutoExecuteConfidence: pipeline.DefaultAutoExecute},
		Log:       LogConfig{Level: "info", Format: "text"},
	}
}

// DefaultPath returns ~/.config/olive/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "olive", "config.yaml")
}

// Load reads the config file and merges environment variable overrides.
// ${VAR} references in the file are expanded from the environment.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()
	cfg := DefaultConfig()

	if configPath == "" {
		configPath = DefaultPath()
	}

	// Read config file (use defaults if not found)
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
		}
	}

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]*ProviderConfig)
	}
	applyEnvOverrides(cfg)

	return cfg, nil
}

// loadEnvFiles loads .env files from the working directory. Existing
// environment variables are never overwritten.
func loadEnvFiles() {
	for _, f := range []string{".env", ".env.local"} {
		_ = godotenv.Load(f)
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	cl := c.Classifier
	if cl.Provider == "" {
		return fmt.Errorf("classifier.provider must be set (use \"none\" to disable)")
	}
	if cl.Temperature < 0 || cl.Temperature > 2 {
		return fmt.Errorf("classifier.temperature %v outside [0,2]", cl.Temperature)
	}
	if cl.MaxOutputTokens <= 0 {
		return fmt.Errorf("classifier.max_output_tokens must be positive")
	}
	if cl.TimeoutSec <= 0 {
		return fmt.Errorf("classifier.timeout_sec must be positive")
	}

	l := c.Context
	if l.MaxTokens <= 0 {
		return fmt.Errorf("context.max_tokens must be positive")
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"flush_threshold", l.FlushThreshold},
		{"compaction_threshold", l.CompactionThreshold},
		{"target_ratio", l.TargetRatio},
	} {
		if f.v <= 0 || f.v > 1 {
			return fmt.Errorf("context.%s %v outside (0,1]", f.name, f.v)
		}
	}
	if l.TargetRatio >= l.CompactionThreshold {
		return fmt.Errorf("context.target_ratio %v must be below compaction_threshold %v", l.TargetRatio, l.CompactionThreshold)
	}

	if a := c.Pipeline.AutoExecuteConfidence; a < 0 || a > 1 {
		return fmt.Errorf("pipeline.auto_execute_confidence %v outside [0,1]", a)
	}
	for name, p := range c.Routing.Pricing {
		if p.InputPerMillion < 0 || p.OutputPerMillion < 0 {
			return fmt.Errorf("routing.pricing.%s has negative price", name)
		}
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q must be debug, info, warn or error", c.Log.Level)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format %q must be text or json", c.Log.Format)
	}
	return nil
}

// GetProviderConfig returns the config for the named provider, or an empty config if not found.
func (c *Config) GetProviderConfig(name string) *ProviderConfig {
	if pc, ok := c.Providers[name]; ok && pc != nil {
		return pc
	}
	return &ProviderConfig{}
}

// ClassifierProvider resolves credentials, endpoint and model for the
// classifier backend. classifier.model wins over the provider's model,
// which wins over the embedded default.
func (c *Config) ClassifierProvider() provider.Config {
	name := c.Classifier.Provider
	pc := c.GetProviderConfig(name)
	def := LoadProviderDefaults()[name]

	out := provider.Config{APIKey: pc.APIKey, BaseURL: pc.BaseURL, Model: pc.Model}
	if out.BaseURL == "" {
		out.BaseURL = def.BaseURL
	}
	if c.Classifier.Model != "" {
		out.Model = c.Classifier.Model
	}
	if out.Model == "" {
		out.Model = def.DefaultModel
	}
	return out
}

// ClassifierOptions converts the classifier section to intent options.
func (c *Config) ClassifierOptions() intent.Options {
	return intent.Options{
		Model:           c.ClassifierProvider().Model,
		Temperature:     c.Classifier.Temperature,
		MaxOutputTokens: c.Classifier.MaxOutputTokens,
		Timeout:         time.Duration(c.Classifier.TimeoutSec) * time.Second,
	}
}

// DBPath returns the configured sqlite path.
func (c *Config) DBPath() (string, error) {
	if c.Database.Path != "" {
		return c.Database.Path, nil
	}
	return store.DefaultDBPath()
}

func (c *Config) providerEntry(name string) *ProviderConfig {
	if c.Providers[name] == nil {
		c.Providers[name] = &ProviderConfig{}
	}
	return c.Providers[name]
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	// Vendor keys
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		cfg.providerEntry("gemini").APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.providerEntry("gemini").APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.providerEntry("openai").APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.providerEntry("anthropic").APIKey = v
	}

	// Classifier selection
	if v := os.Getenv("OLIVE_CLASSIFIER_PROVIDER"); v != "" {
		cfg.Classifier.Provider = v
	}
	if v := os.Getenv("OLIVE_CLASSIFIER_MODEL"); v != "" {
		cfg.Classifier.Model = v
	}

	if v := os.Getenv("OLIVE_DB"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("OLIVE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}
