package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var envKeys = []string{
	"GOOGLE_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY",
	"OLIVE_CLASSIFIER_PROVIDER", "OLIVE_CLASSIFIER_MODEL", "OLIVE_DB", "OLIVE_LOG_LEVEL",
}

// clearEnv blanks every variable Load reads so host settings cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Classifier.Provider != "gemini" {
		t.Errorf("expected default classifier provider 'gemini', got %q", cfg.Classifier.Provider)
	}
	if cfg.Classifier.Temperature != 0.1 || cfg.Classifier.MaxOutputTokens != 500 || cfg.Classifier.TimeoutSec != 10 {
		t.Errorf("unexpected classifier defaults: %+v", cfg.Classifier)
	}
	if cfg.Context.MaxTokens != 8000 || cfg.Context.CompactionThreshold != 0.85 {
		t.Errorf("unexpected context defaults: %+v", cfg.Context)
	}
	if cfg.Routing.Tiers.Pro != "gemini-2.5-pro" {
		t.Errorf("expected default pro tier gemini-2.5-pro, got %q", cfg.Routing.Tiers.Pro)
	}
	if cfg.Pipeline.AutoExecuteConfidence != 0.7 {
		t.Errorf("expected auto_execute_confidence 0.7, got %v", cfg.Pipeline.AutoExecuteConfidence)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("/nonexistent/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.Classifier.Provider != "gemini" {
		t.Errorf("expected default provider, got %q", cfg.Classifier.Provider)
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	clearEnv(t)
	t.Setenv("OLIVE_TEST_OPENAI_KEY", "sk-from-env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
classifier:
  provider: openai
  temperature: 0
  timeout_sec: 4
providers:
  openai:
    api_key: ${OLIVE_TEST_OPENAI_KEY}
    model: gpt-4.1-mini
routing:
  tiers:
    lite: gpt-4.1-nano
  pricing:
    gpt-4.1-nano:
      input_per_million: 0.1
      output_per_million: 0.4
context:
  max_tokens: 4000
database:
  path: /tmp/olive-test.db
log:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Classifier.Provider != "openai" || cfg.Classifier.TimeoutSec != 4 {
		t.Errorf("classifier = %+v", cfg.Classifier)
	}
	if cfg.Classifier.MaxOutputTokens != 500 {
		t.Errorf("unset max_output_tokens should keep default, got %d", cfg.Classifier.MaxOutputTokens)
	}
	if got := cfg.GetProviderConfig("openai").APIKey; got != "sk-from-env" {
		t.Errorf("expected expanded api key, got %q", got)
	}
	if cfg.Routing.Tiers.Lite != "gpt-4.1-nano" || cfg.Routing.Tiers.Standard != "gemini-2.5-flash" {
		t.Errorf("tiers = %+v", cfg.Routing.Tiers)
	}
	if cfg.Routing.Pricing["gpt-4.1-nano"].OutputPerMillion != 0.4 {
		t.Errorf("pricing = %+v", cfg.Routing.Pricing)
	}
	if cfg.Context.MaxTokens != 4000 || cfg.Context.TargetRatio != 0.70 {
		t.Errorf("context = %+v", cfg.Context)
	}
	if p, _ := cfg.DBPath(); p != "/tmp/olive-test.db" {
		t.Errorf("DBPath = %q", p)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}

	pc := cfg.ClassifierProvider()
	if pc.Model != "gpt-4.1-mini" || pc.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("ClassifierProvider = %+v", pc)
	}
	opts := cfg.ClassifierOptions()
	if opts.Timeout != 4*time.Second || opts.Model != "gpt-4.1-mini" || opts.Temperature != 0 {
		t.Errorf("ClassifierOptions = %+v", opts)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("classifier: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("ANTHROPIC_API_KEY", "a-key")
	t.Setenv("OLIVE_CLASSIFIER_PROVIDER", "anthropic")
	t.Setenv("OLIVE_CLASSIFIER_MODEL", "claude-sonnet-4-20250514")
	t.Setenv("OLIVE_DB", "/tmp/env.db")
	t.Setenv("OLIVE_LOG_LEVEL", "warn")

	cfg, err := Load("/nonexistent/config.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GetProviderConfig("gemini").APIKey != "g-key" {
		t.Error("GEMINI_API_KEY not applied")
	}
	pc := cfg.ClassifierProvider()
	if pc.APIKey != "a-key" || pc.Model != "claude-sonnet-4-20250514" {
		t.Errorf("ClassifierProvider = %+v", pc)
	}
	if cfg.Database.Path != "/tmp/env.db" || cfg.Log.Level != "warn" {
		t.Errorf("database/log = %+v/%+v", cfg.Database, cfg.Log)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	// Unset rather than blank so godotenv is allowed to fill it.
	os.Unsetenv("OPENAI_API_KEY")

	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("OPENAI_API_KEY=from-dotenv\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("OPENAI_API_KEY") })

	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cfg.GetProviderConfig("openai").APIKey; got != "from-dotenv" {
		t.Errorf("expected key from .env, got %q", got)
	}
}

func TestClassifierProviderDefaults(t *testing.T) {
	cfg := DefaultConfig()
	pc := cfg.ClassifierProvider()
	if pc.Model != "gemini-2.5-flash" || pc.APIKey != "" {
		t.Errorf("gemini defaults = %+v", pc)
	}

	cfg.Classifier.Provider = "deepseek"
	pc = cfg.ClassifierProvider()
	if pc.BaseURL != "https://api.deepseek.com/v1" || pc.Model != "deepseek-chat" {
		t.Errorf("deepseek defaults = %+v", pc)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no provider", func(c *Config) { c.Classifier.Provider = "" }, "classifier.provider"},
		{"temperature", func(c *Config) { c.Classifier.Temperature = 3 }, "classifier.temperature"},
		{"timeout", func(c *Config) { c.Classifier.TimeoutSec = 0 }, "classifier.timeout_sec"},
		{"max tokens", func(c *Config) { c.Context.MaxTokens = 0 }, "context.max_tokens"},
		{"flush", func(c *Config) { c.Context.FlushThreshold = 1.5 }, "context.flush_threshold"},
		{"target above compaction", func(c *Config) { c.Context.TargetRatio = 0.9 }, "context.target_ratio"},
		{"auto execute", func(c *Config) { c.Pipeline.AutoExecuteConfidence = 2 }, "pipeline.auto_execute_confidence"},
		{"log level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
