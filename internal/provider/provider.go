// Package provider defines structured (schema constrained) generation and its
// vendor adapters. Each adapter (gemini.go, openai.go, anthropic.go) turns a
// StructuredRequest into the vendor's native structured-output mechanism and
// returns the raw JSON document it produced.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyResponse means the vendor returned no usable JSON payload.
	ErrEmptyResponse = errors.New("provider returned an empty response")
	// ErrNoAPIKey means the provider has no credentials configured.
	ErrNoAPIKey = errors.New("api key not configured")
)

// ── Request types ────────────────────────────────────────────────────────────

// StructuredRequest asks for one JSON document conforming to Schema.
type StructuredRequest struct {
	// Model overrides the generator's default model when non-empty.
	Model           string
	SystemPrompt    string
	Prompt          string
	SchemaName      string
	Schema          *Schema
	Temperature     float64
	MaxOutputTokens int
}

// Usage is token accounting for one call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// StructuredResponse is the raw document the vendor returned. Callers must
// still validate it; schema enforcement on the vendor side is best effort.
type StructuredResponse struct {
	Raw   []byte
	Model string
	Usage Usage
}

// StructuredGenerator is implemented by every vendor adapter.
type StructuredGenerator interface {
	Name() string
	GenerateJSON(ctx context.Context, req *StructuredRequest) (*StructuredResponse, error)
}

// Config selects credentials and endpoint for one provider.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// New creates the adapter for name. "gemini" uses the native Gemini SDK,
// "anthropic" the Anthropic SDK, and every other name is treated as an
// OpenAI-compatible endpoint that needs a BaseURL unless it is "openai".
func New(ctx context.Context, name string, cfg Config) (StructuredGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("provider %q: %w", name, ErrNoAPIKey)
	}
	switch name {
	case "gemini":
		return NewGeminiGenerator(ctx, cfg.APIKey, cfg.Model)
	case "anthropic":
		return NewAnthropicGenerator(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case "openai":
		return NewOpenAIGenerator(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	default:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("unknown provider %q; set providers.%s.base_url in config", name, name)
		}
		return NewOpenAIGenerator(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	}
}

// stripCodeFence removes a surrounding ```json fence some models emit even
// in JSON mode.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
