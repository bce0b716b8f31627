package intent

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/oliveapp/olive/internal/provider"
)

// Generator is the structured-generation backend the classifier calls.
// provider.StructuredGenerator satisfies it.
type Generator interface {
	GenerateJSON(ctx context.Context, req *provider.StructuredRequest) (*provider.StructuredResponse, error)
}

// Options tunes the single classification call.
type Options struct {
	// Model overrides the backend's default model.
	Model           string
	Temperature     float64
	MaxOutputTokens int
	// Timeout bounds the backend call; expiry is treated like any failure.
	Timeout time.Duration
}

// DefaultOptions returns near-deterministic sampling with a small output
// ceiling, since the output is a small fixed-shape record.
func DefaultOptions() Options {
	return Options{
		Temperature:     0.1,
		MaxOutputTokens: 500,
		Timeout:         10 * time.Second,
	}
}

// Classifier runs LLM classification. It holds no per-request state and is
// safe for concurrent use.
type Classifier struct {
	gen    Generator
	opts   Options
	logger *slog.Logger
}

// NewClassifier creates a Classifier. A nil gen is allowed: every call then
// returns a nil classification immediately.
func NewClassifier(gen Generator, opts Options, logger *slog.Logger) *Classifier {
	d := DefaultOptions()
	if opts.MaxOutputTokens <= 0 {
		opts.MaxOutputTokens = d.MaxOutputTokens
	}
	if opts.Timeout <= 0 {
		opts.Timeout = d.Timeout
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Classifier{gen: gen, opts: opts, logger: logger.With("component", "intent")}
}

// Classify makes one backend call with no retry. It never returns an error
// and never panics: on backend failure, timeout, malformed output or a
// missing backend the Result has a nil Classification and the caller
// should use ClassifyKeywords.
func (c *Classifier) Classify(ctx context.Context, in Input) (res Result) {
	if c == nil || c.gen == nil {
		if c != nil {
			c.logger.Warn("classifier backend not configured; using fallback")
		}
		return Result{}
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = Result{LatencyMs: time.Since(start).Milliseconds()}
			c.logger.Error("classifier backend panicked", "panic", fmt.Sprint(r), "latency_ms", res.LatencyMs)
		}
	}()

	callCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	resp, err := c.gen.GenerateJSON(callCtx, &provider.StructuredRequest{
		Model:           c.opts.Model,
		SystemPrompt:    systemPrompt,
		Prompt:          buildPrompt(in),
		SchemaName:      SchemaName,
		Schema:          OutputSchema(),
		Temperature:     c.opts.Temperature,
		MaxOutputTokens: c.opts.MaxOutputTokens,
	})
	latency := time.Since(start).Milliseconds()
	if err != nil {
		c.logger.Warn("classification call failed", "error", err, "latency_ms", latency)
		return Result{LatencyMs: latency}
	}

	cls, err := Parse(resp.Raw, in)
	if err != nil {
		c.logger.Warn("classification rejected", "error", err, "latency_ms", latency)
		return Result{LatencyMs: latency, Model: resp.Model, Usage: resp.Usage}
	}

	c.logger.Debug("message classified",
		"intent", cls.Intent,
		"confidence", cls.Confidence,
		"band", BandFor(cls.Confidence),
		"latency_ms", latency,
	)
	return Result{Classification: cls, LatencyMs: latency, Model: resp.Model, Usage: resp.Usage}
}
