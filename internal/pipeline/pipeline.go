// Package pipeline is the calling layer that ties context building,
// classification and tier routing together for one inbound message.
package pipeline

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/oliveapp/olive/internal/contextmgr"
	"github.com/oliveapp/olive/internal/intent"
	"github.com/oliveapp/olive/internal/router"
)

// DefaultAutoExecute is the confidence at or above which a decision may be
// acted on without confirmation.
const DefaultAutoExecute = 0.7

// ClassifierTier is the tier classification calls are billed under.
const ClassifierTier = router.TierLite

// Source says which classifier produced the decision.
type Source string

const (
	SourceLLM      Source = "llm"
	SourceFallback Source = "fallback"
)

// Classifier is the LLM classification step. *intent.Classifier satisfies it.
type Classifier interface {
	Classify(ctx context.Context, in intent.Input) intent.Result
}

// Request is one inbound message with its pre-loaded state.
type Request struct {
	Input             intent.Input
	Memory            *contextmgr.MemoryContext
	AdditionalContext string
}

// Outcome is everything the caller needs to act on a message.
type Outcome struct {
	Source              Source                       `json:"source"`
	Classification      *intent.Classification       `json:"classification"`
	Band                intent.Band                  `json:"band"`
	AutoExecute         bool                         `json:"auto_execute"`
	NeedsDisambiguation bool                         `json:"needs_disambiguation"`
	Decision            router.Decision              `json:"decision"`
	Model               string                       `json:"model"`
	Context             *contextmgr.OptimizedContext `json:"context,omitempty"`
	ClassifyLatencyMs   int64                        `json:"classify_latency_ms"`
	ClassifyCost        float64                      `json:"classify_cost"`
}

// Options configures a Pipeline.
type Options struct {
	Tiers       router.Table
	AutoExecute float64
	// Costs, when set, records the classification call's usage.
	Costs *router.CostTracker
}

// Pipeline holds configuration only; requests are independent.
type Pipeline struct {
	classifier  Classifier
	builder     *contextmgr.Builder
	tiers       router.Table
	autoExecute float64
	costs       *router.CostTracker
	logger      *slog.Logger
}

// New creates a Pipeline. A nil classifier means every message uses the
// keyword fallback; a nil builder skips context building.
func New(classifier Classifier, builder *contextmgr.Builder, opts Options, logger *slog.Logger) *Pipeline {
	if opts.AutoExecute <= 0 {
		opts.AutoExecute = DefaultAutoExecute
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{
		classifier:  classifier,
		builder:     builder,
		tiers:       opts.Tiers,
		autoExecute: opts.AutoExecute,
		costs:       opts.Costs,
		logger:      logger.With("component", "pipeline"),
	}
}

// Process classifies and routes one message. It fails only when ctx is
// already done; classifier trouble degrades to the keyword fallback.
func (p *Pipeline) Process(ctx context.Context, req Request) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Input.Now.IsZero() {
		req.Input.Now = time.Now()
	}

	out := &Outcome{}
	if p.builder != nil {
		out.Context = p.builder.CreateOptimized(contextmgr.Input{
			Memory:            req.Memory,
			History:           req.Input.ConversationHistory,
			AdditionalContext: req.AdditionalContext,
			UserMessage:       req.Input.Message,
		})
	}

	var res intent.Result
	if p.classifier != nil {
		res = p.classifier.Classify(ctx, req.Input)
	}
	out.ClassifyLatencyMs = res.LatencyMs
	if p.costs != nil && res.Model != "" {
		out.ClassifyCost = p.costs.Record(res.Model, ClassifierTier, res.Usage.InputTokens, res.Usage.OutputTokens)
	}

	cls := res.Classification
	out.Source = SourceLLM
	if cls == nil {
		cls = intent.ClassifyKeywords(req.Input)
		out.Source = SourceFallback
	}

	out.Classification = cls
	out.Band = intent.BandFor(cls.Confidence)
	out.NeedsDisambiguation = cls.NeedsDisambiguation()
	out.AutoExecute = cls.Confidence >= p.autoExecute && !out.NeedsDisambiguation
	out.Decision = router.RouteIntent(string(cls.Intent), cls.ChatType())
	out.Model = p.tiers.Model(out.Decision.Tier)

	p.logger.Info("message processed",
		"source", out.Source,
		"intent", cls.Intent,
		"confidence", cls.Confidence,
		"tier", out.Decision.Tier,
		"reason", out.Decision.Reason,
		"auto_execute", out.AutoExecute,
	)
	return out, nil
}
