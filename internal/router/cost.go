package router

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// ModelPricing holds per-million-token pricing for a model.
type ModelPricing struct {
	InputPerMillion  float64 `yaml:"input_per_million" json:"input_per_million"`
	OutputPerMillion float64 `yaml:"output_per_million" json:"output_per_million"`
}

// DefaultPricing returns built-in pricing for the models the tiers and the
// classifier backends use.
func DefaultPricing() map[string]ModelPricing {
	return map[string]ModelPricing{
		// Google
		"gemini-2.5-pro":        {1.25, 10.0},
		"gemini-2.5-flash":      {0.30, 2.50},
		"gemini-2.5-flash-lite": {0.10, 0.40},
		"gemini-2.0-flash":      {0.10, 0.40},
		// OpenAI
		"gpt-4o":       {2.50, 10.0},
		"gpt-4o-mini":  {0.15, 0.60},
		"gpt-4.1":      {2.0, 8.0},
		"gpt-4.1-mini": {0.40, 1.60},
		"gpt-4.1-nano": {0.10, 0.40},
		// Anthropic
		"claude-sonnet-4-20250514":  {3.0, 15.0},
		"claude-haiku-4-5-20251001": {0.80, 4.0},
	}
}

// Usage records one model call.
type Usage struct {
	Model        string    `json:"model"`
	Tier         Tier      `json:"tier,omitempty"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	Cost         float64   `json:"cost"`
	Timestamp    time.Time `json:"timestamp"`
}

// CostTracker accumulates usage and dollar cost across calls. It is safe for
// concurrent use.
type CostTracker struct {
	mu      sync.Mutex
	total   float64
	usage   []Usage
	pricing map[string]ModelPricing
}

// NewCostTracker creates a CostTracker with default pricing plus overrides.
func NewCostTracker(overrides map[string]ModelPricing) *CostTracker {
	pricing := DefaultPricing()
	for k, v := range overrides {
		pricing[k] = v
	}
	return &CostTracker{pricing: pricing}
}

// Record adds one call and returns its cost.
func (ct *CostTracker) Record(model string, tier Tier, inputTokens, outputTokens int) float64 {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	cost := EstimateCost(ct.pricing, model, inputTokens, outputTokens)
	ct.total += cost
	ct.usage = append(ct.usage, Usage{
		Model:        model,
		Tier:         tier,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Cost:         cost,
		Timestamp:    time.Now(),
	})
	return cost
}

// Total returns the accumulated cost in dollars.
func (ct *CostTracker) Total() float64 {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	return ct.total
}

// ByTier returns accumulated cost grouped by tier.
func (ct *CostTracker) ByTier() map[Tier]float64 {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	out := make(map[Tier]float64)
	for _, u := range ct.usage {
		out[u.Tier] += u.Cost
	}
	return out
}

// Summary returns a formatted multi-line report.
func (ct *CostTracker) Summary() string {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	if len(ct.usage) == 0 {
		return "No usage recorded."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total cost: $%.4f (%d calls)\n", ct.total, len(ct.usage)))
	for i, u := range ct.usage {
		sb.WriteString(fmt.Sprintf("  %d: %s [%s] in=%d out=%d  $%.6f\n",
			i+1, u.Model, u.Tier, u.InputTokens, u.OutputTokens, u.Cost))
	}
	return sb.String()
}

// EstimateCost computes the dollar cost of a call. Versioned model names
// (e.g. "gpt-4o-2024-08-06") match the longest known prefix. Unknown
// models cost 0.
func EstimateCost(pricing map[string]ModelPricing, model string, inputTokens, outputTokens int) float64 {
	p, ok := pricing[model]
	if !ok {
		best := ""
		for name, mp := range pricing {
			if strings.HasPrefix(model, name) && len(name) > len(best) {
				best, p, ok = name, mp, true
			}
		}
	}
	if !ok {
		return 0
	}
	return (float64(inputTokens) * p.InputPerMillion / 1_000_000) +
		(float64(outputTokens) * p.OutputPerMillion / 1_000_000)
}
