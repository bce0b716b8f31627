// Package contextmgr assembles the prompt context for a single request from
// weighted sections and compacts it when it grows past the token budget.
//
// Token counts are estimates (runes / 4, rounded up). They gate soft
// thresholds only and are never used as a hard provider limit.
package contextmgr

import "unicode/utf8"

// CharsPerToken is the rune-to-token ratio used by EstimateTokens.
const CharsPerToken = 4

// EstimateTokens returns ceil(runeCount(s) / CharsPerToken).
func EstimateTokens(s string) int {
	n := utf8.RuneCountInString(s)
	return (n + CharsPerToken - 1) / CharsPerToken
}

// Limits controls the budget of a context window.
type Limits struct {
	// MaxTokens is the ceiling the thresholds are fractions of.
	MaxTokens int `yaml:"max_tokens" json:"max_tokens"`
	// FlushThreshold signals the caller to persist memory before context is lost.
	FlushThreshold float64 `yaml:"flush_threshold" json:"flush_threshold"`
	// CompactionThreshold triggers compaction.
	CompactionThreshold float64 `yaml:"compaction_threshold" json:"compaction_threshold"`
	// TargetRatio is where compaction tries to bring the window.
	TargetRatio float64 `yaml:"target_ratio" json:"target_ratio"`
}

// DefaultLimits returns the production budget: 8000 tokens, flush at 75%,
// compact at 85%, compact down to 70%.
func DefaultLimits() Limits {
	return Limits{
		MaxTokens:           8000,
		FlushThreshold:      0.75,
		CompactionThreshold: 0.85,
		TargetRatio:         0.70,
	}
}

// withDefaults fills zero fields from DefaultLimits.
func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxTokens <= 0 {
		l.MaxTokens = d.MaxTokens
	}
	if l.FlushThreshold <= 0 {
		l.FlushThreshold = d.FlushThreshold
	}
	if l.CompactionThreshold <= 0 {
		l.CompactionThreshold = d.CompactionThreshold
	}
	if l.TargetRatio <= 0 {
		l.TargetRatio = d.TargetRatio
	}
	return l
}

func (l Limits) fraction(f float64) float64 { return float64(l.MaxTokens) * f }
