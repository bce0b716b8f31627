package contextmgr

import (
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/oliveapp/olive/internal/conversation"
)

// promptOrder is the reading order of known sections in the final prompt.
var promptOrder = map[string]int{
	SectionSystem:     0,
	SectionProfile:    1,
	SectionPatterns:   2,
	SectionYesterday:  3,
	SectionToday:      4,
	SectionOlder:      5,
	SectionRecent:     6,
	SectionAdditional: 7,
}

func orderOf(name string) int {
	if i, ok := promptOrder[name]; ok {
		return i
	}
	return len(promptOrder)
}

// BuildPrompt renders the window in fixed section order, then appends the
// current user message under its own heading. Unknown sections go last.
func BuildPrompt(w *Window, userMessage string) string {
	sections := append([]Section(nil), w.Sections...)
	sort.SliceStable(sections, func(i, j int) bool {
		return orderOf(sections[i].Name) < orderOf(sections[j].Name)
	})

	parts := make([]string, 0, len(sections)+1)
	for _, s := range sections {
		if s.Content == "" {
			continue
		}
		parts = append(parts, s.Content)
	}
	if msg := strings.TrimSpace(userMessage); msg != "" {
		parts = append(parts, "## Current Message\n"+msg)
	}
	return strings.Join(parts, "\n\n")
}

// SectionStat is the per-section share of a window.
type SectionStat struct {
	Name     string  `json:"name"`
	Priority int     `json:"priority"`
	Tokens   int     `json:"tokens"`
	Percent  float64 `json:"percent"`
}

// Stats summarizes a window for logs and diagnostics.
type Stats struct {
	TotalTokens int           `json:"total_tokens"`
	MaxTokens   int           `json:"max_tokens"`
	Utilization float64       `json:"utilization"`
	Sections    []SectionStat `json:"sections"`
}

// ComputeStats returns token totals and each section's percentage of the total.
func ComputeStats(w *Window) Stats {
	st := Stats{
		TotalTokens: w.TotalTokens,
		MaxTokens:   w.Limits.MaxTokens,
	}
	if w.Limits.MaxTokens > 0 {
		st.Utilization = float64(w.TotalTokens) / float64(w.Limits.MaxTokens)
	}
	for _, s := range w.Sections {
		tok := s.Tokens()
		pct := 0.0
		if w.TotalTokens > 0 {
			pct = 100 * float64(tok) / float64(w.TotalTokens)
		}
		st.Sections = append(st.Sections, SectionStat{
			Name:     s.Name,
			Priority: s.Priority,
			Tokens:   tok,
			Percent:  pct,
		})
	}
	return st
}

// Input is the per-request data for Builder.CreateOptimized.
type Input struct {
	Memory            *MemoryContext
	History           []conversation.Message
	AdditionalContext string
	UserMessage       string
}

// OptimizedContext is the rendered prompt plus what happened building it.
type OptimizedContext struct {
	Prompt       string           `json:"prompt"`
	Stats        Stats            `json:"stats"`
	WasCompacted bool             `json:"was_compacted"`
	ShouldFlush  bool             `json:"should_flush"`
	Compaction   CompactionResult `json:"compaction"`
}

// Builder produces optimized prompts. It holds configuration only and is
// safe for concurrent use.
type Builder struct {
	limits       Limits
	systemPrompt string
	logger       *slog.Logger
}

// NewBuilder creates a Builder. An empty systemPrompt uses DefaultSystemPrompt.
func NewBuilder(limits Limits, systemPrompt string, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Builder{
		limits:       limits.withDefaults(),
		systemPrompt: systemPrompt,
		logger:       logger.With("component", "contextmgr"),
	}
}

// Limits returns the effective limits.
func (b *Builder) Limits() Limits { return b.limits }

// CreateOptimized builds the window, compacts it if needed and renders the
// prompt. ShouldFlush reflects the window before compaction.
func (b *Builder) CreateOptimized(in Input) *OptimizedContext {
	w := CreateWindow(Sources{
		SystemPrompt: b.systemPrompt,
		Memory:       in.Memory,
		History:      in.History,
		Additional:   in.AdditionalContext,
	}, b.limits)

	out := &OptimizedContext{ShouldFlush: w.ShouldFlush()}

	if w.NeedsCompaction() {
		before := w.TotalTokens
		compacted, res := Compact(w)
		w = compacted
		out.WasCompacted = res.Compacted
		out.Compaction = res
		b.logger.Info("context compacted",
			"removed", res.RemovedSections,
			"compressed", res.CompressedSections,
			"tokens_saved", res.TokensSaved,
			"before", before,
			"after", w.TotalTokens,
		)
		if float64(w.TotalTokens) > b.limits.fraction(b.limits.TargetRatio) {
			b.logger.Warn("context above target after compaction",
				"tokens", w.TotalTokens,
				"max_tokens", b.limits.MaxTokens,
			)
		}
	}

	out.Prompt = BuildPrompt(w, in.UserMessage)
	out.Stats = ComputeStats(w)
	return out
}
