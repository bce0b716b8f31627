package contextmgr

import (
	"fmt"
	"strings"

	"github.com/oliveapp/olive/internal/conversation"
)

// Section names. They are unique within a window and drive both the
// compression strategy and the final prompt ordering.
const (
	SectionSystem     = "system_prompt"
	SectionProfile    = "user_profile"
	SectionToday      = "today_log"
	SectionYesterday  = "yesterday_log"
	SectionPatterns   = "patterns"
	SectionRecent     = "recent_conversation"
	SectionOlder      = "older_conversation"
	SectionAdditional = "additional_context"
)

// recentTurns is how many trailing messages stay in the protected
// recent-conversation section.
const recentTurns = 5

// minPatternConfidence filters patterns out of the window entirely.
const minPatternConfidence = 0.5

// DefaultSystemPrompt is used when Sources.SystemPrompt is empty.
const DefaultSystemPrompt = `You are Olive, a warm and practical assistant that helps couples organize their shared life: tasks, lists, reminders, expenses and plans.
Be concise. Prefer concrete next steps. Never invent tasks or facts the user has not shared.`

// Section is one weighted block of prompt content.
type Section struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	// Priority ranges 1-10; higher is retained longer.
	Priority     int  `json:"priority"`
	Compressible bool `json:"compressible"`
	// MinLength is the compression floor in tokens; 0 means no floor.
	MinLength int `json:"min_length,omitempty"`
}

// Tokens returns the estimated token count of the section content.
func (s Section) Tokens() int { return EstimateTokens(s.Content) }

// Window is the set of sections for one request plus a running total.
// TotalTokens always equals the sum of section token estimates.
type Window struct {
	Sections    []Section
	TotalTokens int
	Limits      Limits
}

// Pattern is an observed behavioral pattern with a confidence in [0,1].
type Pattern struct {
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// MemoryContext is the profile and activity data the window draws from.
type MemoryContext struct {
	Profile      string    `json:"profile,omitempty"`
	TodayLog     string    `json:"today_log,omitempty"`
	YesterdayLog string    `json:"yesterday_log,omitempty"`
	Patterns     []Pattern `json:"patterns,omitempty"`
}

// Sources is everything CreateWindow may turn into sections.
type Sources struct {
	SystemPrompt string
	Memory       *MemoryContext
	History      []conversation.Message
	Additional   string
}

// CreateWindow builds a fresh window. Sources that are absent or blank
// produce no section.
func CreateWindow(src Sources, limits Limits) *Window {
	w := &Window{Limits: limits.withDefaults()}

	system := src.SystemPrompt
	if strings.TrimSpace(system) == "" {
		system = DefaultSystemPrompt
	}
	w.add(Section{Name: SectionSystem, Content: system, Priority: 10})

	if m := src.Memory; m != nil {
		if strings.TrimSpace(m.Profile) != "" {
			w.add(Section{
				Name:         SectionProfile,
				Content:      "## User Profile\n" + strings.TrimSpace(m.Profile),
				Priority:     8,
				Compressible: true,
				MinLength:    200,
			})
		}
		if strings.TrimSpace(m.TodayLog) != "" {
			w.add(Section{
				Name:         SectionToday,
				Content:      "## Today's Activity\n" + strings.TrimSpace(m.TodayLog),
				Priority:     7,
				Compressible: true,
				MinLength:    100,
			})
		}
		if strings.TrimSpace(m.YesterdayLog) != "" {
			w.add(Section{
				Name:         SectionYesterday,
				Content:      "## Yesterday's Activity\n" + strings.TrimSpace(m.YesterdayLog),
				Priority:     5,
				Compressible: true,
				MinLength:    50,
			})
		}
		if p := renderPatterns(m.Patterns); p != "" {
			w.add(Section{
				Name:         SectionPatterns,
				Content:      p,
				Priority:     6,
				Compressible: true,
				MinLength:    50,
			})
		}
	}

	older, recent := conversation.Split(src.History, recentTurns)
	if len(recent) > 0 {
		w.add(Section{
			Name:     SectionRecent,
			Content:  "## Recent Conversation\n" + renderMessages(recent),
			Priority: 9,
		})
	}
	if len(older) > 0 {
		w.add(Section{
			Name:         SectionOlder,
			Content:      "## Earlier Conversation\n" + renderMessages(older),
			Priority:     4,
			Compressible: true,
			MinLength:    100,
		})
	}

	if strings.TrimSpace(src.Additional) != "" {
		w.add(Section{
			Name:         SectionAdditional,
			Content:      "## Additional Context\n" + strings.TrimSpace(src.Additional),
			Priority:     6,
			Compressible: true,
			MinLength:    50,
		})
	}

	return w
}

func (w *Window) add(s Section) {
	w.Sections = append(w.Sections, s)
	w.TotalTokens += s.Tokens()
}

// Recompute resets TotalTokens from the current sections.
func (w *Window) Recompute() {
	total := 0
	for _, s := range w.Sections {
		total += s.Tokens()
	}
	w.TotalTokens = total
}

// ShouldFlush reports whether the window is at or past the flush threshold.
func (w *Window) ShouldFlush() bool {
	return float64(w.TotalTokens) >= w.Limits.fraction(w.Limits.FlushThreshold)
}

// NeedsCompaction reports whether the window is at or past the compaction threshold.
func (w *Window) NeedsCompaction() bool {
	return float64(w.TotalTokens) >= w.Limits.fraction(w.Limits.CompactionThreshold)
}

// Section returns the named section, if present.
func (w *Window) Section(name string) (Section, bool) {
	for _, s := range w.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

// Clone returns a copy that shares no section slice with w.
func (w *Window) Clone() *Window {
	out := &Window{TotalTokens: w.TotalTokens, Limits: w.Limits}
	out.Sections = append([]Section(nil), w.Sections...)
	return out
}

// renderMessages writes one message per line so the line count equals the
// message count.
func renderMessages(msgs []conversation.Message) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		content := strings.Join(strings.Fields(m.Content), " ")
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, content))
	}
	return strings.Join(lines, "\n")
}

func renderPatterns(patterns []Pattern) string {
	var lines []string
	for _, p := range patterns {
		if p.Confidence <= minPatternConfidence || strings.TrimSpace(p.Description) == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s (confidence: %.2f)", strings.TrimSpace(p.Description), p.Confidence))
	}
	if len(lines) == 0 {
		return ""
	}
	return "## Observed Patterns\n" + strings.Join(lines, "\n")
}
