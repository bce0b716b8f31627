package contextmgr

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ProtectedPriority is the lowest priority that compaction never removes.
const ProtectedPriority = 6

const ellipsis = "..."

// CompactionResult records what a Compact call changed.
type CompactionResult struct {
	Compacted          bool     `json:"compacted"`
	RemovedSections    []string `json:"removed_sections"`
	CompressedSections []string `json:"compressed_sections"`
	TokensSaved        int      `json:"tokens_saved"`
}

// Compact returns a window reduced toward Limits.TargetRatio.
// It does NOT modify w. Below the compaction threshold w itself is returned.
//
// Sections are visited lowest priority first. Once the running total is at
// or under target the rest are kept verbatim. Otherwise a section is
// compressed when that saves tokens, else dropped when its priority is below
// ProtectedPriority, else kept. The result may stay above target when
// protected content alone exceeds it.
func Compact(w *Window) (*Window, CompactionResult) {
	if !w.NeedsCompaction() {
		return w, CompactionResult{}
	}

	var res CompactionResult
	target := w.Limits.fraction(w.Limits.TargetRatio)
	current := w.TotalTokens

	ordered := append([]Section(nil), w.Sections...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	kept := make([]Section, 0, len(ordered))
	for _, s := range ordered {
		if float64(current) <= target {
			kept = append(kept, s)
			continue
		}

		before := s.Tokens()
		if compressed, ok := compressSection(s); ok {
			if after := compressed.Tokens(); after < before {
				kept = append(kept, compressed)
				current -= before - after
				res.CompressedSections = append(res.CompressedSections, s.Name)
				continue
			}
		}

		if s.Priority < ProtectedPriority {
			current -= before
			res.RemovedSections = append(res.RemovedSections, s.Name)
			continue
		}
		kept = append(kept, s)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Priority > kept[j].Priority
	})

	out := &Window{Sections: kept, Limits: w.Limits}
	out.Recompute()

	res.Compacted = true
	res.TokensSaved = w.TotalTokens - out.TotalTokens
	return out, res
}

var confidenceRe = regexp.MustCompile(`\(confidence:\s*([0-9]*\.?[0-9]+)\)`)

const (
	yesterdayKeepLines = 3
	patternKeepMin     = 0.6
	patternKeepMax     = 3
)

// compressSection applies the type specific lossy strategy for s. ok is false
// when s has no floor, is not compressible, or is already within its floor.
func compressSection(s Section) (Section, bool) {
	if !s.Compressible || s.MinLength <= 0 {
		return s, false
	}
	floorChars := s.MinLength * CharsPerToken
	runes := []rune(s.Content)
	if len(runes) <= floorChars {
		return s, false
	}

	out := s
	switch s.Name {
	case SectionYesterday:
		lines := strings.Split(s.Content, "\n")
		if len(lines) > yesterdayKeepLines {
			lines = lines[:yesterdayKeepLines]
		}
		out.Content = strings.Join(lines, "\n") + "\n" + ellipsis

	case SectionOlder:
		// The first line is the heading; every other line is one message.
		n := strings.Count(strings.TrimRight(s.Content, "\n"), "\n")
		out.Content = fmt.Sprintf("[%d earlier messages summarized]", n)

	case SectionPatterns:
		lines := strings.Split(s.Content, "\n")
		keep := []string{lines[0]}
		for _, line := range lines[1:] {
			if len(keep)-1 >= patternKeepMax {
				break
			}
			m := confidenceRe.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			if c, err := strconv.ParseFloat(m[1], 64); err == nil && c > patternKeepMin {
				keep = append(keep, line)
			}
		}
		out.Content = strings.Join(keep, "\n")

	default:
		cut := floorChars - len([]rune(ellipsis))
		if cut < 0 {
			cut = 0
		}
		out.Content = string(runes[:cut]) + ellipsis
	}
	return out, true
}
