package intent

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// timeExprRe finds time phrases. The first match is used as the
// due_date_expression verbatim.
var timeExprRe = regexp.MustCompile(`(?i)\b(` +
	`(?:today|tonight|tomorrow|tmrw)(?:\s+(?:morning|afternoon|evening|night))?(?:\s+at\s+\d{1,2}(?::\d{2})?\s?(?:am|pm)?)?` +
	`|next\s+(?:week|month|year|weekend|monday|tuesday|wednesday|thursday|friday|saturday|sunday)` +
	`|this\s+(?:week|weekend|morning|afternoon|evening|monday|tuesday|wednesday|thursday|friday|saturday|sunday)` +
	`|(?:on\s+)?(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday)(?:\s+at\s+\d{1,2}(?::\d{2})?\s?(?:am|pm)?)?` +
	`|in\s+(?:\d+|a|an|one|two|three)\s+(?:minutes?|hours?|days?|weeks?|months?)` +
	`|(?:at\s+)?\d{1,2}(?::\d{2})?\s?(?:am|pm)` +
	`|(?:at\s+)?\d{1,2}:\d{2}` +
	`|noon|midnight` +
	`|end\s+of\s+(?:the\s+)?(?:day|week|month)` +
	`|(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?\s+\d{1,2}(?:st|nd|rd|th)?` +
	`|\d{1,2}/\d{1,2}(?:/\d{2,4})?` +
	`)\b`)

// TimeExpression returns the first time phrase in s, without a leading "at"
// or "on".
func TimeExpression(s string) (string, bool) {
	m := timeExprRe.FindString(s)
	if m == "" {
		return "", false
	}
	m = strings.TrimSpace(m)
	for _, p := range []string{"at ", "on "} {
		if len(m) > len(p) && strings.EqualFold(m[:len(p)], p) {
			m = strings.TrimSpace(m[len(p):])
		}
	}
	return m, true
}

func stripTimeExpressions(s string) string {
	return timeExprRe.ReplaceAllString(s, " ")
}

// stopwords never count as salient when matching task references.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "my": true, "our": true, "your": true, "to": true, "for": true,
	"of": true, "on": true, "in": true, "at": true, "with": true, "and": true, "or": true, "is": true,
	"as": true, "be": true, "it": true, "its": true, "this": true, "that": true, "these": true, "those": true,
	"me": true, "i": true, "we": true, "us": true, "please": true, "pls": true, "can": true, "you": true,
	"task": true, "item": true, "one": true, "last": true, "from": true, "by": true, "up": true, "now": true,
	"just": true, "already": true, "all": true, "them": true, "list": true, "due": true,
}

// actionWords are verbs and modifiers that describe what to do to a task
// rather than which task.
var actionWords = map[string]bool{
	"complete": true, "completed": true, "done": true, "finish": true, "finished": true, "mark": true,
	"check": true, "off": true, "tick": true, "delete": true, "remove": true, "cancel": true, "drop": true,
	"change": true, "move": true, "postpone": true, "reschedule": true, "push": true, "delay": true,
	"bump": true, "set": true, "make": true, "priority": true, "urgent": true, "important": true,
	"high": true, "low": true, "medium": true, "remind": true, "assign": true, "give": true,
	"merge": true, "combine": true, "update": true, "edit": true, "rename": true, "back": true,
	"later": true, "earlier": true, "asap": true,
}

// pronouns trigger history-based reference resolution.
var pronouns = map[string]bool{
	"it": true, "that": true, "this": true, "them": true,
}

// words splits s into lowercase letter/digit runs.
func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'')
	})
}

func tokenize(s string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range words(s) {
		out[strings.Trim(w, "'")] = true
	}
	return out
}

// salient returns the distinct tokens of s that identify a task.
func salient(s string) []string {
	var out []string
	seen := map[string]bool{}
	for _, w := range words(stripTimeExpressions(s)) {
		w = strings.Trim(w, "'")
		if w == "" || stopwords[w] || actionWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// hasToken matches exact tokens and simple plurals.
func hasToken(tokens map[string]bool, w string) bool {
	return tokens[w] || tokens[w+"s"] || tokens[strings.TrimSuffix(w, "s")]
}

// taskMatch is a conjunctive candidate; extra counts summary tokens the
// reference did not mention.
type taskMatch struct {
	task  Task
	extra int
}

func conjunctiveMatches(reference string, tasks []Task) []taskMatch {
	query := salient(reference)
	if len(query) == 0 {
		return nil
	}
	var out []taskMatch
	for _, t := range tasks {
		summary := tokenize(t.Summary)
		all := true
		for _, q := range query {
			if !hasToken(summary, q) {
				all = false
				break
			}
		}
		if !all {
			continue
		}
		out = append(out, taskMatch{task: t, extra: len(summary) - len(query)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].extra < out[j].extra })
	return out
}

// MatchTasks returns every task whose summary contains all salient tokens of
// reference, closest match first. A task sharing only some tokens is never
// returned.
func MatchTasks(reference string, tasks []Task) []Task {
	matches := conjunctiveMatches(reference, tasks)
	out := make([]Task, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.task)
	}
	return out
}

// ResolveTask returns the task reference names when exactly one task
// matches conjunctively. Several candidates are a tie regardless of how
// many extra words each carries.
func ResolveTask(reference string, tasks []Task) (Task, bool) {
	matches := conjunctiveMatches(reference, tasks)
	if len(matches) != 1 {
		return Task{}, false
	}
	return matches[0].task, true
}

// HasPronoun reports whether s refers to something deictically.
func HasPronoun(s string) bool {
	lower := strings.ToLower(s)
	if strings.Contains(lower, "the last one") || strings.Contains(lower, "the previous one") {
		return true
	}
	for _, w := range words(s) {
		if pronouns[w] {
			return true
		}
	}
	return false
}

// ResolveReference finds the most recently mentioned active task. History
// is scanned newest first, then recent outbound messages newest first.
// Within one message the task mentioned last wins.
func ResolveReference(in Input) (Task, bool) {
	if len(in.ActiveTasks) == 0 {
		return Task{}, false
	}
	for i := len(in.ConversationHistory) - 1; i >= 0; i-- {
		if t, ok := lastMentioned(in.ConversationHistory[i].Content, in.ActiveTasks); ok {
			return t, true
		}
	}
	for i := len(in.RecentOutboundMessages) - 1; i >= 0; i-- {
		if t, ok := lastMentioned(in.RecentOutboundMessages[i], in.ActiveTasks); ok {
			return t, true
		}
	}
	return Task{}, false
}

// lastMentioned returns the task whose salient summary tokens all occur in
// text, preferring the one whose mention ends latest.
func lastMentioned(text string, tasks []Task) (Task, bool) {
	ws := words(text)
	pos := make(map[string]int, len(ws))
	for i, w := range ws {
		w = strings.Trim(w, "'")
		pos[w] = i
		pos[strings.TrimSuffix(w, "s")] = i
	}

	best, bestPos, found := Task{}, -1, false
	for _, t := range tasks {
		toks := salient(t.Summary)
		if len(toks) == 0 {
			continue
		}
		end := -1
		for _, tok := range toks {
			p, ok := pos[tok]
			if !ok {
				p, ok = pos[strings.TrimSuffix(tok, "s")]
			}
			if !ok {
				end = -1
				break
			}
			if p > end {
				end = p
			}
		}
		if end > bestPos {
			best, bestPos, found = t, end, true
		}
	}
	return best, found
}

// referenceText keeps the words of s that identify a task, in their
// original casing.
func referenceText(s string) string {
	var keep []string
	for _, f := range strings.Fields(stripTimeExpressions(s)) {
		w := strings.TrimFunc(f, func(r rune) bool { return !(unicode.IsLetter(r) || unicode.IsDigit(r)) })
		lw := strings.ToLower(w)
		if w == "" || stopwords[lw] || actionWords[lw] {
			continue
		}
		keep = append(keep, w)
	}
	return strings.Join(keep, " ")
}
