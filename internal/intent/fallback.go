package intent

import (
	"regexp"
	"strconv"
	"strings"
)

// Keyword confidences stay below the clear band so callers confirm before
// executing a heuristic decision.
const (
	keywordStrong = 0.75
	keywordMedium = 0.6
	keywordWeak   = 0.5
)

var (
	expenseSymbolRe = regexp.MustCompile(`([$€£])\s?(\d+(?:[.,]\d{1,2})?)`)
	expenseWordRe   = regexp.MustCompile(`(?i)\b(\d+(?:[.,]\d{1,2})?)\s?(usd|eur|gbp|dollars?|euros?|pounds?|bucks)\b`)
	expenseVerbRe   = regexp.MustCompile(`(?i)\b(?:spent|paid)\s+(\d+(?:[.,]\d{1,2})?)\b`)
	merchantRe      = regexp.MustCompile(`\b(?:at|from)\s+([A-Z][\w'&-]*(?:\s+[A-Z][\w'&-]*)*)`)
	listRe          = regexp.MustCompile(`(?i)\bto\s+(?:the\s+|my\s+|our\s+)?([\w' -]+?)\s+list\b`)
	assigneeRe      = regexp.MustCompile(`(?i)\bto\s+([A-Za-z][\w'-]*)\s*$`)
	remindPrefixRe  = regexp.MustCompile(`(?i)^remind\s+me\s+(?:to\s+|about\s+|that\s+)?`)
	createPrefixRe  = regexp.MustCompile(`(?i)^(?:add|new\s+task:?|create|save|note:?)\s+`)
)

var currencyCodes = map[string]string{
	"$": "USD", "€": "EUR", "£": "GBP",
	"usd": "USD", "dollar": "USD", "dollars": "USD", "bucks": "USD",
	"eur": "EUR", "euro": "EUR", "euros": "EUR",
	"gbp": "GBP", "pound": "GBP", "pounds": "GBP",
}

var expenseCategories = []struct {
	category string
	keywords []string
}{
	{"groceries", []string{"grocery", "groceries", "supermarket", "trader joe", "whole foods", "costco"}},
	{"dining", []string{"dinner", "lunch", "breakfast", "restaurant", "coffee", "cafe", "takeout"}},
	{"transport", []string{"uber", "lyft", "taxi", "gas", "fuel", "train", "bus", "parking"}},
	{"household", []string{"rent", "electricity", "utilities", "internet", "furniture"}},
	{"health", []string{"pharmacy", "doctor", "dentist", "gym"}},
}

var partnerNouns = []string{
	"my partner", "my wife", "my husband", "my boyfriend", "my girlfriend", "my fiance", "my fiancé", "my spouse",
}

// createVerbs start a message that describes a new thing to do.
var createVerbs = map[string]bool{
	"buy": true, "get": true, "call": true, "book": true, "pick": true, "pay": true, "schedule": true,
	"add": true, "write": true, "email": true, "clean": true, "send": true, "fix": true, "cook": true,
	"order": true, "renew": true, "return": true, "water": true, "walk": true, "feed": true, "plan": true,
	"research": true, "create": true, "save": true, "note": true, "organize": true, "wash": true,
}

var questionStarts = map[string]bool{
	"what": true, "when": true, "where": true, "which": true, "who": true, "how": true, "why": true,
	"do": true, "did": true, "does": true, "is": true, "are": true, "any": true, "have": true, "was": true,
}

// ClassifyKeywords is the deterministic fallback classifier. It always
// returns a classification in the vocabulary.
func ClassifyKeywords(in Input) *Classification {
	msg := strings.TrimSpace(in.Message)
	s := strings.ToLower(msg)
	tokens := tokenize(s)
	ws := words(s)
	due, hasTime := TimeExpression(msg)

	if msg == "" {
		return keywordResult(Chat, keywordWeak, "empty message", func(p *Parameters) { p.ChatType = strPtr(ChatGeneral) })
	}

	if c := classifyExpense(msg, s); c != nil {
		return c
	}
	if c := classifyPartner(msg, s, tokens, in.PartnerName, due, hasTime); c != nil {
		return c
	}

	if loc := remindPrefixRe.FindStringIndex(msg); loc != nil {
		body := strings.TrimSpace(stripTimeExpressions(msg[loc[1]:]))
		c := keywordResult(Remind, keywordStrong, "remind me prefix", func(p *Parameters) {
			if body != "" {
				p.TaskDescription = strPtr(oneLine(body))
			}
			if hasTime {
				p.DueDateExpression = strPtr(due)
			}
		})
		if t, ok := ResolveTask(body, in.ActiveTasks); ok {
			c.TargetTaskID, c.TargetTaskName = strPtr(t.ID), strPtr(t.Summary)
		}
		return c
	}

	if containsTokenAny(tokens, "merge", "combine") {
		c := keywordResult(Merge, keywordMedium, "merge keyword", nil)
		if ref := referenceText(msg); ref != "" {
			c.Parameters.TaskDescription = strPtr(ref)
		}
		attachTarget(c, in, msg)
		return c
	}

	if containsTokenAny(tokens, "done", "complete", "completed", "finished", "finish") ||
		containsAny(s, "check off", "checked off", "tick off", "crossed off", "cross off") {
		c := keywordResult(Complete, keywordMedium, "completion keyword", nil)
		attachTarget(c, in, msg)
		return c
	}

	if containsTokenAny(tokens, "delete", "remove", "cancel", "drop") || containsAny(s, "get rid of") {
		c := keywordResult(Delete, keywordMedium, "deletion keyword", nil)
		attachTarget(c, in, msg)
		return c
	}

	// Time-modification verbs act on an existing task even though they read
	// like a new statement.
	if containsTokenAny(tokens, "postpone", "reschedule", "delay") ||
		(hasTime && containsTokenAny(tokens, "change", "move", "push", "bump", "shift")) {
		c := keywordResult(SetDue, keywordStrong, "time modification verb", func(p *Parameters) {
			if hasTime {
				p.DueDateExpression = strPtr(due)
			}
		})
		attachTarget(c, in, msg)
		return c
	}

	if containsTokenAny(tokens, "move") {
		if m := listRe.FindStringSubmatch(msg); m != nil {
			c := keywordResult(Move, keywordMedium, "move to list", func(p *Parameters) {
				p.ListName = strPtr(strings.TrimSpace(m[1]))
			})
			attachTarget(c, in, msg[:strings.Index(msg, m[0])])
			return c
		}
	}

	if containsTokenAny(tokens, "assign") || (containsTokenAny(tokens, "give") && assigneeRe.MatchString(msg)) {
		c := keywordResult(Assign, keywordMedium, "assignment keyword", nil)
		ref := msg
		if m := assigneeRe.FindStringSubmatchIndex(msg); m != nil {
			c.Parameters.AssigneeName = strPtr(msg[m[2]:m[3]])
			ref = msg[:m[0]]
		}
		attachTarget(c, in, ref)
		return c
	}

	urgent := containsTokenAny(tokens, "urgent", "asap", "important") ||
		containsAny(s, "high priority", "low priority", "top priority")
	if urgent || containsTokenAny(tokens, "priority") {
		if refersToExisting(in, msg) {
			level := PriorityHigh
			if containsAny(s, "low priority", "not urgent", "less important") {
				level = PriorityLow
			} else if containsAny(s, "medium priority", "normal priority") {
				level = PriorityMedium
			}
			c := keywordResult(SetPriority, keywordMedium, "priority keyword on existing task", func(p *Parameters) {
				p.Priority = strPtr(level)
				isUrgent := level == PriorityHigh
				p.IsUrgent = &isUrgent
			})
			attachTarget(c, in, msg)
			return c
		}
	}

	if hasTime && containsTokenAny(tokens, "due") && refersToExisting(in, msg) {
		c := keywordResult(SetDue, keywordMedium, "due date on existing task", func(p *Parameters) {
			p.DueDateExpression = strPtr(due)
		})
		attachTarget(c, in, msg)
		return c
	}

	if chatType, ok := chatSubtype(s, tokens); ok {
		return keywordResult(Chat, keywordMedium, "chat phrasing", func(p *Parameters) { p.ChatType = strPtr(chatType) })
	}

	if strings.HasSuffix(s, "?") || (len(ws) > 0 && questionStarts[ws[0]]) ||
		(len(ws) > 0 && (ws[0] == "show" || ws[0] == "list" || ws[0] == "find")) {
		if containsTokenAny(tokens, "task", "tasks", "list", "lists", "todo", "todos", "due", "show", "find") ||
			containsAny(s, "to do", "to-do") {
			return keywordResult(Search, keywordMedium, "question about tasks", func(p *Parameters) {
				p.SearchQuery = strPtr(msg)
			})
		}
		return keywordResult(ContextualAsk, keywordMedium, "question about saved context", func(p *Parameters) {
			p.SearchQuery = strPtr(msg)
		})
	}

	// A bare topic with no verb is an inspection request.
	if len(ws) > 0 && len(ws) <= 3 && !createVerbs[ws[0]] && !hasTime {
		return keywordResult(Search, keywordWeak, "bare topic", func(p *Parameters) {
			p.SearchQuery = strPtr(msg)
		})
	}

	desc := strings.TrimSpace(createPrefixRe.ReplaceAllString(msg, ""))
	return keywordResult(Create, keywordWeak, "default to new task", func(p *Parameters) {
		p.TaskDescription = strPtr(desc)
		if hasTime {
			p.DueDateExpression = strPtr(due)
		}
		if m := listRe.FindStringSubmatch(msg); m != nil {
			p.ListName = strPtr(strings.TrimSpace(m[1]))
		}
		if urgent {
			p.IsUrgent = &urgent
			p.Priority = strPtr(PriorityHigh)
		}
	})
}

func keywordResult(i Intent, confidence float64, reason string, fill func(*Parameters)) *Classification {
	c := &Classification{Intent: i, Confidence: confidence, Reasoning: "keyword match: " + reason}
	if fill != nil {
		fill(&c.Parameters)
	}
	return c
}

// attachTarget resolves the task a task-targeting message refers to. A
// unique conjunctive match wins; a deictic reference falls back to the
// conversation; otherwise the raw reference is kept for disambiguation.
func attachTarget(c *Classification, in Input, text string) {
	ref := referenceText(text)
	if ref != "" {
		if t, ok := ResolveTask(ref, in.ActiveTasks); ok {
			c.TargetTaskID, c.TargetTaskName = strPtr(t.ID), strPtr(t.Summary)
			c.Confidence = min(c.Confidence+0.1, 0.8)
			return
		}
		if len(MatchTasks(ref, in.ActiveTasks)) > 0 || !HasPronoun(text) {
			c.TargetTaskName = strPtr(ref)
			return
		}
	}
	if t, ok := ResolveReference(in); ok {
		c.TargetTaskID, c.TargetTaskName = strPtr(t.ID), strPtr(t.Summary)
		return
	}
	if ref != "" {
		c.TargetTaskName = strPtr(ref)
	}
}

// refersToExisting reports whether msg names an active task or points back
// at one.
func refersToExisting(in Input, msg string) bool {
	if len(MatchTasks(referenceText(msg), in.ActiveTasks)) > 0 {
		return true
	}
	if HasPronoun(msg) {
		_, ok := ResolveReference(in)
		return ok
	}
	return false
}

func classifyExpense(msg, s string) *Classification {
	var amount, currency string
	switch {
	case expenseSymbolRe.MatchString(msg):
		m := expenseSymbolRe.FindStringSubmatch(msg)
		currency, amount = currencyCodes[m[1]], m[2]
	case expenseWordRe.MatchString(msg):
		m := expenseWordRe.FindStringSubmatch(msg)
		amount, currency = m[1], currencyCodes[strings.ToLower(m[2])]
	case expenseVerbRe.MatchString(msg):
		amount = expenseVerbRe.FindStringSubmatch(msg)[1]
	default:
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(amount, ",", "."), 64)
	if err != nil {
		return nil
	}

	return keywordResult(Expense, keywordStrong, "amount spent", func(p *Parameters) {
		p.Amount = &v
		if currency != "" {
			p.Currency = strPtr(currency)
		}
		if m := merchantRe.FindStringSubmatch(msg); m != nil {
			p.Merchant = strPtr(m[1])
		}
		for _, ec := range expenseCategories {
			if containsAny(s, ec.keywords...) {
				p.ExpenseCategory = strPtr(ec.category)
				break
			}
		}
	})
}

func classifyPartner(msg, s string, tokens map[string]bool, partnerName, due string, hasTime bool) *Classification {
	ref := ""
	for _, n := range partnerNouns {
		if strings.Contains(s, n) {
			ref = n
			break
		}
	}
	if ref == "" && partnerName != "" {
		if name := strings.ToLower(strings.TrimSpace(partnerName)); tokens[name] {
			ref = name
		}
	}
	if ref == "" {
		return nil
	}

	action := ""
	switch {
	case containsTokenAny(tokens, "remind"):
		action = PartnerRemind
	case containsTokenAny(tokens, "ask"):
		action = PartnerAsk
	case containsTokenAny(tokens, "tell", "let", "message", "text"):
		action = PartnerTell
	default:
		return nil
	}

	// Offsets come from msg itself; lowercasing can change byte lengths.
	content := ""
	if loc := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(ref)).FindStringIndex(msg); loc != nil {
		rest := strings.TrimSpace(msg[loc[1]:])
		for _, p := range []string{"know ", "to ", "that ", "about ", "if "} {
			if len(rest) >= len(p) && strings.EqualFold(rest[:len(p)], p) {
				rest = strings.TrimSpace(rest[len(p):])
			}
		}
		content = rest
	}

	return keywordResult(PartnerMessage, keywordStrong, "partner relay", func(p *Parameters) {
		p.PartnerAction = strPtr(action)
		if content != "" {
			p.PartnerMessageContent = strPtr(content)
		}
		if hasTime {
			p.DueDateExpression = strPtr(due)
		}
	})
}

func chatSubtype(s string, tokens map[string]bool) (string, bool) {
	switch {
	case containsAny(s, "weekly summary", "summarize my week", "summary of my week", "week in review", "how was my week", "recap"):
		return ChatWeeklySummary, true
	case containsAny(s, "plan my", "help me plan", "planning", "plan the week", "plan our"):
		return ChatPlanning, true
	case containsAny(s, "briefing", "brief me", "good morning", "what's on today", "whats on today", "my day look"):
		return ChatBriefing, true
	case containsTokenAny(tokens, "stressed", "overwhelmed", "anxious", "sad", "exhausted", "lonely") || containsAny(s, "i feel", "feeling"):
		return ChatEmotional, true
	case containsAny(s, "should i", "advice", "recommend", "suggest", "any tips"):
		return ChatAdvice, true
	case containsAny(s, "what can you do", "how do i use", "how does olive") || s == "help":
		return ChatHelp, true
	case containsTokenAny(tokens, "hi", "hello", "hey", "thanks", "thank", "thx") || containsAny(s, "good night", "how are you"):
		return ChatGeneral, true
	}
	return "", false
}

func containsAny(s string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func containsTokenAny(tokens map[string]bool, keywords ...string) bool {
	for _, kw := range keywords {
		if tokens[kw] {
			return true
		}
	}
	return false
}
