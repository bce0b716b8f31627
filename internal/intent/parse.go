package intent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/tidwall/gjson"
)

// ParseError describes why a backend document was rejected.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string { return "invalid classification: " + e.Reason }

// Parse validates a backend document and normalizes it against in.
// The intent must be in the vocabulary and confidence must be numeric;
// anything else is a *ParseError.
func Parse(raw []byte, in Input) (*Classification, error) {
	raw = bytes.TrimSpace(raw)
	if !gjson.ValidBytes(raw) {
		return nil, &ParseError{Reason: "not valid JSON"}
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return nil, &ParseError{Reason: "document is not an object"}
	}

	iv := root.Get("intent")
	if iv.Type != gjson.String {
		return nil, &ParseError{Reason: "intent missing or not a string"}
	}
	if it := Intent(iv.String()); !it.Valid() {
		return nil, &ParseError{Reason: fmt.Sprintf("intent %q outside vocabulary", iv.String())}
	}
	if cv := root.Get("confidence"); cv.Type != gjson.Number {
		return nil, &ParseError{Reason: "confidence missing or not a number"}
	}
	if pv := root.Get("parameters"); pv.Exists() && pv.Type != gjson.Null && !pv.IsObject() {
		return nil, &ParseError{Reason: "parameters is not an object"}
	}

	var c Classification
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, &ParseError{Reason: "decode: " + err.Error()}
	}
	normalize(&c, in)
	return &c, nil
}

// normalize enforces the output contract on a decoded classification:
// confidence in [0,1], parameters restricted to the intent, and task/skill
// references that point only at things the user actually has.
func normalize(c *Classification, in Input) {
	switch {
	case math.IsNaN(c.Confidence) || c.Confidence < 0:
		c.Confidence = 0
	case c.Confidence > 1:
		c.Confidence = 1
	}
	c.Reasoning = strings.TrimSpace(c.Reasoning)
	c.Parameters = restrictParameters(c.Intent, c.Parameters)

	if !c.Intent.TargetsTask() {
		c.TargetTaskID, c.TargetTaskName = nil, nil
	} else {
		resolveTarget(c, in.ActiveTasks)
	}

	c.MatchedSkillID, c.MatchedSkillName = resolveSkill(c.MatchedSkillID, in.ActivatedSkills)
}

func resolveTarget(c *Classification, tasks []Task) {
	c.TargetTaskID = blankToNil(c.TargetTaskID)
	c.TargetTaskName = blankToNil(c.TargetTaskName)

	if c.TargetTaskID != nil {
		t, ok := findTask(tasks, *c.TargetTaskID)
		if !ok {
			c.TargetTaskID = nil
		} else if c.TargetTaskName == nil {
			c.TargetTaskName = strPtr(t.Summary)
		}
	}
	if c.TargetTaskID == nil && c.TargetTaskName != nil {
		if t, ok := ResolveTask(*c.TargetTaskName, tasks); ok {
			c.TargetTaskID = strPtr(t.ID)
		}
	}
}

func findTask(tasks []Task, id string) (Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

func resolveSkill(id *string, skills []Skill) (*string, *string) {
	id = blankToNil(id)
	if id == nil {
		return nil, nil
	}
	for _, s := range skills {
		if s.SkillID == *id {
			return strPtr(s.SkillID), strPtr(s.Name)
		}
	}
	return nil, nil
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// restrictParameters keeps only the fields meaningful for the intent and
// drops enum fields holding unknown values.
func restrictParameters(i Intent, p Parameters) Parameters {
	var out Parameters
	switch i {
	case Create:
		out.TaskDescription = p.TaskDescription
		out.DueDateExpression = p.DueDateExpression
		out.Priority = p.Priority
		out.ListName = p.ListName
		out.AssigneeName = p.AssigneeName
		out.IsUrgent = p.IsUrgent
	case SetPriority:
		out.Priority = p.Priority
		out.IsUrgent = p.IsUrgent
	case SetDue:
		out.DueDateExpression = p.DueDateExpression
	case Move:
		out.ListName = p.ListName
	case Assign:
		out.AssigneeName = p.AssigneeName
	case Remind:
		out.TaskDescription = p.TaskDescription
		out.DueDateExpression = p.DueDateExpression
	case Merge:
		out.TaskDescription = p.TaskDescription
	case Expense:
		out.Amount = p.Amount
		out.Currency = p.Currency
		out.Merchant = p.Merchant
		out.ExpenseCategory = p.ExpenseCategory
	case Chat:
		out.ChatType = p.ChatType
	case PartnerMessage:
		out.PartnerAction = p.PartnerAction
		out.PartnerMessageContent = p.PartnerMessageContent
		out.DueDateExpression = p.DueDateExpression
	case Search:
		out.SearchQuery = p.SearchQuery
		out.ListName = p.ListName
	case ContextualAsk:
		out.SearchQuery = p.SearchQuery
	}

	out.TaskDescription = blankToNil(out.TaskDescription)
	out.DueDateExpression = blankToNil(out.DueDateExpression)
	out.ListName = blankToNil(out.ListName)
	out.AssigneeName = blankToNil(out.AssigneeName)
	out.Currency = blankToNil(out.Currency)
	out.Merchant = blankToNil(out.Merchant)
	out.ExpenseCategory = blankToNil(out.ExpenseCategory)
	out.PartnerMessageContent = blankToNil(out.PartnerMessageContent)
	out.SearchQuery = blankToNil(out.SearchQuery)
	out.Priority = enumOrNil(out.Priority, priorities)
	out.ChatType = enumOrNil(out.ChatType, chatTypes)
	out.PartnerAction = enumOrNil(out.PartnerAction, partnerActions)
	if out.Amount != nil && (math.IsNaN(*out.Amount) || math.IsInf(*out.Amount, 0)) {
		out.Amount = nil
	}
	return out
}

func enumOrNil(v *string, allowed []string) *string {
	if v == nil {
		return nil
	}
	s := strings.ToLower(strings.TrimSpace(*v))
	if !contains(allowed, s) {
		return nil
	}
	return &s
}
