// Package intent maps one user message plus conversational state to exactly
// one structured intent.
//
// Classifier calls a structured-generation backend once, validates the
// document locally and never returns an error: any failure yields a Result
// with a nil Classification. Fallback is the deterministic keyword path
// callers use when that happens.
package intent

import (
	"time"

	"github.com/oliveapp/olive/internal/conversation"
	"github.com/oliveapp/olive/internal/provider"
)

// Intent is one member of the closed action vocabulary.
type Intent string

const (
	Search         Intent = "search"
	Create         Intent = "create"
	Complete       Intent = "complete"
	SetPriority    Intent = "set_priority"
	SetDue         Intent = "set_due"
	Delete         Intent = "delete"
	Move           Intent = "move"
	Assign         Intent = "assign"
	Remind         Intent = "remind"
	Expense        Intent = "expense"
	Chat           Intent = "chat"
	ContextualAsk  Intent = "contextual_ask"
	Merge          Intent = "merge"
	PartnerMessage Intent = "partner_message"
)

var vocabulary = []Intent{
	Search, Create, Complete, SetPriority, SetDue, Delete, Move,
	Assign, Remind, Expense, Chat, ContextualAsk, Merge, PartnerMessage,
}

// All returns the full vocabulary.
func All() []Intent { return append([]Intent(nil), vocabulary...) }

// Valid reports whether i is in the vocabulary.
func (i Intent) Valid() bool {
	for _, v := range vocabulary {
		if i == v {
			return true
		}
	}
	return false
}

// TargetsTask reports whether the intent acts on an existing task.
func (i Intent) TargetsTask() bool {
	switch i {
	case Complete, SetPriority, SetDue, Delete, Move, Assign, Remind, Merge:
		return true
	}
	return false
}

// Chat sub-types.
const (
	ChatBriefing      = "briefing"
	ChatWeeklySummary = "weekly_summary"
	ChatPlanning      = "planning"
	ChatAdvice        = "advice"
	ChatEmotional     = "emotional"
	ChatHelp          = "help"
	ChatGeneral       = "general"
)

var chatTypes = []string{ChatBriefing, ChatWeeklySummary, ChatPlanning, ChatAdvice, ChatEmotional, ChatHelp, ChatGeneral}

// Partner actions.
const (
	PartnerRemind = "remind"
	PartnerTell   = "tell"
	PartnerAsk    = "ask"
)

var partnerActions = []string{PartnerRemind, PartnerTell, PartnerAsk}

// Priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

var priorities = []string{PriorityLow, PriorityMedium, PriorityHigh}

// Task is an open task the message may refer to.
type Task struct {
	ID       string     `json:"id"`
	Summary  string     `json:"summary"`
	DueDate  *time.Time `json:"due_date,omitempty"`
	Priority string     `json:"priority,omitempty"`
}

// Memory is a durable fact about the user.
type Memory struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category,omitempty"`
}

// Skill is an enabled capability plugin.
type Skill struct {
	SkillID string `json:"skill_id"`
	Name    string `json:"name"`
}

// Input is the immutable snapshot for one classification.
type Input struct {
	Message                string                 `json:"message"`
	ConversationHistory    []conversation.Message `json:"conversation_history,omitempty"`
	RecentOutboundMessages []string               `json:"recent_outbound_messages,omitempty"`
	ActiveTasks            []Task                 `json:"active_tasks,omitempty"`
	UserMemories           []Memory               `json:"user_memories,omitempty"`
	ActivatedSkills        []Skill                `json:"activated_skills,omitempty"`
	// UserLanguage defaults to "en".
	UserLanguage string `json:"user_language,omitempty"`
	// PartnerName lets partner relays be recognized by name.
	PartnerName string `json:"partner_name,omitempty"`
	// Now anchors relative dates in the prompt; zero means time.Now().
	Now time.Time `json:"-"`
}

// Prompt caps.
const (
	maxHistoryTurns = 6
	maxPromptTasks  = 30
	maxMemories     = 10
)

func (in Input) language() string {
	if in.UserLanguage == "" {
		return "en"
	}
	return in.UserLanguage
}

// Parameters is the fixed-shape parameter record. Every field is
// independently nullable; fields irrelevant to the intent are nil.
type Parameters struct {
	TaskDescription       *string  `json:"task_description"`
	DueDateExpression     *string  `json:"due_date_expression"`
	Priority              *string  `json:"priority"`
	ListName              *string  `json:"list_name"`
	AssigneeName          *string  `json:"assignee_name"`
	Amount                *float64 `json:"amount"`
	Currency              *string  `json:"currency"`
	Merchant              *string  `json:"merchant"`
	ExpenseCategory       *string  `json:"expense_category"`
	ChatType              *string  `json:"chat_type"`
	PartnerAction         *string  `json:"partner_action"`
	PartnerMessageContent *string  `json:"partner_message_content"`
	SearchQuery           *string  `json:"search_query"`
	IsUrgent              *bool    `json:"is_urgent"`
}

// Classification is the classifier's structured decision.
type Classification struct {
	Intent           Intent     `json:"intent"`
	TargetTaskID     *string    `json:"target_task_id"`
	TargetTaskName   *string    `json:"target_task_name"`
	MatchedSkillID   *string    `json:"matched_skill_id"`
	MatchedSkillName *string    `json:"matched_skill_name"`
	Parameters       Parameters `json:"parameters"`
	Confidence       float64    `json:"confidence"`
	Reasoning        string     `json:"reasoning"`
}

// NeedsDisambiguation reports the documented ambiguous-reference outcome:
// a task-targeting intent with a name but no resolved id.
func (c *Classification) NeedsDisambiguation() bool {
	return c != nil && c.Intent.TargetsTask() && c.TargetTaskID == nil && c.TargetTaskName != nil
}

// ChatType returns the chat sub-type, or "" when absent.
func (c *Classification) ChatType() string {
	if c == nil || c.Parameters.ChatType == nil {
		return ""
	}
	return *c.Parameters.ChatType
}

// Result is what Classify returns. A nil Classification means "use the
// fallback path"; it is not an error.
type Result struct {
	Classification *Classification `json:"classification"`
	LatencyMs      int64           `json:"latency_ms"`
	Model          string          `json:"model,omitempty"`
	Usage          provider.Usage  `json:"usage"`
}

// Intent returns the classified intent or nil.
func (r Result) Intent() *Intent {
	if r.Classification == nil {
		return nil
	}
	i := r.Classification.Intent
	return &i
}

// Band is an advisory confidence class.
type Band string

const (
	BandClear         Band = "clear"
	BandModerate      Band = "moderate"
	BandUncertain     Band = "uncertain"
	BandVeryAmbiguous Band = "very_ambiguous"
)

// BandFor maps confidence to its band: >=0.9 clear, >=0.7 moderate,
// >=0.5 uncertain, otherwise very ambiguous.
func BandFor(confidence float64) Band {
	switch {
	case confidence >= 0.9:
		return BandClear
	case confidence >= 0.7:
		return BandModerate
	case confidence >= 0.5:
		return BandUncertain
	}
	return BandVeryAmbiguous
}

func strPtr(s string) *string { return &s }

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
