package intent

import (
	"testing"

	"github.com/oliveapp/olive/internal/conversation"
)

func TestClassifyKeywords(t *testing.T) {
	dentistHistory := []conversation.Message{
		{Role: conversation.RoleUser, Content: "add dentist appointment tomorrow"},
		{Role: conversation.RoleAssistant, Content: "Added Dentist appointment for tomorrow"},
	}
	dentistTasks := []Task{
		{ID: "d1", Summary: "Dentist appointment"},
		{ID: "m1", Summary: "Buy milk"},
	}

	tests := []struct {
		name     string
		in       Input
		want     Intent
		wantID   string
		wantName string
		check    func(t *testing.T, p Parameters)
	}{
		{
			name:     "pronoun time change",
			in:       Input{Message: "change it to 7am", ConversationHistory: dentistHistory, ActiveTasks: dentistTasks},
			want:     SetDue,
			wantID:   "d1",
			wantName: "Dentist appointment",
			check: func(t *testing.T, p Parameters) {
				if deref(p.DueDateExpression) != "7am" {
					t.Fatalf("DueDateExpression = %q, want 7am", deref(p.DueDateExpression))
				}
				if p.TaskDescription != nil {
					t.Fatal("TaskDescription set on set_due")
				}
			},
		},
		{
			name:     "conjunctive completion",
			in:       Input{Message: "Dental Milka complete", ActiveTasks: milkaTasks},
			want:     Complete,
			wantID:   "t1",
			wantName: "Dental Milka",
		},
		{
			name:     "completion skips the task sharing one token",
			in:       Input{Message: "Dental Milka complete", ActiveTasks: howlTasks},
			want:     Complete,
			wantID:   "dental",
			wantName: "Dental Milka",
		},
		{
			name:     "bare shared token needs disambiguation",
			in:       Input{Message: "Milka done", ActiveTasks: howlTasks},
			want:     Complete,
			wantName: "Milka",
		},
		{
			name: "pronoun time change among unrelated tasks",
			in: Input{
				Message: "change it to 7am",
				ConversationHistory: []conversation.Message{
					{Role: conversation.RoleUser, Content: "add a dentist appointment tomorrow"},
					{Role: conversation.RoleAssistant, Content: "Added Dentist appointment for tomorrow"},
				},
				ActiveTasks: append([]Task{{ID: "d1", Summary: "Dentist appointment"}}, howlTasks...),
			},
			want:     SetDue,
			wantID:   "d1",
			wantName: "Dentist appointment",
			check: func(t *testing.T, p Parameters) {
				if deref(p.DueDateExpression) != "7am" {
					t.Fatalf("DueDateExpression = %q, want 7am", deref(p.DueDateExpression))
				}
			},
		},
		{
			name: "partner relay after non-ASCII text",
			in:   Input{Message: "ȺȺȺȺ tell my wife to call the vet"},
			want: PartnerMessage,
			check: func(t *testing.T, p Parameters) {
				if deref(p.PartnerMessageContent) != "call the vet" {
					t.Fatalf("PartnerMessageContent = %q, want call the vet", deref(p.PartnerMessageContent))
				}
			},
		},
		{
			name: "partner relay with case-folded reference",
			in:   Input{Message: "İ TELL MY WIFE that dinner is at 8"},
			want: PartnerMessage,
			check: func(t *testing.T, p Parameters) {
				if deref(p.PartnerMessageContent) != "dinner is at 8" {
					t.Fatalf("PartnerMessageContent = %q, want dinner is at 8", deref(p.PartnerMessageContent))
				}
			},
		},
		{
			name:     "partial overlap does not match",
			in:       Input{Message: "Dental Milka complete", ActiveTasks: []Task{{ID: "t2", Summary: "Dental cleaning"}}},
			want:     Complete,
			wantName: "Dental Milka",
		},
		{
			name:     "ambiguous completion",
			in:       Input{Message: "call done", ActiveTasks: []Task{{ID: "a", Summary: "Call mom"}, {ID: "b", Summary: "Call dad"}}},
			want:     Complete,
			wantName: "call",
		},
		{
			name:     "postpone",
			in:       Input{Message: "postpone buy milk to next week", ActiveTasks: dentistTasks},
			want:     SetDue,
			wantID:   "m1",
			wantName: "Buy milk",
			check: func(t *testing.T, p Parameters) {
				if deref(p.DueDateExpression) != "next week" {
					t.Fatalf("DueDateExpression = %q, want next week", deref(p.DueDateExpression))
				}
			},
		},
		{
			name:     "delete",
			in:       Input{Message: "delete the milk task", ActiveTasks: dentistTasks},
			want:     Delete,
			wantID:   "m1",
			wantName: "Buy milk",
		},
		{
			name:     "move to list",
			in:       Input{Message: "move milk to the Shopping list", ActiveTasks: dentistTasks},
			want:     Move,
			wantID:   "m1",
			wantName: "Buy milk",
			check: func(t *testing.T, p Parameters) {
				if deref(p.ListName) != "Shopping" {
					t.Fatalf("ListName = %q, want Shopping", deref(p.ListName))
				}
			},
		},
		{
			name: "expense",
			in:   Input{Message: "spent $45 at Trader Joe's on groceries"},
			want: Expense,
			check: func(t *testing.T, p Parameters) {
				if p.Amount == nil || *p.Amount != 45 {
					t.Fatalf("Amount = %v, want 45", p.Amount)
				}
				if deref(p.Currency) != "USD" {
					t.Fatalf("Currency = %q, want USD", deref(p.Currency))
				}
				if deref(p.Merchant) != "Trader Joe's" {
					t.Fatalf("Merchant = %q, want Trader Joe's", deref(p.Merchant))
				}
				if deref(p.ExpenseCategory) != "groceries" {
					t.Fatalf("ExpenseCategory = %q, want groceries", deref(p.ExpenseCategory))
				}
			},
		},
		{
			name: "partner relay",
			in:   Input{Message: "tell my wife to pick up the kids at 5pm"},
			want: PartnerMessage,
			check: func(t *testing.T, p Parameters) {
				if deref(p.PartnerAction) != PartnerTell {
					t.Fatalf("PartnerAction = %q, want tell", deref(p.PartnerAction))
				}
				if deref(p.PartnerMessageContent) != "pick up the kids at 5pm" {
					t.Fatalf("PartnerMessageContent = %q", deref(p.PartnerMessageContent))
				}
				if deref(p.DueDateExpression) != "5pm" {
					t.Fatalf("DueDateExpression = %q, want 5pm", deref(p.DueDateExpression))
				}
			},
		},
		{
			name: "partner by name",
			in:   Input{Message: "ask Sam about dinner plans", PartnerName: "Sam"},
			want: PartnerMessage,
			check: func(t *testing.T, p Parameters) {
				if deref(p.PartnerAction) != PartnerAsk {
					t.Fatalf("PartnerAction = %q, want ask", deref(p.PartnerAction))
				}
				if deref(p.PartnerMessageContent) != "dinner plans" {
					t.Fatalf("PartnerMessageContent = %q, want dinner plans", deref(p.PartnerMessageContent))
				}
			},
		},
		{
			name: "remind me",
			in:   Input{Message: "remind me to call the plumber tomorrow"},
			want: Remind,
			check: func(t *testing.T, p Parameters) {
				if deref(p.TaskDescription) != "call the plumber" {
					t.Fatalf("TaskDescription = %q, want call the plumber", deref(p.TaskDescription))
				}
				if deref(p.DueDateExpression) != "tomorrow" {
					t.Fatalf("DueDateExpression = %q, want tomorrow", deref(p.DueDateExpression))
				}
			},
		},
		{
			name: "bare topic is search",
			in:   Input{Message: "groceries"},
			want: Search,
		},
		{
			name: "task question",
			in:   Input{Message: "what's due tomorrow?"},
			want: Search,
		},
		{
			name: "saved context question",
			in:   Input{Message: "what's the wifi password?"},
			want: ContextualAsk,
		},
		{
			name: "greeting",
			in:   Input{Message: "hello there"},
			want: Chat,
			check: func(t *testing.T, p Parameters) {
				if deref(p.ChatType) != ChatGeneral {
					t.Fatalf("ChatType = %q, want general", deref(p.ChatType))
				}
			},
		},
		{
			name: "emotional",
			in:   Input{Message: "I'm so overwhelmed this week"},
			want: Chat,
			check: func(t *testing.T, p Parameters) {
				if deref(p.ChatType) != ChatEmotional {
					t.Fatalf("ChatType = %q, want emotional", deref(p.ChatType))
				}
			},
		},
		{
			name: "weekly summary",
			in:   Input{Message: "give me a weekly summary"},
			want: Chat,
			check: func(t *testing.T, p Parameters) {
				if deref(p.ChatType) != ChatWeeklySummary {
					t.Fatalf("ChatType = %q, want weekly_summary", deref(p.ChatType))
				}
			},
		},
		{
			name: "new task",
			in:   Input{Message: "buy milk tomorrow"},
			want: Create,
			check: func(t *testing.T, p Parameters) {
				if deref(p.TaskDescription) != "buy milk tomorrow" {
					t.Fatalf("TaskDescription = %q", deref(p.TaskDescription))
				}
				if deref(p.DueDateExpression) != "tomorrow" {
					t.Fatalf("DueDateExpression = %q, want tomorrow", deref(p.DueDateExpression))
				}
			},
		},
		{
			name: "empty",
			in:   Input{Message: "   "},
			want: Chat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ClassifyKeywords(tt.in)
			if c == nil {
				t.Fatal("ClassifyKeywords returned nil")
			}
			if c.Intent != tt.want {
				t.Fatalf("ClassifyKeywords(%q).Intent = %q, want %q (%s)", tt.in.Message, c.Intent, tt.want, c.Reasoning)
			}
			if got := deref(c.TargetTaskID); got != tt.wantID {
				t.Fatalf("TargetTaskID = %q, want %q", got, tt.wantID)
			}
			if got := deref(c.TargetTaskName); got != tt.wantName {
				t.Fatalf("TargetTaskName = %q, want %q", got, tt.wantName)
			}
			if c.Confidence <= 0 || c.Confidence > 0.8 {
				t.Fatalf("Confidence = %v, want in (0, 0.8]", c.Confidence)
			}
			if tt.check != nil {
				tt.check(t, c.Parameters)
			}
		})
	}
}

func TestClassifyKeywordsAlwaysInVocabulary(t *testing.T) {
	msgs := []string{
		"", "?", "!!!", "12", "$", "it", "the last one", "done", "asap", "move", "remind me",
		"merge the two grocery tasks", "assign dishes to Sam", "make laundry urgent",
	}
	for _, m := range msgs {
		c := ClassifyKeywords(Input{Message: m, ActiveTasks: milkaTasks})
		if !c.Intent.Valid() {
			t.Fatalf("ClassifyKeywords(%q).Intent = %q, not in vocabulary", m, c.Intent)
		}
		if !c.Intent.TargetsTask() && (c.TargetTaskID != nil || c.TargetTaskName != nil) {
			t.Fatalf("ClassifyKeywords(%q) set a target on %q", m, c.Intent)
		}
	}
}
