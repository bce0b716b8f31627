package intent

import (
	"fmt"
	"strings"
	"time"

	"github.com/oliveapp/olive/internal/conversation"
)

const systemPrompt = `You classify one message sent to Olive, a shared life organizer for couples.
Return exactly one intent from: search, create, complete, set_priority, set_due, delete, move, assign, remind, expense, chat, contextual_ask, merge, partner_message.

Rules:
1. Resolve "it", "that", "this", "the last one" from the conversation. The most recent task mentioned wins.
2. A task matches only if EVERY meaningful word of the user's reference appears in its summary. Partial overlap is not a match.
   If exactly one active task matches, set target_task_id to its id.
   If several match equally, set target_task_id to null and target_task_name to the user's words.
3. "change", "move", "postpone", "reschedule", "push" with a time mean set_due on an existing task, never create.
4. A bare topic with no verb (e.g. "groceries") is search. Use create only when the user clearly describes something new to save.
5. Money spent ("$40 at Trader Joe's") is expense. Messages for the partner ("tell Sam...", "remind my wife...") are partner_message.
6. Questions about saved notes, memories or past activity are contextual_ask. Conversation, advice, planning and summaries are chat with a chat_type.
7. Fill only parameters that apply to the chosen intent. Everything else is null.

Confidence: 0.9+ clear, 0.7-0.9 moderate, 0.5-0.7 uncertain, below 0.5 very ambiguous.`

// buildPrompt renders the per-request context. Lists are capped so prompt
// size stays bounded regardless of store size.
func buildPrompt(in Input) string {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Current time: %s\n", now.Format("Monday 2006-01-02 15:04"))
	fmt.Fprintf(&sb, "User language: %s\n", in.language())
	if in.PartnerName != "" {
		fmt.Fprintf(&sb, "Partner name: %s\n", in.PartnerName)
	}

	sb.WriteString("\nActive tasks:\n")
	if len(in.ActiveTasks) == 0 {
		sb.WriteString("(none)\n")
	}
	for i, t := range in.ActiveTasks {
		if i >= maxPromptTasks {
			fmt.Fprintf(&sb, "... %d more not shown\n", len(in.ActiveTasks)-maxPromptTasks)
			break
		}
		fmt.Fprintf(&sb, "- [%s] %s", t.ID, t.Summary)
		var meta []string
		if t.DueDate != nil {
			meta = append(meta, "due "+t.DueDate.Format("2006-01-02 15:04"))
		}
		if t.Priority != "" {
			meta = append(meta, "priority "+t.Priority)
		}
		if len(meta) > 0 {
			fmt.Fprintf(&sb, " (%s)", strings.Join(meta, ", "))
		}
		sb.WriteByte('\n')
	}

	if len(in.UserMemories) > 0 {
		sb.WriteString("\nWhat Olive knows about the user:\n")
		for i, m := range in.UserMemories {
			if i >= maxMemories {
				break
			}
			if m.Category != "" {
				fmt.Fprintf(&sb, "- [%s] %s: %s\n", m.Category, m.Title, m.Content)
			} else {
				fmt.Fprintf(&sb, "- %s: %s\n", m.Title, m.Content)
			}
		}
	}

	if len(in.ActivatedSkills) > 0 {
		sb.WriteString("\nActivated skills:\n")
		for _, s := range in.ActivatedSkills {
			fmt.Fprintf(&sb, "- [%s] %s\n", s.SkillID, s.Name)
		}
	}

	if len(in.RecentOutboundMessages) > 0 {
		sb.WriteString("\nOlive recently sent:\n")
		for _, m := range in.RecentOutboundMessages {
			fmt.Fprintf(&sb, "- %s\n", oneLine(m))
		}
	}

	if hist := conversation.Tail(in.ConversationHistory, maxHistoryTurns); len(hist) > 0 {
		sb.WriteString("\nConversation (oldest first):\n")
		for _, m := range hist {
			fmt.Fprintf(&sb, "%s: %s\n", m.Role, oneLine(m.Content))
		}
	}

	fmt.Fprintf(&sb, "\nMessage to classify:\n%s\n", strings.TrimSpace(in.Message))
	return sb.String()
}

func oneLine(s string) string { return strings.Join(strings.Fields(s), " ") }
