package cmd

import (
	"fmt"

	"github.com/oliveapp/olive/internal/intent"
)

// formatParameters lists the non-null parameters as name=value.
func formatParameters(p intent.Parameters) []string {
	var out []string
	str := func(name string, v *string) {
		if v != nil {
			out = append(out, fmt.Sprintf("%s=%q", name, *v))
		}
	}
	str("task_description", p.TaskDescription)
	str("due_date_expression", p.DueDateExpression)
	str("priority", p.Priority)
	str("list_name", p.ListName)
	str("assignee_name", p.AssigneeName)
	if p.Amount != nil {
		out = append(out, fmt.Sprintf("amount=%.2f", *p.Amount))
	}
	str("currency", p.Currency)
	str("merchant", p.Merchant)
	str("expense_category", p.ExpenseCategory)
	str("chat_type", p.ChatType)
	str("partner_action", p.PartnerAction)
	str("partner_message_content", p.PartnerMessageContent)
	str("search_query", p.SearchQuery)
	if p.IsUrgent != nil {
		out = append(out, fmt.Sprintf("is_urgent=%v", *p.IsUrgent))
	}
	return out
}
