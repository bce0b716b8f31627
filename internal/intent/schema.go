package intent

import "github.com/oliveapp/olive/internal/provider"

// SchemaName names the output document for backends that need one.
const SchemaName = "classify_intent"

func nullableString(desc string) *provider.Schema {
	return &provider.Schema{Type: provider.TypeString, Nullable: true, Description: desc}
}

func nullableEnum(desc string, values []string) *provider.Schema {
	return &provider.Schema{Type: provider.TypeString, Nullable: true, Enum: values, Description: desc}
}

// OutputSchema is the constrained output shape: intent is an enum over the
// vocabulary and every other field is nullable.
func OutputSchema() *provider.Schema {
	intents := make([]string, 0, len(vocabulary))
	for _, i := range vocabulary {
		intents = append(intents, string(i))
	}

	params := &provider.Schema{
		Type: provider.TypeObject,
		Order: []string{
			"task_description", "due_date_expression", "priority", "list_name", "assignee_name",
			"amount", "currency", "merchant", "expense_category", "chat_type",
			"partner_action", "partner_message_content", "search_query", "is_urgent",
		},
		Properties: map[string]*provider.Schema{
			"task_description":        nullableString("Task text for create/remind/merge."),
			"due_date_expression":     nullableString("Time phrase exactly as the user said it, e.g. \"7am\", \"next friday\"."),
			"priority":                nullableEnum("Requested priority.", priorities),
			"list_name":               nullableString("Target list for move/search."),
			"assignee_name":           nullableString("Person a task is assigned to."),
			"amount":                  {Type: provider.TypeNumber, Nullable: true, Description: "Expense amount."},
			"currency":                nullableString("ISO currency code or symbol."),
			"merchant":                nullableString("Where the money was spent."),
			"expense_category":        nullableString("Expense category."),
			"chat_type":               nullableEnum("Chat sub-type; only for chat.", chatTypes),
			"partner_action":          nullableEnum("Relay action; only for partner_message.", partnerActions),
			"partner_message_content": nullableString("What to relay to the partner."),
			"search_query":            nullableString("What to look up."),
			"is_urgent":               {Type: provider.TypeBoolean, Nullable: true, Description: "User flagged urgency."},
		},
	}

	return &provider.Schema{
		Type: provider.TypeObject,
		Order: []string{
			"intent", "target_task_id", "target_task_name", "matched_skill_id", "matched_skill_name",
			"parameters", "confidence", "reasoning",
		},
		Properties: map[string]*provider.Schema{
			"intent":             {Type: provider.TypeString, Enum: intents, Description: "Exactly one action."},
			"target_task_id":     nullableString("Id of the single matching active task, else null."),
			"target_task_name":   nullableString("The user's task reference when it cannot be resolved to one id."),
			"matched_skill_id":   nullableString("Activated skill this message invokes."),
			"matched_skill_name": nullableString("Name of that skill."),
			"parameters":         params,
			"confidence":         {Type: provider.TypeNumber, Description: "0 to 1."},
			"reasoning":          {Type: provider.TypeString, Description: "One short sentence."},
		},
	}
}
