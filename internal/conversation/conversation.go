// Package conversation holds the chat turn types shared by the context
// builder, the intent classifier and the store.
package conversation

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn. Order in a slice is chronological,
// most recent last.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Tail returns the last n messages. It does NOT copy the backing array.
func Tail(msgs []Message, n int) []Message {
	if n <= 0 {
		return nil
	}
	if len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}

// Split divides msgs into everything before the last n turns and the last n turns.
func Split(msgs []Message, n int) (older, recent []Message) {
	if n <= 0 {
		return msgs, nil
	}
	if len(msgs) <= n {
		return nil, msgs
	}
	cut := len(msgs) - n
	return msgs[:cut], msgs[cut:]
}
