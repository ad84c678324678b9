package chat

// Role attributes a turn to one side of the conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ValidRole reports whether r is one of the two conversation roles.
func ValidRole(r Role) bool {
	return r == RoleUser || r == RoleAssistant
}

// Turn is one message in the conversation, in chat order.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
