// Package protocol defines the wire vocabulary shared between the loop driver,
// the model transport, and the response interpreter: model-input turns and the
// canonical model reply.
package protocol

// Role identifies the sender of a model-input turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn of model input. The conversation thread is the
// source of these turns; the loop driver appends tool results and corrective
// instructions as user turns while a turn is in flight.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewMessage creates a Message with the given role and content.
//
// Example:
//
//	msg := protocol.NewMessage(protocol.RoleUser, "List my assignments")
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

// InitMessages creates a single-element message slice from a role and content string.
func InitMessages(role Role, content string) []Message {
	return []Message{NewMessage(role, content)}
}

// CloneMessages returns a copy of msgs that does not share backing storage.
func CloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
