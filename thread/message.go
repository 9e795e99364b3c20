// Package thread implements the conversation thread: the ordered, append-only
// log of one conversation that doubles as the model's memory and the host's
// render model.
//
// Only two mutations exist after a message is appended. A tool step's result
// is filled once, and a proposed action's data may be replaced by an edit
// until it is resolved. Confirming, rejecting, answering, and hiding only
// raise flags; nothing is ever removed.
package thread

import (
	"time"

	"github.com/tailored-agentic-units/course-agent/actions"
	"github.com/tailored-agentic-units/course-agent/core/protocol"
)

// Kind tags the variant a Message holds.
type Kind string

const (
	KindUser      Kind = "user"
	KindAssistant Kind = "assistant"
	KindToolStep  Kind = "tool_step"
	KindAskUser   Kind = "ask_user"
	KindAction    Kind = "action"
)

// StepResult is the outcome of a tool step as fed back to the model.
type StepResult struct {
	Content string `json:"content"`
	IsError bool   `json:"isError,omitempty"`
}

// Message is one entry of a Thread. Which fields are meaningful depends on
// Kind:
//
//	user       Text
//	assistant  Text, Markup
//	tool_step  Tool, Label, Params, Result
//	ask_user   Question, Continuation, Answered
//	action     Action, Data, Confirmed, Rejected, Hidden
type Message struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`

	Text   string `json:"text,omitempty"`
	Markup bool   `json:"markup,omitempty"`

	Tool   string         `json:"tool,omitempty"`
	Label  string         `json:"label,omitempty"`
	Params map[string]any `json:"params,omitempty"`
	Result *StepResult    `json:"result,omitempty"`

	Question     string             `json:"question,omitempty"`
	Continuation []protocol.Message `json:"continuation,omitempty"`
	Answered     bool               `json:"answered,omitempty"`

	Action    string         `json:"action,omitempty"`
	Data      actions.Fields `json:"data,omitempty"`
	Confirmed bool           `json:"confirmed,omitempty"`
	Rejected  bool           `json:"rejected,omitempty"`
	Hidden    bool           `json:"hidden,omitempty"`
}

// Resolved reports whether an action message was confirmed or rejected.
func (m Message) Resolved() bool {
	return m.Confirmed || m.Rejected
}

// Actionable reports whether m is an action still awaiting a decision.
func (m Message) Actionable() bool {
	return m.Kind == KindAction && !m.Resolved()
}

// Pending returns the PendingAction an action message carries.
func (m Message) Pending() actions.PendingAction {
	return actions.PendingAction{Type: m.Action, Data: m.Data.Clone()}
}

func (m Message) clone() Message {
	out := m
	if m.Params != nil {
		out.Params = actions.Fields(m.Params).Clone()
	}
	if m.Result != nil {
		r := *m.Result
		out.Result = &r
	}
	out.Continuation = protocol.CloneMessages(m.Continuation)
	out.Data = m.Data.Clone()
	return out
}
