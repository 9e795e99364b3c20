package thread

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/course-agent/actions"
	"github.com/tailored-agentic-units/course-agent/core/protocol"
)

// Renderer is called with a copy of the affected message after every
// mutation. It runs outside the thread's lock and must not mutate the thread.
type Renderer func(Message)

// Thread is the ordered message log of one conversation. It is safe for
// concurrent readers; a turn is expected to have a single writer.
type Thread struct {
	mu       sync.RWMutex
	messages []Message
	index    map[string]int
	render   Renderer
	now      func() time.Time
}

// Option configures a Thread.
type Option func(*Thread)

// WithRenderer sets the callback invoked after each mutation.
func WithRenderer(r Renderer) Option {
	return func(t *Thread) { t.render = r }
}

// WithClock sets the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(t *Thread) { t.now = now }
}

// New creates an empty Thread.
func New(opts ...Option) *Thread {
	t := &Thread{index: make(map[string]int), now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// FromMessages restores a Thread from a saved message log.
func FromMessages(msgs []Message, opts ...Option) *Thread {
	t := New(opts...)
	for _, m := range msgs {
		t.index[m.ID] = len(t.messages)
		t.messages = append(t.messages, m.clone())
	}
	return t
}

// SetRenderer replaces the render callback.
func (t *Thread) SetRenderer(r Renderer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.render = r
}

func (t *Thread) AppendUser(text string) Message {
	return t.append(Message{Kind: KindUser, Text: text})
}

// AppendAssistant appends assistant text. Markup marks text that is already
// rendered markup rather than plain text.
func (t *Thread) AppendAssistant(text string, markup bool) Message {
	return t.append(Message{Kind: KindAssistant, Text: text, Markup: markup})
}

// AppendToolStep appends a tool step whose result is not yet known.
func (t *Thread) AppendToolStep(tool, label string, params map[string]any) Message {
	return t.append(Message{Kind: KindToolStep, Tool: tool, Label: label, Params: params})
}

// AppendAskUser appends a clarification request. The continuation is the
// model-input history to resume from once the user replies.
func (t *Thread) AppendAskUser(question string, continuation []protocol.Message) Message {
	return t.append(Message{Kind: KindAskUser, Question: question, Continuation: continuation})
}

// AppendAction appends a proposed action.
func (t *Thread) AppendAction(p actions.PendingAction) Message {
	return t.append(Message{Kind: KindAction, Action: p.Type, Data: p.Data})
}

func (t *Thread) append(m Message) Message {
	t.mu.Lock()
	m.ID = uuid.Must(uuid.NewV7()).String()
	m.CreatedAt = t.now()
	m = m.clone()
	t.index[m.ID] = len(t.messages)
	t.messages = append(t.messages, m)
	out, render := m.clone(), t.render
	t.mu.Unlock()

	if render != nil {
		render(out)
	}
	return out
}

// SetToolResult fills the result of a tool step. A result can be set once.
func (t *Thread) SetToolResult(id string, r StepResult) error {
	return t.mutate(id, KindToolStep, func(m *Message) error {
		if m.Result != nil {
			return fmt.Errorf("%w: %s", ErrResultSet, id)
		}
		m.Result = &r
		return nil
	})
}

// MarkAnswered records that the user replied to a clarification request.
func (t *Thread) MarkAnswered(id string) error {
	return t.mutate(id, KindAskUser, func(m *Message) error {
		if m.Answered {
			return fmt.Errorf("%w: %s", ErrAnswered, id)
		}
		m.Answered = true
		return nil
	})
}

// Confirm marks an action confirmed and hides it. Confirming a rejected or
// already confirmed action is ErrResolved.
func (t *Thread) Confirm(id string) error {
	return t.mutate(id, KindAction, func(m *Message) error {
		if m.Resolved() {
			return fmt.Errorf("%w: %s", ErrResolved, id)
		}
		m.Confirmed = true
		m.Hidden = true
		return nil
	})
}

// Reject marks an action rejected and hides it. Rejecting a confirmed or
// already rejected action is ErrResolved.
func (t *Thread) Reject(id string) error {
	return t.mutate(id, KindAction, func(m *Message) error {
		if m.Resolved() {
			return fmt.Errorf("%w: %s", ErrResolved, id)
		}
		m.Rejected = true
		m.Hidden = true
		return nil
	})
}

// UpdateAction replaces the data of an unresolved action.
func (t *Thread) UpdateAction(id string, data actions.Fields) error {
	return t.mutate(id, KindAction, func(m *Message) error {
		if m.Resolved() {
			return fmt.Errorf("%w: %s", ErrResolved, id)
		}
		m.Data = data.Clone()
		return nil
	})
}

func (t *Thread) mutate(id string, kind Kind, fn func(*Message) error) error {
	t.mu.Lock()
	i, ok := t.index[id]
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m := &t.messages[i]
	if m.Kind != kind {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s is %s, not %s", ErrWrongKind, id, m.Kind, kind)
	}
	if err := fn(m); err != nil {
		t.mu.Unlock()
		return err
	}
	out, render := m.clone(), t.render
	t.mu.Unlock()

	if render != nil {
		render(out)
	}
	return nil
}

// Get returns a copy of the message with id.
func (t *Thread) Get(id string) (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i, ok := t.index[id]
	if !ok {
		return Message{}, false
	}
	return t.messages[i].clone(), true
}

// Messages returns a copy of the log.
func (t *Thread) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Message, len(t.messages))
	for i, m := range t.messages {
		out[i] = m.clone()
	}
	return out
}

func (t *Thread) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// LatestActionable returns the most recent action that is neither confirmed
// nor rejected. Older unresolved actions stay confirmable by id.
func (t *Thread) LatestActionable() (Message, bool) {
	return t.latest(Message.Actionable)
}

// OpenQuestion returns the most recent clarification request when it is the
// last message of the thread and has not been answered.
func (t *Thread) OpenQuestion() (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.messages) == 0 {
		return Message{}, false
	}
	last := t.messages[len(t.messages)-1]
	if last.Kind != KindAskUser || last.Answered {
		return Message{}, false
	}
	return last.clone(), true
}

func (t *Thread) latest(match func(Message) bool) (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := len(t.messages) - 1; i >= 0; i-- {
		if match(t.messages[i]) {
			return t.messages[i].clone(), true
		}
	}
	return Message{}, false
}

// History derives model-input turns from the thread. Tool steps become the
// assistant's tool call followed by the result as a user turn, clarification
// requests become the assistant's question, and actions become an assistant
// summary carrying their current state.
func (t *Thread) History() []protocol.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []protocol.Message
	for _, m := range t.messages {
		switch m.Kind {
		case KindUser:
			out = append(out, protocol.NewMessage(protocol.RoleUser, m.Text))
		case KindAssistant:
			out = append(out, protocol.NewMessage(protocol.RoleAssistant, m.Text))
		case KindToolStep:
			call := protocol.Reply{Type: protocol.ReplyToolCall, Tool: m.Tool, Params: m.Params, StepLabel: m.Label}
			out = append(out, protocol.NewMessage(protocol.RoleAssistant, call.String()))
			if m.Result != nil {
				out = append(out, protocol.NewMessage(protocol.RoleUser, FormatToolResult(m.Tool, *m.Result)))
			}
		case KindAskUser:
			ask := protocol.Reply{Type: protocol.ReplyAskUser, Question: m.Question}
			out = append(out, protocol.NewMessage(protocol.RoleAssistant, ask.String()))
		case KindAction:
			out = append(out, protocol.NewMessage(protocol.RoleAssistant, summarizeAction(m)))
		}
	}
	return out
}

// State returns "confirmed", "rejected", or "proposed" for an action message.
func (m Message) State() string {
	switch {
	case m.Confirmed:
		return "confirmed"
	case m.Rejected:
		return "rejected"
	default:
		return "proposed"
	}
}

func summarizeAction(m Message) string {
	data, err := json.Marshal(m.Data)
	if err != nil {
		data = []byte("{}")
	}
	return fmt.Sprintf("Proposed action %s (%s): %s", m.Action, m.State(), data)
}

// FormatToolResult renders a tool result as the user turn fed back to the
// model.
func FormatToolResult(tool string, r StepResult) string {
	if r.IsError {
		return fmt.Sprintf("Tool %s failed:\n%s", tool, r.Content)
	}
	return fmt.Sprintf("Tool %s returned:\n%s", tool, r.Content)
}
