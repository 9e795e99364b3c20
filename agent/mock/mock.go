// Package mock provides a scripted model transport for tests and offline
// runs. Each Complete call consumes the next step of the script.
package mock

import (
	"context"
	"errors"
	"sync"

	"github.com/tailored-agentic-units/course-agent/core/protocol"
)

// ErrExhausted is returned once every scripted step has been consumed.
var ErrExhausted = errors.New("mock script exhausted")

// Step is one scripted model turn: a raw reply or a transport error.
type Step struct {
	Reply string
	Err   error
}

// Agent replays a script of model turns and records what it was sent.
type Agent struct {
	mu    sync.Mutex
	steps []Step
	calls [][]protocol.Message
}

// New returns an Agent that answers with replies in order.
func New(replies ...string) *Agent {
	steps := make([]Step, len(replies))
	for i, r := range replies {
		steps[i] = Step{Reply: r}
	}
	return NewScript(steps...)
}

// NewScript returns an Agent that plays steps in order.
func NewScript(steps ...Step) *Agent {
	return &Agent{steps: steps}
}

func (a *Agent) Complete(ctx context.Context, messages []protocol.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.calls = append(a.calls, protocol.CloneMessages(messages))
	if len(a.steps) == 0 {
		return "", ErrExhausted
	}
	step := a.steps[0]
	a.steps = a.steps[1:]
	return step.Reply, step.Err
}

// Calls returns the model input of every Complete call so far.
func (a *Agent) Calls() [][]protocol.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([][]protocol.Message, len(a.calls))
	for i, c := range a.calls {
		out[i] = protocol.CloneMessages(c)
	}
	return out
}

// Remaining is the number of unplayed steps.
func (a *Agent) Remaining() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.steps)
}
