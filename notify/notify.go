// Package notify announces decisions on proposed actions to other systems.
// Publishers receive one Notice per confirm, reject, or edit; the operation
// executor calls them after the thread has been updated.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/tailored-agentic-units/course-agent/actions"
)

// Notice results.
const (
	ResultConfirmed = "confirmed"
	ResultFailed    = "failed"
	ResultRejected  = "rejected"
	ResultEdited    = "edited"
)

// Notice describes one decision on a proposed action.
type Notice struct {
	SessionID  string            `json:"sessionId"`
	CourseID   string            `json:"courseId"`
	UserID     string            `json:"userId"`
	MessageID  string            `json:"messageId"`
	Action     string            `json:"action"`
	Result     string            `json:"result"`
	Summary    string            `json:"summary,omitempty"`
	Applied    []actions.Applied `json:"applied,omitempty"`
	FailedStep int               `json:"failedStep,omitempty"` // 1-based pipeline step; 0 when none failed
	Timestamp  time.Time         `json:"timestamp"`
}

// Publisher delivers notices.
type Publisher interface {
	Publish(ctx context.Context, n Notice) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, n Notice) error

func (f PublisherFunc) Publish(ctx context.Context, n Notice) error {
	return f(ctx, n)
}

type multiPublisher struct {
	publishers []Publisher
}

// Multi fans a notice out to every non-nil publisher. All publishers are
// called; their errors are joined.
func Multi(publishers ...Publisher) Publisher {
	filtered := make([]Publisher, 0, len(publishers))
	for _, p := range publishers {
		if p != nil {
			filtered = append(filtered, p)
		}
	}
	return &multiPublisher{publishers: filtered}
}

func (m *multiPublisher) Publish(ctx context.Context, n Notice) error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Publish(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
