// Package transcript persists conversation threads so a session can be
// resumed after a restart. A Record is the full message log of one session
// plus the identity needed to reopen it.
package transcript

import (
	"context"
	"time"

	"github.com/tailored-agentic-units/course-agent/core/course"
	"github.com/tailored-agentic-units/course-agent/session"
	"github.com/tailored-agentic-units/course-agent/thread"
)

// Record is the saved state of one session.
type Record struct {
	SessionID string           `json:"sessionId"`
	CourseID  string           `json:"courseId"`
	User      course.User      `json:"user"`
	Messages  []thread.Message `json:"messages"`
	SavedAt   time.Time        `json:"savedAt"`
}

// Store reads and writes Records keyed by session id. Implementations perform
// I/O on each call without caching.
type Store interface {
	// List returns the saved session ids, sorted.
	List(ctx context.Context) ([]string, error)
	// Load returns the record of one session or ErrKeyNotFound.
	Load(ctx context.Context, sessionID string) (Record, error)
	// Save creates or overwrites the record of r.SessionID.
	Save(ctx context.Context, r Record) error
	// Delete removes a record. Missing records are ignored.
	Delete(ctx context.Context, sessionID string) error
}

// Capture builds a Record from the current state of s.
func Capture(s *session.Session) Record {
	return Record{
		SessionID: s.ID(),
		CourseID:  s.CourseID(),
		User:      s.User(),
		Messages:  s.Thread().Messages(),
		SavedAt:   time.Now().UTC(),
	}
}

// Resume reopens a saved session with its thread restored.
func Resume(ctx context.Context, r Record, loader session.Loader, opts ...session.Option) (*session.Session, error) {
	opts = append([]session.Option{
		session.WithID(r.SessionID),
		session.WithThread(thread.FromMessages(r.Messages)),
	}, opts...)
	return session.New(ctx, r.User, r.CourseID, loader, opts...)
}
