// Package session holds the explicit per-conversation context: who is
// talking, about which course, the conversation thread, and the collaborators
// a turn reads from and writes through. The loop driver and the operation
// executor receive a *Session instead of reaching for globals.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/course-agent/core/course"
	"github.com/tailored-agentic-units/course-agent/thread"
)

// Loader returns a current snapshot of one course.
type Loader interface {
	Load(ctx context.Context, courseID string) (course.Snapshot, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, courseID string) (course.Snapshot, error)

func (f LoaderFunc) Load(ctx context.Context, courseID string) (course.Snapshot, error) {
	return f(ctx, courseID)
}

// Static returns a Loader that always yields s. Use it with live snapshots
// such as course.Memory that see their own writes.
func Static(s course.Snapshot) Loader {
	return LoaderFunc(func(context.Context, string) (course.Snapshot, error) {
		return s, nil
	})
}

// Session is one conversation between a user and the agent about a course.
// Turns on a session are serialized with Acquire; the thread may be read
// concurrently.
type Session struct {
	id          string
	courseID    string
	user        course.User
	thread      *thread.Thread
	loader      Loader
	persistence course.Persistence
	capability  course.Capability

	turn chan struct{}

	mu       sync.RWMutex
	snapshot course.Snapshot
	lastUsed time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithID overrides the generated session id.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// WithThread resumes a conversation from an existing thread.
func WithThread(t *thread.Thread) Option {
	return func(s *Session) { s.thread = t }
}

// WithPersistence sets the write path used by confirmed actions.
func WithPersistence(p course.Persistence) Option {
	return func(s *Session) { s.persistence = p }
}

// WithCapability overrides the default role-based capability check.
func WithCapability(c course.Capability) Option {
	return func(s *Session) { s.capability = c }
}

// New opens a session for user in courseID and loads the first snapshot.
func New(ctx context.Context, user course.User, courseID string, loader Loader, opts ...Option) (*Session, error) {
	if loader == nil {
		return nil, ErrNoLoader
	}
	s := &Session{
		id:       uuid.Must(uuid.NewV7()).String(),
		courseID: courseID,
		user:     user,
		loader:   loader,
		turn:     make(chan struct{}, 1),
		lastUsed: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.thread == nil {
		s.thread = thread.New()
	}
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) ID() string { return s.id }
func (s *Session) CourseID() string { return s.courseID }
func (s *Session) User() course.User { return s.user }
func (s *Session) Thread() *thread.Thread { return s.thread }
func (s *Session) Persistence() course.Persistence { return s.persistence }

// Snapshot returns the most recently loaded course snapshot.
func (s *Session) Snapshot() course.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Course returns the course header of the current snapshot.
func (s *Session) Course() course.Course {
	return s.Snapshot().Course()
}

// Refresh reloads the snapshot. Called after confirmed writes so later turns
// see them.
func (s *Session) Refresh(ctx context.Context) error {
	snap, err := s.loader.Load(ctx, s.courseID)
	if err != nil {
		return fmt.Errorf("load course %s: %w", s.courseID, err)
	}
	if snap == nil {
		return fmt.Errorf("load course %s: %w", s.courseID, ErrNoSnapshot)
	}
	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()
	return nil
}

// ReadWrite reports whether the user may propose changes in this course.
func (s *Session) ReadWrite() bool {
	snap := s.Snapshot()
	capability := s.capability
	if capability == nil {
		capability = course.RoleCapability{Snapshot: snap}
	}
	return capability.IsEffectivelyReadWrite(s.user, snap.Course())
}

// Acquire waits for exclusive use of the session for one turn or operation.
// The returned func releases it.
func (s *Session) Acquire(ctx context.Context) (func(), error) {
	select {
	case s.turn <- struct{}{}:
		s.touch()
		return func() { <-s.turn }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// LastUsed is when the session last started a turn.
func (s *Session) LastUsed() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUsed
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastUsed = time.Now()
	s.mu.Unlock()
}
