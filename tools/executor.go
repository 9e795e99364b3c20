// Package tools implements the read-only tool executor: a dispatch table from
// tool name to handler. Handlers read the course snapshot and never mutate
// it. Conditions the model can recover from (an unknown id, an unreadable
// file) are error-shaped Results; returned errors are reserved for faults.
//
// The executor does not know who is calling. The loop driver gates
// read-only callers to the student-safe subset before dispatch.
package tools

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/tailored-agentic-units/course-agent/core/course"
)

// Env is the per-call context a handler reads from.
type Env struct {
	Snapshot  course.Snapshot
	Documents *Documents
}

// Handler is the function signature for tool implementations.
type Handler func(ctx context.Context, env Env, params map[string]any) (Result, error)

// Result is the tool output fed back into the next model turn. IsError tells
// the model the lookup failed.
type Result struct {
	Content any
	IsError bool
}

// Errorf returns an error-shaped Result.
func Errorf(format string, args ...any) Result {
	return Result{Content: fmt.Sprintf(format, args...), IsError: true}
}

// Executor maps tool names to handlers. It is safe for concurrent use.
type Executor struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// New creates an empty Executor.
func New() *Executor {
	return &Executor{handlers: make(map[string]Handler)}
}

// Default returns an Executor with every built-in course tool registered.
func Default() *Executor {
	e := New()
	for name, h := range builtins {
		e.handlers[name] = h
	}
	return e
}

// Register adds a handler. Returns ErrAlreadyExists if the name is taken;
// use Replace to swap an existing handler.
func (e *Executor) Register(name string, h Handler) error {
	if name == "" {
		return ErrEmptyName
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.handlers[name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	}
	e.handlers[name] = h
	return nil
}

// Replace swaps the handler of a registered tool.
func (e *Executor) Replace(name string, h Handler) error {
	if name == "" {
		return ErrEmptyName
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.handlers[name]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	e.handlers[name] = h
	return nil
}

func (e *Executor) Has(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.handlers[name]
	return ok
}

// Names returns the registered tool names, sorted.
func (e *Executor) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.handlers))
	for name := range e.handlers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Execute dispatches a tool call by name. Returns ErrNotFound if the tool is
// not registered; handler errors are wrapped with the tool name.
func (e *Executor) Execute(ctx context.Context, env Env, name string, params map[string]any) (Result, error) {
	e.mu.RLock()
	h, exists := e.handlers[name]
	e.mu.RUnlock()

	if !exists {
		return Result{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if env.Snapshot == nil {
		return Result{}, ErrNoSnapshot
	}
	if params == nil {
		params = map[string]any{}
	}

	result, err := h(ctx, env, params)
	if err != nil {
		return Result{}, fmt.Errorf("tool %s execution failed: %w", name, err)
	}
	return result, nil
}
