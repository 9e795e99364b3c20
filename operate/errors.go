package operate

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for operation requests.
var (
	ErrNotActionable = errors.New("message is not an action")
	ErrReadOnly      = errors.New("user may not change this course")
	ErrDeprecated    = errors.New("action is no longer supported")
)

// ChainError provides error context for a failed chain step. StepIndex is
// 0-based; State is the accumulated state before the failing step.
type ChainError[TItem, TState any] struct {
	StepIndex int
	Item      TItem
	State     TState
	Err       error
}

func (e *ChainError[TItem, TState]) Error() string {
	return fmt.Sprintf("chain failed at step %d: %v", e.StepIndex, e.Err)
}

func (e *ChainError[TItem, TState]) Unwrap() error {
	return e.Err
}

// PrecheckError reports the fields an action that publishes a record is
// missing.
type PrecheckError struct {
	Action  string
	Missing []string
}

func (e *PrecheckError) Error() string {
	return fmt.Sprintf("%s cannot publish without: %s", e.Action, strings.Join(e.Missing, ", "))
}
