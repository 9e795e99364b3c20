package thread

import "errors"

// Sentinel errors for thread mutations.
var (
	ErrNotFound  = errors.New("message not found")
	ErrWrongKind = errors.New("message has the wrong kind")
	ErrResolved  = errors.New("action already resolved")
	ErrResultSet = errors.New("tool result already set")
	ErrNoPending = errors.New("no pending action")
	ErrAnswered  = errors.New("question already answered")
)
