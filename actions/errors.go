package actions

import "errors"

// Sentinel errors for action resolution and execution.
var (
	ErrUnknownAction = errors.New("unknown action")
	ErrUnresolved    = errors.New("reference not found")
	ErrNotSaved      = errors.New("record was not saved")
	ErrNoRepository  = errors.New("no repository configured")
)
