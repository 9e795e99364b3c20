package transcript

import "errors"

// Sentinel errors for store operations.
var (
	ErrKeyNotFound = errors.New("transcript not found")
	ErrLoadFailed  = errors.New("load failed")
	ErrSaveFailed  = errors.New("save failed")
	ErrInvalidKey  = errors.New("invalid session id")
	ErrUnknownKind = errors.New("unknown transcript backend")
)
