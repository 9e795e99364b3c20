package tools

import "errors"

// Sentinel errors for the tool executor.
var (
	ErrNotFound      = errors.New("tool not found")
	ErrAlreadyExists = errors.New("tool already registered")
	ErrEmptyName     = errors.New("tool name is empty")
	ErrNoSnapshot    = errors.New("no course snapshot")
)
