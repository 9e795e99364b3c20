package session

import "errors"

var (
	ErrNotFound   = errors.New("session not found")
	ErrNoLoader   = errors.New("session has no course loader")
	ErrNoSnapshot = errors.New("course loader returned no snapshot")
	ErrFull       = errors.New("session limit reached")
)
