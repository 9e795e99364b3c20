package providers

import "errors"

var (
	ErrEmptyResponse = errors.New("model returned no choices")
	ErrCircuitOpen   = errors.New("model circuit open")
)
