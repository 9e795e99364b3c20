package kernel

import "errors"

// ErrNoModel is returned by Run when the kernel has no agent to call.
var ErrNoModel = errors.New("no language model configured")
