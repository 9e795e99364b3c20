package observability

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// ErrUnknownObserver is returned by GetObserver for a name nothing was
// registered under.
var ErrUnknownObserver = errors.New("unknown observer")

var (
	mu        sync.RWMutex
	observers = map[string]Observer{
		"noop": Discard,
		"slog": NewSlogObserver(nil),
	}
)

// GetObserver resolves the observer setting of the kernel config. "noop" and
// "slog" (the process default logger) are always available.
func GetObserver(name string) (Observer, error) {
	mu.RLock()
	defer mu.RUnlock()

	if obs, ok := observers[name]; ok {
		return obs, nil
	}
	return nil, fmt.Errorf("%w %q (have %s)", ErrUnknownObserver, name, strings.Join(names(), ", "))
}

// RegisterObserver makes obs selectable by name, replacing any earlier
// registration.
func RegisterObserver(name string, obs Observer) {
	mu.Lock()
	defer mu.Unlock()
	observers[name] = obs
}

// Names lists the registered observer names in order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	return names()
}

func names() []string {
	return slices.Sorted(maps.Keys(observers))
}
