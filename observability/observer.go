// Package observability carries what the loop driver and the operation
// executor report about a conversation: typed events with a severity, the
// session they belong to, and free-form attributes. Observers turn them into
// log lines (SlogObserver) or prometheus series (MetricsObserver).
package observability

import (
	"context"
	"log/slog"
	"time"
)

// Level is an event severity. The values sit at the start of the matching
// OpenTelemetry SeverityNumber ranges.
type Level int

const (
	LevelVerbose Level = 5
	LevelInfo    Level = 9
	LevelWarning Level = 13
	LevelError   Level = 17
)

// SlogLevel maps l onto the four slog levels. Anything above the warning
// range is an error.
func (l Level) SlogLevel() slog.Level {
	switch {
	case l < LevelInfo:
		return slog.LevelDebug
	case l < LevelWarning:
		return slog.LevelInfo
	case l < LevelError:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

func (l Level) String() string { return l.SlogLevel().String() }

// EventType names an event, such as "kernel.outcome". The vocabulary lives
// in events.go.
type EventType string

// Event is one report from the kernel or the executor. SessionID may be left
// empty when the context carries it.
type Event struct {
	Type      EventType
	Level     Level
	Timestamp time.Time
	Source    string
	SessionID string
	Data      map[string]any
}

type Observer interface {
	OnEvent(ctx context.Context, event Event)
}
