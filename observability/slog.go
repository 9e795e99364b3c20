package observability

import (
	"context"
	"log/slog"
)

// SlogObserver emits events to a slog.Logger. Event levels are mapped via
// SlogLevel, the event type becomes the log message, and Data keys are
// flattened as top-level slog attributes. The session id comes from the
// event, or from the context when the event has none.
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver creates a SlogObserver that emits to the given logger. A nil
// logger means slog.Default() as it is when each event arrives.
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	return &SlogObserver{logger: logger}
}

func (o *SlogObserver) OnEvent(ctx context.Context, event Event) {
	attrs := make([]slog.Attr, 0, len(event.Data)+2)
	attrs = append(attrs, slog.String("source", event.Source))
	if id := event.SessionID; id != "" {
		attrs = append(attrs, slog.String("session", id))
	} else if id := SessionID(ctx); id != "" {
		attrs = append(attrs, slog.String("session", id))
	}
	for k, v := range event.Data {
		attrs = append(attrs, slog.Any(k, v))
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.LogAttrs(ctx, event.Level.SlogLevel(), string(event.Type), attrs...)
}
