package audit

import (
	"context"
	"log/slog"
)

// Sink receives security events. Implementations must be safe for concurrent
// use and should never block the request path for long; Record errors are
// the caller's to log, not to fail authentication over.
type Sink interface {
	Record(ctx context.Context, ev Event)
}

// SlogSink writes every event to a structured logger.
type SlogSink struct {
	Logger *slog.Logger
}

func (s *SlogSink) Record(_ context.Context, ev Event) {
	attrs := []any{
		"event_id", ev.ID.String(),
		"event_type", string(ev.Type),
		"at", ev.At,
	}
	if ev.UserID != "" {
		attrs = append(attrs, "user_id", ev.UserID)
	}
	for k, v := range ev.Detail {
		attrs = append(attrs, k, v)
	}
	s.Logger.Info("security_event", attrs...)
}

// Multi fans an event out to several sinks in order.
type Multi []Sink

func (m Multi) Record(ctx context.Context, ev Event) {
	for _, s := range m {
		s.Record(ctx, ev)
	}
}

// Discard drops all events. Zero value is usable.
type Discard struct{}

func (Discard) Record(context.Context, Event) {}
