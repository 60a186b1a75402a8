package logging

import (
	"context"
	"errors"
	"log/slog"
)

// MultiHandler duplicates each record across the bot's log sinks: the
// session file, the Graylog JSON stream, and the OTel bridge. A sink
// that fails or is disabled must not stop the record from reaching the
// others.
type MultiHandler struct {
	handlers []slog.Handler
}

// NewMultiHandler builds a fan-out over the given sinks. Nil entries
// stand for sinks disabled by configuration and are dropped.
func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	sinks := make([]slog.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h == nil {
			continue
		}
		sinks = append(sinks, h)
	}
	return &MultiHandler{handlers: sinks}
}

// Enabled reports whether at least one sink wants the level.
func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle delivers the record to every sink enabled for its level. Sink
// errors are collected rather than short-circuiting the fan-out.
func (m *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WithAttrs forwards the attributes to every sink.
func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sinks := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		sinks[i] = h.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: sinks}
}

// WithGroup forwards the group to every sink.
func (m *MultiHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return m
	}
	sinks := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		sinks[i] = h.WithGroup(name)
	}
	return &MultiHandler{handlers: sinks}
}
