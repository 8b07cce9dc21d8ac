package eventlog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// SlogHandler is an slog.Handler that mirrors records at or above a
// threshold into a Log in addition to a wrapped base handler.
type SlogHandler struct {
	base   slog.Handler
	log    *Log
	min    slog.Level
	attrs  []slog.Attr
	groups []string
}

// NewSlogHandler wraps base. Records at min or above are also added to log.
func NewSlogHandler(base slog.Handler, log *Log, min slog.Level) *SlogHandler {
	return &SlogHandler{base: base, log: log, min: min}
}

// Enabled implements slog.Handler.
func (h *SlogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.min || h.base.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *SlogHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error
	if h.base.Enabled(ctx, r.Level) {
		err = h.base.Handle(ctx, r)
	}
	if h.log != nil && r.Level >= h.min {
		h.log.Add(slogLevelToLevel(r.Level), formatRecord(r, h.attrs, h.groups))
	}
	return err
}

// WithAttrs implements slog.Handler.
func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SlogHandler{
		base:   h.base.WithAttrs(attrs),
		log:    h.log,
		min:    h.min,
		attrs:  append(append([]slog.Attr{}, h.attrs...), attrs...),
		groups: h.groups,
	}
}

// WithGroup implements slog.Handler.
func (h *SlogHandler) WithGroup(name string) slog.Handler {
	return &SlogHandler{
		base:   h.base.WithGroup(name),
		log:    h.log,
		min:    h.min,
		attrs:  h.attrs,
		groups: append(append([]string{}, h.groups...), name),
	}
}

func slogLevelToLevel(level slog.Level) Level {
	switch {
	case level >= slog.LevelError:
		return LevelError
	case level >= slog.LevelWarn:
		return LevelWarning
	default:
		return LevelInfo
	}
}

// formatRecord produces a compact text representation of a log record.
func formatRecord(r slog.Record, preAttrs []slog.Attr, groups []string) string {
	var b strings.Builder
	b.WriteString(r.Message)

	for _, a := range preAttrs {
		fmt.Fprintf(&b, " %s=%s", a.Key, a.Value.String())
	}

	r.Attrs(func(a slog.Attr) bool {
		key := a.Key
		if len(groups) > 0 {
			key = strings.Join(groups, ".") + "." + key
		}
		fmt.Fprintf(&b, " %s=%s", key, a.Value.String())
		return true
	})

	return b.String()
}
