package logging

import (
	"context"
	"log/slog"
)

// componentLevelHandler applies a minimum level per component. The wrapped
// handler must be configured with the most verbose level in use; records
// below the effective level for their component are dropped here.
type componentLevelHandler struct {
	next      slog.Handler
	base      slog.Level
	overrides map[string]slog.Level
	effective slog.Level
}

func newComponentLevelHandler(next slog.Handler, base slog.Level, overrides map[string]slog.Level) slog.Handler {
	return &componentLevelHandler{next: next, base: base, overrides: overrides, effective: base}
}

func (h *componentLevelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.effective && h.next.Enabled(ctx, level)
}

func (h *componentLevelHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level < h.effective {
		return nil
	}
	return h.next.Handle(ctx, record)
}

func (h *componentLevelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.next = h.next.WithAttrs(attrs)
	for _, attr := range attrs {
		if attr.Key != FieldComponent {
			continue
		}
		if lvl, ok := h.overrides[attr.Value.String()]; ok {
			clone.effective = lvl
		} else {
			clone.effective = h.base
		}
	}
	return &clone
}

func (h *componentLevelHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.next = h.next.WithGroup(name)
	return &clone
}

// WithLevel returns a logger that drops records below level while keeping the
// attributes and outputs of logger.
func WithLevel(logger *slog.Logger, level slog.Level) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	return slog.New(&componentLevelHandler{next: logger.Handler(), base: level, effective: level})
}
