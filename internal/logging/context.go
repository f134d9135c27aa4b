package logging

import (
	"context"
	"log/slog"

	"editorial/internal/services"
)

const (
	// FieldComponent names the subsystem that emitted the line.
	FieldComponent = "component"
	// FieldManuscriptID identifies the manuscript a line is about.
	FieldManuscriptID = "manuscript_id"
	// FieldStatus is the workflow partition of the manuscript.
	FieldStatus = "status"
	// FieldTargetStatus is the partition a transition is moving to.
	FieldTargetStatus = "target_status"
	// FieldCorrelationID carries the request id of API calls.
	FieldCorrelationID = "correlation_id"
	FieldEventType     = "event_type"
	FieldErrorHint     = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from ctx.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	if id, ok := services.ManuscriptIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldManuscriptID, id))
	}
	return fields
}

// WithContext returns a logger augmented with the fields carried by ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
