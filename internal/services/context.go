package services

import "context"

type contextKey string

const (
	requestIDKey    contextKey = "request_id"
	manuscriptIDKey contextKey = "manuscript_id"
)

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithManuscriptID annotates context with the manuscript being handled.
func WithManuscriptID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, manuscriptIDKey, id)
}

// ManuscriptIDFromContext returns the manuscript id if present.
func ManuscriptIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(manuscriptIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
