// Package api exposes the manuscript workflow over HTTP.
//
// NewRouter builds a chi router over the record store, the dashboard stats
// aggregator, the reviewer and editor directories, ratings, and the outbound
// notifier. The daemon serves it; the CLI talks to it through
// internal/client.
//
// # Errors
//
// Handlers classify store errors with manuscript.KindOf and map each kind to
// a status code (see StatusForKind). Every error body has the shape
//
//	{"error": "...", "kind": "validation", "problems": [{"field": "...", "reason": "..."}]}
//
// so clients can rebuild typed errors without parsing messages.
//
// # Middleware
//
// Requests pass through panic recovery, request-id propagation (the id is
// stored with services.WithRequestID and echoed in X-Request-Id), optional
// bearer-token authentication, and a metrics recorder. Mutating routes run
// inside an OpenTelemetry span.
//
// DTOs use camelCase JSON tags, matching the record model.
package api
