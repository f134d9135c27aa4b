// Package logging builds the structured slog loggers used by the editorial
// daemon and CLI.
//
// It provides a readable console handler and a JSON handler, fans output out
// to stdout and the daemon log file, applies per-component level overrides,
// and exposes helpers that tag lines with component names, manuscript ids and
// request correlation ids. NewNop gives tests and optional wiring a logger
// that discards everything.
package logging
