// Package config loads, normalizes, and validates editorial configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours environment fallbacks such as EDITORIAL_API_TOKEN
// and EDITORIAL_POSTGRES_DSN. The Config type gathers every knob the daemon
// and CLI need: storage backend, API bind address, stats debounce window,
// notifications, archive destination, and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
