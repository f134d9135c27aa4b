// Package daemon coordinates the long-running editorial process.
//
// It opens the configured persistence backend, loads the record store, the
// reviewer and editor roster and saved ratings, and then runs the stats
// aggregator, the notification dispatcher, the async partition flusher, the
// snapshot archiver and the HTTP API under one errgroup. A flock on
// <data_dir>/editoriald.lock prevents a second instance from sharing the same
// data directory.
//
// Keep orchestration here: domain rules live in internal/manuscript and the
// HTTP surface in internal/api.
package daemon
