// Package manuscript owns the editorial workflow state machine.
//
// A Store keeps one canonical map of manuscript records plus a derived index
// by status, so every record sits in exactly one of the six workflow
// partitions. Mutations run through the transition table and the guard in
// guard.go, are persisted through a persistence.Adapter, and are announced to
// subscribers (the stats aggregator, notifications) once committed.
//
// Callers receive typed errors that unwrap to the package sentinels; use
// KindOf to classify them for transport layers.
package manuscript
