// Package persistence stores editorial collections as JSON payloads under
// string keys.
//
// One key holds each workflow partition, plus keys for the dashboard cache and
// reviewer ratings. Adapters exist for process memory, an embedded SQLite
// database, PostgreSQL, and Redis. SaveBatch is atomic on every adapter so a
// record moving between two partitions is persisted entirely or not at all.
package persistence
