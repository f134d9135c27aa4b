// Package stats derives dashboard statistics from the manuscript partitions.
//
// Recompute is a pure function of a partition snapshot, the reviewer and
// editor counts, and the selected year. Aggregator owns the current
// DashboardStats, recomputes them on a debounced timer after each committed
// store mutation, and caches the result and selected year through the
// persistence adapter.
package stats
