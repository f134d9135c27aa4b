package stats_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"editorial/internal/manuscript"
	"editorial/internal/stats"
)

func partitions(version uint64, byStatus map[manuscript.Status][]manuscript.Record) manuscript.Partitions {
	records := make(map[manuscript.Status][]manuscript.Record, len(byStatus))
	for status, recs := range byStatus {
		for i := range recs {
			recs[i].Status = status
		}
		records[status] = recs
	}
	return manuscript.Partitions{Version: version, Records: records}
}

func TestRecomputeMonthlyBuckets(t *testing.T) {
	p := partitions(3, map[manuscript.Status][]manuscript.Record{
		manuscript.StatusPreReview:   {{ID: "a", Date: "2025-01-15"}},
		manuscript.StatusDoubleBlind: {{ID: "b", Date: "2025-01-20"}},
		manuscript.StatusRejected:    {{ID: "c", Date: "2025-07-01"}},
	})

	got := stats.Recompute(p, 0, 0, 2025)

	require.Len(t, got.FirstHalf, 6)
	require.Len(t, got.SecondHalf, 6)
	assert.Equal(t, 2, got.FirstHalf[0].Value)
	assert.Equal(t, 1, got.SecondHalf[0].Value)
	for i := 1; i < 6; i++ {
		assert.Zero(t, got.FirstHalf[i].Value, "first half bucket %d", i)
		assert.Zero(t, got.SecondHalf[i].Value, "second half bucket %d", i)
	}
	assert.Equal(t, "Jan", got.FirstHalf[0].Month)
	assert.Equal(t, "Jul", got.SecondHalf[0].Month)
	assert.Equal(t, "Dec", got.SecondHalf[5].Month)
	assert.Equal(t, 2, got.Month(time.January))
	assert.Equal(t, 1, got.Month(time.July))
	assert.Equal(t, uint64(3), got.Version)
	assert.Equal(t, 2025, got.Year)
}

func TestRecomputeIsDeterministic(t *testing.T) {
	p := partitions(7, map[manuscript.Status][]manuscript.Record{
		manuscript.StatusPreReview: {
			{ID: "a", Date: "2025-03-02", ScopeType: manuscript.ScopeInternal},
			{ID: "b", Date: "2025-11-30", ScopeType: manuscript.ScopeExternal},
		},
		manuscript.StatusPublished: {{ID: "c", Date: "2024-05-05"}},
	})

	first := stats.Recompute(p, 4, 2, 2025)
	second := stats.Recompute(p, 4, 2, 2025)
	assert.Equal(t, first, second)
}

func TestRecomputeCountsPartitionsAndDirectories(t *testing.T) {
	p := partitions(1, map[manuscript.Status][]manuscript.Record{
		manuscript.StatusPreReview: {
			{ID: "a", ScopeType: manuscript.ScopeInternal, Date: "2025-02-01"},
			{ID: "b", ScopeType: manuscript.ScopeExternal, Date: "2025-02-01"},
		},
		manuscript.StatusDoubleBlind: {
			{ID: "c", ScopeType: manuscript.ScopeInternal, Date: "2025-02-01"},
		},
		manuscript.StatusAccepted: {
			{ID: "d", ScopeType: manuscript.ScopeInternal, Date: "2025-02-01"},
		},
		manuscript.StatusPublished: {
			{ID: "e", ScopeType: manuscript.ScopeExternal, Date: "2025-02-01"},
		},
	})

	got := stats.Recompute(p, 12, 3, 2025)

	assert.Equal(t, 5, got.Total)
	assert.Equal(t, 2, got.Count(manuscript.StatusPreReview))
	assert.Equal(t, 1, got.Count(manuscript.StatusDoubleBlind))
	assert.Equal(t, 1, got.Count(manuscript.StatusAccepted))
	assert.Equal(t, 0, got.Count(manuscript.StatusFinalProofreading))
	assert.Equal(t, 1, got.Count(manuscript.StatusPublished))
	assert.Equal(t, 0, got.Count(manuscript.StatusRejected))
	assert.Equal(t, 12, got.Reviewers)
	assert.Equal(t, 3, got.Editors)

	// Scope totals cover pre-review and double-blind only; the histogram covers every partition.
	assert.Equal(t, 2, got.InternalSubmissions)
	assert.Equal(t, 1, got.ExternalSubmissions)
	assert.Equal(t, 5, got.Month(time.February))
}

func TestRecomputeSkipsUnparseableDates(t *testing.T) {
	p := partitions(1, map[manuscript.Status][]manuscript.Record{
		manuscript.StatusPreReview: {
			{ID: "a", Date: "not a date"},
			{ID: "b", Date: ""},
			{ID: "c", Date: "2025-13-45"},
			{ID: "d", Date: "2025-04-09T10:00:00Z"},
			{ID: "e", Date: "2026-04-09"},
		},
	})

	var got stats.DashboardStats
	require.NotPanics(t, func() { got = stats.Recompute(p, 0, 0, 2025) })
	assert.Equal(t, 5, got.Total)
	assert.Equal(t, 1, got.Month(time.April))
	sum := 0
	for _, bucket := range append(got.FirstHalf, got.SecondHalf...) {
		sum += bucket.Value
	}
	assert.Equal(t, 1, sum)
}

func TestRecomputeEmptyPartitions(t *testing.T) {
	got := stats.Recompute(manuscript.Partitions{}, 0, 0, 2025)
	assert.Zero(t, got.Total)
	assert.Len(t, got.FirstHalf, 6)
	assert.Len(t, got.SecondHalf, 6)
	for _, status := range manuscript.AllStatuses() {
		assert.Zero(t, got.Count(status))
	}
}
