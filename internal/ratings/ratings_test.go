package ratings_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"editorial/internal/manuscript"
	"editorial/internal/persistence"
	"editorial/internal/ratings"
)

func seededStore(t *testing.T) *manuscript.Store {
	t.Helper()
	ctx := context.Background()
	store := manuscript.New()
	for _, id := range []string{"m1", "m2"} {
		_, err := store.AddManuscript(ctx, manuscript.Record{ID: id, Title: "T", Authors: "A"})
		require.NoError(t, err)
	}
	_, err := store.UpdateManuscriptStatus(ctx, "m1", manuscript.StatusDoubleBlind, manuscript.Patch{Reviewers: []string{"r1", "r2"}})
	require.NoError(t, err)
	return store
}

func TestSubmitAndList(t *testing.T) {
	ctx := context.Background()
	adapter := persistence.NewMemoryAdapter()
	clock := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	svc, err := ratings.Open(ctx, seededStore(t), ratings.WithAdapter(adapter), ratings.WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}))
	require.NoError(t, err)

	first, err := svc.Submit(ctx, ratings.Rating{ManuscriptID: "m1", ReviewerID: "r1", Score: 4, Comment: " solid "})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "solid", first.Comment)

	_, err = svc.Submit(ctx, ratings.Rating{ManuscriptID: "m1", ReviewerID: "r2", Score: 2})
	require.NoError(t, err)

	avg, n := svc.Average("m1")
	assert.Equal(t, 2, n)
	assert.InDelta(t, 3.0, avg, 0.0001)

	replaced, err := svc.Submit(ctx, ratings.Rating{ManuscriptID: "m1", ReviewerID: "r1", Score: 5})
	require.NoError(t, err)
	assert.Equal(t, first.ID, replaced.ID, "re-rating keeps the rating id")
	require.Len(t, svc.ListFor("m1"), 2)

	reopened, err := ratings.Open(ctx, seededStore(t), ratings.WithAdapter(adapter))
	require.NoError(t, err)
	avg, n = reopened.Average("m1")
	assert.Equal(t, 2, n)
	assert.InDelta(t, 3.5, avg, 0.0001)
}

func TestSubmitValidation(t *testing.T) {
	ctx := context.Background()
	svc, err := ratings.Open(ctx, seededStore(t))
	require.NoError(t, err)

	_, err = svc.Submit(ctx, ratings.Rating{Score: 9})
	var verr *manuscript.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []string{"manuscriptId", "reviewerId", "score"}, verr.Fields())

	_, err = svc.Submit(ctx, ratings.Rating{ManuscriptID: "m2", ReviewerID: "r1", Score: 3})
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("manuscriptId"), "m2 is still in pre-review")

	_, err = svc.Submit(ctx, ratings.Rating{ManuscriptID: "m1", ReviewerID: "r9", Score: 3})
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("reviewerId"))

	_, err = svc.Submit(ctx, ratings.Rating{ManuscriptID: "ghost", ReviewerID: "r1", Score: 3})
	assert.ErrorIs(t, err, manuscript.ErrRecordNotFound)
	assert.Empty(t, svc.ListFor("m1"))
}

func TestSubmitPersistenceFailure(t *testing.T) {
	ctx := context.Background()
	adapter := persistence.NewMemoryAdapter()
	svc, err := ratings.Open(ctx, seededStore(t), ratings.WithAdapter(adapter))
	require.NoError(t, err)
	require.NoError(t, adapter.Close())

	_, err = svc.Submit(ctx, ratings.Rating{ManuscriptID: "m1", ReviewerID: "r1", Score: 3})
	assert.ErrorIs(t, err, manuscript.ErrPersistence)
	assert.Empty(t, svc.ListFor("m1"), "failed saves leave ratings unchanged")
}
