package testsupport

import (
	"context"
	"testing"

	"editorial/internal/config"
	"editorial/internal/manuscript"
	"editorial/internal/persistence"
)

// MustOpenStore opens the configured backend and restores a manuscript.Store
// from it. The adapter is closed on cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config, opts ...manuscript.Option) *manuscript.Store {
	t.Helper()

	adapter, err := persistence.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("persistence.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = adapter.Close()
	})
	store, err := manuscript.Open(context.Background(), append([]manuscript.Option{manuscript.WithAdapter(adapter)}, opts...)...)
	if err != nil {
		t.Fatalf("manuscript.Open: %v", err)
	}
	return store
}

// NewManuscript submits a minimal manuscript into pre-review.
func NewManuscript(t testing.TB, store *manuscript.Store, id, title string) manuscript.Record {
	t.Helper()

	rec, err := store.AddManuscript(context.Background(), manuscript.Record{
		ID:        id,
		Title:     title,
		Authors:   "Test Author",
		Email:     "author@example.org",
		ScopeType: manuscript.ScopeInternal,
		Date:      "2025-03-01",
	})
	if err != nil {
		t.Fatalf("AddManuscript: %v", err)
	}
	return rec
}

// Advance walks a pre-review record forward until it reaches target, filling
// each stage with valid details.
func Advance(t testing.TB, store *manuscript.Store, id string, target manuscript.Status) manuscript.Record {
	t.Helper()

	steps := []struct {
		status manuscript.Status
		patch  manuscript.Patch
	}{
		{manuscript.StatusDoubleBlind, manuscript.Patch{Reviewers: []string{"r1", "r2"}}},
		{manuscript.StatusAccepted, manuscript.Patch{Layout: &manuscript.LayoutPatch{
			LayoutArtist:      manuscript.Ptr("Lia Torres"),
			LayoutArtistEmail: manuscript.Ptr("lia@example.org"),
		}}},
		{manuscript.StatusFinalProofreading, manuscript.Patch{
			Layout: &manuscript.LayoutPatch{DateFinished: manuscript.Ptr("2025-05-20")},
			Proofreading: &manuscript.ProofreadingPatch{
				Proofreader:      manuscript.Ptr("Paolo Reyes"),
				ProofreaderEmail: manuscript.Ptr("paolo@example.org"),
			},
		}},
		{manuscript.StatusPublished, manuscript.Patch{Publish: &manuscript.PublishPatch{
			ScopeNumber:   manuscript.Ptr("1"),
			VolumeYear:    manuscript.Ptr("2025"),
			DatePublished: manuscript.Ptr("2025-06-01"),
		}}},
	}

	rec, err := store.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	for _, step := range steps {
		if rec.Status == target {
			break
		}
		rec, err = store.UpdateManuscriptStatus(context.Background(), id, step.status, step.patch)
		if err != nil {
			t.Fatalf("advance %s to %s: %v", id, step.status, err)
		}
	}
	if rec.Status != target {
		t.Fatalf("record %s stopped at %s, wanted %s", id, rec.Status, target)
	}
	return rec
}
