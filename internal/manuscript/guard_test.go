package manuscript_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"editorial/internal/manuscript"
)

func TestCanTransition(t *testing.T) {
	allowed := map[manuscript.Status][]manuscript.Status{
		manuscript.StatusPreReview:         {manuscript.StatusPreReview, manuscript.StatusDoubleBlind, manuscript.StatusRejected},
		manuscript.StatusDoubleBlind:       {manuscript.StatusDoubleBlind, manuscript.StatusAccepted, manuscript.StatusRejected},
		manuscript.StatusAccepted:          {manuscript.StatusFinalProofreading},
		manuscript.StatusFinalProofreading: {manuscript.StatusFinalProofreading, manuscript.StatusPublished},
		manuscript.StatusPublished:         nil,
		manuscript.StatusRejected:          nil,
	}
	for _, from := range manuscript.AllStatuses() {
		for _, to := range manuscript.AllStatuses() {
			want := false
			for _, candidate := range allowed[from] {
				if candidate == to {
					want = true
				}
			}
			assert.Equal(t, want, manuscript.CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.Equal(t, []manuscript.Status{manuscript.StatusFinalProofreading}, manuscript.Successors(manuscript.StatusAccepted))
	assert.Empty(t, manuscript.Successors(manuscript.StatusRejected))
}

func TestValidEmail(t *testing.T) {
	for _, good := range []string{"a@b.co", "layout.artist+1@press.example.org", " ed@journal.io "} {
		assert.True(t, manuscript.ValidEmail(good), good)
	}
	for _, bad := range []string{"", "plain", "@example.com", "a@b", "a@@b.com", "a b@c.com"} {
		assert.False(t, manuscript.ValidEmail(bad), bad)
	}
}

func TestValidateTransitionRules(t *testing.T) {
	preReview := manuscript.Record{ID: "m1", Title: "T", Authors: "A", Status: manuscript.StatusPreReview}
	doubleBlindCandidate := preReview
	doubleBlindCandidate.Reviewers = []string{"r1", "r2"}
	doubleBlind := preReview
	doubleBlind.Status = manuscript.StatusDoubleBlind
	doubleBlind.Reviewers = []string{"r1", "r2"}
	accepted := doubleBlind
	accepted.Status = manuscript.StatusAccepted
	accepted.Layout = &manuscript.LayoutDetails{LayoutArtist: "Lee", LayoutArtistEmail: "lee@press.org"}
	proofing := accepted
	proofing.Status = manuscript.StatusFinalProofreading
	proofing.Proofreading = &manuscript.ProofreadingDetails{Proofreader: "Kim", ProofreaderEmail: "kim@press.org"}

	tests := []struct {
		name    string
		current manuscript.Record
		target  manuscript.Status
		patch   manuscript.Patch
		fields  []string
	}{
		{
			name:    "one reviewer",
			current: preReview,
			target:  manuscript.StatusDoubleBlind,
			patch:   manuscript.Patch{Reviewers: []string{"r1"}},
			fields:  []string{"reviewers"},
		},
		{
			name:    "blank reviewers do not count",
			current: preReview,
			target:  manuscript.StatusDoubleBlind,
			patch:   manuscript.Patch{Reviewers: []string{"r1", " ", ""}},
			fields:  []string{"reviewers"},
		},
		{
			name:    "five reviewers",
			current: preReview,
			target:  manuscript.StatusDoubleBlind,
			patch:   manuscript.Patch{Reviewers: []string{"r1", "r2", "r3", "r4", "r5"}},
			fields:  []string{"reviewers"},
		},
		{
			name:    "duplicate reviewer",
			current: preReview,
			target:  manuscript.StatusDoubleBlind,
			patch:   manuscript.Patch{Reviewers: []string{"r1", "r1"}},
			fields:  []string{"reviewers"},
		},
		{
			name:    "double-blind entry without reviewer patch",
			current: doubleBlindCandidate,
			target:  manuscript.StatusDoubleBlind,
			fields:  []string{"reviewers"},
		},
		{
			name:    "reviewers frozen once accepted",
			current: doubleBlind,
			target:  manuscript.StatusAccepted,
			patch: manuscript.Patch{
				Reviewers: []string{"r3", "r4"},
				Layout:    &manuscript.LayoutPatch{LayoutArtist: manuscript.Ptr("Lee"), LayoutArtistEmail: manuscript.Ptr("lee@press.org")},
			},
			fields: []string{"reviewers"},
		},
		{
			name:    "two reviewers",
			current: preReview,
			target:  manuscript.StatusDoubleBlind,
			patch:   manuscript.Patch{Reviewers: []string{"r1", "r2"}},
		},
		{
			name:    "reject from pre-review needs reason and comment",
			current: preReview,
			target:  manuscript.StatusRejected,
			fields:  []string{"rejectionReason", "rejectionComment"},
		},
		{
			name:    "reject from double-blind needs comment",
			current: doubleBlind,
			target:  manuscript.StatusRejected,
			fields:  []string{"rejectionComment"},
		},
		{
			name:    "rejection fields outside rejection",
			current: preReview,
			target:  manuscript.StatusDoubleBlind,
			patch:   manuscript.Patch{Reviewers: []string{"r1", "r2"}, RejectionReason: manuscript.Ptr("scope")},
			fields:  []string{"rejectionReason"},
		},
		{
			name:    "accept without layout",
			current: doubleBlind,
			target:  manuscript.StatusAccepted,
			fields:  []string{"layoutDetails.layoutArtist", "layoutDetails.layoutArtistEmail"},
		},
		{
			name:    "accept with bad email",
			current: doubleBlind,
			target:  manuscript.StatusAccepted,
			patch: manuscript.Patch{Layout: &manuscript.LayoutPatch{
				LayoutArtist:      manuscript.Ptr("Lee"),
				LayoutArtistEmail: manuscript.Ptr("lee-at-press"),
			}},
			fields: []string{"layoutDetails.layoutArtistEmail"},
		},
		{
			name:    "final proofreading without proofreader",
			current: accepted,
			target:  manuscript.StatusFinalProofreading,
			fields:  []string{"proofreadingDetails.proofreader", "proofreadingDetails.proofreaderEmail", "layoutDetails.dateFinished"},
		},
		{
			name:    "final proofreading needs the layout finish date",
			current: accepted,
			target:  manuscript.StatusFinalProofreading,
			patch: manuscript.Patch{Proofreading: &manuscript.ProofreadingPatch{
				Proofreader:      manuscript.Ptr("Kim"),
				ProofreaderEmail: manuscript.Ptr("kim@press.org"),
			}},
			fields: []string{"layoutDetails.dateFinished"},
		},
		{
			name:    "final proofreading with finish date",
			current: accepted,
			target:  manuscript.StatusFinalProofreading,
			patch: manuscript.Patch{
				Layout: &manuscript.LayoutPatch{DateFinished: manuscript.Ptr("2025-05-02")},
				Proofreading: &manuscript.ProofreadingPatch{
					Proofreader:      manuscript.Ptr("Kim"),
					ProofreaderEmail: manuscript.Ptr("kim@press.org"),
				},
			},
		},
		{
			name:    "publish missing everything",
			current: proofing,
			target:  manuscript.StatusPublished,
			fields:  []string{"publishDetails.scopeNumber", "publishDetails.volumeYear", "publishDetails.datePublished"},
		},
		{
			name:    "special issue needs a name",
			current: proofing,
			target:  manuscript.StatusPublished,
			patch: manuscript.Patch{Publish: &manuscript.PublishPatch{
				ScopeNumber:   manuscript.Ptr(manuscript.SpecialIssue),
				VolumeYear:    manuscript.Ptr("2025"),
				DatePublished: manuscript.Ptr("2025-03-01"),
			}},
			fields: []string{"publishDetails.issueName"},
		},
		{
			name:    "revision in pre-review needs status and comments",
			current: preReview,
			target:  manuscript.StatusPreReview,
			fields:  []string{"revisionStatus", "revisionComments"},
		},
		{
			name:    "revision in final proofreading",
			current: proofing,
			target:  manuscript.StatusFinalProofreading,
			patch: manuscript.Patch{Proofreading: &manuscript.ProofreadingPatch{
				RevisionStatus:   manuscript.Ptr("For Revision"),
				RevisionComments: manuscript.Ptr("Fix figure 3"),
			}},
		},
		{
			name:    "layout status must be known",
			current: doubleBlind,
			target:  manuscript.StatusAccepted,
			patch: manuscript.Patch{Layout: &manuscript.LayoutPatch{
				LayoutArtist:      manuscript.Ptr("Lee"),
				LayoutArtistEmail: manuscript.Ptr("lee@press.org"),
				Status:            manuscript.Ptr(manuscript.StageStatus("lost")),
			}},
			fields: []string{"layoutDetails.status"},
		},
		{
			name:    "publish details before publication",
			current: doubleBlind,
			target:  manuscript.StatusAccepted,
			patch: manuscript.Patch{
				Layout:  &manuscript.LayoutPatch{LayoutArtist: manuscript.Ptr("Lee"), LayoutArtistEmail: manuscript.Ptr("lee@press.org")},
				Publish: &manuscript.PublishPatch{VolumeYear: manuscript.Ptr("2025")},
			},
			fields: []string{"publishDetails"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := manuscript.ValidateTransition(tc.current, tc.target, tc.patch)
			if len(tc.fields) == 0 {
				require.NoError(t, err)
				return
			}
			var verr *manuscript.ValidationError
			require.ErrorAs(t, err, &verr)
			for _, field := range tc.fields {
				assert.True(t, verr.Has(field), "expected %s in %v", field, verr.Fields())
			}
			assert.Equal(t, manuscript.KindValidation, manuscript.KindOf(err))
		})
	}
}

func TestValidateTransitionReportsEveryProblem(t *testing.T) {
	current := manuscript.Record{ID: "m1", Status: manuscript.StatusFinalProofreading}
	err := manuscript.ValidateTransition(current, manuscript.StatusPublished, manuscript.Patch{
		RejectionComment: manuscript.Ptr("no"),
		Publish: &manuscript.PublishPatch{
			ScopeNumber:   manuscript.Ptr(manuscript.SpecialIssue),
			PaymentStatus: manuscript.Ptr(manuscript.PaymentStatus("maybe")),
		},
	})
	var verr *manuscript.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []string{
		"rejectionComment",
		"publishDetails.volumeYear",
		"publishDetails.datePublished",
		"publishDetails.issueName",
		"publishDetails.paymentStatus",
	}, verr.Fields())
}

func TestValidateTransitionIllegalPair(t *testing.T) {
	err := manuscript.ValidateTransition(
		manuscript.Record{ID: "m1", Status: manuscript.StatusRejected},
		manuscript.StatusPreReview,
		manuscript.Patch{},
	)
	var illegal *manuscript.IllegalTransitionError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, manuscript.StatusRejected, illegal.From)
	assert.True(t, errors.Is(err, manuscript.ErrIllegalTransition))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, "", manuscript.KindOf(nil))
	assert.Equal(t, manuscript.KindInternal, manuscript.KindOf(errors.New("boom")))
	assert.Equal(t, manuscript.KindDuplicateID, manuscript.KindOf(&manuscript.DuplicateIDError{ID: "x"}))
	assert.Equal(t, manuscript.KindNotFound, manuscript.KindOf(&manuscript.RecordNotFoundError{ID: "x"}))

	perr := &manuscript.PersistenceError{Op: "add", Keys: []string{"partition/pre-review"}, Err: errors.New("disk full")}
	assert.Equal(t, manuscript.KindPersistence, manuscript.KindOf(perr))
	assert.True(t, errors.Is(perr, manuscript.ErrPersistence))
	assert.Contains(t, perr.Error(), "disk full")
}

func TestParseHelpers(t *testing.T) {
	status, ok := manuscript.ParseStatus(" Final-Proofreading ")
	assert.True(t, ok)
	assert.Equal(t, manuscript.StatusFinalProofreading, status)
	_, ok = manuscript.ParseStatus("archived")
	assert.False(t, ok)

	scope, ok := manuscript.ParseScopeType("EXTERNAL")
	assert.True(t, ok)
	assert.Equal(t, manuscript.ScopeExternal, scope)

	ts, ok := manuscript.ParseDate("Mar 4, 2025")
	require.True(t, ok)
	assert.Equal(t, "2025-03-04", manuscript.FormatDate(ts))
	_, ok = manuscript.ParseDate("soon")
	assert.False(t, ok)
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Final Proofreading", manuscript.StatusFinalProofreading.Label())
	assert.Equal(t, "Pre Review", manuscript.StatusPreReview.Label())
	assert.Equal(t, "Published", manuscript.StatusPublished.Label())
}
