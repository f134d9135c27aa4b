package manuscript

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	minReviewers = 2
	maxReviewers = 4
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidEmail reports whether value looks like a deliverable address.
func ValidEmail(value string) bool {
	value = strings.TrimSpace(value)
	return strings.Contains(value, "@") && emailPattern.MatchString(value)
}

// ValidateTransition checks a status change without touching any store. It
// returns an *IllegalTransitionError for pairs outside the transition table
// and a *ValidationError listing every missing or invalid field otherwise.
func ValidateTransition(current Record, target Status, patch Patch) error {
	if !CanTransition(current.Status, target) {
		return &IllegalTransitionError{ID: current.ID, From: current.Status, To: target}
	}
	merged := current.Clone()
	patch.apply(&merged)
	merged.Status = target
	return checkTransition(current, merged, patch)
}

// checkTransition validates merged, the candidate record after the patch was
// applied and the status moved, against the rules of its target partition.
func checkTransition(current, merged Record, patch Patch) error {
	var probs problems
	from, to := current.Status, merged.Status

	if to != StatusRejected {
		if patch.RejectionReason != nil {
			probs.add("rejectionReason", "only allowed when rejecting")
		}
		if patch.RejectionComment != nil {
			probs.add("rejectionComment", "only allowed when rejecting")
		}
	}

	switch {
	case to == StatusDoubleBlind && from != to && patch.Reviewers == nil:
		probs.add("reviewers", "is required")
	case patch.Reviewers != nil:
		checkReviewerPatch(&probs, to, merged.Reviewers)
	}

	switch {
	case from == to:
		checkRevision(&probs, merged.Status, patch)
	case to == StatusRejected:
		if from == StatusPreReview {
			requireText(&probs, "rejectionReason", deref(patch.RejectionReason))
		}
		requireText(&probs, "rejectionComment", deref(patch.RejectionComment))
	case to == StatusAccepted:
		layout := deref(merged.Layout)
		requireText(&probs, "layoutDetails.layoutArtist", layout.LayoutArtist)
		requireEmail(&probs, "layoutDetails.layoutArtistEmail", layout.LayoutArtistEmail)
	case to == StatusFinalProofreading:
		proof := deref(merged.Proofreading)
		requireText(&probs, "proofreadingDetails.proofreader", proof.Proofreader)
		requireEmail(&probs, "proofreadingDetails.proofreaderEmail", proof.ProofreaderEmail)
		requireText(&probs, "layoutDetails.dateFinished", deref(merged.Layout).DateFinished)
	case to == StatusPublished:
		checkPublish(&probs, deref(merged.Publish))
	}

	checkStageValues(&probs, merged)
	checkPresence(&probs, merged)
	return probs.err()
}

func checkRevision(probs *problems, status Status, patch Patch) {
	if status == StatusFinalProofreading {
		if patch.Proofreading == nil {
			requireText(probs, "proofreadingDetails.revisionComments", "")
			return
		}
		requireText(probs, "proofreadingDetails.revisionComments", deref(patch.Proofreading.RevisionComments))
		return
	}
	requireText(probs, "revisionStatus", deref(patch.RevisionStatus))
	requireText(probs, "revisionComments", deref(patch.RevisionComments))
}

// checkReviewerPatch validates a reviewer list a patch replaces. Reviewers
// are assigned in pre-review and double-blind only; afterwards the list is
// frozen.
func checkReviewerPatch(probs *problems, to Status, reviewers []string) {
	switch to {
	case StatusDoubleBlind:
		checkReviewers(probs, reviewers, minReviewers)
	case StatusPreReview:
		checkReviewers(probs, reviewers, 0)
	default:
		probs.add("reviewers", fmt.Sprintf("cannot change while %s", to))
	}
}

func checkReviewers(probs *problems, reviewers []string, least int) {
	seen := make(map[string]struct{}, len(reviewers))
	filled := 0
	for _, id := range reviewers {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		filled++
		if _, dup := seen[id]; dup {
			probs.add("reviewers", fmt.Sprintf("reviewer %q is listed twice", id))
		}
		seen[id] = struct{}{}
	}
	switch {
	case filled < least:
		probs.add("reviewers", fmt.Sprintf("at least %d reviewers are required, got %d", least, filled))
	case filled > maxReviewers:
		probs.add("reviewers", fmt.Sprintf("at most %d reviewers are allowed, got %d", maxReviewers, filled))
	}
}

func checkPublish(probs *problems, publish PublishDetails) {
	requireText(probs, "publishDetails.scopeNumber", publish.ScopeNumber)
	requireText(probs, "publishDetails.volumeYear", publish.VolumeYear)
	requireText(probs, "publishDetails.datePublished", publish.DatePublished)
	if strings.TrimSpace(publish.ScopeNumber) == SpecialIssue {
		requireText(probs, "publishDetails.issueName", publish.IssueName)
	}
}

// checkStageValues validates enum fields that a patch may have set on any
// sub-record.
func checkStageValues(probs *problems, rec Record) {
	if rec.Layout != nil && rec.Layout.Status != "" && !validStageStatus(rec.Layout.Status) {
		probs.add("layoutDetails.status", fmt.Sprintf("unknown status %q", rec.Layout.Status))
	}
	if rec.Proofreading != nil && rec.Proofreading.Status != "" && !validStageStatus(rec.Proofreading.Status) {
		probs.add("proofreadingDetails.status", fmt.Sprintf("unknown status %q", rec.Proofreading.Status))
	}
	if rec.Publish != nil && rec.Publish.PaymentStatus != "" {
		if _, ok := ParsePaymentStatus(string(rec.Publish.PaymentStatus)); !ok {
			probs.add("publishDetails.paymentStatus", fmt.Sprintf("unknown payment status %q", rec.Publish.PaymentStatus))
		}
	}
}

// checkPresence enforces which sub-records a partition may carry.
func checkPresence(probs *problems, rec Record) {
	if rec.Layout != nil && !hasLayout(rec.Status) {
		probs.add("layoutDetails", fmt.Sprintf("not allowed while %s", rec.Status))
	}
	if rec.Proofreading != nil && !hasProofreading(rec.Status) {
		probs.add("proofreadingDetails", fmt.Sprintf("not allowed while %s", rec.Status))
	}
	if rec.Publish != nil && !hasPublish(rec.Status) {
		probs.add("publishDetails", fmt.Sprintf("not allowed while %s", rec.Status))
	}
}

// validateSubmission checks a new manuscript before it enters pre-review.
func validateSubmission(rec Record) error {
	var probs problems
	requireText(&probs, "title", rec.Title)
	requireText(&probs, "authors", rec.Authors)
	if rec.Status != "" && rec.Status != StatusPreReview {
		probs.add("status", "new manuscripts start in pre-review")
	}
	checkSubmissionFields(&probs, rec)
	if len(rec.Reviewers) > maxReviewers {
		probs.add("reviewers", fmt.Sprintf("at most %d reviewers are allowed, got %d", maxReviewers, len(rec.Reviewers)))
	}
	if rec.RejectionReason != "" || rec.RejectionComment != "" {
		probs.add("rejectionReason", "only allowed when rejecting")
	}
	rec.Status = StatusPreReview
	checkPresence(&probs, rec)
	return probs.err()
}

func checkSubmissionFields(probs *problems, rec Record) {
	if strings.TrimSpace(rec.Email) != "" && !ValidEmail(rec.Email) {
		probs.add("email", "must be a valid email address")
	}
	if rec.ScopeType != "" {
		if _, ok := ParseScopeType(string(rec.ScopeType)); !ok {
			probs.add("scopeType", fmt.Sprintf("must be %q or %q", ScopeInternal, ScopeExternal))
		}
	}
}

func requireText(probs *problems, field, value string) {
	if strings.TrimSpace(value) == "" {
		probs.add(field, "is required")
	}
}

func requireEmail(probs *problems, field, value string) {
	if strings.TrimSpace(value) == "" {
		probs.add(field, "is required")
		return
	}
	if !ValidEmail(value) {
		probs.add(field, "must be a valid email address")
	}
}
