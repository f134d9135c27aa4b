package manuscript

import (
	"context"
	"slices"
	"strings"

	"editorial/internal/logging"
)

// AddManuscript inserts rec into pre-review. An empty id is replaced with a
// generated one and an empty date with today's date.
func (s *Store) AddManuscript(ctx context.Context, rec Record) (Record, error) {
	return s.run(ctx, "add", func() (change, error) {
		rec = rec.Clone()
		rec.ID = strings.TrimSpace(rec.ID)
		if rec.ID == "" {
			rec.ID = s.newID()
		}
		if err := validateSubmission(rec); err != nil {
			return change{}, err
		}
		if existing, ok := s.lookupLocked(rec.ID); ok {
			return change{}, &DuplicateIDError{ID: rec.ID, Status: existing.rec.Status}
		}
		rec.Status = StatusPreReview
		if strings.TrimSpace(rec.Date) == "" {
			rec.Date = s.today()
		}
		if rec.ScopeType != "" {
			rec.ScopeType, _ = ParseScopeType(string(rec.ScopeType))
		}
		rec.Reviewers = normalizeReviewers(rec.Reviewers)
		return change{op: "add", kind: EventAdded, id: rec.ID, to: StatusPreReview, next: &rec}, nil
	})
}

// UpdateManuscriptStatus moves the record to target, merging patch over it.
// When target equals the current status the record is revised in place.
func (s *Store) UpdateManuscriptStatus(ctx context.Context, id string, target Status, patch Patch) (Record, error) {
	id = strings.TrimSpace(id)
	return s.run(ctx, "transition", func() (change, error) {
		current, ok := s.lookupLocked(id)
		if !ok {
			return change{}, &RecordNotFoundError{ID: id}
		}
		from := current.rec.Status
		if !CanTransition(from, target) {
			return change{}, &IllegalTransitionError{ID: id, From: from, To: target}
		}

		next := current.rec.Clone()
		patch.apply(&next)
		next.Status = target
		if err := checkTransition(current.rec, next, patch); err != nil {
			return change{}, err
		}
		if patch.Reviewers != nil {
			next.Reviewers = normalizeReviewers(next.Reviewers)
		}
		s.applyDefaults(&next, from)
		if target == StatusDoubleBlind && from != target {
			s.warnUnresolvedReviewers(id, next.Reviewers)
		}

		kind := EventTransitioned
		if from == target {
			kind = EventRevised
		}
		return change{op: "transition", kind: kind, id: id, from: from, to: target, next: &next}, nil
	})
}

// UpdateLayoutDetails merges patch into the layout details of an accepted record.
func (s *Store) UpdateLayoutDetails(ctx context.Context, id string, patch LayoutPatch) (Record, error) {
	id = strings.TrimSpace(id)
	return s.run(ctx, "layout", func() (change, error) {
		current, err := s.lookupIn(id, StatusAccepted)
		if err != nil {
			return change{}, err
		}
		next := current.Clone()
		if next.Layout == nil {
			next.Layout = &LayoutDetails{}
		}
		patch.apply(next.Layout)

		var probs problems
		requireText(&probs, "layoutDetails.layoutArtist", next.Layout.LayoutArtist)
		requireEmail(&probs, "layoutDetails.layoutArtistEmail", next.Layout.LayoutArtistEmail)
		checkStageValues(&probs, next)
		if err := probs.err(); err != nil {
			return change{}, err
		}
		return change{op: "layout", kind: EventLayoutUpdated, id: id, from: StatusAccepted, to: StatusAccepted, next: &next}, nil
	})
}

// UpdateProofreadingDetails merges patch into the proofreading details of a
// record in final proofreading.
func (s *Store) UpdateProofreadingDetails(ctx context.Context, id string, patch ProofreadingPatch) (Record, error) {
	id = strings.TrimSpace(id)
	return s.run(ctx, "proofreading", func() (change, error) {
		current, err := s.lookupIn(id, StatusFinalProofreading)
		if err != nil {
			return change{}, err
		}
		next := current.Clone()
		if next.Proofreading == nil {
			next.Proofreading = &ProofreadingDetails{}
		}
		patch.apply(next.Proofreading)

		var probs problems
		requireText(&probs, "proofreadingDetails.proofreader", next.Proofreading.Proofreader)
		requireEmail(&probs, "proofreadingDetails.proofreaderEmail", next.Proofreading.ProofreaderEmail)
		checkStageValues(&probs, next)
		if err := probs.err(); err != nil {
			return change{}, err
		}
		return change{op: "proofreading", kind: EventProofreadingUpdated, id: id, from: StatusFinalProofreading, to: StatusFinalProofreading, next: &next}, nil
	})
}

// UpdatePaymentStatus sets the payment status of a published record.
func (s *Store) UpdatePaymentStatus(ctx context.Context, id string, status PaymentStatus) (Record, error) {
	id = strings.TrimSpace(id)
	return s.run(ctx, "payment", func() (change, error) {
		parsed, ok := ParsePaymentStatus(string(status))
		if !ok {
			var probs problems
			probs.add("publishDetails.paymentStatus", "must be \"paid\" or \"not-paid\"")
			return change{}, probs.err()
		}
		current, err := s.lookupIn(id, StatusPublished)
		if err != nil {
			return change{}, err
		}
		next := current.Clone()
		if next.Publish == nil {
			next.Publish = &PublishDetails{}
		}
		next.Publish.PaymentStatus = parsed
		return change{op: "payment", kind: EventPaymentUpdated, id: id, from: StatusPublished, to: StatusPublished, next: &next}, nil
	})
}

// EditSubmission applies a staff edit to submission metadata. Rejected
// records are frozen.
func (s *Store) EditSubmission(ctx context.Context, id string, patch SubmissionPatch) (Record, error) {
	id = strings.TrimSpace(id)
	return s.run(ctx, "edit", func() (change, error) {
		current, ok := s.lookupLocked(id)
		if !ok {
			return change{}, &RecordNotFoundError{ID: id}
		}
		status := current.rec.Status
		if status == StatusRejected {
			return change{}, &IllegalTransitionError{ID: id, From: status, To: status}
		}
		next := current.rec.Clone()
		patch.apply(&next)

		var probs problems
		requireText(&probs, "title", next.Title)
		requireText(&probs, "authors", next.Authors)
		checkSubmissionFields(&probs, next)
		if err := probs.err(); err != nil {
			return change{}, err
		}
		if next.ScopeType != "" {
			next.ScopeType, _ = ParseScopeType(string(next.ScopeType))
		}
		return change{op: "edit", kind: EventSubmissionEdited, id: id, from: status, to: status, next: &next}, nil
	})
}

// RemoveFromPreReview withdraws a record that is still in pre-review. It
// reports false without error when the record is not there.
func (s *Store) RemoveFromPreReview(ctx context.Context, id string) (bool, error) {
	id = strings.TrimSpace(id)
	removed := false
	_, err := s.run(ctx, "withdraw", func() (change, error) {
		current, err := s.lookupIn(id, StatusPreReview)
		if err != nil {
			return change{}, nil
		}
		removed = true
		prev := current.Clone()
		return change{op: "withdraw", kind: EventWithdrawn, id: id, from: StatusPreReview, prev: &prev}, nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

func (s *Store) lookupIn(id string, status Status) (Record, error) {
	e, ok := s.lookupLocked(id)
	if !ok || e.rec.Status != status {
		return Record{}, &RecordNotFoundError{ID: id, Status: status}
	}
	return e.rec, nil
}

// applyDefaults fills stage fields the workflow sets on entry to a partition.
func (s *Store) applyDefaults(rec *Record, from Status) {
	if from == rec.Status {
		return
	}
	today := s.today()
	switch rec.Status {
	case StatusAccepted:
		if rec.Layout.Status == "" {
			rec.Layout.Status = StagePending
		}
		if rec.Layout.DateAssigned == "" {
			rec.Layout.DateAssigned = today
		}
	case StatusFinalProofreading:
		if rec.Layout != nil {
			switch rec.Layout.Status {
			case "", StagePending, StageInProgress:
				rec.Layout.Status = StageCompleted
			}
		}
		if rec.Proofreading.Status == "" {
			rec.Proofreading.Status = StagePending
		}
		if rec.Proofreading.DateSent == "" {
			rec.Proofreading.DateSent = today
		}
	case StatusPublished:
		if rec.Publish.PaymentStatus == "" {
			rec.Publish.PaymentStatus = PaymentNotPaid
		}
	}
}

func (s *Store) warnUnresolvedReviewers(id string, reviewers []string) {
	if s.reviewers == nil {
		return
	}
	for _, reviewer := range reviewers {
		if s.reviewers.Has(reviewer) {
			continue
		}
		logging.WarnWithContext(s.logger, "reviewer not found in directory", "reviewer_unresolved",
			logging.String(logging.FieldManuscriptID, id),
			logging.String("reviewer_id", reviewer),
			logging.String(logging.FieldErrorHint, "add the reviewer to the roster file"),
			logging.String(logging.FieldImpact, "reviewer name will not display"),
		)
	}
}

func normalizeReviewers(reviewers []string) []string {
	if reviewers == nil {
		return nil
	}
	out := make([]string, 0, len(reviewers))
	for _, id := range reviewers {
		if id = strings.TrimSpace(id); id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
