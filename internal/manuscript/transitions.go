package manuscript

type statusTransition struct {
	from Status
	to   Status
}

// Self-transitions are in-place revisions that keep the record in its partition.
var allowedTransitions = newTransitionSet(
	statusTransition{StatusPreReview, StatusDoubleBlind},
	statusTransition{StatusPreReview, StatusRejected},
	statusTransition{StatusPreReview, StatusPreReview},
	statusTransition{StatusDoubleBlind, StatusAccepted},
	statusTransition{StatusDoubleBlind, StatusRejected},
	statusTransition{StatusDoubleBlind, StatusDoubleBlind},
	statusTransition{StatusAccepted, StatusFinalProofreading},
	statusTransition{StatusFinalProofreading, StatusPublished},
	statusTransition{StatusFinalProofreading, StatusFinalProofreading},
)

func newTransitionSet(items ...statusTransition) map[statusTransition]struct{} {
	set := make(map[statusTransition]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

// CanTransition reports whether the workflow allows moving from one status to another.
func CanTransition(from, to Status) bool {
	_, ok := allowedTransitions[statusTransition{from: from, to: to}]
	return ok
}

// Successors lists the legal targets of from in workflow order, including an
// in-place revision when one exists.
func Successors(from Status) []Status {
	var out []Status
	for _, to := range allStatuses {
		if CanTransition(from, to) {
			out = append(out, to)
		}
	}
	return out
}

func hasLayout(status Status) bool {
	return status == StatusAccepted || status == StatusFinalProofreading || status == StatusPublished
}

func hasProofreading(status Status) bool {
	return status == StatusFinalProofreading || status == StatusPublished
}

func hasPublish(status Status) bool {
	return status == StatusPublished
}
