package manuscript

// EventKind names the mutation that produced an Event.
type EventKind string

const (
	EventAdded               EventKind = "added"
	EventTransitioned        EventKind = "transitioned"
	EventRevised             EventKind = "revised"
	EventLayoutUpdated       EventKind = "layout-updated"
	EventProofreadingUpdated EventKind = "proofreading-updated"
	EventPaymentUpdated      EventKind = "payment-updated"
	EventSubmissionEdited    EventKind = "submission-edited"
	EventWithdrawn           EventKind = "withdrawn"
)

// Event describes one committed mutation. Record is the record after the
// change; for EventWithdrawn it is the record as it was removed.
type Event struct {
	Kind    EventKind
	ID      string
	From    Status
	To      Status
	Version uint64
	Record  Record
}
