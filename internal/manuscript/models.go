package manuscript

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Status is the partition key of a manuscript record.
type Status string

const (
	StatusPreReview         Status = "pre-review"
	StatusDoubleBlind       Status = "double-blind"
	StatusAccepted          Status = "accepted"
	StatusFinalProofreading Status = "final-proofreading"
	StatusPublished         Status = "published"
	StatusRejected          Status = "rejected"
)

var allStatuses = []Status{
	StatusPreReview,
	StatusDoubleBlind,
	StatusAccepted,
	StatusFinalProofreading,
	StatusPublished,
	StatusRejected,
}

var statusSet = func() map[Status]struct{} {
	m := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		m[status] = struct{}{}
	}
	return m
}()

// ParseStatus converts a string into a Status, reporting whether it was recognized.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	_, ok := statusSet[normalized]
	return normalized, ok
}

// AllStatuses returns the partitions in workflow order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// Label renders the status for people, e.g. "Final Proofreading".
func (s Status) Label() string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(s), "-", " "))
}

// IsTerminal reports whether no transition leaves the status.
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusPublished
}

// ScopeType classifies where a submission originates.
type ScopeType string

const (
	ScopeInternal ScopeType = "internal"
	ScopeExternal ScopeType = "external"
)

// ParseScopeType validates a scope type value.
func ParseScopeType(value string) (ScopeType, bool) {
	switch ScopeType(strings.ToLower(strings.TrimSpace(value))) {
	case ScopeInternal:
		return ScopeInternal, true
	case ScopeExternal:
		return ScopeExternal, true
	default:
		return "", false
	}
}

// StageStatus tracks progress of layout and proofreading work.
type StageStatus string

const (
	StagePending    StageStatus = "pending"
	StageInProgress StageStatus = "in-progress"
	StageCompleted  StageStatus = "completed"
	StageRevised    StageStatus = "revised"
)

func validStageStatus(value StageStatus) bool {
	switch value {
	case StagePending, StageInProgress, StageCompleted, StageRevised:
		return true
	default:
		return false
	}
}

// PaymentStatus tracks the publication fee.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentNotPaid PaymentStatus = "not-paid"
)

// ParsePaymentStatus validates a payment status value.
func ParsePaymentStatus(value string) (PaymentStatus, bool) {
	switch PaymentStatus(strings.ToLower(strings.TrimSpace(value))) {
	case PaymentPaid:
		return PaymentPaid, true
	case PaymentNotPaid:
		return PaymentNotPaid, true
	default:
		return "", false
	}
}

// SpecialIssue is the scope number that requires an issue name on publication.
const SpecialIssue = "Special Issue"

// LayoutDetails is attached when a manuscript is accepted.
type LayoutDetails struct {
	LayoutArtist      string      `json:"layoutArtist"`
	LayoutArtistEmail string      `json:"layoutArtistEmail"`
	Status            StageStatus `json:"status,omitempty"`
	DateAssigned      string      `json:"dateAssigned,omitempty"`
	DateFinished      string      `json:"dateFinished,omitempty"`
	RevisionStatus    string      `json:"revisionStatus,omitempty"`
	RevisionComments  string      `json:"revisionComments,omitempty"`
}

// ProofreadingDetails is attached when a manuscript enters final proofreading.
type ProofreadingDetails struct {
	Proofreader      string      `json:"proofreader"`
	ProofreaderEmail string      `json:"proofreaderEmail"`
	DateSent         string      `json:"dateSent,omitempty"`
	Status           StageStatus `json:"status,omitempty"`
	RevisionStatus   string      `json:"revisionStatus,omitempty"`
	RevisionComments string      `json:"revisionComments,omitempty"`
}

// PublishDetails is attached when a manuscript is published.
type PublishDetails struct {
	ScopeNumber   string        `json:"scopeNumber"`
	VolumeYear    string        `json:"volumeYear"`
	DatePublished string        `json:"datePublished"`
	IssueName     string        `json:"issueName,omitempty"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
}

// Record is a manuscript and its stage-specific metadata.
type Record struct {
	ID               string               `json:"id"`
	Title            string               `json:"title"`
	Authors          string               `json:"authors"`
	Affiliation      string               `json:"affiliation,omitempty"`
	Email            string               `json:"email,omitempty"`
	Scope            string               `json:"scope,omitempty"`
	ScopeType        ScopeType            `json:"scopeType,omitempty"`
	ScopeCode        string               `json:"scopeCode,omitempty"`
	Date             string               `json:"date"`
	Status           Status               `json:"status"`
	Reviewers        []string             `json:"reviewers,omitempty"`
	RevisionStatus   string               `json:"revisionStatus,omitempty"`
	RevisionComments string               `json:"revisionComments,omitempty"`
	RejectionReason  string               `json:"rejectionReason,omitempty"`
	RejectionComment string               `json:"rejectionComment,omitempty"`
	Layout           *LayoutDetails       `json:"layoutDetails,omitempty"`
	Proofreading     *ProofreadingDetails `json:"proofreadingDetails,omitempty"`
	Publish          *PublishDetails      `json:"publishDetails,omitempty"`
}

// Clone returns a deep copy so callers never share sub-records with the store.
func (r Record) Clone() Record {
	out := r
	out.Reviewers = slices.Clone(r.Reviewers)
	if r.Layout != nil {
		layout := *r.Layout
		out.Layout = &layout
	}
	if r.Proofreading != nil {
		proof := *r.Proofreading
		out.Proofreading = &proof
	}
	if r.Publish != nil {
		publish := *r.Publish
		out.Publish = &publish
	}
	return out
}

// Partitions is a consistent copy of every partition at one store version.
type Partitions struct {
	Version uint64              `json:"version"`
	Records map[Status][]Record `json:"records"`
}

// Get returns the records of one partition.
func (p Partitions) Get(status Status) []Record {
	return p.Records[status]
}

// Count returns the size of one partition.
func (p Partitions) Count(status Status) int {
	return len(p.Records[status])
}

// Total returns the number of records across all partitions.
func (p Partitions) Total() int {
	total := 0
	for _, records := range p.Records {
		total += len(records)
	}
	return total
}
