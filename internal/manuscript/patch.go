package manuscript

import "slices"

// Patch carries the fields supplied with a status change. Nil fields are
// absent; present fields win over the stored record and nested sub-records
// merge key by key.
type Patch struct {
	Reviewers        []string           `json:"reviewers,omitempty"`
	RevisionStatus   *string            `json:"revisionStatus,omitempty"`
	RevisionComments *string            `json:"revisionComments,omitempty"`
	RejectionReason  *string            `json:"rejectionReason,omitempty"`
	RejectionComment *string            `json:"rejectionComment,omitempty"`
	Layout           *LayoutPatch       `json:"layoutDetails,omitempty"`
	Proofreading     *ProofreadingPatch `json:"proofreadingDetails,omitempty"`
	Publish          *PublishPatch      `json:"publishDetails,omitempty"`
}

// LayoutPatch is a partial LayoutDetails.
type LayoutPatch struct {
	LayoutArtist      *string      `json:"layoutArtist,omitempty"`
	LayoutArtistEmail *string      `json:"layoutArtistEmail,omitempty"`
	Status            *StageStatus `json:"status,omitempty"`
	DateAssigned      *string      `json:"dateAssigned,omitempty"`
	DateFinished      *string      `json:"dateFinished,omitempty"`
	RevisionStatus    *string      `json:"revisionStatus,omitempty"`
	RevisionComments  *string      `json:"revisionComments,omitempty"`
}

// ProofreadingPatch is a partial ProofreadingDetails.
type ProofreadingPatch struct {
	Proofreader      *string      `json:"proofreader,omitempty"`
	ProofreaderEmail *string      `json:"proofreaderEmail,omitempty"`
	DateSent         *string      `json:"dateSent,omitempty"`
	Status           *StageStatus `json:"status,omitempty"`
	RevisionStatus   *string      `json:"revisionStatus,omitempty"`
	RevisionComments *string      `json:"revisionComments,omitempty"`
}

// PublishPatch is a partial PublishDetails.
type PublishPatch struct {
	ScopeNumber   *string        `json:"scopeNumber,omitempty"`
	VolumeYear    *string        `json:"volumeYear,omitempty"`
	DatePublished *string        `json:"datePublished,omitempty"`
	IssueName     *string        `json:"issueName,omitempty"`
	PaymentStatus *PaymentStatus `json:"paymentStatus,omitempty"`
}

// SubmissionPatch is a staff edit of submission metadata.
type SubmissionPatch struct {
	Title       *string    `json:"title,omitempty"`
	Authors     *string    `json:"authors,omitempty"`
	Affiliation *string    `json:"affiliation,omitempty"`
	Email       *string    `json:"email,omitempty"`
	Scope       *string    `json:"scope,omitempty"`
	ScopeType   *ScopeType `json:"scopeType,omitempty"`
	ScopeCode   *string    `json:"scopeCode,omitempty"`
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T {
	return &v
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// apply merges the patch over rec. rec must already be a private copy.
func (p Patch) apply(rec *Record) {
	if p.Reviewers != nil {
		rec.Reviewers = slices.Clone(p.Reviewers)
	}
	setIf(&rec.RevisionStatus, p.RevisionStatus)
	setIf(&rec.RevisionComments, p.RevisionComments)
	setIf(&rec.RejectionReason, p.RejectionReason)
	setIf(&rec.RejectionComment, p.RejectionComment)
	if p.Layout != nil {
		if rec.Layout == nil {
			rec.Layout = &LayoutDetails{}
		}
		p.Layout.apply(rec.Layout)
	}
	if p.Proofreading != nil {
		if rec.Proofreading == nil {
			rec.Proofreading = &ProofreadingDetails{}
		}
		p.Proofreading.apply(rec.Proofreading)
	}
	if p.Publish != nil {
		if rec.Publish == nil {
			rec.Publish = &PublishDetails{}
		}
		p.Publish.apply(rec.Publish)
	}
}

func (p LayoutPatch) apply(dst *LayoutDetails) {
	setIf(&dst.LayoutArtist, p.LayoutArtist)
	setIf(&dst.LayoutArtistEmail, p.LayoutArtistEmail)
	setIf(&dst.Status, p.Status)
	setIf(&dst.DateAssigned, p.DateAssigned)
	setIf(&dst.DateFinished, p.DateFinished)
	setIf(&dst.RevisionStatus, p.RevisionStatus)
	setIf(&dst.RevisionComments, p.RevisionComments)
}

func (p ProofreadingPatch) apply(dst *ProofreadingDetails) {
	setIf(&dst.Proofreader, p.Proofreader)
	setIf(&dst.ProofreaderEmail, p.ProofreaderEmail)
	setIf(&dst.DateSent, p.DateSent)
	setIf(&dst.Status, p.Status)
	setIf(&dst.RevisionStatus, p.RevisionStatus)
	setIf(&dst.RevisionComments, p.RevisionComments)
}

func (p PublishPatch) apply(dst *PublishDetails) {
	setIf(&dst.ScopeNumber, p.ScopeNumber)
	setIf(&dst.VolumeYear, p.VolumeYear)
	setIf(&dst.DatePublished, p.DatePublished)
	setIf(&dst.IssueName, p.IssueName)
	setIf(&dst.PaymentStatus, p.PaymentStatus)
}

func (p SubmissionPatch) apply(rec *Record) {
	setIf(&rec.Title, p.Title)
	setIf(&rec.Authors, p.Authors)
	setIf(&rec.Affiliation, p.Affiliation)
	setIf(&rec.Email, p.Email)
	setIf(&rec.Scope, p.Scope)
	setIf(&rec.ScopeType, p.ScopeType)
	setIf(&rec.ScopeCode, p.ScopeCode)
}
