package api

import (
	"editorial/internal/directory"
	"editorial/internal/manuscript"
	"editorial/internal/ratings"
)

// TransitionRequest moves a manuscript to Status, merging Patch over it.
type TransitionRequest struct {
	Status manuscript.Status `json:"status"`
	Patch  manuscript.Patch  `json:"patch"`
}

// PaymentRequest sets the payment status of a published manuscript.
type PaymentRequest struct {
	PaymentStatus manuscript.PaymentStatus `json:"paymentStatus"`
}

// MailRequest sends an outbound message through the notifier.
type MailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// YearRequest selects the dashboard year.
type YearRequest struct {
	Year int `json:"year"`
}

// ManuscriptListResponse wraps one partition.
type ManuscriptListResponse struct {
	Status  manuscript.Status   `json:"status"`
	Year    int                 `json:"year,omitempty"`
	Records []manuscript.Record `json:"records"`
}

// WithdrawResponse reports whether a pre-review record was removed.
type WithdrawResponse struct {
	ID      string `json:"id"`
	Removed bool   `json:"removed"`
}

// PeopleResponse wraps a directory listing.
type PeopleResponse struct {
	Kind   string             `json:"kind"`
	People []directory.Person `json:"people"`
}

// RatingsResponse lists the ratings of one manuscript.
type RatingsResponse struct {
	ManuscriptID string           `json:"manuscriptId"`
	Average      float64          `json:"average"`
	Count        int              `json:"count"`
	Ratings      []ratings.Rating `json:"ratings"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool                      `json:"running"`
	PID          int                       `json:"pid"`
	Backend      string                    `json:"backend"`
	LockFilePath string                    `json:"lockFilePath,omitempty"`
	Version      uint64                    `json:"version"`
	Counts       map[manuscript.Status]int `json:"counts"`
	PendingFlush bool                      `json:"pendingFlush"`
	StatsYear    int                       `json:"statsYear"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error    string                    `json:"error"`
	Kind     string                    `json:"kind"`
	Problems []manuscript.FieldProblem `json:"problems,omitempty"`
}
