package manuscript

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDuplicateID       = errors.New("duplicate manuscript id")
	ErrRecordNotFound    = errors.New("manuscript not found")
	ErrIllegalTransition = errors.New("illegal transition")
	ErrValidation        = errors.New("validation failed")
	ErrPersistence       = errors.New("persistence failed")
)

// Error kinds reported by KindOf.
const (
	KindDuplicateID       = "duplicate_id"
	KindNotFound          = "not_found"
	KindIllegalTransition = "illegal_transition"
	KindValidation        = "validation"
	KindPersistence       = "persistence"
	KindInternal          = "internal"
)

// ErrorClassifier is implemented by every error this package returns.
type ErrorClassifier interface {
	error
	ErrorKind() string
}

// KindOf classifies err, returning KindInternal for foreign errors.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		return classifier.ErrorKind()
	}
	return KindInternal
}

// DuplicateIDError is returned when a record id already exists in any partition.
type DuplicateIDError struct {
	ID     string
	Status Status
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("manuscript %q already exists in %s", e.ID, e.Status)
}

func (e *DuplicateIDError) Unwrap() error     { return ErrDuplicateID }
func (e *DuplicateIDError) ErrorKind() string { return KindDuplicateID }

// RecordNotFoundError is returned when a record is absent from the partition
// an operation targets. Status is empty when every partition was searched.
type RecordNotFoundError struct {
	ID     string
	Status Status
}

func (e *RecordNotFoundError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("manuscript %q not found", e.ID)
	}
	return fmt.Sprintf("manuscript %q not found in %s", e.ID, e.Status)
}

func (e *RecordNotFoundError) Unwrap() error     { return ErrRecordNotFound }
func (e *RecordNotFoundError) ErrorKind() string { return KindNotFound }

// IllegalTransitionError is returned for a (from, to) pair outside the transition table.
type IllegalTransitionError struct {
	ID   string
	From Status
	To   Status
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("manuscript %q cannot move from %s to %s", e.ID, e.From, e.To)
}

func (e *IllegalTransitionError) Unwrap() error     { return ErrIllegalTransition }
func (e *IllegalTransitionError) ErrorKind() string { return KindIllegalTransition }

// FieldProblem names one missing or invalid field.
type FieldProblem struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError lists every failed field of one request.
type ValidationError struct {
	Problems []FieldProblem
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Field+": "+p.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error     { return ErrValidation }
func (e *ValidationError) ErrorKind() string { return KindValidation }

// Fields returns the names of the failed fields in report order.
func (e *ValidationError) Fields() []string {
	out := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		out = append(out, p.Field)
	}
	return out
}

// Has reports whether field failed validation.
func (e *ValidationError) Has(field string) bool {
	for _, p := range e.Problems {
		if p.Field == field {
			return true
		}
	}
	return false
}

type problems []FieldProblem

func (p *problems) add(field, reason string) {
	*p = append(*p, FieldProblem{Field: field, Reason: reason})
}

func (p problems) err() error {
	if len(p) == 0 {
		return nil
	}
	return &ValidationError{Problems: p}
}

// PersistenceError wraps an adapter failure for the keys of one mutation.
type PersistenceError struct {
	Op   string
	Keys []string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: save %s: %v", e.Op, strings.Join(e.Keys, ","), e.Err)
}

func (e *PersistenceError) Unwrap() []error   { return []error{ErrPersistence, e.Err} }
func (e *PersistenceError) ErrorKind() string { return KindPersistence }
