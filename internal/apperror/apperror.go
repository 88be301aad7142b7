// Package apperror defines the failure kinds shared by the pipeline's
// services. Pure computations never return these; only store, classifier
// and workflow operations do.
package apperror

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound reports an unknown question id, quiz id or slug.
	ErrNotFound = errors.New("not found")
	// ErrAccessDenied reports a password mismatch or an invalid play grant.
	ErrAccessDenied = errors.New("access denied")
	// ErrAlreadySubmitted reports a second attempt for the same play session.
	ErrAlreadySubmitted = errors.New("attempt already submitted for this session")
	// ErrNothingToSave reports an edit that changes nothing.
	ErrNothingToSave = errors.New("nothing to save")
	// ErrSlugTaken reports a public slug that could not be claimed.
	ErrSlugTaken = errors.New("public slug already in use")
)

// ValidationError names the field that blocked an operation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// Validation is shorthand for building a *ValidationError.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// StoreError wraps a transport or backend failure of the document store or
// the classifier. It is never retried by the core.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Store wraps err as a *StoreError unless it is nil or already a known kind.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// PartialBatchFailure lists the outcome of a best-effort bulk operation.
// Failed maps each failed id to its error.
type PartialBatchFailure struct {
	Succeeded []string
	Failed    map[string]error
}

func (e *PartialBatchFailure) Error() string {
	ids := e.FailedIDs()
	return fmt.Sprintf("%d of %d items failed: %s",
		len(ids), len(ids)+len(e.Succeeded), strings.Join(ids, ", "))
}

// FailedIDs returns the failed ids in sorted order.
func (e *PartialBatchFailure) FailedIDs() []string {
	ids := make([]string, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BatchOutcome accumulates per-item results of a bulk operation.
type BatchOutcome struct {
	Succeeded []string
	Failed    map[string]error
}

// Err returns nil when every item succeeded, otherwise a *PartialBatchFailure.
func (o BatchOutcome) Err() error {
	if len(o.Failed) == 0 {
		return nil
	}
	return &PartialBatchFailure{Succeeded: o.Succeeded, Failed: o.Failed}
}
