package errs

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidQuery       = errors.New("invalid query")
	ErrIndexInconsistency = errors.New("index inconsistency")
	ErrCancelled          = errors.New("cancelled")
)

// NotFoundError reports a document id that is absent from the store.
type NotFoundError struct {
	ID uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("document not found: %d", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

type InvalidQueryError struct {
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("invalid query: %s", e.Reason)
}

func (e *InvalidQueryError) Is(target error) bool {
	return target == ErrInvalidQuery
}

// InvalidQuery builds an *InvalidQueryError with a formatted reason.
func InvalidQuery(format string, args ...any) error {
	return &InvalidQueryError{Reason: fmt.Sprintf(format, args...)}
}

// IndexInconsistencyError is a warning: the primary store committed but the
// full-text index could not follow.
type IndexInconsistencyError struct {
	Op    string
	DocID uint64
	Err   error
}

func (e *IndexInconsistencyError) Error() string {
	return fmt.Sprintf("index out of sync after %s of document %d: %s", e.Op, e.DocID, e.Err)
}

func (e *IndexInconsistencyError) Is(target error) bool {
	return target == ErrIndexInconsistency
}

func (e *IndexInconsistencyError) Unwrap() error {
	return e.Err
}

// Cancelled wraps the context error observed at a phase boundary.
func Cancelled(phase string, cause error) error {
	return fmt.Errorf("%w during %s: %w", ErrCancelled, phase, cause)
}
