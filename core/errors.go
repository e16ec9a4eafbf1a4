package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput indicates caller-supplied data failed a precondition.
	ErrInvalidInput = errors.New("invalid input")

	// ErrModelUnavailable indicates the embedding model failed to load or is
	// not ready. Requests arriving in this state fail fast; the condition is
	// fatal at startup rather than retried per request.
	ErrModelUnavailable = errors.New("embedding model unavailable")
)

// StatementError reports that the backing database rejected or failed a
// caller-supplied statement. The backend's diagnostic is preserved and the
// statement is never retried.
type StatementError struct {
	Err error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("statement failed: %v", e.Err)
}

func (e *StatementError) Unwrap() error {
	return e.Err
}

func NewStatementError(err error) *StatementError {
	return &StatementError{Err: err}
}
