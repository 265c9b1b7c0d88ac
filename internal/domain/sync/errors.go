package sync

import (
	"errors"
	"fmt"
)

// ErrManifestUnavailable is returned when the supplier manifest cannot be
// acquired at all. It is the only run-fatal error; everything else is
// accumulated per item.
var ErrManifestUnavailable = errors.New("supplier manifest unavailable")

// TransportError is a failed manifest, document or image fetch. Transport
// errors are retried by the shared retry helper before they surface.
type TransportError struct {
	URL    string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transport error: %s returned status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("transport error: %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError wraps a failed fetch
func NewTransportError(url string, status int, err error) *TransportError {
	return &TransportError{URL: url, Status: status, Err: err}
}

// ParseError is a malformed document or manifest shape. Never retried.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError wraps a malformed-input failure
func NewParseError(source string, err error) *ParseError {
	return &ParseError{Source: source, Err: err}
}

// RepositoryConflict is a write rejected by the content store. Retried once,
// then surfaced per item.
type RepositoryConflict struct {
	EntityKind string
	Key        string
	Err        error
}

func (e *RepositoryConflict) Error() string {
	return fmt.Sprintf("repository conflict on %s %q: %v", e.EntityKind, e.Key, e.Err)
}

func (e *RepositoryConflict) Unwrap() error {
	return e.Err
}

// NewRepositoryConflict wraps a rejected store write
func NewRepositoryConflict(entityKind, key string, err error) *RepositoryConflict {
	return &RepositoryConflict{EntityKind: entityKind, Key: key, Err: err}
}

// ValidationGap is a record missing a required natural key (e.g. no derivable
// variant SKU). The record is skipped and never retried.
type ValidationGap struct {
	Field  string
	Reason string
}

func (e *ValidationGap) Error() string {
	return fmt.Sprintf("validation gap: %s: %s", e.Field, e.Reason)
}

// NewValidationGap reports a missing required value
func NewValidationGap(field, reason string) *ValidationGap {
	return &ValidationGap{Field: field, Reason: reason}
}

// IsRetryable reports whether an error class may be retried by the shared
// retry helper. Parse errors and validation gaps are deterministic and are
// surfaced immediately.
func IsRetryable(err error) bool {
	var parseErr *ParseError
	var gap *ValidationGap
	if errors.As(err, &parseErr) || errors.As(err, &gap) {
		return false
	}
	return true
}
