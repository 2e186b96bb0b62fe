package common

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures per the propagation policy: transient
// failures are retried by the task-level retry mechanism, permanent
// ones are not, and InvalidState/MissingConfig are always fatal for
// the task (or the process, for MissingConfig) and never retried.
type ErrorKind string

const (
	ErrTransientNetwork ErrorKind = "transient_network"
	ErrPermanentSource  ErrorKind = "permanent_source"
	ErrRateLimited      ErrorKind = "rate_limited"
	ErrParse            ErrorKind = "parse_error"
	ErrBudgetExhausted  ErrorKind = "budget_exhausted"
	ErrInvalidState     ErrorKind = "invalid_state"
	ErrMissingConfig    ErrorKind = "missing_config"
)

// TypedError wraps an underlying error with a classification kind so
// callers can decide retry/fail/partial-success behavior without
// string-matching error messages.
type TypedError struct {
	Kind ErrorKind
	Err  error
}

func (e *TypedError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *TypedError) Unwrap() error { return e.Err }

// NewTypedError constructs a TypedError.
func NewTypedError(kind ErrorKind, err error) *TypedError {
	return &TypedError{Kind: kind, Err: err}
}

// KindOf extracts the ErrorKind from err, defaulting to
// ErrTransientNetwork when err is not a TypedError (an unclassified
// I/O failure is treated as transient and retried, matching the
// default task-retry policy).
func KindOf(err error) ErrorKind {
	var te *TypedError
	if errors.As(err, &te) {
		return te.Kind
	}
	return ErrTransientNetwork
}

// IsRetryable reports whether the task-level retry mechanism should
// re-enqueue a task that failed with err (spec §7 taxonomy).
// PermanentSource marks source health and is not retried unless an
// operator changes config; InvalidState/MissingConfig are always
// fatal. Every other kind (TransientNetwork, RateLimited, ParseError,
// BudgetExhausted) is retried with backoff.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case ErrInvalidState, ErrMissingConfig, ErrPermanentSource:
		return false
	default:
		return true
	}
}
