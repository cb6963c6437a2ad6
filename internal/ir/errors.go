package ir

import (
	"errors"
	"fmt"
)

// QueryError represents an error detected while building or executing a query.
//
// Query errors include:
//   - Type mismatch: incompatible operand types at construction time
//   - Arity mismatch: constructor projection disagrees with the select list
//   - Too many results: fetch-one matched more than one row
//   - Backend execution: the storage collaborator failed
//   - Unsupported join: no relationship path and no on-predicate
//
// QueryError includes structured fields for diagnostics.
type QueryError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause (backend errors only).
	Err error
}

// ErrorCode categorizes query errors.
type ErrorCode string

const (
	// ErrCodeTypeMismatch indicates incompatible operand types at construction time.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// ErrCodeArityMismatch indicates a constructor projection whose parameter
	// count disagrees with the select list.
	ErrCodeArityMismatch ErrorCode = "ARITY_MISMATCH"

	// ErrCodeTooManyResults indicates fetch-one found more than one row.
	ErrCodeTooManyResults ErrorCode = "TOO_MANY_RESULTS"

	// ErrCodeBackendExecution wraps any failure of the storage collaborator.
	ErrCodeBackendExecution ErrorCode = "BACKEND_EXECUTION"

	// ErrCodeUnsupportedJoin indicates a join with no relationship path and no on-predicate.
	ErrCodeUnsupportedJoin ErrorCode = "UNSUPPORTED_JOIN"

	// ErrCodeInvalidQuery indicates a structurally invalid spec
	// (empty select list, aggregate in WHERE, missing FROM).
	ErrCodeInvalidQuery ErrorCode = "INVALID_QUERY"

	// ErrCodeUnboundedMutation indicates an update/delete without a where-predicate
	// that was not explicitly marked as whole-table.
	ErrCodeUnboundedMutation ErrorCode = "UNBOUNDED_MUTATION"
)

// Error implements the error interface.
func (e *QueryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewTypeMismatch creates a QueryError for incompatible operand types.
func NewTypeMismatch(message string) *QueryError {
	return &QueryError{Code: ErrCodeTypeMismatch, Message: message}
}

// NewArityMismatch creates a QueryError for a constructor projection arity mismatch.
func NewArityMismatch(want, got int) *QueryError {
	return &QueryError{
		Code:    ErrCodeArityMismatch,
		Message: fmt.Sprintf("constructor takes %d arguments, select list has %d", want, got),
		Details: map[string]string{
			"want": fmt.Sprintf("%d", want),
			"got":  fmt.Sprintf("%d", got),
		},
	}
}

// NewTooManyResults creates a QueryError for fetch-one matching several rows.
func NewTooManyResults(found int) *QueryError {
	return &QueryError{
		Code:    ErrCodeTooManyResults,
		Message: "fetch-one matched more than one row",
		Details: map[string]string{"found": fmt.Sprintf("%d", found)},
	}
}

// NewBackendError wraps a storage failure.
func NewBackendError(op string, err error) *QueryError {
	return &QueryError{
		Code:    ErrCodeBackendExecution,
		Message: op,
		Err:     err,
	}
}

// NewUnsupportedJoin creates a QueryError for a join with nothing to join on.
func NewUnsupportedJoin(target string) *QueryError {
	return &QueryError{
		Code:    ErrCodeUnsupportedJoin,
		Message: fmt.Sprintf("join to %s has no relationship path and no on-predicate", target),
		Details: map[string]string{"target": target},
	}
}

// NewUnsupportedFetchJoin creates a QueryError for a fetch join over a
// collection-valued path, which has no single entity to load.
func NewUnsupportedFetchJoin(path string) *QueryError {
	return &QueryError{
		Code:    ErrCodeUnsupportedJoin,
		Message: fmt.Sprintf("fetch join over collection path %s is not supported", path),
		Details: map[string]string{"path": path},
	}
}

// NewInvalidQuery creates a QueryError for a structurally invalid spec.
func NewInvalidQuery(message string) *QueryError {
	return &QueryError{Code: ErrCodeInvalidQuery, Message: message}
}

// NewUnboundedMutation creates a QueryError for an update/delete with no where-predicate.
func NewUnboundedMutation(target string) *QueryError {
	return &QueryError{
		Code:    ErrCodeUnboundedMutation,
		Message: fmt.Sprintf("bulk statement on %s has no where-predicate; call All() to affect every row", target),
		Details: map[string]string{"target": target},
	}
}

// HasCode reports whether err is (or wraps) a QueryError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Code == code
	}
	return false
}

// IsTypeMismatch returns true if the error is a type mismatch.
func IsTypeMismatch(err error) bool { return HasCode(err, ErrCodeTypeMismatch) }

// IsArityMismatch returns true if the error is an arity mismatch.
func IsArityMismatch(err error) bool { return HasCode(err, ErrCodeArityMismatch) }

// IsTooManyResults returns true if fetch-one matched several rows.
func IsTooManyResults(err error) bool { return HasCode(err, ErrCodeTooManyResults) }

// IsBackendError returns true if the storage collaborator failed.
func IsBackendError(err error) bool { return HasCode(err, ErrCodeBackendExecution) }

// IsUnsupportedJoin returns true if a join had nothing to join on.
func IsUnsupportedJoin(err error) bool { return HasCode(err, ErrCodeUnsupportedJoin) }
