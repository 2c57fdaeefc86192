// Package errs provides the unified error type used across all of litedriver.
//
// Every subsystem (database, schema, runner, ...) wraps its native errors
// into *errs.Error before returning them to callers. Callers use the Is*
// predicates to handle errors without importing driver-specific packages.
//
// Usage:
//
//	// In a driver, wrap native errors:
//	return errs.Wrap(errs.ErrKindQueryFailed, "create index failed", sqliteErr)
//
//	// In a caller, check error kind:
//	if errs.IsAlreadyReleased(err) {
//	    return // runner is gone, nothing to clean up
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing engine-specific codes.
// The driver maps native SQLite errors to one of these kinds, giving
// callers a single consistent API.
type ErrKind int

const (
	ErrKindUnknown              ErrKind = iota
	ErrKindNotFound                     // no rows, unknown table or index
	ErrKindConnectionFailed             // cannot open or reach the database file
	ErrKindQueryFailed                  // catalog, DDL or DML statement failed at the engine level
	ErrKindInvalidInput                 // bad arguments from the caller
	ErrKindAlreadyReleased              // operation attempted on a released runner
	ErrKindTransactionActive            // transaction started while one is already running
	ErrKindTransactionNotActive         // commit/rollback without a running transaction
	ErrKindUnsupportedType              // logical column type has no SQLite mapping
	ErrKindConstraint                   // unique/foreign-key/not-null violation
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not_found"
	case ErrKindConnectionFailed:
		return "connection_failed"
	case ErrKindQueryFailed:
		return "query_failed"
	case ErrKindInvalidInput:
		return "invalid_input"
	case ErrKindAlreadyReleased:
		return "already_released"
	case ErrKindTransactionActive:
		return "transaction_active"
	case ErrKindTransactionNotActive:
		return "transaction_not_active"
	case ErrKindUnsupportedType:
		return "unsupported_type"
	case ErrKindConstraint:
		return "constraint_violation"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all litedriver subsystems.
// Drivers produce it; callers inspect it via the Is* predicates below.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original engine-level error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsNotFound reports whether err represents a "not found" result
// (no rows, unknown table, unknown index, ...).
func IsNotFound(err error) bool {
	return kindOf(err) == ErrKindNotFound
}

// IsConnectionFailed reports whether err is a database-open or I/O failure.
func IsConnectionFailed(err error) bool {
	return kindOf(err) == ErrKindConnectionFailed
}

// IsQueryFailed reports whether err is an engine execution failure
// (catalog query, DDL or data-copy statement rejected by SQLite).
func IsQueryFailed(err error) bool {
	return kindOf(err) == ErrKindQueryFailed
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return kindOf(err) == ErrKindInvalidInput
}

// IsAlreadyReleased reports whether err came from using a released runner.
func IsAlreadyReleased(err error) bool {
	return kindOf(err) == ErrKindAlreadyReleased
}

// IsTransactionActive reports whether err came from starting a transaction
// while another one is still running.
func IsTransactionActive(err error) bool {
	return kindOf(err) == ErrKindTransactionActive
}

// IsTransactionNotActive reports whether err came from committing or rolling
// back without a running transaction.
func IsTransactionNotActive(err error) bool {
	return kindOf(err) == ErrKindTransactionNotActive
}

// IsUnsupportedType reports whether err came from a logical column type
// with no mapping to the engine's type vocabulary.
func IsUnsupportedType(err error) bool {
	return kindOf(err) == ErrKindUnsupportedType
}

// IsConstraint reports whether err is a unique, foreign-key or not-null
// constraint violation.
func IsConstraint(err error) bool {
	return kindOf(err) == ErrKindConstraint
}

// kindOf extracts the ErrKind from any error in the chain.
func kindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
