// Package apperrors defines the error kinds the search engine's core
// surfaces to its caller (spec §7): InvalidInput, NotFound,
// PreconditionFailed, StoreFailure, and ConsistencyError.
//
// InvalidInput and NotFound are recoverable by the caller; StoreFailure and
// ConsistencyError are terminal for the operation that raised them.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind identifies which of the five error categories an Error belongs to.
type Kind int

const (
	// KindInvalidInput covers empty queries, negative limits, malformed
	// regex patterns, and out-of-range counts.
	KindInvalidInput Kind = iota
	// KindNotFound covers lookups of an unknown book ID.
	KindNotFound
	// KindPreconditionFailed covers operations invoked before their
	// prerequisites hold (PageRank with no edges, PPR with empty seeds,
	// graph build with fewer than two books).
	KindPreconditionFailed
	// KindStoreFailure covers underlying persistence errors; always
	// surfaced with the original cause attached.
	KindStoreFailure
	// KindConsistencyError covers invariant violations that indicate
	// corruption (e.g. a posting with no matching term-stats row).
	KindConsistencyError
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "InvalidInput"
	case KindNotFound:
		return "NotFound"
	case KindPreconditionFailed:
		return "PreconditionFailed"
	case KindStoreFailure:
		return "StoreFailure"
	case KindConsistencyError:
		return "ConsistencyError"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned by every core operation.
type Error struct {
	Kind  Kind
	Op    string // the operation that failed, e.g. "search", "indexBook"
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Kind, e.Op, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same Kind, so callers can
// write errors.Is(err, apperrors.InvalidInput("", "")) style checks, or more
// commonly errors.As plus a Kind comparison.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// InvalidInput builds a recoverable input-validation error.
func InvalidInput(op, msg string) *Error {
	return &Error{Kind: KindInvalidInput, Op: op, Msg: msg}
}

// NotFound builds a recoverable lookup-miss error.
func NotFound(op, msg string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Msg: msg}
}

// PreconditionFailed builds an error for an operation invoked before its
// prerequisites hold.
func PreconditionFailed(op, msg string) *Error {
	return &Error{Kind: KindPreconditionFailed, Op: op, Msg: msg}
}

// StoreFailure wraps an underlying persistence error. cause must not be nil.
func StoreFailure(op, msg string, cause error) *Error {
	return &Error{Kind: KindStoreFailure, Op: op, Msg: msg, Cause: cause}
}

// ConsistencyError wraps a detected invariant violation. cause may be nil.
func ConsistencyError(op, msg string, cause error) *Error {
	return &Error{Kind: KindConsistencyError, Op: op, Msg: msg, Cause: cause}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
