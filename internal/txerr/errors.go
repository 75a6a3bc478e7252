// Package txerr defines the single error type shared by every layer of the
// engine (store, buffer, txn, wal, engine) so that a caller three packages
// away from the failure can still recover its Kind with errors.As.
package txerr

import "fmt"

// Kind classifies the way an operation failed.
type Kind int

const (
	// IO covers failures reading, writing, or syncing the data or log files.
	IO Kind = iota
	// NotFound means a record id fell outside [0, recordCount).
	NotFound
	// LockConflict means a write targeted a record locked by another transaction.
	LockConflict
	// CorruptLog means a WAL frame was malformed in a way recovery cannot
	// safely guess past (as opposed to a truncated trailing frame, which is
	// treated as the normal end-of-log case).
	CorruptLog
	// InvariantViolation means an internal invariant was broken, e.g. an
	// unfix of a page that was never fixed.
	InvariantViolation
)

func (k Kind) String() string {
	switch k {
	case IO:
		return "io"
	case NotFound:
		return "not_found"
	case LockConflict:
		return "lock_conflict"
	case CorruptLog:
		return "corrupt_log"
	case InvariantViolation:
		return "invariant_violation"
	default:
		return "unknown"
	}
}

// Error is the error type surfaced by every exported operation in this
// module. Callers that need to branch on failure kind should use errors.As
// and inspect Kind, rather than string-matching the message.
type Error struct {
	Kind Kind
	Op   string // the operation that failed, e.g. "Update", "wal.Flush"
	Msg  string
	Err  error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("txstore: %s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("txstore: %s: %s", e.Op, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a *Error with no wrapped cause.
func New(kind Kind, op, msg string) error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap builds a *Error around an existing cause.
func Wrap(kind Kind, op, msg string, err error) error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

// Is reports whether err is (or wraps) an *Error of the given kind.
func Is(err error, k Kind) bool {
	for err != nil {
		if te, ok := err.(*Error); ok {
			if te.Kind == k {
				return true
			}
			err = te.Err
			continue
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
