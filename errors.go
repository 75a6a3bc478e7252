package txstore

import "github.com/wavetable-db/txstore/internal/txerr"

// Kind classifies the way an operation against the engine failed.
type Kind = txerr.Kind

// Error is the error type surfaced by every exported operation in this
// package. Use errors.As with a *txstore.Error target (var te *txstore.Error;
// errors.As(err, &te)) or the Is* helpers below to branch on Kind without
// string-matching the message.
type Error = txerr.Error

const (
	KindIO                 = txerr.IO
	KindNotFound           = txerr.NotFound
	KindLockConflict       = txerr.LockConflict
	KindCorruptLog         = txerr.CorruptLog
	KindInvariantViolation = txerr.InvariantViolation
)

// IsNotFound reports whether err is (or wraps) a record-not-found error.
func IsNotFound(err error) bool { return txerr.Is(err, txerr.NotFound) }

// IsLockConflict reports whether err is (or wraps) a lock-conflict error.
func IsLockConflict(err error) bool { return txerr.Is(err, txerr.LockConflict) }

// IsCorruptLog reports whether err is (or wraps) a corrupt-log error.
func IsCorruptLog(err error) bool { return txerr.Is(err, txerr.CorruptLog) }
