package dberror

import (
	"errors"
	"fmt"

	"heapdb/pkg/primitives"
)

// ErrTransactionAborted is matched by every TransactionAbortedError.
var ErrTransactionAborted = errors.New("transaction aborted")

// AbortReason records why the lock manager chose to abort a transaction.
type AbortReason int

const (
	AbortDeadlock AbortReason = iota
	AbortTimeout
)

func (r AbortReason) String() string {
	switch r {
	case AbortDeadlock:
		return "deadlock"
	case AbortTimeout:
		return "lock wait timeout"
	default:
		return "unknown"
	}
}

// TransactionAbortedError is returned when a permission request could not be
// satisfied without risking a wait cycle. The owning transaction must be
// completed with commit=false and may then be restarted from the beginning;
// retrying only the failed call is not safe.
type TransactionAbortedError struct {
	TID    primitives.TransactionID
	PageID primitives.PageID
	Reason AbortReason
}

// NewTransactionAborted creates an abort signal for tid.
func NewTransactionAborted(tid primitives.TransactionID, pid primitives.PageID, reason AbortReason) *TransactionAbortedError {
	return &TransactionAbortedError{TID: tid, PageID: pid, Reason: reason}
}

func (e *TransactionAbortedError) Error() string {
	return fmt.Sprintf("transaction %s aborted (%s) waiting for %s", e.TID, e.Reason, e.PageID)
}

// Is makes errors.Is(err, ErrTransactionAborted) true for every abort.
func (e *TransactionAbortedError) Is(target error) bool {
	return target == ErrTransactionAborted
}

// IsAborted reports whether err carries an abort signal anywhere in its chain.
func IsAborted(err error) bool {
	return errors.Is(err, ErrTransactionAborted)
}

// AbortedTID extracts the victim transaction of an abort signal.
func AbortedTID(err error) (primitives.TransactionID, bool) {
	var aborted *TransactionAbortedError
	if errors.As(err, &aborted) {
		return aborted.TID, true
	}
	return primitives.TransactionID{}, false
}
