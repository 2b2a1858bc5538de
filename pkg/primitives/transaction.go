package primitives

import (
	"fmt"
	"sync/atomic"
)

var transactionCounter int64

// TransactionID is an opaque per-transaction token. Values are comparable and
// safe to use as map keys.
type TransactionID struct {
	id int64
}

// NewTransactionID allocates a fresh, process-unique transaction id.
func NewTransactionID() TransactionID {
	return TransactionID{id: atomic.AddInt64(&transactionCounter, 1)}
}

// NewTransactionIDFromValue creates a TransactionID with a specific value.
func NewTransactionIDFromValue(id int64) TransactionID {
	return TransactionID{id: id}
}

// ID returns the numeric value of the id.
func (tid TransactionID) ID() int64 {
	return tid.id
}

// IsZero reports whether tid is the unset value.
func (tid TransactionID) IsZero() bool {
	return tid.id == 0
}

func (tid TransactionID) String() string {
	return fmt.Sprintf("TID-%d", tid.id)
}
