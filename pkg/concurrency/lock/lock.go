package lock

import (
	"time"

	"heapdb/pkg/primitives"
)

type LockType int

const (
	SharedLock LockType = iota
	ExclusiveLock
)

func (lt LockType) String() string {
	if lt == ExclusiveLock {
		return "EXCLUSIVE"
	}
	return "SHARED"
}

// Lock is one granted lock on a page.
type Lock struct {
	TID      primitives.TransactionID
	LockType LockType
}

func NewLock(tid primitives.TransactionID, lockType LockType) *Lock {
	return &Lock{
		TID:      tid,
		LockType: lockType,
	}
}

// LockRequest is a pending request recorded while a transaction waits.
type LockRequest struct {
	TID      primitives.TransactionID
	LockType LockType
	Since    time.Time
}

func NewLockRequest(tid primitives.TransactionID, lockType LockType) *LockRequest {
	return &LockRequest{
		TID:      tid,
		LockType: lockType,
		Since:    time.Now(),
	}
}
