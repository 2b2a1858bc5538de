package lock

import (
	"heapdb/pkg/primitives"
)

// LockGrantor applies the lock compatibility rules against a LockTable.
type LockGrantor struct {
	lockTable *LockTable
	waitQueue *WaitQueue
}

func NewLockGrantor(lockTable *LockTable, waitQueue *WaitQueue) *LockGrantor {
	return &LockGrantor{
		lockTable: lockTable,
		waitQueue: waitQueue,
	}
}

// CanGrantImmediately determines if a lock can be granted without waiting.
// Shared locks conflict only with another transaction's exclusive lock;
// exclusive locks conflict with any lock held by another transaction.
func (lg *LockGrantor) CanGrantImmediately(tid primitives.TransactionID, pid primitives.PageID, lockType LockType) bool {
	return len(lg.Conflicts(tid, pid, lockType)) == 0
}

// Conflicts returns the other transactions whose locks block the request.
func (lg *LockGrantor) Conflicts(tid primitives.TransactionID, pid primitives.PageID, lockType LockType) []primitives.TransactionID {
	var blockers []primitives.TransactionID
	for _, l := range lg.lockTable.GetPageLocks(pid) {
		if l.TID == tid {
			continue
		}
		if lockType == ExclusiveLock || l.LockType == ExclusiveLock {
			blockers = append(blockers, l.TID)
		}
	}
	return blockers
}

// GrantLock records the grant and clears any pending request.
func (lg *LockGrantor) GrantLock(tid primitives.TransactionID, pid primitives.PageID, lockType LockType) {
	lg.lockTable.AddLock(tid, pid, lockType)
	lg.waitQueue.Remove(tid, pid)
}

// CanUpgradeLock reports whether tid holds pid shared and is its only holder.
func (lg *LockGrantor) CanUpgradeLock(tid primitives.TransactionID, pid primitives.PageID) bool {
	if !lg.lockTable.HasLockType(tid, pid, SharedLock) {
		return false
	}

	for _, l := range lg.lockTable.GetPageLocks(pid) {
		if l.TID != tid {
			return false
		}
	}
	return true
}
