package lock

import (
	"heapdb/pkg/primitives"
)

// LockTable manages the mapping of pages to locks and transactions to their
// held locks. It is not synchronized; LockManager guards it.
type LockTable struct {
	pageLocks        map[primitives.PageID][]*Lock
	transactionLocks map[primitives.TransactionID]map[primitives.PageID]LockType
}

func NewLockTable() *LockTable {
	return &LockTable{
		pageLocks:        make(map[primitives.PageID][]*Lock),
		transactionLocks: make(map[primitives.TransactionID]map[primitives.PageID]LockType),
	}
}

// HasSufficientLock checks if the transaction already holds a lock at least
// as strong as reqLockType.
func (lt *LockTable) HasSufficientLock(tid primitives.TransactionID, pid primitives.PageID, reqLockType LockType) bool {
	current, ok := lt.LockHeld(tid, pid)
	if !ok {
		return false
	}
	return current == ExclusiveLock || reqLockType == SharedLock
}

// LockHeld returns the lock tid holds on pid, if any.
func (lt *LockTable) LockHeld(tid primitives.TransactionID, pid primitives.PageID) (LockType, bool) {
	txPages, ok := lt.transactionLocks[tid]
	if !ok {
		return 0, false
	}
	lockType, ok := txPages[pid]
	return lockType, ok
}

func (lt *LockTable) HasLockType(tid primitives.TransactionID, pid primitives.PageID, lockType LockType) bool {
	current, ok := lt.LockHeld(tid, pid)
	return ok && current == lockType
}

func (lt *LockTable) GetPageLocks(pid primitives.PageID) []*Lock {
	return lt.pageLocks[pid]
}

// AddLock records a new grant. Granting to a transaction that already holds
// the page replaces its entry.
func (lt *LockTable) AddLock(tid primitives.TransactionID, pid primitives.PageID, lockType LockType) {
	if _, held := lt.LockHeld(tid, pid); held {
		lt.removePageLock(tid, pid)
	}
	lt.pageLocks[pid] = append(lt.pageLocks[pid], NewLock(tid, lockType))

	if lt.transactionLocks[tid] == nil {
		lt.transactionLocks[tid] = make(map[primitives.PageID]LockType)
	}
	lt.transactionLocks[tid][pid] = lockType
}

func (lt *LockTable) IsPageLocked(pid primitives.PageID) bool {
	return len(lt.pageLocks[pid]) > 0
}

// IsExclusivelyLocked reports whether any transaction holds pid exclusively.
func (lt *LockTable) IsExclusivelyLocked(pid primitives.PageID) bool {
	for _, l := range lt.pageLocks[pid] {
		if l.LockType == ExclusiveLock {
			return true
		}
	}
	return false
}

// UpgradeLock turns tid's shared lock on pid into an exclusive one.
func (lt *LockTable) UpgradeLock(tid primitives.TransactionID, pid primitives.PageID) {
	for _, l := range lt.pageLocks[pid] {
		if l.TID == tid {
			l.LockType = ExclusiveLock
			break
		}
	}

	if txPages, ok := lt.transactionLocks[tid]; ok {
		txPages[pid] = ExclusiveLock
	}
}

// GetTransactionPages lists every page tid holds a lock on.
func (lt *LockTable) GetTransactionPages(tid primitives.TransactionID) []primitives.PageID {
	txPages := lt.transactionLocks[tid]
	pages := make([]primitives.PageID, 0, len(txPages))
	for pid := range txPages {
		pages = append(pages, pid)
	}
	return pages
}

// ReleaseAllLocks drops every lock held by tid and returns the affected pages.
func (lt *LockTable) ReleaseAllLocks(tid primitives.TransactionID) []primitives.PageID {
	pages := lt.GetTransactionPages(tid)
	for _, pid := range pages {
		lt.removePageLock(tid, pid)
	}
	delete(lt.transactionLocks, tid)
	return pages
}

// ReleaseLock drops tid's lock on a single page.
func (lt *LockTable) ReleaseLock(tid primitives.TransactionID, pid primitives.PageID) {
	lt.removePageLock(tid, pid)

	if txPages, ok := lt.transactionLocks[tid]; ok {
		delete(txPages, pid)
		if len(txPages) == 0 {
			delete(lt.transactionLocks, tid)
		}
	}
}

func (lt *LockTable) removePageLock(tid primitives.TransactionID, pid primitives.PageID) {
	locks := lt.pageLocks[pid]
	kept := make([]*Lock, 0, len(locks))
	for _, l := range locks {
		if l.TID != tid {
			kept = append(kept, l)
		}
	}
	updateOrDelete(lt.pageLocks, pid, kept)
}
