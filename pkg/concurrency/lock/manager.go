package lock

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"heapdb/pkg/dberror"
	"heapdb/pkg/logging"
	"heapdb/pkg/primitives"
)

// Config bounds how long and how eagerly a blocked request retries.
type Config struct {
	// Timeout is the longest a single request may wait before the requester
	// is aborted. Zero disables the timeout and leaves only cycle detection.
	Timeout time.Duration

	// RetryBase is the first backoff delay; it doubles every few attempts up
	// to RetryMax.
	RetryBase time.Duration
	RetryMax  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Timeout:   2 * time.Second,
		RetryBase: time.Millisecond,
		RetryMax:  50 * time.Millisecond,
	}
}

type LockManager struct {
	mutex     sync.Mutex
	lockTable *LockTable
	waitQueue *WaitQueue
	depGraph  *DependencyGraph
	grantor   *LockGrantor
	cfg       Config

	// released is closed and replaced every time locks are released so that
	// waiters can retry at once instead of sleeping out their backoff.
	released chan struct{}
}

func NewLockManager(cfg Config) *LockManager {
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = DefaultConfig().RetryBase
	}
	if cfg.RetryMax < cfg.RetryBase {
		cfg.RetryMax = cfg.RetryBase
	}

	lockTable := NewLockTable()
	waitQueue := NewWaitQueue()
	return &LockManager{
		lockTable: lockTable,
		waitQueue: waitQueue,
		depGraph:  NewDependencyGraph(),
		grantor:   NewLockGrantor(lockTable, waitQueue),
		cfg:       cfg,
		released:  make(chan struct{}),
	}
}

// LockPage acquires a shared or exclusive lock on pid for tid, blocking until
// it is granted. It returns a *dberror.TransactionAbortedError when waiting
// would deadlock or exceeds the configured timeout.
func (lm *LockManager) LockPage(tid primitives.TransactionID, pid primitives.PageID, exclusive bool) error {
	lockType := SharedLock
	if exclusive {
		lockType = ExclusiveLock
	}

	var deadline time.Time
	if lm.cfg.Timeout > 0 {
		deadline = time.Now().Add(lm.cfg.Timeout)
	}

	for attempt := 0; ; attempt++ {
		lm.mutex.Lock()

		if lm.tryAcquire(tid, pid, lockType) {
			lm.mutex.Unlock()
			return nil
		}

		lm.waitQueue.Add(tid, pid, lockType)
		lm.updateDependencies(tid, pid, lockType)

		if lm.depGraph.HasCycleFrom(tid) {
			lm.stopWaiting(tid, pid)
			lm.mutex.Unlock()

			logging.WithPageTx(tid, pid).WithField("lock_type", lockType.String()).Warn("deadlock detected, aborting requester")
			return dberror.NewTransactionAborted(tid, pid, dberror.AbortDeadlock)
		}

		wake := lm.released
		lm.mutex.Unlock()

		if !deadline.IsZero() && !time.Now().Before(deadline) {
			lm.mutex.Lock()
			lm.stopWaiting(tid, pid)
			lm.mutex.Unlock()

			logging.WithPageTx(tid, pid).WithFields(logrus.Fields{
				"lock_type": lockType.String(),
				"timeout":   lm.cfg.Timeout,
			}).Warn("lock wait timed out, aborting requester")
			return dberror.NewTransactionAborted(tid, pid, dberror.AbortTimeout)
		}

		delay := lm.calculateRetryDelay(attempt)
		if !deadline.IsZero() {
			if remaining := time.Until(deadline); remaining < delay {
				delay = remaining
			}
		}

		timer := time.NewTimer(delay)
		select {
		case <-wake:
		case <-timer.C:
		}
		timer.Stop()
	}
}

// tryAcquire grants the request if possible. Caller holds lm.mutex.
func (lm *LockManager) tryAcquire(tid primitives.TransactionID, pid primitives.PageID, lockType LockType) bool {
	if lm.lockTable.HasSufficientLock(tid, pid, lockType) {
		lm.stopWaiting(tid, pid)
		return true
	}

	if lockType == ExclusiveLock && lm.lockTable.HasLockType(tid, pid, SharedLock) {
		if !lm.grantor.CanUpgradeLock(tid, pid) {
			return false
		}
		lm.lockTable.UpgradeLock(tid, pid)
		lm.stopWaiting(tid, pid)
		return true
	}

	if lm.grantor.CanGrantImmediately(tid, pid, lockType) {
		lm.grantor.GrantLock(tid, pid, lockType)
		lm.depGraph.ClearWaits(tid)
		return true
	}
	return false
}

// updateDependencies replaces tid's outgoing edges with the current blockers
// of its request. Caller holds lm.mutex.
func (lm *LockManager) updateDependencies(tid primitives.TransactionID, pid primitives.PageID, lockType LockType) {
	lm.depGraph.ClearWaits(tid)
	for _, holder := range lm.grantor.Conflicts(tid, pid, lockType) {
		lm.depGraph.AddEdge(tid, holder)
	}
}

func (lm *LockManager) stopWaiting(tid primitives.TransactionID, pid primitives.PageID) {
	lm.waitQueue.Remove(tid, pid)
	lm.depGraph.ClearWaits(tid)
}

func (lm *LockManager) calculateRetryDelay(attemptNumber int) time.Duration {
	exponentialFactor := min(attemptNumber/10, 10)
	delay := lm.cfg.RetryBase * time.Duration(1<<uint(exponentialFactor))

	if delay > lm.cfg.RetryMax {
		delay = lm.cfg.RetryMax
	}

	return delay
}

// broadcastRelease wakes every waiter. Caller holds lm.mutex.
func (lm *LockManager) broadcastRelease() {
	close(lm.released)
	lm.released = make(chan struct{})
}

// UnlockPage releases tid's lock on a single page.
func (lm *LockManager) UnlockPage(tid primitives.TransactionID, pid primitives.PageID) {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	lm.lockTable.ReleaseLock(tid, pid)
	lm.broadcastRelease()
}

// UnlockAllPages releases every lock held by tid and forgets any wait it
// was part of.
func (lm *LockManager) UnlockAllPages(tid primitives.TransactionID) []primitives.PageID {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	pages := lm.lockTable.ReleaseAllLocks(tid)
	lm.waitQueue.RemoveTransaction(tid)
	lm.depGraph.RemoveTransaction(tid)
	lm.broadcastRelease()
	return pages
}

func (lm *LockManager) IsPageLocked(pid primitives.PageID) bool {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()
	return lm.lockTable.IsPageLocked(pid)
}

func (lm *LockManager) IsExclusivelyLocked(pid primitives.PageID) bool {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()
	return lm.lockTable.IsExclusivelyLocked(pid)
}

// HoldsLock reports whether tid holds any lock on pid.
func (lm *LockManager) HoldsLock(tid primitives.TransactionID, pid primitives.PageID) bool {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()
	_, ok := lm.lockTable.LockHeld(tid, pid)
	return ok
}

// LockHeld returns the lock tid holds on pid, if any.
func (lm *LockManager) LockHeld(tid primitives.TransactionID, pid primitives.PageID) (LockType, bool) {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()
	return lm.lockTable.LockHeld(tid, pid)
}

// LockedPages lists the pages tid holds locks on.
func (lm *LockManager) LockedPages(tid primitives.TransactionID) []primitives.PageID {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()
	return lm.lockTable.GetTransactionPages(tid)
}

// IsWaiting reports whether tid is currently blocked in LockPage.
func (lm *LockManager) IsWaiting(tid primitives.TransactionID) bool {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()
	return lm.waitQueue.IsWaiting(tid)
}
