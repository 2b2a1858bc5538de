package memory

import (
	"github.com/sirupsen/logrus"

	"heapdb/pkg/concurrency/transaction"
	"heapdb/pkg/dberror"
	"heapdb/pkg/logging"
	"heapdb/pkg/primitives"
)

// TransactionComplete ends tid. On commit, the pages tid dirtied are written
// to disk. On abort, they are replaced in the cache by their on-disk image,
// which NO-STEAL guarantees predates tid. If a commit cannot write its pages
// the transaction is rolled back instead and the write error is returned.
// Every permission tid holds is released whatever the outcome.
func (bp *BufferPool) TransactionComplete(tid primitives.TransactionID, commit bool) error {
	txCtx, ok := bp.transactions.Lookup(tid)
	if !ok {
		// Never touched a page through this pool.
		bp.lockManager.UnlockAllPages(tid)
		return nil
	}

	if err := txCtx.BeginCompletion(commit); err != nil {
		return err
	}
	defer bp.release(txCtx)

	var err error
	if commit {
		if err = bp.commitPages(txCtx); err != nil {
			logging.WithTx(tid).WithError(err).Error("commit failed, rolling back")
			if rerr := bp.restorePages(txCtx); rerr != nil {
				logging.WithTx(tid).WithError(rerr).Error("rollback after failed commit incomplete")
			}
		}
	} else {
		err = bp.restorePages(txCtx)
	}

	if err != nil {
		txCtx.Fail()
		return err
	}
	return txCtx.FinishCompletion()
}

// release forgets tid and drops every lock it holds.
func (bp *BufferPool) release(txCtx *transaction.Context) {
	tid := txCtx.ID()
	bp.transactions.Forget(tid)
	released := bp.lockManager.UnlockAllPages(tid)

	stats := txCtx.Stats()
	logging.WithTx(tid).WithFields(logrus.Fields{
		"phase":    txCtx.Phase().String(),
		"written":  stats.PagesDirtied,
		"inserted": stats.TuplesWritten,
		"deleted":  stats.TuplesDeleted,
		"released": len(released),
		"duration": txCtx.Elapsed(),
	}).Debug("transaction complete")
}

func (bp *BufferPool) commitPages(txCtx *transaction.Context) error {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	for _, pid := range txCtx.DirtyPages() {
		if err := bp.flushPageLocked(pid); err != nil {
			return dberror.Wrap(err, "COMMIT_FAILED", "TransactionComplete", "BufferPool")
		}
		txCtx.Cleaned(pid)
	}
	return nil
}

// restorePages replaces each cached page tid dirtied with its disk image. A
// page that cannot be re-read is dropped from the cache instead, so the next
// access reads it from disk. The first failure is returned.
func (bp *BufferPool) restorePages(txCtx *transaction.Context) error {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	var firstErr error
	for _, pid := range txCtx.DirtyPages() {
		if _, ok := bp.cache.Peek(pid); !ok {
			continue
		}
		if err := bp.restorePageLocked(pid); err != nil {
			bp.cache.Remove(pid)
			logging.WithPageTx(txCtx.ID(), pid).WithError(err).Warn("page dropped, disk image unreadable")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		txCtx.Cleaned(pid)
		logging.WithPageTx(txCtx.ID(), pid).Debug("page restored from disk")
	}
	return firstErr
}

func (bp *BufferPool) restorePageLocked(pid primitives.PageID) error {
	dbFile, err := bp.tables.GetDbFile(pid.GetTableID())
	if err != nil {
		return dberror.Wrap(err, "TABLE_NOT_FOUND", "TransactionComplete", "BufferPool")
	}
	clean, err := dbFile.ReadPage(pid)
	if err != nil {
		return dberror.Wrap(err, "ROLLBACK_FAILED", "TransactionComplete", "BufferPool")
	}
	return bp.cache.Put(pid, clean)
}

// ActiveTransactions returns the number of transactions that have touched
// a page and not yet completed.
func (bp *BufferPool) ActiveTransactions() int {
	return bp.transactions.Len()
}

// TransactionStats reports the bookkeeping of a running transaction.
func (bp *BufferPool) TransactionStats(tid primitives.TransactionID) (transaction.Stats, bool) {
	txCtx, ok := bp.transactions.Lookup(tid)
	if !ok {
		return transaction.Stats{}, false
	}
	return txCtx.Stats(), true
}
