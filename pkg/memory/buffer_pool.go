package memory

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"heapdb/pkg/concurrency/lock"
	"heapdb/pkg/concurrency/transaction"
	"heapdb/pkg/dberror"
	"heapdb/pkg/logging"
	"heapdb/pkg/primitives"
	"heapdb/pkg/storage/page"
)

// DefaultPageCount is the capacity used when NewBufferPool is given a
// non-positive one.
const DefaultPageCount = 50

// TableProvider resolves a table id to its backing file. The catalog is the
// production implementation.
type TableProvider interface {
	GetDbFile(tableID primitives.TableID) (page.DbFile, error)
}

type Option func(*BufferPool)

// WithLockConfig overrides the lock manager's timeout and backoff.
func WithLockConfig(cfg lock.Config) Option {
	return func(bp *BufferPool) {
		bp.lockConfig = cfg
	}
}

type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Cached    int
}

// BufferPool caches pages for every table and mediates all page access.
//
// A caller first obtains a permission on the page from the lock manager,
// which may block or abort; only then is the pool mutex taken to find or
// admit the page. The pool never holds its mutex while waiting for a lock.
//
// Pages dirtied by a running transaction are never evicted (NO-STEAL), and
// are written on commit (FORCE).
type BufferPool struct {
	tables       TableProvider
	capacity     int
	cache        PageCache
	lockManager  *lock.LockManager
	lockConfig   lock.Config
	transactions *transaction.Registry

	mutex sync.Mutex
	stats Stats
}

func NewBufferPool(tables TableProvider, capacity int, opts ...Option) *BufferPool {
	if capacity <= 0 {
		capacity = DefaultPageCount
	}

	bp := &BufferPool{
		tables:       tables,
		capacity:     capacity,
		cache:        NewLRUPageCache(capacity),
		lockConfig:   lock.DefaultConfig(),
		transactions: transaction.NewRegistry(),
	}
	for _, opt := range opts {
		opt(bp)
	}
	bp.lockManager = lock.NewLockManager(bp.lockConfig)
	return bp
}

// GetPage returns the page identified by pid with the requested permission,
// reading it from disk on first access. It blocks while another transaction
// holds a conflicting permission and returns a TransactionAbortedError when
// tid must be rolled back to break a deadlock or a timeout.
func (bp *BufferPool) GetPage(tid primitives.TransactionID, pid primitives.PageID, perm page.Permissions) (page.Page, error) {
	if err := bp.lockManager.LockPage(tid, pid, perm == page.ReadWrite); err != nil {
		return nil, err
	}
	bp.transactions.Acquire(tid).Touch(pid, perm)

	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	if pg, ok := bp.cache.Get(pid); ok {
		bp.stats.Hits++
		return pg, nil
	}
	bp.stats.Misses++

	dbFile, err := bp.tables.GetDbFile(pid.GetTableID())
	if err != nil {
		return nil, dberror.Wrap(err, "TABLE_NOT_FOUND", "GetPage", "BufferPool")
	}

	pg, err := dbFile.ReadPage(pid)
	if err != nil {
		return nil, dberror.Wrap(err, "READ_FAILED", "GetPage", "BufferPool")
	}

	if err := bp.admitLocked(pid, pg); err != nil {
		return nil, err
	}

	logging.WithPageTx(tid, pid).WithField("perm", perm.String()).Debug("page loaded")
	return pg, nil
}

// admitLocked puts pg in the cache, evicting another page first if the cache
// is full. Caller holds bp.mutex.
func (bp *BufferPool) admitLocked(pid primitives.PageID, pg page.Page) error {
	if _, ok := bp.cache.Peek(pid); !ok && bp.cache.Size() >= bp.capacity {
		if err := bp.evictLocked(); err != nil {
			return err
		}
	}
	return bp.cache.Put(pid, pg)
}

// evictLocked removes one clean page, scanning from the least recently used
// end. Unlocked pages go first, then pages held only by readers, then pages
// held ReadWrite. Dirty pages are never chosen.
func (bp *BufferPool) evictLocked() error {
	var victim primitives.PageID
	best := -1

	for _, pid := range bp.cache.GetAll() {
		pg, ok := bp.cache.Peek(pid)
		if !ok {
			continue
		}
		if _, dirty := pg.IsDirty(); dirty {
			continue
		}

		rank := 0
		switch {
		case bp.lockManager.IsExclusivelyLocked(pid):
			rank = 2
		case bp.lockManager.IsPageLocked(pid):
			rank = 1
		}
		if best < 0 || rank < best {
			victim, best = pid, rank
		}
		if rank == 0 {
			break
		}
	}

	if best < 0 {
		return dberror.Newf(dberror.ErrCategoryTransient, "BUFFER_POOL_FULL", dberror.ErrResourceExhausted,
			"all %d cached pages are dirty", bp.cache.Size())
	}

	bp.cache.Remove(victim)
	bp.stats.Evictions++
	logging.WithPage(victim).Debug("page evicted")
	return nil
}

// FlushPage writes pid to disk if it is cached and dirty, then marks it
// clean. The page stays cached.
func (bp *BufferPool) FlushPage(pid primitives.PageID) error {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()
	return bp.flushPageLocked(pid)
}

func (bp *BufferPool) flushPageLocked(pid primitives.PageID) error {
	pg, ok := bp.cache.Peek(pid)
	if !ok {
		return nil
	}
	if _, dirty := pg.IsDirty(); !dirty {
		return nil
	}

	dbFile, err := bp.tables.GetDbFile(pid.GetTableID())
	if err != nil {
		return dberror.Wrap(err, "TABLE_NOT_FOUND", "FlushPage", "BufferPool")
	}
	if err := dbFile.WritePage(pg); err != nil {
		return dberror.Wrap(err, "WRITE_FAILED", "FlushPage", "BufferPool")
	}
	pg.MarkDirty(false, primitives.TransactionID{})
	return nil
}

// FlushAllPages writes every dirty cached page, one goroutine per table.
// It ignores NO-STEAL: uncommitted changes reach disk too. Meant for
// shutdown and tests.
func (bp *BufferPool) FlushAllPages() error {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	byTable := make(map[primitives.TableID][]page.Page)
	for _, pid := range bp.cache.GetAll() {
		pg, _ := bp.cache.Peek(pid)
		if _, dirty := pg.IsDirty(); dirty {
			byTable[pid.GetTableID()] = append(byTable[pid.GetTableID()], pg)
		}
	}

	var g errgroup.Group
	for tableID, pages := range byTable {
		pages := pages
		dbFile, err := bp.tables.GetDbFile(tableID)
		if err != nil {
			return dberror.Wrap(err, "TABLE_NOT_FOUND", "FlushAllPages", "BufferPool")
		}
		g.Go(func() error {
			for _, pg := range pages {
				if err := dbFile.WritePage(pg); err != nil {
					return errors.Wrapf(err, "flushing %s", pg.GetID())
				}
				pg.MarkDirty(false, primitives.TransactionID{})
			}
			return nil
		})
	}
	return g.Wait()
}

// DiscardPage drops pid from the cache without writing it.
func (bp *BufferPool) DiscardPage(pid primitives.PageID) {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()
	bp.cache.Remove(pid)
}

// HoldsPermission reports the permission tid currently holds on pid.
func (bp *BufferPool) HoldsPermission(tid primitives.TransactionID, pid primitives.PageID) (page.Permissions, bool) {
	lockType, ok := bp.lockManager.LockHeld(tid, pid)
	if !ok {
		return page.ReadOnly, false
	}
	if lockType == lock.ExclusiveLock {
		return page.ReadWrite, true
	}
	return page.ReadOnly, true
}

// UnsafeReleasePage gives up tid's permission on pid before the transaction
// completes. This breaks two-phase locking; only use it for pages tid has
// read and will not read again.
func (bp *BufferPool) UnsafeReleasePage(tid primitives.TransactionID, pid primitives.PageID) {
	bp.lockManager.UnlockPage(tid, pid)
}

func (bp *BufferPool) Stats() Stats {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	s := bp.stats
	s.Cached = bp.cache.Size()
	return s
}

func (bp *BufferPool) Capacity() int {
	return bp.capacity
}

// Close flushes every dirty page.
func (bp *BufferPool) Close() error {
	if err := bp.FlushAllPages(); err != nil {
		logging.WithComponent("BufferPool").WithFields(logrus.Fields{"error": err}).Error("flush on close failed")
		return err
	}
	return nil
}
