package memory

import (
	"heapdb/pkg/dberror"
	"heapdb/pkg/logging"
	"heapdb/pkg/primitives"
	"heapdb/pkg/storage/page"
	"heapdb/pkg/tuple"
)

// InsertTuple adds t to the table on behalf of tid. The heap file acquires
// the pages it touches through this pool with ReadWrite; every page it
// reports as modified is marked dirty by tid.
func (bp *BufferPool) InsertTuple(tid primitives.TransactionID, tableID primitives.TableID, t *tuple.Tuple) error {
	dbFile, err := bp.tables.GetDbFile(tableID)
	if err != nil {
		return dberror.Wrap(err, "TABLE_NOT_FOUND", "InsertTuple", "BufferPool")
	}

	modified, err := dbFile.InsertTuple(tid, t)
	if err != nil {
		return err
	}

	if err := bp.markPagesDirty(tid, modified); err != nil {
		return err
	}
	bp.transactions.Acquire(tid).CountInsert()
	return nil
}

// DeleteTuple removes t, located by its RecordID, on behalf of tid.
func (bp *BufferPool) DeleteTuple(tid primitives.TransactionID, t *tuple.Tuple) error {
	if t == nil || t.RecordID == nil {
		return dberror.New(dberror.ErrCategoryUser, "NO_RECORD_ID", dberror.ErrAddressing,
			"tuple has no record id")
	}

	tableID := t.RecordID.PageID.GetTableID()
	dbFile, err := bp.tables.GetDbFile(tableID)
	if err != nil {
		return dberror.Wrap(err, "TABLE_NOT_FOUND", "DeleteTuple", "BufferPool")
	}

	modified, err := dbFile.DeleteTuple(tid, t)
	if err != nil {
		return err
	}

	if err := bp.markPagesDirty(tid, []page.Page{modified}); err != nil {
		return err
	}
	bp.transactions.Acquire(tid).CountDelete()
	return nil
}

// markPagesDirty marks each page dirty by tid and makes sure the cached
// instance is the one that was modified.
func (bp *BufferPool) markPagesDirty(tid primitives.TransactionID, pages []page.Page) error {
	txCtx := bp.transactions.Acquire(tid)

	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	for _, pg := range pages {
		pg.MarkDirty(true, tid)
		if err := bp.admitLocked(pg.GetID(), pg); err != nil {
			return err
		}
		txCtx.Dirty(pg.GetID())
		logging.WithPageTx(tid, pg.GetID()).Debug("page dirtied")
	}
	return nil
}
