package page

import (
	"heapdb/pkg/iterator"
	"heapdb/pkg/primitives"
	"heapdb/pkg/tuple"
)

// DbFile is a table's on-disk representation as seen by the buffer pool and
// the catalog.
type DbFile interface {
	// ReadPage reads directly from disk, bypassing the buffer pool.
	ReadPage(pid primitives.PageID) (Page, error)

	// WritePage writes the full page image at its offset.
	WritePage(p Page) error

	GetID() primitives.TableID

	GetTupleDesc() *tuple.TupleDescription

	NumPages() (primitives.PageNumber, error)

	// InsertTuple adds t on behalf of tid and returns the pages it modified.
	InsertTuple(tid primitives.TransactionID, t *tuple.Tuple) ([]Page, error)

	// DeleteTuple removes the tuple identified by t.RecordID and returns the
	// modified page.
	DeleteTuple(tid primitives.TransactionID, t *tuple.Tuple) (Page, error)

	Iterator(tid primitives.TransactionID) iterator.DbFileIterator

	Close() error
}
