package iterator

import "heapdb/pkg/tuple"

// TupleIterator is the pull half of every cursor.
type TupleIterator interface {
	HasNext() (bool, error)

	// Next returns the next tuple, or an error wrapping
	// dberror.ErrNoSuchElement when the cursor is exhausted or not open.
	Next() (*tuple.Tuple, error)
}

// DbFileIterator is a cursor over every tuple stored in one file.
// Lifecycle: Closed -> Open -> Closed. Rewind behaves like Close followed by
// Open. Close drops the cursor but never releases page permissions.
type DbFileIterator interface {
	TupleIterator

	Open() error

	Rewind() error

	Close() error
}

// DbIterator is the operator interface: a DbFileIterator that also knows the
// schema of the tuples it produces.
type DbIterator interface {
	DbFileIterator

	GetTupleDesc() *tuple.TupleDescription
}
