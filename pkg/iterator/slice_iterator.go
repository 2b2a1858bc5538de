package iterator

import (
	"heapdb/pkg/dberror"
	"heapdb/pkg/tuple"
)

// TupleSliceIterator serves a fixed slice of tuples through the DbIterator
// interface. Aggregates use it for their results and tests use it as an
// operator child.
type TupleSliceIterator struct {
	td     *tuple.TupleDescription
	tuples []*tuple.Tuple
	pos    int
	opened bool
}

func NewTupleSliceIterator(td *tuple.TupleDescription, tuples []*tuple.Tuple) *TupleSliceIterator {
	return &TupleSliceIterator{td: td, tuples: tuples}
}

func (it *TupleSliceIterator) Open() error {
	it.opened = true
	it.pos = 0
	return nil
}

func (it *TupleSliceIterator) HasNext() (bool, error) {
	if !it.opened {
		return false, dberror.ErrIteratorClosed
	}
	return it.pos < len(it.tuples), nil
}

func (it *TupleSliceIterator) Next() (*tuple.Tuple, error) {
	if !it.opened || it.pos >= len(it.tuples) {
		return nil, dberror.New(dberror.ErrCategoryUser, "NO_SUCH_ELEMENT", dberror.ErrNoSuchElement,
			"slice iterator exhausted")
	}
	t := it.tuples[it.pos]
	it.pos++
	return t, nil
}

func (it *TupleSliceIterator) Rewind() error {
	if !it.opened {
		return dberror.ErrIteratorClosed
	}
	it.pos = 0
	return nil
}

func (it *TupleSliceIterator) Close() error {
	it.opened = false
	return nil
}

func (it *TupleSliceIterator) GetTupleDesc() *tuple.TupleDescription {
	return it.td
}

func (it *TupleSliceIterator) Len() int {
	return len(it.tuples)
}
