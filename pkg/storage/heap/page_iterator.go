package heap

import (
	"heapdb/pkg/dberror"
	"heapdb/pkg/tuple"
)

// HeapPageIterator walks the tuples of one page in slot order. It works on a
// snapshot taken at Open, so deleting through the same page does not disturb
// an iteration in progress.
type HeapPageIterator struct {
	page         *HeapPage
	tuples       []*tuple.Tuple
	currentIndex int
}

func NewHeapPageIterator(page *HeapPage) *HeapPageIterator {
	return &HeapPageIterator{
		page:         page,
		currentIndex: -1,
	}
}

func (it *HeapPageIterator) Open() error {
	it.tuples = it.page.GetTuples()
	it.currentIndex = -1
	return nil
}

func (it *HeapPageIterator) HasNext() (bool, error) {
	return it.currentIndex+1 < len(it.tuples), nil
}

func (it *HeapPageIterator) Next() (*tuple.Tuple, error) {
	if it.currentIndex+1 >= len(it.tuples) {
		return nil, dberror.Newf(dberror.ErrCategoryUser, "NO_SUCH_ELEMENT", dberror.ErrNoSuchElement,
			"no more tuples on %s", it.page.GetID())
	}

	it.currentIndex++
	return it.tuples[it.currentIndex], nil
}

func (it *HeapPageIterator) Rewind() error {
	return it.Open()
}

func (it *HeapPageIterator) Close() error {
	it.tuples = nil
	it.currentIndex = -1
	return nil
}
