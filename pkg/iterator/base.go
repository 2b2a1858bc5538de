package iterator

import (
	"heapdb/pkg/dberror"
	"heapdb/pkg/tuple"
)

// ReadNextFunc produces the next tuple of an operator, or (nil, nil) once the
// operator is exhausted.
type ReadNextFunc func() (*tuple.Tuple, error)

// BaseIterator implements the HasNext/Next lookahead shared by operators.
// Operators embed it and supply only a ReadNextFunc.
type BaseIterator struct {
	nextTuple    *tuple.Tuple
	opened       bool
	readNextFunc ReadNextFunc
}

func NewBaseIterator(readNextFunc ReadNextFunc) *BaseIterator {
	return &BaseIterator{
		readNextFunc: readNextFunc,
	}
}

// HasNext fetches and caches the next tuple if none is cached.
func (it *BaseIterator) HasNext() (bool, error) {
	if !it.opened {
		return false, dberror.ErrIteratorClosed
	}

	if it.nextTuple == nil {
		var err error
		it.nextTuple, err = it.readNextFunc()
		if err != nil {
			return false, err
		}
	}
	return it.nextTuple != nil, nil
}

func (it *BaseIterator) Next() (*tuple.Tuple, error) {
	if !it.opened {
		return nil, dberror.New(dberror.ErrCategoryUser, "NO_SUCH_ELEMENT", dberror.ErrNoSuchElement,
			"iterator not opened")
	}

	if it.nextTuple == nil {
		var err error
		it.nextTuple, err = it.readNextFunc()
		if err != nil {
			return nil, err
		}
		if it.nextTuple == nil {
			return nil, dberror.New(dberror.ErrCategoryUser, "NO_SUCH_ELEMENT", dberror.ErrNoSuchElement,
				"no more tuples")
		}
	}

	result := it.nextTuple
	it.nextTuple = nil
	return result, nil
}

// MarkOpened allows HasNext and Next to be called.
func (it *BaseIterator) MarkOpened() {
	it.opened = true
	it.nextTuple = nil
}

// Rewind drops the cached lookahead. The embedding operator is responsible
// for resetting its own source.
func (it *BaseIterator) Rewind() error {
	if !it.opened {
		return dberror.ErrIteratorClosed
	}
	it.nextTuple = nil
	return nil
}

func (it *BaseIterator) Close() error {
	it.opened = false
	it.nextTuple = nil
	return nil
}

func (it *BaseIterator) IsOpen() bool {
	return it.opened
}
