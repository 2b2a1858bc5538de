package heap

import (
	"heapdb/pkg/dberror"
	"heapdb/pkg/primitives"
	"heapdb/pkg/storage/page"
	"heapdb/pkg/tuple"
)

// HeapFileIterator walks every tuple of a HeapFile, page by page, acquiring
// each page ReadOnly through the buffer pool. Permissions obtained along the
// way are kept until the transaction completes.
type HeapFileIterator struct {
	file        *HeapFile
	tid         primitives.TransactionID
	currentPage primitives.PageNumber
	pageIter    *HeapPageIterator
	isOpen      bool
}

func NewHeapFileIterator(file *HeapFile, tid primitives.TransactionID) *HeapFileIterator {
	return &HeapFileIterator{
		file: file,
		tid:  tid,
	}
}

// Open positions the cursor on page 0. A file with no pages yields nothing.
func (it *HeapFileIterator) Open() error {
	it.isOpen = true
	it.currentPage = 0
	it.pageIter = nil

	numPages, err := it.file.NumPages()
	if err != nil {
		return err
	}
	if numPages == 0 {
		return nil
	}
	return it.loadPage(0)
}

func (it *HeapFileIterator) loadPage(pageNo primitives.PageNumber) error {
	hp, err := it.file.getHeapPage(it.tid, pageNo, page.ReadOnly)
	if err != nil {
		it.pageIter = nil
		return err
	}

	it.currentPage = pageNo
	it.pageIter = hp.Iterator()
	return it.pageIter.Open()
}

// advance moves forward until the page cursor has a tuple or the file is
// exhausted.
func (it *HeapFileIterator) advance() (bool, error) {
	if !it.isOpen || it.pageIter == nil {
		return false, nil
	}

	for {
		hasNext, err := it.pageIter.HasNext()
		if err != nil {
			return false, err
		}
		if hasNext {
			return true, nil
		}

		numPages, err := it.file.NumPages()
		if err != nil {
			return false, err
		}
		if it.currentPage+1 >= numPages {
			return false, nil
		}
		if err := it.loadPage(it.currentPage + 1); err != nil {
			return false, err
		}
	}
}

func (it *HeapFileIterator) HasNext() (bool, error) {
	return it.advance()
}

func (it *HeapFileIterator) Next() (*tuple.Tuple, error) {
	ok, err := it.advance()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, dberror.New(dberror.ErrCategoryUser, "NO_SUCH_ELEMENT", dberror.ErrNoSuchElement,
			"heap file iterator exhausted or not open").At("Next", "HeapFileIterator")
	}
	return it.pageIter.Next()
}

// Rewind restarts at page 0, fetching it again through the buffer pool.
func (it *HeapFileIterator) Rewind() error {
	if err := it.Close(); err != nil {
		return err
	}
	return it.Open()
}

// Close drops the page cursor. Page permissions are not released.
func (it *HeapFileIterator) Close() error {
	if it.pageIter != nil {
		_ = it.pageIter.Close()
		it.pageIter = nil
	}
	it.isOpen = false
	return nil
}
