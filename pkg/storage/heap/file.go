package heap

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"heapdb/pkg/dberror"
	"heapdb/pkg/iterator"
	"heapdb/pkg/logging"
	"heapdb/pkg/primitives"
	"heapdb/pkg/storage/page"
	"heapdb/pkg/tuple"
)

// HeapFile stores a table as an unordered sequence of HeapPages. Tuple
// inserts and deletes, and all iteration, go through the buffer pool so that
// page permissions are honoured; ReadPage and WritePage are the raw disk
// operations the buffer pool itself uses.
type HeapFile struct {
	*page.BaseFile
	tupleDesc *tuple.TupleDescription
	pool      page.PageGetter

	// extendMu serializes file growth.
	extendMu sync.Mutex
}

// NewHeapFile opens the heap file at filename. All page access made on
// behalf of transactions goes through pool.
func NewHeapFile(filename primitives.Filepath, td *tuple.TupleDescription, pool page.PageGetter) (*HeapFile, error) {
	if td == nil {
		return nil, errors.New("tuple description cannot be nil")
	}
	if pool == nil {
		return nil, errors.New("page getter cannot be nil")
	}

	baseFile, err := page.NewBaseFile(filename)
	if err != nil {
		return nil, err
	}

	if NumSlots(td) == 0 {
		_ = baseFile.Close()
		return nil, dberror.Newf(dberror.ErrCategoryUser, "TUPLE_TOO_LARGE", dberror.ErrSchemaMismatch,
			"tuple size %d does not fit in a %d byte page", td.GetSize(), page.Size())
	}

	return &HeapFile{
		BaseFile:  baseFile,
		tupleDesc: td,
		pool:      pool,
	}, nil
}

func (hf *HeapFile) GetTupleDesc() *tuple.TupleDescription {
	return hf.tupleDesc
}

// ReadPage reads pid straight from disk.
func (hf *HeapFile) ReadPage(pid primitives.PageID) (page.Page, error) {
	if err := hf.checkOwnership(pid, "ReadPage"); err != nil {
		return nil, err
	}

	pageData, err := hf.ReadPageData(pid.PageNo())
	if err != nil {
		return nil, err
	}

	return NewHeapPage(pid, pageData, hf.tupleDesc)
}

// WritePage writes the full image of p at its offset.
func (hf *HeapFile) WritePage(p page.Page) error {
	if p == nil {
		return errors.New("page cannot be nil")
	}
	if err := hf.checkOwnership(p.GetID(), "WritePage"); err != nil {
		return err
	}

	data, err := p.GetPageData()
	if err != nil {
		return errors.Wrapf(err, "serialize %s", p.GetID())
	}
	return hf.WritePageData(p.GetID().PageNo(), data)
}

func (hf *HeapFile) checkOwnership(pid primitives.PageID, op string) error {
	if pid.GetTableID() != hf.GetID() {
		return dberror.Newf(dberror.ErrCategoryUser, "WRONG_TABLE", dberror.ErrAddressing,
			"%s does not belong to table %d", pid, hf.GetID()).At(op, "HeapFile")
	}
	return nil
}

// InsertTuple adds t to the first page with a free slot, scanning from page
// 0 with ReadWrite permission. If every page is full an empty page is
// appended to the file and used instead.
func (hf *HeapFile) InsertTuple(tid primitives.TransactionID, t *tuple.Tuple) ([]page.Page, error) {
	if t == nil {
		return nil, errors.New("tuple cannot be nil")
	}
	if !hf.tupleDesc.Equals(t.TupleDesc) {
		return nil, dberror.New(dberror.ErrCategoryUser, "SCHEMA_MISMATCH", dberror.ErrSchemaMismatch,
			"tuple schema does not match table schema").
			WithDetail(fmt.Sprintf("table %s, tuple %s", hf.tupleDesc, t.TupleDesc)).
			At("InsertTuple", "HeapFile")
	}

	pageNo := primitives.PageNumber(0)
	for {
		numPages, err := hf.NumPages()
		if err != nil {
			return nil, err
		}

		for ; pageNo < numPages; pageNo++ {
			hp, err := hf.getHeapPage(tid, pageNo, page.ReadWrite)
			if err != nil {
				return nil, err
			}
			if hp.GetNumEmptySlots() == 0 {
				continue
			}
			if err := hp.InsertTuple(t); err != nil {
				return nil, err
			}
			return []page.Page{hp}, nil
		}

		newPage, err := hf.extend()
		if err != nil {
			return nil, err
		}
		logging.WithTx(tid).WithField("page_no", uint64(newPage)).Debug("heap file extended")
	}
}

func (hf *HeapFile) extend() (primitives.PageNumber, error) {
	hf.extendMu.Lock()
	defer hf.extendMu.Unlock()
	return hf.AllocateNewPage()
}

// DeleteTuple clears the slot named by t.RecordID.
func (hf *HeapFile) DeleteTuple(tid primitives.TransactionID, t *tuple.Tuple) (page.Page, error) {
	if t == nil || t.RecordID == nil {
		return nil, dberror.New(dberror.ErrCategoryUser, "NO_RECORD_ID", dberror.ErrAddressing,
			"tuple has no record ID").At("DeleteTuple", "HeapFile")
	}

	pid := t.RecordID.PageID
	if err := hf.checkOwnership(pid, "DeleteTuple"); err != nil {
		return nil, err
	}

	numPages, err := hf.NumPages()
	if err != nil {
		return nil, err
	}
	if pid.PageNo() >= numPages {
		return nil, dberror.Newf(dberror.ErrCategoryUser, "PAGE_OUT_OF_RANGE", dberror.ErrAddressing,
			"%s is past the end of the file", pid).At("DeleteTuple", "HeapFile")
	}

	hp, err := hf.getHeapPage(tid, pid.PageNo(), page.ReadWrite)
	if err != nil {
		return nil, err
	}
	if err := hp.DeleteTuple(t); err != nil {
		return nil, err
	}
	return hp, nil
}

func (hf *HeapFile) getHeapPage(tid primitives.TransactionID, pageNo primitives.PageNumber, perm page.Permissions) (*HeapPage, error) {
	p, err := hf.pool.GetPage(tid, primitives.NewPageID(hf.GetID(), pageNo), perm)
	if err != nil {
		return nil, err
	}

	hp, ok := p.(*HeapPage)
	if !ok {
		return nil, errors.Errorf("page %s is %T, not a heap page", p.GetID(), p)
	}
	return hp, nil
}

// Iterator returns a fresh, unopened cursor over every tuple in the file.
func (hf *HeapFile) Iterator(tid primitives.TransactionID) iterator.DbFileIterator {
	return NewHeapFileIterator(hf, tid)
}
