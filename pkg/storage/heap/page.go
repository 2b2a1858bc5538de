package heap

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"heapdb/pkg/dberror"
	"heapdb/pkg/primitives"
	"heapdb/pkg/storage/page"
	"heapdb/pkg/tuple"
	"heapdb/pkg/types"
)

// HeapPage stores fixed-width tuples in an unordered slot array.
//
// On-disk layout:
//
//	[header: ceil(N/8) bytes][slot 0][slot 1]...[slot N-1][zero padding]
//
// Slot i is occupied iff bit (i % 8) of header byte i/8 is set, least
// significant bit first. Each slot is exactly tupleDesc.GetSize() bytes.
type HeapPage struct {
	pageID    primitives.PageID
	tupleDesc *tuple.TupleDescription
	header    []byte
	tuples    []*tuple.Tuple
	numSlots  primitives.SlotID
	dirtier   primitives.TransactionID
	dirty     bool
	mutex     sync.RWMutex
}

// NumSlots returns how many tuples of td fit on one page:
// floor(8*pageSize / (8*tupleSize + 1)). Each tuple costs its own bytes plus
// one header bit.
func NumSlots(td *tuple.TupleDescription) primitives.SlotID {
	bits := page.Size() * 8
	perTuple := int(td.GetSize())*8 + 1
	return primitives.SlotID(bits / perTuple) // #nosec G115
}

// HeaderSize returns the bitmap length in bytes for td.
func HeaderSize(td *tuple.TupleDescription) int {
	return (int(NumSlots(td)) + 7) / 8
}

// CreateEmptyPageData returns a zero-filled page image, which decodes as a
// page with every slot empty.
func CreateEmptyPageData() []byte {
	return make([]byte, page.Size())
}

// NewHeapPage decodes data into a page. data may be shorter than a page (the
// last page of a file); missing bytes are treated as zero.
func NewHeapPage(pid primitives.PageID, data []byte, td *tuple.TupleDescription) (*HeapPage, error) {
	if len(data) > page.Size() {
		return nil, fmt.Errorf("invalid page data size: expected at most %d, got %d", page.Size(), len(data))
	}

	numSlots := NumSlots(td)
	if numSlots == 0 {
		return nil, dberror.Newf(dberror.ErrCategoryUser, "TUPLE_TOO_LARGE", dberror.ErrSchemaMismatch,
			"tuple size %d does not fit in a %d byte page", td.GetSize(), page.Size())
	}

	if len(data) < page.Size() {
		padded := make([]byte, page.Size())
		copy(padded, data)
		data = padded
	}

	hp := &HeapPage{
		pageID:    pid,
		tupleDesc: td,
		numSlots:  numSlots,
		header:    make([]byte, HeaderSize(td)),
		tuples:    make([]*tuple.Tuple, numSlots),
	}

	if err := hp.parsePageData(data); err != nil {
		return nil, dberror.Newf(dberror.ErrCategoryData, "CORRUPT_PAGE", dberror.ErrIO,
			"cannot decode %s", pid).WithDetail(err.Error())
	}
	return hp, nil
}

// NewEmptyHeapPage returns a page with every slot free.
func NewEmptyHeapPage(pid primitives.PageID, td *tuple.TupleDescription) (*HeapPage, error) {
	return NewHeapPage(pid, CreateEmptyPageData(), td)
}

func (hp *HeapPage) parsePageData(data []byte) error {
	copy(hp.header, data[:len(hp.header)])

	tupleSize := int(hp.tupleDesc.GetSize())
	for i := primitives.SlotID(0); i < hp.numSlots; i++ {
		if !hp.isSlotUsed(i) {
			continue
		}

		offset := len(hp.header) + int(i)*tupleSize
		t, err := readTuple(bytes.NewReader(data[offset:offset+tupleSize]), hp.tupleDesc)
		if err != nil {
			return fmt.Errorf("failed to read tuple at slot %d: %w", i, err)
		}

		t.RecordID = tuple.NewRecordID(hp.pageID, i)
		hp.tuples[i] = t
	}
	return nil
}

func readTuple(reader io.Reader, td *tuple.TupleDescription) (*tuple.Tuple, error) {
	t := tuple.NewTuple(td)

	for j := 0; j < td.NumFields(); j++ {
		fieldType, err := td.TypeAtIndex(j)
		if err != nil {
			return nil, err
		}

		field, err := types.ParseField(reader, fieldType)
		if err != nil {
			return nil, err
		}

		if err := t.SetField(j, field); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (hp *HeapPage) GetID() primitives.PageID {
	return hp.pageID
}

func (hp *HeapPage) GetTupleDesc() *tuple.TupleDescription {
	return hp.tupleDesc
}

func (hp *HeapPage) NumSlots() primitives.SlotID {
	return hp.numSlots
}

func (hp *HeapPage) IsDirty() (primitives.TransactionID, bool) {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()
	return hp.dirtier, hp.dirty
}

func (hp *HeapPage) MarkDirty(dirty bool, tid primitives.TransactionID) {
	hp.mutex.Lock()
	defer hp.mutex.Unlock()

	hp.dirty = dirty
	if dirty {
		hp.dirtier = tid
	} else {
		hp.dirtier = primitives.TransactionID{}
	}
}

// GetPageData serializes the page. Unused slots are written as zeros, so
// NewHeapPage(id, p.GetPageData(), td) reproduces p.
func (hp *HeapPage) GetPageData() ([]byte, error) {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()

	buf := bytes.NewBuffer(make([]byte, 0, page.Size()))
	buf.Write(hp.header)

	tupleSize := int(hp.tupleDesc.GetSize())
	zeroSlot := make([]byte, tupleSize)

	for i := primitives.SlotID(0); i < hp.numSlots; i++ {
		t := hp.tuples[i]
		if !hp.isSlotUsed(i) || t == nil {
			buf.Write(zeroSlot)
			continue
		}

		for j := 0; j < hp.tupleDesc.NumFields(); j++ {
			field, err := t.GetField(j)
			if err != nil {
				return nil, err
			}
			if field == nil {
				return nil, fmt.Errorf("slot %d: field %d is unset", i, j)
			}
			if err := field.Serialize(buf); err != nil {
				return nil, err
			}
		}
	}

	data := buf.Bytes()
	if len(data) < page.Size() {
		data = append(data, make([]byte, page.Size()-len(data))...)
	}
	return data, nil
}

func (hp *HeapPage) GetNumEmptySlots() primitives.SlotID {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()
	return hp.getNumEmptySlots()
}

func (hp *HeapPage) getNumEmptySlots() primitives.SlotID {
	empty := primitives.SlotID(0)
	for i := primitives.SlotID(0); i < hp.numSlots; i++ {
		if !hp.isSlotUsed(i) {
			empty++
		}
	}
	return empty
}

// IsSlotUsed reports whether slot i holds a tuple. Out-of-range slots are
// reported as unused.
func (hp *HeapPage) IsSlotUsed(i primitives.SlotID) bool {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()
	return hp.isSlotUsed(i)
}

func (hp *HeapPage) isSlotUsed(i primitives.SlotID) bool {
	if i >= hp.numSlots {
		return false
	}
	return hp.header[i/8]&(1<<(i%8)) != 0
}

func (hp *HeapPage) markSlotUsed(i primitives.SlotID, used bool) {
	if used {
		hp.header[i/8] |= 1 << (i % 8)
	} else {
		hp.header[i/8] &^= 1 << (i % 8)
	}
}

// InsertTuple stores a copy of t in the lowest free slot and sets the
// RecordID of both. Later changes to t do not reach the page.
func (hp *HeapPage) InsertTuple(t *tuple.Tuple) error {
	hp.mutex.Lock()
	defer hp.mutex.Unlock()

	if !hp.tupleDesc.Equals(t.TupleDesc) {
		return dberror.New(dberror.ErrCategoryUser, "SCHEMA_MISMATCH", dberror.ErrSchemaMismatch,
			"tuple schema does not match page schema").
			WithDetail(fmt.Sprintf("page %s, tuple %s", hp.tupleDesc, t.TupleDesc)).
			At("InsertTuple", "HeapPage")
	}
	if !t.Complete() {
		return dberror.New(dberror.ErrCategoryUser, "INCOMPLETE_TUPLE", dberror.ErrSchemaMismatch,
			"tuple has unset fields").At("InsertTuple", "HeapPage")
	}

	for i := primitives.SlotID(0); i < hp.numSlots; i++ {
		if hp.isSlotUsed(i) {
			continue
		}
		rid := tuple.NewRecordID(hp.pageID, i)
		stored := t.Clone()
		stored.RecordID = rid
		hp.markSlotUsed(i, true)
		hp.tuples[i] = stored
		t.RecordID = rid
		return nil
	}

	return dberror.Newf(dberror.ErrCategoryUser, "PAGE_FULL", dberror.ErrPageFull,
		"no empty slot on %s", hp.pageID).At("InsertTuple", "HeapPage")
}

// DeleteTuple clears the slot named by t.RecordID.
func (hp *HeapPage) DeleteTuple(t *tuple.Tuple) error {
	hp.mutex.Lock()
	defer hp.mutex.Unlock()

	rid := t.RecordID
	if rid == nil {
		return dberror.New(dberror.ErrCategoryUser, "NO_RECORD_ID", dberror.ErrAddressing,
			"tuple has no record ID").At("DeleteTuple", "HeapPage")
	}

	if !rid.PageID.Equals(hp.pageID) {
		return dberror.Newf(dberror.ErrCategoryUser, "WRONG_PAGE", dberror.ErrAddressing,
			"tuple is on %s, not %s", rid.PageID, hp.pageID).At("DeleteTuple", "HeapPage")
	}

	if !hp.isSlotUsed(rid.Slot) {
		return dberror.Newf(dberror.ErrCategoryUser, "SLOT_EMPTY", dberror.ErrSlotEmpty,
			"slot %d of %s is empty", rid.Slot, hp.pageID).At("DeleteTuple", "HeapPage")
	}

	hp.markSlotUsed(rid.Slot, false)
	hp.tuples[rid.Slot] = nil
	return nil
}

// GetTuples returns the stored tuples in increasing slot order.
func (hp *HeapPage) GetTuples() []*tuple.Tuple {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()

	tuples := make([]*tuple.Tuple, 0, hp.numSlots-hp.getNumEmptySlots())
	for i, t := range hp.tuples {
		if hp.isSlotUsed(primitives.SlotID(i)) && t != nil { // #nosec G115
			tuples = append(tuples, t)
		}
	}
	return tuples
}

// GetTupleAt returns the tuple in slot idx, or nil if the slot is empty.
func (hp *HeapPage) GetTupleAt(idx primitives.SlotID) (*tuple.Tuple, error) {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()

	if idx >= hp.numSlots {
		return nil, fmt.Errorf("slot index %d out of bounds", idx)
	}
	return hp.tuples[idx], nil
}

// Iterator returns a cursor over the occupied slots as of this call.
func (hp *HeapPage) Iterator() *HeapPageIterator {
	return NewHeapPageIterator(hp)
}
