package execution

import (
	"fmt"

	"heapdb/pkg/iterator"
	"heapdb/pkg/memory"
	"heapdb/pkg/primitives"
	"heapdb/pkg/tuple"
)

// SeqScan reads all tuples of a table in storage order. Field names of the
// output are qualified with the table alias ("alias.field").
type SeqScan struct {
	base      *iterator.BaseIterator
	tid       primitives.TransactionID
	tableID   primitives.TableID
	alias     string
	tupleDesc *tuple.TupleDescription
	fileIter  iterator.DbFileIterator
}

func NewSeqScan(tid primitives.TransactionID, tableID primitives.TableID, alias string, tables memory.TableProvider) (*SeqScan, error) {
	if tables == nil {
		return nil, fmt.Errorf("table provider cannot be nil")
	}

	file, err := tables.GetDbFile(tableID)
	if err != nil {
		return nil, err
	}

	ss := &SeqScan{
		tid:       tid,
		tableID:   tableID,
		alias:     alias,
		tupleDesc: file.GetTupleDesc().WithPrefix(alias),
		fileIter:  file.Iterator(tid),
	}
	ss.base = iterator.NewBaseIterator(ss.readNext)
	return ss, nil
}

func (ss *SeqScan) Open() error {
	if err := ss.fileIter.Open(); err != nil {
		return fmt.Errorf("failed to open scan of table %d: %w", ss.tableID, err)
	}
	ss.base.MarkOpened()
	return nil
}

func (ss *SeqScan) readNext() (*tuple.Tuple, error) {
	hasNext, err := ss.fileIter.HasNext()
	if err != nil || !hasNext {
		return nil, err
	}
	return ss.fileIter.Next()
}

// Rewind restarts the scan from page 0.
func (ss *SeqScan) Rewind() error {
	if err := ss.fileIter.Rewind(); err != nil {
		return err
	}
	return ss.base.Rewind()
}

func (ss *SeqScan) Close() error {
	if err := ss.fileIter.Close(); err != nil {
		return err
	}
	return ss.base.Close()
}

// GetTupleDesc returns the table's schema with alias-qualified field names.
func (ss *SeqScan) GetTupleDesc() *tuple.TupleDescription {
	return ss.tupleDesc
}

func (ss *SeqScan) HasNext() (bool, error)      { return ss.base.HasNext() }
func (ss *SeqScan) Next() (*tuple.Tuple, error) { return ss.base.Next() }

func (ss *SeqScan) Alias() string {
	return ss.alias
}

func (ss *SeqScan) TableID() primitives.TableID {
	return ss.tableID
}
