package execution

import (
	"fmt"

	"heapdb/pkg/dberror"
	"heapdb/pkg/iterator"
	"heapdb/pkg/memory"
	"heapdb/pkg/primitives"
	"heapdb/pkg/tuple"
	"heapdb/pkg/types"
)

// TupleWriter applies tuple modifications on behalf of a transaction.
// *memory.BufferPool implements it.
type TupleWriter interface {
	InsertTuple(tid primitives.TransactionID, tableID primitives.TableID, t *tuple.Tuple) error
	DeleteTuple(tid primitives.TransactionID, t *tuple.Tuple) error
}

var countDesc = tuple.MustTupleDesc([]types.Type{types.IntType}, []string{"count"})

// modifier drains its child once, applying apply to every tuple, and yields
// a single one-field tuple with the number of tuples processed. Every later
// fetch, including after Rewind, yields nothing.
type modifier struct {
	*iterator.UnaryOperator
	apply func(*tuple.Tuple) error
	done  bool
}

func newModifier(child iterator.DbIterator, apply func(*tuple.Tuple) error) (*modifier, error) {
	m := &modifier{apply: apply}
	unary, err := iterator.NewUnaryOperator(child, m.readNext)
	if err != nil {
		return nil, err
	}
	m.UnaryOperator = unary
	return m, nil
}

func (m *modifier) readNext() (*tuple.Tuple, error) {
	if m.done {
		return nil, nil
	}

	var count int32
	for {
		t, err := m.FetchNext()
		if err != nil {
			return nil, err
		}
		if t == nil {
			break
		}
		if err := m.apply(t); err != nil {
			return nil, err
		}
		count++
	}

	m.done = true
	return tuple.NewTupleWithFields(countDesc, types.NewIntField(count))
}

func (m *modifier) GetTupleDesc() *tuple.TupleDescription {
	return countDesc
}

// Rewind rewinds the child. The modification already happened, so a
// rewound operator yields nothing.
func (m *modifier) Rewind() error {
	return m.UnaryOperator.Rewind()
}

// Insert adds every tuple produced by its child to a table.
type Insert struct {
	*modifier
	tid     primitives.TransactionID
	tableID primitives.TableID
}

// NewInsert fails if the child's field types differ from the table's.
func NewInsert(tid primitives.TransactionID, child iterator.DbIterator, tableID primitives.TableID,
	writer TupleWriter, tables memory.TableProvider) (*Insert, error) {
	if child == nil {
		return nil, fmt.Errorf("child operator cannot be nil")
	}
	if writer == nil || tables == nil {
		return nil, fmt.Errorf("tuple writer and table provider are required")
	}

	file, err := tables.GetDbFile(tableID)
	if err != nil {
		return nil, err
	}
	if !child.GetTupleDesc().Equals(file.GetTupleDesc()) {
		return nil, dberror.Newf(dberror.ErrCategoryUser, "SCHEMA_MISMATCH", dberror.ErrSchemaMismatch,
			"cannot insert %s into table %d with schema %s", child.GetTupleDesc(), tableID, file.GetTupleDesc())
	}

	ins := &Insert{tid: tid, tableID: tableID}
	m, err := newModifier(child, func(t *tuple.Tuple) error {
		// The child's tuple keeps its own RecordID.
		return writer.InsertTuple(ins.tid, ins.tableID, t.Clone())
	})
	if err != nil {
		return nil, err
	}
	ins.modifier = m
	return ins, nil
}

// Delete removes every tuple produced by its child from the table named in
// the tuple's RecordID.
type Delete struct {
	*modifier
	tid primitives.TransactionID
}

func NewDelete(tid primitives.TransactionID, child iterator.DbIterator, writer TupleWriter) (*Delete, error) {
	if child == nil {
		return nil, fmt.Errorf("child operator cannot be nil")
	}
	if writer == nil {
		return nil, fmt.Errorf("tuple writer cannot be nil")
	}

	del := &Delete{tid: tid}
	m, err := newModifier(child, func(t *tuple.Tuple) error {
		return writer.DeleteTuple(del.tid, t)
	})
	if err != nil {
		return nil, err
	}
	del.modifier = m
	return del, nil
}
