package execution

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heapdb/pkg/catalog"
	"heapdb/pkg/dberror"
	"heapdb/pkg/iterator"
	"heapdb/pkg/memory"
	"heapdb/pkg/primitives"
	"heapdb/pkg/storage/heap"
	"heapdb/pkg/tuple"
	"heapdb/pkg/types"
)

var oneIntDesc = tuple.MustTupleDesc([]types.Type{types.IntType}, []string{"v"})

type env struct {
	cat  *catalog.Catalog
	pool *memory.BufferPool
}

func newEnv(t *testing.T) *env {
	t.Helper()
	cat := catalog.NewCatalog()
	t.Cleanup(cat.Clear)
	return &env{cat: cat, pool: memory.NewBufferPool(cat, 20)}
}

func (e *env) table(t *testing.T, name string, td *tuple.TupleDescription, values ...int32) primitives.TableID {
	t.Helper()
	hf, err := heap.NewHeapFile(primitives.Filepath(filepath.Join(t.TempDir(), name+".dat")), td, e.pool)
	require.NoError(t, err)
	require.NoError(t, e.cat.AddTable(hf, name, ""))

	tid := primitives.NewTransactionID()
	for _, v := range values {
		tup, err := tuple.NewTupleWithFields(td, types.NewIntField(v))
		require.NoError(t, err)
		require.NoError(t, e.pool.InsertTuple(tid, hf.GetID(), tup))
	}
	require.NoError(t, e.pool.TransactionComplete(tid, true))
	return hf.GetID()
}

func intsOf(t *testing.T, it iterator.DbIterator) []int32 {
	t.Helper()
	all, err := iterator.Collect(it)
	require.NoError(t, err)

	out := make([]int32, 0, len(all))
	for _, tup := range all {
		f, err := tup.GetField(0)
		require.NoError(t, err)
		out = append(out, f.(types.IntField).Value)
	}
	return out
}

func (e *env) scan(t *testing.T, tid primitives.TransactionID, tableID primitives.TableID) []int32 {
	t.Helper()
	ss, err := NewSeqScan(tid, tableID, "s", e.cat)
	require.NoError(t, err)
	require.NoError(t, ss.Open())
	defer ss.Close()
	return intsOf(t, ss)
}

func TestSeqScan(t *testing.T) {
	e := newEnv(t)
	id := e.table(t, "nums", oneIntDesc, 1, 2, 3, 4, 5)
	tid := primitives.NewTransactionID()

	ss, err := NewSeqScan(tid, id, "n", e.cat)
	require.NoError(t, err)
	name, err := ss.GetTupleDesc().GetFieldName(0)
	require.NoError(t, err)
	assert.Equal(t, "n.v", name)
	assert.Equal(t, "n", ss.Alias())

	require.NoError(t, ss.Open())
	assert.Equal(t, []int32{1, 2, 3, 4, 5}, intsOf(t, ss))

	require.NoError(t, ss.Rewind())
	assert.Equal(t, []int32{1, 2, 3, 4, 5}, intsOf(t, ss), "rewind is stable")
	require.NoError(t, ss.Close())

	_, err = ss.Next()
	assert.ErrorIs(t, err, dberror.ErrNoSuchElement)

	_, err = NewSeqScan(tid, 424242, "x", e.cat)
	assert.ErrorIs(t, err, dberror.ErrTableNotFound)
}

func TestSeqScan_EmptyTable(t *testing.T) {
	e := newEnv(t)
	id := e.table(t, "empty", oneIntDesc)

	assert.Empty(t, e.scan(t, primitives.NewTransactionID(), id))
}

func TestFilter(t *testing.T) {
	e := newEnv(t)
	id := e.table(t, "nums", oneIntDesc, 5, 1, 4, 2, 3)

	ss, err := NewSeqScan(primitives.NewTransactionID(), id, "n", e.cat)
	require.NoError(t, err)
	f, err := NewFilter(NewPredicate(0, types.GreaterThan, types.NewIntField(2)), ss)
	require.NoError(t, err)

	require.NoError(t, f.Open())
	assert.Equal(t, []int32{5, 4, 3}, intsOf(t, f))
	require.NoError(t, f.Rewind())
	assert.Equal(t, []int32{5, 4, 3}, intsOf(t, f))
	require.NoError(t, f.Close())

	assert.Equal(t, "field[0] > 2", NewPredicate(0, types.GreaterThan, types.NewIntField(2)).String())

	_, err = NewFilter(nil, ss)
	assert.Error(t, err)
}

func TestInsert(t *testing.T) {
	e := newEnv(t)
	id := e.table(t, "dst", oneIntDesc)
	tid := primitives.NewTransactionID()

	rows := make([]*tuple.Tuple, 0, 3)
	for _, v := range []int32{7, 8, 9} {
		tup, err := tuple.NewTupleWithFields(oneIntDesc, types.NewIntField(v))
		require.NoError(t, err)
		rows = append(rows, tup)
	}
	child := iterator.NewTupleSliceIterator(oneIntDesc, rows)

	ins, err := NewInsert(tid, child, id, e.pool, e.cat)
	require.NoError(t, err)
	assert.Equal(t, "count", mustFieldName(t, ins.GetTupleDesc(), 0))

	require.NoError(t, ins.Open())
	assert.Equal(t, []int32{3}, intsOf(t, ins), "one count tuple, then nothing")

	hasNext, err := ins.HasNext()
	require.NoError(t, err)
	assert.False(t, hasNext)

	require.NoError(t, ins.Rewind())
	assert.Empty(t, intsOf(t, ins), "rewind does not repeat the insert")
	require.NoError(t, ins.Close())

	for _, r := range rows {
		assert.Nil(t, r.RecordID, "child tuples are not modified")
	}
	assert.Equal(t, []int32{7, 8, 9}, e.scan(t, tid, id))
	require.NoError(t, e.pool.TransactionComplete(tid, true))
}

func TestInsert_SchemaMismatch(t *testing.T) {
	e := newEnv(t)
	id := e.table(t, "dst", oneIntDesc)

	strDesc := tuple.MustTupleDesc([]types.Type{types.StringType}, []string{"s"})
	child := iterator.NewTupleSliceIterator(strDesc, nil)

	_, err := NewInsert(primitives.NewTransactionID(), child, id, e.pool, e.cat)
	assert.ErrorIs(t, err, dberror.ErrSchemaMismatch)

	_, err = NewInsert(primitives.NewTransactionID(), nil, id, e.pool, e.cat)
	assert.Error(t, err)
}

func TestInsert_FromAnotherTable(t *testing.T) {
	e := newEnv(t)
	src := e.table(t, "src", oneIntDesc, 1, 2)
	dst := e.table(t, "dst", oneIntDesc)
	tid := primitives.NewTransactionID()

	ss, err := NewSeqScan(tid, src, "src", e.cat)
	require.NoError(t, err)
	ins, err := NewInsert(tid, ss, dst, e.pool, e.cat)
	require.NoError(t, err, "alias-qualified names do not affect compatibility")

	require.NoError(t, ins.Open())
	assert.Equal(t, []int32{2}, intsOf(t, ins))
	require.NoError(t, ins.Close())

	assert.Equal(t, []int32{1, 2}, e.scan(t, tid, dst))
	assert.Equal(t, []int32{1, 2}, e.scan(t, tid, src))
}

func TestDelete(t *testing.T) {
	e := newEnv(t)
	id := e.table(t, "nums", oneIntDesc, 1, 2, 3, 4, 5)
	tid := primitives.NewTransactionID()

	ss, err := NewSeqScan(tid, id, "n", e.cat)
	require.NoError(t, err)
	f, err := NewFilter(NewPredicate(0, types.LessThan, types.NewIntField(3)), ss)
	require.NoError(t, err)
	del, err := NewDelete(tid, f, e.pool)
	require.NoError(t, err)

	require.NoError(t, del.Open())
	assert.Equal(t, []int32{2}, intsOf(t, del))
	require.NoError(t, del.Rewind())
	assert.Empty(t, intsOf(t, del), "rewind does not repeat the delete")
	require.NoError(t, del.Close())

	assert.Equal(t, []int32{3, 4, 5}, e.scan(t, tid, id))
	require.NoError(t, e.pool.TransactionComplete(tid, false))

	assert.Equal(t, []int32{1, 2, 3, 4, 5}, e.scan(t, primitives.NewTransactionID(), id), "aborted delete is undone")
}

func TestDelete_TupleWithoutRecordID(t *testing.T) {
	e := newEnv(t)
	e.table(t, "nums", oneIntDesc)

	tup, err := tuple.NewTupleWithFields(oneIntDesc, types.NewIntField(1))
	require.NoError(t, err)

	del, err := NewDelete(primitives.NewTransactionID(), iterator.NewTupleSliceIterator(oneIntDesc, []*tuple.Tuple{tup}), e.pool)
	require.NoError(t, err)
	require.NoError(t, del.Open())

	_, err = del.Next()
	assert.ErrorIs(t, err, dberror.ErrAddressing)
}

func mustFieldName(t *testing.T, td *tuple.TupleDescription, i int) string {
	t.Helper()
	name, err := td.GetFieldName(i)
	require.NoError(t, err)
	return name
}
