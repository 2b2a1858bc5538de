package memory

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"heapdb/pkg/concurrency/lock"
	"heapdb/pkg/dberror"
	"heapdb/pkg/iterator"
	"heapdb/pkg/primitives"
	"heapdb/pkg/storage/heap"
	"heapdb/pkg/storage/page"
	"heapdb/pkg/tuple"
	"heapdb/pkg/types"
)

type tableMap struct {
	mu    sync.RWMutex
	files map[primitives.TableID]page.DbFile
}

func (m *tableMap) GetDbFile(id primitives.TableID) (page.DbFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[id]
	if !ok {
		return nil, dberror.Newf(dberror.ErrCategoryUser, "TABLE_NOT_FOUND", dberror.ErrTableNotFound,
			"no table %d", id)
	}
	return f, nil
}

var oneIntDesc = tuple.MustTupleDesc([]types.Type{types.IntType}, []string{"v"})

// fixture is a pool over heap files in a temp dir, with ten one-int tuples
// per page.
type fixture struct {
	t      *testing.T
	pool   *BufferPool
	tables *tableMap
	dir    string
}

func newFixture(t *testing.T, capacity int, opts ...Option) *fixture {
	t.Helper()
	page.SetPageSize(42)
	t.Cleanup(page.ResetPageSize)

	tables := &tableMap{files: make(map[primitives.TableID]page.DbFile)}
	opts = append([]Option{WithLockConfig(lock.Config{
		Timeout:   2 * time.Second,
		RetryBase: time.Millisecond,
		RetryMax:  5 * time.Millisecond,
	})}, opts...)

	return &fixture{
		t:      t,
		pool:   NewBufferPool(tables, capacity, opts...),
		tables: tables,
		dir:    t.TempDir(),
	}
}

func (f *fixture) addTable(name string) *heap.HeapFile {
	f.t.Helper()
	path := primitives.Filepath(filepath.Join(f.dir, name+".dat"))
	hf, err := heap.NewHeapFile(path, oneIntDesc, f.pool)
	require.NoError(f.t, err)
	f.t.Cleanup(func() { _ = hf.Close() })

	f.tables.mu.Lock()
	f.tables.files[hf.GetID()] = hf
	f.tables.mu.Unlock()
	return hf
}

// reopen opens a second handle on hf's file that bypasses the pool.
func (f *fixture) reopen(hf *heap.HeapFile) *heap.HeapFile {
	f.t.Helper()
	other, err := heap.NewHeapFile(hf.FilePath(), oneIntDesc, f.pool)
	require.NoError(f.t, err)
	f.t.Cleanup(func() { _ = other.Close() })
	return other
}

// allocPages appends n empty pages to hf directly on disk.
func (f *fixture) allocPages(hf *heap.HeapFile, n int) {
	f.t.Helper()
	for i := 0; i < n; i++ {
		_, err := hf.AllocateNewPage()
		require.NoError(f.t, err)
	}
}

// fillPages appends n full pages to hf directly on disk, holding the values
// 0..10n-1 in order.
func (f *fixture) fillPages(hf *heap.HeapFile, n int) {
	f.t.Helper()
	slots := int(heap.NumSlots(oneIntDesc))
	for i := 0; i < n; i++ {
		pageNo, err := hf.AllocateNewPage()
		require.NoError(f.t, err)
		hp, err := heap.NewEmptyHeapPage(primitives.NewPageID(hf.GetID(), pageNo), oneIntDesc)
		require.NoError(f.t, err)
		for s := 0; s < slots; s++ {
			require.NoError(f.t, hp.InsertTuple(intTuple(f.t, int32(i*slots+s))))
		}
		require.NoError(f.t, hf.WritePage(hp))
	}
}

func intTuple(t *testing.T, v int32) *tuple.Tuple {
	t.Helper()
	tup, err := tuple.NewTupleWithFields(oneIntDesc, types.NewIntField(v))
	require.NoError(t, err)
	return tup
}

func scanValues(t *testing.T, hf *heap.HeapFile, tid primitives.TransactionID) []int32 {
	t.Helper()
	it := hf.Iterator(tid)
	require.NoError(t, it.Open())
	defer it.Close()

	all, err := iterator.Collect(it)
	require.NoError(t, err)

	out := make([]int32, 0, len(all))
	for _, tup := range all {
		fld, err := tup.GetField(0)
		require.NoError(t, err)
		out = append(out, fld.(types.IntField).Value)
	}
	return out
}

// diskValues reads every page of hf straight from disk.
func diskValues(t *testing.T, hf *heap.HeapFile) []int32 {
	t.Helper()
	n, err := hf.NumPages()
	require.NoError(t, err)

	var out []int32
	for pageNo := primitives.PageNumber(0); pageNo < n; pageNo++ {
		pg, err := hf.ReadPage(primitives.NewPageID(hf.GetID(), pageNo))
		require.NoError(t, err)
		for _, tup := range pg.(*heap.HeapPage).GetTuples() {
			fld, err := tup.GetField(0)
			require.NoError(t, err)
			out = append(out, fld.(types.IntField).Value)
		}
	}
	return out
}

func pid(hf *heap.HeapFile, n int) primitives.PageID {
	return primitives.NewPageID(hf.GetID(), primitives.PageNumber(n))
}
