package heap

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"heapdb/pkg/iterator"
	"heapdb/pkg/primitives"
	"heapdb/pkg/storage/page"
	"heapdb/pkg/tuple"
	"heapdb/pkg/types"
)

// fakePool caches pages without any locking and records each request.
type fakePool struct {
	mu       sync.Mutex
	files    map[primitives.TableID]page.DbFile
	pages    map[primitives.PageID]page.Page
	requests []page.Permissions
}

func newFakePool() *fakePool {
	return &fakePool{
		files: make(map[primitives.TableID]page.DbFile),
		pages: make(map[primitives.PageID]page.Page),
	}
}

func (p *fakePool) GetPage(_ primitives.TransactionID, pid primitives.PageID, perm page.Permissions) (page.Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.requests = append(p.requests, perm)
	if pg, ok := p.pages[pid]; ok {
		return pg, nil
	}
	pg, err := p.files[pid.GetTableID()].ReadPage(pid)
	if err != nil {
		return nil, err
	}
	p.pages[pid] = pg
	return pg, nil
}

func (p *fakePool) flushAll(t *testing.T) {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	for pid, pg := range p.pages {
		require.NoError(t, p.files[pid.GetTableID()].WritePage(pg))
	}
}

var oneIntDesc = tuple.MustTupleDesc([]types.Type{types.IntType}, []string{"v"})

// withTenSlotPages sets a page size that holds exactly ten one-int tuples:
// floor(8*42 / (8*4+1)) = 10, header 2 bytes, 2 + 10*4 = 42.
func withTenSlotPages(t *testing.T) {
	t.Helper()
	page.SetPageSize(42)
	t.Cleanup(page.ResetPageSize)
}

func newTestHeapFile(t *testing.T, td *tuple.TupleDescription) (*HeapFile, *fakePool, string) {
	t.Helper()
	pool := newFakePool()
	path := filepath.Join(t.TempDir(), "heap.dat")

	hf, err := NewHeapFile(primitives.Filepath(path), td, pool)
	require.NoError(t, err)
	pool.files[hf.GetID()] = hf
	t.Cleanup(func() { _ = hf.Close() })
	return hf, pool, path
}

func intTuple(t *testing.T, v int32) *tuple.Tuple {
	t.Helper()
	tup, err := tuple.NewTupleWithFields(oneIntDesc, types.NewIntField(v))
	require.NoError(t, err)
	return tup
}

func intValues(t *testing.T, it iterator.TupleIterator) []int32 {
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
