// Package memory implements the buffer pool: the shared, bounded,
// transaction-aware cache through which every page access is routed.
package memory

import (
	"container/list"
	"sync"

	"heapdb/pkg/dberror"
	"heapdb/pkg/primitives"
	"heapdb/pkg/storage/page"
)

// PageCache stores and retrieves pages in memory. It knows nothing about
// transactions, locks or durability; the buffer pool decides what to evict.
type PageCache interface {
	// Get returns the page and marks it most recently used.
	Get(pid primitives.PageID) (page.Page, bool)

	// Peek returns the page without touching recency.
	Peek(pid primitives.PageID) (page.Page, bool)

	// Put stores or replaces a page. Adding a new page to a full cache fails.
	Put(pid primitives.PageID, p page.Page) error

	Remove(pid primitives.PageID)
	Size() int
	Clear()

	// GetAll returns the cached page ids, least recently used first.
	GetAll() []primitives.PageID
}

type cacheEntry struct {
	pid  primitives.PageID
	page page.Page
}

// LRUPageCache orders entries by recency in a container/list, front being
// the most recently used, and indexes them by page id.
type LRUPageCache struct {
	mu       sync.RWMutex
	capacity int
	order    *list.List
	index    map[primitives.PageID]*list.Element
}

func NewLRUPageCache(capacity int) *LRUPageCache {
	return &LRUPageCache{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[primitives.PageID]*list.Element, capacity),
	}
}

func (c *LRUPageCache) Get(pid primitives.PageID) (page.Page, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[pid]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).page, true
}

func (c *LRUPageCache) Peek(pid primitives.PageID) (page.Page, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	el, ok := c.index[pid]
	if !ok {
		return nil, false
	}
	return el.Value.(*cacheEntry).page, true
}

func (c *LRUPageCache) Put(pid primitives.PageID, p page.Page) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[pid]; ok {
		el.Value.(*cacheEntry).page = p
		c.order.MoveToFront(el)
		return nil
	}
	if c.order.Len() >= c.capacity {
		return dberror.Newf(dberror.ErrCategoryTransient, "CACHE_FULL", dberror.ErrResourceExhausted,
			"page cache full (%d pages)", c.capacity)
	}

	c.index[pid] = c.order.PushFront(&cacheEntry{pid: pid, page: p})
	return nil
}

func (c *LRUPageCache) Remove(pid primitives.PageID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[pid]; ok {
		c.order.Remove(el)
		delete(c.index, pid)
	}
}

func (c *LRUPageCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.order.Len()
}

func (c *LRUPageCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	clear(c.index)
}

func (c *LRUPageCache) GetAll() []primitives.PageID {
	c.mu.RLock()
	defer c.mu.RUnlock()

	pids := make([]primitives.PageID, 0, c.order.Len())
	for el := c.order.Back(); el != nil; el = el.Prev() {
		pids = append(pids, el.Value.(*cacheEntry).pid)
	}
	return pids
}
