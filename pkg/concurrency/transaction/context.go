// Package transaction keeps the buffer pool's per-transaction bookkeeping:
// which pages a transaction has touched, with what permission, which of them
// it dirtied, and where it is in its commit or abort.
package transaction

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
	"time"

	"heapdb/pkg/dberror"
	"heapdb/pkg/primitives"
	"heapdb/pkg/storage/page"
)

type Phase int

const (
	Active Phase = iota
	Committing
	Aborting
	Committed
	Aborted
)

var phaseNames = [...]string{"ACTIVE", "COMMITTING", "ABORTING", "COMMITTED", "ABORTED"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "UNKNOWN"
	}
	return phaseNames[p]
}

// Terminal reports whether no further transition is possible.
func (p Phase) Terminal() bool {
	return p == Committed || p == Aborted
}

type Stats struct {
	PagesTouched  int
	PagesDirtied  int
	TuplesWritten int
	TuplesDeleted int
	HeldPages     int
	DirtyPages    int
}

type pageUse struct {
	perm  page.Permissions
	dirty bool
}

// Context is one transaction's record. Safe for concurrent use.
type Context struct {
	id primitives.TransactionID

	mu      sync.Mutex
	phase   Phase
	started time.Time
	ended   time.Time
	pages   map[primitives.PageID]*pageUse
	stats   Stats
}

func NewContext(tid primitives.TransactionID) *Context {
	return &Context{
		id:      tid,
		started: time.Now(),
		pages:   make(map[primitives.PageID]*pageUse),
	}
}

func (c *Context) ID() primitives.TransactionID {
	return c.id
}

func (c *Context) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// BeginCompletion moves an active transaction to Committing or Aborting.
func (c *Context) BeginCompletion(commit bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != Active {
		return dberror.Newf(dberror.ErrCategoryUser, "TX_NOT_ACTIVE", nil,
			"transaction %s is %s", c.id, c.phase)
	}
	if commit {
		c.phase = Committing
	} else {
		c.phase = Aborting
	}
	return nil
}

// FinishCompletion moves Committing to Committed and Aborting to Aborted.
func (c *Context) FinishCompletion() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.phase {
	case Committing:
		c.phase = Committed
	case Aborting:
		c.phase = Aborted
	default:
		return dberror.Newf(dberror.ErrCategoryUser, "TX_NOT_COMPLETING", nil,
			"transaction %s is %s", c.id, c.phase)
	}
	c.ended = time.Now()
	return nil
}

// Fail ends a completing transaction as Aborted. Used when its pages could
// not be written or restored.
func (c *Context) Fail() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase.Terminal() {
		return
	}
	c.phase = Aborted
	c.ended = time.Now()
}

// Touch records that perm was granted on pid. A ReadWrite grant is never
// downgraded by a later ReadOnly access.
func (c *Context) Touch(pid primitives.PageID, perm page.Permissions) {
	c.mu.Lock()
	defer c.mu.Unlock()

	use, ok := c.pages[pid]
	if !ok {
		c.pages[pid] = &pageUse{perm: perm}
		c.stats.PagesTouched++
		return
	}
	if perm == page.ReadWrite {
		use.perm = page.ReadWrite
	}
}

func (c *Context) Permission(pid primitives.PageID) (page.Permissions, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	use, ok := c.pages[pid]
	if !ok {
		return page.ReadOnly, false
	}
	return use.perm, true
}

// Dirty records a modification of pid. Modifying implies write access.
func (c *Context) Dirty(pid primitives.PageID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	use, ok := c.pages[pid]
	if !ok {
		use = &pageUse{perm: page.ReadWrite}
		c.pages[pid] = use
		c.stats.PagesTouched++
	}
	if !use.dirty {
		use.dirty = true
		c.stats.PagesDirtied++
	}
}

// Cleaned records that pid has been written back.
func (c *Context) Cleaned(pid primitives.PageID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if use, ok := c.pages[pid]; ok {
		use.dirty = false
	}
}

// DirtyPages returns the pages still dirty, ordered by table then page.
func (c *Context) DirtyPages() []primitives.PageID {
	return c.collect(func(u *pageUse) bool { return u.dirty })
}

// Pages returns every page touched, ordered by table then page.
func (c *Context) Pages() []primitives.PageID {
	return c.collect(func(*pageUse) bool { return true })
}

func (c *Context) collect(keep func(*pageUse) bool) []primitives.PageID {
	c.mu.Lock()
	out := make([]primitives.PageID, 0, len(c.pages))
	for pid, use := range c.pages {
		if keep(use) {
			out = append(out, pid)
		}
	}
	c.mu.Unlock()

	slices.SortFunc(out, func(a, b primitives.PageID) int {
		if n := cmp.Compare(a.GetTableID(), b.GetTableID()); n != 0 {
			return n
		}
		return cmp.Compare(a.PageNo(), b.PageNo())
	})
	return out
}

func (c *Context) CountInsert() {
	c.mu.Lock()
	c.stats.TuplesWritten++
	c.mu.Unlock()
}

func (c *Context) CountDelete() {
	c.mu.Lock()
	c.stats.TuplesDeleted++
	c.mu.Unlock()
}

func (c *Context) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.HeldPages = len(c.pages)
	for _, use := range c.pages {
		if use.dirty {
			s.DirtyPages++
		}
	}
	return s
}

// Elapsed is the running time so far, frozen once the transaction finishes.
func (c *Context) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ended.IsZero() {
		return time.Since(c.started)
	}
	return c.ended.Sub(c.started)
}

func (c *Context) String() string {
	s := c.Stats()
	return fmt.Sprintf("tx %s [%s] held=%d dirty=%d +%d/-%d tuples",
		c.id, c.Phase(), s.HeldPages, s.DirtyPages, s.TuplesWritten, s.TuplesDeleted)
}
