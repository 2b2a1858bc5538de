package transaction

import (
	"sync"

	"heapdb/pkg/primitives"
)

// Registry maps transaction ids to contexts. A transaction is registered the
// first time it touches a page and forgotten once it completes.
type Registry struct {
	mu       sync.RWMutex
	contexts map[primitives.TransactionID]*Context
}

func NewRegistry() *Registry {
	return &Registry{contexts: make(map[primitives.TransactionID]*Context)}
}

func (r *Registry) Lookup(tid primitives.TransactionID) (*Context, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.contexts[tid]
	return c, ok
}

// Acquire returns the context of tid, registering a new one if needed.
func (r *Registry) Acquire(tid primitives.TransactionID) *Context {
	if c, ok := r.Lookup(tid); ok {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.contexts[tid]; ok {
		return c
	}
	c := NewContext(tid)
	r.contexts[tid] = c
	return c
}

func (r *Registry) Forget(tid primitives.TransactionID) {
	r.mu.Lock()
	delete(r.contexts, tid)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.contexts)
}

// InPhase returns the ids of registered transactions currently in phase p.
func (r *Registry) InPhase(p Phase) []primitives.TransactionID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []primitives.TransactionID
	for tid, c := range r.contexts {
		if c.Phase() == p {
			ids = append(ids, tid)
		}
	}
	return ids
}
