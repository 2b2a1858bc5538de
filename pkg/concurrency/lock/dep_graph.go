package lock

import (
	"heapdb/pkg/primitives"
)

// DependencyGraph tracks wait-for relationships between transactions for
// deadlock detection. An edge A->B means A is waiting for a lock B holds.
// It is not synchronized; LockManager guards it.
type DependencyGraph struct {
	edges map[primitives.TransactionID]map[primitives.TransactionID]bool
}

func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		edges: make(map[primitives.TransactionID]map[primitives.TransactionID]bool),
	}
}

// AddEdge records that waiter is blocked by holder.
func (dg *DependencyGraph) AddEdge(waiter, holder primitives.TransactionID) {
	if waiter == holder {
		return
	}
	if dg.edges[waiter] == nil {
		dg.edges[waiter] = make(map[primitives.TransactionID]bool)
	}
	dg.edges[waiter][holder] = true
}

// ClearWaits removes every outgoing edge of waiter.
func (dg *DependencyGraph) ClearWaits(waiter primitives.TransactionID) {
	delete(dg.edges, waiter)
}

// RemoveTransaction removes tid as both waiter and holder.
func (dg *DependencyGraph) RemoveTransaction(tid primitives.TransactionID) {
	delete(dg.edges, tid)
	for waiter, holders := range dg.edges {
		delete(holders, tid)
		if len(holders) == 0 {
			delete(dg.edges, waiter)
		}
	}
}

// HasCycleFrom reports whether tid can reach itself along wait-for edges.
func (dg *DependencyGraph) HasCycleFrom(tid primitives.TransactionID) bool {
	visited := make(map[primitives.TransactionID]bool)
	stack := []primitives.TransactionID{tid}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for next := range dg.edges[cur] {
			if next == tid {
				return true
			}
			if !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

// HasCycle detects whether the graph contains any cycle.
func (dg *DependencyGraph) HasCycle() bool {
	visited := make(map[primitives.TransactionID]bool)
	recStack := make(map[primitives.TransactionID]bool)

	for tid := range dg.edges {
		if !visited[tid] && dg.hasCycleDFS(tid, visited, recStack) {
			return true
		}
	}
	return false
}

func (dg *DependencyGraph) hasCycleDFS(tid primitives.TransactionID, visited, recStack map[primitives.TransactionID]bool) bool {
	visited[tid] = true
	recStack[tid] = true

	for neighbor := range dg.edges[tid] {
		if !visited[neighbor] {
			if dg.hasCycleDFS(neighbor, visited, recStack) {
				return true
			}
		} else if recStack[neighbor] {
			return true
		}
	}

	recStack[tid] = false
	return false
}

// GetWaitingTransactions returns every transaction with an outgoing edge.
func (dg *DependencyGraph) GetWaitingTransactions() []primitives.TransactionID {
	waiters := make([]primitives.TransactionID, 0, len(dg.edges))
	for tid := range dg.edges {
		waiters = append(waiters, tid)
	}
	return waiters
}

// WaitsFor returns the holders waiter is blocked by.
func (dg *DependencyGraph) WaitsFor(waiter primitives.TransactionID) []primitives.TransactionID {
	holders := make([]primitives.TransactionID, 0, len(dg.edges[waiter]))
	for h := range dg.edges[waiter] {
		holders = append(holders, h)
	}
	return holders
}
