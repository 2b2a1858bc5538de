package lock

import (
	"heapdb/pkg/primitives"
)

// WaitQueue records which transactions are blocked on which pages, indexed
// both ways. A transaction is in the queue only while LockPage is retrying.
type WaitQueue struct {
	pageWaitQueue   map[primitives.PageID][]*LockRequest
	transactionWait map[primitives.TransactionID][]primitives.PageID
}

func NewWaitQueue() *WaitQueue {
	return &WaitQueue{
		pageWaitQueue:   make(map[primitives.PageID][]*LockRequest),
		transactionWait: make(map[primitives.TransactionID][]primitives.PageID),
	}
}

// Add enqueues a request. Adding the same (tid, pid) twice is a no-op.
func (wq *WaitQueue) Add(tid primitives.TransactionID, pid primitives.PageID, lockType LockType) {
	for _, req := range wq.pageWaitQueue[pid] {
		if req.TID == tid {
			req.LockType = lockType
			return
		}
	}

	wq.pageWaitQueue[pid] = append(wq.pageWaitQueue[pid], NewLockRequest(tid, lockType))
	wq.transactionWait[tid] = append(wq.transactionWait[tid], pid)
}

// Remove drops tid's request for pid, if any.
func (wq *WaitQueue) Remove(tid primitives.TransactionID, pid primitives.PageID) {
	queue := wq.pageWaitQueue[pid]
	keptReqs := make([]*LockRequest, 0, len(queue))
	for _, req := range queue {
		if req.TID != tid {
			keptReqs = append(keptReqs, req)
		}
	}
	updateOrDelete(wq.pageWaitQueue, pid, keptReqs)

	waiting := wq.transactionWait[tid]
	keptPages := make([]primitives.PageID, 0, len(waiting))
	for _, p := range waiting {
		if p != pid {
			keptPages = append(keptPages, p)
		}
	}
	updateOrDelete(wq.transactionWait, tid, keptPages)
}

// RemoveTransaction drops every request made by tid.
func (wq *WaitQueue) RemoveTransaction(tid primitives.TransactionID) {
	for _, pid := range wq.GetPagesRequestedFor(tid) {
		wq.Remove(tid, pid)
	}
}

func (wq *WaitQueue) GetRequests(pid primitives.PageID) []*LockRequest {
	return wq.pageWaitQueue[pid]
}

func (wq *WaitQueue) GetPagesRequestedFor(tid primitives.TransactionID) []primitives.PageID {
	pages := wq.transactionWait[tid]
	out := make([]primitives.PageID, len(pages))
	copy(out, pages)
	return out
}

func (wq *WaitQueue) IsWaiting(tid primitives.TransactionID) bool {
	return len(wq.transactionWait[tid]) > 0
}

// updateOrDelete stores newSlice under key, or removes key when it is empty.
func updateOrDelete[K comparable, V any](m map[K][]V, key K, newSlice []V) {
	if len(newSlice) > 0 {
		m[key] = newSlice
	} else {
		delete(m, key)
	}
}
