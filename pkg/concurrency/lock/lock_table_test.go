package lock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heapdb/pkg/primitives"
)

func TestLockTable(t *testing.T) {
	lt := NewLockTable()
	t1 := primitives.NewTransactionIDFromValue(1)
	t2 := primitives.NewTransactionIDFromValue(2)
	p1 := primitives.NewPageID(1, 0)
	p2 := primitives.NewPageID(1, 1)

	assert.False(t, lt.IsPageLocked(p1))

	lt.AddLock(t1, p1, SharedLock)
	lt.AddLock(t2, p1, SharedLock)
	lt.AddLock(t1, p2, ExclusiveLock)

	assert.True(t, lt.HasSufficientLock(t1, p1, SharedLock))
	assert.False(t, lt.HasSufficientLock(t1, p1, ExclusiveLock))
	assert.True(t, lt.HasSufficientLock(t1, p2, SharedLock), "exclusive covers shared")
	assert.Len(t, lt.GetPageLocks(p1), 2)
	assert.False(t, lt.IsExclusivelyLocked(p1))
	assert.True(t, lt.IsExclusivelyLocked(p2))
	assert.ElementsMatch(t, []primitives.PageID{p1, p2}, lt.GetTransactionPages(t1))

	lt.AddLock(t1, p1, SharedLock)
	assert.Len(t, lt.GetPageLocks(p1), 2, "re-grant does not duplicate")

	lt.ReleaseLock(t2, p1)
	assert.Len(t, lt.GetPageLocks(p1), 1)
	lt.UpgradeLock(t1, p1)
	assert.True(t, lt.HasLockType(t1, p1, ExclusiveLock))

	released := lt.ReleaseAllLocks(t1)
	assert.ElementsMatch(t, []primitives.PageID{p1, p2}, released)
	assert.False(t, lt.IsPageLocked(p1))
	assert.False(t, lt.IsPageLocked(p2))
	_, held := lt.LockHeld(t1, p1)
	assert.False(t, held)
}

func TestWaitQueue(t *testing.T) {
	wq := NewWaitQueue()
	t1 := primitives.NewTransactionIDFromValue(1)
	p1 := primitives.NewPageID(1, 0)
	p2 := primitives.NewPageID(1, 1)

	wq.Add(t1, p1, SharedLock)
	wq.Add(t1, p1, ExclusiveLock)
	wq.Add(t1, p2, SharedLock)

	require.Len(t, wq.GetRequests(p1), 1)
	assert.Equal(t, ExclusiveLock, wq.GetRequests(p1)[0].LockType)
	assert.Len(t, wq.GetPagesRequestedFor(t1), 2)
	assert.True(t, wq.IsWaiting(t1))

	wq.Remove(t1, p1)
	assert.Empty(t, wq.GetRequests(p1))
	assert.Equal(t, []primitives.PageID{p2}, wq.GetPagesRequestedFor(t1))

	wq.RemoveTransaction(t1)
	assert.False(t, wq.IsWaiting(t1))
}

func TestLockGrantor(t *testing.T) {
	lt := NewLockTable()
	lg := NewLockGrantor(lt, NewWaitQueue())
	t1 := primitives.NewTransactionIDFromValue(1)
	t2 := primitives.NewTransactionIDFromValue(2)
	pid := primitives.NewPageID(1, 0)

	assert.True(t, lg.CanGrantImmediately(t1, pid, ExclusiveLock))

	lg.GrantLock(t1, pid, SharedLock)
	assert.True(t, lg.CanGrantImmediately(t2, pid, SharedLock))
	assert.False(t, lg.CanGrantImmediately(t2, pid, ExclusiveLock))
	assert.Equal(t, []primitives.TransactionID{t1}, lg.Conflicts(t2, pid, ExclusiveLock))
	assert.True(t, lg.CanUpgradeLock(t1, pid))

	lg.GrantLock(t2, pid, SharedLock)
	assert.False(t, lg.CanUpgradeLock(t1, pid))
	assert.False(t, lg.CanUpgradeLock(primitives.NewTransactionIDFromValue(3), pid))
}

func TestDependencyGraph(t *testing.T) {
	dg := NewDependencyGraph()
	t1 := primitives.NewTransactionIDFromValue(1)
	t2 := primitives.NewTransactionIDFromValue(2)
	t3 := primitives.NewTransactionIDFromValue(3)

	dg.AddEdge(t1, t1)
	assert.False(t, dg.HasCycle(), "self edges are ignored")

	dg.AddEdge(t1, t2)
	dg.AddEdge(t2, t3)
	assert.False(t, dg.HasCycle())
	assert.False(t, dg.HasCycleFrom(t1))

	dg.AddEdge(t3, t1)
	assert.True(t, dg.HasCycle())
	assert.True(t, dg.HasCycleFrom(t1))
	assert.True(t, dg.HasCycleFrom(t3))
	assert.ElementsMatch(t, []primitives.TransactionID{t1, t2, t3}, dg.GetWaitingTransactions())

	dg.ClearWaits(t3)
	assert.False(t, dg.HasCycle())
	assert.Empty(t, dg.WaitsFor(t3))

	dg.AddEdge(t3, t1)
	dg.RemoveTransaction(t2)
	assert.False(t, dg.HasCycle())
	assert.Empty(t, dg.WaitsFor(t1))
	assert.Equal(t, []primitives.TransactionID{t1}, dg.WaitsFor(t3))
}
