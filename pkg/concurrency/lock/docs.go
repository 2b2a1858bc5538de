// Package lock implements page-level strict two-phase locking for the buffer
// pool.
//
// A transaction acquires locks as it touches pages and releases them all at
// once when it commits or aborts. Locks are never released mid-transaction
// except through LockManager.UnlockPage, which callers use only when they can
// prove the page was not read or written.
//
// Two lock modes are supported:
//
//   - SharedLock: required to read a page; compatible with other shared locks.
//   - ExclusiveLock: required to write a page; incompatible with every other lock.
//
// A transaction holding a shared lock may upgrade to exclusive when it is the
// only holder. Downgrading is never permitted.
//
// # Components
//
// LockManager is the public entry point. Internally it coordinates:
//
//   - LockTable: which pages each transaction holds and who holds each page.
//   - WaitQueue: pending requests per page, for diagnostics and cleanup.
//   - DependencyGraph: the wait-for graph. An edge A->B means A is waiting for
//     a page B holds.
//   - LockGrantor: the compatibility rules.
//
// # Waiting and deadlocks
//
// A request that cannot be granted records its wait-for edges and sleeps with
// exponential backoff, waking early whenever any lock is released. If adding
// the edges closes a cycle through the requester, or the request has waited
// longer than Config.Timeout, the requester receives a
// *dberror.TransactionAbortedError and must be aborted by its owner.
package lock
