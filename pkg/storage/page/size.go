package page

import "sync/atomic"

// DefaultPageSize is the page size used unless SetPageSize is called.
const DefaultPageSize = 4096

var pageSize atomic.Int64

func init() {
	pageSize.Store(DefaultPageSize)
}

// Size returns the process-wide page size in bytes.
func Size() int {
	return int(pageSize.Load())
}

// SetPageSize changes the page size. It must only be called while no heap
// file or buffer pool is in use; tests use it to build tiny pages.
func SetPageSize(n int) {
	if n <= 0 {
		panic("page size must be positive")
	}
	pageSize.Store(int64(n))
}

// ResetPageSize restores DefaultPageSize.
func ResetPageSize() {
	pageSize.Store(DefaultPageSize)
}
