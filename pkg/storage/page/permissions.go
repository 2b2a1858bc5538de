package page

import "heapdb/pkg/primitives"

// Permissions is the access level a transaction requests on a page.
type Permissions int

const (
	ReadOnly Permissions = iota
	ReadWrite
)

func (p Permissions) String() string {
	switch p {
	case ReadOnly:
		return "READ_ONLY"
	case ReadWrite:
		return "READ_WRITE"
	default:
		return "UNKNOWN"
	}
}

// PageGetter is the one call heap files need from the buffer pool. It may
// block, and returns a dberror.TransactionAbortedError when tid must abort.
type PageGetter interface {
	GetPage(tid primitives.TransactionID, pid primitives.PageID, perm Permissions) (Page, error)
}
