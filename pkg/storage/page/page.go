package page

import (
	"heapdb/pkg/primitives"
)

// Page is an in-memory image of one fixed-size disk page.
type Page interface {
	GetID() primitives.PageID

	// IsDirty returns the transaction that last dirtied the page, and false
	// if the page is clean.
	IsDirty() (primitives.TransactionID, bool)

	MarkDirty(dirty bool, tid primitives.TransactionID)

	// GetPageData serializes the page into exactly Size() bytes.
	GetPageData() ([]byte, error)
}
