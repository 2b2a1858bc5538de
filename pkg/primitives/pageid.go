package primitives

import (
	"encoding/binary"
	"fmt"

	"github.com/OneOfOne/xxhash"
)

// PageID identifies a page by the table it belongs to and its position in
// that table's file. It is a comparable value type and can be used directly
// as a map key.
type PageID struct {
	tableID TableID
	pageNo  PageNumber
}

// NewPageID creates a page identifier.
func NewPageID(tableID TableID, pageNo PageNumber) PageID {
	return PageID{tableID: tableID, pageNo: pageNo}
}

// GetTableID returns the table this page belongs to.
func (p PageID) GetTableID() TableID {
	return p.tableID
}

// PageNo returns the page number within the table.
func (p PageID) PageNo() PageNumber {
	return p.pageNo
}

// Serialize encodes the identifier as 16 little-endian bytes.
func (p PageID) Serialize() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(p.tableID))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(p.pageNo))
	return buf
}

// Equals reports whether both components match.
func (p PageID) Equals(other PageID) bool {
	return p == other
}

// HashCode returns a hash that is stable across processes and consistent
// with Equals.
func (p PageID) HashCode() HashCode {
	return HashCode(xxhash.Checksum64(p.Serialize()))
}

func (p PageID) String() string {
	return fmt.Sprintf("PageID(table=%d, page=%d)", p.tableID, p.pageNo)
}
