package primitives

// HashCode represents a hash value used for fast comparisons and bucketing.
type HashCode uint64

// TableID identifies a table. It is derived from the absolute path of the
// table's heap file, so the same file always maps to the same id.
type TableID uint64

// PageNumber represents a page number within a table's file.
type PageNumber uint64

// SlotID represents a slot number within a page.
type SlotID uint16

// InvalidTableID represents an unset table identifier.
const InvalidTableID TableID = 0
