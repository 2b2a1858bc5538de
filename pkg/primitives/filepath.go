package primitives

import (
	"path/filepath"

	"github.com/OneOfOne/xxhash"
)

// Filepath is the location of a table's heap file on disk.
type Filepath string

// Hash derives a stable TableID from the absolute form of the path.
// Relative and absolute spellings of the same file hash identically.
func (f Filepath) Hash() TableID {
	p := string(f)
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return TableID(xxhash.Checksum64([]byte(p)))
}

// String returns the path as a plain string.
func (f Filepath) String() string {
	return string(f)
}
