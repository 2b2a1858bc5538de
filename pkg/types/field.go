package types

import (
	"io"

	"heapdb/pkg/primitives"
)

// Field is a single typed value inside a tuple. Implementations are value
// types, so two equal fields are also equal as Go interface values and can be
// used directly as map keys.
type Field interface {
	Serialize(w io.Writer) error

	// Compare evaluates "f op other". Comparing fields of different types is
	// an error.
	Compare(op Predicate, other Field) (bool, error)

	Type() Type

	String() string

	Equals(other Field) bool

	Hash() primitives.HashCode
}
