package types

import (
	"fmt"
	"strings"
)

// StringMaxSize is the number of payload bytes reserved for every string
// field on disk.
const StringMaxSize = 256

type Type int

const (
	IntType Type = iota
	StringType
)

// String returns a string representation of the type
func (t Type) String() string {
	switch t {
	case IntType:
		return "INT_TYPE"
	case StringType:
		return "STRING_TYPE"
	default:
		return "UNKNOWN_TYPE"
	}
}

// Size returns the fixed on-disk width of a value of this type.
// Strings carry a 4 byte length prefix followed by StringMaxSize bytes.
func (t Type) Size() uint32 {
	switch t {
	case IntType:
		return 4
	case StringType:
		return 4 + StringMaxSize
	default:
		return 0
	}
}

// ParseType maps a type name such as "int" or "STRING_TYPE" to a Type.
func ParseType(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "int", "int_type", "integer":
		return IntType, nil
	case "string", "string_type", "str", "text":
		return StringType, nil
	default:
		return 0, fmt.Errorf("unknown field type %q", name)
	}
}
