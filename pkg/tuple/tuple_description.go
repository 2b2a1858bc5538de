package tuple

import (
	"fmt"
	"strings"

	"heapdb/pkg/types"
)

// TupleDescription describes the schema of a tuple: the ordered field types
// and optional field names. It is immutable after construction.
type TupleDescription struct {
	types      []types.Type
	fieldNames []string
}

// NewTupleDesc creates a new TupleDescription given field types and optional
// field names. If fieldNames is nil, fields have no names.
func NewTupleDesc(fieldTypes []types.Type, fieldNames []string) (*TupleDescription, error) {
	if len(fieldTypes) < 1 {
		return nil, fmt.Errorf("must provide at least one field type")
	}

	typesCopy := make([]types.Type, len(fieldTypes))
	copy(typesCopy, fieldTypes)

	var namesCopy []string
	if fieldNames != nil {
		if len(fieldNames) != len(fieldTypes) {
			return nil, fmt.Errorf("field names length (%d) must match field types length (%d)",
				len(fieldNames), len(fieldTypes))
		}
		namesCopy = make([]string, len(fieldNames))
		copy(namesCopy, fieldNames)
	}

	return &TupleDescription{
		types:      typesCopy,
		fieldNames: namesCopy,
	}, nil
}

// MustTupleDesc is NewTupleDesc for statically known schemas; it panics on error.
func MustTupleDesc(fieldTypes []types.Type, fieldNames []string) *TupleDescription {
	td, err := NewTupleDesc(fieldTypes, fieldNames)
	if err != nil {
		panic(err)
	}
	return td
}

// NumFields returns the number of fields in this tuple descriptor.
func (td *TupleDescription) NumFields() int {
	return len(td.types)
}

// GetFieldName returns the name of the ith field, or "" when the schema is
// unnamed.
func (td *TupleDescription) GetFieldName(i int) (string, error) {
	if i < 0 || i >= len(td.types) {
		return "", fmt.Errorf("field index %d out of bounds [0, %d)", i, len(td.types))
	}

	if td.fieldNames == nil {
		return "", nil
	}

	return td.fieldNames[i], nil
}

// TypeAtIndex returns the type of the ith field.
func (td *TupleDescription) TypeAtIndex(i int) (types.Type, error) {
	if i < 0 || i >= len(td.types) {
		return 0, fmt.Errorf("field index %d out of bounds [0, %d)", i, len(td.types))
	}
	return td.types[i], nil
}

// Types returns a copy of the field types.
func (td *TupleDescription) Types() []types.Type {
	out := make([]types.Type, len(td.types))
	copy(out, td.types)
	return out
}

// GetSize returns the size in bytes of tuples with this schema.
func (td *TupleDescription) GetSize() uint32 {
	var size uint32
	for _, fieldType := range td.types {
		size += fieldType.Size()
	}
	return size
}

// Equals reports whether both descriptors have the same type sequence.
// Field names are not compared.
func (td *TupleDescription) Equals(other *TupleDescription) bool {
	if other == nil {
		return false
	}

	if len(td.types) != len(other.types) {
		return false
	}

	for i, fieldType := range td.types {
		if fieldType != other.types[i] {
			return false
		}
	}
	return true
}

// String returns "Type1(fieldName1),Type2(fieldName2),...". Unnamed fields
// print as "null".
func (td *TupleDescription) String() string {
	parts := make([]string, 0, len(td.types))

	for i, fieldType := range td.types {
		fieldName := "null"
		if td.fieldNames != nil {
			fieldName = td.fieldNames[i]
		}
		parts = append(parts, fmt.Sprintf("%s(%s)", fieldType.String(), fieldName))
	}

	return strings.Join(parts, ",")
}

// FindFieldIndex locates a field by name (case-sensitive).
func (td *TupleDescription) FindFieldIndex(fieldName string) (int, error) {
	for i := range td.fieldNames {
		if td.fieldNames[i] == fieldName {
			return i, nil
		}
	}
	return -1, fmt.Errorf("column %s not found", fieldName)
}

// WithPrefix returns a copy whose field names are "prefix.name". Unnamed
// fields become "prefix.null".
func (td *TupleDescription) WithPrefix(prefix string) *TupleDescription {
	names := make([]string, len(td.types))
	for i := range td.types {
		name := "null"
		if td.fieldNames != nil && td.fieldNames[i] != "" {
			name = td.fieldNames[i]
		}
		names[i] = prefix + "." + name
	}

	return &TupleDescription{
		types:      td.Types(),
		fieldNames: names,
	}
}
