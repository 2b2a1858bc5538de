package types

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"github.com/OneOfOne/xxhash"

	"heapdb/pkg/primitives"
)

// IntField represents a 32-bit signed integer field
type IntField struct {
	Value int32
}

func NewIntField(value int32) IntField {
	return IntField{Value: value}
}

// Serialize writes the value as 4 big-endian bytes.
func (f IntField) Serialize(w io.Writer) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(f.Value)) // #nosec G115
	_, err := w.Write(buf[:])
	return err
}

func (f IntField) Compare(op Predicate, other Field) (bool, error) {
	o, ok := other.(IntField)
	if !ok {
		return false, fmt.Errorf("cannot compare %s with %s", f.Type(), typeOf(other))
	}

	cmp := 0
	switch {
	case f.Value < o.Value:
		cmp = -1
	case f.Value > o.Value:
		cmp = 1
	}
	return evaluate(cmp, op), nil
}

func (f IntField) Type() Type {
	return IntType
}

func (f IntField) String() string {
	return strconv.FormatInt(int64(f.Value), 10)
}

func (f IntField) Equals(other Field) bool {
	o, ok := other.(IntField)
	return ok && f.Value == o.Value
}

func (f IntField) Hash() primitives.HashCode {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(f.Value)) // #nosec G115
	return primitives.HashCode(xxhash.Checksum64(buf[:]))
}

func typeOf(f Field) string {
	if f == nil {
		return "<nil>"
	}
	return f.Type().String()
}
