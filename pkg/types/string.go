package types

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/OneOfOne/xxhash"

	"heapdb/pkg/primitives"
)

// StringField represents a bounded string field. Values longer than MaxSize
// are truncated on construction.
type StringField struct {
	Value   string
	MaxSize int
}

func NewStringField(value string, maxSize int) StringField {
	if maxSize <= 0 || maxSize > StringMaxSize {
		maxSize = StringMaxSize
	}
	if len(value) > maxSize {
		value = value[:maxSize]
	}

	return StringField{
		Value:   value,
		MaxSize: maxSize,
	}
}

// Compare orders strings lexicographically by bytes.
func (s StringField) Compare(op Predicate, other Field) (bool, error) {
	o, ok := other.(StringField)
	if !ok {
		return false, fmt.Errorf("cannot compare %s with %s", s.Type(), typeOf(other))
	}
	return evaluate(strings.Compare(s.Value, o.Value), op), nil
}

// Serialize writes the string field in its fixed-width format:
// 1. 4 bytes for the actual string length (big-endian uint32)
// 2. The string bytes
// 3. Zero padding up to StringMaxSize
func (s StringField) Serialize(w io.Writer) error {
	length := min(len(s.Value), StringMaxSize)

	var lengthBytes [4]byte
	binary.BigEndian.PutUint32(lengthBytes[:], uint32(length)) // #nosec G115

	if _, err := w.Write(lengthBytes[:]); err != nil {
		return err
	}

	if _, err := io.WriteString(w, s.Value[:length]); err != nil {
		return err
	}

	padding := make([]byte, StringMaxSize-length)
	_, err := w.Write(padding)
	return err
}

func (s StringField) Type() Type {
	return StringType
}

func (s StringField) String() string {
	return s.Value
}

// Equals compares values only; MaxSize is a construction limit, not part of
// the value.
func (s StringField) Equals(other Field) bool {
	o, ok := other.(StringField)
	return ok && s.Value == o.Value
}

func (s StringField) Hash() primitives.HashCode {
	return primitives.HashCode(xxhash.ChecksumString64(s.Value))
}
