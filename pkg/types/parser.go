package types

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ParseField reads one field of the given type from r.
func ParseField(r io.Reader, fieldType Type) (Field, error) {
	switch fieldType {
	case IntType:
		return parseIntField(r)

	case StringType:
		return parseStringField(r)

	default:
		return nil, fmt.Errorf("unsupported field type: %v", fieldType)
	}
}

func parseIntField(r io.Reader) (IntField, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return IntField{}, err
	}
	return NewIntField(int32(binary.BigEndian.Uint32(buf[:]))), nil // #nosec G115
}

// parseStringField always consumes the full fixed width so the reader stays
// aligned on the next field.
func parseStringField(r io.Reader) (StringField, error) {
	var lengthBytes [4]byte
	if _, err := io.ReadFull(r, lengthBytes[:]); err != nil {
		return StringField{}, err
	}

	length := binary.BigEndian.Uint32(lengthBytes[:])
	if length > StringMaxSize {
		return StringField{}, fmt.Errorf("string length %d exceeds maximum %d", length, StringMaxSize)
	}

	payload := make([]byte, StringMaxSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return StringField{}, err
	}

	return NewStringField(string(payload[:length]), StringMaxSize), nil
}
