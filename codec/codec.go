// Package codec implements the compact binary encoding used for records persisted by the
// storage layer: fixed-width little-endian integers, compact length prefixes for slices,
// byte strings and strings, and struct fields in declaration order.
package codec

import (
	"bytes"
	"errors"
	"fmt"
)

var (
	ErrU16OutOfRange            = errors.New("uint16 out of range")
	ErrU32OutOfRange            = errors.New("uint32 out of range")
	ErrU64OutOfRange            = errors.New("uint64 out of range")
	ErrCompactUintPrefixUnknown = errors.New("unknown prefix for compact uint")
	ErrUnsupportedDestination   = errors.New("unsupported destination type")
	ErrUnsupportedType          = errors.New("unsupported type")
	ErrTrailingBytes            = errors.New("trailing bytes after decoding")
	errDecodeBool               = errors.New("failed to decode bool")
)

// Encode serializes the given object.
func Encode(obj interface{}) ([]byte, error) {
	buffer := bytes.NewBuffer(nil)
	encoder := NewEncoder(buffer)

	err := encoder.Encode(obj)
	if err != nil {
		return nil, fmt.Errorf("encoding failed: %w", err)
	}

	return buffer.Bytes(), nil
}

// Decode deserializes inp into dst, which must be a non-nil pointer. The whole input
// must be consumed.
func Decode(inp []byte, dst interface{}) error {
	reader := bytes.NewReader(inp)
	decoder := NewDecoder(reader)

	err := decoder.Decode(dst)
	if err != nil {
		return fmt.Errorf("decoding failed: %w", err)
	}
	if reader.Len() != 0 {
		return fmt.Errorf("decoding failed: %w: %d", ErrTrailingBytes, reader.Len())
	}
	return nil
}
