package codec

import (
	"encoding/binary"
	"fmt"
	"io"
	"reflect"
)

// Encoder encodes to a given io.Writer.
type Encoder struct {
	encodeState
}

// NewEncoder creates a new encoder with the given writer.
func NewEncoder(writer io.Writer) *Encoder {
	return &Encoder{encodeState{Writer: writer}}
}

// Encode encodes value to the encoder writer.
func (e *Encoder) Encode(value interface{}) error {
	if value == nil {
		return fmt.Errorf("%w: nil", ErrUnsupportedType)
	}
	return e.marshal(reflect.ValueOf(value))
}

type encodeState struct {
	io.Writer
}

func (es *encodeState) marshal(v reflect.Value) (err error) {
	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			_, err = es.Write([]byte{0x01})
		} else {
			_, err = es.Write([]byte{0x00})
		}
	case reflect.Uint8:
		_, err = es.Write([]byte{uint8(v.Uint())})
	case reflect.Uint16:
		err = binary.Write(es, binary.LittleEndian, uint16(v.Uint()))
	case reflect.Uint32:
		err = binary.Write(es, binary.LittleEndian, uint32(v.Uint()))
	case reflect.Uint64:
		err = binary.Write(es, binary.LittleEndian, v.Uint())
	case reflect.Int64:
		err = binary.Write(es, binary.LittleEndian, uint64(v.Int()))
	case reflect.String:
		err = es.encodeBytes([]byte(v.String()))
	case reflect.Array:
		err = es.encodeArray(v)
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			err = es.encodeBytes(v.Bytes())
		} else {
			err = es.encodeSlice(v)
		}
	case reflect.Struct:
		err = es.encodeStruct(v)
	case reflect.Ptr:
		// Option: 0 for nil, 1 followed by the value otherwise
		if v.IsNil() {
			_, err = es.Write([]byte{0})
			return
		}
		if _, err = es.Write([]byte{1}); err != nil {
			return
		}
		err = es.marshal(v.Elem())
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedType, v.Type())
	}
	return
}

// encodeArray encodes an array without length prefix
func (es *encodeState) encodeArray(v reflect.Value) (err error) {
	if v.Type().Elem().Kind() == reflect.Uint8 {
		buf := make([]byte, v.Len())
		for i := range buf {
			buf[i] = byte(v.Index(i).Uint())
		}
		_, err = es.Write(buf)
		return
	}
	for i := 0; i < v.Len(); i++ {
		if err = es.marshal(v.Index(i)); err != nil {
			return
		}
	}
	return
}

// encodeSlice encodes a slice with length prefix
func (es *encodeState) encodeSlice(v reflect.Value) (err error) {
	if err = es.encodeLength(v.Len()); err != nil {
		return
	}
	for i := 0; i < v.Len(); i++ {
		if err = es.marshal(v.Index(i)); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return
}

// encodeStruct encodes exported struct fields in declaration order
func (es *encodeState) encodeStruct(v reflect.Value) (err error) {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		if t.Field(i).PkgPath != "" {
			continue
		}
		if err = es.marshal(v.Field(i)); err != nil {
			return fmt.Errorf("field %s: %w", t.Field(i).Name, err)
		}
	}
	return
}

// encodeBytes encodes a byte slice with length prefix
func (es *encodeState) encodeBytes(b []byte) (err error) {
	if err = es.encodeLength(len(b)); err != nil {
		return
	}
	_, err = es.Write(b)
	return
}

// encodeLength encodes the length of a collection
func (es *encodeState) encodeLength(l int) error {
	return es.encodeUint(uint64(l))
}

// encodeUint writes i in the compact form: the two low bits of the first byte select
// a 1, 2 or 4 byte encoding, or a length-prefixed big form for larger values.
func (es *encodeState) encodeUint(i uint64) (err error) {
	switch {
	case i < 1<<6:
		_, err = es.Write([]byte{byte(i) << 2})
	case i < 1<<14:
		err = binary.Write(es, binary.LittleEndian, uint16(i<<2)+1)
	case i < 1<<30:
		err = binary.Write(es, binary.LittleEndian, uint32(i<<2)+2)
	default:
		o := make([]byte, 8)
		m := i
		var numBytes int
		for numBytes = 0; numBytes < 8 && m != 0; numBytes++ {
			m = m >> 8
		}

		topSixBits := uint8(numBytes - 4)
		lengthByte := topSixBits<<2 + 3

		if _, err = es.Write([]byte{lengthByte}); err == nil {
			binary.LittleEndian.PutUint64(o, i)
			_, err = es.Write(o[0:numBytes])
		}
	}
	return
}
