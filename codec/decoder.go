package codec

import (
	"encoding/binary"
	"fmt"
	"io"
	"reflect"
)

// maxLength bounds any decoded length prefix so corrupt input cannot force huge allocations.
const maxLength = 1 << 24

// Decoder is used to decode from an io.Reader
type Decoder struct {
	decodeState
}

// NewDecoder is constructor for Decoder
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{decodeState{r}}
}

// Decode accepts a pointer to a destination and decodes into the supplied destination
func (d *Decoder) Decode(dst interface{}) error {
	dstv := reflect.ValueOf(dst)
	if dstv.Kind() != reflect.Ptr || dstv.IsNil() {
		return fmt.Errorf("%w: %T", ErrUnsupportedDestination, dst)
	}
	return d.unmarshal(dstv.Elem())
}

type decodeState struct {
	io.Reader
}

func (ds *decodeState) readByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(ds, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (ds *decodeState) readN(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(ds, buf); err != nil {
		return nil, fmt.Errorf("reading %d bytes: %w", n, err)
	}
	return buf, nil
}

func (ds *decodeState) unmarshal(dstv reflect.Value) (err error) {
	switch dstv.Kind() {
	case reflect.Bool:
		var b byte
		if b, err = ds.readByte(); err != nil {
			return
		}
		switch b {
		case 0x00:
			dstv.SetBool(false)
		case 0x01:
			dstv.SetBool(true)
		default:
			err = errDecodeBool
		}
	case reflect.Uint8:
		var b byte
		if b, err = ds.readByte(); err != nil {
			return
		}
		dstv.SetUint(uint64(b))
	case reflect.Uint16:
		var buf []byte
		if buf, err = ds.readN(2); err != nil {
			return
		}
		dstv.SetUint(uint64(binary.LittleEndian.Uint16(buf)))
	case reflect.Uint32:
		var buf []byte
		if buf, err = ds.readN(4); err != nil {
			return
		}
		dstv.SetUint(uint64(binary.LittleEndian.Uint32(buf)))
	case reflect.Uint64:
		var buf []byte
		if buf, err = ds.readN(8); err != nil {
			return
		}
		dstv.SetUint(binary.LittleEndian.Uint64(buf))
	case reflect.Int64:
		var buf []byte
		if buf, err = ds.readN(8); err != nil {
			return
		}
		dstv.SetInt(int64(binary.LittleEndian.Uint64(buf)))
	case reflect.String:
		var b []byte
		if b, err = ds.decodeBytes(); err != nil {
			return
		}
		dstv.SetString(string(b))
	case reflect.Array:
		err = ds.decodeArray(dstv)
	case reflect.Slice:
		if dstv.Type().Elem().Kind() == reflect.Uint8 {
			var b []byte
			if b, err = ds.decodeBytes(); err != nil {
				return
			}
			dstv.SetBytes(b)
		} else {
			err = ds.decodeSlice(dstv)
		}
	case reflect.Struct:
		err = ds.decodeStruct(dstv)
	case reflect.Ptr:
		err = ds.decodePointer(dstv)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedType, dstv.Type())
	}
	return
}

func (ds *decodeState) decodePointer(dstv reflect.Value) error {
	flag, err := ds.readByte()
	if err != nil {
		return err
	}
	switch flag {
	case 0:
		dstv.Set(reflect.Zero(dstv.Type()))
		return nil
	case 1:
		elem := reflect.New(dstv.Type().Elem())
		if err := ds.unmarshal(elem.Elem()); err != nil {
			return err
		}
		dstv.Set(elem)
		return nil
	default:
		return fmt.Errorf("invalid option flag %d", flag)
	}
}

func (ds *decodeState) decodeArray(dstv reflect.Value) error {
	if dstv.Type().Elem().Kind() == reflect.Uint8 {
		buf, err := ds.readN(dstv.Len())
		if err != nil {
			return err
		}
		for i, b := range buf {
			dstv.Index(i).SetUint(uint64(b))
		}
		return nil
	}
	for i := 0; i < dstv.Len(); i++ {
		if err := ds.unmarshal(dstv.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (ds *decodeState) decodeSlice(dstv reflect.Value) error {
	l, err := ds.decodeLength()
	if err != nil {
		return err
	}
	temp := reflect.MakeSlice(dstv.Type(), int(l), int(l))
	for i := 0; i < int(l); i++ {
		if err := ds.unmarshal(temp.Index(i)); err != nil {
			return fmt.Errorf("element %d of %d: %w", i+1, l, err)
		}
	}
	dstv.Set(temp)
	return nil
}

// decodeStruct fills exported fields in declaration order, the order they were encoded in
func (ds *decodeState) decodeStruct(dstv reflect.Value) error {
	t := dstv.Type()
	temp := reflect.New(t).Elem()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).PkgPath != "" {
			continue
		}
		if err := ds.unmarshal(temp.Field(i)); err != nil {
			return fmt.Errorf("field %s: %w", t.Field(i).Name, err)
		}
	}
	dstv.Set(temp)
	return nil
}

// decodeBytes is used to decode with a destination of []byte or string type
func (ds *decodeState) decodeBytes() ([]byte, error) {
	length, err := ds.decodeLength()
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return []byte{}, nil
	}
	return ds.readN(int(length))
}

// decodeLength is helper method which calls decodeUint and bounds the result
func (ds *decodeState) decodeLength() (uint64, error) {
	l, err := ds.decodeUint()
	if err != nil {
		return 0, fmt.Errorf("decoding length: %w", err)
	}
	if l > maxLength {
		return 0, fmt.Errorf("length %d exceeds limit %d", l, maxLength)
	}
	return l, nil
}

// decodeUint reads a compact unsigned integer, rejecting non-canonical encodings
func (ds *decodeState) decodeUint() (uint64, error) {
	prefix, err := ds.readByte()
	if err != nil {
		return 0, fmt.Errorf("reading byte: %w", err)
	}

	var value uint64
	switch prefix % 4 {
	case 0:
		value = uint64(prefix >> 2)
	case 1:
		b, err := ds.readByte()
		if err != nil {
			return 0, fmt.Errorf("reading byte: %w", err)
		}
		value = uint64(binary.LittleEndian.Uint16([]byte{prefix, b}) >> 2)
		if value < 1<<6 {
			return 0, fmt.Errorf("%w: %d", ErrU16OutOfRange, value)
		}
	case 2:
		buf, err := ds.readN(3)
		if err != nil {
			return 0, err
		}
		value = uint64(binary.LittleEndian.Uint32(append([]byte{prefix}, buf...)) >> 2)
		if value < 1<<14 {
			return 0, fmt.Errorf("%w: %d", ErrU32OutOfRange, value)
		}
	case 3:
		byteLen := int(prefix>>2) + 4
		if byteLen > 8 {
			return 0, fmt.Errorf("%w: %d", ErrCompactUintPrefixUnknown, prefix)
		}
		buf, err := ds.readN(byteLen)
		if err != nil {
			return 0, err
		}
		tmp := make([]byte, 8)
		copy(tmp, buf)
		value = binary.LittleEndian.Uint64(tmp)
		if byteLen == 4 && value < 1<<30 {
			return 0, fmt.Errorf("%w: %d", ErrU32OutOfRange, value)
		}
		if byteLen > 4 && value < 1<<(8*(byteLen-1)) {
			return 0, fmt.Errorf("%w: %d", ErrU64OutOfRange, value)
		}
	}
	return value, nil
}
