package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type member struct {
	Address [20]byte
	Host    [32]byte
}

type record struct {
	ID      uint64
	Start   uint64
	Minimum uint64
	Label   string
	Members []member
	Flag    bool
	Note    *string
	hidden  int
}

func TestCompactLengthEncoding(t *testing.T) {
	testCases := []struct {
		length int
		want   []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x04}},
		{63, []byte{0xfc}},
		{64, []byte{0x01, 0x01}},
		{16383, []byte{0xfd, 0xff}},
		{16384, []byte{0x02, 0x00, 0x01, 0x00}},
	}
	for _, tc := range testCases {
		buf := bytes.NewBuffer(nil)
		es := encodeState{buf}
		require.NoError(t, es.encodeLength(tc.length))
		assert.Equal(t, tc.want, buf.Bytes(), "length %d", tc.length)

		ds := decodeState{bytes.NewReader(tc.want)}
		got, err := ds.decodeUint()
		require.NoError(t, err)
		assert.Equal(t, uint64(tc.length), got)
	}
}

func TestCompactBigForm(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	es := encodeState{buf}
	require.NoError(t, es.encodeUint(1<<32))
	assert.Equal(t, []byte{0x07, 0x00, 0x00, 0x00, 0x00, 0x01}, buf.Bytes())

	ds := decodeState{bytes.NewReader(buf.Bytes())}
	got, err := ds.decodeUint()
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<32), got)
}

func TestDecodeRejectsNonCanonicalCompact(t *testing.T) {
	// 1 encoded in the two byte form
	ds := decodeState{bytes.NewReader([]byte{0x05, 0x00})}
	_, err := ds.decodeUint()
	assert.ErrorIs(t, err, ErrU16OutOfRange)
}

func TestFixedWidthLayout(t *testing.T) {
	type pair struct {
		A uint32
		B uint64
	}
	out, err := Encode(pair{A: 1, B: 2})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 0, 0, 2, 0, 0, 0, 0, 0, 0, 0}, out)
}

func TestRecordRoundTrip(t *testing.T) {
	note := "genesis"
	in := record{
		ID:      7,
		Start:   1712174155000,
		Minimum: 2,
		Label:   "epoch",
		Members: []member{
			{Address: [20]byte{0x24, 0x48}, Host: [32]byte{1}},
			{Address: [20]byte{0xff}, Host: [32]byte{2, 3}},
		},
		Flag:   true,
		Note:   &note,
		hidden: 42,
	}
	encoded, err := Encode(in)
	require.NoError(t, err)

	var out record
	require.NoError(t, Decode(encoded, &out))
	in.hidden = 0
	assert.Equal(t, in, out)
}

func TestDecodeErrors(t *testing.T) {
	var v uint32
	assert.ErrorIs(t, Decode([]byte{1, 0, 0, 0, 9}, &v), ErrTrailingBytes)
	assert.Error(t, Decode([]byte{1, 0}, &v))
	assert.ErrorIs(t, Decode([]byte{1, 0, 0, 0}, v), ErrUnsupportedDestination)

	var b bool
	assert.Error(t, Decode([]byte{2}, &b))

	var s []member
	// claims one member but carries no bytes for it
	assert.Error(t, Decode([]byte{0x04}, &s))
}

func TestEncodeUnsupported(t *testing.T) {
	_, err := Encode(map[string]int{"a": 1})
	assert.ErrorIs(t, err, ErrUnsupportedType)
	_, err = Encode(nil)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
