package dtype

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-fast5/internal/message"
)

func TestGoType(t *testing.T) {
	enum := message.NewFixedPointDatatype(1, true, message.OrderLE)
	enum.Class = message.ClassEnum

	tests := []struct {
		name string
		dt   *message.Datatype
		want reflect.Type
	}{
		{"int16", message.NewFixedPointDatatype(2, true, message.OrderLE), reflect.TypeFor[int16]()},
		{"uint64", message.NewFixedPointDatatype(8, false, message.OrderBE), reflect.TypeFor[uint64]()},
		{"float32", message.NewFloatDatatype(4, message.OrderLE), reflect.TypeFor[float32]()},
		{"float64", message.NewFloatDatatype(8, message.OrderLE), reflect.TypeFor[float64]()},
		{"fixed string", message.NewStringDatatype(8, message.PadNullTerm, message.CharsetASCII), reflect.TypeFor[string]()},
		{"vlen string", message.NewVarLenStringDatatype(message.CharsetUTF8), reflect.TypeFor[string]()},
		{"opaque", message.NewOpaqueDatatype(4, "blob"), reflect.TypeFor[[]byte]()},
		{"bool enum", enum, reflect.TypeFor[int8]()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GoType(tt.dt)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := GoType(&message.Datatype{Class: message.ClassCompound, Size: 8})
	assert.ErrorContains(t, err, "unsupported datatype class")
	_, err = GoType(message.NewFixedPointDatatype(3, true, message.OrderLE))
	assert.Error(t, err)
	_, err = GoType(nil)
	assert.Error(t, err)
}

func TestConvertIntegers(t *testing.T) {
	le := message.NewFixedPointDatatype(2, true, message.OrderLE)
	data := []byte{0x01, 0x00, 0xff, 0xff, 0x00, 0x80}

	var i16 []int16
	require.NoError(t, Convert(le, data, 3, &i16))
	assert.Equal(t, []int16{1, -1, -32768}, i16)

	var f64 []float64
	require.NoError(t, Convert(le, data, 3, &f64))
	assert.Equal(t, []float64{1, -1, -32768}, f64)

	be := message.NewFixedPointDatatype(4, false, message.OrderBE)
	var u32 []uint32
	require.NoError(t, Convert(be, []byte{0, 0, 1, 0, 0xff, 0xff, 0xff, 0xff}, 2, &u32))
	assert.Equal(t, []uint32{256, 0xffffffff}, u32)
}

func TestConvertFloats(t *testing.T) {
	dt := message.NewFloatDatatype(4, message.OrderLE)
	data, err := Encode(dt, []float32{1.5, -2.25})
	require.NoError(t, err)

	var f64 []float64
	require.NoError(t, Convert(dt, data, 2, &f64))
	assert.Equal(t, []float64{1.5, -2.25}, f64)

	var i32 []int32
	require.NoError(t, Convert(dt, data, 2, &i32))
	assert.Equal(t, []int32{1, -2}, i32)
}

func TestConvertStrings(t *testing.T) {
	tests := []struct {
		pad  message.StringPadding
		data string
		want []string
	}{
		{message.PadNullTerm, "abc\x00\x00zz\x00\x00\x00", []string{"abc", "zz"}},
		{message.PadNullPad, "abcde\x00\x00\x00\x00\x00", []string{"abcde", ""}},
		{message.PadSpacePad, "ab   xyz  ", []string{"ab", "xyz"}},
	}
	for _, tt := range tests {
		dt := message.NewStringDatatype(5, tt.pad, message.CharsetASCII)
		var got []string
		require.NoError(t, Convert(dt, []byte(tt.data), 2, &got))
		assert.Equal(t, tt.want, got)
	}
}

func TestConvertVarLenStringNeedsReader(t *testing.T) {
	dt := message.NewVarLenStringDatatype(message.CharsetASCII)
	ref := make([]byte, dt.Size)
	ref[4] = 0x40

	var got []string
	err := Convert(dt, ref, 1, &got)
	assert.ErrorContains(t, err, "no reader was given")

	// A null reference reads as the empty string.
	require.NoError(t, Convert(dt, make([]byte, dt.Size), 1, &got))
	assert.Equal(t, []string{""}, got)
}

func TestConvertInterface(t *testing.T) {
	dt := message.NewFixedPointDatatype(1, false, message.OrderLE)
	var v interface{}
	require.NoError(t, Convert(dt, []byte{7, 9}, 2, &v))
	assert.Equal(t, []uint8{7, 9}, v)

	opaque := message.NewOpaqueDatatype(2, "")
	require.NoError(t, Convert(opaque, []byte{1, 2, 3, 4}, 2, &v))
	assert.Equal(t, [][]byte{{1, 2}, {3, 4}}, v)
}

func TestConvertErrors(t *testing.T) {
	dt := message.NewFixedPointDatatype(4, true, message.OrderLE)

	var i []int32
	assert.ErrorContains(t, Convert(dt, []byte{1, 2}, 1, &i), "have 2 bytes")
	assert.ErrorContains(t, Convert(dt, make([]byte, 4), 1, i), "cannot decode")

	var s []string
	assert.ErrorContains(t, Convert(dt, make([]byte, 4), 1, &s), "as strings")
	assert.Error(t, Convert(nil, nil, 0, &i))
}

func TestEncodeFlattensNestedSlices(t *testing.T) {
	dt := message.NewFixedPointDatatype(2, true, message.OrderLE)
	data, err := Encode(dt, [][]int16{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 2, 0, 3, 0, 4, 0, 5, 0, 6, 0}, data)

	scalar, err := Encode(dt, int16(-2))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xfe, 0xff}, scalar)

	ptr, err := Encode(dt, &[2]int16{7, 8})
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 0, 8, 0}, ptr)
}

func TestEncodeBigEndian(t *testing.T) {
	dt := message.NewFixedPointDatatype(4, false, message.OrderBE)
	data, err := Encode(dt, []uint32{0x01020304})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, data)
}

func TestEncodeStrings(t *testing.T) {
	dt := message.NewStringDatatype(4, message.PadSpacePad, message.CharsetASCII)
	data, err := Encode(dt, []string{"ab", "abcdef"})
	require.NoError(t, err)
	assert.Equal(t, []byte("ab  abcd"), data)

	_, err = Encode(dt, []int{1})
	assert.ErrorContains(t, err, "as a string")
}

func TestEncodeErrors(t *testing.T) {
	_, err := Encode(message.NewFixedPointDatatype(4, true, message.OrderLE), []float64{1})
	assert.ErrorContains(t, err, "as an integer")

	_, err = Encode(message.NewFixedPointDatatype(4, true, message.OrderLE), nil)
	assert.ErrorContains(t, err, "nil value")

	_, err = Encode(message.NewVarLenStringDatatype(message.CharsetASCII), []string{"x"})
	assert.ErrorContains(t, err, "cannot encode")
}

func TestGoTypeToDatatype(t *testing.T) {
	dt, err := GoTypeToDatatype(reflect.TypeFor[[][]int16]())
	require.NoError(t, err)
	assert.Equal(t, message.ClassFixedPoint, dt.Class)
	assert.EqualValues(t, 2, dt.Size)
	assert.True(t, dt.Signed)

	dt, err = GoTypeToDatatype(reflect.TypeFor[uint]())
	require.NoError(t, err)
	assert.EqualValues(t, 8, dt.Size)
	assert.False(t, dt.Signed)

	dt, err = GoTypeToDatatype(reflect.TypeFor[*[]float32]())
	require.NoError(t, err)
	assert.Equal(t, message.ClassFloatPoint, dt.Class)

	_, err = GoTypeToDatatype(reflect.TypeFor[string]())
	assert.Error(t, err)
}

func TestDataSize(t *testing.T) {
	assert.EqualValues(t, 24, DataSize(message.NewFloatDatatype(8, message.OrderLE), 3))
}
