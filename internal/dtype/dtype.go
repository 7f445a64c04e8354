// Package dtype maps HDF5 datatypes to Go types and converts element data
// in both directions.
//
// Reading covers the classes that appear in FAST5 files: integers (with
// enums and bitfields read as their integer value), IEEE floats, fixed and
// variable-length strings, and opaque blobs. Writing covers integers,
// floats and fixed-length strings.
package dtype

import (
	"encoding/binary"
	"reflect"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-fast5/internal/message"
)

// GoType returns the natural Go element type for dt.
func GoType(dt *message.Datatype) (reflect.Type, error) {
	if dt == nil {
		return nil, errors.New("nil datatype")
	}
	switch dt.Class {
	case message.ClassFixedPoint, message.ClassEnum, message.ClassBitfield:
		return intType(dt.Size, dt.Signed && dt.Class != message.ClassBitfield)
	case message.ClassFloatPoint:
		switch dt.Size {
		case 4:
			return reflect.TypeFor[float32](), nil
		case 8:
			return reflect.TypeFor[float64](), nil
		}
		return nil, errors.Newf("unsupported float size %d", dt.Size)
	case message.ClassString:
		return reflect.TypeFor[string](), nil
	case message.ClassVarLen:
		if dt.IsVarLenString {
			return reflect.TypeFor[string](), nil
		}
	case message.ClassOpaque:
		return reflect.TypeFor[[]byte](), nil
	}
	return nil, errors.Newf("unsupported datatype class %s", dt.Class)
}

func intType(size uint32, signed bool) (reflect.Type, error) {
	var t reflect.Type
	switch size {
	case 1:
		t = reflect.TypeFor[uint8]()
		if signed {
			t = reflect.TypeFor[int8]()
		}
	case 2:
		t = reflect.TypeFor[uint16]()
		if signed {
			t = reflect.TypeFor[int16]()
		}
	case 4:
		t = reflect.TypeFor[uint32]()
		if signed {
			t = reflect.TypeFor[int32]()
		}
	case 8:
		t = reflect.TypeFor[uint64]()
		if signed {
			t = reflect.TypeFor[int64]()
		}
	default:
		return nil, errors.Newf("unsupported integer size %d", size)
	}
	return t, nil
}

// GoTypeToDatatype returns the little-endian datatype used to store
// elements of t. Slice, array and pointer types are unwrapped to their
// innermost element. Strings are not accepted: datasets of text are not
// written, and string attributes are built separately.
func GoTypeToDatatype(t reflect.Type) (*message.Datatype, error) {
	for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		return message.NewFixedPointDatatype(uint32(t.Size()), true, message.OrderLE), nil
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		return message.NewFixedPointDatatype(uint32(t.Size()), false, message.OrderLE), nil
	case reflect.Float32, reflect.Float64:
		return message.NewFloatDatatype(uint32(t.Size()), message.OrderLE), nil
	}
	return nil, errors.Newf("unsupported Go type %v", t)
}

// ByteOrder returns the byte order of dt's elements.
func ByteOrder(dt *message.Datatype) binary.ByteOrder {
	if dt.ByteOrder == message.OrderBE {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// DataSize returns the bytes needed for n elements of dt.
func DataSize(dt *message.Datatype, n uint64) uint64 {
	return uint64(dt.Size) * n
}
