package dtype

import (
	"encoding/binary"
	"math"
	"reflect"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-fast5/internal/message"
)

// Encode converts src into raw element bytes of type dt. src may be a
// scalar, a slice or array, or nested slices, which are flattened in
// row-major order.
func Encode(dt *message.Datatype, src interface{}) ([]byte, error) {
	if dt == nil {
		return nil, errors.New("nil datatype")
	}
	e := encoder{dt: dt, order: binary.LittleEndian}
	if dt.ByteOrder == message.OrderBE {
		e.order = binary.BigEndian
	}
	if err := e.walk(reflect.ValueOf(src)); err != nil {
		return nil, err
	}
	return e.buf, nil
}

type encoder struct {
	dt    *message.Datatype
	order binary.AppendByteOrder
	buf   []byte
}

func (e *encoder) walk(v reflect.Value) error {
	switch v.Kind() {
	case reflect.Invalid:
		return errors.New("cannot encode a nil value")
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return errors.New("cannot encode a nil value")
		}
		return e.walk(v.Elem())
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := e.walk(v.Index(i)); err != nil {
				return err
			}
		}
		return nil
	}
	return e.element(v)
}

func (e *encoder) element(v reflect.Value) error {
	size := int(e.dt.Size)
	switch e.dt.Class {
	case message.ClassFixedPoint:
		var u uint64
		switch {
		case v.CanInt():
			u = uint64(v.Int())
		case v.CanUint():
			u = v.Uint()
		default:
			return errors.Newf("cannot encode %v as an integer", v.Type())
		}
		return e.putUint(u, size)

	case message.ClassFloatPoint:
		var f float64
		switch {
		case v.CanFloat():
			f = v.Float()
		case v.CanInt():
			f = float64(v.Int())
		case v.CanUint():
			f = float64(v.Uint())
		default:
			return errors.Newf("cannot encode %v as a float", v.Type())
		}
		if size == 4 {
			return e.putUint(uint64(math.Float32bits(float32(f))), 4)
		}
		return e.putUint(math.Float64bits(f), size)

	case message.ClassString:
		if v.Kind() != reflect.String {
			return errors.Newf("cannot encode %v as a string", v.Type())
		}
		b := make([]byte, size)
		n := copy(b, v.String())
		if e.dt.StringPadding == message.PadSpacePad {
			for i := n; i < size; i++ {
				b[i] = ' '
			}
		}
		e.buf = append(e.buf, b...)
		return nil
	}
	return errors.Newf("cannot encode %s data", e.dt.Class)
}

func (e *encoder) putUint(u uint64, size int) error {
	switch size {
	case 1:
		e.buf = append(e.buf, byte(u))
	case 2:
		e.buf = e.order.AppendUint16(e.buf, uint16(u))
	case 4:
		e.buf = e.order.AppendUint32(e.buf, uint32(u))
	case 8:
		e.buf = e.order.AppendUint64(e.buf, u)
	default:
		return errors.Newf("unsupported element size %d", size)
	}
	return nil
}
