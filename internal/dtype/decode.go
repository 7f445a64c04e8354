package dtype

import (
	"bytes"
	"math"
	"reflect"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-fast5/internal/binary"
	"github.com/robert-malhotra/go-fast5/internal/heap"
	"github.com/robert-malhotra/go-fast5/internal/message"
)

type number interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~int |
		~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint |
		~float32 | ~float64
}

// Convert decodes n elements of raw data into dest. See ConvertWithReader.
func Convert(dt *message.Datatype, data []byte, n uint64, dest interface{}) error {
	return ConvertWithReader(dt, data, n, dest, nil)
}

// ConvertWithReader decodes n elements of raw data into dest, which must
// be a pointer to a slice of a numeric type, to []string, to [][]byte, or
// to an interface{} that receives a slice of the natural Go type. Numbers
// convert between widths and between integer and float the way a Go
// conversion would. r resolves variable-length strings held in the global
// heap and may be nil when dt has none.
func ConvertWithReader(dt *message.Datatype, data []byte, n uint64, dest interface{}, r *binary.Reader) error {
	if dt == nil {
		return errors.New("nil datatype")
	}
	if need := DataSize(dt, n); uint64(len(data)) < need {
		return errors.Newf("have %d bytes for %d elements of size %d", len(data), n, dt.Size)
	}

	switch d := dest.(type) {
	case *[]int8:
		return decodeNumbers(dt, data, n, d)
	case *[]int16:
		return decodeNumbers(dt, data, n, d)
	case *[]int32:
		return decodeNumbers(dt, data, n, d)
	case *[]int64:
		return decodeNumbers(dt, data, n, d)
	case *[]int:
		return decodeNumbers(dt, data, n, d)
	case *[]uint8:
		return decodeNumbers(dt, data, n, d)
	case *[]uint16:
		return decodeNumbers(dt, data, n, d)
	case *[]uint32:
		return decodeNumbers(dt, data, n, d)
	case *[]uint64:
		return decodeNumbers(dt, data, n, d)
	case *[]uint:
		return decodeNumbers(dt, data, n, d)
	case *[]float32:
		return decodeNumbers(dt, data, n, d)
	case *[]float64:
		return decodeNumbers(dt, data, n, d)
	case *[]string:
		s, err := decodeStrings(dt, data, n, r)
		if err != nil {
			return err
		}
		*d = s
		return nil
	case *[][]byte:
		if dt.Class != message.ClassOpaque {
			return errors.Newf("cannot read %s data as raw bytes", dt.Class)
		}
		out := make([][]byte, n)
		size := uint64(dt.Size)
		for i := range out {
			out[i] = bytes.Clone(data[uint64(i)*size : uint64(i+1)*size])
		}
		*d = out
		return nil
	case *interface{}:
		t, err := GoType(dt)
		if err != nil {
			return err
		}
		slice := reflect.New(reflect.SliceOf(t))
		if err := ConvertWithReader(dt, data, n, slice.Interface(), r); err != nil {
			return err
		}
		*d = slice.Elem().Interface()
		return nil
	}
	return errors.Newf("cannot decode %s data into %T", dt.Class, dest)
}

// scalar is one decoded numeric element.
type scalar struct {
	i    int64
	u    uint64
	f    float64
	kind reflect.Kind
}

func cast[T number](v scalar) T {
	switch v.kind {
	case reflect.Float64:
		return T(v.f)
	case reflect.Uint64:
		return T(v.u)
	}
	return T(v.i)
}

func decodeNumbers[T number](dt *message.Datatype, data []byte, n uint64, dest *[]T) error {
	size := uint64(dt.Size)
	out := make([]T, n)
	for i := range out {
		v, err := decodeScalar(dt, data[uint64(i)*size:])
		if err != nil {
			return err
		}
		out[i] = cast[T](v)
	}
	*dest = out
	return nil
}

func decodeScalar(dt *message.Datatype, b []byte) (scalar, error) {
	order := ByteOrder(dt)
	switch dt.Class {
	case message.ClassFixedPoint, message.ClassEnum, message.ClassBitfield:
		var u uint64
		switch dt.Size {
		case 1:
			u = uint64(b[0])
		case 2:
			u = uint64(order.Uint16(b))
		case 4:
			u = uint64(order.Uint32(b))
		case 8:
			u = order.Uint64(b)
		default:
			return scalar{}, errors.Newf("unsupported integer size %d", dt.Size)
		}
		if !dt.Signed || dt.Class == message.ClassBitfield {
			return scalar{u: u, kind: reflect.Uint64}, nil
		}
		shift := 64 - 8*dt.Size
		return scalar{i: int64(u<<shift) >> shift, kind: reflect.Int64}, nil

	case message.ClassFloatPoint:
		switch dt.Size {
		case 4:
			return scalar{f: float64(math.Float32frombits(order.Uint32(b))), kind: reflect.Float64}, nil
		case 8:
			return scalar{f: math.Float64frombits(order.Uint64(b)), kind: reflect.Float64}, nil
		}
		return scalar{}, errors.Newf("unsupported float size %d", dt.Size)
	}
	return scalar{}, errors.Newf("cannot read %s data as numbers", dt.Class)
}

func decodeStrings(dt *message.Datatype, data []byte, n uint64, r *binary.Reader) ([]string, error) {
	size := uint64(dt.Size)
	out := make([]string, n)
	switch {
	case dt.Class == message.ClassString:
		for i := range out {
			out[i] = trimString(data[uint64(i)*size:uint64(i+1)*size], dt.StringPadding)
		}
		return out, nil

	case dt.Class == message.ClassVarLen && dt.IsVarLenString:
		cfg := binary.DefaultConfig()
		if r != nil {
			cfg = r.Config()
		}
		collections := make(map[uint64]*heap.GlobalHeap)
		for i := range out {
			// Each reference is a 4-byte length then a global heap ID.
			ref := data[uint64(i)*size : uint64(i+1)*size]
			id, err := heap.ParseGlobalHeapID(ref[4:], cfg)
			if err != nil {
				return nil, errors.Wrapf(err, "string %d", i)
			}
			if id.CollectionAddress == 0 {
				continue
			}
			if r == nil {
				return nil, errors.Newf("string %d lives in the global heap at %#x and no reader was given", i, id.CollectionAddress)
			}
			gh, ok := collections[id.CollectionAddress]
			if !ok {
				if gh, err = heap.ReadGlobalHeap(r, id.CollectionAddress); err != nil {
					return nil, errors.Wrapf(err, "string %d", i)
				}
				collections[id.CollectionAddress] = gh
			}
			if out[i], err = gh.StringAt(uint16(id.ObjectIndex)); err != nil {
				return nil, errors.Wrapf(err, "string %d", i)
			}
		}
		return out, nil
	}
	return nil, errors.Newf("cannot read %s data as strings", dt.Class)
}

func trimString(b []byte, pad message.StringPadding) string {
	switch pad {
	case message.PadSpacePad:
		b = bytes.TrimRight(b, " ")
	case message.PadNullPad:
		b = bytes.TrimRight(b, "\x00")
	default:
		if i := bytes.IndexByte(b, 0); i >= 0 {
			b = b[:i]
		}
	}
	return string(b)
}
