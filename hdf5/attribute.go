package hdf5

import (
	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-fast5/internal/binary"
	"github.com/robert-malhotra/go-fast5/internal/dtype"
	"github.com/robert-malhotra/go-fast5/internal/message"
)

// Attribute represents an HDF5 attribute attached to a dataset or group.
type Attribute struct {
	msg    *message.Attribute
	reader *binary.Reader // For resolving global heap references
}

// Name returns the attribute name.
func (a *Attribute) Name() string {
	return a.msg.Name
}

// Shape returns the dimensions of the attribute value.
func (a *Attribute) Shape() []uint64 {
	if a.msg.Dataspace == nil || a.msg.Dataspace.IsScalar() {
		return nil
	}
	return a.msg.Dataspace.Dimensions
}

// NumElements returns the total number of elements.
func (a *Attribute) NumElements() uint64 {
	if a.msg.Dataspace == nil {
		return 1
	}
	return a.msg.Dataspace.NumElements()
}

// IsScalar returns true if the attribute is a scalar value.
func (a *Attribute) IsScalar() bool {
	if a.msg.Dataspace == nil {
		return true
	}
	return a.msg.Dataspace.IsScalar()
}

// DtypeClass returns the datatype class.
func (a *Attribute) DtypeClass() message.DatatypeClass {
	if a.msg.Datatype == nil {
		return 0
	}
	return a.msg.Datatype.Class
}

// DtypeSize returns the element size in bytes as declared by the datatype.
// Variable-length strings report the size of their heap reference.
func (a *Attribute) DtypeSize() int {
	if a.msg.Datatype == nil {
		return 0
	}
	return int(a.msg.Datatype.Size)
}

// IsSigned reports whether a fixed-point attribute is signed.
func (a *Attribute) IsSigned() bool {
	return a.msg.Datatype != nil && a.msg.Datatype.Signed
}

// IsString reports whether the attribute holds text, fixed or variable length.
func (a *Attribute) IsString() bool {
	if a.msg.Datatype == nil {
		return false
	}
	return a.msg.Datatype.IsString()
}

// IsVarLenString reports whether the attribute is a variable-length string.
func (a *Attribute) IsVarLenString() bool {
	return a.msg.Datatype != nil && a.msg.Datatype.Class == message.ClassVarLen && a.msg.Datatype.IsVarLenString
}

// Bytes returns the attribute's raw stored bytes. For variable-length data
// these are global heap references, not the value itself.
func (a *Attribute) Bytes() []byte {
	out := make([]byte, len(a.msg.Data))
	copy(out, a.msg.Data)
	return out
}

// Read reads the attribute value into dest.
// dest should be a pointer to the appropriate type.
func (a *Attribute) Read(dest interface{}) error {
	if a.msg.Datatype == nil {
		return errors.New("attribute has no datatype")
	}
	if a.msg.Data == nil {
		return errors.New("attribute has no data")
	}
	return dtype.ConvertWithReader(a.msg.Datatype, a.msg.Data, a.NumElements(), dest, a.reader)
}

func readAttrAs[T any](a *Attribute) ([]T, error) {
	var result []T
	err := a.Read(&result)
	return result, err
}

func readScalarAs[T any](a *Attribute) (T, error) {
	var zero T
	vals, err := readAttrAs[T](a)
	if err != nil {
		return zero, err
	}
	if len(vals) == 0 {
		return zero, errors.Newf("attribute %s has no values", a.msg.Name)
	}
	return vals[0], nil
}

// ReadFloat64 reads the attribute as float64 values.
func (a *Attribute) ReadFloat64() ([]float64, error) { return readAttrAs[float64](a) }

// ReadInt64 reads the attribute as int64 values.
func (a *Attribute) ReadInt64() ([]int64, error) { return readAttrAs[int64](a) }

// ReadString reads the attribute as string values.
func (a *Attribute) ReadString() ([]string, error) { return readAttrAs[string](a) }

// ReadScalarInt64 reads a scalar integer attribute.
func (a *Attribute) ReadScalarInt64() (int64, error) {
	if c := a.DtypeClass(); c != message.ClassFixedPoint && c != message.ClassEnum {
		return 0, errors.Newf("attribute %s is not an integer (class %d)", a.msg.Name, c)
	}
	if !a.IsSigned() {
		v, err := readScalarAs[uint64](a)
		return int64(v), err
	}
	return readScalarAs[int64](a)
}

// ReadScalarFloat64 reads a scalar numeric attribute as float64. Integer
// attributes are converted.
func (a *Attribute) ReadScalarFloat64() (float64, error) {
	switch a.DtypeClass() {
	case message.ClassFloatPoint:
		return readScalarAs[float64](a)
	case message.ClassFixedPoint:
		v, err := a.ReadScalarInt64()
		return float64(v), err
	default:
		return 0, errors.Newf("attribute %s is not numeric (class %d)", a.msg.Name, a.DtypeClass())
	}
}

// ReadScalarString reads a scalar string attribute.
func (a *Attribute) ReadScalarString() (string, error) {
	if !a.IsString() {
		return "", errors.Newf("attribute %s is not a string (class %d)", a.msg.Name, a.DtypeClass())
	}
	return readScalarAs[string](a)
}

// Value reads the attribute and returns an auto-typed Go value: int64 or
// uint64 for integers, float64 for floats, string for text, and the
// equivalent slices for non-scalar dataspaces. Other classes are decoded
// generically.
func (a *Attribute) Value() (interface{}, error) {
	if a.msg.Datatype == nil {
		return nil, errors.New("attribute has no datatype")
	}

	var (
		vals interface{}
		n    int
		err  error
	)
	switch {
	case a.msg.Datatype.Class == message.ClassFixedPoint && a.msg.Datatype.Signed,
		a.msg.Datatype.Class == message.ClassEnum:
		var v []int64
		v, err = a.ReadInt64()
		vals, n = v, len(v)
		if err == nil && n == 1 && a.IsScalar() {
			return v[0], nil
		}
	case a.msg.Datatype.Class == message.ClassFixedPoint:
		var v []uint64
		v, err = readAttrAs[uint64](a)
		vals, n = v, len(v)
		if err == nil && n == 1 && a.IsScalar() {
			return v[0], nil
		}
	case a.msg.Datatype.Class == message.ClassFloatPoint:
		var v []float64
		v, err = a.ReadFloat64()
		vals, n = v, len(v)
		if err == nil && n == 1 && a.IsScalar() {
			return v[0], nil
		}
	case a.IsString():
		var v []string
		v, err = a.ReadString()
		vals, n = v, len(v)
		if err == nil && n == 1 && a.IsScalar() {
			return v[0], nil
		}
	default:
		var v interface{}
		err = a.Read(&v)
		vals = v
	}
	if err != nil {
		return nil, err
	}
	return vals, nil
}
