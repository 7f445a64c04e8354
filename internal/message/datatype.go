package message

import (
	"encoding/binary"
	"fmt"

	"github.com/cockroachdb/errors"

	binpkg "github.com/robert-malhotra/go-fast5/internal/binary"
)

// DatatypeClass represents the class of an HDF5 datatype.
type DatatypeClass uint8

const (
	ClassFixedPoint DatatypeClass = 0
	ClassFloatPoint DatatypeClass = 1
	ClassTime       DatatypeClass = 2
	ClassString     DatatypeClass = 3
	ClassBitfield   DatatypeClass = 4
	ClassOpaque     DatatypeClass = 5
	ClassCompound   DatatypeClass = 6
	ClassReference  DatatypeClass = 7
	ClassEnum       DatatypeClass = 8
	ClassVarLen     DatatypeClass = 9
	ClassArray      DatatypeClass = 10
)

var classNames = [...]string{
	ClassFixedPoint: "integer",
	ClassFloatPoint: "float",
	ClassTime:       "time",
	ClassString:     "string",
	ClassBitfield:   "bitfield",
	ClassOpaque:     "opaque",
	ClassCompound:   "compound",
	ClassReference:  "reference",
	ClassEnum:       "enum",
	ClassVarLen:     "vlen",
	ClassArray:      "array",
}

func (c DatatypeClass) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("class(%d)", uint8(c))
}

// ByteOrder represents the byte order of numeric types.
type ByteOrder uint8

const (
	OrderLE ByteOrder = 0
	OrderBE ByteOrder = 1
)

// StringPadding represents how fixed-length strings are padded.
type StringPadding uint8

const (
	PadNullTerm StringPadding = 0
	PadNullPad  StringPadding = 1
	PadSpacePad StringPadding = 2
)

// CharacterSet represents the character encoding of a string.
type CharacterSet uint8

const (
	CharsetASCII CharacterSet = 0
	CharsetUTF8  CharacterSet = 1
)

// Datatype represents a datatype message (type 0x0003).
type Datatype struct {
	Class     DatatypeClass
	ClassBits uint32
	Size      uint32

	// Integers, floats, bitfields, and enums through their base type.
	ByteOrder    ByteOrder
	BitOffset    uint16
	BitPrecision uint16
	Signed       bool

	// Strings. Variable-length strings carry these in the class bits too.
	StringPadding StringPadding
	CharSet       CharacterSet

	// BaseType is the integer type behind an enum or the element type of
	// a variable-length sequence.
	BaseType       *Datatype
	IsVarLenString bool

	// Properties holds the class-specific property bytes as stored.
	Properties []byte
}

func (m *Datatype) Type() Type { return TypeDatatype }

// IsString reports whether the type holds text, fixed or variable length.
func (m *Datatype) IsString() bool {
	return m.Class == ClassString || (m.Class == ClassVarLen && m.IsVarLenString)
}

// parseDatatype decodes a datatype. The size and class bits are always
// little-endian; the byte order of the data itself lives in the class bits.
func parseDatatype(data []byte) (*Datatype, error) {
	if len(data) < 8 {
		return nil, errors.New("datatype message too short")
	}
	bits := uint32(data[1]) | uint32(data[2])<<8 | uint32(data[3])<<16
	dt := &Datatype{
		Class:      DatatypeClass(data[0] & 0x0F),
		ClassBits:  bits,
		Size:       binary.LittleEndian.Uint32(data[4:8]),
		Properties: data[8:],
	}
	props := dt.Properties

	switch dt.Class {
	case ClassFixedPoint, ClassBitfield:
		dt.ByteOrder = ByteOrder(bits & 0x01)
		dt.Signed = bits&0x08 != 0
		if len(props) < 4 {
			return nil, errors.Newf("%s datatype properties truncated", dt.Class)
		}
		dt.BitOffset = binary.LittleEndian.Uint16(props[0:2])
		dt.BitPrecision = binary.LittleEndian.Uint16(props[2:4])
		dt.Properties = props[:4]

	case ClassFloatPoint:
		dt.ByteOrder = ByteOrder(bits & 0x01)
		if len(props) < 12 {
			return nil, errors.New("float datatype properties truncated")
		}
		dt.BitOffset = binary.LittleEndian.Uint16(props[0:2])
		dt.BitPrecision = binary.LittleEndian.Uint16(props[2:4])
		dt.Properties = props[:12]

	case ClassString:
		dt.StringPadding = StringPadding(bits & 0x0F)
		dt.CharSet = CharacterSet((bits >> 4) & 0x0F)
		dt.Properties = nil

	case ClassOpaque:
		// The tag length, padded to 8 bytes, is the low class byte.
		if n := int(bits & 0xFF); n <= len(props) {
			dt.Properties = props[:n]
		}

	case ClassEnum:
		base, err := parseDatatype(props)
		if err != nil {
			return nil, errors.Wrap(err, "enum base type")
		}
		dt.BaseType = base
		dt.ByteOrder = base.ByteOrder
		dt.Signed = base.Signed

	case ClassVarLen:
		dt.IsVarLenString = bits&0x0F == 1
		dt.StringPadding = StringPadding((bits >> 4) & 0x0F)
		dt.CharSet = CharacterSet((bits >> 8) & 0x0F)
		if len(props) >= 8 {
			base, err := parseDatatype(props)
			if err != nil {
				return nil, errors.Wrap(err, "vlen base type")
			}
			dt.BaseType = base
		}
	}
	return dt, nil
}

func (m *Datatype) encode(c binpkg.Config) ([]byte, error) {
	b := []byte{uint8(m.Class) | 1<<4, byte(m.ClassBits), byte(m.ClassBits >> 8), byte(m.ClassBits >> 16)}
	b = binary.LittleEndian.AppendUint32(b, m.Size)

	switch m.Class {
	case ClassFixedPoint, ClassBitfield:
		b = binary.LittleEndian.AppendUint16(b, m.BitOffset)
		return binary.LittleEndian.AppendUint16(b, m.BitPrecision), nil
	case ClassFloatPoint:
		if len(m.Properties) != 12 {
			return nil, errors.Newf("float datatype has %d property bytes", len(m.Properties))
		}
		return append(b, m.Properties...), nil
	case ClassString:
		return b, nil
	case ClassOpaque:
		return append(b, m.Properties...), nil
	case ClassVarLen:
		if m.BaseType == nil {
			return nil, errors.New("vlen datatype without a base type")
		}
		base, err := m.BaseType.encode(c)
		if err != nil {
			return nil, err
		}
		return append(b, base...), nil
	}
	return nil, errors.Newf("cannot write %s datatypes", m.Class)
}

// NewFixedPointDatatype returns an integer type of size bytes.
func NewFixedPointDatatype(size uint32, signed bool, order ByteOrder) *Datatype {
	bits := uint32(order)
	if signed {
		bits |= 0x08
	}
	return &Datatype{
		Class:        ClassFixedPoint,
		ClassBits:    bits,
		Size:         size,
		ByteOrder:    order,
		BitPrecision: uint16(size * 8),
		Signed:       signed,
	}
}

// NewFloatDatatype returns an IEEE 754 binary32 or binary64 type.
func NewFloatDatatype(size uint32, order ByteOrder) *Datatype {
	// Sign position, exponent position and width, mantissa width, bias.
	sign, expLoc, expSize, mantSize, bias := uint32(31), uint8(23), uint8(8), uint8(23), uint32(127)
	if size == 8 {
		sign, expLoc, expSize, mantSize, bias = 63, 52, 11, 52, 1023
	}
	props := binary.LittleEndian.AppendUint16(nil, 0)
	props = binary.LittleEndian.AppendUint16(props, uint16(size*8))
	props = append(props, expLoc, expSize, 0, mantSize)
	props = binary.LittleEndian.AppendUint32(props, bias)

	// Bit 5 marks an implied leading mantissa bit.
	return &Datatype{
		Class:        ClassFloatPoint,
		ClassBits:    uint32(order) | 1<<5 | sign<<8,
		Size:         size,
		ByteOrder:    order,
		BitPrecision: uint16(size * 8),
		Properties:   props,
	}
}

// NewStringDatatype returns a fixed-length string type.
func NewStringDatatype(size uint32, padding StringPadding, charset CharacterSet) *Datatype {
	return &Datatype{
		Class:         ClassString,
		ClassBits:     uint32(padding) | uint32(charset)<<4,
		Size:          size,
		StringPadding: padding,
		CharSet:       charset,
	}
}

// NewVarLenStringDatatype returns a variable-length string type. Elements
// are 16-byte references into the global heap.
func NewVarLenStringDatatype(charset CharacterSet) *Datatype {
	return &Datatype{
		Class:          ClassVarLen,
		ClassBits:      1 | uint32(charset)<<8,
		Size:           16,
		BaseType:       NewFixedPointDatatype(1, false, OrderLE),
		IsVarLenString: true,
		CharSet:        charset,
	}
}

// NewOpaqueDatatype returns an opaque type of size bytes with an ASCII tag.
func NewOpaqueDatatype(size uint32, tag string) *Datatype {
	padded := (len(tag) + 1 + 7) &^ 7
	props := make([]byte, padded)
	copy(props, tag)
	return &Datatype{
		Class:      ClassOpaque,
		ClassBits:  uint32(padded),
		Size:       size,
		Properties: props,
	}
}
