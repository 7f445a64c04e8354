// Package message decodes and encodes the HDF5 header messages found in
// FAST5 object headers.
//
// Reading understands every message a FAST5 producer emits: dataspaces,
// datatypes, layouts, filter pipelines, attributes, links and the symbol
// table of old-style groups. Anything else is kept as an [Unknown] so the
// header can still be walked. Writing covers the subset the container
// writer needs; see [Encode].
package message

import (
	"bytes"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-fast5/internal/binary"
)

// Type represents an HDF5 header message type.
type Type uint16

const (
	TypeNIL                      Type = 0x0000
	TypeDataspace                Type = 0x0001
	TypeLinkInfo                 Type = 0x0002
	TypeDatatype                 Type = 0x0003
	TypeFillValueOld             Type = 0x0004
	TypeFillValue                Type = 0x0005
	TypeLink                     Type = 0x0006
	TypeExternalDataFiles        Type = 0x0007
	TypeDataLayout               Type = 0x0008
	TypeBogus                    Type = 0x0009
	TypeGroupInfo                Type = 0x000A
	TypeFilterPipeline           Type = 0x000B
	TypeAttribute                Type = 0x000C
	TypeObjectComment            Type = 0x000D
	TypeObjectModTime            Type = 0x000E
	TypeSharedMessageTable       Type = 0x000F
	TypeObjectHeaderContinuation Type = 0x0010
	TypeSymbolTable              Type = 0x0011
	TypeObjectModTimeOld         Type = 0x0012
	TypeBTreeKValues             Type = 0x0013
	TypeDriverInfo               Type = 0x0014
	TypeAttributeInfo            Type = 0x0015
	TypeObjectRefCount           Type = 0x0016
)

// UndefinedAddress is the all-ones address HDF5 uses for "not allocated".
const UndefinedAddress = ^uint64(0)

// Message is the interface implemented by all header messages.
type Message interface {
	Type() Type
}

// encoder is implemented by messages the writer can emit.
type encoder interface {
	encode(c binary.Config) ([]byte, error)
}

// Parse decodes the body of a header message. r supplies the file's
// offset and length sizes; a nil r means 8-byte little-endian fields.
func Parse(typ Type, data []byte, flags uint8, r *binary.Reader) (Message, error) {
	br := body(data, r)
	var (
		msg Message
		err error
	)
	switch typ {
	case TypeDataspace:
		msg, err = parseDataspace(br)
	case TypeDatatype:
		msg, err = parseDatatype(data)
	case TypeDataLayout:
		msg, err = parseDataLayout(br)
	case TypeFilterPipeline:
		msg, err = parseFilterPipeline(br)
	case TypeAttribute:
		msg, err = parseAttribute(data, br)
	case TypeLink:
		msg, err = parseLink(br)
	case TypeLinkInfo:
		msg, err = parseLinkInfo(br)
	case TypeGroupInfo:
		msg, err = parseGroupInfo(br)
	case TypeSymbolTable:
		msg, err = parseSymbolTable(br)
	case TypeObjectHeaderContinuation:
		msg, err = ParseContinuation(data, r)
	default:
		return &Unknown{typ: typ, data: data}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "message type %#04x", uint16(typ))
	}
	return msg, nil
}

// Encode returns the body of msg as it is stored in an object header.
func Encode(msg Message, c binary.Config) ([]byte, error) {
	e, ok := msg.(encoder)
	if !ok {
		return nil, errors.Newf("cannot encode message type %#04x", uint16(msg.Type()))
	}
	return e.encode(c)
}

// body returns a reader over a message body that shares r's field sizes.
func body(data []byte, r *binary.Reader) *binary.Reader {
	cfg := binary.DefaultConfig()
	if r != nil {
		cfg = r.Config()
	}
	return binary.NewReader(bytes.NewReader(data), cfg)
}

// cstring returns b up to its first NUL.
func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// Unknown holds a message this package does not interpret.
type Unknown struct {
	typ  Type
	data []byte
}

func (m *Unknown) Type() Type   { return m.typ }
func (m *Unknown) Data() []byte { return m.data }

func (m *Unknown) encode(binary.Config) ([]byte, error) { return m.data, nil }

// Continuation points at the next block of an object header.
type Continuation struct {
	Offset uint64
	Length uint64
}

func (m *Continuation) Type() Type { return TypeObjectHeaderContinuation }

// ParseContinuation parses a continuation message.
func ParseContinuation(data []byte, r *binary.Reader) (*Continuation, error) {
	br := body(data, r)
	offset, err := br.ReadOffset()
	if err != nil {
		return nil, errors.Wrap(err, "continuation message too short")
	}
	length, err := br.ReadLength()
	if err != nil {
		return nil, errors.Wrap(err, "continuation message too short")
	}
	return &Continuation{Offset: offset, Length: length}, nil
}
