package message

import (
	"bytes"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-fast5/internal/binary"
)

// Attribute represents an attribute message (type 0x000C).
type Attribute struct {
	Version   uint8
	Name      string
	Datatype  *Datatype
	Dataspace *Dataspace
	Data      []byte
}

func (m *Attribute) Type() Type { return TypeAttribute }

// parseAttribute handles versions 1 to 3. Version 1 pads the name,
// datatype and dataspace to 8 bytes; version 3 adds a name encoding byte.
func parseAttribute(data []byte, br *binary.Reader) (*Attribute, error) {
	version, err := br.ReadUint8()
	if err != nil {
		return nil, errors.Wrap(err, "attribute message too short")
	}
	if version < 1 || version > 3 {
		return nil, errors.Newf("unsupported attribute version %d", version)
	}
	br.Skip(1)
	var sizes [3]uint16
	for i := range sizes {
		if sizes[i], err = br.ReadUint16(); err != nil {
			return nil, errors.Wrap(err, "attribute message too short")
		}
	}
	if version == 3 {
		br.Skip(1)
	}

	field := func(n uint16, what string) ([]byte, error) {
		b, err := br.ReadBytes(int(n))
		if err != nil {
			return nil, errors.Wrapf(err, "attribute %s truncated", what)
		}
		if version == 1 {
			br.Align(8)
		}
		return b, nil
	}

	attr := &Attribute{Version: version}
	name, err := field(sizes[0], "name")
	if err != nil {
		return nil, err
	}
	attr.Name = cstring(name)

	dt, err := field(sizes[1], "datatype")
	if err != nil {
		return nil, err
	}
	if attr.Datatype, err = parseDatatype(dt); err != nil {
		return nil, errors.Wrapf(err, "attribute %s", attr.Name)
	}

	ds, err := field(sizes[2], "dataspace")
	if err != nil {
		return nil, err
	}
	if attr.Dataspace, err = parseDataspace(binary.NewReader(bytes.NewReader(ds), br.Config())); err != nil {
		return nil, errors.Wrapf(err, "attribute %s", attr.Name)
	}

	if pos := int(br.Pos()); pos < len(data) {
		attr.Data = bytes.Clone(data[pos:])
	}
	return attr, nil
}

// encode writes a version 3 attribute with an ASCII name.
func (m *Attribute) encode(c binary.Config) ([]byte, error) {
	if m.Datatype == nil || m.Dataspace == nil {
		return nil, errors.Newf("attribute %s needs a datatype and a dataspace", m.Name)
	}
	dt, err := m.Datatype.encode(c)
	if err != nil {
		return nil, errors.Wrapf(err, "attribute %s", m.Name)
	}
	ds, err := m.Dataspace.encode(c)
	if err != nil {
		return nil, errors.Wrapf(err, "attribute %s", m.Name)
	}

	b := []byte{3, 0}
	b = c.AppendUint(b, uint64(len(m.Name)+1), 2)
	b = c.AppendUint(b, uint64(len(dt)), 2)
	b = c.AppendUint(b, uint64(len(ds)), 2)
	b = append(b, byte(CharsetASCII))
	b = append(append(b, m.Name...), 0)
	b = append(append(b, dt...), ds...)
	return append(b, m.Data...), nil
}

// NewAttribute returns a version 3 attribute message.
func NewAttribute(name string, datatype *Datatype, dataspace *Dataspace, data []byte) *Attribute {
	return &Attribute{
		Version:   3,
		Name:      name,
		Datatype:  datatype,
		Dataspace: dataspace,
		Data:      data,
	}
}
