package message

import (
	"bytes"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-fast5/internal/binary"
)

// LinkType represents the type of link.
type LinkType uint8

const (
	LinkTypeHard     LinkType = 0
	LinkTypeSoft     LinkType = 1
	LinkTypeExternal LinkType = 64
)

// Link flag bits.
const (
	linkCreationOrder = 0x04
	linkTypePresent   = 0x08
	linkCharset       = 0x10
)

// Link represents a link message (type 0x0006) of a new-style group.
type Link struct {
	LinkType      LinkType
	CreationOrder uint64
	Name          string

	ObjectAddress uint64 // hard links
	SoftLinkValue string // soft links
	ExternalFile  string // external links
	ExternalPath  string
}

func (m *Link) Type() Type { return TypeLink }

func (m *Link) IsHard() bool     { return m.LinkType == LinkTypeHard }
func (m *Link) IsSoft() bool     { return m.LinkType == LinkTypeSoft }
func (m *Link) IsExternal() bool { return m.LinkType == LinkTypeExternal }

func parseLink(br *binary.Reader) (*Link, error) {
	hdr, err := br.ReadBytes(2)
	if err != nil {
		return nil, errors.Wrap(err, "link message too short")
	}
	if hdr[0] != 1 {
		return nil, errors.Newf("unsupported link version %d", hdr[0])
	}
	flags := hdr[1]
	link := &Link{}

	if flags&linkTypePresent != 0 {
		t, err := br.ReadUint8()
		if err != nil {
			return nil, errors.Wrap(err, "link type")
		}
		link.LinkType = LinkType(t)
	}
	if flags&linkCreationOrder != 0 {
		if link.CreationOrder, err = br.ReadUint64(); err != nil {
			return nil, errors.Wrap(err, "link creation order")
		}
	}
	if flags&linkCharset != 0 {
		br.Skip(1)
	}

	nameLen, err := br.ReadUintN(1 << (flags & 0x03))
	if err != nil {
		return nil, errors.Wrap(err, "link name length")
	}
	name, err := br.ReadBytes(int(nameLen))
	if err != nil {
		return nil, errors.Wrap(err, "link name")
	}
	link.Name = string(name)

	switch link.LinkType {
	case LinkTypeHard:
		if link.ObjectAddress, err = br.ReadOffset(); err != nil {
			return nil, errors.Wrapf(err, "hard link %s", link.Name)
		}
	case LinkTypeSoft, LinkTypeExternal:
		n, err := br.ReadUint16()
		if err != nil {
			return nil, errors.Wrapf(err, "link %s", link.Name)
		}
		value, err := br.ReadBytes(int(n))
		if err != nil {
			return nil, errors.Wrapf(err, "link %s value", link.Name)
		}
		if link.LinkType == LinkTypeSoft {
			link.SoftLinkValue = string(value)
			break
		}
		// A version/flags byte, then the file and object paths, each
		// NUL-terminated.
		if len(value) < 2 {
			return nil, errors.Newf("external link %s too short", link.Name)
		}
		file, path, _ := bytes.Cut(value[1:], []byte{0})
		link.ExternalFile = string(file)
		link.ExternalPath = cstring(path)
	}
	return link, nil
}

// encode writes hard and soft links. The creation order is not tracked.
func (m *Link) encode(c binary.Config) ([]byte, error) {
	width, bits := 1, uint8(0)
	switch n := len(m.Name); {
	case n == 0:
		return nil, errors.New("link without a name")
	case n > 0xFFFF:
		width, bits = 4, 2
	case n > 0xFF:
		width, bits = 2, 1
	}

	flags := bits
	if m.LinkType != LinkTypeHard {
		flags |= linkTypePresent
	}
	b := []byte{1, flags}
	if m.LinkType != LinkTypeHard {
		b = append(b, uint8(m.LinkType))
	}
	b = c.AppendUint(b, uint64(len(m.Name)), width)
	b = append(b, m.Name...)

	switch m.LinkType {
	case LinkTypeHard:
		return c.AppendOffset(b, m.ObjectAddress), nil
	case LinkTypeSoft:
		b = c.AppendUint(b, uint64(len(m.SoftLinkValue)), 2)
		return append(b, m.SoftLinkValue...), nil
	}
	return nil, errors.Newf("cannot write link type %d", m.LinkType)
}

// NewHardLink returns a link to the object header at address.
func NewHardLink(name string, address uint64) *Link {
	return &Link{LinkType: LinkTypeHard, Name: name, ObjectAddress: address}
}

// LinkInfo represents a link info message (type 0x0002). Groups written
// here keep their links in the header, so the heap and index addresses
// stay undefined.
type LinkInfo struct {
	Flags                  uint8
	MaxCreationIndex       uint64
	FractalHeapAddr        uint64
	NameIndexBTreeAddr     uint64
	CreationOrderBTreeAddr uint64
}

func (m *LinkInfo) Type() Type { return TypeLinkInfo }

func parseLinkInfo(br *binary.Reader) (*LinkInfo, error) {
	hdr, err := br.ReadBytes(2)
	if err != nil {
		return nil, errors.Wrap(err, "link info message too short")
	}
	m := &LinkInfo{Flags: hdr[1]}
	if m.Flags&0x01 != 0 {
		if m.MaxCreationIndex, err = br.ReadUint64(); err != nil {
			return nil, err
		}
	}
	if m.FractalHeapAddr, err = br.ReadOffset(); err != nil {
		return nil, err
	}
	if m.NameIndexBTreeAddr, err = br.ReadOffset(); err != nil {
		return nil, err
	}
	if m.Flags&0x02 != 0 {
		if m.CreationOrderBTreeAddr, err = br.ReadOffset(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *LinkInfo) encode(c binary.Config) ([]byte, error) {
	b := []byte{0, m.Flags}
	if m.Flags&0x01 != 0 {
		b = c.AppendUint(b, m.MaxCreationIndex, 8)
	}
	b = c.AppendOffset(b, m.FractalHeapAddr)
	b = c.AppendOffset(b, m.NameIndexBTreeAddr)
	if m.Flags&0x02 != 0 {
		b = c.AppendOffset(b, m.CreationOrderBTreeAddr)
	}
	return b, nil
}

// NewLinkInfo returns the link info of a group with compact storage.
func NewLinkInfo() *LinkInfo {
	return &LinkInfo{FractalHeapAddr: UndefinedAddress, NameIndexBTreeAddr: UndefinedAddress}
}

// GroupInfo represents a group info message (type 0x000A).
type GroupInfo struct {
	Flags           uint8
	MaxCompactLinks uint16
	MinDenseLinks   uint16
	EstNumEntries   uint16
	EstLinkNameLen  uint16
}

func (m *GroupInfo) Type() Type { return TypeGroupInfo }

func parseGroupInfo(br *binary.Reader) (*GroupInfo, error) {
	hdr, err := br.ReadBytes(2)
	if err != nil {
		return nil, errors.Wrap(err, "group info message too short")
	}
	m := &GroupInfo{Flags: hdr[1]}
	pairs := []struct {
		bit  uint8
		a, b *uint16
	}{
		{0x01, &m.MaxCompactLinks, &m.MinDenseLinks},
		{0x02, &m.EstNumEntries, &m.EstLinkNameLen},
	}
	for _, p := range pairs {
		if m.Flags&p.bit == 0 {
			continue
		}
		if *p.a, err = br.ReadUint16(); err != nil {
			return nil, err
		}
		if *p.b, err = br.ReadUint16(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *GroupInfo) encode(c binary.Config) ([]byte, error) {
	b := []byte{0, m.Flags}
	if m.Flags&0x01 != 0 {
		b = c.AppendUint(b, uint64(m.MaxCompactLinks), 2)
		b = c.AppendUint(b, uint64(m.MinDenseLinks), 2)
	}
	if m.Flags&0x02 != 0 {
		b = c.AppendUint(b, uint64(m.EstNumEntries), 2)
		b = c.AppendUint(b, uint64(m.EstLinkNameLen), 2)
	}
	return b, nil
}

// NewGroupInfo returns a group info message with library defaults.
func NewGroupInfo() *GroupInfo { return &GroupInfo{} }

// SymbolTable represents a symbol table message (type 0x0011). Groups
// written by libraries before 1.8 list their members through a v1 B-tree
// and a local heap of names.
type SymbolTable struct {
	BTreeAddress     uint64
	LocalHeapAddress uint64
}

func (m *SymbolTable) Type() Type { return TypeSymbolTable }

func parseSymbolTable(br *binary.Reader) (*SymbolTable, error) {
	btree, err := br.ReadOffset()
	if err != nil {
		return nil, errors.Wrap(err, "symbol table message too short")
	}
	heap, err := br.ReadOffset()
	if err != nil {
		return nil, errors.Wrap(err, "symbol table message too short")
	}
	return &SymbolTable{BTreeAddress: btree, LocalHeapAddress: heap}, nil
}
