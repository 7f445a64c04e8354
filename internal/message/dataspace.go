package message

import (
	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-fast5/internal/binary"
)

// DataspaceType represents the type of dataspace.
type DataspaceType uint8

const (
	DataspaceScalar DataspaceType = 0
	DataspaceSimple DataspaceType = 1
	DataspaceNull   DataspaceType = 2
)

// Dataspace represents a dataspace message (type 0x0001).
type Dataspace struct {
	Version    uint8
	Rank       int
	SpaceType  DataspaceType
	Dimensions []uint64
	MaxDims    []uint64 // nil when the maximum equals the current size
}

func (m *Dataspace) Type() Type { return TypeDataspace }

// NumElements returns the total number of elements in the dataspace.
func (m *Dataspace) NumElements() uint64 {
	switch m.SpaceType {
	case DataspaceScalar:
		return 1
	case DataspaceSimple:
		if len(m.Dimensions) == 0 {
			return 0
		}
		n := uint64(1)
		for _, d := range m.Dimensions {
			n *= d
		}
		return n
	}
	return 0
}

// IsScalar reports whether the dataspace holds a single element.
func (m *Dataspace) IsScalar() bool {
	return m.SpaceType == DataspaceScalar
}

func parseDataspace(br *binary.Reader) (*Dataspace, error) {
	hdr, err := br.ReadBytes(4)
	if err != nil {
		return nil, errors.Wrap(err, "dataspace message too short")
	}
	ds := &Dataspace{Version: hdr[0], Rank: int(hdr[1])}
	hasMax := hdr[2]&0x01 != 0

	switch ds.Version {
	case 1:
		// Version 1 infers the type from the rank and pads the header.
		ds.SpaceType = DataspaceSimple
		if ds.Rank == 0 {
			ds.SpaceType = DataspaceScalar
		}
		br.Skip(4)
	case 2:
		ds.SpaceType = DataspaceType(hdr[3])
	default:
		return nil, errors.Newf("unsupported dataspace version %d", ds.Version)
	}
	if ds.SpaceType != DataspaceSimple || ds.Rank == 0 {
		return ds, nil
	}

	if ds.Dimensions, err = readLengths(br, ds.Rank); err != nil {
		return nil, errors.Wrap(err, "dataspace dimensions")
	}
	if hasMax {
		if ds.MaxDims, err = readLengths(br, ds.Rank); err != nil {
			return nil, errors.Wrap(err, "dataspace maximum dimensions")
		}
	}
	return ds, nil
}

func readLengths(br *binary.Reader, n int) ([]uint64, error) {
	out := make([]uint64, n)
	for i := range out {
		v, err := br.ReadLength()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// encode writes a version 2 dataspace.
func (m *Dataspace) encode(c binary.Config) ([]byte, error) {
	var flags uint8
	if len(m.MaxDims) > 0 {
		if len(m.MaxDims) != len(m.Dimensions) {
			return nil, errors.Newf("%d maximum dimensions for rank %d", len(m.MaxDims), len(m.Dimensions))
		}
		flags = 0x01
	}
	b := []byte{2, uint8(len(m.Dimensions)), flags, uint8(m.SpaceType)}
	for _, d := range m.Dimensions {
		b = c.AppendLength(b, d)
	}
	for _, d := range m.MaxDims {
		b = c.AppendLength(b, d)
	}
	return b, nil
}

// NewDataspace returns a simple dataspace. maxDims may be nil.
func NewDataspace(dims []uint64, maxDims []uint64) *Dataspace {
	return &Dataspace{
		Version:    2,
		Rank:       len(dims),
		SpaceType:  DataspaceSimple,
		Dimensions: dims,
		MaxDims:    maxDims,
	}
}

// NewScalarDataspace returns a dataspace holding one element.
func NewScalarDataspace() *Dataspace {
	return &Dataspace{Version: 2, SpaceType: DataspaceScalar}
}
