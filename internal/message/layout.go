package message

import (
	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-fast5/internal/binary"
)

// LayoutClass represents the storage layout class.
type LayoutClass uint8

const (
	LayoutCompact    LayoutClass = 0
	LayoutContiguous LayoutClass = 1
	LayoutChunked    LayoutClass = 2
	LayoutVirtual    LayoutClass = 3
)

func (c LayoutClass) String() string {
	switch c {
	case LayoutCompact:
		return "compact"
	case LayoutContiguous:
		return "contiguous"
	case LayoutChunked:
		return "chunked"
	case LayoutVirtual:
		return "virtual"
	}
	return "unknown"
}

// ChunkIndexType identifies how the chunks of a dataset are located. The
// values are the ones stored in version 4 layout messages; older messages
// always use a version 1 B-tree.
type ChunkIndexType uint8

const (
	ChunkIndexBTreeV1         ChunkIndexType = 0
	ChunkIndexSingleChunk     ChunkIndexType = 1
	ChunkIndexImplicit        ChunkIndexType = 2
	ChunkIndexFixedArray      ChunkIndexType = 3
	ChunkIndexExtensibleArray ChunkIndexType = 4
	ChunkIndexBTreeV2         ChunkIndexType = 5
)

// Chunked layout flags (version 4).
const (
	ChunkDontFilterPartialEdges uint8 = 0x01
	ChunkSingleIndexWithFilter  uint8 = 0x02
)

// DataLayout represents a data layout message (type 0x0008).
type DataLayout struct {
	Version uint8
	Class   LayoutClass

	// Compact
	CompactData []byte

	// Contiguous. A zero Size means the size has to be derived from the
	// dataspace and datatype.
	Address uint64
	Size    uint64

	// Chunked. ChunkDims carries one extra trailing entry holding the
	// element size in bytes.
	ChunkDims      []uint32
	ChunkIndexAddr uint64
	ChunkIndexType ChunkIndexType
	ChunkFlags     uint8

	// DimensionSizeBytes is the encoded width of each chunk dimension
	// (version 4).
	DimensionSizeBytes uint8

	// PageBits is the fixed array page size parameter (version 4).
	PageBits uint8

	// FilteredChunkSize and FilterMask describe a filtered single chunk
	// (version 4).
	FilteredChunkSize uint64
	FilterMask        uint32
}

func (m *DataLayout) Type() Type { return TypeDataLayout }

func parseDataLayout(br *binary.Reader) (*DataLayout, error) {
	version, err := br.ReadUint8()
	if err != nil {
		return nil, errors.Wrap(err, "data layout message too short")
	}
	m := &DataLayout{Version: version}
	switch m.Version {
	case 1, 2:
		err = m.parseV1V2(br)
	case 3, 4:
		err = m.parseV3V4(br)
	default:
		return nil, errors.Newf("unsupported data layout version: %d", m.Version)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "data layout v%d", m.Version)
	}
	return m, nil
}

// parseV1V2 decodes the layout written by libraries before 1.6.3. The
// dimension list of non-chunked layouts is redundant with the dataspace
// and is skipped.
func (m *DataLayout) parseV1V2(br *binary.Reader) error {
	ndims, err := br.ReadUint8()
	if err != nil {
		return err
	}
	class, err := br.ReadUint8()
	if err != nil {
		return err
	}
	m.Class = LayoutClass(class)
	br.Skip(5)

	switch m.Class {
	case LayoutContiguous:
		if m.Address, err = br.ReadOffset(); err != nil {
			return err
		}
	case LayoutChunked:
		m.ChunkIndexType = ChunkIndexBTreeV1
		if m.ChunkIndexAddr, err = br.ReadOffset(); err != nil {
			return err
		}
	}

	if m.Class != LayoutChunked {
		br.Skip(int64(ndims) * 4)
	} else {
		m.ChunkDims = make([]uint32, ndims)
		for i := range m.ChunkDims {
			if m.ChunkDims[i], err = br.ReadUint32(); err != nil {
				return err
			}
		}
	}

	if m.Class == LayoutCompact {
		size, err := br.ReadUint32()
		if err != nil {
			return err
		}
		if m.CompactData, err = br.ReadBytes(int(size)); err != nil {
			return errors.Wrap(err, "compact data truncated")
		}
	}
	return nil
}

func (m *DataLayout) parseV3V4(br *binary.Reader) error {
	class, err := br.ReadUint8()
	if err != nil {
		return err
	}
	m.Class = LayoutClass(class)

	switch m.Class {
	case LayoutCompact:
		size, err := br.ReadUint16()
		if err != nil {
			return err
		}
		if m.CompactData, err = br.ReadBytes(int(size)); err != nil {
			return errors.Wrap(err, "compact data truncated")
		}
		if m.CompactData == nil {
			m.CompactData = []byte{}
		}
	case LayoutContiguous:
		if m.Address, err = br.ReadOffset(); err != nil {
			return err
		}
		if m.Size, err = br.ReadLength(); err != nil {
			return err
		}
	case LayoutChunked:
		if m.Version == 3 {
			return m.parseChunkedV3(br)
		}
		return m.parseChunkedV4(br)
	case LayoutVirtual:
		return errors.New("virtual datasets are not supported")
	default:
		return errors.Newf("unknown layout class %d", class)
	}
	return nil
}

func (m *DataLayout) parseChunkedV3(br *binary.Reader) error {
	ndims, err := br.ReadUint8()
	if err != nil {
		return err
	}
	m.ChunkIndexType = ChunkIndexBTreeV1
	if m.ChunkIndexAddr, err = br.ReadOffset(); err != nil {
		return err
	}
	m.ChunkDims = make([]uint32, ndims)
	for i := range m.ChunkDims {
		if m.ChunkDims[i], err = br.ReadUint32(); err != nil {
			return err
		}
	}
	return nil
}

func (m *DataLayout) parseChunkedV4(br *binary.Reader) error {
	var hdr [3]uint8
	for i := range hdr {
		v, err := br.ReadUint8()
		if err != nil {
			return err
		}
		hdr[i] = v
	}
	m.ChunkFlags, m.DimensionSizeBytes = hdr[0], hdr[2]
	m.ChunkDims = make([]uint32, hdr[1])
	for i := range m.ChunkDims {
		v, err := br.ReadUintN(int(m.DimensionSizeBytes))
		if err != nil {
			return err
		}
		m.ChunkDims[i] = uint32(v)
	}

	idx, err := br.ReadUint8()
	if err != nil {
		return err
	}
	m.ChunkIndexType = ChunkIndexType(idx)
	switch m.ChunkIndexType {
	case ChunkIndexSingleChunk:
		if m.ChunkFlags&ChunkSingleIndexWithFilter != 0 {
			if m.FilteredChunkSize, err = br.ReadLength(); err != nil {
				return err
			}
			if m.FilterMask, err = br.ReadUint32(); err != nil {
				return err
			}
		}
	case ChunkIndexImplicit:
	case ChunkIndexFixedArray:
		if m.PageBits, err = br.ReadUint8(); err != nil {
			return err
		}
	case ChunkIndexExtensibleArray:
		br.Skip(5)
	case ChunkIndexBTreeV2:
		br.Skip(6)
	default:
		return errors.Newf("unknown chunk index type %d", idx)
	}

	m.ChunkIndexAddr, err = br.ReadOffset()
	return err
}

// encode writes compact and contiguous layouts as version 3 and chunked
// layouts as version 4, the first version that can name an index other
// than a v1 B-tree.
func (m *DataLayout) encode(c binary.Config) ([]byte, error) {
	switch m.Class {
	case LayoutCompact:
		if len(m.CompactData) > 0xFFFF {
			return nil, errors.Newf("%d bytes of compact data exceed 64 KiB", len(m.CompactData))
		}
		b := c.AppendUint([]byte{3, uint8(LayoutCompact)}, uint64(len(m.CompactData)), 2)
		return append(b, m.CompactData...), nil

	case LayoutContiguous:
		b := c.AppendOffset([]byte{3, uint8(LayoutContiguous)}, m.Address)
		return c.AppendLength(b, m.Size), nil

	case LayoutChunked:
		width := m.DimensionSizeBytes
		if width == 0 {
			width = 4
		}
		b := []byte{4, uint8(LayoutChunked), m.ChunkFlags, uint8(len(m.ChunkDims)), width}
		for _, d := range m.ChunkDims {
			b = c.AppendUint(b, uint64(d), int(width))
		}
		b = append(b, uint8(m.ChunkIndexType))
		switch m.ChunkIndexType {
		case ChunkIndexSingleChunk:
			if m.ChunkFlags&ChunkSingleIndexWithFilter != 0 {
				b = c.AppendLength(b, m.FilteredChunkSize)
				b = c.AppendUint(b, uint64(m.FilterMask), 4)
			}
		case ChunkIndexImplicit:
		case ChunkIndexFixedArray:
			b = append(b, m.PageBits)
		default:
			return nil, errors.Newf("cannot write a layout with chunk index type %d", m.ChunkIndexType)
		}
		return c.AppendOffset(b, m.ChunkIndexAddr), nil
	}
	return nil, errors.Newf("cannot write layout class %s", m.Class)
}

// NewContiguousLayout returns a contiguous layout for size bytes at address.
func NewContiguousLayout(address, size uint64) *DataLayout {
	return &DataLayout{Version: 3, Class: LayoutContiguous, Address: address, Size: size}
}

// NewChunkedLayout returns a version 4 chunked layout for the given chunk
// shape. The element size is appended as the trailing chunk dimension. The
// caller fills in the index type and address once the chunks are stored.
func NewChunkedLayout(chunkDims []uint32, elementSize uint32) *DataLayout {
	all := append(append([]uint32{}, chunkDims...), elementSize)
	var width uint8 = 1
	for _, d := range all {
		switch {
		case d > 0xFFFFFF:
			width = max(width, 4)
		case d > 0xFFFF:
			width = max(width, 3)
		case d > 0xFF:
			width = max(width, 2)
		}
	}
	return &DataLayout{
		Version:            4,
		Class:              LayoutChunked,
		ChunkDims:          all,
		DimensionSizeBytes: width,
	}
}
