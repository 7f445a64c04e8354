package message

import (
	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-fast5/internal/binary"
)

// Registered filter IDs.
const (
	FilterDeflate     uint16 = 1
	FilterShuffle     uint16 = 2
	FilterFletcher32  uint16 = 3
	FilterSZIP        uint16 = 4
	FilterNBit        uint16 = 5
	FilterScaleOffset uint16 = 6
)

// FilterInfo describes one stage of a filter pipeline.
type FilterInfo struct {
	ID         uint16
	Flags      uint16 // bit 0: optional
	Name       string
	ClientData []uint32
}

// IsOptional reports whether a chunk may skip this filter when it fails.
func (f *FilterInfo) IsOptional() bool {
	return f.Flags&0x01 != 0
}

// FilterPipeline represents a filter pipeline message (type 0x000B).
type FilterPipeline struct {
	Version uint8
	Filters []FilterInfo
}

func (m *FilterPipeline) Type() Type { return TypeFilterPipeline }

func parseFilterPipeline(br *binary.Reader) (*FilterPipeline, error) {
	hdr, err := br.ReadBytes(2)
	if err != nil {
		return nil, errors.Wrap(err, "filter pipeline message too short")
	}
	fp := &FilterPipeline{Version: hdr[0], Filters: make([]FilterInfo, hdr[1])}
	switch fp.Version {
	case 1:
		br.Skip(6)
	case 2:
	default:
		return nil, errors.Newf("unsupported filter pipeline version %d", fp.Version)
	}
	for i := range fp.Filters {
		if fp.Filters[i], err = parseFilterInfo(br, fp.Version); err != nil {
			return nil, errors.Wrapf(err, "filter %d", i)
		}
	}
	return fp, nil
}

// parseFilterInfo reads one filter description. Version 1 always carries
// a name length and pads the name and odd client data counts to 8 bytes;
// version 2 drops the name of registered filters.
func parseFilterInfo(br *binary.Reader, version uint8) (FilterInfo, error) {
	var f FilterInfo
	var err error
	if f.ID, err = br.ReadUint16(); err != nil {
		return f, err
	}
	var nameLen uint16
	if version == 1 || f.ID >= 256 {
		if nameLen, err = br.ReadUint16(); err != nil {
			return f, err
		}
	}
	if f.Flags, err = br.ReadUint16(); err != nil {
		return f, err
	}
	numCD, err := br.ReadUint16()
	if err != nil {
		return f, err
	}

	if nameLen > 0 {
		name, err := br.ReadBytes(int(nameLen))
		if err != nil {
			return f, errors.Wrap(err, "filter name truncated")
		}
		f.Name = cstring(name)
		if version == 1 {
			br.Skip(int64(-nameLen & 7))
		}
	}

	f.ClientData = make([]uint32, numCD)
	for i := range f.ClientData {
		if f.ClientData[i], err = br.ReadUint32(); err != nil {
			return f, errors.Wrap(err, "filter client data truncated")
		}
	}
	if version == 1 && numCD%2 != 0 {
		br.Skip(4)
	}
	return f, nil
}

// encode writes a version 2 pipeline.
func (m *FilterPipeline) encode(c binary.Config) ([]byte, error) {
	if len(m.Filters) > 32 {
		return nil, errors.Newf("%d filters exceed the pipeline limit of 32", len(m.Filters))
	}
	b := []byte{2, uint8(len(m.Filters))}
	for _, f := range m.Filters {
		b = c.AppendUint(b, uint64(f.ID), 2)
		var name []byte
		if f.ID >= 256 {
			if f.Name != "" {
				name = append([]byte(f.Name), 0)
			}
			b = c.AppendUint(b, uint64(len(name)), 2)
		}
		b = c.AppendUint(b, uint64(f.Flags), 2)
		b = c.AppendUint(b, uint64(len(f.ClientData)), 2)
		b = append(b, name...)
		for _, cd := range f.ClientData {
			b = c.AppendUint(b, uint64(cd), 4)
		}
	}
	return b, nil
}
