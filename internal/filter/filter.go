package filter

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-fast5/internal/message"
)

// Registered third-party filter identifiers seen in nanopore containers.
const (
	FilterLZ4  uint16 = 32004
	FilterZstd uint16 = 32015
	FilterVBZ  uint16 = 32020
)

// Filter is the interface implemented by all HDF5 filters.
type Filter interface {
	// ID returns the filter identifier.
	ID() uint16

	// Decode transforms encoded data to decoded form.
	Decode(input []byte) ([]byte, error)

	// Encode is the inverse of Decode, used when writing chunks.
	Encode(input []byte) ([]byte, error)

	// Info describes the filter as a pipeline message entry.
	Info() message.FilterInfo
}

// Registry maps filter IDs to filter constructors.
var Registry = map[uint16]func([]uint32) Filter{
	message.FilterDeflate:    func(cd []uint32) Filter { return NewDeflate(cd) },
	message.FilterShuffle:    func(cd []uint32) Filter { return NewShuffle(cd) },
	message.FilterFletcher32: func(cd []uint32) Filter { return NewFletcher32(cd) },
	FilterLZ4:                func(cd []uint32) Filter { return NewLZ4(cd) },
	FilterZstd:               func(cd []uint32) Filter { return NewZstd(cd) },
}

// filterNames maps known filter IDs to their names for better error messages.
var filterNames = map[uint16]string{
	message.FilterDeflate:     "deflate",
	message.FilterShuffle:     "shuffle",
	message.FilterFletcher32:  "fletcher32",
	message.FilterSZIP:        "szip",
	message.FilterNBit:        "nbit",
	message.FilterScaleOffset: "scaleoffset",
	FilterLZ4:                 "lz4",
	FilterZstd:                "zstd",
	FilterVBZ:                 "vbz",
}

// Name returns a short name for a filter ID, or "filter-<id>" when the ID
// is not known.
func Name(id uint16) string {
	if name, ok := filterNames[id]; ok {
		return name
	}
	return fmt.Sprintf("filter-%d", id)
}

// Supported reports whether chunks encoded with the filter can be decoded.
func Supported(id uint16) bool {
	_, ok := Registry[id]
	return ok
}

// New creates a filter from a FilterInfo.
func New(info message.FilterInfo) (Filter, error) {
	constructor, ok := Registry[info.ID]
	if !ok {
		if info.IsOptional() {
			return nil, nil // Optional filter not available
		}
		if name, known := filterNames[info.ID]; known {
			return nil, errors.Newf("%s filter (ID %d) is not supported; this dataset cannot be read", name, info.ID)
		}
		return nil, errors.Newf("unsupported filter ID: %d", info.ID)
	}
	return constructor(info.ClientData), nil
}
