// Package binary reads and writes the fixed-width integers, file offsets
// and lengths that make up HDF5 metadata. Offsets and lengths are 2, 4 or 8
// bytes wide as declared by the superblock.
package binary

import (
	"encoding/binary"
)

// Config describes the encoding of a file's metadata.
type Config struct {
	ByteOrder  binary.ByteOrder
	OffsetSize int
	LengthSize int
}

// DefaultConfig is the little-endian, 8-byte encoding written by every
// current HDF5 producer.
func DefaultConfig() Config {
	return Config{ByteOrder: binary.LittleEndian, OffsetSize: 8, LengthSize: 8}
}

// Undefined returns the all-ones address meaning "not allocated".
func (c Config) Undefined() uint64 {
	if c.OffsetSize >= 8 {
		return ^uint64(0)
	}
	return 1<<(8*c.OffsetSize) - 1
}

// AppendUint appends the low size bytes of v in the configured byte order.
func (c Config) AppendUint(b []byte, v uint64, size int) []byte {
	for i := 0; i < size; i++ {
		shift := 8 * i
		if c.ByteOrder == binary.BigEndian {
			shift = 8 * (size - 1 - i)
		}
		b = append(b, byte(v>>shift))
	}
	return b
}

// AppendOffset appends a file address.
func (c Config) AppendOffset(b []byte, v uint64) []byte {
	return c.AppendUint(b, v, c.OffsetSize)
}

// AppendLength appends a length.
func (c Config) AppendLength(b []byte, v uint64) []byte {
	return c.AppendUint(b, v, c.LengthSize)
}

// Uint decodes a size-byte unsigned integer from the start of b.
func (c Config) Uint(b []byte, size int) uint64 {
	var v uint64
	for i := 0; i < size; i++ {
		if c.ByteOrder == binary.BigEndian {
			v = v<<8 | uint64(b[i])
		} else {
			v |= uint64(b[i]) << (8 * i)
		}
	}
	return v
}
