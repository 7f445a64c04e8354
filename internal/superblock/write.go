package superblock

import (
	binpkg "github.com/robert-malhotra/go-fast5/internal/binary"
)

// NewSuperblock returns a version 3 superblock with 8-byte offsets and
// lengths and no extension.
func NewSuperblock() *Superblock {
	return &Superblock{
		Version:                    3,
		OffsetSize:                 8,
		LengthSize:                 8,
		SuperblockExtensionAddress: ^uint64(0),
	}
}

// Size returns the encoded size of a version 2 or 3 superblock.
func (sb *Superblock) Size() int {
	o := int(sb.OffsetSize)
	if o == 0 {
		o = 8
	}
	return len(Signature) + 4 + 4*o + 4
}

// Encode lays out the superblock as version 3 in c's offset width.
func (sb *Superblock) Encode(c binpkg.Config) []byte {
	ext := sb.SuperblockExtensionAddress
	if ext == 0 || ext == ^uint64(0) {
		ext = c.Undefined()
	}
	b := append([]byte(nil), Signature...)
	b = append(b, 3, uint8(c.OffsetSize), uint8(c.LengthSize), sb.FileConsistencyFlags)
	for _, addr := range []uint64{sb.BaseAddress, ext, sb.EOFAddress, sb.RootGroupAddress} {
		b = c.AppendOffset(b, addr)
	}
	return c.AppendUint(b, uint64(binpkg.Lookup3Checksum(b)), 4)
}

// Write encodes the superblock at w's position and returns its size.
func (sb *Superblock) Write(w *binpkg.Writer) (int64, error) {
	b := sb.Encode(w.Config())
	if err := w.WriteBytes(b); err != nil {
		return 0, err
	}
	return int64(len(b)), nil
}
