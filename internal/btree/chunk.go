package btree

import (
	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-fast5/internal/binary"
)

// Chunk locates one stored chunk of a dataset.
type Chunk struct {
	// Offset is the chunk origin in dataset element coordinates.
	Offset []uint64

	// FilterMask has bit i set when filter i was not applied.
	FilterMask uint32

	// Size is the stored (possibly compressed) size in bytes.
	Size uint32

	Address uint64
}

// ReadChunks returns every chunk indexed by the tree rooted at addr, in key
// order. rank is the dataset rank; keys carry one extra coordinate that is
// always zero and is dropped.
func ReadChunks(r *binary.Reader, addr uint64, rank int) ([]Chunk, error) {
	var out []Chunk
	if err := walkChunks(r, addr, rank, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func walkChunks(r *binary.Reader, addr uint64, rank int, out *[]Chunk) error {
	n, nr, err := readNode(r, addr, nodeChunk)
	if err != nil {
		return err
	}
	for i := 0; i < int(n.entries); i++ {
		key, err := readChunkKey(nr, rank)
		if err != nil {
			return errors.Wrapf(err, "chunk key %d", i)
		}
		child, err := nr.ReadOffset()
		if err != nil {
			return err
		}
		if n.level > 0 {
			if err := walkChunks(r, child, rank, out); err != nil {
				return err
			}
			continue
		}
		if nr.IsUndefinedOffset(child) || key.Size == 0 {
			continue
		}
		key.Address = child
		*out = append(*out, key)
	}
	return nil
}

func readChunkKey(nr *binary.Reader, rank int) (Chunk, error) {
	var c Chunk
	var err error
	if c.Size, err = nr.ReadUint32(); err != nil {
		return c, err
	}
	if c.FilterMask, err = nr.ReadUint32(); err != nil {
		return c, err
	}
	c.Offset = make([]uint64, rank)
	for d := range c.Offset {
		if c.Offset[d], err = nr.ReadUint64(); err != nil {
			return c, err
		}
	}
	nr.Skip(8)
	return c, nil
}
