package alloc

import (
	"sort"

	"github.com/cockroachdb/errors"
)

// Allocator hands out file space for a container being written. Space is
// only ever appended at the end of file; nothing is reused. An Allocator
// belongs to one file and is not safe for concurrent use.
type Allocator struct {
	base   uint64
	eof    uint64
	blocks []Block
	stats  Stats
}

// Block is one allocated extent.
type Block struct {
	Addr uint64
	Size uint64
}

// Stats summarises the allocations made so far.
type Stats struct {
	TotalAllocations uint64
	TotalBytesAlloc  uint64
	LargestAlloc     uint64
}

// New returns an allocator whose first block starts at base, the first
// address past the superblock.
func New(base uint64) *Allocator {
	return &Allocator{base: base, eof: base}
}

// Alloc reserves size bytes at the end of file and returns their address.
// A zero size returns the current end of file without reserving anything.
func (a *Allocator) Alloc(size uint64) uint64 {
	addr := a.eof
	if size == 0 {
		return addr
	}
	a.eof += size
	a.blocks = append(a.blocks, Block{Addr: addr, Size: size})

	a.stats.TotalAllocations++
	a.stats.TotalBytesAlloc += size
	a.stats.LargestAlloc = max(a.stats.LargestAlloc, size)
	return addr
}

// EOFAddr returns the address one past the last allocated byte.
func (a *Allocator) EOFAddr() uint64 {
	return a.eof
}

func (a *Allocator) Stats() Stats {
	return a.stats
}

// Validate checks that every block lies in [base, eof) and that no two
// blocks overlap.
func (a *Allocator) Validate() error {
	blocks := make([]Block, len(a.blocks))
	copy(blocks, a.blocks)
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Addr < blocks[j].Addr })

	next := a.base
	for _, b := range blocks {
		if b.Addr < next {
			return errors.Newf("block at 0x%x (size %d) overlaps space below 0x%x", b.Addr, b.Size, next)
		}
		next = b.Addr + b.Size
	}
	if next > a.eof {
		return errors.Newf("block ends at 0x%x, past end of file 0x%x", next, a.eof)
	}
	return nil
}
