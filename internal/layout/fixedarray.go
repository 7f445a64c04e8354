package layout

import (
	"math/bits"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-fast5/internal/binary"
	"github.com/robert-malhotra/go-fast5/internal/btree"
)

// Fixed array client IDs.
const (
	faPlain    uint8 = 0
	faFiltered uint8 = 1
)

const defaultPageBits = 10

// faHeader is the decoded "FAHD" block.
type faHeader struct {
	client    uint8
	entrySize int
	pageBits  uint8
	entries   uint64
	dataBlock uint64
}

func readFixedArray(r *binary.Reader, addr uint64, g []uint64, chunk []uint32, full uint64) ([]btree.Chunk, error) {
	hr := r.At(int64(addr))
	fixed, err := hr.ReadBytes(8)
	if err != nil {
		return nil, errors.Wrap(err, "reading fixed array header")
	}
	if string(fixed[:4]) != "FAHD" {
		return nil, errors.Newf("invalid fixed array header signature %q", fixed[:4])
	}
	if fixed[4] != 0 {
		return nil, errors.Newf("unsupported fixed array version %d", fixed[4])
	}
	h := faHeader{client: fixed[5], entrySize: int(fixed[6]), pageBits: fixed[7]}
	if h.entries, err = hr.ReadLength(); err != nil {
		return nil, err
	}
	if h.dataBlock, err = hr.ReadOffset(); err != nil {
		return nil, err
	}
	if err := verifyChecksum(r, addr, hr.Pos()); err != nil {
		return nil, errors.Wrap(err, "fixed array header")
	}
	if h.entries > product(g) {
		return nil, errors.Newf("fixed array holds %d entries for %d chunks", h.entries, product(g))
	}

	br := r.At(int64(h.dataBlock))
	prefix, err := br.ReadBytes(6)
	if err != nil {
		return nil, errors.Wrap(err, "reading fixed array data block")
	}
	if string(prefix[:4]) != "FADB" {
		return nil, errors.Newf("invalid fixed array data block signature %q", prefix[:4])
	}
	br.Skip(int64(br.OffsetSize()))

	perPage := uint64(1) << h.pageBits
	paged := h.entries > perPage
	if paged {
		pages := (h.entries + perPage - 1) / perPage
		br.Skip(int64((pages+7)/8) + 4)
	}

	sizeLen := h.entrySize - br.OffsetSize() - 4
	var out []btree.Chunk
	for i := uint64(0); i < h.entries; i++ {
		if paged && i > 0 && i%perPage == 0 {
			br.Skip(4)
		}
		c := btree.Chunk{Size: uint32(full)}
		if c.Address, err = br.ReadOffset(); err != nil {
			return nil, errors.Wrapf(err, "fixed array entry %d", i)
		}
		if h.client == faFiltered {
			size, err := br.ReadUintN(sizeLen)
			if err != nil {
				return nil, errors.Wrapf(err, "fixed array entry %d", i)
			}
			c.Size = uint32(size)
			if c.FilterMask, err = br.ReadUint32(); err != nil {
				return nil, errors.Wrapf(err, "fixed array entry %d", i)
			}
		}
		if c.Address == 0 || br.IsUndefinedOffset(c.Address) {
			continue
		}
		c.Offset = origin(i, g, chunk)
		out = append(out, c)
	}
	if !paged {
		if err := verifyChecksum(r, h.dataBlock, br.Pos()); err != nil {
			return nil, errors.Wrap(err, "fixed array data block")
		}
	}
	return out, nil
}

// verifyChecksum checks the lookup3 checksum stored at end against the
// bytes in [start, end).
func verifyChecksum(r *binary.Reader, start uint64, end int64) error {
	cr := r.At(int64(start))
	body, err := cr.ReadBytes(int(end - int64(start)))
	if err != nil {
		return err
	}
	stored, err := cr.ReadUint32()
	if err != nil {
		return err
	}
	if sum := binary.Lookup3Checksum(body); sum != stored {
		return errors.Newf("checksum mismatch: stored %08x, computed %08x", stored, sum)
	}
	return nil
}

// filteredSizeLen is the width of the stored chunk size in a filtered
// fixed array entry. It depends only on the unfiltered chunk size.
func filteredSizeLen(full uint64) int {
	n := 1 + (bits.Len64(full)-1+8)/8
	return min(n, 8)
}

// pageBitsFor picks a page size large enough that n entries fit on one
// page, so the data block is never paged.
func pageBitsFor(n int) uint8 {
	return uint8(max(defaultPageBits, bits.Len64(uint64(n-1))))
}

// faEntry is one chunk to be recorded in a fixed array.
type faEntry struct {
	addr uint64
	size uint64
}

// writeFixedArray stores the index for entries and returns the header
// address and page bits.
func writeFixedArray(w *binary.Writer, alloc func(int64) uint64, entries []faEntry, filtered bool, full uint64) (uint64, uint8, error) {
	c := w.Config()
	os, ls := c.OffsetSize, c.LengthSize
	client, entrySize, sizeLen := faPlain, os, 0
	if filtered {
		sizeLen = filteredSizeLen(full)
		client, entrySize = faFiltered, os+sizeLen+4
	}
	pageBits := pageBitsFor(len(entries))

	headerAddr := alloc(int64(8 + ls + os + 4))
	blockAddr := alloc(int64(6 + os + len(entries)*entrySize + 4))

	block := append([]byte("FADB"), 0, client)
	block = c.AppendOffset(block, headerAddr)
	for _, e := range entries {
		block = c.AppendOffset(block, e.addr)
		if filtered {
			block = c.AppendUint(block, e.size, sizeLen)
			block = c.AppendUint(block, 0, 4)
		}
	}
	block = c.AppendUint(block, uint64(binary.Lookup3Checksum(block)), 4)
	if err := w.At(int64(blockAddr)).WriteBytes(block); err != nil {
		return 0, 0, errors.Wrap(err, "writing fixed array data block")
	}

	header := append([]byte("FAHD"), 0, client, uint8(entrySize), pageBits)
	header = c.AppendLength(header, uint64(len(entries)))
	header = c.AppendOffset(header, blockAddr)
	header = c.AppendUint(header, uint64(binary.Lookup3Checksum(header)), 4)
	if err := w.At(int64(headerAddr)).WriteBytes(header); err != nil {
		return 0, 0, errors.Wrap(err, "writing fixed array header")
	}
	return headerAddr, pageBits, nil
}
