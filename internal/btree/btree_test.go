package btree

import (
	"bytes"
	stdbinary "encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-fast5/internal/binary"
	"github.com/robert-malhotra/go-fast5/internal/heap"
)

const undefined = ^uint64(0)

// image assembles file bytes with 8-byte offsets and lengths.
type image struct{ b []byte }

func (im *image) here() uint64 { return uint64(len(im.b)) }
func (im *image) str(s string) { im.b = append(im.b, s...) }
func (im *image) u8(v uint8)   { im.b = append(im.b, v) }
func (im *image) u16(v uint16) { im.b = stdbinary.LittleEndian.AppendUint16(im.b, v) }
func (im *image) u32(v uint32) { im.b = stdbinary.LittleEndian.AppendUint32(im.b, v) }
func (im *image) u64(v uint64) { im.b = stdbinary.LittleEndian.AppendUint64(im.b, v) }
func (im *image) zeros(n int)  { im.b = append(im.b, make([]byte, n)...) }
func (im *image) reader() *binary.Reader {
	return binary.NewReader(bytes.NewReader(im.b), binary.Config{
		ByteOrder:  stdbinary.LittleEndian,
		OffsetSize: 8,
		LengthSize: 8,
	})
}

func (im *image) nodeHeader(typ, level uint8, entries uint16) {
	im.str("TREE")
	im.u8(typ)
	im.u8(level)
	im.u16(entries)
	im.u64(undefined)
	im.u64(undefined)
}

func (im *image) chunkKey(size, mask uint32, offset ...uint64) {
	im.u32(size)
	im.u32(mask)
	for _, o := range offset {
		im.u64(o)
	}
	im.u64(0)
}

type leafChunk struct {
	offset uint64
	size   uint32
	addr   uint64
}

func (im *image) chunkLeaf(chunks ...leafChunk) uint64 {
	at := im.here()
	im.nodeHeader(nodeChunk, 0, uint16(len(chunks)))
	for _, c := range chunks {
		im.chunkKey(c.size, 0, c.offset)
		im.u64(c.addr)
	}
	im.chunkKey(0, 0, 1<<20)
	return at
}

func TestReadChunksLeaf(t *testing.T) {
	var im image
	im.zeros(16)
	root := im.chunkLeaf(
		leafChunk{offset: 0, size: 100, addr: 4096},
		leafChunk{offset: 50, size: 90, addr: 4196},
		leafChunk{offset: 100, size: 0, addr: 9999},
		leafChunk{offset: 150, size: 30, addr: undefined},
	)

	chunks, err := ReadChunks(im.reader(), root, 1)
	require.NoError(t, err)
	assert.Equal(t, []Chunk{
		{Offset: []uint64{0}, Size: 100, Address: 4096},
		{Offset: []uint64{50}, Size: 90, Address: 4196},
	}, chunks)
}

func TestReadChunksTwoLevels(t *testing.T) {
	var im image
	left := im.chunkLeaf(leafChunk{0, 10, 1000}, leafChunk{8, 10, 1010})
	right := im.chunkLeaf(leafChunk{16, 6, 1020})

	root := im.here()
	im.nodeHeader(nodeChunk, 1, 2)
	im.chunkKey(10, 0, 0)
	im.u64(left)
	im.chunkKey(10, 0, 16)
	im.u64(right)
	im.chunkKey(0, 0, 24)

	chunks, err := ReadChunks(im.reader(), root, 1)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, want := range []uint64{1000, 1010, 1020} {
		assert.Equal(t, want, chunks[i].Address)
	}
	assert.Equal(t, []uint64{16}, chunks[2].Offset)
}

func TestReadChunksFilterMaskAndRank(t *testing.T) {
	var im image
	root := im.here()
	im.nodeHeader(nodeChunk, 0, 1)
	im.chunkKey(77, 0x2, 4, 8)
	im.u64(512)
	im.chunkKey(0, 0, 8, 8)

	chunks, err := ReadChunks(im.reader(), root, 2)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, Chunk{Offset: []uint64{4, 8}, FilterMask: 0x2, Size: 77, Address: 512}, chunks[0])
}

func TestReadNodeErrors(t *testing.T) {
	var bad image
	bad.str("XXXX")
	bad.zeros(32)
	_, err := ReadChunks(bad.reader(), 0, 1)
	assert.ErrorContains(t, err, "invalid B-tree signature")

	var group image
	group.nodeHeader(nodeGroup, 0, 0)
	_, err = ReadChunks(group.reader(), 0, 1)
	assert.ErrorContains(t, err, "has type 0, want 1")

	var short image
	short.str("TR")
	_, err = ReadChunks(short.reader(), 0, 1)
	assert.Error(t, err)
}

// localHeap writes a local heap holding names and returns its address and
// the offset of each name.
func (im *image) localHeap(names ...string) (uint64, []uint64) {
	var data []byte
	data = append(data, 0)
	offsets := make([]uint64, len(names))
	for i, n := range names {
		offsets[i] = uint64(len(data))
		data = append(data, n...)
		data = append(data, 0)
	}
	at := im.here()
	im.str("HEAP")
	im.u8(0)
	im.zeros(3)
	im.u64(uint64(len(data)))
	im.u64(undefined)
	im.u64(at + 32)
	im.b = append(im.b, data...)
	return at, offsets
}

type symbol struct {
	name, target uint64
	addr         uint64
	soft         bool
}

func (im *image) symbolNode(symbols ...symbol) uint64 {
	at := im.here()
	im.str("SNOD")
	im.u8(1)
	im.u8(0)
	im.u16(uint16(len(symbols)))
	for _, s := range symbols {
		im.u64(s.name)
		im.u64(s.addr)
		scratch := make([]byte, 16)
		if s.soft {
			im.u32(cacheSoftLink)
			stdbinary.LittleEndian.PutUint32(scratch, uint32(s.target))
		} else {
			im.u32(0)
		}
		im.zeros(4)
		im.b = append(im.b, scratch...)
	}
	return at
}

func TestReadGroupEntries(t *testing.T) {
	var im image
	heapAddr, off := im.localHeap("Raw", "UniqueGlobalKey", "alias", "/Raw/Reads")
	first := im.symbolNode(
		symbol{name: off[0], addr: 800},
		symbol{name: off[1], addr: 900},
	)
	second := im.symbolNode(symbol{name: off[2], target: off[3], addr: 123, soft: true})

	root := im.here()
	im.nodeHeader(nodeGroup, 0, 2)
	im.u64(0)
	im.u64(first)
	im.u64(off[1])
	im.u64(second)
	im.u64(off[2])

	r := im.reader()
	names, err := heap.ReadLocalHeap(r, heapAddr)
	require.NoError(t, err)

	entries, err := ReadGroupEntries(r, root, names)
	require.NoError(t, err)
	assert.Equal(t, []GroupEntry{
		{Name: "Raw", Address: 800},
		{Name: "UniqueGlobalKey", Address: 900},
		{Name: "alias", SoftLink: "/Raw/Reads"},
	}, entries)
}

func TestReadGroupEntriesBadSymbolNode(t *testing.T) {
	var im image
	heapAddr, _ := im.localHeap("x")
	snod := im.here()
	im.str("SNOD")
	im.u8(2)
	im.zeros(3)

	root := im.here()
	im.nodeHeader(nodeGroup, 0, 1)
	im.u64(0)
	im.u64(snod)
	im.u64(0)

	r := im.reader()
	names, err := heap.ReadLocalHeap(r, heapAddr)
	require.NoError(t, err)
	_, err = ReadGroupEntries(r, root, names)
	assert.ErrorContains(t, err, "unsupported symbol table node version 2")
}
