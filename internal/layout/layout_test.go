package layout

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-fast5/internal/binary"
	"github.com/robert-malhotra/go-fast5/internal/filter"
	"github.com/robert-malhotra/go-fast5/internal/message"
)

// memFile is an in-memory file with a bump allocator.
type memFile struct {
	b    []byte
	next int64
}

func newMemFile() *memFile { return &memFile{next: 64} }

func (m *memFile) WriteAt(p []byte, off int64) (int, error) {
	if end := int(off) + len(p); end > len(m.b) {
		m.b = append(m.b, make([]byte, end-len(m.b))...)
	}
	return copy(m.b[off:], p), nil
}

func (m *memFile) ReadAt(p []byte, off int64) (int, error) {
	return bytes.NewReader(m.b).ReadAt(p, off)
}

func (m *memFile) alloc(size int64) uint64 {
	addr := m.next
	m.next += size
	return uint64(addr)
}

func int16Signal(n int) []byte {
	b := make([]byte, 2*n)
	for i := 0; i < n; i++ {
		v := uint16(400 + i%97*3)
		b[2*i], b[2*i+1] = byte(v), byte(v>>8)
	}
	return b
}

func i16() *message.Datatype { return message.NewFixedPointDatatype(2, true, message.OrderLE) }

func TestCompact(t *testing.T) {
	msg := &message.DataLayout{Class: message.LayoutCompact, CompactData: []byte{1, 2, 3}}
	l, err := New(msg, message.NewDataspace([]uint64{3}, nil), message.NewFixedPointDatatype(1, false, message.OrderLE), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, message.LayoutCompact, l.Class())
	data, err := l.Read()
	require.NoError(t, err)
	data[0] = 9
	again, _ := l.Read()
	assert.Equal(t, []byte{1, 2, 3}, again)
}

func TestContiguous(t *testing.T) {
	f := newMemFile()
	want := int16Signal(50)
	_, _ = f.WriteAt(want, 128)
	r := binary.NewReader(f, binary.DefaultConfig())
	space := message.NewDataspace([]uint64{50}, nil)

	l, err := New(message.NewContiguousLayout(128, 0), space, i16(), nil, r)
	require.NoError(t, err)
	got, err := l.Read()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	l, _ = New(message.NewContiguousLayout(^uint64(0), 100), space, i16(), nil, r)
	_, err = l.Read()
	assert.ErrorContains(t, err, "never allocated")

	l, _ = New(message.NewContiguousLayout(128, 0), message.NewDataspace([]uint64{0}, nil), i16(), nil, r)
	got, err = l.Read()
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = New(nil, space, i16(), nil, r)
	assert.Error(t, err)
}

func TestSplitPadsEdgeChunks(t *testing.T) {
	data := make([]byte, 15)
	for i := range data {
		data[i] = byte(i + 1)
	}
	chunks := Split(data, []uint64{3, 5}, []uint32{2, 2}, 1)
	require.Len(t, chunks, 6)
	assert.Equal(t, []byte{1, 2, 6, 7}, chunks[0])
	assert.Equal(t, []byte{5, 0, 10, 0}, chunks[2])
	assert.Equal(t, []byte{11, 12, 0, 0}, chunks[3])
	assert.Equal(t, []byte{15, 0, 0, 0}, chunks[5])
}

func TestGeometry(t *testing.T) {
	g := grid([]uint64{10, 7}, []uint32{4, 3})
	assert.Equal(t, []uint64{3, 3}, g)
	assert.EqualValues(t, 9, product(g))
	assert.Equal(t, []uint64{4, 6}, origin(5, g, []uint32{4, 3}))
	assert.EqualValues(t, 24, chunkBytes([]uint32{4, 3}, 2))
}

func TestFilteredSizeLen(t *testing.T) {
	assert.Equal(t, 2, filteredSizeLen(8))
	assert.Equal(t, 3, filteredSizeLen(512))
	assert.Equal(t, 4, filteredSizeLen(1<<20))
	assert.Equal(t, 8, filteredSizeLen(1<<62))
	assert.EqualValues(t, 10, pageBitsFor(1))
	assert.EqualValues(t, 11, pageBitsFor(2000))
}

func roundTrip(t *testing.T, data []byte, dims []uint64, chunk []uint32, p *filter.Pipeline) *message.DataLayout {
	t.Helper()
	f := newMemFile()
	c := binary.DefaultConfig()
	msg, err := NewChunkWriter(binary.NewWriter(f, c), f.alloc, chunk, 2, p).Write(data, dims)
	require.NoError(t, err)

	var fp *message.FilterPipeline
	if p != nil {
		fp = p.Message()
	}
	l, err := New(msg, message.NewDataspace(dims, nil), i16(), fp, binary.NewReader(f, c))
	require.NoError(t, err)
	assert.Equal(t, message.LayoutChunked, l.Class())
	got, err := l.Read()
	require.NoError(t, err)
	assert.Equal(t, data, got)
	return msg
}

func TestChunkWriterFilteredFixedArray(t *testing.T) {
	p := filter.Of(filter.NewShuffle([]uint32{2}), filter.NewDeflate([]uint32{4}))
	msg := roundTrip(t, int16Signal(1000), []uint64{1000}, []uint32{256}, p)
	assert.Equal(t, message.ChunkIndexFixedArray, msg.ChunkIndexType)
	assert.EqualValues(t, 10, msg.PageBits)
	assert.Equal(t, []uint32{256, 2}, msg.ChunkDims)
}

func TestChunkWriterUnfiltered(t *testing.T) {
	msg := roundTrip(t, int16Signal(10), []uint64{10}, []uint32{16}, nil)
	assert.Equal(t, message.ChunkIndexSingleChunk, msg.ChunkIndexType)

	msg = roundTrip(t, int16Signal(2000), []uint64{2000}, []uint32{1}, nil)
	assert.Equal(t, message.ChunkIndexFixedArray, msg.ChunkIndexType)
	assert.EqualValues(t, 11, msg.PageBits)
}

func TestChunkWriterSingleFilteredChunk(t *testing.T) {
	p := filter.Of(filter.NewZstd(nil))
	msg := roundTrip(t, int16Signal(100), []uint64{100}, []uint32{128}, p)
	assert.Equal(t, message.ChunkIndexFixedArray, msg.ChunkIndexType)
}

func TestChunkWriterEmpty(t *testing.T) {
	f := newMemFile()
	msg, err := NewChunkWriter(binary.NewWriter(f, binary.DefaultConfig()), f.alloc, []uint32{64}, 2, nil).Write(nil, []uint64{0})
	require.NoError(t, err)
	assert.Equal(t, message.ChunkIndexSingleChunk, msg.ChunkIndexType)
	assert.Equal(t, ^uint64(0), msg.ChunkIndexAddr)

	l, err := New(msg, message.NewDataspace([]uint64{0}, nil), i16(), nil, binary.NewReader(f, binary.DefaultConfig()))
	require.NoError(t, err)
	got, err := l.Read()
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = NewChunkWriter(nil, f.alloc, []uint32{64}, 2, nil).Write(nil, []uint64{1, 1})
	assert.ErrorContains(t, err, "does not match")
}

func TestImplicitIndex(t *testing.T) {
	f := newMemFile()
	data := int16Signal(12)
	_, _ = f.WriteAt(data, 256)
	_, _ = f.WriteAt(make([]byte, 4), 256+24) // pad the last chunk

	msg := message.NewChunkedLayout([]uint32{4}, 2)
	msg.ChunkIndexType = message.ChunkIndexImplicit
	msg.ChunkIndexAddr = 256
	l, err := New(msg, message.NewDataspace([]uint64{12}, nil), i16(), nil, binary.NewReader(f, binary.DefaultConfig()))
	require.NoError(t, err)
	got, err := l.Read()
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestFixedArrayCorruption(t *testing.T) {
	f := newMemFile()
	c := binary.DefaultConfig()
	msg, err := NewChunkWriter(binary.NewWriter(f, c), f.alloc, []uint32{4}, 2, filter.Of(filter.NewDeflate(nil))).Write(int16Signal(16), []uint64{16})
	require.NoError(t, err)
	f.b[msg.ChunkIndexAddr+7] ^= 0xff

	l, err := New(msg, message.NewDataspace([]uint64{16}, nil), i16(), nil, binary.NewReader(f, c))
	require.NoError(t, err)
	_, err = l.Read()
	assert.ErrorContains(t, err, "checksum mismatch")
}

func TestChunkedRejectsZeroChunk(t *testing.T) {
	msg := message.NewChunkedLayout([]uint32{0}, 2)
	_, err := New(msg, message.NewDataspace([]uint64{4}, nil), i16(), nil, nil)
	assert.ErrorContains(t, err, "zero")
}
