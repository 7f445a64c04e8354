package layout

import (
	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-fast5/internal/binary"
	"github.com/robert-malhotra/go-fast5/internal/filter"
	"github.com/robert-malhotra/go-fast5/internal/message"
)

// ChunkWriter stores the chunks of one dataset and the index that locates
// them.
type ChunkWriter struct {
	w        *binary.Writer
	alloc    func(size int64) uint64
	chunk    []uint32
	elemSize uint32
	pipeline *filter.Pipeline
}

// NewChunkWriter returns a writer for chunks of the given shape. A nil
// pipeline stores chunks unfiltered.
func NewChunkWriter(w *binary.Writer, alloc func(size int64) uint64, chunk []uint32, elemSize uint32, pipeline *filter.Pipeline) *ChunkWriter {
	if pipeline == nil {
		pipeline = filter.Of()
	}
	return &ChunkWriter{w: w, alloc: alloc, chunk: chunk, elemSize: elemSize, pipeline: pipeline}
}

// Write splits data, a row-major array of shape dims, into chunks, stores
// them and returns the layout message. Edge chunks are padded with zeros
// to the full chunk size.
func (cw *ChunkWriter) Write(data []byte, dims []uint64) (*message.DataLayout, error) {
	if len(cw.chunk) == 0 || len(dims) != len(cw.chunk) {
		return nil, errors.Newf("chunk rank %d does not match data rank %d", len(cw.chunk), len(dims))
	}
	msg := message.NewChunkedLayout(cw.chunk, cw.elemSize)
	chunks := Split(data, dims, cw.chunk, uint64(cw.elemSize))
	filtered := !cw.pipeline.Empty()

	if len(chunks) == 0 {
		msg.ChunkIndexType = message.ChunkIndexSingleChunk
		msg.ChunkIndexAddr = cw.w.UndefinedOffset()
		return msg, nil
	}
	if len(chunks) == 1 && !filtered {
		addr, err := cw.put(chunks[0])
		if err != nil {
			return nil, errors.Wrap(err, "writing chunk")
		}
		msg.ChunkIndexType = message.ChunkIndexSingleChunk
		msg.ChunkIndexAddr = addr
		return msg, nil
	}

	entries := make([]faEntry, len(chunks))
	for i, c := range chunks {
		enc, err := cw.pipeline.Encode(c)
		if err != nil {
			return nil, errors.Wrapf(err, "encoding chunk %d", i)
		}
		addr, err := cw.put(enc)
		if err != nil {
			return nil, errors.Wrapf(err, "writing chunk %d", i)
		}
		entries[i] = faEntry{addr: addr, size: uint64(len(enc))}
	}

	addr, pageBits, err := writeFixedArray(cw.w, cw.alloc, entries, filtered, chunkBytes(cw.chunk, uint64(cw.elemSize)))
	if err != nil {
		return nil, err
	}
	msg.ChunkIndexType = message.ChunkIndexFixedArray
	msg.ChunkIndexAddr = addr
	msg.PageBits = pageBits
	return msg, nil
}

func (cw *ChunkWriter) put(b []byte) (uint64, error) {
	addr := cw.alloc(int64(len(b)))
	return addr, cw.w.At(int64(addr)).WriteBytes(b)
}

// Split cuts a row-major array into full-size chunks in grid order.
func Split(data []byte, dims []uint64, chunk []uint32, elemSize uint64) [][]byte {
	g := grid(dims, chunk)
	n := product(g)
	size := chunkBytes(chunk, elemSize)
	out := make([][]byte, n)
	for i := range out {
		buf := make([]byte, size)
		forEachRow(dims, chunk, origin(uint64(i), g, chunk), elemSize, func(ds, ch, n uint64) {
			copy(buf[ch:ch+n], data[ds:ds+n])
		})
		out[i] = buf
	}
	return out
}
