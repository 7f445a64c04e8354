package layout

import (
	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-fast5/internal/binary"
	"github.com/robert-malhotra/go-fast5/internal/btree"
	"github.com/robert-malhotra/go-fast5/internal/filter"
	"github.com/robert-malhotra/go-fast5/internal/message"
)

type chunked struct {
	msg      *message.DataLayout
	dims     []uint64
	chunk    []uint32
	elemSize uint64
	pipeline *filter.Pipeline
	r        *binary.Reader
}

func newChunked(
	msg *message.DataLayout,
	space *message.Dataspace,
	dt *message.Datatype,
	fp *message.FilterPipeline,
	r *binary.Reader,
) (*chunked, error) {
	dims := space.Dimensions
	if len(dims) == 0 {
		dims = []uint64{1}
	}
	if len(msg.ChunkDims) < len(dims) {
		return nil, errors.Newf("layout has %d chunk dimensions for a rank %d dataset", len(msg.ChunkDims), len(dims))
	}
	chunk := msg.ChunkDims[:len(dims)]
	for d, c := range chunk {
		if c == 0 {
			return nil, errors.Newf("chunk dimension %d is zero", d)
		}
	}
	pipeline, err := filter.NewPipeline(fp)
	if err != nil {
		return nil, errors.Wrap(err, "creating filter pipeline")
	}
	return &chunked{
		msg:      msg,
		dims:     dims,
		chunk:    chunk,
		elemSize: uint64(dt.Size),
		pipeline: pipeline,
		r:        r,
	}, nil
}

func (c *chunked) Class() message.LayoutClass { return message.LayoutChunked }

// Read assembles the dataset from its chunks. Elements of chunks that were
// never written read as zero.
func (c *chunked) Read() ([]byte, error) {
	total := product(c.dims) * c.elemSize
	if total == 0 {
		return nil, nil
	}
	chunks, err := c.index()
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s chunk index", indexName(c.msg.ChunkIndexType))
	}

	out := make([]byte, total)
	for _, ch := range chunks {
		data, err := c.r.At(int64(ch.Address)).ReadBytes(int(ch.Size))
		if err != nil {
			return nil, errors.Wrapf(err, "reading chunk at %v", ch.Offset)
		}
		if data, err = c.pipeline.Decode(data, ch.FilterMask); err != nil {
			return nil, errors.Wrapf(err, "decoding chunk at %v", ch.Offset)
		}
		forEachRow(c.dims, c.chunk, ch.Offset, c.elemSize, func(ds, at, n uint64) {
			if at < uint64(len(data)) {
				copy(out[ds:ds+n], data[at:min(at+n, uint64(len(data)))])
			}
		})
	}
	return out, nil
}

func (c *chunked) index() ([]btree.Chunk, error) {
	addr := c.msg.ChunkIndexAddr
	if c.r.IsUndefinedOffset(addr) {
		return nil, nil
	}
	full := chunkBytes(c.chunk, c.elemSize)

	switch c.msg.ChunkIndexType {
	case message.ChunkIndexBTreeV1:
		return btree.ReadChunks(c.r, addr, len(c.dims))

	case message.ChunkIndexSingleChunk:
		one := btree.Chunk{Offset: make([]uint64, len(c.dims)), Size: uint32(full), Address: addr}
		if c.msg.ChunkFlags&message.ChunkSingleIndexWithFilter != 0 {
			one.Size, one.FilterMask = uint32(c.msg.FilteredChunkSize), c.msg.FilterMask
		}
		return []btree.Chunk{one}, nil

	case message.ChunkIndexImplicit:
		g := grid(c.dims, c.chunk)
		out := make([]btree.Chunk, product(g))
		for i := range out {
			out[i] = btree.Chunk{
				Offset:  origin(uint64(i), g, c.chunk),
				Size:    uint32(full),
				Address: addr + uint64(i)*full,
			}
		}
		return out, nil

	case message.ChunkIndexFixedArray:
		return readFixedArray(c.r, addr, grid(c.dims, c.chunk), c.chunk, full)
	}
	return nil, errors.Newf("%s chunk indexes are not supported", indexName(c.msg.ChunkIndexType))
}

func indexName(t message.ChunkIndexType) string {
	switch t {
	case message.ChunkIndexBTreeV1:
		return "v1 B-tree"
	case message.ChunkIndexSingleChunk:
		return "single chunk"
	case message.ChunkIndexImplicit:
		return "implicit"
	case message.ChunkIndexFixedArray:
		return "fixed array"
	case message.ChunkIndexExtensibleArray:
		return "extensible array"
	case message.ChunkIndexBTreeV2:
		return "v2 B-tree"
	}
	return "unknown"
}
