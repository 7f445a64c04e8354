// Package layout moves dataset values between their storage in the file
// and a flat row-major byte slice. Reading supports all three storage
// classes and the chunk indexes that FAST5 writers produce; writing
// produces contiguous storage or filtered chunks behind a fixed array.
package layout

import (
	"bytes"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-fast5/internal/binary"
	"github.com/robert-malhotra/go-fast5/internal/message"
)

// Layout reads the complete value of a dataset.
type Layout interface {
	Class() message.LayoutClass
	Read() ([]byte, error)
}

// New returns the reader for a layout message.
func New(
	msg *message.DataLayout,
	space *message.Dataspace,
	dt *message.Datatype,
	pipeline *message.FilterPipeline,
	r *binary.Reader,
) (Layout, error) {
	if msg == nil {
		return nil, errors.New("nil layout message")
	}
	switch msg.Class {
	case message.LayoutCompact:
		return compact(msg.CompactData), nil
	case message.LayoutContiguous:
		size := msg.Size
		if size == 0 {
			size = dataSize(space, dt)
		}
		return &contiguous{r: r, addr: msg.Address, size: size}, nil
	case message.LayoutChunked:
		return newChunked(msg, space, dt, pipeline, r)
	}
	return nil, errors.Newf("unsupported layout class %s", msg.Class)
}

func dataSize(space *message.Dataspace, dt *message.Datatype) uint64 {
	if space == nil || dt == nil {
		return 0
	}
	return space.NumElements() * uint64(dt.Size)
}

// compact data lives in the layout message itself.
type compact []byte

func (c compact) Class() message.LayoutClass { return message.LayoutCompact }

func (c compact) Read() ([]byte, error) { return bytes.Clone(c), nil }

type contiguous struct {
	r    *binary.Reader
	addr uint64
	size uint64
}

func (c *contiguous) Class() message.LayoutClass { return message.LayoutContiguous }

func (c *contiguous) Read() ([]byte, error) {
	if c.size == 0 {
		return []byte{}, nil
	}
	if c.r.IsUndefinedOffset(c.addr) {
		return nil, errors.New("contiguous storage was never allocated")
	}
	data, err := c.r.At(int64(c.addr)).ReadBytes(int(c.size))
	if err != nil {
		return nil, errors.Wrap(err, "reading contiguous storage")
	}
	return data, nil
}
