package filter

import (
	"bytes"
	"io"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zlib"

	"github.com/robert-malhotra/go-fast5/internal/message"
)

// zlibReaderPool holds readers that are Reset onto each chunk.
var zlibReaderPool sync.Pool

// Deflate is the standard gzip filter: one zlib stream per chunk.
type Deflate struct {
	level int
}

// NewDeflate takes the level from client data slot 0, defaulting to 6.
func NewDeflate(clientData []uint32) *Deflate {
	if len(clientData) == 0 {
		return &Deflate{level: 6}
	}
	return &Deflate{level: int(clientData[0])}
}

func (f *Deflate) ID() uint16 { return message.FilterDeflate }

func (f *Deflate) Info() message.FilterInfo {
	return message.FilterInfo{ID: message.FilterDeflate, ClientData: []uint32{uint32(f.level)}}
}

func (f *Deflate) Encode(input []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(input) / 2)
	zw, err := zlib.NewWriterLevel(&buf, f.level)
	if err != nil {
		return nil, errors.Wrapf(err, "deflate level %d", f.level)
	}
	if _, err = zw.Write(input); err == nil {
		err = zw.Close()
	}
	if err != nil {
		return nil, errors.Wrap(err, "deflate")
	}
	return buf.Bytes(), nil
}

func (f *Deflate) Decode(input []byte) ([]byte, error) {
	src := bytes.NewReader(input)
	var zr io.ReadCloser
	if pooled, ok := zlibReaderPool.Get().(io.ReadCloser); ok {
		if err := pooled.(zlib.Resetter).Reset(src, nil); err != nil {
			return nil, errors.Wrap(err, "inflate header")
		}
		zr = pooled
	} else {
		r, err := zlib.NewReader(src)
		if err != nil {
			return nil, errors.Wrap(err, "inflate header")
		}
		zr = r
	}
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, errors.Wrap(err, "inflate")
	}
	zlibReaderPool.Put(zr)
	return out, nil
}
