package filter

import (
	"fmt"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zstd"

	"github.com/robert-malhotra/go-fast5/internal/message"
)

// zstdDecoderPool keeps warmed-up decoders; DecodeAll is safe on a pooled
// decoder even after a failed call.
var zstdDecoderPool = sync.Pool{
	New: func() any {
		decoder, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderLowmem(false),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd decoder for pool: %v", err))
		}
		return decoder
	},
}

// Zstd implements the registered Zstandard filter. Each chunk is a single
// zstd frame.
type Zstd struct {
	level int

	once    sync.Once
	encoder *zstd.Encoder
	initErr error
}

// NewZstd creates a Zstandard filter.
// Client data: [0] = compression level (informational when decoding)
func NewZstd(clientData []uint32) *Zstd {
	level := 0
	if len(clientData) > 0 {
		level = int(clientData[0])
	}
	return &Zstd{level: level}
}

func (f *Zstd) ID() uint16 {
	return FilterZstd
}

func (f *Zstd) Info() message.FilterInfo {
	return message.FilterInfo{ID: FilterZstd, Name: "zstd", ClientData: []uint32{uint32(f.level)}}
}

func (f *Zstd) Encode(input []byte) ([]byte, error) {
	f.once.Do(func() {
		opts := []zstd.EOption{zstd.WithEncoderConcurrency(1)}
		if f.level > 0 {
			opts = append(opts, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(f.level)))
		}
		f.encoder, f.initErr = zstd.NewWriter(nil, opts...)
	})
	if f.initErr != nil {
		return nil, errors.Wrap(f.initErr, "zstd encoder")
	}
	return f.encoder.EncodeAll(input, nil), nil
}

func (f *Zstd) Decode(input []byte) ([]byte, error) {
	if len(input) == 0 {
		return nil, nil
	}

	decoder := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(decoder)

	output, err := decoder.DecodeAll(input, nil)
	if err != nil {
		return nil, errors.Wrap(err, "zstd decompress")
	}
	return output, nil
}
