package filter

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/pierrec/lz4/v4"

	"github.com/robert-malhotra/go-fast5/internal/message"
)

// LZ4 implements the registered LZ4 filter.
//
// Encoded chunk layout (all integers big-endian):
//
//	uint64 total decoded size
//	uint32 block size
//	repeated: uint32 compressed block size, block bytes
//
// A block whose compressed size equals its decoded size is stored raw.
type LZ4 struct {
	blockSize int
}

// defaultLZ4Block matches the block size the reference plugin uses when no
// client data is given.
const defaultLZ4Block = 1 << 30

// NewLZ4 creates an LZ4 filter.
// Client data: [0] = block size in bytes, used when encoding
func NewLZ4(clientData []uint32) *LZ4 {
	bs := defaultLZ4Block
	if len(clientData) > 0 && clientData[0] > 0 {
		bs = int(clientData[0])
	}
	return &LZ4{blockSize: bs}
}

func (f *LZ4) ID() uint16 {
	return FilterLZ4
}

func (f *LZ4) Info() message.FilterInfo {
	info := message.FilterInfo{ID: FilterLZ4, Name: "lz4"}
	if f.blockSize != defaultLZ4Block {
		info.ClientData = []uint32{uint32(f.blockSize)}
	}
	return info
}

func (f *LZ4) Encode(input []byte) ([]byte, error) {
	out := binary.BigEndian.AppendUint64(nil, uint64(len(input)))
	out = binary.BigEndian.AppendUint32(out, uint32(f.blockSize))
	scratch := make([]byte, lz4.CompressBlockBound(min(f.blockSize, len(input))))
	var c lz4.Compressor
	for off := 0; off < len(input); off += f.blockSize {
		block := input[off:min(off+f.blockSize, len(input))]
		n, err := c.CompressBlock(block, scratch)
		if err != nil {
			return nil, errors.Wrap(err, "lz4 compress")
		}
		if n == 0 || n >= len(block) {
			out = binary.BigEndian.AppendUint32(out, uint32(len(block)))
			out = append(out, block...)
			continue
		}
		out = binary.BigEndian.AppendUint32(out, uint32(n))
		out = append(out, scratch[:n]...)
	}
	return out, nil
}

func (f *LZ4) Decode(input []byte) ([]byte, error) {
	if len(input) < 12 {
		return nil, errors.Newf("lz4 chunk too short: %d bytes", len(input))
	}
	total := binary.BigEndian.Uint64(input[0:8])
	blockSize := uint64(binary.BigEndian.Uint32(input[8:12]))
	if blockSize == 0 {
		return nil, errors.New("lz4 chunk declares zero block size")
	}
	if total > uint64(len(input))*255+blockSize {
		return nil, errors.Newf("lz4 chunk declares implausible size %d", total)
	}

	output := make([]byte, total)
	pos := 12
	var written uint64
	for written < total {
		if pos+4 > len(input) {
			return nil, errors.Newf("lz4 chunk truncated at block header (offset %d)", pos)
		}
		compressed := int(binary.BigEndian.Uint32(input[pos : pos+4]))
		pos += 4
		if compressed < 0 || pos+compressed > len(input) {
			return nil, errors.Newf("lz4 block overruns chunk (offset %d, size %d)", pos, compressed)
		}

		want := blockSize
		if total-written < want {
			want = total - written
		}
		dst := output[written : written+want]
		block := input[pos : pos+compressed]
		pos += compressed

		if uint64(compressed) == want {
			copy(dst, block)
			written += want
			continue
		}
		n, err := lz4.UncompressBlock(block, dst)
		if err != nil {
			return nil, errors.Wrap(err, "lz4 decompress")
		}
		if uint64(n) != want {
			return nil, errors.Newf("lz4 block decoded to %d bytes, want %d", n, want)
		}
		written += want
	}

	return output, nil
}
