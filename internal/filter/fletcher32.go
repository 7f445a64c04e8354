package filter

import (
	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-fast5/internal/binary"
	"github.com/robert-malhotra/go-fast5/internal/message"
)

// Fletcher32Filter appends a Fletcher-32 checksum to each chunk and checks
// it on the way back.
type Fletcher32Filter struct{}

func NewFletcher32([]uint32) *Fletcher32Filter { return &Fletcher32Filter{} }

func (*Fletcher32Filter) ID() uint16 { return message.FilterFletcher32 }

func (*Fletcher32Filter) Info() message.FilterInfo {
	return message.FilterInfo{ID: message.FilterFletcher32}
}

func (*Fletcher32Filter) Encode(input []byte) ([]byte, error) {
	out := append(make([]byte, 0, len(input)+4), input...)
	return binary.DefaultConfig().AppendUint(out, uint64(binary.Fletcher32(input)), 4), nil
}

// Decode strips the trailing checksum after checking it. Libraries older
// than 1.6.3 stored it with the bytes of each half swapped, which is
// accepted too.
func (*Fletcher32Filter) Decode(input []byte) ([]byte, error) {
	n := len(input) - 4
	if n < 0 {
		return nil, errors.Newf("fletcher32: %d byte chunk has no checksum", len(input))
	}
	want := uint32(binary.DefaultConfig().Uint(input[n:], 4))
	got := binary.Fletcher32(input[:n])
	if want != got && want != (got&0x00ff00ff)<<8|(got&0xff00ff00)>>8 {
		return nil, errors.Newf("fletcher32: checksum mismatch (stored %#08x, computed %#08x)", want, got)
	}
	return input[:n], nil
}
