package filter

import (
	"github.com/robert-malhotra/go-fast5/internal/message"
)

// Shuffle transposes the bytes of fixed-size elements so that byte j of
// every element is stored together. Signal samples compress far better
// this way.
type Shuffle struct {
	width int
}

// NewShuffle reads the element width from client data slot 0.
func NewShuffle(clientData []uint32) *Shuffle {
	s := &Shuffle{width: 1}
	if len(clientData) > 0 && clientData[0] > 0 {
		s.width = int(clientData[0])
	}
	return s
}

func (f *Shuffle) ID() uint16 { return message.FilterShuffle }

func (f *Shuffle) Info() message.FilterInfo {
	return message.FilterInfo{ID: message.FilterShuffle, ClientData: []uint32{uint32(f.width)}}
}

func (f *Shuffle) Encode(input []byte) ([]byte, error) {
	return f.transpose(input, true), nil
}

func (f *Shuffle) Decode(input []byte) ([]byte, error) {
	return f.transpose(input, false), nil
}

// transpose moves bytes between element order and plane order. Bytes past
// the last whole element stay where they are.
func (f *Shuffle) transpose(in []byte, toPlanes bool) []byte {
	n := len(in) / f.width
	if f.width == 1 || n == 0 {
		return in
	}
	out := make([]byte, len(in))
	for elem := range n {
		for b := range f.width {
			packed, plane := elem*f.width+b, b*n+elem
			if toPlanes {
				out[plane] = in[packed]
			} else {
				out[packed] = in[plane]
			}
		}
	}
	copy(out[n*f.width:], in[n*f.width:])
	return out
}
