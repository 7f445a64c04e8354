package heap

import (
	"bytes"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-fast5/internal/binary"
)

const localSignature = "HEAP"

// LocalHeap is the data segment of a local heap.
type LocalHeap struct {
	DataSize    uint64
	FreeOffset  uint64
	DataAddress uint64
	data        []byte
}

// ReadLocalHeap reads the local heap at address and loads its data segment.
func ReadLocalHeap(r *binary.Reader, address uint64) (*LocalHeap, error) {
	hr := r.At(int64(address))
	prefix, err := hr.ReadBytes(8)
	if err != nil {
		return nil, errors.Wrapf(err, "local heap at %#x", address)
	}
	if string(prefix[:4]) != localSignature {
		return nil, errors.Newf("invalid local heap signature %q at %#x", prefix[:4], address)
	}
	if prefix[4] != 0 {
		return nil, errors.Newf("unsupported local heap version %d", prefix[4])
	}

	h := &LocalHeap{}
	for _, f := range []*uint64{&h.DataSize, &h.FreeOffset} {
		if *f, err = hr.ReadLength(); err != nil {
			return nil, errors.Wrap(err, "local heap header")
		}
	}
	if h.DataAddress, err = hr.ReadOffset(); err != nil {
		return nil, errors.Wrap(err, "local heap header")
	}
	if h.data, err = r.At(int64(h.DataAddress)).ReadBytes(int(h.DataSize)); err != nil {
		return nil, errors.Wrap(err, "local heap data segment")
	}
	return h, nil
}

// GetString returns the NUL-terminated string at offset, or "" when offset
// lies outside the data segment.
func (h *LocalHeap) GetString(offset uint64) string {
	if offset >= uint64(len(h.data)) {
		return ""
	}
	s := h.data[offset:]
	if i := bytes.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return string(s)
}
