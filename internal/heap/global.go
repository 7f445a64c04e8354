package heap

import (
	"bytes"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-fast5/internal/binary"
)

const globalSignature = "GCOL"

// GlobalHeap is one global heap collection.
type GlobalHeap struct {
	Address        uint64
	CollectionSize uint64
	objects        map[uint16][]byte
}

// GlobalHeapID locates an object inside a collection.
type GlobalHeapID struct {
	CollectionAddress uint64
	ObjectIndex       uint32
}

// ParseGlobalHeapID decodes a collection address followed by a 4-byte
// object index.
func ParseGlobalHeapID(b []byte, c binary.Config) (GlobalHeapID, error) {
	if len(b) < c.OffsetSize+4 {
		return GlobalHeapID{}, errors.Newf("global heap ID needs %d bytes, have %d", c.OffsetSize+4, len(b))
	}
	return GlobalHeapID{
		CollectionAddress: c.Uint(b, c.OffsetSize),
		ObjectIndex:       uint32(c.Uint(b[c.OffsetSize:], 4)),
	}, nil
}

// Append appends the encoded ID to b.
func (id GlobalHeapID) Append(b []byte, c binary.Config) []byte {
	return c.AppendUint(c.AppendOffset(b, id.CollectionAddress), uint64(id.ObjectIndex), 4)
}

// ReadGlobalHeap reads every object of the collection at address. Reading
// stops at the free-space object (index 0) or the end of the collection.
func ReadGlobalHeap(r *binary.Reader, address uint64) (*GlobalHeap, error) {
	if address == 0 || r.IsUndefinedOffset(address) {
		return nil, errors.Newf("invalid global heap address %#x", address)
	}
	hr := r.At(int64(address))
	prefix, err := hr.ReadBytes(8)
	if err != nil {
		return nil, errors.Wrapf(err, "global heap at %#x", address)
	}
	if string(prefix[:4]) != globalSignature {
		return nil, errors.Newf("invalid global heap signature %q at %#x", prefix[:4], address)
	}
	if prefix[4] != 1 {
		return nil, errors.Newf("unsupported global heap version %d", prefix[4])
	}
	size, err := hr.ReadLength()
	if err != nil {
		return nil, errors.Wrap(err, "global heap size")
	}

	h := &GlobalHeap{Address: address, CollectionSize: size, objects: make(map[uint16][]byte)}
	end := int64(address) + int64(size)
	objHeader := int64(8 + r.LengthSize())
	for hr.Pos()+objHeader <= end {
		index, err := hr.ReadUint16()
		if err != nil || index == 0 {
			break
		}
		hr.Skip(6) // reference count, reserved
		n, err := hr.ReadLength()
		if err != nil {
			return nil, errors.Wrapf(err, "global heap object %d", index)
		}
		if hr.Pos()+int64(n) > end {
			return nil, errors.Newf("global heap object %d overruns its collection", index)
		}
		data, err := hr.ReadBytes(int(n))
		if err != nil {
			return nil, errors.Wrapf(err, "global heap object %d", index)
		}
		h.objects[index] = data
		hr.Skip(int64(-n & 7))
	}
	return h, nil
}

// Object returns a copy of the object at index.
func (h *GlobalHeap) Object(index uint16) ([]byte, error) {
	data, ok := h.objects[index]
	if !ok {
		return nil, errors.Newf("object %d not in global heap at %#x", index, h.Address)
	}
	return bytes.Clone(data), nil
}

// StringAt returns the object at index up to its first NUL.
func (h *GlobalHeap) StringAt(index uint16) (string, error) {
	data, ok := h.objects[index]
	if !ok {
		return "", errors.Newf("object %d not in global heap at %#x", index, h.Address)
	}
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return string(data), nil
}
