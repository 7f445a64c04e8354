package heap

import (
	"github.com/robert-malhotra/go-fast5/internal/binary"
)

// Collection accumulates objects for a new global heap collection.
type Collection struct {
	objects [][]byte
}

// Add queues data and returns its 1-based object index.
func (c *Collection) Add(data []byte) uint32 {
	c.objects = append(c.objects, data)
	return uint32(len(c.objects))
}

// AddString queues s as a NUL-terminated object.
func (c *Collection) AddString(s string) uint32 {
	return c.Add(append([]byte(s), 0))
}

// Encode lays out the collection as it sits in the file. A free-space
// object closes the list.
func (c *Collection) Encode(cfg binary.Config) []byte {
	b := append([]byte(globalSignature), 1, 0, 0, 0)
	b = cfg.AppendLength(b, 0)
	for i, obj := range c.objects {
		b = cfg.AppendUint(b, uint64(i+1), 2)
		b = cfg.AppendUint(b, 1, 2)
		b = append(b, 0, 0, 0, 0)
		b = cfg.AppendLength(b, uint64(len(obj)))
		b = append(b, obj...)
		b = append(b, make([]byte, -len(obj)&7)...)
	}
	free := 8 + cfg.LengthSize
	b = append(b, make([]byte, 8)...)
	b = cfg.AppendLength(b, uint64(free))
	b = append(b, make([]byte, -len(b)&7)...)

	size := cfg.AppendLength(nil, uint64(len(b)))
	copy(b[8:], size)
	return b
}

// Write allocates space for the collection, writes it and returns the IDs
// of its objects in the order they were added.
func (c *Collection) Write(w *binary.Writer, allocate func(size int64) uint64) ([]GlobalHeapID, error) {
	b := c.Encode(w.Config())
	addr := allocate(int64(len(b)))
	if err := w.At(int64(addr)).WriteBytes(b); err != nil {
		return nil, err
	}
	ids := make([]GlobalHeapID, len(c.objects))
	for i := range ids {
		ids[i] = GlobalHeapID{CollectionAddress: addr, ObjectIndex: uint32(i + 1)}
	}
	return ids, nil
}
