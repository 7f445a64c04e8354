package btree

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"

	binpkg "github.com/robert-malhotra/go-fast5/internal/binary"
	"github.com/robert-malhotra/go-fast5/internal/heap"
)

// GroupEntry is one member of a symbol-table group.
type GroupEntry struct {
	Name    string
	Address uint64

	// SoftLink is the target path when the entry is a soft link.
	SoftLink string
}

// Symbol table entry cache types.
const (
	cacheSoftLink uint32 = 2
)

// ReadGroupEntries lists the members of the group whose tree is rooted at
// addr. Names are resolved through the group's local heap; the tree keeps
// them in name order.
func ReadGroupEntries(r *binpkg.Reader, addr uint64, names *heap.LocalHeap) ([]GroupEntry, error) {
	var out []GroupEntry
	if err := walkGroup(r, addr, names, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func walkGroup(r *binpkg.Reader, addr uint64, names *heap.LocalHeap, out *[]GroupEntry) error {
	n, nr, err := readNode(r, addr, nodeGroup)
	if err != nil {
		return err
	}
	for i := 0; i < int(n.entries); i++ {
		// key: heap offset of the largest name below, unused here
		nr.Skip(int64(nr.LengthSize()))
		child, err := nr.ReadOffset()
		if err != nil {
			return err
		}
		if n.level > 0 {
			err = walkGroup(r, child, names, out)
		} else {
			err = readSymbolNode(r, child, names, out)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func readSymbolNode(r *binpkg.Reader, addr uint64, names *heap.LocalHeap, out *[]GroupEntry) error {
	nr := r.At(int64(addr))
	hdr, err := nr.ReadBytes(8)
	if err != nil {
		return errors.Wrapf(err, "reading symbol table node at %d", addr)
	}
	if string(hdr[:4]) != "SNOD" {
		return errors.Newf("invalid symbol table node signature %q at %d", hdr[:4], addr)
	}
	if hdr[4] != 1 {
		return errors.Newf("unsupported symbol table node version %d", hdr[4])
	}
	count := binary.LittleEndian.Uint16(hdr[6:])
	for i := uint16(0); i < count; i++ {
		e, err := readSymbol(nr, names)
		if err != nil {
			return errors.Wrapf(err, "symbol %d of node at %d", i, addr)
		}
		if e.Name != "" {
			*out = append(*out, e)
		}
	}
	return nil
}

func readSymbol(nr *binpkg.Reader, names *heap.LocalHeap) (GroupEntry, error) {
	var e GroupEntry
	nameOff, err := nr.ReadOffset()
	if err != nil {
		return e, err
	}
	if e.Address, err = nr.ReadOffset(); err != nil {
		return e, err
	}
	cache, err := nr.ReadUint32()
	if err != nil {
		return e, err
	}
	nr.Skip(4)
	scratch, err := nr.ReadBytes(16)
	if err != nil {
		return e, err
	}
	e.Name = names.GetString(nameOff)
	if cache == cacheSoftLink {
		e.SoftLink = names.GetString(uint64(binary.LittleEndian.Uint32(scratch)))
		e.Address = 0
	}
	return e, nil
}
