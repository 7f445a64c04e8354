// Package btree reads version 1 B-trees, the index structure behind
// symbol-table groups and chunked datasets in files written with the
// library's default (earliest) format settings. Almost every FAST5 file in
// circulation uses it for both.
package btree

import (
	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-fast5/internal/binary"
)

// Node types.
const (
	nodeGroup uint8 = 0
	nodeChunk uint8 = 1
)

// node is the fixed header of a "TREE" node. The reader it returns is
// positioned at the first key.
type node struct {
	level   uint8
	entries uint16
}

func readNode(r *binary.Reader, addr uint64, want uint8) (node, *binary.Reader, error) {
	nr := r.At(int64(addr))
	sig, err := nr.ReadBytes(4)
	if err != nil {
		return node{}, nil, errors.Wrapf(err, "reading B-tree node at %d", addr)
	}
	if string(sig) != "TREE" {
		return node{}, nil, errors.Newf("invalid B-tree signature %q at %d", sig, addr)
	}
	typ, err := nr.ReadUint8()
	if err != nil {
		return node{}, nil, err
	}
	if typ != want {
		return node{}, nil, errors.Newf("B-tree node at %d has type %d, want %d", addr, typ, want)
	}
	var n node
	if n.level, err = nr.ReadUint8(); err != nil {
		return node{}, nil, err
	}
	if n.entries, err = nr.ReadUint16(); err != nil {
		return node{}, nil, err
	}
	// siblings
	nr.Skip(2 * int64(nr.OffsetSize()))
	return n, nr, nil
}
