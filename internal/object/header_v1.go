package object

import (
	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-fast5/internal/message"
)

// Version 1 prefix: version, reserved, message count (2), reference
// count (4), header size (4), then 4 bytes of padding. Every message is
// type (2), size (2), flags (1), reserved (3) and a body padded to 8 bytes.
const v1PrefixSize = 16

func (hr *headerReader) readV1() ([]rawMessage, error) {
	br := hr.r.At(int64(hr.hdr.Address))
	prefix, err := br.ReadBytes(12)
	if err != nil {
		return nil, err
	}
	cfg := hr.r.Config()
	hr.hdr.Version = 1
	hr.hdr.RefCount = uint32(cfg.Uint(prefix[4:], 4))
	size := cfg.Uint(prefix[8:], 4)

	hr.block = hr.readV1Block
	return hr.readV1Block(hr.hdr.Address+v1PrefixSize, size)
}

func (hr *headerReader) readV1Block(offset, length uint64) ([]rawMessage, error) {
	br := hr.r.At(int64(offset))
	end := int64(offset + length)
	var out []rawMessage
	for end-br.Pos() >= 8 {
		hdr, err := br.ReadBytes(8)
		if err != nil {
			return nil, err
		}
		cfg := br.Config()
		m := rawMessage{typ: message.Type(cfg.Uint(hdr, 2)), flags: hdr[4]}
		size := int(cfg.Uint(hdr[2:], 2))
		if br.Pos()+int64(size) > end {
			return nil, errors.Wrapf(ErrInvalidHeader, "message of %d bytes overruns the header", size)
		}
		if m.data, err = br.ReadBytes(size); err != nil {
			return nil, err
		}
		br.Align(8)
		out = append(out, m)
	}
	return out, nil
}
