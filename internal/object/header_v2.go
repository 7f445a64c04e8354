package object

import (
	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-fast5/internal/binary"
	"github.com/robert-malhotra/go-fast5/internal/message"
)

const (
	signature             = "OHDR"
	continuationSignature = "OCHK"
)

// Version 2 header flags.
const (
	flagChunkSizeWidth  = 0x03
	flagCreationOrder   = 0x04
	flagPhaseChange     = 0x10
	flagTimes           = 0x20
	v2MessageHeaderSize = 4
)

func (hr *headerReader) readV2() ([]rawMessage, error) {
	addr := int64(hr.hdr.Address)
	br := hr.r.At(addr)
	prefix, err := br.ReadBytes(6)
	if err != nil {
		return nil, err
	}
	if prefix[4] != 2 {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "version %d", prefix[4])
	}
	flags := prefix[5]
	hr.hdr.Version, hr.hdr.Flags = 2, flags

	if flags&flagTimes != 0 {
		times, err := br.ReadBytes(16)
		if err != nil {
			return nil, err
		}
		hr.hdr.ModTime = uint32(br.Config().Uint(times[4:], 4))
	}
	if flags&flagPhaseChange != 0 {
		br.Skip(4)
	}
	size, err := br.ReadUintN(1 << (flags & flagChunkSizeWidth))
	if err != nil {
		return nil, err
	}

	// The checksum covers the prefix and the whole first chunk.
	prefixLen := int(br.Pos() - addr)
	whole, err := hr.r.At(addr).ReadBytes(prefixLen + int(size) + 4)
	if err != nil {
		return nil, err
	}
	if err := verify(whole); err != nil {
		return nil, err
	}

	creationOrder := flags&flagCreationOrder != 0
	hr.block = func(offset, length uint64) ([]rawMessage, error) {
		return hr.readV2Block(offset, length, creationOrder)
	}
	return splitV2(whole[prefixLen:len(whole)-4], creationOrder)
}

// readV2Block reads a continuation block: "OCHK", messages, checksum.
func (hr *headerReader) readV2Block(offset, length uint64, creationOrder bool) ([]rawMessage, error) {
	if length < 8 {
		return nil, errors.Wrapf(ErrInvalidHeader, "continuation block of %d bytes", length)
	}
	whole, err := hr.r.At(int64(offset)).ReadBytes(int(length))
	if err != nil {
		return nil, err
	}
	if string(whole[:4]) != continuationSignature {
		return nil, errors.Wrapf(ErrInvalidHeader, "continuation signature %q", whole[:4])
	}
	if err := verify(whole); err != nil {
		return nil, err
	}
	return splitV2(whole[4:len(whole)-4], creationOrder)
}

// verify checks the trailing lookup3 checksum of a metadata block.
func verify(block []byte) error {
	n := len(block) - 4
	stored := binary.DefaultConfig().Uint(block[n:], 4)
	if sum := binary.Lookup3Checksum(block[:n]); uint64(sum) != stored {
		return errors.Wrapf(ErrChecksumMismatch, "computed %#08x, stored %#08x", sum, stored)
	}
	return nil
}

// splitV2 cuts a chunk into messages. Fewer bytes than a message header
// at the end of a chunk are a gap.
func splitV2(chunk []byte, creationOrder bool) ([]rawMessage, error) {
	hdrSize := v2MessageHeaderSize
	if creationOrder {
		hdrSize += 2
	}
	var out []rawMessage
	for len(chunk) >= hdrSize {
		size := int(chunk[1]) | int(chunk[2])<<8
		m := rawMessage{typ: message.Type(chunk[0]), flags: chunk[3]}
		chunk = chunk[hdrSize:]
		if size > len(chunk) {
			return nil, errors.Wrapf(ErrInvalidHeader, "message of %d bytes overruns the chunk", size)
		}
		m.data, chunk = chunk[:size], chunk[size:]
		out = append(out, m)
	}
	return out, nil
}
