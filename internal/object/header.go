// Package object reads and writes HDF5 object headers, the per-object
// message lists behind every group and dataset of a FAST5 file.
//
// Both header versions are read: version 1 from files written by
// libraries before 1.8 and version 2 from current ones. Version 2 headers
// and their continuation blocks are checksum-verified. Writing always
// produces a single-chunk version 2 header.
package object

import (
	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-fast5/internal/binary"
	"github.com/robert-malhotra/go-fast5/internal/message"
)

var (
	ErrInvalidHeader      = errors.New("invalid object header")
	ErrUnsupportedVersion = errors.New("unsupported object header version")
	ErrChecksumMismatch   = errors.New("object header checksum mismatch")
)

// maxContinuations bounds the continuation blocks followed for one header.
const maxContinuations = 1024

// Header is a decoded object header.
type Header struct {
	Version  uint8
	Address  uint64
	Flags    uint8  // version 2 only
	RefCount uint32 // version 1 only
	ModTime  uint32 // version 2 with stored times

	Messages []message.Message
}

// rawMessage is a header message before decoding.
type rawMessage struct {
	typ   message.Type
	flags uint8
	data  []byte
}

// Read decodes the object header at address.
func Read(r *binary.Reader, address uint64) (*Header, error) {
	peek, err := r.At(int64(address)).Peek(4)
	if err != nil {
		return nil, errors.Wrapf(err, "object header at %#x", address)
	}
	hr := &headerReader{r: r, hdr: &Header{Address: address}, seen: map[uint64]bool{}}
	var raws []rawMessage
	switch {
	case string(peek) == signature:
		raws, err = hr.readV2()
	case peek[0] == 1:
		raws, err = hr.readV1()
	default:
		return nil, errors.Wrapf(ErrInvalidHeader, "no header signature at %#x", address)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "object header at %#x", address)
	}
	if err := hr.add(raws); err != nil {
		return nil, errors.Wrapf(err, "object header at %#x", address)
	}
	return hr.hdr, nil
}

type headerReader struct {
	r     *binary.Reader
	hdr   *Header
	block func(offset, length uint64) ([]rawMessage, error)
	seen  map[uint64]bool
}

// add decodes raws into the header, following continuation messages.
// Messages that fail to decode are dropped so that one odd attribute does
// not hide the rest of the object.
func (hr *headerReader) add(raws []rawMessage) error {
	for _, m := range raws {
		if m.typ == message.TypeNIL {
			continue
		}
		msg, err := message.Parse(m.typ, m.data, m.flags, hr.r)
		if err != nil {
			continue
		}
		cont, ok := msg.(*message.Continuation)
		if !ok {
			hr.hdr.Messages = append(hr.hdr.Messages, msg)
			continue
		}
		if hr.seen[cont.Offset] || len(hr.seen) >= maxContinuations {
			return errors.Wrapf(ErrInvalidHeader, "continuation loop at %#x", cont.Offset)
		}
		hr.seen[cont.Offset] = true
		more, err := hr.block(cont.Offset, cont.Length)
		if err != nil {
			return errors.Wrapf(err, "continuation block at %#x", cont.Offset)
		}
		if err := hr.add(more); err != nil {
			return err
		}
	}
	return nil
}

// GetMessage returns the first message of the given type, or nil.
func (h *Header) GetMessage(typ message.Type) message.Message {
	for _, msg := range h.Messages {
		if msg.Type() == typ {
			return msg
		}
	}
	return nil
}

// GetMessages returns all messages of the given type.
func (h *Header) GetMessages(typ message.Type) []message.Message {
	var result []message.Message
	for _, msg := range h.Messages {
		if msg.Type() == typ {
			result = append(result, msg)
		}
	}
	return result
}

func first[T message.Message](h *Header, typ message.Type) T {
	var zero T
	if msg, ok := h.GetMessage(typ).(T); ok {
		return msg
	}
	return zero
}

// Dataspace returns the dataspace message, or nil.
func (h *Header) Dataspace() *message.Dataspace {
	return first[*message.Dataspace](h, message.TypeDataspace)
}

// Datatype returns the datatype message, or nil.
func (h *Header) Datatype() *message.Datatype {
	return first[*message.Datatype](h, message.TypeDatatype)
}

// DataLayout returns the data layout message, or nil.
func (h *Header) DataLayout() *message.DataLayout {
	return first[*message.DataLayout](h, message.TypeDataLayout)
}

// FilterPipeline returns the filter pipeline message, or nil.
func (h *Header) FilterPipeline() *message.FilterPipeline {
	return first[*message.FilterPipeline](h, message.TypeFilterPipeline)
}
