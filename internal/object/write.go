package object

import (
	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-fast5/internal/binary"
	"github.com/robert-malhotra/go-fast5/internal/message"
)

// MinGroupChunkSize is the smallest first chunk given to group headers,
// matching what the HDF5 C library reserves.
const MinGroupChunkSize = 120

// Encode builds a version 2 object header holding messages in a single
// chunk of at least minChunk bytes. Unused space becomes a NIL message.
func Encode(messages []message.Message, c binary.Config, minChunk int) ([]byte, error) {
	var chunk []byte
	for _, msg := range messages {
		body, err := message.Encode(msg, c)
		if err != nil {
			return nil, err
		}
		if len(body) > 0xFFFF {
			return nil, errors.Newf("message type %#04x is %d bytes, over the 64 KiB header limit", uint16(msg.Type()), len(body))
		}
		chunk = appendMessage(chunk, msg.Type(), body)
	}
	if pad := minChunk - len(chunk); pad > 0 {
		// A NIL message needs room for its own header.
		pad = max(pad, v2MessageHeaderSize)
		chunk = appendMessage(chunk, message.TypeNIL, make([]byte, pad-v2MessageHeaderSize))
	}

	width, bits := 1, uint8(0)
	switch n := len(chunk); {
	case n > 0xFFFFFFFF:
		width, bits = 8, 3
	case n > 0xFFFF:
		width, bits = 4, 2
	case n > 0xFF:
		width, bits = 2, 1
	}

	b := make([]byte, 0, 6+width+len(chunk)+4)
	b = append(b, signature...)
	b = append(b, 2, bits)
	b = c.AppendUint(b, uint64(len(chunk)), width)
	b = append(b, chunk...)
	return binary.DefaultConfig().AppendUint(b, uint64(binary.Lookup3Checksum(b)), 4), nil
}

func appendMessage(b []byte, typ message.Type, body []byte) []byte {
	b = append(b, uint8(typ), byte(len(body)), byte(len(body)>>8), 0)
	return append(b, body...)
}

// NewGroupHeader returns the messages of a group that stores its links in
// the header.
func NewGroupHeader(links []*message.Link) []message.Message {
	messages := make([]message.Message, 0, len(links)+2)
	messages = append(messages, message.NewLinkInfo(), message.NewGroupInfo())
	for _, link := range links {
		messages = append(messages, link)
	}
	return messages
}

// NewDatasetHeader returns the messages describing a dataset.
func NewDatasetHeader(space *message.Dataspace, dt *message.Datatype, layout *message.DataLayout) []message.Message {
	return []message.Message{space, dt, layout}
}
