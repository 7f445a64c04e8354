package fast5

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-fast5/hdf5"
	"github.com/robert-malhotra/go-fast5/internal/message"
)

func packed(b ...byte) []byte {
	out := make([]byte, 8)
	copy(out, b)
	return out
}

func TestDecodeChannel(t *testing.T) {
	tests := []struct {
		name string
		attr ChannelAttr
		want string
		ok   bool
	}{
		{"signed int", ChannelAttr{Class: ClassInteger, Size: 4, Signed: true, Int: 42}, "42", true},
		{"unsigned int", ChannelAttr{Class: ClassInteger, Size: 2, Int: 42}, "", false},
		{"decimal text", ChannelAttr{Class: ClassString, Size: 4, Text: "017"}, "17", true},
		{"decimal text padded", ChannelAttr{Class: ClassString, Size: 6, Text: " 512\x00"}, "512", true},
		{"u16 little endian", ChannelAttr{Class: ClassString, Size: 8, Text: "{", Raw: packed(0x7b)}, "123", true},
		{"u16 big endian", ChannelAttr{Class: ClassString, Size: 8, Raw: packed(0x00, 0x7b)}, "123", true},
		{"u32 big endian", ChannelAttr{Class: ClassString, Size: 8, Raw: packed(0, 0, 0x01, 0x2c)}, "300", true},
		{"opaque", ChannelAttr{Class: ClassOpaque, Size: 8, Raw: packed(5)}, "5", true},
		{"packed out of range", ChannelAttr{Class: ClassOpaque, Size: 8, Raw: packed(0xff, 0xff, 0xff, 0xff)}, "", false},
		{"size 8 text is never verbatim", ChannelAttr{Class: ClassString, Size: 8, Text: "abcdefg", Raw: []byte("abcdefg\x00")}, "", false},
		{"short string", ChannelAttr{Class: ClassString, Size: 5, Text: "A12b"}, "A12b", true},
		{"variable length", ChannelAttr{Class: ClassString, Size: 16, VarLen: true, Text: "12"}, "12", true},
		{"too long", ChannelAttr{Class: ClassString, Size: 18, Text: "abcdefghijklmnopq"}, "", false},
		{"non printable", ChannelAttr{Class: ClassString, Size: 3, Text: "\x01a"}, "", false},
		{"float", ChannelAttr{Class: ClassFloat, Size: 8}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DecodeChannel(tt.attr)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChannelFromFilename(t *testing.T) {
	ch, ok := ChannelFromFilename("/data/run/PAK_20231_ch0042_read17.fast5")
	require.True(t, ok)
	assert.Equal(t, "42", ch)

	_, ok = ChannelFromFilename("/data/ch12/batch_0.fast5")
	assert.False(t, ok)
}

func readChannel(t *testing.T, name string, fill func(t *testing.T, ch *hdf5.Group)) string {
	t.Helper()
	path := tempFile(t, name)
	buildFile(t, path, func(root *hdf5.Group) {
		mustAttr(t, root, "file_type", "multi-read")
		ch := multiReadFixture(t, root, "r1", []int16{1, 2, 3})
		fill(t, ch)
	})
	reads, err := NewReader().ReadFile(path)
	require.NoError(t, err)
	require.Len(t, reads, 1)
	return reads[0].Channel
}

func TestChannelPrecedence(t *testing.T) {
	native := readChannel(t, "run_ch999_0.fast5", func(t *testing.T, ch *hdf5.Group) {
		mustAttr(t, ch, "channel_number", int32(7))
	})
	assert.Equal(t, "7", native)

	fromName := readChannel(t, "run_ch999_0.fast5", func(t *testing.T, ch *hdf5.Group) {})
	assert.Equal(t, "999", fromName)

	none := readChannel(t, "batch_0.fast5", func(t *testing.T, ch *hdf5.Group) {})
	assert.Empty(t, none)
}

func TestChannelStoredEncodings(t *testing.T) {
	opaque := readChannel(t, "a.fast5", func(t *testing.T, ch *hdf5.Group) {
		require.NoError(t, ch.SetAttrRaw("channel_number", message.NewOpaqueDatatype(8, "channel"), packed(9)))
	})
	assert.Equal(t, "9", opaque)

	bigEndian := readChannel(t, "b.fast5", func(t *testing.T, ch *hdf5.Group) {
		dt := message.NewFixedPointDatatype(2, true, message.OrderBE)
		require.NoError(t, ch.SetAttrRaw("channel_number", dt, []byte{0x01, 0x02}))
	})
	assert.Equal(t, "258", bigEndian)

	packedString := readChannel(t, "c.fast5", func(t *testing.T, ch *hdf5.Group) {
		dt := message.NewStringDatatype(8, message.PadNullPad, message.CharsetASCII)
		require.NoError(t, ch.SetAttrRaw("channel_number", dt, packed(0x00, 0x2a)))
	})
	assert.Equal(t, "42", packedString)

	decimal := readChannel(t, "d.fast5", func(t *testing.T, ch *hdf5.Group) {
		mustAttr(t, ch, "channel_number", "0311")
	})
	assert.Equal(t, "311", decimal)

	varLen := readChannel(t, "e.fast5", func(t *testing.T, ch *hdf5.Group) {
		mustAttr(t, ch, "channel_number", hdf5.VarLenString("A1"))
	})
	assert.Equal(t, "A1", varLen)
}
