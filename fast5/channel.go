package fast5

import (
	"encoding/binary"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/robert-malhotra/go-fast5/hdf5"
	"github.com/robert-malhotra/go-fast5/internal/message"
)

// AttrClass is the storage class of an attribute as far as channel decoding
// is concerned.
type AttrClass int

const (
	ClassOther AttrClass = iota
	ClassInteger
	ClassFloat
	ClassString
	ClassOpaque
)

// ChannelAttr captures everything the channel decoder needs from a
// channel_number attribute.
type ChannelAttr struct {
	Class  AttrClass
	Size   int  // declared element size in bytes
	Signed bool // integers only
	VarLen bool // variable-length strings

	// Int is the decoded value of integer attributes.
	Int int64
	// Text is the decoded value of string attributes.
	Text string
	// Raw is the stored bytes. For variable-length strings these are heap
	// references and carry no meaning.
	Raw []byte
}

// ChannelAttrFrom captures a stored attribute. Decoding failures leave the
// corresponding value field empty.
func ChannelAttrFrom(a *hdf5.Attribute) ChannelAttr {
	ca := ChannelAttr{
		Size:   a.DtypeSize(),
		Signed: a.IsSigned(),
		VarLen: a.IsVarLenString(),
		Raw:    a.Bytes(),
	}
	switch {
	case a.IsString():
		ca.Class = ClassString
		if s, err := a.ReadScalarString(); err == nil {
			ca.Text = s
		}
	case a.DtypeClass() == message.ClassFixedPoint:
		ca.Class = ClassInteger
		if v, err := a.ReadScalarInt64(); err == nil {
			ca.Int = v
		}
	case a.DtypeClass() == message.ClassFloatPoint:
		ca.Class = ClassFloat
	case a.DtypeClass() == message.ClassOpaque:
		ca.Class = ClassOpaque
	}
	return ca
}

// channelStrategy is one way of reading a channel number.
type channelStrategy func(ChannelAttr) (string, bool)

// channelStrategies are tried in order; the first success wins.
var channelStrategies = []channelStrategy{
	channelFromInteger,
	channelFromDecimalText,
	channelFromPackedInteger,
	channelFromShortString,
}

// Plausible channel numbers for packed integers.
const (
	minPackedChannel = 1
	maxPackedChannel = 1000
)

// DecodeChannel returns the channel identifier stored in attr.
func DecodeChannel(attr ChannelAttr) (string, bool) {
	for _, s := range channelStrategies {
		if ch, ok := s(attr); ok {
			return ch, true
		}
	}
	return "", false
}

func channelFromInteger(a ChannelAttr) (string, bool) {
	if a.Class != ClassInteger || !a.Signed {
		return "", false
	}
	return strconv.FormatInt(a.Int, 10), true
}

func channelFromDecimalText(a ChannelAttr) (string, bool) {
	if a.Class != ClassString || a.VarLen {
		return "", false
	}
	s := trimText(a.Text)
	if s == "" || !isDigits(s) {
		return "", false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return "", false
	}
	return strconv.FormatInt(v, 10), true
}

func channelFromPackedInteger(a ChannelAttr) (string, bool) {
	if (a.Class != ClassString && a.Class != ClassOpaque) || a.VarLen || a.Size != 8 || len(a.Raw) < 8 {
		return "", false
	}
	b := a.Raw
	candidates := []uint32{
		uint32(binary.LittleEndian.Uint16(b)),
		uint32(binary.BigEndian.Uint16(b)),
		binary.LittleEndian.Uint32(b),
		binary.BigEndian.Uint32(b),
	}
	for _, v := range candidates {
		if v >= minPackedChannel && v < maxPackedChannel {
			return strconv.FormatUint(uint64(v), 10), true
		}
	}
	return "", false
}

func channelFromShortString(a ChannelAttr) (string, bool) {
	if a.Class != ClassString || (!a.VarLen && a.Size == 8) {
		return "", false
	}
	s := trimText(a.Text)
	if len(s) < 1 || len(s) > 16 || !isPrintable(s) {
		return "", false
	}
	return s, true
}

var filenameChannel = regexp.MustCompile(`ch(\d+)`)

// ChannelFromFilename extracts the channel from a ch<digits> substring of
// the file's base name.
func ChannelFromFilename(path string) (string, bool) {
	m := filenameChannel.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return "", false
	}
	v, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil {
		return "", false
	}
	return strconv.FormatUint(v, 10), true
}

func trimText(s string) string {
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isPrintable(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return false
		}
	}
	return true
}
