package fast5

import (
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/robert-malhotra/go-fast5/hdf5"
)

// attrSource is satisfied by *hdf5.Group and *hdf5.Dataset.
type attrSource interface {
	Path() string
	Attr(name string) *hdf5.Attribute
}

// attrReader decodes scalar attributes leniently: a missing or mistyped
// attribute yields the zero value and an ErrAttributeDecode debug line.
type attrReader struct {
	src attrSource
	log *zap.Logger
}

func (a attrReader) fail(name string, err error) {
	a.log.Debug("attribute unavailable",
		zap.String("object", a.src.Path()),
		zap.String("attribute", name),
		zap.Error(errors.Mark(err, ErrAttributeDecode)))
}

func (a attrReader) lookup(name string) (*hdf5.Attribute, bool) {
	attr := a.src.Attr(name)
	if attr == nil {
		a.fail(name, errors.Newf("%s: missing", name))
		return nil, false
	}
	return attr, true
}

func (a attrReader) text(name string) string {
	v, err := readStringAttr(a.src, name)
	if err != nil {
		a.fail(name, err)
		return ""
	}
	return v
}

func (a attrReader) integer(name string) int64 {
	attr, ok := a.lookup(name)
	if !ok {
		return 0
	}
	v, err := attr.ReadScalarInt64()
	if err != nil {
		a.fail(name, err)
		return 0
	}
	return v
}

func (a attrReader) unsigned(name string) uint64 {
	v := a.integer(name)
	if v < 0 {
		a.fail(name, errors.Newf("%s: negative value %d", name, v))
		return 0
	}
	return uint64(v)
}

func (a attrReader) number(name string) float64 {
	v, err := readFloatAttr(a.src, name)
	if err != nil {
		a.fail(name, err)
		return 0
	}
	return v
}

func (a attrReader) has(name string) bool {
	return a.src.Attr(name) != nil
}

// readFloatAttr reads a numeric attribute as float64. Text attributes
// holding a number, as some producers write, are parsed.
func readFloatAttr(src attrSource, name string) (float64, error) {
	attr := src.Attr(name)
	if attr == nil {
		return 0, errors.Wrapf(ErrAttributeDecode, "%s: missing", name)
	}
	if attr.IsString() {
		s, err := attr.ReadScalarString()
		if err != nil {
			return 0, errors.Mark(err, ErrAttributeDecode)
		}
		v, err := parseFloat(s)
		if err != nil {
			return 0, errors.Wrapf(ErrAttributeDecode, "%s: %v", name, err)
		}
		return v, nil
	}
	v, err := attr.ReadScalarFloat64()
	if err != nil {
		return 0, errors.Mark(err, ErrAttributeDecode)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Wrapf(ErrAttributeDecode, "%s: not finite", name)
	}
	return v, nil
}

func readStringAttr(src attrSource, name string) (string, error) {
	attr := src.Attr(name)
	if attr == nil {
		return "", errors.Wrapf(ErrAttributeDecode, "%s: missing", name)
	}
	v, err := attr.ReadScalarString()
	if err != nil {
		return "", errors.Mark(err, ErrAttributeDecode)
	}
	return strings.TrimRight(v, "\x00 "), nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimRight(strings.TrimSpace(s), "\x00"), 64)
}
