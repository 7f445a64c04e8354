package fast5

import (
	"math"
	"path"
	"strings"

	"github.com/robert-malhotra/go-fast5/hdf5"
)

// Calibration holds the coefficients that convert raw ADC samples to
// picoamps. Available is set only when all three were read.
type Calibration struct {
	Offset       float64 `json:"offset" yaml:"offset"`
	Range        float64 `json:"range" yaml:"range"`
	Digitisation float64 `json:"digitisation" yaml:"digitisation"`
	Available    bool    `json:"available" yaml:"available"`
}

const (
	attrOffset       = "offset"
	attrRange        = "range"
	attrDigitisation = "digitisation"
)

// DefaultCalibration is the calibration the writer emits when none is
// given. It is typical of MinION flow cells.
var DefaultCalibration = Calibration{Offset: 0, Range: 1400, Digitisation: 8192, Available: true}

// Scale returns range/digitisation, or 0 when the calibration is unusable.
func (c Calibration) Scale() float64 {
	if !c.Available || c.Digitisation == 0 {
		return 0
	}
	return c.Range / c.Digitisation
}

// ToPicoamps converts a raw sample: (raw + offset) * range / digitisation.
// Without a usable calibration the raw value is returned unchanged.
func (c Calibration) ToPicoamps(raw int16) float64 {
	scale := c.Scale()
	if scale == 0 {
		return float64(raw)
	}
	return (float64(raw) + c.Offset) * scale
}

// Digitise is the inverse of ToPicoamps, rounded to the nearest sample and
// clamped to the int16 range.
func (c Calibration) Digitise(pA float64) int16 {
	scale := c.Scale()
	raw := pA
	if scale != 0 {
		raw = pA/scale - c.Offset
	}
	raw = math.Round(raw)
	switch {
	case raw > math.MaxInt16:
		return math.MaxInt16
	case raw < math.MinInt16:
		return math.MinInt16
	}
	return int16(raw)
}

// CalibrationPath derives the calibration group that belongs to a Signal
// dataset: /read_X/Raw/Signal maps to /read_X/channel_id and
// /Raw/Reads/Read_N/Signal maps to /UniqueGlobalKey/channel_id. The second
// result is false for paths of neither shape.
func CalibrationPath(signalPath string) (string, bool) {
	parts := hdf5.SplitPath(signalPath)
	switch {
	case len(parts) == 3 && strings.HasPrefix(parts[0], multiReadPrefix) && parts[1] == rawGroup:
		return "/" + path.Join(parts[0], channelGroup), true
	case len(parts) == 4 && "/"+path.Join(parts[0], parts[1]) == singleReadsPath:
		return path.Join(globalKeyPath, channelGroup), true
	}
	return "", false
}

// ReadCalibration reads offset, range and digitisation from g. Any missing
// or undecodable coefficient yields the zero Calibration.
func ReadCalibration(g *hdf5.Group) Calibration {
	if g == nil {
		return Calibration{}
	}
	offset, err := readFloatAttr(g, attrOffset)
	if err != nil {
		return Calibration{}
	}
	rng, err := readFloatAttr(g, attrRange)
	if err != nil {
		return Calibration{}
	}
	dig, err := readFloatAttr(g, attrDigitisation)
	if err != nil {
		return Calibration{}
	}
	return Calibration{Offset: offset, Range: rng, Digitisation: dig, Available: true}
}
