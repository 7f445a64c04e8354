package fast5

import (
	"path"

	"go.uber.org/zap"

	"github.com/robert-malhotra/go-fast5/hdf5"
)

// Enricher fills optional fields of a read while its Signal dataset is
// open. Enrichers never fail the read: a field that cannot be decoded is
// left at its zero value.
type Enricher interface {
	Enrich(f *hdf5.File, signal *hdf5.Dataset, md *ReadMetadata)
}

// EnricherFunc adapts a function to the Enricher interface.
type EnricherFunc func(f *hdf5.File, signal *hdf5.Dataset, md *ReadMetadata)

// Enrich calls fn.
func (fn EnricherFunc) Enrich(f *hdf5.File, signal *hdf5.Dataset, md *ReadMetadata) {
	fn(f, signal, md)
}

// DefaultEnrichers returns the chain used by NewReader: calibration,
// channel, run context, then storage layout.
func DefaultEnrichers() []Enricher {
	return []Enricher{
		CalibrationEnricher{},
		ChannelEnricher{},
		ContextEnricher{},
		StorageEnricher{},
	}
}

// CalibrationEnricher sets Calibration from the read's channel_id group.
type CalibrationEnricher struct{}

func (CalibrationEnricher) Enrich(f *hdf5.File, signal *hdf5.Dataset, md *ReadMetadata) {
	g := calibrationGroup(f, signal)
	if g == nil {
		return
	}
	md.Calibration = ReadCalibration(g)
	if !md.Calibration.Available {
		f.Logger().Debug("calibration incomplete", zap.String("group", g.Path()))
	}
}

// ChannelEnricher sets Channel from the channel_number attribute, falling
// back to a ch<digits> pattern in the file name.
type ChannelEnricher struct{}

const attrChannelNumber = "channel_number"

func (ChannelEnricher) Enrich(f *hdf5.File, signal *hdf5.Dataset, md *ReadMetadata) {
	if g := calibrationGroup(f, signal); g != nil {
		if attr := g.Attr(attrChannelNumber); attr != nil {
			if ch, ok := DecodeChannel(ChannelAttrFrom(attr)); ok {
				md.Channel = ch
				return
			}
			f.Logger().Debug("undecodable channel_number", zap.String("group", g.Path()))
		}
	}
	if ch, ok := ChannelFromFilename(md.FilePath); ok {
		md.Channel = ch
	}
}

// ContextEnricher sets RunID, StartTime, StartMux and MedianBefore.
//
// run_id is taken from the read group of a multi-read file, falling back to
// the tracking_id group of either dialect.
type ContextEnricher struct{}

func (ContextEnricher) Enrich(f *hdf5.File, signal *hdf5.Dataset, md *ReadMetadata) {
	readGroup, err := f.OpenGroup(path.Dir(signal.Path()))
	if err != nil {
		f.Logger().Debug("no read group", zap.String("signal", signal.Path()), zap.Error(err))
		return
	}
	a := attrReader{src: readGroup, log: f.Logger()}

	if a.has(attrStartTime) {
		md.StartTime = a.unsigned(attrStartTime)
		md.HasStartTime = true
	}
	md.StartMux = a.integer(attrStartMux)
	if a.has(attrMedianBefore) {
		md.MedianBefore = a.number(attrMedianBefore)
		md.HasMedianBefore = true
	}

	for _, p := range runIDSources(signal.Path()) {
		g, err := f.OpenGroup(p)
		if err != nil {
			continue
		}
		if id, err := readStringAttr(g, attrRunID); err == nil && id != "" {
			md.RunID = id
			return
		}
	}
}

// runIDSources lists, in order, the groups that may carry run_id for the
// read whose Signal dataset is at signalPath.
func runIDSources(signalPath string) []string {
	parts := hdf5.SplitPath(signalPath)
	if len(parts) == 3 {
		return []string{"/" + parts[0], "/" + path.Join(parts[0], trackingGroup)}
	}
	return []string{path.Join(globalKeyPath, trackingGroup)}
}

// StorageEnricher sets Storage from the Signal dataset's layout.
type StorageEnricher struct{}

func (StorageEnricher) Enrich(_ *hdf5.File, signal *hdf5.Dataset, md *ReadMetadata) {
	info := signal.Storage()
	md.Storage = Storage{Layout: info.Layout, Filters: info.Filters, Decodable: info.Decodable}
}

func calibrationGroup(f *hdf5.File, signal *hdf5.Dataset) *hdf5.Group {
	p, ok := CalibrationPath(signal.Path())
	if !ok {
		return nil
	}
	g, err := f.OpenGroup(p)
	if err != nil {
		f.Logger().Debug("no calibration group", zap.String("path", p), zap.Error(err))
		return nil
	}
	return g
}
