package fast5

import (
	"path"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/robert-malhotra/go-fast5/hdf5"
)

// ReadMetadata describes one read. Fields after FilePath are filled by
// enrichers and keep their zero value when the enrichment did not apply.
type ReadMetadata struct {
	ReadID       string  `json:"read_id" yaml:"read_id"`
	SignalLength uint64  `json:"signal_length" yaml:"signal_length"`
	SampleRate   float64 `json:"sample_rate" yaml:"sample_rate"`
	Duration     uint64  `json:"duration" yaml:"duration"`
	ReadNumber   int64   `json:"read_number" yaml:"read_number"`
	IsMultiRead  bool    `json:"is_multi_read" yaml:"is_multi_read"`
	FilePath     string  `json:"file_path" yaml:"file_path"`
	// SignalPath is the HDF5 path of the read's Signal dataset in FilePath.
	SignalPath string `json:"signal_path" yaml:"signal_path"`

	Channel         string      `json:"channel,omitempty" yaml:"channel,omitempty"`
	Calibration     Calibration `json:"calibration" yaml:"calibration"`
	RunID           string      `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	StartTime       uint64      `json:"start_time" yaml:"start_time"`
	HasStartTime    bool        `json:"-" yaml:"-"`
	StartMux        int64       `json:"start_mux" yaml:"start_mux"`
	MedianBefore    float64     `json:"median_before" yaml:"median_before"`
	HasMedianBefore bool        `json:"-" yaml:"-"`
	Storage         Storage     `json:"storage" yaml:"storage"`
}

// Storage describes how a read's Signal dataset is stored.
type Storage struct {
	Layout    string   `json:"layout" yaml:"layout"`
	Filters   []string `json:"filters,omitempty" yaml:"filters,omitempty"`
	Decodable bool     `json:"decodable" yaml:"decodable"`
}

// Compressed reports whether any filter is applied to the signal.
func (s Storage) Compressed() bool {
	return len(s.Filters) > 0
}

// Dialect returns the dialect the read was found in.
func (m ReadMetadata) Dialect() Dialect {
	if m.IsMultiRead {
		return MultiRead
	}
	return SingleRead
}

// Per-read attribute names.
const (
	attrReadID       = "read_id"
	attrReadNumber   = "read_number"
	attrDuration     = "duration"
	attrStartTime    = "start_time"
	attrStartMux     = "start_mux"
	attrMedianBefore = "median_before"
	attrRunID        = "run_id"
	attrSamplingRate = "sampling_rate"

	signalDataset = "Signal"
	channelGroup  = "channel_id"
	contextGroup  = "context_tags"
	trackingGroup = "tracking_id"
	rawGroup      = "Raw"
)

// Reader extracts per-read metadata and samples from containers. A Reader
// holds no per-file state and may be used from several goroutines.
type Reader struct {
	enrichers []Enricher
	log       *zap.Logger
}

// NewReader returns a Reader using DefaultEnrichers unless WithEnrichers is
// given.
func NewReader(opts ...ReaderOption) *Reader {
	cfg := &readerConfig{enrichers: DefaultEnrichers(), log: zap.NewNop()}
	for _, opt := range opts {
		opt.applyReader(cfg)
	}
	return &Reader{enrichers: cfg.enrichers, log: cfg.log}
}

// readRef locates one read inside an open container.
type readRef struct {
	// attrs is the group carrying read_id, read_number and friends.
	attrs *hdf5.Group
	// signalPath is the absolute path of the read's Signal dataset.
	signalPath string
	// rateGroup holds sampling_rate for this read.
	rateGroup string
}

// listReads enumerates the reads of f in native member order.
func listReads(f *hdf5.File, dialect Dialect) ([]readRef, error) {
	switch dialect {
	case MultiRead:
		children, err := f.Root().Children()
		if err != nil {
			return nil, errors.Wrap(err, "listing root")
		}
		var refs []readRef
		for _, c := range children {
			if c.Kind != hdf5.KindGroup || !strings.HasPrefix(c.Name, multiReadPrefix) {
				continue
			}
			base := "/" + c.Name
			raw, err := f.OpenGroup(base + "/" + rawGroup)
			if err != nil {
				f.Logger().Warn("skipping read without Raw group", zap.String("read", base), zap.Error(err))
				continue
			}
			refs = append(refs, readRef{
				attrs:      raw,
				signalPath: raw.Path() + "/" + signalDataset,
				rateGroup:  base + "/" + channelGroup,
			})
		}
		return refs, nil

	case SingleRead:
		reads, err := f.OpenGroup(singleReadsPath)
		if err != nil {
			return nil, errors.Wrapf(err, "opening %s", singleReadsPath)
		}
		children, err := reads.Children()
		if err != nil {
			return nil, errors.Wrapf(err, "listing %s", singleReadsPath)
		}
		var refs []readRef
		for _, c := range children {
			if c.Kind != hdf5.KindGroup {
				continue
			}
			g, err := reads.OpenGroup(c.Name)
			if err != nil {
				f.Logger().Warn("skipping unreadable read group", zap.String("read", c.Name), zap.Error(err))
				continue
			}
			refs = append(refs, readRef{
				attrs:      g,
				signalPath: g.Path() + "/" + signalDataset,
				rateGroup:  globalKeyPath + "/" + channelGroup,
			})
		}
		return refs, nil
	}
	return nil, errors.Wrapf(ErrUnrecognizedDialect, "%s", f.Path())
}

// ReadFile returns the metadata of every read in path, in native order.
// Reads whose Signal dataset cannot be opened are skipped with a warning.
func (r *Reader) ReadFile(path string) ([]ReadMetadata, error) {
	f, err := openContainer(path, r.log)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dialect, err := Detect(f)
	if err != nil {
		return nil, err
	}
	refs, err := listReads(f, dialect)
	if err != nil {
		return nil, err
	}

	reads := make([]ReadMetadata, 0, len(refs))
	for _, ref := range refs {
		md, ok := r.readOne(f, dialect, ref)
		if ok {
			reads = append(reads, md)
		}
	}

	if dialect == SingleRead {
		r.backfillSampleRate(f, reads)
	}

	r.log.Debug("read file metadata",
		zap.String("path", path),
		zap.Stringer("dialect", dialect),
		zap.Int("reads", len(reads)))
	return reads, nil
}

func (r *Reader) readOne(f *hdf5.File, dialect Dialect, ref readRef) (ReadMetadata, bool) {
	md := ReadMetadata{
		FilePath:    f.Path(),
		SignalPath:  ref.signalPath,
		IsMultiRead: dialect == MultiRead,
	}

	a := attrReader{src: ref.attrs, log: r.log}
	md.ReadID = a.text(attrReadID)
	md.ReadNumber = a.integer(attrReadNumber)
	md.Duration = a.unsigned(attrDuration)

	if dialect == MultiRead {
		if g, err := f.OpenGroup(ref.rateGroup); err == nil {
			md.SampleRate = attrReader{src: g, log: r.log}.number(attrSamplingRate)
		} else {
			r.log.Debug("no channel group", zap.String("path", ref.rateGroup), zap.Error(err))
		}
	}

	ds, err := f.OpenDataset(ref.signalPath)
	if err != nil {
		r.log.Warn("skipping read without signal",
			zap.String("file", f.Path()),
			zap.String("signal", ref.signalPath),
			zap.Error(err))
		return md, false
	}
	n := ds.NumElements()
	if n > MaxSignalLength {
		r.log.Error("skipping read",
			zap.String("signal", ref.signalPath),
			zap.Error(errors.Wrapf(ErrAllocation, "%d samples", n)))
		return md, false
	}
	md.SignalLength = n

	for _, e := range r.enrichers {
		e.Enrich(f, ds, &md)
	}
	return md, true
}

// backfillSampleRate applies the file-wide sampling_rate of a single-read
// file to every record still missing one.
func (r *Reader) backfillSampleRate(f *hdf5.File, reads []ReadMetadata) {
	g, err := f.OpenGroup(path.Join(globalKeyPath, channelGroup))
	if err != nil {
		r.log.Debug("no global channel group", zap.String("file", f.Path()), zap.Error(err))
		return
	}
	rate := attrReader{src: g, log: r.log}.number(attrSamplingRate)
	for i := range reads {
		if reads[i].SampleRate == 0 {
			reads[i].SampleRate = rate
		}
	}
}
