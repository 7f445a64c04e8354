package fast5

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/robert-malhotra/go-fast5/hdf5"
)

type writeConfig struct {
	runID       string
	flowCellID  string
	deviceID    string
	sampleID    string
	channel     string
	calibration Calibration
	startMux    uint8
	fileVersion string
	compression string
	level       int
	log         *zap.Logger
}

func defaultWriteConfig() *writeConfig {
	return &writeConfig{
		runID:       strings.ReplaceAll(uuid.NewString(), "-", ""),
		flowCellID:  "FAKE00001",
		deviceID:    "MN00000",
		sampleID:    "sample",
		channel:     "1",
		calibration: DefaultCalibration,
		startMux:    1,
		log:         zap.NewNop(),
	}
}

// WithRunID sets the run_id written to every read. The default is a random
// UUID without dashes.
func WithRunID(id string) WriteOption {
	return writeOptionFunc(func(c *writeConfig) { c.runID = id })
}

// WithFlowCellID sets tracking_id/flow_cell_id.
func WithFlowCellID(id string) WriteOption {
	return writeOptionFunc(func(c *writeConfig) { c.flowCellID = id })
}

// WithDeviceID sets tracking_id/device_id.
func WithDeviceID(id string) WriteOption {
	return writeOptionFunc(func(c *writeConfig) { c.deviceID = id })
}

// WithSampleID sets tracking_id/sample_id.
func WithSampleID(id string) WriteOption {
	return writeOptionFunc(func(c *writeConfig) { c.sampleID = id })
}

// WithChannel sets channel_id/channel_number.
func WithChannel(ch string) WriteOption {
	return writeOptionFunc(func(c *writeConfig) { c.channel = ch })
}

// WithCalibration sets the offset, range and digitisation written to
// channel_id.
func WithCalibration(cal Calibration) WriteOption {
	return writeOptionFunc(func(c *writeConfig) {
		cal.Available = true
		c.calibration = cal
	})
}

// WithStartMux sets start_mux on every read.
func WithStartMux(mux uint8) WriteOption {
	return writeOptionFunc(func(c *writeConfig) { c.startMux = mux })
}

// WithFileVersion overrides the file_version root attribute. The default
// is 2.2 for multi-read and 2.0 for single-read files.
func WithFileVersion(v string) WriteOption {
	return writeOptionFunc(func(c *writeConfig) { c.fileVersion = v })
}

// Signal compression codecs accepted by WithCompression.
const (
	CompressionNone = "none"
	CompressionGzip = "gzip"
	CompressionZstd = "zstd"
	CompressionLZ4  = "lz4"
)

// WithCompression stores every Signal dataset as a single shuffled and
// compressed chunk. Level 0 selects the codec default; lz4 ignores it.
func WithCompression(codec string, level int) WriteOption {
	return writeOptionFunc(func(c *writeConfig) {
		c.compression = strings.ToLower(codec)
		c.level = level
	})
}

// signalOptions maps the configured codec to dataset options.
func (c *writeConfig) signalOptions() ([]hdf5.DatasetOption, error) {
	switch c.compression {
	case "", CompressionNone:
		return nil, nil
	case CompressionGzip, "deflate":
		level := c.level
		if level == 0 {
			level = 6
		}
		if level < 1 || level > 9 {
			return nil, errors.Newf("gzip level must be 1 to 9, got %d", level)
		}
		return []hdf5.DatasetOption{hdf5.WithShuffle(), hdf5.WithDeflate(level)}, nil
	case CompressionZstd:
		if c.level < 0 || c.level > 22 {
			return nil, errors.Newf("zstd level must be 0 to 22, got %d", c.level)
		}
		return []hdf5.DatasetOption{hdf5.WithShuffle(), hdf5.WithZstd(c.level)}, nil
	case CompressionLZ4:
		return []hdf5.DatasetOption{hdf5.WithShuffle(), hdf5.WithLZ4()}, nil
	}
	return nil, errors.WithHint(
		errors.Newf("unknown compression %q", c.compression),
		"use none, gzip, zstd or lz4")
}

// Write creates a container at path holding signals, one read per buffer,
// named by the matching entry of names. An empty name gets a random UUID.
// Single-read containers take exactly one read.
//
// The file is built under a temporary name in the destination directory
// and renamed over path only once complete; on any failure the temporary
// file is removed and path is left untouched.
func Write(path string, dialect Dialect, signals [][]int16, names []string, sampleRate float64, opts ...WriteOption) (err error) {
	cfg := defaultWriteConfig()
	for _, opt := range opts {
		opt.applyWrite(cfg)
	}

	switch {
	case len(signals) != len(names):
		return errors.Newf("%d signals but %d names", len(signals), len(names))
	case len(signals) == 0:
		return errors.New("no reads to write")
	case dialect == SingleRead && len(signals) != 1:
		return errors.WithHint(
			errors.Newf("single-read container takes 1 read, got %d", len(signals)),
			"write one file per read or use the multi-read dialect")
	case dialect != SingleRead && dialect != MultiRead:
		return errors.Wrapf(ErrUnrecognizedDialect, "cannot write %s", dialect)
	case !(sampleRate > 0):
		return errors.Newf("sample rate must be positive, got %v", sampleRate)
	}
	signalOpts, err := cfg.signalOptions()
	if err != nil {
		return err
	}
	if cfg.fileVersion == "" {
		cfg.fileVersion = "2.2"
		if dialect == SingleRead {
			cfg.fileVersion = "2.0"
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "creating temporary file")
	}
	tmpPath := tmp.Name()
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "creating temporary file")
	}
	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	f, err := hdf5.Create(tmpPath, hdf5.WithLogger(cfg.log))
	if err != nil {
		return errors.Wrapf(err, "creating %s", tmpPath)
	}

	w := &containerWriter{
		f:          f,
		cfg:        cfg,
		sampleRate: sampleRate,
		signalOpts: signalOpts,
		filename:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}
	if err := w.build(dialect, signals, names); err != nil {
		f.Close()
		return errors.Wrapf(err, "building %s", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "finishing %s", path)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.Wrapf(err, "renaming into %s", path)
	}

	cfg.log.Debug("wrote container",
		zap.String("path", path),
		zap.Stringer("dialect", dialect),
		zap.Int("reads", len(signals)),
		zap.String("run_id", cfg.runID),
		zap.String("compression", cfg.compression))
	return nil
}

type containerWriter struct {
	f          *hdf5.File
	cfg        *writeConfig
	sampleRate float64
	signalOpts []hdf5.DatasetOption
	filename   string
}

func (w *containerWriter) build(dialect Dialect, signals [][]int16, names []string) error {
	root := w.f.Root()
	err := setAttrs(root, []attr{
		{attrFileVersion, w.cfg.fileVersion},
		{attrFileType, dialect.String()},
	})
	if err != nil {
		return err
	}

	var startTime uint64
	for i, samples := range signals {
		id := names[i]
		if id == "" {
			id = uuid.NewString()
		}
		rd := readAttrs{
			id:        id,
			number:    int32(i + 1),
			startTime: startTime,
			samples:   samples,
		}
		startTime += uint64(len(samples))

		if dialect == MultiRead {
			err = w.multiRead(root, rd)
		} else {
			err = w.singleRead(root, rd)
		}
		if err != nil {
			return errors.Wrapf(err, "read %s", id)
		}
	}
	return nil
}

type readAttrs struct {
	id        string
	number    int32
	startTime uint64
	samples   []int16
}

func (w *containerWriter) multiRead(root *hdf5.Group, rd readAttrs) error {
	g, err := root.CreateGroup(multiReadPrefix + rd.id)
	if err != nil {
		return err
	}
	if err := g.SetAttr(attrRunID, hdf5.VarLenString(w.cfg.runID)); err != nil {
		return err
	}
	raw, err := g.CreateGroup(rawGroup)
	if err != nil {
		return err
	}
	if err := w.readGroup(raw, rd, hdf5.VarLenString(rd.id)); err != nil {
		return err
	}
	return w.runGroups(g)
}

func (w *containerWriter) singleRead(root *hdf5.Group, rd readAttrs) error {
	raw, err := root.RequireGroup(rawGroup)
	if err != nil {
		return err
	}
	reads, err := raw.RequireGroup("Reads")
	if err != nil {
		return err
	}
	g, err := reads.CreateGroup("Read_" + strconv.Itoa(int(rd.number)))
	if err != nil {
		return err
	}
	if err := w.readGroup(g, rd, rd.id); err != nil {
		return err
	}
	key, err := root.RequireGroup(strings.TrimPrefix(globalKeyPath, "/"))
	if err != nil {
		return err
	}
	return w.runGroups(key)
}

// attr is one attribute to write.
type attr struct {
	name  string
	value interface{}
}

func setAttrs(g *hdf5.Group, attrs []attr) error {
	for _, a := range attrs {
		if err := g.SetAttr(a.name, a.value); err != nil {
			return errors.Wrapf(err, "%s@%s", g.Path(), a.name)
		}
	}
	return nil
}

// readGroup writes the per-read attributes and the Signal dataset.
func (w *containerWriter) readGroup(g *hdf5.Group, rd readAttrs, id interface{}) error {
	median, _ := MedianMAD(Picoamps(rd.samples, w.cfg.calibration))

	err := setAttrs(g, []attr{
		{attrReadID, id},
		{attrReadNumber, rd.number},
		{attrStartTime, rd.startTime},
		{attrDuration, uint32(len(rd.samples))},
		{attrStartMux, w.cfg.startMux},
		{attrMedianBefore, median},
	})
	if err != nil {
		return err
	}

	samples := rd.samples
	if samples == nil {
		samples = []int16{}
	}
	_, err = g.CreateDataset(signalDataset, samples, w.signalOpts...)
	return err
}

// runGroups writes channel_id, context_tags and tracking_id under parent
// unless they already exist.
func (w *containerWriter) runGroups(parent *hdf5.Group) error {
	if parent.HasChild(channelGroup) {
		return nil
	}
	cal := w.cfg.calibration

	groups := []struct {
		name  string
		attrs []attr
	}{
		{channelGroup, []attr{
			{attrChannelNumber, w.cfg.channel},
			{attrOffset, cal.Offset},
			{attrRange, cal.Range},
			{attrDigitisation, cal.Digitisation},
			{attrSamplingRate, w.sampleRate},
		}},
		{contextGroup, []attr{
			{"filename", w.filename},
			{"sample_frequency", strconv.FormatFloat(w.sampleRate, 'f', -1, 64)},
		}},
		{trackingGroup, []attr{
			{attrRunID, w.cfg.runID},
			{"flow_cell_id", w.cfg.flowCellID},
			{"device_id", w.cfg.deviceID},
			{"sample_id", w.cfg.sampleID},
		}},
	}

	for _, spec := range groups {
		g, err := parent.CreateGroup(spec.name)
		if err != nil {
			return err
		}
		if err := setAttrs(g, spec.attrs); err != nil {
			return err
		}
	}
	return nil
}
