package fast5

import (
	"sort"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/robert-malhotra/go-fast5/hdf5"
)

// SignalRecord is the raw samples of one read.
type SignalRecord struct {
	ReadID  string
	Samples []int16
}

// ReadSignal returns the samples of readID in path, or of the first read in
// native order when readID is empty. A missing read fails with
// ErrReadNotFound.
func ReadSignal(path, readID string) ([]int16, error) {
	return NewReader().ReadSignal(path, readID)
}

// ReadSignal is the logging variant of the package-level ReadSignal.
func (r *Reader) ReadSignal(path, readID string) ([]int16, error) {
	var ids []string
	if readID != "" {
		ids = []string{readID}
	}
	recs, err := r.readSignals(path, ids, readID == "")
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, errors.Wrapf(ErrReadNotFound, "%s: no reads", path)
	}
	return recs[0].Samples, nil
}

// ReadSignals reads several reads from one file under a single handle. With
// no ids every read is returned in native order; otherwise records follow
// the order of ids. Ids that are not present are reported in an error
// matching ErrReadNotFound alongside the records that were found.
func (r *Reader) ReadSignals(path string, ids []string) ([]SignalRecord, error) {
	return r.readSignals(path, ids, false)
}

func (r *Reader) readSignals(path string, ids []string, firstOnly bool) ([]SignalRecord, error) {
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

	wanted := make(map[string]int, len(ids))
	for i, id := range ids {
		wanted[id] = i
	}
	found := make([]*SignalRecord, len(ids))
	var all []SignalRecord

	for _, ref := range refs {
		id, _ := readStringAttr(ref.attrs, attrReadID)
		slot, want := wanted[id]
		if len(ids) > 0 && !want {
			continue
		}

		samples, err := readSamples(f, ref.signalPath)
		if err != nil {
			if errors.Is(err, ErrAllocation) {
				return nil, err
			}
			r.log.Warn("cannot read signal",
				zap.String("file", path), zap.String("read_id", id), zap.Error(err))
			continue
		}

		rec := SignalRecord{ReadID: id, Samples: samples}
		if len(ids) == 0 {
			all = append(all, rec)
			if firstOnly {
				break
			}
			continue
		}
		found[slot] = &rec
		delete(wanted, id)
		if len(wanted) == 0 {
			break
		}
	}

	if len(ids) == 0 {
		return all, nil
	}

	out := make([]SignalRecord, 0, len(ids))
	var missing []string
	for i, rec := range found {
		if rec == nil {
			missing = append(missing, ids[i])
			continue
		}
		out = append(out, *rec)
	}
	if len(missing) > 0 {
		return out, errors.Wrapf(ErrReadNotFound, "%s: %v", path, missing)
	}
	return out, nil
}

// ReadSamples returns the samples of each record produced by ReadFile,
// located through its FilePath and SignalPath. out[i] belongs to reads[i]
// and is nil when that signal cannot be read, which is logged. Reads
// without a read_id are therefore never confused with each other.
func (r *Reader) ReadSamples(reads []ReadMetadata) ([][]int16, error) {
	out := make([][]int16, len(reads))
	var f *hdf5.File
	defer func() {
		if f != nil {
			f.Close()
		}
	}()
	for i, md := range reads {
		if md.SignalPath == "" {
			r.log.Warn("read has no signal path", zap.String("file", md.FilePath), zap.String("read_id", md.ReadID))
			continue
		}
		if f == nil || f.Path() != md.FilePath {
			if f != nil {
				f.Close()
				f = nil
			}
			opened, err := openContainer(md.FilePath, r.log)
			if err != nil {
				return out, err
			}
			f = opened
		}
		samples, err := readSamples(f, md.SignalPath)
		if err != nil {
			r.log.Warn("cannot read signal",
				zap.String("file", md.FilePath), zap.String("signal", md.SignalPath), zap.Error(err))
			continue
		}
		out[i] = samples
	}
	return out, nil
}

func readSamples(f *hdf5.File, signalPath string) ([]int16, error) {
	ds, err := f.OpenDataset(signalPath)
	if err != nil {
		return nil, err
	}
	if n := ds.NumElements(); n > MaxSignalLength {
		return nil, errors.Wrapf(ErrAllocation, "%s declares %d samples", signalPath, n)
	}
	samples, err := ds.ReadInt16()
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", signalPath)
	}
	return samples, nil
}

// MedianMAD returns the median and the median absolute deviation of
// values. Both are 0 for an empty input. values is not modified.
func MedianMAD(values []float64) (median, mad float64) {
	if len(values) == 0 {
		return 0, 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	median = medianSorted(sorted)

	for i, v := range sorted {
		d := v - median
		if d < 0 {
			d = -d
		}
		sorted[i] = d
	}
	sort.Float64s(sorted)
	return median, medianSorted(sorted)
}

func medianSorted(s []float64) float64 {
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// Picoamps converts samples with cal.
func Picoamps(samples []int16, cal Calibration) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = cal.ToPicoamps(s)
	}
	return out
}
