package fast5

import (
	"math"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"
)

// FileResult is the outcome of reading one file.
type FileResult struct {
	Path  string
	Reads []ReadMetadata
	Err   error
	// Size is the file size in bytes, 0 when it could not be determined.
	Size int64
}

// Failed reports whether the file counts as failed: it errored or held no
// reads.
func (r FileResult) Failed() bool {
	return r.Err != nil || len(r.Reads) == 0
}

// Experiment summarises the reads of one run_id.
type Experiment struct {
	RunID string `json:"run_id" yaml:"run_id"`
	Files int    `json:"files" yaml:"files"`
	Reads int    `json:"reads" yaml:"reads"`

	Sensors              int     `json:"sensors" yaml:"sensors"`
	MinReadsPerSensor    int     `json:"min_reads_per_sensor" yaml:"min_reads_per_sensor"`
	MaxReadsPerSensor    int     `json:"max_reads_per_sensor" yaml:"max_reads_per_sensor"`
	AvgReadsPerSensor    float64 `json:"avg_reads_per_sensor" yaml:"avg_reads_per_sensor"`
	MostProductiveSensor string  `json:"most_productive_sensor,omitempty" yaml:"most_productive_sensor,omitempty"`

	MinStartTime    uint64  `json:"min_start_time" yaml:"min_start_time"`
	MaxStartTime    uint64  `json:"max_start_time" yaml:"max_start_time"`
	AvgSampleRate   float64 `json:"avg_sample_rate" yaml:"avg_sample_rate"`
	DurationSeconds float64 `json:"duration_seconds" yaml:"duration_seconds"`
	DurationMinutes float64 `json:"duration_minutes" yaml:"duration_minutes"`

	ReadsPerMinute          float64 `json:"reads_per_minute" yaml:"reads_per_minute"`
	ReadsPerSensorPerMinute float64 `json:"reads_per_sensor_per_minute" yaml:"reads_per_sensor_per_minute"`
}

// experimentAcc accumulates one run.
type experimentAcc struct {
	files     map[string]struct{}
	reads     int
	sensors   map[string]int
	minStart  uint64
	maxStart  uint64
	hasStart  bool
	rateSum   float64
	rateCount int
}

func newExperimentAcc() *experimentAcc {
	return &experimentAcc{
		files:   make(map[string]struct{}),
		sensors: make(map[string]int),
	}
}

func (e *experimentAcc) merge(o *experimentAcc) {
	for f := range o.files {
		e.files[f] = struct{}{}
	}
	e.reads += o.reads
	for ch, n := range o.sensors {
		e.sensors[ch] += n
	}
	if o.hasStart {
		e.observeStart(o.minStart)
		e.observeStart(o.maxStart)
	}
	e.rateSum += o.rateSum
	e.rateCount += o.rateCount
}

func (e *experimentAcc) observeStart(t uint64) {
	if !e.hasStart {
		e.minStart, e.maxStart, e.hasStart = t, t, true
		return
	}
	if t < e.minStart {
		e.minStart = t
	}
	if t > e.maxStart {
		e.maxStart = t
	}
}

func (e *experimentAcc) summary(runID string) Experiment {
	ex := Experiment{
		RunID:        runID,
		Files:        len(e.files),
		Reads:        e.reads,
		Sensors:      len(e.sensors),
		MinStartTime: e.minStart,
		MaxStartTime: e.maxStart,
	}

	channels := make([]string, 0, len(e.sensors))
	for ch := range e.sensors {
		channels = append(channels, ch)
	}
	sort.Strings(channels)
	sensorReads := 0
	for i, ch := range channels {
		n := e.sensors[ch]
		sensorReads += n
		if i == 0 || n < ex.MinReadsPerSensor {
			ex.MinReadsPerSensor = n
		}
		if n > ex.MaxReadsPerSensor {
			ex.MaxReadsPerSensor = n
			ex.MostProductiveSensor = ch
		}
	}
	if ex.Sensors > 0 {
		ex.AvgReadsPerSensor = float64(sensorReads) / float64(ex.Sensors)
	}

	if e.rateCount > 0 {
		ex.AvgSampleRate = e.rateSum / float64(e.rateCount)
	}
	if e.hasStart && ex.AvgSampleRate > 0 {
		ex.DurationSeconds = float64(e.maxStart-e.minStart) / ex.AvgSampleRate
		ex.DurationMinutes = ex.DurationSeconds / 60
	}
	if ex.DurationMinutes > 0 {
		ex.ReadsPerMinute = float64(ex.Reads) / ex.DurationMinutes
		if ex.Sensors > 0 {
			ex.ReadsPerSensorPerMinute = ex.ReadsPerMinute / float64(ex.Sensors)
		}
	}
	return ex
}

// Statistics accumulates dataset-wide totals over FileResults. The zero
// value is not usable; call NewStatistics. A Statistics is not safe for
// concurrent use: parallel folds build one per worker and Merge them.
type Statistics struct {
	SuccessfulFiles int `json:"successful_files" yaml:"successful_files"`
	FailedFiles     int `json:"failed_files" yaml:"failed_files"`

	TotalReads      int     `json:"total_reads" yaml:"total_reads"`
	TotalSamples    uint64  `json:"total_samples" yaml:"total_samples"`
	MinSignalLength uint64  `json:"min_signal_length" yaml:"min_signal_length"`
	MaxSignalLength uint64  `json:"max_signal_length" yaml:"max_signal_length"`
	DurationSeconds float64 `json:"total_duration_seconds" yaml:"total_duration_seconds"`
	TotalFileBytes  int64   `json:"total_file_bytes" yaml:"total_file_bytes"`

	MinSampleRate     float64 `json:"min_sample_rate" yaml:"min_sample_rate"`
	MaxSampleRate     float64 `json:"max_sample_rate" yaml:"max_sample_rate"`
	AvgSampleRate     float64 `json:"avg_sample_rate" yaml:"avg_sample_rate"`
	UniformSampleRate bool    `json:"uniform_sample_rate" yaml:"uniform_sample_rate"`

	MedianBeforeSum   float64 `json:"median_before_sum" yaml:"median_before_sum"`
	MedianBeforeCount int     `json:"median_before_count" yaml:"median_before_count"`
	DuplicateReadIDs  int     `json:"duplicate_read_ids" yaml:"duplicate_read_ids"`

	AvgSignalLength  float64 `json:"avg_signal_length" yaml:"avg_signal_length"`
	AvgBitsPerSample float64 `json:"avg_bits_per_sample" yaml:"avg_bits_per_sample"`

	Experiments            []Experiment `json:"experiments,omitempty" yaml:"experiments,omitempty"`
	TotalExperimentMinutes float64      `json:"total_experiment_minutes" yaml:"total_experiment_minutes"`
	GlobalReadsPerMinute   float64      `json:"global_reads_per_minute" yaml:"global_reads_per_minute"`
	PeakThroughput         float64      `json:"peak_throughput" yaml:"peak_throughput"`
	PeakExperiment         string       `json:"peak_experiment,omitempty" yaml:"peak_experiment,omitempty"`

	rateSum     float64
	rateCount   int
	seen        map[uint64]struct{}
	experiments map[string]*experimentAcc
}

// NewStatistics returns an empty accumulator.
func NewStatistics() *Statistics {
	return &Statistics{
		MinSignalLength: math.MaxUint32,
		seen:            make(map[uint64]struct{}),
		experiments:     make(map[string]*experimentAcc),
	}
}

// Add folds one file into the totals. Failed files only bump FailedFiles.
func (s *Statistics) Add(r FileResult) {
	if r.Failed() {
		s.FailedFiles++
		return
	}
	s.SuccessfulFiles++
	s.TotalReads += len(r.Reads)
	s.TotalFileBytes += r.Size

	for i := range r.Reads {
		s.addRead(r.Path, &r.Reads[i])
	}
}

func (s *Statistics) addRead(path string, md *ReadMetadata) {
	s.TotalSamples += md.SignalLength
	if md.SignalLength > 0 {
		if md.SignalLength < s.MinSignalLength {
			s.MinSignalLength = md.SignalLength
		}
		if md.SignalLength > s.MaxSignalLength {
			s.MaxSignalLength = md.SignalLength
		}
	}

	if md.SampleRate > 0 {
		s.DurationSeconds += float64(md.Duration) / md.SampleRate
		if s.rateCount == 0 || md.SampleRate < s.MinSampleRate {
			s.MinSampleRate = md.SampleRate
		}
		if md.SampleRate > s.MaxSampleRate {
			s.MaxSampleRate = md.SampleRate
		}
		s.rateSum += md.SampleRate
		s.rateCount++
	}

	if md.HasMedianBefore {
		s.MedianBeforeSum += md.MedianBefore
		s.MedianBeforeCount++
	}

	if md.ReadID != "" {
		h := xxhash.Sum64String(md.ReadID)
		if _, dup := s.seen[h]; dup {
			s.DuplicateReadIDs++
		} else {
			s.seen[h] = struct{}{}
		}
	}

	if md.RunID == "" {
		return
	}
	acc, ok := s.experiments[md.RunID]
	if !ok {
		acc = newExperimentAcc()
		s.experiments[md.RunID] = acc
	}
	acc.files[path] = struct{}{}
	acc.reads++
	if md.Channel != "" {
		acc.sensors[md.Channel]++
	}
	if md.HasStartTime {
		acc.observeStart(md.StartTime)
	}
	if md.SampleRate > 0 {
		acc.rateSum += md.SampleRate
		acc.rateCount++
	}
}

// Merge folds other into s. other must not be used afterwards.
func (s *Statistics) Merge(other *Statistics) {
	s.SuccessfulFiles += other.SuccessfulFiles
	s.FailedFiles += other.FailedFiles
	s.TotalReads += other.TotalReads
	s.TotalSamples += other.TotalSamples
	s.TotalFileBytes += other.TotalFileBytes
	s.DurationSeconds += other.DurationSeconds
	if other.TotalReads > 0 {
		if other.MinSignalLength < s.MinSignalLength {
			s.MinSignalLength = other.MinSignalLength
		}
		if other.MaxSignalLength > s.MaxSignalLength {
			s.MaxSignalLength = other.MaxSignalLength
		}
	}

	if other.rateCount > 0 {
		if s.rateCount == 0 || other.MinSampleRate < s.MinSampleRate {
			s.MinSampleRate = other.MinSampleRate
		}
		if other.MaxSampleRate > s.MaxSampleRate {
			s.MaxSampleRate = other.MaxSampleRate
		}
		s.rateSum += other.rateSum
		s.rateCount += other.rateCount
	}

	s.MedianBeforeSum += other.MedianBeforeSum
	s.MedianBeforeCount += other.MedianBeforeCount

	s.DuplicateReadIDs += other.DuplicateReadIDs
	for h := range other.seen {
		if _, dup := s.seen[h]; dup {
			s.DuplicateReadIDs++
		} else {
			s.seen[h] = struct{}{}
		}
	}

	for runID, acc := range other.experiments {
		if mine, ok := s.experiments[runID]; ok {
			mine.merge(acc)
		} else {
			s.experiments[runID] = acc
		}
	}
}

// Finalize computes the derived fields. It may be called more than once.
func (s *Statistics) Finalize() {
	if s.TotalReads == 0 {
		s.MinSignalLength = 0
	}

	s.AvgSignalLength = 0
	s.AvgBitsPerSample = 0
	if s.TotalReads > 0 {
		s.AvgSignalLength = float64(s.TotalSamples) / float64(s.TotalReads)
	}
	if s.TotalSamples > 0 {
		s.AvgBitsPerSample = float64(s.TotalFileBytes) * 8 / float64(s.TotalSamples)
	}

	s.AvgSampleRate = 0
	s.UniformSampleRate = false
	if s.rateCount > 0 {
		s.AvgSampleRate = s.rateSum / float64(s.rateCount)
		s.UniformSampleRate = s.MinSampleRate == s.MaxSampleRate
	}

	runIDs := make([]string, 0, len(s.experiments))
	for id := range s.experiments {
		runIDs = append(runIDs, id)
	}
	sort.Strings(runIDs)

	s.Experiments = s.Experiments[:0]
	s.TotalExperimentMinutes = 0
	s.GlobalReadsPerMinute = 0
	s.PeakThroughput = 0
	s.PeakExperiment = ""
	timedReads := 0
	for _, id := range runIDs {
		ex := s.experiments[id].summary(id)
		s.Experiments = append(s.Experiments, ex)
		if ex.DurationMinutes > 0 {
			s.TotalExperimentMinutes += ex.DurationMinutes
			timedReads += ex.Reads
		}
		if ex.ReadsPerSensorPerMinute > s.PeakThroughput {
			s.PeakThroughput = ex.ReadsPerSensorPerMinute
			s.PeakExperiment = ex.RunID
		}
	}
	if s.TotalExperimentMinutes > 0 {
		s.GlobalReadsPerMinute = float64(timedReads) / s.TotalExperimentMinutes
	}
}

// AvgMedianBefore returns the mean median_before over reads that carried
// one, or 0.
func (s *Statistics) AvgMedianBefore() float64 {
	if s.MedianBeforeCount == 0 {
		return 0
	}
	return s.MedianBeforeSum / float64(s.MedianBeforeCount)
}

// Summary is the short report printed after a batch.
type Summary struct {
	TotalFiles      int           `json:"total_files" yaml:"total_files"`
	SuccessfulFiles int           `json:"successful_files" yaml:"successful_files"`
	FailedFiles     int           `json:"failed_files" yaml:"failed_files"`
	TotalReads      int           `json:"total_reads" yaml:"total_reads"`
	TotalSamples    uint64        `json:"total_samples" yaml:"total_samples"`
	AvgSignalLength float64       `json:"avg_signal_length" yaml:"avg_signal_length"`
	TotalSizeMB     float64       `json:"total_size_mb" yaml:"total_size_mb"`
	ProcessingTime  time.Duration `json:"processing_time" yaml:"processing_time"`
}

// bytesPerMB is a decimal megabyte, as file managers report sizes.
const bytesPerMB = 1000 * 1000

// Summarize derives a Summary from finalized statistics.
func Summarize(s *Statistics, elapsed time.Duration) Summary {
	return Summary{
		TotalFiles:      s.SuccessfulFiles + s.FailedFiles,
		SuccessfulFiles: s.SuccessfulFiles,
		FailedFiles:     s.FailedFiles,
		TotalReads:      s.TotalReads,
		TotalSamples:    s.TotalSamples,
		AvgSignalLength: s.AvgSignalLength,
		TotalSizeMB:     float64(s.TotalFileBytes) / bytesPerMB,
		ProcessingTime:  elapsed,
	}
}
