package fast5

import (
	"math"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func read(id, run, channel string, length uint64, start uint64) ReadMetadata {
	return ReadMetadata{
		ReadID:       id,
		RunID:        run,
		Channel:      channel,
		SignalLength: length,
		Duration:     length,
		SampleRate:   4000,
		StartTime:    start,
		HasStartTime: true,
	}
}

func sampleResults() []FileResult {
	return []FileResult{
		{Path: "one.fast5", Size: 2_000_000, Reads: []ReadMetadata{
			read("a", "run1", "1", 4000, 0),
			read("b", "run1", "1", 8000, 120_000),
		}},
		{Path: "bad.fast5", Err: errors.New("boom")},
		{Path: "empty.fast5", Size: 10},
		{Path: "two.fast5", Size: 1_000_000, Reads: []ReadMetadata{
			read("c", "run1", "2", 0, 240_000),
			read("a", "run2", "9", 2000, 0),
		}},
	}
}

func TestStatisticsAdd(t *testing.T) {
	s := NewStatistics()
	for _, r := range sampleResults() {
		s.Add(r)
	}
	s.Finalize()

	assert.Equal(t, 2, s.SuccessfulFiles)
	assert.Equal(t, 2, s.FailedFiles)
	assert.Equal(t, 4, s.TotalReads)
	assert.Equal(t, uint64(14000), s.TotalSamples)
	assert.Equal(t, uint64(2000), s.MinSignalLength)
	assert.Equal(t, uint64(8000), s.MaxSignalLength)
	assert.InDelta(t, 3.5, s.DurationSeconds, 1e-9)
	assert.Equal(t, int64(3_000_000), s.TotalFileBytes)
	assert.InDelta(t, 3500.0, s.AvgSignalLength, 1e-9)
	assert.Equal(t, 1, s.DuplicateReadIDs)

	assert.Equal(t, 4000.0, s.MinSampleRate)
	assert.Equal(t, 4000.0, s.MaxSampleRate)
	assert.Equal(t, 4000.0, s.AvgSampleRate)
	assert.True(t, s.UniformSampleRate)

	require.Len(t, s.Experiments, 2)
	run1 := s.Experiments[0]
	assert.Equal(t, "run1", run1.RunID)
	assert.Equal(t, 2, run1.Files)
	assert.Equal(t, 3, run1.Reads)
	assert.Equal(t, 2, run1.Sensors)
	assert.Equal(t, 1, run1.MinReadsPerSensor)
	assert.Equal(t, 2, run1.MaxReadsPerSensor)
	assert.InDelta(t, 1.5, run1.AvgReadsPerSensor, 1e-9)
	assert.Equal(t, "1", run1.MostProductiveSensor)
	assert.Equal(t, uint64(0), run1.MinStartTime)
	assert.Equal(t, uint64(240_000), run1.MaxStartTime)
	assert.InDelta(t, 60.0, run1.DurationSeconds, 1e-9)
	assert.InDelta(t, 1.0, run1.DurationMinutes, 1e-9)
	assert.InDelta(t, 3.0, run1.ReadsPerMinute, 1e-9)
	assert.InDelta(t, 1.5, run1.ReadsPerSensorPerMinute, 1e-9)

	run2 := s.Experiments[1]
	assert.Equal(t, "run2", run2.RunID)
	assert.Zero(t, run2.DurationMinutes)
	assert.Zero(t, run2.ReadsPerMinute)

	assert.InDelta(t, 1.0, s.TotalExperimentMinutes, 1e-9)
	assert.InDelta(t, 3.0, s.GlobalReadsPerMinute, 1e-9)
	assert.InDelta(t, 1.5, s.PeakThroughput, 1e-9)
	assert.Equal(t, "run1", s.PeakExperiment)
}

func TestStatisticsEmpty(t *testing.T) {
	s := NewStatistics()
	s.Add(FileResult{Path: "x.fast5", Err: errors.New("unreadable")})
	s.Finalize()

	assert.Equal(t, 0, s.SuccessfulFiles)
	assert.Equal(t, 1, s.FailedFiles)
	assert.Zero(t, s.MinSignalLength)
	assert.Zero(t, s.AvgSignalLength)
	assert.Zero(t, s.AvgSampleRate)
	assert.False(t, s.UniformSampleRate)
	assert.Empty(t, s.Experiments)
}

func TestStatisticsMergeMatchesSequential(t *testing.T) {
	results := sampleResults()

	seq := NewStatistics()
	for _, r := range results {
		seq.Add(r)
	}
	seq.Finalize()

	left, right := NewStatistics(), NewStatistics()
	for _, r := range results[:2] {
		left.Add(r)
	}
	for _, r := range results[2:] {
		right.Add(r)
	}
	left.Merge(right)
	left.Finalize()

	assert.Equal(t, seq.SuccessfulFiles, left.SuccessfulFiles)
	assert.Equal(t, seq.FailedFiles, left.FailedFiles)
	assert.Equal(t, seq.TotalReads, left.TotalReads)
	assert.Equal(t, seq.TotalSamples, left.TotalSamples)
	assert.Equal(t, seq.MinSignalLength, left.MinSignalLength)
	assert.Equal(t, seq.MaxSignalLength, left.MaxSignalLength)
	assert.Equal(t, seq.DuplicateReadIDs, left.DuplicateReadIDs)
	assert.Equal(t, seq.AvgSampleRate, left.AvgSampleRate)
	assert.Equal(t, seq.Experiments, left.Experiments)
	assert.Equal(t, seq.PeakThroughput, left.PeakThroughput)
}

func TestStatisticsMedianBefore(t *testing.T) {
	s := NewStatistics()
	assert.Zero(t, s.AvgMedianBefore())

	s.Add(FileResult{Path: "m.fast5", Reads: []ReadMetadata{
		{ReadID: "x", SignalLength: 1, MedianBefore: 200, HasMedianBefore: true},
		{ReadID: "y", SignalLength: 1, MedianBefore: 100, HasMedianBefore: true},
		{ReadID: "z", SignalLength: 1},
	}})
	assert.InDelta(t, 150.0, s.AvgMedianBefore(), 1e-9)
	assert.Equal(t, 2, s.MedianBeforeCount)
}

func TestStatisticsMixedSampleRates(t *testing.T) {
	s := NewStatistics()
	s.Add(FileResult{Path: "r.fast5", Reads: []ReadMetadata{
		{ReadID: "x", SignalLength: 3012, Duration: 3012, SampleRate: 3012},
		{ReadID: "y", SignalLength: 4000, Duration: 4000, SampleRate: 4000},
		{ReadID: "z", SignalLength: 10, Duration: 10},
	}})
	s.Finalize()

	assert.Equal(t, 3012.0, s.MinSampleRate)
	assert.Equal(t, 4000.0, s.MaxSampleRate)
	assert.InDelta(t, 3506.0, s.AvgSampleRate, 1e-9)
	assert.False(t, s.UniformSampleRate)
	assert.InDelta(t, 2.0, s.DurationSeconds, 1e-9)
}

func TestSummarize(t *testing.T) {
	s := NewStatistics()
	for _, r := range sampleResults() {
		s.Add(r)
	}
	s.Finalize()

	sum := Summarize(s, 1500*time.Millisecond)
	assert.Equal(t, 4, sum.TotalFiles)
	assert.Equal(t, 2, sum.SuccessfulFiles)
	assert.Equal(t, 2, sum.FailedFiles)
	assert.Equal(t, 4, sum.TotalReads)
	assert.InDelta(t, 3.0, sum.TotalSizeMB, 1e-9)
	assert.Equal(t, 1500*time.Millisecond, sum.ProcessingTime)
	assert.False(t, math.IsNaN(sum.AvgSignalLength))
}
