package fast5

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRoundTripMultiRead(t *testing.T) {
	path := tempFile(t, "batch.fast5")
	signals := [][]int16{{100, 200, 300}, {-5, 0, 5, 10, 15}}
	names := []string{"read-a", "read-b"}

	require.NoError(t, Write(path, MultiRead, signals, names, 4000,
		WithRunID("run42"), WithChannel("42")))

	d, err := DetectFile(path)
	require.NoError(t, err)
	assert.Equal(t, MultiRead, d)

	reads, err := NewReader().ReadFile(path)
	require.NoError(t, err)
	require.Len(t, reads, 2)

	var start uint64
	for i, md := range reads {
		assert.Equal(t, names[i], md.ReadID)
		assert.Equal(t, uint64(len(signals[i])), md.SignalLength)
		assert.Equal(t, md.SignalLength, md.Duration)
		assert.Equal(t, int64(i+1), md.ReadNumber)
		assert.Equal(t, 4000.0, md.SampleRate)
		assert.True(t, md.IsMultiRead)
		assert.Equal(t, MultiRead, md.Dialect())
		assert.Equal(t, path, md.FilePath)
		assert.Equal(t, "42", md.Channel)
		assert.Equal(t, "run42", md.RunID)
		assert.Equal(t, DefaultCalibration, md.Calibration)
		assert.True(t, md.HasStartTime)
		assert.Equal(t, start, md.StartTime)
		assert.Equal(t, int64(1), md.StartMux)
		assert.Equal(t, "contiguous", md.Storage.Layout)
		assert.False(t, md.Storage.Compressed())

		wantMedian, _ := MedianMAD(Picoamps(signals[i], DefaultCalibration))
		assert.True(t, md.HasMedianBefore)
		assert.InDelta(t, wantMedian, md.MedianBefore, 1e-9)
		start += md.SignalLength

		got, err := ReadSignal(path, names[i])
		require.NoError(t, err)
		assert.Equal(t, signals[i], got)
	}
}

func TestWriteRoundTripSingleRead(t *testing.T) {
	path := tempFile(t, "single.fast5")
	samples := []int16{7, 8, 9, 10}
	cal := Calibration{Offset: 10, Range: 2000, Digitisation: 4096}

	require.NoError(t, Write(path, SingleRead, [][]int16{samples}, []string{"only"}, 3012,
		WithCalibration(cal), WithStartMux(3)))

	d, err := DetectFile(path)
	require.NoError(t, err)
	assert.Equal(t, SingleRead, d)

	reads, err := NewReader().ReadFile(path)
	require.NoError(t, err)
	require.Len(t, reads, 1)

	md := reads[0]
	assert.Equal(t, "only", md.ReadID)
	assert.Equal(t, uint64(4), md.SignalLength)
	assert.Equal(t, md.SignalLength, md.Duration)
	assert.Equal(t, 3012.0, md.SampleRate)
	assert.False(t, md.IsMultiRead)
	assert.Equal(t, "1", md.Channel)
	assert.NotEmpty(t, md.RunID)
	assert.Equal(t, int64(3), md.StartMux)
	cal.Available = true
	assert.Equal(t, cal, md.Calibration)

	got, err := ReadSignal(path, "")
	require.NoError(t, err)
	assert.Equal(t, samples, got)
}

func TestWriteEmptyNameGetsID(t *testing.T) {
	path := tempFile(t, "anon.fast5")
	require.NoError(t, Write(path, MultiRead, [][]int16{{1}}, []string{""}, 4000))

	reads, err := NewReader().ReadFile(path)
	require.NoError(t, err)
	require.Len(t, reads, 1)
	assert.Len(t, reads[0].ReadID, 36)
}

func TestWriteRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.fast5")

	tests := []struct {
		name    string
		dialect Dialect
		signals [][]int16
		names   []string
		rate    float64
		is      error
	}{
		{name: "length mismatch", dialect: MultiRead, signals: [][]int16{{1}}, names: nil, rate: 4000},
		{name: "no reads", dialect: MultiRead, rate: 4000},
		{name: "single with two reads", dialect: SingleRead, signals: [][]int16{{1}, {2}}, names: []string{"a", "b"}, rate: 4000},
		{name: "unknown dialect", dialect: DialectUnknown, signals: [][]int16{{1}}, names: []string{"a"}, rate: 4000, is: ErrUnrecognizedDialect},
		{name: "zero rate", dialect: MultiRead, signals: [][]int16{{1}}, names: []string{"a"}, rate: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Write(path, tt.dialect, tt.signals, tt.names, tt.rate)
			require.Error(t, err)
			if tt.is != nil {
				assert.True(t, errors.Is(err, tt.is))
			}
			assert.NoFileExists(t, path)
		})
	}
}

func TestWriteIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keep.fast5")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0o644))

	// Duplicate read ids collide on the read group name.
	err := Write(path, MultiRead, [][]int16{{1}, {2}}, []string{"dup", "dup"}, 4000)
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))

	leftovers, err := filepath.Glob(filepath.Join(dir, "*.tmp-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestWriteMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent", "out.fast5")
	err := Write(path, MultiRead, [][]int16{{1}}, []string{"a"}, 4000)
	require.Error(t, err)
	assert.NoFileExists(t, path)
}

func TestWriteCompressed(t *testing.T) {
	signal := make([]int16, 6000)
	for i := range signal {
		signal[i] = int16(480 + (i*31)%120)
	}
	for codec, filters := range map[string][]string{
		CompressionGzip: {"shuffle", "deflate"},
		CompressionZstd: {"shuffle", "zstd"},
		CompressionLZ4:  {"shuffle", "lz4"},
		"ZSTD":          {"shuffle", "zstd"},
	} {
		t.Run(codec, func(t *testing.T) {
			path := tempFile(t, "packed.fast5")
			require.NoError(t, Write(path, MultiRead, [][]int16{signal, signal[:10]}, []string{"r1", "r2"}, 4000,
				WithCompression(codec, 0)))

			reads, err := NewReader().ReadFile(path)
			require.NoError(t, err)
			require.Len(t, reads, 2)
			st := reads[0].Storage
			assert.Equal(t, "chunked", st.Layout)
			assert.Equal(t, filters, st.Filters)
			assert.True(t, st.Compressed())
			assert.True(t, st.Decodable)

			got, err := ReadSignal(path, "r1")
			require.NoError(t, err)
			assert.Equal(t, signal, got)
			got, err = ReadSignal(path, "r2")
			require.NoError(t, err)
			assert.Equal(t, signal[:10], got)
		})
	}
}

func TestWriteCompressionErrors(t *testing.T) {
	path := tempFile(t, "bad.fast5")
	for _, opt := range []WriteOption{
		WithCompression("vbz", 0),
		WithCompression(CompressionGzip, 12),
		WithCompression(CompressionZstd, -1),
	} {
		err := Write(path, MultiRead, [][]int16{{1}}, []string{"a"}, 4000, opt)
		require.Error(t, err)
		assert.NoFileExists(t, path)
	}

	require.NoError(t, Write(path, MultiRead, [][]int16{{1, 2}}, []string{"a"}, 4000, WithCompression(CompressionNone, 0)))
	reads, err := NewReader().ReadFile(path)
	require.NoError(t, err)
	assert.False(t, reads[0].Storage.Compressed())
	assert.True(t, reads[0].Storage.Decodable)
}
