package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadIn(t *testing.T, dir, file string) (*Settings, error) {
	t.Helper()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	return Load(New(), file)
}

func TestDefaults(t *testing.T) {
	s, err := loadIn(t, t.TempDir(), "")
	require.NoError(t, err)

	assert.False(t, s.Recursive)
	assert.Equal(t, []string{".fast5"}, s.Extensions)
	assert.Equal(t, 1, s.Workers)
	assert.Equal(t, 0, s.Log.Verbosity)
	assert.False(t, s.Log.JSON)
	assert.Equal(t, ExtractSettings{AllReads: false, MaxReads: 3, Header: true}, s.Extract)
	assert.Equal(t, 4000.0, s.Writer.SampleRate)
	assert.Equal(t, "FAKE00001", s.Writer.FlowCellID)
	assert.Equal(t, "MN00000", s.Writer.DeviceID)
	assert.Equal(t, CalibrationSettings{Offset: 0, Range: 1400, Digitisation: 8192}, s.Writer.Calibration)
	assert.Equal(t, "none", s.Writer.Compression)
	assert.Zero(t, s.Writer.CompressionLevel)
	assert.Equal(t, "text", s.Report.Format)
}

func TestFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fast5.yaml"), []byte(
		"workers: 8\nextract:\n  max_reads: 10\nreport:\n  format: yaml\n"), 0o644))
	t.Setenv("FAST5_LOG_VERBOSITY", "2")
	t.Setenv("FAST5_WORKERS", "3")

	s, err := loadIn(t, dir, "")
	require.NoError(t, err)
	assert.Equal(t, 3, s.Workers)
	assert.Equal(t, 10, s.Extract.MaxReads)
	assert.Equal(t, "yaml", s.Report.Format)
	assert.Equal(t, 2, s.Log.Verbosity)
}

func TestExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("writer:\n  flow_cell_id: FAB123\n"), 0o644))

	s, err := loadIn(t, dir, path)
	require.NoError(t, err)
	assert.Equal(t, "FAB123", s.Writer.FlowCellID)

	_, err = loadIn(t, dir, filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fast5.yaml"), []byte("report:\n  format: xml\n"), 0o644))

	_, err := loadIn(t, dir, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report.format")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "fast5.yaml"), []byte("writer:\n  compression: brotli\n"), 0o644))
	_, err = loadIn(t, dir, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "writer.compression")

	t.Setenv("FAST5_WRITER_COMPRESSION", "zstd")
	t.Setenv("FAST5_WRITER_COMPRESSION_LEVEL", "5")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fast5.yaml"), []byte("workers: 2\n"), 0o644))
	s, err := loadIn(t, dir, "")
	require.NoError(t, err)
	assert.Equal(t, "zstd", s.Writer.Compression)
	assert.Equal(t, 5, s.Writer.CompressionLevel)
}

func TestBindFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Bool("recursive", false, "")
	fs.Int("workers", 1, "")
	require.NoError(t, fs.Parse([]string{"--recursive", "--workers=6"}))

	v := New()
	require.NoError(t, BindFlags(v, fs, map[string]string{
		"recursive": "recursive",
		"workers":   "workers",
	}))
	t.Setenv("HOME", t.TempDir())
	s, err := Load(v, "")
	require.NoError(t, err)
	assert.True(t, s.Recursive)
	assert.Equal(t, 6, s.Workers)

	assert.Error(t, BindFlags(v, fs, map[string]string{"log.json": "json"}))
}
