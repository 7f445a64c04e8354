package report

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/robert-malhotra/go-fast5/fast5"
)

func TestWriteMetadataTSV(t *testing.T) {
	results := []fast5.FileResult{
		{Path: "a.fast5", Reads: []fast5.ReadMetadata{
			{ReadID: "r1", SignalLength: 10, SampleRate: 4000.4, Duration: 10, ReadNumber: 3, IsMultiRead: true},
			{SignalLength: 5, SampleRate: 4000, Duration: 5, ReadNumber: 4, IsMultiRead: true},
		}},
		{Path: "bad.fast5", Err: errors.New("broken")},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteMetadataTSV(&buf, results))
	assert.Equal(t,
		"# Fast5 Metadata Export\n"+
			"# file_path\tread_id\tsignal_length\tsample_rate\tduration\tread_number\tis_multi_read\n"+
			"a.fast5\tr1\t10\t4000\t10\t3\ttrue\n"+
			"a.fast5\tunknown\t5\t4000\t5\t4\ttrue\n",
		buf.String())
}

func TestSummaryRows(t *testing.T) {
	md := fast5.ReadMetadata{
		FilePath:    "/data/run/batch_0.fast5",
		ReadID:      "r1",
		RunID:       "run",
		Channel:     "12",
		StartTime:   100,
		StartMux:    2,
		Duration:    5,
		Calibration: fast5.Calibration{Offset: 0, Range: 2, Digitisation: 1, Available: true},
	}
	row := NewSummaryRow(md, []int16{1, 2, 3, 4, 100})
	assert.Equal(t, "batch_0.fast5", row.Filename)
	assert.Equal(t, 5, row.NumSamples)
	assert.Equal(t, 6.0, row.MedianPA)
	assert.Equal(t, 2.0, row.MADPA)

	uncal := NewSummaryRow(fast5.ReadMetadata{ReadID: "r2"}, []int16{4, 1, 3, 2})
	assert.Equal(t, 2.5, uncal.MedianPA)
	assert.Equal(t, 1.0, uncal.MADPA)

	empty := NewSummaryRow(fast5.ReadMetadata{ReadID: "r3"}, nil)
	assert.Zero(t, empty.MedianPA)
	assert.Zero(t, empty.MADPA)

	var buf bytes.Buffer
	require.NoError(t, WriteSummaryTSV(&buf, []SummaryRow{row}, true))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "filename\tread_id\trun_id\tchannel\tstart_time\tmux\tduration\tnum_samples\tmedian_pA\tmad_pA", lines[0])
	assert.Equal(t, "batch_0.fast5\tr1\trun\t12\t100\t2\t5\t5\t6.0000\t2.0000", lines[1])

	buf.Reset()
	require.NoError(t, WriteSummaryTSV(&buf, []SummaryRow{row}, false))
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestWriteRawDump(t *testing.T) {
	md := fast5.ReadMetadata{
		ReadID:      "abc",
		Channel:     "7",
		SampleRate:  4000,
		Calibration: fast5.Calibration{Offset: 3, Range: 1400.5, Digitisation: 8192, Available: true},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRawDump(&buf, []int16{10, -20}, md, true))
	assert.Equal(t,
		"# Channel: 7\n# Sample Rate: 4000 Hz\n# Read ID: abc\n# Offset: 3\n# Range: 1400.5\n# Digitisation: 8192\n"+
			"0\t10\n1\t-20\n",
		buf.String())

	buf.Reset()
	require.NoError(t, WriteRawDump(&buf, []int16{5}, md, false))
	assert.Equal(t, "0\t5\n", buf.String())
}

func TestOutputName(t *testing.T) {
	single := fast5.ReadMetadata{Channel: "4", ReadNumber: 9}
	multi := fast5.ReadMetadata{Channel: "12", ReadNumber: 345, IsMultiRead: true}

	tests := []struct {
		name  string
		input string
		md    fast5.ReadMetadata
		out   string
		batch bool
		want  string
	}{
		{"single explicit", "/in/x.fast5", single, "/out/sig.txt", false, "/out/sig.txt"},
		{"single no output", "/in/x.fast5", single, "", false, "read_ch4_rd9.txt"},
		{"multi into dir", "/in/x.fast5", multi, "/out", false, filepath.Join("/out", "read_ch12_rd345.txt")},
		{"multi batch", "/in/batch_3.fast5", multi, "/out", true, filepath.Join("/out", "batch_3_read_ch12_rd345.txt")},
		{"single batch ignores verbatim", "/in/x.fast5", single, "/out", true, filepath.Join("/out", "x_read_ch4_rd9.txt")},
		{"unknown channel", "/in/x.fast5", fast5.ReadMetadata{ReadNumber: 1, IsMultiRead: true}, "", false, "read_chunknown_rd1.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OutputName(tt.input, tt.md, tt.out, tt.batch))
		})
	}
}

func sampleSummary() (fast5.Summary, *fast5.Statistics) {
	stats := fast5.NewStatistics()
	stats.Add(fast5.FileResult{Path: "a.fast5", Size: 2_500_000, Reads: []fast5.ReadMetadata{
		{ReadID: "x", RunID: "run", Channel: "1", SignalLength: 100, Duration: 100, SampleRate: 4000},
		{ReadID: "y", RunID: "run", Channel: "1", SignalLength: 300, Duration: 300, SampleRate: 4000},
	}})
	stats.Add(fast5.FileResult{Path: "b.fast5", Err: errors.New("bad")})
	stats.Finalize()
	return fast5.Summarize(stats, 1234*time.Millisecond), stats
}

func TestWriteSummaryText(t *testing.T) {
	sum, stats := sampleSummary()

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, sum, nil, FormatText))
	assert.Equal(t,
		"Fast5 Dataset Summary\n"+
			"====================\n"+
			"Files processed: 1/2 successful (1 failed)\n"+
			"Total file size: 2.5 MB\n"+
			"Total reads: 2\n"+
			"Signal statistics:\n"+
			"  Total samples: 400\n"+
			"  Average length: 200 samples\n"+
			"Processing time: 1.23 seconds\n"+
			"\n",
		buf.String())

	buf.Reset()
	require.NoError(t, WriteSummary(&buf, sum, stats, FormatText))
	assert.Contains(t, buf.String(), "Experiments:\n  run: 2 reads in 1 files, 1 sensors\n")
}

func TestWriteSummaryStructured(t *testing.T) {
	sum, stats := sampleSummary()

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, sum, stats, FormatJSON))
	var decoded struct {
		Summary    map[string]interface{} `json:"summary"`
		Statistics map[string]interface{} `json:"statistics"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 2.0, decoded.Summary["total_files"])
	assert.Equal(t, 400.0, decoded.Statistics["total_samples"])

	buf.Reset()
	require.NoError(t, WriteSummary(&buf, sum, stats, FormatYAML))
	var y map[string]map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &y))
	assert.Equal(t, 2, y["summary"]["total_reads"])
	assert.Equal(t, 100, y["statistics"]["min_signal_length"])

	assert.Error(t, WriteSummary(&buf, sum, stats, Format("xml")))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" YAML ")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("csv")
	assert.Error(t, err)
}

func TestWriteFileInfo(t *testing.T) {
	reads := make([]fast5.ReadMetadata, 5)
	for i := range reads {
		reads[i] = fast5.ReadMetadata{ReadID: string(rune('a' + i)), SignalLength: uint64(4000 * (i + 1)), SampleRate: 4000, IsMultiRead: true}
	}

	var buf bytes.Buffer
	require.NoError(t, WriteFileInfo(&buf, "x.fast5", reads, false))
	out := buf.String()
	assert.Contains(t, out, "Format: Multi-read\nReads: 5\nSample rate: 4000 Hz\n")
	assert.Contains(t, out, "  Range: 4000 - 20000 samples\n")
	assert.Contains(t, out, "  Total duration: 15.0 seconds\n")
	assert.Contains(t, out, "Showing first 3 reads")
	assert.Contains(t, out, "  ... and 2 more reads\n")

	buf.Reset()
	require.NoError(t, WriteFileInfo(&buf, "x.fast5", reads[:2], true))
	assert.Contains(t, buf.String(), "Detailed read information:\n  Read 1: a\n")
	assert.Contains(t, buf.String(), "    Time: 2.00 seconds\n")

	buf.Reset()
	require.NoError(t, WriteFileInfo(&buf, "x.fast5", nil, false))
	assert.Contains(t, buf.String(), "Error: Could not read metadata from file")
}
