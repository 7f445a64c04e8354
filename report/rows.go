package report

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-fast5/fast5"
)

// SummaryRow is the per-read summary line. MedianPA and MADPA are computed
// in picoamps when the read carries a calibration and on raw values
// otherwise.
type SummaryRow struct {
	Filename   string
	ReadID     string
	RunID      string
	Channel    string
	StartTime  uint64
	Mux        int64
	Duration   uint64
	NumSamples int
	MedianPA   float64
	MADPA      float64
}

// NewSummaryRow builds the summary of one read from its metadata and
// samples.
func NewSummaryRow(md fast5.ReadMetadata, samples []int16) SummaryRow {
	median, mad := fast5.MedianMAD(fast5.Picoamps(samples, md.Calibration))
	return SummaryRow{
		Filename:   filepath.Base(md.FilePath),
		ReadID:     md.ReadID,
		RunID:      md.RunID,
		Channel:    md.Channel,
		StartTime:  md.StartTime,
		Mux:        md.StartMux,
		Duration:   md.Duration,
		NumSamples: len(samples),
		MedianPA:   median,
		MADPA:      mad,
	}
}

const summaryColumns = "filename\tread_id\trun_id\tchannel\tstart_time\tmux\tduration\tnum_samples\tmedian_pA\tmad_pA\n"

// WriteSummaryTSV writes rows, preceded by the column header when header is
// set.
func WriteSummaryTSV(w io.Writer, rows []SummaryRow, header bool) error {
	bw := bufio.NewWriter(w)
	if header {
		if _, err := io.WriteString(bw, summaryColumns); err != nil {
			return errors.Wrap(err, "writing summary header")
		}
	}
	for _, r := range rows {
		_, err := fmt.Fprintf(bw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%.4f\t%.4f\n",
			r.Filename, orUnknown(r.ReadID), r.RunID, r.Channel,
			r.StartTime, r.Mux, r.Duration, r.NumSamples,
			r.MedianPA, r.MADPA)
		if err != nil {
			return errors.Wrapf(err, "writing summary row for %s", r.ReadID)
		}
	}
	return errors.Wrap(bw.Flush(), "flushing summary")
}
