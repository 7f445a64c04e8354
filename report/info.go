package report

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-fast5/fast5"
)

// infoPreview is how many reads WriteFileInfo lists when not verbose.
const infoPreview = 3

// WriteFileInfo describes one file and its reads. Verbose output lists
// every read with its full metadata; otherwise at most three reads are
// shown.
func WriteFileInfo(w io.Writer, path string, reads []fast5.ReadMetadata, verbose bool) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Fast5 File: %s\n", path)
	fmt.Fprintf(bw, "=====================================\n")
	if len(reads) == 0 {
		fmt.Fprintf(bw, "Error: Could not read metadata from file\n\n")
		return errors.Wrap(bw.Flush(), "writing file info")
	}

	first := reads[0]
	format := "Single-read"
	if first.IsMultiRead {
		format = "Multi-read"
	}
	fmt.Fprintf(bw, "Format: %s\n", format)
	fmt.Fprintf(bw, "Reads: %d\n", len(reads))
	fmt.Fprintf(bw, "Sample rate: %.0f Hz\n", first.SampleRate)

	var (
		total    uint64
		minLen   uint64 = math.MaxUint64
		maxLen   uint64
		duration float64
	)
	for _, md := range reads {
		total += md.SignalLength
		minLen = min(minLen, md.SignalLength)
		maxLen = max(maxLen, md.SignalLength)
		if md.SampleRate > 0 {
			duration += float64(md.SignalLength) / md.SampleRate
		}
	}
	fmt.Fprintf(bw, "Signal statistics:\n")
	fmt.Fprintf(bw, "  Total samples: %d\n", total)
	fmt.Fprintf(bw, "  Average length: %.0f samples\n", float64(total)/float64(len(reads)))
	fmt.Fprintf(bw, "  Range: %d - %d samples\n", minLen, maxLen)
	fmt.Fprintf(bw, "  Total duration: %.1f seconds\n", duration)

	switch {
	case verbose:
		fmt.Fprintf(bw, "\nDetailed read information:\n")
		for i, md := range reads {
			fmt.Fprintf(bw, "  Read %d: %s\n", i+1, orUnknown(md.ReadID))
			fmt.Fprintf(bw, "    Signal length: %d samples\n", md.SignalLength)
			fmt.Fprintf(bw, "    Duration: %d samples\n", md.Duration)
			fmt.Fprintf(bw, "    Read number: %d\n", md.ReadNumber)
			if md.Channel != "" {
				fmt.Fprintf(bw, "    Channel: %s\n", md.Channel)
			}
			if md.RunID != "" {
				fmt.Fprintf(bw, "    Run: %s\n", md.RunID)
			}
			if md.Calibration.Available {
				fmt.Fprintf(bw, "    Calibration: offset %g, range %g, digitisation %g\n",
					md.Calibration.Offset, md.Calibration.Range, md.Calibration.Digitisation)
			}
			fmt.Fprintf(bw, "    Storage: %s", md.Storage.Layout)
			for _, f := range md.Storage.Filters {
				fmt.Fprintf(bw, " +%s", f)
			}
			fmt.Fprintf(bw, "\n")
			if md.SampleRate > 0 {
				fmt.Fprintf(bw, "    Time: %.2f seconds\n", float64(md.SignalLength)/md.SampleRate)
			}
		}
	case len(reads) <= infoPreview:
		fmt.Fprintf(bw, "\nRead details:\n")
		for i, md := range reads {
			fmt.Fprintf(bw, "  Read %d: %s (%d samples)\n", i+1, orUnknown(md.ReadID), md.SignalLength)
		}
	default:
		fmt.Fprintf(bw, "\nShowing first %d reads (use --verbose for all):\n", infoPreview)
		for i, md := range reads[:infoPreview] {
			fmt.Fprintf(bw, "  Read %d: %s (%d samples)\n", i+1, orUnknown(md.ReadID), md.SignalLength)
		}
		fmt.Fprintf(bw, "  ... and %d more reads\n", len(reads)-infoPreview)
	}
	fmt.Fprintf(bw, "\n")
	return errors.Wrap(bw.Flush(), "writing file info")
}
