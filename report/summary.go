package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/robert-malhotra/go-fast5/fast5"
)

// Format selects the rendering of WriteSummary.
type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatYAML, FormatJSON:
		return f, nil
	}
	return "", errors.WithHint(errors.Newf("unknown report format %q", s), "use text, yaml or json")
}

// document is the structured form of a summary.
type document struct {
	Summary    fast5.Summary     `json:"summary" yaml:"summary"`
	Statistics *fast5.Statistics `json:"statistics,omitempty" yaml:"statistics,omitempty"`
}

// WriteSummary renders sum, and stats when non-nil, in the given format.
func WriteSummary(w io.Writer, sum fast5.Summary, stats *fast5.Statistics, format Format) error {
	switch format {
	case FormatText, "":
		return writeSummaryText(w, sum, stats)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(document{Summary: sum, Statistics: stats}); err != nil {
			return errors.Wrap(err, "encoding yaml summary")
		}
		return errors.Wrap(enc.Close(), "encoding yaml summary")
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(document{Summary: sum, Statistics: stats}), "encoding json summary")
	}
	return errors.Newf("unknown report format %q", format)
}

func writeSummaryText(w io.Writer, sum fast5.Summary, stats *fast5.Statistics) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Fast5 Dataset Summary\n")
	fmt.Fprintf(bw, "====================\n")
	fmt.Fprintf(bw, "Files processed: %d/%d successful", sum.SuccessfulFiles, sum.TotalFiles)
	if sum.FailedFiles > 0 {
		fmt.Fprintf(bw, " (%d failed)", sum.FailedFiles)
	}
	fmt.Fprintf(bw, "\n")
	fmt.Fprintf(bw, "Total file size: %.1f MB\n", sum.TotalSizeMB)
	fmt.Fprintf(bw, "Total reads: %d\n", sum.TotalReads)
	if sum.TotalReads > 0 {
		fmt.Fprintf(bw, "Signal statistics:\n")
		fmt.Fprintf(bw, "  Total samples: %d\n", sum.TotalSamples)
		fmt.Fprintf(bw, "  Average length: %.0f samples\n", sum.AvgSignalLength)
	}
	if sum.ProcessingTime > 0 {
		fmt.Fprintf(bw, "Processing time: %.2f seconds\n", sum.ProcessingTime.Seconds())
	}

	if stats != nil && len(stats.Experiments) > 0 {
		fmt.Fprintf(bw, "\nExperiments:\n")
		for _, ex := range stats.Experiments {
			fmt.Fprintf(bw, "  %s: %d reads in %d files, %d sensors", ex.RunID, ex.Reads, ex.Files, ex.Sensors)
			if ex.DurationMinutes > 0 {
				fmt.Fprintf(bw, ", %.1f min, %.2f reads/sensor/min", ex.DurationMinutes, ex.ReadsPerSensorPerMinute)
			}
			fmt.Fprintf(bw, "\n")
		}
		if stats.PeakExperiment != "" {
			fmt.Fprintf(bw, "Peak throughput: %.2f reads/sensor/min (%s)\n", stats.PeakThroughput, stats.PeakExperiment)
		}
	}
	if stats != nil && stats.DuplicateReadIDs > 0 {
		fmt.Fprintf(bw, "Duplicate read ids: %d\n", stats.DuplicateReadIDs)
	}
	fmt.Fprintf(bw, "\n")
	return errors.Wrap(bw.Flush(), "writing summary")
}
