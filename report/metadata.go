package report

import (
	"bufio"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-fast5/fast5"
)

const metadataHeader = "# Fast5 Metadata Export\n" +
	"# file_path\tread_id\tsignal_length\tsample_rate\tduration\tread_number\tis_multi_read\n"

// WriteMetadataTSV writes one row per read of every successful result.
func WriteMetadataTSV(w io.Writer, results []fast5.FileResult) error {
	bw := bufio.NewWriter(w)
	if _, err := io.WriteString(bw, metadataHeader); err != nil {
		return errors.Wrap(err, "writing metadata header")
	}
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		for _, md := range r.Reads {
			_, err := fmt.Fprintf(bw, "%s\t%s\t%d\t%.0f\t%d\t%d\t%t\n",
				r.Path,
				orUnknown(md.ReadID),
				md.SignalLength,
				md.SampleRate,
				md.Duration,
				md.ReadNumber,
				md.IsMultiRead)
			if err != nil {
				return errors.Wrapf(err, "writing metadata row for %s", r.Path)
			}
		}
	}
	return errors.Wrap(bw.Flush(), "flushing metadata")
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
