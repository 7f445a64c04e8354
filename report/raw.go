package report

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-fast5/fast5"
)

// WriteRawDump writes samples as index<TAB>value lines. With withHeader the
// dump starts with comment lines describing the read.
func WriteRawDump(w io.Writer, samples []int16, md fast5.ReadMetadata, withHeader bool) error {
	bw := bufio.NewWriter(w)
	if withHeader {
		ch := md.Channel
		if ch == "" {
			ch = "unknown"
		}
		_, err := fmt.Fprintf(bw,
			"# Channel: %s\n# Sample Rate: %.0f Hz\n# Read ID: %s\n# Offset: %g\n# Range: %g\n# Digitisation: %g\n",
			ch, md.SampleRate, orUnknown(md.ReadID),
			md.Calibration.Offset, md.Calibration.Range, md.Calibration.Digitisation)
		if err != nil {
			return errors.Wrap(err, "writing dump header")
		}
	}

	buf := make([]byte, 0, 32)
	for i, s := range samples {
		buf = strconv.AppendInt(buf[:0], int64(i), 10)
		buf = append(buf, '\t')
		buf = strconv.AppendInt(buf, int64(s), 10)
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return errors.Wrap(err, "writing samples")
		}
	}
	return errors.Wrap(bw.Flush(), "flushing samples")
}

// OutputName picks the dump file name for one read of input.
//
// A single-read input with an explicit output path, outside batch mode,
// uses that path as given. Every other read is named
// read_ch<channel>_rd<read_number>.txt, placed in explicitOut when it is
// set and relative to the working directory otherwise. In batch mode the name is prefixed with the input's base name so
// dumps from different files cannot collide.
func OutputName(input string, md fast5.ReadMetadata, explicitOut string, batch bool) string {
	if !md.IsMultiRead && explicitOut != "" && !batch {
		return explicitOut
	}

	ch := md.Channel
	if ch == "" {
		ch = "unknown"
	}
	name := fmt.Sprintf("read_ch%s_rd%d.txt", ch, md.ReadNumber)
	if batch {
		base := filepath.Base(input)
		name = strings.TrimSuffix(base, filepath.Ext(base)) + "_" + name
	}
	if explicitOut != "" {
		return filepath.Join(explicitOut, name)
	}
	return name
}
