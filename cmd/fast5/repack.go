package main

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/robert-malhotra/go-fast5/fast5"
)

func newRepackCmd(a *app) *cobra.Command {
	var (
		out  string
		mode string
	)
	cmd := &cobra.Command{
		Use:   "repack <path>",
		Short: "Rewrite the reads under a path into new containers",
		Long: `repack reads every read under path and writes it back out.

  --mode multi   all reads into one multi-read container at -o
  --mode single  one single-read container per read in the directory -o

Reads keep their ids, samples, channel and calibration. Values the source
lacks come from the writer settings. --compression stores each Signal as
one shuffled chunk compressed with gzip, zstd or lz4.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return errors.WithHint(errors.New("no output given"), "pass -o")
			}
			dialect, err := fast5.ParseDialect(mode)
			if err != nil {
				return err
			}
			paths, err := a.discover(cmd, args[0])
			if err != nil || len(paths) == 0 {
				return err
			}

			var reads []repackRead
			r := a.reader()
			for _, p := range paths {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				mds, signals, err := readWithSignals(r, p)
				if err != nil {
					a.log.Warn("skipping file", zap.String("path", p), zap.Error(err))
					continue
				}
				for i, md := range mds {
					if signals[i] != nil {
						reads = append(reads, repackRead{md: md, samples: signals[i]})
					}
				}
			}
			if len(reads) == 0 {
				return errors.Newf("no readable reads under %s", args[0])
			}

			if dialect == fast5.MultiRead {
				return a.repackMulti(out, reads)
			}
			return a.repackSingle(out, reads)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&out, "output", "o", "", "output file (multi) or directory (single)")
	f.StringVar(&mode, "mode", "multi", "container dialect to write: multi or single")
	f.Float64("sample-rate", 4000, "sample rate for reads that carry none")
	f.String("flow-cell", "FAKE00001", "tracking_id flow_cell_id")
	f.String("device", "MN00000", "tracking_id device_id")
	f.Float64("offset", 0, "calibration offset for reads without one")
	f.Float64("range", 1400, "calibration range for reads without one")
	f.Float64("digitisation", 8192, "calibration digitisation for reads without one")
	f.String("compression", "none", "Signal codec: none, gzip, zstd or lz4")
	f.Int("level", 0, "codec level (0 for the codec default)")
	return cmd
}

type repackRead struct {
	md      fast5.ReadMetadata
	samples []int16
}

// writeOptions derives the writer options for reads that share md's run
// context.
func (a *app) writeOptions(md fast5.ReadMetadata) []fast5.WriteOption {
	w := a.settings.Writer
	opts := []fast5.WriteOption{
		fast5.WithLogger(a.log),
		fast5.WithFlowCellID(w.FlowCellID),
		fast5.WithDeviceID(w.DeviceID),
		fast5.WithCompression(w.Compression, w.CompressionLevel),
	}
	if md.RunID != "" {
		opts = append(opts, fast5.WithRunID(md.RunID))
	}
	if md.Channel != "" {
		opts = append(opts, fast5.WithChannel(md.Channel))
	}
	if md.StartMux > 0 && md.StartMux <= 255 {
		opts = append(opts, fast5.WithStartMux(uint8(md.StartMux)))
	}
	cal := md.Calibration
	if !cal.Available {
		cal = fast5.Calibration{
			Offset:       w.Calibration.Offset,
			Range:        w.Calibration.Range,
			Digitisation: w.Calibration.Digitisation,
		}
	}
	return append(opts, fast5.WithCalibration(cal))
}

func (a *app) sampleRate(md fast5.ReadMetadata) float64 {
	if md.SampleRate > 0 {
		return md.SampleRate
	}
	return a.settings.Writer.SampleRate
}

// repackMulti writes every read into one container. Run context is taken
// from the first read.
func (a *app) repackMulti(out string, reads []repackRead) error {
	signals := make([][]int16, len(reads))
	names := make([]string, len(reads))
	for i, rd := range reads {
		signals[i] = rd.samples
		names[i] = rd.md.ReadID
	}
	first := reads[0].md
	if err := fast5.Write(out, fast5.MultiRead, signals, names, a.sampleRate(first), a.writeOptions(first)...); err != nil {
		return err
	}
	a.log.Info("wrote container", zap.String("path", out), zap.Int("reads", len(reads)))
	return nil
}

// repackSingle writes one container per read into dir. A failed container
// is logged and skipped; the others are still written.
func (a *app) repackSingle(dir string, reads []repackRead) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}
	var failed int
	for i, rd := range reads {
		name := containerName(rd.md.ReadID, i)
		path := filepath.Join(dir, name+".fast5")
		if _, err := os.Stat(path); err == nil {
			path = filepath.Join(dir, name+"_"+strconv.Itoa(i)+".fast5")
		}
		err := fast5.Write(path, fast5.SingleRead,
			[][]int16{rd.samples}, []string{rd.md.ReadID},
			a.sampleRate(rd.md), a.writeOptions(rd.md)...)
		if err != nil {
			failed++
			a.log.Warn("skipping container",
				zap.String("path", path), zap.String("read_id", rd.md.ReadID), zap.Error(err))
		}
	}
	a.log.Info("wrote containers", zap.String("dir", dir), zap.Int("reads", len(reads)-failed))
	if failed > 0 {
		return errors.Newf("%d of %d containers could not be written", failed, len(reads))
	}
	return nil
}

// containerName turns a read id into a file name inside the output
// directory. Ids that are empty or would leave the directory fall back to
// read_<index>.
func containerName(readID string, i int) string {
	switch {
	case readID == "", readID == ".", readID == "..",
		strings.ContainsAny(readID, `/\`+"\x00"):
		return "read_" + strconv.Itoa(i)
	}
	return readID
}
