package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/robert-malhotra/go-fast5/fast5"
	"github.com/robert-malhotra/go-fast5/report"
)

func newConvertCmd(a *app) *cobra.Command {
	var (
		to  string
		out string
	)
	cmd := &cobra.Command{
		Use:   "convert <path>",
		Short: "Export raw samples, metadata or per-read summaries as text",
		Long: `convert writes one of three text exports:

  raw       one index<TAB>value dump per read
  metadata  a TSV with one row per read
  summary   a TSV with median and MAD of each read in picoamps

Multi-read files are limited to extract.max_reads reads in raw mode unless
--all is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := a.discover(cmd, args[0])
			if err != nil || len(paths) == 0 {
				return err
			}
			switch to {
			case "raw":
				return a.convertRaw(cmd, paths, out)
			case "metadata":
				return a.convertMetadata(cmd, paths, out)
			case "summary":
				return a.convertSummary(cmd, paths, out)
			}
			return errors.WithHint(errors.Newf("unknown export %q", to), "use raw, metadata or summary")
		},
	}
	f := cmd.Flags()
	f.StringVar(&to, "to", "metadata", "export: raw, metadata or summary")
	f.StringVarP(&out, "output", "o", "", "output file or directory (default stdout, or the working directory for raw)")
	f.Bool("all", false, "dump every read of multi-read files")
	f.Int("max-reads", 3, "reads dumped per multi-read file without --all")
	f.Bool("header", true, "prefix raw dumps with a metadata header")
	return cmd
}

// openOutput returns the file at path, or stdout for "" and "-".
func openOutput(cmd *cobra.Command, path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{cmd.OutOrStdout()}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "creating %s", path)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func (a *app) convertMetadata(cmd *cobra.Command, paths []string, out string) error {
	results, err := fast5.ProcessFiles(cmd.Context(), paths, a.reader(),
		fast5.WithWorkers(a.settings.Workers), fast5.WithLogger(a.log))
	if err != nil {
		return err
	}
	w, err := openOutput(cmd, out)
	if err != nil {
		return err
	}
	if err := report.WriteMetadataTSV(w, results); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func (a *app) convertSummary(cmd *cobra.Command, paths []string, out string) error {
	w, err := openOutput(cmd, out)
	if err != nil {
		return err
	}
	r := a.reader()
	header := true
	for _, p := range paths {
		if err := cmd.Context().Err(); err != nil {
			w.Close()
			return err
		}
		reads, signals, err := readWithSignals(r, p)
		if err != nil {
			a.log.Warn("skipping file", zap.String("path", p), zap.Error(err))
			continue
		}
		rows := make([]report.SummaryRow, 0, len(reads))
		for i, md := range reads {
			rows = append(rows, report.NewSummaryRow(md, signals[i]))
		}
		if err := report.WriteSummaryTSV(w, rows, header); err != nil {
			w.Close()
			return err
		}
		header = false
	}
	return w.Close()
}

func (a *app) convertRaw(cmd *cobra.Command, paths []string, out string) error {
	batch := len(paths) > 1
	r := a.reader()
	ex := a.settings.Extract

	for _, p := range paths {
		if err := cmd.Context().Err(); err != nil {
			return err
		}
		reads, err := r.ReadFile(p)
		if err != nil {
			a.log.Warn("skipping file", zap.String("path", p), zap.Error(err))
			continue
		}
		if len(reads) > 0 && reads[0].IsMultiRead && !ex.AllReads && len(reads) > ex.MaxReads {
			a.log.Info("limiting dumped reads",
				zap.String("path", p), zap.Int("reads", len(reads)), zap.Int("max", ex.MaxReads))
			reads = reads[:ex.MaxReads]
		}
		signals, err := r.ReadSamples(reads)
		if err != nil {
			a.log.Warn("skipping file", zap.String("path", p), zap.Error(err))
			continue
		}
		for i, md := range reads {
			samples := signals[i]
			if samples == nil {
				a.log.Warn("no signal for read", zap.String("path", p), zap.String("read_id", md.ReadID))
				continue
			}
			name := report.OutputName(p, md, out, batch)
			if err := writeDump(name, samples, md, ex.Header); err != nil {
				return err
			}
			a.log.Info("wrote dump", zap.String("file", name), zap.Int("samples", len(samples)))
		}
	}
	return nil
}

func writeDump(name string, samples []int16, md fast5.ReadMetadata, header bool) error {
	if dir := filepath.Dir(name); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "creating %s", dir)
		}
	}
	f, err := os.Create(name)
	if err != nil {
		return errors.Wrapf(err, "creating %s", name)
	}
	if err := report.WriteRawDump(f, samples, md, header); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "closing %s", name)
}

// readWithSignals returns the metadata of every read in path and the
// samples of each, index for index.
func readWithSignals(r *fast5.Reader, path string) ([]fast5.ReadMetadata, [][]int16, error) {
	reads, err := r.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	signals, err := r.ReadSamples(reads)
	if err != nil {
		return nil, nil, err
	}
	return reads, signals, nil
}
