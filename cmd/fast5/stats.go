package main

import (
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/robert-malhotra/go-fast5/fast5"
	"github.com/robert-malhotra/go-fast5/report"
)

func newStatsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <path>",
		Short: "Summarise every container under a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := report.ParseFormat(a.settings.Report.Format)
			if err != nil {
				return err
			}
			paths, err := a.discover(cmd, args[0])
			if err != nil || len(paths) == 0 {
				return err
			}

			opts := []fast5.ProcessOption{
				fast5.WithWorkers(a.settings.Workers),
				fast5.WithLogger(a.log),
			}
			var bar *pterm.ProgressbarPrinter
			if showProgress(a) {
				bar, _ = pterm.DefaultProgressbar.
					WithTotal(len(paths)).
					WithTitle("Reading containers").
					WithWriter(os.Stderr).
					WithRemoveWhenDone(true).
					Start()
			}
			if bar != nil {
				opts = append(opts, fast5.WithProgress(func() { bar.Increment() }))
			}

			start := time.Now()
			results, err := fast5.ProcessFiles(cmd.Context(), paths, a.reader(), opts...)
			if bar != nil {
				_, _ = bar.Stop()
			}
			if err != nil {
				return err
			}

			stats := fast5.NewStatistics()
			for _, r := range results {
				stats.Add(r)
			}
			stats.Finalize()
			return report.WriteSummary(cmd.OutOrStdout(), fast5.Summarize(stats, time.Since(start)), stats, format)
		},
	}
	cmd.Flags().StringP("format", "f", "text", "output format: text, yaml or json")
	return cmd
}

// showProgress reports whether a progress bar would reach a person.
func showProgress(a *app) bool {
	return !a.settings.Log.JSON && term.IsTerminal(int(os.Stderr.Fd()))
}
