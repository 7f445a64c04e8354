package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/robert-malhotra/go-fast5/report"
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <path>",
		Short: "Show the dialect and per-read metadata of each container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := a.discover(cmd, args[0])
			if err != nil || len(paths) == 0 {
				return err
			}
			r := a.reader()
			out := cmd.OutOrStdout()
			for _, p := range paths {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				reads, err := r.ReadFile(p)
				if err != nil {
					a.log.Warn("cannot read container", zap.String("path", p), zap.Error(err))
				} else if len(reads) > 0 {
					a.log.Info("container", zap.String("path", p), zap.Stringer("dialect", reads[0].Dialect()))
				}
				if err := report.WriteFileInfo(out, p, reads, a.settings.Log.Verbosity > 0); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
