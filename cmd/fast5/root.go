package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/robert-malhotra/go-fast5/fast5"
	"github.com/robert-malhotra/go-fast5/internal/config"
	"github.com/robert-malhotra/go-fast5/internal/logging"
)

// app is the state shared by all subcommands once the root pre-run has
// loaded configuration.
type app struct {
	configFile string
	v          *viper.Viper
	settings   *config.Settings
	log        *zap.Logger
}

// flagKeys maps config keys to the flag that overrides them. Only flags
// defined on the running command are bound.
var flagKeys = map[string]string{
	"recursive":                       "recursive",
	"extensions":                      "ext",
	"workers":                         "workers",
	"log.verbosity":                   "verbose",
	"log.json":                        "log-json",
	"report.format":                   "format",
	"extract.all_reads":               "all",
	"extract.max_reads":               "max-reads",
	"extract.header":                  "header",
	"writer.sample_rate":              "sample-rate",
	"writer.flow_cell_id":             "flow-cell",
	"writer.device_id":                "device",
	"writer.calibration.offset":       "offset",
	"writer.calibration.range":        "range",
	"writer.calibration.digitisation": "digitisation",
	"writer.compression":              "compression",
	"writer.compression_level":        "level",
}

func newRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop()}

	root := &cobra.Command{
		Use:   "fast5",
		Short: "Inspect, summarise and convert FAST5 nanopore containers",
		Long: `fast5 reads single-read and multi-read FAST5 files, the HDF5 containers
nanopore sequencers write raw current signal into.

Examples:
  fast5 stats runs/ -r            # dataset summary over a directory tree
  fast5 info read.fast5 -v        # per-read metadata of one file
  fast5 convert runs/ --to raw -o dumps/
  fast5 repack runs/ -o merged.fast5 --mode multi
  fast5 inspect read.fast5        # raw HDF5 tree with attributes`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default ./fast5.yaml or ~/.config/fast5/fast5.yaml)")
	pf.CountP("verbose", "v", "increase log verbosity (-v info, -vv debug)")
	pf.Bool("log-json", false, "log as JSON")
	pf.BoolP("recursive", "r", false, "descend into subdirectories")
	pf.StringSlice("ext", []string{".fast5"}, "accepted file extensions")
	pf.IntP("workers", "j", 1, "files processed in parallel")

	root.AddCommand(
		newStatsCmd(a),
		newInfoCmd(a),
		newConvertCmd(a),
		newRepackCmd(a),
		newInspectCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	a.v = config.New()

	keys := make(map[string]string)
	for key, name := range flagKeys {
		if cmd.Flags().Lookup(name) != nil {
			keys[key] = name
		}
	}
	if err := config.BindFlags(a.v, cmd.Flags(), keys); err != nil {
		return err
	}

	s, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.settings = s

	log, err := logging.New(logging.Config{
		Verbosity: s.Log.Verbosity,
		JSON:      s.Log.JSON,
		Output:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	a.log = log
	return nil
}

// discover lists the containers under root according to the settings. An
// empty result is not an error: it is reported on stdout and the command
// has nothing to do.
func (a *app) discover(cmd *cobra.Command, root string) ([]string, error) {
	paths, err := fast5.Discover(root,
		fast5.WithRecursive(a.settings.Recursive),
		fast5.WithExtensions(a.settings.Extensions...),
		fast5.WithLogger(a.log))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No Fast5 files found.")
		if !a.settings.Recursive {
			a.log.Warn("no containers at the top level",
				zap.String("root", root),
				zap.String("hint", "pass --recursive to search subdirectories"))
		}
		return nil, nil
	}
	a.log.Info("discovered containers", zap.String("root", root), zap.Int("files", len(paths)))
	return paths, nil
}

func (a *app) reader() *fast5.Reader {
	return fast5.NewReader(fast5.WithLogger(a.log))
}
