// Package config loads fast5 tool settings from defaults, an optional
// fast5.yaml, FAST5_* environment variables and command line flags, in
// increasing order of precedence.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Settings is the decoded configuration.
type Settings struct {
	Recursive  bool     `mapstructure:"recursive"`
	Extensions []string `mapstructure:"extensions"`
	Workers    int      `mapstructure:"workers"`

	Log     LogSettings     `mapstructure:"log"`
	Extract ExtractSettings `mapstructure:"extract"`
	Writer  WriterSettings  `mapstructure:"writer"`
	Report  ReportSettings  `mapstructure:"report"`
}

type LogSettings struct {
	Verbosity int  `mapstructure:"verbosity"`
	JSON      bool `mapstructure:"json"`
}

type ExtractSettings struct {
	AllReads bool `mapstructure:"all_reads"`
	MaxReads int  `mapstructure:"max_reads"`
	Header   bool `mapstructure:"header"`
}

type WriterSettings struct {
	SampleRate  float64             `mapstructure:"sample_rate"`
	FlowCellID  string              `mapstructure:"flow_cell_id"`
	DeviceID    string              `mapstructure:"device_id"`
	Calibration CalibrationSettings `mapstructure:"calibration"`

	// Compression names the Signal codec: none, gzip, zstd or lz4.
	Compression      string `mapstructure:"compression"`
	CompressionLevel int    `mapstructure:"compression_level"`
}

type CalibrationSettings struct {
	Offset       float64 `mapstructure:"offset"`
	Range        float64 `mapstructure:"range"`
	Digitisation float64 `mapstructure:"digitisation"`
}

type ReportSettings struct {
	Format string `mapstructure:"format"`
}

// EnvPrefix prefixes every environment variable; log.verbosity is read
// from FAST5_LOG_VERBOSITY.
const EnvPrefix = "FAST5"

// New returns a viper instance with defaults and environment binding in
// place.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load reads configFile, or fast5.yaml from the working directory or
// $HOME/.config/fast5 when configFile is empty, and decodes the result. A
// missing default file is not an error; a missing explicit one is.
func Load(v *viper.Viper, configFile string) (*Settings, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("fast5")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "fast5"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrapf(err, "reading config %s", configFile)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate rejects settings no command can run with.
func (s *Settings) Validate() error {
	switch strings.ToLower(s.Report.Format) {
	case "text", "yaml", "json":
	default:
		return errors.WithHint(
			errors.Newf("invalid report.format %q", s.Report.Format),
			"use text, yaml or json")
	}
	if s.Workers < 1 {
		return errors.Newf("workers must be at least 1, got %d", s.Workers)
	}
	if s.Extract.MaxReads < 0 {
		return errors.Newf("extract.max_reads must not be negative, got %d", s.Extract.MaxReads)
	}
	switch strings.ToLower(s.Writer.Compression) {
	case "", "none", "gzip", "deflate", "zstd", "lz4":
	default:
		return errors.WithHint(
			errors.Newf("invalid writer.compression %q", s.Writer.Compression),
			"use none, gzip, zstd or lz4")
	}
	if !(s.Writer.SampleRate > 0) {
		return errors.Newf("writer.sample_rate must be positive, got %v", s.Writer.SampleRate)
	}
	return nil
}

// BindFlags binds each config key to the flag of the given name in fs, so
// that an explicitly set flag overrides file and environment values.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		flag := fs.Lookup(name)
		if flag == nil {
			return errors.Newf("no flag %q for config key %s", name, key)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return errors.Wrapf(err, "binding --%s", name)
		}
	}
	return nil
}
