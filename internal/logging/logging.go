// Package logging builds the zap loggers used by the command line tools.
package logging

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the logger flavour.
type Config struct {
	// Verbosity is the number of -v flags: 0 logs warnings and errors, 1
	// adds info and 2 or more adds debug.
	Verbosity int
	// JSON switches from the console encoder to production JSON.
	JSON bool
	// Output receives console output. It defaults to stderr and is ignored
	// for JSON.
	Output io.Writer
}

// Level maps a verbosity count to a zap level.
func Level(verbosity int) zapcore.Level {
	switch {
	case verbosity <= 0:
		return zapcore.WarnLevel
	case verbosity == 1:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// New builds a logger for cfg.
func New(cfg Config) (*zap.Logger, error) {
	level := Level(cfg.Verbosity)

	if cfg.JSON {
		zc := zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(level)
		zc.OutputPaths = []string{"stderr"}
		zc.ErrorOutputPaths = []string{"stderr"}
		log, err := zc.Build()
		if err != nil {
			return nil, errors.Wrap(err, "building json logger")
		}
		return log, nil
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	enc.CallerKey = ""
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(out), level)
	return zap.New(core), nil
}
