package fast5

import (
	"strings"

	"go.uber.org/zap"
)

// DiscoverOption configures Discover.
type DiscoverOption interface {
	applyDiscover(*discoverConfig)
}

// ReaderOption configures a Reader.
type ReaderOption interface {
	applyReader(*readerConfig)
}

// WriteOption configures Write.
type WriteOption interface {
	applyWrite(*writeConfig)
}

// ProcessOption configures ProcessFiles.
type ProcessOption interface {
	applyProcess(*processConfig)
}

// LoggerOption sets the logger of any component. The zero value logs
// nothing.
type LoggerOption struct {
	log *zap.Logger
}

// WithLogger returns an option usable with Discover, NewReader, Write and
// ProcessFiles.
func WithLogger(log *zap.Logger) LoggerOption {
	return LoggerOption{log: log}
}

func (o LoggerOption) logger() *zap.Logger {
	if o.log == nil {
		return zap.NewNop()
	}
	return o.log
}

func (o LoggerOption) applyDiscover(c *discoverConfig) { c.log = o.logger() }
func (o LoggerOption) applyReader(c *readerConfig)     { c.log = o.logger() }
func (o LoggerOption) applyWrite(c *writeConfig)       { c.log = o.logger() }
func (o LoggerOption) applyProcess(c *processConfig)   { c.log = o.logger() }

type discoverOptionFunc func(*discoverConfig)

func (f discoverOptionFunc) applyDiscover(c *discoverConfig) { f(c) }

type readerOptionFunc func(*readerConfig)

func (f readerOptionFunc) applyReader(c *readerConfig) { f(c) }

type writeOptionFunc func(*writeConfig)

func (f writeOptionFunc) applyWrite(c *writeConfig) { f(c) }

type processOptionFunc func(*processConfig)

func (f processOptionFunc) applyProcess(c *processConfig) { f(c) }

type discoverConfig struct {
	recursive  bool
	extensions []string
	log        *zap.Logger
}

func defaultDiscoverConfig() *discoverConfig {
	return &discoverConfig{
		extensions: []string{".fast5"},
		log:        zap.NewNop(),
	}
}

// WithRecursive makes Discover descend into subdirectories.
func WithRecursive(recursive bool) DiscoverOption {
	return discoverOptionFunc(func(c *discoverConfig) { c.recursive = recursive })
}

// WithExtensions replaces the accepted file extensions. Matching is case
// insensitive and a missing leading dot is added.
func WithExtensions(exts ...string) DiscoverOption {
	return discoverOptionFunc(func(c *discoverConfig) {
		c.extensions = c.extensions[:0]
		for _, e := range exts {
			e = strings.TrimSpace(e)
			if e == "" {
				continue
			}
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			c.extensions = append(c.extensions, e)
		}
	})
}

type readerConfig struct {
	enrichers []Enricher
	log       *zap.Logger
}

// WithEnrichers replaces the default enrichment chain. Passing no enrichers
// disables enrichment.
func WithEnrichers(enrichers ...Enricher) ReaderOption {
	return readerOptionFunc(func(c *readerConfig) {
		c.enrichers = append([]Enricher(nil), enrichers...)
	})
}

type processConfig struct {
	workers  int
	progress func()
	log      *zap.Logger
}

// WithWorkers sets how many files ProcessFiles reads concurrently. Values
// below 2 process files one at a time.
func WithWorkers(n int) ProcessOption {
	return processOptionFunc(func(c *processConfig) { c.workers = n })
}

// WithProgress registers a callback invoked once after each file. Calls are
// serialized.
func WithProgress(fn func()) ProcessOption {
	return processOptionFunc(func(c *processConfig) { c.progress = fn })
}
