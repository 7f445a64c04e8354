package fast5

import (
	"context"
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ProcessFiles reads the metadata of every path with reader. Results are
// returned in the order of paths. A file that cannot be read is recorded
// with an Err marked ErrPartialFile and does not stop the batch; only ctx
// cancellation does, in which case the results gathered so far are returned
// together with the context error.
func ProcessFiles(ctx context.Context, paths []string, reader *Reader, opts ...ProcessOption) ([]FileResult, error) {
	cfg := &processConfig{workers: 1, log: zap.NewNop()}
	for _, opt := range opts {
		opt.applyProcess(cfg)
	}
	if reader == nil {
		reader = NewReader(WithLogger(cfg.log))
	}

	results := make([]FileResult, len(paths))
	var mu sync.Mutex
	done := func() {
		if cfg.progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		cfg.progress()
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.workers > 1 {
		g.SetLimit(cfg.workers)
	} else {
		g.SetLimit(1)
	}

	for i, p := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = processFile(reader, p, cfg.log)
			done()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func processFile(reader *Reader, path string, log *zap.Logger) FileResult {
	res := FileResult{Path: path}
	if info, err := os.Stat(path); err != nil {
		log.Warn("cannot stat file", zap.String("path", path), zap.Error(err))
	} else {
		res.Size = info.Size()
	}

	reads, err := reader.ReadFile(path)
	if err != nil {
		res.Err = errors.Mark(errors.Wrapf(err, "reading %s", path), ErrPartialFile)
		log.Warn("skipping file", zap.String("path", path), zap.Error(err))
		return res
	}
	if len(reads) == 0 {
		log.Warn("file holds no reads", zap.String("path", path))
	}
	res.Reads = reads
	return res
}
