package fast5

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Discover returns the container files under root.
//
// A regular file is returned as is when its extension matches, otherwise
// the call fails with ErrNotAContainer. A directory is listed in lexical
// order, skipping hidden entries; with WithRecursive(true) subdirectories
// are descended depth-first where they appear in the listing. Unreadable
// subdirectories are logged and skipped. A directory without matches
// yields a nil slice and no error.
func Discover(root string, opts ...DiscoverOption) ([]string, error) {
	cfg := defaultDiscoverConfig()
	for _, opt := range opts {
		opt.applyDiscover(cfg)
	}

	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(ErrPathNotFound, "%s", root)
		}
		return nil, errors.Wrapf(err, "stat %s", root)
	}

	if !info.IsDir() {
		if !cfg.matches(root) {
			return nil, errors.WithHintf(
				errors.Wrapf(ErrNotAContainer, "%s", root),
				"accepted extensions: %s", strings.Join(cfg.extensions, ", "))
		}
		return []string{root}, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.Wrapf(err, "reading directory %s", root)
	}

	var files []string
	seen := make(map[string]bool)
	if real, err := filepath.EvalSymlinks(root); err == nil {
		seen[real] = true
	}
	cfg.collect(root, entries, seen, &files)
	cfg.log.Debug("discovery finished",
		zap.String("root", root),
		zap.Bool("recursive", cfg.recursive),
		zap.Int("files", len(files)))
	return files, nil
}

// collect appends the matches among entries of dir. seen holds the
// resolved paths of directories already listed, so symlink cycles and
// links to visited trees are not descended twice.
func (c *discoverConfig) collect(dir string, entries []os.DirEntry, seen map[string]bool, files *[]string) {
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		full := filepath.Join(dir, name)

		isDir := entry.IsDir()
		if entry.Type()&fs.ModeSymlink != 0 {
			target, err := os.Stat(full)
			if err != nil {
				c.log.Warn("skipping broken link", zap.String("path", full), zap.Error(err))
				continue
			}
			isDir = target.IsDir()
		}

		if isDir {
			if !c.recursive {
				continue
			}
			real, err := filepath.EvalSymlinks(full)
			if err != nil {
				c.log.Warn("skipping unresolvable directory", zap.String("path", full), zap.Error(err))
				continue
			}
			if seen[real] {
				c.log.Debug("skipping directory already visited", zap.String("path", full), zap.String("target", real))
				continue
			}
			seen[real] = true
			sub, err := os.ReadDir(full)
			if err != nil {
				c.log.Warn("skipping unreadable directory", zap.String("path", full), zap.Error(err))
				continue
			}
			c.collect(full, sub, seen, files)
			continue
		}

		if c.matches(name) {
			*files = append(*files, full)
		}
	}
}

func (c *discoverConfig) matches(name string) bool {
	ext := filepath.Ext(name)
	for _, want := range c.extensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}
