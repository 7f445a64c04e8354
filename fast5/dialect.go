package fast5

import (
	"io/fs"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/robert-malhotra/go-fast5/hdf5"
)

// Dialect identifies the layout of a FAST5 container.
type Dialect int

const (
	DialectUnknown Dialect = iota
	SingleRead
	MultiRead
)

// Layout names and values shared by the reader, detector and writer.
const (
	attrFileType    = "file_type"
	attrFileVersion = "file_version"

	fileTypeMulti  = "multi-read"
	fileTypeSingle = "single-read"

	multiReadPrefix = "read_"
	singleReadsPath = "/Raw/Reads"
	globalKeyPath   = "/UniqueGlobalKey"

	// detectProbeChildren bounds how many root members the structural
	// check inspects.
	detectProbeChildren = 5
)

func (d Dialect) String() string {
	switch d {
	case SingleRead:
		return fileTypeSingle
	case MultiRead:
		return fileTypeMulti
	default:
		return "unknown"
	}
}

// MarshalText encodes the dialect as its file_type value.
func (d Dialect) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// ParseDialect accepts "single", "single-read", "multi" and "multi-read",
// case insensitively.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single", fileTypeSingle:
		return SingleRead, nil
	case "multi", fileTypeMulti:
		return MultiRead, nil
	}
	return DialectUnknown, errors.WithHint(
		errors.Newf("unknown dialect %q", s),
		"use single or multi")
}

// Detect classifies an open container. The root file_type attribute decides
// when it names a known dialect; otherwise a root member named read_* among
// the first five marks a multi-read file and the presence of /Raw/Reads a
// single-read file. When the attribute and the structure disagree the
// attribute wins and a warning is logged.
//
// Probes run with the file's diagnostic logger silenced.
func Detect(f *hdf5.File) (Dialect, error) {
	declared, structural := detectProbe(f)

	if declared != DialectUnknown {
		if structural != DialectUnknown && structural != declared {
			f.Logger().Warn("file_type attribute disagrees with layout; trusting attribute",
				zap.String("path", f.Path()),
				zap.Stringer("declared", declared),
				zap.Stringer("layout", structural))
		}
		return declared, nil
	}
	if structural != DialectUnknown {
		return structural, nil
	}
	return DialectUnknown, errors.Wrapf(ErrUnrecognizedDialect, "%s", f.Path())
}

func detectProbe(f *hdf5.File) (declared, structural Dialect) {
	defer f.Quiet()()

	if attr := f.Root().Attr(attrFileType); attr != nil {
		if v, err := attr.ReadScalarString(); err == nil {
			switch strings.TrimSpace(v) {
			case fileTypeMulti:
				declared = MultiRead
			case fileTypeSingle:
				declared = SingleRead
			}
		}
	}

	if names, err := f.Root().Members(); err == nil {
		if len(names) > detectProbeChildren {
			names = names[:detectProbeChildren]
		}
		for _, name := range names {
			if strings.HasPrefix(name, multiReadPrefix) {
				return declared, MultiRead
			}
		}
	}

	if f.Exists(singleReadsPath) {
		return declared, SingleRead
	}
	return declared, DialectUnknown
}

// DetectFile opens path, detects its dialect and closes it.
func DetectFile(path string) (Dialect, error) {
	f, err := openContainer(path, nil)
	if err != nil {
		return DialectUnknown, err
	}
	defer f.Close()
	return Detect(f)
}

// openContainer opens path read-only and maps store failures onto the
// package's error taxonomy.
func openContainer(path string, log *zap.Logger) (*hdf5.File, error) {
	var opts []hdf5.OpenOption
	if log != nil {
		opts = append(opts, hdf5.WithLogger(log))
	}
	f, err := hdf5.Open(path, opts...)
	switch {
	case err == nil:
		return f, nil
	case errors.Is(err, fs.ErrNotExist):
		return nil, errors.Wrapf(ErrPathNotFound, "%s", path)
	case errors.Is(err, hdf5.ErrNotHDF5):
		return nil, errors.Mark(errors.Wrapf(err, "%s", path), ErrNotAContainer)
	default:
		return nil, errors.Wrapf(err, "opening %s", path)
	}
}
