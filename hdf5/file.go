package hdf5

import (
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/robert-malhotra/go-fast5/internal/alloc"
	"github.com/robert-malhotra/go-fast5/internal/binary"
	"github.com/robert-malhotra/go-fast5/internal/object"
	"github.com/robert-malhotra/go-fast5/internal/superblock"
)

// File represents an open HDF5 file. A File is a single-owner session and
// must not be shared between goroutines.
type File struct {
	path       string
	file       *os.File
	reader     *binary.Reader
	superblock *superblock.Superblock
	root       *Group
	closed     bool
	log        *zap.Logger

	// Write support fields
	writable  bool
	writer    *binary.Writer
	allocator *alloc.Allocator
}

// Open opens an HDF5 file for reading. Files that exist but do not carry a
// readable HDF5 superblock and root group fail with an error matching
// ErrNotHDF5.
func Open(path string, opts ...OpenOption) (*File, error) {
	options := defaultOpenOptions()
	for _, opt := range opts {
		opt(options)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening file")
	}

	sb, err := superblock.Read(f)
	if err != nil {
		f.Close()
		return nil, errors.Mark(errors.Wrap(err, "reading superblock"), ErrNotHDF5)
	}

	hdf := &File{
		path:       path,
		file:       f,
		reader:     binary.NewReader(f, sb.ReaderConfig()),
		superblock: sb,
		log:        options.logger,
	}

	root, err := hdf.openGroupAt(sb.RootGroupAddress, "/")
	if err != nil {
		f.Close()
		return nil, errors.Mark(errors.Wrap(err, "opening root group"), ErrNotHDF5)
	}
	hdf.root = root

	return hdf, nil
}

// Close closes the file. A writable file is flushed first; if that fails the
// underlying handle is still released.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true

	if f.writable {
		if err := f.Flush(); err != nil {
			f.file.Close()
			return err
		}
	}

	return f.file.Close()
}

// Root returns the root group of the file.
func (f *File) Root() *Group {
	return f.root
}

// Path returns the file path.
func (f *File) Path() string {
	return f.path
}

// Version returns the superblock version.
func (f *File) Version() int {
	return int(f.superblock.Version)
}

// Logger returns the file's diagnostic logger. While a Quiet scope is
// active it is a no-op logger.
func (f *File) Logger() *zap.Logger {
	return f.log
}

// Quiet silences the diagnostic sink until the returned function is called.
// Callers probing files that are expected to fail use it as
//
//	defer f.Quiet()()
func (f *File) Quiet() (restore func()) {
	prev := f.log
	f.log = zap.NewNop()
	return func() { f.log = prev }
}

// OpenGroup opens a group by path.
func (f *File) OpenGroup(path string) (*Group, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.root.OpenGroup(path)
}

// OpenDataset opens a dataset by path.
func (f *File) OpenDataset(path string) (*Dataset, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.root.OpenDataset(path)
}

// Exists reports whether an object (group or dataset) is reachable at path.
// It never returns an error; unresolvable paths are reported as absent.
func (f *File) Exists(path string) bool {
	if f.closed {
		return false
	}
	_, err := f.root.open(path)
	if err != nil {
		f.log.Debug("path probe failed", zap.String("path", path), zap.Error(err))
		return false
	}
	return true
}

// openGroupAt opens a group at the given address.
func (f *File) openGroupAt(address uint64, path string) (*Group, error) {
	header, err := object.Read(f.reader, address)
	if err != nil {
		return nil, errors.Wrap(err, "reading object header")
	}

	return &Group{
		file:   f,
		path:   path,
		header: header,
		addr:   address,
	}, nil
}

// openDatasetAt opens a dataset at the given address.
func (f *File) openDatasetAt(address uint64, path string) (*Dataset, error) {
	header, err := object.Read(f.reader, address)
	if err != nil {
		return nil, errors.Wrap(err, "reading object header")
	}

	return newDataset(f, path, header)
}

// GetAttr returns an attribute by path.
// Path format: /group/object@attribute_name
//
// Examples:
//   - "/@file_type" - attribute on root group
//   - "/Raw/Reads/Read_1@read_id" - attribute on a nested group
func (f *File) GetAttr(path string) (*Attribute, error) {
	if f.closed {
		return nil, ErrClosed
	}

	objectPath, attrName, err := ParseAttrPath(path)
	if err != nil {
		return nil, err
	}

	obj, err := f.root.open(objectPath)
	if err != nil {
		return nil, errors.Wrapf(err, "opening object %s", objectPath)
	}

	holder, ok := obj.(attributeHolder)
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "object %s", objectPath)
	}

	attr := holder.Attr(attrName)
	if attr == nil {
		return nil, errors.Wrapf(ErrNotFound, "attribute %s", attrName)
	}
	return attr, nil
}

// ReadAttr reads an attribute value by path.
// This is a convenience method that combines GetAttr and Attribute.Value().
func (f *File) ReadAttr(path string) (interface{}, error) {
	attr, err := f.GetAttr(path)
	if err != nil {
		return nil, err
	}
	return attr.Value()
}

// attributeHolder is an interface for objects that can have attributes.
type attributeHolder interface {
	Attr(name string) *Attribute
}

// findByAbsolutePath navigates an absolute path and returns the target's
// address. It is used for resolving soft links; visited detects cycles.
func (f *File) findByAbsolutePath(absPath string, visited map[string]bool) (*linkResolution, error) {
	parts := SplitPath(absPath)
	if len(parts) == 0 {
		return &linkResolution{address: f.superblock.RootGroupAddress}, nil
	}

	current := f.root
	for i, name := range parts {
		res, err := current.findChild(name, visited)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving %q in path %s", name, absPath)
		}
		if i == len(parts)-1 {
			return res, nil
		}
		if res.isDataset {
			return nil, errors.Wrapf(ErrNotGroup, "%q in path %s", name, absPath)
		}
		next, err := f.openGroupAt(res.address, "")
		if err != nil {
			return nil, errors.Wrapf(err, "opening group %q", name)
		}
		current = next
	}

	return nil, errors.Wrap(ErrInvalidPath, "empty path")
}
