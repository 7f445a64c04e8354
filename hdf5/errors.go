// Package hdf5 is a pure Go reader and writer for the subset of HDF5 used by
// FAST5 containers: groups, typed datasets and per-object attributes.
package hdf5

import "github.com/cockroachdb/errors"

// Common errors
var (
	ErrNotHDF5      = errors.New("not an HDF5 file")
	ErrNotFound     = errors.New("object not found")
	ErrNotDataset   = errors.New("object is not a dataset")
	ErrNotGroup     = errors.New("object is not a group")
	ErrUnsupported  = errors.New("unsupported feature")
	ErrInvalidPath  = errors.New("invalid path")
	ErrClosed       = errors.New("file is closed")
	ErrLinkDepth    = errors.New("maximum link depth exceeded")
	ErrReadOnly     = errors.New("file is not writable")
	ErrExists       = errors.New("object already exists")
	ErrSizeMismatch = errors.New("data size mismatch")
)

// MaxLinkDepth is the maximum number of soft links followed while resolving
// a single path.
const MaxLinkDepth = 100
