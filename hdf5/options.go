package hdf5

import (
	"go.uber.org/zap"

	"github.com/robert-malhotra/go-fast5/internal/filter"
)

// OpenOption configures how a file is opened or created.
type OpenOption func(*openOptions)

type openOptions struct {
	offsetSize int
	lengthSize int
	logger     *zap.Logger
}

func defaultOpenOptions() *openOptions {
	return &openOptions{
		offsetSize: 8,
		lengthSize: 8,
		logger:     zap.NewNop(),
	}
}

// WithOffsetSize sets the size in bytes for file offsets (2, 4, or 8).
// Only used by Create.
func WithOffsetSize(size int) OpenOption {
	return func(o *openOptions) {
		if size == 2 || size == 4 || size == 8 {
			o.offsetSize = size
		}
	}
}

// WithLengthSize sets the size in bytes for lengths (2, 4, or 8).
// Only used by Create.
func WithLengthSize(size int) OpenOption {
	return func(o *openOptions) {
		if size == 2 || size == 4 || size == 8 {
			o.lengthSize = size
		}
	}
}

// WithLogger sets the diagnostic sink. The store reports objects it had to
// skip and values it could not decode here. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) OpenOption {
	return func(o *openOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// DatasetOption configures dataset creation options.
type DatasetOption func(*datasetOptions)

// attrDef holds an attribute definition for creation.
type attrDef struct {
	name  string
	value interface{}
}

type datasetOptions struct {
	chunks     []uint64
	maxDims    []uint64
	attributes []attrDef

	shuffle  bool
	compress func() filter.Filter
	checksum bool
}

// pipeline orders the requested filters as the HDF5 C library
// does: shuffle, then compression, then the checksum.
func (o *datasetOptions) pipeline(elemSize uint32) *filter.Pipeline {
	var fs []filter.Filter
	if o.shuffle {
		fs = append(fs, filter.NewShuffle([]uint32{elemSize}))
	}
	if o.compress != nil {
		fs = append(fs, o.compress())
	}
	if o.checksum {
		fs = append(fs, filter.NewFletcher32(nil))
	}
	return filter.Of(fs...)
}

func defaultDatasetOptions() *datasetOptions {
	return &datasetOptions{}
}

// WithChunks sets the chunk dimensions for a chunked dataset.
func WithChunks(dims ...uint64) DatasetOption {
	return func(o *datasetOptions) {
		o.chunks = dims
	}
}

// WithDeflate compresses chunks with zlib at level 0 to 9. Filtered
// datasets without explicit chunk dimensions are stored as one chunk.
func WithDeflate(level int) DatasetOption {
	return func(o *datasetOptions) {
		o.compress = func() filter.Filter { return filter.NewDeflate([]uint32{uint32(level)}) }
	}
}

// WithZstd compresses chunks with Zstandard. Level 0 selects the codec
// default.
func WithZstd(level int) DatasetOption {
	return func(o *datasetOptions) {
		o.compress = func() filter.Filter { return filter.NewZstd([]uint32{uint32(level)}) }
	}
}

// WithLZ4 compresses chunks with LZ4.
func WithLZ4() DatasetOption {
	return func(o *datasetOptions) {
		o.compress = func() filter.Filter { return filter.NewLZ4(nil) }
	}
}

// WithShuffle byte-shuffles chunks before compression.
func WithShuffle() DatasetOption {
	return func(o *datasetOptions) { o.shuffle = true }
}

// WithFletcher32 appends a checksum to every chunk.
func WithFletcher32() DatasetOption {
	return func(o *datasetOptions) { o.checksum = true }
}

// WithMaxDims sets the maximum dimensions for a resizable dataset.
// Use 0 for unlimited dimension.
func WithMaxDims(dims ...uint64) DatasetOption {
	return func(o *datasetOptions) {
		o.maxDims = dims
	}
}

// WithAttribute adds an attribute to the dataset.
// The value can be a scalar or slice of: int, int8-64, uint, uint8-64, float32, float64, string.
func WithAttribute(name string, value interface{}) DatasetOption {
	return func(o *datasetOptions) {
		o.attributes = append(o.attributes, attrDef{name: name, value: value})
	}
}
