package hdf5

import (
	"encoding/binary"
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/robert-malhotra/go-fast5/internal/alloc"
	binpkg "github.com/robert-malhotra/go-fast5/internal/binary"
	"github.com/robert-malhotra/go-fast5/internal/message"
	"github.com/robert-malhotra/go-fast5/internal/object"
	"github.com/robert-malhotra/go-fast5/internal/superblock"
)

// Create creates a new HDF5 file at the given path, truncating any existing
// file. The file uses a v3 superblock and v2 object headers. Dataset data is
// written as it is created; object headers are written on Flush and Close.
func Create(path string, opts ...OpenOption) (*File, error) {
	options := defaultOpenOptions()
	for _, opt := range opts {
		opt(options)
	}

	osFile, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "creating file")
	}

	writer := binpkg.NewWriter(osFile, binpkg.Config{
		ByteOrder:  binary.LittleEndian,
		OffsetSize: options.offsetSize,
		LengthSize: options.lengthSize,
	})

	sb := superblock.NewSuperblock()
	sb.OffsetSize = uint8(options.offsetSize)
	sb.LengthSize = uint8(options.lengthSize)

	f := &File{
		path:       path,
		file:       osFile,
		superblock: sb,
		log:        options.logger,
		writable:   true,
		writer:     writer,
		allocator:  alloc.New(uint64(sb.Size())),
	}
	f.root = &Group{file: f, path: "/", dirty: true}

	return f, nil
}

// Flush writes all pending object headers and the superblock, then syncs the
// file to disk. Unchanged subtrees are not rewritten.
func (f *File) Flush() error {
	if !f.writable {
		return nil
	}

	rootAddr, err := f.root.commit()
	if err != nil {
		return err
	}
	f.superblock.RootGroupAddress = rootAddr
	if err := f.allocator.Validate(); err != nil {
		return errors.Wrap(err, "checking file layout")
	}
	f.superblock.EOFAddress = f.allocator.EOFAddr()

	if _, err := f.superblock.Write(f.writer.At(0)); err != nil {
		return errors.Wrap(err, "writing superblock")
	}

	f.log.Debug("flushed file",
		zap.String("path", f.path),
		zap.Uint64("eof", f.superblock.EOFAddress),
		zap.Uint64("allocations", f.allocator.Stats().TotalAllocations))

	return f.file.Sync()
}

// allocate reserves space in the file and returns the address.
func (f *File) allocate(size int64) uint64 {
	return f.allocator.Alloc(uint64(size))
}

// writeHeader allocates space for an object header and writes it.
func (f *File) writeHeader(messages []message.Message, minChunk int) (uint64, error) {
	b, err := object.Encode(messages, f.writer.Config(), minChunk)
	if err != nil {
		return 0, err
	}
	addr := f.allocate(int64(len(b)))
	if err := f.writer.At(int64(addr)).WriteBytes(b); err != nil {
		return 0, err
	}
	return addr, nil
}

// AllocStats returns allocation statistics.
func (f *File) AllocStats() alloc.Stats {
	if f.allocator == nil {
		return alloc.Stats{}
	}
	return f.allocator.Stats()
}

// IsWritable returns true if the file was created for writing.
func (f *File) IsWritable() bool {
	return f.writable
}
