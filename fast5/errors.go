package fast5

import (
	"math"

	"github.com/cockroachdb/errors"
)

// Sentinel errors. Returned errors wrap one of these and are matched with
// errors.Is.
var (
	// ErrPathNotFound is returned when a discovery root or input file does
	// not exist.
	ErrPathNotFound = errors.New("path not found")

	// ErrNotAContainer is returned for files that fail structural probing,
	// either because of their extension or because they are not HDF5.
	ErrNotAContainer = errors.New("not a FAST5 container")

	// ErrUnrecognizedDialect is returned for HDF5 files that match neither
	// the single-read nor the multi-read layout.
	ErrUnrecognizedDialect = errors.New("unrecognized FAST5 dialect")

	// ErrReadNotFound is returned when a requested read is absent.
	ErrReadNotFound = errors.New("read not found")

	// ErrAllocation is returned when a Signal dataset declares more samples
	// than MaxSignalLength.
	ErrAllocation = errors.New("signal exceeds maximum length")

	// ErrAttributeDecode marks a single attribute that is missing or has an
	// unexpected type. It is recoverable and only ever logged.
	ErrAttributeDecode = errors.New("attribute decode failed")

	// ErrPartialFile marks a file skipped by the batch driver.
	ErrPartialFile = errors.New("file skipped")
)

// MaxSignalLength is the largest sample count a single read may declare.
const MaxSignalLength = math.MaxInt32
