// Package fast5 reads and writes FAST5 containers, the HDF5-based format
// that stores raw current traces from nanopore sequencing instruments.
//
// Two mutually incompatible layouts exist. Single-read files hold one read
// under /Raw/Reads/Read_<n> with run-level groups under /UniqueGlobalKey.
// Multi-read files hold many reads as root groups named read_<id>, each
// carrying its own Raw, channel_id, context_tags and tracking_id groups.
// [Detect] tells them apart.
//
// # Reading
//
// A [Reader] walks the reads of a file in native order and builds one
// [ReadMetadata] per read. While each read's Signal dataset is open the
// reader runs an ordered chain of [Enricher] values that fill the optional
// fields: calibration, channel, run context and storage layout.
//
//	r := fast5.NewReader(fast5.WithLogger(log))
//	reads, err := r.ReadFile("batch_0.fast5")
//
// [ReadSignal] returns the raw int16 samples of one read.
//
// # Writing
//
// [Write] builds a compliant container in either dialect. The file is
// assembled under a temporary name and renamed into place only when it is
// complete.
//
// # Batches
//
// [Discover] lists candidate files, [ProcessFiles] reads them with an
// optional worker pool, and [Statistics] folds the results into dataset
// totals. A file that cannot be parsed is counted as failed and never
// aborts the batch.
package fast5
