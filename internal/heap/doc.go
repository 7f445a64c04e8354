// Package heap reads the two HDF5 heaps a FAST5 file touches: the local
// heap ("HEAP") holding member names of old-style groups, and global heap
// collections ("GCOL") holding variable-length strings such as the
// context_tags and tracking_id values written by older basecallers.
//
// It also writes single collections for the variable-length attributes the
// container writer emits.
package heap
