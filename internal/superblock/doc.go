// Package superblock locates and decodes the HDF5 superblock, the entry
// point of every FAST5 file. Versions 0 and 1 come from files written by
// HDF5 1.8 era MinKNOW releases and reach the root group through a symbol
// table entry; versions 2 and 3 name the root object header directly and
// carry a checksum.
//
// Only version 3 superblocks are written.
package superblock
