// Package alloc tracks file space while a container is written.
//
// Dataset bytes are written as soon as a dataset is created, and object
// headers are written when the file is flushed, so every structure needs an
// address before it is serialised. The [Allocator] hands those out by
// appending at the end of file:
//
//	a := alloc.New(sb.Size())
//	signalAddr := a.Alloc(uint64(2 * len(samples)))
//	headerAddr := a.Alloc(headerSize)
//
// Freed space is never reused. Writers build a container once and rename it
// into place, so there is nothing to reclaim.
package alloc
