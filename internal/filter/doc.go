// Package filter decodes and encodes chunk filter pipelines.
//
// Deflate, shuffle and Fletcher-32 are the standard filters. LZ4 (32004)
// and Zstandard (32015) are the registered codecs nanopore tools write.
// VBZ (32020), SZIP, N-bit and scale-offset are recognized by ID only, so
// [Supported] reports false for them and datasets that need them cannot be
// decoded. Optional filters missing here are skipped.
//
// A [Pipeline] decodes in reverse order of the filter message and honors
// the per-chunk filter mask:
//
//	p, err := filter.NewPipeline(msg)
//	data, err := p.Decode(chunk, mask)
package filter
