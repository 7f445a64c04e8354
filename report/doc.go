// Package report renders fast5 results as the text formats consumed by
// downstream tools: a metadata TSV, per-read summary rows, raw sample dumps
// and the dataset summary.
package report
