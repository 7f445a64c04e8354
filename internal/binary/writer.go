package binary

import (
	"io"
)

// Writer places encoded metadata into an io.WriterAt. Callers build each
// structure with the Config append helpers and write it in one call.
type Writer struct {
	w   io.WriterAt
	cfg Config
	pos int64
}

// NewWriter returns a Writer at position 0.
func NewWriter(w io.WriterAt, cfg Config) *Writer {
	return &Writer{w: w, cfg: cfg}
}

// At returns a cursor positioned at offset.
func (w *Writer) At(offset int64) *Writer {
	return &Writer{w: w.w, cfg: w.cfg, pos: offset}
}

func (w *Writer) Config() Config { return w.cfg }
func (w *Writer) Pos() int64     { return w.pos }

// UndefinedOffset returns the undefined address for this encoding.
func (w *Writer) UndefinedOffset() uint64 { return w.cfg.Undefined() }

// WriteBytes writes data at the cursor and advances it.
func (w *Writer) WriteBytes(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	n, err := w.w.WriteAt(data, w.pos)
	w.pos += int64(n)
	return err
}
