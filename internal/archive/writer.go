package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"time"
)

// ErrFinalized is returned when a Writer is used after Finalize.
var ErrFinalized = errors.New("archive writer already finalized")

// Writer builds a zip archive in memory.
type Writer struct {
	buf       bytes.Buffer
	zw        *zip.Writer
	modified  time.Time
	names     map[string]bool
	finalized bool
}

// NewWriter returns an empty archive writer. Entries carry the modification
// time modified; the zero time leaves the timestamp fields unset, which
// keeps output byte-for-byte reproducible.
func NewWriter(modified time.Time) *Writer {
	w := &Writer{
		modified: modified,
		names:    make(map[string]bool),
	}
	w.zw = zip.NewWriter(&w.buf)
	return w
}

// AddEntry writes data under name. Duplicate names are rejected.
func (w *Writer) AddEntry(name string, data []byte) error {
	if w.finalized {
		return ErrFinalized
	}
	name = normalizePath(name)
	if w.names[name] {
		return fmt.Errorf("duplicate entry %s", name)
	}

	fw, err := w.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: w.modified,
	})
	if err != nil {
		return fmt.Errorf("failed to create entry %s: %w", name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("failed to write entry %s: %w", name, err)
	}
	w.names[name] = true
	return nil
}

// SetComment sets the archive comment written by Finalize.
func (w *Writer) SetComment(comment string) error {
	if w.finalized {
		return ErrFinalized
	}
	return w.zw.SetComment(comment)
}

// Finalize writes the central directory and returns the archive bytes.
func (w *Writer) Finalize() ([]byte, error) {
	if w.finalized {
		return nil, ErrFinalized
	}
	w.finalized = true
	if err := w.zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return w.buf.Bytes(), nil
}
