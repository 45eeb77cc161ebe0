// Package archive wraps archive/zip behind the four primitives the comic
// model needs: list entries, read an entry, add an entry, finalize.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrNotZip        = errors.New("not a zip archive")
	ErrEntryNotFound = errors.New("entry not found")
)

// Reader provides access to the entries of an in-memory zip archive.
type Reader struct {
	zr      *zip.Reader
	files   map[string]*zip.File
	entries []string
}

// NewReader opens a zip archive held in data.
func NewReader(data []byte) (*Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotZip, err)
	}

	r := &Reader{
		zr:    zr,
		files: make(map[string]*zip.File, len(zr.File)),
	}

	// Build file map with normalized paths; the first of duplicate names wins.
	for _, f := range zr.File {
		name := normalizePath(f.Name)
		if _, dup := r.files[name]; dup {
			continue
		}
		r.files[name] = f
		r.entries = append(r.entries, name)
	}

	return r, nil
}

// Entries returns entry names in archive order. Directory entries keep
// their trailing slash.
func (r *Reader) Entries() []string {
	out := make([]string, len(r.entries))
	copy(out, r.entries)
	return out
}

// Comment returns the archive comment.
func (r *Reader) Comment() string {
	return r.zr.Comment
}

// ReadFile reads the contents of an entry.
func (r *Reader) ReadFile(name string) ([]byte, error) {
	name = normalizePath(name)
	f, ok := r.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open entry %s: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read entry %s: %w", name, err)
	}
	return data, nil
}

// IsDir reports whether name denotes a directory entry.
func IsDir(name string) bool {
	return strings.HasSuffix(name, "/")
}

// normalizePath normalizes entry paths (removes ./ prefix)
func normalizePath(path string) string {
	return strings.TrimPrefix(path, "./")
}
