package comic

import (
	"errors"
	"fmt"
)

var (
	// ErrSuperseded is returned by a load that finished after a newer load
	// had already started. Its result is discarded.
	ErrSuperseded = errors.New("load superseded by a newer request")

	// ErrReleased is returned when reading a page image whose document has
	// been replaced.
	ErrReleased = errors.New("page image released")
)

// LoadError reports that an archive could not be loaded. The session's
// previous document is left untouched.
type LoadError struct {
	Op   string // "open", "read", "extract", "import", "load"
	Path string // entry or file involved, if any
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("load %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Op, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// SaveError reports that an archive could not be produced or written.
// No partial output is exposed.
type SaveError struct {
	Op   string // "save", "page", "metadata", "comment", "finalize", "write"
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("save %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("save %s: %v", e.Op, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }
