package comic

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/yuanying/cbzmeta/internal/archive"
)

// SessionOptions configures a Session.
type SessionOptions struct {
	Load   LoadOptions
	Save   SaveOptions
	Logger *slog.Logger
}

// Session owns the single open Document. Loads are last-load-wins: starting
// a load cancels the one in flight, and a load that completes after a newer
// one started is discarded.
type Session struct {
	mu     sync.Mutex
	doc    *Document
	gen    uint64
	cancel context.CancelFunc

	opts   SessionOptions
	logger *slog.Logger
}

// NewSession returns a session holding an empty document.
func NewSession(opts SessionOptions) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Load.Logger == nil {
		opts.Load.Logger = logger
	}
	return &Session{
		doc:    NewDocument(),
		opts:   opts,
		logger: logger,
	}
}

// Document returns the current document. Editing operations act on it in
// place.
func (s *Session) Document() *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Load replaces the current document with the archive in data. name is
// recorded as the document's source filename. On failure the current
// document is kept.
func (s *Session) Load(ctx context.Context, name string, data []byte) error {
	return s.replace(ctx, name, func(ctx context.Context) (*Document, error) {
		return Load(ctx, data, s.opts.Load)
	})
}

// LoadFile reads and loads the archive at path.
func (s *Session) LoadFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &LoadError{Op: "read", Path: path, Err: err}
	}
	return s.Load(ctx, filepath.Base(path), data)
}

// ImportEPUB replaces the current document with an EPUB comic converted to
// pages, metadata and bookmarks.
func (s *Session) ImportEPUB(ctx context.Context, name string, data []byte) error {
	return s.replace(ctx, name, func(ctx context.Context) (*Document, error) {
		return ImportEPUB(ctx, data, ImportOptions{Logger: s.logger})
	})
}

func (s *Session) replace(ctx context.Context, name string, load func(context.Context) (*Document, error)) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	loadCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	doc, err := load(loadCtx)

	s.mu.Lock()
	defer s.mu.Unlock()
	cancel()

	if gen != s.gen {
		doc.Release()
		s.logger.Debug("discarding superseded load", slog.String("file", name))
		return ErrSuperseded
	}
	s.cancel = nil
	if err != nil {
		return err
	}

	doc.SourceFilename = name
	old := s.doc
	s.doc = doc
	old.Release()

	s.logger.Info("opened comic",
		slog.String("file", name),
		slog.Int("pages", doc.PageCount()),
		slog.Int("bookmarks", len(doc.Bookmarks)))
	return nil
}

// Save serializes the current document.
func (s *Session) Save() ([]byte, error) {
	return Save(s.Document(), s.opts.Save)
}

// SaveFile serializes the current document and writes it to path
// atomically.
func (s *Session) SaveFile(path string) error {
	data, err := s.Save()
	if err != nil {
		return err
	}
	if err := archive.WriteFileAtomic(path, data, 0o644); err != nil {
		return &SaveError{Op: "write", Path: path, Err: err}
	}
	s.logger.Info("saved comic", slog.String("file", path), slog.Int("bytes", len(data)))
	return nil
}

// Close cancels any in-flight load and releases the current document.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	s.doc.Release()
	s.doc = NewDocument()
}
