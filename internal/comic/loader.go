package comic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/yuanying/cbzmeta/internal/archive"
	"github.com/yuanying/cbzmeta/internal/comicinfo"
)

// imageExtensions are the entry extensions treated as pages.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// EntryReader is the read side of the archive codec.
type EntryReader interface {
	Entries() []string
	ReadFile(name string) ([]byte, error)
}

// commenter is implemented by readers exposing the zip archive comment.
type commenter interface {
	Comment() string
}

// LoadOptions controls how an archive is turned into a Document.
type LoadOptions struct {
	// Locale selects the collation used to order pages by filename.
	// The zero value uses the root collation.
	Locale language.Tag

	// Workers bounds concurrent entry extraction. Zero uses runtime.NumCPU.
	Workers int

	// ReadBookInfo overlays a ComicBookInfo zip comment before ComicInfo.xml.
	ReadBookInfo bool

	Logger *slog.Logger
}

func (o LoadOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (o LoadOptions) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.NumCPU()
}

// IsImageName reports whether an entry name has a page image extension.
func IsImageName(name string) bool {
	if archive.IsDir(name) {
		return false
	}
	return imageExtensions[strings.ToLower(path.Ext(name))]
}

// Load parses CBZ bytes into a new Document.
func Load(ctx context.Context, data []byte, opts LoadOptions) (*Document, error) {
	r, err := archive.NewReader(data)
	if err != nil {
		return nil, &LoadError{Op: "open", Err: err}
	}
	return LoadArchive(ctx, r, opts)
}

// LoadArchive builds a Document from the entries of r.
//
// Every png/jpg/jpeg entry becomes a page; pages are ordered by filename
// collation. ComicInfo.xml, when present, is parsed onto default metadata;
// a malformed document is recorded as a warning and otherwise ignored.
// Any extraction failure aborts the load with a *LoadError.
func LoadArchive(ctx context.Context, r EntryReader, opts LoadOptions) (doc *Document, err error) {
	logger := opts.logger()

	defer func() {
		if p := recover(); p != nil {
			doc = nil
			err = &LoadError{Op: "load", Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	var imageNames []string
	hasInfo := false
	for _, name := range r.Entries() {
		switch {
		case IsImageName(name):
			imageNames = append(imageNames, name)
		case name == comicinfo.EntryName:
			hasInfo = true
		default:
			logger.Debug("skipping entry", slog.String("entry", name))
		}
	}

	pages, err := extractPages(ctx, r, imageNames, opts.workers())
	if err != nil {
		return nil, err
	}

	doc = NewDocument()
	doc.Pages = pages

	if opts.ReadBookInfo {
		if c, ok := r.(commenter); ok && comicinfo.ParseBookInfo(c.Comment(), &doc.Metadata) {
			logger.Debug("applied ComicBookInfo comment")
		}
	}

	if hasInfo {
		infoData, err := r.ReadFile(comicinfo.EntryName)
		if err != nil {
			doc.Release()
			return nil, &LoadError{Op: "extract", Path: comicinfo.EntryName, Err: err}
		}
		if err := applyComicInfo(doc, infoData); err != nil {
			logger.Warn("ignoring metadata document",
				slog.String("entry", comicinfo.EntryName),
				slog.String("error", err.Error()))
			doc.Warnings = append(doc.Warnings, err)
		}
	}

	sortPages(doc.Pages, opts.Locale)

	logger.Debug("archive loaded",
		slog.Int("pages", len(doc.Pages)),
		slog.Int("bookmarks", len(doc.Bookmarks)))

	return doc, nil
}

// applyComicInfo overlays a ComicInfo.xml document onto a copy of the
// document's metadata, so a parse failure leaves the defaults in place.
func applyComicInfo(doc *Document, data []byte) error {
	md := doc.Metadata
	bm := doc.Bookmarks.Clone()
	if err := comicinfo.Parse(data, &md, bm); err != nil {
		var perr *comicinfo.ParseError
		if errors.As(err, &perr) {
			return err
		}
		return &comicinfo.ParseError{Err: err}
	}
	doc.Metadata = md
	doc.Bookmarks = bm
	return nil
}

func extractPages(ctx context.Context, r EntryReader, names []string, workers int) ([]Page, error) {
	pages := make([]Page, len(names))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, name := range names {
		g.Go(func() (err error) {
			// recover in LoadArchive does not reach worker goroutines.
			defer func() {
				if p := recover(); p != nil {
					err = &LoadError{Op: "extract", Path: name, Err: fmt.Errorf("panic: %v", p)}
				}
			}()
			if err := gCtx.Err(); err != nil {
				return err
			}
			data, err := r.ReadFile(name)
			if err != nil {
				return &LoadError{Op: "extract", Path: name, Err: err}
			}
			pages[i] = Page{Filename: name, Image: NewImage(data)}
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		// A cancellation that raced the last extraction still aborts the load.
		err = ctx.Err()
	}
	if err != nil {
		releasePages(pages)
		var lerr *LoadError
		if errors.As(err, &lerr) {
			return nil, err
		}
		return nil, &LoadError{Op: "extract", Err: err}
	}
	return pages, nil
}

func releasePages(pages []Page) {
	for _, p := range pages {
		if p.Image != nil {
			p.Image.Release()
		}
	}
}

// sortPages orders pages by locale-aware filename collation, falling back to
// byte order for names the collator considers equal.
func sortPages(pages []Page, locale language.Tag) {
	col := collate.New(locale)
	sort.SliceStable(pages, func(i, j int) bool {
		a, b := pages[i].Filename, pages[j].Filename
		if c := col.CompareString(a, b); c != 0 {
			return c < 0
		}
		return a < b
	})
}
