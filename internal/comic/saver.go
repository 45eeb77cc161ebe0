package comic

import (
	"errors"
	"fmt"
	"time"

	"github.com/yuanying/cbzmeta/internal/archive"
	"github.com/yuanying/cbzmeta/internal/comicinfo"
)

// DefaultAppID identifies this tool in ComicBookInfo comments.
const DefaultAppID = "github.com/yuanying/cbzmeta"

// SaveOptions controls archive serialization.
type SaveOptions struct {
	// BookInfoComment also writes a ComicBookInfo/1.0 zip comment.
	BookInfoComment bool
	AppID           string

	// Now stamps the ComicBookInfo comment. Zero uses time.Now.
	Now time.Time

	// Modified is written as every entry's modification time. Zero leaves
	// timestamps unset.
	Modified time.Time
}

// Save serializes doc into CBZ bytes: every page under its original filename
// in page order, then a freshly generated ComicInfo.xml. doc is not modified.
func Save(doc *Document, opts SaveOptions) (out []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			out = nil
			err = &SaveError{Op: "save", Err: fmt.Errorf("panic: %v", p)}
		}
	}()
	if doc == nil {
		return nil, &SaveError{Op: "save", Err: errors.New("nil document")}
	}

	w := archive.NewWriter(opts.Modified)

	for _, p := range doc.Pages {
		if p.Image == nil {
			return nil, &SaveError{Op: "page", Path: p.Filename, Err: ErrReleased}
		}
		data, err := p.Image.Bytes()
		if err != nil {
			return nil, &SaveError{Op: "page", Path: p.Filename, Err: err}
		}
		if err := w.AddEntry(p.Filename, data); err != nil {
			return nil, &SaveError{Op: "page", Path: p.Filename, Err: err}
		}
	}

	info := comicinfo.Serialize(doc.Metadata, liveBookmarks(doc))
	if err := w.AddEntry(comicinfo.EntryName, info); err != nil {
		return nil, &SaveError{Op: "metadata", Path: comicinfo.EntryName, Err: err}
	}

	if opts.BookInfoComment {
		now := opts.Now
		if now.IsZero() {
			now = time.Now()
		}
		appID := opts.AppID
		if appID == "" {
			appID = DefaultAppID
		}
		comment, err := comicinfo.MarshalBookInfo(doc.Metadata, appID, now)
		if err != nil {
			return nil, &SaveError{Op: "comment", Err: err}
		}
		if err := w.SetComment(comment); err != nil {
			return nil, &SaveError{Op: "comment", Err: err}
		}
	}

	data, err := w.Finalize()
	if err != nil {
		return nil, &SaveError{Op: "finalize", Err: err}
	}
	return data, nil
}

// MetadataDocument returns the ComicInfo.xml that Save would write.
func MetadataDocument(doc *Document) []byte {
	return comicinfo.Serialize(doc.Metadata, liveBookmarks(doc))
}

// liveBookmarks drops bookmarks that point past the last page.
func liveBookmarks(doc *Document) comicinfo.Bookmarks {
	out := make(comicinfo.Bookmarks, len(doc.Bookmarks))
	for k, v := range doc.Bookmarks {
		if doc.validPage(k) {
			out[k] = v
		}
	}
	return out
}
