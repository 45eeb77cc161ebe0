// Package comic holds the in-memory model of an open comic archive and the
// load/save round trip between that model and CBZ bytes.
package comic

import (
	"github.com/yuanying/cbzmeta/internal/comicinfo"
)

// Page is one image of the comic.
type Page struct {
	Filename string
	Image    *Image
}

// Bookmark is a labelled page, used for chapter navigation.
type Bookmark struct {
	Page  int    `json:"page" yaml:"page"`
	Label string `json:"label" yaml:"label"`
}

// Document is the complete state of one open comic.
//
// Pages keep the order established at load time. Bookmarks are keyed by page
// index. CurrentPage always lies in [0, len(Pages)-1] when Pages is not empty.
type Document struct {
	Pages          []Page
	Metadata       comicinfo.Metadata
	Bookmarks      comicinfo.Bookmarks
	CurrentPage    int
	SourceFilename string

	// Warnings collects non-fatal problems found while loading, such as a
	// malformed ComicInfo.xml.
	Warnings []error
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{Bookmarks: comicinfo.Bookmarks{}}
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return len(d.Pages)
}

// SetMetadataField sets exactly one metadata field. The value is stored as
// given.
func (d *Document) SetMetadataField(f comicinfo.Field, value string) {
	d.Metadata.Set(f, value)
}

// AddBookmark bookmarks page with an empty label. It does nothing when page
// is already bookmarked or does not exist.
func (d *Document) AddBookmark(page int) {
	if !d.validPage(page) {
		return
	}
	if d.Bookmarks == nil {
		d.Bookmarks = comicinfo.Bookmarks{}
	}
	if _, ok := d.Bookmarks[page]; ok {
		return
	}
	d.Bookmarks[page] = ""
}

// EditBookmarkLabel replaces the label of an existing bookmark and reports
// whether one existed.
func (d *Document) EditBookmarkLabel(page int, label string) bool {
	if _, ok := d.Bookmarks[page]; !ok {
		return false
	}
	d.Bookmarks[page] = label
	return true
}

// RemoveBookmark deletes the bookmark on page if there is one.
func (d *Document) RemoveBookmark(page int) {
	delete(d.Bookmarks, page)
}

// SortedBookmarks returns bookmarks in ascending page order.
func (d *Document) SortedBookmarks() []Bookmark {
	keys := d.Bookmarks.Keys()
	out := make([]Bookmark, 0, len(keys))
	for _, k := range keys {
		out = append(out, Bookmark{Page: k, Label: d.Bookmarks[k]})
	}
	return out
}

// SetCurrentPage moves to page i, clamped to the page range. On an empty
// document the current page is left alone.
func (d *Document) SetCurrentPage(i int) {
	if len(d.Pages) == 0 {
		return
	}
	d.CurrentPage = clamp(i, 0, len(d.Pages)-1)
}

// StepCurrentPage moves delta pages forward (or back when negative).
func (d *Document) StepCurrentPage(delta int) {
	d.SetCurrentPage(d.CurrentPage + delta)
}

// CurrentImage returns the image of the current page, or nil when the
// document has no pages.
func (d *Document) CurrentImage() *Image {
	if !d.validPage(d.CurrentPage) {
		return nil
	}
	return d.Pages[d.CurrentPage].Image
}

// Release frees every page image. The document must not be saved afterwards.
func (d *Document) Release() {
	if d == nil {
		return
	}
	releasePages(d.Pages)
}

func (d *Document) validPage(i int) bool {
	return i >= 0 && i < len(d.Pages)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
