// Package epub reads fixed-layout comic EPUBs: one image per spine page.
package epub

// OPF represents the parsed Open Package Format document
type OPF struct {
	Metadata      Metadata
	Manifest      map[string]ManifestItem // id -> item
	ManifestOrder []string                // ids in document order
	Spine         []SpineItem
	NCXPath       string
	RTL           bool // page-progression-direction="rtl"
}

// Metadata represents the metadata section of the OPF
type Metadata struct {
	Title       string
	Creators    []Creator
	Language    string
	Publisher   string
	Date        string
	Description string
	Series      string // calibre:series
	SeriesIndex string // calibre:series_index
}

// Creator represents a creator (author, artist, etc.) of the book
type Creator struct {
	Name string
	Role string // e.g., "aut" for author
}

// ManifestItem represents an item in the manifest
type ManifestItem struct {
	ID        string
	Href      string // absolute path within the EPUB
	MediaType string
}

// SpineItem represents an item reference in the spine
type SpineItem struct {
	IDRef  string
	Linear bool
}

// NavPoint is one table-of-contents entry, flattened from the NCX.
type NavPoint struct {
	PlayOrder   int
	Label       string
	ContentPath string // fragment-free, absolute path within EPUB
}
