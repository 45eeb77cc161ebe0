package comicinfo

import (
	"sort"
	"strings"
)

// EntryName is the archive entry holding the metadata document.
const EntryName = "ComicInfo.xml"

// Field identifies one bibliographic field of Metadata.
type Field int

const (
	FieldTitle Field = iota
	FieldWriter
	FieldSeries
	FieldVolume
	FieldYear
	FieldMonth
	FieldPublisher
	FieldLanguage
	FieldSummary
)

type fieldInfo struct {
	key  string // stable lower-case key used on the command line
	tag  string // ComicInfo.xml element name
	raw  bool   // emitted without escaping
	name string // human readable label
}

// Fields lists every field in document order.
var Fields = []Field{
	FieldTitle,
	FieldWriter,
	FieldSeries,
	FieldVolume,
	FieldYear,
	FieldMonth,
	FieldPublisher,
	FieldLanguage,
	FieldSummary,
}

var fieldTable = map[Field]fieldInfo{
	FieldTitle:     {key: "title", tag: "Title", name: "Title"},
	FieldWriter:    {key: "writer", tag: "Writer", name: "Writer"},
	FieldSeries:    {key: "series", tag: "Series", name: "Series"},
	FieldVolume:    {key: "volume", tag: "Volume", raw: true, name: "Volume"},
	FieldYear:      {key: "year", tag: "Year", raw: true, name: "Pub. Year"},
	FieldMonth:     {key: "month", tag: "Month", raw: true, name: "Pub. Month"},
	FieldPublisher: {key: "publisher", tag: "Publisher", name: "Publisher"},
	FieldLanguage:  {key: "language", tag: "LanguageISO", raw: true, name: "Language (ISO)"},
	FieldSummary:   {key: "summary", tag: "Summary", name: "Summary"},
}

// Key returns the lower-case identifier of the field, e.g. "language".
func (f Field) Key() string { return fieldTable[f].key }

// Tag returns the element name used in ComicInfo.xml, e.g. "LanguageISO".
func (f Field) Tag() string { return fieldTable[f].tag }

// Label returns a display label for the field.
func (f Field) Label() string { return fieldTable[f].name }

func (f Field) String() string { return f.Key() }

// Valid reports whether f is one of the known fields.
func (f Field) Valid() bool {
	_, ok := fieldTable[f]
	return ok
}

// ParseField looks a field up by key or element name, case-insensitively.
func ParseField(s string) (Field, bool) {
	s = strings.TrimSpace(s)
	for _, f := range Fields {
		if strings.EqualFold(s, f.Key()) || strings.EqualFold(s, f.Tag()) {
			return f, true
		}
	}
	return 0, false
}

// Metadata is the bibliographic record stored in ComicInfo.xml.
// The zero value has every field empty.
type Metadata struct {
	Title     string `json:"title,omitempty" yaml:"title,omitempty"`
	Writer    string `json:"writer,omitempty" yaml:"writer,omitempty"`
	Series    string `json:"series,omitempty" yaml:"series,omitempty"`
	Volume    string `json:"volume,omitempty" yaml:"volume,omitempty"`
	Year      string `json:"year,omitempty" yaml:"year,omitempty"`
	Month     string `json:"month,omitempty" yaml:"month,omitempty"`
	Publisher string `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	Language  string `json:"language,omitempty" yaml:"language,omitempty"`
	Summary   string `json:"summary,omitempty" yaml:"summary,omitempty"`
}

func (m *Metadata) ptr(f Field) *string {
	switch f {
	case FieldTitle:
		return &m.Title
	case FieldWriter:
		return &m.Writer
	case FieldSeries:
		return &m.Series
	case FieldVolume:
		return &m.Volume
	case FieldYear:
		return &m.Year
	case FieldMonth:
		return &m.Month
	case FieldPublisher:
		return &m.Publisher
	case FieldLanguage:
		return &m.Language
	case FieldSummary:
		return &m.Summary
	}
	return nil
}

// Get returns the value of field f, or "" for an unknown field.
func (m Metadata) Get(f Field) string {
	if p := m.ptr(f); p != nil {
		return *p
	}
	return ""
}

// Set assigns value to field f. Unknown fields are ignored.
func (m *Metadata) Set(f Field, value string) {
	if p := m.ptr(f); p != nil {
		*p = value
	}
}

// IsZero reports whether every field is empty.
func (m Metadata) IsZero() bool {
	return m == Metadata{}
}

// Bookmarks maps a page index to its label.
type Bookmarks map[int]string

// Keys returns the bookmarked page indexes in ascending order.
func (b Bookmarks) Keys() []int {
	keys := make([]int, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Clone returns an independent copy of b.
func (b Bookmarks) Clone() Bookmarks {
	c := make(Bookmarks, len(b))
	for k, v := range b {
		c[k] = v
	}
	return c
}
