package comic

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"golang.org/x/text/language"

	"github.com/yuanying/cbzmeta/internal/archive"
	"github.com/yuanying/cbzmeta/internal/comicinfo"
)

const sampleInfo = `<?xml version="1.0" encoding="utf-8"?>
<ComicInfo>
  <Title>Sample</Title>
  <Writer>Someone</Writer>
  <Year>1999</Year>
  <Pages>
    <Page Image="0" Bookmark="Cover"/>
  </Pages>
</ComicInfo>`

func TestLoad_OrdersPagesAndParsesMetadata(t *testing.T) {
	data := buildCBZ(t, "",
		entry{"b.png", []byte("B")},
		entry{"a.jpg", []byte("A")},
		entry{"notes.txt", []byte("ignored")},
		entry{"ComicInfo.xml", []byte(sampleInfo)},
	)

	doc, err := Load(context.Background(), data, LoadOptions{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got, want := filenames(doc), []string{"a.jpg", "b.png"}; !equalStrings(got, want) {
		t.Fatalf("pages = %v, want %v", got, want)
	}
	if doc.Metadata.Title != "Sample" || doc.Metadata.Writer != "Someone" || doc.Metadata.Year != "1999" {
		t.Errorf("Metadata = %+v", doc.Metadata)
	}
	if doc.Bookmarks[0] != "Cover" {
		t.Errorf("Bookmarks = %v", doc.Bookmarks)
	}
	if doc.CurrentPage != 0 {
		t.Errorf("CurrentPage = %d, want 0", doc.CurrentPage)
	}
	if len(doc.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", doc.Warnings)
	}

	got, err := doc.Pages[0].Image.Bytes()
	if err != nil || string(got) != "A" {
		t.Errorf("page 0 bytes = %q, %v", got, err)
	}
}

func TestLoad_NoMetadataDocument(t *testing.T) {
	data := buildCBZ(t, "", entry{"01.png", []byte("x")})

	doc, err := Load(context.Background(), data, LoadOptions{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !doc.Metadata.IsZero() || len(doc.Bookmarks) != 0 {
		t.Errorf("expected default metadata and no bookmarks, got %+v %v", doc.Metadata, doc.Bookmarks)
	}
}

func TestLoad_MalformedMetadataKeepsDefaults(t *testing.T) {
	data := buildCBZ(t, "",
		entry{"01.png", []byte("x")},
		entry{"ComicInfo.xml", []byte("<ComicInfo><Title>Broken")},
	)

	doc, err := Load(context.Background(), data, LoadOptions{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc.PageCount() != 1 {
		t.Errorf("PageCount() = %d, want 1", doc.PageCount())
	}
	if !doc.Metadata.IsZero() {
		t.Errorf("Metadata = %+v, want defaults", doc.Metadata)
	}
	if len(doc.Warnings) != 1 {
		t.Fatalf("Warnings = %v, want one", doc.Warnings)
	}
	var perr *comicinfo.ParseError
	if !errors.As(doc.Warnings[0], &perr) {
		t.Errorf("warning %v is not a *comicinfo.ParseError", doc.Warnings[0])
	}
}

func TestLoad_CorruptArchive(t *testing.T) {
	_, err := Load(context.Background(), []byte("this is not a zip"), LoadOptions{})
	if err == nil {
		t.Fatal("Load() should fail on corrupt data")
	}
	var lerr *LoadError
	if !errors.As(err, &lerr) {
		t.Fatalf("error %T is not *LoadError", err)
	}
	if lerr.Op != "open" {
		t.Errorf("Op = %q, want open", lerr.Op)
	}
	if !errors.Is(err, archive.ErrNotZip) {
		t.Errorf("errors.Is(err, ErrNotZip) = false for %v", err)
	}
}

func TestLoad_ComicBookInfoOverlay(t *testing.T) {
	comment := `{"appID":"x","ComicBookInfo/1.0":{"title":"From Comment","publisher":"Pub","publicationYear":2001}}`
	data := buildCBZ(t, comment,
		entry{"01.png", []byte("x")},
		entry{"ComicInfo.xml", []byte(`<ComicInfo><Title>From XML</Title></ComicInfo>`)},
	)

	doc, err := Load(context.Background(), data, LoadOptions{ReadBookInfo: true})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc.Metadata.Title != "From XML" {
		t.Errorf("Title = %q, want ComicInfo.xml to win", doc.Metadata.Title)
	}
	if doc.Metadata.Publisher != "Pub" || doc.Metadata.Year != "2001" {
		t.Errorf("Metadata = %+v, want comment fields", doc.Metadata)
	}

	doc, err = Load(context.Background(), data, LoadOptions{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc.Metadata.Publisher != "" {
		t.Errorf("Publisher = %q, comment should be ignored by default", doc.Metadata.Publisher)
	}
}

func TestLoad_LocaleCollation(t *testing.T) {
	data := buildCBZ(t, "",
		entry{"b.png", []byte("b")},
		entry{"B.png", []byte("B")},
		entry{"a.png", []byte("a")},
		entry{"c.png", []byte("c")},
	)

	doc, err := Load(context.Background(), data, LoadOptions{Locale: language.English})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	got := filenames(doc)
	if got[0] != "a.png" || got[3] != "c.png" {
		t.Errorf("pages = %v, want a.png first and c.png last", got)
	}
}

func TestLoad_Cancelled(t *testing.T) {
	data := buildCBZ(t, "", entry{"01.png", []byte("x")})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, data, LoadOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Load() error = %v, want context.Canceled", err)
	}
}

type failingReader struct {
	entries []string
	fail    string
	reads   atomic.Int32
}

func (f *failingReader) Entries() []string { return f.entries }

func (f *failingReader) ReadFile(name string) ([]byte, error) {
	f.reads.Add(1)
	if name == f.fail {
		return nil, errors.New("crc mismatch")
	}
	return []byte(name), nil
}

func TestLoadArchive_ExtractionFailure(t *testing.T) {
	r := &failingReader{
		entries: []string{"01.png", "02.png", "03.png"},
		fail:    "02.png",
	}

	doc, err := LoadArchive(context.Background(), r, LoadOptions{Workers: 1})
	if err == nil {
		t.Fatal("LoadArchive() should fail")
	}
	if doc != nil {
		t.Error("LoadArchive() returned a document on failure")
	}
	var lerr *LoadError
	if !errors.As(err, &lerr) || lerr.Op != "extract" || lerr.Path != "02.png" {
		t.Errorf("error = %v, want extract failure for 02.png", err)
	}
}

type panickingReader struct{}

func (panickingReader) Entries() []string              { panic("boom") }
func (panickingReader) ReadFile(string) ([]byte, error) { return nil, nil }

func TestLoadArchive_RecoversPanic(t *testing.T) {
	_, err := LoadArchive(context.Background(), panickingReader{}, LoadOptions{})
	var lerr *LoadError
	if !errors.As(err, &lerr) || lerr.Op != "load" {
		t.Fatalf("error = %v, want load failure", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("error %q does not mention panic value", err)
	}
}

type panicOnReadReader struct {
	entries []string
}

func (r panicOnReadReader) Entries() []string { return r.entries }

func (panicOnReadReader) ReadFile(name string) ([]byte, error) {
	if name == "a.png" {
		panic("boom in extraction")
	}
	return []byte(name), nil
}

func TestLoadArchive_RecoversPanicInExtraction(t *testing.T) {
	r := panicOnReadReader{entries: []string{"a.png", "b.png"}}

	doc, err := LoadArchive(context.Background(), r, LoadOptions{Workers: 2})
	if doc != nil {
		t.Error("LoadArchive() returned a document on failure")
	}
	var lerr *LoadError
	if !errors.As(err, &lerr) {
		t.Fatalf("LoadArchive() error = %v, want *LoadError", err)
	}
	if lerr.Op != "extract" || lerr.Path != "a.png" {
		t.Errorf("LoadError = %+v, want extract of a.png", lerr)
	}
	if !strings.Contains(err.Error(), "boom in extraction") {
		t.Errorf("error %q does not mention panic value", err)
	}
}

func TestIsImageName(t *testing.T) {
	tests := map[string]bool{
		"a.png":         true,
		"dir/b.JPG":     true,
		"c.jpeg":        true,
		"d.gif":         false,
		"ComicInfo.xml": false,
		"images.png/":   false,
		"png":           false,
	}
	for name, want := range tests {
		if got := IsImageName(name); got != want {
			t.Errorf("IsImageName(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestLoad_PreservesNestedNames(t *testing.T) {
	data := buildCBZ(t, "",
		entry{"vol1/02.png", []byte("2")},
		entry{"vol1/01.png", []byte("1")},
	)
	doc, err := Load(context.Background(), data, LoadOptions{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got, want := filenames(doc), []string{"vol1/01.png", "vol1/02.png"}; !equalStrings(got, want) {
		t.Errorf("pages = %v, want %v", got, want)
	}
	b, _ := doc.Pages[0].Image.Bytes()
	if !bytes.Equal(b, []byte("1")) {
		t.Errorf("page 0 bytes = %q", b)
	}
}
