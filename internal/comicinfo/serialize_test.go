package comicinfo

import (
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestSerialize_ExactFormat(t *testing.T) {
	md := Metadata{
		Title:    "Foo",
		Writer:   "Ann",
		Volume:   "2",
		Language: "ja",
	}
	bm := Bookmarks{1: "Ch.1"}

	got := string(Serialize(md, bm))
	want := `<?xml version="1.0" encoding="utf-8"?>
<ComicInfo xmlns:xsd="http://www.w3.org/2001/XMLSchema" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
  <Title>Foo</Title>
  <Writer>Ann</Writer>
  <Volume>2</Volume>
  <LanguageISO>ja</LanguageISO>
  <Pages>
    <Page Image="1" Bookmark="Ch.1"/>
  </Pages>
</ComicInfo>
`
	if got != want {
		t.Fatalf("Serialize() =\n%s\nwant\n%s", got, want)
	}
}

func TestSerialize_OmitsEmptyFields(t *testing.T) {
	got := string(Serialize(Metadata{}, nil))

	for _, f := range Fields {
		if strings.Contains(got, "<"+f.Tag()+">") || strings.Contains(got, "<"+f.Tag()+"/>") {
			t.Errorf("document contains element for empty field %s", f.Tag())
		}
	}
	if !strings.Contains(got, "<Pages>\n  </Pages>") {
		t.Errorf("document missing empty Pages block:\n%s", got)
	}

	var md Metadata
	bm := Bookmarks{}
	if err := Parse([]byte(got), &md, bm); err != nil {
		t.Fatalf("Parse(Serialize()) error = %v", err)
	}
	if !md.IsZero() || len(bm) != 0 {
		t.Errorf("round trip = %+v %v, want empty", md, bm)
	}
}

func TestSerialize_Escaping(t *testing.T) {
	tricky := `Tom & Jerry's <"Best">`
	md := Metadata{Title: tricky, Summary: tricky, Publisher: "A&B"}
	bm := Bookmarks{0: `"Intro" & <prologue>`}

	doc := string(Serialize(md, bm))
	if !strings.Contains(doc, "<Title>Tom &amp; Jerry&apos;s &lt;&quot;Best&quot;&gt;</Title>") {
		t.Errorf("title not escaped with named entities:\n%s", doc)
	}
	if !strings.Contains(doc, `Bookmark="&quot;Intro&quot; &amp; &lt;prologue&gt;"`) {
		t.Errorf("bookmark label not escaped:\n%s", doc)
	}

	var got Metadata
	gotBM := Bookmarks{}
	if err := Parse([]byte(doc), &got, gotBM); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got.Title != tricky || got.Summary != tricky || got.Publisher != "A&B" {
		t.Errorf("round trip metadata = %+v", got)
	}
	if gotBM[0] != bm[0] {
		t.Errorf("round trip bookmark = %q, want %q", gotBM[0], bm[0])
	}
}

func TestSerialize_RawNumericFields(t *testing.T) {
	md := Metadata{Volume: "1&2", Year: "2020", Month: "12"}
	doc := string(Serialize(md, nil))
	if !strings.Contains(doc, "<Volume>1&2</Volume>") {
		t.Errorf("volume should be emitted verbatim:\n%s", doc)
	}
	if !strings.Contains(doc, "<Year>2020</Year>") || !strings.Contains(doc, "<Month>12</Month>") {
		t.Errorf("year/month missing:\n%s", doc)
	}
}

func TestSerialize_BookmarkOrder(t *testing.T) {
	bm := Bookmarks{}
	for _, k := range []int{42, 3, 17, 0, 100, 9} {
		bm[k] = "x"
	}

	doc := string(Serialize(Metadata{}, bm))
	last := -1
	pos := 0
	for _, k := range []int{0, 3, 9, 17, 42, 100} {
		needle := `<Page Image="` + strconv.Itoa(k) + `"`
		idx := strings.Index(doc, needle)
		if idx < 0 {
			t.Fatalf("missing %s in\n%s", needle, doc)
		}
		if idx <= last {
			t.Fatalf("page %d out of order in\n%s", k, doc)
		}
		last = idx
		pos++
	}
	if strings.Count(doc, "<Page ") != pos {
		t.Errorf("page element count = %d, want %d", strings.Count(doc, "<Page "), pos)
	}
}

func TestBookInfo_RoundTrip(t *testing.T) {
	md := Metadata{
		Title:     "Title",
		Writer:    "Writer Person",
		Series:    "Series",
		Volume:    "4",
		Year:      "2019",
		Month:     "03",
		Publisher: "Pub",
		Language:  "en",
		Summary:   "Summary",
	}
	comment, err := MarshalBookInfo(md, "cbzmeta/test", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	if err != nil {
		t.Fatalf("MarshalBookInfo() error = %v", err)
	}
	if !strings.Contains(comment, `"volume":4`) {
		t.Errorf("volume should be a number: %s", comment)
	}
	if !strings.Contains(comment, `"publicationMonth":"03"`) {
		t.Errorf("non-canonical month should stay a string: %s", comment)
	}

	var got Metadata
	if !ParseBookInfo(comment, &got) {
		t.Fatalf("ParseBookInfo() = false for %s", comment)
	}
	if got != md {
		t.Errorf("round trip = %+v, want %+v", got, md)
	}
}

func TestParseBookInfo_Rejects(t *testing.T) {
	for _, comment := range []string{"", "plain zip comment", `{"other":{}}`, `{"ComicBookInfo/1.0": 5}`} {
		md := Metadata{Title: "keep"}
		if ParseBookInfo(comment, &md) {
			t.Errorf("ParseBookInfo(%q) = true, want false", comment)
		}
		if md.Title != "keep" {
			t.Errorf("ParseBookInfo(%q) modified metadata", comment)
		}
	}
}

func TestParseBookInfo_Credits(t *testing.T) {
	comment := `{"ComicBookInfo/1.0":{"publicationYear":1986,"credits":[
		{"person":"A","role":"Writer"},
		{"person":"B","role":"Penciller"},
		{"person":"C","role":"plotter"}]}}`

	var md Metadata
	if !ParseBookInfo(comment, &md) {
		t.Fatal("ParseBookInfo() = false")
	}
	if md.Writer != "A, C" {
		t.Errorf("Writer = %q, want %q", md.Writer, "A, C")
	}
	if md.Year != "1986" {
		t.Errorf("Year = %q, want %q", md.Year, "1986")
	}
}
