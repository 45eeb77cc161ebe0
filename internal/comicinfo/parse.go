package comicinfo

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"
)

// ErrNoRoot is returned for a document that contains no element at all.
var ErrNoRoot = errors.New("document has no root element")

// ParseError reports a malformed metadata document. It is a warning: callers
// are expected to continue with whatever metadata they already had.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed %s: %v", EntryName, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// tagFields maps element names to the field they populate.
var tagFields = func() map[string]Field {
	m := make(map[string]Field, len(Fields))
	for _, f := range Fields {
		m[f.Tag()] = f
	}
	return m
}()

// frame is an open element on the decode stack. text is non-nil when the
// element's text content is being collected.
type frame struct {
	field Field
	text  *strings.Builder
}

type pageAttr struct {
	image    string
	bookmark string
}

// Parse reads a ComicInfo.xml document and overlays it onto md and bm.
//
// Known elements are matched by local name at any depth and the first
// occurrence wins. Only non-empty values are applied, so fields missing from
// the document keep their current value. Page elements with a numeric Image
// attribute and a non-empty Bookmark attribute set bm[Image] = Bookmark.
//
// The whole document is decoded before anything is applied; on a *ParseError
// md and bm are left exactly as they were.
func Parse(doc []byte, md *Metadata, bm Bookmarks) error {
	values, pages, err := decode(doc)
	if err != nil {
		return &ParseError{Err: err}
	}

	if md != nil {
		for f, v := range values {
			if v != "" {
				md.Set(f, v)
			}
		}
	}

	if bm != nil {
		for _, p := range pages {
			if p.bookmark == "" {
				continue
			}
			idx, err := strconv.Atoi(strings.TrimSpace(p.image))
			if err != nil || idx < 0 {
				continue
			}
			bm[idx] = p.bookmark
		}
	}

	return nil
}

func decode(doc []byte) (map[Field]string, []pageAttr, error) {
	dec := xml.NewDecoder(bytes.NewReader(doc))
	dec.CharsetReader = charset.NewReaderLabel

	values := make(map[Field]string)
	seen := make(map[Field]bool)
	var pages []pageAttr
	var stack []frame
	sawRoot := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			sawRoot = true
			fr := frame{field: -1}
			if f, ok := tagFields[t.Name.Local]; ok && !seen[f] {
				seen[f] = true
				fr.field = f
				fr.text = &strings.Builder{}
			}
			if t.Name.Local == "Page" {
				pages = append(pages, pageAttr{
					image:    attrValue(t.Attr, "Image"),
					bookmark: attrValue(t.Attr, "Bookmark"),
				})
			}
			stack = append(stack, fr)
		case xml.EndElement:
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top.text != nil {
				values[top.field] = top.text.String()
			}
		case xml.CharData:
			for _, fr := range stack {
				if fr.text != nil {
					fr.text.Write(t)
				}
			}
		}
	}

	if !sawRoot {
		return nil, nil, ErrNoRoot
	}
	return values, pages, nil
}

func attrValue(attrs []xml.Attr, name string) string {
	for _, a := range attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
