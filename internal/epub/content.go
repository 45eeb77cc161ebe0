package epub

import (
	"bytes"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Content represents a parsed XHTML page
type Content struct {
	Path      string   // File path
	ImageRefs []string // Referenced image paths, resolved against Path
}

// LoadContent parses an XHTML page and collects the images it shows.
//
// SVG-wrapped images (<svg><image xlink:href>) are preferred, as used by
// fixed-layout comics; plain <img src> is used when the page has none.
func LoadContent(pagePath string, content []byte) (*Content, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse XHTML: %w", err)
	}

	c := &Content{
		Path:      pagePath,
		ImageRefs: []string{},
	}
	baseDir := path.Dir(pagePath)

	doc.Find("svg image").Each(func(i int, s *goquery.Selection) {
		if href, ok := svgHref(s); ok {
			c.ImageRefs = append(c.ImageRefs, resolveRef(baseDir, href))
		}
	})

	if len(c.ImageRefs) == 0 {
		doc.Find("img").Each(func(i int, s *goquery.Selection) {
			if src, exists := s.Attr("src"); exists && src != "" {
				c.ImageRefs = append(c.ImageRefs, resolveRef(baseDir, src))
			}
		})
	}

	return c, nil
}

// svgHref returns the href of an SVG image element. The HTML parser stores
// xlink:href as Key "href" in the xlink namespace, which Selection.Attr does
// not match.
func svgHref(s *goquery.Selection) (string, bool) {
	if len(s.Nodes) == 0 {
		return "", false
	}
	var plain string
	for _, a := range s.Nodes[0].Attr {
		switch {
		case a.Key == "href" && a.Namespace == "xlink", a.Key == "xlink:href":
			if a.Val != "" {
				return a.Val, true
			}
		case a.Key == "href" && a.Namespace == "":
			plain = a.Val
		}
	}
	return plain, plain != ""
}

// resolveRef resolves an image reference found in a page located in baseDir.
// Fragments and queries are dropped and percent-escapes decoded.
func resolveRef(baseDir, ref string) string {
	if i := strings.IndexAny(ref, "#?"); i >= 0 {
		ref = ref[:i]
	}
	if unescaped, err := url.PathUnescape(ref); err == nil {
		ref = unescaped
	}
	return resolvePath(baseDir, ref)
}
