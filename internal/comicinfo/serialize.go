package comicinfo

import (
	"bytes"
	"strconv"
	"strings"
)

const (
	xmlHeader   = `<?xml version="1.0" encoding="utf-8"?>` + "\n"
	rootOpen    = `<ComicInfo xmlns:xsd="http://www.w3.org/2001/XMLSchema" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` + "\n"
	rootClose   = "</ComicInfo>\n"
	indent      = "  "
	pagesIndent = indent + indent
)

// Named entities only; xml.EscapeText would emit &#34; and &#39;.
var xmlEscaper = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	"&", "&amp;",
	"'", "&apos;",
	`"`, "&quot;",
)

// Escape replaces the five XML special characters with named entities.
func Escape(s string) string {
	return xmlEscaper.Replace(s)
}

// Serialize renders md and bm as a ComicInfo.xml document.
//
// Empty fields produce no element. Volume, Year, Month and LanguageISO are
// written verbatim; every other value is escaped. Page entries follow
// ascending bookmark order.
func Serialize(md Metadata, bm Bookmarks) []byte {
	var buf bytes.Buffer
	buf.WriteString(xmlHeader)
	buf.WriteString(rootOpen)

	for _, f := range Fields {
		v := md.Get(f)
		if v == "" {
			continue
		}
		if !fieldTable[f].raw {
			v = Escape(v)
		}
		buf.WriteString(indent)
		buf.WriteString("<" + f.Tag() + ">")
		buf.WriteString(v)
		buf.WriteString("</" + f.Tag() + ">\n")
	}

	buf.WriteString(indent + "<Pages>\n")
	for _, k := range bm.Keys() {
		buf.WriteString(pagesIndent)
		buf.WriteString(`<Page Image="`)
		buf.WriteString(strconv.Itoa(k))
		buf.WriteString(`" Bookmark="`)
		buf.WriteString(Escape(bm[k]))
		buf.WriteString(`"/>` + "\n")
	}
	buf.WriteString(indent + "</Pages>\n")

	buf.WriteString(rootClose)
	return buf.Bytes()
}
