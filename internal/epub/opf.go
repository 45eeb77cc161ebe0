package epub

import (
	"encoding/xml"
	"fmt"
	"path"
	"strings"
)

// opfPackage represents the OPF XML structure
type opfPackage struct {
	XMLName  xml.Name    `xml:"package"`
	Metadata opfMetadata `xml:"metadata"`
	Manifest opfManifest `xml:"manifest"`
	Spine    opfSpine    `xml:"spine"`
}

// opfMetadata represents the metadata section
type opfMetadata struct {
	Title       []string     `xml:"http://purl.org/dc/elements/1.1/ title"`
	Creator     []opfCreator `xml:"http://purl.org/dc/elements/1.1/ creator"`
	Language    []string     `xml:"http://purl.org/dc/elements/1.1/ language"`
	Publisher   []string     `xml:"http://purl.org/dc/elements/1.1/ publisher"`
	Date        []string     `xml:"http://purl.org/dc/elements/1.1/ date"`
	Description []string     `xml:"http://purl.org/dc/elements/1.1/ description"`
	Meta        []opfMeta    `xml:"meta"`
}

// opfCreator represents a creator element
type opfCreator struct {
	Name string `xml:",chardata"`
	Role string `xml:"http://www.idpf.org/2007/opf role,attr"`
}

// opfMeta represents a meta element (EPUB 2.0 and 3.0)
type opfMeta struct {
	Name     string `xml:"name,attr"`
	Content  string `xml:"content,attr"` // EPUB 2.0: attribute value
	Value    string `xml:",chardata"`    // EPUB 3.0: element text content
	Property string `xml:"property,attr"`
}

// opfManifest represents the manifest section
type opfManifest struct {
	Items []opfManifestItem `xml:"item"`
}

// opfManifestItem represents an item in the manifest
type opfManifestItem struct {
	ID        string `xml:"id,attr"`
	Href      string `xml:"href,attr"`
	MediaType string `xml:"media-type,attr"`
}

// opfSpine represents the spine section
type opfSpine struct {
	Toc       string       `xml:"toc,attr"`
	Direction string       `xml:"page-progression-direction,attr"`
	ItemRefs  []opfItemRef `xml:"itemref"`
}

// opfItemRef represents an itemref in the spine
type opfItemRef struct {
	IDRef  string `xml:"idref,attr"`
	Linear string `xml:"linear,attr"`
}

// ParseOPF parses an OPF file content and returns the OPF structure.
// opfDir is the directory containing the OPF file (e.g., "OEBPS"); manifest
// hrefs are resolved against it.
func ParseOPF(content []byte, opfDir string) (*OPF, error) {
	var pkg opfPackage
	if err := xml.Unmarshal(content, &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse OPF XML: %w", err)
	}

	opf := &OPF{
		Manifest: make(map[string]ManifestItem),
		Metadata: parseMetadata(&pkg.Metadata),
		RTL:      pkg.Spine.Direction == "rtl",
	}

	for _, item := range pkg.Manifest.Items {
		if _, dup := opf.Manifest[item.ID]; dup {
			continue
		}
		opf.Manifest[item.ID] = ManifestItem{
			ID:        item.ID,
			Href:      resolvePath(opfDir, item.Href),
			MediaType: item.MediaType,
		}
		opf.ManifestOrder = append(opf.ManifestOrder, item.ID)
	}

	for _, itemRef := range pkg.Spine.ItemRefs {
		opf.Spine = append(opf.Spine, SpineItem{
			IDRef:  itemRef.IDRef,
			Linear: itemRef.Linear != "no",
		})
	}

	// Resolve NCX path from toc attribute
	if pkg.Spine.Toc != "" {
		if ncxItem, ok := opf.Manifest[pkg.Spine.Toc]; ok {
			opf.NCXPath = ncxItem.Href
		}
	}

	return opf, nil
}

// parseMetadata parses the metadata section
func parseMetadata(meta *opfMetadata) Metadata {
	md := Metadata{
		Title:       first(meta.Title),
		Language:    first(meta.Language),
		Publisher:   first(meta.Publisher),
		Date:        first(meta.Date),
		Description: first(meta.Description),
	}

	for _, creator := range meta.Creator {
		name := strings.TrimSpace(creator.Name)
		if name == "" {
			continue
		}
		md.Creators = append(md.Creators, Creator{Name: name, Role: creator.Role})
	}

	for _, m := range meta.Meta {
		value := m.Content
		if value == "" {
			value = strings.TrimSpace(m.Value)
		}
		switch {
		case m.Name == "calibre:series", m.Property == "belongs-to-collection":
			if md.Series == "" {
				md.Series = value
			}
		case m.Name == "calibre:series_index", m.Property == "group-position":
			if md.SeriesIndex == "" {
				md.SeriesIndex = value
			}
		}
	}

	return md
}

// SpineDocuments returns the manifest items of the spine in reading order,
// skipping references to missing manifest entries.
func (opf *OPF) SpineDocuments() []ManifestItem {
	items := make([]ManifestItem, 0, len(opf.Spine))
	for _, ref := range opf.Spine {
		if item, ok := opf.Manifest[ref.IDRef]; ok {
			items = append(items, item)
		}
	}
	return items
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

// resolvePath resolves a relative path against a base directory and
// normalizes it to a slash-separated EPUB path.
func resolvePath(baseDir, rel string) string {
	if baseDir == "" || baseDir == "." {
		return path.Clean(rel)
	}
	return path.Clean(path.Join(baseDir, rel))
}
