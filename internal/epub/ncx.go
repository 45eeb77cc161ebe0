package epub

import (
	"encoding/xml"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
)

type ncxDocument struct {
	NavMap struct {
		NavPoints []ncxNavPoint `xml:"navPoint"`
	} `xml:"navMap"`
}

type ncxNavPoint struct {
	PlayOrder string `xml:"playOrder,attr"`
	Label     string `xml:"navLabel>text"`
	Content   struct {
		Src string `xml:"src,attr"`
	} `xml:"content"`
	Children []ncxNavPoint `xml:"navPoint"`
}

// ParseNCX parses an NCX document located at ncxPath and returns its nav
// points flattened depth-first and sorted by playOrder. Content paths are
// resolved against the NCX directory with fragments removed.
func ParseNCX(content []byte, ncxPath string) ([]NavPoint, error) {
	var doc ncxDocument
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse NCX: %w", err)
	}

	baseDir := path.Dir(ncxPath)
	var points []NavPoint
	var walk func([]ncxNavPoint)
	walk = func(nps []ncxNavPoint) {
		for _, np := range nps {
			src, _ := splitFragment(np.Content.Src)
			order, err := strconv.Atoi(strings.TrimSpace(np.PlayOrder))
			if err != nil {
				order = len(points) + 1
			}
			if src != "" {
				points = append(points, NavPoint{
					PlayOrder:   order,
					Label:       strings.TrimSpace(np.Label),
					ContentPath: resolveRef(baseDir, src),
				})
			}
			walk(np.Children)
		}
	}
	walk(doc.NavMap.NavPoints)

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].PlayOrder < points[j].PlayOrder
	})
	return points, nil
}

// NavPoints loads the table of contents referenced by the OPF. It returns
// nil without error when the book has no NCX.
func (r *Reader) NavPoints(opf *OPF) ([]NavPoint, error) {
	if opf.NCXPath == "" {
		return nil, nil
	}
	data, err := r.ReadFile(opf.NCXPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read NCX: %w", err)
	}
	return ParseNCX(data, opf.NCXPath)
}

// splitFragment splits a source path into the path and fragment identifier.
func splitFragment(src string) (p, fragment string) {
	if src == "" {
		return "", ""
	}
	parts := strings.SplitN(src, "#", 2)
	p = parts[0]
	if len(parts) == 2 {
		fragment = parts[1]
	}
	return p, fragment
}
