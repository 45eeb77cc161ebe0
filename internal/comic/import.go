package comic

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/yuanying/cbzmeta/internal/comicinfo"
	"github.com/yuanying/cbzmeta/internal/epub"
)

// ImportOptions controls EPUB import.
type ImportOptions struct {
	Logger *slog.Logger
}

// ImportEPUB converts a fixed-layout comic EPUB into a Document.
//
// Pages follow spine order and are renamed 00000.ext, 00001.ext, … so that
// filename order matches reading order after a save/load round trip. Each
// NCX entry becomes a bookmark on the first page of the spine document it
// points to.
func ImportEPUB(ctx context.Context, data []byte, opts ImportOptions) (doc *Document, err error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	defer func() {
		if p := recover(); p != nil {
			doc = nil
			err = &LoadError{Op: "import", Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	reader, err := epub.NewReader(data)
	if err != nil {
		return nil, &LoadError{Op: "import", Err: err}
	}
	opf, err := reader.OPF()
	if err != nil {
		return nil, &LoadError{Op: "import", Path: reader.OPFPath(), Err: err}
	}

	doc = NewDocument()
	doc.Metadata = metadataFromOPF(opf.Metadata)

	firstPage := make(map[string]int) // spine document path -> page index
	seen := make(map[string]bool)     // image paths already added

	for _, item := range opf.SpineDocuments() {
		if err := ctx.Err(); err != nil {
			doc.Release()
			return nil, &LoadError{Op: "import", Err: err}
		}

		refs, err := spineImages(reader, item)
		if err != nil {
			logger.Warn("skipping spine item",
				slog.String("entry", item.Href),
				slog.String("error", err.Error()))
			continue
		}

		for _, ref := range refs {
			if seen[ref] {
				continue
			}
			ext := strings.ToLower(path.Ext(ref))
			if !imageExtensions[ext] {
				logger.Warn("skipping unsupported image", slog.String("entry", ref))
				continue
			}
			imgData, err := reader.ReadFile(ref)
			if err != nil {
				doc.Release()
				return nil, &LoadError{Op: "import", Path: ref, Err: err}
			}
			seen[ref] = true

			if _, ok := firstPage[item.Href]; !ok {
				firstPage[item.Href] = len(doc.Pages)
			}
			doc.Pages = append(doc.Pages, Page{
				Filename: fmt.Sprintf("%05d%s", len(doc.Pages), ext),
				Image:    NewImage(imgData),
			})
		}
	}

	points, err := reader.NavPoints(opf)
	if err != nil {
		logger.Warn("ignoring table of contents", slog.String("error", err.Error()))
	}
	for _, np := range points {
		idx, ok := firstPage[np.ContentPath]
		if !ok || np.Label == "" {
			continue
		}
		if _, exists := doc.Bookmarks[idx]; !exists {
			doc.Bookmarks[idx] = np.Label
		}
	}

	logger.Debug("epub imported",
		slog.Int("pages", len(doc.Pages)),
		slog.Int("bookmarks", len(doc.Bookmarks)))
	return doc, nil
}

// spineImages returns the images shown by a spine document. A spine item
// that is itself an image is its own page.
func spineImages(reader *epub.Reader, item epub.ManifestItem) ([]string, error) {
	if strings.HasPrefix(item.MediaType, "image/") {
		return []string{item.Href}, nil
	}
	content, err := reader.ReadFile(item.Href)
	if err != nil {
		return nil, err
	}
	c, err := epub.LoadContent(item.Href, content)
	if err != nil {
		return nil, err
	}
	return c.ImageRefs, nil
}

// metadataFromOPF maps OPF metadata onto ComicInfo fields.
func metadataFromOPF(m epub.Metadata) comicinfo.Metadata {
	md := comicinfo.Metadata{
		Title:     m.Title,
		Series:    m.Series,
		Publisher: m.Publisher,
		Language:  m.Language,
		Summary:   m.Description,
	}
	if len(m.Creators) > 0 {
		md.Writer = m.Creators[0].Name
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(m.SeriesIndex), 64); err == nil && v >= 0 {
		md.Volume = strconv.Itoa(int(math.Floor(v)))
	}
	if year, month, ok := parseDate(m.Date); ok {
		md.Year = strconv.Itoa(year)
		if month > 0 {
			md.Month = strconv.Itoa(month)
		}
	}
	return md
}

// parseDate accepts the date forms seen in OPF files: full RFC 3339
// timestamps, YYYY-MM-DD, YYYY-MM and bare years. month is 0 when absent.
func parseDate(s string) (year, month int, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02", "2006-01"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Year(), int(t.Month()), true
		}
	}
	if len(s) >= 4 {
		if y, err := strconv.Atoi(s[:4]); err == nil {
			return y, 0, true
		}
	}
	return 0, 0, false
}
