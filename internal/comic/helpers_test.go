package comic

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

type entry struct {
	name    string
	content []byte
}

// buildCBZ assembles a zip archive in memory from entries, in order.
func buildCBZ(t *testing.T, comment string, entries ...entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		fw, err := w.Create(e.name)
		if err != nil {
			t.Fatalf("failed to create %s: %v", e.name, err)
		}
		if _, err := fw.Write(e.content); err != nil {
			t.Fatalf("failed to write %s: %v", e.name, err)
		}
	}
	if comment != "" {
		if err := w.SetComment(comment); err != nil {
			t.Fatalf("failed to set comment: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

// pngBytes returns a tiny valid PNG of the given size.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 10, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

// docWithPages returns a document holding n pages named p00.png, p01.png, …
func docWithPages(n int) *Document {
	doc := NewDocument()
	for i := 0; i < n; i++ {
		doc.Pages = append(doc.Pages, Page{
			Filename: "p" + string(rune('0'+i/10)) + string(rune('0'+i%10)) + ".png",
			Image:    NewImage([]byte{byte(i)}),
		})
	}
	return doc
}

func filenames(doc *Document) []string {
	out := make([]string, len(doc.Pages))
	for i, p := range doc.Pages {
		out[i] = p.Filename
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
