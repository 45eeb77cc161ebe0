package pageimage

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func TestRenderer_ResizeOverMaxWidth(t *testing.T) {
	src := makeSolidNRGBA(1200, 800, color.NRGBA{R: 20, G: 50, B: 200, A: 255})
	r := NewRenderer(600, 0)

	out, err := r.Render(mustEncodeJPEG(t, src, 90))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if out.Width != 600 || out.Height != 400 {
		t.Fatalf("got %dx%d, want 600x400", out.Width, out.Height)
	}
	if out.Format != "jpeg" || out.Extension() != ".jpg" {
		t.Fatalf("format = %q, want jpeg", out.Format)
	}
	if _, err := jpeg.Decode(bytes.NewReader(out.Data)); err != nil {
		t.Fatalf("output is not a JPEG: %v", err)
	}
}

func TestRenderer_NoResizeUnderMaxWidth(t *testing.T) {
	src := makeSolidNRGBA(500, 300, color.NRGBA{R: 100, G: 120, B: 140, A: 255})
	out, err := NewRenderer(600, 80).Render(mustEncodePNG(t, src))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if out.Width != 500 || out.Height != 300 {
		t.Fatalf("got %dx%d, want 500x300", out.Width, out.Height)
	}
	if out.Format != "jpeg" {
		t.Fatalf("opaque PNG format = %q, want jpeg", out.Format)
	}
}

func TestRenderer_KeepTransparentPNG(t *testing.T) {
	src := makeSolidNRGBA(700, 400, color.NRGBA{R: 10, G: 80, B: 180, A: 120})
	out, err := NewRenderer(0, 0).Render(mustEncodePNG(t, src))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if out.Format != "png" || out.Extension() != ".png" {
		t.Fatalf("format = %q, want png", out.Format)
	}
	if out.Width != 700 {
		t.Fatalf("width = %d, want 700 with MaxWidth 0", out.Width)
	}
}

func TestRenderer_InvalidData(t *testing.T) {
	if _, err := NewRenderer(600, 0).Render([]byte("not an image")); err == nil {
		t.Fatal("Render() should fail on invalid data")
	}
}

func TestRenderer_MaxPixels(t *testing.T) {
	src := makeSolidNRGBA(100, 100, color.NRGBA{A: 255})
	r := NewRenderer(0, 0)
	r.MaxPixels = 50
	if _, err := r.Render(mustEncodePNG(t, src)); err == nil {
		t.Fatal("Render() should reject images over MaxPixels")
	}
}

func TestNewRenderer_Defaults(t *testing.T) {
	r := NewRenderer(-1, 150)
	if r.MaxWidth != 0 || r.JPEGQuality != 100 {
		t.Fatalf("NewRenderer(-1, 150) = %+v", r)
	}
}

func makeSolidNRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func mustEncodeJPEG(t *testing.T, img image.Image, q int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
		t.Fatalf("jpeg encode: %v", err)
	}
	return buf.Bytes()
}

func mustEncodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}
