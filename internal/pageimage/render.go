// Package pageimage renders page previews: decode, downscale, re-encode.
package pageimage

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
)

const (
	DefaultMaxWidth    = 1200
	DefaultJPEGQuality = 85
	defaultMaxPixels   = 100 * 1000 * 1000 // 100 megapixels
)

// Renderer produces preview images for comic pages.
type Renderer struct {
	MaxWidth    int // 0 keeps the original width
	JPEGQuality int
	MaxPixels   int // Total pixel count limit for decode (width * height)
}

// Rendered holds an encoded preview.
type Rendered struct {
	Data   []byte
	Width  int
	Height int
	Format string // "jpeg" or "png"
}

// NewRenderer returns a renderer, applying defaults for non-positive
// quality values.
func NewRenderer(maxWidth, quality int) *Renderer {
	if quality <= 0 {
		quality = DefaultJPEGQuality
	}
	if quality > 100 {
		quality = 100
	}
	if maxWidth < 0 {
		maxWidth = 0
	}
	return &Renderer{
		MaxWidth:    maxWidth,
		JPEGQuality: quality,
		MaxPixels:   defaultMaxPixels,
	}
}

// Render decodes input, applies EXIF orientation, shrinks it to MaxWidth and
// encodes the result. Images with transparency stay PNG; everything else
// becomes JPEG.
func (r *Renderer) Render(input []byte) (Rendered, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(input))
	if err != nil {
		return Rendered{}, fmt.Errorf("image decode failed: %w", err)
	}
	pixels := uint64(cfg.Width) * uint64(cfg.Height)
	if r.MaxPixels > 0 && pixels > uint64(r.MaxPixels) {
		return Rendered{}, fmt.Errorf("image too large to decode: %dx%d (%d pixels)", cfg.Width, cfg.Height, pixels)
	}

	src, err := imaging.Decode(bytes.NewReader(input), imaging.AutoOrientation(true))
	if err != nil {
		return Rendered{}, fmt.Errorf("image decode failed: %w", err)
	}

	processed := src
	if r.MaxWidth > 0 && src.Bounds().Dx() > r.MaxWidth {
		processed = imaging.Resize(src, r.MaxWidth, 0, imaging.Lanczos)
	}

	out := Rendered{
		Width:  processed.Bounds().Dx(),
		Height: processed.Bounds().Dy(),
	}

	if hasAlpha(processed) {
		out.Data, err = encodePNG(processed)
		out.Format = "png"
	} else {
		out.Data, err = encodeJPEG(processed, r.JPEGQuality)
		out.Format = "jpeg"
	}
	if err != nil {
		return Rendered{}, fmt.Errorf("%s encode failed: %w", out.Format, err)
	}
	return out, nil
}

// Extension returns the file extension for the rendered format.
func (r Rendered) Extension() string {
	if r.Format == "png" {
		return ".png"
	}
	return ".jpg"
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	encoder := png.Encoder{CompressionLevel: png.BestCompression}
	if err := encoder.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func hasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			_, _, _, a := img.At(x, y).RGBA()
			if a < 0xFFFF {
				return true
			}
		}
	}
	return false
}
