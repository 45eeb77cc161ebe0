package comic

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"sync"
)

// Image is the displayable handle for one page. It owns the page's encoded
// bytes until Release is called.
type Image struct {
	mu       sync.Mutex
	data     []byte
	released bool

	cfgDone bool
	cfg     image.Config
	format  string
	cfgErr  error
}

// NewImage wraps encoded image bytes.
func NewImage(data []byte) *Image {
	return &Image{data: data}
}

// Bytes returns the encoded image data.
func (im *Image) Bytes() ([]byte, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	if im.released {
		return nil, ErrReleased
	}
	return im.data, nil
}

// Size returns the encoded size in bytes, or 0 once released.
func (im *Image) Size() int {
	im.mu.Lock()
	defer im.mu.Unlock()
	return len(im.data)
}

// Config decodes the image header and reports dimensions and format
// ("png", "jpeg"). The result is cached.
func (im *Image) Config() (image.Config, string, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	if im.released {
		return image.Config{}, "", ErrReleased
	}
	if !im.cfgDone {
		im.cfg, im.format, im.cfgErr = image.DecodeConfig(bytes.NewReader(im.data))
		im.cfgDone = true
	}
	return im.cfg, im.format, im.cfgErr
}

// Release drops the image data. It is safe to call more than once.
func (im *Image) Release() {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.data = nil
	im.released = true
}

// Released reports whether Release has been called.
func (im *Image) Released() bool {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.released
}
