package epub

import (
	"encoding/xml"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/yuanying/cbzmeta/internal/archive"
)

// Reader provides access to EPUB file contents
type Reader struct {
	zr      *archive.Reader
	opfPath string
}

// container.xml structure
type container struct {
	Rootfiles struct {
		Rootfile []struct {
			FullPath  string `xml:"full-path,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"rootfile"`
	} `xml:"rootfiles"`
}

const epubMimetype = "application/epub+zip"

var (
	ErrInvalidMimetype   = errors.New("invalid mimetype: must be 'application/epub+zip'")
	ErrContainerNotFound = errors.New("META-INF/container.xml not found")
	ErrOPFPathNotFound   = errors.New("OPF path not found in container.xml")
)

// NewReader opens an in-memory EPUB and locates its OPF document.
//
// A missing mimetype entry is accepted; a mimetype with the wrong content
// is not.
func NewReader(data []byte) (*Reader, error) {
	zr, err := archive.NewReader(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open EPUB: %w", err)
	}

	r := &Reader{zr: zr}

	if err := r.validateMimetype(); err != nil {
		return nil, err
	}
	if err := r.parseContainer(); err != nil {
		return nil, err
	}
	return r, nil
}

// OPFPath returns the path to the OPF file
func (r *Reader) OPFPath() string {
	return r.opfPath
}

// ReadFile reads the contents of a file from the EPUB
func (r *Reader) ReadFile(name string) ([]byte, error) {
	return r.zr.ReadFile(name)
}

// OPF reads and parses the package document.
func (r *Reader) OPF() (*OPF, error) {
	data, err := r.ReadFile(r.opfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read OPF: %w", err)
	}
	return ParseOPF(data, path.Dir(r.opfPath))
}

// validateMimetype checks the mimetype file when present
func (r *Reader) validateMimetype() error {
	content, err := r.ReadFile("mimetype")
	if errors.Is(err, archive.ErrEntryNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read mimetype: %w", err)
	}
	if strings.TrimSpace(string(content)) != epubMimetype {
		return ErrInvalidMimetype
	}
	return nil
}

// parseContainer parses container.xml to extract OPF path
func (r *Reader) parseContainer() error {
	content, err := r.ReadFile("META-INF/container.xml")
	if err != nil {
		return ErrContainerNotFound
	}

	var c container
	if err := xml.Unmarshal(content, &c); err != nil {
		return fmt.Errorf("failed to parse container.xml: %w", err)
	}

	for _, rf := range c.Rootfiles.Rootfile {
		if rf.MediaType == "application/oebps-package+xml" || rf.MediaType == "" {
			r.opfPath = strings.TrimPrefix(rf.FullPath, "./")
			return nil
		}
	}

	// If no media-type match, use the first one
	if len(c.Rootfiles.Rootfile) > 0 {
		r.opfPath = strings.TrimPrefix(c.Rootfiles.Rootfile[0].FullPath, "./")
		return nil
	}

	return ErrOPFPathNotFound
}
