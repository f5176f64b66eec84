// Package document supplies page images and page text for a study session.
package document

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// RenderScale is the factor page rasters are produced at, relative to the
// page's size in points.
const RenderScale = 2.0

// ErrPageOutOfRange is returned for page numbers outside [1, TotalPages].
var ErrPageOutOfRange = errors.New("page out of range")

// Provider is a paged document. Pages are numbered from 1.
type Provider interface {
	Name() string
	TotalPages() int
	// PageSize returns the page's layout size in points.
	PageSize(n int) (width, height float64, err error)
	PageImage(n int) (image.Image, error)
	// PageText returns the page's extracted text, empty when it has none.
	PageText(n int) (string, error)
	Close() error
}

func checkPage(n, total int) error {
	if n < 1 || n > total {
		return fmt.Errorf("page %d of %d: %w", n, total, ErrPageOutOfRange)
	}
	return nil
}

// whitePage returns an opaque white raster of the given size.
func whitePage(width, height int) *image.RGBA {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

// Blank is a document of white pages with no text. It stands in when a
// note has no source file.
type Blank struct {
	name   string
	pages  int
	width  float64
	height float64
	texts  map[int]string
}

// NewBlank creates a blank document of pages pages, each width x height
// points.
func NewBlank(name string, pages int, width, height float64) *Blank {
	return &Blank{name: name, pages: pages, width: width, height: height, texts: map[int]string{}}
}

// SetText attaches text to a page of a blank document.
func (b *Blank) SetText(n int, text string) {
	b.texts[n] = text
}

func (b *Blank) Name() string    { return b.name }
func (b *Blank) TotalPages() int { return b.pages }
func (b *Blank) Close() error    { return nil }

func (b *Blank) PageSize(n int) (float64, float64, error) {
	if err := checkPage(n, b.pages); err != nil {
		return 0, 0, err
	}
	return b.width, b.height, nil
}

func (b *Blank) PageImage(n int) (image.Image, error) {
	if err := checkPage(n, b.pages); err != nil {
		return nil, err
	}
	return whitePage(int(b.width*RenderScale), int(b.height*RenderScale)), nil
}

func (b *Blank) PageText(n int) (string, error) {
	if err := checkPage(n, b.pages); err != nil {
		return "", err
	}
	return b.texts[n], nil
}
