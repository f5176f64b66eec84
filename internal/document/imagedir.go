package document

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var pageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// ImageDir is a document made of pre-rendered page images, one file per
// page, ordered by file name. Page images are taken to be at RenderScale.
type ImageDir struct {
	dir   string
	name  string
	files []string
	sizes []image.Point
}

// OpenImageDir lists the page images in dir.
func OpenImageDir(dir string) (*ImageDir, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read page directory: %w", err)
	}

	doc := &ImageDir{dir: dir, name: filepath.Base(dir)}
	for _, e := range entries {
		if e.IsDir() || !pageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		doc.files = append(doc.files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(doc.files)
	if len(doc.files) == 0 {
		return nil, fmt.Errorf("no page images in %s", dir)
	}

	for _, path := range doc.files {
		size, err := decodeSize(path)
		if err != nil {
			return nil, err
		}
		doc.sizes = append(doc.sizes, size)
	}
	return doc, nil
}

func decodeSize(path string) (image.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Point{}, fmt.Errorf("failed to open page image: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return image.Point{}, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return image.Pt(cfg.Width, cfg.Height), nil
}

func (d *ImageDir) Name() string    { return d.name }
func (d *ImageDir) TotalPages() int { return len(d.files) }
func (d *ImageDir) Close() error    { return nil }

func (d *ImageDir) PageSize(n int) (float64, float64, error) {
	if err := checkPage(n, len(d.files)); err != nil {
		return 0, 0, err
	}
	size := d.sizes[n-1]
	return float64(size.X) / RenderScale, float64(size.Y) / RenderScale, nil
}

func (d *ImageDir) PageImage(n int) (image.Image, error) {
	if err := checkPage(n, len(d.files)); err != nil {
		return nil, err
	}
	f, err := os.Open(d.files[n-1])
	if err != nil {
		return nil, fmt.Errorf("failed to open page image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode page %d: %w", n, err)
	}
	return img, nil
}

// PageText is always empty; image pages carry no text layer.
func (d *ImageDir) PageText(n int) (string, error) {
	if err := checkPage(n, len(d.files)); err != nil {
		return "", err
	}
	return "", nil
}

// Open opens path as a PDF, or as a page image directory when path is a
// directory.
func Open(path string, raster Rasterizer) (Provider, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	if info.IsDir() {
		return OpenImageDir(path)
	}
	return OpenPDF(path, raster)
}
