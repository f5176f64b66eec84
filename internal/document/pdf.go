package document

import (
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Rasterizer renders one PDF page to pixels. See VectorPages, and
// WhitePages for the fallback.
type Rasterizer interface {
	Rasterize(path string, page, width, height int) (image.Image, error)
}

// RasterizerFunc adapts a function to Rasterizer.
type RasterizerFunc func(path string, page, width, height int) (image.Image, error)

func (f RasterizerFunc) Rasterize(path string, page, width, height int) (image.Image, error) {
	return f(path, page, width, height)
}

// WhitePages renders every page as a blank sheet of the right size, so
// annotation works even without a rendering engine.
var WhitePages Rasterizer = RasterizerFunc(func(_ string, _ int, width, height int) (image.Image, error) {
	return whitePage(width, height), nil
})

type pageDim struct {
	width, height float64
}

// PDF is a PDF file opened for annotation.
type PDF struct {
	path   string
	name   string
	dims   []pageDim
	raster Rasterizer

	mu     sync.Mutex
	file   *os.File
	reader *pdf.Reader
	texts  map[int]string
}

// OpenPDF reads the page count and page sizes of the PDF at path. A nil
// raster uses WhitePages.
func OpenPDF(path string, raster Rasterizer) (*PDF, error) {
	if raster == nil {
		raster = WhitePages
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(f, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to get page count: %w", err)
	}

	dims, err := ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("failed to read page sizes: %w", err)
	}

	doc := &PDF{
		path:   path,
		name:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		raster: raster,
		texts:  map[int]string{},
	}
	for _, d := range dims {
		doc.dims = append(doc.dims, pageDim{width: d.Width, height: d.Height})
	}
	if len(doc.dims) != ctx.PageCount {
		log.Printf("[DOC] %s: %d page sizes for %d pages", doc.name, len(doc.dims), ctx.PageCount)
		for len(doc.dims) < ctx.PageCount {
			doc.dims = append(doc.dims, pageDim{width: 612, height: 792})
		}
		doc.dims = doc.dims[:ctx.PageCount]
	}

	log.Printf("[DOC] Opened %s (%d pages)", doc.name, len(doc.dims))
	return doc, nil
}

func (d *PDF) Name() string    { return d.name }
func (d *PDF) TotalPages() int { return len(d.dims) }

// Path returns the file the document was opened from.
func (d *PDF) Path() string { return d.path }

func (d *PDF) PageSize(n int) (float64, float64, error) {
	if err := checkPage(n, len(d.dims)); err != nil {
		return 0, 0, err
	}
	dim := d.dims[n-1]
	return dim.width, dim.height, nil
}

func (d *PDF) PageImage(n int) (image.Image, error) {
	w, h, err := d.PageSize(n)
	if err != nil {
		return nil, err
	}
	img, err := d.raster.Rasterize(d.path, n, int(w*RenderScale), int(h*RenderScale))
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", n, err)
	}
	return img, nil
}

// PageText extracts the plain text of page n. Results are cached.
func (d *PDF) PageText(n int) (string, error) {
	if err := checkPage(n, len(d.dims)); err != nil {
		return "", err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if text, ok := d.texts[n]; ok {
		return text, nil
	}
	if d.reader == nil {
		f, r, err := pdf.Open(d.path)
		if err != nil {
			return "", fmt.Errorf("failed to open PDF for text: %w", err)
		}
		d.file, d.reader = f, r
	}
	if n > d.reader.NumPage() {
		return "", checkPage(n, d.reader.NumPage())
	}

	page := d.reader.Page(n)
	if page.V.IsNull() {
		d.texts[n] = ""
		return "", nil
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("failed to extract text from page %d: %w", n, err)
	}
	text = strings.TrimSpace(text)
	d.texts[n] = text
	return text, nil
}

func (d *PDF) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file, d.reader = nil, nil
	return err
}
