// Package export writes annotated documents.
package export

import (
	"bytes"
	"fmt"
	"image/png"
	"io"
	"log"
	"os"

	"github.com/jung-kurt/gofpdf"

	"StudyBoard/internal/document"
	"StudyBoard/internal/render"
	"StudyBoard/internal/state"
)

// ExportPDF writes doc to path with its ink burnt into every page.
func ExportPDF(path string, doc document.Provider, strokes []state.Stroke) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePDF(f, doc, strokes); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// WritePDF writes the annotated document as PDF to w. Pages keep their size
// in points; each page is the page image composited with its strokes.
func WritePDF(w io.Writer, doc document.Provider, strokes []state.Stroke) error {
	if doc.TotalPages() < 1 {
		return fmt.Errorf("export %s: %w", doc.Name(), document.ErrPageOutOfRange)
	}

	p := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt"})
	p.SetTitle(doc.Name(), true)
	p.SetCreator("StudyBoard", true)
	p.SetAutoPageBreak(false, 0)

	for n := 1; n <= doc.TotalPages(); n++ {
		if err := addPage(p, doc, strokes, n); err != nil {
			return err
		}
	}
	if err := p.Error(); err != nil {
		return fmt.Errorf("export %s: %w", doc.Name(), err)
	}
	if err := p.Output(w); err != nil {
		return fmt.Errorf("export %s: %w", doc.Name(), err)
	}
	log.Printf("[EXPORT] Wrote %s (%d pages, %d strokes)", doc.Name(), doc.TotalPages(), len(strokes))
	return nil
}

func addPage(p *gofpdf.Fpdf, doc document.Provider, strokes []state.Stroke, n int) error {
	w, h, err := doc.PageSize(n)
	if err != nil {
		return err
	}
	page, err := doc.PageImage(n)
	if err != nil {
		return fmt.Errorf("export page %d: %w", n, err)
	}

	bounds := page.Bounds()
	scale := float64(bounds.Dx()) / w
	overlay, _ := render.RenderOverlay(strokes, n, bounds.Dx(), bounds.Dy(), scale)

	var buf bytes.Buffer
	if err := png.Encode(&buf, render.Compose(page, overlay)); err != nil {
		return fmt.Errorf("export page %d: %w", n, err)
	}

	orientation := "P"
	if w > h {
		orientation = "L"
	}
	p.AddPageFormat(orientation, gofpdf.SizeType{Wd: w, Ht: h})

	name := fmt.Sprintf("page-%d", n)
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	p.RegisterImageOptionsReader(name, opts, &buf)
	p.ImageOptions(name, 0, 0, w, h, false, opts, 0, "")
	return nil
}
