package session

import (
	"image"

	"StudyBoard/internal/render"
)

// Frame returns page n as shown to the user: the page image with the page's
// ink on top, at the page image's resolution.
func (s *Session) Frame(n int) (*image.RGBA, error) {
	img, _, err := s.frame(n)
	return img, err
}

// frame also returns the pixels per document unit of the result.
func (s *Session) frame(n int) (*image.RGBA, float64, error) {
	doc := s.Document()
	if doc == nil {
		return nil, 0, ErrNoDocument
	}
	w, _, err := doc.PageSize(n)
	if err != nil {
		return nil, 0, err
	}
	page, err := doc.PageImage(n)
	if err != nil {
		return nil, 0, err
	}

	bounds := page.Bounds()
	scale := 1.0
	if w > 0 {
		scale = float64(bounds.Dx()) / w
	}
	overlay, _ := render.RenderOverlay(s.log.OnPage(n), n, bounds.Dx(), bounds.Dy(), scale)
	return render.Compose(page, overlay), scale, nil
}
