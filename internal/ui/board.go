package ui

import (
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"StudyBoard/internal/session"
	"StudyBoard/internal/viewport"
)

// PageList is the vertical scroll of page widgets. It keeps the viewport
// controller told about scroll offset and visible size, and lays pages out
// where the controller says they are.
type PageList struct {
	widget.BaseWidget
	session *session.Session
	scroll  *container.Scroll
	content *fyne.Container
	pages   []*BoardWidget
	anim    *fyne.Animation
}

func NewPageList(s *session.Session) *PageList {
	l := &PageList{session: s}
	l.content = container.New(&pageLayout{viewport: s.Viewport()})
	l.scroll = container.NewVScroll(l.content)
	l.scroll.OnScrolled = func(offset fyne.Position) {
		s.Viewport().SetScroll(float64(offset.Y))
	}

	s.Viewport().OnZoomChange(func(float64) {
		fyne.Do(l.zoomed)
	})

	l.ExtendBaseWidget(l)
	return l
}

// Load rebuilds the page widgets for the session's open document.
func (l *PageList) Load() error {
	for _, p := range l.pages {
		p.Unmount()
	}
	l.pages = nil

	doc := l.session.Document()
	if doc == nil {
		l.content.Objects = nil
		l.content.Refresh()
		return session.ErrNoDocument
	}

	objects := make([]fyne.CanvasObject, 0, doc.TotalPages())
	for n := 1; n <= doc.TotalPages(); n++ {
		page, err := NewBoardWidget(l.session, n)
		if err != nil {
			return err
		}
		l.pages = append(l.pages, page)
		objects = append(objects, page)
	}
	l.content.Objects = objects
	l.content.Refresh()
	l.syncOffset()
	log.Printf("[VIEWPORT] Laid out %d pages", len(objects))
	return nil
}

// Pages returns the page widgets in page order.
func (l *PageList) Pages() []*BoardWidget { return l.pages }

// ScrollToPage brings page n to the top, smoothly when animate is set.
// Out of range pages are ignored.
func (l *PageList) ScrollToPage(n int, animate bool) bool {
	anim, ok := l.session.Viewport().ScrollToPage(n)
	if !ok {
		return false
	}
	l.play(anim, animate)
	return true
}

// GoToPageInput handles text typed into the page box.
func (l *PageList) GoToPageInput(text string) bool {
	anim, ok := l.session.Viewport().GoToPageInput(text)
	if !ok {
		return false
	}
	l.play(anim, true)
	return true
}

func (l *PageList) play(anim viewport.ScrollAnimation, animate bool) {
	if l.anim != nil {
		l.anim.Stop()
		l.anim = nil
	}
	if !animate {
		l.setOffset(anim.To)
		return
	}
	l.anim = fyne.NewAnimation(viewport.ScrollDuration, func(p float32) {
		l.setOffset(anim.At(float64(p)))
	})
	l.anim.Curve = fyne.AnimationLinear
	l.anim.Start()
}

func (l *PageList) setOffset(offset float64) {
	l.session.Viewport().SetScroll(offset)
	l.syncOffset()
}

// syncOffset moves the scroll container to the controller's offset.
func (l *PageList) syncOffset() {
	l.scroll.Offset = fyne.NewPos(l.scroll.Offset.X, float32(l.session.Viewport().Scroll()))
	l.scroll.Refresh()
}

func (l *PageList) zoomed() {
	for _, p := range l.pages {
		p.Refresh()
	}
	l.content.Refresh()
	l.syncOffset()
}

func (l *PageList) CreateRenderer() fyne.WidgetRenderer {
	return &pageListRenderer{list: l}
}

type pageListRenderer struct {
	list *PageList
}

func (r *pageListRenderer) Layout(size fyne.Size) {
	r.list.scroll.Resize(size)
	r.list.session.Viewport().SetViewportSize(float64(size.Width), float64(size.Height))
}

func (r *pageListRenderer) MinSize() fyne.Size {
	return fyne.NewSize(200, 200)
}

func (r *pageListRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.list.scroll}
}

func (r *pageListRenderer) Refresh() {
	r.list.scroll.Refresh()
}

func (r *pageListRenderer) Destroy() {}

// pageLayout places each page at the rectangle the viewport controller
// computes for it, centered horizontally.
type pageLayout struct {
	viewport *viewport.Controller
}

func (p *pageLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	for i, o := range objects {
		rect, ok := p.viewport.PageRect(i + 1)
		if !ok {
			o.Hide()
			continue
		}
		x := (size.Width - float32(rect.Width)) / 2
		if x < 0 {
			x = 0
		}
		o.Move(fyne.NewPos(x, float32(rect.Y)))
		o.Resize(fyne.NewSize(float32(rect.Width), float32(rect.Height)))
	}
}

func (p *pageLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	width := float32(0)
	for i := range objects {
		if rect, ok := p.viewport.PageRect(i + 1); ok && float32(rect.Width) > width {
			width = float32(rect.Width)
		}
	}
	return fyne.NewSize(width, float32(p.viewport.ContentHeight()))
}
