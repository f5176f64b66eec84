package ui

import (
	"fmt"
	"image"
	"image/color"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/widget"

	"StudyBoard/internal/capture"
	"StudyBoard/internal/session"
)

var cursorColor = color.NRGBA{R: 100, G: 100, B: 100, A: 200}

// BoardWidget shows one page: the page image, the ink raster on top of it
// and the eraser cursor. Pointer input goes to the page's capture.
type BoardWidget struct {
	widget.BaseWidget
	session *session.Session
	canvas  *session.Canvas

	// page size in document units
	width, height float64

	page   *canvas.Image
	ink    *canvas.Raster
	cursor *canvas.Circle
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)
var _ desktop.Hoverable = (*BoardWidget)(nil)
var _ mobile.Touchable = (*BoardWidget)(nil)

// NewBoardWidget creates the widget for page n of the open document and
// mounts its canvas.
func NewBoardWidget(s *session.Session, n int) (*BoardWidget, error) {
	doc := s.Document()
	if doc == nil {
		return nil, session.ErrNoDocument
	}
	c, ok := s.Canvas(n)
	if !ok {
		return nil, fmt.Errorf("page %d out of range", n)
	}
	w, h, err := doc.PageSize(n)
	if err != nil {
		return nil, err
	}

	b := &BoardWidget{session: s, canvas: c, width: w, height: h}

	img, err := doc.PageImage(n)
	if err != nil {
		log.Printf("[DOC] Failed to render page %d: %v", n, err)
		img = image.NewUniform(color.White)
	}
	b.page = canvas.NewImageFromImage(img)
	b.page.FillMode = canvas.ImageFillStretch
	b.page.ScaleMode = canvas.ImageScaleSmooth

	b.ink = canvas.NewRaster(b.inkImage)
	b.cursor = canvas.NewCircle(color.Transparent)
	b.cursor.StrokeColor = cursorColor
	b.cursor.StrokeWidth = 1
	b.cursor.Hide()

	c.OnPaint(func() { fyne.Do(b.ink.Refresh) })
	c.Capture().OnCursor = func(cur capture.Cursor) { fyne.Do(func() { b.showCursor(cur) }) }
	c.Mount(0, 0)

	b.ExtendBaseWidget(b)
	return b, nil
}

// Page returns the page number the widget shows.
func (b *BoardWidget) Page() int { return b.canvas.Page }

// Canvas returns the session canvas behind the widget.
func (b *BoardWidget) Canvas() *session.Canvas { return b.canvas }

// Unmount detaches the canvas; the widget stops accepting input.
func (b *BoardWidget) Unmount() { b.canvas.Unmount() }

func (b *BoardWidget) inkImage(w, h int) image.Image {
	if snap := b.canvas.Surface().Snapshot(); snap != nil {
		return snap
	}
	return image.NewRGBA(image.Rect(0, 0, 1, 1))
}

func (b *BoardWidget) showCursor(cur capture.Cursor) {
	if !cur.Visible {
		b.cursor.Hide()
		return
	}
	r := float32(cur.Diameter / 2)
	b.cursor.Position1 = fyne.NewPos(float32(cur.X)-r, float32(cur.Y)-r)
	b.cursor.Position2 = fyne.NewPos(float32(cur.X)+r, float32(cur.Y)+r)
	b.cursor.Show()
	b.cursor.Refresh()
}

func position(p fyne.Position) capture.Position {
	return capture.Position{X: float64(p.X), Y: float64(p.Y)}
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary {
		b.canvas.Capture().Press(position(e.Position))
	}
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary {
		b.canvas.Capture().Release()
	}
}

func (b *BoardWidget) MouseIn(e *desktop.MouseEvent) {
	b.canvas.Capture().Move(position(e.Position))
}

func (b *BoardWidget) MouseMoved(e *desktop.MouseEvent) {
	b.canvas.Capture().Move(position(e.Position))
}

func (b *BoardWidget) MouseOut() {
	b.canvas.Capture().Leave()
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	b.canvas.Capture().Move(position(e.Position))
}

func (b *BoardWidget) DragEnd() {
	b.canvas.Capture().Release()
}

func (b *BoardWidget) TouchDown(e *mobile.TouchEvent) {
	b.canvas.Capture().PressTouch([]capture.Position{position(e.Position)})
}

func (b *BoardWidget) TouchUp(*mobile.TouchEvent) {
	b.canvas.Capture().Release()
}

func (b *BoardWidget) TouchCancel(*mobile.TouchEvent) {
	b.canvas.Capture().Cancel()
	b.canvas.Redraw()
}

func (b *BoardWidget) MinSize() fyne.Size {
	zoom := b.session.Viewport().Zoom()
	return fyne.NewSize(float32(b.width*zoom), float32(b.height*zoom))
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &boardWidgetRenderer{board: b}
	r.background = canvas.NewRectangle(color.White)
	return r
}

type boardWidgetRenderer struct {
	board      *BoardWidget
	background *canvas.Rectangle
}

func (r *boardWidgetRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.background, r.board.page, r.board.ink, r.board.cursor}
}

func (r *boardWidgetRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)
	r.board.page.Resize(size)
	r.board.ink.Resize(size)
}

func (r *boardWidgetRenderer) MinSize() fyne.Size {
	return r.board.MinSize()
}

func (r *boardWidgetRenderer) Refresh() {
	r.board.page.Refresh()
	r.board.ink.Refresh()
	canvas.Refresh(r.board)
}

func (r *boardWidgetRenderer) Destroy() {}
