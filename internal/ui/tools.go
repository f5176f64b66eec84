package ui

import (
	"fmt"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"StudyBoard/internal/render"
	"StudyBoard/internal/session"
	"StudyBoard/internal/state"
	"StudyBoard/internal/viewport"
)

// PenColors are the swatches offered for the pen.
var PenColors = []string{"#000000", "#ef4444", "#3b82f6", "#10b981", "#f59e0b"}

// HighlighterColors are the swatches offered for the highlighter.
var HighlighterColors = []string{
	state.DefaultHighlighterColor,
	"rgba(134, 239, 172, 0.4)",
	"rgba(147, 197, 253, 0.4)",
	"rgba(249, 168, 212, 0.4)",
}

const zoomStep = 0.25

// --- Custom Widget for Color Swatches ---
type colorSwatch struct {
	widget.BaseWidget
	Value    string
	OnTapped func(string)
}

func newColorSwatch(value string, tapped func(string)) *colorSwatch {
	s := &colorSwatch{Value: value, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(render.ParseColor(s.Value))
	rect.SetMinSize(fyne.NewSize(24, 24))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Value)
	}
}

// ToolbarActions are the document level commands the toolbar triggers.
type ToolbarActions struct {
	Open       func()
	OpenFolder func()
	Export     func()
	EndSession func()
}

// Toolbar holds the tool buttons, swatches, width slider, zoom and page
// controls for a session.
type Toolbar struct {
	widget.BaseWidget
	session *session.Session
	list    *PageList

	tools     map[state.ToolType]*widget.Button
	swatches  *fyne.Container
	width     *widget.Slider
	zoomLabel *widget.Label
	pageEntry *widget.Entry
	pageTotal *widget.Label
	content   fyne.CanvasObject
}

func NewToolbar(s *session.Session, list *PageList, actions ToolbarActions) *Toolbar {
	t := &Toolbar{session: s, list: list, tools: map[state.ToolType]*widget.Button{}}

	toolButton := func(tool state.ToolType, label string, icon fyne.Resource) *widget.Button {
		btn := widget.NewButtonWithIcon(label, icon, func() { t.SelectTool(tool) })
		t.tools[tool] = btn
		return btn
	}
	toolBox := container.NewHBox(
		toolButton(state.ToolPen, "Pen", theme.DocumentCreateIcon()),
		toolButton(state.ToolHighlighter, "Highlight", theme.ColorPaletteIcon()),
		toolButton(state.ToolEraser, "Eraser", theme.ContentClearIcon()),
		toolButton(state.ToolAIPen, "AI Pen", theme.SearchIcon()),
	)

	t.swatches = container.NewHBox()

	// --- Stroke Width Slider ---
	t.width = widget.NewSlider(1.0, 60.0)
	t.width.OnChanged = t.setWidth
	sliderContainer := container.New(layout.NewGridWrapLayout(fyne.NewSize(150, 35)), t.width)

	t.zoomLabel = widget.NewLabel("")
	zoomOut := widget.NewButtonWithIcon("", theme.ZoomOutIcon(), func() { t.Zoom(-zoomStep) })
	zoomIn := widget.NewButtonWithIcon("", theme.ZoomInIcon(), func() { t.Zoom(zoomStep) })

	t.pageEntry = widget.NewEntry()
	t.pageEntry.OnSubmitted = func(text string) {
		if !list.GoToPageInput(text) {
			t.showPage(s.Viewport().CurrentPage())
		}
	}
	pageEntry := container.New(layout.NewGridWrapLayout(fyne.NewSize(60, 35)), t.pageEntry)
	t.pageTotal = widget.NewLabel("/ 0")

	docTools := widget.NewToolbar(
		widget.NewToolbarAction(theme.FolderOpenIcon(), orNoop(actions.Open)),
		widget.NewToolbarAction(theme.StorageIcon(), orNoop(actions.OpenFolder)),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), orNoop(actions.Export)),
	)
	endSession := widget.NewButtonWithIcon("End session", theme.ConfirmIcon(), orNoop(actions.EndSession))
	endSession.Importance = widget.HighImportance

	// --- Assemble everything ---
	t.content = container.NewHBox(
		docTools,
		widget.NewSeparator(),
		toolBox,
		widget.NewSeparator(),
		t.swatches,
		widget.NewLabel("Size:"),
		sliderContainer,
		widget.NewSeparator(),
		zoomOut, t.zoomLabel, zoomIn,
		widget.NewSeparator(),
		pageEntry, t.pageTotal,
		layout.NewSpacer(),
		endSession,
	)

	s.Viewport().OnPageChange(func(page int) { fyne.Do(func() { t.showPage(page) }) })
	s.Viewport().OnZoomChange(func(z float64) { fyne.Do(func() { t.showZoom(z) }) })
	s.Settings().OnChange(func(state.ToolSettings) { fyne.Do(t.syncTool) })

	t.ExtendBaseWidget(t)
	t.Sync()
	return t
}

func orNoop(fn func()) func() {
	if fn == nil {
		return func() {}
	}
	return fn
}

// Sync refreshes every control from the session, for example after a new
// document was opened.
func (t *Toolbar) Sync() {
	t.syncTool()
	t.showZoom(t.session.Viewport().Zoom())
	t.showPage(t.session.Viewport().CurrentPage())
	t.pageTotal.SetText(fmt.Sprintf("/ %d", t.session.Viewport().TotalPages()))
}

// SelectTool switches the session tool and updates the controls.
func (t *Toolbar) SelectTool(tool state.ToolType) {
	t.session.SelectTool(tool)
	t.syncTool()
}

// Zoom changes the zoom by delta.
func (t *Toolbar) Zoom(delta float64) {
	t.session.Viewport().SetZoom(t.session.Viewport().Zoom() + delta)
}

func (t *Toolbar) syncTool() {
	active := t.session.Tool()
	for tool, btn := range t.tools {
		if tool == active {
			btn.Importance = widget.HighImportance
		} else {
			btn.Importance = widget.MediumImportance
		}
		btn.Refresh()
	}

	settings := t.session.Settings().Get()
	var colors []string
	var pick func(string)
	switch active {
	case state.ToolPen:
		colors = PenColors
		pick = func(c string) { t.session.Settings().Update(func(s *state.ToolSettings) { s.PenColor = c }) }
	case state.ToolHighlighter:
		colors = HighlighterColors
		pick = func(c string) { t.session.Settings().Update(func(s *state.ToolSettings) { s.HighlighterColor = c }) }
	}
	swatches := make([]fyne.CanvasObject, 0, len(colors))
	for _, c := range colors {
		swatches = append(swatches, newColorSwatch(c, pick))
	}
	t.swatches.Objects = swatches
	t.swatches.Refresh()

	_, width := settings.Resolve(active)
	t.width.OnChanged = nil
	t.width.SetValue(width)
	t.width.OnChanged = t.setWidth
	if active == state.ToolAIPen {
		t.width.Disable()
	} else {
		t.width.Enable()
	}
}

func (t *Toolbar) setWidth(v float64) {
	tool := t.session.Tool()
	t.session.Settings().Update(func(s *state.ToolSettings) {
		switch tool {
		case state.ToolPen:
			s.PenWidth = v
		case state.ToolHighlighter:
			s.HighlighterWidth = v
		case state.ToolEraser:
			s.EraserWidth = v
		}
	})
}

func (t *Toolbar) showZoom(z float64) {
	t.zoomLabel.SetText(fmt.Sprintf("%d%%", int(viewport.ClampZoom(z)*100+0.5)))
}

func (t *Toolbar) showPage(page int) {
	t.pageEntry.SetText(fmt.Sprint(page))
}

func (t *Toolbar) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(t.content)
}
