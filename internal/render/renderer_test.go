package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StudyBoard/internal/state"
)

func line(tool state.ToolType, color string, width float64, page int) state.Stroke {
	return state.Stroke{
		Type:   tool,
		Color:  color,
		Width:  width,
		Page:   page,
		Points: []state.Point{{X: 10, Y: 50}, {X: 50, Y: 50}, {X: 90, Y: 50}},
	}
}

func alphaAt(img *image.RGBA, x, y int) uint8 {
	return img.RGBAAt(x, y).A
}

func TestPenStrokePaints(t *testing.T) {
	surface := NewFixedSurface(100, 100, 1)
	r := NewRenderer(surface)

	stats := r.Redraw([]state.Stroke{line(state.ToolPen, "#ff0000", 10, 1)}, 1, nil)
	assert.Equal(t, Stats{Strokes: 1, Segments: 2}, stats)

	img := surface.Snapshot()
	require.NotNil(t, img)
	px := img.RGBAAt(50, 50)
	assert.Equal(t, uint8(255), px.R)
	assert.Equal(t, uint8(0), px.G)
	assert.Equal(t, uint8(255), px.A)
	assert.Equal(t, uint8(0), alphaAt(img, 50, 10))
}

func TestEraserAfterInkRemovesIt(t *testing.T) {
	surface := NewFixedSurface(100, 100, 1)
	r := NewRenderer(surface)

	r.Redraw([]state.Stroke{
		line(state.ToolPen, "#000000", 10, 1),
		line(state.ToolEraser, state.EraserColor, 30, 1),
	}, 1, nil)

	img := surface.Snapshot()
	assert.Equal(t, uint8(0), alphaAt(img, 50, 50))
	assert.Equal(t, SourceOver, r.Composite())
}

func TestEraserBeforeInkDoesNotAffectIt(t *testing.T) {
	surface := NewFixedSurface(100, 100, 1)
	r := NewRenderer(surface)

	r.Redraw([]state.Stroke{
		line(state.ToolEraser, state.EraserColor, 30, 1),
		line(state.ToolPen, "#000000", 10, 1),
	}, 1, nil)

	assert.Equal(t, uint8(255), alphaAt(surface.Snapshot(), 50, 50))
}

func TestHighlighterAfterEraserIsTranslucent(t *testing.T) {
	surface := NewFixedSurface(100, 100, 1)
	r := NewRenderer(surface)

	r.Redraw([]state.Stroke{
		line(state.ToolPen, "#000000", 10, 1),
		line(state.ToolEraser, state.EraserColor, 30, 1),
		line(state.ToolHighlighter, state.DefaultHighlighterColor, 15, 1),
	}, 1, nil)

	px := surface.Snapshot().RGBAAt(50, 50)
	assert.InDelta(t, 102, int(px.A), 3, "highlighter keeps its 0.4 alpha")
	assert.Greater(t, px.R, px.B, "yellow, not the erased black")
	assert.Equal(t, SourceOver, r.Composite())
}

func TestRedrawIsFullRepaint(t *testing.T) {
	surface := NewFixedSurface(100, 100, 1)
	r := NewRenderer(surface)
	strokes := []state.Stroke{line(state.ToolPen, "#000000", 10, 1)}

	r.Redraw(strokes, 1, nil)
	first := surface.Snapshot()
	r.Redraw(strokes, 1, nil)
	assert.Equal(t, first.Pix, surface.Snapshot().Pix)

	// an empty log clears everything
	stats := r.Redraw(nil, 1, nil)
	assert.Equal(t, Stats{}, stats)
	assert.Equal(t, uint8(0), alphaAt(surface.Snapshot(), 50, 50))
}

func TestRedrawFiltersByPage(t *testing.T) {
	surface := NewFixedSurface(100, 100, 1)
	r := NewRenderer(surface)

	stats := r.Redraw([]state.Stroke{
		line(state.ToolPen, "#000000", 10, 2),
		line(state.ToolPen, "#000000", 10, 1),
		line(state.ToolPen, "#000000", 10, 2),
	}, 2, nil)
	assert.Equal(t, 2, stats.Strokes)
	assert.Equal(t, 4, stats.Segments)
}

func TestRedrawWorkIsLinear(t *testing.T) {
	surface := NewFixedSurface(50, 50, 1)
	r := NewRenderer(surface)

	var strokes []state.Stroke
	for i := 0; i < 40; i++ {
		strokes = append(strokes, line(state.ToolPen, "#000000", 1, 1))
	}
	assert.Equal(t, Stats{Strokes: 40, Segments: 80}, r.Redraw(strokes, 1, nil))
	assert.Equal(t, Stats{Strokes: 40, Segments: 80}, r.Stats())
}

func TestInProgressStrokeIsPaintedLast(t *testing.T) {
	surface := NewFixedSurface(100, 100, 1)
	r := NewRenderer(surface)
	live := line(state.ToolEraser, state.EraserColor, 30, 1)

	stats := r.Redraw([]state.Stroke{line(state.ToolPen, "#000000", 10, 1)}, 1, &live)
	assert.Equal(t, 2, stats.Strokes)
	assert.Equal(t, uint8(0), alphaAt(surface.Snapshot(), 50, 50))
}

func TestZoomScalesGeometry(t *testing.T) {
	surface := NewFixedSurface(200, 200, 2)
	r := NewRenderer(surface)
	r.Redraw([]state.Stroke{line(state.ToolPen, "#000000", 4, 1)}, 1, nil)

	img := surface.Snapshot()
	assert.Equal(t, uint8(255), alphaAt(img, 100, 100))
	assert.Equal(t, uint8(0), alphaAt(img, 100, 50))
}

func TestUnmountedSurfaceSkipsRedraw(t *testing.T) {
	surface := NewSurface(func() (int, int, bool) { return 0, 0, false })
	r := NewRenderer(surface)

	assert.False(t, surface.Resize())
	assert.False(t, surface.Ready())
	assert.Equal(t, Stats{}, r.Redraw([]state.Stroke{line(state.ToolPen, "#000000", 10, 1)}, 1, nil))
	assert.Nil(t, surface.Snapshot())
}

func TestResizeRepaintsFromStrokeData(t *testing.T) {
	w, h := 100, 100
	surface := NewSurface(func() (int, int, bool) { return w, h, true })
	r := NewRenderer(surface)
	strokes := []state.Stroke{line(state.ToolPen, "#000000", 10, 1)}

	r.Resize(strokes, 1, nil)
	require.Equal(t, image.Rect(0, 0, 100, 100), surface.Bounds())

	w, h = 120, 80
	stats := r.Resize(strokes, 1, nil)
	assert.Equal(t, 1, stats.Strokes)
	assert.Equal(t, image.Rect(0, 0, 120, 80), surface.Bounds())
	assert.Equal(t, uint8(255), alphaAt(surface.Snapshot(), 50, 50))
}

func TestParseColor(t *testing.T) {
	assert.Equal(t, color.NRGBA{R: 0x8b, G: 0x5c, B: 0xf6, A: 255}, ParseColor(state.AIPenColor))
	assert.Equal(t, color.NRGBA{A: 255}, ParseColor("not-a-color"))
	assert.Equal(t, uint8(102), ParseColor(state.DefaultHighlighterColor).A)
	assert.True(t, ValidColor("rgba(0,0,0,1)"))
	assert.False(t, ValidColor("bogus"))
}

func TestDestinationOutMaskPartialCoverage(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 1, 1))
	dst.Pix = []uint8{200, 100, 50, 200}
	mask := image.NewRGBA(image.Rect(0, 0, 1, 1))
	mask.Pix = []uint8{255, 255, 255, 51}

	DestinationOutMask(dst, mask)
	assert.Equal(t, []uint8{160, 80, 40, 160}, dst.Pix)
}

func TestDestinationOutMaskClearsAndKeeps(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 2, 1))
	dst.Pix = []uint8{10, 20, 30, 255, 10, 20, 30, 255}
	mask := image.NewRGBA(image.Rect(0, 0, 2, 1))
	mask.Pix = []uint8{255, 255, 255, 255, 0, 0, 0, 0}

	DestinationOutMask(dst, mask)
	assert.Equal(t, []uint8{0, 0, 0, 0, 10, 20, 30, 255}, dst.Pix)
}

func TestComposeOverWhitePage(t *testing.T) {
	overlay, _ := RenderOverlay([]state.Stroke{line(state.ToolPen, "#ff0000", 10, 1)}, 1, 100, 100, 1)

	out := Compose(nil, overlay)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, out.RGBAAt(50, 50))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, out.RGBAAt(50, 10))
}

func TestCropClampsToBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 50, 50))
	out := Crop(img, image.Rect(40, 40, 80, 80))
	assert.Equal(t, image.Rect(0, 0, 10, 10), out.Bounds())

	empty := Crop(img, image.Rect(60, 60, 70, 70))
	assert.True(t, empty.Bounds().Empty())
}
