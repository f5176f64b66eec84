package session

import (
	"sync"

	"StudyBoard/internal/capture"
	"StudyBoard/internal/render"
	"StudyBoard/internal/state"
)

// Canvas is the drawing surface of one page: its input capture, raster and
// renderer. The page a canvas draws on never changes.
type Canvas struct {
	Page int

	session  *Session
	capture  *capture.Capture
	surface  *render.Surface
	renderer *render.Renderer

	mu      sync.Mutex
	mounted bool
	originX float64
	originY float64
	onPaint []func()
}

// newCanvas is called with s.mu held.
func newCanvas(s *Session, page int, tool state.ToolType) *Canvas {
	c := &Canvas{Page: page, session: s}

	c.surface = render.NewSurface(c.size)
	c.surface.SetScale(s.viewport.Zoom())
	c.renderer = render.NewRenderer(c.surface)

	c.capture = capture.New(capture.Options{
		Settings: s.settings,
		Surface:  c.origin,
		Scale:    s.viewport.Zoom,
		Page:     func() int { return page },
	})
	c.capture.SetTool(tool)
	c.capture.OnCommit = func(stroke state.Stroke) { s.HandleStrokeComplete(stroke) }
	c.capture.OnRedraw = func() { c.Redraw() }
	return c
}

// Capture returns the input state machine of the canvas.
func (c *Canvas) Capture() *capture.Capture { return c.capture }

// Surface returns the raster the canvas paints on.
func (c *Canvas) Surface() *render.Surface { return c.surface }

// Renderer returns the canvas renderer.
func (c *Canvas) Renderer() *render.Renderer { return c.renderer }

// Mount attaches the canvas to the screen with its top-left corner at x, y.
// The raster is sized to the page at the current zoom and repainted.
func (c *Canvas) Mount(x, y float64) render.Stats {
	c.mu.Lock()
	c.mounted = true
	c.originX, c.originY = x, y
	c.mu.Unlock()
	return c.Resize()
}

// Move updates the on-screen origin, for example after scrolling.
func (c *Canvas) Move(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.originX, c.originY = x, y
}

// Unmount detaches the canvas. Input is ignored until it is mounted again.
func (c *Canvas) Unmount() {
	c.mu.Lock()
	c.mounted = false
	c.mu.Unlock()
	c.capture.Cancel()
	c.surface.Resize()
}

// Mounted reports whether the canvas is attached.
func (c *Canvas) Mounted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mounted
}

// OnPaint registers fn to run after every repaint of the raster.
func (c *Canvas) OnPaint(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onPaint = append(c.onPaint, fn)
}

// Redraw repaints the canvas from the stroke log plus the stroke being drawn.
func (c *Canvas) Redraw() render.Stats {
	stats := c.renderer.Redraw(c.session.log.OnPage(c.Page), c.Page, c.inProgress())
	c.painted()
	return stats
}

// Resize re-reads the page size and zoom, reallocates the raster and
// repaints it.
func (c *Canvas) Resize() render.Stats {
	c.surface.SetScale(c.session.viewport.Zoom())
	stats := c.renderer.Resize(c.session.log.OnPage(c.Page), c.Page, c.inProgress())
	c.painted()
	return stats
}

func (c *Canvas) painted() {
	c.mu.Lock()
	listeners := append([]func(){}, c.onPaint...)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

func (c *Canvas) inProgress() *state.Stroke {
	s, ok := c.capture.InProgress()
	if !ok {
		return nil
	}
	return &s
}

func (c *Canvas) origin() (float64, float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.originX, c.originY, c.mounted
}

func (c *Canvas) size() (int, int, bool) {
	if !c.Mounted() {
		return 0, 0, false
	}
	rect, ok := c.session.viewport.PageRect(c.Page)
	if !ok {
		return 0, 0, false
	}
	return int(rect.Width + 0.5), int(rect.Height + 0.5), true
}
