// Package capture turns pointer and touch input into strokes.
package capture

import (
	"log"
	"sync"

	"StudyBoard/internal/state"
	"StudyBoard/internal/viewport"
)

// State is the capture state machine position.
type State int

const (
	Idle State = iota
	Drawing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Drawing:
		return "DRAWING"
	}
	return "UNKNOWN"
}

// Position is a pointer position in screen coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Cursor is the eraser indicator. X and Y are relative to the surface,
// Diameter is in screen pixels.
type Cursor struct {
	Visible  bool
	X        float64
	Y        float64
	Diameter float64
}

// Options wires the capture to the things it reads live on every event.
type Options struct {
	Settings *state.SettingsStore
	// Surface returns the drawing surface origin on screen, or false when
	// the surface is not mounted.
	Surface func() (x, y float64, ok bool)
	// Scale returns the current zoom factor.
	Scale func() float64
	// Page returns the page new strokes belong to.
	Page func() int
}

// Capture runs the IDLE -> DRAWING -> IDLE machine for one surface.
type Capture struct {
	mu     sync.Mutex
	opts   Options
	tool   state.ToolType
	state  State
	points []state.Point
	cursor Cursor

	// OnCommit receives every finished stroke with at least two points.
	OnCommit func(state.Stroke)
	// OnRedraw is called whenever the in-progress stroke grows.
	OnRedraw func()
	// OnCursor is called whenever the eraser indicator changes.
	OnCursor func(Cursor)
}

// New creates a capture in the IDLE state with the pen selected.
func New(opts Options) *Capture {
	if opts.Settings == nil {
		opts.Settings = state.NewSettingsStore(state.DefaultToolSettings())
	}
	if opts.Scale == nil {
		opts.Scale = func() float64 { return 1 }
	}
	if opts.Page == nil {
		opts.Page = func() int { return 1 }
	}
	return &Capture{opts: opts, tool: state.ToolPen, state: Idle}
}

// State returns the machine state.
func (c *Capture) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Tool returns the active tool.
func (c *Capture) Tool() state.ToolType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tool
}

// SetTool switches the active tool. Leaving the eraser hides its cursor.
func (c *Capture) SetTool(tool state.ToolType) {
	c.mu.Lock()
	c.tool = tool
	hide := tool != state.ToolEraser && c.cursor.Visible
	if hide {
		c.cursor.Visible = false
	}
	cur := c.cursor
	c.mu.Unlock()

	if hide {
		c.emitCursor(cur)
	}
}

// Cursor returns the eraser indicator.
func (c *Capture) Cursor() Cursor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// Press starts a stroke at pos.
func (c *Capture) Press(pos Position) {
	tr, ok := c.transform()
	if !ok {
		return
	}

	c.mu.Lock()
	c.state = Drawing
	c.points = []state.Point{tr.ToDocument(pos.X, pos.Y)}
	cur, cursorChanged := c.trackCursor(pos, tr)
	c.mu.Unlock()

	if cursorChanged {
		c.emitCursor(cur)
	}
}

// Move extends the stroke while drawing and moves the eraser cursor while
// drawing or hovering.
func (c *Capture) Move(pos Position) {
	tr, ok := c.transform()
	if !ok {
		return
	}

	c.mu.Lock()
	cur, cursorChanged := c.trackCursor(pos, tr)
	drawing := c.state == Drawing
	if drawing {
		c.points = append(c.points, tr.ToDocument(pos.X, pos.Y))
	}
	c.mu.Unlock()

	if cursorChanged {
		c.emitCursor(cur)
	}
	if drawing && c.OnRedraw != nil {
		c.OnRedraw()
	}
}

// Release finishes the stroke. Strokes shorter than two points are dropped.
func (c *Capture) Release() {
	c.finish()
}

// Leave behaves like Release and also hides the eraser cursor.
func (c *Capture) Leave() {
	c.finish()

	c.mu.Lock()
	wasVisible := c.cursor.Visible
	c.cursor.Visible = false
	cur := c.cursor
	c.mu.Unlock()

	if wasVisible {
		c.emitCursor(cur)
	}
}

// PressTouch starts a stroke from a touch event. Only the first touch counts.
func (c *Capture) PressTouch(touches []Position) {
	if len(touches) == 0 {
		return
	}
	c.Press(touches[0])
}

// MoveTouch extends the stroke from a touch event using the first touch.
func (c *Capture) MoveTouch(touches []Position) {
	if len(touches) == 0 {
		return
	}
	c.Move(touches[0])
}

// Cancel drops the in-progress stroke without committing it.
func (c *Capture) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Idle
	c.points = nil
}

// InProgress returns the uncommitted stroke styled with the live settings.
func (c *Capture) InProgress() (state.Stroke, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Drawing || len(c.points) == 0 {
		return state.Stroke{}, false
	}
	return state.Preview(c.points, c.tool, c.opts.Settings.Get(), c.opts.Page()), true
}

func (c *Capture) finish() {
	c.mu.Lock()
	if c.state != Drawing {
		c.mu.Unlock()
		return
	}
	points := c.points
	tool := c.tool
	c.state = Idle
	c.points = nil
	c.mu.Unlock()

	stroke, ok := state.NewStroke(points, tool, c.opts.Settings.Get(), c.opts.Page())
	if !ok {
		log.Printf("[CAPTURE] Discarded %s stroke with %d point(s)", tool, len(points))
		if c.OnRedraw != nil {
			c.OnRedraw()
		}
		return
	}
	if c.OnCommit != nil {
		c.OnCommit(stroke)
	}
}

func (c *Capture) transform() (viewport.Transform, bool) {
	if c.opts.Surface == nil {
		return viewport.Transform{}, false
	}
	x, y, ok := c.opts.Surface()
	if !ok {
		return viewport.Transform{}, false
	}
	return viewport.Transform{OriginX: x, OriginY: y, Scale: c.opts.Scale()}, true
}

// trackCursor must be called with c.mu held.
func (c *Capture) trackCursor(pos Position, tr viewport.Transform) (Cursor, bool) {
	if c.tool != state.ToolEraser {
		if !c.cursor.Visible {
			return c.cursor, false
		}
		c.cursor.Visible = false
		return c.cursor, true
	}
	c.cursor = Cursor{
		Visible:  true,
		X:        pos.X - tr.OriginX,
		Y:        pos.Y - tr.OriginY,
		Diameter: c.opts.Settings.Get().EraserWidth * tr.Scale,
	}
	return c.cursor, true
}

func (c *Capture) emitCursor(cur Cursor) {
	if c.OnCursor != nil {
		c.OnCursor(cur)
	}
}
