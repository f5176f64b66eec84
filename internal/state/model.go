package state

import (
	"time"
)

// Point is a coordinate in document space, already divided by the zoom
// factor that was active when it was captured.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ToolType selects how a stroke is composited and which defaults it takes.
type ToolType string

const (
	ToolPen         ToolType = "PEN"
	ToolHighlighter ToolType = "HIGHLIGHTER"
	ToolEraser      ToolType = "ERASER"
	ToolAIPen       ToolType = "AI_PEN"
)

// Valid reports whether t is one of the four known tools.
func (t ToolType) Valid() bool {
	switch t {
	case ToolPen, ToolHighlighter, ToolEraser, ToolAIPen:
		return true
	}
	return false
}

// Destructive reports whether strokes of this tool remove painted content
// instead of adding color.
func (t ToolType) Destructive() bool {
	return t == ToolEraser
}

// MinStrokePoints is the smallest number of points a committed stroke has.
const MinStrokePoints = 2

// Stroke is one finished annotation. Color and Width are resolved when the
// stroke is committed and are never re-resolved afterwards.
type Stroke struct {
	ID        string    `json:"id"`
	Points    []Point   `json:"points"`
	Type      ToolType  `json:"type"`
	Color     string    `json:"color"`
	Width     float64   `json:"width"`
	Page      int       `json:"page"`
	CreatedAt time.Time `json:"created_at"`
}

// NewStroke resolves the tool style from settings and builds a stroke for the
// given page. It returns false when the geometry is too short to commit.
// The points are copied so the caller may keep reusing its buffer.
func NewStroke(points []Point, tool ToolType, settings ToolSettings, page int) (Stroke, bool) {
	if len(points) < MinStrokePoints {
		return Stroke{}, false
	}
	color, width := settings.Resolve(tool)
	return Stroke{
		Points: clonePoints(points),
		Type:   tool,
		Color:  color,
		Width:  width,
		Page:   page,
	}, true
}

// Preview builds the uncommitted stroke shown while the pointer is still down.
// Unlike NewStroke it accepts any number of points.
func Preview(points []Point, tool ToolType, settings ToolSettings, page int) Stroke {
	color, width := settings.Resolve(tool)
	return Stroke{
		Points: clonePoints(points),
		Type:   tool,
		Color:  color,
		Width:  width,
		Page:   page,
	}
}

// Clone returns a deep copy of s.
func (s Stroke) Clone() Stroke {
	s.Points = clonePoints(s.Points)
	return s
}

func clonePoints(points []Point) []Point {
	if points == nil {
		return nil
	}
	out := make([]Point, len(points))
	copy(out, points)
	return out
}
