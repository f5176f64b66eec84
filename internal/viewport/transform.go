package viewport

import "StudyBoard/internal/state"

const (
	MinZoom = 0.5
	MaxZoom = 2.0
)

// ClampZoom limits z to [MinZoom, MaxZoom].
func ClampZoom(z float64) float64 {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}

// Transform maps between screen coordinates and document space for one
// drawing surface. Origin is the surface's top left corner on screen.
type Transform struct {
	OriginX float64
	OriginY float64
	Scale   float64
}

// ToDocument converts a screen position into document space.
func (t Transform) ToDocument(sx, sy float64) state.Point {
	scale := t.Scale
	if scale == 0 {
		scale = 1
	}
	return state.Point{
		X: (sx - t.OriginX) / scale,
		Y: (sy - t.OriginY) / scale,
	}
}

// ToScreen converts a document point back to a screen position.
func (t Transform) ToScreen(p state.Point) (float64, float64) {
	return p.X*t.Scale + t.OriginX, p.Y*t.Scale + t.OriginY
}
