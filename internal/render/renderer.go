// Package render paints strokes onto page rasters.
package render

import (
	"errors"
	"image"
	"image/color"
	"log"
	"sync"

	"github.com/fogleman/gg"
	"github.com/gogpu/gg/scene"

	"StudyBoard/internal/state"
)

// ErrNoSurface is returned when the raster has not been allocated.
var ErrNoSurface = errors.New("render: surface not ready")

// CompositeOp is how a stroke's pixels combine with what is already painted.
type CompositeOp int

const (
	SourceOver CompositeOp = iota
	DestinationOut
)

func (op CompositeOp) String() string {
	if op == DestinationOut {
		return "destination-out"
	}
	return "source-over"
}

// CompositeFor returns the composite operation used by a tool.
func CompositeFor(tool state.ToolType) CompositeOp {
	if tool.Destructive() {
		return DestinationOut
	}
	return SourceOver
}

// Stats describes the work done by the last full repaint.
type Stats struct {
	Strokes  int
	Segments int
}

// Renderer repaints one surface from stroke data. Every redraw clears the
// whole surface and replays the page's strokes in commit order; there is
// no incremental update, so a redraw costs O(strokes on the page).
type Renderer struct {
	mu      sync.Mutex
	surface *Surface
	op      CompositeOp
	stats   Stats
}

// NewRenderer creates a renderer painting onto surface.
func NewRenderer(surface *Surface) *Renderer {
	return &Renderer{surface: surface}
}

// Surface returns the surface the renderer paints on.
func (r *Renderer) Surface() *Surface {
	return r.surface
}

// Stats returns the counters of the last redraw.
func (r *Renderer) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Composite returns the composite mode currently selected. Outside of a
// paint call it is always SourceOver.
func (r *Renderer) Composite() CompositeOp {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.op
}

// Redraw clears the surface and paints every stroke on page in order,
// followed by the in-progress stroke when one is given. It is a no-op when
// the surface is not ready.
func (r *Renderer) Redraw(strokes []state.Stroke, page int, inProgress *state.Stroke) Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stats Stats
	painted := r.surface.with(func(dc *gg.Context, scale float64) {
		im := dc.Image().(*image.RGBA)
		clear(im.Pix)

		for _, s := range strokes {
			if s.Page != page {
				continue
			}
			stats.add(r.paint(dc, s, scale))
		}
		if inProgress != nil {
			stats.add(r.paint(dc, *inProgress, scale))
		}
	})
	if !painted {
		return Stats{}
	}
	r.stats = stats
	return stats
}

// Resize re-reads the surface size and repaints from stroke data, since
// reallocating the raster drops its pixels.
func (r *Renderer) Resize(strokes []state.Stroke, page int, inProgress *state.Stroke) Stats {
	if !r.surface.Resize() {
		log.Printf("[RENDER] Resize skipped, surface not mounted")
		return Stats{}
	}
	return r.Redraw(strokes, page, inProgress)
}

func (s *Stats) add(segments int) {
	if segments == 0 {
		return
	}
	s.Strokes++
	s.Segments += segments
}

// paint draws one stroke and returns the number of segments traced.
func (r *Renderer) paint(dc *gg.Context, s state.Stroke, scale float64) int {
	if len(s.Points) < state.MinStrokePoints {
		return 0
	}

	r.op = CompositeFor(s.Type)
	defer func() { r.op = SourceOver }()

	switch r.op {
	case DestinationOut:
		erase(dc, s, scale)
	default:
		dc.SetLineCap(gg.LineCapRound)
		dc.SetLineJoin(gg.LineJoinRound)
		dc.SetColor(ParseColor(s.Color))
		dc.SetLineWidth(s.Width * scale)
		trace(dc, s.Points, scale)
		dc.Stroke()
	}
	return len(s.Points) - 1
}

func trace(dc *gg.Context, points []state.Point, scale float64) {
	dc.ClearPath()
	dc.MoveTo(points[0].X*scale, points[0].Y*scale)
	for _, p := range points[1:] {
		dc.LineTo(p.X*scale, p.Y*scale)
	}
}

// erase strokes s into a coverage mask and removes that coverage from the
// painted pixels (destination-out).
func erase(dc *gg.Context, s state.Stroke, scale float64) {
	mask := gg.NewContext(dc.Width(), dc.Height())
	mask.SetLineCap(gg.LineCapRound)
	mask.SetLineJoin(gg.LineJoinRound)
	mask.SetColor(color.White)
	mask.SetLineWidth(s.Width * scale)
	trace(mask, s.Points, scale)
	mask.Stroke()

	DestinationOutMask(dc.Image().(*image.RGBA), mask.Image().(*image.RGBA))
}

// destinationOut is the Porter-Duff D*(1-Sa) operator over premultiplied
// bytes, the same layout image.RGBA uses.
var destinationOut = scene.BlendDestinationOut.GetBlendFunc()

// DestinationOutMask composites mask onto dst with destination-out: every
// pixel of dst keeps 1 - coverage, where the coverage is the alpha of mask
// at the same position. dst and mask must have the same bounds.
func DestinationOutMask(dst, mask *image.RGBA) {
	n := len(dst.Pix)
	if len(mask.Pix) < n {
		n = len(mask.Pix)
	}
	for i := 0; i+3 < n; i += 4 {
		if mask.Pix[i+3] == 0 {
			continue
		}
		m, d := mask.Pix[i:i+4:i+4], dst.Pix[i:i+4:i+4]
		d[0], d[1], d[2], d[3] = destinationOut(m[0], m[1], m[2], m[3], d[0], d[1], d[2], d[3])
	}
}

// RenderOverlay paints the strokes of page onto a fresh transparent raster
// of the given pixel size.
func RenderOverlay(strokes []state.Stroke, page, width, height int, scale float64) (*image.RGBA, Stats) {
	surface := NewFixedSurface(width, height, scale)
	stats := NewRenderer(surface).Redraw(strokes, page, nil)
	img := surface.Snapshot()
	if img == nil {
		img = image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	return img, stats
}
