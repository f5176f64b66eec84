package render

import (
	"image"
	"io"
	"sync"

	"github.com/fogleman/gg"
)

// SizeFunc reports the pixel size of the surface's container, or false when
// the container is not mounted.
type SizeFunc func() (width, height int, ok bool)

// Surface is the raster the ink of one page is painted on.
type Surface struct {
	mu    sync.Mutex
	dc    *gg.Context
	size  SizeFunc
	scale float64
}

// NewSurface creates a surface sized by size. It holds no pixels until the
// first Resize.
func NewSurface(size SizeFunc) *Surface {
	return &Surface{size: size, scale: 1}
}

// NewFixedSurface creates a surface of a fixed size, already allocated.
func NewFixedSurface(width, height int, scale float64) *Surface {
	s := NewSurface(func() (int, int, bool) { return width, height, width > 0 && height > 0 })
	s.scale = scale
	s.Resize()
	return s
}

// Resize re-reads the container size and reallocates the raster, which
// clears it. It returns false when the container is unavailable.
func (s *Surface) Resize() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.size == nil {
		return false
	}
	w, h, ok := s.size()
	if !ok || w <= 0 || h <= 0 {
		s.dc = nil
		return false
	}
	if s.dc != nil && s.dc.Width() == w && s.dc.Height() == h {
		s.clearLocked()
		return true
	}
	s.dc = gg.NewContext(w, h)
	return true
}

// SetScale sets the zoom factor document points are multiplied by.
func (s *Surface) SetScale(z float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if z <= 0 {
		z = 1
	}
	s.scale = z
}

// Scale returns the zoom factor.
func (s *Surface) Scale() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scale
}

// Ready reports whether the surface currently has pixels.
func (s *Surface) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dc != nil
}

// Bounds returns the pixel size, zero when not ready.
func (s *Surface) Bounds() image.Rectangle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dc == nil {
		return image.Rectangle{}
	}
	return image.Rect(0, 0, s.dc.Width(), s.dc.Height())
}

// Snapshot returns a copy of the current pixels, or nil when not ready.
func (s *Surface) Snapshot() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dc == nil {
		return nil
	}
	src := s.dc.Image().(*image.RGBA)
	out := image.NewRGBA(src.Bounds())
	copy(out.Pix, src.Pix)
	return out
}

// EncodePNG writes the current pixels as PNG.
func (s *Surface) EncodePNG(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dc == nil {
		return ErrNoSurface
	}
	return s.dc.EncodePNG(w)
}

// with runs fn with the context locked. fn is not called when not ready.
func (s *Surface) with(fn func(dc *gg.Context, scale float64)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dc == nil {
		return false
	}
	fn(s.dc, s.scale)
	return true
}

func (s *Surface) clearLocked() {
	im := s.dc.Image().(*image.RGBA)
	clear(im.Pix)
}
