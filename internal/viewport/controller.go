// Package viewport tracks scroll position, zoom and the current page of a
// vertically stacked document.
package viewport

import (
	"log"
	"strconv"
	"strings"
	"sync"

	"StudyBoard/internal/state"
)

// VisibleThreshold is the share of a page that must be visible for it to
// become the current page.
const VisibleThreshold = 0.5

// DefaultPageGap is the vertical space between pages, in screen pixels.
const DefaultPageGap = 16.0

// PageSize is the unscaled size of one page in document units.
type PageSize struct {
	Width  float64
	Height float64
}

// Controller owns scroll, zoom and current page detection.
//
// When more than one page is over the visibility threshold at once, the
// topmost of them (lowest page number) becomes current.
type Controller struct {
	mu sync.Mutex

	pages   []PageSize
	gap     float64
	zoom    float64
	scroll  float64
	viewW   float64
	viewH   float64
	current int

	onPage []func(int)
	onZoom []func(float64)
}

// NewController creates a controller with no pages at zoom 1.
func NewController() *Controller {
	return &Controller{gap: DefaultPageGap, zoom: 1}
}

// SetPages replaces the page layout and moves back to page 1.
func (c *Controller) SetPages(pages []PageSize) {
	c.mu.Lock()
	c.pages = append([]PageSize(nil), pages...)
	c.scroll = 0
	prev := c.current
	c.current = 0
	if len(c.pages) > 0 {
		c.current = 1
	}
	changed := c.current != prev
	cur := c.current
	listeners := append([]func(int){}, c.onPage...)
	c.mu.Unlock()

	log.Printf("[VIEWPORT] Layout with %d pages", len(pages))
	if changed {
		for _, fn := range listeners {
			fn(cur)
		}
	}
}

// TotalPages returns the number of pages in the layout.
func (c *Controller) TotalPages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pages)
}

// CurrentPage returns the 1-based current page, or 0 without pages.
func (c *Controller) CurrentPage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Zoom returns the current scale factor.
func (c *Controller) Zoom() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.zoom
}

// Scroll returns the vertical scroll offset in screen pixels.
func (c *Controller) Scroll() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scroll
}

// OnPageChange registers fn to run whenever the current page changes.
func (c *Controller) OnPageChange(fn func(page int)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onPage = append(c.onPage, fn)
}

// OnZoomChange registers fn to run whenever the zoom changes.
func (c *Controller) OnZoomChange(fn func(zoom float64)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onZoom = append(c.onZoom, fn)
}

// SetViewportSize records the visible area of the scroll container.
func (c *Controller) SetViewportSize(width, height float64) {
	c.mu.Lock()
	c.viewW, c.viewH = width, height
	c.scroll = c.clampScroll(c.scroll)
	c.mu.Unlock()
	c.observe()
}

// SetScroll moves the viewport to offset and re-evaluates the current page.
func (c *Controller) SetScroll(offset float64) {
	c.mu.Lock()
	c.scroll = c.clampScroll(offset)
	c.mu.Unlock()
	c.observe()
}

// SetZoom changes the scale factor, clamped to [MinZoom, MaxZoom]. The scroll
// offset is scaled with it so the same content stays in view.
func (c *Controller) SetZoom(z float64) {
	z = ClampZoom(z)

	c.mu.Lock()
	if z == c.zoom {
		c.mu.Unlock()
		return
	}
	c.scroll = c.clampScroll(c.scroll * z / c.zoom)
	c.zoom = z
	listeners := append([]func(float64){}, c.onZoom...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(z)
	}
	c.observe()
}

// PageRect returns the on-screen rectangle of page n in content coordinates.
func (c *Controller) PageRect(n int) (state.Rect, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 1 || n > len(c.pages) {
		return state.Rect{}, false
	}
	return c.pageRect(n), true
}

// ContentHeight is the scaled height of all pages and gaps.
func (c *Controller) ContentHeight() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.contentHeight()
}

// VisibleRatio returns the visible share of page n in [0, 1].
func (c *Controller) VisibleRatio(n int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 1 || n > len(c.pages) {
		return 0
	}
	return c.visibleRatio(n)
}

// ScrollToPage prepares a smooth scroll that aligns the top of page n with
// the top of the viewport. Pages outside [1, TotalPages] are ignored.
func (c *Controller) ScrollToPage(n int) (ScrollAnimation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 1 || n > len(c.pages) {
		return ScrollAnimation{}, false
	}
	target := c.clampScroll(c.pageRect(n).Y)
	return ScrollAnimation{From: c.scroll, To: target}, true
}

// JumpToPage scrolls to page n without animation.
func (c *Controller) JumpToPage(n int) bool {
	anim, ok := c.ScrollToPage(n)
	if !ok {
		return false
	}
	c.SetScroll(anim.To)
	return true
}

// GoToPageInput handles text typed into the page box. Anything that is not
// a page number in range leaves the viewport untouched.
func (c *Controller) GoToPageInput(text string) (ScrollAnimation, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return ScrollAnimation{}, false
	}
	return c.ScrollToPage(n)
}

// observe plays the role of a visibility observer: every page that is more
// than half visible is a candidate and the topmost candidate wins. With no
// candidate the current page is kept.
func (c *Controller) observe() {
	c.mu.Lock()
	next := c.current
	for n := 1; n <= len(c.pages); n++ {
		if c.visibleRatio(n) > VisibleThreshold {
			next = n
			break
		}
	}
	changed := next != c.current
	c.current = next
	listeners := append([]func(int){}, c.onPage...)
	c.mu.Unlock()

	if changed {
		log.Printf("[VIEWPORT] Current page -> %d", next)
		for _, fn := range listeners {
			fn(next)
		}
	}
}

func (c *Controller) pageRect(n int) state.Rect {
	top := 0.0
	for i := 0; i < n-1; i++ {
		top += c.pages[i].Height*c.zoom + c.gap
	}
	p := c.pages[n-1]
	return state.Rect{X: 0, Y: top, Width: p.Width * c.zoom, Height: p.Height * c.zoom}
}

func (c *Controller) visibleRatio(n int) float64 {
	page := c.pageRect(n)
	area := page.Area()
	if area == 0 {
		return 0
	}
	// Without a measured container (headless sessions) the viewport is one
	// page tall.
	width, height := c.viewW, c.viewH
	if width <= 0 {
		width = page.Width
	}
	if height <= 0 {
		height = page.Height
	}
	view := state.Rect{X: 0, Y: c.scroll, Width: width, Height: height}
	return page.Intersect(view).Area() / area
}

func (c *Controller) contentHeight() float64 {
	h := 0.0
	for i, p := range c.pages {
		if i > 0 {
			h += c.gap
		}
		h += p.Height * c.zoom
	}
	return h
}

func (c *Controller) clampScroll(offset float64) float64 {
	limit := c.contentHeight() - c.viewH
	if offset > limit {
		offset = limit
	}
	if offset < 0 {
		offset = 0
	}
	return offset
}
