package viewport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// three A4-ish pages, 600 high, viewport shows one page at a time
func newTestController() *Controller {
	c := NewController()
	c.SetPages([]PageSize{{400, 600}, {400, 600}, {400, 600}})
	c.SetViewportSize(400, 600)
	return c
}

func TestCurrentPageFollowsScroll(t *testing.T) {
	c := newTestController()
	assert.Equal(t, 1, c.CurrentPage())

	var seen []int
	c.OnPageChange(func(p int) { seen = append(seen, p) })

	// page 2 starts at 616; at 400 it is (600-(616-400))/600 = 64% visible
	c.SetScroll(400)
	assert.Equal(t, 2, c.CurrentPage())

	// page 2 shows exactly half and page 3 less, so nothing changes
	c.SetScroll(616 + 300)
	assert.Equal(t, 2, c.CurrentPage())

	c.SetScroll(1232)
	assert.Equal(t, 3, c.CurrentPage())
	assert.Equal(t, []int{2, 3}, seen)
}

func TestCurrentPageKeptWhenNothingOverThreshold(t *testing.T) {
	c := NewController()
	c.SetPages([]PageSize{{400, 600}, {400, 600}})
	// a short viewport can never show half of a page
	c.SetViewportSize(400, 200)
	c.SetScroll(700)
	assert.Equal(t, 1, c.CurrentPage())
}

func TestJumpWithoutMeasuredViewport(t *testing.T) {
	c := NewController()
	c.SetPages([]PageSize{{400, 600}, {400, 600}, {400, 600}, {400, 600}, {400, 600}})

	var seen []int
	c.OnPageChange(func(p int) { seen = append(seen, p) })

	require.True(t, c.JumpToPage(4))
	assert.Equal(t, 4, c.CurrentPage())
	require.True(t, c.JumpToPage(2))
	assert.Equal(t, 2, c.CurrentPage())
	assert.Equal(t, []int{4, 2}, seen)
}

func TestTopmostCandidateWins(t *testing.T) {
	c := NewController()
	c.SetPages([]PageSize{{400, 100}, {400, 100}, {400, 100}})
	c.SetViewportSize(400, 1000)

	c.SetScroll(0)
	// every page is fully visible; the topmost is current
	assert.Equal(t, 1, c.CurrentPage())
	assert.Equal(t, 1.0, c.VisibleRatio(3))
}

func TestScrollToPage(t *testing.T) {
	c := newTestController()

	anim, ok := c.ScrollToPage(2)
	require.True(t, ok)
	assert.Equal(t, 0.0, anim.From)
	assert.Equal(t, 616.0, anim.To)

	anim.Run(c.SetScroll, 10)
	assert.Equal(t, 616.0, c.Scroll())
	assert.Equal(t, 2, c.CurrentPage())
}

func TestNavigationOutOfRangeIgnored(t *testing.T) {
	c := newTestController()
	c.JumpToPage(2)
	require.Equal(t, 2, c.CurrentPage())

	_, ok := c.ScrollToPage(c.TotalPages() + 1)
	assert.False(t, ok)
	_, ok = c.ScrollToPage(0)
	assert.False(t, ok)
	assert.False(t, c.JumpToPage(-3))

	for _, input := range []string{"", "abc", "4", "0", "2.5"} {
		_, ok := c.GoToPageInput(input)
		assert.False(t, ok, input)
	}
	assert.Equal(t, 2, c.CurrentPage())
	assert.Equal(t, 616.0, c.Scroll())

	anim, ok := c.GoToPageInput(" 3 ")
	require.True(t, ok)
	assert.Equal(t, 1232.0, anim.To)
}

func TestZoomClampedAndScalesLayout(t *testing.T) {
	c := newTestController()

	var zooms []float64
	c.OnZoomChange(func(z float64) { zooms = append(zooms, z) })

	c.SetZoom(5)
	assert.Equal(t, MaxZoom, c.Zoom())
	c.SetZoom(0.1)
	assert.Equal(t, MinZoom, c.Zoom())
	c.SetZoom(MinZoom)
	assert.Equal(t, []float64{MaxZoom, MinZoom}, zooms)

	c.SetZoom(2)
	r, ok := c.PageRect(2)
	require.True(t, ok)
	assert.Equal(t, 800.0, r.Width)
	assert.Equal(t, 1200.0, r.Height)
	assert.Equal(t, 1216.0, r.Y)
	assert.Equal(t, 3*1200.0+2*DefaultPageGap, c.ContentHeight())
}

func TestScrollClamped(t *testing.T) {
	c := newTestController()
	c.SetScroll(-50)
	assert.Equal(t, 0.0, c.Scroll())
	c.SetScroll(1e6)
	assert.Equal(t, c.ContentHeight()-600, c.Scroll())
}

func TestAnimationEasing(t *testing.T) {
	a := ScrollAnimation{From: 100, To: 300}
	assert.Equal(t, 100.0, a.At(-1))
	assert.Equal(t, 200.0, a.At(0.5))
	assert.Equal(t, 300.0, a.At(2))
	assert.Less(t, a.At(0.1), 120.0)
}

func TestTransformRoundTrip(t *testing.T) {
	tr := Transform{OriginX: 30, OriginY: 45, Scale: 1.5}
	p := tr.ToDocument(180, 345)
	assert.InDelta(t, 100, p.X, 1e-9)
	assert.InDelta(t, 200, p.Y, 1e-9)

	sx, sy := tr.ToScreen(p)
	assert.InDelta(t, 180, sx, 1e-9)
	assert.InDelta(t, 345, sy, 1e-9)

	assert.Equal(t, 0.5, ClampZoom(0.2))
	assert.Equal(t, 1.25, ClampZoom(1.25))
}
