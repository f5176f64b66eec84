package render

import (
	"image/color"
	"log"
	"sync"

	"github.com/mazznoer/csscolorparser"
)

var (
	colorCache   = map[string]color.NRGBA{}
	colorCacheMu sync.Mutex
)

// ParseColor turns a CSS color string into a color. Strings that do not
// parse are painted black, the same as a canvas would keep its default.
func ParseColor(s string) color.NRGBA {
	colorCacheMu.Lock()
	defer colorCacheMu.Unlock()

	if c, ok := colorCache[s]; ok {
		return c
	}

	parsed, err := csscolorparser.Parse(s)
	if err != nil {
		log.Printf("[RENDER] Unparseable color %q, using black: %v", s, err)
		c := color.NRGBA{A: 255}
		colorCache[s] = c
		return c
	}
	r, g, b, a := parsed.RGBA255()
	c := color.NRGBA{R: r, G: g, B: b, A: a}
	colorCache[s] = c
	return c
}

// ValidColor reports whether s is a color string the renderer understands.
func ValidColor(s string) bool {
	_, err := csscolorparser.Parse(s)
	return err == nil
}
