package document

import (
	"errors"
	"fmt"
	"image"
	"log"
	"math"

	"github.com/fogleman/gg"
	textpdf "github.com/ledongthuc/pdf"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/graphics"
	"seehuhn.de/go/pdf/pagetree"
	"seehuhn.de/go/pdf/reader"
)

// VectorPages draws the vector paths and the text of a page. Embedded
// images and shadings are not drawn.
var VectorPages Rasterizer = RasterizerFunc(rasterizeVector)

// Fallback renders with primary and switches to secondary for a page the
// primary cannot render.
func Fallback(primary, secondary Rasterizer) Rasterizer {
	return RasterizerFunc(func(path string, page, width, height int) (image.Image, error) {
		img, err := primary.Rasterize(path, page, width, height)
		if err == nil {
			return img, nil
		}
		log.Printf("[DOC] Page %d of %s: %v", page, path, err)
		return secondary.Rasterize(path, page, width, height)
	})
}

func rasterizeVector(path string, page, width, height int) (img image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			img, err = nil, fmt.Errorf("malformed page %d: %v", page, r)
		}
	}()

	r, err := pdf.Open(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer r.Close()

	dict, err := pagetree.GetPage(r, page-1)
	if err != nil {
		return nil, fmt.Errorf("failed to find page %d: %w", page, err)
	}
	box, err := mediaBox(r, dict["MediaBox"])
	if err != nil {
		return nil, err
	}

	p := newPainter(box, width, height)
	content := reader.New(r, nil)
	content.EveryOp = func(op string, args []pdf.Object) error {
		p.do(op, args, content.CTM)
		return nil
	}
	if err := content.ParsePage(dict, graphics.IdentityMatrix); err != nil {
		log.Printf("[DOC] Page %d of %s drawn up to a content error: %v", page, path, err)
	}

	p.drawText(path, page)
	return p.dc.Image(), nil
}

type pageBox struct {
	llx, lly, urx, ury float64
}

func mediaBox(r pdf.Getter, obj pdf.Object) (pageBox, error) {
	resolved, err := pdf.Resolve(r, obj)
	if err != nil {
		return pageBox{}, err
	}
	arr, ok := resolved.(pdf.Array)
	if !ok || len(arr) != 4 {
		return pageBox{}, errors.New("missing or invalid MediaBox")
	}
	var v [4]float64
	for i, o := range arr {
		n, err := pdf.GetNumber(r, o)
		if err != nil {
			return pageBox{}, err
		}
		v[i] = float64(n)
	}
	box := pageBox{
		llx: math.Min(v[0], v[2]), lly: math.Min(v[1], v[3]),
		urx: math.Max(v[0], v[2]), ury: math.Max(v[1], v[3]),
	}
	if box.urx-box.llx <= 0 || box.ury-box.lly <= 0 {
		return pageBox{}, errors.New("empty MediaBox")
	}
	return box, nil
}

type paint struct {
	fill, stroke [3]float64
	lineWidth    float64
}

// painter replays path operators onto a white raster. Points are mapped
// through the CTM and then to pixels, with y pointing down.
type painter struct {
	dc     *gg.Context
	box    pageBox
	sx, sy float64

	state paint
	stack []paint

	cx, cy float64
	open   bool
}

func newPainter(box pageBox, width, height int) *painter {
	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	return &painter{
		dc:    dc,
		box:   box,
		sx:    float64(width) / (box.urx - box.llx),
		sy:    float64(height) / (box.ury - box.lly),
		state: paint{lineWidth: 1},
	}
}

func (p *painter) device(x, y float64) (float64, float64) {
	return (x - p.box.llx) * p.sx, (p.box.ury - y) * p.sy
}

func (p *painter) point(ctm graphics.Matrix, x, y float64) (float64, float64) {
	return p.device(ctm.Apply(x, y))
}

func numbers(args []pdf.Object) []float64 {
	out := make([]float64, 0, len(args))
	for _, a := range args {
		switch v := a.(type) {
		case pdf.Integer:
			out = append(out, float64(v))
		case pdf.Real:
			out = append(out, float64(v))
		}
	}
	return out
}

func grayRGB(g float64) [3]float64 { return [3]float64{g, g, g} }

func cmykRGB(c, m, y, k float64) [3]float64 {
	return [3]float64{(1 - c) * (1 - k), (1 - m) * (1 - k), (1 - y) * (1 - k)}
}

func (p *painter) do(op string, args []pdf.Object, ctm graphics.Matrix) {
	v := numbers(args)
	switch op {
	case "q":
		p.stack = append(p.stack, p.state)
	case "Q":
		if len(p.stack) > 0 {
			p.state = p.stack[len(p.stack)-1]
			p.stack = p.stack[:len(p.stack)-1]
		}
	case "w":
		if len(v) == 1 {
			p.state.lineWidth = v[0]
		}
	case "g":
		if len(v) == 1 {
			p.state.fill = grayRGB(v[0])
		}
	case "G":
		if len(v) == 1 {
			p.state.stroke = grayRGB(v[0])
		}
	case "rg":
		if len(v) == 3 {
			p.state.fill = [3]float64{v[0], v[1], v[2]}
		}
	case "RG":
		if len(v) == 3 {
			p.state.stroke = [3]float64{v[0], v[1], v[2]}
		}
	case "k":
		if len(v) == 4 {
			p.state.fill = cmykRGB(v[0], v[1], v[2], v[3])
		}
	case "K":
		if len(v) == 4 {
			p.state.stroke = cmykRGB(v[0], v[1], v[2], v[3])
		}

	case "m":
		if len(v) == 2 {
			p.moveTo(p.point(ctm, v[0], v[1]))
		}
	case "l":
		if len(v) == 2 {
			p.lineTo(p.point(ctm, v[0], v[1]))
		}
	case "c":
		if len(v) == 6 {
			x1, y1 := p.point(ctm, v[0], v[1])
			x2, y2 := p.point(ctm, v[2], v[3])
			x3, y3 := p.point(ctm, v[4], v[5])
			p.curveTo(x1, y1, x2, y2, x3, y3)
		}
	case "v":
		if len(v) == 4 {
			x2, y2 := p.point(ctm, v[0], v[1])
			x3, y3 := p.point(ctm, v[2], v[3])
			p.curveTo(p.cx, p.cy, x2, y2, x3, y3)
		}
	case "y":
		if len(v) == 4 {
			x1, y1 := p.point(ctm, v[0], v[1])
			x3, y3 := p.point(ctm, v[2], v[3])
			p.curveTo(x1, y1, x3, y3, x3, y3)
		}
	case "re":
		if len(v) == 4 {
			x, y, w, h := v[0], v[1], v[2], v[3]
			p.moveTo(p.point(ctm, x, y))
			p.lineTo(p.point(ctm, x+w, y))
			p.lineTo(p.point(ctm, x+w, y+h))
			p.lineTo(p.point(ctm, x, y+h))
			p.dc.ClosePath()
		}
	case "h":
		p.dc.ClosePath()

	case "f", "F":
		p.fill(false, false)
	case "f*":
		p.fill(true, false)
	case "S":
		p.strokePath(ctm)
	case "s":
		p.dc.ClosePath()
		p.strokePath(ctm)
	case "B", "b", "B*", "b*":
		if op == "b" || op == "b*" {
			p.dc.ClosePath()
		}
		p.fill(op == "B*" || op == "b*", true)
		p.strokePath(ctm)
	case "n":
		p.clear()
	}
}

func (p *painter) moveTo(x, y float64) {
	p.dc.MoveTo(x, y)
	p.cx, p.cy, p.open = x, y, true
}

func (p *painter) lineTo(x, y float64) {
	if !p.open {
		p.moveTo(x, y)
		return
	}
	p.dc.LineTo(x, y)
	p.cx, p.cy = x, y
}

func (p *painter) curveTo(x1, y1, x2, y2, x3, y3 float64) {
	if !p.open {
		p.moveTo(x1, y1)
	}
	p.dc.CubicTo(x1, y1, x2, y2, x3, y3)
	p.cx, p.cy = x3, y3
}

func (p *painter) clear() {
	p.dc.ClearPath()
	p.open = false
}

func (p *painter) fill(evenOdd, keep bool) {
	if evenOdd {
		p.dc.SetFillRuleEvenOdd()
	} else {
		p.dc.SetFillRuleWinding()
	}
	c := p.state.fill
	p.dc.SetRGB(c[0], c[1], c[2])
	if keep {
		p.dc.FillPreserve()
		return
	}
	p.dc.Fill()
	p.open = false
}

// strokePath strokes with the line width scaled to pixels. A zero width
// is the thinnest visible line.
func (p *painter) strokePath(ctm graphics.Matrix) {
	scale := math.Sqrt(math.Abs(ctm[0]*ctm[3]-ctm[1]*ctm[2])) * math.Sqrt(p.sx*p.sy)
	p.dc.SetLineWidth(math.Max(p.state.lineWidth*scale, 1))
	c := p.state.stroke
	p.dc.SetRGB(c[0], c[1], c[2])
	p.dc.Stroke()
	p.open = false
}

// drawText places the page's text at its positions in the default face,
// scaled to each run's font size.
func (p *painter) drawText(path string, page int) {
	f, r, err := textpdf.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	if page > r.NumPage() {
		return
	}
	pg := r.Page(page)
	if pg.V.IsNull() {
		return
	}

	const faceHeight = 13.0
	p.dc.SetRGB(0, 0, 0)
	for _, t := range pg.Content().Text {
		if t.S == "" || t.FontSize <= 0 {
			continue
		}
		x, y := p.device(t.X, t.Y)
		k := t.FontSize * p.sy / faceHeight
		p.dc.Push()
		p.dc.Translate(x, y)
		p.dc.Scale(k, k)
		p.dc.DrawString(t.S, 0, 0)
		p.dc.Pop()
	}
}
