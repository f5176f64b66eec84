package render

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Compose lays overlay on top of background. The background is scaled to
// the overlay's size; a nil background is treated as a white page.
func Compose(background image.Image, overlay image.Image) *image.RGBA {
	bounds := overlay.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	if background == nil {
		draw.Draw(out, out.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	} else {
		draw.CatmullRom.Scale(out, out.Bounds(), background, background.Bounds(), draw.Src, nil)
	}
	draw.Draw(out, out.Bounds(), overlay, bounds.Min, draw.Over)
	return out
}

// Crop copies the part of img inside rect, clamped to the image bounds.
func Crop(img image.Image, rect image.Rectangle) *image.RGBA {
	rect = rect.Intersect(img.Bounds())
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	if rect.Empty() {
		return out
	}
	draw.Draw(out, out.Bounds(), img, rect.Min, draw.Src)
	return out
}
