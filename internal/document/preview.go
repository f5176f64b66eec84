package document

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// PreviewScale is the size of a dashboard thumbnail relative to the page
// in points.
const PreviewScale = 0.5

// Preview renders page 1 of p as a PNG thumbnail.
func Preview(p Provider) ([]byte, error) {
	if p.TotalPages() < 1 {
		return nil, checkPage(1, 0)
	}
	w, h, err := p.PageSize(1)
	if err != nil {
		return nil, err
	}
	page, err := p.PageImage(1)
	if err != nil {
		return nil, err
	}

	thumb := Scale(page, int(w*PreviewScale), int(h*PreviewScale))

	var buf bytes.Buffer
	if err := png.Encode(&buf, thumb); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

// PreviewDataURL is Preview encoded as a data URL, the form note metadata
// keeps it in.
func PreviewDataURL(p Provider) (string, error) {
	data, err := Preview(p)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// Scale resamples img to width x height.
func Scale(img image.Image, width, height int) *image.RGBA {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(out, out.Bounds(), img, img.Bounds(), draw.Src, nil)
	return out
}
