package document

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.Black)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestBlankDocument(t *testing.T) {
	doc := NewBlank("lecture", 3, 300, 400)
	doc.SetText(2, "photosynthesis")

	assert.Equal(t, 3, doc.TotalPages())
	w, h, err := doc.PageSize(2)
	require.NoError(t, err)
	assert.Equal(t, 300.0, w)
	assert.Equal(t, 400.0, h)

	img, err := doc.PageImage(1)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 600, 800), img.Bounds())

	text, err := doc.PageText(2)
	require.NoError(t, err)
	assert.Equal(t, "photosynthesis", text)

	for _, n := range []int{0, 4, -1} {
		_, err := doc.PageImage(n)
		assert.True(t, errors.Is(err, ErrPageOutOfRange), "page %d", n)
	}
}

func TestImageDirOrdersPagesByName(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "page-02.png"), 200, 100)
	writePNG(t, filepath.Join(dir, "page-01.png"), 400, 600)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))

	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 50, 50))))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page-03.bmp"), buf.Bytes(), 0o644))

	doc, err := OpenImageDir(dir)
	require.NoError(t, err)
	defer doc.Close()

	assert.Equal(t, 3, doc.TotalPages())
	w, h, err := doc.PageSize(1)
	require.NoError(t, err)
	assert.Equal(t, 200.0, w)
	assert.Equal(t, 300.0, h)

	img, err := doc.PageImage(3)
	require.NoError(t, err)
	assert.Equal(t, 50, img.Bounds().Dx())

	text, err := doc.PageText(1)
	require.NoError(t, err)
	assert.Empty(t, text)

	_, err = doc.PageImage(4)
	assert.ErrorIs(t, err, ErrPageOutOfRange)
}

func TestImageDirRejectsEmptyDirectory(t *testing.T) {
	_, err := OpenImageDir(t.TempDir())
	assert.Error(t, err)
}

func TestPreviewIsHalfScale(t *testing.T) {
	data, err := Preview(NewBlank("doc", 1, 200, 100))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 50), img.Bounds())

	url, err := PreviewDataURL(NewBlank("doc", 1, 200, 100))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))

	_, err = Preview(NewBlank("empty", 0, 10, 10))
	assert.ErrorIs(t, err, ErrPageOutOfRange)
}

func writePDF(t *testing.T, path string) {
	t.Helper()
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetFont("Helvetica", "", 14)
	pdf.AddPage()
	pdf.Text(72, 72, "Cell biology")
	pdf.AddPage()
	pdf.Text(72, 72, "Mitochondria")
	require.NoError(t, pdf.OutputFileAndClose(path))
}

func TestOpenPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "biology.pdf")
	writePDF(t, path)

	var rendered []int
	raster := RasterizerFunc(func(_ string, page, w, h int) (image.Image, error) {
		rendered = append(rendered, page)
		return image.NewRGBA(image.Rect(0, 0, w, h)), nil
	})

	provider, err := Open(path, raster)
	require.NoError(t, err)
	defer provider.Close()

	assert.Equal(t, "biology", provider.Name())
	assert.Equal(t, 2, provider.TotalPages())

	w, h, err := provider.PageSize(1)
	require.NoError(t, err)
	assert.InDelta(t, 595.28, w, 1)
	assert.InDelta(t, 841.89, h, 1)

	img, err := provider.PageImage(2)
	require.NoError(t, err)
	assert.Equal(t, int(w*RenderScale), img.Bounds().Dx())
	assert.Equal(t, []int{2}, rendered)

	text, err := provider.PageText(2)
	require.NoError(t, err)
	assert.Contains(t, text, "Mitochondria")

	_, err = provider.PageText(3)
	assert.ErrorIs(t, err, ErrPageOutOfRange)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.pdf"), nil)
	assert.Error(t, err)
}
