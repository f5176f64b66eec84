package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StudyBoard/internal/document"
	"StudyBoard/internal/state"
)

func strokes() []state.Stroke {
	return []state.Stroke{
		{Type: state.ToolPen, Color: "#ff0000", Width: 2, Page: 1, Points: []state.Point{{X: 10, Y: 10}, {X: 90, Y: 90}}},
		{Type: state.ToolHighlighter, Color: state.DefaultHighlighterColor, Width: 15, Page: 2, Points: []state.Point{{X: 10, Y: 50}, {X: 140, Y: 50}}},
	}
}

func TestExportPDFKeepsPageCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pdf")
	doc := document.NewBlank("lecture", 2, 150, 100)

	require.NoError(t, ExportPDF(path, doc, strokes()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	count, err := api.PageCount(f, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestWritePDFRejectsEmptyDocument(t *testing.T) {
	var buf bytes.Buffer
	err := WritePDF(&buf, document.NewBlank("empty", 0, 10, 10), nil)
	assert.ErrorIs(t, err, document.ErrPageOutOfRange)
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, "lecture", strokes()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "lecture\n"))
	assert.Contains(t, out, "Total strokes: 2")
	assert.Contains(t, out, "Tool: HIGHLIGHTER")
	assert.Contains(t, out, "End: (140.00, 50.00)")
}
