package mcp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StudyBoard/internal/config"
	"StudyBoard/internal/document"
	"StudyBoard/internal/notes"
	"StudyBoard/internal/session"
	"StudyBoard/internal/state"
)

func loadBlank(path string) (document.Provider, error) {
	return document.NewBlank("genetics", 3, 100, 120), nil
}

func newTestServer(t *testing.T) (*Server, *session.Session) {
	t.Helper()
	store, err := notes.Open(t.TempDir())
	require.NoError(t, err)
	s := session.New(session.Options{Notes: store})

	srv, err := NewServer(config.DefaultConfig(), s, loadBlank)
	require.NoError(t, err)
	return srv, s
}

func call(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	for _, content := range result.Content {
		if text, ok := content.(mcp.TextContent); ok {
			return text.Text
		}
	}
	t.Fatal("no text content")
	return ""
}

func draw(t *testing.T, s *session.Session, page int) {
	t.Helper()
	stroke, ok := state.NewStroke([]state.Point{{X: 10, Y: 10}, {X: 40, Y: 50}}, state.ToolPen, state.DefaultToolSettings(), page)
	require.True(t, ok)
	_, ok = s.HandleStrokeComplete(stroke)
	require.True(t, ok)
}

func TestNewServerRequiresSession(t *testing.T) {
	_, err := NewServer(config.DefaultConfig(), nil, nil)
	assert.Error(t, err)
}

func TestListAndOpenNotes(t *testing.T) {
	srv, s := newTestServer(t)
	ctx := context.Background()

	note, err := s.OpenPath("genetics.pdf", loadBlank, notes.SelectAll)
	require.NoError(t, err)
	require.NoError(t, s.Notes().SetLastPage(note.ID, 2))

	result, err := srv.handleListNotes(ctx, call(nil))
	require.NoError(t, err)
	var listed []notes.Note
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, note.ID, listed[0].ID)
	assert.Empty(t, listed[0].Preview, "previews are stripped")

	result, err = srv.handleOpenNote(ctx, call(map[string]any{"id": note.ID}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "genetics (3 pages), resuming at page 2")

	result, err = srv.handleOpenNote(ctx, call(map[string]any{"id": "note-missing"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = srv.handleOpenNote(ctx, call(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestPageStrokes(t *testing.T) {
	srv, s := newTestServer(t)
	ctx := context.Background()

	result, err := srv.handlePageStrokes(ctx, call(map[string]any{"page": float64(1)}))
	require.NoError(t, err)
	assert.True(t, result.IsError, "no note open")

	_, err = s.OpenPath("genetics.pdf", loadBlank, notes.SelectAll)
	require.NoError(t, err)
	draw(t, s, 2)
	draw(t, s, 2)
	draw(t, s, 3)

	result, err = srv.handlePageStrokes(ctx, call(map[string]any{"page": float64(2)}))
	require.NoError(t, err)
	var strokes []state.Stroke
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &strokes))
	assert.Len(t, strokes, 2)

	for _, bad := range []any{float64(0), float64(4), 1.5, "2"} {
		result, err := srv.handlePageStrokes(ctx, call(map[string]any{"page": bad}))
		require.NoError(t, err)
		assert.True(t, result.IsError, "%v", bad)
	}
}

func TestRenderPage(t *testing.T) {
	srv, s := newTestServer(t)
	_, err := s.OpenPath("genetics.pdf", loadBlank, notes.SelectAll)
	require.NoError(t, err)
	draw(t, s, 1)

	result, err := srv.handleRenderPage(context.Background(), call(map[string]any{"page": float64(1)}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var image *mcp.ImageContent
	for _, content := range result.Content {
		if img, ok := content.(mcp.ImageContent); ok {
			image = &img
		}
	}
	require.NotNil(t, image)
	assert.Equal(t, "image/png", image.MIMEType)

	data, err := base64.StdEncoding.DecodeString(image.Data)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())

	_, _, _, a := img.At(50, 60).RGBA()
	assert.NotZero(t, a)
	r, _, _, _ := img.At(50, 60).RGBA()
	assert.Less(t, r, uint32(0x8000), "ink along the stroke")
}

func TestSessionStatus(t *testing.T) {
	srv, s := newTestServer(t)
	ctx := context.Background()

	result, err := srv.handleSessionStatus(ctx, call(nil))
	require.NoError(t, err)
	assert.Equal(t, "No note is open.", resultText(t, result))

	_, err = s.OpenPath("genetics.pdf", loadBlank, notes.SelectAll)
	require.NoError(t, err)
	draw(t, s, 1)

	result, err = srv.handleSessionStatus(ctx, call(nil))
	require.NoError(t, err)
	text := resultText(t, result)
	assert.Contains(t, text, "Note: genetics")
	assert.Contains(t, text, "Page: 1 of 3")
	assert.Contains(t, text, "Tool: PEN")
	assert.Contains(t, text, "Total strokes: 1")
}
