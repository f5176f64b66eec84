package net

import (
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StudyBoard/internal/document"
	"StudyBoard/internal/notes"
	"StudyBoard/internal/session"
	"StudyBoard/internal/state"
)

func newRemote(t *testing.T, open bool) (*session.Session, *httptest.Server) {
	t.Helper()
	s := session.New(session.Options{})
	if open {
		doc := document.NewBlank("cells", 2, 100, 100)
		require.NoError(t, s.Open(notes.Note{ID: "note-1", Name: "cells", LastPage: 1}, doc))
	}
	srv := httptest.NewServer(NewRemoteServer(s).Handler())
	t.Cleanup(srv.Close)
	return s, srv
}

func dial(t *testing.T, srv *httptest.Server) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	return websocket.DefaultDialer.Dial(url, nil)
}

func readUpdate(t *testing.T, conn *websocket.Conn, kind string) Update {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var u Update
		require.NoError(t, conn.ReadJSON(&u))
		if u.Type == kind {
			return u
		}
	}
}

func TestRemoteHello(t *testing.T) {
	_, srv := newRemote(t, true)
	conn, _, err := dial(t, srv)
	require.NoError(t, err)
	defer conn.Close()

	hello := readUpdate(t, conn, "hello")
	assert.Equal(t, "cells", hello.Name)
	assert.Equal(t, 2, hello.TotalPages)
	assert.Equal(t, 1, hello.Page)
	assert.Equal(t, state.ToolPen, hello.Tool)
	assert.Empty(t, hello.Strokes)
}

func TestRemoteStrokeCommitsThroughSession(t *testing.T) {
	s, srv := newRemote(t, true)
	conn, _, err := dial(t, srv)
	require.NoError(t, err)
	defer conn.Close()
	readUpdate(t, conn, "hello")

	for _, ev := range []Event{
		{Type: "down", Page: 2, X: 10, Y: 10},
		{Type: "move", Page: 2, X: 30, Y: 40},
		{Type: "move", Page: 2, X: 50, Y: 60},
		{Type: "up", Page: 2},
	} {
		require.NoError(t, conn.WriteJSON(ev))
	}

	u := readUpdate(t, conn, "stroke")
	require.NotNil(t, u.Stroke)
	assert.Equal(t, 2, u.Stroke.Page)
	assert.Len(t, u.Stroke.Points, 3)

	strokes := s.Strokes()
	require.Len(t, strokes, 1)
	assert.Equal(t, u.Stroke.ID, strokes[0].ID)
}

func TestRemoteTouchStrokeAndOutOfRangePage(t *testing.T) {
	s, srv := newRemote(t, true)
	conn, _, err := dial(t, srv)
	require.NoError(t, err)
	defer conn.Close()
	readUpdate(t, conn, "hello")

	// page 9 does not exist and is ignored
	require.NoError(t, conn.WriteJSON(Event{Type: "down", Page: 9, X: 1, Y: 1}))
	require.NoError(t, conn.WriteJSON(Event{Type: "up", Page: 9}))

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "down", "page": 1, "touches": []map[string]float64{{"x": 5, "y": 5}}}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "move", "page": 1, "touches": []map[string]float64{{"x": 20, "y": 20}}}))
	require.NoError(t, conn.WriteJSON(Event{Type: "leave", Page: 1}))

	u := readUpdate(t, conn, "stroke")
	assert.Equal(t, 1, u.Stroke.Page)
	assert.Len(t, s.Strokes(), 1)
}

func TestRemoteToolAndPage(t *testing.T) {
	s, srv := newRemote(t, true)
	conn, _, err := dial(t, srv)
	require.NoError(t, err)
	defer conn.Close()
	readUpdate(t, conn, "hello")

	require.NoError(t, conn.WriteJSON(Event{Type: "tool", Tool: state.ToolHighlighter}))
	require.NoError(t, conn.WriteJSON(Event{Type: "page", Page: 2}))

	u := readUpdate(t, conn, "page")
	assert.Equal(t, 2, u.Page)
	assert.Equal(t, state.ToolHighlighter, s.Tool())

	require.NoError(t, conn.WriteJSON(Event{Type: "tool", Tool: "laser"}))
	errUpdate := readUpdate(t, conn, "error")
	assert.Contains(t, errUpdate.Error, "laser")
	assert.Equal(t, state.ToolHighlighter, s.Tool())
}

func TestRemoteSecondClientRefused(t *testing.T) {
	_, srv := newRemote(t, true)
	first, _, err := dial(t, srv)
	require.NoError(t, err)
	defer first.Close()
	readUpdate(t, first, "hello")

	_, resp, err := dial(t, srv)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	first.Close()
	require.Eventually(t, func() bool {
		conn, _, err := dial(t, srv)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 2*time.Second, 20*time.Millisecond)
}

func TestRemotePageImage(t *testing.T) {
	_, srv := newRemote(t, true)

	resp, err := http.Get(srv.URL + "/pages/1.png")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())

	for path, code := range map[string]int{
		"/pages/3.png":   http.StatusNotFound,
		"/pages/one.png": http.StatusBadRequest,
		"/pages/1.jpg":   http.StatusBadRequest,
	} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, code, resp.StatusCode, path)
	}
}

func TestRemoteNoDocument(t *testing.T) {
	_, srv := newRemote(t, false)

	resp, err := http.Get(srv.URL + "/pages/1.png")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	var status Update
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "status", status.Type)
	assert.Zero(t, status.TotalPages)
}
