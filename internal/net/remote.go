// Package net serves the remote canvas: a tablet or browser on the local
// network acting as the pen for the open session.
package net

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"StudyBoard/internal/capture"
	"StudyBoard/internal/document"
	"StudyBoard/internal/session"
	"StudyBoard/internal/state"
)

// ErrSessionTaken is returned when a second remote tries to connect.
var ErrSessionTaken = errors.New("remote canvas already in use")

const writeWait = 10 * time.Second

// Event is a message from the remote. X and Y are relative to the page's
// top-left corner in pixels at the session zoom.
type Event struct {
	Type    string             `json:"type"`
	Page    int                `json:"page,omitempty"`
	X       float64            `json:"x,omitempty"`
	Y       float64            `json:"y,omitempty"`
	Touches []capture.Position `json:"touches,omitempty"`
	Tool    state.ToolType     `json:"tool,omitempty"`
	Zoom    float64            `json:"zoom,omitempty"`
	Text    string             `json:"text,omitempty"`
}

// Update is a message to the remote.
type Update struct {
	Type       string            `json:"type"`
	Name       string            `json:"name,omitempty"`
	Page       int               `json:"page,omitempty"`
	TotalPages int               `json:"totalPages,omitempty"`
	Tool       state.ToolType    `json:"tool,omitempty"`
	Zoom       float64           `json:"zoom,omitempty"`
	Stroke     *state.Stroke     `json:"stroke,omitempty"`
	Strokes    []state.Stroke    `json:"strokes,omitempty"`
	Messages   []session.Message `json:"messages,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// peer is the one connected remote.
type peer struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (p *peer) send(u Update) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return p.conn.WriteJSON(u)
}

// RemoteServer exposes the session over HTTP and a websocket. It accepts a
// single remote at a time.
type RemoteServer struct {
	session  *session.Session
	upgrader websocket.Upgrader

	mu       sync.Mutex
	active   *peer
	captures map[int]*capture.Capture
}

// NewRemoteServer creates the server and subscribes to the session so the
// remote sees committed strokes, page changes and chat.
func NewRemoteServer(s *session.Session) *RemoteServer {
	r := &RemoteServer{
		session:  s,
		captures: map[int]*capture.Capture{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	s.OnStroke(func(st state.Stroke) { r.broadcast(Update{Type: "stroke", Stroke: &st}) })
	s.Viewport().OnPageChange(func(page int) { r.broadcast(Update{Type: "page", Page: page}) })
	s.Viewport().OnZoomChange(func(z float64) { r.broadcast(Update{Type: "zoom", Zoom: z}) })
	s.OnMessages(func(msgs []session.Message) { r.broadcast(Update{Type: "messages", Messages: msgs}) })
	s.OnError(func(err error) { r.broadcast(Update{Type: "error", Error: err.Error()}) })
	return r
}

// Handler returns the HTTP routes of the remote canvas.
func (r *RemoteServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", r.handleWS)
	mux.HandleFunc("GET /pages/{file}", r.handlePage)
	mux.HandleFunc("GET /status", r.handleStatus)
	return mux
}

// ListenAndServe serves on addr until ctx is done.
func (r *RemoteServer) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: r.Handler()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[REMOTE] Listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Connected reports whether a remote is attached.
func (r *RemoteServer) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active != nil
}

func (r *RemoteServer) handleWS(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	if r.active != nil {
		r.mu.Unlock()
		http.Error(w, ErrSessionTaken.Error(), http.StatusConflict)
		return
	}
	// reserve the slot before upgrading so a racing second client is refused
	p := &peer{}
	r.active = p
	r.mu.Unlock()

	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Printf("[REMOTE] Upgrade failed: %v", err)
		r.release(p)
		return
	}
	p.mu.Lock()
	p.conn = conn
	p.mu.Unlock()
	log.Printf("[REMOTE] Remote connected from %s", conn.RemoteAddr())

	defer func() {
		conn.Close()
		r.release(p)
		log.Printf("[REMOTE] Remote from %s disconnected", conn.RemoteAddr())
	}()

	if err := p.send(r.hello()); err != nil {
		return
	}
	for {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[REMOTE] Read failed: %v", err)
			}
			return
		}
		if err := r.handleEvent(req.Context(), ev); err != nil {
			p.send(Update{Type: "error", Error: err.Error()})
		}
	}
}

func (r *RemoteServer) release(p *peer) {
	r.mu.Lock()
	if r.active == p {
		r.active = nil
	}
	captures := r.captures
	r.captures = map[int]*capture.Capture{}
	r.mu.Unlock()

	for _, c := range captures {
		c.Cancel()
	}
}

func (r *RemoteServer) hello() Update {
	u := Update{
		Type:    "hello",
		Page:    r.session.Viewport().CurrentPage(),
		Tool:    r.session.Tool(),
		Zoom:    r.session.Viewport().Zoom(),
		Strokes: r.session.Strokes(),
	}
	if doc := r.session.Document(); doc != nil {
		u.Name = doc.Name()
		u.TotalPages = doc.TotalPages()
	}
	return u
}

func (r *RemoteServer) handleEvent(ctx context.Context, ev Event) error {
	switch ev.Type {
	case "down", "move", "up", "leave":
		c, ok := r.capture(ev.Page)
		if !ok {
			return nil
		}
		pointer(c, ev)
	case "tool":
		if !ev.Tool.Valid() {
			return fmt.Errorf("unknown tool %q", ev.Tool)
		}
		r.session.SelectTool(ev.Tool)
		r.mu.Lock()
		for _, c := range r.captures {
			c.SetTool(ev.Tool)
		}
		r.mu.Unlock()
	case "zoom":
		r.session.Viewport().SetZoom(ev.Zoom)
	case "page":
		r.session.Viewport().JumpToPage(ev.Page)
	case "chat":
		go func() {
			if err := r.session.SendMessage(context.WithoutCancel(ctx), ev.Text); err != nil {
				r.broadcast(Update{Type: "error", Error: err.Error()})
			}
		}()
	default:
		return fmt.Errorf("unknown event %q", ev.Type)
	}
	return nil
}

func pointer(c *capture.Capture, ev Event) {
	pos := capture.Position{X: ev.X, Y: ev.Y}
	switch ev.Type {
	case "down":
		if len(ev.Touches) > 0 {
			c.PressTouch(ev.Touches)
		} else {
			c.Press(pos)
		}
	case "move":
		if len(ev.Touches) > 0 {
			c.MoveTouch(ev.Touches)
		} else {
			c.Move(pos)
		}
	case "up":
		c.Release()
	case "leave":
		c.Leave()
	}
}

// capture returns the input machine for page, creating it on first use. The
// remote draws with its page's top-left corner as origin; commits go through
// the session like any other stroke.
func (r *RemoteServer) capture(page int) (*capture.Capture, bool) {
	doc := r.session.Document()
	if doc == nil || page < 1 || page > doc.TotalPages() {
		return nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.captures[page]; ok {
		return c, true
	}
	c := capture.New(capture.Options{
		Settings: r.session.Settings(),
		Surface:  func() (float64, float64, bool) { return 0, 0, true },
		Scale:    r.session.Viewport().Zoom,
		Page:     func() int { return page },
	})
	c.SetTool(r.session.Tool())
	c.OnCommit = func(st state.Stroke) { r.session.HandleStrokeComplete(st) }
	r.captures[page] = c
	return c, true
}

func (r *RemoteServer) broadcast(u Update) {
	r.mu.Lock()
	p := r.active
	r.mu.Unlock()
	if p == nil {
		return
	}
	p.mu.Lock()
	ready := p.conn != nil
	p.mu.Unlock()
	if !ready {
		return
	}
	if err := p.send(u); err != nil {
		log.Printf("[REMOTE] Send %s failed: %v", u.Type, err)
	}
}

func (r *RemoteServer) handlePage(w http.ResponseWriter, req *http.Request) {
	file := req.PathValue("file")
	n, err := strconv.Atoi(strings.TrimSuffix(file, ".png"))
	if err != nil || !strings.HasSuffix(file, ".png") {
		http.Error(w, "bad page", http.StatusBadRequest)
		return
	}

	frame, err := r.session.Frame(n)
	switch {
	case errors.Is(err, document.ErrPageOutOfRange):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, session.ErrNoDocument):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := png.Encode(w, frame); err != nil {
		log.Printf("[REMOTE] Failed to encode page %d: %v", n, err)
	}
}

func (r *RemoteServer) handleStatus(w http.ResponseWriter, _ *http.Request) {
	status := r.hello()
	status.Type = "status"
	status.Strokes = nil
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}
