// Package session runs one study session: the open document, its ink, the
// chat with the tutor and the end-of-session report.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"StudyBoard/internal/document"
	"StudyBoard/internal/notes"
	"StudyBoard/internal/state"
	"StudyBoard/internal/tutor"
	"StudyBoard/internal/viewport"
)

var (
	ErrBusy       = errors.New("session is waiting for the tutor")
	ErrNoDocument = errors.New("no document is open")
)

// Role is who wrote a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one chat entry.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Options configures a session. Every field is optional.
type Options struct {
	Tutor    tutor.Tutor
	Notes    *notes.Store
	Settings *state.SettingsStore
	Recorder Recorder
}

// Session is the orchestrator every front end drives. The stroke log is
// only written from HandleStrokeComplete, which the canvases' captures call
// on commit.
type Session struct {
	tutor    tutor.Tutor
	notes    *notes.Store
	settings *state.SettingsStore
	recorder Recorder
	log      *state.StrokeLog
	viewport *viewport.Controller

	mu         sync.Mutex
	doc        document.Provider
	note       notes.Note
	canvases   map[int]*Canvas
	tool       state.ToolType
	messages   []Message
	transcript []string
	brief      string
	recording  bool
	inflight   int
	reporting  bool
	lastErr    error
	ctx        context.Context
	cancel     context.CancelFunc
	jobs       *sync.WaitGroup

	onMessages []func([]Message)
	onStroke   []func(state.Stroke)
	onError    []func(error)
}

// New creates a session with no document open.
func New(opts Options) *Session {
	if opts.Tutor == nil {
		opts.Tutor = tutor.Noop{}
	}
	if opts.Settings == nil {
		opts.Settings = state.NewSettingsStore(state.DefaultToolSettings())
	}
	if opts.Recorder == nil {
		opts.Recorder = NoopRecorder{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		tutor:    opts.Tutor,
		notes:    opts.Notes,
		settings: opts.Settings,
		recorder: opts.Recorder,
		log:      state.NewStrokeLog(),
		viewport: viewport.NewController(),
		canvases: map[int]*Canvas{},
		tool:     state.ToolPen,
		ctx:      ctx,
		cancel:   cancel,
		jobs:     &sync.WaitGroup{},
	}

	s.log.OnChange(func() { s.Redraw() })
	s.settings.OnChange(func(state.ToolSettings) { s.Redraw() })
	s.viewport.OnZoomChange(func(float64) { s.resizeAll() })
	return s
}

// Open starts a session on note with doc as its pages. Strokes, chat and
// transcript are reset and the viewport resumes at the note's last page.
func (s *Session) Open(note notes.Note, doc document.Provider) error {
	if note.Deleted {
		return notes.ErrDeleted
	}
	if doc == nil || doc.TotalPages() < 1 {
		return ErrNoDocument
	}

	pages := make([]viewport.PageSize, 0, doc.TotalPages())
	for n := 1; n <= doc.TotalPages(); n++ {
		w, h, err := doc.PageSize(n)
		if err != nil {
			return fmt.Errorf("failed to lay out page %d: %w", n, err)
		}
		pages = append(pages, viewport.PageSize{Width: w, Height: h})
	}

	s.stopJobs()

	s.mu.Lock()
	old := s.canvases
	oldDoc := s.doc
	s.canvases = map[int]*Canvas{}
	s.doc = doc
	s.note = note
	s.transcript = nil
	s.brief = ""
	s.lastErr = nil
	s.messages = []Message{newMessage(RoleAssistant, fmt.Sprintf("Starting \"%s\".", note.Name))}
	s.mu.Unlock()

	for _, c := range old {
		c.capture.Cancel()
	}
	if oldDoc != nil && oldDoc != doc {
		if err := oldDoc.Close(); err != nil {
			log.Printf("[SESSION] Failed to close %s: %v", oldDoc.Name(), err)
		}
	}
	s.log.Reset()
	s.viewport.SetPages(pages)
	if note.LastPage > 1 {
		s.viewport.JumpToPage(note.LastPage)
	}

	log.Printf("[SESSION] Opened %s (%d pages)", doc.Name(), doc.TotalPages())
	s.emitMessages()
	return nil
}

// Close cancels any stroke in progress, waits for tutor requests, stops
// recording and remembers the page the note was left on.
func (s *Session) Close() error {
	s.mu.Lock()
	canvases := s.canvasList()
	note := s.note
	s.mu.Unlock()

	for _, c := range canvases {
		c.capture.Cancel()
	}
	s.stopRecording(false)
	s.stopJobs()

	if s.notes == nil || note.ID == "" {
		return nil
	}
	page := s.viewport.CurrentPage()
	if err := s.notes.SetLastPage(note.ID, page); err != nil {
		return fmt.Errorf("failed to store last page: %w", err)
	}
	log.Printf("[SESSION] Closed %s on page %d", note.Name, page)
	return nil
}

// stopJobs cancels the tutor requests of the current generation and waits
// for them. Requests begun meanwhile join the next generation.
func (s *Session) stopJobs() {
	s.mu.Lock()
	cancel, jobs := s.cancel, s.jobs
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.jobs = &sync.WaitGroup{}
	s.mu.Unlock()

	cancel()
	jobs.Wait()
}

// Wait blocks until every tutor request of the current generation finishes.
func (s *Session) Wait() {
	s.mu.Lock()
	jobs := s.jobs
	s.mu.Unlock()
	jobs.Wait()
}

// Canvas returns the canvas of page n, creating it on first use.
func (s *Session) Canvas(n int) (*Canvas, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil || n < 1 || n > s.doc.TotalPages() {
		return nil, false
	}
	c, ok := s.canvases[n]
	if !ok {
		c = newCanvas(s, n, s.tool)
		s.canvases[n] = c
	}
	return c, true
}

// canvasList must be called with s.mu held.
func (s *Session) canvasList() []*Canvas {
	out := make([]*Canvas, 0, len(s.canvases))
	for _, c := range s.canvases {
		out = append(out, c)
	}
	return out
}

// Redraw repaints every mounted canvas from stroke data.
func (s *Session) Redraw() {
	s.mu.Lock()
	canvases := s.canvasList()
	s.mu.Unlock()
	for _, c := range canvases {
		c.Redraw()
	}
}

func (s *Session) resizeAll() {
	s.mu.Lock()
	canvases := s.canvasList()
	s.mu.Unlock()
	for _, c := range canvases {
		c.Resize()
	}
}

// HandleStrokeComplete appends a committed stroke to the log. An AI pen
// stroke also asks the tutor about the region it marks.
func (s *Session) HandleStrokeComplete(stroke state.Stroke) (state.Stroke, bool) {
	committed, ok := s.log.Append(stroke)
	if !ok {
		return state.Stroke{}, false
	}

	s.mu.Lock()
	listeners := append([]func(state.Stroke){}, s.onStroke...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(committed)
	}

	if committed.Type == state.ToolAIPen {
		s.explainRegion(committed)
	}
	return committed, true
}

// SelectTool switches the active tool on every canvas. Selecting the AI pen
// starts recording; any other tool stops it.
func (s *Session) SelectTool(tool state.ToolType) {
	if !tool.Valid() {
		return
	}
	s.mu.Lock()
	if s.tool == tool {
		s.mu.Unlock()
		return
	}
	s.tool = tool
	canvases := s.canvasList()
	s.mu.Unlock()

	for _, c := range canvases {
		c.capture.SetTool(tool)
	}
	if tool == state.ToolAIPen {
		s.startRecording()
	} else {
		s.stopRecording(true)
	}
}

// Tool returns the active tool.
func (s *Session) Tool() state.ToolType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tool
}

// Strokes returns a snapshot of the stroke log.
func (s *Session) Strokes() []state.Stroke { return s.log.All() }

// StrokeLog exposes the log for readers.
func (s *Session) StrokeLog() *state.StrokeLog { return s.log }

// Viewport returns the page viewport controller.
func (s *Session) Viewport() *viewport.Controller { return s.viewport }

// Settings returns the live tool settings.
func (s *Session) Settings() *state.SettingsStore { return s.settings }

// Notes returns the note store, which may be nil.
func (s *Session) Notes() *notes.Store { return s.notes }

// Document returns the open document, or nil.
func (s *Session) Document() document.Provider {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Note returns the metadata of the open note.
func (s *Session) Note() notes.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.note
}

// Messages returns the chat transcript.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// Busy reports whether a tutor request is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight > 0
}

// LastError returns the last collaborator failure, or nil.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// OnMessages registers fn to receive the chat after every change.
func (s *Session) OnMessages(fn func([]Message)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onMessages = append(s.onMessages, fn)
}

// OnStroke registers fn to receive every committed stroke.
func (s *Session) OnStroke(fn func(state.Stroke)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStroke = append(s.onStroke, fn)
}

// OnError registers fn to receive collaborator failures.
func (s *Session) OnError(fn func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = append(s.onError, fn)
}

func newMessage(role Role, content string) Message {
	return Message{ID: uuid.NewString(), Role: role, Content: content, Timestamp: time.Now()}
}

func (s *Session) addMessage(role Role, content string) {
	s.mu.Lock()
	s.messages = append(s.messages, newMessage(role, content))
	s.mu.Unlock()
	s.emitMessages()
}

func (s *Session) emitMessages() {
	s.mu.Lock()
	msgs := append([]Message(nil), s.messages...)
	listeners := append([]func([]Message){}, s.onMessages...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(msgs)
	}
}

func (s *Session) fail(what string, err error) {
	err = fmt.Errorf("%s: %w", what, err)
	log.Printf("[SESSION] %v", err)

	s.mu.Lock()
	s.lastErr = err
	listeners := append([]func(error){}, s.onError...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(err)
	}
}
