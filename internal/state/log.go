package state

import (
	"encoding/json"
	"log"
	"sync"
)

// StrokeLog is the committed stroke collection of one session. It is append
// only while drawing; the only removal is Reset when another note is opened.
type StrokeLog struct {
	strokes   []Stroke
	listeners []func()
	mu        sync.RWMutex
}

// NewStrokeLog creates an empty log.
func NewStrokeLog() *StrokeLog {
	return &StrokeLog{strokes: make([]Stroke, 0)}
}

// Append commits s to the end of the log and returns the stored copy with
// its id and timestamp filled in. Strokes with fewer than two points are
// refused.
func (l *StrokeLog) Append(s Stroke) (Stroke, bool) {
	if len(s.Points) < MinStrokePoints {
		log.Printf("[STROKES] Refusing stroke with %d points", len(s.Points))
		return Stroke{}, false
	}

	l.mu.Lock()
	s = s.Clone()
	stamp(&s)
	l.strokes = append(l.strokes, s)
	listeners := append([]func(){}, l.listeners...)
	l.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
	return s.Clone(), true
}

// All returns a snapshot of every stroke in commit order.
func (l *StrokeLog) All() []Stroke {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Stroke, len(l.strokes))
	for i, s := range l.strokes {
		out[i] = s.Clone()
	}
	return out
}

// OnPage returns a snapshot of the strokes on page, in commit order.
func (l *StrokeLog) OnPage(page int) []Stroke {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Stroke, 0)
	for _, s := range l.strokes {
		if s.Page == page {
			out = append(out, s.Clone())
		}
	}
	return out
}

// Len returns the number of committed strokes.
func (l *StrokeLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.strokes)
}

// Reset drops every stroke. Only the session calls this when a note is opened.
func (l *StrokeLog) Reset() {
	l.mu.Lock()
	l.strokes = make([]Stroke, 0)
	listeners := append([]func(){}, l.listeners...)
	l.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// OnChange registers fn to be called after every append or reset.
func (l *StrokeLog) OnChange(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
}

// MarshalJSON encodes the strokes as a JSON array.
func (l *StrokeLog) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.All())
}

// Load replaces the log with previously saved strokes, keeping their order.
// Entries that are too short are skipped.
func (l *StrokeLog) Load(data []byte) error {
	var loaded []Stroke
	if err := json.Unmarshal(data, &loaded); err != nil {
		return err
	}

	kept := make([]Stroke, 0, len(loaded))
	for _, s := range loaded {
		if len(s.Points) < MinStrokePoints {
			continue
		}
		kept = append(kept, s)
	}

	l.mu.Lock()
	l.strokes = kept
	listeners := append([]func(){}, l.listeners...)
	l.mu.Unlock()

	log.Printf("[STROKES] Loaded %d strokes (%d skipped)", len(kept), len(loaded)-len(kept))
	for _, fn := range listeners {
		fn()
	}
	return nil
}
