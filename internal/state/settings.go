package state

import (
	"sync"
)

const (
	// AIPenColor and AIPenWidth are fixed and not user configurable.
	AIPenColor = "#8b5cf6"
	AIPenWidth = 3.0

	// EraserColor is only a placeholder; erasing ignores color.
	EraserColor = "rgba(0,0,0,1)"

	DefaultPenColor         = "#000000"
	DefaultPenWidth         = 2.0
	DefaultHighlighterColor = "rgba(255, 235, 59, 0.4)"
	DefaultHighlighterWidth = 15.0
	DefaultEraserWidth      = 30.0
)

// ToolSettings are the user configurable stroke defaults.
type ToolSettings struct {
	PenColor         string  `json:"pen_color"`
	PenWidth         float64 `json:"pen_width"`
	HighlighterColor string  `json:"highlighter_color"`
	HighlighterWidth float64 `json:"highlighter_width"`
	EraserWidth      float64 `json:"eraser_width"`
}

// DefaultToolSettings returns the settings a fresh session starts with.
func DefaultToolSettings() ToolSettings {
	return ToolSettings{
		PenColor:         DefaultPenColor,
		PenWidth:         DefaultPenWidth,
		HighlighterColor: DefaultHighlighterColor,
		HighlighterWidth: DefaultHighlighterWidth,
		EraserWidth:      DefaultEraserWidth,
	}
}

// Resolve returns the color and width a stroke of the given tool takes.
func (s ToolSettings) Resolve(tool ToolType) (string, float64) {
	switch tool {
	case ToolPen:
		return s.PenColor, s.PenWidth
	case ToolHighlighter:
		return s.HighlighterColor, s.HighlighterWidth
	case ToolAIPen:
		return AIPenColor, AIPenWidth
	case ToolEraser:
		return EraserColor, s.EraserWidth
	default:
		return DefaultPenColor, DefaultPenWidth
	}
}

// SettingsStore holds the live tool settings. Readers always call Get at
// paint or commit time so a change is never missed.
type SettingsStore struct {
	mu        sync.RWMutex
	current   ToolSettings
	listeners []func(ToolSettings)
}

// NewSettingsStore creates a store seeded with initial.
func NewSettingsStore(initial ToolSettings) *SettingsStore {
	return &SettingsStore{current: initial}
}

// Get returns a copy of the current settings.
func (s *SettingsStore) Get() ToolSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update applies fn to the settings and notifies listeners if anything changed.
func (s *SettingsStore) Update(fn func(*ToolSettings)) {
	s.mu.Lock()
	next := s.current
	fn(&next)
	changed := next != s.current
	s.current = next
	listeners := append([]func(ToolSettings){}, s.listeners...)
	s.mu.Unlock()

	if !changed {
		return
	}
	for _, l := range listeners {
		l(next)
	}
}

// OnChange registers a listener called after every effective change.
func (s *SettingsStore) OnChange(fn func(ToolSettings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}
