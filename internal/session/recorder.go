package session

import (
	"context"
	"log"
	"strings"
	"unicode/utf8"
)

// Recorder is a speech-to-text source. Start delivers every final
// recognition result to onFinal until Stop is called.
type Recorder interface {
	Start(onFinal func(text string)) error
	Stop() error
}

// NoopRecorder records nothing.
type NoopRecorder struct{}

func (NoopRecorder) Start(func(string)) error { return nil }
func (NoopRecorder) Stop() error              { return nil }

// Recording reports whether speech is being captured.
func (s *Session) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording
}

// Transcript returns the final speech results so far.
func (s *Session) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.transcript, "")
}

// BriefSummary returns the short summary made when recording last stopped.
func (s *Session) BriefSummary() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.brief
}

// AddTranscript appends a final recognition result.
func (s *Session) AddTranscript(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	s.mu.Lock()
	s.transcript = append(s.transcript, text+" ")
	s.mu.Unlock()
}

func (s *Session) startRecording() {
	s.mu.Lock()
	if s.recording {
		s.mu.Unlock()
		return
	}
	s.recording = true
	s.mu.Unlock()

	if err := s.recorder.Start(s.AddTranscript); err != nil {
		log.Printf("[SESSION] Recording unavailable: %v", err)
		s.mu.Lock()
		s.recording = false
		s.mu.Unlock()
	}
}

// stopRecording stops speech capture. With summarize set, the transcript is
// condensed into BriefSummary in the background.
func (s *Session) stopRecording(summarize bool) {
	s.mu.Lock()
	if !s.recording {
		s.mu.Unlock()
		return
	}
	s.recording = false
	transcript := strings.Join(s.transcript, "")
	s.mu.Unlock()

	if err := s.recorder.Stop(); err != nil {
		log.Printf("[SESSION] Failed to stop recording: %v", err)
	}
	if !summarize || strings.TrimSpace(transcript) == "" {
		return
	}

	ctx, end, _ := s.begin(false)
	go func() {
		defer end()
		s.summarizeTranscript(ctx, transcript)
	}()
}

func (s *Session) summarizeTranscript(ctx context.Context, transcript string) {
	answer, err := s.tutor.Explain(ctx, "Speech summary", "Study context", "Summarize in one line: "+transcript)
	if err != nil {
		log.Printf("[SESSION] Brief summary failed: %v", err)
		return
	}
	s.mu.Lock()
	s.brief = truncateRunes(answer, briefRunes)
	s.mu.Unlock()
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
