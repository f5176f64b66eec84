package session

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"StudyBoard/internal/document"
	"StudyBoard/internal/notes"
)

// Loader opens the document stored at path.
type Loader func(path string) (document.Provider, error)

// OpenPath opens the document at path. A note already pointing at the same
// file is reused; otherwise a new note with a preview is filed under
// selection.
func (s *Session) OpenPath(path string, load Loader, selection string) (notes.Note, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	doc, err := load(abs)
	if err != nil {
		s.fail("failed to load document", err)
		return notes.Note{}, err
	}

	note := notes.Note{Name: doc.Name(), TotalPages: doc.TotalPages(), LastPage: 1, Source: abs}
	if s.notes != nil {
		if existing, ok := s.findSource(abs); ok {
			note = existing
		} else {
			preview, err := document.PreviewDataURL(doc)
			if err != nil {
				log.Printf("[SESSION] No preview for %s: %v", doc.Name(), err)
			}
			note.Preview = preview
			if note, err = s.notes.AddNote(note, selection); err != nil {
				doc.Close()
				return notes.Note{}, fmt.Errorf("failed to store note: %w", err)
			}
		}
	}

	if err := s.Open(note, doc); err != nil {
		doc.Close()
		return notes.Note{}, err
	}
	return note, nil
}

// OpenNote reopens a stored note from its source file.
func (s *Session) OpenNote(id string, load Loader) (notes.Note, error) {
	if s.notes == nil {
		return notes.Note{}, notes.ErrNotFound
	}
	note, err := s.notes.Get(id)
	if err != nil {
		return notes.Note{}, err
	}
	if note.Deleted {
		return notes.Note{}, notes.ErrDeleted
	}
	if note.Source == "" {
		return notes.Note{}, errors.New("note has no source document")
	}

	doc, err := load(note.Source)
	if err != nil {
		s.fail("failed to load document", err)
		return notes.Note{}, err
	}
	if err := s.Open(note, doc); err != nil {
		doc.Close()
		return notes.Note{}, err
	}
	return note, nil
}

func (s *Session) findSource(path string) (notes.Note, bool) {
	for _, n := range s.notes.List(notes.SelectAll) {
		if n.Source == path {
			return n, true
		}
	}
	return notes.Note{}, false
}
