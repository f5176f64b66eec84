// Package notes keeps the metadata of saved notes and their folders in a
// single JSON blob on disk.
package notes

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const blobFile = "notes.json"

// Selections accepted by List besides a folder id.
const (
	SelectAll   = "all"
	SelectTrash = "trash"
)

// FolderColors is the palette new folders pick their color from.
var FolderColors = []string{"#4f46e5", "#10b981", "#f59e0b", "#ef4444", "#ec4899", "#8b5cf6"}

var (
	ErrNotFound  = errors.New("not found")
	ErrEmptyName = errors.New("name is empty")
	ErrDeleted   = errors.New("note is in the trash")
)

// Now is the clock note dates are taken from.
var Now = time.Now

// Note is the metadata of one saved document.
type Note struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Date       string `json:"date"`
	TotalPages int    `json:"totalPages"`
	LastPage   int    `json:"lastPage"`
	Preview    string `json:"previewImage,omitempty"`
	FolderID   string `json:"folderId,omitempty"`
	Deleted    bool   `json:"isDeleted,omitempty"`
	// Source is the path the document was opened from.
	Source string `json:"source,omitempty"`
}

// Folder groups notes on the dashboard.
type Folder struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type blob struct {
	Notes   []Note   `json:"notes"`
	Folders []Folder `json:"folders"`
}

// Store is the notes blob. Every mutation is written back to disk.
type Store struct {
	mu   sync.RWMutex
	path string
	data blob
}

// Open loads the blob from dir, creating an empty store when the file does
// not exist yet.
func Open(dir string) (*Store, error) {
	s := &Store{path: filepath.Join(dir, blobFile)}

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read notes: %w", err)
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("failed to parse notes: %w", err)
	}
	log.Printf("[NOTES] Loaded %d notes, %d folders from %s", len(s.data.Notes), len(s.data.Folders), s.path)
	return s, nil
}

// Path returns the blob file location.
func (s *Store) Path() string {
	return s.path
}

func (b blob) clone() blob {
	return blob{
		Notes:   append([]Note(nil), b.Notes...),
		Folders: append([]Folder(nil), b.Folders...),
	}
}

// commit writes next to disk and, once that succeeded, makes it the current
// state. It must be called with s.mu held.
func (s *Store) commit(next blob) error {
	if err := s.save(next); err != nil {
		return err
	}
	s.data = next
	return nil
}

func (s *Store) save(b blob) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, blobFile+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to save notes: %w", err)
	}
	return nil
}

// AddNote stores a new note in front of the others. The note is filed into
// selection when it names a folder.
func (s *Store) AddNote(n Note, selection string) (Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n.ID = "note-" + uuid.NewString()
	n.Date = Now().Format("2006-01-02")
	n.LastPage = 1
	n.Deleted = false
	n.FolderID = ""
	if selection != SelectAll && selection != SelectTrash && s.folderIndex(selection) >= 0 {
		n.FolderID = selection
	}

	next := s.data.clone()
	next.Notes = append([]Note{n}, next.Notes...)
	if err := s.commit(next); err != nil {
		return Note{}, err
	}
	log.Printf("[NOTES] Added %s (%s, %d pages)", n.ID, n.Name, n.TotalPages)
	return n, nil
}

// Get returns the note with the given id.
func (s *Store) Get(id string) (Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.noteIndex(id)
	if i < 0 {
		return Note{}, fmt.Errorf("note %s: %w", id, ErrNotFound)
	}
	return s.data.Notes[i], nil
}

// List returns the notes shown for selection: every live note for
// SelectAll, only trashed notes for SelectTrash, otherwise the live notes
// in that folder.
func (s *Store) List(selection string) []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Note{}
	for _, n := range s.data.Notes {
		switch {
		case selection == SelectTrash:
			if n.Deleted {
				out = append(out, n)
			}
		case n.Deleted:
		case selection == SelectAll || n.FolderID == selection:
			out = append(out, n)
		}
	}
	return out
}

// RenameNote gives a note a new trimmed name. A blank name is ignored.
func (s *Store) RenameNote(id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	return s.updateNote(id, func(n *Note) error {
		n.Name = name
		return nil
	})
}

// ToggleTrash moves a note into the trash or restores it.
func (s *Store) ToggleTrash(id string) error {
	return s.updateNote(id, func(n *Note) error {
		n.Deleted = !n.Deleted
		return nil
	})
}

// SetLastPage records the page the note was left on.
func (s *Store) SetLastPage(id string, page int) error {
	if page < 1 {
		return nil
	}
	return s.updateNote(id, func(n *Note) error {
		n.LastPage = page
		return nil
	})
}

// MoveToFolder files a note into a folder, or unfiles it when folderID is
// empty.
func (s *Store) MoveToFolder(id, folderID string) error {
	return s.updateNote(id, func(n *Note) error {
		if folderID != "" && s.folderIndex(folderID) < 0 {
			return fmt.Errorf("folder %s: %w", folderID, ErrNotFound)
		}
		n.FolderID = folderID
		return nil
	})
}

// DeletePermanently removes a note from the store.
func (s *Store) DeletePermanently(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.noteIndex(id)
	if i < 0 {
		return fmt.Errorf("note %s: %w", id, ErrNotFound)
	}
	next := s.data.clone()
	next.Notes = append(next.Notes[:i], next.Notes[i+1:]...)
	if err := s.commit(next); err != nil {
		return err
	}
	log.Printf("[NOTES] Deleted %s", id)
	return nil
}

// Folders returns every folder in creation order.
func (s *Store) Folders() []Folder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Folder(nil), s.data.Folders...)
}

// CreateFolder adds a folder with a color from FolderColors.
func (s *Store) CreateFolder(name string) (Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Folder{}, ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	f := Folder{
		ID:    "folder-" + uuid.NewString(),
		Name:  name,
		Color: FolderColors[rand.IntN(len(FolderColors))],
	}
	next := s.data.clone()
	next.Folders = append(next.Folders, f)
	if err := s.commit(next); err != nil {
		return Folder{}, err
	}
	return f, nil
}

// RenameFolder renames a folder. A blank name is ignored.
func (s *Store) RenameFolder(id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.folderIndex(id)
	if i < 0 {
		return fmt.Errorf("folder %s: %w", id, ErrNotFound)
	}
	next := s.data.clone()
	next.Folders[i].Name = name
	return s.commit(next)
}

// DeleteFolder removes a folder. Its notes become unfiled.
func (s *Store) DeleteFolder(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.folderIndex(id)
	if i < 0 {
		return fmt.Errorf("folder %s: %w", id, ErrNotFound)
	}
	next := s.data.clone()
	for j := range next.Notes {
		if next.Notes[j].FolderID == id {
			next.Notes[j].FolderID = ""
		}
	}
	next.Folders = append(next.Folders[:i], next.Folders[i+1:]...)
	return s.commit(next)
}

// updateNote applies fn to a copy of note id and commits it. Nothing changes
// when fn or the write fails.
func (s *Store) updateNote(id string, fn func(*Note) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.noteIndex(id)
	if i < 0 {
		return fmt.Errorf("note %s: %w", id, ErrNotFound)
	}
	next := s.data.clone()
	if err := fn(&next.Notes[i]); err != nil {
		return err
	}
	return s.commit(next)
}

func (s *Store) noteIndex(id string) int {
	for i, n := range s.data.Notes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) folderIndex(id string) int {
	for i, f := range s.data.Folders {
		if f.ID == id {
			return i
		}
	}
	return -1
}
