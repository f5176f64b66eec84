package session

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StudyBoard/internal/document"
	"StudyBoard/internal/notes"
)

func blankLoader(calls *[]string) Loader {
	return func(path string) (document.Provider, error) {
		*calls = append(*calls, path)
		return document.NewBlank("histology", 4, 100, 100), nil
	}
}

func TestOpenPathFilesANote(t *testing.T) {
	store, err := notes.Open(t.TempDir())
	require.NoError(t, err)
	s := New(Options{Notes: store})

	var calls []string
	note, err := s.OpenPath("histology.pdf", blankLoader(&calls), notes.SelectAll)
	require.NoError(t, err)

	abs, _ := filepath.Abs("histology.pdf")
	assert.Equal(t, []string{abs}, calls)
	assert.Equal(t, "histology", note.Name)
	assert.Equal(t, 4, note.TotalPages)
	assert.Equal(t, abs, note.Source)
	assert.NotEmpty(t, note.Preview)
	assert.Equal(t, note.ID, s.Note().ID)
	require.NotNil(t, s.Document())

	again, err := s.OpenPath("histology.pdf", blankLoader(&calls), notes.SelectAll)
	require.NoError(t, err)
	assert.Equal(t, note.ID, again.ID)
	assert.Len(t, store.List(notes.SelectAll), 1)
}

func TestOpenPathLoadFailure(t *testing.T) {
	s := New(Options{})
	boom := errors.New("not a pdf")
	_, err := s.OpenPath("broken.pdf", func(string) (document.Provider, error) { return nil, boom }, notes.SelectAll)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, s.Document())
	assert.Error(t, s.LastError())
}

func TestOpenNote(t *testing.T) {
	store, err := notes.Open(t.TempDir())
	require.NoError(t, err)
	s := New(Options{Notes: store})

	var calls []string
	note, err := s.OpenPath("histology.pdf", blankLoader(&calls), notes.SelectAll)
	require.NoError(t, err)

	reopened, err := s.OpenNote(note.ID, blankLoader(&calls))
	require.NoError(t, err)
	assert.Equal(t, note.ID, reopened.ID)
	assert.Len(t, calls, 2)

	_, err = s.OpenNote("missing", blankLoader(&calls))
	assert.ErrorIs(t, err, notes.ErrNotFound)

	require.NoError(t, store.ToggleTrash(note.ID))
	_, err = s.OpenNote(note.ID, blankLoader(&calls))
	assert.ErrorIs(t, err, notes.ErrDeleted)

	bare, err := store.AddNote(notes.Note{Name: "typed"}, notes.SelectAll)
	require.NoError(t, err)
	_, err = s.OpenNote(bare.ID, blankLoader(&calls))
	assert.Error(t, err)

	_, err = New(Options{}).OpenNote(note.ID, blankLoader(&calls))
	assert.ErrorIs(t, err, notes.ErrNotFound)
}
