package ui

import (
	"context"
	"errors"
	"fmt"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"StudyBoard/internal/config"
	"StudyBoard/internal/export"
	"StudyBoard/internal/notes"
	"StudyBoard/internal/session"
)

// Workspace is the content of the main window: toolbar, pages, chat and
// status line over one session.
type Workspace struct {
	session *session.Session
	load    session.Loader
	window  fyne.Window

	Pages   *PageList
	Toolbar *Toolbar
	Chat    *ChatPanel
	Status  *widget.Label
	content fyne.CanvasObject
}

// NewWorkspace builds the workspace for s inside w.
func NewWorkspace(s *session.Session, load session.Loader, w fyne.Window) *Workspace {
	ws := &Workspace{session: s, load: load, window: w}
	ws.Status = widget.NewLabel("Ready")
	ws.Pages = NewPageList(s)
	ws.Toolbar = NewToolbar(s, ws.Pages, ToolbarActions{
		Open:       ws.showOpen,
		OpenFolder: ws.showOpenFolder,
		Export:     ws.showExport,
		EndSession: ws.endSession,
	})
	ws.Chat = NewChatPanel(s, ws.Status)

	s.OnError(func(err error) {
		fyne.Do(func() { ws.Status.SetText(err.Error()) })
	})

	split := container.NewHSplit(ws.Pages, ws.Chat)
	split.Offset = 0.72
	ws.content = container.NewBorder(ws.Toolbar, ws.Status, nil, nil, split)
	return ws
}

// Content returns the root canvas object of the workspace.
func (ws *Workspace) Content() fyne.CanvasObject { return ws.content }

// Open opens the document at path and shows its pages.
func (ws *Workspace) Open(path string) error {
	note, err := ws.session.OpenPath(path, ws.load, notes.SelectAll)
	if err != nil {
		ws.Status.SetText(fmt.Sprintf("Failed to open %s: %v", path, err))
		return err
	}
	return ws.shown(note)
}

// OpenNote reopens a saved note.
func (ws *Workspace) OpenNote(id string) error {
	note, err := ws.session.OpenNote(id, ws.load)
	if err != nil {
		ws.Status.SetText(fmt.Sprintf("Failed to open note: %v", err))
		return err
	}
	return ws.shown(note)
}

func (ws *Workspace) shown(note notes.Note) error {
	if err := ws.Pages.Load(); err != nil {
		return err
	}
	ws.Toolbar.Sync()
	if note.LastPage > 1 {
		ws.Pages.ScrollToPage(note.LastPage, false)
	}
	if ws.window != nil {
		ws.window.SetTitle("StudyBoard - " + note.Name)
	}
	ws.Status.SetText(fmt.Sprintf("%s, %d pages", note.Name, ws.session.Document().TotalPages()))
	return nil
}

func (ws *Workspace) showOpen() {
	open := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()
		ws.Open(path)
	}, ws.window)
	open.SetFilter(storage.NewExtensionFileFilter([]string{".pdf"}))
	open.Show()
}

func (ws *Workspace) showOpenFolder() {
	dialog.ShowFolderOpen(func(dir fyne.ListableURI, err error) {
		if err != nil || dir == nil {
			return
		}
		ws.Open(dir.Path())
	}, ws.window)
}

func (ws *Workspace) showExport() {
	doc := ws.session.Document()
	if doc == nil {
		ws.Status.SetText("Open a document first")
		return
	}
	save := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		ws.SaveToFile(writer)
	}, ws.window)
	save.SetFileName(doc.Name() + "-annotated.pdf")
	save.Show()
}

// SaveToFile writes the annotated document as PDF to writer and closes it.
func (ws *Workspace) SaveToFile(writer fyne.URIWriteCloser) {
	defer func() {
		if err := writer.Close(); err != nil {
			log.Printf("[EXPORT] Error closing writer: %v", err)
		}
	}()

	doc := ws.session.Document()
	if doc == nil {
		ws.Status.SetText("Open a document first")
		return
	}
	strokes := ws.session.Strokes()
	if err := export.WritePDF(writer, doc, strokes); err != nil {
		log.Printf("[EXPORT] Failed to export %s: %v", doc.Name(), err)
		ws.Status.SetText("Error exporting file")
		return
	}
	ws.Status.SetText(fmt.Sprintf("Exported %d pages with %d strokes", doc.TotalPages(), len(strokes)))
}

func (ws *Workspace) endSession() {
	doc := ws.session.Document()
	if doc == nil {
		ws.Status.SetText("Open a document first")
		return
	}

	summary := widget.NewCheck("Summary", nil)
	points := widget.NewCheck("Key and exam points", nil)
	quiz := widget.NewCheck("Review quiz", nil)
	summary.SetChecked(true)
	points.SetChecked(true)
	quiz.SetChecked(true)

	dialog.ShowCustomConfirm("End session", "Create report", "Keep studying",
		container.NewVBox(summary, points, quiz),
		func(ok bool) {
			if !ok {
				return
			}
			opts := session.FeedbackOptions{Summary: summary.Checked, Points: points.Checked, Quiz: quiz.Checked}
			ws.Status.SetText("Preparing report...")
			go ws.report(doc.Name(), opts)
		}, ws.window)
}

func (ws *Workspace) report(name string, opts session.FeedbackOptions) {
	report, err := ws.session.EndSession(context.Background(), opts)
	fyne.Do(func() {
		switch {
		case errors.Is(err, session.ErrBusy):
			ws.Status.SetText("A report is already being prepared")
			return
		case err != nil:
			ws.Status.SetText(err.Error())
			return
		}
		ws.Status.SetText("Report ready")
		text := widget.NewRichTextFromMarkdown(FormatReport(name, report))
		text.Wrapping = fyne.TextWrapWord
		scroll := container.NewVScroll(text)
		scroll.SetMinSize(fyne.NewSize(520, 420))
		dialog.ShowCustom("Session report", "Close", scroll, ws.window)
	})
}

// RunApp opens the desktop window over s and blocks until it is closed.
func RunApp(cfg *config.Config, s *session.Session, load session.Loader, shareURL string) {
	myApp := app.NewWithID("io.studyboard.app")
	myWindow := myApp.NewWindow("StudyBoard")
	myWindow.Resize(fyne.NewSize(1280, 860))

	ws := NewWorkspace(s, load, myWindow)
	if shareURL != "" {
		ws.Status.SetText("Remote canvas: " + shareURL)
	}
	if cfg.Document != "" {
		ws.Open(cfg.Document)
	} else if recent := s.Notes(); recent != nil {
		if list := recent.List(notes.SelectAll); len(list) > 0 {
			ws.OpenNote(list[0].ID)
		}
	}

	myWindow.SetContent(ws.Content())
	myWindow.SetOnClosed(func() {
		if err := s.Close(); err != nil {
			log.Printf("[SESSION] %v", err)
		}
	})
	myWindow.ShowAndRun()
}
