package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"StudyBoard/internal/session"
	"StudyBoard/internal/tutor"
)

// ChatPanel shows the session chat and sends typed questions to the tutor.
type ChatPanel struct {
	widget.BaseWidget
	session *session.Session

	messages []session.Message
	box      *fyne.Container
	scroll   *container.Scroll
	entry    *widget.Entry
	send     *widget.Button
	status   *widget.Label
	content  fyne.CanvasObject
}

func NewChatPanel(s *session.Session, status *widget.Label) *ChatPanel {
	p := &ChatPanel{session: s, status: status}

	p.box = container.NewVBox()
	p.scroll = container.NewVScroll(p.box)

	p.entry = widget.NewMultiLineEntry()
	p.entry.SetPlaceHolder("Ask about this page...")
	p.entry.Wrapping = fyne.TextWrapWord
	p.entry.OnSubmitted = func(string) { p.Send() }
	p.send = widget.NewButtonWithIcon("", theme.MailSendIcon(), p.Send)

	input := container.NewBorder(nil, nil, nil, p.send, p.entry)
	p.content = container.NewBorder(widget.NewLabelWithStyle("Tutor", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}), input, nil, nil, p.scroll)

	s.OnMessages(func(msgs []session.Message) {
		fyne.Do(func() { p.setMessages(msgs) })
	})
	p.setMessages(s.Messages())

	p.ExtendBaseWidget(p)
	return p
}

func speaker(r session.Role) string {
	switch r {
	case session.RoleUser:
		return "You"
	case session.RoleAssistant:
		return "Tutor"
	default:
		return "Note"
	}
}

func (p *ChatPanel) setMessages(msgs []session.Message) {
	p.messages = msgs
	objects := make([]fyne.CanvasObject, 0, len(msgs))
	for _, m := range msgs {
		l := widget.NewLabel(fmt.Sprintf("%s: %s", speaker(m.Role), m.Content))
		l.Wrapping = fyne.TextWrapWord
		objects = append(objects, l)
	}
	p.box.Objects = objects
	p.box.Refresh()
	p.scroll.ScrollToBottom()
}

// Messages returns the chat as currently displayed.
func (p *ChatPanel) Messages() []session.Message { return p.messages }

// Send submits the entry text. Blank input is ignored; while the tutor is
// answering the text stays in the entry.
func (p *ChatPanel) Send() {
	text := strings.TrimSpace(p.entry.Text)
	if text == "" {
		return
	}
	if p.session.Busy() {
		p.setStatus("The tutor is still answering")
		return
	}
	p.entry.SetText("")

	go func() {
		err := p.session.SendMessage(context.Background(), text)
		switch {
		case err == nil:
		case errors.Is(err, session.ErrBusy):
			fyne.Do(func() { p.entry.SetText(text); p.setStatus("The tutor is still answering") })
		case errors.Is(err, session.ErrNoDocument):
			fyne.Do(func() { p.setStatus("Open a document first") })
		}
	}()
}

func (p *ChatPanel) setStatus(text string) {
	if p.status != nil {
		p.status.SetText(text)
	}
}

func (p *ChatPanel) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(p.content)
}

// FormatReport renders an end-of-session report as Markdown.
func FormatReport(name string, r *session.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", name)
	if r == nil {
		b.WriteString("No report was produced.\n")
		return b.String()
	}

	if r.Summary != nil {
		if r.Summary.Overview != "" {
			fmt.Fprintf(&b, "## Overview\n\n%s\n\n", r.Summary.Overview)
		}
		writeList(&b, "Key points", r.Summary.KeyPoints)
		writeList(&b, "Exam points", r.Summary.ExamPoints)
	}

	if len(r.Quiz) > 0 {
		b.WriteString("## Quiz\n\n")
		for i, q := range r.Quiz {
			fmt.Fprintf(&b, "%d. %s\n", i+1, q.Question)
			if q.Type == tutor.MultipleChoice {
				for _, opt := range q.Options {
					fmt.Fprintf(&b, "    - %s\n", opt)
				}
			}
			fmt.Fprintf(&b, "\n    Answer: %s\n", q.Answer)
			if q.Explanation != "" {
				fmt.Fprintf(&b, "\n    %s\n", q.Explanation)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}
