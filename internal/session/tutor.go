package session

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log"
	"math"
	"strconv"
	"strings"

	"StudyBoard/internal/render"
	"StudyBoard/internal/state"
	"StudyBoard/internal/tutor"
)

// RegionPadding is the margin, in document units, kept around an AI pen
// stroke when its region is cropped out of the page.
const RegionPadding = 24.0

const (
	regionPrompt = "Explain the concept in the marked area of this image."
	analyzing    = "(AI analyzing...)"
	briefRunes   = 30
)

// FeedbackOptions picks the parts of the end-of-session report.
type FeedbackOptions struct {
	Summary bool
	Points  bool
	Quiz    bool
}

// Report is what EndSession produces. Parts not asked for are nil.
type Report struct {
	Summary *tutor.SessionSummary `json:"summary,omitempty"`
	Quiz    []tutor.QuizQuestion  `json:"quiz,omitempty"`
}

// begin reserves a tutor request slot in the current generation and returns
// the context it runs in along with the func that releases the slot. It fails
// with ErrBusy when exclusive is set and a request is in flight.
func (s *Session) begin(exclusive bool) (context.Context, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if exclusive && s.inflight > 0 {
		return nil, nil, ErrBusy
	}
	s.inflight++
	jobs := s.jobs
	jobs.Add(1)
	return s.ctx, func() {
		s.mu.Lock()
		s.inflight--
		s.mu.Unlock()
		jobs.Done()
	}, nil
}

// explainRegion sends the page region under an AI pen stroke to the tutor
// in the background.
func (s *Session) explainRegion(stroke state.Stroke) {
	s.startRecording()

	ctx, end, _ := s.begin(false)
	s.addMessage(RoleUser, analyzing)

	go func() {
		defer end()

		img, err := s.RegionImage(stroke)
		if err != nil {
			s.fail("AI pen region", err)
			return
		}
		answer, err := s.tutor.ExplainImage(ctx, img, regionPrompt)
		if err != nil {
			s.fail("AI pen explanation", err)
			return
		}
		if answer != "" {
			s.addMessage(RoleAssistant, answer)
		}
	}()
}

// RegionImage renders the page of stroke with its ink and crops it to the
// stroke's bounds plus RegionPadding. A region entirely off the page falls
// back to the whole page.
func (s *Session) RegionImage(stroke state.Stroke) ([]byte, error) {
	frame, scale, err := s.frame(stroke.Page)
	if err != nil {
		return nil, err
	}

	b := state.StrokeBounds(stroke, RegionPadding)
	rect := image.Rect(
		int(math.Floor(b.X*scale)), int(math.Floor(b.Y*scale)),
		int(math.Ceil((b.X+b.Width)*scale)), int(math.Ceil((b.Y+b.Height)*scale)),
	)
	var out image.Image = render.Crop(frame, rect)
	if out.Bounds().Empty() {
		out = frame
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode region: %w", err)
	}
	return buf.Bytes(), nil
}

// SendMessage asks the tutor a question about the current page. Blank input
// is ignored; a question while another is pending returns ErrBusy.
func (s *Session) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	doc := s.Document()
	if doc == nil {
		return ErrNoDocument
	}

	jobCtx, end, err := s.begin(true)
	if err != nil {
		return err
	}
	defer end()

	s.startRecording()
	s.addMessage(RoleUser, text)

	page := s.viewport.CurrentPage()
	pageContext := fmt.Sprintf("Page %d", page)
	if pageText, err := doc.PageText(page); err == nil && pageText != "" {
		pageContext += ": " + pageText
	}

	ctx, cancel := mergeCancel(ctx, jobCtx)
	defer cancel()

	answer, err := s.tutor.Explain(ctx, doc.Name(), pageContext, text)
	if err != nil {
		s.fail("chat", err)
		return err
	}
	if answer != "" {
		s.addMessage(RoleAssistant, answer)
	}
	return nil
}

// EndSession builds the end-of-session report. On failure no report is
// produced and the error is recorded.
func (s *Session) EndSession(ctx context.Context, opts FeedbackOptions) (*Report, error) {
	doc := s.Document()
	if doc == nil {
		return nil, ErrNoDocument
	}

	s.mu.Lock()
	if s.reporting {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.reporting = true
	transcript := strings.Join(s.transcript, "")
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.reporting = false
		s.mu.Unlock()
	}()

	name := doc.Name()
	strokeCount := strconv.Itoa(s.log.Len())
	report := &Report{}

	if opts.Summary || opts.Points {
		summary, err := s.tutor.Summarize(ctx, name, strokeCount, transcript, tutor.SummaryOptions{
			Overview: opts.Summary,
			Points:   opts.Points,
		})
		if err != nil {
			s.fail("report summary", err)
			return nil, err
		}
		report.Summary = &summary
	}
	if opts.Quiz {
		quiz, err := s.tutor.Quiz(ctx, name, transcript)
		if err != nil {
			s.fail("report quiz", err)
			return nil, err
		}
		report.Quiz = quiz
	}

	log.Printf("[SESSION] Report ready for %s", name)
	return report, nil
}

func mergeCancel(ctx, other context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(other, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
