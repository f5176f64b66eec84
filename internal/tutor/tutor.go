// Package tutor is the AI side of a study session: region explanations,
// chat answers, end-of-session summaries and review quizzes.
package tutor

import (
	"context"
	"errors"
)

// ErrNoResponse is returned when the model produced nothing usable.
var ErrNoResponse = errors.New("tutor: empty response")

// QuestionType is the answer format of a quiz question.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple"
	TrueFalse      QuestionType = "ox"
	ShortAnswer    QuestionType = "short"
)

// QuizQuestion is one review question.
type QuizQuestion struct {
	Question    string       `json:"question"`
	Type        QuestionType `json:"type"`
	Options     []string     `json:"options,omitempty"`
	Answer      string       `json:"answer"`
	Explanation string       `json:"explanation"`
}

// SessionSummary is the end-of-session report body.
type SessionSummary struct {
	Overview   string   `json:"overview"`
	KeyPoints  []string `json:"keyPoints"`
	ExamPoints []string `json:"examPoints"`
}

// SummaryOptions selects which parts of the summary are wanted. Parts not
// asked for are left empty.
type SummaryOptions struct {
	Overview bool
	Points   bool
}

// Tutor answers questions about the study material.
type Tutor interface {
	// ExplainImage explains the concept inside a cropped page region.
	ExplainImage(ctx context.Context, png []byte, prompt string) (string, error)
	// Explain answers a free-form question.
	Explain(ctx context.Context, subject, pageContext, question string) (string, error)
	Summarize(ctx context.Context, docName, notes, transcript string, opts SummaryOptions) (SessionSummary, error)
	Quiz(ctx context.Context, docName, transcript string) ([]QuizQuestion, error)
}

// Noop is a Tutor that answers nothing. It is used when no API key is set.
type Noop struct{}

func (Noop) ExplainImage(ctx context.Context, png []byte, prompt string) (string, error) {
	return "", nil
}

func (Noop) Explain(ctx context.Context, subject, pageContext, question string) (string, error) {
	return "", nil
}

func (Noop) Summarize(ctx context.Context, docName, notes, transcript string, opts SummaryOptions) (SessionSummary, error) {
	return SessionSummary{KeyPoints: []string{}, ExamPoints: []string{}}, nil
}

func (Noop) Quiz(ctx context.Context, docName, transcript string) ([]QuizQuestion, error) {
	return []QuizQuestion{}, nil
}

// trimSummary blanks the parts of s that were not asked for.
func trimSummary(s SessionSummary, opts SummaryOptions) SessionSummary {
	if !opts.Overview {
		s.Overview = ""
	}
	if !opts.Points || s.KeyPoints == nil {
		s.KeyPoints = []string{}
	}
	if !opts.Points || s.ExamPoints == nil {
		s.ExamPoints = []string{}
	}
	return s
}
