package tutor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeModels struct {
	reply  string
	err    error
	model  string
	config *genai.GenerateContentConfig
	parts  []*genai.Part
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	if len(contents) > 0 {
		f.parts = contents[0].Parts
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.reply}}},
		}},
	}, nil
}

func TestExplainImageSendsPNG(t *testing.T) {
	fake := &fakeModels{reply: "- mitochondria: energy"}
	g := newGemini(fake, "", "")

	got, err := g.ExplainImage(context.Background(), []byte{0x89, 'P', 'N', 'G'}, "explain")
	require.NoError(t, err)
	assert.Equal(t, "- mitochondria: energy", got)
	assert.Equal(t, DefaultChatModel, fake.model)
	require.Len(t, fake.parts, 2)
	require.NotNil(t, fake.parts[0].InlineData)
	assert.Equal(t, "image/png", fake.parts[0].InlineData.MIMEType)
	assert.Equal(t, "explain", fake.parts[1].Text)
	require.NotNil(t, fake.config.Temperature)
	assert.InDelta(t, 0.5, *fake.config.Temperature, 1e-6)
}

func TestEmptyReplyIsAnError(t *testing.T) {
	g := newGemini(&fakeModels{reply: "  "}, "chat", "report")
	_, err := g.Explain(context.Background(), "doc", "page 3", "why?")
	assert.ErrorIs(t, err, ErrNoResponse)

	boom := errors.New("quota")
	g = newGemini(&fakeModels{err: boom}, "chat", "report")
	_, err = g.Explain(context.Background(), "doc", "page 3", "why?")
	assert.ErrorIs(t, err, boom)
}

func TestSummarizeBlanksUnrequestedParts(t *testing.T) {
	fake := &fakeModels{reply: `{"overview":"cells","keyPoints":["atp"],"examPoints":["krebs"]}`}
	g := newGemini(fake, "chat", "report")

	got, err := g.Summarize(context.Background(), "bio", "3 strokes", "", SummaryOptions{Overview: true})
	require.NoError(t, err)
	assert.Equal(t, "report", fake.model)
	assert.Equal(t, "application/json", fake.config.ResponseMIMEType)
	assert.Equal(t, "cells", got.Overview)
	assert.Empty(t, got.KeyPoints)
	assert.NotNil(t, got.KeyPoints)

	got, err = g.Summarize(context.Background(), "bio", "", "", SummaryOptions{Points: true})
	require.NoError(t, err)
	assert.Empty(t, got.Overview)
	assert.Equal(t, []string{"krebs"}, got.ExamPoints)
}

func TestQuizDropsUnknownTypes(t *testing.T) {
	fake := &fakeModels{reply: `[
		{"question":"ATP?","type":"short","answer":"energy","explanation":"e"},
		{"question":"?","type":"essay","answer":"","explanation":""},
		{"question":"Is it?","type":"ox","answer":"O","explanation":"e"}
	]`}
	quiz, err := newGemini(fake, "", "").Quiz(context.Background(), "bio", "talk")
	require.NoError(t, err)
	require.Len(t, quiz, 2)
	assert.Equal(t, TrueFalse, quiz[1].Type)

	_, err = newGemini(&fakeModels{reply: "not json"}, "", "").Quiz(context.Background(), "bio", "")
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	var tu Tutor = Noop{}
	s, err := tu.Summarize(context.Background(), "", "", "", SummaryOptions{Overview: true, Points: true})
	require.NoError(t, err)
	assert.Empty(t, s.Overview)
	quiz, err := tu.Quiz(context.Background(), "", "")
	require.NoError(t, err)
	assert.Empty(t, quiz)
}
