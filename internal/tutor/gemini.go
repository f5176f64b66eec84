package tutor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"
)

const (
	DefaultChatModel   = "gemini-2.5-flash"
	DefaultReportModel = "gemini-2.5-pro"

	temperature = 0.5
)

const (
	regionInstruction = `You are a study assistant that values efficiency.
Answer with the essentials only. No greetings, no filler, no long introductions.
1. Define the concept inside the marked region directly.
2. Use bullet points for the key facts.
3. Drop repetition and the obvious.
4. Keep the answer to three or four sentences.`

	chatInstruction = "You are a concise tutor. Answer immediately and briefly, focusing on the core knowledge."
)

// generator is the slice of the genai client the tutor uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini is a Tutor backed by the Gemini API.
type Gemini struct {
	models      generator
	chatModel   string
	reportModel string
}

// NewGemini connects to the Gemini API with apiKey. Empty model names use
// the defaults.
func NewGemini(ctx context.Context, apiKey, chatModel, reportModel string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return newGemini(client.Models, chatModel, reportModel), nil
}

func newGemini(models generator, chatModel, reportModel string) *Gemini {
	if chatModel == "" {
		chatModel = DefaultChatModel
	}
	if reportModel == "" {
		reportModel = DefaultReportModel
	}
	return &Gemini{models: models, chatModel: chatModel, reportModel: reportModel}
}

func ptr[T any](v T) *T { return &v }

func instruction(text string) *genai.Content {
	return genai.NewContentFromText(text, genai.RoleUser)
}

func (g *Gemini) generate(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (string, error) {
	resp, err := g.models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", fmt.Errorf("%s: %w", model, err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrNoResponse
	}
	return text, nil
}

func (g *Gemini) ExplainImage(ctx context.Context, png []byte, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(png, "image/png"),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}
	return g.generate(ctx, g.chatModel, contents, &genai.GenerateContentConfig{
		Temperature:       ptr[float32](temperature),
		SystemInstruction: instruction(regionInstruction),
	})
}

func (g *Gemini) Explain(ctx context.Context, subject, pageContext, question string) (string, error) {
	prompt := fmt.Sprintf("Context: %s\nPage: %s\nQuestion: %s", subject, pageContext, question)
	return g.generate(ctx, g.chatModel, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:       ptr[float32](temperature),
		SystemInstruction: instruction(chatInstruction),
	})
}

func (g *Gemini) Summarize(ctx context.Context, docName, notes, transcript string, opts SummaryOptions) (SessionSummary, error) {
	var wants []string
	if opts.Overview {
		wants = append(wants, "include a one sentence overview")
	}
	if opts.Points {
		wants = append(wants, "include key points and likely exam points")
	}
	prompt := fmt.Sprintf("Summarize this study session.\nDocument: %s\nNotes: %s\nSpeech: %s\nRequest: %s",
		docName, notes, transcript, strings.Join(wants, "; "))

	text, err := g.generate(ctx, g.reportModel, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   summarySchema,
	})
	if err != nil {
		return SessionSummary{}, err
	}

	var summary SessionSummary
	if err := json.Unmarshal([]byte(text), &summary); err != nil {
		return SessionSummary{}, fmt.Errorf("failed to parse summary: %w", err)
	}
	return trimSummary(summary, opts), nil
}

func (g *Gemini) Quiz(ctx context.Context, docName, transcript string) ([]QuizQuestion, error) {
	prompt := fmt.Sprintf("Write 3 review quiz questions from this study material.\nDocument: %s\nConversation: %s",
		docName, transcript)

	text, err := g.generate(ctx, g.chatModel, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   quizSchema,
	})
	if err != nil {
		return nil, err
	}

	var quiz []QuizQuestion
	if err := json.Unmarshal([]byte(text), &quiz); err != nil {
		return nil, fmt.Errorf("failed to parse quiz: %w", err)
	}
	valid := quiz[:0]
	for _, q := range quiz {
		switch q.Type {
		case MultipleChoice, TrueFalse, ShortAnswer:
			valid = append(valid, q)
		default:
			log.Printf("[TUTOR] Dropping quiz question with type %q", q.Type)
		}
	}
	return valid, nil
}

var summarySchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"overview":   {Type: genai.TypeString, Description: "One sentence summary"},
		"keyPoints":  {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}, Description: "Keywords"},
		"examPoints": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}, Description: "Likely exam points"},
	},
	Required: []string{"overview", "keyPoints", "examPoints"},
}

var quizSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"question":    {Type: genai.TypeString},
			"type":        {Type: genai.TypeString, Enum: []string{"multiple", "ox", "short"}},
			"options":     {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"answer":      {Type: genai.TypeString},
			"explanation": {Type: genai.TypeString},
		},
		Required: []string{"question", "type", "answer", "explanation"},
	},
}
