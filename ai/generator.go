// --- quizdeck-server/ai/generator.go ---
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"

	"google.golang.org/genai"

	"quizdeck-server/models"
)

// ErrGeneration marks a failure of the question-generation collaborator.
// Callers must leave quiz state untouched when they see it.
var ErrGeneration = errors.New("question generation failed")

// GeneratedOption is an answer choice as produced by the model, before it is
// assigned an option id.
type GeneratedOption struct {
	Text string `json:"text"`
}

// GeneratedQuestion is the collaborator's output shape. Correct answers are
// option indices; ToQuestion translates them into the Question entity's
// option-id scheme.
type GeneratedQuestion struct {
	Text                 string              `json:"text"`
	Type                 models.QuestionType `json:"type"`
	Options              []GeneratedOption   `json:"options"`
	CorrectAnswerIndices []int               `json:"correctAnswerIndices"`
	Points               int                 `json:"points"`
	Explanation          string              `json:"explanation"`
}

// Generator produces quiz questions for a topic.
type Generator interface {
	Generate(ctx context.Context, topic string, count int) ([]GeneratedQuestion, error)
}

// Gemini generates questions with the Gemini API, constrained to a JSON
// response schema.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates the Gemini-backed generator.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	log.Println("AI question generator initialized")
	return &Gemini{client: client, model: model}, nil
}

// Generate asks the model for count questions about topic.
func (g *Gemini) Generate(ctx context.Context, topic string, count int) ([]GeneratedQuestion, error) {
	prompt := fmt.Sprintf(`Generate exactly %d educational quiz questions about %q.
Requirements:
1. Provide a diverse mix of Multiple Choice (MCQ) and True/False questions.
2. Ensure all questions are factually accurate and academically rigorous.
3. For each question, provide a detailed "explanation" explaining the logic behind the correct answer.
4. DO NOT generate fewer than %d questions.`, count, topic, count)

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"text": {Type: genai.TypeString},
					"type": {Type: genai.TypeString, Enum: []string{string(models.MCQ), string(models.TrueFalse)}},
					"options": {
						Type: genai.TypeArray,
						Items: &genai.Schema{
							Type: genai.TypeObject,
							Properties: map[string]*genai.Schema{
								"text": {Type: genai.TypeString},
							},
						},
					},
					"correctAnswerIndices": {
						Type:  genai.TypeArray,
						Items: &genai.Schema{Type: genai.TypeInteger},
					},
					"points":      {Type: genai.TypeInteger},
					"explanation": {Type: genai.TypeString},
				},
				Required: []string{"text", "type", "options", "correctAnswerIndices", "points", "explanation"},
			},
		},
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	text := result.Text()
	if text == "" {
		return nil, fmt.Errorf("%w: empty model response", ErrGeneration)
	}

	var generated []GeneratedQuestion
	if err := json.Unmarshal([]byte(text), &generated); err != nil {
		return nil, fmt.Errorf("%w: malformed model response: %v", ErrGeneration, err)
	}
	if len(generated) == 0 {
		return nil, fmt.Errorf("%w: model returned no questions", ErrGeneration)
	}
	return generated, nil
}

// Disabled is the Generator used when no API key is configured.
type Disabled struct{}

// Generate always fails with ErrGeneration.
func (Disabled) Generate(ctx context.Context, topic string, count int) ([]GeneratedQuestion, error) {
	return nil, fmt.Errorf("%w: no API key configured", ErrGeneration)
}

// ToQuestion translates a generated question into the Question entity for a
// quiz, assigning positional option ids and mapping correct indices onto
// them.
func ToQuestion(quizID, category string, gq GeneratedQuestion) (models.Question, error) {
	options := make([]models.Option, len(gq.Options))
	for i, opt := range gq.Options {
		options[i] = models.Option{ID: strconv.Itoa(i), Text: opt.Text}
	}
	correct := make([]string, 0, len(gq.CorrectAnswerIndices))
	for _, idx := range gq.CorrectAnswerIndices {
		if idx < 0 || idx >= len(options) {
			return models.Question{}, fmt.Errorf("%w: correct answer index %d out of range", ErrGeneration, idx)
		}
		correct = append(correct, strconv.Itoa(idx))
	}
	points := gq.Points
	if points < 1 {
		points = 1
	}
	return models.Question{
		QuizID:           quizID,
		Text:             gq.Text,
		Type:             gq.Type,
		Options:          options,
		CorrectAnswerIDs: correct,
		Points:           points,
		Category:         category,
		Explanation:      gq.Explanation,
	}, nil
}
