// --- quizdeck-server/seed/seed.go ---
package seed

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"quizdeck-server/models"
	"quizdeck-server/repo"
)

// File is the top-level seed document: one teacher account plus quizzes with
// inline questions. Correct answers are option indices; Load assigns the
// positional option ids.
type File struct {
	Teacher struct {
		Email string `yaml:"email"`
		Name  string `yaml:"name"`
	} `yaml:"teacher"`
	Quizzes []SeedQuiz `yaml:"quizzes"`
}

// SeedQuiz declares one quiz and its questions.
type SeedQuiz struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Settings    SeedSettings   `yaml:"settings"`
	Questions   []SeedQuestion `yaml:"questions"`
}

// SeedSettings mirrors QuizSettings with YAML-friendly fields.
type SeedSettings struct {
	TimeLimitMinutes   int  `yaml:"time_limit_minutes"`
	AttemptLimit       int  `yaml:"attempt_limit"`
	RandomizeQuestions bool `yaml:"randomize_questions"`
	IsPublic           bool `yaml:"is_public"`
}

// SeedQuestion declares one question with indexed correct answers.
type SeedQuestion struct {
	Text           string   `yaml:"text"`
	Type           string   `yaml:"type"`
	Options        []string `yaml:"options"`
	CorrectIndices []int    `yaml:"correct_indices"`
	Points         int      `yaml:"points"`
	Category       string   `yaml:"category"`
	Explanation    string   `yaml:"explanation"`
}

// Load reads a seed YAML file and creates its teacher and quizzes. Seeding
// is idempotent at the quiz level: when the teacher already owns quizzes the
// file is skipped entirely.
func Load(ctx context.Context, r *repo.Repository, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file %s: %w", path, err)
	}
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	if file.Teacher.Email == "" {
		return fmt.Errorf("seed file %s: teacher email is required", path)
	}

	teacher, err := r.FindOrCreateUser(ctx, file.Teacher.Email, models.RoleTeacher, file.Teacher.Name)
	if err != nil {
		return fmt.Errorf("failed to create seed teacher: %w", err)
	}
	existing, err := r.TeacherQuizzes(ctx, teacher.ID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Printf("Seed skipped: teacher %s already owns %d quiz(es)", teacher.Email, len(existing))
		return nil
	}

	for _, sq := range file.Quizzes {
		settings := models.QuizSettings{
			TimeLimitMinutes:   sq.Settings.TimeLimitMinutes,
			AttemptLimit:       sq.Settings.AttemptLimit,
			RandomizeQuestions: sq.Settings.RandomizeQuestions,
			IsPublic:           sq.Settings.IsPublic,
		}
		quiz, err := r.CreateQuiz(ctx, teacher.ID, sq.Title, sq.Description, settings, false)
		if err != nil {
			return fmt.Errorf("failed to seed quiz %q: %w", sq.Title, err)
		}
		for _, q := range sq.Questions {
			question, err := toQuestion(quiz.ID, q)
			if err != nil {
				return fmt.Errorf("quiz %q: %w", sq.Title, err)
			}
			if _, err := r.SaveQuestion(ctx, question); err != nil {
				return fmt.Errorf("failed to seed question %q: %w", q.Text, err)
			}
		}
		log.Printf("Seeded quiz %q with %d question(s), join code %s", quiz.Title, len(sq.Questions), quiz.JoinCode)
	}
	return nil
}

func toQuestion(quizID string, sq SeedQuestion) (models.Question, error) {
	options := make([]models.Option, len(sq.Options))
	for i, text := range sq.Options {
		options[i] = models.Option{ID: strconv.Itoa(i), Text: text}
	}
	correct := make([]string, 0, len(sq.CorrectIndices))
	for _, idx := range sq.CorrectIndices {
		if idx < 0 || idx >= len(options) {
			return models.Question{}, fmt.Errorf("question %q: correct index %d out of range", sq.Text, idx)
		}
		correct = append(correct, strconv.Itoa(idx))
	}
	return models.Question{
		QuizID:           quizID,
		Text:             sq.Text,
		Type:             models.QuestionType(sq.Type),
		Options:          options,
		CorrectAnswerIDs: correct,
		Points:           sq.Points,
		Category:         sq.Category,
		Explanation:      sq.Explanation,
	}, nil
}
