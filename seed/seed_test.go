package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"quizdeck-server/models"
	"quizdeck-server/repo"
	"quizdeck-server/store"
)

const seedYAML = `
teacher:
  email: teacher@example.com
  name: Pat
quizzes:
  - title: Go Basics
    description: Introductory assessment
    settings:
      time_limit_minutes: 15
      attempt_limit: 2
      randomize_questions: true
    questions:
      - text: Which keyword starts a goroutine?
        type: mcq
        options: [go, run, spawn]
        correct_indices: [0]
        points: 1
        category: Concurrency
      - text: Select the built-in container types.
        type: multiple_correct
        options: [map, slice, tree]
        correct_indices: [0, 1]
        points: 2
        category: Types
`

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed file: %v", err)
	}
	return path
}

func TestLoadCreatesTeacherAndQuizzes(t *testing.T) {
	r := repo.New(store.NewMemory())
	ctx := context.Background()
	path := writeSeed(t, seedYAML)

	if err := Load(ctx, r, path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	teacher, err := r.FindOrCreateUser(ctx, "teacher@example.com", models.RoleTeacher, "Pat")
	if err != nil {
		t.Fatalf("FindOrCreateUser: %v", err)
	}
	quizzes, err := r.TeacherQuizzes(ctx, teacher.ID)
	if err != nil {
		t.Fatalf("TeacherQuizzes: %v", err)
	}
	if len(quizzes) != 1 || quizzes[0].Title != "Go Basics" {
		t.Fatalf("quizzes = %+v", quizzes)
	}
	if quizzes[0].Settings.TimeLimitMinutes != 15 || quizzes[0].Settings.AttemptLimit != 2 {
		t.Errorf("settings not carried over: %+v", quizzes[0].Settings)
	}

	questions, err := r.QuestionsForQuiz(ctx, quizzes[0].ID)
	if err != nil {
		t.Fatalf("QuestionsForQuiz: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("question count = %d, want 2", len(questions))
	}
	if questions[0].CorrectAnswerIDs[0] != "0" {
		t.Errorf("correct index not translated to option id: %+v", questions[0])
	}
	if questions[1].Type != models.MultipleCorrect || len(questions[1].CorrectAnswerIDs) != 2 {
		t.Errorf("multi question mistranslated: %+v", questions[1])
	}
}

func TestLoadIsIdempotent(t *testing.T) {
	r := repo.New(store.NewMemory())
	ctx := context.Background()
	path := writeSeed(t, seedYAML)

	if err := Load(ctx, r, path); err != nil {
		t.Fatalf("first Load: %v", err)
	}
	if err := Load(ctx, r, path); err != nil {
		t.Fatalf("second Load: %v", err)
	}

	teacher, _ := r.FindOrCreateUser(ctx, "teacher@example.com", models.RoleTeacher, "Pat")
	quizzes, _ := r.TeacherQuizzes(ctx, teacher.ID)
	if len(quizzes) != 1 {
		t.Errorf("repeat load duplicated quizzes: %d", len(quizzes))
	}
}

func TestLoadRejectsBadCorrectIndex(t *testing.T) {
	r := repo.New(store.NewMemory())
	path := writeSeed(t, `
teacher:
  email: teacher@example.com
  name: Pat
quizzes:
  - title: Broken
    settings:
      time_limit_minutes: 5
      attempt_limit: 1
    questions:
      - text: bad
        type: mcq
        options: [one]
        correct_indices: [4]
`)
	if err := Load(context.Background(), r, path); err == nil {
		t.Error("expected an error for an out-of-range correct index")
	}
}

func TestLoadMissingTeacherEmail(t *testing.T) {
	r := repo.New(store.NewMemory())
	path := writeSeed(t, "quizzes: []\n")
	if err := Load(context.Background(), r, path); err == nil {
		t.Error("expected an error for a seed file without a teacher")
	}
}
