package repo

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"quizdeck-server/models"
	"quizdeck-server/store"
)

func newTestRepo() *Repository {
	return New(store.NewMemory())
}

func defaultSettings() models.QuizSettings {
	return models.QuizSettings{TimeLimitMinutes: 10, AttemptLimit: 1}
}

func mcq(quizID, text, correct string) models.Question {
	return models.Question{
		QuizID: quizID,
		Text:   text,
		Type:   models.MCQ,
		Options: []models.Option{
			{ID: "0", Text: "right"},
			{ID: "1", Text: "wrong"},
		},
		CorrectAnswerIDs: []string{correct},
		Points:           1,
		Category:         "General",
	}
}

func TestFindOrCreateUserIsIdempotent(t *testing.T) {
	r := newTestRepo()
	ctx := context.Background()

	first, err := r.FindOrCreateUser(ctx, "student@example.com", models.RoleStudent, "Sam")
	if err != nil {
		t.Fatalf("FindOrCreateUser: %v", err)
	}
	second, err := r.FindOrCreateUser(ctx, "Student@Example.COM", models.RoleTeacher, "Other")
	if err != nil {
		t.Fatalf("FindOrCreateUser: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("same email produced two users: %s vs %s", first.ID, second.ID)
	}
	if second.Role != models.RoleStudent || second.Name != "Sam" {
		t.Errorf("existing user was mutated on re-login: %+v", second)
	}
}

func TestCreateQuizMintsUniqueJoinCode(t *testing.T) {
	r := newTestRepo()
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		quiz, err := r.CreateQuiz(ctx, "t1", "Quiz", "", defaultSettings(), false)
		if err != nil {
			t.Fatalf("CreateQuiz: %v", err)
		}
		if len(quiz.JoinCode) != 6 {
			t.Errorf("join code %q is not 6 chars", quiz.JoinCode)
		}
		if quiz.JoinCode != strings.ToUpper(quiz.JoinCode) {
			t.Errorf("join code %q is not uppercase", quiz.JoinCode)
		}
		if quiz.JoinCode == models.PracticeJoinCode {
			t.Error("minted the reserved practice code")
		}
		if seen[quiz.JoinCode] {
			t.Errorf("join code %q minted twice", quiz.JoinCode)
		}
		seen[quiz.JoinCode] = true
	}
}

func TestCreateQuizRejectsInvalidSettings(t *testing.T) {
	r := newTestRepo()
	_, err := r.CreateQuiz(context.Background(), "t1", "Quiz", "", models.QuizSettings{TimeLimitMinutes: 0, AttemptLimit: 1}, false)
	if !errors.Is(err, models.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestPracticeQuizUsesReservedCode(t *testing.T) {
	r := newTestRepo()
	quiz, err := r.CreateQuiz(context.Background(), "s1", "Practice: Go", "", defaultSettings(), true)
	if err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}
	if quiz.JoinCode != models.PracticeJoinCode {
		t.Errorf("practice quiz code = %q, want %q", quiz.JoinCode, models.PracticeJoinCode)
	}
	if !quiz.IsPractice {
		t.Error("practice flag not set")
	}
}

func TestQuizByCodeIsCaseInsensitiveAndSkipsPractice(t *testing.T) {
	r := newTestRepo()
	ctx := context.Background()

	quiz, err := r.CreateQuiz(ctx, "t1", "Quiz", "", defaultSettings(), false)
	if err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}
	found, err := r.QuizByCode(ctx, strings.ToLower(quiz.JoinCode))
	if err != nil {
		t.Fatalf("QuizByCode: %v", err)
	}
	if found.ID != quiz.ID {
		t.Errorf("resolved wrong quiz: %s", found.ID)
	}

	if _, err := r.CreateQuiz(ctx, "s1", "Practice", "", defaultSettings(), true); err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}
	if _, err := r.QuizByCode(ctx, models.PracticeJoinCode); !errors.Is(err, ErrNotFound) {
		t.Errorf("practice code should not resolve, got %v", err)
	}
}

func TestCreateQuizNotifiesStudents(t *testing.T) {
	r := newTestRepo()
	ctx := context.Background()

	student, _ := r.FindOrCreateUser(ctx, "s@example.com", models.RoleStudent, "S")
	teacher, _ := r.FindOrCreateUser(ctx, "t@example.com", models.RoleTeacher, "T")

	if _, err := r.CreateQuiz(ctx, teacher.ID, "Midterm", "", defaultSettings(), false); err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}

	got, err := r.Notifications(ctx, student.ID)
	if err != nil {
		t.Fatalf("Notifications: %v", err)
	}
	if len(got) != 1 || got[0].Title != "New Assessment Released" {
		t.Fatalf("expected one release notification for the student, got %+v", got)
	}
	if got[0].Type != models.NotifSuccess {
		t.Errorf("release notification type = %q", got[0].Type)
	}

	teacherGot, _ := r.Notifications(ctx, teacher.ID)
	if len(teacherGot) != 0 {
		t.Errorf("teacher should not be notified, got %+v", teacherGot)
	}
}

func TestSaveQuestionRegistersOnQuizInOrder(t *testing.T) {
	r := newTestRepo()
	ctx := context.Background()

	quiz, err := r.CreateQuiz(ctx, "t1", "Quiz", "", defaultSettings(), false)
	if err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}
	q1, err := r.SaveQuestion(ctx, mcq(quiz.ID, "first", "0"))
	if err != nil {
		t.Fatalf("SaveQuestion: %v", err)
	}
	q2, err := r.SaveQuestion(ctx, mcq(quiz.ID, "second", "1"))
	if err != nil {
		t.Fatalf("SaveQuestion: %v", err)
	}

	questions, err := r.QuestionsForQuiz(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("QuestionsForQuiz: %v", err)
	}
	if len(questions) != 2 || questions[0].ID != q1.ID || questions[1].ID != q2.ID {
		t.Errorf("question order not preserved: %+v", questions)
	}

	// Updating an existing question must not duplicate the quiz registration.
	q1.Text = "first, edited"
	if _, err := r.SaveQuestion(ctx, q1); err != nil {
		t.Fatalf("SaveQuestion update: %v", err)
	}
	updated, _ := r.QuizByID(ctx, quiz.ID)
	if len(updated.QuestionIDs) != 2 {
		t.Errorf("quiz question list grew on update: %v", updated.QuestionIDs)
	}
}

func TestSaveQuestionAppliesDefaults(t *testing.T) {
	r := newTestRepo()
	q := mcq("quiz1", "text", "0")
	q.Points = 0
	q.Category = ""
	saved, err := r.SaveQuestion(context.Background(), q)
	if err != nil {
		t.Fatalf("SaveQuestion: %v", err)
	}
	if saved.Points != 1 {
		t.Errorf("default points = %d, want 1", saved.Points)
	}
	if saved.Category != "General" {
		t.Errorf("default category = %q, want General", saved.Category)
	}
}

func TestSaveQuestionRejectsInvalid(t *testing.T) {
	r := newTestRepo()
	q := mcq("quiz1", "text", "0")
	q.CorrectAnswerIDs = []string{"0", "1"} // two answers on an mcq
	if _, err := r.SaveQuestion(context.Background(), q); !errors.Is(err, models.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestQuestionBankDedupesOnTextAndCategory(t *testing.T) {
	r := newTestRepo()
	ctx := context.Background()

	q := mcq("quiz1", "What is Go?", "0")
	if err := r.AddToQuestionBank(ctx, q); err != nil {
		t.Fatalf("AddToQuestionBank: %v", err)
	}
	if err := r.AddToQuestionBank(ctx, q); err != nil {
		t.Fatalf("AddToQuestionBank repeat: %v", err)
	}
	other := q
	other.Category = "History"
	if err := r.AddToQuestionBank(ctx, other); err != nil {
		t.Fatalf("AddToQuestionBank other category: %v", err)
	}

	bank, err := r.QuestionBank(ctx)
	if err != nil {
		t.Fatalf("QuestionBank: %v", err)
	}
	if len(bank) != 2 {
		t.Fatalf("bank size = %d, want 2", len(bank))
	}
	for _, b := range bank {
		if b.QuizID != models.BankQuizID {
			t.Errorf("bank copy kept quiz id %q", b.QuizID)
		}
		if !strings.HasPrefix(b.ID, "bank_") {
			t.Errorf("bank copy id %q lacks bank_ prefix", b.ID)
		}
	}
}

func TestActiveAttemptTracking(t *testing.T) {
	r := newTestRepo()
	ctx := context.Background()

	a := models.QuizAttempt{ID: "a1", StudentID: "s1", QuizID: "q1", StartedAt: time.Now()}
	if err := r.SaveAttempt(ctx, a); err != nil {
		t.Fatalf("SaveAttempt: %v", err)
	}

	got, ok, err := r.ActiveAttempt(ctx, "s1", "q1")
	if err != nil || !ok || got.ID != "a1" {
		t.Fatalf("ActiveAttempt = (%+v, %v, %v)", got, ok, err)
	}

	a.IsCompleted = true
	if err := r.SaveAttempt(ctx, a); err != nil {
		t.Fatalf("SaveAttempt: %v", err)
	}
	if _, ok, _ := r.ActiveAttempt(ctx, "s1", "q1"); ok {
		t.Error("completed attempt still reported active")
	}

	completed, err := r.CompletedAttempts(ctx, "s1")
	if err != nil || len(completed) != 1 {
		t.Errorf("CompletedAttempts = (%+v, %v)", completed, err)
	}
}

func TestQuizAttemptsExcludesPracticeAndOpen(t *testing.T) {
	r := newTestRepo()
	ctx := context.Background()

	attempts := []models.QuizAttempt{
		{ID: "done", StudentID: "s1", QuizID: "q1", IsCompleted: true},
		{ID: "open", StudentID: "s2", QuizID: "q1"},
		{ID: "practice", StudentID: "s3", QuizID: "q1", IsCompleted: true, IsPractice: true},
		{ID: "other", StudentID: "s4", QuizID: "q2", IsCompleted: true},
	}
	for _, a := range attempts {
		if err := r.SaveAttempt(ctx, a); err != nil {
			t.Fatalf("SaveAttempt: %v", err)
		}
	}

	got, err := r.QuizAttempts(ctx, "q1")
	if err != nil {
		t.Fatalf("QuizAttempts: %v", err)
	}
	if len(got) != 1 || got[0].ID != "done" {
		t.Errorf("QuizAttempts = %+v, want just the completed non-practice one", got)
	}
}
