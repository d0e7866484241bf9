package analytics

import (
	"context"
	"testing"

	"quizdeck-server/models"
	"quizdeck-server/repo"
	"quizdeck-server/store"
)

func setup(t *testing.T) (*repo.Repository, *Aggregator, models.Quiz, []models.Question) {
	t.Helper()
	r := repo.New(store.NewMemory())
	ctx := context.Background()

	quiz, err := r.CreateQuiz(ctx, "t1", "Quiz", "", models.QuizSettings{TimeLimitMinutes: 10, AttemptLimit: 3}, false)
	if err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}
	q1, err := r.SaveQuestion(ctx, models.Question{
		QuizID:           quiz.ID,
		Text:             "basics q",
		Type:             models.MCQ,
		Options:          []models.Option{{ID: "0", Text: "a"}, {ID: "1", Text: "b"}},
		CorrectAnswerIDs: []string{"0"},
		Points:           1,
		Category:         "Basics",
	})
	if err != nil {
		t.Fatalf("SaveQuestion: %v", err)
	}
	q2, err := r.SaveQuestion(ctx, models.Question{
		QuizID:           quiz.ID,
		Text:             "advanced q",
		Type:             models.MultipleCorrect,
		Options:          []models.Option{{ID: "0", Text: "a"}, {ID: "1", Text: "b"}, {ID: "2", Text: "c"}},
		CorrectAnswerIDs: []string{"0", "2"},
		Points:           3,
		Category:         "Advanced",
	})
	if err != nil {
		t.Fatalf("SaveQuestion: %v", err)
	}
	return r, New(r), quiz, []models.Question{q1, q2}
}

func saveCompleted(t *testing.T, r *repo.Repository, a models.QuizAttempt) {
	t.Helper()
	a.IsCompleted = true
	if err := r.SaveAttempt(context.Background(), a); err != nil {
		t.Fatalf("SaveAttempt: %v", err)
	}
}

func TestClassAverageZeroAttempts(t *testing.T) {
	_, agg, quiz, _ := setup(t)
	avg, err := agg.ClassAverage(context.Background(), quiz.ID)
	if err != nil {
		t.Fatalf("ClassAverage: %v", err)
	}
	if avg != 0 {
		t.Errorf("empty average = %d, want 0", avg)
	}
}

func TestClassAverageRoundsMean(t *testing.T) {
	r, agg, quiz, _ := setup(t)

	// 4/4 and 1/4: mean of 100% and 25% is 62.5 -> 63.
	saveCompleted(t, r, models.QuizAttempt{ID: "a1", StudentID: "s1", QuizID: quiz.ID, Score: 4, MaxScore: 4})
	saveCompleted(t, r, models.QuizAttempt{ID: "a2", StudentID: "s2", QuizID: quiz.ID, Score: 1, MaxScore: 4})

	avg, err := agg.ClassAverage(context.Background(), quiz.ID)
	if err != nil {
		t.Fatalf("ClassAverage: %v", err)
	}
	if avg != 63 {
		t.Errorf("average = %d, want 63", avg)
	}
}

func TestClassAverageIgnoresPracticeAndOpenAttempts(t *testing.T) {
	r, agg, quiz, _ := setup(t)
	ctx := context.Background()

	saveCompleted(t, r, models.QuizAttempt{ID: "a1", StudentID: "s1", QuizID: quiz.ID, Score: 4, MaxScore: 4})
	saveCompleted(t, r, models.QuizAttempt{ID: "a2", StudentID: "s2", QuizID: quiz.ID, Score: 0, MaxScore: 4, IsPractice: true})
	if err := r.SaveAttempt(ctx, models.QuizAttempt{ID: "a3", StudentID: "s3", QuizID: quiz.ID}); err != nil {
		t.Fatalf("SaveAttempt: %v", err)
	}

	avg, err := agg.ClassAverage(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("ClassAverage: %v", err)
	}
	if avg != 100 {
		t.Errorf("average = %d, want 100 (practice and open attempts excluded)", avg)
	}
}

func TestClassAverageZeroMaxScoreDoesNotDivideByZero(t *testing.T) {
	r, agg, quiz, _ := setup(t)
	saveCompleted(t, r, models.QuizAttempt{ID: "a1", StudentID: "s1", QuizID: quiz.ID, Score: 0, MaxScore: 0})
	avg, err := agg.ClassAverage(context.Background(), quiz.ID)
	if err != nil {
		t.Fatalf("ClassAverage: %v", err)
	}
	if avg != 0 {
		t.Errorf("average = %d, want 0", avg)
	}
}

func TestQuizCategoryStatsSortedByAccuracy(t *testing.T) {
	r, agg, quiz, qs := setup(t)
	ctx := context.Background()

	// Attempt 1: Basics correct, Advanced wrong. Attempt 2: both correct.
	saveCompleted(t, r, models.QuizAttempt{
		ID: "a1", StudentID: "s1", QuizID: quiz.ID,
		Answers: map[string][]string{qs[0].ID: {"0"}, qs[1].ID: {"1"}},
	})
	saveCompleted(t, r, models.QuizAttempt{
		ID: "a2", StudentID: "s2", QuizID: quiz.ID,
		Answers: map[string][]string{qs[0].ID: {"0"}, qs[1].ID: {"2", "0"}},
	})

	stats, err := agg.QuizCategoryStats(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("QuizCategoryStats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("stats count = %d, want 2", len(stats))
	}
	// Basics: 2 of 2 points earned over 2 attempts -> 100.
	// Advanced: 3 of 6 points earned -> 50.
	if stats[0].Category != "Basics" || stats[0].Accuracy != 100 {
		t.Errorf("stats[0] = %+v, want Basics at 100", stats[0])
	}
	if stats[1].Category != "Advanced" || stats[1].Accuracy != 50 {
		t.Errorf("stats[1] = %+v, want Advanced at 50", stats[1])
	}
	if stats[0].CorrectCount != 2 || stats[0].TotalQuestions != 2 {
		t.Errorf("Basics counts = %d/%d, want 2/2", stats[0].CorrectCount, stats[0].TotalQuestions)
	}
}

func TestQuizCategoryStatsNoAttempts(t *testing.T) {
	_, agg, quiz, _ := setup(t)
	stats, err := agg.QuizCategoryStats(context.Background(), quiz.ID)
	if err != nil {
		t.Fatalf("QuizCategoryStats: %v", err)
	}
	for _, s := range stats {
		if s.Accuracy != 0 {
			t.Errorf("category %s accuracy = %d with no attempts", s.Category, s.Accuracy)
		}
	}
}

func TestAttemptCategoryPerformance(t *testing.T) {
	_, _, _, qs := setup(t)

	attempt := models.QuizAttempt{
		Answers: map[string][]string{
			qs[0].ID: {"0"},      // Basics correct, 1/1
			qs[1].ID: {"0", "1"}, // Advanced wrong, 0/3
		},
	}
	perf := AttemptCategoryPerformance(qs, attempt)
	if len(perf) != 2 {
		t.Fatalf("perf count = %d, want 2", len(perf))
	}
	if perf[0].Category != "Basics" || perf[0].Score != 1 || perf[0].MaxScore != 1 || perf[0].Percentage != 100 {
		t.Errorf("Basics perf = %+v", perf[0])
	}
	if perf[1].Category != "Advanced" || perf[1].Score != 0 || perf[1].MaxScore != 3 || perf[1].Percentage != 0 {
		t.Errorf("Advanced perf = %+v", perf[1])
	}
}

func TestLeaderboardOrderingAndTieBreak(t *testing.T) {
	r, agg, quiz, _ := setup(t)
	ctx := context.Background()

	alice, _ := r.FindOrCreateUser(ctx, "alice@example.com", models.RoleStudent, "Alice")
	bob, _ := r.FindOrCreateUser(ctx, "bob@example.com", models.RoleStudent, "Bob")

	saveCompleted(t, r, models.QuizAttempt{ID: "a1", StudentID: alice.ID, QuizID: quiz.ID, Score: 3, MaxScore: 4, TimeTakenSeconds: 300})
	saveCompleted(t, r, models.QuizAttempt{ID: "a2", StudentID: bob.ID, QuizID: quiz.ID, Score: 3, MaxScore: 4, TimeTakenSeconds: 200})
	saveCompleted(t, r, models.QuizAttempt{ID: "a3", StudentID: "ghost", QuizID: quiz.ID, Score: 4, MaxScore: 4, TimeTakenSeconds: 500})

	board, err := agg.Leaderboard(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(board) != 3 {
		t.Fatalf("leaderboard size = %d, want 3", len(board))
	}
	if board[0].StudentID != "ghost" {
		t.Errorf("top score not first: %+v", board[0])
	}
	if board[0].StudentName != "Unknown Student" {
		t.Errorf("missing user should fall back to placeholder, got %q", board[0].StudentName)
	}
	// Tied scores: faster time wins.
	if board[1].StudentName != "Bob" || board[2].StudentName != "Alice" {
		t.Errorf("tie not broken by time: %q then %q", board[1].StudentName, board[2].StudentName)
	}
}
