// --- quizdeck-server/analytics/analytics.go ---
package analytics

import (
	"context"
	"math"
	"sort"

	"quizdeck-server/engine"
	"quizdeck-server/models"
	"quizdeck-server/repo"
)

// Aggregator computes derived statistics from completed, non-practice
// attempts. All percentages are rounded integers in 0..100 and every zero
// denominator yields 0, never a division error.
type Aggregator struct {
	repo *repo.Repository
}

// New creates an Aggregator over the repository.
func New(r *repo.Repository) *Aggregator {
	return &Aggregator{repo: r}
}

// ClassAverage is the rounded mean of score/maxScore over a quiz's
// completed non-practice attempts, as a percentage. Zero attempts average 0.
func (a *Aggregator) ClassAverage(ctx context.Context, quizID string) (int, error) {
	attempts, err := a.repo.QuizAttempts(ctx, quizID)
	if err != nil {
		return 0, err
	}
	if len(attempts) == 0 {
		return 0, nil
	}
	total := 0.0
	for _, attempt := range attempts {
		max := attempt.MaxScore
		if max == 0 {
			max = 1
		}
		total += float64(attempt.Score) / float64(max)
	}
	return int(math.Round(total / float64(len(attempts)) * 100)), nil
}

// QuizCategoryStats aggregates per-category accuracy across all of a quiz's
// attempts, highest accuracy first. The denominator is category max points
// times attempt count, which assumes every attempt saw every question in the
// category; see DESIGN.md for the known caveat when a quiz is edited
// mid-flight.
func (a *Aggregator) QuizCategoryStats(ctx context.Context, quizID string) ([]models.CategoryStat, error) {
	questions, err := a.repo.QuestionsForQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	attempts, err := a.repo.QuizAttempts(ctx, quizID)
	if err != nil {
		return nil, err
	}

	var categories []string
	byCategory := make(map[string][]models.Question)
	for _, q := range questions {
		if _, seen := byCategory[q.Category]; !seen {
			categories = append(categories, q.Category)
		}
		byCategory[q.Category] = append(byCategory[q.Category], q)
	}

	stats := make([]models.CategoryStat, 0, len(categories))
	for _, cat := range categories {
		catQuestions := byCategory[cat]
		catPoints := 0
		for _, q := range catQuestions {
			catPoints += q.Points
		}

		earned := 0
		correctCount := 0
		for _, attempt := range attempts {
			for _, q := range catQuestions {
				if engine.IsCorrect(q, attempt.Answers[q.ID]) {
					earned += q.Points
					correctCount++
				}
			}
		}

		accuracy := 0
		if len(attempts) > 0 && catPoints > 0 {
			accuracy = int(math.Round(float64(earned) / float64(catPoints*len(attempts)) * 100))
		}
		stats = append(stats, models.CategoryStat{
			Category:       cat,
			Accuracy:       accuracy,
			CorrectCount:   correctCount,
			TotalQuestions: len(catQuestions) * len(attempts),
		})
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Accuracy > stats[j].Accuracy
	})
	return stats, nil
}

// AttemptCategoryPerformance breaks one attempt down by question category.
func AttemptCategoryPerformance(questions []models.Question, attempt models.QuizAttempt) []models.CategoryPerformance {
	var categories []string
	byCategory := make(map[string][]models.Question)
	for _, q := range questions {
		if _, seen := byCategory[q.Category]; !seen {
			categories = append(categories, q.Category)
		}
		byCategory[q.Category] = append(byCategory[q.Category], q)
	}

	perf := make([]models.CategoryPerformance, 0, len(categories))
	for _, cat := range categories {
		catScore, catMax := 0, 0
		for _, q := range byCategory[cat] {
			catMax += q.Points
			if engine.IsCorrect(q, attempt.Answers[q.ID]) {
				catScore += q.Points
			}
		}
		denom := catMax
		if denom == 0 {
			denom = 1
		}
		perf = append(perf, models.CategoryPerformance{
			Category:   cat,
			Score:      catScore,
			MaxScore:   catMax,
			Percentage: int(math.Round(float64(catScore) / float64(denom) * 100)),
		})
	}
	return perf
}

// Leaderboard orders a quiz's completed attempts by score descending,
// breaking ties by faster completion.
func (a *Aggregator) Leaderboard(ctx context.Context, quizID string) ([]models.LeaderboardEntry, error) {
	attempts, err := a.repo.QuizAttempts(ctx, quizID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(attempts, func(i, j int) bool {
		if attempts[i].Score != attempts[j].Score {
			return attempts[i].Score > attempts[j].Score
		}
		return attempts[i].TimeTakenSeconds < attempts[j].TimeTakenSeconds
	})

	entries := make([]models.LeaderboardEntry, 0, len(attempts))
	for _, attempt := range attempts {
		name := "Unknown Student"
		if user, err := a.repo.UserByID(ctx, attempt.StudentID); err == nil {
			name = user.Name
		}
		entries = append(entries, models.LeaderboardEntry{
			StudentID:        attempt.StudentID,
			StudentName:      name,
			Score:            attempt.Score,
			MaxScore:         attempt.MaxScore,
			TimeTakenSeconds: attempt.TimeTakenSeconds,
			CompletedAt:      attempt.CompletedAt,
		})
	}
	return entries, nil
}
