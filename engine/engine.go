// --- quizdeck-server/engine/engine.go ---
package engine

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"quizdeck-server/models"
	"quizdeck-server/repo"
	"quizdeck-server/utils"
)

// Entry-blocking conditions, checked in order by Start. Each one is a
// distinct, recoverable failure the caller renders as a persistent
// explanation rather than a transient notice.
var (
	ErrAttemptLimit     = errors.New("maximum attempts reached")
	ErrNotYetOpen       = errors.New("assessment is not open yet")
	ErrWindowClosed     = errors.New("assessment window closed")
	ErrAttemptCompleted = errors.New("attempt already completed")
)

// Engine manages the attempt lifecycle: start, autosave, resumption,
// time-expiry and submission with grading.
type Engine struct {
	repo *repo.Repository
	now  func() time.Time
}

// New creates an Engine over the repository.
func New(r *repo.Repository) *Engine {
	return &Engine{repo: r, now: time.Now}
}

// Session is the materialized state a student works against: the attempt,
// the quiz's ordered question list and the seconds left on the clock.
type Session struct {
	Attempt          models.QuizAttempt
	Questions        []models.Question
	RemainingSeconds int
	Resumed          bool
}

// Start begins or resumes an attempt. Preconditions, each a distinct
// failure, checked in order: the quiz exists; the completed-attempt count is
// under the limit unless an active attempt is being resumed; the scheduled
// window has opened; the expiry window has not closed.
//
// Resuming an attempt whose time has already run out submits it immediately
// with whatever the last autosave captured.
func (e *Engine) Start(ctx context.Context, studentID, quizID string) (*Session, error) {
	quiz, err := e.repo.QuizByID(ctx, quizID)
	if err != nil {
		return nil, err
	}

	active, hasActive, err := e.repo.ActiveAttempt(ctx, studentID, quizID)
	if err != nil {
		return nil, err
	}
	completed, err := e.repo.CompletedAttempts(ctx, studentID)
	if err != nil {
		return nil, err
	}
	completedHere := 0
	for _, a := range completed {
		if a.QuizID == quizID {
			completedHere++
		}
	}
	if completedHere >= quiz.Settings.AttemptLimit && !hasActive {
		return nil, fmt.Errorf("quiz %s: %w (%d)", quizID, ErrAttemptLimit, quiz.Settings.AttemptLimit)
	}

	now := e.now()
	if quiz.Settings.ScheduledAt != nil && quiz.Settings.ScheduledAt.After(now) {
		return nil, fmt.Errorf("quiz %s: %w until %s", quizID, ErrNotYetOpen, quiz.Settings.ScheduledAt.Format(time.RFC3339))
	}
	if quiz.Settings.ExpiresAt != nil && quiz.Settings.ExpiresAt.Before(now) {
		return nil, fmt.Errorf("quiz %s: %w", quizID, ErrWindowClosed)
	}

	limitSeconds := quiz.Settings.TimeLimitMinutes * 60

	if hasActive {
		remaining := limitSeconds - int(now.Sub(active.StartedAt).Seconds())
		if remaining <= 0 {
			submitted, err := e.Submit(ctx, active.ID)
			if err != nil {
				return nil, err
			}
			questions, err := e.sessionQuestions(ctx, quiz, submitted.ID)
			if err != nil {
				return nil, err
			}
			return &Session{Attempt: submitted, Questions: questions, RemainingSeconds: 0, Resumed: true}, nil
		}
		questions, err := e.sessionQuestions(ctx, quiz, active.ID)
		if err != nil {
			return nil, err
		}
		return &Session{Attempt: active, Questions: questions, RemainingSeconds: remaining, Resumed: true}, nil
	}

	attempt := models.QuizAttempt{
		ID:              uuid.NewString(),
		StudentID:       studentID,
		QuizID:          quizID,
		Answers:         map[string][]string{},
		StartedAt:       now,
		IsCompleted:     false,
		LastQuestionIdx: 0,
	}
	if err := e.repo.SaveAttempt(ctx, attempt); err != nil {
		return nil, err
	}
	questions, err := e.sessionQuestions(ctx, quiz, attempt.ID)
	if err != nil {
		return nil, err
	}
	return &Session{Attempt: attempt, Questions: questions, RemainingSeconds: limitSeconds}, nil
}

// sessionQuestions materializes the quiz's question list in the order this
// attempt should see it. Randomization is seeded from the attempt id, so a
// resumed attempt never reshuffles.
func (e *Engine) sessionQuestions(ctx context.Context, quiz models.Quiz, attemptID string) ([]models.Question, error) {
	questions, err := e.repo.QuestionsForQuiz(ctx, quiz.ID)
	if err != nil {
		return nil, err
	}
	if quiz.Settings.RandomizeQuestions {
		sum := sha256.Sum256([]byte(attemptID))
		r := rand.New(rand.NewSource(utils.BytesToInt(sum[:])))
		r.Shuffle(len(questions), func(i, j int) {
			questions[i], questions[j] = questions[j], questions[i]
		})
	}
	return questions, nil
}

// RecordAnswer mutates the attempt's answer set in memory; persistence is
// the caller's concern. Single-answer types replace the selection; a
// multiple_correct selection toggles membership.
func RecordAnswer(attempt *models.QuizAttempt, question models.Question, optionID string) {
	if attempt.Answers == nil {
		attempt.Answers = map[string][]string{}
	}
	switch question.Type {
	case models.MCQ, models.TrueFalse:
		attempt.Answers[question.ID] = []string{optionID}
	case models.MultipleCorrect:
		current := attempt.Answers[question.ID]
		if utils.ContainsString(current, optionID) {
			next := make([]string, 0, len(current)-1)
			for _, id := range current {
				if id != optionID {
					next = append(next, id)
				}
			}
			attempt.Answers[question.ID] = next
		} else {
			attempt.Answers[question.ID] = append(current, optionID)
		}
	}
}

// Answer applies a single selection to a stored attempt and persists it.
func (e *Engine) Answer(ctx context.Context, attemptID, questionID, optionID string) (models.QuizAttempt, error) {
	attempt, err := e.repo.AttemptByID(ctx, attemptID)
	if err != nil {
		return models.QuizAttempt{}, err
	}
	if attempt.IsCompleted {
		return models.QuizAttempt{}, fmt.Errorf("attempt %s: %w", attemptID, ErrAttemptCompleted)
	}
	questions, err := e.repo.QuestionsForQuiz(ctx, attempt.QuizID)
	if err != nil {
		return models.QuizAttempt{}, err
	}
	var question models.Question
	found := false
	for _, q := range questions {
		if q.ID == questionID {
			question = q
			found = true
			break
		}
	}
	if !found {
		return models.QuizAttempt{}, fmt.Errorf("question %s: %w", questionID, repo.ErrNotFound)
	}
	RecordAnswer(&attempt, question, optionID)
	if err := e.repo.SaveAttempt(ctx, attempt); err != nil {
		return models.QuizAttempt{}, err
	}
	return attempt, nil
}

// Autosave overwrites the attempt's in-progress state. TimeTakenSeconds is
// elapsed-so-far derived from the reported time left, not wall clock.
// Completed attempts are returned untouched, so a late save after
// submission cannot clobber a graded record.
func (e *Engine) Autosave(ctx context.Context, attemptID string, answers map[string][]string, lastQuestionIdx, timeLeft int) (models.QuizAttempt, error) {
	attempt, err := e.repo.AttemptByID(ctx, attemptID)
	if err != nil {
		return models.QuizAttempt{}, err
	}
	if attempt.IsCompleted {
		return attempt, nil
	}
	quiz, err := e.repo.QuizByID(ctx, attempt.QuizID)
	if err != nil {
		return models.QuizAttempt{}, err
	}
	if answers != nil {
		attempt.Answers = answers
	}
	if lastQuestionIdx >= 0 {
		attempt.LastQuestionIdx = lastQuestionIdx
	}
	// The reported clock is client-supplied; clamp it so the derived elapsed
	// time stays inside the quiz's limit.
	limitSeconds := quiz.Settings.TimeLimitMinutes * 60
	if timeLeft < 0 {
		timeLeft = 0
	} else if timeLeft > limitSeconds {
		timeLeft = limitSeconds
	}
	attempt.TimeTakenSeconds = limitSeconds - timeLeft
	if err := e.repo.SaveAttempt(ctx, attempt); err != nil {
		return models.QuizAttempt{}, err
	}
	return attempt, nil
}

// Submit grades and finalizes an attempt. It is idempotent: an already
// completed attempt is returned unchanged, never re-graded, which protects
// against the timer-expiry and manual-submit paths firing together.
func (e *Engine) Submit(ctx context.Context, attemptID string) (models.QuizAttempt, error) {
	attempt, err := e.repo.AttemptByID(ctx, attemptID)
	if err != nil {
		return models.QuizAttempt{}, err
	}
	if attempt.IsCompleted {
		return attempt, nil
	}

	questions, err := e.repo.QuestionsForQuiz(ctx, attempt.QuizID)
	if err != nil {
		return models.QuizAttempt{}, err
	}

	score, maxScore := Grade(questions, attempt.Answers)
	attempt.Score = score
	attempt.MaxScore = maxScore
	attempt.IsCompleted = true
	completedAt := e.now().UTC()
	attempt.CompletedAt = &completedAt

	// A quiz is never deleted in this flow, but a missing record degrades to
	// a non-practice attempt rather than blocking submission.
	if quiz, err := e.repo.QuizByID(ctx, attempt.QuizID); err == nil {
		attempt.IsPractice = quiz.IsPractice
	}

	if err := e.repo.SaveAttempt(ctx, attempt); err != nil {
		return models.QuizAttempt{}, err
	}
	return attempt, nil
}

// Grade computes (score, maxScore) for a question set against an answer
// map. A question absent from the map is unanswered, never an error.
func Grade(questions []models.Question, answers map[string][]string) (int, int) {
	score, maxScore := 0, 0
	for _, q := range questions {
		maxScore += q.Points
		if IsCorrect(q, answers[q.ID]) {
			score += q.Points
		}
	}
	return score, maxScore
}

// IsCorrect applies the grading rule for one question. Single-answer types
// require exactly the one correct option; multiple_correct requires exact
// set equality. Partial credit is never given.
func IsCorrect(q models.Question, selected []string) bool {
	switch q.Type {
	case models.MCQ, models.TrueFalse:
		return len(selected) == 1 && len(q.CorrectAnswerIDs) == 1 && selected[0] == q.CorrectAnswerIDs[0]
	case models.MultipleCorrect:
		return utils.SameStringSet(selected, q.CorrectAnswerIDs)
	default:
		return false
	}
}

// ExpireOverdue submits every in-progress attempt whose time limit has
// elapsed, using the answers captured by the last autosave. Run from the
// scheduler tick; returns the number of attempts it closed.
func (e *Engine) ExpireOverdue(ctx context.Context) (int, error) {
	open, err := e.repo.OpenAttempts(ctx)
	if err != nil {
		return 0, err
	}
	now := e.now()
	closed := 0
	for _, a := range open {
		quiz, err := e.repo.QuizByID(ctx, a.QuizID)
		if err != nil {
			continue
		}
		deadline := a.StartedAt.Add(time.Duration(quiz.Settings.TimeLimitMinutes) * time.Minute)
		if now.After(deadline) {
			if _, err := e.Submit(ctx, a.ID); err != nil {
				log.Printf("Error auto-submitting overdue attempt %s: %v", a.ID, err)
				continue
			}
			closed++
		}
	}
	return closed, nil
}
