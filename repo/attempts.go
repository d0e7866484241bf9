// --- quizdeck-server/repo/attempts.go ---
package repo

import (
	"context"
	"fmt"

	"quizdeck-server/models"
	"quizdeck-server/store"
)

// SaveAttempt upserts the full attempt record keyed by its id. This is the
// autosave sink: repeat calls overwrite with the latest state and have no
// other side effects.
func (r *Repository) SaveAttempt(ctx context.Context, attempt models.QuizAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var attempts []models.QuizAttempt
	if err := r.store.ReadAll(ctx, store.CollAttempts, &attempts); err != nil {
		return err
	}
	replaced := false
	for i := range attempts {
		if attempts[i].ID == attempt.ID {
			attempts[i] = attempt
			replaced = true
			break
		}
	}
	if !replaced {
		attempts = append(attempts, attempt)
	}
	return r.store.WriteAll(ctx, store.CollAttempts, attempts)
}

// AttemptByID looks up a single attempt.
func (r *Repository) AttemptByID(ctx context.Context, id string) (models.QuizAttempt, error) {
	var attempts []models.QuizAttempt
	if err := r.store.ReadAll(ctx, store.CollAttempts, &attempts); err != nil {
		return models.QuizAttempt{}, err
	}
	for _, a := range attempts {
		if a.ID == id {
			return a, nil
		}
	}
	return models.QuizAttempt{}, fmt.Errorf("attempt %s: %w", id, ErrNotFound)
}

// ActiveAttempt returns the single in-progress attempt for a (student, quiz)
// pair, if one exists.
func (r *Repository) ActiveAttempt(ctx context.Context, studentID, quizID string) (models.QuizAttempt, bool, error) {
	var attempts []models.QuizAttempt
	if err := r.store.ReadAll(ctx, store.CollAttempts, &attempts); err != nil {
		return models.QuizAttempt{}, false, err
	}
	for _, a := range attempts {
		if a.StudentID == studentID && a.QuizID == quizID && !a.IsCompleted {
			return a, true, nil
		}
	}
	return models.QuizAttempt{}, false, nil
}

// ActiveAttempts lists all of a student's resumable attempts.
func (r *Repository) ActiveAttempts(ctx context.Context, studentID string) ([]models.QuizAttempt, error) {
	var attempts []models.QuizAttempt
	if err := r.store.ReadAll(ctx, store.CollAttempts, &attempts); err != nil {
		return nil, err
	}
	var active []models.QuizAttempt
	for _, a := range attempts {
		if a.StudentID == studentID && !a.IsCompleted {
			active = append(active, a)
		}
	}
	return active, nil
}

// OpenAttempts lists every in-progress attempt, for the overdue sweep.
func (r *Repository) OpenAttempts(ctx context.Context) ([]models.QuizAttempt, error) {
	var attempts []models.QuizAttempt
	if err := r.store.ReadAll(ctx, store.CollAttempts, &attempts); err != nil {
		return nil, err
	}
	var open []models.QuizAttempt
	for _, a := range attempts {
		if !a.IsCompleted {
			open = append(open, a)
		}
	}
	return open, nil
}

// CompletedAttempts lists a student's finished attempts, practice included.
func (r *Repository) CompletedAttempts(ctx context.Context, studentID string) ([]models.QuizAttempt, error) {
	var attempts []models.QuizAttempt
	if err := r.store.ReadAll(ctx, store.CollAttempts, &attempts); err != nil {
		return nil, err
	}
	var completed []models.QuizAttempt
	for _, a := range attempts {
		if a.StudentID == studentID && a.IsCompleted {
			completed = append(completed, a)
		}
	}
	return completed, nil
}

// QuizAttempts lists the completed, non-practice attempts for a quiz, the
// population every teacher-facing aggregate is computed over.
func (r *Repository) QuizAttempts(ctx context.Context, quizID string) ([]models.QuizAttempt, error) {
	var attempts []models.QuizAttempt
	if err := r.store.ReadAll(ctx, store.CollAttempts, &attempts); err != nil {
		return nil, err
	}
	var completed []models.QuizAttempt
	for _, a := range attempts {
		if a.QuizID == quizID && a.IsCompleted && !a.IsPractice {
			completed = append(completed, a)
		}
	}
	return completed, nil
}
