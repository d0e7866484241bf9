
package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrValidation marks malformed question or settings input. Handlers map it to 400.
var ErrValidation = errors.New("validation failed")

// UserRole distinguishes the two account types.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
)

// User represents an account created on first login by email.
type User struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
}

// QuestionType is a closed set; grading dispatches by exhaustive switch.
type QuestionType string

const (
	MCQ             QuestionType = "mcq"
	MultipleCorrect QuestionType = "multiple_correct"
	TrueFalse       QuestionType = "true_false"
)

// Option is one answer choice. IDs are unique within a question.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// BankQuizID is the sentinel owner for question-bank copies.
const BankQuizID = "bank"

// Question belongs to a quiz (or the bank). CorrectAnswerIDs is always a
// subset of the option ids: exactly one for mcq/true_false, one or more for
// multiple_correct.
type Question struct {
	ID               string       `json:"id"`
	QuizID           string       `json:"quizId"`
	Text             string       `json:"text"`
	Type             QuestionType `json:"type"`
	Options          []Option     `json:"options"`
	CorrectAnswerIDs []string     `json:"correctAnswerIds"`
	Points           int          `json:"points"`
	Category         string       `json:"category"`
	Explanation      string       `json:"explanation,omitempty"`
}

// Validate checks the question invariants.
func (q Question) Validate() error {
	if q.Text == "" {
		return fmt.Errorf("%w: question text is required", ErrValidation)
	}
	if q.Points < 1 {
		return fmt.Errorf("%w: points must be at least 1", ErrValidation)
	}
	if len(q.Options) == 0 {
		return fmt.Errorf("%w: question needs at least one option", ErrValidation)
	}
	optionIDs := make(map[string]bool, len(q.Options))
	for _, opt := range q.Options {
		if optionIDs[opt.ID] {
			return fmt.Errorf("%w: duplicate option id %q", ErrValidation, opt.ID)
		}
		optionIDs[opt.ID] = true
	}
	if len(q.CorrectAnswerIDs) == 0 {
		return fmt.Errorf("%w: question needs at least one correct answer", ErrValidation)
	}
	for _, id := range q.CorrectAnswerIDs {
		if !optionIDs[id] {
			return fmt.Errorf("%w: correct answer %q is not an option", ErrValidation, id)
		}
	}
	switch q.Type {
	case MCQ, TrueFalse:
		if len(q.CorrectAnswerIDs) != 1 {
			return fmt.Errorf("%w: %s questions must have exactly one correct answer", ErrValidation, q.Type)
		}
	case MultipleCorrect:
		// one-or-more, already checked
	default:
		return fmt.Errorf("%w: unknown question type %q", ErrValidation, q.Type)
	}
	return nil
}

// QuizSettings constrains how a quiz may be attempted. ScheduledAt blocks
// starts before it; ExpiresAt blocks starts after it.
type QuizSettings struct {
	TimeLimitMinutes   int        `json:"timeLimitMinutes"`
	AttemptLimit       int        `json:"attemptLimit"`
	RandomizeQuestions bool       `json:"randomizeQuestions"`
	IsPublic           bool       `json:"isPublic"`
	ScheduledAt        *time.Time `json:"scheduledAt,omitempty"`
	ExpiresAt          *time.Time `json:"expiresAt,omitempty"`
}

// Validate checks the settings invariants.
func (s QuizSettings) Validate() error {
	if s.TimeLimitMinutes <= 0 {
		return fmt.Errorf("%w: time limit must be positive", ErrValidation)
	}
	if s.AttemptLimit < 1 {
		return fmt.Errorf("%w: attempt limit must be at least 1", ErrValidation)
	}
	return nil
}

// PracticeJoinCode is the constant code carried by student-generated practice quizzes.
const PracticeJoinCode = "PRACTICE"

// Quiz is owned by a teacher and immutable except for owner overwrites.
type Quiz struct {
	ID          string       `json:"id"`
	TeacherID   string       `json:"teacherId"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	JoinCode    string       `json:"joinCode"`
	Settings    QuizSettings `json:"settings"`
	CreatedAt   time.Time    `json:"createdAt"`
	QuestionIDs []string     `json:"questionIds"`
	IsPractice  bool         `json:"isPractice"`
}

// QuizAttempt is one student's timed run through a quiz. At most one
// non-completed attempt exists per (studentId, quizId) pair; the engine
// enforces this at read/write time. Score/MaxScore are valid only once
// IsCompleted is set, which is a one-way transition.
type QuizAttempt struct {
	ID               string              `json:"id"`
	StudentID        string              `json:"studentId"`
	QuizID           string              `json:"quizId"`
	Answers          map[string][]string `json:"answers"`
	Score            int                 `json:"score"`
	MaxScore         int                 `json:"maxScore"`
	TimeTakenSeconds int                 `json:"timeTakenSeconds"`
	StartedAt        time.Time           `json:"startedAt"`
	CompletedAt      *time.Time          `json:"completedAt,omitempty"`
	IsCompleted      bool                `json:"isCompleted"`
	LastQuestionIdx  int                 `json:"lastQuestionIdx"`
	IsPractice       bool                `json:"isPractice"`
}

// NotificationType is the visual severity of a notification.
type NotificationType string

const (
	NotifInfo    NotificationType = "info"
	NotifAlert   NotificationType = "alert"
	NotifSuccess NotificationType = "success"
)

// Notification is created by the scheduler or quiz-publish events and only
// ever mutated by read-marking.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	CreatedAt time.Time        `json:"createdAt"`
	IsRead    bool             `json:"isRead"`
	Link      string           `json:"link,omitempty"`
}

// CategoryPerformance is the per-category sub-score for a single attempt.
type CategoryPerformance struct {
	Category   string `json:"category"`
	Score      int    `json:"score"`
	MaxScore   int    `json:"maxScore"`
	Percentage int    `json:"percentage"`
}

// CategoryStat is per-category accuracy aggregated over a quiz's attempts.
type CategoryStat struct {
	Category       string `json:"category"`
	Accuracy       int    `json:"accuracy"`
	CorrectCount   int    `json:"correctCount"`
	TotalQuestions int    `json:"totalQuestions"`
}

// LeaderboardEntry ranks a completed attempt: score descending, faster
// completion winning ties.
type LeaderboardEntry struct {
	StudentID        string     `json:"studentId"`
	StudentName      string     `json:"studentName"`
	Score            int        `json:"score"`
	MaxScore         int        `json:"maxScore"`
	TimeTakenSeconds int        `json:"timeTakenSeconds"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
}
