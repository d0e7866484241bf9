// --- quizdeck-server/repo/repo.go ---
package repo

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizdeck-server/models"
	"quizdeck-server/store"
	"quizdeck-server/utils"
)

// ErrNotFound marks a missing quiz, question, attempt, user or notification.
var ErrNotFound = errors.New("record not found")

const joinCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Repository implements the quiz, question, attempt, user and notification
// operations over a collection store. The store itself is last-write-wins;
// the repository serializes its own read-modify-write cycles behind a single
// mutex so concurrent requests within this process cannot interleave.
type Repository struct {
	store store.Store
	now   func() time.Time
	mu    sync.Mutex
}

// New creates a Repository over the given store.
func New(s store.Store) *Repository {
	return &Repository{store: s, now: time.Now}
}

// --- Users ---

// FindOrCreateUser resolves a user by email, creating the record on first
// sight. The id is stable across logins; role and name are immutable after
// creation.
func (r *Repository) FindOrCreateUser(ctx context.Context, email string, role models.UserRole, name string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var users []models.User
	if err := r.store.ReadAll(ctx, store.CollUsers, &users); err != nil {
		return models.User{}, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	user := models.User{
		ID:    uuid.NewString(),
		Name:  name,
		Email: email,
		Role:  role,
	}
	users = append(users, user)
	if err := r.store.WriteAll(ctx, store.CollUsers, users); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// UserByID looks up a single user.
func (r *Repository) UserByID(ctx context.Context, id string) (models.User, error) {
	var users []models.User
	if err := r.store.ReadAll(ctx, store.CollUsers, &users); err != nil {
		return models.User{}, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
}

// Users returns every known user.
func (r *Repository) Users(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.store.ReadAll(ctx, store.CollUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Students returns all student accounts, for publish fan-out.
func (r *Repository) Students(ctx context.Context) ([]models.User, error) {
	users, err := r.Users(ctx)
	if err != nil {
		return nil, err
	}
	var students []models.User
	for _, u := range users {
		if u.Role == models.RoleStudent {
			students = append(students, u)
		}
	}
	return students, nil
}

// --- Quizzes ---

// CreateQuiz mints a new quiz with a fresh join code (the constant PRACTICE
// code for practice quizzes). Publishing a non-practice quiz notifies every
// student that it is available.
func (r *Repository) CreateQuiz(ctx context.Context, teacherID, title, description string, settings models.QuizSettings, isPractice bool) (models.Quiz, error) {
	if err := settings.Validate(); err != nil {
		return models.Quiz{}, err
	}

	r.mu.Lock()
	var quizzes []models.Quiz
	if err := r.store.ReadAll(ctx, store.CollQuizzes, &quizzes); err != nil {
		r.mu.Unlock()
		return models.Quiz{}, err
	}

	joinCode := models.PracticeJoinCode
	if !isPractice {
		joinCode = newJoinCode(quizzes)
	}
	quiz := models.Quiz{
		ID:          uuid.NewString(),
		TeacherID:   teacherID,
		Title:       title,
		Description: description,
		JoinCode:    joinCode,
		Settings:    settings,
		CreatedAt:   r.now(),
		QuestionIDs: []string{},
		IsPractice:  isPractice,
	}
	quizzes = append(quizzes, quiz)
	if err := r.store.WriteAll(ctx, store.CollQuizzes, quizzes); err != nil {
		r.mu.Unlock()
		return models.Quiz{}, err
	}
	r.mu.Unlock()

	if !isPractice {
		students, err := r.Students(ctx)
		if err != nil {
			return quiz, nil // quiz exists; fan-out failure is not fatal
		}
		for _, s := range students {
			_ = r.AddNotification(ctx, s.ID, "New Assessment Released",
				fmt.Sprintf("%s is now available with code: %s", title, quiz.JoinCode),
				models.NotifSuccess, "")
		}
	}
	return quiz, nil
}

// newJoinCode returns a 6-char uppercase code not already in use.
func newJoinCode(existing []models.Quiz) string {
	inUse := make(map[string]bool, len(existing))
	for _, q := range existing {
		inUse[q.JoinCode] = true
	}
	for {
		b := make([]byte, 6)
		for i := range b {
			b[i] = joinCodeAlphabet[rand.Intn(len(joinCodeAlphabet))]
		}
		code := string(b)
		if !inUse[code] && code != models.PracticeJoinCode {
			return code
		}
	}
}

// UpdateQuiz overwrites a quiz record by id.
func (r *Repository) UpdateQuiz(ctx context.Context, quiz models.Quiz) (models.Quiz, error) {
	if err := quiz.Settings.Validate(); err != nil {
		return models.Quiz{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var quizzes []models.Quiz
	if err := r.store.ReadAll(ctx, store.CollQuizzes, &quizzes); err != nil {
		return models.Quiz{}, err
	}
	for i := range quizzes {
		if quizzes[i].ID == quiz.ID {
			quizzes[i] = quiz
			if err := r.store.WriteAll(ctx, store.CollQuizzes, quizzes); err != nil {
				return models.Quiz{}, err
			}
			return quiz, nil
		}
	}
	return models.Quiz{}, fmt.Errorf("quiz %s: %w", quiz.ID, ErrNotFound)
}

// QuizByID looks up a quiz, practice or not.
func (r *Repository) QuizByID(ctx context.Context, id string) (models.Quiz, error) {
	var quizzes []models.Quiz
	if err := r.store.ReadAll(ctx, store.CollQuizzes, &quizzes); err != nil {
		return models.Quiz{}, err
	}
	for _, q := range quizzes {
		if q.ID == id {
			return q, nil
		}
	}
	return models.Quiz{}, fmt.Errorf("quiz %s: %w", id, ErrNotFound)
}

// QuizByCode resolves a join code to a non-practice quiz. Codes are
// case-insensitive on input.
func (r *Repository) QuizByCode(ctx context.Context, code string) (models.Quiz, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	var quizzes []models.Quiz
	if err := r.store.ReadAll(ctx, store.CollQuizzes, &quizzes); err != nil {
		return models.Quiz{}, err
	}
	for _, q := range quizzes {
		if q.JoinCode == code && !q.IsPractice {
			return q, nil
		}
	}
	return models.Quiz{}, fmt.Errorf("join code %s: %w", code, ErrNotFound)
}

// TeacherQuizzes lists a teacher's non-practice quizzes.
func (r *Repository) TeacherQuizzes(ctx context.Context, teacherID string) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	if err := r.store.ReadAll(ctx, store.CollQuizzes, &quizzes); err != nil {
		return nil, err
	}
	var owned []models.Quiz
	for _, q := range quizzes {
		if q.TeacherID == teacherID && !q.IsPractice {
			owned = append(owned, q)
		}
	}
	return owned, nil
}

// PublishedQuizzes lists every non-practice quiz, regardless of owner. The
// scheduler sweeps these for upcoming windows.
func (r *Repository) PublishedQuizzes(ctx context.Context) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	if err := r.store.ReadAll(ctx, store.CollQuizzes, &quizzes); err != nil {
		return nil, err
	}
	var published []models.Quiz
	for _, q := range quizzes {
		if !q.IsPractice {
			published = append(published, q)
		}
	}
	return published, nil
}

// --- Questions ---

// SaveQuestion validates and upserts a question. New questions get an id and
// are appended to the owning quiz's ordered question list.
func (r *Repository) SaveQuestion(ctx context.Context, q models.Question) (models.Question, error) {
	if q.Points == 0 {
		q.Points = 1
	}
	if q.Category == "" {
		q.Category = "General"
	}
	if q.Type == "" {
		q.Type = models.MCQ
	}
	if err := q.Validate(); err != nil {
		return models.Question{}, err
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var questions []models.Question
	if err := r.store.ReadAll(ctx, store.CollQuestions, &questions); err != nil {
		return models.Question{}, err
	}

	updated := false
	for i := range questions {
		if questions[i].ID == q.ID {
			questions[i] = q
			updated = true
			break
		}
	}
	if !updated {
		questions = append(questions, q)

		// Register the new question on its quiz, preserving insertion order.
		var quizzes []models.Quiz
		if err := r.store.ReadAll(ctx, store.CollQuizzes, &quizzes); err != nil {
			return models.Question{}, err
		}
		for i := range quizzes {
			if quizzes[i].ID == q.QuizID && !utils.ContainsString(quizzes[i].QuestionIDs, q.ID) {
				quizzes[i].QuestionIDs = append(quizzes[i].QuestionIDs, q.ID)
				if err := r.store.WriteAll(ctx, store.CollQuizzes, quizzes); err != nil {
					return models.Question{}, err
				}
				break
			}
		}
	}

	if err := r.store.WriteAll(ctx, store.CollQuestions, questions); err != nil {
		return models.Question{}, err
	}
	return q, nil
}

// QuestionsForQuiz returns a quiz's questions in stored quiz order. If the
// quiz record is missing the raw insertion order is used.
func (r *Repository) QuestionsForQuiz(ctx context.Context, quizID string) ([]models.Question, error) {
	var questions []models.Question
	if err := r.store.ReadAll(ctx, store.CollQuestions, &questions); err != nil {
		return nil, err
	}
	var owned []models.Question
	for _, q := range questions {
		if q.QuizID == quizID {
			owned = append(owned, q)
		}
	}

	quiz, err := r.QuizByID(ctx, quizID)
	if err != nil {
		return owned, nil
	}
	position := make(map[string]int, len(quiz.QuestionIDs))
	for i, id := range quiz.QuestionIDs {
		position[id] = i
	}
	ordered := make([]models.Question, 0, len(owned))
	for _, id := range quiz.QuestionIDs {
		for _, q := range owned {
			if q.ID == id {
				ordered = append(ordered, q)
				break
			}
		}
	}
	// Questions the quiz does not index (legacy rows) trail in insertion order.
	for _, q := range owned {
		if _, ok := position[q.ID]; !ok {
			ordered = append(ordered, q)
		}
	}
	return ordered, nil
}

// AddToQuestionBank copies a question into the teacher question bank,
// deduplicating on text+category.
func (r *Repository) AddToQuestionBank(ctx context.Context, q models.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var bank []models.Question
	if err := r.store.ReadAll(ctx, store.CollQuestionBank, &bank); err != nil {
		return err
	}
	for _, existing := range bank {
		if existing.Text == q.Text && existing.Category == q.Category {
			return nil
		}
	}
	q.ID = "bank_" + uuid.NewString()
	q.QuizID = models.BankQuizID
	bank = append(bank, q)
	return r.store.WriteAll(ctx, store.CollQuestionBank, bank)
}

// QuestionBank returns the full teacher question bank.
func (r *Repository) QuestionBank(ctx context.Context) ([]models.Question, error) {
	var bank []models.Question
	if err := r.store.ReadAll(ctx, store.CollQuestionBank, &bank); err != nil {
		return nil, err
	}
	return bank, nil
}
