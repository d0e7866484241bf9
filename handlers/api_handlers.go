// --- quizdeck-server/handlers/api_handlers.go ---
package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"quizdeck-server/ai"
	"quizdeck-server/analytics"
	"quizdeck-server/config"
	"quizdeck-server/engine"
	"quizdeck-server/middleware"
	"quizdeck-server/models"
	"quizdeck-server/repo"
)

// writeError maps domain errors onto HTTP status codes. Unknown errors are
// logged and reported as 500 without leaking detail.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, engine.ErrAttemptCompleted):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repo.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, engine.ErrAttemptLimit),
		errors.Is(err, engine.ErrNotYetOpen),
		errors.Is(err, engine.ErrWindowClosed):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, ai.ErrGeneration):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		log.Printf("Internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// userID pulls the authenticated user's id out of the gin context.
func userID(c *gin.Context) string {
	id, _ := c.Get("user_id")
	s, _ := id.(string)
	return s
}

// translateGenerated converts a generated batch into validated Question
// entities with the given category. Any bad question fails the whole batch
// as a generation error, before anything is persisted.
func translateGenerated(category string, generated []ai.GeneratedQuestion) ([]models.Question, error) {
	questions := make([]models.Question, 0, len(generated))
	for _, gq := range generated {
		q, err := ai.ToQuestion("", category, gq)
		if err != nil {
			return nil, err
		}
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ai.ErrGeneration, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// ownedAttempt loads an attempt and checks the caller is its student. Writes
// the error response itself and reports success through the bool.
func ownedAttempt(c *gin.Context, r *repo.Repository, attemptID string) (models.QuizAttempt, bool) {
	attempt, err := r.AttemptByID(c.Request.Context(), attemptID)
	if err != nil {
		writeError(c, err)
		return models.QuizAttempt{}, false
	}
	if attempt.StudentID != userID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Attempt belongs to another student"})
		return models.QuizAttempt{}, false
	}
	return attempt, true
}

// Login resolves or creates a user by email and issues a bearer token.
// POST /api/v1/auth/login
func Login(r *repo.Repository, auth config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}
		user, err := r.FindOrCreateUser(c.Request.Context(), req.Email, req.Role, req.Name)
		if err != nil {
			writeError(c, err)
			return
		}
		token, err := middleware.IssueToken(auth.JWTSigningKey, auth.Issuer, auth.TokenTTL, user)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.LoginResponse{User: user, Token: token})
	}
}

// JoinQuiz resolves a join code to its quiz.
// GET /api/v1/join/:code
func JoinQuiz(r *repo.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		quiz, err := r.QuizByCode(c.Request.Context(), c.Param("code"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, quiz)
	}
}

// StartAttempt starts a new attempt or resumes the student's in-progress one.
// POST /api/v1/attempts
func StartAttempt(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.AttemptStartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}
		session, err := e.Start(c.Request.Context(), userID(c), req.QuizID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.AttemptSessionResponse{
			Attempt:          session.Attempt,
			Questions:        session.Questions,
			RemainingSeconds: session.RemainingSeconds,
			Resumed:          session.Resumed,
		})
	}
}

// Autosave persists in-progress attempt state for the calling student.
// PUT /api/v1/attempts/:attempt_id
func Autosave(r *repo.Repository, e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.AutosaveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}
		if _, ok := ownedAttempt(c, r, c.Param("attempt_id")); !ok {
			return
		}
		attempt, err := e.Autosave(c.Request.Context(), c.Param("attempt_id"), req.Answers, req.LastQuestionIdx, req.TimeLeft)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, attempt)
	}
}

// RecordAnswer records a single option selection on the calling student's
// attempt.
// POST /api/v1/attempts/:attempt_id/answer
func RecordAnswer(r *repo.Repository, e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.AnswerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}
		if _, ok := ownedAttempt(c, r, c.Param("attempt_id")); !ok {
			return
		}
		attempt, err := e.Answer(c.Request.Context(), c.Param("attempt_id"), req.QuestionID, req.OptionID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, attempt)
	}
}

// SubmitAttempt grades and finalizes the calling student's attempt.
// Submitting an already completed attempt returns it unchanged.
// POST /api/v1/attempts/:attempt_id/submit
func SubmitAttempt(r *repo.Repository, e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := ownedAttempt(c, r, c.Param("attempt_id")); !ok {
			return
		}
		attempt, err := e.Submit(c.Request.Context(), c.Param("attempt_id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, attempt)
	}
}

// AttemptResults returns the graded view of a completed attempt, including
// the per-category breakdown.
// GET /api/v1/attempts/:attempt_id/results
func AttemptResults(r *repo.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		attempt, ok := ownedAttempt(c, r, c.Param("attempt_id"))
		if !ok {
			return
		}
		if !attempt.IsCompleted {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Attempt is not completed yet"})
			return
		}
		quiz, err := r.QuizByID(ctx, attempt.QuizID)
		if err != nil {
			writeError(c, err)
			return
		}
		questions, err := r.QuestionsForQuiz(ctx, attempt.QuizID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ResultsResponse{
			Attempt:             attempt,
			Quiz:                quiz,
			Questions:           questions,
			CategoryPerformance: analytics.AttemptCategoryPerformance(questions, attempt),
		})
	}
}

// StudentHistory lists the student's completed attempts, practice included.
// GET /api/v1/students/me/attempts
func StudentHistory(r *repo.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		attempts, err := r.CompletedAttempts(c.Request.Context(), userID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		if attempts == nil {
			attempts = []models.QuizAttempt{}
		}
		c.JSON(http.StatusOK, attempts)
	}
}

// ActiveAttempts lists the student's in-progress attempts.
// GET /api/v1/students/me/active
func ActiveAttempts(r *repo.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		attempts, err := r.ActiveAttempts(c.Request.Context(), userID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		if attempts == nil {
			attempts = []models.QuizAttempt{}
		}
		c.JSON(http.StatusOK, attempts)
	}
}

// CreatePractice generates a self-serve mock test for the calling student.
// Questions are generated before any quiz record is written, so a
// generation failure leaves no partial state behind.
// POST /api/v1/practice
func CreatePractice(r *repo.Repository, gen ai.Generator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.PracticeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}
		ctx := c.Request.Context()

		generated, err := gen.Generate(ctx, req.Topic, req.Count)
		if err != nil {
			writeError(c, err)
			return
		}
		// Translate the whole batch before writing anything, so one bad
		// question leaves no partial quiz behind.
		translated, err := translateGenerated(req.Topic, generated)
		if err != nil {
			writeError(c, err)
			return
		}

		settings := models.QuizSettings{
			TimeLimitMinutes:   2 * req.Count,
			AttemptLimit:       1,
			RandomizeQuestions: true,
			IsPublic:           false,
		}
		quiz, err := r.CreateQuiz(ctx, userID(c), "Practice: "+req.Topic, "Self-generated practice test on "+req.Topic, settings, true)
		if err != nil {
			writeError(c, err)
			return
		}

		var questions []models.Question
		for _, q := range translated {
			q.QuizID = quiz.ID
			saved, err := r.SaveQuestion(ctx, q)
			if err != nil {
				writeError(c, err)
				return
			}
			questions = append(questions, saved)
		}
		quiz, err = r.QuizByID(ctx, quiz.ID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"quiz": quiz, "questions": questions})
	}
}

// Notifications lists the user's notifications, newest first.
// GET /api/v1/notifications
func Notifications(r *repo.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		notifications, err := r.Notifications(c.Request.Context(), userID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		if notifications == nil {
			notifications = []models.Notification{}
		}
		c.JSON(http.StatusOK, notifications)
	}
}

// MarkNotificationRead marks a single notification read.
// POST /api/v1/notifications/:id/read
func MarkNotificationRead(r *repo.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := r.MarkNotificationRead(c.Request.Context(), c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// MarkAllNotificationsRead marks every notification for the user read.
// POST /api/v1/notifications/read_all
func MarkAllNotificationsRead(r *repo.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := r.MarkAllNotificationsRead(c.Request.Context(), userID(c)); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
