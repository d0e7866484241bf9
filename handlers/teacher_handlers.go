// --- quizdeck-server/handlers/teacher_handlers.go ---
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quizdeck-server/ai"
	"quizdeck-server/analytics"
	"quizdeck-server/models"
	"quizdeck-server/repo"
)

// ownedQuiz loads a quiz and checks the caller owns it. Writes the error
// response itself and reports success through the bool.
func ownedQuiz(c *gin.Context, r *repo.Repository, quizID string) (models.Quiz, bool) {
	quiz, err := r.QuizByID(c.Request.Context(), quizID)
	if err != nil {
		writeError(c, err)
		return models.Quiz{}, false
	}
	if quiz.TeacherID != userID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Quiz belongs to another teacher"})
		return models.Quiz{}, false
	}
	return quiz, true
}

// CreateQuiz creates a quiz for the calling teacher. A join code is minted
// and every student receives a release notification.
// POST /api/v1/quizzes
func CreateQuiz(r *repo.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.QuizCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}
		quiz, err := r.CreateQuiz(c.Request.Context(), userID(c), req.Title, req.Description, req.Settings, false)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, quiz)
	}
}

// UpdateQuiz overwrites a quiz's title, description and settings. Concurrent
// updates are last-write-wins.
// PUT /api/v1/quizzes/:quiz_id
func UpdateQuiz(r *repo.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.QuizCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}
		quiz, ok := ownedQuiz(c, r, c.Param("quiz_id"))
		if !ok {
			return
		}
		quiz.Title = req.Title
		quiz.Description = req.Description
		quiz.Settings = req.Settings
		updated, err := r.UpdateQuiz(c.Request.Context(), quiz)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

// ListQuizzes lists the calling teacher's quizzes.
// GET /api/v1/quizzes
func ListQuizzes(r *repo.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		quizzes, err := r.TeacherQuizzes(c.Request.Context(), userID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		if quizzes == nil {
			quizzes = []models.Quiz{}
		}
		c.JSON(http.StatusOK, quizzes)
	}
}

// GetQuiz returns one quiz owned by the caller.
// GET /api/v1/quizzes/:quiz_id
func GetQuiz(r *repo.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		quiz, ok := ownedQuiz(c, r, c.Param("quiz_id"))
		if !ok {
			return
		}
		c.JSON(http.StatusOK, quiz)
	}
}

// SaveQuestion creates or updates a question on a quiz. With "bank": true
// the question is also copied into the shared question bank.
// POST /api/v1/quizzes/:quiz_id/questions
func SaveQuestion(r *repo.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.QuestionSaveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}
		quiz, ok := ownedQuiz(c, r, c.Param("quiz_id"))
		if !ok {
			return
		}
		question := models.Question{
			ID:               req.ID,
			QuizID:           quiz.ID,
			Text:             req.Text,
			Type:             req.Type,
			Options:          req.Options,
			CorrectAnswerIDs: req.CorrectAnswerIDs,
			Points:           req.Points,
			Category:         req.Category,
			Explanation:      req.Explanation,
		}
		saved, err := r.SaveQuestion(c.Request.Context(), question)
		if err != nil {
			writeError(c, err)
			return
		}
		if req.Bank {
			if err := r.AddToQuestionBank(c.Request.Context(), saved); err != nil {
				writeError(c, err)
				return
			}
		}
		c.JSON(http.StatusOK, saved)
	}
}

// ListQuestions lists a quiz's questions in their authored order.
// GET /api/v1/quizzes/:quiz_id/questions
func ListQuestions(r *repo.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := ownedQuiz(c, r, c.Param("quiz_id")); !ok {
			return
		}
		questions, err := r.QuestionsForQuiz(c.Request.Context(), c.Param("quiz_id"))
		if err != nil {
			writeError(c, err)
			return
		}
		if questions == nil {
			questions = []models.Question{}
		}
		c.JSON(http.StatusOK, questions)
	}
}

// QuestionBank lists the shared question bank.
// GET /api/v1/question_bank
func QuestionBank(r *repo.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		questions, err := r.QuestionBank(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		if questions == nil {
			questions = []models.Question{}
		}
		c.JSON(http.StatusOK, questions)
	}
}

// GenerateQuestions asks the AI collaborator for questions on a topic and
// saves them onto the quiz. Nothing is written when generation fails.
// POST /api/v1/quizzes/:quiz_id/generate
func GenerateQuestions(r *repo.Repository, gen ai.Generator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.GenerateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}
		quiz, ok := ownedQuiz(c, r, c.Param("quiz_id"))
		if !ok {
			return
		}
		ctx := c.Request.Context()

		generated, err := gen.Generate(ctx, req.Topic, req.Count)
		if err != nil {
			writeError(c, err)
			return
		}
		// Translate the whole batch first so a bad question appends nothing.
		translated, err := translateGenerated(req.Topic, generated)
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
			if req.Bank {
				if err := r.AddToQuestionBank(ctx, saved); err != nil {
					writeError(c, err)
					return
				}
			}
			questions = append(questions, saved)
		}
		c.JSON(http.StatusCreated, questions)
	}
}

// QuizAnalytics returns the aggregate view of a quiz: attempt count, class
// average, per-category accuracy and the leaderboard.
// GET /api/v1/quizzes/:quiz_id/analytics
func QuizAnalytics(r *repo.Repository, agg *analytics.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		quiz, ok := ownedQuiz(c, r, c.Param("quiz_id"))
		if !ok {
			return
		}
		ctx := c.Request.Context()

		attempts, err := r.QuizAttempts(ctx, quiz.ID)
		if err != nil {
			writeError(c, err)
			return
		}
		average, err := agg.ClassAverage(ctx, quiz.ID)
		if err != nil {
			writeError(c, err)
			return
		}
		stats, err := agg.QuizCategoryStats(ctx, quiz.ID)
		if err != nil {
			writeError(c, err)
			return
		}
		leaderboard, err := agg.Leaderboard(ctx, quiz.ID)
		if err != nil {
			writeError(c, err)
			return
		}
		if stats == nil {
			stats = []models.CategoryStat{}
		}
		if leaderboard == nil {
			leaderboard = []models.LeaderboardEntry{}
		}
		c.JSON(http.StatusOK, models.AnalyticsResponse{
			Quiz:          quiz,
			AttemptCount:  len(attempts),
			ClassAverage:  average,
			CategoryStats: stats,
			Leaderboard:   leaderboard,
		})
	}
}

// TeacherDashboard renders the server-side overview page for a teacher.
// GET /teacher/dashboard
func TeacherDashboard(r *repo.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		quizzes, err := r.TeacherQuizzes(ctx, userID(c))
		if err != nil {
			c.HTML(http.StatusInternalServerError, "teacher_dashboard", gin.H{"error": "Failed to retrieve quizzes"})
			return
		}
		students, err := r.Students(ctx)
		if err != nil {
			c.HTML(http.StatusInternalServerError, "teacher_dashboard", gin.H{"error": "Failed to retrieve students"})
			return
		}
		name, _ := c.Get("user_name")
		c.HTML(http.StatusOK, "teacher_dashboard", gin.H{
			"title":        "Teacher Dashboard",
			"teacherName":  name,
			"quizzes":      quizzes,
			"quizCount":    len(quizzes),
			"studentCount": len(students),
		})
	}
}
