
package models

// LoginRequest resolves or creates a user from an email+role pair.
type LoginRequest struct {
	Email string   `json:"email" binding:"required,email"`
	Role  UserRole `json:"role" binding:"required,oneof=student teacher"`
	Name  string   `json:"name" binding:"required"`
}

// LoginResponse carries the resolved user and a signed bearer token.
type LoginResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// QuizCreateRequest for POST /quizzes and PUT /quizzes/:quiz_id.
type QuizCreateRequest struct {
	Title       string       `json:"title" binding:"required"`
	Description string       `json:"description"`
	Settings    QuizSettings `json:"settings"`
}

// QuestionSaveRequest for POST /quizzes/:quiz_id/questions. Bank copies the
// question into the teacher's question bank as well.
type QuestionSaveRequest struct {
	ID               string       `json:"id"`
	Text             string       `json:"text" binding:"required"`
	Type             QuestionType `json:"type" binding:"required,oneof=mcq multiple_correct true_false"`
	Options          []Option     `json:"options" binding:"required"`
	CorrectAnswerIDs []string     `json:"correctAnswerIds" binding:"required"`
	Points           int          `json:"points"`
	Category         string       `json:"category"`
	Explanation      string       `json:"explanation"`
	Bank             bool         `json:"bank"`
}

// GenerateRequest asks the AI collaborator to populate a quiz.
type GenerateRequest struct {
	Topic string `json:"topic" binding:"required"`
	Count int    `json:"count" binding:"required,min=1"`
	Bank  bool   `json:"bank"`
}

// PracticeRequest creates a self-generated mock test for a student.
type PracticeRequest struct {
	Topic string `json:"topic" binding:"required"`
	Count int    `json:"count" binding:"required,min=1"`
}

// AttemptStartRequest for POST /attempts.
type AttemptStartRequest struct {
	QuizID string `json:"quizId" binding:"required"`
}

// AutosaveRequest persists in-progress attempt state. TimeLeft is the
// client's remaining seconds at the moment of the save.
type AutosaveRequest struct {
	Answers         map[string][]string `json:"answers"`
	LastQuestionIdx int                 `json:"lastQuestionIdx"`
	TimeLeft        int                 `json:"timeLeft"`
}

// AnswerRequest records a single option selection.
type AnswerRequest struct {
	QuestionID string `json:"questionId" binding:"required"`
	OptionID   string `json:"optionId" binding:"required"`
}

// AttemptSessionResponse is returned by start/resume.
type AttemptSessionResponse struct {
	Attempt          QuizAttempt `json:"attempt"`
	Questions        []Question  `json:"questions"`
	RemainingSeconds int         `json:"remainingSeconds"`
	Resumed          bool        `json:"resumed"`
}

// ResultsResponse is the graded view of a completed attempt.
type ResultsResponse struct {
	Attempt             QuizAttempt           `json:"attempt"`
	Quiz                Quiz                  `json:"quiz"`
	Questions           []Question            `json:"questions"`
	CategoryPerformance []CategoryPerformance `json:"categoryPerformance"`
}

// AnalyticsResponse is the teacher-facing aggregate view of a quiz.
type AnalyticsResponse struct {
	Quiz          Quiz               `json:"quiz"`
	AttemptCount  int                `json:"attemptCount"`
	ClassAverage  int                `json:"classAverage"`
	CategoryStats []CategoryStat     `json:"categoryStats"`
	Leaderboard   []LeaderboardEntry `json:"leaderboard"`
}
