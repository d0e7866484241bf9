// --- quizdeck-server/main.go ---
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/multitemplate"
	"github.com/gin-gonic/gin"

	"quizdeck-server/ai"
	"quizdeck-server/analytics"
	"quizdeck-server/config"
	"quizdeck-server/engine"
	"quizdeck-server/handlers"
	"quizdeck-server/middleware"
	"quizdeck-server/models"
	"quizdeck-server/repo"
	"quizdeck-server/scheduler"
	"quizdeck-server/seed"
	"quizdeck-server/store"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize collection store
	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer st.Close()
	if err := st.CreateSchema(ctx); err != nil {
		log.Fatalf("Error creating database schema: %v", err)
	}

	repository := repo.New(st)
	attemptEngine := engine.New(repository)
	aggregator := analytics.New(repository)

	// Question generator: disabled when no API key is configured
	var generator ai.Generator = ai.Disabled{}
	if cfg.Gemini.APIKey != "" {
		gemini, err := ai.NewGemini(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			log.Fatalf("Error initializing question generator: %v", err)
		}
		generator = gemini
	} else {
		log.Println("GEMINI.API_KEY not set, question generation disabled")
	}

	// Seed initial content if configured
	if cfg.SeedFile != "" {
		if err := seed.Load(ctx, repository, cfg.SeedFile); err != nil {
			log.Fatalf("Error loading seed file: %v", err)
		}
	}

	// Set Gin mode
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// Load HTML templates for the teacher UI
	renderer := multitemplate.NewRenderer()
	renderer.AddFromFiles("teacher_dashboard", "templates/layout.html", "templates/teacher_dashboard.html")
	router.HTMLRender = renderer

	// Middleware
	router.Use(middleware.Logger())
	authMiddleware := middleware.AuthMiddleware(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer)

	// API Routes (version 1)
	apiV1 := router.Group("/api/v1")
	apiV1.POST("/auth/login", handlers.Login(repository, cfg.Auth))

	authed := apiV1.Group("")
	authed.Use(authMiddleware)
	{
		authed.GET("/join/:code", handlers.JoinQuiz(repository))
		authed.POST("/attempts", handlers.StartAttempt(attemptEngine))
		authed.PUT("/attempts/:attempt_id", handlers.Autosave(repository, attemptEngine))
		authed.POST("/attempts/:attempt_id/answer", handlers.RecordAnswer(repository, attemptEngine))
		authed.POST("/attempts/:attempt_id/submit", handlers.SubmitAttempt(repository, attemptEngine))
		authed.GET("/attempts/:attempt_id/results", handlers.AttemptResults(repository))
		authed.GET("/students/me/attempts", handlers.StudentHistory(repository))
		authed.GET("/students/me/active", handlers.ActiveAttempts(repository))
		authed.POST("/practice", handlers.CreatePractice(repository, generator))
		authed.GET("/notifications", handlers.Notifications(repository))
		authed.POST("/notifications/:id/read", handlers.MarkNotificationRead(repository))
		authed.POST("/notifications/read_all", handlers.MarkAllNotificationsRead(repository))
	}

	// Teacher-only routes
	teacher := apiV1.Group("")
	teacher.Use(authMiddleware)
	teacher.Use(middleware.RoleCheckMiddleware(models.RoleTeacher))
	{
		teacher.POST("/quizzes", handlers.CreateQuiz(repository))
		teacher.GET("/quizzes", handlers.ListQuizzes(repository))
		teacher.GET("/quizzes/:quiz_id", handlers.GetQuiz(repository))
		teacher.PUT("/quizzes/:quiz_id", handlers.UpdateQuiz(repository))
		teacher.POST("/quizzes/:quiz_id/questions", handlers.SaveQuestion(repository))
		teacher.GET("/quizzes/:quiz_id/questions", handlers.ListQuestions(repository))
		teacher.POST("/quizzes/:quiz_id/generate", handlers.GenerateQuestions(repository, generator))
		teacher.GET("/quizzes/:quiz_id/analytics", handlers.QuizAnalytics(repository, aggregator))
		teacher.GET("/question_bank", handlers.QuestionBank(repository))
	}

	// Teacher UI Routes
	ui := router.Group("/teacher")
	ui.Use(authMiddleware)
	ui.Use(middleware.RoleCheckMiddleware(models.RoleTeacher))
	{
		ui.GET("/dashboard", handlers.TeacherDashboard(repository))
	}

	// Start background deadline scheduler
	deadlines := scheduler.New(repository, attemptEngine, cfg.SchedulerInterval)
	go deadlines.Run(ctx)

	// Start the server
	srv := &http.Server{
		Addr:    cfg.ServerPort,
		Handler: router,
	}

	// Goroutine to gracefully shut down the server
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	log.Printf("QuizDeck Server starting on %s", cfg.ServerPort)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server startup error: %v", err)
	}
	log.Println("Server exited gracefully.")
}
