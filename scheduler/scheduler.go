// --- quizdeck-server/scheduler/scheduler.go ---
package scheduler

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"quizdeck-server/engine"
	"quizdeck-server/models"
	"quizdeck-server/repo"
)

const (
	startWarningWindow  = 15 * time.Minute
	expiryWarningWindow = 30 * time.Minute
)

// Scheduler periodically scans quiz windows, emits deadline notifications,
// and force-closes attempts that outran their time limit. Duplicate emission
// across ticks is suppressed by the repository's notification dedupe window.
type Scheduler struct {
	repo     *repo.Repository
	engine   *engine.Engine
	interval time.Duration

	now func() time.Time
}

// New creates a scheduler that ticks at the given interval.
func New(r *repo.Repository, e *engine.Engine, interval time.Duration) *Scheduler {
	return &Scheduler{repo: r, engine: e, interval: interval, now: time.Now}
}

// Run ticks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	log.Printf("Scheduler started (interval %s)", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("Scheduler stopped")
			return
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				log.Printf("Scheduler tick error: %v", err)
			}
		}
	}
}

// Tick runs one full sweep: deadline notifications, then overdue attempts.
func (s *Scheduler) Tick(ctx context.Context) error {
	if err := s.notifyDeadlines(ctx); err != nil {
		return err
	}
	closed, err := s.engine.ExpireOverdue(ctx)
	if err != nil {
		return err
	}
	if closed > 0 {
		log.Printf("Scheduler closed %d overdue attempt(s)", closed)
	}
	return nil
}

func (s *Scheduler) notifyDeadlines(ctx context.Context) error {
	quizzes, err := s.repo.PublishedQuizzes(ctx)
	if err != nil {
		return fmt.Errorf("failed to load quizzes: %w", err)
	}
	users, err := s.repo.Users(ctx)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}

	now := s.now()
	for _, quiz := range quizzes {
		if quiz.Settings.ScheduledAt != nil {
			until := quiz.Settings.ScheduledAt.Sub(now)
			if until > 0 && until <= startWarningWindow {
				minutes := int(math.Round(until.Minutes()))
				title := "Upcoming Assessment"
				message := fmt.Sprintf("%q is starting in %d minutes! Get ready.", quiz.Title, minutes)
				s.broadcast(ctx, users, quiz, title, message, models.NotifInfo)
			}
		}
		if quiz.Settings.ExpiresAt != nil {
			until := quiz.Settings.ExpiresAt.Sub(now)
			if until > 0 && until <= expiryWarningWindow {
				minutes := int(math.Round(until.Minutes()))
				title := "Urgent: Deadline Near"
				message := fmt.Sprintf("%q expires in %d minutes. Submit your attempt soon!", quiz.Title, minutes)
				s.broadcast(ctx, users, quiz, title, message, models.NotifAlert)
			}
		}
	}
	return nil
}

func (s *Scheduler) broadcast(ctx context.Context, users []models.User, quiz models.Quiz, title, message string, typ models.NotificationType) {
	for _, u := range users {
		if u.Role != models.RoleStudent {
			continue
		}
		if err := s.repo.AddNotification(ctx, u.ID, title, message, typ, "/quiz/"+quiz.ID); err != nil {
			log.Printf("Failed to notify user %s about quiz %s: %v", u.ID, quiz.ID, err)
		}
	}
}
