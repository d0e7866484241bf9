// --- quizdeck-server/repo/notifications.go ---
package repo

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"quizdeck-server/models"
	"quizdeck-server/store"
)

// dedupeWindow suppresses repeat notifications with the same (user, title)
// pair, so the scheduler does not spam on every poll tick while a condition
// stays true.
const dedupeWindow = time.Hour

// AddNotification creates a notification unless an identical (user, title)
// one was created within the trailing dedupe window.
func (r *Repository) AddNotification(ctx context.Context, userID, title, message string, typ models.NotificationType, link string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var notifications []models.Notification
	if err := r.store.ReadAll(ctx, store.CollNotifications, &notifications); err != nil {
		return err
	}
	now := r.now()
	for _, n := range notifications {
		if n.UserID == userID && n.Title == title && now.Sub(n.CreatedAt) < dedupeWindow {
			return nil
		}
	}
	notifications = append(notifications, models.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      typ,
		CreatedAt: now,
		IsRead:    false,
		Link:      link,
	})
	return r.store.WriteAll(ctx, store.CollNotifications, notifications)
}

// Notifications lists a user's notifications, newest first.
func (r *Repository) Notifications(ctx context.Context, userID string) ([]models.Notification, error) {
	var notifications []models.Notification
	if err := r.store.ReadAll(ctx, store.CollNotifications, &notifications); err != nil {
		return nil, err
	}
	var mine []models.Notification
	for _, n := range notifications {
		if n.UserID == userID {
			mine = append(mine, n)
		}
	}
	sort.SliceStable(mine, func(i, j int) bool {
		return mine[i].CreatedAt.After(mine[j].CreatedAt)
	})
	return mine, nil
}

// MarkNotificationRead flips a single notification to read.
func (r *Repository) MarkNotificationRead(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var notifications []models.Notification
	if err := r.store.ReadAll(ctx, store.CollNotifications, &notifications); err != nil {
		return err
	}
	for i := range notifications {
		if notifications[i].ID == id {
			notifications[i].IsRead = true
			return r.store.WriteAll(ctx, store.CollNotifications, notifications)
		}
	}
	return nil
}

// MarkAllNotificationsRead flips every notification for a user to read.
func (r *Repository) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var notifications []models.Notification
	if err := r.store.ReadAll(ctx, store.CollNotifications, &notifications); err != nil {
		return err
	}
	changed := false
	for i := range notifications {
		if notifications[i].UserID == userID && !notifications[i].IsRead {
			notifications[i].IsRead = true
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return r.store.WriteAll(ctx, store.CollNotifications, notifications)
}
