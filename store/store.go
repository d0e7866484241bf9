// --- quizdeck-server/store/store.go ---
package store

import "context"

// Logical collection names. Every collection is a single JSON document
// holding the full record list; access is linear scan + filter.
const (
	CollQuizzes       = "quiz_data"
	CollQuestions     = "question_data"
	CollQuestionBank  = "question_bank"
	CollAttempts      = "attempt_data"
	CollNotifications = "notifications"
	CollUsers         = "quiz_users"
)

// Store is a durable key-keyed collection store. ReadAll unmarshals the named
// collection into out (a pointer to a slice); a collection that has never
// been written reads as empty. WriteAll replaces the collection wholesale:
// last write wins, no transactions.
type Store interface {
	ReadAll(ctx context.Context, collection string, out any) error
	WriteAll(ctx context.Context, collection string, records any) error
}
