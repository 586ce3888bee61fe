package schedule

import (
	"context"
	"time"

	"github.com/smith3v/tg-daily-companion/pkg/db"
)

// RecipientStore is the subscriber list as seen by the scheduler.
type RecipientStore interface {
	ListRecipients(ctx context.Context) ([]db.Recipient, error)
	RemoveRecipient(ctx context.Context, chatID int64) error
}

// BroadcastStore is what the Coordinator needs from persistence.
type BroadcastStore interface {
	RecipientStore
	GetDailyCursor(ctx context.Context) (db.DailyCursor, error)
	SetDailyCursor(ctx context.Context, date time.Time, index int) error
	GetWatermarks(ctx context.Context) (db.Watermarks, error)
	SetWatermark(ctx context.Context, kind db.Kind, date time.Time) error
	SetQuizState(ctx context.Context, state db.QuizState) error
}

// ReminderStore is what the Sweeper needs from persistence.
type ReminderStore interface {
	RecipientStore
	FetchDueReminders(ctx context.Context, now time.Time) ([]db.Reminder, error)
	MarkRemindersSent(ctx context.Context, ids []uint, sentAt time.Time) error
}
