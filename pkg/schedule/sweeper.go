package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/smith3v/tg-daily-companion/pkg/delivery"
	"github.com/smith3v/tg-daily-companion/pkg/i18n"
	"github.com/smith3v/tg-daily-companion/pkg/logger"
	"github.com/smith3v/tg-daily-companion/pkg/textparse"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Sweeper delivers reminders whose due time has passed.
type Sweeper struct {
	store   ReminderStore
	gateway delivery.Gateway
	texts   *i18n.Catalog
	tracer  trace.Tracer
}

func NewSweeper(store ReminderStore, gateway delivery.Gateway, texts *i18n.Catalog) *Sweeper {
	return &Sweeper{store: store, gateway: gateway, texts: texts, tracer: otel.Tracer(tracerName)}
}

// Sweep sends every unsent reminder due at or before now and marks the handled ones
// sent in one batch. Reminders to unreachable chats count as handled; other failures
// stay pending for the next sweep. It returns how many reminders were marked.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (int, error) {
	ctx, span := s.tracer.Start(ctx, "schedule.sweep")
	defer span.End()

	due, err := s.store.FetchDueReminders(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("fetch due reminders: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}

	handled := make([]uint, 0, len(due))
	var unreachable []int64
	seen := map[int64]bool{}
	for _, reminder := range due {
		// The reply language follows the reminder text, not the recipient's setting.
		lang := textparse.DetectLanguage(reminder.Text)
		result := s.gateway.Send(ctx, delivery.Message{
			ChatID: reminder.ChatID,
			Text:   s.texts.Text(lang, "reminder_due", reminder.Text),
		})
		switch result.Status {
		case delivery.Delivered:
			handled = append(handled, reminder.ID)
		case delivery.Forbidden:
			handled = append(handled, reminder.ID)
			if !seen[reminder.ChatID] {
				seen[reminder.ChatID] = true
				unreachable = append(unreachable, reminder.ChatID)
			}
		default:
			logger.Error("failed to deliver reminder", "reminder_id", reminder.ID, "chat_id", reminder.ChatID, "error", result.Err)
		}
	}

	removeUnreachable(ctx, s.store, "reminder", unreachable)

	if err := s.store.MarkRemindersSent(ctx, handled, now); err != nil {
		return 0, fmt.Errorf("mark reminders sent: %w", err)
	}
	span.SetAttributes(attribute.Int("due", len(due)), attribute.Int("handled", len(handled)))
	if len(handled) > 0 {
		logger.Info("reminders delivered", "due", len(due), "handled", len(handled))
	}
	return len(handled), nil
}
