package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/tg-daily-companion/pkg/logger"
	"github.com/smith3v/tg-daily-companion/pkg/textparse"
)

// RecipientMiddleware subscribes the sender of every text message and refreshes
// its language from the message before any handler runs.
func RecipientMiddleware(store Store) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if update != nil && update.Message != nil && update.Message.Chat.ID != 0 &&
				strings.TrimSpace(update.Message.Text) != "" {
				touchRecipient(ctx, store, update.Message.Chat.ID, update.Message.Text)
			}
			next(ctx, b, update)
		}
	}
}

func touchRecipient(ctx context.Context, store Store, chatID int64, text string) {
	lang := string(textparse.DetectLanguage(text))
	if err := store.AddRecipient(ctx, chatID, lang); err != nil {
		logger.Error("failed to add recipient", "chat_id", chatID, "error", err)
		return
	}
	if err := store.SetRecipientLang(ctx, chatID, lang); err != nil {
		logger.Error("failed to update recipient language", "chat_id", chatID, "error", err)
	}
}
