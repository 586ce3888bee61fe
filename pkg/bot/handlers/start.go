package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/tg-daily-companion/pkg/db"
	"github.com/smith3v/tg-daily-companion/pkg/logger"
	"github.com/smith3v/tg-daily-companion/pkg/textparse"
)

func (r *Router) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.Chat.ID == 0 {
		logger.Error("invalid update in HandleStart")
		return
	}
	lang := textparse.DetectLanguage(update.Message.Text)
	reply(ctx, b, update.Message.Chat.ID, r.texts.Text(lang, "start"))
}

// HandleReminders lists the chat's pending reminders in local time.
func (r *Router) HandleReminders(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.Chat.ID == 0 {
		logger.Error("invalid update in HandleReminders")
		return
	}
	chatID := update.Message.Chat.ID
	lang := textparse.DetectLanguage(update.Message.Text)

	items, err := r.store.ListPendingReminders(ctx, chatID, pendingListLimit)
	if err != nil {
		logger.Error("failed to list pending reminders", "chat_id", chatID, "error", err)
		return
	}
	if len(items) == 0 {
		reply(ctx, b, chatID, r.texts.Text(lang, "reminders_empty"))
		return
	}

	lines := make([]string, 0, len(items)+1)
	lines = append(lines, r.texts.Text(lang, "reminders_title"))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("- #%d %s — %s", item.ID, item.RemindAt.In(r.location).Format("2006-01-02 15:04"), item.Text))
	}
	reply(ctx, b, chatID, strings.Join(lines, "\n"))
}

// HandleSendLove runs the love broadcast now, outside its daily schedule.
func (r *Router) HandleSendLove(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.Chat.ID == 0 {
		logger.Error("invalid update in HandleSendLove")
		return
	}
	chatID := update.Message.Chat.ID
	lang := textparse.DetectLanguage(update.Message.Text)
	if r.broadcaster == nil {
		logger.Error("no broadcaster configured for HandleSendLove")
		return
	}

	report, err := r.broadcaster.Broadcast(ctx, db.KindLove)
	if err != nil {
		logger.Error("manual love broadcast failed", "chat_id", chatID, "error", err)
	}
	logger.Info("manual love broadcast", "requested_by", chatID, "delivered", report.Delivered())
	reply(ctx, b, chatID, r.texts.Text(lang, "sendlove_done", report.Delivered()))
}
