package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/tg-daily-companion/pkg/i18n"
	"github.com/smith3v/tg-daily-companion/pkg/logger"
	"github.com/smith3v/tg-daily-companion/pkg/textparse"
)

// DefaultHandler routes free text: song requests, quiz answers, love triggers and
// reminder requests, in that order. Anything else is ignored.
func (r *Router) DefaultHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil {
		logger.Debug("ignoring non-message update in DefaultHandler")
		return
	}
	chatID := update.Message.Chat.ID
	if chatID == 0 {
		logger.Error("chat ID is zero in DefaultHandler")
		return
	}
	text := strings.TrimSpace(update.Message.Text)
	if text == "" {
		return
	}

	if textparse.IsSongRequest(text) {
		r.HandleSongSuggestion(ctx, b, update)
		return
	}

	lang := textparse.DetectLanguage(text)

	if r.tryAnswerQuiz(ctx, b, chatID, lang, text) {
		return
	}

	if textparse.IsLoveTrigger(text) {
		reply(ctx, b, chatID, r.texts.Text(lang, "love_reply"))
		return
	}

	wantsReminder := textparse.WantsReminder(text)
	at, ok := textparse.ParseTime(text)
	if !ok {
		if wantsReminder {
			reply(ctx, b, chatID, r.texts.Text(lang, "reminder_which_time"))
		}
		return
	}
	if !wantsReminder {
		return
	}

	dueAt := textparse.DueAt(r.now().In(r.location), at)
	if _, err := r.store.AddReminder(ctx, chatID, dueAt, text); err != nil {
		logger.Error("failed to save reminder", "chat_id", chatID, "error", err)
		return
	}
	logger.Info("reminder scheduled", "chat_id", chatID, "due_at", dueAt)
	reply(ctx, b, chatID, r.texts.Text(lang, "reminder_set", at.String()))
}

// tryAnswerQuiz resolves an A/B/C reply against the pending quiz. It reports
// false when text is not an answer or nothing is pending.
func (r *Router) tryAnswerQuiz(ctx context.Context, b *bot.Bot, chatID int64, lang i18n.Lang, text string) bool {
	answer, ok := textparse.QuizAnswer(text)
	if !ok {
		return false
	}
	state, found, err := r.store.GetQuizState(ctx, chatID)
	if err != nil {
		logger.Error("failed to load quiz state", "chat_id", chatID, "error", err)
		return false
	}
	if !found || !textparse.ValidAnswerLetter(state.CorrectOption) {
		return false
	}

	correct := strings.ToUpper(strings.TrimSpace(state.CorrectOption))
	if answer == correct {
		reply(ctx, b, chatID, r.texts.Text(lang, "quiz_correct"))
	} else {
		reply(ctx, b, chatID, r.texts.Text(lang, "quiz_wrong", correct))
	}
	if err := r.store.ClearQuizState(ctx, chatID); err != nil {
		logger.Error("failed to clear quiz state", "chat_id", chatID, "error", err)
	}
	return true
}

func reply(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		logger.Error("failed to send reply", "chat_id", chatID, "error", err)
	}
}
