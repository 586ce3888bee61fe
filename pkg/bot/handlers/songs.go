package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/tg-daily-companion/pkg/content"
	"github.com/smith3v/tg-daily-companion/pkg/i18n"
	"github.com/smith3v/tg-daily-companion/pkg/logger"
	"github.com/smith3v/tg-daily-companion/pkg/textparse"
)

func (r *Router) HandleSongSuggestion(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.Chat.ID == 0 {
		logger.Error("invalid update in HandleSongSuggestion")
		return
	}
	chatID := update.Message.Chat.ID
	lang := textparse.DetectLanguage(update.Message.Text)

	song, ok := r.pickSong()
	if !ok {
		reply(ctx, b, chatID, r.texts.Text(lang, "songs_empty"))
		return
	}
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        r.songCard(lang, song),
		ReplyMarkup: r.nextSongKeyboard(lang),
	})
	if err != nil {
		logger.Error("failed to send song suggestion", "chat_id", chatID, "error", err)
	}
}

// HandleNextSong replaces the song card the button belongs to with another song.
func (r *Router) HandleNextSong(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.CallbackQuery == nil {
		logger.Error("invalid update in HandleNextSong")
		return
	}
	query := update.CallbackQuery
	lang := i18n.Default

	song, ok := r.pickSong()
	if !ok {
		answerCallback(ctx, b, query.ID, r.texts.Text(lang, "songs_empty"), true)
		return
	}

	msg := query.Message.Message
	if msg == nil {
		answerCallback(ctx, b, query.ID, "", false)
		return
	}
	_, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.ID,
		Text:        r.songCard(lang, song),
		ReplyMarkup: r.nextSongKeyboard(lang),
	})
	if err != nil {
		logger.Error("failed to edit song card", "chat_id", msg.Chat.ID, "error", err)
	}
	answerCallback(ctx, b, query.ID, "", false)
}

func (r *Router) songCard(lang i18n.Lang, song content.Song) string {
	text := r.texts.Text(lang, "song_title", song.Title, song.Artist)
	if song.Genre != "" {
		text += "\n" + r.texts.Text(lang, "song_genre", song.Genre)
	} else {
		text += "\n" + r.texts.Text(lang, "song_genre_missing")
	}
	if song.RuLink != "" {
		text += "\n" + r.texts.Text(lang, "song_translation", song.RuLink)
	} else {
		text += "\n" + r.texts.Text(lang, "song_translation_missing")
	}
	return text
}

func (r *Router) nextSongKeyboard(lang i18n.Lang) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: r.texts.Text(lang, "song_next"), CallbackData: nextSongCallback}},
		},
	}
}

func answerCallback(ctx context.Context, b *bot.Bot, queryID, text string, alert bool) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: queryID,
		Text:            text,
		ShowAlert:       alert,
	})
	if err != nil {
		logger.Error("failed to answer callback query", "error", err)
	}
}
