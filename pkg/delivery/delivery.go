// Package delivery sends a single message to a single chat and classifies the outcome.
package delivery

import (
	"context"
	"errors"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type Status int

const (
	Delivered Status = iota
	// Forbidden means the chat is permanently unreachable (blocked, kicked, deactivated).
	Forbidden
	// Failed covers every other error; the message may be retried later.
	Failed
)

func (s Status) String() string {
	switch s {
	case Delivered:
		return "delivered"
	case Forbidden:
		return "forbidden"
	default:
		return "failed"
	}
}

type Message struct {
	ChatID      int64
	Text        string
	ParseMode   models.ParseMode
	ReplyMarkup models.ReplyMarkup
}

type Result struct {
	Status Status
	Err    error
}

func (r Result) Delivered() bool {
	return r.Status == Delivered
}

// Gateway delivers one message. Implementations never panic on transport errors;
// the outcome is always reported through Result.
type Gateway interface {
	Send(ctx context.Context, msg Message) Result
}

// Classify maps a Bot API error to a delivery status.
func Classify(err error) Status {
	switch {
	case err == nil:
		return Delivered
	case errors.Is(err, bot.ErrorForbidden):
		return Forbidden
	default:
		return Failed
	}
}

type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Telegram is the Gateway backed by the Bot API.
type Telegram struct {
	client messageSender
}

func NewTelegram(b *bot.Bot) *Telegram {
	return &Telegram{client: b}
}

func (t *Telegram) Send(ctx context.Context, msg Message) Result {
	params := &bot.SendMessageParams{
		ChatID:    msg.ChatID,
		Text:      msg.Text,
		ParseMode: msg.ParseMode,
	}
	if msg.ReplyMarkup != nil {
		params.ReplyMarkup = msg.ReplyMarkup
	}
	_, err := t.client.SendMessage(ctx, params)
	return Result{Status: Classify(err), Err: err}
}
