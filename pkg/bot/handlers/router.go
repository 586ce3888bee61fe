package handlers

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/smith3v/tg-daily-companion/pkg/content"
	"github.com/smith3v/tg-daily-companion/pkg/db"
	"github.com/smith3v/tg-daily-companion/pkg/i18n"
	"github.com/smith3v/tg-daily-companion/pkg/schedule"
)

const (
	nextSongCallback = "next_song"
	pendingListLimit = 20
)

// Store is the persistence the update handlers need.
type Store interface {
	AddRecipient(ctx context.Context, chatID int64, lang string) error
	SetRecipientLang(ctx context.Context, chatID int64, lang string) error
	AddReminder(ctx context.Context, chatID int64, dueAt time.Time, text string) (uint, error)
	ListPendingReminders(ctx context.Context, chatID int64, limit int) ([]db.Reminder, error)
	GetQuizState(ctx context.Context, chatID int64) (db.QuizState, bool, error)
	ClearQuizState(ctx context.Context, chatID int64) error
}

// Broadcaster runs a fixed-text broadcast on demand.
type Broadcaster interface {
	Broadcast(ctx context.Context, kind db.Kind) (schedule.Report, error)
}

// Router owns the inbound update handlers and their dependencies.
type Router struct {
	store       Store
	broadcaster Broadcaster
	texts       *i18n.Catalog
	songs       content.Songs
	location    *time.Location
	now         func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewRouter(store Store, broadcaster Broadcaster, texts *i18n.Catalog, songs content.Songs, location *time.Location) *Router {
	if location == nil {
		location = time.UTC
	}
	return &Router{
		store:       store,
		broadcaster: broadcaster,
		texts:       texts,
		songs:       songs,
		location:    location,
		now:         time.Now,
		rng:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// SetBroadcaster attaches the on-demand broadcaster. Call it before the bot starts.
func (r *Router) SetBroadcaster(broadcaster Broadcaster) {
	r.broadcaster = broadcaster
}

// Options returns the bot options that route unmatched updates here and keep the
// recipient list current.
func (r *Router) Options() []bot.Option {
	return []bot.Option{
		bot.WithDefaultHandler(r.DefaultHandler),
		bot.WithMiddlewares(RecipientMiddleware(r.store)),
	}
}

// Register wires the command and callback handlers.
func (r *Router) Register(b *bot.Bot) {
	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, r.HandleStart)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/reminders", bot.MatchTypeExact, r.HandleReminders)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/songsuggestion", bot.MatchTypeExact, r.HandleSongSuggestion)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/sendlove", bot.MatchTypeExact, r.HandleSendLove)
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, nextSongCallback, bot.MatchTypeExact, r.HandleNextSong)
}

func (r *Router) pickSong() (content.Song, bool) {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	return r.songs.Pick(r.rng)
}
