// Package schedule runs the once-a-day broadcasts and the reminder sweep.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/tg-daily-companion/pkg/clock"
	"github.com/smith3v/tg-daily-companion/pkg/content"
	"github.com/smith3v/tg-daily-companion/pkg/db"
	"github.com/smith3v/tg-daily-companion/pkg/delivery"
	"github.com/smith3v/tg-daily-companion/pkg/i18n"
	"github.com/smith3v/tg-daily-companion/pkg/logger"
	"github.com/smith3v/tg-daily-companion/pkg/quiz"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/smith3v/tg-daily-companion/pkg/schedule"

// KindWords is the report label of the words-of-the-day run; it has its own cursor
// instead of a watermark.
const KindWords = "words"

// Options configures the Coordinator. Zero values fall back to the defaults below.
type Options struct {
	Location    *time.Location
	WordsAt     clock.Time
	Cutovers    map[db.Kind]clock.Time
	WordsPerDay int
	Concurrency int
	Rand        *rand.Rand
}

// DefaultCutovers are the local times each kind becomes due.
var DefaultCutovers = map[db.Kind]clock.Time{
	db.KindApology: {Hour: 1, Minute: 17},
	db.KindEat:     {Hour: 12},
	db.KindLove:    {Hour: 14, Minute: 50},
	db.KindWater:   {Hour: 15},
	db.KindQuiz:    {Hour: 15, Minute: 2},
}

var kindTemplates = map[db.Kind]string{
	db.KindApology: "apology",
	db.KindEat:     "eat",
	db.KindLove:    "love",
	db.KindWater:   "water",
}

// Coordinator decides which daily broadcasts are due and runs each at most once per day.
type Coordinator struct {
	store   BroadcastStore
	gateway delivery.Gateway
	texts   *i18n.Catalog
	vocab   content.Vocabulary
	opts    Options
	tracer  trace.Tracer

	rngMu sync.Mutex
	// quizSkippedOn is the last day a quiz could not be built; guarded by rngMu.
	quizSkippedOn time.Time
}

func NewCoordinator(store BroadcastStore, gateway delivery.Gateway, texts *i18n.Catalog, vocab content.Vocabulary, opts Options) *Coordinator {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.WordsAt == (clock.Time{}) {
		opts.WordsAt = clock.Time{Hour: 10}
	}
	cutovers := make(map[db.Kind]clock.Time, len(DefaultCutovers))
	for kind, at := range DefaultCutovers {
		cutovers[kind] = at
	}
	for kind, at := range opts.Cutovers {
		cutovers[kind] = at
	}
	opts.Cutovers = cutovers
	if opts.WordsPerDay <= 0 {
		opts.WordsPerDay = 5
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Coordinator{
		store:   store,
		gateway: gateway,
		texts:   texts,
		vocab:   vocab,
		opts:    opts,
		tracer:  otel.Tracer(tracerName),
	}
}

// RunDue runs every broadcast whose cutover has passed and which has not fired today,
// in order: words, apology, eat, love, water, quiz. A failing kind does not stop the others.
func (c *Coordinator) RunDue(ctx context.Context, now time.Time) error {
	now = now.In(c.opts.Location)
	var errs []error

	if c.opts.WordsAt.Passed(now) {
		if _, err := c.SendDailyWords(ctx, now); err != nil {
			errs = append(errs, err)
		}
	}

	marks, err := c.store.GetWatermarks(ctx)
	if err != nil {
		return errors.Join(append(errs, fmt.Errorf("load watermarks: %w", err))...)
	}
	for _, kind := range db.Kinds {
		if !c.opts.Cutovers[kind].Passed(now) || marks.FiredOn(kind, now) {
			continue
		}
		if err := c.runKind(ctx, kind, now); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Coordinator) runKind(ctx context.Context, kind db.Kind, now time.Time) error {
	var (
		report Report
		err    error
	)
	if kind == db.KindQuiz {
		var built bool
		report, built, err = c.SendQuiz(ctx, now)
		if err != nil || !built {
			return err
		}
	} else {
		report, err = c.Broadcast(ctx, kind)
		if err != nil {
			return err
		}
	}

	if !report.ShouldAdvance() {
		logUndelivered(report)
		return nil
	}
	if err := c.store.SetWatermark(ctx, kind, now); err != nil {
		return fmt.Errorf("advance %s watermark: %w", kind, err)
	}
	logger.Info("broadcast sent", "kind", kind, "delivered", report.Delivered(), "failed", report.Failed())
	return nil
}

// SendDailyWords sends today's vocabulary window unless it already went out today.
// It returns whether the cursor advanced.
func (c *Coordinator) SendDailyWords(ctx context.Context, now time.Time) (bool, error) {
	now = now.In(c.opts.Location)
	cursor, err := c.store.GetDailyCursor(ctx)
	if err != nil {
		return false, fmt.Errorf("load daily cursor: %w", err)
	}
	if cursor.SentOn(now) {
		return false, nil
	}
	if len(c.vocab) == 0 {
		logger.Warn("vocabulary is empty, skipping words of the day")
		return false, nil
	}

	window := c.vocab.Window(cursor.Index, c.opts.WordsPerDay)
	report, err := c.fanOut(ctx, KindWords, func(r db.Recipient) delivery.Message {
		return delivery.Message{
			ChatID:    r.ChatID,
			Text:      c.renderWords(i18n.ParseLang(r.Lang), window),
			ParseMode: models.ParseModeMarkdown,
		}
	}, nil)
	if err != nil {
		return false, err
	}
	if !report.ShouldAdvance() {
		logUndelivered(report)
		return false, nil
	}

	next := c.vocab.Advance(cursor.Index, c.opts.WordsPerDay)
	if err := c.store.SetDailyCursor(ctx, now, next); err != nil {
		return false, fmt.Errorf("advance daily cursor: %w", err)
	}
	logger.Info("words of the day sent", "delivered", report.Delivered(), "index", cursor.Index, "next_index", next)
	return true, nil
}

// renderWords builds a MarkdownV2 body; only the title carries markup.
func (c *Coordinator) renderWords(lang i18n.Lang, window []content.Entry) string {
	lines := make([]string, 0, len(window)+1)
	lines = append(lines, c.texts.Text(lang, "daily_title"))
	for _, entry := range window {
		line := "• " + bot.EscapeMarkdown(entry.Word) + " — " + bot.EscapeMarkdown(entry.Translation)
		if entry.Note != "" {
			line += ` \(` + bot.EscapeMarkdown(entry.Note) + `\)`
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// Broadcast sends the fixed text of kind to every recipient without touching its
// watermark. Unreachable recipients are unsubscribed.
func (c *Coordinator) Broadcast(ctx context.Context, kind db.Kind) (Report, error) {
	key, ok := kindTemplates[kind]
	if !ok {
		return Report{}, fmt.Errorf("%w: %q has no fixed text", db.ErrUnknownKind, kind)
	}
	return c.fanOut(ctx, string(kind), func(r db.Recipient) delivery.Message {
		return delivery.Message{ChatID: r.ChatID, Text: c.texts.Text(i18n.ParseLang(r.Lang), key)}
	}, nil)
}

// SendQuiz sends one shared question to every recipient and records the expected
// answer for each recipient that received it. built is false when the vocabulary
// cannot produce a question.
func (c *Coordinator) SendQuiz(ctx context.Context, now time.Time) (report Report, built bool, err error) {
	c.rngMu.Lock()
	question, ok := quiz.Build(c.vocab, c.opts.Rand)
	repeated := false
	if !ok {
		today := now.In(c.opts.Location)
		repeated = db.SameDay(c.quizSkippedOn, today)
		c.quizSkippedOn = today
	}
	c.rngMu.Unlock()
	if !ok {
		if repeated {
			logger.Debug("quiz still skipped today", "entries", len(c.vocab))
		} else {
			logger.Warn("not enough distinct vocabulary for a quiz", "entries", len(c.vocab))
		}
		return Report{}, false, nil
	}

	askedAt := now.UTC()
	report, err = c.fanOut(ctx, string(db.KindQuiz), func(r db.Recipient) delivery.Message {
		lang := i18n.ParseLang(r.Lang)
		text := c.texts.Text(lang, "quiz_intro") + "\n\n" + c.texts.Text(lang, "quiz_question",
			question.Word, question.Options[0], question.Options[1], question.Options[2])
		return delivery.Message{ChatID: r.ChatID, Text: text}
	}, func(ctx context.Context, r db.Recipient, result delivery.Result) {
		if !result.Delivered() {
			return
		}
		state := db.QuizState{ChatID: r.ChatID, CorrectOption: question.Correct, Word: question.Word, AskedAt: askedAt}
		if err := c.store.SetQuizState(ctx, state); err != nil {
			logger.Error("failed to store quiz state", "chat_id", r.ChatID, "error", err)
		}
	})
	return report, true, err
}

type afterSend func(ctx context.Context, r db.Recipient, result delivery.Result)

// fanOut delivers render(r) to every recipient with bounded concurrency, then
// unsubscribes the recipients reported as forbidden. A failed delivery never stops
// the others; the returned error is reserved for store failures.
func (c *Coordinator) fanOut(ctx context.Context, kind string, render func(db.Recipient) delivery.Message, after afterSend) (Report, error) {
	ctx, span := c.tracer.Start(ctx, "schedule.broadcast", trace.WithAttributes(attribute.String("kind", kind)))
	defer span.End()

	recipients, err := c.store.ListRecipients(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list recipients")
		return Report{Kind: kind}, fmt.Errorf("list recipients for %s: %w", kind, err)
	}

	outcomes := make([]Outcome, len(recipients))
	var g errgroup.Group
	g.SetLimit(c.opts.Concurrency)
	for i, recipient := range recipients {
		g.Go(func() error {
			result := c.gateway.Send(ctx, render(recipient))
			outcomes[i] = Outcome{ChatID: recipient.ChatID, Result: result}
			if result.Status == delivery.Failed {
				logger.Error("failed to deliver broadcast", "kind", kind, "chat_id", recipient.ChatID, "error", result.Err)
			}
			if after != nil {
				after(ctx, recipient, result)
			}
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Kind: kind, Outcomes: outcomes}
	removeUnreachable(ctx, c.store, kind, report.Forbidden())

	span.SetAttributes(
		attribute.Int("recipients", len(recipients)),
		attribute.Int("delivered", report.Delivered()),
		attribute.Int("forbidden", len(report.Forbidden())),
	)
	return report, nil
}

func logUndelivered(report Report) {
	if len(report.Outcomes) == 0 {
		logger.Debug("no recipients for broadcast", "kind", report.Kind)
		return
	}
	logger.Warn("broadcast reached nobody, retrying next tick",
		"kind", report.Kind, "failed", report.Failed(), "forbidden", len(report.Forbidden()))
}

func removeUnreachable(ctx context.Context, store RecipientStore, kind string, chatIDs []int64) {
	for _, chatID := range chatIDs {
		if err := store.RemoveRecipient(ctx, chatID); err != nil {
			logger.Error("failed to remove unreachable recipient", "kind", kind, "chat_id", chatID, "error", err)
			continue
		}
		logger.Info("removed unreachable recipient", "kind", kind, "chat_id", chatID)
	}
}
