package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/smith3v/tg-daily-companion/pkg/bot/handlers"
	"github.com/smith3v/tg-daily-companion/pkg/clock"
	"github.com/smith3v/tg-daily-companion/pkg/config"
	"github.com/smith3v/tg-daily-companion/pkg/content"
	"github.com/smith3v/tg-daily-companion/pkg/db"
	"github.com/smith3v/tg-daily-companion/pkg/delivery"
	"github.com/smith3v/tg-daily-companion/pkg/health"
	"github.com/smith3v/tg-daily-companion/pkg/i18n"
	"github.com/smith3v/tg-daily-companion/pkg/logger"
	"github.com/smith3v/tg-daily-companion/pkg/schedule"
	"github.com/smith3v/tg-daily-companion/pkg/telemetry"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := config.LoadConfig(".env"); err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.AppConfig
	if err := logger.Configure(logger.Options{
		Level: cfg.Logging.Level,
		File:  cfg.Logging.File,
	}); err != nil {
		logger.Error("failed to configure logger", "error", err)
	}

	store, err := db.Open(cfg.Database.URL, cfg.Logging.GormLevel)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Endpoint)
	if err != nil {
		logger.Error("failed to set up tracing", "error", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("failed to flush traces", "error", err)
		}
	}()

	if err := store.Init(ctx); err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}

	vocab, err := content.LoadVocabulary(cfg.Content.WordsFile)
	if err != nil {
		logger.Error("failed to load vocabulary", "file", cfg.Content.WordsFile, "error", err)
		os.Exit(1)
	}
	songs, err := content.LoadSongs(cfg.Content.SongsFile)
	if err != nil {
		logger.Error("failed to load songs", "file", cfg.Content.SongsFile, "error", err)
		os.Exit(1)
	}
	texts, err := i18n.Load()
	if err != nil {
		logger.Error("failed to load texts", "error", err)
		os.Exit(1)
	}

	// Validate already checked the daily time.
	wordsAt, _ := cfg.Schedule.DailyAt()
	location := cfg.Schedule.Location()

	// The router needs the coordinator and the coordinator needs the bot, so the bot
	// is created first and the router attached through its options.
	router := handlers.NewRouter(store, nil, texts, songs, location)
	b, err := bot.New(cfg.Telegram.Token, router.Options()...)
	if err != nil {
		logger.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	coordinator := schedule.NewCoordinator(store, delivery.NewTelegram(b), texts, vocab, schedule.Options{
		Location:    location,
		WordsAt:     wordsAt,
		Cutovers:    cutovers(cfg.Schedule),
		WordsPerDay: cfg.Schedule.WordsPerDay,
		Concurrency: cfg.Schedule.SendConcurrency,
	})
	router.SetBroadcaster(coordinator)
	router.Register(b)

	sweeper := schedule.NewSweeper(store, delivery.NewTelegram(b), texts)
	runner := schedule.NewRunner(coordinator, sweeper, cfg.Schedule.TickInterval, location)

	logger.Info("starting bot",
		"time_zone", location.String(),
		"words", len(vocab),
		"songs", len(songs),
		"words_at", wordsAt.String(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		runner.Start(gctx)
		return nil
	})
	g.Go(func() error {
		return health.Serve(gctx, cfg.Server.Port)
	})
	g.Go(func() error {
		b.Start(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Error("bot stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("bot stopped")
}

func cutovers(s config.ScheduleConfig) map[db.Kind]clock.Time {
	return map[db.Kind]clock.Time{
		db.KindApology: s.ApologyAt,
		db.KindEat:     s.EatAt,
		db.KindLove:    s.LoveAt,
		db.KindWater:   s.WaterAt,
		db.KindQuiz:    s.QuizAt,
	}
}
