package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/smith3v/tg-daily-companion/pkg/clock"
	"github.com/smith3v/tg-daily-companion/pkg/logger"
)

type Config struct {
	Telegram  TelegramConfig
	Database  DatabaseConfig
	Schedule  ScheduleConfig
	Content   ContentConfig
	Logging   LoggingConfig
	Server    ServerConfig
	Telemetry TelemetryConfig
}

type TelegramConfig struct {
	Token string `env:"BOT_TOKEN,required"`
}

type DatabaseConfig struct {
	// URL is a postgres connection string or a sqlite file DSN (file:..., *.db).
	URL string `env:"DATABASE_URL,required"`
}

type ScheduleConfig struct {
	TimeZone    string `env:"TZ" envDefault:"Europe/Istanbul"`
	DailyHour   int    `env:"DAILY_HOUR" envDefault:"10"`
	DailyMinute int    `env:"DAILY_MINUTE" envDefault:"0"`
	WordsPerDay int    `env:"WORDS_PER_DAY" envDefault:"5"`

	ApologyAt clock.Time `env:"APOLOGY_AT" envDefault:"01:17"`
	EatAt     clock.Time `env:"EAT_AT" envDefault:"12:00"`
	LoveAt    clock.Time `env:"LOVE_AT" envDefault:"14:50"`
	WaterAt   clock.Time `env:"WATER_AT" envDefault:"15:00"`
	QuizAt    clock.Time `env:"QUIZ_AT" envDefault:"15:02"`

	TickInterval    time.Duration `env:"TICK_INTERVAL" envDefault:"1m"`
	SendConcurrency int           `env:"SEND_CONCURRENCY" envDefault:"4"`

	location *time.Location
}

type ContentConfig struct {
	WordsFile string `env:"WORDS_FILE" envDefault:"words.json"`
	SongsFile string `env:"SONGS_FILE" envDefault:"songs.json"`
}

type LoggingConfig struct {
	Level     string `env:"LOG_LEVEL" envDefault:"info"`
	File      string `env:"LOG_FILE"`
	GormLevel string `env:"GORM_LOG_LEVEL" envDefault:"warn"`
}

type ServerConfig struct {
	Port int `env:"PORT" envDefault:"10000"`
}

type TelemetryConfig struct {
	// Endpoint is an OTLP/HTTP collector URL; tracing is off when empty.
	Endpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"tg-daily-companion"`
}

var AppConfig Config

// LoadConfig reads envFile (if present) into the process environment and decodes the
// environment into AppConfig. Variables already set in the environment win over the file.
func LoadConfig(envFile string) error {
	if strings.TrimSpace(envFile) != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Error("failed to load env file", "file", envFile, "error", err)
			return err
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		logger.Error("failed to parse environment", "error", err)
		return fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		return err
	}

	AppConfig = cfg
	return nil
}

// Validate checks ranges and resolves the time zone.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Telegram.Token) == "" {
		errs = append(errs, errors.New("BOT_TOKEN is required"))
	}
	if strings.TrimSpace(c.Database.URL) == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if _, err := c.Schedule.DailyAt(); err != nil {
		errs = append(errs, fmt.Errorf("daily time: %w", err))
	}
	if c.Schedule.WordsPerDay <= 0 {
		errs = append(errs, fmt.Errorf("WORDS_PER_DAY must be positive, got %d", c.Schedule.WordsPerDay))
	}
	if c.Schedule.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("TICK_INTERVAL must be positive, got %s", c.Schedule.TickInterval))
	}
	if c.Schedule.SendConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("SEND_CONCURRENCY must be positive, got %d", c.Schedule.SendConcurrency))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Server.Port))
	}
	loc, err := time.LoadLocation(c.Schedule.TimeZone)
	if err != nil {
		errs = append(errs, fmt.Errorf("load time zone %q: %w", c.Schedule.TimeZone, err))
	} else {
		c.Schedule.location = loc
	}
	return errors.Join(errs...)
}

// DailyAt is the words-of-the-day cutover built from DAILY_HOUR and DAILY_MINUTE.
func (s ScheduleConfig) DailyAt() (clock.Time, error) {
	return clock.New(s.DailyHour, s.DailyMinute)
}

// Location returns the zone resolved by Validate, or UTC before validation.
func (s ScheduleConfig) Location() *time.Location {
	if s.location == nil {
		return time.UTC
	}
	return s.location
}
