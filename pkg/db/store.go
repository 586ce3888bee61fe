package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/smith3v/tg-daily-companion/pkg/logger"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const dailyStateID = 1

// ErrUnknownKind is returned by SetWatermark for kinds without a watermark column.
var ErrUnknownKind = errors.New("unknown broadcast kind")

// Store is the durable state of the bot: recipients, reminders, the daily-state
// singleton and pending quiz answers.
type Store struct {
	db *gorm.DB
}

func New(gdb *gorm.DB) *Store {
	return &Store{db: gdb}
}

// Open connects to postgres, or to sqlite when dsn looks like a sqlite file
// ("file:...", "sqlite://...", "*.db", "*.sqlite").
func Open(dsn, gormLevel string) (*Store, error) {
	gormLogger, gormErr := newGormLogger(gormLevel)
	if gormErr != nil {
		logger.Error("invalid gorm log level", "value", gormLevel, "error", gormErr)
	}
	cfg := &gorm.Config{
		Logger:  gormLogger,
		NowFunc: func() time.Time { return time.Now().UTC() },
	}

	dialector, name := dialectorFor(dsn)
	gdb, err := gorm.Open(dialector, cfg)
	if err != nil {
		logger.Error("failed to connect to database", "driver", name, "error", err)
		return nil, err
	}
	if name == "sqlite" {
		// sqlite allows one writer; the scheduler and the update handlers share it.
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}
	logger.Info("database connected", "driver", name)
	return New(gdb), nil
}

func dialectorFor(dsn string) (gorm.Dialector, string) {
	trimmed := strings.TrimSpace(dsn)
	lower := strings.ToLower(trimmed)
	switch {
	case strings.HasPrefix(lower, "sqlite://"):
		return sqlite.Open(trimmed[len("sqlite://"):]), "sqlite"
	case strings.HasPrefix(lower, "file:"),
		strings.HasSuffix(lower, ".db"),
		strings.HasSuffix(lower, ".sqlite"),
		lower == ":memory:":
		return sqlite.Open(trimmed), "sqlite"
	default:
		return postgres.Open(trimmed), "postgres"
	}
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Init migrates the schema and makes sure the daily-state row exists. Safe to run on every start.
func (s *Store) Init(ctx context.Context) error {
	gdb := s.db.WithContext(ctx)
	if err := gdb.AutoMigrate(&Recipient{}, &Reminder{}, &DailyState{}, &QuizState{}); err != nil {
		logger.Error("failed to auto-migrate database", "error", err)
		return fmt.Errorf("auto-migrate: %w", err)
	}
	if err := gdb.Clauses(clause.OnConflict{DoNothing: true}).Create(&DailyState{ID: dailyStateID}).Error; err != nil {
		logger.Error("failed to seed daily state", "error", err)
		return fmt.Errorf("seed daily state: %w", err)
	}
	return nil
}

func (s *Store) ListRecipients(ctx context.Context) ([]Recipient, error) {
	var recipients []Recipient
	if err := s.db.WithContext(ctx).Order("chat_id").Find(&recipients).Error; err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	return recipients, nil
}

// AddRecipient registers chatID; an existing recipient is left unchanged.
func (s *Store) AddRecipient(ctx context.Context, chatID int64, lang string) error {
	recipient := Recipient{ChatID: chatID, Lang: lang, FirstSeen: time.Now().UTC()}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&recipient).Error; err != nil {
		return fmt.Errorf("add recipient %d: %w", chatID, err)
	}
	return nil
}

// RemoveRecipient unsubscribes chatID and drops its pending quiz. Reminders are kept.
func (s *Store) RemoveRecipient(ctx context.Context, chatID int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&Recipient{}, "chat_id = ?", chatID).Error; err != nil {
			return err
		}
		return tx.Delete(&QuizState{}, "chat_id = ?", chatID).Error
	})
	if err != nil {
		return fmt.Errorf("remove recipient %d: %w", chatID, err)
	}
	return nil
}

func (s *Store) SetRecipientLang(ctx context.Context, chatID int64, lang string) error {
	err := s.db.WithContext(ctx).Model(&Recipient{}).Where("chat_id = ?", chatID).Update("lang", lang).Error
	if err != nil {
		return fmt.Errorf("set lang for %d: %w", chatID, err)
	}
	return nil
}

func (s *Store) AddReminder(ctx context.Context, chatID int64, dueAt time.Time, text string) (uint, error) {
	reminder := Reminder{ChatID: chatID, RemindAt: dueAt.UTC(), Text: text}
	if err := s.db.WithContext(ctx).Create(&reminder).Error; err != nil {
		return 0, fmt.Errorf("add reminder for %d: %w", chatID, err)
	}
	return reminder.ID, nil
}

// FetchDueReminders returns unsent reminders due at or before now.
func (s *Store) FetchDueReminders(ctx context.Context, now time.Time) ([]Reminder, error) {
	var reminders []Reminder
	err := s.db.WithContext(ctx).
		Where("sent_at IS NULL AND remind_at <= ?", now.UTC()).
		Order("remind_at, id").
		Find(&reminders).Error
	if err != nil {
		return nil, fmt.Errorf("fetch due reminders: %w", err)
	}
	return reminders, nil
}

func (s *Store) MarkRemindersSent(ctx context.Context, ids []uint, sentAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Model(&Reminder{}).Where("id IN ?", ids).Update("sent_at", sentAt.UTC()).Error
	if err != nil {
		return fmt.Errorf("mark %d reminders sent: %w", len(ids), err)
	}
	return nil
}

func (s *Store) ListPendingReminders(ctx context.Context, chatID int64, limit int) ([]Reminder, error) {
	var reminders []Reminder
	err := s.db.WithContext(ctx).
		Where("chat_id = ? AND sent_at IS NULL", chatID).
		Order("remind_at, id").
		Limit(limit).
		Find(&reminders).Error
	if err != nil {
		return nil, fmt.Errorf("list pending reminders for %d: %w", chatID, err)
	}
	return reminders, nil
}

func (s *Store) loadDailyState(ctx context.Context) (DailyState, error) {
	var state DailyState
	err := s.db.WithContext(ctx).First(&state, dailyStateID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return DailyState{ID: dailyStateID}, nil
	}
	if err != nil {
		return DailyState{}, fmt.Errorf("load daily state: %w", err)
	}
	return state, nil
}

func (s *Store) GetDailyCursor(ctx context.Context) (DailyCursor, error) {
	state, err := s.loadDailyState(ctx)
	if err != nil {
		return DailyCursor{}, err
	}
	cursor := DailyCursor{Index: state.LastIndex}
	if date, ok := fromDate(state.LastSentDate); ok {
		cursor.Date = date
	}
	return cursor, nil
}

func (s *Store) SetDailyCursor(ctx context.Context, date time.Time, index int) error {
	err := s.db.WithContext(ctx).Model(&DailyState{}).Where("id = ?", dailyStateID).
		Updates(map[string]any{"last_sent_date": dateValue(date), "last_index": index}).Error
	if err != nil {
		return fmt.Errorf("set daily cursor: %w", err)
	}
	return nil
}

func (s *Store) GetWatermarks(ctx context.Context) (Watermarks, error) {
	state, err := s.loadDailyState(ctx)
	if err != nil {
		return nil, err
	}
	marks := Watermarks{}
	for kind, date := range map[Kind]*datatypes.Date{
		KindApology: state.LastApologyDate,
		KindEat:     state.LastEatDate,
		KindLove:    state.LastLoveDate,
		KindWater:   state.LastWaterDate,
		KindQuiz:    state.LastQuizDate,
	} {
		if day, ok := fromDate(date); ok {
			marks[kind] = day
		}
	}
	return marks, nil
}

func (s *Store) SetWatermark(ctx context.Context, kind Kind, date time.Time) error {
	column, ok := watermarkColumns[kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	err := s.db.WithContext(ctx).Model(&DailyState{}).Where("id = ?", dailyStateID).Update(column, dateValue(date)).Error
	if err != nil {
		return fmt.Errorf("set %s watermark: %w", kind, err)
	}
	return nil
}

// GetQuizState returns the pending quiz for chatID, if any.
func (s *Store) GetQuizState(ctx context.Context, chatID int64) (QuizState, bool, error) {
	var state QuizState
	err := s.db.WithContext(ctx).Where("chat_id = ?", chatID).Take(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return QuizState{}, false, nil
	}
	if err != nil {
		return QuizState{}, false, fmt.Errorf("get quiz state for %d: %w", chatID, err)
	}
	return state, true, nil
}

// SetQuizState stores or replaces the pending quiz for state.ChatID.
func (s *Store) SetQuizState(ctx context.Context, state QuizState) error {
	if state.AskedAt.IsZero() {
		state.AskedAt = time.Now()
	}
	state.AskedAt = state.AskedAt.UTC()
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "chat_id"}}, UpdateAll: true}).
		Create(&state).Error
	if err != nil {
		return fmt.Errorf("set quiz state for %d: %w", state.ChatID, err)
	}
	return nil
}

func (s *Store) ClearQuizState(ctx context.Context, chatID int64) error {
	if err := s.db.WithContext(ctx).Delete(&QuizState{}, "chat_id = ?", chatID).Error; err != nil {
		return fmt.Errorf("clear quiz state for %d: %w", chatID, err)
	}
	return nil
}
