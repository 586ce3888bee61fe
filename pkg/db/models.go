package db

import (
	"time"

	"gorm.io/datatypes"
)

// Recipient is a subscribed chat. Table and column names match the schema the
// bot has always used so existing databases migrate in place.
type Recipient struct {
	ChatID    int64     `gorm:"primaryKey;autoIncrement:false"`
	Lang      string    `gorm:"not null;default:tr"`
	FirstSeen time.Time `gorm:"not null"`
}

func (Recipient) TableName() string {
	return "users"
}

type Reminder struct {
	ID        uint      `gorm:"primaryKey"`
	ChatID    int64     `gorm:"not null;index"`
	RemindAt  time.Time `gorm:"not null;index:idx_reminders_due"`
	Text      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	SentAt    *time.Time
}

// DailyState is the singleton row (ID 1) holding the word cursor and the
// per-kind broadcast watermarks.
type DailyState struct {
	ID              uint `gorm:"primaryKey;autoIncrement:false"`
	LastSentDate    *datatypes.Date
	LastIndex       int `gorm:"not null;default:0"`
	LastApologyDate *datatypes.Date
	LastEatDate     *datatypes.Date
	LastLoveDate    *datatypes.Date
	LastWaterDate   *datatypes.Date
	LastQuizDate    *datatypes.Date
}

func (DailyState) TableName() string {
	return "daily_state"
}

type QuizState struct {
	ChatID        int64     `gorm:"primaryKey;autoIncrement:false"`
	CorrectOption string    `gorm:"type:char(1);not null"`
	Word          string    `gorm:"not null;default:''"`
	AskedAt       time.Time `gorm:"not null"`
}

func (QuizState) TableName() string {
	return "quiz_state"
}

// Kind names a once-per-day broadcast with its own watermark.
type Kind string

const (
	KindApology Kind = "apology"
	KindEat     Kind = "eat"
	KindLove    Kind = "love"
	KindWater   Kind = "water"
	KindQuiz    Kind = "quiz"
)

// Kinds lists the watermarked broadcasts in evaluation order.
var Kinds = []Kind{KindApology, KindEat, KindLove, KindWater, KindQuiz}

var watermarkColumns = map[Kind]string{
	KindApology: "last_apology_date",
	KindEat:     "last_eat_date",
	KindLove:    "last_love_date",
	KindWater:   "last_water_date",
	KindQuiz:    "last_quiz_date",
}

// Watermarks maps a kind to the calendar date it last fired. Missing kinds never fired.
type Watermarks map[Kind]time.Time

// FiredOn reports whether kind already fired on the calendar date of day.
func (w Watermarks) FiredOn(kind Kind, day time.Time) bool {
	last, ok := w[kind]
	return ok && SameDay(last, day)
}

// DailyCursor is the words-of-the-day rotation state. Date is zero until the first send.
type DailyCursor struct {
	Date  time.Time
	Index int
}

func (c DailyCursor) SentOn(day time.Time) bool {
	return !c.Date.IsZero() && SameDay(c.Date, day)
}

// DayOf returns the calendar date of t (in t's own location) as UTC midnight,
// the form dates are persisted in.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay compares calendar dates, each taken in its own location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func dateValue(t time.Time) *datatypes.Date {
	d := datatypes.Date(DayOf(t))
	return &d
}

func fromDate(d *datatypes.Date) (time.Time, bool) {
	if d == nil {
		return time.Time{}, false
	}
	return DayOf(time.Time(*d)), true
}
