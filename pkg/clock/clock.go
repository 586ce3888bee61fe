// Package clock holds a wall-clock time of day with minute precision.
package clock

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Time is an hour:minute pair in an unspecified zone.
type Time struct {
	Hour   int
	Minute int
}

// New returns a validated Time.
func New(hour, minute int) (Time, error) {
	if hour < 0 || hour > 23 {
		return Time{}, fmt.Errorf("hour %d out of range", hour)
	}
	if minute < 0 || minute > 59 {
		return Time{}, fmt.Errorf("minute %d out of range", minute)
	}
	return Time{Hour: hour, Minute: minute}, nil
}

// Parse reads "HH:MM" (a single-digit hour is accepted).
func Parse(value string) (Time, error) {
	hourPart, minutePart, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return Time{}, fmt.Errorf("invalid clock value %q", value)
	}
	hour, err := strconv.Atoi(hourPart)
	if err != nil {
		return Time{}, fmt.Errorf("invalid hour in %q: %w", value, err)
	}
	minute, err := strconv.Atoi(minutePart)
	if err != nil || len(minutePart) != 2 {
		return Time{}, fmt.Errorf("invalid minute in %q", value)
	}
	return New(hour, minute)
}

func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// UnmarshalText lets env decoders read "HH:MM" values.
func (t *Time) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Passed reports whether now's wall clock is at or after t, evaluated in now's zone.
func (t Time) Passed(now time.Time) bool {
	if now.Hour() != t.Hour {
		return now.Hour() > t.Hour
	}
	return now.Minute() >= t.Minute
}

// On places t on the calendar day of day, in day's location.
func (t Time) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, day.Location())
}

// Next returns the first instant at t that is strictly after now, in now's location.
func (t Time) Next(now time.Time) time.Time {
	at := t.On(now)
	if !at.After(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at
}
