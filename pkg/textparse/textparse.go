// Package textparse classifies inbound chat text: language, clock times and intents.
// Everything here is pure.
package textparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/smith3v/tg-daily-companion/pkg/clock"
	"github.com/smith3v/tg-daily-companion/pkg/i18n"
)

// RE2's \b only knows ASCII word characters, so the word boundaries are spelled out
// with Unicode classes; otherwise "15 taşı" or "в 15ч" would yield a time.
const (
	wordStart = `(?:^|[^\p{L}\p{N}_])`
	wordEnd   = `(?:$|[^\p{L}\p{N}_])`
)

var (
	timeRe = regexp.MustCompile(`(?i)` + wordStart + `(?:saat\s*)?(\d{1,2})[:.](\d{2})` + wordEnd)
	// "15'te", "9 ta"
	hourOnlyTR = regexp.MustCompile(`(?i)` + wordStart + `(\d{1,2})\s*'?\s*(?:te|ta)` + wordEnd)
	// "в 15"
	hourOnlyRU = regexp.MustCompile(`(?i)` + wordStart + `в\s*(\d{1,2})` + wordEnd)
)

var reminderKeywords = []string{"hatırlat", "hatirlat", "напомн"}

var loveTriggers = map[string]struct{}{
	"mert beni seviyor mu": {},
	"мерт меня любит":      {},
	"мерт меня любит?":     {},
}

var songRequests = map[string]struct{}{
	"turkishmusic":    {},
	"songsuggestion":  {},
	"/songsuggestion": {},
}

// DetectLanguage returns RU when Cyrillic letters outnumber Latin ones, TR otherwise.
func DetectLanguage(text string) i18n.Lang {
	var cyrillic, latin int
	for _, r := range text {
		switch {
		case (r >= 'А' && r <= 'я') || r == 'ё' || r == 'Ё':
			cyrillic++
		case (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z'):
			latin++
		}
	}
	if cyrillic > latin {
		return i18n.RU
	}
	return i18n.TR
}

// ParseTime extracts a time of day. Forms, in priority order: "HH:MM"/"HH.MM"
// (optionally after "saat"), "HH'te"/"HH'ta", "в HH". A match outside 00:00-23:59
// yields no time; an out-of-range HH:MM does not fall through to the hour-only forms.
func ParseTime(text string) (clock.Time, bool) {
	if m := timeRe.FindStringSubmatch(text); m != nil {
		return build(m[1], m[2])
	}
	if m := hourOnlyTR.FindStringSubmatch(text); m != nil {
		return build(m[1], "0")
	}
	if m := hourOnlyRU.FindStringSubmatch(text); m != nil {
		return build(m[1], "0")
	}
	return clock.Time{}, false
}

func build(hourText, minuteText string) (clock.Time, bool) {
	hour, err := strconv.Atoi(hourText)
	if err != nil {
		return clock.Time{}, false
	}
	minute, err := strconv.Atoi(minuteText)
	if err != nil {
		return clock.Time{}, false
	}
	t, err := clock.New(hour, minute)
	if err != nil {
		return clock.Time{}, false
	}
	return t, true
}

// DueAt places t on now's calendar day, moving to the next day unless it is strictly after now.
func DueAt(now time.Time, t clock.Time) time.Time {
	return t.Next(now)
}

// WantsReminder reports whether text asks for a reminder in either language.
func WantsReminder(text string) bool {
	lowered := strings.ToLower(text)
	for _, keyword := range reminderKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

// IsLoveTrigger matches the fixed trigger phrases of both languages.
func IsLoveTrigger(text string) bool {
	_, ok := loveTriggers[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

// QuizAnswer returns the upper-case letter when text is exactly A, B or C.
func QuizAnswer(text string) (string, bool) {
	letter := strings.ToUpper(strings.TrimSpace(text))
	switch letter {
	case "A", "B", "C":
		return letter, true
	default:
		return "", false
	}
}

// ValidAnswerLetter reports whether a stored quiz letter is usable.
func ValidAnswerLetter(letter string) bool {
	_, ok := QuizAnswer(letter)
	return ok && len(strings.TrimSpace(letter)) == 1
}

func IsSongRequest(text string) bool {
	_, ok := songRequests[strings.ToLower(strings.TrimSpace(text))]
	return ok
}
