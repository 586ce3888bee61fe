package textparse

import (
	"testing"
	"time"

	"github.com/smith3v/tg-daily-companion/pkg/clock"
	"github.com/smith3v/tg-daily-companion/pkg/i18n"
)

func TestDetectLanguage(t *testing.T) {
	cases := []struct {
		text string
		want i18n.Lang
	}{
		{text: "", want: i18n.TR},
		{text: "yarın saat 15:00 hatırlat", want: i18n.TR},
		{text: "напомни в 15", want: i18n.RU},
		{text: "Ёжик", want: i18n.RU},
		{text: "ab вг", want: i18n.TR},
		{text: "a вг", want: i18n.RU},
		{text: "12:30 !!", want: i18n.TR},
	}
	for _, tc := range cases {
		if got := DetectLanguage(tc.text); got != tc.want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestParseTime(t *testing.T) {
	cases := []struct {
		text   string
		want   clock.Time
		wantOK bool
	}{
		{text: "15:00", want: clock.Time{Hour: 15}, wantOK: true},
		{text: "9.30", want: clock.Time{Hour: 9, Minute: 30}, wantOK: true},
		{text: "saat 07:45 toplantı", want: clock.Time{Hour: 7, Minute: 45}, wantOK: true},
		{text: "Saat15:20'de ara", want: clock.Time{Hour: 15, Minute: 20}, wantOK: true},
		{text: "15'te hatırlat", want: clock.Time{Hour: 15}, wantOK: true},
		{text: "9 ta hatırlat", want: clock.Time{Hour: 9}, wantOK: true},
		{text: "напомни в 15", want: clock.Time{Hour: 15}, wantOK: true},
		{text: "В 8 позвонить маме", want: clock.Time{Hour: 8}, wantOK: true},
		{text: "25:00", wantOK: false},
		{text: "12:75", wantOK: false},
		{text: "25:00 ya da 15'te", wantOK: false},
		{text: "30'ta", wantOK: false},
		{text: "15 tane elma", wantOK: false},
		{text: "встреча завтра", wantOK: false},
		{text: "saat 9:30'da", want: clock.Time{Hour: 9, Minute: 30}, wantOK: true},
		{text: "(15:45)", want: clock.Time{Hour: 15, Minute: 45}, wantOK: true},
		{text: "15 taşı getir", wantOK: false},
		{text: "в 15ч", wantOK: false},
		{text: "15:00ч", wantOK: false},
		{text: "ц15:00", wantOK: false},
		{text: "дв 15", wantOK: false},
		{text: "", wantOK: false},
	}
	for _, tc := range cases {
		got, ok := ParseTime(tc.text)
		if ok != tc.wantOK {
			t.Errorf("ParseTime(%q) ok = %v, want %v", tc.text, ok, tc.wantOK)
			continue
		}
		if ok && got != tc.want {
			t.Errorf("ParseTime(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestDueAt(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Istanbul")
	if err != nil {
		t.Skipf("time zone data unavailable: %v", err)
	}
	now := time.Date(2024, 1, 1, 9, 5, 0, 0, loc)

	if got, want := DueAt(now, clock.Time{Hour: 9}), time.Date(2024, 1, 2, 9, 0, 0, 0, loc); !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got, want := DueAt(now, clock.Time{Hour: 10}), time.Date(2024, 1, 1, 10, 0, 0, 0, loc); !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestWantsReminder(t *testing.T) {
	for _, text := range []string{"15'te hatırlat", "HATIRLAT bana", "hatirlat 10:00", "Напомни в 9"} {
		if !WantsReminder(text) {
			t.Errorf("expected %q to request a reminder", text)
		}
	}
	if WantsReminder("toplantı 15:00") {
		t.Error("expected plain time mention not to request a reminder")
	}
}

func TestIsLoveTrigger(t *testing.T) {
	for _, text := range []string{"Mert beni seviyor mu", "мерт меня любит", " Мерт меня любит? "} {
		if !IsLoveTrigger(text) {
			t.Errorf("expected %q to be a love trigger", text)
		}
	}
	if IsLoveTrigger("mert beni seviyor mu acaba") {
		t.Error("expected only exact phrases to trigger")
	}
}

func TestQuizAnswer(t *testing.T) {
	for in, want := range map[string]string{"a": "A", " B ": "B", "C": "C"} {
		got, ok := QuizAnswer(in)
		if !ok || got != want {
			t.Errorf("QuizAnswer(%q) = %q, %v", in, got, ok)
		}
	}
	for _, in := range []string{"D", "AB", "", "a)"} {
		if _, ok := QuizAnswer(in); ok {
			t.Errorf("QuizAnswer(%q) should not match", in)
		}
	}
	if ValidAnswerLetter("X") || ValidAnswerLetter("") || !ValidAnswerLetter("C") {
		t.Error("unexpected stored letter validation")
	}
}

func TestIsSongRequest(t *testing.T) {
	for _, text := range []string{"turkishmusic", "SongSuggestion", "/songsuggestion"} {
		if !IsSongRequest(text) {
			t.Errorf("expected %q to request a song", text)
		}
	}
	if IsSongRequest("song") {
		t.Error("unexpected song request match")
	}
}
