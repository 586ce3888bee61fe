package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/smith3v/tg-daily-companion/pkg/db"
)

var morning = time.Date(2024, 1, 1, 9, 5, 0, 0, testLocation)

func TestReminderRequestSchedulesReminder(t *testing.T) {
	env := newTestEnv(t, nil, morning)
	ctx := context.Background()

	env.router.DefaultHandler(ctx, newTestBot(t, env), newTestUpdate("15'te hatırlat", 301))

	if got := env.client.LastMessageText(t); got != "Tamam. 15:00 için hatırlatıcı kurdum." {
		t.Fatalf("unexpected reply: %q", got)
	}
	pending, err := env.store.ListPendingReminders(ctx, 301, 20)
	if err != nil {
		t.Fatalf("failed to list reminders: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one reminder, got %d", len(pending))
	}
	want := time.Date(2024, 1, 1, 15, 0, 0, 0, testLocation)
	if !pending[0].RemindAt.Equal(want) {
		t.Fatalf("expected reminder at %v, got %v", want, pending[0].RemindAt)
	}
	if pending[0].Text != "15'te hatırlat" {
		t.Fatalf("unexpected reminder text: %q", pending[0].Text)
	}
}

func TestReminderForPastTimeMovesToTomorrow(t *testing.T) {
	env := newTestEnv(t, nil, morning)
	ctx := context.Background()

	env.router.DefaultHandler(ctx, newTestBot(t, env), newTestUpdate("напомни в 9:00 выпить таблетку", 302))

	if got := env.client.LastMessageText(t); got != "Готово. Поставил напоминание на 09:00." {
		t.Fatalf("unexpected reply: %q", got)
	}
	pending, err := env.store.ListPendingReminders(ctx, 302, 20)
	if err != nil || len(pending) != 1 {
		t.Fatalf("expected one reminder, got %d (%v)", len(pending), err)
	}
	want := time.Date(2024, 1, 2, 9, 0, 0, 0, testLocation)
	if !pending[0].RemindAt.Equal(want) {
		t.Fatalf("expected reminder at %v, got %v", want, pending[0].RemindAt)
	}
}

func TestReminderWithoutTimeAsksForOne(t *testing.T) {
	env := newTestEnv(t, nil, morning)
	ctx := context.Background()

	env.router.DefaultHandler(ctx, newTestBot(t, env), newTestUpdate("annemi aramayı hatırlat", 303))

	want := "Hangi saat için hatırlatayım? Örn: 'saat 15:00' ya da '15'te hatırlat'"
	if got := env.client.LastMessageText(t); got != want {
		t.Fatalf("unexpected reply: %q", got)
	}
	pending, _ := env.store.ListPendingReminders(ctx, 303, 20)
	if len(pending) != 0 {
		t.Fatalf("expected no reminder, got %d", len(pending))
	}
}

func TestTimeWithoutReminderKeywordIsIgnored(t *testing.T) {
	env := newTestEnv(t, nil, morning)
	ctx := context.Background()

	env.router.DefaultHandler(ctx, newTestBot(t, env), newTestUpdate("toplantı 15:00", 304))

	if n := len(env.client.Requests()); n != 0 {
		t.Fatalf("expected no reply, got %d requests", n)
	}
	pending, _ := env.store.ListPendingReminders(ctx, 304, 20)
	if len(pending) != 0 {
		t.Fatalf("expected no reminder, got %d", len(pending))
	}
}

func TestQuizAnswerResolution(t *testing.T) {
	cases := []struct {
		name   string
		answer string
		want   string
	}{
		{name: "correct", answer: "b", want: "Harika! Doğru cevap."},
		{name: "wrong", answer: "A", want: "Yaklaştın! Doğru cevap B."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, nil, morning)
			ctx := context.Background()
			if err := env.store.SetQuizState(ctx, db.QuizState{ChatID: 305, CorrectOption: "B", Word: "elma"}); err != nil {
				t.Fatalf("failed to seed quiz: %v", err)
			}

			env.router.DefaultHandler(ctx, newTestBot(t, env), newTestUpdate(tc.answer, 305))

			if got := env.client.LastMessageText(t); got != tc.want {
				t.Fatalf("unexpected reply: %q", got)
			}
			if _, found, _ := env.store.GetQuizState(ctx, 305); found {
				t.Fatal("expected quiz state to be cleared after an answer")
			}
		})
	}
}

func TestQuizLetterWithoutPendingQuizIsIgnored(t *testing.T) {
	env := newTestEnv(t, nil, morning)
	ctx := context.Background()

	env.router.DefaultHandler(ctx, newTestBot(t, env), newTestUpdate("A", 306))

	if n := len(env.client.Requests()); n != 0 {
		t.Fatalf("expected no reply, got %d requests", n)
	}
}

func TestQuizWithMalformedLetterIsTreatedAsMissing(t *testing.T) {
	env := newTestEnv(t, nil, morning)
	ctx := context.Background()
	if err := env.store.SetQuizState(ctx, db.QuizState{ChatID: 307, CorrectOption: "X"}); err != nil {
		t.Fatalf("failed to seed quiz: %v", err)
	}

	env.router.DefaultHandler(ctx, newTestBot(t, env), newTestUpdate("C", 307))

	if n := len(env.client.Requests()); n != 0 {
		t.Fatalf("expected no reply, got %d requests", n)
	}
}

func TestLoveTriggerReplies(t *testing.T) {
	cases := map[string]string{
		"Mert beni seviyor mu": "Mert seni inanılmaz derecede çok seviyor. ve seni sürekli olarak özlüyor",
		"мерт меня любит?":     "Мерт тебя безумно сильно любит и постоянно скучает по тебе.",
	}
	for text, want := range cases {
		env := newTestEnv(t, nil, morning)
		env.router.DefaultHandler(context.Background(), newTestBot(t, env), newTestUpdate(text, 308))
		if got := env.client.LastMessageText(t); got != want {
			t.Fatalf("reply to %q = %q, want %q", text, got, want)
		}
	}
}
