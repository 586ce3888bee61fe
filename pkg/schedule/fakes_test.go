package schedule

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/smith3v/tg-daily-companion/pkg/db"
	"github.com/smith3v/tg-daily-companion/pkg/delivery"
)

// memoryStore is an in-memory BroadcastStore and ReminderStore.
type memoryStore struct {
	mu         sync.Mutex
	recipients map[int64]db.Recipient
	reminders  []db.Reminder
	cursor     db.DailyCursor
	marks      db.Watermarks
	quiz       map[int64]db.QuizState

	cursorWrites int
	markWrites   map[db.Kind]int
	listErr      error
}

func newMemoryStore(recipients ...db.Recipient) *memoryStore {
	s := &memoryStore{
		recipients: map[int64]db.Recipient{},
		marks:      db.Watermarks{},
		quiz:       map[int64]db.QuizState{},
		markWrites: map[db.Kind]int{},
	}
	for _, r := range recipients {
		s.recipients[r.ChatID] = r
	}
	return s
}

func (s *memoryStore) ListRecipients(context.Context) ([]db.Recipient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]db.Recipient, 0, len(s.recipients))
	for _, r := range s.recipients {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChatID < out[j].ChatID })
	return out, nil
}

func (s *memoryStore) RemoveRecipient(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recipients, chatID)
	delete(s.quiz, chatID)
	return nil
}

func (s *memoryStore) GetDailyCursor(context.Context) (db.DailyCursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor, nil
}

func (s *memoryStore) SetDailyCursor(_ context.Context, date time.Time, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = db.DailyCursor{Date: db.DayOf(date), Index: index}
	s.cursorWrites++
	return nil
}

func (s *memoryStore) GetWatermarks(context.Context) (db.Watermarks, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := db.Watermarks{}
	for k, v := range s.marks {
		out[k] = v
	}
	return out, nil
}

func (s *memoryStore) SetWatermark(_ context.Context, kind db.Kind, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marks[kind] = db.DayOf(date)
	s.markWrites[kind]++
	return nil
}

func (s *memoryStore) SetQuizState(_ context.Context, state db.QuizState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quiz[state.ChatID] = state
	return nil
}

func (s *memoryStore) addReminder(chatID int64, at time.Time, text string) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uint(len(s.reminders) + 1)
	s.reminders = append(s.reminders, db.Reminder{ID: id, ChatID: chatID, RemindAt: at, Text: text})
	return id
}

func (s *memoryStore) FetchDueReminders(_ context.Context, now time.Time) ([]db.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []db.Reminder
	for _, r := range s.reminders {
		if r.SentAt == nil && !r.RemindAt.After(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memoryStore) MarkRemindersSent(_ context.Context, ids []uint, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		for i := range s.reminders {
			if s.reminders[i].ID == id {
				at := sentAt
				s.reminders[i].SentAt = &at
			}
		}
	}
	return nil
}

func (s *memoryStore) reminder(id uint) db.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reminders {
		if r.ID == id {
			return r
		}
	}
	return db.Reminder{}
}

// fakeGateway records messages and answers with a per-chat status.
type fakeGateway struct {
	mu       sync.Mutex
	sent     []delivery.Message
	statuses map[int64]delivery.Status
	// When block is set, Send closes entered and waits for block to close.
	block       chan struct{}
	entered     chan struct{}
	enteredOnce sync.Once
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{statuses: map[int64]delivery.Status{}}
}

func (g *fakeGateway) Send(_ context.Context, msg delivery.Message) delivery.Result {
	if g.block != nil {
		g.enteredOnce.Do(func() { close(g.entered) })
		<-g.block
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, msg)
	switch status := g.statuses[msg.ChatID]; status {
	case delivery.Forbidden:
		return delivery.Result{Status: status, Err: errors.New("forbidden, bot was blocked by the user")}
	case delivery.Failed:
		return delivery.Result{Status: status, Err: errors.New("timeout")}
	default:
		return delivery.Result{Status: delivery.Delivered}
	}
}

func (g *fakeGateway) setStatus(chatID int64, status delivery.Status) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statuses[chatID] = status
}

func (g *fakeGateway) messages() []delivery.Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := append([]delivery.Message(nil), g.sent...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ChatID < out[j].ChatID })
	return out
}

func (g *fakeGateway) reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = nil
}
