package handlers

import (
	"testing"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/smith3v/tg-daily-companion/pkg/content"
	"github.com/smith3v/tg-daily-companion/pkg/db"
	"github.com/smith3v/tg-daily-companion/pkg/delivery"
	"github.com/smith3v/tg-daily-companion/pkg/i18n"
	"github.com/smith3v/tg-daily-companion/pkg/internal/testutil"
	"github.com/smith3v/tg-daily-companion/pkg/logger"
	"github.com/smith3v/tg-daily-companion/pkg/schedule"
)

var testLocation = time.FixedZone("TRT", 3*60*60)

type testEnv struct {
	store  *db.Store
	client *testutil.MockClient
	router *Router
}

func newTestEnv(t *testing.T, songs content.Songs, now time.Time) *testEnv {
	t.Helper()
	logger.SetLogLevel(logger.ERROR)

	store := testutil.SetupTestDB(t)
	client := testutil.NewMockClient()
	texts, err := i18n.Load()
	if err != nil {
		t.Fatalf("failed to load texts: %v", err)
	}
	coordinator := schedule.NewCoordinator(store, delivery.NewTelegram(testutil.NewTestBot(t, client)), texts, nil, schedule.Options{
		Location: testLocation,
	})
	router := NewRouter(store, coordinator, texts, songs, testLocation)
	router.now = func() time.Time { return now }
	return &testEnv{store: store, client: client, router: router}
}

func newTestUpdate(text string, chatID int64) *models.Update {
	return &models.Update{
		Message: &models.Message{
			From: &models.User{
				ID: chatID,
			},
			Chat: models.Chat{
				ID:   chatID,
				Type: models.ChatTypePrivate,
			},
			Text: text,
		},
	}
}

func newTestCallbackUpdate(data string, userID, chatID int64, messageID int) *models.Update {
	return &models.Update{
		CallbackQuery: &models.CallbackQuery{
			ID:   "callback-1",
			From: models.User{ID: userID},
			Data: data,
			Message: models.MaybeInaccessibleMessage{
				Type: models.MaybeInaccessibleMessageTypeMessage,
				Message: &models.Message{
					ID: messageID,
					Chat: models.Chat{
						ID:   chatID,
						Type: models.ChatTypePrivate,
					},
				},
			},
		},
	}
}
