package bot

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jw6ventures/calbot/internal/keyboard"
	"github.com/jw6ventures/calbot/internal/store"
)

var testNow = time.Date(2024, time.February, 14, 9, 30, 0, 0, time.UTC)

type fakeAPI struct {
	mu         sync.Mutex
	sent       []tgbotapi.Chattable
	requested  []tgbotapi.Chattable
	sendErr    error
	requestErr error
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: 1}, f.sendErr
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requested = append(f.requested, c)
	return &tgbotapi.APIResponse{Ok: f.requestErr == nil}, f.requestErr
}

type fakeJournal struct {
	mu      sync.Mutex
	records []store.Interaction
	err     error
}

func (f *fakeJournal) Record(_ context.Context, in store.Interaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, in)
	return f.err
}

func (f *fakeJournal) CountSince(context.Context, time.Time) (int64, error) {
	return int64(len(f.records)), nil
}

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

func newTestBot(api API, opts ...Option) *Bot {
	logger, _ := test.NewNullLogger()
	opts = append([]Option{WithLogger(logrus.NewEntry(logger))}, opts...)
	return New(api, keyboard.NewRenderer(func() time.Time { return testNow }), opts...)
}

func commandMessage(chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 10,
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
	}
}

func callback(chatID int64, messageID int, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		Data:    data,
		Message: &tgbotapi.Message{MessageID: messageID, Chat: &tgbotapi.Chat{ID: chatID}},
	}
}

func buttonRows(markup tgbotapi.InlineKeyboardMarkup) [][]string {
	var rows [][]string
	for _, row := range markup.InlineKeyboard {
		var labels []string
		for _, b := range row {
			labels = append(labels, b.Text)
		}
		rows = append(rows, labels)
	}
	return rows
}

func TestCalendarCommandSendsMonthKeyboard(t *testing.T) {
	api := &fakeAPI{}
	journal := &fakeJournal{}
	b := newTestBot(api, WithJournal(journal, func(id int64) string { return "chat" }))

	b.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(42, "/calendar")})

	require.Len(t, api.sent, 1)
	msg, ok := api.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, "Here is it!", msg.Text)

	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	rows := buttonRows(markup)
	assert.Equal(t, []string{"<", "February 2024", ">"}, rows[0])
	assert.Equal(t, []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}, rows[1])
	assert.Equal(t, []string{"29", "30", "31", "01", "02", "03", "04"}, rows[2])
	assert.Equal(t, "drill|2024", *markup.InlineKeyboard[0][1].CallbackData)

	require.Len(t, journal.records, 1)
	assert.Equal(t, store.Interaction{ChatKey: "chat", Kind: store.KindCommand, Intent: "go_to_month", Action: "send"}, journal.records[0])
}

func TestCalendarCommandWithBotMention(t *testing.T) {
	api := &fakeAPI{}
	b := newTestBot(api)

	b.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(42, "/calendar@calbot")})

	require.Len(t, api.sent, 1)
	assert.Equal(t, "Here is it!", api.sent[0].(tgbotapi.MessageConfig).Text)
}

func TestOtherMessagesGetWelcomeKeyboard(t *testing.T) {
	for _, m := range []*tgbotapi.Message{
		{Chat: &tgbotapi.Chat{ID: 7}, Text: "hello"},
		commandMessage(7, "/start"),
	} {
		api := &fakeAPI{}
		b := newTestBot(api)

		b.HandleUpdate(context.Background(), tgbotapi.Update{Message: m})

		require.Len(t, api.sent, 1)
		msg := api.sent[0].(tgbotapi.MessageConfig)
		assert.Equal(t, "Welcome!", msg.Text)
		kb, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
		require.True(t, ok)
		assert.True(t, kb.ResizeKeyboard)
		require.Len(t, kb.Keyboard, 1)
		assert.Equal(t, "/calendar", kb.Keyboard[0][0].Text)
	}
}

func TestCallbackEditsInPlace(t *testing.T) {
	cases := []struct {
		data  string
		title string
	}{
		{"date|1|2024", "January 2024"},
		{"drill|2024", "2024"},
		{"year|2025", "2025"},
	}
	for _, tc := range cases {
		t.Run(tc.data, func(t *testing.T) {
			api := &fakeAPI{}
			b := newTestBot(api)

			b.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: callback(42, 99, tc.data)})

			assert.Empty(t, api.sent)
			require.Len(t, api.requested, 2)
			edit, ok := api.requested[0].(tgbotapi.EditMessageReplyMarkupConfig)
			require.True(t, ok)
			assert.Equal(t, int64(42), edit.ChatID)
			assert.Equal(t, 99, edit.MessageID)
			require.NotNil(t, edit.ReplyMarkup)
			assert.Equal(t, tc.title, edit.ReplyMarkup.InlineKeyboard[0][1].Text)

			ack, ok := api.requested[1].(tgbotapi.CallbackConfig)
			require.True(t, ok)
			assert.Equal(t, "cb-1", ack.CallbackQueryID)
		})
	}
}

func TestCallbackNoOpOnlyAcknowledges(t *testing.T) {
	for _, data := range []string{"?", "garbage", "date|13|2024", ""} {
		api := &fakeAPI{}
		journal := &fakeJournal{}
		b := newTestBot(api, WithJournal(journal, func(int64) string { return "chat" }))

		b.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: callback(42, 99, data)})

		require.Len(t, api.requested, 1, "payload %q", data)
		_, ok := api.requested[0].(tgbotapi.CallbackConfig)
		assert.True(t, ok, "payload %q", data)
		require.Len(t, journal.records, 1)
		assert.Equal(t, "acknowledge", journal.records[0].Action)
		assert.Empty(t, journal.records[0].Intent)
	}
}

func TestCallbackRateLimited(t *testing.T) {
	api := &fakeAPI{}
	b := newTestBot(api, WithLimiter(denyAll{}))

	b.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: callback(42, 99, "date|1|2024")})

	require.Len(t, api.requested, 1)
	ack := api.requested[0].(tgbotapi.CallbackConfig)
	assert.Equal(t, rateLimitedText, ack.Text)
}

func TestCallbackWithoutMessageIsAnswered(t *testing.T) {
	api := &fakeAPI{}
	b := newTestBot(api)

	b.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{ID: "inline", Data: "date|1|2024"}})

	require.Len(t, api.requested, 1)
	assert.Equal(t, "inline", api.requested[0].(tgbotapi.CallbackConfig).CallbackQueryID)
}

func TestTransportErrorsAreNotFatal(t *testing.T) {
	api := &fakeAPI{requestErr: errors.New("Bad Request: message is not modified")}
	journal := &fakeJournal{err: errors.New("db down")}
	b := newTestBot(api, WithJournal(journal, func(int64) string { return "chat" }))

	assert.NotPanics(t, func() {
		b.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: callback(42, 99, "date|1|2024")})
	})
	assert.Len(t, api.requested, 2)
	assert.Len(t, journal.records, 1)
}

func TestRunDrainsUpdates(t *testing.T) {
	api := &fakeAPI{}
	b := newTestBot(api)

	updates := make(chan tgbotapi.Update, 3)
	for i := int64(1); i <= 3; i++ {
		updates <- tgbotapi.Update{Message: commandMessage(i, "/calendar")}
	}
	close(updates)

	b.Run(context.Background(), updates, 2)

	assert.Len(t, api.sent, 3)
}

func TestRunStopsOnCancel(t *testing.T) {
	b := newTestBot(&fakeAPI{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		b.Run(ctx, make(chan tgbotapi.Update), 4)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestDeliverySetup(t *testing.T) {
	api := &fakeAPI{}

	require.NoError(t, RegisterCommands(api))
	require.NoError(t, UseWebhook(api, "https://bot.example.com/telegram/secret"))
	require.NoError(t, UsePolling(api))

	require.Len(t, api.requested, 3)
	cmds := api.requested[0].(tgbotapi.SetMyCommandsConfig)
	assert.Equal(t, "calendar", cmds.Commands[0].Command)
	wh := api.requested[1].(tgbotapi.WebhookConfig)
	assert.Equal(t, "https://bot.example.com/telegram/secret", wh.URL.String())
	assert.IsType(t, tgbotapi.DeleteWebhookConfig{}, api.requested[2])

	api.requestErr = errors.New("unauthorized")
	assert.Error(t, UsePolling(api))
}

func TestServeHTTPHandlesUpdate(t *testing.T) {
	api := &fakeAPI{}
	b := newTestBot(api)

	body := `{"update_id":1,"callback_query":{"id":"cb-9","data":"year|2030","message":{"message_id":5,"date":0,"chat":{"id":77,"type":"private"}}}}`
	rec := httptest.NewRecorder()
	b.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telegram/secret", strings.NewReader(body)))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, api.requested, 2)
	edit := api.requested[0].(tgbotapi.EditMessageReplyMarkupConfig)
	assert.Equal(t, int64(77), edit.ChatID)
	assert.Equal(t, "2030", edit.ReplyMarkup.InlineKeyboard[0][1].Text)
}

func TestServeHTTPRejectsGarbage(t *testing.T) {
	api := &fakeAPI{}
	b := newTestBot(api)

	rec := httptest.NewRecorder()
	b.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telegram/secret", strings.NewReader("not json")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, api.sent)
	assert.Empty(t, api.requested)
}
