// Package bot connects the calendar keyboards to the Telegram Bot API.
package bot

import (
	"context"
	"errors"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/jw6ventures/calbot/internal/calendar"
	"github.com/jw6ventures/calbot/internal/keyboard"
	"github.com/jw6ventures/calbot/internal/metrics"
	"github.com/jw6ventures/calbot/internal/store"
)

const (
	calendarCommand = "calendar"

	calendarText    = "Here is it!"
	welcomeText     = "Welcome!"
	rateLimitedText = "Too many presses, slow down a little."

	journalTimeout = 2 * time.Second
)

// API is the subset of *tgbotapi.BotAPI the bot calls.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Limiter decides whether a chat may trigger another render.
type Limiter interface {
	Allow(key string) bool
}

// Bot handles Telegram updates. It holds no per-chat state: everything a
// render needs arrives in the update.
type Bot struct {
	api      API
	renderer *keyboard.Renderer
	limiter  Limiter
	journal  store.JournalRepository
	chatKey  func(chatID int64) string
	log      *logrus.Entry
}

// Option configures a Bot.
type Option func(*Bot)

// WithLimiter rate limits button presses per chat.
func WithLimiter(l Limiter) Option {
	return func(b *Bot) { b.limiter = l }
}

// WithJournal records every handled update. chatKey maps chat IDs to the
// pseudonyms stored in the journal.
func WithJournal(j store.JournalRepository, chatKey func(int64) string) Option {
	return func(b *Bot) {
		b.journal = j
		b.chatKey = chatKey
	}
}

// WithLogger sets the logger; the default is the logrus standard logger.
func WithLogger(l *logrus.Entry) Option {
	return func(b *Bot) { b.log = l }
}

func New(api API, renderer *keyboard.Renderer, opts ...Option) *Bot {
	b := &Bot{
		api:      api,
		renderer: renderer,
		log:      logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// HandleUpdate dispatches one update. Failures are logged and counted, never
// returned.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		metrics.ObserveUpdate(store.KindCallback)
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		if update.Message.IsCommand() && update.Message.Command() == calendarCommand {
			metrics.ObserveUpdate(store.KindCommand)
			b.sendCalendar(ctx, update.Message)
			return
		}
		metrics.ObserveUpdate(store.KindMessage)
		b.sendWelcome(ctx, update.Message)
	default:
		metrics.ObserveUpdate("other")
	}
}

func (b *Bot) sendCalendar(ctx context.Context, msg *tgbotapi.Message) {
	out := b.renderer.Initial(nil)

	reply := tgbotapi.NewMessage(msg.Chat.ID, calendarText)
	reply.ReplyMarkup = InlineMarkup(out.Keyboard)
	if _, err := b.api.Send(reply); err != nil {
		b.transportError("sendMessage", msg.Chat.ID, err)
		return
	}
	metrics.ObserveRender(string(out.Keyboard.View), string(out.Action))
	b.record(ctx, msg.Chat.ID, store.KindCommand, out.Intent, string(out.Action))
}

func (b *Bot) sendWelcome(ctx context.Context, msg *tgbotapi.Message) {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("/" + calendarCommand)),
	)
	kb.ResizeKeyboard = true

	reply := tgbotapi.NewMessage(msg.Chat.ID, welcomeText)
	reply.ReplyMarkup = kb
	if _, err := b.api.Send(reply); err != nil {
		b.transportError("sendMessage", msg.Chat.ID, err)
		return
	}
	b.record(ctx, msg.Chat.ID, store.KindMessage, calendar.NoOp, string(keyboard.ActionSend))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// Presses on inline-mode messages carry no chat message to edit.
	if cb.Message == nil || cb.Message.Chat == nil {
		b.answer(cb, "", 0)
		return
	}
	chatID := cb.Message.Chat.ID

	if b.limiter != nil && !b.limiter.Allow(strconv.FormatInt(chatID, 10)) {
		metrics.ObserveRateLimited()
		b.answer(cb, rateLimitedText, chatID)
		b.record(ctx, chatID, store.KindCallback, calendar.NoOp, "limited")
		return
	}

	intent, err := calendar.DecodeStrict(cb.Data)
	if err != nil {
		metrics.ObserveTokenRejection(rejectionReason(err))
		b.log.WithFields(logrus.Fields{"chat_id": chatID, "payload": cb.Data}).WithError(err).Debug("ignoring button payload")
	}

	out := b.renderer.FromIntent(intent)
	if out.Action == keyboard.ActionEdit {
		edit := tgbotapi.NewEditMessageReplyMarkup(chatID, cb.Message.MessageID, InlineMarkup(out.Keyboard))
		if _, err := b.api.Request(edit); err != nil {
			b.transportError("editMessageReplyMarkup", chatID, err)
		} else {
			metrics.ObserveRender(string(out.Keyboard.View), string(out.Action))
		}
	}
	b.answer(cb, "", chatID)
	b.record(ctx, chatID, store.KindCallback, out.Intent, string(out.Action))
}

// answer stops the client's loading indicator on the pressed button.
func (b *Bot) answer(cb *tgbotapi.CallbackQuery, text string, chatID int64) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, text)); err != nil {
		b.transportError("answerCallbackQuery", chatID, err)
	}
}

func (b *Bot) transportError(method string, chatID int64, err error) {
	metrics.ObserveTransportError(method)
	b.log.WithFields(logrus.Fields{"method": method, "chat_id": chatID}).WithError(err).Warn("bot api call failed")
}

func (b *Bot) record(ctx context.Context, chatID int64, kind string, intent calendar.Intent, action string) {
	if b.journal == nil || b.chatKey == nil {
		return
	}
	in := store.Interaction{
		ChatKey: b.chatKey(chatID),
		Kind:    kind,
		Action:  action,
	}
	if !intent.IsNoOp() {
		in.Intent = intent.Kind.String()
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()
	if err := b.journal.Record(ctx, in); err != nil {
		metrics.ObserveJournalError()
		b.log.WithField("kind", kind).WithError(err).Error("journal record failed")
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, calendar.ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, calendar.ErrUnknownKind):
		return "unknown_kind"
	default:
		return "malformed"
	}
}

// InlineMarkup converts a rendered keyboard into a Bot API inline keyboard.
func InlineMarkup(kb keyboard.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb.Rows))
	for _, row := range kb.Rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Payload))
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
