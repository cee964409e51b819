package telegram

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"tickalert/internal/application/port"
)

// DefaultWelcome reply sent after a chat registers
const DefaultWelcome = "🤖 Connected to the alert bot!"

// botAPI subset of *tgbotapi.BotAPI used here
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot delivers alerts to chats and registers every chat that messages it
type Bot struct {
	api         botAPI
	store       port.SubscriberStore
	welcome     string
	pollTimeout int
}

type Options struct {
	Welcome     string
	PollTimeout int // long-poll timeout in seconds
}

// New connects to the Bot API with token
func New(token string, store port.SubscriberStore, opts Options) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	log.Info().Str("bot", api.Self.UserName).Msg("telegram bot authorized")
	return newBot(api, store, opts), nil
}

func newBot(api botAPI, store port.SubscriberStore, opts Options) *Bot {
	if opts.Welcome == "" {
		opts.Welcome = DefaultWelcome
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 30
	}
	return &Bot{api: api, store: store, welcome: opts.Welcome, pollTimeout: opts.PollTimeout}
}

func (b *Bot) Name() string { return "telegram" }

// Deliver sends text to the chat identified by subscriberID
func (b *Bot) Deliver(ctx context.Context, subscriberID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	chatID, err := strconv.ParseInt(subscriberID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", subscriberID, err)
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// Run long-polls updates until ctx is cancelled. Registration failures are logged, never fatal.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, upd)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message == nil || upd.Message.Chat == nil {
		return
	}
	chatID := upd.Message.Chat.ID
	id := strconv.FormatInt(chatID, 10)

	if err := b.store.Upsert(ctx, id); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("register subscriber failed")
		return
	}
	log.Info().Int64("chat_id", chatID).Msg("subscriber registered")

	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, b.welcome)); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("welcome reply failed")
	}
}

var _ port.Deliverer = (*Bot)(nil)
