package telegram

import (
	"context"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-mcp-bot/internal/journal"
	"telegram-mcp-bot/internal/processor"
	"telegram-mcp-bot/internal/relay"
	"telegram-mcp-bot/internal/session"
)

// Bot wires the inbound transport to the command handlers. The session
// store and the interaction journal are injected and owned by the
// caller; all mutation of either goes through the handlers here.
type Bot struct {
	api       *tgbotapi.BotAPI
	s         Sender
	responder processor.Responder
	sessions  *session.Store
	journal   *journal.Log
	parseMode string
}

// New creates a polling-capable bot. The token is validated against the
// Telegram API on construction.
func New(botToken string, s Sender, responder processor.Responder, sessions *session.Store, jl *journal.Log, parseMode string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	b := NewWithSender(s, responder, sessions, jl, parseMode)
	b.api = api
	return b, nil
}

// NewWithSender creates a bot without a polling transport. The webhook
// server feeds it updates directly.
func NewWithSender(s Sender, responder processor.Responder, sessions *session.Store, jl *journal.Log, parseMode string) *Bot {
	return &Bot{
		s:         s,
		responder: responder,
		sessions:  sessions,
		journal:   jl,
		parseMode: parseMode,
	}
}

// Start runs the long-polling loop until the update channel closes.
// Updates are handled one at a time; journal order for a user's
// conversation therefore matches handling order.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	log.Printf("Bot started in polling mode")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate dispatches one transport event to the handlers. It is
// safe for concurrent use (webhook requests may arrive in parallel).
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	if msg.Text != "" {
		b.handleIncomingMessage(ctx, msg)
	}
}

// reply sends text to a chat. Failures are logged and reported to the
// caller but never escalate past the handler.
func (b *Bot) reply(ctx context.Context, chatID int64, text string) error {
	_, err := b.s.SendMessage(ctx, chatID, text, relay.SendOptions{ParseMode: b.parseMode})
	if err != nil {
		log.Printf("failed to send message to chat %d: %v", chatID, err)
	}
	return err
}
