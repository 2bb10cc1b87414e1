package telegram

import (
	"context"

	"telegram-mcp-bot/internal/relay"
)

// Sender is the outbound message capability. relay.Client is the
// production implementation; tests substitute a fake.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, opts relay.SendOptions) (int, error)
}
