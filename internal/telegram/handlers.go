package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-mcp-bot/internal/journal"
	"telegram-mcp-bot/internal/processor"
	"telegram-mcp-bot/internal/session"
	"telegram-mcp-bot/internal/stats"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	log.Printf("Incoming command from %d (@%s): /%s", msg.From.ID, msg.From.UserName, msg.Command())
	switch msg.Command() {
	case "start":
		b.handleStart(ctx, msg)
	case "help":
		b.handleHelp(ctx, msg)
	case "info":
		b.handleInfo(ctx, msg)
	case "stats":
		b.handleStats(ctx, msg)
	case "clear":
		b.handleClear(ctx, msg)
	default:
		log.Printf("Unknown command from %d: /%s", msg.From.ID, msg.Command())
	}
}

// handleStart initializes the user's session. Running it again resets
// the message counter but keeps the journal intact.
func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	user := msg.From
	b.sessions.Upsert(user.ID, session.Fields{
		Username:     session.String(user.UserName),
		FirstName:    session.String(user.FirstName),
		LastName:     session.String(user.LastName),
		ChatID:       session.Int64(msg.Chat.ID),
		MessageCount: session.Int(0),
		LastSeen:     session.Time(time.Now()),
	})

	welcome := fmt.Sprintf(`🤖 <b>Welcome to the MCP-Powered Telegram Bot!</b>

Hello %s! I'm a Telegram bot wired to the Model Context Protocol (MCP).

🚀 <b>What I can do:</b>
• Process and respond to your messages
• Maintain conversation context
• Provide various utility commands
• Expose a message-send tool over MCP

📋 <b>Available Commands:</b>
/start - Show this welcome message
/help - Get detailed help information
/info - Show your user information
/stats - View bot statistics
/clear - Clear your conversation history

💬 Just send me any message and I'll respond!`, user.FirstName)

	if err := b.reply(ctx, msg.Chat.ID, welcome); err != nil {
		return
	}
	b.logInteraction(user.ID, journal.KindCommand, "/start", "Welcome message sent")
}

func (b *Bot) handleHelp(ctx context.Context, msg *tgbotapi.Message) {
	help := `🔧 <b>Detailed Bot Help</b>

<b>Commands:</b>
/start - Initialize the bot and show welcome message
/help - Display this help information
/info - Show your user profile and session info
/stats - View global bot statistics
/clear - Clear your personal conversation history

<b>Features:</b>
🤖 <b>AI Integration:</b> Powered by the Model Context Protocol (MCP)
💬 <b>Smart Responses:</b> Context-aware message processing
📊 <b>Analytics:</b> Message tracking and user statistics

<b>How to use:</b>
Simply send me any text message and I'll process it through my backend. Need more help? Just ask me anything!`

	if err := b.reply(ctx, msg.Chat.ID, help); err != nil {
		return
	}
	b.logInteraction(msg.From.ID, journal.KindCommand, "/help", "Help information provided")
}

func (b *Bot) handleInfo(ctx context.Context, msg *tgbotapi.Message) {
	user := msg.From
	rec, _ := b.sessions.Get(user.ID)

	info := fmt.Sprintf(`👤 <b>Your Information</b>

<b>Telegram Profile:</b>
• User ID: <code>%d</code>
• Username: @%s
• Name: %s %s
• Language: %s

<b>Session Data:</b>
• Last Seen: %s
• Messages Sent: %d
• Chat ID: <code>%d</code>
• Chat Type: %s

<b>Recent Activity:</b>
%s`,
		user.ID,
		orDefault(user.UserName, "Not set"),
		user.FirstName, user.LastName,
		orDefault(user.LanguageCode, "Not detected"),
		formatLastSeen(rec.LastSeen),
		rec.MessageCount,
		msg.Chat.ID,
		msg.Chat.Type,
		b.recentActivity(user.ID))

	if err := b.reply(ctx, msg.Chat.ID, info); err != nil {
		return
	}
	b.logInteraction(user.ID, journal.KindCommand, "/info", "User info provided")
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) {
	summary := stats.Collect(b.journal, b.sessions)
	if err := b.reply(ctx, msg.Chat.ID, summary.RenderReport()); err != nil {
		return
	}
	b.logInteraction(msg.From.ID, journal.KindCommand, "/stats", "Stats provided")
}

// handleClear is the only destructive command: it drops the user's
// journal entries and zeroes the message counter. The profile itself
// stays.
func (b *Bot) handleClear(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	b.journal.ClearForUser(userID)
	b.sessions.ResetMessageCount(userID)

	cleared := `🗑️ <b>History Cleared</b>

Your conversation history has been cleared successfully!

This affects:
• Your personal message history
• Context for future conversations
• Your message count statistics

Your user profile information remains unchanged.`

	if err := b.reply(ctx, msg.Chat.ID, cleared); err != nil {
		return
	}
	b.logInteraction(userID, journal.KindCommand, "/clear", "History cleared")
}

// handleIncomingMessage processes a generic (non-command) text message:
// bump the counter, journal the inbound text, compute a reply, send it,
// journal the outbound text. A failing backend degrades to the fixed
// fallback reply; the user always hears back.
func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	user := msg.From
	log.Printf("Incoming message from %d (@%s): %q", user.ID, user.UserName, msg.Text)

	b.sessions.IncrementMessageCount(user.ID)
	b.logInteraction(user.ID, journal.KindMessage, msg.Text, "")

	rec, _ := b.sessions.Get(user.ID)
	response, err := b.responder.Respond(ctx, msg.Text, rec.MessageCount)
	if err != nil {
		log.Printf("processing backend failed for user %d: %v", user.ID, err)
		response = processor.FallbackReply(msg.Text)
	}

	if err := b.reply(ctx, msg.Chat.ID, response); err != nil {
		return
	}
	b.logInteraction(user.ID, journal.KindBotResponse, response, "Response sent")
}

func (b *Bot) logInteraction(userID int64, kind journal.Kind, content, response string) {
	b.journal.Append(journal.Record{
		UserID:   userID,
		Kind:     kind,
		Content:  content,
		Response: response,
	})
}

// recentActivity renders the user's last 3 journal entries.
func (b *Bot) recentActivity(userID int64) string {
	records := b.journal.FilterByUser(userID)
	if len(records) == 0 {
		return "No recent activity"
	}
	if len(records) > 3 {
		records = records[len(records)-3:]
	}
	var lines []string
	for _, rec := range records {
		content := rec.Content
		if len(content) > 50 {
			content = content[:50]
		}
		lines = append(lines, fmt.Sprintf("• %s: %s - %s...", rec.Timestamp.Format("2006-01-02 15:04:05"), rec.Kind, content))
	}
	return strings.Join(lines, "\n")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func formatLastSeen(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	return t.Format("2006-01-02 15:04:05")
}
