package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-mcp-bot/internal/journal"
	"telegram-mcp-bot/internal/processor"
	"telegram-mcp-bot/internal/relay"
	"telegram-mcp-bot/internal/session"
)

type sentMessage struct {
	chatID int64
	text   string
	opts   relay.SendOptions
}

// fakeSender records outbound messages instead of hitting the API.
type fakeSender struct {
	sent []sentMessage
	err  error
}

func (f *fakeSender) SendMessage(_ context.Context, chatID int64, text string, opts relay.SendOptions) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text, opts: opts})
	return len(f.sent), nil
}

type failingResponder struct{}

func (failingResponder) Respond(context.Context, string, int) (string, error) {
	return "", errors.New("backend down")
}

func newTestBot(sender Sender) (*Bot, *session.Store, *journal.Log) {
	sessions := session.NewStore()
	jl := journal.New(0)
	bot := NewWithSender(sender, processor.Contextual{}, sessions, jl, "HTML")
	return bot, sessions, jl
}

func commandUpdate(userID, chatID int64, cmd string) tgbotapi.Update {
	text := "/" + cmd
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID, UserName: "alice", FirstName: "Alice"},
		Chat: &tgbotapi.Chat{ID: chatID, Type: "private"},
		Text: text,
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len(text)},
		},
	}}
}

func textUpdate(userID, chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID, UserName: "alice", FirstName: "Alice"},
		Chat: &tgbotapi.Chat{ID: chatID, Type: "private"},
		Text: text,
	}}
}

func TestStartInitializesSession(t *testing.T) {
	sender := &fakeSender{}
	bot, sessions, jl := newTestBot(sender)

	bot.HandleUpdate(context.Background(), commandUpdate(1, 100, "start"))

	rec, ok := sessions.Get(1)
	if !ok {
		t.Fatalf("session not created")
	}
	if rec.Username != "alice" || rec.ChatID != 100 || rec.MessageCount != 0 {
		t.Fatalf("unexpected session record: %+v", rec)
	}
	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0].text, "Welcome to the MCP-Powered Telegram Bot") {
		t.Fatalf("welcome not sent: %+v", sender.sent)
	}
	if sender.sent[0].opts.ParseMode != "HTML" {
		t.Fatalf("parse mode not applied: %+v", sender.sent[0].opts)
	}

	records := jl.All()
	if len(records) != 1 || records[0].Kind != journal.KindCommand || records[0].Content != "/start" {
		t.Fatalf("command not journaled: %+v", records)
	}
	if records[0].Response != "Welcome message sent" {
		t.Fatalf("unexpected journal response: %q", records[0].Response)
	}
}

func TestStartResetsCounterKeepsHistory(t *testing.T) {
	sender := &fakeSender{}
	bot, sessions, jl := newTestBot(sender)

	bot.HandleUpdate(context.Background(), commandUpdate(1, 100, "start"))
	bot.HandleUpdate(context.Background(), textUpdate(1, 100, "first things first"))
	bot.HandleUpdate(context.Background(), commandUpdate(1, 100, "start"))

	rec, _ := sessions.Get(1)
	if rec.MessageCount != 0 {
		t.Fatalf("counter not reset on /start: %d", rec.MessageCount)
	}
	// /start, message, bot_response, /start
	if jl.Len() != 4 {
		t.Fatalf("journal truncated by /start: %d entries", jl.Len())
	}
}

func TestIncomingMessageFlow(t *testing.T) {
	sender := &fakeSender{}
	bot, sessions, jl := newTestBot(sender)

	bot.HandleUpdate(context.Background(), commandUpdate(1, 100, "start"))
	bot.HandleUpdate(context.Background(), textUpdate(1, 100, "tell me about Go"))

	rec, _ := sessions.Get(1)
	if rec.MessageCount != 1 {
		t.Fatalf("counter not incremented: %d", rec.MessageCount)
	}

	if len(sender.sent) != 2 {
		t.Fatalf("reply not sent: %+v", sender.sent)
	}
	reply := sender.sent[1].text
	if !strings.Contains(reply, "Welcome! This is your first message.") {
		t.Fatalf("first-message branch not selected:\n%s", reply)
	}

	records := jl.FilterByUser(1)
	// /start command, inbound message, outbound response, in that order.
	if len(records) != 3 {
		t.Fatalf("unexpected journal length: %d", len(records))
	}
	if records[1].Kind != journal.KindMessage || records[1].Content != "tell me about Go" {
		t.Fatalf("inbound not journaled: %+v", records[1])
	}
	if records[2].Kind != journal.KindBotResponse || records[2].Content != reply {
		t.Fatalf("outbound not journaled: %+v", records[2])
	}
}

func TestBackendFailureDegradesToFallback(t *testing.T) {
	sender := &fakeSender{}
	sessions := session.NewStore()
	jl := journal.New(0)
	bot := NewWithSender(sender, failingResponder{}, sessions, jl, "HTML")

	sessions.Upsert(1, session.Fields{MessageCount: session.Int(0)})
	bot.HandleUpdate(context.Background(), textUpdate(1, 100, "anyone home"))

	if len(sender.sent) != 1 {
		t.Fatalf("no reply despite fallback: %+v", sender.sent)
	}
	if !strings.Contains(sender.sent[0].text, "Fallback Mode") {
		t.Fatalf("fallback text not used:\n%s", sender.sent[0].text)
	}
	records := jl.FilterByUser(1)
	if len(records) != 2 || records[1].Kind != journal.KindBotResponse {
		t.Fatalf("fallback response not journaled: %+v", records)
	}
}

func TestSendFailureSkipsOutboundJournal(t *testing.T) {
	sender := &fakeSender{err: errors.New("connection refused")}
	bot, sessions, jl := newTestBot(sender)
	sessions.Upsert(1, session.Fields{MessageCount: session.Int(0)})

	bot.HandleUpdate(context.Background(), textUpdate(1, 100, "hello out there"))

	records := jl.FilterByUser(1)
	if len(records) != 1 || records[0].Kind != journal.KindMessage {
		t.Fatalf("only the inbound record should survive a failed send: %+v", records)
	}
	// Counter still advanced; the inbound message was real.
	rec, _ := sessions.Get(1)
	if rec.MessageCount != 1 {
		t.Fatalf("counter lost on failed send: %d", rec.MessageCount)
	}
}

func TestClearDropsOnlyThatUser(t *testing.T) {
	sender := &fakeSender{}
	bot, sessions, jl := newTestBot(sender)

	bot.HandleUpdate(context.Background(), commandUpdate(1, 100, "start"))
	bot.HandleUpdate(context.Background(), textUpdate(1, 100, "message one"))
	jl.Append(journal.Record{UserID: 2, Kind: journal.KindMessage, Content: "other user"})

	bot.HandleUpdate(context.Background(), commandUpdate(1, 100, "clear"))

	if len(jl.FilterByUser(2)) != 1 {
		t.Fatalf("other user's history lost")
	}
	// The /clear confirmation itself is the only remaining record for 1.
	records := jl.FilterByUser(1)
	if len(records) != 1 || records[0].Content != "/clear" {
		t.Fatalf("unexpected records after clear: %+v", records)
	}
	rec, _ := sessions.Get(1)
	if rec.MessageCount != 0 {
		t.Fatalf("counter not reset: %d", rec.MessageCount)
	}
	if rec.Username != "alice" {
		t.Fatalf("profile lost on clear: %+v", rec)
	}
}

func TestStatsReplyAndJournal(t *testing.T) {
	sender := &fakeSender{}
	bot, _, jl := newTestBot(sender)

	bot.HandleUpdate(context.Background(), commandUpdate(1, 100, "start"))
	bot.HandleUpdate(context.Background(), commandUpdate(1, 100, "stats"))

	if len(sender.sent) != 2 || !strings.Contains(sender.sent[1].text, "Bot Statistics") {
		t.Fatalf("stats reply missing: %+v", sender.sent)
	}
	records := jl.FilterByUser(1)
	if records[len(records)-1].Content != "/stats" {
		t.Fatalf("/stats not journaled: %+v", records)
	}
}

func TestInfoShowsSessionData(t *testing.T) {
	sender := &fakeSender{}
	bot, _, _ := newTestBot(sender)

	bot.HandleUpdate(context.Background(), commandUpdate(1, 100, "start"))
	bot.HandleUpdate(context.Background(), commandUpdate(1, 100, "info"))

	info := sender.sent[1].text
	for _, want := range []string{"Your Information", "@alice", "Messages Sent: 0", "<code>100</code>"} {
		if !strings.Contains(info, want) {
			t.Fatalf("info missing %q:\n%s", want, info)
		}
	}
}

func TestUnknownCommandIsIgnored(t *testing.T) {
	sender := &fakeSender{}
	bot, _, jl := newTestBot(sender)

	bot.HandleUpdate(context.Background(), commandUpdate(1, 100, "bogus"))

	if len(sender.sent) != 0 {
		t.Fatalf("unexpected reply to unknown command: %+v", sender.sent)
	}
	if jl.Len() != 0 {
		t.Fatalf("unknown command journaled")
	}
}

func TestNonMessageUpdateIsIgnored(t *testing.T) {
	sender := &fakeSender{}
	bot, _, jl := newTestBot(sender)

	bot.HandleUpdate(context.Background(), tgbotapi.Update{})

	if len(sender.sent) != 0 || jl.Len() != 0 {
		t.Fatalf("empty update produced side effects")
	}
}
