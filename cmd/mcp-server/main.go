package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"telegram-mcp-bot/internal/config"
	"telegram-mcp-bot/internal/journal"
	"telegram-mcp-bot/internal/relay"
)

// SendMessageParams are the arguments of the send_message tool.
type SendMessageParams struct {
	Text             string `json:"text" mcp:"the message text to send"`
	ChatID           int64  `json:"chat_id,omitempty" mcp:"chat ID to send to (defaults to TELEGRAM_CHAT_ID)"`
	ParseMode        string `json:"parse_mode,omitempty" mcp:"parse mode (HTML, Markdown, or empty for plain text)"`
	ReplyToMessageID int    `json:"reply_to_message_id,omitempty" mcp:"message ID to reply to"`
	BotToken         string `json:"bot_token,omitempty" mcp:"per-session bot token override (requires ALLOW_SESSION_CREDENTIALS)"`
}

// BroadcastParams are the arguments of the broadcast_message tool.
type BroadcastParams struct {
	Text      string  `json:"text" mcp:"the message text to broadcast"`
	ChatIDs   []int64 `json:"chat_ids" mcp:"chat IDs to deliver the message to"`
	ParseMode string  `json:"parse_mode,omitempty" mcp:"parse mode (HTML, Markdown, or empty for plain text)"`
}

// ChatInfoParams are the arguments of the get_chat_info tool.
type ChatInfoParams struct {
	ChatID int64 `json:"chat_id" mcp:"chat ID to look up"`
}

// RecentMessagesParams are the arguments of the get_recent_messages tool.
type RecentMessagesParams struct {
	Limit int `json:"limit" mcp:"number of most recent sent messages to return"`
}

// telegramMCPServer exposes the message relay as MCP tools.
type telegramMCPServer struct {
	relay             *relay.Client
	defaultChatID     int64
	allowSessionCreds bool
	sendTimeout       time.Duration
	journal           *journal.Log
}

// client resolves the relay for one call. The env-sourced client is the
// default; a per-call token is honored only when the operator enabled
// session credentials.
func (s *telegramMCPServer) client(token string) (*relay.Client, error) {
	if token == "" {
		return s.relay, nil
	}
	if !s.allowSessionCreds {
		return nil, fmt.Errorf("session credentials are disabled on this server")
	}
	return relay.New(token).WithTimeout(s.sendTimeout), nil
}

func errorResult(text string) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func textResult(text string) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// SendMessage delivers one message. Transport failures come back as a
// textual result so the caller can surface the description verbatim.
func (s *telegramMCPServer) SendMessage(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[SendMessageParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments

	client, err := s.client(args.BotToken)
	if err != nil {
		return errorResult(fmt.Sprintf("Error sending message: %v", err)), nil
	}
	chatID := args.ChatID
	if chatID == 0 {
		chatID = s.defaultChatID
	}
	if chatID == 0 {
		return errorResult("Error sending message: no chat_id supplied and TELEGRAM_CHAT_ID is not set"), nil
	}

	log.Printf("MCP Server: sending message to chat %d", chatID)
	msgID, err := client.SendMessage(ctx, chatID, args.Text, relay.SendOptions{
		ParseMode:        args.ParseMode,
		ReplyToMessageID: args.ReplyToMessageID,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("Error sending message: %v", err)), nil
	}

	s.journal.Append(journal.Record{
		UserID:   chatID,
		Kind:     journal.KindBotResponse,
		Content:  args.Text,
		Response: fmt.Sprintf("Message ID: %d", msgID),
	})
	return textResult("success"), nil
}

// Broadcast fans the message out to every listed chat, at most once per
// recipient and without retries.
func (s *telegramMCPServer) Broadcast(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[BroadcastParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	if len(args.ChatIDs) == 0 {
		return textResult("No users found to broadcast to"), nil
	}

	sent, failed := 0, 0
	for _, chatID := range args.ChatIDs {
		_, err := s.relay.SendMessage(ctx, chatID, args.Text, relay.SendOptions{ParseMode: args.ParseMode})
		if err != nil {
			failed++
			log.Printf("MCP Server: failed to send to chat %d: %v", chatID, err)
			continue
		}
		sent++
		s.journal.Append(journal.Record{
			UserID:   chatID,
			Kind:     journal.KindBotResponse,
			Content:  args.Text,
			Response: "Broadcast delivery",
		})
	}

	return textResult(fmt.Sprintf("Broadcast completed. Sent to %d users, %d failed.", sent, failed)), nil
}

func (s *telegramMCPServer) GetChatInfo(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[ChatInfoParams]) (*mcp.CallToolResultFor[any], error) {
	info, err := s.relay.GetChat(ctx, params.Arguments.ChatID)
	if err != nil {
		return errorResult(fmt.Sprintf("Error getting chat info: %v", err)), nil
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("Error getting chat info: %v", err)), nil
	}
	return textResult(string(data)), nil
}

func (s *telegramMCPServer) GetBotInfo(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[struct{}]) (*mcp.CallToolResultFor[any], error) {
	info, err := s.relay.GetMe(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("Error getting bot info: %v", err)), nil
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("Error getting bot info: %v", err)), nil
	}
	return textResult(string(data)), nil
}

// GetRecentMessages lists the newest sent messages recorded by this
// server process.
func (s *telegramMCPServer) GetRecentMessages(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[RecentMessagesParams]) (*mcp.CallToolResultFor[any], error) {
	limit := params.Arguments.Limit
	if limit <= 0 {
		return errorResult(fmt.Sprintf("Invalid limit: %d. Must be a positive number.", limit)), nil
	}

	records := s.journal.Tail(limit)
	if len(records) == 0 {
		return textResult("No messages found"), nil
	}

	out := ""
	for _, rec := range records {
		out += fmt.Sprintf("[%s] chat %d: %s\n", rec.Timestamp.Format(time.RFC3339), rec.UserID, rec.Content)
	}
	return textResult(out), nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

	sendTimeout := time.Duration(cfg.SendTimeoutSeconds) * time.Second
	srv := &telegramMCPServer{
		relay:             relay.New(cfg.TelegramBotToken).WithTimeout(sendTimeout),
		defaultChatID:     cfg.DefaultChatID,
		allowSessionCreds: cfg.AllowSessionCredentials,
		sendTimeout:       sendTimeout,
		journal:           journal.New(cfg.JournalMaxEntries),
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "telegram-bot-mcp",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "send_message",
		Description: "Sends a text message to a Telegram chat via the bot API",
	}, srv.SendMessage)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "broadcast_message",
		Description: "Broadcasts a message to a list of Telegram chats",
	}, srv.Broadcast)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_chat_info",
		Description: "Gets information about a Telegram chat",
	}, srv.GetChatInfo)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_bot_info",
		Description: "Gets information about the bot account",
	}, srv.GetBotInfo)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_recent_messages",
		Description: "Lists the most recent messages sent through this server",
	}, srv.GetRecentMessages)

	log.Printf("Registered %d tools: send_message, broadcast_message, get_chat_info, get_bot_info, get_recent_messages", 5)
	log.Printf("Starting server on stdin/stdout...")

	transport := mcp.NewStdioTransport()
	if err := server.Run(context.Background(), transport); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
