package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"telegram-mcp-bot/internal/config"
	"telegram-mcp-bot/internal/journal"
	"telegram-mcp-bot/internal/processor"
	"telegram-mcp-bot/internal/relay"
	"telegram-mcp-bot/internal/session"
	"telegram-mcp-bot/internal/telegram"
	"telegram-mcp-bot/internal/webhook"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

	relayClient := relay.New(cfg.TelegramBotToken).
		WithTimeout(time.Duration(cfg.SendTimeoutSeconds) * time.Second)

	sessions := session.NewStore()
	jl := journal.New(cfg.JournalMaxEntries)
	if cfg.JournalFilePath != "" {
		rec, err := journal.NewFileRecorder(cfg.JournalFilePath)
		if err != nil {
			log.Printf("failed to init journal file recorder: %v", err)
		} else {
			jl.SetSink(rec)
		}
	}

	var responder processor.Responder = processor.Contextual{}
	if cfg.OpenAIAPIKey != "" {
		responder = processor.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		log.Printf("Using OpenAI responder (model %s)", cfg.OpenAIModel)
	}

	bot := telegram.NewWithSender(relayClient, responder, sessions, jl, cfg.MessageParseMode)
	server := webhook.NewServer(bot, relayClient, sessions, jl, cfg.WebhookSecret)

	if cfg.WebhookURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := relayClient.SetWebhook(ctx, cfg.WebhookURL, cfg.WebhookSecret); err != nil {
			log.Fatalf("failed to set webhook: %v", err)
		}
		cancel()
		log.Printf("Webhook set to: %s", cfg.WebhookURL)
	}

	if err := server.Start(cfg.ServerHost, cfg.ServerPort); err != nil {
		log.Fatalf("webhook server failed: %v", err)
	}
}
