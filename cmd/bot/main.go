package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"telegram-mcp-bot/internal/config"
	"telegram-mcp-bot/internal/journal"
	"telegram-mcp-bot/internal/processor"
	"telegram-mcp-bot/internal/relay"
	"telegram-mcp-bot/internal/scheduler"
	"telegram-mcp-bot/internal/session"
	"telegram-mcp-bot/internal/stats"
	"telegram-mcp-bot/internal/telegram"
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

	bot, err := telegram.New(cfg.TelegramBotToken, relayClient, responder, sessions, jl, cfg.MessageParseMode)
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.AdminChatID != 0 {
		sched := scheduler.New()
		sched.SetReportFunction(func(ctx context.Context) error {
			summary := stats.Collect(jl, sessions)
			_, err := relayClient.SendMessage(ctx, cfg.AdminChatID, summary.RenderReport(),
				relay.SendOptions{ParseMode: cfg.MessageParseMode})
			return err
		})
		if err := sched.Start(cfg.ReportCronSpec); err != nil {
			log.Fatalf("failed to start scheduler: %v", err)
		}
		defer sched.Stop()
	}

	bot.Start(ctx)
}
