package config

import (
	"log"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN,required"`
	DefaultChatID    int64  `env:"TELEGRAM_CHAT_ID"`
	AdminChatID      int64  `env:"ADMIN_CHAT_ID"`

	// Webhook mode
	WebhookURL    string `env:"TELEGRAM_WEBHOOK_URL"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
	ServerHost    string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	ServerPort    int    `env:"SERVER_PORT" envDefault:"8000"`

	// Outbound sends
	SendTimeoutSeconds int    `env:"SEND_TIMEOUT_SECONDS" envDefault:"30"`
	MessageParseMode   string `env:"MESSAGE_PARSE_MODE" envDefault:"HTML"`

	// AI backend (optional; the canned responder answers when unset)
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	OpenAIModel  string `env:"DEFAULT_AI_MODEL" envDefault:"gpt-3.5-turbo"`

	// Journal retention: 0 keeps everything in memory; a positive value
	// caps the in-memory log at that many newest records.
	JournalMaxEntries int    `env:"JOURNAL_MAX_ENTRIES" envDefault:"0"`
	JournalFilePath   string `env:"JOURNAL_FILE_PATH"`

	// MCP server credential policy: when true, tool calls may override
	// the env-sourced bot token and chat id per request.
	AllowSessionCredentials bool `env:"ALLOW_SESSION_CREDENTIALS" envDefault:"false"`

	// Daily stats report (requires ADMIN_CHAT_ID)
	ReportCronSpec string `env:"REPORT_CRON_SPEC" envDefault:"0 21 * * *"`

	Debug bool `env:"DEBUG" envDefault:"false"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
