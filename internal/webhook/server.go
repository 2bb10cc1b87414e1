package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-mcp-bot/internal/journal"
	"telegram-mcp-bot/internal/relay"
	"telegram-mcp-bot/internal/session"
	"telegram-mcp-bot/internal/stats"
	"telegram-mcp-bot/internal/telegram"
)

const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// api is the management slice of the relay the server needs.
type api interface {
	GetMe(ctx context.Context) (relay.BotInfo, error)
	SetWebhook(ctx context.Context, webhookURL, secretToken string) error
	DeleteWebhook(ctx context.Context) error
}

// Server receives Telegram webhook updates over HTTP and feeds them to
// the same bot handlers the polling variant uses.
type Server struct {
	bot       *telegram.Bot
	relay     api
	sessions  *session.Store
	journal   *journal.Log
	secret    string
	server    *http.Server
	startTime time.Time
}

func NewServer(bot *telegram.Bot, r api, sessions *session.Store, jl *journal.Log, secret string) *Server {
	return &Server{
		bot:       bot,
		relay:     r,
		sessions:  sessions,
		journal:   jl,
		secret:    secret,
		startTime: time.Now(),
	}
}

// Start blocks serving HTTP until the listener fails or Stop is called.
func (s *Server) Start(host string, port int) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Starting webhook server on %s", s.server.Addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Handler builds the route table. It is also used directly by tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", s.handleWebhook)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/admin/set_webhook", s.handleSetWebhook)
	mux.HandleFunc("/admin/delete_webhook", s.handleDeleteWebhook)
	mux.HandleFunc("/", s.handleRoot)
	return mux
}

// handleWebhook accepts one Telegram update. Processing happens in the
// background so slow sends never stall Telegram's delivery; the
// response only acknowledges receipt.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.secret != "" && r.Header.Get(secretTokenHeader) != s.secret {
		writeJSON(w, http.StatusForbidden, map[string]string{"status": "error", "message": "Invalid secret token"})
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil || update.UpdateID == 0 && update.Message == nil {
		log.Printf("Received invalid update data: %v", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "Invalid update"})
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		s.bot.HandleUpdate(ctx, update)
	}()

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "Update received"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	botStatus := "ok"
	status := "healthy"
	if _, err := s.relay.GetMe(ctx); err != nil {
		log.Printf("health check: getMe failed: %v", err)
		botStatus = "error"
		status = "unhealthy"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"services": map[string]string{
			"telegram_bot": botStatus,
		},
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	summary := stats.Collect(s.journal, s.sessions)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"server": map[string]interface{}{
			"uptime":    time.Since(s.startTime).String(),
			"timestamp": time.Now().Format(time.RFC3339),
		},
		"bot": map[string]interface{}{
			"total_users":        summary.TotalUsers,
			"total_interactions": summary.TotalInteractions,
			"most_used_command":  summary.MostUsedCommand,
		},
	})
}

func (s *Server) handleSetWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		URL         string `json:"url"`
		SecretToken string `json:"secret_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "url is required"})
		return
	}
	secret := req.SecretToken
	if secret == "" {
		secret = s.secret
	}
	if err := s.relay.SetWebhook(r.Context(), req.URL, secret); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "message": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": fmt.Sprintf("Webhook set to: %s", req.URL),
	})
}

func (s *Server) handleDeleteWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.relay.DeleteWebhook(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "message": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Webhook deleted"})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service":   "Telegram Bot MCP Webhook Server",
		"version":   "1.0.0",
		"status":    "running",
		"timestamp": time.Now().Format(time.RFC3339),
		"endpoints": map[string]string{
			"webhook": "/webhook",
			"health":  "/health",
			"stats":   "/stats",
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}
