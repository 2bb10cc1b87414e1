package relay

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New("test-token").WithBaseURL(srv.URL)
}

func TestSendMessageSuccess(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseForm(); err != nil {
			t.Errorf("bad form: %v", err)
		}
		if r.FormValue("chat_id") != "123" || r.FormValue("text") != "hello" {
			t.Errorf("unexpected params: %v", r.Form)
		}
		if r.FormValue("parse_mode") != "HTML" {
			t.Errorf("parse mode not forwarded: %v", r.Form)
		}
		w.Write([]byte(`{"ok":true,"result":{"message_id":42}}`))
	})

	msgID, err := c.SendMessage(context.Background(), 123, "hello", SendOptions{ParseMode: "HTML"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msgID != 42 {
		t.Fatalf("unexpected message id: %d", msgID)
	}
	if gotPath != "/bottest-token/sendMessage" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
}

func TestSendMessageAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	})

	_, err := c.SendMessage(context.Background(), 999, "hello", SendOptions{})
	if err == nil {
		t.Fatalf("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.Error() != "chat not found" {
		t.Fatalf("description not preserved: %q", apiErr.Error())
	}
}

func TestSendMessageTimeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}).WithTimeout(20 * time.Millisecond)

	_, err := c.SendMessage(context.Background(), 1, "slow", SendOptions{})
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Fatalf("timeout must not look like an API answer: %v", err)
	}
}

func TestGetChat(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottest-token/getChat" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"ok":true,"result":{"id":5,"type":"private","first_name":"Alice","username":"alice"}}`))
	})

	info, err := c.GetChat(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.ID != 5 || info.Type != "private" || info.Username != "alice" {
		t.Fatalf("unexpected chat info: %+v", info)
	}
}

func TestGetMe(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true,"result":{"id":7,"is_bot":true,"username":"relay_bot","first_name":"Relay"}}`))
	})

	info, err := c.GetMe(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.ID != 7 || !info.IsBot || info.Username != "relay_bot" {
		t.Fatalf("unexpected bot info: %+v", info)
	}
}

func TestSetWebhookForwardsSecret(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.FormValue("url") != "https://example.com/webhook" {
			t.Errorf("url not forwarded: %v", r.Form)
		}
		if r.FormValue("secret_token") != "s3cret" {
			t.Errorf("secret not forwarded: %v", r.Form)
		}
		w.Write([]byte(`{"ok":true,"result":true}`))
	})

	if err := c.SetWebhook(context.Background(), "https://example.com/webhook", "s3cret"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestErrorWithoutDescription(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"ok":false}`))
	})

	err := c.DeleteWebhook(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Description != "unexpected status 500" {
		t.Fatalf("unexpected fallback description: %q", apiErr.Description)
	}
}
