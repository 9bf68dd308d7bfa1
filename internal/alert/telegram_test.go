package alert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestTelegramNotifierPostsMessage(t *testing.T) {
	var gotPath string
	var gotBody struct {
		ChatID string `json:"chat_id"`
		Text   string `json:"text"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token-123", "42", srv.URL, time.Second)
	msg := "[cryptrade] sell-order finished\nexchange: kraken"
	if err := n.Notify(context.Background(), msg); err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	if gotPath != "/bottoken-123/sendMessage" {
		t.Fatalf("request path = %s", gotPath)
	}
	if gotBody.ChatID != "42" || gotBody.Text != msg {
		t.Fatalf("payload = %+v", gotBody)
	}
}

func TestTelegramNotifierSurfacesAPIRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", srv.URL, time.Second)
	err := n.Notify(context.Background(), "hello")
	if err == nil {
		t.Fatalf("rejection should surface as an error")
	}
	if !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("error should carry the api description, got %v", err)
	}
}

func TestTelegramNotifierRequiresCredentials(t *testing.T) {
	if n := NewTelegramNotifier("", "42", "", 0); n != nil {
		t.Fatalf("notifier without a bot token should be nil")
	}
	if n := NewTelegramNotifier("token", "", "", 0); n != nil {
		t.Fatalf("notifier without a chat should be nil")
	}
}
