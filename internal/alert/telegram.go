package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	telegramAPIBase = "https://api.telegram.org"
	telegramTimeout = 10 * time.Second
	// The API's error replies are tiny; anything past this is noise.
	telegramReplyLimit = 4 << 10
)

// TelegramNotifier ships the manager's event messages to one chat via the Bot
// API sendMessage call. The messages are the plain event/field text the
// manager builds, so no parse mode is requested.
type TelegramNotifier struct {
	endpoint string
	chatID   string
	client   *http.Client
}

// NewTelegramNotifier wires a notifier for one bot and chat. Missing
// credentials yield nil, which switches alerting off at the manager.
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration) *TelegramNotifier {
	if botToken == "" || chatID == "" {
		return nil
	}
	if baseURL == "" {
		baseURL = telegramAPIBase
	}
	if timeout <= 0 {
		timeout = telegramTimeout
	}
	return &TelegramNotifier{
		endpoint: strings.TrimRight(baseURL, "/") + "/bot" + botToken + "/sendMessage",
		chatID:   chatID,
		client:   &http.Client{Timeout: timeout},
	}
}

func (t *TelegramNotifier) Notify(ctx context.Context, msg string) error {
	if t == nil {
		return nil
	}
	payload, err := json.Marshal(struct {
		ChatID string `json:"chat_id"`
		Text   string `json:"text"`
	}{ChatID: t.chatID, Text: msg})
	if err != nil {
		return fmt.Errorf("encode telegram message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	defer resp.Body.Close()

	// Success and failure both come back as {ok, description}; the
	// description is the only useful part of a rejection.
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, telegramReplyLimit))
	var answer struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	parsed := json.Unmarshal(raw, &answer) == nil
	if resp.StatusCode >= 200 && resp.StatusCode < 300 && (!parsed || answer.OK) {
		return nil
	}
	reason := strings.TrimSpace(answer.Description)
	if reason == "" {
		reason = strings.TrimSpace(string(raw))
	}
	return fmt.Errorf("telegram rejected message: status %d: %s", resp.StatusCode, reason)
}
