package notifiers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"
)

// Discord webhook messages are capped at 2000 characters.
const maxMessageChars = 2000

type webhookBody struct {
	Content string `json:"content"`
}

// Discord posts error messages to a moderator channel via an incoming
// webhook. Delivery is best-effort: failures are logged and never propagate
// to the caller.
type Discord struct {
	logger     *slog.Logger
	webhookURL string
	client     *http.Client
}

func NewDiscord(logger *slog.Logger, webhookURL string) *Discord {
	return &Discord{
		logger:     logger,
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

func (d *Discord) SendErrorMessage(ctx context.Context, msg string) {
	if d.webhookURL == "" {
		return
	}
	if len(msg) > maxMessageChars {
		msg = truncate(msg, maxMessageChars-3) + "..."
	}

	body, err := json.Marshal(webhookBody{Content: msg})
	if err != nil {
		d.logger.Error("failed to encode discord message", "error", err)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewBuffer(body))
	if err != nil {
		d.logger.Error("failed to build discord request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Error("failed to send discord message", "error", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		d.logger.Error("discord webhook rejected message", "status", resp.StatusCode)
	}
}
