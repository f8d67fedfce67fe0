// Package notify pushes operator notifications to a Discord-style
// webhook. It subscribes to map rotation events on the bus so the
// registry never talks to the webhook directly.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/frontline-project/frontline/internal/config"
	"github.com/frontline-project/frontline/internal/events"
)

// WebhookNotifier posts embed messages to a configured webhook URL.
type WebhookNotifier struct {
	cfg    config.WebhookConfig
	client *http.Client
	logger zerolog.Logger
}

// NewWebhookNotifier creates a notifier and subscribes it to the
// rotation events it is configured to care about.
func NewWebhookNotifier(cfg config.WebhookConfig, bus *events.EventBus) *WebhookNotifier {
	n := &WebhookNotifier{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: log.With().Str("component", "notify").Logger(),
	}

	if cfg.NotifyOnChange {
		bus.Subscribe(events.EventMapChanged, "notify.map_changed", n.onMapChanged)
	}
	if cfg.NotifyOnFailure {
		bus.Subscribe(events.EventMapChangeFailed, "notify.map_change_failed", n.onMapChangeFailed)
	}
	bus.Subscribe(events.EventNotifyWebhook, "notify.generic", n.onNotify)

	return n
}

// Send posts a single embed to the webhook. A missing URL is not an
// error; the notifier just stays quiet.
func (n *WebhookNotifier) Send(ctx context.Context, title, message, level string) error {
	if n.cfg.URL == "" {
		return nil
	}

	var color int
	switch level {
	case "error":
		color = 0xFF0000
	case "warning":
		color = 0xFFAA00
	default:
		color = 0x00FF00
	}

	payload := map[string]interface{}{
		"embeds": []map[string]interface{}{
			{
				"title":       title,
				"description": message,
				"color":       color,
				"timestamp":   time.Now().Format(time.RFC3339),
				"footer": map[string]string{
					"text": "Frontline Rotation Controller",
				},
			},
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.URL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(body))
	}

	n.logger.Debug().Str("title", title).Msg("webhook notification sent")
	return nil
}

func (n *WebhookNotifier) onMapChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.MapChangedPayload)
	if !ok {
		return nil
	}
	return n.Send(ctx,
		"Map changed",
		fmt.Sprintf("%s switched to %s. %s", payload.ServerName, payload.MapID, payload.Message),
		"info")
}

func (n *WebhookNotifier) onMapChangeFailed(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.MapChangeFailedPayload)
	if !ok {
		return nil
	}
	return n.Send(ctx,
		"Map change failed",
		fmt.Sprintf("%s could not switch to %s: %s", payload.ServerName, payload.MapID, payload.Reason),
		"error")
}

func (n *WebhookNotifier) onNotify(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.NotifyWebhookPayload)
	if !ok {
		return nil
	}
	return n.Send(ctx, payload.Title, payload.Message, payload.Level)
}
