// seatimed - Automated Sea-Time Detection for Mariner Certification
// Copyright 2026 Harborlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborlog/seatimed

package seatime

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/harborlog/seatimed/internal/metrics"
)

// NewEntryEvent is the notification payload for a freshly detected
// sea-time entry. Sent exactly once per new entry; extensions of an
// existing entry do not notify again.
type NewEntryEvent struct {
	VesselID      string  `json:"vesselId"`
	VesselName    string  `json:"vesselName"`
	EntryID       string  `json:"entryId"`
	DurationHours float64 `json:"durationHours"`
	MCACompliant  bool    `json:"mcaCompliant"`
}

// Notifier delivers new-entry events. Implemented by WebhookNotifier
// in production and by mocks in tests.
type Notifier interface {
	NotifyNewEntry(ctx context.Context, event *NewEntryEvent) error
}

// webhookPayload is the JSON envelope sent to the webhook endpoint.
type webhookPayload struct {
	Event     *NewEntryEvent `json:"event"`
	EventType string         `json:"event_type"` // sea_time_entry_created
	Timestamp time.Time      `json:"timestamp"`
	Source    string         `json:"source"` // seatimed
}

// WebhookNotifier POSTs new-entry events to a configured endpoint.
type WebhookNotifier struct {
	webhookURL string
	headers    map[string]string
	client     *http.Client
	mu         sync.Mutex

	// Rate limiting
	lastSent  time.Time
	rateLimit time.Duration
}

// NewWebhookNotifier creates a webhook notifier. An empty URL yields a
// notifier that silently drops events.
func NewWebhookNotifier(webhookURL string, headers map[string]string, rateLimit time.Duration) *WebhookNotifier {
	if rateLimit <= 0 {
		rateLimit = 500 * time.Millisecond
	}
	copied := make(map[string]string, len(headers))
	for k, v := range headers {
		copied[k] = v
	}
	return &WebhookNotifier{
		webhookURL: webhookURL,
		headers:    copied,
		rateLimit:  rateLimit,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NotifyNewEntry delivers a new-entry event to the webhook endpoint.
func (n *WebhookNotifier) NotifyNewEntry(ctx context.Context, event *NewEntryEvent) error {
	if n.webhookURL == "" {
		metrics.NotificationsSent.WithLabelValues("dropped").Inc()
		return nil
	}

	n.mu.Lock()
	lastSent := n.lastSent
	n.mu.Unlock()

	// Rate limiting with context cancellation support.
	if since := time.Since(lastSent); since < n.rateLimit {
		select {
		case <-time.After(n.rateLimit - since):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	payload := webhookPayload{
		Event:     event,
		EventType: "sea_time_entry_created",
		Timestamp: time.Now().UTC(),
		Source:    "seatimed",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range n.headers {
		req.Header.Set(key, value)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		metrics.NotificationsSent.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	n.mu.Lock()
	n.lastSent = time.Now()
	n.mu.Unlock()

	if resp.StatusCode >= 400 {
		metrics.NotificationsSent.WithLabelValues("error").Inc()
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	metrics.NotificationsSent.WithLabelValues("success").Inc()
	return nil
}
