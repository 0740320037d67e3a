// seatimed - Automated Sea-Time Detection for Mariner Certification
// Copyright 2026 Harborlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborlog/seatimed

package seatime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestWebhookNotifierSendsPayload(t *testing.T) {
	var received webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
		if got := r.Header.Get("X-Auth-Token"); got != "tok" {
			t.Errorf("custom header = %q, want tok", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, map[string]string{"X-Auth-Token": "tok"}, time.Millisecond)
	event := &NewEntryEvent{
		VesselID:      "v-1",
		VesselName:    "SV Test",
		EntryID:       "entry-1",
		DurationHours: 5.5,
		MCACompliant:  true,
	}
	if err := n.NotifyNewEntry(context.Background(), event); err != nil {
		t.Fatalf("NotifyNewEntry() error = %v", err)
	}

	if received.EventType != "sea_time_entry_created" || received.Source != "seatimed" {
		t.Errorf("payload envelope = %+v", received)
	}
	if received.Event == nil || received.Event.EntryID != "entry-1" || !received.Event.MCACompliant {
		t.Errorf("payload event = %+v", received.Event)
	}
}

func TestWebhookNotifierEmptyURLDrops(t *testing.T) {
	n := NewWebhookNotifier("", nil, time.Millisecond)
	if err := n.NotifyNewEntry(context.Background(), &NewEntryEvent{EntryID: "e"}); err != nil {
		t.Errorf("empty URL should silently drop, got %v", err)
	}
}

func TestWebhookNotifierErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, nil, time.Millisecond)
	if err := n.NotifyNewEntry(context.Background(), &NewEntryEvent{EntryID: "e"}); err == nil {
		t.Error("expected error for HTTP 500")
	}
}
