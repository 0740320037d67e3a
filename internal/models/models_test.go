// seatimed - Automated Sea-Time Detection for Mariner Certification
// Copyright 2026 Harborlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborlog/seatimed

package models

import (
	"testing"
	"time"
)

func TestTaskInterval(t *testing.T) {
	tests := []struct {
		hours float64
		want  time.Duration
	}{
		{6, 6 * time.Hour},
		{0.5, 30 * time.Minute},
		{24, 24 * time.Hour},
	}
	for _, tt := range tests {
		task := &ScheduledTask{IntervalHours: tt.hours}
		if got := task.Interval(); got != tt.want {
			t.Errorf("Interval() with %v hours = %v, want %v", tt.hours, got, tt.want)
		}
	}
}

func TestEntryStatusValid(t *testing.T) {
	for _, s := range []EntryStatus{EntryStatusPending, EntryStatusConfirmed, EntryStatusRejected} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if EntryStatus("approved").Valid() {
		t.Error("unknown status should not be valid")
	}
}

func TestServiceTypeValid(t *testing.T) {
	if !ServiceTypeWorkboat.Valid() {
		t.Error("workboat should be valid")
	}
	if ServiceType("hovercraft").Valid() {
		t.Error("unknown service type should not be valid")
	}
}

func TestHasPosition(t *testing.T) {
	lat, lon := 50.0, -1.0
	r := &PositionReading{Latitude: &lat, Longitude: &lon}
	if !r.HasPosition() {
		t.Error("reading with both coordinates should have a position")
	}
	if (&PositionReading{Latitude: &lat}).HasPosition() {
		t.Error("reading with only latitude should not have a position")
	}
	if (&PositionReading{}).HasPosition() {
		t.Error("empty reading should not have a position")
	}
}
