// seatimed - Automated Sea-Time Detection for Mariner Certification
// Copyright 2026 Harborlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborlog/seatimed

package movement

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/harborlog/seatimed/internal/database"
	"github.com/harborlog/seatimed/internal/models"
)

type mockReadingStore struct {
	reading *models.PositionReading
	err     error

	gotVesselID string
	gotCutoff   time.Time
}

func (m *mockReadingStore) GetReadingAtOrBefore(_ context.Context, vesselID string, cutoff time.Time) (*models.PositionReading, error) {
	m.gotVesselID = vesselID
	m.gotCutoff = cutoff
	return m.reading, m.err
}

func reading(vesselID string, at time.Time, moving bool, lat, lon float64) *models.PositionReading {
	return &models.PositionReading{
		VesselID:   vesselID,
		ObservedAt: at,
		IsMoving:   moving,
		Latitude:   &lat,
		Longitude:  &lon,
	}
}

func TestHaversineNm(t *testing.T) {
	// Identical coordinates yield zero distance.
	if d := haversineNm(50.0, -1.0, 50.0, -1.0); d != 0 {
		t.Errorf("identical coords distance = %v, want 0", d)
	}

	// One degree of latitude is about 60.04 nautical miles.
	d := haversineNm(50.0, -1.0, 51.0, -1.0)
	if math.Abs(d-60.04) > 0.5 {
		t.Errorf("1 degree latitude distance = %v nm, want ~60.04", d)
	}

	// Distance is symmetric.
	if d1, d2 := haversineNm(50, -1, 51, -2), haversineNm(51, -2, 50, -1); math.Abs(d1-d2) > 1e-9 {
		t.Errorf("distance not symmetric: %v vs %v", d1, d2)
	}
}

func TestAnalyzeDetectsMovement(t *testing.T) {
	now := time.Now().UTC()
	store := &mockReadingStore{reading: reading("v-1", now.Add(-2*time.Hour), true, 50.000, -1.000)}
	a := NewAnalyzer(store, 2*time.Hour, 0.1)

	current := reading("v-1", now, true, 50.150, -1.000)
	mv, err := a.Analyze(context.Background(), current)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if mv == nil {
		t.Fatal("expected movement for a 0.15 degree latitude change")
	}
	if math.Abs(mv.DistanceNm-9.0) > 0.1 {
		t.Errorf("DistanceNm = %v, want ~9.0", mv.DistanceNm)
	}
	if math.Abs(mv.DurationHours-2.0) > 1e-9 {
		t.Errorf("DurationHours = %v, want 2.0", mv.DurationHours)
	}

	wantCutoff := now.Add(-2 * time.Hour)
	if !store.gotCutoff.Equal(wantCutoff) {
		t.Errorf("lookback cutoff = %v, want %v", store.gotCutoff, wantCutoff)
	}
}

func TestAnalyzeNoMovementCases(t *testing.T) {
	now := time.Now().UTC()
	old := now.Add(-2 * time.Hour)

	tests := []struct {
		name    string
		store   *mockReadingStore
		current *models.PositionReading
	}{
		{
			name:    "current has no position",
			store:   &mockReadingStore{reading: reading("v-1", old, true, 50.0, -1.0)},
			current: &models.PositionReading{VesselID: "v-1", ObservedAt: now, IsMoving: true},
		},
		{
			name:    "no history at lookback edge",
			store:   &mockReadingStore{err: database.ErrNotFound},
			current: reading("v-1", now, true, 50.5, -1.0),
		},
		{
			name:    "previous reading has no position",
			store:   &mockReadingStore{reading: &models.PositionReading{VesselID: "v-1", ObservedAt: old, IsMoving: false}},
			current: reading("v-1", now, true, 50.5, -1.0),
		},
		{
			name:    "delta exactly at threshold",
			store:   &mockReadingStore{reading: reading("v-1", old, true, 50.0, -1.0)},
			current: reading("v-1", now, true, 50.1, -1.0),
		},
		{
			name:    "delta under threshold",
			store:   &mockReadingStore{reading: reading("v-1", old, true, 50.0, -1.0)},
			current: reading("v-1", now, true, 50.05, -1.04),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAnalyzer(tt.store, 2*time.Hour, 0.1)
			mv, err := a.Analyze(context.Background(), tt.current)
			if err != nil {
				t.Fatalf("Analyze() error = %v", err)
			}
			if mv != nil {
				t.Errorf("expected no movement, got %+v", mv)
			}
		})
	}
}

func TestAnalyzeDetectsCompletedPassage(t *testing.T) {
	// A vessel that sailed between polls can be anchored again by the
	// time the poll fires. The coordinate delta alone decides: the
	// reading's instantaneous speed flag must not suppress detection.
	now := time.Now().UTC()
	store := &mockReadingStore{reading: reading("v-1", now.Add(-2*time.Hour), true, 50.000, -1.000)}
	a := NewAnalyzer(store, 2*time.Hour, 0.1)

	mv, err := a.Analyze(context.Background(), reading("v-1", now, false, 50.150, -1.000))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if mv == nil {
		t.Fatal("0.15 degree displacement must be detected regardless of current speed")
	}
	if math.Abs(mv.DistanceNm-9.0) > 0.1 {
		t.Errorf("DistanceNm = %v, want ~9.0", mv.DistanceNm)
	}
}

func TestAnalyzeLongitudeGate(t *testing.T) {
	now := time.Now().UTC()
	store := &mockReadingStore{reading: reading("v-1", now.Add(-2*time.Hour), true, 50.0, -1.0)}
	a := NewAnalyzer(store, 2*time.Hour, 0.1)

	// Latitude static, longitude delta over threshold.
	mv, err := a.Analyze(context.Background(), reading("v-1", now, true, 50.0, -1.2))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if mv == nil {
		t.Error("longitude delta alone should pass the movement gate")
	}
}

func TestAnalyzeStoreError(t *testing.T) {
	store := &mockReadingStore{err: context.DeadlineExceeded}
	a := NewAnalyzer(store, 2*time.Hour, 0.1)

	_, err := a.Analyze(context.Background(), reading("v-1", time.Now().UTC(), true, 50.5, -1.0))
	if err == nil {
		t.Error("store failures should propagate as errors")
	}
}
