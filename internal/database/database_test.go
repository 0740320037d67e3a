// seatimed - Automated Sea-Time Detection for Mariner Certification
// Copyright 2026 Harborlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborlog/seatimed

package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/harborlog/seatimed/internal/config"
	"github.com/harborlog/seatimed/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Path:      filepath.Join(t.TempDir(), "seatimed_test.duckdb"),
		MaxMemory: "256MB",
		Threads:   2,
	}
	db, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})
	return db
}

func newTestVessel(t *testing.T, db *DB, mmsi string) *models.Vessel {
	t.Helper()
	v := &models.Vessel{
		UserID:      "user-1",
		MMSI:        mmsi,
		Name:        "SV Test",
		ServiceType: models.ServiceTypeYacht,
		Active:      true,
	}
	if err := db.CreateVessel(context.Background(), v); err != nil {
		t.Fatalf("failed to create vessel: %v", err)
	}
	return v
}

func TestVesselCRUD(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	v := newTestVessel(t, db, "235098765")

	got, err := db.GetVessel(ctx, v.ID)
	if err != nil {
		t.Fatalf("GetVessel() error = %v", err)
	}
	if got.MMSI != "235098765" || got.Name != "SV Test" || !got.Active {
		t.Errorf("GetVessel() = %+v, want stored vessel", got)
	}

	if err := db.SetVesselActive(ctx, v.ID, false); err != nil {
		t.Fatalf("SetVesselActive() error = %v", err)
	}
	got, err = db.GetVessel(ctx, v.ID)
	if err != nil {
		t.Fatalf("GetVessel() after deactivate error = %v", err)
	}
	if got.Active {
		t.Error("vessel should be inactive after SetVesselActive(false)")
	}

	if _, err := db.GetVessel(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetVessel(missing) error = %v, want ErrNotFound", err)
	}
}

func TestDuplicateMMSIRejected(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	newTestVessel(t, db, "235000001")
	dup := &models.Vessel{UserID: "user-2", MMSI: "235000001", Name: "Other", ServiceType: models.ServiceTypeYacht, Active: true}
	if err := db.CreateVessel(ctx, dup); err == nil {
		t.Error("expected error inserting duplicate MMSI")
	}
}

func TestReadingsLookback(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	v := newTestVessel(t, db, "235000002")

	now := time.Now().UTC().Truncate(time.Second)
	lat1, lon1 := 50.0, -1.0
	lat2, lon2 := 50.15, -1.0
	sog := 6.5

	old := &models.PositionReading{
		VesselID: v.ID, ObservedAt: now.Add(-3 * time.Hour),
		IsMoving: true, SpeedKnots: &sog, Latitude: &lat1, Longitude: &lon1,
	}
	mid := &models.PositionReading{
		VesselID: v.ID, ObservedAt: now.Add(-2 * time.Hour),
		IsMoving: true, SpeedKnots: &sog, Latitude: &lat1, Longitude: &lon1,
	}
	latest := &models.PositionReading{
		VesselID: v.ID, ObservedAt: now,
		IsMoving: true, SpeedKnots: &sog, Latitude: &lat2, Longitude: &lon2,
	}
	for _, r := range []*models.PositionReading{old, mid, latest} {
		if err := db.InsertReading(ctx, r); err != nil {
			t.Fatalf("InsertReading() error = %v", err)
		}
	}

	got, err := db.GetReadingAtOrBefore(ctx, v.ID, now.Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("GetReadingAtOrBefore() error = %v", err)
	}
	if got.ID != mid.ID {
		t.Errorf("GetReadingAtOrBefore() returned %s, want the reading at the window edge %s", got.ID, mid.ID)
	}

	newest, err := db.GetLatestReading(ctx, v.ID)
	if err != nil {
		t.Fatalf("GetLatestReading() error = %v", err)
	}
	if newest.ID != latest.ID {
		t.Errorf("GetLatestReading() returned %s, want %s", newest.ID, latest.ID)
	}

	if _, err := db.GetReadingAtOrBefore(ctx, v.ID, now.Add(-4*time.Hour)); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound before any reading, got %v", err)
	}
}

func TestTasksDueSetAndReschedule(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	active := newTestVessel(t, db, "235000003")
	inactive := newTestVessel(t, db, "235000004")
	if err := db.SetVesselActive(ctx, inactive.ID, false); err != nil {
		t.Fatalf("SetVesselActive() error = %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	dueTask := &models.ScheduledTask{
		VesselID: active.ID, Kind: models.TaskKindPositionCheck,
		IntervalHours: 6, NextRunAt: now.Add(-time.Minute), Active: true,
	}
	inactiveVesselTask := &models.ScheduledTask{
		VesselID: inactive.ID, Kind: models.TaskKindPositionCheck,
		IntervalHours: 6, NextRunAt: now.Add(-time.Minute), Active: true,
	}
	for _, task := range []*models.ScheduledTask{dueTask, inactiveVesselTask} {
		if err := db.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask() error = %v", err)
		}
	}

	due, err := db.GetTasksDue(ctx, now)
	if err != nil {
		t.Fatalf("GetTasksDue() error = %v", err)
	}
	if len(due) != 1 || due[0].ID != dueTask.ID {
		t.Fatalf("GetTasksDue() = %d tasks, want only the active vessel's task", len(due))
	}

	next := now.Add(6 * time.Hour)
	if err := db.MarkTaskRun(ctx, dueTask.ID, now, next); err != nil {
		t.Fatalf("MarkTaskRun() error = %v", err)
	}

	due, err = db.GetTasksDue(ctx, now)
	if err != nil {
		t.Fatalf("GetTasksDue() after reschedule error = %v", err)
	}
	if len(due) != 0 {
		t.Errorf("rescheduled task should no longer be due, got %d", len(due))
	}

	stored, err := db.GetTaskByVessel(ctx, active.ID, models.TaskKindPositionCheck)
	if err != nil {
		t.Fatalf("GetTaskByVessel() error = %v", err)
	}
	if stored.LastRunAt == nil || !stored.LastRunAt.Equal(now) {
		t.Errorf("LastRunAt = %v, want %v", stored.LastRunAt, now)
	}
	if !stored.NextRunAt.Equal(next) {
		t.Errorf("NextRunAt = %v, want %v", stored.NextRunAt, next)
	}
}

func TestEntryLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	v := newTestVessel(t, db, "235000005")

	start := time.Now().UTC().Add(-2 * time.Hour).Truncate(time.Second)
	end := start.Add(2 * time.Hour)
	dur := 2.0
	dist := 9.0
	lat1, lon1, lat2, lon2 := 50.0, -1.0, 50.15, -1.0

	entry := &models.SeaTimeEntry{
		VesselID: v.ID, StartTime: start, EndTime: &end, DurationHours: &dur,
		StartLat: &lat1, StartLon: &lon1, EndLat: &lat2, EndLon: &lon2,
		DistanceNm: &dist, Status: models.EntryStatusPending,
		ServiceType: models.ServiceTypeYacht, Notes: "auto-detected",
	}
	if err := db.CreateEntry(ctx, entry); err != nil {
		t.Fatalf("CreateEntry() error = %v", err)
	}

	pending, err := db.GetPendingEntries(ctx, v.ID)
	if err != nil {
		t.Fatalf("GetPendingEntries() error = %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("GetPendingEntries() = %d entries, want 1", len(pending))
	}

	// Extend with a later end point; duration is recomputed from the
	// original start, not incremented.
	laterEnd := start.Add(4 * time.Hour)
	newDur := 4.0
	newDist := 18.0
	entry.EndTime = &laterEnd
	entry.DurationHours = &newDur
	entry.DistanceNm = &newDist
	if err := db.ExtendEntry(ctx, entry); err != nil {
		t.Fatalf("ExtendEntry() error = %v", err)
	}

	got, err := db.GetEntry(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetEntry() error = %v", err)
	}
	if got.DurationHours == nil || *got.DurationHours != 4.0 {
		t.Errorf("DurationHours = %v, want 4.0", got.DurationHours)
	}
	if got.EndTime == nil || !got.EndTime.Equal(laterEnd) {
		t.Errorf("EndTime = %v, want %v", got.EndTime, laterEnd)
	}

	if err := db.UpdateEntryStatus(ctx, entry.ID, models.EntryStatusConfirmed); err != nil {
		t.Fatalf("UpdateEntryStatus() error = %v", err)
	}
	pending, err = db.GetPendingEntries(ctx, v.ID)
	if err != nil {
		t.Fatalf("GetPendingEntries() after confirm error = %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("confirmed entry should no longer be pending, got %d", len(pending))
	}

	// Confirmed entries cannot be extended or re-reviewed.
	if err := db.ExtendEntry(ctx, entry); !errors.Is(err, ErrNotFound) {
		t.Errorf("ExtendEntry() on confirmed entry error = %v, want ErrNotFound", err)
	}
	if err := db.UpdateEntryStatus(ctx, entry.ID, models.EntryStatusRejected); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateEntryStatus() on confirmed entry error = %v, want ErrNotFound", err)
	}
}

func TestProviderCallAuditRetention(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	v := newTestVessel(t, db, "235000006")

	now := time.Now().UTC().Truncate(time.Second)
	oldCall := &models.ProviderCall{
		VesselID: v.ID, MMSI: v.MMSI, URL: "https://api.example/v1/position?mmsi=235000006&apiKey=REDACTED",
		RequestTime: now.Add(-100 * 24 * time.Hour), ResponseStatus: 200, Authenticated: true,
	}
	freshCall := &models.ProviderCall{
		VesselID: v.ID, MMSI: v.MMSI, URL: "https://api.example/v1/position?mmsi=235000006&apiKey=REDACTED",
		RequestTime: now, ResponseStatus: 200, Authenticated: true,
	}
	for _, c := range []*models.ProviderCall{oldCall, freshCall} {
		if err := db.InsertProviderCall(ctx, c); err != nil {
			t.Fatalf("InsertProviderCall() error = %v", err)
		}
	}

	purged, err := db.DeleteProviderCallsBefore(ctx, now.Add(-90*24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteProviderCallsBefore() error = %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}

	calls, err := db.ListProviderCalls(ctx, v.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListProviderCalls() error = %v", err)
	}
	if len(calls) != 1 || calls[0].ID != freshCall.ID {
		t.Errorf("ListProviderCalls() = %d calls, want only the fresh call", len(calls))
	}
}

func TestSchemaVersionAfterInit(t *testing.T) {
	db := newTestDB(t)

	version, err := db.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("failed to read schema version: %v", err)
	}
	if version != 0 {
		t.Errorf("fresh database schema version = %d, want 0", version)
	}

	// A second migration pass must be a no-op.
	if err := db.runMigrations(context.Background()); err != nil {
		t.Fatalf("re-running migrations failed: %v", err)
	}
}
