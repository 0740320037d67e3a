// seatimed - Automated Sea-Time Detection for Mariner Certification
// Copyright 2026 Harborlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborlog/seatimed

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harborlog/seatimed/internal/metrics"
	"github.com/harborlog/seatimed/internal/models"
)

// CreateEntry inserts a new sea-time entry.
func (db *DB) CreateEntry(ctx context.Context, e *models.SeaTimeEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO sea_time_entries
		 (id, vessel_id, start_time, end_time, duration_hours, start_lat, start_lon, end_lat, end_lon,
		  distance_nm, status, service_type, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.VesselID, e.StartTime, e.EndTime, e.DurationHours,
		e.StartLat, e.StartLon, e.EndLat, e.EndLon,
		e.DistanceNm, string(e.Status), string(e.ServiceType), e.Notes, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("insert", "sea_time_entries").Inc()
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	return nil
}

// GetPendingEntries returns all pending entries for a vessel, newest
// start first. The entry manager filters these by calendar day; keeping
// the day policy out of SQL lets the configured time zone decide what a
// "day" is.
func (db *DB) GetPendingEntries(ctx context.Context, vesselID string) ([]*models.SeaTimeEntry, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, vessel_id, start_time, end_time, duration_hours, start_lat, start_lon, end_lat, end_lon,
		        distance_nm, status, service_type, notes, created_at, updated_at
		 FROM sea_time_entries
		 WHERE vessel_id = ? AND status = 'pending'
		 ORDER BY start_time DESC`,
		vesselID)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("select", "sea_time_entries").Inc()
		return nil, fmt.Errorf("failed to query pending entries: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

// GetEntry returns the entry with the given ID.
func (db *DB) GetEntry(ctx context.Context, id string) (*models.SeaTimeEntry, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, vessel_id, start_time, end_time, duration_hours, start_lat, start_lon, end_lat, end_lon,
		        distance_nm, status, service_type, notes, created_at, updated_at
		 FROM sea_time_entries WHERE id = ?`, id)
	return scanEntry(row)
}

// ListEntries returns entries for a vessel, newest start first.
func (db *DB) ListEntries(ctx context.Context, vesselID string, limit, offset int) ([]*models.SeaTimeEntry, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, vessel_id, start_time, end_time, duration_hours, start_lat, start_lon, end_lat, end_lon,
		        distance_nm, status, service_type, notes, created_at, updated_at
		 FROM sea_time_entries
		 WHERE vessel_id = ?
		 ORDER BY start_time DESC LIMIT ? OFFSET ?`,
		vesselID, limit, offset)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("select", "sea_time_entries").Inc()
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

// ExtendEntry updates an existing entry in place with a new end point.
// Duration and distance are full recomputed values, not increments.
func (db *DB) ExtendEntry(ctx context.Context, e *models.SeaTimeEntry) error {
	e.UpdatedAt = time.Now().UTC()
	res, err := db.conn.ExecContext(ctx,
		`UPDATE sea_time_entries
		 SET end_time = ?, duration_hours = ?, end_lat = ?, end_lon = ?, distance_nm = ?, notes = ?, updated_at = ?
		 WHERE id = ? AND status = 'pending'`,
		e.EndTime, e.DurationHours, e.EndLat, e.EndLon, e.DistanceNm, e.Notes, e.UpdatedAt, e.ID)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("update", "sea_time_entries").Inc()
		return fmt.Errorf("failed to extend entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("pending entry %s: %w", e.ID, ErrNotFound)
	}
	return nil
}

// UpdateEntryStatus confirms or rejects a pending entry.
func (db *DB) UpdateEntryStatus(ctx context.Context, id string, status models.EntryStatus) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE sea_time_entries SET status = ?, updated_at = ? WHERE id = ? AND status = 'pending'`,
		string(status), time.Now().UTC(), id)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("update", "sea_time_entries").Inc()
		return fmt.Errorf("failed to update entry status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("pending entry %s: %w", id, ErrNotFound)
	}
	return nil
}

func collectEntries(rows *sql.Rows) ([]*models.SeaTimeEntry, error) {
	var entries []*models.SeaTimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(row rowScanner) (*models.SeaTimeEntry, error) {
	var e models.SeaTimeEntry
	var status, serviceType string
	err := row.Scan(&e.ID, &e.VesselID, &e.StartTime, &e.EndTime, &e.DurationHours,
		&e.StartLat, &e.StartLon, &e.EndLat, &e.EndLon,
		&e.DistanceNm, &status, &serviceType, &e.Notes, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan entry: %w", err)
	}
	e.Status = models.EntryStatus(status)
	e.ServiceType = models.ServiceType(serviceType)
	return &e, nil
}
