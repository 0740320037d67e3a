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

// InsertReading appends a position reading. Readings are never updated.
func (db *DB) InsertReading(ctx context.Context, r *models.PositionReading) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO position_readings (id, vessel_id, observed_at, is_moving, speed_knots, latitude, longitude)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.VesselID, r.ObservedAt, r.IsMoving, r.SpeedKnots, r.Latitude, r.Longitude)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("insert", "position_readings").Inc()
		return fmt.Errorf("failed to insert reading: %w", err)
	}
	return nil
}

// GetReadingAtOrBefore returns the most recent reading for the vessel
// observed at or before the given cutoff. Used by the movement analyzer
// to find the comparison point at the far edge of the lookback window.
func (db *DB) GetReadingAtOrBefore(ctx context.Context, vesselID string, cutoff time.Time) (*models.PositionReading, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, vessel_id, observed_at, is_moving, speed_knots, latitude, longitude
		 FROM position_readings
		 WHERE vessel_id = ? AND observed_at <= ?
		 ORDER BY observed_at DESC LIMIT 1`,
		vesselID, cutoff)
	return scanReading(row)
}

// GetLatestReading returns the most recent reading for the vessel.
func (db *DB) GetLatestReading(ctx context.Context, vesselID string) (*models.PositionReading, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, vessel_id, observed_at, is_moving, speed_knots, latitude, longitude
		 FROM position_readings
		 WHERE vessel_id = ?
		 ORDER BY observed_at DESC LIMIT 1`,
		vesselID)
	return scanReading(row)
}

// ListReadings returns readings for a vessel, newest first.
func (db *DB) ListReadings(ctx context.Context, vesselID string, limit, offset int) ([]*models.PositionReading, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, vessel_id, observed_at, is_moving, speed_knots, latitude, longitude
		 FROM position_readings
		 WHERE vessel_id = ?
		 ORDER BY observed_at DESC LIMIT ? OFFSET ?`,
		vesselID, limit, offset)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("select", "position_readings").Inc()
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}
	defer rows.Close()

	var readings []*models.PositionReading
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

func scanReading(row rowScanner) (*models.PositionReading, error) {
	var r models.PositionReading
	err := row.Scan(&r.ID, &r.VesselID, &r.ObservedAt, &r.IsMoving, &r.SpeedKnots, &r.Latitude, &r.Longitude)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan reading: %w", err)
	}
	return &r, nil
}
