// seatimed - Automated Sea-Time Detection for Mariner Certification
// Copyright 2026 Harborlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborlog/seatimed

package database

import (
	"context"
	"fmt"
)

// getTableCreationQueries returns the DDL for all tables and indexes.
// Statements are idempotent so startup is safe against an existing file.
func getTableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS vessels (
			id VARCHAR PRIMARY KEY,
			user_id VARCHAR NOT NULL,
			mmsi VARCHAR NOT NULL,
			name VARCHAR NOT NULL,
			service_type VARCHAR NOT NULL DEFAULT 'yacht',
			active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_vessels_user ON vessels(user_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_vessels_mmsi ON vessels(mmsi)`,

		`CREATE TABLE IF NOT EXISTS position_readings (
			id VARCHAR PRIMARY KEY,
			vessel_id VARCHAR NOT NULL,
			observed_at TIMESTAMP NOT NULL,
			is_moving BOOLEAN NOT NULL,
			speed_knots DOUBLE,
			latitude DOUBLE,
			longitude DOUBLE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_readings_vessel_time ON position_readings(vessel_id, observed_at)`,

		`CREATE TABLE IF NOT EXISTS scheduled_tasks (
			id VARCHAR PRIMARY KEY,
			vessel_id VARCHAR NOT NULL,
			kind VARCHAR NOT NULL,
			interval_hours DOUBLE NOT NULL,
			last_run_at TIMESTAMP,
			next_run_at TIMESTAMP NOT NULL,
			active BOOLEAN NOT NULL DEFAULT true
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_due ON scheduled_tasks(active, next_run_at)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_vessel_kind ON scheduled_tasks(vessel_id, kind)`,

		`CREATE TABLE IF NOT EXISTS sea_time_entries (
			id VARCHAR PRIMARY KEY,
			vessel_id VARCHAR NOT NULL,
			start_time TIMESTAMP NOT NULL,
			end_time TIMESTAMP,
			duration_hours DOUBLE,
			start_lat DOUBLE,
			start_lon DOUBLE,
			end_lat DOUBLE,
			end_lon DOUBLE,
			distance_nm DOUBLE,
			status VARCHAR NOT NULL DEFAULT 'pending',
			service_type VARCHAR NOT NULL,
			notes VARCHAR NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_vessel_status ON sea_time_entries(vessel_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_start_time ON sea_time_entries(start_time)`,

		`CREATE TABLE IF NOT EXISTS provider_calls (
			id VARCHAR PRIMARY KEY,
			vessel_id VARCHAR NOT NULL,
			mmsi VARCHAR NOT NULL,
			url VARCHAR NOT NULL,
			request_time TIMESTAMP NOT NULL,
			response_status INTEGER NOT NULL DEFAULT 0,
			response_body VARCHAR NOT NULL DEFAULT '',
			error_message VARCHAR NOT NULL DEFAULT '',
			authenticated BOOLEAN NOT NULL DEFAULT false
		)`,
		`CREATE INDEX IF NOT EXISTS idx_provider_calls_time ON provider_calls(request_time)`,
		`CREATE INDEX IF NOT EXISTS idx_provider_calls_vessel ON provider_calls(vessel_id, request_time)`,
	}
}

// createTables creates all tables and indexes if they do not exist.
func (db *DB) createTables(ctx context.Context) error {
	for _, query := range getTableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
