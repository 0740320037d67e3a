// seatimed - Automated Sea-Time Detection for Mariner Certification
// Copyright 2026 Harborlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborlog/seatimed

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harborlog/seatimed/internal/metrics"
	"github.com/harborlog/seatimed/internal/models"
)

// InsertProviderCall records one AIS provider request in the audit trail.
// The URL must already be credential-redacted by the caller.
func (db *DB) InsertProviderCall(ctx context.Context, c *models.ProviderCall) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.RequestTime.IsZero() {
		c.RequestTime = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO provider_calls
		 (id, vessel_id, mmsi, url, request_time, response_status, response_body, error_message, authenticated)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.VesselID, c.MMSI, c.URL, c.RequestTime,
		c.ResponseStatus, c.ResponseBody, c.ErrorMessage, c.Authenticated)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("insert", "provider_calls").Inc()
		return fmt.Errorf("failed to insert provider call: %w", err)
	}
	return nil
}

// ListProviderCalls returns audit records for a vessel, newest first.
// An empty vesselID returns records for all vessels.
func (db *DB) ListProviderCalls(ctx context.Context, vesselID string, limit, offset int) ([]*models.ProviderCall, error) {
	query := `SELECT id, vessel_id, mmsi, url, request_time, response_status, response_body, error_message, authenticated
	          FROM provider_calls`
	args := []any{}
	if vesselID != "" {
		query += ` WHERE vessel_id = ?`
		args = append(args, vesselID)
	}
	query += ` ORDER BY request_time DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("select", "provider_calls").Inc()
		return nil, fmt.Errorf("failed to list provider calls: %w", err)
	}
	defer rows.Close()

	var calls []*models.ProviderCall
	for rows.Next() {
		var c models.ProviderCall
		if err := rows.Scan(&c.ID, &c.VesselID, &c.MMSI, &c.URL, &c.RequestTime,
			&c.ResponseStatus, &c.ResponseBody, &c.ErrorMessage, &c.Authenticated); err != nil {
			return nil, fmt.Errorf("failed to scan provider call: %w", err)
		}
		calls = append(calls, &c)
	}
	return calls, rows.Err()
}

// DeleteProviderCallsBefore purges audit records older than the cutoff.
// Returns the number of records removed.
func (db *DB) DeleteProviderCallsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM provider_calls WHERE request_time < ?`, cutoff)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("delete", "provider_calls").Inc()
		return 0, fmt.Errorf("failed to purge provider calls: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged provider calls: %w", err)
	}
	metrics.AuditRecordsPurged.Add(float64(n))
	return n, nil
}
