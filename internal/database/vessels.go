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
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harborlog/seatimed/internal/metrics"
	"github.com/harborlog/seatimed/internal/models"
)

// CreateVessel inserts a new vessel. The ID is generated when empty.
func (db *DB) CreateVessel(ctx context.Context, v *models.Vessel) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO vessels (id, user_id, mmsi, name, service_type, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.UserID, v.MMSI, v.Name, string(v.ServiceType), v.Active, v.CreatedAt)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("insert", "vessels").Inc()
		if strings.Contains(err.Error(), "Duplicate") || strings.Contains(err.Error(), "Constraint") {
			return fmt.Errorf("vessel with MMSI %s: %w", v.MMSI, ErrDuplicate)
		}
		return fmt.Errorf("failed to insert vessel: %w", err)
	}
	return nil
}

// GetVessel returns the vessel with the given ID.
func (db *DB) GetVessel(ctx context.Context, id string) (*models.Vessel, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, mmsi, name, service_type, active, created_at
		 FROM vessels WHERE id = ?`, id)
	return scanVessel(row)
}

// ListVessels returns all vessels, active first, newest first within each group.
func (db *DB) ListVessels(ctx context.Context) ([]*models.Vessel, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, mmsi, name, service_type, active, created_at
		 FROM vessels ORDER BY active DESC, created_at DESC`)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("select", "vessels").Inc()
		return nil, fmt.Errorf("failed to list vessels: %w", err)
	}
	defer rows.Close()

	var vessels []*models.Vessel
	for rows.Next() {
		v, err := scanVessel(rows)
		if err != nil {
			return nil, err
		}
		vessels = append(vessels, v)
	}
	return vessels, rows.Err()
}

// SetVesselActive toggles polling for a vessel.
func (db *DB) SetVesselActive(ctx context.Context, id string, active bool) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE vessels SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("update", "vessels").Inc()
		return fmt.Errorf("failed to update vessel: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("vessel %s: %w", id, ErrNotFound)
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanVessel(row rowScanner) (*models.Vessel, error) {
	var v models.Vessel
	var serviceType string
	err := row.Scan(&v.ID, &v.UserID, &v.MMSI, &v.Name, &serviceType, &v.Active, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan vessel: %w", err)
	}
	v.ServiceType = models.ServiceType(serviceType)
	return &v, nil
}
