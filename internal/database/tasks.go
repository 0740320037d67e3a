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

// CreateTask inserts a scheduled task. The first run is due immediately
// unless NextRunAt is already set.
func (db *DB) CreateTask(ctx context.Context, t *models.ScheduledTask) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.NextRunAt.IsZero() {
		t.NextRunAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO scheduled_tasks (id, vessel_id, kind, interval_hours, last_run_at, next_run_at, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.VesselID, string(t.Kind), t.IntervalHours, t.LastRunAt, t.NextRunAt, t.Active)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("insert", "scheduled_tasks").Inc()
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// GetTasksDue returns active tasks whose next run is at or before now,
// restricted to vessels that are themselves active. Ordered oldest due
// first so chronically delayed tasks are served before fresh ones.
func (db *DB) GetTasksDue(ctx context.Context, now time.Time) ([]*models.ScheduledTask, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT t.id, t.vessel_id, t.kind, t.interval_hours, t.last_run_at, t.next_run_at, t.active
		 FROM scheduled_tasks t
		 JOIN vessels v ON v.id = t.vessel_id
		 WHERE t.active AND v.active AND t.next_run_at <= ?
		 ORDER BY t.next_run_at ASC`,
		now)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("select", "scheduled_tasks").Inc()
		return nil, fmt.Errorf("failed to query due tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.ScheduledTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// MarkTaskRun records a completed (or attempted) run and advances
// next_run_at. The next run is computed from the actual run time, not
// the previous schedule, so a delayed task does not fire in a burst.
func (db *DB) MarkTaskRun(ctx context.Context, taskID string, ranAt, nextRunAt time.Time) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE scheduled_tasks SET last_run_at = ?, next_run_at = ? WHERE id = ?`,
		ranAt, nextRunAt, taskID)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("update", "scheduled_tasks").Inc()
		return fmt.Errorf("failed to mark task run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	return nil
}

// GetTaskByVessel returns the task of the given kind for a vessel.
func (db *DB) GetTaskByVessel(ctx context.Context, vesselID string, kind models.TaskKind) (*models.ScheduledTask, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, vessel_id, kind, interval_hours, last_run_at, next_run_at, active
		 FROM scheduled_tasks WHERE vessel_id = ? AND kind = ?`,
		vesselID, string(kind))
	return scanTask(row)
}

// SetTaskActive enables or disables a scheduled task.
func (db *DB) SetTaskActive(ctx context.Context, taskID string, active bool) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE scheduled_tasks SET active = ? WHERE id = ?`, active, taskID)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("update", "scheduled_tasks").Inc()
		return fmt.Errorf("failed to update task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	return nil
}

func scanTask(row rowScanner) (*models.ScheduledTask, error) {
	var t models.ScheduledTask
	var kind string
	err := row.Scan(&t.ID, &t.VesselID, &kind, &t.IntervalHours, &t.LastRunAt, &t.NextRunAt, &t.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}
	t.Kind = models.TaskKind(kind)
	return &t, nil
}
