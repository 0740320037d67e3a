// seatimed - Automated Sea-Time Detection for Mariner Certification
// Copyright 2026 Harborlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborlog/seatimed

package models

import "time"

// TaskKind identifies which handler a scheduled task is dispatched to.
// The scheduler holds a kind→handler registry, so adding a new periodic
// task type means registering a handler, not branching in the tick loop.
type TaskKind string

const (
	// TaskKindPositionCheck polls the AIS provider and runs the
	// movement pipeline for one vessel.
	TaskKindPositionCheck TaskKind = "position_check"
)

// ScheduledTask is one recurring unit of scheduler work, one row per
// (vessel, kind) pair.
//
// Invariant: NextRunAt is always advanced after every run, success or
// failure, so a task can never get permanently stuck. LastRunAt is the
// processing time of the most recent run; NextRunAt is computed from
// LastRunAt, not from the previous NextRunAt, to keep schedule drift
// from stacking.
type ScheduledTask struct {
	ID            string     `json:"id"`
	VesselID      string     `json:"vessel_id"`
	Kind          TaskKind   `json:"kind"`
	IntervalHours float64    `json:"interval_hours"`
	LastRunAt     *time.Time `json:"last_run_at,omitempty"`
	NextRunAt     time.Time  `json:"next_run_at"`
	Active        bool       `json:"active"`
}

// Interval returns the run interval as a time.Duration.
func (t *ScheduledTask) Interval() time.Duration {
	return time.Duration(t.IntervalHours * float64(time.Hour))
}
