// seatimed - Automated Sea-Time Detection for Mariner Certification
// Copyright 2026 Harborlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborlog/seatimed

package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/harborlog/seatimed/internal/database"
	"github.com/harborlog/seatimed/internal/logging"
	"github.com/harborlog/seatimed/internal/models"
	"github.com/harborlog/seatimed/internal/movement"
)

// VesselStore loads vessels for task execution.
type VesselStore interface {
	GetVessel(ctx context.Context, id string) (*models.Vessel, error)
}

// ReadingWriter persists fetched position readings.
type ReadingWriter interface {
	InsertReading(ctx context.Context, r *models.PositionReading) error
}

// PositionFetcher fetches a normalized reading for a vessel.
type PositionFetcher interface {
	Check(ctx context.Context, vessel *models.Vessel) (*models.PositionReading, error)
}

// MovementAnalyzer decides whether a reading represents creditable movement.
type MovementAnalyzer interface {
	Analyze(ctx context.Context, current *models.PositionReading) (*movement.Movement, error)
}

// EntryRecorder applies detected movement to sea-time entries.
type EntryRecorder interface {
	Record(ctx context.Context, vessel *models.Vessel, mv *movement.Movement) (*models.SeaTimeEntry, bool, error)
}

// PositionCheck is the handler for position_check tasks: fetch the
// vessel's current AIS state, persist the reading, analyze movement,
// and record any resulting sea-time.
type PositionCheck struct {
	vessels  VesselStore
	readings ReadingWriter
	fetcher  PositionFetcher
	analyzer MovementAnalyzer
	entries  EntryRecorder
}

// NewPositionCheck wires the position check pipeline.
func NewPositionCheck(vessels VesselStore, readings ReadingWriter, fetcher PositionFetcher, analyzer MovementAnalyzer, entries EntryRecorder) *PositionCheck {
	return &PositionCheck{
		vessels:  vessels,
		readings: readings,
		fetcher:  fetcher,
		analyzer: analyzer,
		entries:  entries,
	}
}

// Handle executes one position check.
func (p *PositionCheck) Handle(ctx context.Context, task *models.ScheduledTask) error {
	vessel, err := p.vessels.GetVessel(ctx, task.VesselID)
	if errors.Is(err, database.ErrNotFound) {
		// Vessel deleted under a live task; reschedule quietly.
		logging.Warn().Str("vessel_id", task.VesselID).Msg("Task references missing vessel")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load vessel: %w", err)
	}
	if !vessel.Active {
		return nil
	}

	reading, err := p.fetcher.Check(ctx, vessel)
	if err != nil {
		return err
	}

	if err := p.readings.InsertReading(ctx, reading); err != nil {
		return fmt.Errorf("failed to persist reading: %w", err)
	}

	mv, err := p.analyzer.Analyze(ctx, reading)
	if err != nil {
		return fmt.Errorf("movement analysis failed: %w", err)
	}
	if mv == nil {
		return nil
	}

	if _, _, err := p.entries.Record(ctx, vessel, mv); err != nil {
		return fmt.Errorf("failed to record sea time: %w", err)
	}
	return nil
}
