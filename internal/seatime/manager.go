// seatimed - Automated Sea-Time Detection for Mariner Certification
// Copyright 2026 Harborlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborlog/seatimed

// Package seatime manages the lifecycle of sea-time entries. Detected
// movement becomes a pending entry awaiting mariner review, with at
// most one pending entry per vessel per calendar day: movement on a day
// that already has a pending entry extends that entry in place.
package seatime

import (
	"context"
	"fmt"
	"time"

	"github.com/harborlog/seatimed/internal/logging"
	"github.com/harborlog/seatimed/internal/metrics"
	"github.com/harborlog/seatimed/internal/models"
	"github.com/harborlog/seatimed/internal/movement"
)

// DayFunc maps an instant to the start of its calendar day. Injectable
// so tests and deployments control what counts as "the same day".
type DayFunc func(t time.Time) time.Time

// DayStartIn returns a DayFunc bucketing instants by midnight in loc.
func DayStartIn(loc *time.Location) DayFunc {
	return func(t time.Time) time.Time {
		local := t.In(loc)
		return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	}
}

// EntryStore persists sea-time entries. Implemented by the database layer.
type EntryStore interface {
	GetPendingEntries(ctx context.Context, vesselID string) ([]*models.SeaTimeEntry, error)
	CreateEntry(ctx context.Context, e *models.SeaTimeEntry) error
	ExtendEntry(ctx context.Context, e *models.SeaTimeEntry) error
}

// Manager turns detected movement into sea-time entries.
type Manager struct {
	store              EntryStore
	notifier           Notifier
	dayOf              DayFunc
	minCreditableHours float64
}

// NewManager creates an entry manager. minCreditableHours is the
// duration at or above which an entry is flagged compliant.
func NewManager(store EntryStore, notifier Notifier, dayOf DayFunc, minCreditableHours float64) *Manager {
	return &Manager{
		store:              store,
		notifier:           notifier,
		dayOf:              dayOf,
		minCreditableHours: minCreditableHours,
	}
}

// Record applies a detected movement to the vessel's entries. If a
// pending entry already exists for the movement's calendar day the
// entry is extended in place, recomputing duration and distance from
// the entry's original start; otherwise a new pending entry is created
// and a notification is sent exactly once.
//
// Returns the affected entry and whether it was newly created.
func (m *Manager) Record(ctx context.Context, vessel *models.Vessel, mv *movement.Movement) (*models.SeaTimeEntry, bool, error) {
	pending, err := m.store.GetPendingEntries(ctx, vessel.ID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load pending entries: %w", err)
	}

	movementDay := m.dayOf(mv.Start.ObservedAt)
	for _, entry := range pending {
		if m.dayOf(entry.StartTime).Equal(movementDay) {
			if err := m.extend(ctx, entry, mv); err != nil {
				return nil, false, err
			}
			return entry, false, nil
		}
	}

	entry, err := m.create(ctx, vessel, mv)
	if err != nil {
		return nil, false, err
	}
	return entry, true, nil
}

// extend pushes an existing entry's end point forward. Duration and
// distance are recomputed against the entry's original start so
// repeated extensions never compound.
func (m *Manager) extend(ctx context.Context, entry *models.SeaTimeEntry, mv *movement.Movement) error {
	end := mv.End.ObservedAt
	duration := end.Sub(entry.StartTime).Hours()
	entry.EndTime = &end
	entry.DurationHours = &duration
	entry.EndLat = mv.End.Latitude
	entry.EndLon = mv.End.Longitude

	if entry.StartLat != nil && entry.StartLon != nil && mv.End.HasPosition() {
		distance := movement.DistanceNm(*entry.StartLat, *entry.StartLon, *mv.End.Latitude, *mv.End.Longitude)
		entry.DistanceNm = &distance
	}
	entry.Notes += fmt.Sprintf("; extended to %s", end.UTC().Format(time.RFC3339))

	if err := m.store.ExtendEntry(ctx, entry); err != nil {
		return fmt.Errorf("failed to extend entry %s: %w", entry.ID, err)
	}

	metrics.EntriesExtended.Inc()
	logging.Info().
		Str("vessel_id", entry.VesselID).
		Str("entry_id", entry.ID).
		Float64("duration_hours", duration).
		Msg("Extended same-day sea-time entry")
	return nil
}

// create opens a new pending entry for the movement and notifies once.
func (m *Manager) create(ctx context.Context, vessel *models.Vessel, mv *movement.Movement) (*models.SeaTimeEntry, error) {
	end := mv.End.ObservedAt
	duration := mv.DurationHours
	distance := mv.DistanceNm

	entry := &models.SeaTimeEntry{
		VesselID:      vessel.ID,
		StartTime:     mv.Start.ObservedAt,
		EndTime:       &end,
		DurationHours: &duration,
		StartLat:      mv.Start.Latitude,
		StartLon:      mv.Start.Longitude,
		EndLat:        mv.End.Latitude,
		EndLon:        mv.End.Longitude,
		DistanceNm:    &distance,
		Status:        models.EntryStatusPending,
		ServiceType:   vessel.ServiceType,
		Notes:         "Automatically detected from AIS positions",
	}

	if err := m.store.CreateEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}

	metrics.EntriesCreated.Inc()
	logging.Info().
		Str("vessel_id", vessel.ID).
		Str("entry_id", entry.ID).
		Float64("duration_hours", duration).
		Float64("distance_nm", distance).
		Msg("Created pending sea-time entry")

	event := &NewEntryEvent{
		VesselID:      vessel.ID,
		VesselName:    vessel.Name,
		EntryID:       entry.ID,
		DurationHours: duration,
		MCACompliant:  duration >= m.minCreditableHours,
	}
	if err := m.notifier.NotifyNewEntry(ctx, event); err != nil {
		// Notification failure must not roll back the entry.
		logging.Warn().Err(err).Str("entry_id", entry.ID).Msg("Failed to send new entry notification")
	}

	return entry, nil
}
