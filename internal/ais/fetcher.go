// seatimed - Automated Sea-Time Detection for Mariner Certification
// Copyright 2026 Harborlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborlog/seatimed

package ais

import (
	"context"
	"fmt"
	"time"

	"github.com/harborlog/seatimed/internal/logging"
	"github.com/harborlog/seatimed/internal/models"
)

// PositionSource fetches raw position reports for an MMSI. Implemented
// by BreakerClient in production and by mocks in tests.
type PositionSource interface {
	FetchPositions(ctx context.Context, mmsi string) (*CallResult, error)
}

// AuditStore records provider calls. Implemented by the database layer.
type AuditStore interface {
	InsertProviderCall(ctx context.Context, c *models.ProviderCall) error
}

// Fetcher turns raw provider responses into normalized position
// readings and records every call in the audit trail.
type Fetcher struct {
	source      PositionSource
	audit       AuditStore
	movingSpeed float64 // knots; at or above counts as underway
}

// NewFetcher creates a fetcher. movingSpeed is the speed-over-ground
// threshold in knots above which a vessel counts as moving.
func NewFetcher(source PositionSource, audit AuditStore, movingSpeed float64) *Fetcher {
	return &Fetcher{source: source, audit: audit, movingSpeed: movingSpeed}
}

// Check fetches the current position state for a vessel and returns a
// normalized reading.
//
// An empty provider result is not an error: it yields a reading with
// IsMoving false and no position, which downstream treats as "no
// creditable movement". Only transport and provider failures return an
// error.
func (f *Fetcher) Check(ctx context.Context, vessel *models.Vessel) (*models.PositionReading, error) {
	requestTime := time.Now().UTC()
	result, err := f.source.FetchPositions(ctx, vessel.MMSI)

	f.recordCall(ctx, vessel, requestTime, result, err)

	if err != nil {
		return nil, fmt.Errorf("position fetch for vessel %s: %w", vessel.ID, err)
	}

	reading := &models.PositionReading{
		VesselID:   vessel.ID,
		ObservedAt: requestTime,
		IsMoving:   false,
	}

	if len(result.Positions) == 0 {
		logging.Debug().Str("vessel_id", vessel.ID).Str("mmsi", vessel.MMSI).Msg("No position reports returned")
		return reading, nil
	}

	latest := latestPosition(result.Positions)
	lat, lon, sog := latest.Latitude, latest.Longitude, latest.Sog
	reading.Latitude = &lat
	reading.Longitude = &lon
	reading.SpeedKnots = &sog
	reading.IsMoving = sog >= f.movingSpeed
	if !latest.Timestamp.IsZero() {
		reading.ObservedAt = latest.Timestamp.UTC()
	}

	return reading, nil
}

// recordCall writes the audit record for one provider request. Audit
// failures are logged, never propagated: losing an audit row must not
// fail a position check.
func (f *Fetcher) recordCall(ctx context.Context, vessel *models.Vessel, requestTime time.Time, result *CallResult, callErr error) {
	call := &models.ProviderCall{
		VesselID:      vessel.ID,
		MMSI:          vessel.MMSI,
		RequestTime:   requestTime,
		Authenticated: true,
	}
	if result != nil {
		call.URL = result.URL
		call.ResponseStatus = result.Status
		call.ResponseBody = string(result.Body)
	}
	if callErr != nil {
		call.ErrorMessage = callErr.Error()
	}

	if err := f.audit.InsertProviderCall(ctx, call); err != nil {
		logging.Warn().Err(err).Str("vessel_id", vessel.ID).Msg("Failed to record provider call")
	}
}

// latestPosition returns the report with the newest timestamp.
func latestPosition(positions []Position) Position {
	latest := positions[0]
	for _, p := range positions[1:] {
		if p.Timestamp.After(latest.Timestamp) {
			latest = p
		}
	}
	return latest
}
