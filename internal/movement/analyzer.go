// seatimed - Automated Sea-Time Detection for Mariner Certification
// Copyright 2026 Harborlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborlog/seatimed

// Package movement derives creditable vessel movement from pairs of
// position readings. A vessel has moved when the coordinate delta
// between the current reading and a reading at the far edge of the
// lookback window exceeds the configured degree threshold.
package movement

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/harborlog/seatimed/internal/database"
	"github.com/harborlog/seatimed/internal/logging"
	"github.com/harborlog/seatimed/internal/models"
)

// earthRadiusNm is the Earth's mean radius in nautical miles.
const earthRadiusNm = 3440.065

// Movement describes a detected creditable movement between two readings.
type Movement struct {
	Start         *models.PositionReading
	End           *models.PositionReading
	DistanceNm    float64
	DurationHours float64
}

// ReadingStore provides historical readings for comparison.
type ReadingStore interface {
	GetReadingAtOrBefore(ctx context.Context, vesselID string, cutoff time.Time) (*models.PositionReading, error)
}

// Analyzer compares a fresh reading against stored history.
type Analyzer struct {
	store        ReadingStore
	lookback     time.Duration
	thresholdDeg float64
}

// NewAnalyzer creates an analyzer. lookback is how far back to search
// for the comparison reading; thresholdDeg is the minimum latitude or
// longitude delta, in degrees, that counts as movement.
func NewAnalyzer(store ReadingStore, lookback time.Duration, thresholdDeg float64) *Analyzer {
	return &Analyzer{store: store, lookback: lookback, thresholdDeg: thresholdDeg}
}

// Analyze decides whether the current reading represents creditable
// movement. Returns nil with no error when the vessel has not moved:
// the reading carries no position, has no history at the lookback
// edge, or the coordinate delta stays under the threshold.
//
// The reading's instantaneous speed is deliberately not consulted: a
// vessel that completed a passage between polls is displaced even when
// it sits at anchor by the time the poll fires.
func (a *Analyzer) Analyze(ctx context.Context, current *models.PositionReading) (*Movement, error) {
	if !current.HasPosition() {
		return nil, nil
	}

	cutoff := current.ObservedAt.Add(-a.lookback)
	previous, err := a.store.GetReadingAtOrBefore(ctx, current.VesselID, cutoff)
	if errors.Is(err, database.ErrNotFound) {
		logging.Debug().Str("vessel_id", current.VesselID).Msg("No reading old enough to compare against")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load comparison reading: %w", err)
	}

	if !previous.HasPosition() {
		return nil, nil
	}

	latDiff := math.Abs(*current.Latitude - *previous.Latitude)
	lonDiff := math.Abs(*current.Longitude - *previous.Longitude)
	maxDiff := math.Max(latDiff, lonDiff)
	if maxDiff <= a.thresholdDeg {
		return nil, nil
	}

	distanceNm := haversineNm(*previous.Latitude, *previous.Longitude, *current.Latitude, *current.Longitude)
	durationHours := current.ObservedAt.Sub(previous.ObservedAt).Hours()
	if durationHours <= 0 {
		return nil, nil
	}

	logging.Info().
		Str("vessel_id", current.VesselID).
		Float64("distance_nm", roundTo2Decimals(distanceNm)).
		Float64("duration_hours", roundTo2Decimals(durationHours)).
		Msg("Creditable movement detected")

	return &Movement{
		Start:         previous,
		End:           current,
		DistanceNm:    distanceNm,
		DurationHours: durationHours,
	}, nil
}

// DistanceNm calculates the great-circle distance between two points
// in nautical miles.
func DistanceNm(lat1, lon1, lat2, lon2 float64) float64 {
	return haversineNm(lat1, lon1, lat2, lon2)
}

// haversineNm calculates the great-circle distance between two points
// in nautical miles.
func haversineNm(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180.0
	lon1Rad := lon1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0
	lon2Rad := lon2 * math.Pi / 180.0

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusNm * c
}

// roundTo2Decimals rounds a float64 to 2 decimal places.
func roundTo2Decimals(f float64) float64 {
	return math.Round(f*100) / 100
}
