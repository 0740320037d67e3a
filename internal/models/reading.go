// seatimed - Automated Sea-Time Detection for Mariner Certification
// Copyright 2026 Harborlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborlog/seatimed

package models

import "time"

// PositionReading is one normalized observation from the AIS provider.
// Rows are append-only: a reading is written once per successful poll
// and never mutated. Ordering by ObservedAt is the only meaningful
// relation between rows.
//
// SpeedKnots, Latitude and Longitude are pointers because the provider
// legitimately returns position-less results (vessel out of coverage,
// empty feature set). IsMoving is always decided, defaulting to false
// when no speed is reported.
type PositionReading struct {
	ID         string    `json:"id"`
	VesselID   string    `json:"vessel_id"`
	ObservedAt time.Time `json:"observed_at"`
	IsMoving   bool      `json:"is_moving"`
	SpeedKnots *float64  `json:"speed_knots,omitempty"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
}

// HasPosition reports whether the reading carries usable coordinates.
func (r *PositionReading) HasPosition() bool {
	return r.Latitude != nil && r.Longitude != nil
}
