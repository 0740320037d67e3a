// seatimed - Automated Sea-Time Detection for Mariner Certification
// Copyright 2026 Harborlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborlog/seatimed

package models

import "time"

// EntryStatus is the lifecycle state of a sea-time entry.
type EntryStatus string

const (
	// EntryStatusPending means the engine detected movement and is
	// waiting for the mariner to confirm or reject the credit.
	EntryStatusPending EntryStatus = "pending"

	// EntryStatusConfirmed and EntryStatusRejected are set exclusively
	// by user action; the engine never finalizes an entry itself.
	EntryStatusConfirmed EntryStatus = "confirmed"
	EntryStatusRejected  EntryStatus = "rejected"
)

// Valid reports whether s is a known entry status.
func (s EntryStatus) Valid() bool {
	switch s {
	case EntryStatusPending, EntryStatusConfirmed, EntryStatusRejected:
		return true
	}
	return false
}

// SeaTimeEntry is one continuous interval of detected vessel movement,
// the derived artifact the whole engine exists to produce.
//
// Lifecycle: created pending when movement is first detected on a
// calendar day; extended in place when movement is detected again the
// same day; finalized to confirmed or rejected only by the user. At
// most one pending entry exists per vessel per calendar day.
//
// DurationHours is always recomputed from the original StartTime, never
// incremented, so repeated extensions cannot accumulate rounding error.
type SeaTimeEntry struct {
	ID            string      `json:"id"`
	VesselID      string      `json:"vessel_id"`
	StartTime     time.Time   `json:"start_time"`
	EndTime       *time.Time  `json:"end_time,omitempty"`
	DurationHours *float64    `json:"duration_hours,omitempty"`
	StartLat      *float64    `json:"start_lat,omitempty"`
	StartLon      *float64    `json:"start_lon,omitempty"`
	EndLat        *float64    `json:"end_lat,omitempty"`
	EndLon        *float64    `json:"end_lon,omitempty"`
	DistanceNm    *float64    `json:"distance_nm,omitempty"`
	Status        EntryStatus `json:"status"`
	ServiceType   ServiceType `json:"service_type"`
	Notes         string      `json:"notes,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}
