// seatimed - Automated Sea-Time Detection for Mariner Certification
// Copyright 2026 Harborlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborlog/seatimed

// Package ais fetches vessel positions from an AIS data provider and
// normalizes them into position readings. Every outbound request is
// recorded in the provider call audit trail with credentials redacted.
package ais

import "time"

// Position is a single AIS position report as returned by the provider.
type Position struct {
	MMSI               string    `json:"mmsi"`
	Latitude           float64   `json:"latitude"`
	Longitude          float64   `json:"longitude"`
	Sog                float64   `json:"sog"` // speed over ground, knots
	Cog                float64   `json:"cog"` // course over ground, degrees
	NavigationalStatus int       `json:"navigationalStatus"`
	Timestamp          time.Time `json:"timestamp"`
}

// positionResponse is the provider's wire envelope.
type positionResponse struct {
	Data []Position `json:"data"`
}

// CallResult carries the raw outcome of one provider request. The URL
// is already credential-redacted and safe to persist.
type CallResult struct {
	URL       string
	Status    int
	Body      []byte
	Positions []Position
}
