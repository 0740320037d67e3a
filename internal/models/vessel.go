// seatimed - Automated Sea-Time Detection for Mariner Certification
// Copyright 2026 Harborlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborlog/seatimed

// Package models defines the persisted domain types shared across the
// engine: vessels, position readings, scheduled tasks, sea-time entries,
// and the provider call audit record.
package models

import "time"

// ServiceType classifies the duty a vessel's sea time is credited under.
type ServiceType string

const (
	ServiceTypeYacht      ServiceType = "yacht"
	ServiceTypeCommercial ServiceType = "commercial"
	ServiceTypeFishing    ServiceType = "fishing"
	ServiceTypeWorkboat   ServiceType = "workboat"
)

// Valid reports whether t is a known service type.
func (t ServiceType) Valid() bool {
	switch t {
	case ServiceTypeYacht, ServiceTypeCommercial, ServiceTypeFishing, ServiceTypeWorkboat:
		return true
	}
	return false
}

// Vessel is a tracked ship. MMSI is the stable external identifier the
// AIS provider is queried by. Deactivated vessels are excluded from
// scheduling but keep their historical readings and entries.
type Vessel struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	MMSI        string      `json:"mmsi"`
	Name        string      `json:"name"`
	ServiceType ServiceType `json:"service_type"`
	Active      bool        `json:"active"`
	CreatedAt   time.Time   `json:"created_at"`
}
