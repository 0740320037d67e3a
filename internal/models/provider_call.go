// seatimed - Automated Sea-Time Detection for Mariner Certification
// Copyright 2026 Harborlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborlog/seatimed

package models

import "time"

// ProviderCall is the audit record of one call to the AIS provider,
// success or failure. The audit trail is a first-class deliverable of
// the fetcher: when entries go missing, this table is how a provider
// outage is diagnosed after the fact.
//
// URL is stored with the API key redacted; Authenticated records
// whether a credential was attached to the request.
type ProviderCall struct {
	ID             string    `json:"id"`
	VesselID       string    `json:"vessel_id,omitempty"`
	MMSI           string    `json:"mmsi,omitempty"`
	URL            string    `json:"url"`
	RequestTime    time.Time `json:"request_time"`
	ResponseStatus int       `json:"response_status"`
	ResponseBody   string    `json:"response_body,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	Authenticated  bool      `json:"authenticated"`
}
