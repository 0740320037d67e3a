// seatimed - Automated Sea-Time Detection for Mariner Certification
// Copyright 2026 Harborlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborlog/seatimed

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/harborlog/seatimed/internal/config"
	"github.com/harborlog/seatimed/internal/database"
	"github.com/harborlog/seatimed/internal/logging"
	"github.com/harborlog/seatimed/internal/metrics"
	"github.com/harborlog/seatimed/internal/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	db  *database.DB
	cfg *config.Config
}

// NewHandlers creates the handler set.
func NewHandlers(db *database.DB, cfg *config.Config) *Handlers {
	return &Handlers{db: db, cfg: cfg}
}

// respondJSON writes a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Warn().Err(err).Msg("Failed to encode JSON response")
	}
}

// respondError writes a JSON error envelope.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// pagination extracts limit/offset query parameters with bounds.
func pagination(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

// Health reports overall service health including database reachability.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	if err := h.db.Ping(ctx); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	schemaVersion := 0
	if code == http.StatusOK {
		if v, err := h.db.SchemaVersion(ctx); err == nil {
			schemaVersion = v
		}
	}

	respondJSON(w, code, map[string]any{
		"status":          status,
		"polling_enabled": h.cfg.PollingEnabled(),
		"schema_version":  schemaVersion,
	})
}

// HealthLive is the liveness probe.
func (h *Handlers) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthReady is the readiness probe; ready only when the database responds.
func (h *Handlers) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// ListVessels returns all registered vessels.
func (h *Handlers) ListVessels(w http.ResponseWriter, r *http.Request) {
	vessels, err := h.db.ListVessels(r.Context())
	if err != nil {
		logging.Error().Err(err).Msg("Failed to list vessels")
		respondError(w, http.StatusInternalServerError, "failed to list vessels")
		return
	}
	if vessels == nil {
		vessels = []*models.Vessel{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"vessels": vessels})
}

// createVesselRequest is the POST /vessels body.
type createVesselRequest struct {
	UserID        string  `json:"userId"`
	MMSI          string  `json:"mmsi"`
	Name          string  `json:"name"`
	ServiceType   string  `json:"serviceType"`
	IntervalHours float64 `json:"intervalHours"`
}

// CreateVessel registers a vessel and schedules its position checks.
func (h *Handlers) CreateVessel(w http.ResponseWriter, r *http.Request) {
	var req createVesselRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.MMSI == "" || req.Name == "" || req.UserID == "" {
		respondError(w, http.StatusBadRequest, "userId, mmsi and name are required")
		return
	}

	serviceType := models.ServiceType(req.ServiceType)
	if req.ServiceType == "" {
		serviceType = models.ServiceTypeYacht
	} else if !serviceType.Valid() {
		respondError(w, http.StatusBadRequest, "unknown serviceType")
		return
	}

	intervalHours := req.IntervalHours
	if intervalHours <= 0 {
		intervalHours = h.cfg.Scheduler.DefaultIntervalHours
	}

	vessel := &models.Vessel{
		UserID:      req.UserID,
		MMSI:        req.MMSI,
		Name:        req.Name,
		ServiceType: serviceType,
		Active:      true,
	}
	if err := h.db.CreateVessel(r.Context(), vessel); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			respondError(w, http.StatusConflict, "vessel with this MMSI already exists")
			return
		}
		logging.Error().Err(err).Msg("Failed to create vessel")
		respondError(w, http.StatusInternalServerError, "failed to create vessel")
		return
	}

	task := &models.ScheduledTask{
		VesselID:      vessel.ID,
		Kind:          models.TaskKindPositionCheck,
		IntervalHours: intervalHours,
		Active:        true,
	}
	if err := h.db.CreateTask(r.Context(), task); err != nil {
		logging.Error().Err(err).Str("vessel_id", vessel.ID).Msg("Failed to schedule position checks")
		respondError(w, http.StatusInternalServerError, "vessel created but scheduling failed")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{"vessel": vessel, "task": task})
}

// updateVesselRequest is the PATCH /vessels/{id} body.
type updateVesselRequest struct {
	Active *bool `json:"active"`
}

// UpdateVessel toggles a vessel's polling state.
func (h *Handlers) UpdateVessel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateVesselRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Active == nil {
		respondError(w, http.StatusBadRequest, "body must contain an active flag")
		return
	}

	if err := h.db.SetVesselActive(r.Context(), id, *req.Active); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "vessel not found")
			return
		}
		logging.Error().Err(err).Msg("Failed to update vessel")
		respondError(w, http.StatusInternalServerError, "failed to update vessel")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"id": id, "active": *req.Active})
}

// ListReadings returns a vessel's position readings, newest first.
func (h *Handlers) ListReadings(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	limit, offset := pagination(r)

	readings, err := h.db.ListReadings(r.Context(), id, limit, offset)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to list readings")
		respondError(w, http.StatusInternalServerError, "failed to list readings")
		return
	}
	if readings == nil {
		readings = []*models.PositionReading{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"readings": readings})
}

// ListEntries returns a vessel's sea-time entries, newest first.
func (h *Handlers) ListEntries(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	limit, offset := pagination(r)

	entries, err := h.db.ListEntries(r.Context(), id, limit, offset)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to list entries")
		respondError(w, http.StatusInternalServerError, "failed to list entries")
		return
	}
	if entries == nil {
		entries = []*models.SeaTimeEntry{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// GetTask returns the vessel's position check schedule.
func (h *Handlers) GetTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	task, err := h.db.GetTaskByVessel(r.Context(), id, models.TaskKindPositionCheck)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "no schedule for vessel")
		return
	}
	if err != nil {
		logging.Error().Err(err).Msg("Failed to load task")
		respondError(w, http.StatusInternalServerError, "failed to load schedule")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"task": task})
}

// reviewEntryRequest is the PATCH /entries/{id} body.
type reviewEntryRequest struct {
	Status string `json:"status"`
}

// ReviewEntry confirms or rejects a pending sea-time entry.
func (h *Handlers) ReviewEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req reviewEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	status := models.EntryStatus(req.Status)
	if status != models.EntryStatusConfirmed && status != models.EntryStatusRejected {
		respondError(w, http.StatusBadRequest, "status must be confirmed or rejected")
		return
	}

	if err := h.db.UpdateEntryStatus(r.Context(), id, status); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "no pending entry with this id")
			return
		}
		logging.Error().Err(err).Msg("Failed to review entry")
		respondError(w, http.StatusInternalServerError, "failed to update entry")
		return
	}

	metrics.EntriesReviewed.WithLabelValues(string(status)).Inc()
	respondJSON(w, http.StatusOK, map[string]any{"id": id, "status": status})
}

// ListProviderCalls returns the provider call audit trail, newest first.
// Filterable by vessel via the vessel_id query parameter.
func (h *Handlers) ListProviderCalls(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	vesselID := r.URL.Query().Get("vessel_id")

	calls, err := h.db.ListProviderCalls(r.Context(), vesselID, limit, offset)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to list provider calls")
		respondError(w, http.StatusInternalServerError, "failed to list provider calls")
		return
	}
	if calls == nil {
		calls = []*models.ProviderCall{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"calls": calls})
}
