// seatimed - Automated Sea-Time Detection for Mariner Certification
// Copyright 2026 Harborlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborlog/seatimed

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/harborlog/seatimed/internal/logging"
)

// HTTPService adapts an *http.Server to suture.Service so the API
// layer restarts under supervision like everything else.
type HTTPService struct {
	server *http.Server
}

// NewHTTPService wraps an HTTP server for supervision.
func NewHTTPService(server *http.Server) *HTTPService {
	return &HTTPService{server: server}
}

// Serve runs the HTTP server until the context is cancelled, then
// shuts it down gracefully.
func (s *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			logging.Warn().Err(err).Msg("HTTP server shutdown error")
		}
		<-errCh
		return ctx.Err()
	}
}

// AuditStore purges expired provider call records.
type AuditStore interface {
	DeleteProviderCallsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditCleanup periodically removes provider call audit records older
// than the retention window.
type AuditCleanup struct {
	store     AuditStore
	retention time.Duration
	interval  time.Duration
}

// NewAuditCleanup creates the retention cleanup service.
func NewAuditCleanup(store AuditStore, retention, interval time.Duration) *AuditCleanup {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &AuditCleanup{store: store, retention: retention, interval: interval}
}

// Serve runs the cleanup loop until the context is cancelled. The first
// pass runs immediately.
func (a *AuditCleanup) Serve(ctx context.Context) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.runOnce(ctx)

	for {
		select {
		case <-ticker.C:
			a.runOnce(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (a *AuditCleanup) runOnce(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-a.retention)
	purged, err := a.store.DeleteProviderCallsBefore(ctx, cutoff)
	if err != nil {
		logging.Error().Err(err).Msg("Audit cleanup failed")
		return
	}
	if purged > 0 {
		logging.Info().Int64("purged", purged).Time("cutoff", cutoff).Msg("Purged expired provider call records")
	}
}
