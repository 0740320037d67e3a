// seatimed - Automated Sea-Time Detection for Mariner Certification
// Copyright 2026 Harborlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborlog/seatimed

// Command seatimed runs the sea-time detection engine: a supervised
// scheduler polling an AIS provider per vessel, a movement analyzer
// deriving creditable sea time, and an HTTP API for review.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/harborlog/seatimed/internal/ais"
	"github.com/harborlog/seatimed/internal/api"
	"github.com/harborlog/seatimed/internal/config"
	"github.com/harborlog/seatimed/internal/database"
	"github.com/harborlog/seatimed/internal/logging"
	"github.com/harborlog/seatimed/internal/models"
	"github.com/harborlog/seatimed/internal/movement"
	"github.com/harborlog/seatimed/internal/scheduler"
	"github.com/harborlog/seatimed/internal/seatime"
	"github.com/harborlog/seatimed/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().Msg("Starting seatimed")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Warn().Err(err).Msg("Database close failed")
		}
	}()

	// Context cancelled on SIGINT/SIGTERM drives graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := buildScheduler(cfg, db)

	tree := supervisor.NewTree(logging.NewSlogLogger(logging.Logger()), supervisor.DefaultTreeConfig())
	tree.AddEngineService(sched)
	tree.AddEngineService(supervisor.NewAuditCleanup(
		db,
		time.Duration(cfg.Audit.RetentionDays)*24*time.Hour,
		cfg.Audit.CleanupInterval,
	))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(db, cfg).Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}
	tree.AddAPIService(supervisor.NewHTTPService(server))

	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received")
	case err := <-errCh:
		if err != nil && ctx.Err() == nil {
			logging.Error().Err(err).Msg("Supervisor tree stopped unexpectedly")
		}
	}

	cancel()

	// Wait for the tree to finish winding down, then report stragglers.
	select {
	case <-errCh:
	case <-time.After(15 * time.Second):
	}
	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within timeout")
		}
	}

	logging.Info().Msg("seatimed stopped")
}

// buildScheduler wires the polling pipeline. When no AIS API key is
// configured the engine must still come up for review and API traffic:
// the misconfiguration is logged once here and due position checks
// become quiet no-ops instead of per-tick handler failures.
func buildScheduler(cfg *config.Config, db *database.DB) *scheduler.Scheduler {
	sched := scheduler.New(db, cfg.Scheduler.TickInterval, logging.Logger())

	if !cfg.PollingEnabled() {
		logging.Error().Msg("AIS_API_KEY not set: position polling disabled, API remains available")
		sched.Register(models.TaskKindPositionCheck, func(context.Context, *models.ScheduledTask) error {
			return nil
		})
		return sched
	}

	client := ais.NewClient(&cfg.AIS)
	fetcher := ais.NewFetcher(ais.NewBreakerClient(client), db, cfg.AIS.MovingSpeedKnots)
	analyzer := movement.NewAnalyzer(db, cfg.Movement.LookbackWindow, cfg.Movement.ThresholdDegrees)
	notifier := seatime.NewWebhookNotifier(cfg.Notify.WebhookURL, cfg.Notify.Headers, cfg.Notify.RateLimit)
	manager := seatime.NewManager(db, notifier, seatime.DayStartIn(cfg.DayLocation()), cfg.SeaTime.MinCreditableHours)

	check := scheduler.NewPositionCheck(db, db, fetcher, analyzer, manager)
	sched.Register(models.TaskKindPositionCheck, check.Handle)

	return sched
}
