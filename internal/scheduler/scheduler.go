// seatimed - Automated Sea-Time Detection for Mariner Certification
// Copyright 2026 Harborlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborlog/seatimed

// Package scheduler runs per-vessel polling tasks on a fixed tick.
//
// Every tick the scheduler loads the due task set and executes each
// task sequentially. A tick that starts while the previous one is still
// running is skipped, and a task is always rescheduled after a run,
// successful or not, so one bad vessel cannot wedge the schedule.
//
// The scheduler integrates with the supervisor tree via Serve.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/harborlog/seatimed/internal/metrics"
	"github.com/harborlog/seatimed/internal/models"
)

// Handler executes one task kind. Handlers must be safe for sequential
// reuse across ticks.
type Handler func(ctx context.Context, task *models.ScheduledTask) error

// TaskStore defines the database operations required by the scheduler.
type TaskStore interface {
	GetTasksDue(ctx context.Context, now time.Time) ([]*models.ScheduledTask, error)
	MarkTaskRun(ctx context.Context, taskID string, ranAt, nextRunAt time.Time) error
}

// Scheduler polls the task store and dispatches due tasks to handlers.
type Scheduler struct {
	store        TaskStore
	tickInterval time.Duration
	logger       zerolog.Logger

	mu       sync.Mutex
	handlers map[models.TaskKind]Handler

	// ticking guards against overlapping ticks.
	ticking atomic.Bool
}

// New creates a scheduler with the given tick interval.
func New(store TaskStore, tickInterval time.Duration, logger zerolog.Logger) *Scheduler {
	if tickInterval <= 0 {
		tickInterval = time.Minute
	}
	return &Scheduler{
		store:        store,
		tickInterval: tickInterval,
		logger:       logger.With().Str("component", "scheduler").Logger(),
		handlers:     make(map[models.TaskKind]Handler),
	}
}

// Register binds a handler to a task kind. Tasks with no registered
// handler are rescheduled without running.
func (s *Scheduler) Register(kind models.TaskKind, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[kind] = h
}

// Serve runs the scheduler loop until the context is cancelled. It
// implements suture.Service; the first tick fires immediately.
func (s *Scheduler) Serve(ctx context.Context) error {
	s.logger.Info().Dur("tick_interval", s.tickInterval).Msg("Starting scheduler")

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	s.Tick(ctx, time.Now().UTC())

	for {
		select {
		case <-ticker.C:
			s.Tick(ctx, time.Now().UTC())
		case <-ctx.Done():
			s.logger.Info().Msg("Scheduler stopped")
			return ctx.Err()
		}
	}
}

// Tick runs one scheduling pass: load the due set and execute each task.
// A tick entered while another is in flight returns immediately.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	if !s.ticking.CompareAndSwap(false, true) {
		metrics.SchedulerTicksSkipped.Inc()
		s.logger.Warn().Msg("Previous tick still running, skipping")
		return
	}
	defer s.ticking.Store(false)

	start := time.Now()
	defer metrics.ObserveTick(start)

	tasks, err := s.store.GetTasksDue(ctx, now)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load due tasks")
		return
	}
	metrics.SchedulerTasksDue.Set(float64(len(tasks)))

	if len(tasks) == 0 {
		s.logger.Debug().Msg("No tasks due")
		return
	}
	s.logger.Info().Int("count", len(tasks)).Msg("Executing due tasks")

	for _, task := range tasks {
		if ctx.Err() != nil {
			return
		}
		s.runTask(ctx, task, now)
	}
}

// runTask executes a single task and reschedules it. The task advances
// whether the handler succeeded, failed, or panicked: next_run_at is
// computed from this run's time plus the task interval.
func (s *Scheduler) runTask(ctx context.Context, task *models.ScheduledTask, now time.Time) {
	logger := s.logger.With().
		Str("task_id", task.ID).
		Str("vessel_id", task.VesselID).
		Str("kind", string(task.Kind)).
		Logger()

	if err := s.dispatch(ctx, task); err != nil {
		metrics.SchedulerTaskFailures.WithLabelValues(string(task.Kind)).Inc()
		logger.Error().Err(err).Msg("Task execution failed")
	}

	nextRunAt := now.Add(task.Interval())
	if err := s.store.MarkTaskRun(ctx, task.ID, now, nextRunAt); err != nil {
		logger.Error().Err(err).Msg("Failed to reschedule task")
		return
	}
	logger.Debug().Time("next_run_at", nextRunAt).Msg("Task rescheduled")
}

// dispatch invokes the handler for a task, converting panics into
// errors so one vessel's failure never aborts the tick.
func (s *Scheduler) dispatch(ctx context.Context, task *models.ScheduledTask) (err error) {
	s.mu.Lock()
	handler, ok := s.handlers[task.Kind]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("no handler registered for task kind %q", task.Kind)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task handler panicked: %v", r)
		}
	}()
	return handler(ctx, task)
}
