// seatimed - Automated Sea-Time Detection for Mariner Certification
// Copyright 2026 Harborlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborlog/seatimed

package scheduler

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/harborlog/seatimed/internal/logging"
	"github.com/harborlog/seatimed/internal/models"
)

type taskRun struct {
	taskID    string
	ranAt     time.Time
	nextRunAt time.Time
}

type mockTaskStore struct {
	mu    sync.Mutex
	due   []*models.ScheduledTask
	runs  []taskRun
	err   error
	block chan struct{} // when set, GetTasksDue blocks until closed
}

func (m *mockTaskStore) GetTasksDue(_ context.Context, _ time.Time) ([]*models.ScheduledTask, error) {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.due, m.err
}

func (m *mockTaskStore) MarkTaskRun(_ context.Context, taskID string, ranAt, nextRunAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, taskRun{taskID: taskID, ranAt: ranAt, nextRunAt: nextRunAt})
	return nil
}

func (m *mockTaskStore) runCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.runs)
}

func task(id, vesselID string, intervalHours float64) *models.ScheduledTask {
	return &models.ScheduledTask{
		ID: id, VesselID: vesselID, Kind: models.TaskKindPositionCheck,
		IntervalHours: intervalHours, NextRunAt: time.Now().UTC().Add(-time.Minute), Active: true,
	}
}

func newTestScheduler(store TaskStore) *Scheduler {
	return New(store, time.Minute, logging.NewTestLogger(io.Discard))
}

func TestTickRunsDueTasksAndReschedules(t *testing.T) {
	store := &mockTaskStore{due: []*models.ScheduledTask{task("t-1", "v-1", 6)}}
	s := newTestScheduler(store)

	var handled []string
	s.Register(models.TaskKindPositionCheck, func(_ context.Context, tk *models.ScheduledTask) error {
		handled = append(handled, tk.ID)
		return nil
	})

	now := time.Now().UTC().Truncate(time.Second)
	s.Tick(context.Background(), now)

	if len(handled) != 1 || handled[0] != "t-1" {
		t.Errorf("handled = %v, want [t-1]", handled)
	}
	if store.runCount() != 1 {
		t.Fatalf("runs = %d, want 1", store.runCount())
	}
	run := store.runs[0]
	if !run.ranAt.Equal(now) {
		t.Errorf("ranAt = %v, want %v", run.ranAt, now)
	}
	if want := now.Add(6 * time.Hour); !run.nextRunAt.Equal(want) {
		t.Errorf("nextRunAt = %v, want %v (run time plus interval)", run.nextRunAt, want)
	}
}

func TestTickReschedulesOnHandlerFailure(t *testing.T) {
	store := &mockTaskStore{due: []*models.ScheduledTask{task("t-1", "v-1", 2)}}
	s := newTestScheduler(store)
	s.Register(models.TaskKindPositionCheck, func(_ context.Context, _ *models.ScheduledTask) error {
		return errors.New("provider down")
	})

	now := time.Now().UTC()
	s.Tick(context.Background(), now)

	if store.runCount() != 1 {
		t.Fatalf("failed task must still be rescheduled, runs = %d", store.runCount())
	}
	if want := now.Add(2 * time.Hour); !store.runs[0].nextRunAt.Equal(want) {
		t.Errorf("nextRunAt = %v, want %v", store.runs[0].nextRunAt, want)
	}
}

func TestTickIsolatesTaskFailures(t *testing.T) {
	store := &mockTaskStore{due: []*models.ScheduledTask{
		task("t-1", "v-1", 6),
		task("t-2", "v-2", 6),
		task("t-3", "v-3", 6),
	}}
	s := newTestScheduler(store)

	var handled []string
	s.Register(models.TaskKindPositionCheck, func(_ context.Context, tk *models.ScheduledTask) error {
		handled = append(handled, tk.ID)
		if tk.ID == "t-2" {
			panic("boom")
		}
		return nil
	})

	s.Tick(context.Background(), time.Now().UTC())

	if len(handled) != 3 {
		t.Errorf("all tasks should run despite the panic, handled = %v", handled)
	}
	if store.runCount() != 3 {
		t.Errorf("all tasks should be rescheduled, runs = %d", store.runCount())
	}
}

func TestTickSkipsWhenAlreadyRunning(t *testing.T) {
	block := make(chan struct{})
	store := &mockTaskStore{block: block}
	s := newTestScheduler(store)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Tick(context.Background(), time.Now().UTC())
	}()

	// Wait for the first tick to take the guard.
	for !s.ticking.Load() {
		time.Sleep(time.Millisecond)
	}

	// Second tick must return immediately as a no-op.
	done := make(chan struct{})
	go func() {
		s.Tick(context.Background(), time.Now().UTC())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("concurrent tick should return immediately")
	}

	close(block)
	wg.Wait()
}

func TestTickUnregisteredKindStillReschedules(t *testing.T) {
	store := &mockTaskStore{due: []*models.ScheduledTask{
		{ID: "t-1", VesselID: "v-1", Kind: models.TaskKind("unknown"), IntervalHours: 1, Active: true},
	}}
	s := newTestScheduler(store)

	s.Tick(context.Background(), time.Now().UTC())

	if store.runCount() != 1 {
		t.Errorf("task with unknown kind should still advance, runs = %d", store.runCount())
	}
}
