// Package scheduler wraps gocron to provide one-shot timer jobs keyed by
// reminder ID. The job set here is a cache of "what to do next": it is
// always rebuildable from the reminder store, and rescheduling under an
// existing ID replaces the previous job.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Scheduler manages one-shot jobs using the gocron library.
type Scheduler struct {
	scheduler gocron.Scheduler
	clock     clockwork.Clock
	logger    *slog.Logger

	mu      sync.Mutex
	jobs    map[int64]uuid.UUID
	running bool
}

// New creates a new scheduler instance using gocron, driven by the given
// clock so tests can fake time.
func New(logger *slog.Logger, clock clockwork.Clock) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	s, err := gocron.NewScheduler(gocron.WithClock(clock))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		clock:     clock,
		logger:    logger.With("component", "scheduler"),
		jobs:      make(map[int64]uuid.UUID),
	}, nil
}

// Start begins the scheduler's internal ticking. Jobs may be registered
// before or after Start.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.scheduler.Start()
	s.running = true
	s.logger.Info("Scheduler started")
}

// Stop gracefully stops the scheduler, waiting for running jobs to complete.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	err := s.scheduler.Shutdown()
	s.running = false
	if err != nil {
		s.logger.Error("Error during scheduler shutdown", "error", err)
		return err
	}
	s.logger.Info("Scheduler stopped")
	return nil
}

// ScheduleOnce arms a one-shot job for jobID at runAt. An existing job with
// the same ID is cancelled first, so re-scheduling is an idempotent replace.
// A runAt at or before now runs the task immediately.
func (s *Scheduler) ScheduleOnce(jobID int64, runAt time.Time, task func(ctx context.Context)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.jobs[jobID]; ok {
		if err := s.scheduler.RemoveJob(old); err != nil {
			s.logger.Debug("Previous job already gone on replace", "job_id", jobID, "error", err)
		}
		delete(s.jobs, jobID)
	}

	startAt := gocron.OneTimeJobStartDateTime(runAt)
	if !runAt.After(s.clock.Now()) {
		startAt = gocron.OneTimeJobStartImmediately()
	}

	var jobUUID uuid.UUID
	job, err := s.scheduler.NewJob(
		gocron.OneTimeJob(startAt),
		gocron.NewTask(
			func(ctx context.Context) {
				start := s.clock.Now()
				task(ctx)
				s.logger.Debug("Job finished", "job_id", jobID, "duration", s.clock.Since(start))
				s.forget(jobID, &jobUUID)
			},
			context.Background(),
		),
		gocron.WithName(fmt.Sprintf("reminder-%d", jobID)),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule job %d: %w", jobID, err)
	}

	jobUUID = job.ID()
	s.jobs[jobID] = jobUUID
	s.logger.Debug("Job armed", "job_id", jobID, "run_at", runAt)
	return nil
}

// Cancel removes the job with the given ID if present.
func (s *Scheduler) Cancel(jobID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.jobs[jobID]
	if !ok {
		return
	}
	if err := s.scheduler.RemoveJob(id); err != nil {
		s.logger.Debug("Job already gone on cancel", "job_id", jobID, "error", err)
	}
	delete(s.jobs, jobID)
	s.logger.Debug("Job cancelled", "job_id", jobID)
}

// JobIDs returns the IDs of all currently armed jobs.
func (s *Scheduler) JobIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.jobs))
	for id := range s.jobs {
		ids = append(ids, id)
	}
	return ids
}

// forget drops the bookkeeping entry after a job has run, unless the ID was
// re-armed with a new job in the meantime (recurring reminders do that from
// inside the firing callback). The uuid is read behind the mutex because it
// is assigned after the closure is registered.
func (s *Scheduler) forget(jobID int64, jobUUID *uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.jobs[jobID]; ok && current == *jobUUID {
		delete(s.jobs, jobID)
	}
}
