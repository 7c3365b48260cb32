package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()

	clock := clockwork.NewFakeClockAt(time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC))
	s, err := New(nil, clock)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestScheduleOnceReplacesById(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)
	noop := func(context.Context) {}
	runAt := s.clock.Now().Add(time.Hour)

	if err := s.ScheduleOnce(1, runAt, noop); err != nil {
		t.Fatalf("ScheduleOnce: %v", err)
	}
	if err := s.ScheduleOnce(1, runAt.Add(time.Hour), noop); err != nil {
		t.Fatalf("ScheduleOnce replace: %v", err)
	}

	ids := s.JobIDs()
	if len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("job ids = %v, want [1]", ids)
	}
}

func TestCancel(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)
	noop := func(context.Context) {}

	if err := s.ScheduleOnce(7, s.clock.Now().Add(time.Hour), noop); err != nil {
		t.Fatalf("ScheduleOnce: %v", err)
	}
	s.Cancel(7)
	if ids := s.JobIDs(); len(ids) != 0 {
		t.Fatalf("job ids = %v after cancel, want none", ids)
	}

	// Cancelling an unknown ID is a no-op.
	s.Cancel(999)
}

func TestJobIDsTracksDistinctJobs(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)
	noop := func(context.Context) {}
	runAt := s.clock.Now().Add(time.Hour)

	for id := int64(1); id <= 3; id++ {
		if err := s.ScheduleOnce(id, runAt, noop); err != nil {
			t.Fatalf("ScheduleOnce(%d): %v", id, err)
		}
	}
	if got := len(s.JobIDs()); got != 3 {
		t.Fatalf("armed jobs = %d, want 3", got)
	}
}
