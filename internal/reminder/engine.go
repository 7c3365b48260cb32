// Package reminder implements the reminder lifecycle: creating and
// cancelling reminders, firing them when due, rescheduling recurring ones,
// and recovering pending rows after a restart. The store is the single
// source of truth; armed jobs are a rebuildable cache.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/chen-fu-rong/skyclock-bot/internal/database"
)

// eventPeriod is how far a recurring reminder advances after each fire.
const eventPeriod = 24 * time.Hour

// JobScheduler is the timer capability the engine arms callbacks with.
// Scheduling under an existing job ID must replace the previous job.
type JobScheduler interface {
	ScheduleOnce(jobID int64, runAt time.Time, task func(ctx context.Context)) error
	Cancel(jobID int64)
	JobIDs() []int64
}

// Options tune engine behavior.
type Options struct {
	// GraceWindow bounds how far past-due a reminder may be at reload time
	// and still fire instead of being dropped.
	GraceWindow time.Duration

	// MaxLeadMinutes caps the lead a user can request.
	MaxLeadMinutes int
}

// Engine orchestrates the reminder lifecycle against the store, scheduler,
// and dispatcher.
type Engine struct {
	store      database.Store
	sched      JobScheduler
	dispatcher *Dispatcher
	clock      clockwork.Clock
	logger     *slog.Logger
	opts       Options

	mu    sync.Mutex
	locks map[int64]*sync.Mutex // per-reminder fire/cancel serialization
}

// NewEngine creates an engine. All dependencies are explicit; there is no
// ambient global state.
func NewEngine(
	store database.Store,
	sched JobScheduler,
	dispatcher *Dispatcher,
	clock clockwork.Clock,
	logger *slog.Logger,
	opts Options,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if opts.GraceWindow <= 0 {
		opts.GraceWindow = 15 * time.Minute
	}
	if opts.MaxLeadMinutes <= 0 {
		opts.MaxLeadMinutes = 1440
	}
	return &Engine{
		store:      store,
		sched:      sched,
		dispatcher: dispatcher,
		clock:      clock,
		logger:     logger.With("component", "reminder_engine"),
		opts:       opts,
		locks:      make(map[int64]*sync.Mutex),
	}
}

// Create validates and persists a reminder for the user and arms its job.
// localEventTime is interpreted in the user's timezone; if the instant has
// already passed it rolls to the next day.
func (e *Engine) Create(
	ctx context.Context,
	user *database.User,
	eventType string,
	localEventTime time.Time,
	leadMinutes int,
	recurring bool,
) (*database.Reminder, error) {
	if user == nil {
		return nil, fmt.Errorf("%w: unknown user", ErrValidation)
	}
	if user.Timezone == "" {
		return nil, fmt.Errorf("%w: timezone not set", ErrValidation)
	}
	if leadMinutes <= 0 || leadMinutes > e.opts.MaxLeadMinutes {
		return nil, fmt.Errorf("%w: lead minutes must be between 1 and %d", ErrValidation, e.opts.MaxLeadMinutes)
	}

	now := e.clock.Now()
	eventAt := localEventTime
	if !eventAt.After(now) {
		eventAt = eventAt.Add(eventPeriod)
	}
	eventUTC := eventAt.UTC()
	triggerUTC := eventUTC.Add(-time.Duration(leadMinutes) * time.Minute)

	rec := &database.Reminder{
		UserID:       user.ID,
		EventType:    eventType,
		EventTimeUTC: eventUTC,
		LeadMinutes:  leadMinutes,
		TriggerAtUTC: triggerUTC,
		Recurring:    recurring,
		CreatedAt:    now.UTC(),
	}
	if err := e.store.CreateReminder(ctx, rec); err != nil {
		// Job stays unarmed so scheduler and store cannot diverge.
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if err := e.armJob(rec.ID, triggerUTC); err != nil {
		e.logger.ErrorContext(ctx, "Failed to arm job for new reminder",
			"reminder_id", rec.ID, "error", err)
		if _, delErr := e.store.DeleteReminderAny(ctx, rec.ID); delErr != nil {
			e.logger.ErrorContext(ctx, "Failed to roll back reminder row", "reminder_id", rec.ID, "error", delErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	e.logger.InfoContext(ctx, "Reminder created",
		"reminder_id", rec.ID,
		"user_id", user.ID,
		"event_type", eventType,
		"event_time_utc", eventUTC,
		"trigger_at_utc", triggerUTC,
		"recurring", recurring)
	return rec, nil
}

// Cancel deletes the reminder and disarms its job. Returns ErrNotFound when
// the row is missing or belongs to another user. Safe to call concurrently
// with a pending fire: an in-flight fire completes and the cancel becomes a
// no-op.
func (e *Engine) Cancel(ctx context.Context, reminderID, ownerID int64) error {
	deleted, err := e.store.DeleteReminder(ctx, reminderID, ownerID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if !deleted {
		return fmt.Errorf("%w: id %d", ErrNotFound, reminderID)
	}
	e.sched.Cancel(reminderID)
	e.logger.InfoContext(ctx, "Reminder cancelled", "reminder_id", reminderID, "user_id", ownerID)
	return nil
}

// Fire runs when a reminder's trigger time arrives. A missing row means the
// reminder was cancelled between arming and firing; that is skipped with a
// warning (double-fire protection is "row absent, skip").
func (e *Engine) Fire(ctx context.Context, reminderID int64) {
	lock := e.lockFor(reminderID)
	lock.Lock()
	defer lock.Unlock()

	rec, err := e.store.GetReminder(ctx, reminderID)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to load reminder at fire time", "reminder_id", reminderID, "error", err)
		return
	}
	if rec == nil {
		e.logger.WarnContext(ctx, "Reminder fired but row is gone, skipping", "reminder_id", reminderID)
		return
	}

	if !e.dispatcher.Send(ctx, rec.UserID, e.formatNotification(ctx, rec)) {
		// Failed delivery: keep the row for inspection, do not retry.
		e.logger.WarnContext(ctx, "Notification delivery failed, reminder retained",
			"reminder_id", reminderID, "user_id", rec.UserID)
		return
	}

	if !rec.Recurring {
		if _, err := e.store.DeleteReminderAny(ctx, reminderID); err != nil {
			e.logger.ErrorContext(ctx, "Failed to delete fired one-shot reminder",
				"reminder_id", reminderID, "error", err)
		}
		e.logger.InfoContext(ctx, "Reminder completed", "reminder_id", reminderID, "user_id", rec.UserID)
		return
	}

	nextEvent := rec.EventTimeUTC.Add(eventPeriod)
	nextTrigger := nextEvent.Add(-time.Duration(rec.LeadMinutes) * time.Minute)
	if err := e.store.UpdateReminderEventTime(ctx, reminderID, nextEvent, nextTrigger); err != nil {
		// Not re-armed: a stale armed job without a matching row is worse
		// than a missed occurrence, which reload will recover.
		e.logger.ErrorContext(ctx, "Failed to advance recurring reminder",
			"reminder_id", reminderID, "error", err)
		return
	}
	if err := e.armJob(reminderID, nextTrigger); err != nil {
		e.logger.ErrorContext(ctx, "Failed to re-arm recurring reminder",
			"reminder_id", reminderID, "error", err)
		return
	}
	e.logger.InfoContext(ctx, "Recurring reminder rescheduled",
		"reminder_id", reminderID, "next_trigger_utc", nextTrigger)
}

// ReloadAllPending rebuilds the armed job set from the store. It runs once
// at process start. Rows past-due within the grace window are fired
// immediately; older rows are dropped with a warning. A failure on one row
// does not abort the rest.
func (e *Engine) ReloadAllPending(ctx context.Context) error {
	now := e.clock.Now().UTC()

	dropped, err := e.store.DeleteRemindersBefore(ctx, now.Add(-e.opts.GraceWindow))
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to clean up stale reminders", "error", err)
	}
	for _, rec := range dropped {
		e.logger.WarnContext(ctx, "Dropping reminder missed beyond grace window",
			"reminder_id", rec.ID,
			"user_id", rec.UserID,
			"trigger_at_utc", rec.TriggerAtUTC,
			"overdue", now.Sub(rec.TriggerAtUTC))
	}

	pending, err := e.store.GetDueOrPendingReminders(ctx, now, e.opts.GraceWindow)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	armed := 0
	for _, rec := range pending {
		if err := e.armJob(rec.ID, rec.TriggerAtUTC); err != nil {
			e.logger.ErrorContext(ctx, "Failed to re-arm reminder on reload",
				"reminder_id", rec.ID, "error", err)
			continue
		}
		armed++
	}

	e.logger.InfoContext(ctx, "Pending reminders reloaded",
		"armed", armed, "dropped_stale", len(dropped))
	return nil
}

// ArmedJobs reports how many jobs the scheduler currently holds.
func (e *Engine) ArmedJobs() int {
	return len(e.sched.JobIDs())
}

func (e *Engine) armJob(reminderID int64, triggerUTC time.Time) error {
	return e.sched.ScheduleOnce(reminderID, triggerUTC, func(ctx context.Context) {
		e.Fire(ctx, reminderID)
	})
}

// formatNotification renders the message text in the user's timezone and
// clock format. Falls back to UTC/24h when the user row is unavailable.
func (e *Engine) formatNotification(ctx context.Context, rec *database.Reminder) string {
	loc := time.UTC
	format := "24h"
	if user, err := e.store.GetUser(ctx, rec.UserID); err == nil && user != nil {
		loc = user.Location()
		format = user.TimeFormat
	}

	eventLocal := rec.EventTimeUTC.In(loc)
	layout := "15:04"
	if format == "12h" {
		layout = "3:04 PM"
	}
	return fmt.Sprintf("⏰ %s starts at %s (in %d min)",
		rec.EventType, eventLocal.Format(layout), rec.LeadMinutes)
}

func (e *Engine) lockFor(reminderID int64) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[reminderID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[reminderID] = lock
	}
	return lock
}
