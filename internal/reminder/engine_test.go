package reminder

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/chen-fu-rong/skyclock-bot/internal/database"
)

// fakeStore is an in-memory database.Store.
type fakeStore struct {
	users     map[int64]*database.User
	reminders map[int64]*database.Reminder
	nextID    int64
	failReads bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     make(map[int64]*database.User),
		reminders: make(map[int64]*database.Reminder),
		nextID:    1,
	}
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func (f *fakeStore) GetUser(_ context.Context, id int64) (*database.User, error) {
	if u, ok := f.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeStore) UpsertUser(_ context.Context, u *database.User) error {
	copied := *u
	f.users[u.ID] = &copied
	return nil
}

func (f *fakeStore) TouchLastSeen(_ context.Context, id int64, at time.Time) error {
	if u, ok := f.users[id]; ok {
		u.LastSeenAt = at
	}
	return nil
}

func (f *fakeStore) CreateReminder(_ context.Context, r *database.Reminder) error {
	r.ID = f.nextID
	f.nextID++
	copied := *r
	f.reminders[r.ID] = &copied
	return nil
}

func (f *fakeStore) GetReminder(_ context.Context, id int64) (*database.Reminder, error) {
	if f.failReads {
		return nil, errors.New("boom")
	}
	if r, ok := f.reminders[id]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeStore) ListReminders(_ context.Context, userID int64) ([]database.Reminder, error) {
	var out []database.Reminder
	for _, r := range f.reminders {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteReminder(_ context.Context, id, ownerID int64) (bool, error) {
	if r, ok := f.reminders[id]; ok && r.UserID == ownerID {
		delete(f.reminders, id)
		return true, nil
	}
	return false, nil
}

func (f *fakeStore) DeleteReminderAny(_ context.Context, id int64) (bool, error) {
	if _, ok := f.reminders[id]; ok {
		delete(f.reminders, id)
		return true, nil
	}
	return false, nil
}

func (f *fakeStore) UpdateReminderEventTime(_ context.Context, id int64, eventUTC, triggerUTC time.Time) error {
	r, ok := f.reminders[id]
	if !ok {
		return fmt.Errorf("reminder %d not found", id)
	}
	r.EventTimeUTC = eventUTC
	r.TriggerAtUTC = triggerUTC
	return nil
}

func (f *fakeStore) GetDueOrPendingReminders(_ context.Context, asOf time.Time, grace time.Duration) ([]database.Reminder, error) {
	cutoff := asOf.Add(-grace)
	var out []database.Reminder
	for _, r := range f.reminders {
		if r.TriggerAtUTC.After(cutoff) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteRemindersBefore(_ context.Context, cutoff time.Time) ([]database.Reminder, error) {
	var dropped []database.Reminder
	for id, r := range f.reminders {
		if !r.TriggerAtUTC.After(cutoff) {
			dropped = append(dropped, *r)
			delete(f.reminders, id)
		}
	}
	return dropped, nil
}

func (f *fakeStore) Counts(context.Context) (int64, int64, error) {
	return int64(len(f.users)), int64(len(f.reminders)), nil
}

// fakeScheduler records armed jobs; runAt at or before now runs the task
// synchronously, matching the real scheduler's immediate-start path.
type fakeScheduler struct {
	clock clockwork.Clock
	jobs  map[int64]time.Time
}

func newFakeScheduler(clock clockwork.Clock) *fakeScheduler {
	return &fakeScheduler{clock: clock, jobs: make(map[int64]time.Time)}
}

func (f *fakeScheduler) ScheduleOnce(jobID int64, runAt time.Time, task func(ctx context.Context)) error {
	if !runAt.After(f.clock.Now()) {
		task(context.Background())
		return nil
	}
	f.jobs[jobID] = runAt
	return nil
}

func (f *fakeScheduler) Cancel(jobID int64) { delete(f.jobs, jobID) }

func (f *fakeScheduler) JobIDs() []int64 {
	ids := make([]int64, 0, len(f.jobs))
	for id := range f.jobs {
		ids = append(ids, id)
	}
	return ids
}

// fakeNotifier records deliveries and can be told to fail.
type fakeNotifier struct {
	sent []string
	fail bool
}

func (f *fakeNotifier) SendMessage(_ context.Context, _ int64, text string) error {
	if f.fail {
		return errors.New("telegram unavailable")
	}
	f.sent = append(f.sent, text)
	return nil
}

type fixture struct {
	store    *fakeStore
	sched    *fakeScheduler
	notifier *fakeNotifier
	clock    *clockwork.FakeClock
	engine   *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := clockwork.NewFakeClockAt(time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC))
	store := newFakeStore()
	sched := newFakeScheduler(clock)
	notifier := &fakeNotifier{}
	engine := NewEngine(store, sched, NewDispatcher(notifier, nil), clock, nil,
		Options{GraceWindow: 15 * time.Minute, MaxLeadMinutes: 1440})

	store.users[1] = &database.User{ID: 1, Timezone: "UTC", TimeFormat: "24h"}
	return &fixture{store: store, sched: sched, notifier: notifier, clock: clock, engine: engine}
}

func (fx *fixture) user() *database.User { return fx.store.users[1] }

func TestCreateValidation(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()
	eventAt := fx.clock.Now().Add(2 * time.Hour)

	cases := []struct {
		name string
		user *database.User
		lead int
	}{
		{"zero lead", fx.user(), 0},
		{"negative lead", fx.user(), -5},
		{"lead above cap", fx.user(), 1441},
		{"no timezone", &database.User{ID: 2}, 10},
		{"nil user", nil, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fx.engine.Create(ctx, tc.user, "geyser", eventAt, tc.lead, false)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}

	if len(fx.store.reminders) != 0 || len(fx.sched.jobs) != 0 {
		t.Fatal("failed validation must not leave state behind")
	}
}

func TestCreateArmsJob(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	eventAt := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)

	rec, err := fx.engine.Create(context.Background(), fx.user(), "geyser", eventAt, 10, true)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !rec.EventTimeUTC.Equal(eventAt) {
		t.Fatalf("event time = %s, want %s", rec.EventTimeUTC, eventAt)
	}
	wantTrigger := eventAt.Add(-10 * time.Minute)
	if !rec.TriggerAtUTC.Equal(wantTrigger) {
		t.Fatalf("trigger = %s, want %s", rec.TriggerAtUTC, wantTrigger)
	}
	if got, ok := fx.sched.jobs[rec.ID]; !ok || !got.Equal(wantTrigger) {
		t.Fatalf("armed job = %v (ok=%v), want %s", got, ok, wantTrigger)
	}
}

func TestCreateRollsPastTimeToTomorrow(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	// 09:00 is already past the fixture's 10:00 now.
	eventAt := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)

	rec, err := fx.engine.Create(context.Background(), fx.user(), "grandma", eventAt, 5, false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	want := time.Date(2024, time.January, 2, 9, 0, 0, 0, time.UTC)
	if !rec.EventTimeUTC.Equal(want) {
		t.Fatalf("event time = %s, want rolled to %s", rec.EventTimeUTC, want)
	}
}

func TestFireOneShotDeletesRowAndJob(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	eventAt := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	rec, err := fx.engine.Create(context.Background(), fx.user(), "geyser", eventAt, 10, false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	delete(fx.sched.jobs, rec.ID) // scheduler consumed the job
	fx.engine.Fire(context.Background(), rec.ID)

	if len(fx.notifier.sent) != 1 {
		t.Fatalf("sent = %d messages, want 1", len(fx.notifier.sent))
	}
	if len(fx.store.reminders) != 0 {
		t.Fatal("one-shot reminder row must be deleted after delivery")
	}
	if len(fx.sched.jobs) != 0 {
		t.Fatal("no job may remain for a completed one-shot")
	}
}

func TestFireRecurringAdvances24h(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	eventAt := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	rec, err := fx.engine.Create(context.Background(), fx.user(), "geyser", eventAt, 10, true)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	delete(fx.sched.jobs, rec.ID)
	fx.engine.Fire(context.Background(), rec.ID)

	stored := fx.store.reminders[rec.ID]
	if stored == nil {
		t.Fatal("recurring reminder row must survive the fire")
	}
	wantEvent := time.Date(2024, time.January, 2, 12, 0, 0, 0, time.UTC)
	if !stored.EventTimeUTC.Equal(wantEvent) {
		t.Fatalf("event time = %s, want %s", stored.EventTimeUTC, wantEvent)
	}
	wantTrigger := time.Date(2024, time.January, 2, 11, 50, 0, 0, time.UTC)
	if got, ok := fx.sched.jobs[rec.ID]; !ok || !got.Equal(wantTrigger) {
		t.Fatalf("re-armed job = %v (ok=%v), want %s", got, ok, wantTrigger)
	}

	// Second fire advances another day; still exactly one row and one job.
	delete(fx.sched.jobs, rec.ID)
	fx.engine.Fire(context.Background(), rec.ID)
	stored = fx.store.reminders[rec.ID]
	if !stored.EventTimeUTC.Equal(wantEvent.Add(24 * time.Hour)) {
		t.Fatalf("event time after second fire = %s", stored.EventTimeUTC)
	}
	if len(fx.store.reminders) != 1 || len(fx.sched.jobs) != 1 {
		t.Fatalf("rows=%d jobs=%d, want 1/1", len(fx.store.reminders), len(fx.sched.jobs))
	}
}

func TestFireMissingRowSkips(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.engine.Fire(context.Background(), 404)
	if len(fx.notifier.sent) != 0 {
		t.Fatal("firing a deleted reminder must not notify")
	}
}

func TestFireDeliveryFailureKeepsRow(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	eventAt := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	rec, err := fx.engine.Create(context.Background(), fx.user(), "turtle", eventAt, 10, true)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	delete(fx.sched.jobs, rec.ID)
	fx.notifier.fail = true
	fx.engine.Fire(context.Background(), rec.ID)

	stored := fx.store.reminders[rec.ID]
	if stored == nil {
		t.Fatal("row must be retained after delivery failure")
	}
	if !stored.EventTimeUTC.Equal(eventAt) {
		t.Fatal("event time must not advance on delivery failure")
	}
	if len(fx.sched.jobs) != 0 {
		t.Fatal("no retry job may be armed after delivery failure")
	}
}

func TestCancel(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	eventAt := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	rec, err := fx.engine.Create(context.Background(), fx.user(), "geyser", eventAt, 10, false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Foreign owner.
	if err := fx.engine.Cancel(context.Background(), rec.ID, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign cancel err = %v, want ErrNotFound", err)
	}
	if len(fx.store.reminders) != 1 {
		t.Fatal("foreign cancel must not delete the row")
	}

	if err := fx.engine.Cancel(context.Background(), rec.ID, 1); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if len(fx.store.reminders) != 0 || len(fx.sched.jobs) != 0 {
		t.Fatal("cancel must remove row and job")
	}

	// Unknown ID.
	if err := fx.engine.Cancel(context.Background(), 12345, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown cancel err = %v, want ErrNotFound", err)
	}
}

func TestReloadAllPending(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	now := fx.clock.Now()
	ctx := context.Background()

	mk := func(trigger time.Time, recurring bool) *database.Reminder {
		rec := &database.Reminder{
			UserID:       1,
			EventType:    "geyser",
			EventTimeUTC: trigger.Add(10 * time.Minute),
			LeadMinutes:  10,
			TriggerAtUTC: trigger,
			Recurring:    recurring,
		}
		if err := fx.store.CreateReminder(ctx, rec); err != nil {
			t.Fatalf("CreateReminder: %v", err)
		}
		return rec
	}

	future := mk(now.Add(time.Hour), false)
	inGrace := mk(now.Add(-3*time.Minute), false) // fires immediately
	stale := mk(now.Add(-48*time.Hour), false)    // dropped with a warning

	if err := fx.engine.ReloadAllPending(ctx); err != nil {
		t.Fatalf("ReloadAllPending: %v", err)
	}

	if _, ok := fx.sched.jobs[future.ID]; !ok {
		t.Fatal("future reminder must be re-armed")
	}
	if len(fx.notifier.sent) != 1 {
		t.Fatalf("in-grace reminder should fire immediately, sent=%d", len(fx.notifier.sent))
	}
	if _, ok := fx.store.reminders[inGrace.ID]; ok {
		t.Fatal("fired one-shot must be deleted")
	}
	if _, ok := fx.store.reminders[stale.ID]; ok {
		t.Fatal("stale reminder must be dropped")
	}
	if _, ok := fx.sched.jobs[stale.ID]; ok {
		t.Fatal("stale reminder must not be armed")
	}
}
