package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for user and reminder persistence.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// GetUser retrieves a user by ID. Returns nil, nil if not found.
	GetUser(ctx context.Context, id int64) (*User, error)

	// UpsertUser inserts a user row or updates its timezone and display format.
	UpsertUser(ctx context.Context, user *User) error

	// TouchLastSeen updates the user's last-interaction timestamp.
	TouchLastSeen(ctx context.Context, id int64, at time.Time) error

	// CreateReminder inserts a reminder and sets its generated ID.
	CreateReminder(ctx context.Context, reminder *Reminder) error

	// GetReminder retrieves a reminder by ID. Returns nil, nil if not found.
	GetReminder(ctx context.Context, id int64) (*Reminder, error)

	// ListReminders returns all reminders for a user ordered by trigger time.
	ListReminders(ctx context.Context, userID int64) ([]Reminder, error)

	// DeleteReminder deletes a reminder owned by ownerID. Returns false if no
	// row matched (missing or owned by someone else).
	DeleteReminder(ctx context.Context, id, ownerID int64) (bool, error)

	// DeleteReminderAny deletes a reminder regardless of owner. Used by the
	// engine after a fired one-shot delivery.
	DeleteReminderAny(ctx context.Context, id int64) (bool, error)

	// UpdateReminderEventTime advances a recurring reminder to its next
	// occurrence.
	UpdateReminderEventTime(ctx context.Context, id int64, eventTimeUTC, triggerAtUTC time.Time) error

	// GetDueOrPendingReminders returns every reminder whose trigger time is
	// after asOf minus grace, ordered by trigger time. This covers rows that
	// are still in the future plus rows missed within the grace window.
	GetDueOrPendingReminders(ctx context.Context, asOf time.Time, grace time.Duration) ([]Reminder, error)

	// DeleteRemindersBefore deletes reminders whose trigger time is at or
	// before cutoff and returns the dropped rows so callers can report them.
	DeleteRemindersBefore(ctx context.Context, cutoff time.Time) ([]Reminder, error)

	// Counts returns the number of user and reminder rows.
	Counts(ctx context.Context) (users, reminders int64, err error)
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) GetUser(ctx context.Context, id int64) (*User, error) {
	var user User
	err := s.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		s.logger.ErrorContext(ctx, "Error fetching user", "user_id", id, "error", err)
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return &user, nil
}

func (s *sqlxStore) UpsertUser(ctx context.Context, user *User) error {
	if user == nil {
		return fmt.Errorf("cannot upsert nil user")
	}
	if user.ID == 0 {
		return fmt.Errorf("user must have a non-zero id")
	}
	if user.TimeFormat == "" {
		user.TimeFormat = "24h"
	}

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if user.LastSeenAt.IsZero() {
		user.LastSeenAt = now
	}

	query := `
        INSERT INTO users (id, timezone, time_format, last_seen_at, created_at, updated_at)
        VALUES (:id, :timezone, :time_format, :last_seen_at, :created_at, :updated_at)
        ON CONFLICT(id) DO UPDATE SET
            timezone = excluded.timezone,
            time_format = excluded.time_format,
            last_seen_at = excluded.last_seen_at,
            updated_at = excluded.updated_at;
    `
	if _, err := s.db.NamedExecContext(ctx, query, user); err != nil {
		s.logger.ErrorContext(ctx, "Error upserting user", "user_id", user.ID, "error", err)
		return fmt.Errorf("failed to upsert user %d: %w", user.ID, err)
	}
	return nil
}

func (s *sqlxStore) TouchLastSeen(ctx context.Context, id int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_seen_at = ?, updated_at = ? WHERE id = ?`,
		at.UTC(), time.Now().UTC(), id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error touching user", "user_id", id, "error", err)
		return fmt.Errorf("failed to touch user %d: %w", id, err)
	}
	return nil
}

func (s *sqlxStore) CreateReminder(ctx context.Context, reminder *Reminder) error {
	if reminder == nil {
		return fmt.Errorf("cannot create nil reminder")
	}
	if reminder.UserID == 0 {
		return fmt.Errorf("reminder must have a non-zero user_id")
	}
	if reminder.EventTimeUTC.IsZero() || reminder.TriggerAtUTC.IsZero() {
		return fmt.Errorf("reminder must have event and trigger times")
	}

	if reminder.CreatedAt.IsZero() {
		reminder.CreatedAt = time.Now().UTC()
	}
	reminder.EventTimeUTC = reminder.EventTimeUTC.UTC()
	reminder.TriggerAtUTC = reminder.TriggerAtUTC.UTC()

	query := `
        INSERT INTO reminders (user_id, event_type, event_time_utc, lead_minutes, trigger_at_utc, recurring, created_at)
        VALUES (:user_id, :event_type, :event_time_utc, :lead_minutes, :trigger_at_utc, :recurring, :created_at);
    `
	result, err := s.db.NamedExecContext(ctx, query, reminder)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error creating reminder", "user_id", reminder.UserID, "error", err)
		return fmt.Errorf("failed to create reminder (user %d): %w", reminder.UserID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after creating reminder",
			"user_id", reminder.UserID, "error", err)
		return fmt.Errorf("failed to read created reminder id: %w", err)
	}
	reminder.ID = id
	return nil
}

func (s *sqlxStore) GetReminder(ctx context.Context, id int64) (*Reminder, error) {
	var reminder Reminder
	err := s.db.GetContext(ctx, &reminder, `SELECT * FROM reminders WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		s.logger.ErrorContext(ctx, "Error fetching reminder", "reminder_id", id, "error", err)
		return nil, fmt.Errorf("failed to get reminder %d: %w", id, err)
	}
	return &reminder, nil
}

func (s *sqlxStore) ListReminders(ctx context.Context, userID int64) ([]Reminder, error) {
	var reminders []Reminder
	err := s.db.SelectContext(ctx, &reminders,
		`SELECT * FROM reminders WHERE user_id = ? ORDER BY trigger_at_utc ASC`, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error listing reminders", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list reminders for user %d: %w", userID, err)
	}
	return reminders, nil
}

func (s *sqlxStore) DeleteReminder(ctx context.Context, id, ownerID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM reminders WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting reminder", "reminder_id", id, "user_id", ownerID, "error", err)
		return false, fmt.Errorf("failed to delete reminder %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows for reminder %d: %w", id, err)
	}
	return affected > 0, nil
}

func (s *sqlxStore) DeleteReminderAny(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting reminder", "reminder_id", id, "error", err)
		return false, fmt.Errorf("failed to delete reminder %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows for reminder %d: %w", id, err)
	}
	return affected > 0, nil
}

func (s *sqlxStore) UpdateReminderEventTime(ctx context.Context, id int64, eventTimeUTC, triggerAtUTC time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET event_time_utc = ?, trigger_at_utc = ? WHERE id = ?`,
		eventTimeUTC.UTC(), triggerAtUTC.UTC(), id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error updating reminder event time", "reminder_id", id, "error", err)
		return fmt.Errorf("failed to update reminder %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for reminder %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("reminder %d not found for update", id)
	}
	return nil
}

func (s *sqlxStore) GetDueOrPendingReminders(ctx context.Context, asOf time.Time, grace time.Duration) ([]Reminder, error) {
	cutoff := asOf.UTC().Add(-grace)
	var reminders []Reminder
	err := s.db.SelectContext(ctx, &reminders,
		`SELECT * FROM reminders WHERE trigger_at_utc > ? ORDER BY trigger_at_utc ASC`, cutoff)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error fetching due or pending reminders", "error", err)
		return nil, fmt.Errorf("failed to fetch pending reminders: %w", err)
	}
	return reminders, nil
}

func (s *sqlxStore) DeleteRemindersBefore(ctx context.Context, cutoff time.Time) ([]Reminder, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
		}
	}()

	var stale []Reminder
	err = tx.SelectContext(ctx, &stale,
		`SELECT * FROM reminders WHERE trigger_at_utc <= ?`, cutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to select stale reminders: %w", err)
	}
	if len(stale) == 0 {
		return nil, nil
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM reminders WHERE trigger_at_utc <= ?`, cutoff.UTC()); err != nil {
		return nil, fmt.Errorf("failed to delete stale reminders: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit stale reminder cleanup: %w", err)
	}
	return stale, nil
}

func (s *sqlxStore) Counts(ctx context.Context) (int64, int64, error) {
	var users, reminders int64
	if err := s.db.GetContext(ctx, &users, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, 0, fmt.Errorf("failed to count users: %w", err)
	}
	if err := s.db.GetContext(ctx, &reminders, `SELECT COUNT(*) FROM reminders`); err != nil {
		return 0, 0, fmt.Errorf("failed to count reminders: %w", err)
	}
	return users, reminders, nil
}
