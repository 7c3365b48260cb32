package database

import "time"

// User is a Telegram user known to the bot. Rows are created on first
// contact and never deleted automatically.
type User struct {
	ID         int64     `db:"id"`
	Timezone   string    `db:"timezone"`    // IANA name; empty until the user sets one
	TimeFormat string    `db:"time_format"` // "12h" or "24h"
	LastSeenAt time.Time `db:"last_seen_at"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// Location resolves the user's timezone, defaulting to UTC when unset or
// invalid.
func (u *User) Location() *time.Location {
	if u.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Reminder is one pending notification. EventTimeUTC is the game-event
// instant; TriggerAtUTC is EventTimeUTC minus the lead. Both are stored so
// the due query never recomputes trigger times.
type Reminder struct {
	ID           int64     `db:"id"`
	UserID       int64     `db:"user_id"`
	EventType    string    `db:"event_type"`
	EventTimeUTC time.Time `db:"event_time_utc"`
	LeadMinutes  int       `db:"lead_minutes"`
	TriggerAtUTC time.Time `db:"trigger_at_utc"`
	Recurring    bool      `db:"recurring"`
	CreatedAt    time.Time `db:"created_at"`
}
