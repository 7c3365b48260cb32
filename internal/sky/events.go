package sky

import (
	"errors"
	"fmt"
	"time"
)

// EventKind identifies a recurring wax event.
type EventKind string

const (
	EventGeyser  EventKind = "geyser"
	EventGrandma EventKind = "grandma"
	EventTurtle  EventKind = "turtle"
)

// ErrUnknownEvent is returned for event kinds without a schedule entry.
var ErrUnknownEvent = errors.New("unknown event kind")

// eventPeriod is the cadence shared by all wax events.
const eventPeriod = 2 * time.Hour

// eventSpec pins an event to a minute-of-hour anchor and an hour parity.
type eventSpec struct {
	minute  int
	oddHour bool
}

var eventSpecs = map[EventKind]eventSpec{
	EventGeyser:  {minute: 35, oddHour: true},
	EventGrandma: {minute: 5, oddHour: false},
	EventTurtle:  {minute: 50, oddHour: false},
}

// EventKinds lists the known wax events in a stable order.
func EventKinds() []EventKind {
	return []EventKind{EventGeyser, EventGrandma, EventTurtle}
}

// ParseEventKind validates a user-supplied event name.
func ParseEventKind(s string) (EventKind, error) {
	kind := EventKind(s)
	if _, ok := eventSpecs[kind]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownEvent, s)
	}
	return kind, nil
}

// NextOccurrence returns the first occurrence of the event strictly after
// ref. The result is always within one cadence period of ref. All math is
// done in UTC; callers convert for display only. Computing in local time
// would drift across DST transitions.
func NextOccurrence(kind EventKind, ref time.Time) (time.Time, error) {
	spec, ok := eventSpecs[kind]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownEvent, kind)
	}

	ref = ref.UTC()
	hour := ref.Hour()
	if oddHour(hour) != spec.oddHour {
		hour++
	}

	// time.Date normalizes hour 24 into the next day.
	next := time.Date(ref.Year(), ref.Month(), ref.Day(), hour, spec.minute, 0, 0, time.UTC)
	if !next.After(ref) {
		next = next.Add(eventPeriod)
	}
	return next, nil
}

// OccurrencesForDay lists every occurrence of the event that falls on the
// given calendar day in loc, ascending, expressed in loc. A 2-hour cadence
// yields 12 entries on a normal day (one more or fewer across a DST shift).
func OccurrencesForDay(kind EventKind, date time.Time, loc *time.Location) ([]time.Time, error) {
	if _, ok := eventSpecs[kind]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, kind)
	}
	if loc == nil {
		loc = time.UTC
	}

	local := date.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	var out []time.Time
	cursor := midnight.Add(-time.Nanosecond)
	for {
		next, err := NextOccurrence(kind, cursor)
		if err != nil {
			return nil, err
		}
		lt := next.In(loc)
		if lt.Year() != midnight.Year() || lt.Month() != midnight.Month() || lt.Day() != midnight.Day() {
			if len(out) > 0 {
				break
			}
			// Haven't reached the day yet (loc is ahead of UTC); keep going.
			if lt.After(midnight.Add(48 * time.Hour)) {
				break
			}
		} else {
			out = append(out, lt)
		}
		cursor = next
	}
	return out, nil
}

// NextDailyReset returns the next 00:00 UTC strictly after ref.
func NextDailyReset(ref time.Time) time.Time {
	ref = ref.UTC()
	next := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return next
}

func oddHour(h int) bool { return h%2 == 1 }
