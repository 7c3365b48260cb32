package sky

import (
	"testing"
	"time"
)

func TestNextOccurrenceGeyser(t *testing.T) {
	t.Parallel()

	ref := time.Date(2024, time.January, 1, 10, 40, 0, 0, time.UTC)
	got, err := NextOccurrence(EventGeyser, ref)
	if err != nil {
		t.Fatalf("NextOccurrence: %v", err)
	}
	want := time.Date(2024, time.January, 1, 11, 35, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestNextOccurrenceProperties(t *testing.T) {
	t.Parallel()

	refs := []time.Time{
		time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.January, 1, 11, 35, 0, 0, time.UTC), // exactly on an occurrence
		time.Date(2024, time.January, 1, 11, 34, 59, 0, time.UTC),
		time.Date(2024, time.June, 15, 23, 59, 0, 0, time.UTC),
		time.Date(2024, time.December, 31, 23, 1, 0, 0, time.UTC),
	}

	for _, kind := range EventKinds() {
		spec := eventSpecs[kind]
		for _, ref := range refs {
			got, err := NextOccurrence(kind, ref)
			if err != nil {
				t.Fatalf("%s: %v", kind, err)
			}
			if !got.After(ref) {
				t.Fatalf("%s @ %s: result %s not strictly after ref", kind, ref, got)
			}
			if got.Sub(ref) > eventPeriod {
				t.Fatalf("%s @ %s: result %s more than one period away", kind, ref, got)
			}
			if got.Minute() != spec.minute {
				t.Fatalf("%s: minute = %d, want %d", kind, got.Minute(), spec.minute)
			}
			if oddHour(got.Hour()) != spec.oddHour {
				t.Fatalf("%s: hour parity wrong, got hour %d", kind, got.Hour())
			}
		}
	}
}

func TestNextOccurrenceDayRollover(t *testing.T) {
	t.Parallel()

	// 23:40 with an odd-hour event: hour 23 already passed its anchor,
	// next slot is 01:35 the following day.
	ref := time.Date(2024, time.March, 31, 23, 40, 0, 0, time.UTC)
	got, err := NextOccurrence(EventGeyser, ref)
	if err != nil {
		t.Fatalf("NextOccurrence: %v", err)
	}
	want := time.Date(2024, time.April, 1, 1, 35, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestOccurrencesForDayUTC(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	occ, err := OccurrencesForDay(EventGeyser, day, time.UTC)
	if err != nil {
		t.Fatalf("OccurrencesForDay: %v", err)
	}
	if len(occ) != 12 {
		t.Fatalf("got %d occurrences, want 12", len(occ))
	}
	for i, ts := range occ {
		if ts.Day() != 1 {
			t.Fatalf("occurrence %d on wrong day: %s", i, ts)
		}
		if i > 0 && !occ[i-1].Before(ts) {
			t.Fatalf("occurrences not ascending at %d", i)
		}
	}
	first := occ[0]
	if first.Hour() != 1 || first.Minute() != 35 {
		t.Fatalf("first occurrence = %s, want 01:35", first)
	}
}

func TestOccurrencesForDayTimezone(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("Asia/Tokyo") // UTC+9, no DST
	if err != nil {
		t.Fatalf("load tz: %v", err)
	}
	day := time.Date(2024, time.January, 1, 0, 0, 0, 0, loc)
	occ, err := OccurrencesForDay(EventGrandma, day, loc)
	if err != nil {
		t.Fatalf("OccurrencesForDay: %v", err)
	}
	if len(occ) != 12 {
		t.Fatalf("got %d occurrences, want 12", len(occ))
	}
	for _, ts := range occ {
		if ts.Location() != loc {
			t.Fatalf("occurrence not in requested zone: %s", ts)
		}
		// Even UTC hours at :05 land on odd local hours in UTC+9.
		u := ts.UTC()
		if oddHour(u.Hour()) || u.Minute() != 5 {
			t.Fatalf("occurrence %s (utc %s) off schedule", ts, u)
		}
	}
}

func TestNextDailyReset(t *testing.T) {
	t.Parallel()

	ref := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	want := time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)
	if got := NextDailyReset(ref); !got.Equal(want) {
		t.Fatalf("got %s, want %s", got, want)
	}
	// Strictly after, even at exactly midnight.
	if got := NextDailyReset(want); !got.After(want) {
		t.Fatalf("reset at midnight not strictly after: %s", got)
	}
}

func TestParseEventKind(t *testing.T) {
	t.Parallel()

	if _, err := ParseEventKind("geyser"); err != nil {
		t.Fatalf("geyser should parse: %v", err)
	}
	if _, err := ParseEventKind("volcano"); err == nil {
		t.Fatal("unknown kind must fail")
	}
}
