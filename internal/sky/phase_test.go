package sky

import (
	"testing"
	"time"
)

func utcDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPhaseForCycleStart(t *testing.T) {
	t.Parallel()

	got := PhaseFor(utcDate(2022, time.November, 14))
	if got.Phase != 0 {
		t.Fatalf("phase = %d, want 0", got.Phase)
	}
	if got.RestDay {
		t.Fatal("cycle start must not be a rest day")
	}
	if got.Realm != "Prairie" || got.Area != "Village" || got.Shard != ShardBlack {
		t.Fatalf("got %s/%s/%s, want Prairie/Village/black", got.Realm, got.Area, got.Shard)
	}
	if got.CandleValue != 200 {
		t.Fatalf("candle value = %v, want 200", got.CandleValue)
	}
	if got.Approximate {
		t.Fatal("table-backed phase must not be approximate")
	}
}

func TestPhaseForPeriodicity(t *testing.T) {
	t.Parallel()

	// One full cycle after the start lands on phase 0 again.
	later := PhaseFor(utcDate(2023, time.March, 6))
	if later.Phase != 0 {
		t.Fatalf("2023-03-06 phase = %d, want 0", later.Phase)
	}

	// phase_for(d) == phase_for(d + cycle) across a whole cycle.
	base := utcDate(2024, time.February, 1)
	for i := 0; i < CycleLength; i++ {
		d := base.AddDate(0, 0, i)
		a := PhaseFor(d)
		b := PhaseFor(d.AddDate(0, 0, CycleLength))
		if a != b {
			t.Fatalf("day %s: %+v != %+v", d.Format("2006-01-02"), a, b)
		}
	}
}

func TestPhaseForIdempotent(t *testing.T) {
	t.Parallel()

	d := utcDate(2024, time.June, 10)
	if PhaseFor(d) != PhaseFor(d) {
		t.Fatal("PhaseFor is not deterministic")
	}

	// Time of day must not matter.
	noon := time.Date(2024, time.June, 10, 12, 30, 0, 0, time.UTC)
	if PhaseFor(d) != PhaseFor(noon) {
		t.Fatal("PhaseFor depends on time of day")
	}
}

func TestPhaseForRestDayOrLocation(t *testing.T) {
	t.Parallel()

	base := utcDate(2022, time.November, 14)
	restDays := 0
	for i := 0; i < CycleLength; i++ {
		st := PhaseFor(base.AddDate(0, 0, i))
		hasLocation := st.Realm != "" && st.Area != "" && st.Shard != ""
		if st.RestDay == hasLocation {
			t.Fatalf("phase %d: rest=%v location=%v, want exactly one", st.Phase, st.RestDay, hasLocation)
		}
		if st.RestDay {
			restDays++
			if st.CandleValue != 0 {
				t.Fatalf("phase %d: rest day with candle value %v", st.Phase, st.CandleValue)
			}
		}
	}
	if restDays != 3 {
		t.Fatalf("rest days per cycle = %d, want 3", restDays)
	}
}

func TestPhaseIndexBeforeCycleStart(t *testing.T) {
	t.Parallel()

	idx := PhaseIndex(utcDate(2022, time.November, 13))
	if idx != CycleLength-1 {
		t.Fatalf("day before cycle start: index = %d, want %d", idx, CycleLength-1)
	}
}

func TestFallbackShardType(t *testing.T) {
	t.Parallel()

	// The fallback only knows a 16-phase parity pattern: first half black,
	// second half red. Tested apart from the table; it is approximate.
	for p := 0; p < 16; p++ {
		want := ShardBlack
		if p >= 8 {
			want = ShardRed
		}
		if got := fallbackShardType(p); got != want {
			t.Fatalf("fallbackShardType(%d) = %s, want %s", p, got, want)
		}
		if got := fallbackShardType(p + 16); got != fallbackShardType(p) {
			t.Fatalf("fallback not periodic at %d", p)
		}
	}
}

func TestCandleValues(t *testing.T) {
	t.Parallel()

	if candleValue(ShardBlack) == candleValue(ShardRed) {
		t.Fatal("shard colours must have distinct candle values")
	}
}
