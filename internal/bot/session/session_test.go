package session

import (
	"testing"
	"time"
)

func TestDraftLifecycle(t *testing.T) {
	t.Parallel()

	m := NewManager()

	if got := m.Get(1); got.State != Idle {
		t.Fatalf("fresh user state = %v, want Idle", got.State)
	}

	eventAt := time.Date(2024, time.January, 1, 11, 35, 0, 0, time.UTC)
	m.Set(1, Draft{State: AwaitingFrequency, EventType: "geyser", EventTimeUTC: eventAt})

	got := m.Get(1)
	if got.State != AwaitingFrequency || got.EventType != "geyser" || !got.EventTimeUTC.Equal(eventAt) {
		t.Fatalf("draft = %+v", got)
	}

	// Drafts are isolated per user.
	if other := m.Get(2); other.State != Idle {
		t.Fatalf("other user state = %v, want Idle", other.State)
	}

	m.Clear(1)
	if got := m.Get(1); got.State != Idle || got.EventType != "" {
		t.Fatalf("cleared draft = %+v", got)
	}
}
