// Package session tracks per-user conversational state for multi-step
// flows. Each user has at most one draft; transitions are driven by
// validated input in the handlers, independent of the reminder engine.
package session

import (
	"sync"
	"time"
)

// State enumerates the steps of the reminder-creation conversation.
type State int

const (
	Idle State = iota
	AwaitingTimezone
	AwaitingEventTime
	AwaitingFrequency
	AwaitingMinutes
)

// Draft accumulates the answers collected so far for one user.
type Draft struct {
	State        State
	EventType    string
	EventTimeUTC time.Time
	Recurring    bool
}

// Manager is a concurrency-safe store of per-user drafts.
type Manager struct {
	mu     sync.Mutex
	drafts map[int64]Draft
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{drafts: make(map[int64]Draft)}
}

// Get returns the user's current draft, or a zero (Idle) draft.
func (m *Manager) Get(userID int64) Draft {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drafts[userID]
}

// Set replaces the user's draft.
func (m *Manager) Set(userID int64, d Draft) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[userID] = d
}

// Clear resets the user to Idle.
func (m *Manager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, userID)
}
