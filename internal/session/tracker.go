// Package session tracks the transient "awaiting input" expectation for each
// actor. State lives only in process memory; the durable store remains the
// source of truth for payment status, so loss on restart is acceptable.
package session

import "sync"

// Expectation names the kind of follow-up input an actor is expected to send.
type Expectation string

const (
	// AwaitingScreenshot means the actor should upload a payment screenshot.
	AwaitingScreenshot Expectation = "awaiting_screenshot"
	// AwaitingCredentials means the administrator should send a two-line
	// username/password pair for the target actor.
	AwaitingCredentials Expectation = "awaiting_credentials"
)

// Session is one actor's live expectation together with its correlation
// payload. AttemptID is set for AwaitingScreenshot, TargetID for
// AwaitingCredentials.
type Session struct {
	Expectation Expectation
	AttemptID   int64
	TargetID    int64
}

// Tracker maps actor ids to their live session. Set replaces any prior
// session for the actor without merging; at most one session exists per key.
type Tracker interface {
	Get(actorID int64) (Session, bool)
	Set(actorID int64, s Session)
	Clear(actorID int64)
}

type memoryTracker struct {
	mu       sync.RWMutex
	sessions map[int64]Session
}

// NewMemoryTracker constructs the in-process Tracker implementation.
func NewMemoryTracker() Tracker {
	return &memoryTracker{sessions: make(map[int64]Session)}
}

// Get returns the live session for an actor if one exists.
func (m *memoryTracker) Get(actorID int64) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[actorID]
	return s, ok
}

// Set stores a session for an actor, superseding any previous one.
func (m *memoryTracker) Set(actorID int64, s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[actorID] = s
}

// Clear removes the actor's session if present.
func (m *memoryTracker) Clear(actorID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, actorID)
}
