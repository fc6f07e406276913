package ads

import (
	"sync"
	"time"
)

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

// Session holds the session-wide single-flight guard and the session start
// time used for the preroll window
type Session struct {
	mu      sync.Mutex
	showing bool
	started time.Time
	now     Clock
}

// NewSession starts a session clock at now(). A nil clock uses time.Now.
func NewSession(now Clock) *Session {
	if now == nil {
		now = time.Now
	}
	return &Session{started: now(), now: now}
}

// TryAcquire takes the guard. It returns false if an ad is already in flight.
func (s *Session) TryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.showing {
		return false
	}
	s.showing = true
	return true
}

// Release frees the guard
func (s *Session) Release() {
	s.mu.Lock()
	s.showing = false
	s.mu.Unlock()
}

// IsShowing reports whether an ad is in flight
func (s *Session) IsShowing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.showing
}

// Elapsed returns the time since the session started
func (s *Session) Elapsed() time.Duration {
	return s.now().Sub(s.started)
}
