package gate

import (
	"sync"
)

// NoDeferral is the sentinel value indicating no version has been deferred.
const NoDeferral int64 = -1

// Session holds per-process update session state. It lives for the lifetime
// of the daemon and is passed explicitly into Evaluate rather than being a
// package-level singleton.
type Session struct {
	mu       sync.Mutex
	deferred int64
}

// NewSession returns a fresh session with no deferred version.
func NewSession() *Session {
	return &Session{deferred: NoDeferral}
}

// Defer records that the user dismissed or deferred the prompt for the given
// version code.
func (s *Session) Defer(versionCode int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deferred = versionCode
}

// Clear resets the deferral, typically after the user accepts an update.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deferred = NoDeferral
}

// Deferred returns the currently deferred version code, or NoDeferral.
func (s *Session) Deferred() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deferred
}
