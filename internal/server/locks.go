package server

import "sync"

// sessionLocks serializes all mutating operations on the same session so a
// round advance racing a clue reveal or a warrant submission cannot corrupt
// the reveal mark or the first-submission-counts invariant. Different
// sessions never contend. Entries are never evicted; a lock is a few words
// and sessions are bounded per deployment.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the session's mutex and returns its unlock function.
func (l *sessionLocks) lock(sessionID string) func() {
	l.mu.Lock()
	m, ok := l.locks[sessionID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[sessionID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
