package service

import "sync"

// sessionLocks serializes engine operations per event session. Every
// operation reads and conditionally mutates session state, so concurrent
// calls against the same session would race on the transition guard.
// Different sessions share nothing and proceed in parallel.
//
// Entries are refcounted and removed once the last holder releases, so
// the map only holds sessions with an operation in flight.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sessionLock)}
}

// acquire locks the named session and returns its release func.
func (l *sessionLocks) acquire(id string) func() {
	l.mu.Lock()
	lock, ok := l.locks[id]
	if !ok {
		lock = &sessionLock{}
		l.locks[id] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()

		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
