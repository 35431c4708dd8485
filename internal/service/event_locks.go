package service

import "sync"

// eventLocks serializes imports of the same event name within one service.
// Entries are dropped once no import holds or waits for them.
type eventLocks struct {
	mu    sync.Mutex
	locks map[string]*eventLock
}

type eventLock struct {
	sync.Mutex
	refs int
}

func newEventLocks() *eventLocks {
	return &eventLocks{locks: make(map[string]*eventLock)}
}

// lock blocks until name is free and returns the matching unlock
func (l *eventLocks) lock(name string) func() {
	l.mu.Lock()
	el, ok := l.locks[name]
	if !ok {
		el = &eventLock{}
		l.locks[name] = el
	}
	el.refs++
	l.mu.Unlock()

	el.Lock()
	return func() {
		el.Unlock()
		l.mu.Lock()
		el.refs--
		if el.refs == 0 {
			delete(l.locks, name)
		}
		l.mu.Unlock()
	}
}

func (l *eventLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
