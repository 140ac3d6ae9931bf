package drawer

import "sync"

// ownerLocks serializes mutating operations per owner within one process.
// Entries are reference counted and removed when no caller holds them.
type ownerLocks struct {
	mu    sync.Mutex
	locks map[OwnerID]*ownerLock
}

type ownerLock struct {
	mu   sync.Mutex
	refs int
}

func newOwnerLocks() *ownerLocks {
	return &ownerLocks{locks: make(map[OwnerID]*ownerLock)}
}

// lock blocks until the owner's lock is held and returns the release func.
func (l *ownerLocks) lock(id OwnerID) func() {
	l.mu.Lock()
	ol, ok := l.locks[id]
	if !ok {
		ol = &ownerLock{}
		l.locks[id] = ol
	}
	ol.refs++
	l.mu.Unlock()

	ol.mu.Lock()
	return func() {
		ol.mu.Unlock()
		l.mu.Lock()
		ol.refs--
		if ol.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
