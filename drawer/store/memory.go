// Package store provides an in-memory drawer.Store.
package store

import (
	"context"
	"sync"

	"github.com/warp/cashdrawer/drawer"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements drawer.ConditionalStore. Sessions and movements keep
// insertion order; updates replace in place.
type Memory struct {
	mu sync.RWMutex

	sessions     []drawer.Session
	sessionIndex map[drawer.SessionID]int

	movements     []drawer.Movement
	movementIndex map[drawer.MovementID]int
}

func NewMemory() *Memory {
	return &Memory{
		sessionIndex:  make(map[drawer.SessionID]int),
		movementIndex: make(map[drawer.MovementID]int),
	}
}

func (m *Memory) Sessions(_ context.Context, filter drawer.SessionFilter) ([]drawer.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []drawer.Session
	for _, s := range m.sessions {
		if filter.Match(s) {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *Memory) Session(_ context.Context, id drawer.SessionID) (drawer.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.sessionIndex[id]
	if !ok {
		return drawer.Session{}, drawer.ErrSessionNotFound
	}
	return m.sessions[i], nil
}

func (m *Memory) PutSession(_ context.Context, s drawer.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putSessionLocked(s)
	return nil
}

// InsertOpenSession adds s unless an open session exists for its owner and day.
func (m *Memory) InsertOpenSession(_ context.Context, s drawer.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	guard := drawer.SessionFilter{OwnerID: s.OwnerID, Date: s.Date, Status: drawer.StatusOpen}
	for _, existing := range m.sessions {
		if guard.Match(existing) {
			return drawer.ErrSessionAlreadyOpen
		}
	}
	m.putSessionLocked(s)
	return nil
}

func (m *Memory) putSessionLocked(s drawer.Session) {
	if i, ok := m.sessionIndex[s.ID]; ok {
		m.sessions[i] = s
		return
	}
	m.sessionIndex[s.ID] = len(m.sessions)
	m.sessions = append(m.sessions, s)
}

func (m *Memory) Movements(_ context.Context, filter drawer.MovementFilter) ([]drawer.Movement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []drawer.Movement
	for _, mv := range m.movements {
		if filter.Match(mv) {
			result = append(result, mv)
		}
	}
	return result, nil
}

func (m *Memory) Movement(_ context.Context, id drawer.MovementID) (drawer.Movement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.movementIndex[id]
	if !ok {
		return drawer.Movement{}, drawer.ErrMovementNotFound
	}
	return m.movements[i], nil
}

func (m *Memory) PutMovement(_ context.Context, mv drawer.Movement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i, ok := m.movementIndex[mv.ID]; ok {
		m.movements[i] = mv
		return nil
	}
	m.movementIndex[mv.ID] = len(m.movements)
	m.movements = append(m.movements, mv)
	return nil
}

// Reset drops every session and movement.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions = nil
	m.movements = nil
	m.sessionIndex = make(map[drawer.SessionID]int)
	m.movementIndex = make(map[drawer.MovementID]int)
	return nil
}
