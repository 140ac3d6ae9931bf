/*
store.go - Ledger Store interface for sessions and movements

PURPOSE:
  Defines the boundary between the engine and persistence. The engine never
  decides storage formats and never reaches into global state; it only calls
  these methods on an injected Store.

KEY INTERFACES:
  Store:            sessions and movements, read + put
  ConditionalStore: adds an atomic "insert if no open session for owner/day"

ORDERING:
  Movements(filter) returns movements in recording order. Ties on identical
  RecordedAt timestamps keep insertion order.

NOT FOUND:
  Session(id) returns ErrSessionNotFound and Movement(id) returns
  ErrMovementNotFound. Any other error is a store failure and is surfaced as
  ErrStoreUnavailable by the engine.

IMPLEMENTATIONS:
  - drawer/store/memory.go: In-memory for testing and dev
  - store/sqlite/sqlite.go: SQLite with a partial unique index on open sessions

SEE ALSO:
  - engine.go: Uses Store
*/
package drawer

import "context"

// SessionFilter selects sessions. Zero fields match everything.
type SessionFilter struct {
	OwnerID OwnerID
	Date    Date
	Status  SessionStatus
}

func (f SessionFilter) Match(s Session) bool {
	if f.OwnerID != "" && s.OwnerID != f.OwnerID {
		return false
	}
	if !f.Date.IsZero() && s.Date != f.Date {
		return false
	}
	if f.Status != "" && s.Status != f.Status {
		return false
	}
	return true
}

// MovementFilter selects movements. Zero fields match everything.
type MovementFilter struct {
	SessionID SessionID
	Date      Date
}

func (f MovementFilter) Match(m Movement) bool {
	if f.SessionID != "" && m.SessionID != f.SessionID {
		return false
	}
	if !f.Date.IsZero() && m.Date != f.Date {
		return false
	}
	return true
}

// Store persists sessions and movements.
type Store interface {
	Sessions(ctx context.Context, filter SessionFilter) ([]Session, error)
	Session(ctx context.Context, id SessionID) (Session, error)
	PutSession(ctx context.Context, s Session) error

	Movements(ctx context.Context, filter MovementFilter) ([]Movement, error)
	Movement(ctx context.Context, id MovementID) (Movement, error)
	PutMovement(ctx context.Context, m Movement) error
}

// ConditionalStore can insert an open session atomically, failing with
// ErrSessionAlreadyOpen when an open session exists for (OwnerID, Date).
type ConditionalStore interface {
	Store
	InsertOpenSession(ctx context.Context, s Session) error
}
