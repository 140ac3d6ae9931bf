/*
engine.go - Session state machine and public operations

PURPOSE:
  The Engine is the single authority over a session's lifecycle and over
  whether a movement may be recorded. It validates input, checks state,
  writes through the injected Store and notifies the Observer.

STATES:
  Unopened (no session for owner + day) -> Open -> Closed (terminal)

  OpenSession:    Unopened -> Open
  CloseSession:   Open -> Closed   (the only path to Closed)
  RecordMovement: allowed only while Open
  AmendMovement:  allowed only while Open

CRITICAL INVARIANTS:
  1. At most one Open session per (owner, day)
  2. ID and OpeningFloat never change after open
  3. A Closed session and its movements never change
  4. A second close fails with ErrSessionNotOpen

ATOMICITY:
  Every mutating operation holds the owner's in-process lock for its whole
  check-then-act sequence. When the store is a ConditionalStore, opening also
  goes through its atomic conditional insert, which covers writers in other
  processes sharing the same database.

FAILURE MODEL:
  Validation runs before the store is touched. Store failures come back as
  ErrStoreUnavailable with the cause attached. Nothing is retried.

SEE ALSO:
  - validate.go, balance.go, reconcile.go, report.go
  - store.go: Store and ConditionalStore
*/
package drawer

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// =============================================================================
// ENGINE
// =============================================================================

type Engine struct {
	store    Store
	clock    Clock
	newID    func() string
	log      zerolog.Logger
	observer Observer
	locks    *ownerLocks
}

type Option func(*Engine)

func WithClock(c Clock) Option { return func(e *Engine) { e.clock = c } }

func WithIDGenerator(f func() string) Option { return func(e *Engine) { e.newID = f } }

func WithLogger(l zerolog.Logger) Option { return func(e *Engine) { e.log = l } }

func WithObserver(o Observer) Option { return func(e *Engine) { e.observer = o } }

func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		clock:    SystemClock{},
		newID:    uuid.NewString,
		log:      zerolog.Nop(),
		observer: NopObserver{},
		locks:    newOwnerLocks(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Closing is the result of a successful close.
type Closing struct {
	Session        Session
	Stats          Stats
	Reconciliation Reconciliation
}

// =============================================================================
// OPEN
// =============================================================================

// OpenSession opens today's session for the owner with the given float.
func (e *Engine) OpenSession(ctx context.Context, ownerID OwnerID, ownerName string, openingFloat decimal.Decimal) (Session, error) {
	ownerID = OwnerID(strings.TrimSpace(string(ownerID)))
	ownerName = strings.TrimSpace(ownerName)
	if ownerID == "" {
		return Session{}, &ValidationError{Field: "owner_id", Err: ErrMissingOwner}
	}
	if ownerName == "" {
		return Session{}, &ValidationError{Field: "owner_name", Err: ErrMissingOwner}
	}
	if err := CheckFloat(openingFloat); err != nil {
		return Session{}, err
	}

	unlock := e.locks.lock(ownerID)
	defer unlock()

	now := e.clock.Now()
	s := Session{
		ID:           SessionID(e.newID()),
		Date:         DateOf(now),
		OwnerID:      ownerID,
		OwnerName:    ownerName,
		OpeningFloat: openingFloat,
		OpenedAt:     now,
		Status:       StatusOpen,
	}

	if cs, ok := e.store.(ConditionalStore); ok {
		if err := cs.InsertOpenSession(ctx, s); err != nil {
			if errors.Is(err, ErrSessionAlreadyOpen) {
				return Session{}, e.alreadyOpen(ctx, ownerID, s.Date)
			}
			return Session{}, e.storeFailure("insert open session", err)
		}
	} else {
		existing, found, err := e.findOpen(ctx, ownerID, s.Date)
		if err != nil {
			return Session{}, err
		}
		if found {
			return Session{}, &SessionAlreadyOpenError{OwnerID: ownerID, Date: s.Date, ExistingID: existing.ID}
		}
		if err := e.store.PutSession(ctx, s); err != nil {
			return Session{}, e.storeFailure("put session", err)
		}
	}

	e.log.Info().
		Str("session_id", string(s.ID)).
		Str("owner_id", string(s.OwnerID)).
		Str("date", s.Date.String()).
		Str("opening_float", s.OpeningFloat.StringFixed(2)).
		Msg("session opened")
	e.observer.SessionOpened(s)
	return s, nil
}

func (e *Engine) alreadyOpen(ctx context.Context, ownerID OwnerID, date Date) error {
	err := &SessionAlreadyOpenError{OwnerID: ownerID, Date: date}
	if existing, found, lookupErr := e.findOpen(ctx, ownerID, date); lookupErr == nil && found {
		err.ExistingID = existing.ID
	}
	return err
}

func (e *Engine) findOpen(ctx context.Context, ownerID OwnerID, date Date) (Session, bool, error) {
	sessions, err := e.store.Sessions(ctx, SessionFilter{OwnerID: ownerID, Date: date, Status: StatusOpen})
	if err != nil {
		return Session{}, false, e.storeFailure("list sessions", err)
	}
	if len(sessions) == 0 {
		return Session{}, false, nil
	}
	return sessions[0], true, nil
}

// =============================================================================
// MOVEMENTS
// =============================================================================

// RecordMovement validates in and appends it to an open session.
func (e *Engine) RecordMovement(ctx context.Context, sessionID SessionID, in MovementInput) (Movement, error) {
	valid, err := ValidateMovement(in)
	if err != nil {
		return Movement{}, err
	}

	s, unlock, err := e.lockOpenSession(ctx, sessionID)
	if err != nil {
		return Movement{}, err
	}
	defer unlock()

	by := valid.RecordedBy
	if by.ID == "" {
		by = Actor{ID: s.OwnerID, Name: s.OwnerName}
	}

	now := e.clock.Now()
	m := Movement{
		ID:             MovementID(e.newID()),
		SessionID:      s.ID,
		Date:           DateOf(now),
		Kind:           valid.Kind,
		Amount:         valid.Amount,
		Concept:        valid.Concept,
		PaymentMethod:  valid.PaymentMethod,
		Observations:   valid.Observations,
		RecordedAt:     now,
		RecordedByID:   by.ID,
		RecordedByName: by.Name,
	}
	if err := e.store.PutMovement(ctx, m); err != nil {
		return Movement{}, e.storeFailure("put movement", err)
	}

	e.log.Debug().
		Str("session_id", string(s.ID)).
		Str("movement_id", string(m.ID)).
		Str("kind", string(m.Kind)).
		Str("method", string(m.PaymentMethod)).
		Str("amount", m.Amount.StringFixed(2)).
		Msg("movement recorded")
	e.observer.MovementRecorded(m)
	return m, nil
}

// AmendMovement replaces fields of a movement while its session is open.
func (e *Engine) AmendMovement(ctx context.Context, movementID MovementID, patch MovementPatch) (Movement, error) {
	p, err := ValidatePatch(patch)
	if err != nil {
		return Movement{}, err
	}

	m, err := e.store.Movement(ctx, movementID)
	if err != nil {
		return Movement{}, e.storeFailure("get movement", err)
	}

	s, unlock, err := e.lockOpenSession(ctx, m.SessionID)
	if err != nil {
		return Movement{}, err
	}
	defer unlock()

	// Re-read under the lock so a concurrent amend is not lost.
	m, err = e.store.Movement(ctx, movementID)
	if err != nil {
		return Movement{}, e.storeFailure("get movement", err)
	}
	if p.IsEmpty() {
		return m, nil
	}

	updated := p.Apply(m)
	if err := e.store.PutMovement(ctx, updated); err != nil {
		return Movement{}, e.storeFailure("put movement", err)
	}

	e.log.Info().
		Str("session_id", string(s.ID)).
		Str("movement_id", string(updated.ID)).
		Msg("movement amended")
	e.observer.MovementAmended(updated)
	return updated, nil
}

// lockOpenSession takes the owner's lock and returns the session only if it
// is still open once the lock is held.
func (e *Engine) lockOpenSession(ctx context.Context, id SessionID) (Session, func(), error) {
	s, err := e.store.Session(ctx, id)
	if err != nil {
		return Session{}, nil, e.storeFailure("get session", err)
	}

	unlock := e.locks.lock(s.OwnerID)
	s, err = e.store.Session(ctx, id)
	if err != nil {
		unlock()
		return Session{}, nil, e.storeFailure("get session", err)
	}
	if !s.IsOpen() {
		unlock()
		return Session{}, nil, &SessionNotOpenError{SessionID: s.ID, Status: s.Status}
	}
	return s, unlock, nil
}

// =============================================================================
// CLOSE
// =============================================================================

// CloseSession reconciles the declared cash count and closes the session.
// A discrepancy beyond Tolerance is returned as data and logged, not as an error.
func (e *Engine) CloseSession(ctx context.Context, id SessionID, declaredCash decimal.Decimal) (Closing, error) {
	if err := CheckDeclared(declaredCash); err != nil {
		return Closing{}, err
	}

	s, unlock, err := e.lockOpenSession(ctx, id)
	if err != nil {
		return Closing{}, err
	}
	defer unlock()

	movements, err := e.store.Movements(ctx, MovementFilter{SessionID: id})
	if err != nil {
		return Closing{}, e.storeFailure("list movements", err)
	}

	stats := Aggregate(s.OpeningFloat, movements)
	rec := Reconcile(stats.CashBalance, declaredCash)

	now := e.clock.Now()
	declared := rec.DeclaredCash
	discrepancy := rec.Discrepancy
	s.ClosedAt = &now
	s.Status = StatusClosed
	s.DeclaredCash = &declared
	s.Discrepancy = &discrepancy

	if err := e.store.PutSession(ctx, s); err != nil {
		return Closing{}, e.storeFailure("put session", err)
	}

	ev := e.log.Info()
	if rec.Flagged() {
		ev = e.log.Warn()
	}
	ev.Str("session_id", string(s.ID)).
		Str("owner_id", string(s.OwnerID)).
		Str("cash_balance", rec.CashBalance.StringFixed(2)).
		Str("declared", rec.DeclaredCash.StringFixed(2)).
		Str("discrepancy", rec.Discrepancy.StringFixed(2)).
		Str("outcome", string(rec.Outcome)).
		Msg("session closed")
	e.observer.SessionClosed(s, rec)

	return Closing{Session: s, Stats: stats, Reconciliation: rec}, nil
}

// =============================================================================
// READS
// =============================================================================

func (e *Engine) Session(ctx context.Context, id SessionID) (Session, error) {
	s, err := e.store.Session(ctx, id)
	if err != nil {
		return Session{}, e.storeFailure("get session", err)
	}
	return s, nil
}

func (e *Engine) Sessions(ctx context.Context, filter SessionFilter) ([]Session, error) {
	sessions, err := e.store.Sessions(ctx, filter)
	if err != nil {
		return nil, e.storeFailure("list sessions", err)
	}
	return sessions, nil
}

// CurrentSession returns the owner's open session for today.
func (e *Engine) CurrentSession(ctx context.Context, ownerID OwnerID) (Session, error) {
	s, found, err := e.findOpen(ctx, ownerID, DateOf(e.clock.Now()))
	if err != nil {
		return Session{}, err
	}
	if !found {
		return Session{}, ErrSessionNotFound
	}
	return s, nil
}

// Movements returns a session's movements in recording order.
func (e *Engine) Movements(ctx context.Context, id SessionID) ([]Movement, error) {
	if _, err := e.Session(ctx, id); err != nil {
		return nil, err
	}
	movements, err := e.store.Movements(ctx, MovementFilter{SessionID: id})
	if err != nil {
		return nil, e.storeFailure("list movements", err)
	}
	return movements, nil
}

// Stats recomputes a session's live stats. Works for open and closed sessions.
func (e *Engine) Stats(ctx context.Context, id SessionID) (Stats, error) {
	s, err := e.Session(ctx, id)
	if err != nil {
		return Stats{}, err
	}
	movements, err := e.store.Movements(ctx, MovementFilter{SessionID: id})
	if err != nil {
		return Stats{}, e.storeFailure("list movements", err)
	}
	return Aggregate(s.OpeningFloat, movements), nil
}

// DailyReport builds a report for the query. Operators may only see their own
// sessions; an empty OwnerID from an operator means their own.
func (e *Engine) DailyReport(ctx context.Context, actor Actor, q ReportQuery) (Report, error) {
	if !actor.IsSupervisor() {
		if actor.ID == "" {
			return Report{}, ErrForbidden
		}
		if q.OwnerID == "" {
			q.OwnerID = actor.ID
		}
		if q.OwnerID != actor.ID {
			return Report{}, ErrForbidden
		}
	}

	sessions, err := e.Sessions(ctx, SessionFilter{OwnerID: q.OwnerID, Date: q.Date})
	if err != nil {
		return Report{}, err
	}

	var movements []Movement
	for _, s := range sessions {
		ms, err := e.store.Movements(ctx, MovementFilter{SessionID: s.ID})
		if err != nil {
			return Report{}, e.storeFailure("list movements", err)
		}
		movements = append(movements, ms...)
	}

	r := BuildReport(sessions, movements)
	r.Query = q
	r.GeneratedAt = e.clock.Now()
	return r, nil
}

func (e *Engine) storeFailure(op string, err error) error {
	wrapped := storeErr(op, err)
	if errors.Is(wrapped, ErrStoreUnavailable) {
		e.log.Error().Err(err).Str("op", op).Msg("store failure")
	}
	return wrapped
}
