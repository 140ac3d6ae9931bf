/*
Package sqlite provides a SQLite-backed implementation of drawer.Store.

PURPOSE:
  Durable storage for drawer sessions and movements. Implements
  drawer.ConditionalStore so the "one open session per owner and day" rule
  holds even across processes sharing the database file.

KEY TABLES:
  sessions:  one row per drawer-day
  movements: one row per income/expense, FK to sessions

INDEXES:
  - idx_one_open_session: partial UNIQUE(owner_id, date) WHERE status = 'open'.
    This is the conditional insert: a second open row for the same key
    violates the index and is reported as drawer.ErrSessionAlreadyOpen.
  - idx_movements_session: movement lookups per session (hot path)
  - idx_sessions_owner_date: session lookups by owner and day

ORDERING:
  Both tables carry an AUTOINCREMENT seq column. Reads order by seq, so
  movements come back in recording order and ties keep insertion order.

IMMUTABLE COLUMNS:
  Upserts never touch id, owner_id, date, opening_float or opened_at on
  sessions, nor session_id or kind on movements.

MONEY:
  decimal.Decimal values are stored as TEXT through its driver.Valuer and
  read back through sql.Scanner, so no float rounding happens on the way.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety and a single connection, which also
  keeps ":memory:" databases alive for the lifetime of the Store.

USAGE:
  store, err := sqlite.New("./cashdrawer.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := drawer.NewEngine(store)

SEE ALSO:
  - drawer/store.go: Interface definitions
  - drawer/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/cashdrawer/drawer"
)

const timeLayout = time.RFC3339Nano

// Store implements drawer.ConditionalStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		date TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		owner_name TEXT NOT NULL,
		opening_float TEXT NOT NULL,
		opened_at TEXT NOT NULL,
		closed_at TEXT,
		status TEXT NOT NULL,
		declared_cash TEXT,
		discrepancy TEXT
	);

	-- At most one open session per owner and day
	CREATE UNIQUE INDEX IF NOT EXISTS idx_one_open_session
		ON sessions(owner_id, date)
		WHERE status = 'open';

	CREATE INDEX IF NOT EXISTS idx_sessions_owner_date
		ON sessions(owner_id, date);

	CREATE TABLE IF NOT EXISTS movements (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		session_id TEXT NOT NULL REFERENCES sessions(id),
		date TEXT NOT NULL,
		kind TEXT NOT NULL,
		amount TEXT NOT NULL,
		concept TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		observations TEXT NOT NULL DEFAULT '',
		recorded_at TEXT NOT NULL,
		recorded_by_id TEXT NOT NULL,
		recorded_by_name TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_movements_session
		ON movements(session_id);
	CREATE INDEX IF NOT EXISTS idx_movements_date
		ON movements(date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Reset deletes every movement and session.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM movements"); err != nil {
		return fmt.Errorf("failed to reset movements: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions"); err != nil {
		return fmt.Errorf("failed to reset sessions: %w", err)
	}
	return nil
}

// =============================================================================
// SESSIONS
// =============================================================================

const sessionColumns = `id, date, owner_id, owner_name, opening_float, opened_at,
	closed_at, status, declared_cash, discrepancy`

// InsertOpenSession inserts s, relying on idx_one_open_session to reject a
// second open session for the same owner and day.
func (s *Store) InsertOpenSession(ctx context.Context, sess drawer.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `INSERT INTO sessions (` + sessionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, sessionArgs(sess)...)
	if err != nil {
		if isOpenSessionConflict(err) {
			return drawer.ErrSessionAlreadyOpen
		}
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// PutSession inserts or updates a session. Only the close fields and the
// owner name are updated on conflict.
func (s *Store) PutSession(ctx context.Context, sess drawer.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_name = excluded.owner_name,
			closed_at = excluded.closed_at,
			status = excluded.status,
			declared_cash = excluded.declared_cash,
			discrepancy = excluded.discrepancy
	`
	_, err := s.db.ExecContext(ctx, query, sessionArgs(sess)...)
	if err != nil {
		if isOpenSessionConflict(err) {
			return drawer.ErrSessionAlreadyOpen
		}
		return fmt.Errorf("failed to put session: %w", err)
	}
	return nil
}

func (s *Store) Session(ctx context.Context, id drawer.SessionID) (drawer.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return drawer.Session{}, drawer.ErrSessionNotFound
	}
	return sess, err
}

func (s *Store) Sessions(ctx context.Context, filter drawer.SessionFilter) ([]drawer.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE 1 = 1`
	var args []any
	if filter.OwnerID != "" {
		query += ` AND owner_id = ?`
		args = append(args, filter.OwnerID)
	}
	if !filter.Date.IsZero() {
		query += ` AND date = ?`
		args = append(args, filter.Date.String())
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY seq ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []drawer.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func sessionArgs(s drawer.Session) []any {
	var closedAt sql.NullString
	if s.ClosedAt != nil {
		closedAt = sql.NullString{String: s.ClosedAt.Format(timeLayout), Valid: true}
	}
	return []any{
		s.ID,
		s.Date.String(),
		s.OwnerID,
		s.OwnerName,
		s.OpeningFloat,
		s.OpenedAt.Format(timeLayout),
		closedAt,
		s.Status,
		nullDecimal(s.DeclaredCash),
		nullDecimal(s.Discrepancy),
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (drawer.Session, error) {
	var (
		sess         drawer.Session
		date         string
		openedAt     string
		closedAt     sql.NullString
		declaredCash decimal.NullDecimal
		discrepancy  decimal.NullDecimal
	)

	err := row.Scan(
		&sess.ID, &date, &sess.OwnerID, &sess.OwnerName, &sess.OpeningFloat,
		&openedAt, &closedAt, &sess.Status, &declaredCash, &discrepancy,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sess, err
		}
		return sess, fmt.Errorf("failed to scan session: %w", err)
	}

	if sess.Date, err = drawer.ParseDate(date); err != nil {
		return sess, err
	}
	if sess.OpenedAt, err = time.Parse(timeLayout, openedAt); err != nil {
		return sess, fmt.Errorf("failed to parse opened_at: %w", err)
	}
	if closedAt.Valid {
		t, err := time.Parse(timeLayout, closedAt.String)
		if err != nil {
			return sess, fmt.Errorf("failed to parse closed_at: %w", err)
		}
		sess.ClosedAt = &t
	}
	if declaredCash.Valid {
		sess.DeclaredCash = &declaredCash.Decimal
	}
	if discrepancy.Valid {
		sess.Discrepancy = &discrepancy.Decimal
	}
	return sess, nil
}

// =============================================================================
// MOVEMENTS
// =============================================================================

const movementColumns = `id, session_id, date, kind, amount, concept, payment_method,
	observations, recorded_at, recorded_by_id, recorded_by_name`

// PutMovement inserts or amends a movement. session_id and kind are never
// updated.
func (s *Store) PutMovement(ctx context.Context, m drawer.Movement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO movements (` + movementColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			amount = excluded.amount,
			concept = excluded.concept,
			payment_method = excluded.payment_method,
			observations = excluded.observations
	`
	_, err := s.db.ExecContext(ctx, query,
		m.ID,
		m.SessionID,
		m.Date.String(),
		m.Kind,
		m.Amount,
		m.Concept,
		m.PaymentMethod,
		m.Observations,
		m.RecordedAt.Format(timeLayout),
		m.RecordedByID,
		m.RecordedByName,
	)
	if err != nil {
		return fmt.Errorf("failed to put movement: %w", err)
	}
	return nil
}

func (s *Store) Movement(ctx context.Context, id drawer.MovementID) (drawer.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+movementColumns+` FROM movements WHERE id = ?`, id)
	m, err := scanMovement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return drawer.Movement{}, drawer.ErrMovementNotFound
	}
	return m, err
}

func (s *Store) Movements(ctx context.Context, filter drawer.MovementFilter) ([]drawer.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + movementColumns + ` FROM movements WHERE 1 = 1`
	var args []any
	if filter.SessionID != "" {
		query += ` AND session_id = ?`
		args = append(args, filter.SessionID)
	}
	if !filter.Date.IsZero() {
		query += ` AND date = ?`
		args = append(args, filter.Date.String())
	}
	query += ` ORDER BY seq ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query movements: %w", err)
	}
	defer rows.Close()

	var movements []drawer.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func scanMovement(row scanner) (drawer.Movement, error) {
	var (
		m          drawer.Movement
		date       string
		recordedAt string
	)

	err := row.Scan(
		&m.ID, &m.SessionID, &date, &m.Kind, &m.Amount, &m.Concept, &m.PaymentMethod,
		&m.Observations, &recordedAt, &m.RecordedByID, &m.RecordedByName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return m, err
		}
		return m, fmt.Errorf("failed to scan movement: %w", err)
	}

	if m.Date, err = drawer.ParseDate(date); err != nil {
		return m, err
	}
	if m.RecordedAt, err = time.Parse(timeLayout, recordedAt); err != nil {
		return m, fmt.Errorf("failed to parse recorded_at: %w", err)
	}
	return m, nil
}

// Helper functions

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// openSessionColumns is how SQLite names idx_one_open_session in a
// violation message ("UNIQUE constraint failed: sessions.owner_id, sessions.date").
const openSessionColumns = "sessions.owner_id, sessions.date"

// isOpenSessionConflict reports a violation of idx_one_open_session only. A
// duplicate id is a different UNIQUE failure and stays a store error.
func isOpenSessionConflict(err error) bool {
	return isUniqueConstraintError(err) && strings.Contains(err.Error(), openSessionColumns)
}
