package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/cashdrawer/drawer"
	"github.com/warp/cashdrawer/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var (
	day      = drawer.NewDate(2025, time.March, 10)
	openedAt = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
)

func session(id string, owner drawer.OwnerID) drawer.Session {
	return drawer.Session{
		ID:           drawer.SessionID(id),
		Date:         day,
		OwnerID:      owner,
		OwnerName:    "Ana",
		OpeningFloat: decimal.RequireFromString("1000.00"),
		OpenedAt:     openedAt,
		Status:       drawer.StatusOpen,
	}
}

func TestSQLite_SessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.InsertOpenSession(ctx, session("s-1", "op-1")))

	got, err := s.Session(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, day, got.Date)
	assert.Equal(t, drawer.OwnerID("op-1"), got.OwnerID)
	assert.True(t, got.OpeningFloat.Equal(decimal.NewFromInt(1000)))
	assert.True(t, got.OpenedAt.Equal(openedAt))
	assert.Nil(t, got.ClosedAt)
	assert.Nil(t, got.DeclaredCash)
	assert.True(t, got.IsOpen())

	_, err = s.Session(ctx, "missing")
	assert.ErrorIs(t, err, drawer.ErrSessionNotFound)
}

func TestSQLite_PartialIndexRejectsSecondOpen(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.InsertOpenSession(ctx, session("s-1", "op-1")))
	err := s.InsertOpenSession(ctx, session("s-2", "op-1"))
	assert.ErrorIs(t, err, drawer.ErrSessionAlreadyOpen)

	require.NoError(t, s.InsertOpenSession(ctx, session("s-3", "op-2")))

	closed := session("s-1", "op-1")
	closedAt := openedAt.Add(8 * time.Hour)
	declared := decimal.RequireFromString("1280")
	discrepancy := decimal.RequireFromString("20")
	closed.Status = drawer.StatusClosed
	closed.ClosedAt = &closedAt
	closed.DeclaredCash = &declared
	closed.Discrepancy = &discrepancy
	require.NoError(t, s.PutSession(ctx, closed))

	require.NoError(t, s.InsertOpenSession(ctx, session("s-4", "op-1")), "a closed session frees the slot")

	sessions, err := s.Sessions(ctx, drawer.SessionFilter{OwnerID: "op-1", Date: day})
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, drawer.StatusClosed, sessions[0].Status)
	require.NotNil(t, sessions[0].Discrepancy)
	assert.True(t, sessions[0].Discrepancy.Equal(discrepancy))
	assert.True(t, sessions[0].ClosedAt.Equal(closedAt))

	open, err := s.Sessions(ctx, drawer.SessionFilter{Status: drawer.StatusOpen})
	require.NoError(t, err)
	assert.Len(t, open, 2)
}

func TestSQLite_DuplicateIDIsNotAnOpenConflict(t *testing.T) {
	// GIVEN: An open session s-1 for op-1
	// WHEN: Inserting another open session reusing s-1 for a different owner
	// THEN: The id collision is a plain store error, not ErrSessionAlreadyOpen

	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.InsertOpenSession(ctx, session("s-1", "op-1")))
	err := s.InsertOpenSession(ctx, session("s-1", "op-2"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, drawer.ErrSessionAlreadyOpen)
	assert.Contains(t, err.Error(), "sessions.id")

	open, err := s.Sessions(ctx, drawer.SessionFilter{Status: drawer.StatusOpen})
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestSQLite_UpsertKeepsImmutableColumns(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.InsertOpenSession(ctx, session("s-1", "op-1")))

	tampered := session("s-1", "op-9")
	tampered.OpeningFloat = decimal.NewFromInt(5)
	require.NoError(t, s.PutSession(ctx, tampered))

	got, err := s.Session(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, drawer.OwnerID("op-1"), got.OwnerID)
	assert.True(t, got.OpeningFloat.Equal(decimal.NewFromInt(1000)))

	m := drawer.Movement{
		ID: "m-1", SessionID: "s-1", Date: day, Kind: drawer.KindIncome,
		Amount: decimal.RequireFromString("500.00"), Concept: "Sale A",
		PaymentMethod: drawer.MethodCash, RecordedAt: openedAt.Add(time.Minute),
		RecordedByID: "op-1", RecordedByName: "Ana",
	}
	require.NoError(t, s.PutMovement(ctx, m))

	amended := m
	amended.Kind = drawer.KindExpense
	amended.Amount = decimal.RequireFromString("450.00")
	amended.PaymentMethod = drawer.MethodCard
	require.NoError(t, s.PutMovement(ctx, amended))

	got2, err := s.Movement(ctx, "m-1")
	require.NoError(t, err)
	assert.Equal(t, drawer.KindIncome, got2.Kind, "kind is immutable")
	assert.True(t, got2.Amount.Equal(decimal.NewFromInt(450)))
	assert.Equal(t, drawer.MethodCard, got2.PaymentMethod)
}

func TestSQLite_MovementsOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.InsertOpenSession(ctx, session("s-1", "op-1")))
	require.NoError(t, s.InsertOpenSession(ctx, session("s-2", "op-2")))

	for i, id := range []string{"m-c", "m-a", "m-b"} {
		require.NoError(t, s.PutMovement(ctx, drawer.Movement{
			ID: drawer.MovementID(id), SessionID: "s-1", Date: day, Kind: drawer.KindIncome,
			Amount: decimal.NewFromInt(int64(i + 1)), Concept: "x", PaymentMethod: drawer.MethodCash,
			RecordedAt: openedAt,
		}))
	}
	require.NoError(t, s.PutMovement(ctx, drawer.Movement{
		ID: "m-z", SessionID: "s-2", Date: day, Kind: drawer.KindExpense,
		Amount: decimal.NewFromInt(3), Concept: "y", PaymentMethod: drawer.MethodCash,
		RecordedAt: openedAt,
	}))

	got, err := s.Movements(ctx, drawer.MovementFilter{SessionID: "s-1"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, drawer.MovementID("m-c"), got[0].ID)
	assert.Equal(t, drawer.MovementID("m-a"), got[1].ID)
	assert.Equal(t, drawer.MovementID("m-b"), got[2].ID)

	byDay, err := s.Movements(ctx, drawer.MovementFilter{Date: day})
	require.NoError(t, err)
	assert.Len(t, byDay, 4)

	_, err = s.Movement(ctx, "missing")
	assert.ErrorIs(t, err, drawer.ErrMovementNotFound)
}

func TestSQLite_EngineEndToEnd(t *testing.T) {
	// GIVEN: The scenario day recorded through the engine on SQLite
	// WHEN: Closing with a declared 1280.00
	// THEN: Discrepancy is 20.00 and the closed row survives a reload

	ctx := context.Background()
	s := newStore(t)
	e := drawer.NewEngine(s, drawer.WithClock(drawer.ClockFunc(func() time.Time { return openedAt })))

	sess, err := e.OpenSession(ctx, "op-1", "Ana", decimal.RequireFromString("1000.00"))
	require.NoError(t, err)

	_, err = e.OpenSession(ctx, "op-1", "Ana", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, drawer.ErrSessionAlreadyOpen)

	actor := drawer.Actor{ID: "op-1", Name: "Ana", Role: drawer.RoleOperator}
	inputs := []drawer.MovementInput{
		{Kind: drawer.KindIncome, Amount: decimal.RequireFromString("500.00"), Concept: "Sale A", PaymentMethod: drawer.MethodCash, RecordedBy: actor},
		{Kind: drawer.KindExpense, Amount: decimal.RequireFromString("200.00"), Concept: "Supplies", PaymentMethod: drawer.MethodCash, RecordedBy: actor},
		{Kind: drawer.KindIncome, Amount: decimal.RequireFromString("300.00"), Concept: "Sale B", PaymentMethod: drawer.MethodTransfer, RecordedBy: actor},
	}
	for _, in := range inputs {
		_, err := e.RecordMovement(ctx, sess.ID, in)
		require.NoError(t, err)
	}

	closing, err := e.CloseSession(ctx, sess.ID, decimal.RequireFromString("1280.00"))
	require.NoError(t, err)
	assert.True(t, closing.Reconciliation.Discrepancy.Equal(decimal.NewFromInt(20)))

	reloaded, err := s.Session(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, drawer.StatusClosed, reloaded.Status)
	require.NotNil(t, reloaded.DeclaredCash)
	assert.True(t, reloaded.DeclaredCash.Equal(decimal.NewFromInt(1280)))

	_, err = e.RecordMovement(ctx, sess.ID, inputs[0])
	assert.ErrorIs(t, err, drawer.ErrSessionNotOpen)
}

func TestSQLite_Reset(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.InsertOpenSession(ctx, session("s-1", "op-1")))
	require.NoError(t, s.Ping(ctx))

	require.NoError(t, s.Reset(ctx))

	all, err := s.Sessions(ctx, drawer.SessionFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}
