package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/cashdrawer/drawer"
	"github.com/warp/cashdrawer/drawer/store"
)

var day = drawer.NewDate(2025, time.March, 10)

func openSession(id string, owner drawer.OwnerID) drawer.Session {
	return drawer.Session{
		ID:           drawer.SessionID(id),
		Date:         day,
		OwnerID:      owner,
		OwnerName:    string(owner),
		OpeningFloat: decimal.NewFromInt(100),
		OpenedAt:     time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC),
		Status:       drawer.StatusOpen,
	}
}

func TestMemory_InsertOpenSessionGuard(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	require.NoError(t, m.InsertOpenSession(ctx, openSession("s-1", "op-1")))
	err := m.InsertOpenSession(ctx, openSession("s-2", "op-1"))
	assert.ErrorIs(t, err, drawer.ErrSessionAlreadyOpen)

	require.NoError(t, m.InsertOpenSession(ctx, openSession("s-3", "op-2")), "different owner is independent")

	closed := openSession("s-1", "op-1")
	closed.Status = drawer.StatusClosed
	require.NoError(t, m.PutSession(ctx, closed))
	require.NoError(t, m.InsertOpenSession(ctx, openSession("s-4", "op-1")), "closing frees the slot")

	all, err := m.Sessions(ctx, drawer.SessionFilter{OwnerID: "op-1"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, drawer.SessionID("s-1"), all[0].ID)
	assert.Equal(t, drawer.StatusClosed, all[0].Status)
}

func TestMemory_NotFound(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	_, err := m.Session(ctx, "missing")
	assert.ErrorIs(t, err, drawer.ErrSessionNotFound)

	_, err = m.Movement(ctx, "missing")
	assert.ErrorIs(t, err, drawer.ErrMovementNotFound)
}

func TestMemory_MovementsKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	ts := time.Date(2025, time.March, 10, 10, 0, 0, 0, time.UTC)

	for _, id := range []string{"m-b", "m-a", "m-c"} {
		require.NoError(t, m.PutMovement(ctx, drawer.Movement{
			ID: drawer.MovementID(id), SessionID: "s-1", Date: day, RecordedAt: ts,
			Kind: drawer.KindIncome, Amount: decimal.NewFromInt(1),
		}))
	}

	// Amending in place does not move the row.
	require.NoError(t, m.PutMovement(ctx, drawer.Movement{
		ID: "m-b", SessionID: "s-1", Date: day, RecordedAt: ts,
		Kind: drawer.KindIncome, Amount: decimal.NewFromInt(9),
	}))

	got, err := m.Movements(ctx, drawer.MovementFilter{SessionID: "s-1"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, drawer.MovementID("m-b"), got[0].ID)
	assert.Equal(t, drawer.MovementID("m-a"), got[1].ID)
	assert.Equal(t, drawer.MovementID("m-c"), got[2].ID)
	assert.True(t, got[0].Amount.Equal(decimal.NewFromInt(9)))

	none, err := m.Movements(ctx, drawer.MovementFilter{SessionID: "s-2"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemory_Reset(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	require.NoError(t, m.InsertOpenSession(ctx, openSession("s-1", "op-1")))

	require.NoError(t, m.Reset(ctx))

	all, err := m.Sessions(ctx, drawer.SessionFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
	require.NoError(t, m.InsertOpenSession(ctx, openSession("s-1", "op-1")))
}
