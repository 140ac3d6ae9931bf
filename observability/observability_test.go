package observability

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/cashdrawer/drawer"
	"github.com/warp/cashdrawer/drawer/store"
)

// ─── Metrics ────────────────────────────────────────────────────────────────

func TestMetrics_FedByEngine(t *testing.T) {
	ctx := context.Background()
	m := NewMetrics()
	now := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	e := drawer.NewEngine(store.NewMemory(),
		drawer.WithObserver(m),
		drawer.WithClock(drawer.ClockFunc(func() time.Time { return now })),
	)

	s, err := e.OpenSession(ctx, "op-1", "Ana", decimal.NewFromInt(1000))
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsOpened))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OpenSessions))

	_, err = e.RecordMovement(ctx, s.ID, drawer.MovementInput{
		Kind: drawer.KindIncome, Amount: decimal.NewFromInt(500), Concept: "Sale A",
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MovementsRecorded.WithLabelValues("income", "cash")))

	_, err = e.CloseSession(ctx, s.ID, decimal.NewFromInt(1480))
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsClosed.WithLabelValues("shortage")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.OpenSessions))

	// Validation failures are not counted.
	_, err = e.OpenSession(ctx, "op-2", "Luis", decimal.NewFromInt(-1))
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsOpened))
}

func TestMetrics_OpenGaugeSeededFromStore(t *testing.T) {
	// GIVEN: A session opened by an earlier process over the same store
	// WHEN: A fresh Metrics is seeded with SetOpen and the session is closed
	// THEN: The open gauge goes back to zero instead of below it

	ctx := context.Background()
	mem := store.NewMemory()
	before := drawer.NewEngine(mem)
	s, err := before.OpenSession(ctx, "op-1", "Ana", decimal.NewFromInt(100))
	require.NoError(t, err)

	m := NewMetrics()
	after := drawer.NewEngine(mem, drawer.WithObserver(m))
	open, err := after.Sessions(ctx, drawer.SessionFilter{Status: drawer.StatusOpen})
	require.NoError(t, err)
	m.SetOpen(open)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OpenSessions))

	_, err = after.CloseSession(ctx, s.ID, decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.OpenSessions))

	m.SetOpen(nil)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.OpenSessions))
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()
	a.SessionsOpened.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.SessionsOpened))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.SessionsOpened))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.SessionsOpened.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "cashdrawer_sessions_opened_total 1")
}

// ─── Logger ─────────────────────────────────────────────────────────────────

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := newLogger(&buf, "warn", FormatJSON)
	require.NoError(t, err)

	log.Info().Msg("hidden")
	log.Warn().Str("session_id", "s-1").Msg("flagged")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"session_id":"s-1"`)
	assert.Contains(t, out, `"service":"cashdrawer"`)
}

func TestNewLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	log, err := newLogger(&buf, "", FormatConsole)
	require.NoError(t, err)

	log.Info().Msg("session opened")
	assert.True(t, strings.Contains(buf.String(), "session opened"))
}

func TestNewLogger_Invalid(t *testing.T) {
	_, err := NewLogger("loud", FormatJSON)
	assert.Error(t, err)

	_, err = NewLogger("info", "xml")
	assert.Error(t, err)
}
