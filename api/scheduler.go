/*
scheduler.go - Stale session monitor

PURPOSE:
  Periodically looks for sessions still open after their day has ended (an
  operator went home without closing) and reports them. It never closes or
  edits a session: closing needs a physical cash count only a person can do.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - A session is stale when its Date is before today's date
  - Each check logs one warning per stale session and reports the count
    through OnCheck (the serve command feeds a Prometheus gauge)
  - OnOpen receives every open session the check listed, stale or not

CONFIGURATION:
  - CheckInterval: How often to check (default: 15 minutes)
  - Enabled: Whether the monitor is active (default: true)

USAGE:
  monitor := NewStaleSessionMonitor(engine, log)
  monitor.Start()
  // ... later
  monitor.Stop()

SEE ALSO:
  - drawer/engine.go: Sessions (read only)
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/warp/cashdrawer/drawer"
)

// StaleSessionMonitor reports sessions left open past their day.
type StaleSessionMonitor struct {
	Engine        *drawer.Engine
	Clock         drawer.Clock
	Log           zerolog.Logger
	CheckInterval time.Duration
	Enabled       bool

	// OnCheck receives the stale sessions found by each check.
	OnCheck func(stale []drawer.Session)
	// OnOpen receives all open sessions listed by each check.
	OnOpen func(open []drawer.Session)

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewStaleSessionMonitor creates a monitor with default settings.
func NewStaleSessionMonitor(engine *drawer.Engine, log zerolog.Logger) *StaleSessionMonitor {
	return &StaleSessionMonitor{
		Engine:        engine,
		Clock:         drawer.SystemClock{},
		Log:           log,
		CheckInterval: 15 * time.Minute,
		Enabled:       true,
	}
}

// Start begins the periodic check.
func (m *StaleSessionMonitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.Enabled || m.CheckInterval <= 0 {
		m.Log.Info().Msg("stale session monitor disabled")
		return
	}
	if m.ticker != nil {
		return
	}

	m.ticker = time.NewTicker(m.CheckInterval)
	m.stop = make(chan struct{})
	m.wg.Add(1)
	go m.run()

	m.Log.Info().Dur("interval", m.CheckInterval).Msg("stale session monitor started")
}

// Stop stops the monitor and waits for a running check to finish.
func (m *StaleSessionMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ticker == nil {
		return
	}
	m.ticker.Stop()
	close(m.stop)
	m.wg.Wait()
	m.ticker = nil
	m.Log.Info().Msg("stale session monitor stopped")
}

func (m *StaleSessionMonitor) run() {
	defer m.wg.Done()

	// Run immediately on start
	m.check()

	for {
		select {
		case <-m.ticker.C:
			m.check()
		case <-m.stop:
			return
		}
	}
}

func (m *StaleSessionMonitor) check() {
	if _, err := m.Check(context.Background()); err != nil {
		m.Log.Error().Err(err).Msg("stale session check failed")
	}
}

// Check runs one pass and returns the stale sessions.
func (m *StaleSessionMonitor) Check(ctx context.Context) ([]drawer.Session, error) {
	open, err := m.Engine.Sessions(ctx, drawer.SessionFilter{Status: drawer.StatusOpen})
	if err != nil {
		return nil, err
	}

	today := drawer.DateOf(m.Clock.Now())
	var stale []drawer.Session
	for _, s := range open {
		if !s.Date.Before(today) {
			continue
		}
		stale = append(stale, s)
		m.Log.Warn().
			Str("session_id", string(s.ID)).
			Str("owner_id", string(s.OwnerID)).
			Str("date", s.Date.String()).
			Msg("session left open past its day")
	}

	if m.OnOpen != nil {
		m.OnOpen(open)
	}
	if m.OnCheck != nil {
		m.OnCheck(stale)
	}
	return stale, nil
}
