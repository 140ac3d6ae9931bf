/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with a realistic
	drawer day. Every scenario goes through the engine, so the data obeys the
	same rules as data entered by hand.

AVAILABLE SCENARIOS:

	open-day:      Float 1000, three movements, still open
	balanced-day:  Same day closed with 1300.00 counted (discrepancy 0)
	short-day:     Same day closed with 1280.00 counted (20.00 short, flagged)
	two-operators: Two operators on the same day, one closed and one open

THE SCENARIO DAY:

	opening float   1000.00
	income  cash     500.00   Sale A
	expense cash     200.00   Supplies
	income  transfer 300.00   Sale B
	cash balance    1300.00

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "short-day"}

NOTE:

	Scenarios reset the store, closed sessions included. The routes are only
	mounted with demo_scenarios set, and load/reset need a supervisor.

SEE ALSO:
  - handlers.go: Handler
  - drawer/engine.go: Operations used by the loaders
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/warp/cashdrawer/drawer"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "open-day",
		Name:        "Open Day",
		Description: "Float 1000 with cash sale, cash expense and transfer sale; session still open",
	},
	{
		ID:          "balanced-day",
		Name:        "Balanced Day",
		Description: "The open day closed with 1300.00 counted; no discrepancy",
	},
	{
		ID:          "short-day",
		Name:        "Short Day",
		Description: "The open day closed with 1280.00 counted; 20.00 shortage flagged",
	},
	{
		ID:          "two-operators",
		Name:        "Two Operators",
		Description: "Ana closes a balanced day while Luis is still open; supervisor report covers both",
	},
}

var (
	ana  = drawer.Actor{ID: "op-ana", Name: "Ana", Role: drawer.RoleOperator}
	luis = drawer.Actor{ID: "op-luis", Name: "Luis", Role: drawer.RoleOperator}
)

var errResetUnsupported = errors.New("store does not support reset")

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario resets the store and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}

	load, ok := map[string]func(context.Context) error{
		"open-day":      h.loadOpenDayScenario,
		"balanced-day":  h.loadBalancedDayScenario,
		"short-day":     h.loadShortDayScenario,
		"two-operators": h.loadTwoOperatorsScenario,
	}[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset store", err)
		return
	}
	h.currentScenario = ""

	if err := load(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears every session and movement.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset store", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) reset(ctx context.Context) error {
	rs, ok := h.Store.(Resetter)
	if !ok {
		return errResetUnsupported
	}
	return rs.Reset(ctx)
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadOpenDayScenario(ctx context.Context) error {
	_, err := h.scenarioDay(ctx, ana)
	return err
}

func (h *Handler) loadBalancedDayScenario(ctx context.Context) error {
	s, err := h.scenarioDay(ctx, ana)
	if err != nil {
		return err
	}
	_, err = h.Engine.CloseSession(ctx, s.ID, decimal.RequireFromString("1300.00"))
	return err
}

func (h *Handler) loadShortDayScenario(ctx context.Context) error {
	s, err := h.scenarioDay(ctx, ana)
	if err != nil {
		return err
	}
	_, err = h.Engine.CloseSession(ctx, s.ID, decimal.RequireFromString("1280.00"))
	return err
}

func (h *Handler) loadTwoOperatorsScenario(ctx context.Context) error {
	if err := h.loadBalancedDayScenario(ctx); err != nil {
		return err
	}

	s, err := h.Engine.OpenSession(ctx, luis.ID, luis.Name, decimal.RequireFromString("50.00"))
	if err != nil {
		return err
	}
	movements := []drawer.MovementInput{
		{Kind: drawer.KindIncome, Amount: decimal.RequireFromString("5.00"), Concept: "Coffee", PaymentMethod: drawer.MethodCash},
		{Kind: drawer.KindIncome, Amount: decimal.RequireFromString("42.50"), Concept: "Lunch menu", PaymentMethod: drawer.MethodCard},
		// Paid by card, so it does not leave the drawer.
		{Kind: drawer.KindExpense, Amount: decimal.RequireFromString("12.00"), Concept: "Delivery fee", PaymentMethod: drawer.MethodCard},
	}
	return h.record(ctx, s.ID, luis, movements)
}

// scenarioDay opens a session for actor and records the three scenario movements.
func (h *Handler) scenarioDay(ctx context.Context, actor drawer.Actor) (drawer.Session, error) {
	s, err := h.Engine.OpenSession(ctx, actor.ID, actor.Name, decimal.RequireFromString("1000.00"))
	if err != nil {
		return drawer.Session{}, err
	}
	movements := []drawer.MovementInput{
		{Kind: drawer.KindIncome, Amount: decimal.RequireFromString("500.00"), Concept: "Sale A", PaymentMethod: drawer.MethodCash},
		{Kind: drawer.KindExpense, Amount: decimal.RequireFromString("200.00"), Concept: "Supplies", PaymentMethod: drawer.MethodCash},
		{Kind: drawer.KindIncome, Amount: decimal.RequireFromString("300.00"), Concept: "Sale B", PaymentMethod: drawer.MethodTransfer},
	}
	if err := h.record(ctx, s.ID, actor, movements); err != nil {
		return drawer.Session{}, err
	}
	return s, nil
}

func (h *Handler) record(ctx context.Context, id drawer.SessionID, actor drawer.Actor, inputs []drawer.MovementInput) error {
	for _, in := range inputs {
		in.RecordedBy = actor
		if _, err := h.Engine.RecordMovement(ctx, id, in); err != nil {
			return fmt.Errorf("record %q: %w", in.Concept, err)
		}
	}
	return nil
}
