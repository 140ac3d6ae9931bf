/*
scenarios_test.go - Unit tests for demo scenarios

PURPOSE:
	Tests that each scenario correctly sets up the expected state:
	- Sessions are opened for the right operators
	- Movements are recorded through the engine
	- Stats and closes match the documented numbers

These tests ensure scenarios work correctly and can be used as integration tests.
*/
package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/warp/cashdrawer/drawer"
)

func TestScenario_OpenDay(t *testing.T) {
	// GIVEN: Open day scenario
	// WHEN: Loading the scenario
	// THEN: One open session with cash balance 1300 and three movements

	handler := setupTestHandler(t)
	ctx := context.Background()

	if err := handler.loadOpenDayScenario(ctx); err != nil {
		t.Fatalf("Failed to load open-day scenario: %v", err)
	}

	s, err := handler.Engine.CurrentSession(ctx, ana.ID)
	if err != nil {
		t.Fatalf("Expected an open session for Ana: %v", err)
	}
	st, err := handler.Engine.Stats(ctx, s.ID)
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if !st.CashBalance.Equal(decimal.NewFromInt(1300)) {
		t.Errorf("Expected cash balance 1300, got %s", st.CashBalance)
	}
	if !st.OverallBalance.Equal(decimal.NewFromInt(1600)) {
		t.Errorf("Expected overall balance 1600, got %s", st.OverallBalance)
	}
	if st.TransactionCount != 3 {
		t.Errorf("Expected 3 movements, got %d", st.TransactionCount)
	}
}

func TestScenario_ClosedDays(t *testing.T) {
	tests := []struct {
		name        string
		load        func(*Handler, context.Context) error
		discrepancy string
		outcome     drawer.Outcome
	}{
		{"balanced-day", (*Handler).loadBalancedDayScenario, "0", drawer.OutcomeBalanced},
		{"short-day", (*Handler).loadShortDayScenario, "20", drawer.OutcomeShortage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := setupTestHandler(t)
			ctx := context.Background()

			if err := tt.load(handler, ctx); err != nil {
				t.Fatalf("Failed to load %s: %v", tt.name, err)
			}

			sessions, err := handler.Engine.Sessions(ctx, drawer.SessionFilter{OwnerID: ana.ID})
			if err != nil {
				t.Fatalf("Failed to list sessions: %v", err)
			}
			if len(sessions) != 1 {
				t.Fatalf("Expected 1 session, got %d", len(sessions))
			}
			s := sessions[0]
			if s.Status != drawer.StatusClosed {
				t.Errorf("Expected closed session, got %s", s.Status)
			}
			if s.Discrepancy == nil || !s.Discrepancy.Equal(decimal.RequireFromString(tt.discrepancy)) {
				t.Errorf("Expected discrepancy %s, got %v", tt.discrepancy, s.Discrepancy)
			}
			if got := drawer.Reconcile(decimal.NewFromInt(1300), *s.DeclaredCash).Outcome; got != tt.outcome {
				t.Errorf("Expected outcome %s, got %s", tt.outcome, got)
			}
		})
	}
}

func TestScenario_TwoOperators(t *testing.T) {
	// GIVEN: Two operators scenario
	// WHEN: A supervisor asks for the day's report
	// THEN: Both sessions appear and the card expense leaves cash untouched

	handler := setupTestHandler(t)
	ctx := context.Background()

	if err := handler.loadTwoOperatorsScenario(ctx); err != nil {
		t.Fatalf("Failed to load two-operators scenario: %v", err)
	}

	luisSession, err := handler.Engine.CurrentSession(ctx, luis.ID)
	if err != nil {
		t.Fatalf("Expected Luis to be open: %v", err)
	}
	st, err := handler.Engine.Stats(ctx, luisSession.ID)
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if !st.CashBalance.Equal(decimal.NewFromInt(55)) {
		t.Errorf("Expected Luis cash balance 55, got %s", st.CashBalance)
	}
	if !st.CardIncome.Equal(decimal.RequireFromString("42.50")) {
		t.Errorf("Expected card income 42.50, got %s", st.CardIncome)
	}

	report, err := handler.Engine.DailyReport(ctx, drawer.Actor{ID: "sup", Role: drawer.RoleSupervisor}, drawer.ReportQuery{})
	if err != nil {
		t.Fatalf("Failed to build report: %v", err)
	}
	if len(report.Sessions) != 2 {
		t.Errorf("Expected 2 sessions in the report, got %d", len(report.Sessions))
	}
	if report.TransactionCount != 6 {
		t.Errorf("Expected 6 rows, got %d", report.TransactionCount)
	}
	if !report.TotalsByMethod[drawer.MethodCard].Equal(decimal.RequireFromString("30.50")) {
		t.Errorf("Expected card total 30.50, got %s", report.TotalsByMethod[drawer.MethodCard])
	}
	if !report.SumByMethod().Equal(report.TotalIncome.Sub(report.TotalExpenses)) {
		t.Errorf("Per-method totals do not add up to income minus expenses")
	}
}

func TestScenario_LoadOverHTTP(t *testing.T) {
	// GIVEN: A store that already holds a scenario
	// WHEN: Loading another one and then resetting
	// THEN: Each load starts from an empty store and reset clears it

	handler := setupTestHandler(t)
	c := newDemoClient(t, handler)

	for _, id := range []string{"open-day", "short-day"} {
		rec := c.do("POST", "/api/scenarios/load", map[string]string{"scenario_id": id}, supervisor)
		if rec.Code != http.StatusOK {
			t.Fatalf("Failed to load %s: %d %s", id, rec.Code, rec.Body.String())
		}
	}

	rec := c.do("GET", "/api/scenarios/current", nil, drawer.Actor{})
	if got := decodeBody[ScenarioDTO](t, rec); got.ID != "short-day" {
		t.Errorf("Expected current scenario short-day, got %q", got.ID)
	}

	rec = c.do("GET", "/api/sessions", nil, ana)
	if got := decodeBody[[]SessionDTO](t, rec); len(got) != 1 {
		t.Errorf("Expected a single session after reload, got %d", len(got))
	}

	rec = c.do("POST", "/api/scenarios/load", map[string]string{"scenario_id": "busy-week"}, supervisor)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown scenario, got %d", rec.Code)
	}

	rec = c.do("POST", "/api/scenarios/reset", nil, supervisor)
	if rec.Code != http.StatusOK {
		t.Fatalf("Reset failed: %d", rec.Code)
	}
	rec = c.do("GET", "/api/sessions", nil, ana)
	if got := decodeBody[[]SessionDTO](t, rec); len(got) != 0 {
		t.Errorf("Expected no sessions after reset, got %d", len(got))
	}

	rec = c.do("GET", "/api/scenarios", nil, drawer.Actor{})
	if got := decodeBody[[]ScenarioDTO](t, rec); len(got) != len(scenarios) {
		t.Errorf("Expected %d scenarios, got %d", len(scenarios), len(got))
	}
}

func TestScenarioRoutes_ProtectClosedSessions(t *testing.T) {
	// GIVEN: A day closed at 1300.00
	// WHEN: An operator or anonymous caller tries to reset or load a scenario
	// THEN: The routes are unmounted by default, forbidden for operators when
	//       mounted, and the closed session survives both attempts

	handler := setupTestHandler(t)
	if err := handler.loadBalancedDayScenario(context.Background()); err != nil {
		t.Fatalf("Failed to seed closed day: %v", err)
	}
	sessions, err := handler.Engine.Sessions(context.Background(), drawer.SessionFilter{})
	if err != nil || len(sessions) != 1 {
		t.Fatalf("Expected one closed session, got %d (%v)", len(sessions), err)
	}
	path := "/api/sessions/" + string(sessions[0].ID)

	plain := newClient(t, handler)
	for _, route := range []string{"/api/scenarios/reset", "/api/scenarios/load"} {
		for _, actor := range []drawer.Actor{ana, supervisor, {}} {
			rec := plain.do("POST", route, map[string]string{"scenario_id": "open-day"}, actor)
			if rec.Code != http.StatusNotFound {
				t.Errorf("Expected %s to be unmounted by default, got %d", route, rec.Code)
			}
		}
	}
	if rec := plain.do("GET", "/api/scenarios", nil, supervisor); rec.Code != http.StatusNotFound {
		t.Errorf("Expected scenario listing to be unmounted by default, got %d", rec.Code)
	}

	demo := newDemoClient(t, handler)
	for _, actor := range []drawer.Actor{ana, {}} {
		rec := demo.do("POST", "/api/scenarios/reset", nil, actor)
		if rec.Code != http.StatusForbidden {
			t.Errorf("Expected 403 for reset as %q, got %d", actor.ID, rec.Code)
		}
		rec = demo.do("POST", "/api/scenarios/load", map[string]string{"scenario_id": "open-day"}, actor)
		if rec.Code != http.StatusForbidden {
			t.Errorf("Expected 403 for load as %q, got %d", actor.ID, rec.Code)
		}
	}

	rec := demo.do("GET", path, nil, ana)
	if rec.Code != http.StatusOK {
		t.Fatalf("Closed session should still exist, got %d", rec.Code)
	}
	if got := decodeBody[SessionDTO](t, rec); got.Status != "closed" {
		t.Errorf("Expected closed session, got %s", got.Status)
	}
}
