package drawer

import "github.com/shopspring/decimal"

// =============================================================================
// RECONCILIATION - Computed cash vs. declared count at close
// =============================================================================

// Tolerance is the largest discrepancy still treated as balanced.
var Tolerance = decimal.New(1, -2)

type Outcome string

const (
	OutcomeBalanced Outcome = "balanced"
	// OutcomeShortage: less cash was counted than expected (positive discrepancy).
	OutcomeShortage Outcome = "shortage"
	// OutcomeOverage: more cash was counted than expected (negative discrepancy).
	OutcomeOverage Outcome = "overage"
)

// Reconciliation is advisory data returned by a successful close.
type Reconciliation struct {
	CashBalance  decimal.Decimal
	DeclaredCash decimal.Decimal
	Discrepancy  decimal.Decimal
	Outcome      Outcome
}

// Flagged reports whether the discrepancy exceeds Tolerance.
func (r Reconciliation) Flagged() bool { return r.Outcome != OutcomeBalanced }

// Reconcile computes discrepancy = cashBalance - declared.
func Reconcile(cashBalance, declared decimal.Decimal) Reconciliation {
	d := cashBalance.Sub(declared)
	r := Reconciliation{
		CashBalance:  cashBalance,
		DeclaredCash: declared,
		Discrepancy:  d,
		Outcome:      OutcomeBalanced,
	}
	switch {
	case d.Abs().LessThanOrEqual(Tolerance):
	case d.IsPositive():
		r.Outcome = OutcomeShortage
	default:
		r.Outcome = OutcomeOverage
	}
	return r
}
