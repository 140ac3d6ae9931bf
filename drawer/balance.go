/*
balance.go - Stats aggregation from a session's movements

PURPOSE:
  Answers "what should be in the drawer right now?" by replaying the
  movements of a session. There is no stored balance that could drift from
  the movements; every call recomputes from scratch.

FORMULAS:
  TotalIncome    = CashIncome + TransferIncome + CardIncome + OtherIncome
  TotalExpenses  = CashExpenses
  CashBalance    = OpeningFloat + CashIncome - CashExpenses
  OverallBalance = OpeningFloat + TotalIncome - TotalExpenses

  Only cash enters or leaves the physical drawer. Expenses settled by
  transfer, card or other are not counted against the drawer.

EXAMPLE:
  Float 1000, income 500 cash, expense 200 cash, income 300 transfer:
    CashBalance    = 1000 + 500 - 200       = 1300
    OverallBalance = 1000 + 800 - 200       = 1600

SEE ALSO:
  - reconcile.go: Compares CashBalance against the declared count
  - report.go: Per-method signed totals that do include every expense
*/
package drawer

import "github.com/shopspring/decimal"

// =============================================================================
// STATS - Derived, never persisted
// =============================================================================

type Stats struct {
	OpeningFloat decimal.Decimal

	CashIncome     decimal.Decimal
	CashExpenses   decimal.Decimal
	TransferIncome decimal.Decimal
	CardIncome     decimal.Decimal
	OtherIncome    decimal.Decimal

	TotalIncome    decimal.Decimal
	TotalExpenses  decimal.Decimal
	CashBalance    decimal.Decimal
	OverallBalance decimal.Decimal

	TransactionCount int
}

// Aggregate computes stats for a session. The result does not depend on the
// order of movements.
func Aggregate(openingFloat decimal.Decimal, movements []Movement) Stats {
	st := Stats{
		OpeningFloat:   openingFloat,
		CashIncome:     decimal.Zero,
		CashExpenses:   decimal.Zero,
		TransferIncome: decimal.Zero,
		CardIncome:     decimal.Zero,
		OtherIncome:    decimal.Zero,
	}

	for _, m := range movements {
		method := m.PaymentMethod
		if method == "" {
			method = MethodCash
		}
		switch m.Kind {
		case KindIncome:
			switch method {
			case MethodCash:
				st.CashIncome = st.CashIncome.Add(m.Amount)
			case MethodTransfer:
				st.TransferIncome = st.TransferIncome.Add(m.Amount)
			case MethodCard:
				st.CardIncome = st.CardIncome.Add(m.Amount)
			default:
				st.OtherIncome = st.OtherIncome.Add(m.Amount)
			}
		case KindExpense:
			if method == MethodCash {
				st.CashExpenses = st.CashExpenses.Add(m.Amount)
			}
		}
	}

	st.TotalIncome = st.CashIncome.Add(st.TransferIncome).Add(st.CardIncome).Add(st.OtherIncome)
	st.TotalExpenses = st.CashExpenses
	st.CashBalance = openingFloat.Add(st.CashIncome).Sub(st.CashExpenses)
	st.OverallBalance = openingFloat.Add(st.TotalIncome).Sub(st.TotalExpenses)
	st.TransactionCount = len(movements)
	return st
}
