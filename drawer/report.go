/*
report.go - Renderer-agnostic report structure

PURPOSE:
  Assembles the ledger rows and totals block handed to export collaborators
  (CSV, spreadsheet, PDF). The builder writes no files and knows no format.

TOTALS:
  TotalsByMethod[m] = sum(income in m) - sum(expense in m)

  Unlike the Stats aggregator, the per-method totals include expenses in every
  method that has them, so a method that starts carrying expenses is reported
  correctly. Every known method is present, zero when unused.

  TotalExpenses counts expenses in every method, so
  sum(TotalsByMethod) = TotalIncome - TotalExpenses always holds.
  OverallBalance = OpeningFloat + TotalIncome - TotalExpenses on the same basis.
  CashBalance comes from Aggregate over all movements with the summed opening
  floats of the included sessions.

ORDER:
  Rows are sorted by RecordedAt ascending. Ties keep input order.

SEE ALSO:
  - export/: Renderers consuming Report
  - engine.go: DailyReport loads sessions and movements and calls BuildReport
*/
package drawer

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Row is one movement line in a report.
type Row struct {
	MovementID     MovementID
	SessionID      SessionID
	Date           Date
	RecordedAt     time.Time
	Kind           MovementKind
	PaymentMethod  PaymentMethod
	Concept        string
	Amount         decimal.Decimal
	Signed         decimal.Decimal
	Observations   string
	RecordedByID   OwnerID
	RecordedByName string
}

// SessionSummary is the per-session block of a report.
type SessionSummary struct {
	SessionID    SessionID
	OwnerID      OwnerID
	OwnerName    string
	Date         Date
	Status       SessionStatus
	OpenedAt     time.Time
	ClosedAt     *time.Time
	Stats        Stats
	DeclaredCash *decimal.Decimal
	Discrepancy  *decimal.Decimal
}

// ReportQuery selects what DailyReport covers. Empty OwnerID means every
// owner; zero Date means every day.
type ReportQuery struct {
	OwnerID OwnerID
	Date    Date
}

type Report struct {
	Query       ReportQuery
	GeneratedAt time.Time

	Rows           []Row
	TotalsByMethod map[PaymentMethod]decimal.Decimal

	OpeningFloat     decimal.Decimal
	TotalIncome      decimal.Decimal
	TotalExpenses    decimal.Decimal
	CashBalance      decimal.Decimal
	OverallBalance   decimal.Decimal
	TransactionCount int

	Sessions []SessionSummary
}

// MethodsInOrder returns the known methods first, then any other method found
// in TotalsByMethod, sorted.
func (r Report) MethodsInOrder() []PaymentMethod {
	out := Methods()
	known := make(map[PaymentMethod]bool, len(out))
	for _, m := range out {
		known[m] = true
	}
	var extra []PaymentMethod
	for m := range r.TotalsByMethod {
		if !known[m] {
			extra = append(extra, m)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

// SumByMethod adds up TotalsByMethod.
func (r Report) SumByMethod() decimal.Decimal {
	sum := decimal.Zero
	for _, v := range r.TotalsByMethod {
		sum = sum.Add(v)
	}
	return sum
}

// BuildReport assembles a report from sessions and their movements.
func BuildReport(sessions []Session, movements []Movement) Report {
	r := Report{
		Rows:           make([]Row, 0, len(movements)),
		TotalsByMethod: make(map[PaymentMethod]decimal.Decimal),
		OpeningFloat:   decimal.Zero,
	}
	for _, m := range Methods() {
		r.TotalsByMethod[m] = decimal.Zero
	}

	bySession := make(map[SessionID][]Movement, len(sessions))
	for _, m := range movements {
		bySession[m.SessionID] = append(bySession[m.SessionID], m)

		method := m.PaymentMethod
		if method == "" {
			method = MethodCash
		}
		total, ok := r.TotalsByMethod[method]
		if !ok {
			total = decimal.Zero
		}
		r.TotalsByMethod[method] = total.Add(m.Signed())

		r.Rows = append(r.Rows, Row{
			MovementID:     m.ID,
			SessionID:      m.SessionID,
			Date:           m.Date,
			RecordedAt:     m.RecordedAt,
			Kind:           m.Kind,
			PaymentMethod:  method,
			Concept:        m.Concept,
			Amount:         m.Amount,
			Signed:         m.Signed(),
			Observations:   m.Observations,
			RecordedByID:   m.RecordedByID,
			RecordedByName: m.RecordedByName,
		})
	}

	sort.SliceStable(r.Rows, func(i, j int) bool {
		return r.Rows[i].RecordedAt.Before(r.Rows[j].RecordedAt)
	})

	for _, s := range sessions {
		r.OpeningFloat = r.OpeningFloat.Add(s.OpeningFloat)
		r.Sessions = append(r.Sessions, SessionSummary{
			SessionID:    s.ID,
			OwnerID:      s.OwnerID,
			OwnerName:    s.OwnerName,
			Date:         s.Date,
			Status:       s.Status,
			OpenedAt:     s.OpenedAt,
			ClosedAt:     s.ClosedAt,
			Stats:        Aggregate(s.OpeningFloat, bySession[s.ID]),
			DeclaredCash: s.DeclaredCash,
			Discrepancy:  s.Discrepancy,
		})
	}

	total := Aggregate(r.OpeningFloat, movements)
	r.TotalIncome = total.TotalIncome
	r.TotalExpenses = decimal.Zero
	for _, m := range movements {
		if m.Kind == KindExpense {
			r.TotalExpenses = r.TotalExpenses.Add(m.Amount)
		}
	}
	r.CashBalance = total.CashBalance
	r.OverallBalance = r.OpeningFloat.Add(r.TotalIncome).Sub(r.TotalExpenses)
	r.TransactionCount = total.TransactionCount
	return r
}
