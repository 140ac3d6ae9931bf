/*
Package export renders a drawer.Report into downloadable files.

PURPOSE:
  The report builder knows nothing about formats; each Renderer here turns
  the same Report into one file type. Renderers never recompute totals, they
  print what the Report carries.

FORMATS:
  csv:  ledger rows followed by a summary block (encoding/csv)
  xlsx: "Movements" and "Summary" sheets (excelize)
  pdf:  A4 landscape table plus totals (fpdf)

LAYOUT:
  Columns: Time, Kind, Method, Concept, Amount, Observations, User
  Summary: one line per payment method, then Total income, Total expenses,
           Cash balance and Overall balance.

SEE ALSO:
  - drawer/report.go: The Report structure
  - api/handlers.go: GET /api/reports/daily?format=
*/
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/cashdrawer/drawer"
)

// Renderer writes a report in one output format.
type Renderer interface {
	Render(w io.Writer, r drawer.Report) error
	ContentType() string
	Extension() string
}

var ErrUnknownFormat = errors.New("unknown export format")

// ForFormat returns the renderer for name (csv, xlsx, pdf).
func ForFormat(name string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "csv":
		return CSV{}, nil
	case "xlsx", "excel":
		return XLSX{}, nil
	case "pdf":
		return PDF{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Filename builds the download name for a report, e.g. cash-report-2025-03-10.csv.
func Filename(r drawer.Report, rd Renderer) string {
	name := "cash-report"
	if r.Query.OwnerID != "" {
		name += "-" + string(r.Query.OwnerID)
	}
	if !r.Query.Date.IsZero() {
		name += "-" + r.Query.Date.String()
	} else if !r.GeneratedAt.IsZero() {
		name += "-" + drawer.DateOf(r.GeneratedAt).String()
	}
	return name + "." + rd.Extension()
}

// =============================================================================
// SHARED LAYOUT
// =============================================================================

var columns = []string{"Time", "Kind", "Method", "Concept", "Amount", "Observations", "User"}

const timeFormat = "15:04"

func rowCells(row drawer.Row) []string {
	user := row.RecordedByName
	if user == "" {
		user = string(row.RecordedByID)
	}
	return []string{
		row.RecordedAt.Format(timeFormat),
		kindLabel(row.Kind),
		methodLabel(row.PaymentMethod),
		row.Concept,
		money(row.Amount),
		row.Observations,
		user,
	}
}

type summaryLine struct {
	Label string
	Value decimal.Decimal
}

func summaryLines(r drawer.Report) (byMethod, totals []summaryLine) {
	for _, m := range r.MethodsInOrder() {
		byMethod = append(byMethod, summaryLine{Label: methodLabel(m), Value: r.TotalsByMethod[m]})
	}
	totals = []summaryLine{
		{"Opening float", r.OpeningFloat},
		{"Total income", r.TotalIncome},
		{"Total expenses", r.TotalExpenses},
		{"Cash balance", r.CashBalance},
		{"Overall balance", r.OverallBalance},
	}
	return byMethod, totals
}

func title(r drawer.Report) string {
	t := "Cash drawer report"
	if !r.Query.Date.IsZero() {
		t += " " + r.Query.Date.String()
	}
	if r.Query.OwnerID != "" {
		t += " (" + string(r.Query.OwnerID) + ")"
	}
	return t
}

func kindLabel(k drawer.MovementKind) string {
	if k == drawer.KindExpense {
		return "Expense"
	}
	return "Income"
}

func methodLabel(m drawer.PaymentMethod) string {
	switch m {
	case drawer.MethodCash, "":
		return "Cash"
	case drawer.MethodTransfer:
		return "Transfer"
	case drawer.MethodCard:
		return "Card"
	case drawer.MethodOther:
		return "Other"
	}
	return string(m)
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }
