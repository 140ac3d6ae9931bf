package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/warp/cashdrawer/drawer"
)

// CSV renders the ledger rows followed by a summary block.
type CSV struct{}

func (CSV) ContentType() string { return "text/csv; charset=utf-8" }
func (CSV) Extension() string   { return "csv" }

func (CSV) Render(w io.Writer, r drawer.Report) error {
	cw := csv.NewWriter(w)

	records := [][]string{columns}
	for _, row := range r.Rows {
		records = append(records, rowCells(row))
	}

	byMethod, totals := summaryLines(r)
	records = append(records, []string{}, []string{"Summary"}, []string{"Totals by payment method"})
	for _, l := range byMethod {
		records = append(records, []string{l.Label, money(l.Value)})
	}
	records = append(records, []string{}, []string{"Totals"})
	for _, l := range totals {
		records = append(records, []string{l.Label, money(l.Value)})
	}
	records = append(records, []string{"Transactions", fmt.Sprint(r.TransactionCount)})

	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("csv: write report: %w", err)
	}
	return nil
}
