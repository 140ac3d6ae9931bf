package export

import (
	"fmt"
	"io"

	"github.com/warp/cashdrawer/drawer"
	"github.com/xuri/excelize/v2"
)

const (
	movementsSheet = "Movements"
	summarySheet   = "Summary"
)

// XLSX renders a workbook with a Movements sheet and a Summary sheet.
// Amounts are written as numbers so the spreadsheet can sum them.
type XLSX struct{}

func (XLSX) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
func (XLSX) Extension() string { return "xlsx" }

func (XLSX) Render(w io.Writer, r drawer.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", movementsSheet); err != nil {
		return fmt.Errorf("xlsx: rename sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("xlsx: add sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx: style: %w", err)
	}

	// ── Movements ────────────────────────────────────────────────────────────
	headers := make([]any, len(columns))
	for i, c := range columns {
		headers[i] = c
	}
	if err := f.SetSheetRow(movementsSheet, "A1", &headers); err != nil {
		return fmt.Errorf("xlsx: header: %w", err)
	}
	if err := f.SetRowStyle(movementsSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("xlsx: header style: %w", err)
	}

	for i, row := range r.Rows {
		cells := rowCells(row)
		amount, _ := row.Amount.Float64()
		values := []any{cells[0], cells[1], cells[2], cells[3], amount, cells[5], cells[6]}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(movementsSheet, cell, &values); err != nil {
			return fmt.Errorf("xlsx: row %d: %w", i+1, err)
		}
	}
	if err := f.SetColWidth(movementsSheet, "D", "D", 32); err != nil {
		return err
	}
	if err := f.SetColWidth(movementsSheet, "F", "F", 32); err != nil {
		return err
	}

	// ── Summary ──────────────────────────────────────────────────────────────
	byMethod, totals := summaryLines(r)
	line := 1
	put := func(label string, value any) error {
		cell, err := excelize.CoordinatesToCellName(1, line)
		if err != nil {
			return err
		}
		line++
		row := []any{label}
		if value != nil {
			row = append(row, value)
		}
		return f.SetSheetRow(summarySheet, cell, &row)
	}

	if err := put(title(r), nil); err != nil {
		return fmt.Errorf("xlsx: summary: %w", err)
	}
	if err := f.SetCellStyle(summarySheet, "A1", "A1", bold); err != nil {
		return err
	}
	line++
	if err := put("Totals by payment method", nil); err != nil {
		return fmt.Errorf("xlsx: summary: %w", err)
	}
	for _, l := range byMethod {
		v, _ := l.Value.Float64()
		if err := put(l.Label, v); err != nil {
			return fmt.Errorf("xlsx: summary: %w", err)
		}
	}
	line++
	for _, l := range totals {
		v, _ := l.Value.Float64()
		if err := put(l.Label, v); err != nil {
			return fmt.Errorf("xlsx: summary: %w", err)
		}
	}
	if err := put("Transactions", r.TransactionCount); err != nil {
		return fmt.Errorf("xlsx: summary: %w", err)
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 28); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx: write workbook: %w", err)
	}
	return nil
}
