package export

// pdf.go - Daily report as an A4 landscape PDF using go-pdf/fpdf.
// Layout:
//   - Title with date and owner
//   - Movements table (one row per movement)
//   - Totals by payment method
//   - Bold totals block

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/warp/cashdrawer/drawer"
)

// PDF renders the report as a printable table.
type PDF struct{}

func (PDF) ContentType() string { return "application/pdf" }
func (PDF) Extension() string   { return "pdf" }

// Column widths in mm, matching columns.
var pdfWidths = []float64{18, 22, 24, 70, 28, 70, 45}

func (PDF) Render(w io.Writer, r drawer.Report) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 20

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, tr(title(r)), "", 1, "L", false, 0, "")
	if !r.GeneratedAt.IsZero() {
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(contentW, 5, "Generated "+r.GeneratedAt.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	// ── Movements table ──────────────────────────────────────────────────────
	header := func() {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(34, 197, 94)
		pdf.SetTextColor(255, 255, 255)
		for i, c := range columns {
			pdf.CellFormat(pdfWidths[i], 6, c, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
	}
	header()

	pdf.SetFont("Helvetica", "", 8)
	for _, row := range r.Rows {
		if pdf.GetY() > 190 {
			pdf.AddPage()
			header()
			pdf.SetFont("Helvetica", "", 8)
		}
		cells := rowCells(row)
		for i, c := range cells {
			align := "L"
			if i == 4 {
				align = "R"
			}
			pdf.CellFormat(pdfWidths[i], 5, tr(truncate(c, pdfWidths[i])), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(r.Rows) == 0 {
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(contentW, 6, "No movements", "1", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	// ── Totals ───────────────────────────────────────────────────────────────
	byMethod, totals := summaryLines(r)
	labelW, valueW := 60.0, 35.0

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(labelW+valueW, 6, "Totals by payment method", "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for _, l := range byMethod {
		pdf.CellFormat(labelW, 5, tr(l.Label), "", 0, "L", false, 0, "")
		pdf.CellFormat(valueW, 5, money(l.Value), "", 1, "R", false, 0, "")
	}
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 9)
	for _, l := range totals {
		pdf.CellFormat(labelW, 6, l.Label, "", 0, "L", false, 0, "")
		pdf.CellFormat(valueW, 6, money(l.Value), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(labelW, 6, "Transactions", "", 0, "L", false, 0, "")
	pdf.CellFormat(valueW, 6, fmt.Sprint(r.TransactionCount), "", 1, "R", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: write report: %w", err)
	}
	return nil
}

// truncate shortens s to roughly fit a column of width mm at 8pt.
func truncate(s string, width float64) string {
	limit := int(width / 1.6)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
