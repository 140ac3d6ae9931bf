package export_test

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/cashdrawer/drawer"
	"github.com/warp/cashdrawer/export"
	"github.com/xuri/excelize/v2"
)

// scenarioReport is the 1000 float / +500 cash / -200 cash / +300 transfer day.
func scenarioReport() drawer.Report {
	day := drawer.NewDate(2025, time.March, 10)
	at := func(h, m int) time.Time { return time.Date(2025, time.March, 10, h, m, 0, 0, time.UTC) }
	s := drawer.Session{ID: "s-1", Date: day, OwnerID: "op-1", OwnerName: "Ana", OpeningFloat: decimal.NewFromInt(1000), Status: drawer.StatusOpen}
	movements := []drawer.Movement{
		{ID: "m-1", SessionID: "s-1", Date: day, Kind: drawer.KindIncome, Amount: decimal.NewFromInt(500), Concept: "Sale A", PaymentMethod: drawer.MethodCash, RecordedAt: at(9, 15), RecordedByName: "Ana"},
		{ID: "m-2", SessionID: "s-1", Date: day, Kind: drawer.KindExpense, Amount: decimal.NewFromInt(200), Concept: "Supplies, misc", PaymentMethod: drawer.MethodCash, RecordedAt: at(10, 30), RecordedByName: "Ana", Observations: "receipt #12"},
		{ID: "m-3", SessionID: "s-1", Date: day, Kind: drawer.KindIncome, Amount: decimal.NewFromInt(300), Concept: "Sale B", PaymentMethod: drawer.MethodTransfer, RecordedAt: at(11, 0), RecordedByName: "Ana"},
	}
	r := drawer.BuildReport([]drawer.Session{s}, movements)
	r.Query = drawer.ReportQuery{OwnerID: "op-1", Date: day}
	r.GeneratedAt = at(18, 0)
	return r
}

func TestForFormat(t *testing.T) {
	for name, ext := range map[string]string{"csv": "csv", "XLSX": "xlsx", "excel": "xlsx", "pdf": "pdf"} {
		rd, err := export.ForFormat(name)
		require.NoError(t, err, name)
		assert.Equal(t, ext, rd.Extension())
		assert.NotEmpty(t, rd.ContentType())
	}

	_, err := export.ForFormat("docx")
	assert.ErrorIs(t, err, export.ErrUnknownFormat)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "cash-report-op-1-2025-03-10.csv", export.Filename(scenarioReport(), export.CSV{}))
	assert.Equal(t, "cash-report.pdf", export.Filename(drawer.Report{}, export.PDF{}))
}

func TestCSV_RowsAndSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.CSV{}.Render(&buf, scenarioReport()))

	cr := csv.NewReader(&buf)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	require.NoError(t, err)

	assert.Equal(t, []string{"Time", "Kind", "Method", "Concept", "Amount", "Observations", "User"}, records[0])
	assert.Equal(t, []string{"09:15", "Income", "Cash", "Sale A", "500.00", "", "Ana"}, records[1])
	assert.Equal(t, []string{"10:30", "Expense", "Cash", "Supplies, misc", "200.00", "receipt #12", "Ana"}, records[2], "commas survive quoting")
	assert.Equal(t, "Transfer", records[3][2])

	summary := map[string]string{}
	for _, rec := range records[4:] {
		if len(rec) == 2 {
			summary[rec[0]] = rec[1]
		}
	}
	assert.Equal(t, "300.00", summary["Cash"])
	assert.Equal(t, "300.00", summary["Transfer"])
	assert.Equal(t, "0.00", summary["Card"])
	assert.Equal(t, "1300.00", summary["Cash balance"])
	assert.Equal(t, "1600.00", summary["Overall balance"])
	assert.Equal(t, "3", summary["Transactions"])
}

func TestXLSX_Sheets(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.XLSX{}.Render(&buf, scenarioReport()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Movements", "Summary"}, f.GetSheetList())

	rows, err := f.GetRows("Movements")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Concept", rows[0][3])
	assert.Equal(t, "Sale A", rows[1][3])
	assert.Equal(t, "500", rows[1][4])

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	found := map[string]string{}
	for _, row := range summary {
		if len(row) == 2 {
			found[row[0]] = row[1]
		}
	}
	assert.Equal(t, "1300", found["Cash balance"])
	assert.Equal(t, "300", found["Transfer"])
}

func TestPDF_Renders(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.PDF{}.Render(&buf, scenarioReport()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	buf.Reset()
	require.NoError(t, export.PDF{}.Render(&buf, drawer.BuildReport(nil, nil)), "empty report still renders")
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}
