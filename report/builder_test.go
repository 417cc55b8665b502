package report

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/PavanSai0211/Finance-Reporting-Project/frame"
)

var discardLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

type fakeQuerier struct {
	table   *frame.Table
	err     error
	queries []string
}

func (f *fakeQuerier) QueryTable(query string) (*frame.Table, error) {
	f.queries = append(f.queries, query)
	return f.table, f.err
}

func (f *fakeQuerier) QualifiedName(table string) string {
	return `"finance_data"."` + table + `"`
}

func yearlyTable(t *testing.T) *frame.Table {
	t.Helper()
	table, err := frame.New("query", []string{"year", "symbol", "total_revenue", "total_ebitda"}, [][]frame.Value{
		{frame.NumberValue(2023), frame.StringValue("AAPL"), frame.NumberValue(383285.5), frame.NumberValue(125820)},
		{frame.NumberValue(2023), frame.StringValue("MSFT"), frame.NumberValue(211915), frame.Null},
	})
	require.NoError(t, err)
	return table
}

func monthlyTable(t *testing.T) *frame.Table {
	t.Helper()
	table, err := frame.New("query",
		[]string{"month", "avg_open", "avg_close", "max_high", "min_low", "avg_trading_volume"},
		[][]frame.Value{{
			frame.DateValue(time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)),
			frame.NumberValue(170.5), frame.NumberValue(171.25), frame.NumberValue(178.36),
			frame.NumberValue(164.08), frame.NumberValue(5512.5),
		}})
	require.NoError(t, err)
	return table
}

func TestQuery(t *testing.T) {
	q := &fakeQuerier{}

	yearly := Query(q, PreviousPeriod(Yearly, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, `SELECT year, symbol, total_revenue, total_ebitda FROM "finance_data"."kpi_yearly_report" WHERE year = 2023 ORDER BY symbol;`, yearly)

	monthly := Query(q, PreviousPeriod(Monthly, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)))
	assert.Contains(t, monthly, `FROM "finance_data"."agg_monthly_stock_performance" AS p JOIN "finance_data"."agg_monthly_volume" AS v`)
	assert.Contains(t, monthly, `>= DATE '2024-04-01'`)
	assert.Contains(t, monthly, `< DATE '2024-05-01'`)
}

func TestBuildXLSX(t *testing.T) {
	dir := t.TempDir()
	b := &Builder{Warehouse: &fakeQuerier{table: yearlyTable(t)}, Format: FormatXLSX, Dir: dir, Logger: discardLogger}
	period := PreviousPeriod(Yearly, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	r, err := b.Build(period)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Rows)
	assert.Equal(t, filepath.Join(dir, "yearly_financial_report_2023.xlsx"), r.Path)

	f, err := excelize.OpenFile(r.Path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetName}, f.GetSheetList())
	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, yearlyHeader, rows[0])
	assert.Equal(t, []string{"2023", "AAPL", "383285.5", "125820"}, rows[1])
	assert.Equal(t, "MSFT", rows[2][1])
}

func TestBuildCSV(t *testing.T) {
	dir := t.TempDir()
	b := &Builder{Warehouse: &fakeQuerier{table: monthlyTable(t)}, Format: FormatCSV, Dir: dir, Logger: discardLogger}
	period := PreviousPeriod(Monthly, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))

	r, err := b.Build(period)
	require.NoError(t, err)

	content, err := os.ReadFile(r.Path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	assert.Equal(t, []string{
		"month,avg_open,avg_close,max_high,min_low,avg_trading_volume",
		"2024-04-01,170.5,171.25,178.36,164.08,5512.5",
	}, lines)
}

func TestBuildEmptyPeriod(t *testing.T) {
	empty, err := frame.New("query", yearlyHeader, nil)
	require.NoError(t, err)
	b := &Builder{Warehouse: &fakeQuerier{table: empty}, Dir: t.TempDir(), Logger: discardLogger}

	r, err := b.Build(PreviousPeriod(Yearly, time.Now()))
	require.NoError(t, err)
	assert.Zero(t, r.Rows)
	assert.FileExists(t, r.Path)
	assert.True(t, strings.HasSuffix(r.Path, ".xlsx"))
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name          string
		querier       *fakeQuerier
		format        string
		expectedError string
	}{
		{
			name:          "query failure",
			querier:       &fakeQuerier{err: errors.New("Catalog Error: Table kpi_yearly_report does not exist")},
			format:        FormatXLSX,
			expectedError: "error querying yearly report data",
		},
		{
			name:          "unknown format",
			querier:       &fakeQuerier{table: yearlyTable(t)},
			format:        "pdf",
			expectedError: `unsupported report format "pdf"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Builder{Warehouse: tt.querier, Format: tt.format, Dir: t.TempDir(), Logger: discardLogger}
			_, err := b.Build(PreviousPeriod(Yearly, time.Now()))
			assert.ErrorContains(t, err, tt.expectedError)
		})
	}
}
