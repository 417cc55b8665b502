package transform

import (
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/PavanSai0211/Finance-Reporting-Project/constants"
	"github.com/PavanSai0211/Finance-Reporting-Project/frame"
)

var est = time.FixedZone("EST", -5*3600)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Company attributes that hold text rather than numbers.
var textAttributes = []string{
	"symbol", "shortName", "longName", "industry", "industryKey", "industryDisp", "sector",
	"sectorKey", "sectorDisp", "longBusinessSummary", "companyOfficers", "irWebsite", "website",
	"exchange", "market", "fullExchangeName", "exchangeTimezoneName", "exchangeTimezoneShortName",
	"currency", "financialCurrency", "quoteType", "address1", "city", "state", "zip", "country", "phone",
}

// Columns of the fact table that come from the price history rather than company info.
var historicalColumns = []string{"Date", "Open", "High", "Low", "Close", "Volume", "Dividends_x", "Stock Splits"}

// tradingDays returns n consecutive weekdays starting at start, at midnight in zone.
func tradingDays(start time.Time, n int, zone *time.Location) []time.Time {
	days := make([]time.Time, 0, n)
	for d := start; len(days) < n; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		days = append(days, time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, zone))
	}
	return days
}

func closePrice(i int) float64 {
	return 150 + 0.25*float64(i) + 5*math.Sin(float64(i)/9)
}

func historicalFixture(t *testing.T, days []time.Time, dividendDays map[int]bool) *frame.Table {
	t.Helper()
	rows := make([][]frame.Value, len(days))
	for i, d := range days {
		dividend := 0.0
		if dividendDays[i] {
			dividend = 0.24
		}
		c := closePrice(i)
		rows[i] = []frame.Value{
			frame.DateValue(d),
			frame.NumberValue(c - 1),
			frame.NumberValue(c + 2),
			frame.NumberValue(c - 2),
			frame.NumberValue(c),
			frame.NumberValue(float64(50_000_000 + 1000*i)),
			frame.NumberValue(dividend),
			frame.NumberValue(0),
		}
	}
	table, err := frame.New(constants.HistoricalData,
		[]string{"Date", "Open", "High", "Low", "Close", "Volume", "Dividends", "Stock Splits"}, rows)
	require.NoError(t, err)
	return table
}

func dividendsFixture(t *testing.T, days []time.Time, indexes []int) *frame.Table {
	t.Helper()
	rows := make([][]frame.Value, 0, len(indexes))
	for _, i := range indexes {
		rows = append(rows, []frame.Value{frame.DateValue(days[i]), frame.NumberValue(0.24), frame.StringValue("declared")})
	}
	table, err := frame.New(constants.Dividends, []string{"Date", "Dividends", "Status"}, rows)
	require.NoError(t, err)
	return table
}

// statementFixture mimics a transposed financial statement: the period date
// sits in an unlabeled index column.
func statementFixture(t *testing.T, kind string, dates []time.Time, metrics ...string) *frame.Table {
	t.Helper()
	columns := append([]string{"Unnamed: 0"}, metrics...)
	rows := make([][]frame.Value, len(dates))
	for i, d := range dates {
		row := []frame.Value{frame.DateValue(d)}
		for j := range metrics {
			row = append(row, frame.NumberValue(float64(1_000_000*(i+1)+j)))
		}
		rows[i] = row
	}
	table, err := frame.New(kind, columns, rows)
	require.NoError(t, err)
	return table
}

// companyInfoFixture carries every attribute the default star schema needs
// from company info, plus the unlabeled index column a dataframe writer adds.
func companyInfoFixture(t *testing.T, symbol string) *frame.Table {
	t.Helper()
	columns := []string{"Unnamed: 0"}
	row := []frame.Value{frame.NumberValue(0)}
	for _, spec := range DefaultSchemaSpec().Tables {
		for _, c := range spec.Columns {
			if slices.Contains(historicalColumns, c) || slices.Contains(columns, c) {
				continue
			}
			columns = append(columns, c)
			switch {
			case c == "symbol":
				row = append(row, frame.StringValue(symbol))
			case slices.Contains(textAttributes, c):
				row = append(row, frame.StringValue(symbol+" "+c))
			default:
				row = append(row, frame.NumberValue(float64(len(c))))
			}
		}
	}
	table, err := frame.New(constants.CompanyInfo, columns, [][]frame.Value{row})
	require.NoError(t, err)
	return table
}

// rawFixture is a year of prices with a quarterly dividend and statements on trading days.
func rawFixture(t *testing.T, symbol string, n int) Raw {
	t.Helper()
	days := tradingDays(time.Date(2023, 1, 2, 0, 0, 0, 0, est), n, est)

	var dividendIdx []int
	dividendDays := make(map[int]bool)
	for i := 5; i < n; i += 21 {
		dividendIdx = append(dividendIdx, i)
		dividendDays[i] = true
	}

	var statementDates []time.Time
	for i := n - 1; i >= 0; i -= 63 {
		d := days[i]
		statementDates = append(statementDates, time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC))
	}

	return Raw{
		constants.HistoricalData:  historicalFixture(t, days, dividendDays),
		constants.Dividends:       dividendsFixture(t, days, dividendIdx),
		constants.IncomeStatement: statementFixture(t, constants.IncomeStatement, statementDates, "Total Revenue", "Net Income"),
		constants.BalanceSheet:    statementFixture(t, constants.BalanceSheet, statementDates, "Total Assets"),
		constants.CashFlow:        statementFixture(t, constants.CashFlow, statementDates, "Free Cash Flow"),
		constants.CompanyInfo:     companyInfoFixture(t, symbol),
	}
}

func writeRaw(t *testing.T, dir, symbol string, raw Raw) {
	t.Helper()
	for kind, table := range raw {
		f, err := os.Create(filepath.Join(dir, RawFileName(symbol, kind)))
		require.NoError(t, err)
		require.NoError(t, frame.WriteCSV(f, table))
		require.NoError(t, f.Close())
	}
}

func withCell(t *testing.T, table *frame.Table, row int, column string, v frame.Value) *frame.Table {
	t.Helper()
	values, err := table.Column(column)
	require.NoError(t, err)
	values[row] = v
	out, err := table.WithColumn(column, values)
	require.NoError(t, err)
	return out
}
