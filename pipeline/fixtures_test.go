package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/PavanSai0211/Finance-Reporting-Project/constants"
	"github.com/PavanSai0211/Finance-Reporting-Project/frame"
	"github.com/PavanSai0211/Finance-Reporting-Project/transform"
)

var discardLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

var priceColumns = []string{"Date", "Open", "High", "Low", "Close", "Volume", "Dividends_x", "Stock Splits"}

// textColumns are company attributes rendered as strings in the fixture.
var textColumns = []string{
	"symbol", "shortName", "longName", "industry", "industryKey", "industryDisp", "sector",
	"sectorKey", "sectorDisp", "longBusinessSummary", "companyOfficers", "irWebsite", "website",
	"exchange", "market", "fullExchangeName", "exchangeTimezoneName", "exchangeTimezoneShortName",
	"currency", "financialCurrency", "quoteType", "address1", "city", "state", "zip", "country", "phone",
}

// tradingDays returns the first n weekdays from 2024-01-02.
func tradingDays(n int) []time.Time {
	days := make([]time.Time, 0, n)
	for d := time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC); len(days) < n; d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			days = append(days, d)
		}
	}
	return days
}

// rawDatasets renders the six raw CSV extracts of a symbol the way the
// upstream export writes them.
func rawDatasets(symbol string, n int) map[string][]byte {
	days := tradingDays(n)
	stamp := func(d time.Time) string { return d.Format("2006-01-02") + " 00:00:00-05:00" }

	var hist strings.Builder
	hist.WriteString("Date,Open,High,Low,Close,Volume,Dividends,Stock Splits\n")
	for i, d := range days {
		c := 100 + float64(i)
		fmt.Fprintf(&hist, "%s,%g,%g,%g,%g,%d,0.0,0.0\n", stamp(d), c-0.5, c+1, c-1, c, 1000*(i+1))
	}

	var div strings.Builder
	div.WriteString("Date,Dividends\n")
	for i := 5; i < n; i += 21 {
		fmt.Fprintf(&div, "%s,0.24\n", stamp(days[i]))
	}

	statement := func(metric string) []byte {
		var b strings.Builder
		fmt.Fprintf(&b, ",%s,Net Income\n", metric)
		for i := n - 1; i >= 0; i -= 20 {
			fmt.Fprintf(&b, "%s,%d,%d\n", days[i].Format("2006-01-02"), 1_000_000*(i+1), 250_000*(i+1))
		}
		return []byte(b.String())
	}

	var infoColumns []string
	for _, t := range transform.DefaultSchemaSpec().Tables {
		for _, c := range t.Columns {
			if !slices.Contains(priceColumns, c) && !slices.Contains(infoColumns, c) {
				infoColumns = append(infoColumns, c)
			}
		}
	}
	values := make([]string, len(infoColumns))
	for i, c := range infoColumns {
		switch {
		case c == "symbol":
			values[i] = strings.ToUpper(symbol)
		case slices.Contains(textColumns, c):
			values[i] = strings.ToUpper(symbol) + " " + c
		default:
			values[i] = fmt.Sprint(len(c))
		}
	}
	info := "Unnamed: 0," + strings.Join(infoColumns, ",") + "\n0," + strings.Join(values, ",") + "\n"

	return map[string][]byte{
		constants.HistoricalData:  []byte(hist.String()),
		constants.Dividends:       []byte(div.String()),
		constants.IncomeStatement: statement("Total Revenue"),
		constants.BalanceSheet:    statement("Total Assets"),
		constants.CashFlow:        statement("Free Cash Flow"),
		constants.CompanyInfo:     []byte(info),
	}
}

func writeRaw(t *testing.T, dir, symbol string, n int) {
	t.Helper()
	for kind, body := range rawDatasets(symbol, n) {
		path := filepath.Join(dir, transform.RawFileName(symbol, kind))
		require.NoError(t, os.WriteFile(path, body, 0o644))
	}
}

type mockWarehouse struct {
	tables  map[string]*frame.Table
	queries []string
	failOn  string
	closed  bool
}

func newMockWarehouse() *mockWarehouse {
	return &mockWarehouse{tables: map[string]*frame.Table{}}
}

func (m *mockWarehouse) ReplaceTable(name string, table *frame.Table) (int, error) {
	if m.failOn != "" && name == m.failOn {
		return 0, fmt.Errorf("table %s is locked", name)
	}
	m.tables[name] = table
	return table.Len(), nil
}

func (m *mockWarehouse) RunQuery(query string) error {
	m.queries = append(m.queries, query)
	if m.failOn != "" && strings.Contains(query, m.failOn) {
		return fmt.Errorf("catalog error: %s", m.failOn)
	}
	return nil
}

func (m *mockWarehouse) GetQueryResults(query string) (map[string][]string, error) {
	return map[string][]string{}, nil
}

func (m *mockWarehouse) QueryTable(query string) (*frame.Table, error) {
	return frame.New("query", nil, nil)
}

func (m *mockWarehouse) QualifiedName(table string) string {
	return `"test"."` + table + `"`
}

func (m *mockWarehouse) Close() {
	m.closed = true
}

type mockDownloader struct {
	failFor string
	calls   []string
}

func (m *mockDownloader) DownloadSymbol(symbol string) (map[string][]byte, error) {
	m.calls = append(m.calls, symbol)
	if symbol == m.failFor {
		return nil, fmt.Errorf("failed to fetch the `historical_data for symbol %s` file, status: 404 Not Found", symbol)
	}
	return rawDatasets(symbol, 40), nil
}

func newTestPipeline(t *testing.T, wh Warehouse, symbols ...string) *Pipeline {
	t.Helper()
	p := &Pipeline{
		Warehouse:   wh,
		Symbols:     symbols,
		DatasetsDir: t.TempDir(),
		OutputDir:   t.TempDir(),
		Schema:      transform.DefaultSchemaSpec(),
	}
	p.SetRunID("test-run", discardLogger)
	return p
}
