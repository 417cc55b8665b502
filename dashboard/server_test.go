package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PavanSai0211/Finance-Reporting-Project/frame"
	"github.com/PavanSai0211/Finance-Reporting-Project/report"
)

var discardLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

type fakeWarehouse struct {
	tables  map[string]*frame.Table
	queries []string
}

func (f *fakeWarehouse) QualifiedName(table string) string {
	return `"finance_data"."` + table + `"`
}

func (f *fakeWarehouse) QueryTable(query string) (*frame.Table, error) {
	f.queries = append(f.queries, query)
	for name, table := range f.tables {
		if strings.Contains(query, f.QualifiedName(name)) {
			return table, nil
		}
	}
	return nil, errors.New("Catalog Error: table does not exist")
}

type fakeReports struct {
	err error
}

func (f *fakeReports) Run(_ context.Context, kind report.Kind) (*report.Report, error) {
	if f.err != nil {
		return nil, f.err
	}
	p := report.PreviousPeriod(kind, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))
	return &report.Report{Period: p, Path: "/tmp/" + p.FileName("xlsx"), Rows: 3}, nil
}

func mustTable(t *testing.T, columns []string, rows ...[]frame.Value) *frame.Table {
	t.Helper()
	table, err := frame.New("query", columns, rows)
	require.NoError(t, err)
	return table
}

func num(f float64) frame.Value { return frame.NumberValue(f) }

func testWarehouse(t *testing.T) *fakeWarehouse {
	day := func(d int) frame.Value { return frame.DateValue(time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)) }
	return &fakeWarehouse{tables: map[string]*frame.Table{
		"fact_financials": mustTable(t, ohlcColumns,
			[]frame.Value{day(2), num(187.15), num(188.44), num(183.89), num(185.64)},
			[]frame.Value{day(3), num(184.22), num(185.88), num(183.43), num(184.25)},
		),
		"kpi_avg_daily_volume": mustTable(t, []string{"year", "avg_daily_volume"},
			[]frame.Value{num(2023), num(59e6)},
			[]frame.Value{num(2024), num(61e6)},
		),
		"kpi_yearly_report": mustTable(t, []string{"year", "symbol", "total_revenue", "total_ebitda"},
			[]frame.Value{num(2024), frame.StringValue("AAPL"), num(10), frame.Null},
		),
		"risk_governance_mart": mustTable(t, []string{"symbol", "overallRisk"},
			[]frame.Value{frame.StringValue("AAPL"), num(1)},
		),
	}}
}

func newTestServer(t *testing.T, reports ReportRunner) (*httptest.Server, *fakeWarehouse) {
	wh := testWarehouse(t)
	s := &Server{Warehouse: wh, Reports: reports, Logger: discardLogger}
	ts := httptest.NewServer(s.Routes())
	t.Cleanup(ts.Close)
	return ts, wh
}

func TestTableEndpoints(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
		expectedBody   string
		expectedQuery  string
	}{
		{
			name:           "kpi table",
			method:         http.MethodGet,
			path:           "/kpis/kpi_avg_daily_volume",
			expectedStatus: http.StatusOK,
			expectedBody:   `"avg_daily_volume":59000000`,
			expectedQuery:  `SELECT * FROM "finance_data"."kpi_avg_daily_volume";`,
		},
		{
			name:           "missing values are null",
			method:         http.MethodGet,
			path:           "/kpis/kpi_yearly_report",
			expectedStatus: http.StatusOK,
			expectedBody:   `"total_ebitda":null`,
		},
		{
			name:           "mart preview is limited",
			method:         http.MethodGet,
			path:           "/marts/risk_governance_mart",
			expectedStatus: http.StatusOK,
			expectedBody:   `"symbol":"AAPL"`,
			expectedQuery:  `SELECT * FROM "finance_data"."risk_governance_mart" LIMIT 10;`,
		},
		{
			name:           "table outside the allow-list",
			method:         http.MethodGet,
			path:           "/kpis/fact_financials",
			expectedStatus: http.StatusNotFound,
			expectedBody:   `unknown table \"fact_financials\"`,
		},
		{
			name:           "aggregate not in the kpi list",
			method:         http.MethodGet,
			path:           "/kpis/agg_monthly_volume",
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "query failure",
			method:         http.MethodGet,
			path:           "/aggregates/agg_monthly_volume",
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "error reading agg_monthly_volume",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, wh := newTestServer(t, nil)

			req, err := http.NewRequest(tt.method, ts.URL+tt.path, nil)
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			raw, err := json.Marshal(body)
			require.NoError(t, err)
			if tt.expectedBody != "" {
				assert.Contains(t, string(raw), tt.expectedBody)
			}
			if tt.expectedQuery != "" {
				assert.Equal(t, []string{tt.expectedQuery}, wh.queries)
			}
		})
	}
}

func TestSendReport(t *testing.T) {
	tests := []struct {
		name           string
		reports        ReportRunner
		kind           string
		expectedStatus int
		expectedBody   string
	}{
		{name: "sent", reports: &fakeReports{}, kind: "monthly", expectedStatus: http.StatusOK, expectedBody: `"period":"2024-05"`},
		{name: "bad kind", reports: &fakeReports{}, kind: "weekly", expectedStatus: http.StatusBadRequest, expectedBody: "unsupported report kind"},
		{name: "not configured", kind: "yearly", expectedStatus: http.StatusServiceUnavailable, expectedBody: "not configured"},
		{name: "send failure", reports: &fakeReports{err: errors.New("smtp down")}, kind: "yearly", expectedStatus: http.StatusInternalServerError, expectedBody: "smtp down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, _ := newTestServer(t, tt.reports)

			resp, err := http.Post(ts.URL+"/reports/"+tt.kind, "application/json", nil)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			raw, _ := json.Marshal(body)
			assert.Contains(t, string(raw), tt.expectedBody)
		})
	}
}

func TestPages(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	tests := []struct {
		path         string
		expectedBody string
	}{
		{path: "/", expectedBody: `href="/kpis/kpi_yearly_report/chart"`},
		{path: "/charts/ohlc", expectedBody: "OHLC Stock Price Movement"},
		{path: "/kpis/kpi_avg_daily_volume/chart", expectedBody: "avg_daily_volume"},
		{path: "/healthz", expectedBody: "ok"},
		{path: "/metrics", expectedBody: "go_goroutines"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(ts.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			var sb strings.Builder
			_, err = sb.ReadFrom(resp.Body)
			require.NoError(t, err)
			assert.Contains(t, sb.String(), tt.expectedBody)
		})
	}
}

func TestKPIBar(t *testing.T) {
	wh := testWarehouse(t)

	bar, err := kpiBar("kpi_yearly_report", wh.tables["kpi_yearly_report"])
	require.NoError(t, err)
	assert.Equal(t, []string{"total_revenue"}, seriesNames(bar), "all-missing columns are not plotted")

	_, err = kpiBar("dim_company", mustTable(t, []string{"symbol"}, []frame.Value{frame.StringValue("AAPL")}))
	assert.EqualError(t, err, "dim_company has no year column")
}

func TestOHLCKlineMissingColumns(t *testing.T) {
	_, err := ohlcKline(mustTable(t, []string{"Date", "Close"}))
	assert.ErrorContains(t, err, "fact table is missing columns [Open High Low]")
}

func seriesNames(bar *charts.Bar) []string {
	names := make([]string, 0, len(bar.MultiSeries))
	for _, s := range bar.MultiSeries {
		names = append(names, s.Name)
	}
	return names
}
