package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"github.com/PavanSai0211/Finance-Reporting-Project/frame"
)

const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"

	sheetName = "Report"
)

// Querier is the read side of the warehouse.
type Querier interface {
	QueryTable(query string) (*frame.Table, error)
	QualifiedName(table string) string
}

type MonthlyRow struct {
	Month            string  `csv:"month"`
	AvgOpen          float64 `csv:"avg_open"`
	AvgClose         float64 `csv:"avg_close"`
	MaxHigh          float64 `csv:"max_high"`
	MinLow           float64 `csv:"min_low"`
	AvgTradingVolume float64 `csv:"avg_trading_volume"`
}

func (r *MonthlyRow) cells() []any {
	return []any{r.Month, r.AvgOpen, r.AvgClose, r.MaxHigh, r.MinLow, r.AvgTradingVolume}
}

type YearlyRow struct {
	Year         int     `csv:"year"`
	Symbol       string  `csv:"symbol"`
	TotalRevenue float64 `csv:"total_revenue"`
	TotalEBITDA  float64 `csv:"total_ebitda"`
}

func (r *YearlyRow) cells() []any {
	return []any{r.Year, r.Symbol, r.TotalRevenue, r.TotalEBITDA}
}

var (
	monthlyHeader = []string{"month", "avg_open", "avg_close", "max_high", "min_low", "avg_trading_volume"}
	yearlyHeader  = []string{"year", "symbol", "total_revenue", "total_ebitda"}
)

type row interface {
	cells() []any
}

// Report is a rendered report file.
type Report struct {
	Period Period
	Path   string
	Rows   int
}

// Builder renders the report of a period from the derived tables.
type Builder struct {
	Warehouse Querier
	Format    string
	Dir       string
	Logger    *slog.Logger
}

// Query selects the rows of a period: kpi_yearly_report for a year, and the
// monthly performance joined with the monthly volume for a month.
func Query(q Querier, p Period) string {
	if p.Kind == Yearly {
		return fmt.Sprintf(
			"SELECT year, symbol, total_revenue, total_ebitda FROM %s WHERE year = %d ORDER BY symbol;",
			q.QualifiedName("kpi_yearly_report"), p.Start.Year(),
		)
	}
	return fmt.Sprintf(
		"SELECT CAST(p.month AS DATE) AS month, p.avg_open, p.avg_close, p.max_high, p.min_low, v.avg_trading_volume "+
			"FROM %s AS p JOIN %s AS v ON CAST(p.month AS DATE) = CAST(v.month AS DATE) "+
			"WHERE CAST(p.month AS DATE) >= DATE '%s' AND CAST(p.month AS DATE) < DATE '%s' ORDER BY 1;",
		q.QualifiedName("agg_monthly_stock_performance"), q.QualifiedName("agg_monthly_volume"),
		p.Start.Format(frame.DateLayout), p.End.Format(frame.DateLayout),
	)
}

func (b *Builder) Build(p Period) (*Report, error) {
	table, err := b.Warehouse.QueryTable(Query(b.Warehouse, p))
	if err != nil {
		return nil, fmt.Errorf("error querying %s report data: %w", p.Kind, err)
	}
	data, err := frame.MarshalCSV(table)
	if err != nil {
		return nil, fmt.Errorf("error rendering %s report data: %w", p.Kind, err)
	}

	var rows []row
	var header []string
	var decoded any
	if p.Kind == Yearly {
		var yearly []*YearlyRow
		if err := gocsv.UnmarshalBytes(data, &yearly); err != nil {
			return nil, fmt.Errorf("error decoding yearly report rows: %w", err)
		}
		rows, header, decoded = asRows(yearly), yearlyHeader, &yearly
	} else {
		var monthly []*MonthlyRow
		if err := gocsv.UnmarshalBytes(data, &monthly); err != nil {
			return nil, fmt.Errorf("error decoding monthly report rows: %w", err)
		}
		rows, header, decoded = asRows(monthly), monthlyHeader, &monthly
	}

	if len(rows) == 0 {
		b.Logger.Warn(fmt.Sprintf("No data found for %s", p.Title()))
	}

	if err := os.MkdirAll(b.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory %s: %w", b.Dir, err)
	}
	format := b.Format
	if format == "" {
		format = FormatXLSX
	}
	path := filepath.Join(b.Dir, p.FileName(format))

	switch format {
	case FormatXLSX:
		err = writeXLSX(path, header, rows)
	case FormatCSV:
		err = writeCSV(path, decoded)
	default:
		err = fmt.Errorf("unsupported report format %q", format)
	}
	if err != nil {
		return nil, err
	}

	b.Logger.Info(fmt.Sprintf("Built %s", p.Title()), "path", path, "rows", len(rows))
	return &Report{Period: p, Path: path, Rows: len(rows)}, nil
}

func asRows[T row](in []T) []row {
	out := make([]row, len(in))
	for i, r := range in {
		out[i] = r
	}
	return out
}

func writeXLSX(path string, header []string, rows []row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := r.cells()
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// writeCSV encodes the decoded rows, so the csv report has the same typed
// columns as the xlsx one.
func writeCSV(path string, rows any) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(rows, file); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
