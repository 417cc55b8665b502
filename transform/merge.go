package transform

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/PavanSai0211/Finance-Reporting-Project/constants"
	"github.com/PavanSai0211/Finance-Reporting-Project/frame"
)

const (
	MergedTableName = "merged_data"

	// InfoSuffix marks a company attribute whose name is already taken by a time-series column.
	InfoSuffix = "_info"
)

var (
	NumericDefault     = frame.NumberValue(0)
	CategoricalDefault = frame.StringValue("Unknown")
)

// Right-hand tables joined onto the historical prices, in join order.
var joinOrder = []string{
	constants.Dividends,
	constants.CashFlow,
	constants.BalanceSheet,
	constants.IncomeStatement,
}

// Merge left-joins the cleaned time series onto the historical prices by
// calendar day and broadcasts the company attributes onto every row. The
// result has exactly one row per valid historical Date and no missing cells.
func Merge(cleaned Cleaned, logger *slog.Logger) (*frame.Table, error) {
	for _, kind := range constants.DatasetKinds {
		if cleaned[kind] == nil {
			return nil, fmt.Errorf("error merging datasets: %s is missing", kind)
		}
	}

	merged, err := normalizeDates(cleaned[constants.HistoricalData])
	if err != nil {
		return nil, err
	}

	for _, kind := range joinOrder {
		right, err := normalizeDates(cleaned[kind])
		if err != nil {
			return nil, err
		}
		merged, err = frame.LeftJoin(merged, right, constants.DateColumn)
		if err != nil {
			return nil, fmt.Errorf("error joining %s: %w", kind, err)
		}
	}

	merged = merged.DropAllMissingColumns().Distinct()
	if merged, err = merged.DropMissing(constants.DateColumn); err != nil {
		return nil, err
	}

	collapsed, err := merged.DropDuplicates(constants.DateColumn)
	if err != nil {
		return nil, err
	}
	if removed := merged.Len() - collapsed.Len(); removed > 0 {
		logger.Warn(fmt.Sprintf("Join produced %d extra rows for repeated dates, keeping the first row per date", removed))
	}
	merged = collapsed.FillMissing(NumericDefault, CategoricalDefault)

	merged, err = broadcastCompany(merged, cleaned[constants.CompanyInfo])
	if err != nil {
		return nil, err
	}
	merged = merged.FillMissing(NumericDefault, CategoricalDefault).Renamed(MergedTableName)

	logger.Info(fmt.Sprintf("Merged dataset has %d rows and %d columns", merged.Len(), merged.Width()),
		"missing", merged.MissingCount(),
	)

	return merged, nil
}

func normalizeDates(table *frame.Table) (*frame.Table, error) {
	out, err := table.MapColumn(constants.DateColumn, frame.CalendarDay)
	if err != nil {
		return nil, fmt.Errorf("error normalizing dates of %s: %w", table.Name, err)
	}
	return out, nil
}

// broadcastCompany turns the single company-info row into constant columns.
func broadcastCompany(merged, info *frame.Table) (*frame.Table, error) {
	if info.Len() == 0 {
		return nil, fmt.Errorf("error broadcasting company info: %s has no rows", info.Name)
	}

	attrs := info.Rows[0]
	columns := slices.Clone(merged.Columns)
	for _, c := range info.Columns {
		if slices.Contains(merged.Columns, c) {
			c += InfoSuffix
		}
		columns = append(columns, c)
	}

	rows := make([][]frame.Value, merged.Len())
	for i, row := range merged.Rows {
		out := make([]frame.Value, 0, len(columns))
		out = append(out, row...)
		rows[i] = append(out, attrs...)
	}

	out, err := frame.New(merged.Name, columns, rows)
	if err != nil {
		return nil, fmt.Errorf("error broadcasting company info: %w", err)
	}
	return out, nil
}
