package transform

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/PavanSai0211/Finance-Reporting-Project/constants"
	"github.com/PavanSai0211/Finance-Reporting-Project/frame"
)

// Derived columns added to the historical price table.
const (
	ShortMAColumn    = "50-Day MA"
	LongMAColumn     = "200-Day MA"
	ReturnColumn     = "Daily_Return"
	VolatilityColumn = "Rolling_Volatility"

	CloseColumn = "Close"
)

const (
	shortWindow      = 50
	longWindow       = 200
	volatilityWindow = 30
)

// Columns written by older versions of the extract; removed when present.
var legacyColumns = []string{"50_MA", "200_MA", "Year-Month", "Difference"}

// Header names a dataframe writer uses for an unlabeled row index.
var placeholderColumns = []string{"", "Unnamed: 0"}

// Tables whose row index was written out as an unlabeled first column holding the period date.
var indexedKinds = []string{constants.IncomeStatement, constants.BalanceSheet, constants.CashFlow}

// Raw and Cleaned hold one table per dataset kind.
type (
	Raw     map[string]*frame.Table
	Cleaned map[string]*frame.Table
)

// RawFileName is the file name of one raw dataset, e.g. AAPL_dividends.csv.
func RawFileName(symbol, kind string) string {
	return fmt.Sprintf("%s_%s.csv", strings.ToUpper(symbol), kind)
}

// CleanedFileName is the file name a cleaned dataset is persisted under.
func CleanedFileName(kind string) string {
	return fmt.Sprintf("cleaned_%s.csv", kind)
}

// LoadRaw reads the six raw datasets of one symbol from dir.
func LoadRaw(dir, symbol string) (Raw, error) {
	raw := make(Raw, len(constants.DatasetKinds))
	var errs []error
	for _, kind := range constants.DatasetKinds {
		table, err := frame.ReadCSVFile(filepath.Join(dir, RawFileName(symbol, kind)))
		if err != nil {
			errs = append(errs, fmt.Errorf("error loading %s for %s: %w", kind, symbol, err))
			continue
		}
		raw[kind] = table.Renamed(kind)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return raw, nil
}

// Clean imputes missing values, derives the price statistics and tidies the
// headers of the raw datasets. The input tables are left untouched.
func Clean(raw Raw, logger *slog.Logger) (Cleaned, error) {
	for _, kind := range constants.DatasetKinds {
		if raw[kind] == nil {
			return nil, fmt.Errorf("error cleaning datasets: %s is missing", kind)
		}
	}

	cleaned := make(Cleaned, len(constants.DatasetKinds))
	for _, kind := range constants.DatasetKinds {
		table := raw[kind]

		switch {
		case kind == constants.CompanyInfo:
			table = table.Drop(placeholderColumns...)
		case slices.Contains(indexedKinds, kind):
			table = renamePlaceholder(table)
		}

		if kind == constants.HistoricalData {
			var err error
			table, err = cleanHistorical(table)
			if err != nil {
				return nil, err
			}
		} else {
			table = table.FillForwardBackward()
		}

		if kind == constants.BalanceSheet || kind == constants.CashFlow {
			deduped, err := table.DropDuplicates(constants.DateColumn)
			if err != nil {
				return nil, fmt.Errorf("error de-duplicating %s: %w", kind, err)
			}
			if removed := table.Len() - deduped.Len(); removed > 0 {
				logger.Info(fmt.Sprintf("Removed %d duplicate dates from %s", removed, kind))
			}
			table = deduped
		}

		cleaned[kind] = table.Renamed(kind)
		logger.Info(fmt.Sprintf("Cleaned %s", kind),
			"rows", table.Len(),
			"columns", table.Width(),
			"missing", table.MissingCount(),
		)
	}

	return cleaned, nil
}

func renamePlaceholder(table *frame.Table) *frame.Table {
	if table.Has(constants.DateColumn) {
		return table
	}
	for _, c := range placeholderColumns {
		if table.Has(c) {
			return table.Rename(map[string]string{c: constants.DateColumn})
		}
	}
	return table
}

func cleanHistorical(table *frame.Table) (*frame.Table, error) {
	if missing := table.MissingColumns([]string{constants.DateColumn, CloseColumn}); len(missing) > 0 {
		return nil, &MissingColumnsError{Table: constants.HistoricalData, Columns: missing}
	}

	table, err := table.MapColumn(constants.DateColumn, frame.AsDate)
	if err != nil {
		return nil, err
	}
	table, err = table.SortBy(constants.DateColumn)
	if err != nil {
		return nil, err
	}

	// The Date column is the index; it is never imputed.
	others := make([]string, 0, table.Width())
	for _, c := range table.Columns {
		if c != constants.DateColumn {
			others = append(others, c)
		}
	}
	table = table.FillForwardBackward(others...)

	closes, err := table.Column(CloseColumn)
	if err != nil {
		return nil, err
	}
	returns := frame.PctChange(closes)
	derived := []struct {
		name   string
		values []frame.Value
	}{
		{ShortMAColumn, frame.RollingMean(closes, shortWindow)},
		{LongMAColumn, frame.RollingMean(closes, longWindow)},
		{ReturnColumn, returns},
		{VolatilityColumn, frame.RollingStd(returns, volatilityWindow)},
	}
	for _, d := range derived {
		table, err = table.WithColumn(d.name, frame.FillBackward(frame.FillForward(d.values)))
		if err != nil {
			return nil, err
		}
	}

	return table.Drop(legacyColumns...), nil
}
