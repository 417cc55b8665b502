package transform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PavanSai0211/Finance-Reporting-Project/frame"
)

const FactTableName = "fact_financials"

// TableSpec declares one star-schema table as a projection of the merged table.
type TableSpec struct {
	Name     string   `mapstructure:"name"`
	Columns  []string `mapstructure:"columns"`
	Distinct bool     `mapstructure:"distinct"`
}

// SchemaSpec lists the star-schema tables in load order. The first entry is the fact table.
type SchemaSpec struct {
	Tables []TableSpec `mapstructure:"tables"`
}

// MissingColumnsError reports the configured columns a table could not be built from.
type MissingColumnsError struct {
	Table   string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("table %s: missing columns %s", e.Table, strings.Join(e.Columns, ", "))
}

// DefaultSchemaSpec is one fact table and five dimension tables over the
// merged company dataset.
func DefaultSchemaSpec() SchemaSpec {
	return SchemaSpec{Tables: []TableSpec{
		{
			Name: FactTableName,
			Columns: []string{
				"Date", "Open", "High", "Low", "Close", "Volume", "Dividends_x", "Stock Splits",
				"previousClose", "dayLow", "dayHigh", "marketCap", "enterpriseValue", "totalRevenue",
				"grossProfits", "ebitda", "returnOnAssets", "returnOnEquity", "debtToEquity", "currentRatio",
				"quickRatio", "earningsGrowth", "revenueGrowth", "priceToBook", "priceEpsCurrentYear",
				"trailingPE", "forwardPE", "symbol",
			},
		},
		{
			Name: "dim_company",
			Columns: []string{
				"symbol", "shortName", "longName", "industry", "industryKey", "industryDisp", "sector",
				"sectorKey", "sectorDisp", "longBusinessSummary", "fullTimeEmployees", "companyOfficers",
				"auditRisk", "boardRisk", "compensationRisk", "shareHolderRightsRisk", "overallRisk",
				"governanceEpochDate", "compensationAsOfEpochDate", "irWebsite", "website",
			},
			Distinct: true,
		},
		{
			Name: "dim_market",
			Columns: []string{
				"exchange", "market", "fullExchangeName", "exchangeTimezoneName", "exchangeTimezoneShortName",
				"currency", "financialCurrency", "tradeable", "cryptoTradeable", "priceHint", "quoteType",
			},
			Distinct: true,
		},
		{
			Name:     "dim_location",
			Columns:  []string{"symbol", "address1", "city", "state", "zip", "country", "phone"},
			Distinct: true,
		},
		{
			Name: "dim_dividends",
			Columns: []string{
				"symbol", "dividendRate", "dividendYield", "exDividendDate", "payoutRatio",
				"fiveYearAvgDividendYield", "lastDividendValue", "lastDividendDate",
			},
			Distinct: true,
		},
		{
			Name: "dim_stock_performance",
			Columns: []string{
				"symbol", "fiftyTwoWeekLow", "fiftyTwoWeekHigh", "fiftyDayAverage", "twoHundredDayAverage",
				"trailingAnnualDividendRate", "trailingAnnualDividendYield", "epsTrailingTwelveMonths",
				"epsForward", "epsCurrentYear", "fiftyDayAverageChange", "fiftyDayAverageChangePercent",
				"twoHundredDayAverageChange", "twoHundredDayAverageChangePercent",
			},
			Distinct: true,
		},
	}}
}

// Validate checks that every table has a unique name and at least one column.
func (s SchemaSpec) Validate() error {
	if len(s.Tables) == 0 {
		return errors.New("star schema has no tables")
	}
	seen := make(map[string]bool, len(s.Tables))
	for i, t := range s.Tables {
		if t.Name == "" {
			return fmt.Errorf("star schema table %d has no name", i)
		}
		if seen[t.Name] {
			return fmt.Errorf("star schema table %s is declared twice", t.Name)
		}
		seen[t.Name] = true
		if len(t.Columns) == 0 {
			return fmt.Errorf("star schema table %s has no columns", t.Name)
		}
	}
	return nil
}

// TableNames returns the configured table names in order.
func (s SchemaSpec) TableNames() []string {
	names := make([]string, len(s.Tables))
	for i, t := range s.Tables {
		names[i] = t.Name
	}
	return names
}

// StarSchema holds the built tables in the order of the SchemaSpec.
type StarSchema struct {
	Tables []*frame.Table
}

// Table returns the table with the given name, or nil.
func (s *StarSchema) Table(name string) *frame.Table {
	for _, t := range s.Tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Split projects the merged table onto every table of the schema. Every table
// is checked before any is returned; missing columns of all tables are
// reported together as joined *MissingColumnsError values.
func Split(merged *frame.Table, spec SchemaSpec) (*StarSchema, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	var errs []error
	for _, t := range spec.Tables {
		if missing := merged.MissingColumns(t.Columns); len(missing) > 0 {
			errs = append(errs, &MissingColumnsError{Table: t.Name, Columns: missing})
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("error building star schema: %w", err)
	}

	schema := &StarSchema{Tables: make([]*frame.Table, 0, len(spec.Tables))}
	for _, t := range spec.Tables {
		table, err := merged.Select(t.Columns...)
		if err != nil {
			return nil, err
		}
		if t.Distinct {
			table = table.Distinct()
		}
		schema.Tables = append(schema.Tables, table.Renamed(t.Name))
	}
	return schema, nil
}

// Combine stacks the per-symbol star schemas table by table and
// de-duplicates the distinct tables again.
func Combine(spec SchemaSpec, schemas ...*StarSchema) (*StarSchema, error) {
	if len(schemas) == 0 {
		return nil, errors.New("received no star schemas to combine")
	}
	if len(schemas) == 1 {
		return schemas[0], nil
	}

	combined := &StarSchema{Tables: make([]*frame.Table, 0, len(spec.Tables))}
	for _, t := range spec.Tables {
		parts := make([]*frame.Table, 0, len(schemas))
		for i, s := range schemas {
			part := s.Table(t.Name)
			if part == nil {
				return nil, fmt.Errorf("star schema %d has no table %s", i+1, t.Name)
			}
			parts = append(parts, part)
		}
		table, err := frame.Concat(parts...)
		if err != nil {
			return nil, fmt.Errorf("error combining %s: %w", t.Name, err)
		}
		if t.Distinct {
			table = table.Distinct()
		}
		combined.Tables = append(combined.Tables, table.Renamed(t.Name))
	}
	return combined, nil
}
