package pipeline

import (
	"errors"
	"fmt"
	"slices"
	"text/template"

	"github.com/PavanSai0211/Finance-Reporting-Project/metrics"
	sqlfs "github.com/PavanSai0211/Finance-Reporting-Project/sql"
	sqltemplate "github.com/PavanSai0211/Finance-Reporting-Project/template"
)

var (
	AggregateTables = []string{
		"agg_monthly_volume",
		"agg_monthly_stock_performance",
		"agg_yearly_dividend_yield",
		"agg_annual_price_volatility",
	}
	KPITables = []string{
		"kpi_avg_daily_volume",
		"kpi_avg_closing_price",
		"kpi_yearly_report",
	}
	MartTables = []string{
		"profitability_mart",
		"market_performance_mart",
		"risk_governance_mart",
		"dividend_analysis_mart",
	}
)

// DerivedTables is the execution order: aggregates, KPIs, then marts.
func DerivedTables() []string {
	return slices.Concat(AggregateTables, KPITables, MartTables)
}

// DerivedSQL renders the statements that materialize one derived table.
func DerivedSQL(wh Warehouse, table string) (string, error) {
	funcs := template.FuncMap{"table": wh.QualifiedName}
	return sqltemplate.ExecuteSqlTemplateFS(sqlfs.Derived, "derived/"+table+".sql", nil, funcs)
}

// Derive materializes every derived table from the loaded star schema. A
// failing table is recorded and the remaining ones still run.
func (p *Pipeline) Derive() (int, error) {
	var errorList []error
	created := 0
	for _, table := range DerivedTables() {
		query, err := DerivedSQL(p.Warehouse, table)
		if err == nil {
			err = p.Warehouse.RunQuery(query)
		}
		if err != nil {
			metrics.DerivedTableFailures.WithLabelValues(table).Inc()
			errorList = append(errorList, fmt.Errorf("error creating derived table %s: %w", table, err))
			continue
		}
		created++
		p.Logger.Debug(fmt.Sprintf("Created derived table %s", table))
	}

	if len(errorList) > 0 {
		p.Logger.Info(fmt.Sprintf("Created %d derived tables; failed on %d tables", created, len(errorList)))
		return created, errors.Join(errorList...)
	}

	p.Logger.Info(fmt.Sprintf("Created %d derived tables", created))
	return created, nil
}
