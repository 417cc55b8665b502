package constants

const TmpCSVFile = "finreport_tmp_*.csv"

// Dataset kinds, also the suffix of the raw file names ({SYMBOL}_{kind}.csv).
const (
	IncomeStatement = "income_statement"
	BalanceSheet    = "balance_sheet"
	CashFlow        = "cashflow"
	CompanyInfo     = "company_info"
	Dividends       = "dividends"
	HistoricalData  = "historical_data"
)

// DatasetKinds lists every raw dataset in load order.
var DatasetKinds = []string{
	IncomeStatement,
	BalanceSheet,
	CashFlow,
	CompanyInfo,
	Dividends,
	HistoricalData,
}

const (
	DateColumn   = "Date"
	SymbolColumn = "symbol"
)

const MergedFile = "merged_data.csv"
