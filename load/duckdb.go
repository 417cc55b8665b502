package load

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/marcboeker/go-duckdb"

	"github.com/PavanSai0211/Finance-Reporting-Project/config"
	"github.com/PavanSai0211/Finance-Reporting-Project/constants"
	"github.com/PavanSai0211/Finance-Reporting-Project/frame"
)

const defaultDuckDBSchema = "main"

type DuckDB struct {
	Logger    *slog.Logger
	DB        *sql.DB
	Connector *duckdb.Connector
	DBType    string
	Dataset   string
}

func NewDuckDB(config *config.Config, logger *slog.Logger) (*DuckDB, error) {
	var path string
	var dbType string
	if strings.HasPrefix(config.DuckDB.Path, "md:") {
		motherduckToken := os.Getenv("MOTHERDUCK_TOKEN")
		if motherduckToken == "" {
			return nil, fmt.Errorf("MOTHERDUCK_TOKEN env variable is not set")
		}
		path = fmt.Sprintf("%s?motherduck_token=%s", config.DuckDB.Path, motherduckToken)
		dbType = ":md:"
	} else if config.DuckDB.Path == "" || config.DuckDB.Path == ":memory:" {
		path = ""
		dbType = ":memory:"
	} else {
		path = config.DuckDB.Path
		dbType = path
	}

	var connInitFn func(driver.ExecerContext) error
	if len(config.DuckDB.ConnInitFnQueries) > 0 {
		connInitFn = func(exec driver.ExecerContext) error {
			for _, path := range config.DuckDB.ConnInitFnQueries {
				query, err := readQuery(path)
				if err != nil {
					return err
				}

				_, err = exec.ExecContext(context.Background(), string(query), nil)
				if err != nil {
					return fmt.Errorf("failed to execute query from file %s: %w", path, err)
				}
			}
			return nil
		}
		logger.Debug(fmt.Sprintf("Connection initialization queries: %v", config.DuckDB.ConnInitFnQueries))
	}

	connector, err := duckdb.NewConnector(path, connInitFn)
	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(connector)

	dataset := config.Warehouse.Dataset
	if dataset == "" {
		dataset = defaultDuckDBSchema
	}
	duck := &DuckDB{
		Logger:    logger,
		DB:        db,
		Connector: connector,
		DBType:    dbType,
		Dataset:   dataset,
	}

	if err := duck.RunQuery(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s;", quoteIdent(dataset))); err != nil {
		duck.Close()
		return nil, fmt.Errorf("failed to create schema %s: %w", dataset, err)
	}

	switch dbType {
	case ":memory:":
		logger.Info("Connected to DuckDB in-memory database")
	case ":md:":
		logger.Info("Connected to MotherDuck database")
	default:
		logger.Info(fmt.Sprintf("Connected to local DuckDB database at %s", dbType))
	}

	return duck, nil
}

func readQuery(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}

	query, err := io.ReadAll(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file %s: %w", path, err)
	}
	return query, nil
}

func (db *DuckDB) Close() {
	db.DB.Close()
	db.Connector.Close()
}

// QualifiedName is the schema-qualified, quoted name of a table in the dataset.
func (db *DuckDB) QualifiedName(table string) string {
	return quoteIdent(db.Dataset) + "." + quoteIdent(table)
}

// ReplaceTable drops and recreates the table from the frame's CSV rendering,
// letting DuckDB infer the column types.
func (db *DuckDB) ReplaceTable(name string, table *frame.Table) (int, error) {
	csv, err := frame.MarshalCSV(table)
	if err != nil {
		return 0, fmt.Errorf("failed to render %s as CSV: %w", name, err)
	}

	tmpFile, err := createTmpFile(csv)
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmpFile.Name())

	query := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv('%s', delim=',', quote='\"', escape='\"', header=true, auto_detect=true);",
		db.QualifiedName(name), tmpFile.Name(),
	)
	db.Logger.Debug("Executing DuckDB query", "query", query)

	if _, err := db.DB.ExecContext(context.Background(), query); err != nil {
		return 0, fmt.Errorf("failed to replace table %s: %w", name, err)
	}

	return table.Len(), nil
}

func createTmpFile(csv []byte) (*os.File, error) {
	if len(csv) == 0 {
		return nil, fmt.Errorf("received empty CSV data")
	}

	tmpFile, err := os.CreateTemp("", constants.TmpCSVFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}

	if _, err := tmpFile.Write(csv); err != nil {
		tmpFile.Close()
		return nil, fmt.Errorf("failed to write to temporary file: %w", err)
	}

	// Close the file to flush the data
	if err := tmpFile.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temporary file: %w", err)
	}

	return tmpFile, nil
}

func (db *DuckDB) RunQuery(query string) error {
	_, err := db.DB.ExecContext(context.Background(), query)
	if err != nil {
		return fmt.Errorf("failed to execute query: %w", err)
	}
	return nil
}

// GetQueryResults executes a query and returns the results as a map of column names to slices of values
func (db *DuckDB) GetQueryResults(query string) (map[string][]string, error) {
	table, err := db.QueryTable(query)
	if err != nil {
		return nil, err
	}
	return resultsByColumn(table), nil
}

// QueryTable executes a query and returns the rows in column order.
func (db *DuckDB) QueryTable(query string) (*frame.Table, error) {
	rows, err := db.DB.QueryContext(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	return scanTable(rows)
}

// scanTable reads every row of a database/sql result set into a frame.
func scanTable(rows *sql.Rows) (*frame.Table, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	var out [][]frame.Value
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make([]frame.Value, len(columns))
		for i, v := range values {
			row[i] = frame.FromAny(v)
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}

	return frame.New("query", columns, out)
}

func resultsByColumn(table *frame.Table) map[string][]string {
	results := make(map[string][]string, table.Width())
	for i, col := range table.Columns {
		values := make([]string, 0, table.Len())
		for _, row := range table.Rows {
			values = append(values, row[i].String())
		}
		results[col] = values
	}
	return results
}

// quoteIdent quotes an SQL identifier; the syntax is shared by DuckDB and Postgres.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
