package load

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PavanSai0211/Finance-Reporting-Project/config"
	"github.com/PavanSai0211/Finance-Reporting-Project/frame"
)

const defaultPostgresSchema = "public"

// Postgres column types inferred from frame cells.
const (
	pgDouble      = "double precision"
	pgDate        = "date"
	pgTimestamptz = "timestamptz"
	pgBoolean     = "boolean"
	pgText        = "text"
)

type Postgres struct {
	Logger  *slog.Logger
	Pool    *pgxpool.Pool
	Dataset string
}

// NewPostgres connects to postgres.url, falling back to the DATABASE_URL env variable.
func NewPostgres(ctx context.Context, config *config.Config, logger *slog.Logger) (*Postgres, error) {
	dbURL := config.Postgres.URL
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		return nil, fmt.Errorf("postgres.url is not configured and DATABASE_URL env variable is not set")
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	dataset := config.Warehouse.Dataset
	if dataset == "" {
		dataset = defaultPostgresSchema
	}
	pg := &Postgres{Logger: logger, Pool: pool, Dataset: dataset}

	if err := pg.RunQuery(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s;", quoteIdent(dataset))); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema %s: %w", dataset, err)
	}

	logger.Info(fmt.Sprintf("Connected to Postgres database, using schema %s", dataset))
	return pg, nil
}

func (pg *Postgres) Close() {
	pg.Pool.Close()
}

func (pg *Postgres) QualifiedName(table string) string {
	return quoteIdent(pg.Dataset) + "." + quoteIdent(table)
}

// ReplaceTable drops, recreates and bulk-copies the table in one transaction.
func (pg *Postgres) ReplaceTable(name string, table *frame.Table) (int, error) {
	ctx := context.Background()
	types := columnTypes(table)

	tx, err := pg.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	qualified := pg.QualifiedName(name)
	if _, err := tx.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s;", qualified)); err != nil {
		return 0, fmt.Errorf("failed to drop table %s: %w", name, err)
	}
	if _, err := tx.Exec(ctx, createTableStatement(qualified, table.Columns, types)); err != nil {
		return 0, fmt.Errorf("failed to create table %s: %w", name, err)
	}

	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{pg.Dataset, name},
		table.Columns,
		pgx.CopyFromRows(copyRows(table, types)),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to copy rows into %s: %w", name, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit table %s: %w", name, err)
	}

	pg.Logger.Debug(fmt.Sprintf("Replaced table %s", qualified), "rows", n)
	return int(n), nil
}

func (pg *Postgres) RunQuery(query string) error {
	if _, err := pg.Pool.Exec(context.Background(), query); err != nil {
		return fmt.Errorf("failed to execute query: %w", err)
	}
	return nil
}

// GetQueryResults executes a query and returns the results as a map of column names to slices of values
func (pg *Postgres) GetQueryResults(query string) (map[string][]string, error) {
	table, err := pg.QueryTable(query)
	if err != nil {
		return nil, err
	}
	return resultsByColumn(table), nil
}

func (pg *Postgres) QueryTable(query string) (*frame.Table, error) {
	rows, err := pg.Pool.Query(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	var out [][]frame.Value
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make([]frame.Value, len(values))
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

// columnTypes picks the narrowest Postgres type that holds every present
// value of each column. Mixed or empty columns are text.
func columnTypes(table *frame.Table) []string {
	types := make([]string, table.Width())
	for i := range table.Columns {
		kind := frame.Missing
		mixed := false
		allMidnight := true
		for _, row := range table.Rows {
			v := row[i]
			if v.IsMissing() {
				continue
			}
			if kind != frame.Missing && v.Kind != kind {
				mixed = true
				break
			}
			kind = v.Kind
			if v.Kind == frame.Date {
				_, offset := v.Time.Zone()
				h, m, s := v.Time.Clock()
				if offset != 0 || h != 0 || m != 0 || s != 0 || v.Time.Nanosecond() != 0 {
					allMidnight = false
				}
			}
		}

		switch {
		case mixed:
			types[i] = pgText
		case kind == frame.Number:
			types[i] = pgDouble
		case kind == frame.Date && allMidnight:
			types[i] = pgDate
		case kind == frame.Date:
			types[i] = pgTimestamptz
		case kind == frame.Bool:
			types[i] = pgBoolean
		default:
			types[i] = pgText
		}
	}
	return types
}

func createTableStatement(qualified string, columns, types []string) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = fmt.Sprintf("%s %s", quoteIdent(c), types[i])
	}
	return fmt.Sprintf("CREATE TABLE %s (%s);", qualified, strings.Join(defs, ", "))
}

// copyRows converts cells to the Go values pgx encodes for each column type.
func copyRows(table *frame.Table, types []string) [][]any {
	rows := make([][]any, len(table.Rows))
	for r, row := range table.Rows {
		out := make([]any, len(row))
		for i, v := range row {
			if v.IsMissing() {
				continue
			}
			switch types[i] {
			case pgDouble:
				out[i] = v.Num
			case pgDate, pgTimestamptz:
				out[i] = v.Time
			case pgBoolean:
				out[i] = v.Flag
			default:
				out[i] = v.String()
			}
		}
		rows[r] = out
	}
	return rows
}
