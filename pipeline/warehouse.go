package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/PavanSai0211/Finance-Reporting-Project/config"
	"github.com/PavanSai0211/Finance-Reporting-Project/frame"
	"github.com/PavanSai0211/Finance-Reporting-Project/load"
)

// Warehouse is the analytical store the star schema is loaded into.
type Warehouse interface {
	ReplaceTable(name string, table *frame.Table) (int, error)
	RunQuery(query string) error
	GetQueryResults(query string) (map[string][]string, error)
	QueryTable(query string) (*frame.Table, error)
	QualifiedName(table string) string
	Close()
}

// OpenWarehouse connects to the warehouse selected by warehouse.driver.
func OpenWarehouse(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Warehouse, error) {
	switch driver := cfg.WarehouseDriver(); driver {
	case config.DriverDuckDB:
		db, err := load.NewDuckDB(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("error creating DuckDB database: %w", err)
		}
		return db, nil
	case config.DriverPostgres:
		pg, err := load.NewPostgres(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("error connecting to Postgres: %w", err)
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unsupported warehouse driver %q", driver)
	}
}
