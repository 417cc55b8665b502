package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/PavanSai0211/Finance-Reporting-Project/config"
	"github.com/PavanSai0211/Finance-Reporting-Project/constants"
	"github.com/PavanSai0211/Finance-Reporting-Project/extract"
	"github.com/PavanSai0211/Finance-Reporting-Project/frame"
	"github.com/PavanSai0211/Finance-Reporting-Project/load"
	"github.com/PavanSai0211/Finance-Reporting-Project/metrics"
	"github.com/PavanSai0211/Finance-Reporting-Project/transform"
)

// Downloader fetches the raw datasets of one symbol keyed by dataset kind.
type Downloader interface {
	DownloadSymbol(symbol string) (map[string][]byte, error)
}

// Uploader copies finished artifacts to remote storage.
type Uploader interface {
	UploadFiles(ctx context.Context, runID string, files []string) ([]string, error)
}

type Pipeline struct {
	Warehouse  Warehouse
	Downloader Downloader
	Uploader   Uploader
	Logger     *slog.Logger

	RunID       string
	Symbols     []string
	DatasetsDir string
	OutputDir   string
	Parquet     bool
	Schema      transform.SchemaSpec
}

// Summary describes a finished run.
type Summary struct {
	RunID         string
	Symbols       []string
	RowsLoaded    map[string]int
	DerivedTables int
	Files         []string
	Uploaded      []string
}

func NewPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("error validating config: %w", err)
	}

	wh, err := OpenWarehouse(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		Warehouse:   wh,
		Symbols:     cfg.Datasets.Symbols,
		DatasetsDir: cfg.Datasets.Dir,
		OutputDir:   cfg.Output.Dir,
		Parquet:     cfg.Output.Parquet,
		Schema:      cfg.SchemaSpec(),
	}
	p.SetRunID(uuid.NewString(), logger)

	if cfg.Extract.BaseURL != "" {
		client, err := extract.NewMarketDataClient(cfg, p.Logger)
		if err != nil {
			wh.Close()
			return nil, fmt.Errorf("error creating market data client: %w", err)
		}
		p.Downloader = client
	}

	uploader, err := load.NewS3Uploader(ctx, cfg, p.Logger)
	if err != nil {
		wh.Close()
		return nil, fmt.Errorf("error creating S3 uploader: %w", err)
	}
	if uploader != nil {
		p.Uploader = uploader
	}

	return p, nil
}

// SetRunID tags the pipeline and every log line it writes with runID.
func (p *Pipeline) SetRunID(runID string, logger *slog.Logger) {
	p.RunID = runID
	p.Logger = logger.With("run_id", runID)
}

func (p *Pipeline) Close() {
	p.Warehouse.Close()
}

// Run executes download, transform, load and derive for every configured symbol.
func (p *Pipeline) Run(ctx context.Context, skipDownload bool) (*Summary, error) {
	if len(p.Symbols) == 0 {
		return nil, errors.New("no symbols configured in datasets.symbols")
	}
	summary := &Summary{RunID: p.RunID, Symbols: p.Symbols}

	if !skipDownload {
		if err := p.stage("download", func() error {
			_, err := p.Download()
			return err
		}); err != nil {
			return summary, err
		}
	}

	var schema *transform.StarSchema
	if err := p.stage("transform", func() error {
		var err error
		schema, summary.Files, err = p.Transform()
		return err
	}); err != nil {
		return summary, err
	}

	if err := p.stage("load", func() error {
		var err error
		summary.RowsLoaded, err = p.Load(schema)
		return err
	}); err != nil {
		return summary, err
	}

	if err := p.stage("derive", func() error {
		var err error
		summary.DerivedTables, err = p.Derive()
		return err
	}); err != nil {
		return summary, err
	}

	if p.Uploader != nil {
		if err := p.stage("upload", func() error {
			var err error
			summary.Uploaded, err = p.Uploader.UploadFiles(ctx, p.RunID, summary.Files)
			return err
		}); err != nil {
			return summary, err
		}
	}

	p.Logger.Info(fmt.Sprintf("Pipeline run finished for %d symbols", len(p.Symbols)),
		"tables", len(summary.RowsLoaded),
		"derived_tables", summary.DerivedTables,
		"files", len(summary.Files))
	return summary, nil
}

func (p *Pipeline) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StageFailures.WithLabelValues(name).Inc()
		return fmt.Errorf("error in %s stage: %w", name, err)
	}
	p.Logger.Debug(fmt.Sprintf("Stage %s finished", name), "duration", time.Since(start))
	return nil
}

// Download fetches the raw datasets of every symbol into the datasets directory.
func (p *Pipeline) Download() ([]string, error) {
	if p.Downloader == nil {
		return nil, errors.New("extract.base_url is not set; use --skip-download to run on local files")
	}

	var errorList []error
	var paths []string
	for _, symbol := range p.Symbols {
		datasets, err := p.Downloader.DownloadSymbol(symbol)
		if err != nil {
			errorList = append(errorList, fmt.Errorf("error downloading datasets for symbol %s: %w", symbol, err))
			continue
		}
		saved, err := extract.SaveDatasets(p.DatasetsDir, symbol, datasets)
		if err != nil {
			errorList = append(errorList, fmt.Errorf("error saving datasets for symbol %s: %w", symbol, err))
			continue
		}
		paths = append(paths, saved...)
		p.Logger.Info(fmt.Sprintf("Downloaded %d datasets for symbol %s", len(saved), symbol))
	}

	if len(errorList) > 0 {
		return paths, errors.Join(errorList...)
	}
	return paths, nil
}

// Transform cleans, merges and splits every symbol and persists each
// intermediate table. Per-symbol star schemas are combined into one.
func (p *Pipeline) Transform() (*transform.StarSchema, []string, error) {
	var files []string
	schemas := make([]*transform.StarSchema, 0, len(p.Symbols))

	for _, symbol := range p.Symbols {
		dir := p.symbolDir(symbol)

		raw, err := transform.LoadRaw(p.DatasetsDir, symbol)
		if err != nil {
			return nil, files, err
		}

		cleaned, err := transform.Clean(raw, p.Logger.With("symbol", symbol))
		if err != nil {
			return nil, files, fmt.Errorf("error cleaning datasets for symbol %s: %w", symbol, err)
		}
		for _, kind := range constants.DatasetKinds {
			path, err := load.WriteCSV(dir, transform.CleanedFileName(kind), cleaned[kind])
			if err != nil {
				return nil, files, err
			}
			files = append(files, path)
		}

		merged, err := transform.Merge(cleaned, p.Logger.With("symbol", symbol))
		if err != nil {
			return nil, files, fmt.Errorf("error merging datasets for symbol %s: %w", symbol, err)
		}
		path, err := load.WriteCSV(dir, constants.MergedFile, merged)
		if err != nil {
			return nil, files, err
		}
		files = append(files, path)

		schema, err := transform.Split(merged, p.Schema)
		if err != nil {
			return nil, files, fmt.Errorf("error splitting symbol %s: %w", symbol, err)
		}
		schemas = append(schemas, schema)
	}

	schema, err := transform.Combine(p.Schema, schemas...)
	if err != nil {
		return nil, files, err
	}

	for _, table := range schema.Tables {
		written, err := p.persist(table)
		if err != nil {
			return nil, files, err
		}
		files = append(files, written...)
	}

	return schema, files, nil
}

// symbolDir keeps per-symbol intermediates apart when a run covers several symbols.
func (p *Pipeline) symbolDir(symbol string) string {
	if len(p.Symbols) > 1 {
		return filepath.Join(p.OutputDir, strings.ToUpper(symbol))
	}
	return p.OutputDir
}

func (p *Pipeline) persist(table *frame.Table) ([]string, error) {
	path, err := load.WriteCSV(p.OutputDir, table.Name+".csv", table)
	if err != nil {
		return nil, err
	}
	files := []string{path}

	if p.Parquet {
		path, err := load.WriteParquet(p.OutputDir, table.Name+".parquet", table)
		if err != nil {
			return files, err
		}
		files = append(files, path)
	}

	p.Logger.Info(fmt.Sprintf("Saved %s", table.Name), "rows", table.Len(), "columns", table.Width())
	return files, nil
}

// Load replaces every star-schema table in the warehouse.
func (p *Pipeline) Load(schema *transform.StarSchema) (map[string]int, error) {
	loaded := make(map[string]int, len(schema.Tables))
	for _, table := range schema.Tables {
		n, err := p.Warehouse.ReplaceTable(table.Name, table)
		if err != nil {
			return loaded, fmt.Errorf("error loading %s into the warehouse: %w", table.Name, err)
		}
		loaded[table.Name] = n
		metrics.RowsWritten.WithLabelValues(table.Name).Set(float64(n))
		p.Logger.Info(fmt.Sprintf("Loaded %s into %s", table.Name, p.Warehouse.QualifiedName(table.Name)), "rows", n)
	}
	return loaded, nil
}
