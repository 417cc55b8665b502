package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/PavanSai0211/Finance-Reporting-Project/pipeline"
)

func newRunCmd() *cobra.Command {
	var skipDownload bool
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Downloads, cleans, merges and loads the star schema, then derives the KPI tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := initializeConfigAndLogger()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if metricsAddr != "" {
				shutdown := serveMetrics(metricsAddr, log)
				defer shutdown()
			}

			p, err := pipeline.NewPipeline(ctx, cfg, log)
			if err != nil {
				return fmt.Errorf("error creating pipeline: %w", err)
			}
			defer p.Close()

			summary, err := p.Run(ctx, skipDownload)
			if err != nil {
				p.Logger.Error(fmt.Sprintf("Error running pipeline: %v", err))
				return err
			}
			p.Logger.Info(fmt.Sprintf("Batch job completed without errors. Loaded %d tables and %d derived tables",
				len(summary.RowsLoaded), summary.DerivedTables))
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipDownload, "skip-download", false, "Run on the raw files already in datasets.dir")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while the run is in progress")
	return cmd
}

// serveMetrics exposes /metrics in the background and returns its shutdown func.
func serveMetrics(addr string, log *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		log.Info(fmt.Sprintf("Serving metrics on %s", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server failed", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error("Metrics server shutdown failed", "error", err)
		}
	}
}

func newDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download",
		Short: "Downloads the raw datasets of every configured symbol",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := initializeConfigAndLogger()
			if err != nil {
				return err
			}

			p, err := pipeline.NewPipeline(cmd.Context(), cfg, log)
			if err != nil {
				return fmt.Errorf("error creating pipeline: %w", err)
			}
			defer p.Close()

			paths, err := p.Download()
			if err != nil {
				p.Logger.Error(fmt.Sprintf("Error downloading datasets: %v. Saved %d files", err, len(paths)))
				return err
			}
			p.Logger.Info(fmt.Sprintf("Downloaded %d files into %s", len(paths), cfg.Datasets.Dir))
			return nil
		},
	}
}

func newDeriveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "derive",
		Short: "Recreates the aggregate, KPI and data-mart tables from the loaded star schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := initializeConfigAndLogger()
			if err != nil {
				return err
			}

			wh, err := pipeline.OpenWarehouse(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			p := &pipeline.Pipeline{Warehouse: wh, Logger: log}
			defer p.Close()

			n, err := p.Derive()
			if err != nil {
				log.Error(fmt.Sprintf("Error deriving tables: %v. Created %d tables", err, n))
				return err
			}
			return nil
		},
	}
}
