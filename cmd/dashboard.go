package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/PavanSai0211/Finance-Reporting-Project/dashboard"
	"github.com/PavanSai0211/Finance-Reporting-Project/pipeline"
)

func newDashboardCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Serves the KPI, aggregate and data-mart dashboard over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := initializeConfigAndLogger()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			wh, err := pipeline.OpenWarehouse(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer wh.Close()

			server := &dashboard.Server{Warehouse: wh, Logger: log}
			// Report delivery is optional; the dashboard still serves without SMTP settings.
			if job, err := newReportJob(cfg, log, wh); err != nil {
				log.Warn(fmt.Sprintf("Report delivery disabled: %v", err))
			} else {
				server.Reports = job
			}

			if addr == "" {
				addr = cfg.Dashboard.Addr
			}
			return server.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, defaults to dashboard.addr")
	return cmd
}
