package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/PavanSai0211/Finance-Reporting-Project/config"
	"github.com/PavanSai0211/Finance-Reporting-Project/pipeline"
	"github.com/PavanSai0211/Finance-Reporting-Project/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build and email the periodic financial reports",
}

func newReportJob(cfg *config.Config, log *slog.Logger, wh pipeline.Warehouse) (*report.Job, error) {
	mailer, err := report.NewMailer(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("error creating mailer: %w", err)
	}
	builder := &report.Builder{
		Warehouse: wh,
		Format:    cfg.Report.Format,
		Dir:       cfg.Report.Dir,
		Logger:    log,
	}
	return report.NewJob(builder, mailer, log), nil
}

func newReportSendCmd() *cobra.Command {
	var kindFlag string

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Builds the report of the last complete period and emails it",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := report.ParseKind(kindFlag)
			if err != nil {
				return err
			}
			cfg, log, err := initializeConfigAndLogger()
			if err != nil {
				return err
			}

			wh, err := pipeline.OpenWarehouse(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer wh.Close()

			job, err := newReportJob(cfg, log, wh)
			if err != nil {
				return err
			}
			r, err := job.Run(cmd.Context(), kind)
			if err != nil {
				log.Error(fmt.Sprintf("Error sending %s report: %v", kind, err))
				return err
			}
			log.Info(fmt.Sprintf("Sent %s", r.Period.Title()), "rows", r.Rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&kindFlag, "kind", string(report.Monthly), "Report period: monthly or yearly")
	return cmd
}

func newReportScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Sends the reports on the report.schedule cron specs until interrupted",
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

			job, err := newReportJob(cfg, log, wh)
			if err != nil {
				return err
			}
			scheduler, err := report.NewScheduler(ctx, cfg.Report.Schedule, job, log)
			if err != nil {
				return err
			}

			scheduler.Run(ctx)
			return nil
		},
	}
}
