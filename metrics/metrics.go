package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "finreport_build_info",
		Help: "Build information of the finreport binary",
	}, []string{"version", "commit", "date"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "finreport_stage_duration_seconds",
		Help:    "Duration of each pipeline stage",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	}, []string{"stage"})

	StageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finreport_stage_failures_total",
		Help: "Number of failed pipeline stages",
	}, []string{"stage"})

	RowsWritten = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "finreport_rows_written",
		Help: "Rows written to the warehouse by the last run, per table",
	}, []string{"table"})

	DerivedTableFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finreport_derived_table_failures_total",
		Help: "Number of derived tables that failed to materialize",
	}, []string{"table"})

	ReportsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finreport_reports_sent_total",
		Help: "Number of reports delivered, per period kind and outcome",
	}, []string{"kind", "status"})

	DownloadedBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finreport_downloaded_bytes_total",
		Help: "Bytes downloaded per dataset kind",
	}, []string{"kind"})
)
