package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/PavanSai0211/Finance-Reporting-Project/metrics"
)

// Sender delivers a built report.
type Sender interface {
	Send(ctx context.Context, r *Report) error
}

// Job builds the report of the last complete period and sends it.
type Job struct {
	Builder *Builder
	Sender  Sender
	Clock   clockwork.Clock
	Logger  *slog.Logger
}

func NewJob(builder *Builder, sender Sender, logger *slog.Logger) *Job {
	return &Job{Builder: builder, Sender: sender, Clock: clockwork.NewRealClock(), Logger: logger}
}

func (j *Job) Run(ctx context.Context, kind Kind) (*Report, error) {
	period := PreviousPeriod(kind, j.Clock.Now())

	r, err := j.Builder.Build(period)
	if err != nil {
		metrics.ReportsSent.WithLabelValues(string(kind), "failed").Inc()
		return nil, fmt.Errorf("error building %s: %w", period.Title(), err)
	}

	if err := j.Sender.Send(ctx, r); err != nil {
		metrics.ReportsSent.WithLabelValues(string(kind), "failed").Inc()
		return r, err
	}

	metrics.ReportsSent.WithLabelValues(string(kind), "sent").Inc()
	return r, nil
}
