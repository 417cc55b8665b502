package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/PavanSai0211/Finance-Reporting-Project/config"
)

// Runner runs the report job of one period kind.
type Runner interface {
	Run(ctx context.Context, kind Kind) (*Report, error)
}

// Scheduler triggers the report job on cron specs. It holds no state between
// runs; each trigger computes its own period.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	logger *slog.Logger
}

// NewScheduler registers report.schedule.monthly and report.schedule.yearly.
// An empty spec disables that report.
func NewScheduler(ctx context.Context, schedule config.ScheduleConfig, runner Runner, logger *slog.Logger) (*Scheduler, error) {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger)),
		),
		runner: runner,
		logger: logger,
	}

	specs := []struct {
		kind Kind
		spec string
	}{
		{Monthly, schedule.Monthly},
		{Yearly, schedule.Yearly},
	}
	for _, sp := range specs {
		if sp.spec == "" {
			continue
		}
		kind := sp.kind
		if _, err := s.cron.AddFunc(sp.spec, func() { s.trigger(ctx, kind) }); err != nil {
			return nil, fmt.Errorf("invalid %s schedule %q: %w", kind, sp.spec, err)
		}
		logger.Info(fmt.Sprintf("Scheduled %s report", kind), "spec", sp.spec)
	}

	if len(s.cron.Entries()) == 0 {
		return nil, fmt.Errorf("no report schedule configured")
	}
	return s, nil
}

func (s *Scheduler) trigger(ctx context.Context, kind Kind) {
	if _, err := s.runner.Run(ctx, kind); err != nil {
		s.logger.Error(fmt.Sprintf("Scheduled %s report failed", kind), "error", err)
	}
}

// Entries is the number of registered schedules.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// Next is the activation following from for each registered schedule, in
// registration order. Only meaningful before Run.
func (s *Scheduler) Next(from time.Time) []time.Time {
	entries := s.cron.Entries()
	next := make([]time.Time, len(entries))
	for i, e := range entries {
		next[i] = e.Schedule.Next(from)
	}
	return next
}

// Run starts the scheduler and blocks until ctx is cancelled and running jobs finish.
func (s *Scheduler) Run(ctx context.Context) {
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("Report scheduler stopped")
}
