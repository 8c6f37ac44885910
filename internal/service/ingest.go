package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/tickerwatch/tickerwatch/config"
	"github.com/tickerwatch/tickerwatch/internal/data"
	"github.com/tickerwatch/tickerwatch/internal/domain"
	"github.com/tickerwatch/tickerwatch/internal/fetch"
)

// RangeRunner runs the rate-limited aggregates pipeline over a date
// range. *fetch.Pipeline satisfies it.
type RangeRunner interface {
	RunRange(ctx context.Context, start, end time.Time) (fetch.RunResult, error)
}

// IngestService executes the aggregates side of a job: it resolves the
// fetch window of a schedule row and drives the pipeline across it.
type IngestService struct {
	pipeline     RangeRunner
	cfg          config.FetcherConfig
	timeProvider data.TimeProvider
	logger       *slog.Logger
}

// IngestServiceOptions holds the dependencies for creating an IngestService.
type IngestServiceOptions struct {
	Pipeline     RangeRunner          // Required
	Config       config.FetcherConfig // Required
	TimeProvider data.TimeProvider    // Optional: defaults to real time
	Logger       *slog.Logger         // Optional
}

// NewIngestService creates a new IngestService with the given dependencies.
func NewIngestService(opts IngestServiceOptions) *IngestService {
	if opts.TimeProvider == nil {
		opts.TimeProvider = &data.RealTimeProvider{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &IngestService{
		pipeline:     opts.Pipeline,
		cfg:          opts.Config,
		timeProvider: opts.TimeProvider,
		logger:       opts.Logger.With("component", "ingest"),
	}
}

// FetchWindow resolves the date range a schedule row should fetch.
// Rows without an explicit window fetch the day before their scheduled
// start: a morning job picks up yesterday's close.
func (s *IngestService) FetchWindow(sched domain.JobSchedule) (start, end time.Time) {
	if sched.FetchStart != nil {
		start = *sched.FetchStart
	} else {
		start = sched.Key.StartAt.AddDate(0, 0, -1)
	}
	if sched.FetchEnd != nil {
		end = *sched.FetchEnd
	} else {
		end = start
	}
	return start, end
}

// Run executes the fetch for one schedule row.
func (s *IngestService) Run(ctx context.Context, sched domain.JobSchedule) (fetch.RunResult, error) {
	start, end := s.FetchWindow(sched)
	s.logger.InfoContext(ctx, "running aggregates fetch",
		"trigger", sched.Key.TriggerLabel(),
		"fetch_start", start.Format("2006-01-02"),
		"fetch_end", end.Format("2006-01-02"))
	return s.pipeline.RunRange(ctx, start, end)
}

// Backfill fetches the full configured history ending today. It reuses
// the same pipeline as scheduled jobs, so it obeys the same pacing and
// circuit breaker.
func (s *IngestService) Backfill(ctx context.Context) (fetch.RunResult, error) {
	end := s.timeProvider.Now().UTC()
	start := end.AddDate(0, 0, -s.cfg.BackfillDays)
	s.logger.InfoContext(ctx, "starting historical backfill",
		"start", start.Format("2006-01-02"),
		"end", end.Format("2006-01-02"),
		"days", s.cfg.BackfillDays)
	return s.pipeline.RunRange(ctx, start, end)
}
