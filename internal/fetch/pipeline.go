package fetch

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/tickerwatch/tickerwatch/config"
	"github.com/tickerwatch/tickerwatch/internal/core"
	"github.com/tickerwatch/tickerwatch/internal/domain"
	apperrors "github.com/tickerwatch/tickerwatch/internal/errors"
)

// Waiter paces outbound requests. *rate.Limiter satisfies it; tests
// substitute a no-op.
type Waiter interface {
	Wait(ctx context.Context) error
}

// Pipeline pulls daily aggregates for a date range through a
// rate-limited worker pool and batches the records into the price
// store. A run is idempotent: the store upserts on the natural key, so
// re-running a range overwrites rather than duplicates.
type Pipeline struct {
	source  core.AggregatesAPI
	store   core.PriceStore
	limiter Waiter
	cfg     config.FetcherConfig
	logger  *slog.Logger

	// sleep is swapped out in tests so cooldowns don't stall the suite.
	sleep func(ctx context.Context, d time.Duration) error
}

// PipelineOptions groups dependencies for NewPipeline.
type PipelineOptions struct {
	Source  core.AggregatesAPI   // Required
	Store   core.PriceStore      // Required
	Config  config.FetcherConfig // Required
	Limiter Waiter               // Optional: defaults to the configured per-minute pace
	Logger  *slog.Logger         // Optional
}

// NewPipeline creates a Pipeline.
func NewPipeline(opts PipelineOptions) *Pipeline {
	cfg := opts.Config
	cfg.Sanitize()

	limiter := opts.Limiter
	if limiter == nil {
		// Burst of one: requests spread evenly across the minute instead
		// of front-loading the window.
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.MaxRequestsPerMinute)), 1)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source:  opts.Source,
		store:   opts.Store,
		limiter: limiter,
		cfg:     cfg,
		logger:  logger.With("component", "fetch_pipeline"),
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RunResult summarizes one pipeline run.
type RunResult struct {
	DaysFetched   int
	DaysClosed    int
	DaysSkipped   int
	Records       int
	RateLimitHits int
}

// RunRange fetches every day in [start, end] inclusive. Days that hit
// the rate limit cool down and retry; once the shared 429 count reaches
// the configured ceiling the whole run aborts. A non-429 upstream
// failure costs only that day: it is logged, counted as skipped, and
// the run moves on. Records already flushed before an abort stay
// written.
func (p *Pipeline) RunRange(ctx context.Context, start, end time.Time) (RunResult, error) {
	start = dateOnly(start)
	end = dateOnly(end)
	if end.Before(start) {
		return RunResult{}, apperrors.Validationf("fetch range end %s before start %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	var daysFetched, daysClosed, daysSkipped, recordsWritten, rateLimitHits atomic.Int64

	g, gctx := errgroup.WithContext(ctx)

	days := make(chan time.Time)
	batches := make(chan []domain.StockPrice, p.cfg.QueueDepth)

	// Feeder walks the range day by day.
	g.Go(func() error {
		defer close(days)
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			select {
			case days <- d:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	// Worker pool. The batches channel closes once every worker is done
	// so the consumer knows to do its final flush.
	workers, wctx := errgroup.WithContext(gctx)
	g.Go(func() error {
		defer close(batches)
		for range p.cfg.Workers {
			workers.Go(func() error {
				return p.runWorker(wctx, days, batches, &workerCounters{
					daysFetched: &daysFetched,
					daysClosed:  &daysClosed,
					daysSkipped: &daysSkipped,
					hits:        &rateLimitHits,
				})
			})
		}
		return workers.Wait()
	})

	// Single consumer owns the write path.
	g.Go(func() error {
		return p.consume(gctx, batches, &recordsWritten)
	})

	err := g.Wait()

	result := RunResult{
		DaysFetched:   int(daysFetched.Load()),
		DaysClosed:    int(daysClosed.Load()),
		DaysSkipped:   int(daysSkipped.Load()),
		Records:       int(recordsWritten.Load()),
		RateLimitHits: int(rateLimitHits.Load()),
	}
	if err != nil {
		return result, err
	}

	p.logger.InfoContext(ctx, "fetch range complete",
		"start", start.Format("2006-01-02"),
		"end", end.Format("2006-01-02"),
		"days_fetched", result.DaysFetched,
		"days_closed", result.DaysClosed,
		"days_skipped", result.DaysSkipped,
		"records", result.Records,
		"rate_limit_hits", result.RateLimitHits)
	return result, nil
}

type workerCounters struct {
	daysFetched *atomic.Int64
	daysClosed  *atomic.Int64
	daysSkipped *atomic.Int64
	hits        *atomic.Int64
}

func (p *Pipeline) runWorker(
	ctx context.Context,
	days <-chan time.Time,
	batches chan<- []domain.StockPrice,
	counters *workerCounters,
) error {
	for {
		var day time.Time
		var ok bool
		select {
		case day, ok = <-days:
			if !ok {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}

		records, err := p.fetchWithCooldown(ctx, day, counters.hits)
		if err != nil {
			// A hard upstream failure costs only that day. Rate-limit
			// ceiling and context errors still abort the run.
			if apperrors.IsExternal(err) {
				p.logger.WarnContext(ctx, "skipping day after hard upstream error",
					"day", day.Format("2006-01-02"), "error", err)
				counters.daysSkipped.Add(1)
				continue
			}
			return err
		}
		if len(records) == 0 {
			counters.daysClosed.Add(1)
			continue
		}
		counters.daysFetched.Add(1)

		select {
		case batches <- records:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// fetchWithCooldown fetches one day, cooling down and retrying on 429.
// The hit counter is shared across workers: the ceiling applies to the
// whole run, not per day.
func (p *Pipeline) fetchWithCooldown(ctx context.Context, day time.Time, hits *atomic.Int64) ([]domain.StockPrice, error) {
	for {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		records, err := p.source.FetchDay(ctx, day)
		if err == nil {
			return records, nil
		}
		if !apperrors.IsRateLimited(err) {
			return nil, err
		}

		total := hits.Add(1)
		if total >= int64(p.cfg.MaxRateLimitHits) {
			p.logger.ErrorContext(ctx, "rate limit ceiling reached, aborting run",
				"day", day.Format("2006-01-02"), "hits", total)
			return nil, apperrors.Wrapf(err, apperrors.ErrCodeRateLimited,
				"aborting after %d rate-limit responses", total)
		}

		p.logger.WarnContext(ctx, "rate limited, cooling down",
			"day", day.Format("2006-01-02"),
			"hits", total,
			"cooldown", p.cfg.RateLimitCooldown)
		if err := p.sleep(ctx, p.cfg.RateLimitCooldown); err != nil {
			return nil, err
		}
	}
}

// consume buffers incoming records and flushes in fixed-size batches.
// A partial batch flushes when the queue stays quiet past the idle
// timeout, and whatever remains flushes when the channel closes.
func (p *Pipeline) consume(ctx context.Context, batches <-chan []domain.StockPrice, written *atomic.Int64) error {
	buf := make([]domain.StockPrice, 0, p.cfg.BatchSize)

	idle := time.NewTimer(p.cfg.IdleFlushTimeout)
	defer idle.Stop()
	resetIdle := func() {
		if !idle.Stop() {
			select {
			case <-idle.C:
			default:
			}
		}
		idle.Reset(p.cfg.IdleFlushTimeout)
	}

	flush := func(n int) error {
		if n == 0 {
			return nil
		}
		if err := p.store.UpsertBatch(ctx, buf[:n]); err != nil {
			return err
		}
		written.Add(int64(n))
		buf = append(buf[:0], buf[n:]...)
		return nil
	}

	for {
		select {
		case records, ok := <-batches:
			if !ok {
				return flush(len(buf))
			}
			buf = append(buf, records...)
			for len(buf) >= p.cfg.BatchSize {
				if err := flush(p.cfg.BatchSize); err != nil {
					return err
				}
			}
			resetIdle()
		case <-idle.C:
			if err := flush(len(buf)); err != nil {
				return err
			}
			idle.Reset(p.cfg.IdleFlushTimeout)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
