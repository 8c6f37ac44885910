package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/tickerwatch/tickerwatch/internal/core"
)

// LastSnapshotCacheKey holds the capture timestamp of the most recent
// stored screener snapshot, RFC 3339 encoded.
const LastSnapshotCacheKey = "screener:last_captured_at"

// ScrapeService executes the screener side of a job: one full-universe
// snapshot per run, persisted as an append-only batch.
type ScrapeService struct {
	screener core.ScreenerAPI
	store    core.ScrapeStore
	cache    core.Cache
	logger   *slog.Logger
}

// ScrapeServiceOptions holds the dependencies for creating a ScrapeService.
type ScrapeServiceOptions struct {
	Screener core.ScreenerAPI // Required
	Store    core.ScrapeStore // Required
	Cache    core.Cache       // Optional: records the latest snapshot timestamp
	Logger   *slog.Logger     // Optional
}

// NewScrapeService creates a new ScrapeService with the given dependencies.
func NewScrapeService(opts ScrapeServiceOptions) *ScrapeService {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &ScrapeService{
		screener: opts.Screener,
		store:    opts.Store,
		cache:    opts.Cache,
		logger:   opts.Logger.With("component", "scrape"),
	}
}

// RunOnce fetches one screener snapshot and stores it. Returns the
// number of rows captured. An empty snapshot is stored as nothing and
// is not an error.
func (s *ScrapeService) RunOnce(ctx context.Context) (int, error) {
	rows, err := s.screener.FetchSnapshot(ctx)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		s.logger.WarnContext(ctx, "screener snapshot came back empty")
		return 0, nil
	}

	if err := s.store.InsertBatch(ctx, rows); err != nil {
		return 0, err
	}
	s.recordSnapshotTime(ctx, rows[0].CapturedAt)

	s.logger.InfoContext(ctx, "screener snapshot stored", "rows", len(rows))
	return len(rows), nil
}

// recordSnapshotTime caches the capture timestamp so readers can tell
// how fresh the latest snapshot is without a table scan. Cache failures
// are logged and swallowed: the snapshot itself is already persisted.
func (s *ScrapeService) recordSnapshotTime(ctx context.Context, capturedAt time.Time) {
	if s.cache == nil {
		return
	}
	value := []byte(capturedAt.UTC().Format(time.RFC3339))
	if err := s.cache.Set(ctx, LastSnapshotCacheKey, value, 24*time.Hour); err != nil {
		s.logger.WarnContext(ctx, "failed to cache snapshot timestamp", "error", err)
	}
}
