// Package core defines the interfaces between the tickerwatch services
// and their collaborators: stores, caches, and external data sources.
package core

import (
	"context"
	"time"

	"github.com/tickerwatch/tickerwatch/internal/domain"
)

// ScheduleStore defines persistence for job schedule rows.
// Implementations must keep the composite natural key unique; inserting
// a duplicate key is a no-op, not an error.
type ScheduleStore interface {
	// Insert persists a new schedule row. Returns created=false when a
	// row with the same composite key already exists.
	Insert(ctx context.Context, s domain.JobSchedule) (bool, error)

	// Get returns the row for the composite key, or nil when absent.
	Get(ctx context.Context, key domain.ScheduleKey) (*domain.JobSchedule, error)

	// List returns every persisted schedule row.
	List(ctx context.Context) ([]domain.JobSchedule, error)

	// UpdateStatus sets the lifecycle status of a row.
	UpdateStatus(ctx context.Context, key domain.ScheduleKey, status domain.Status) error

	// UpdateRunTime records the formatted run duration audit string.
	UpdateRunTime(ctx context.Context, key domain.ScheduleKey, runTime string) error

	// Delete removes a row. Returns true if a row was deleted.
	Delete(ctx context.Context, key domain.ScheduleKey) (bool, error)
}

// PriceStore persists OHLC aggregates. UpsertBatch replaces any existing
// row with the same (ticker, period end) natural key, making pipeline
// re-runs idempotent.
type PriceStore interface {
	UpsertBatch(ctx context.Context, records []domain.StockPrice) error
}

// ScrapeStore persists screener snapshot rows keyed by
// (ticker, captured at).
type ScrapeStore interface {
	InsertBatch(ctx context.Context, rows []domain.ScreenerRow) error
}

// KeyProvider resolves the current credential for an external service.
// Looked up per call so key rotation takes effect on the next request
// without a restart.
type KeyProvider interface {
	APIKey(ctx context.Context, service string) (string, error)
}

// AggregatesAPI is the external daily-aggregates source.
// FetchDay returns the records for one market day; an empty slice with a
// nil error means the market was closed. Rate-limit responses surface as
// errors.IsRateLimited, other upstream failures as errors.IsExternal.
type AggregatesAPI interface {
	FetchDay(ctx context.Context, day time.Time) ([]domain.StockPrice, error)
}

// ScreenerAPI is the external screener/scrape source: one full-universe
// snapshot per call.
type ScreenerAPI interface {
	FetchSnapshot(ctx context.Context) ([]domain.ScreenerRow, error)
}

// Cache is a minimal byte cache with TTL semantics. Get returns
// (nil, nil) when the key is absent.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) (bool, error)
}
