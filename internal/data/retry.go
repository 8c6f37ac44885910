package data

import (
	"context"
	"log/slog"
	"time"

	"github.com/tickerwatch/tickerwatch/internal/core"
	"github.com/tickerwatch/tickerwatch/internal/domain"
	apperrors "github.com/tickerwatch/tickerwatch/internal/errors"
)

// RetryConfig controls the bounded retry applied to schedule store calls.
type RetryConfig struct {
	// Attempts is the total number of tries, including the first.
	Attempts int
	// Backoff is the fixed delay between tries.
	Backoff time.Duration
}

// DefaultRetryConfig matches the store contract: 3 attempts with a fixed
// one-second backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{Attempts: 3, Backoff: time.Second}
}

// RetryingScheduleStore wraps a ScheduleStore and retries every call a
// bounded number of times on transient storage failure before surfacing
// the error. The wrapper is uniform: reads and writes get the same
// policy.
type RetryingScheduleStore struct {
	inner  core.ScheduleStore
	cfg    RetryConfig
	logger *slog.Logger

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// RetryingScheduleStoreOptions groups dependencies for NewRetryingScheduleStore.
type RetryingScheduleStoreOptions struct {
	Inner  core.ScheduleStore // Required
	Config RetryConfig        // Optional: defaults to DefaultRetryConfig
	Logger *slog.Logger       // Optional
}

// NewRetryingScheduleStore wraps the given store with the retry policy.
func NewRetryingScheduleStore(opts RetryingScheduleStoreOptions) *RetryingScheduleStore {
	cfg := opts.Config
	if cfg.Attempts <= 0 {
		cfg = DefaultRetryConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryingScheduleStore{
		inner:  opts.Inner,
		cfg:    cfg,
		logger: logger.With("component", "schedule_store"),
		sleep:  sleepCtx,
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

// withRetry runs fn up to cfg.Attempts times, sleeping the fixed backoff
// between tries. Non-retryable errors (not-found, conflict, validation)
// surface immediately.
func withRetry[T any](ctx context.Context, s *RetryingScheduleStore, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 1; attempt <= s.cfg.Attempts; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if !apperrors.Retryable(err) {
			return zero, err
		}
		lastErr = err
		if attempt == s.cfg.Attempts {
			break
		}
		s.logger.WarnContext(ctx, "schedule store call failed, retrying",
			"op", op, "attempt", attempt, "error", err)
		if sleepErr := s.sleep(ctx, s.cfg.Backoff); sleepErr != nil {
			return zero, sleepErr
		}
	}
	return zero, apperrors.Wrapf(lastErr, apperrors.ErrCodeTransientStore,
		"%s failed after %d attempts", op, s.cfg.Attempts)
}

// Insert implements core.ScheduleStore.
func (s *RetryingScheduleStore) Insert(ctx context.Context, sched domain.JobSchedule) (bool, error) {
	return withRetry(ctx, s, "insert", func(ctx context.Context) (bool, error) {
		return s.inner.Insert(ctx, sched)
	})
}

// Get implements core.ScheduleStore.
func (s *RetryingScheduleStore) Get(ctx context.Context, key domain.ScheduleKey) (*domain.JobSchedule, error) {
	return withRetry(ctx, s, "get", func(ctx context.Context) (*domain.JobSchedule, error) {
		return s.inner.Get(ctx, key)
	})
}

// List implements core.ScheduleStore.
func (s *RetryingScheduleStore) List(ctx context.Context) ([]domain.JobSchedule, error) {
	return withRetry(ctx, s, "list", func(ctx context.Context) ([]domain.JobSchedule, error) {
		return s.inner.List(ctx)
	})
}

// UpdateStatus implements core.ScheduleStore.
func (s *RetryingScheduleStore) UpdateStatus(ctx context.Context, key domain.ScheduleKey, status domain.Status) error {
	_, err := withRetry(ctx, s, "update_status", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.inner.UpdateStatus(ctx, key, status)
	})
	return err
}

// UpdateRunTime implements core.ScheduleStore.
func (s *RetryingScheduleStore) UpdateRunTime(ctx context.Context, key domain.ScheduleKey, runTime string) error {
	_, err := withRetry(ctx, s, "update_run_time", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.inner.UpdateRunTime(ctx, key, runTime)
	})
	return err
}

// Delete implements core.ScheduleStore.
func (s *RetryingScheduleStore) Delete(ctx context.Context, key domain.ScheduleKey) (bool, error) {
	return withRetry(ctx, s, "delete", func(ctx context.Context) (bool, error) {
		return s.inner.Delete(ctx, key)
	})
}
