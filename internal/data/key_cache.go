package data

import (
	"context"
	"log/slog"
	"time"

	"github.com/tickerwatch/tickerwatch/internal/core"
	"github.com/tickerwatch/tickerwatch/internal/domain"
)

// keySource is the persistent credential store behind the cache.
type keySource interface {
	Get(ctx context.Context, service string) (domain.APIKey, error)
}

// CachedKeyProvider implements core.KeyProvider with a Redis read-through
// cache in front of the api_keys table. The short TTL bounds how long a
// rotated key keeps being served stale.
type CachedKeyProvider struct {
	source keySource
	cache  core.Cache
	ttl    time.Duration
	logger *slog.Logger
}

// CachedKeyProviderOptions groups dependencies for NewCachedKeyProvider.
type CachedKeyProviderOptions struct {
	Source keySource     // Required
	Cache  core.Cache    // Required
	TTL    time.Duration // Optional: defaults to one minute
	Logger *slog.Logger  // Optional
}

// NewCachedKeyProvider creates a CachedKeyProvider.
func NewCachedKeyProvider(opts CachedKeyProviderOptions) *CachedKeyProvider {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedKeyProvider{
		source: opts.Source,
		cache:  opts.Cache,
		ttl:    ttl,
		logger: logger.With("component", "key_provider"),
	}
}

func cacheKeyFor(service string) string {
	return "api_key:" + service
}

// APIKey returns the current credential for the service, from cache when
// fresh. Cache failures degrade to a direct database read; they never
// fail the lookup.
func (p *CachedKeyProvider) APIKey(ctx context.Context, service string) (string, error) {
	cached, err := p.cache.Get(ctx, cacheKeyFor(service))
	if err != nil {
		p.logger.WarnContext(ctx, "api key cache read failed, falling back to store",
			"service", service, "error", err)
	} else if cached != nil {
		return string(cached), nil
	}

	key, err := p.source.Get(ctx, service)
	if err != nil {
		return "", err
	}

	if err := p.cache.Set(ctx, cacheKeyFor(service), []byte(key.Key), p.ttl); err != nil {
		p.logger.WarnContext(ctx, "api key cache write failed",
			"service", service, "error", err)
	}

	return key.Key, nil
}

// Invalidate drops the cached credential so the next lookup hits the
// store. Called after a rotation.
func (p *CachedKeyProvider) Invalidate(ctx context.Context, service string) error {
	_, err := p.cache.Delete(ctx, cacheKeyFor(service))
	return err
}
