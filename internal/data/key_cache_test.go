package data

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickerwatch/tickerwatch/internal/domain"
)

type fakeKeySource struct {
	key   domain.APIKey
	err   error
	calls int
}

func (f *fakeKeySource) Get(ctx context.Context, service string) (domain.APIKey, error) {
	f.calls++
	if f.err != nil {
		return domain.APIKey{}, f.err
	}
	return f.key, nil
}

type memCache struct {
	values map[string][]byte
	getErr error
}

func newMemCache() *memCache {
	return &memCache{values: map[string][]byte{}}
}

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	v, ok := c.values[key]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.values[key] = value
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) (bool, error) {
	_, ok := c.values[key]
	delete(c.values, key)
	return ok, nil
}

func TestCachedKeyProvider_ReadThrough(t *testing.T) {
	source := &fakeKeySource{key: domain.APIKey{Service: "Polygon.io", Key: "secret-1"}}
	cache := newMemCache()
	provider := NewCachedKeyProvider(CachedKeyProviderOptions{Source: source, Cache: cache})

	got, err := provider.APIKey(context.Background(), "Polygon.io")
	require.NoError(t, err)
	assert.Equal(t, "secret-1", got)
	assert.Equal(t, 1, source.calls)

	// Second lookup is served from cache.
	got, err = provider.APIKey(context.Background(), "Polygon.io")
	require.NoError(t, err)
	assert.Equal(t, "secret-1", got)
	assert.Equal(t, 1, source.calls)
}

func TestCachedKeyProvider_CacheFailureFallsBack(t *testing.T) {
	source := &fakeKeySource{key: domain.APIKey{Service: "Polygon.io", Key: "secret-2"}}
	cache := newMemCache()
	cache.getErr = errors.New("redis down")
	provider := NewCachedKeyProvider(CachedKeyProviderOptions{Source: source, Cache: cache})

	got, err := provider.APIKey(context.Background(), "Polygon.io")
	require.NoError(t, err)
	assert.Equal(t, "secret-2", got)
	assert.Equal(t, 1, source.calls)
}

func TestCachedKeyProvider_InvalidateForcesReload(t *testing.T) {
	source := &fakeKeySource{key: domain.APIKey{Service: "Polygon.io", Key: "secret-3"}}
	cache := newMemCache()
	provider := NewCachedKeyProvider(CachedKeyProviderOptions{Source: source, Cache: cache})

	_, err := provider.APIKey(context.Background(), "Polygon.io")
	require.NoError(t, err)

	require.NoError(t, provider.Invalidate(context.Background(), "Polygon.io"))

	source.key.Key = "secret-rotated"
	got, err := provider.APIKey(context.Background(), "Polygon.io")
	require.NoError(t, err)
	assert.Equal(t, "secret-rotated", got)
	assert.Equal(t, 2, source.calls)
}
