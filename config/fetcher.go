package config

import "time"

// FetcherConfig holds configuration for the rate-limited aggregates
// fetch pipeline.
type FetcherConfig struct {
	// BaseURL of the daily-aggregates API.
	BaseURL string `env:"FETCHER_BASE_URL" envDefault:"https://api.polygon.io"`

	// KeyService is the api_keys row looked up per request.
	KeyService string `env:"FETCHER_KEY_SERVICE" envDefault:"Polygon.io"`

	// MaxRequestsPerMinute is the hard external ceiling the producer
	// paces against; it also bounds in-flight fetch workers.
	MaxRequestsPerMinute int `env:"FETCHER_MAX_REQUESTS_PER_MINUTE" envDefault:"5"`

	// RateLimitCooldown is how long a worker sleeps after a 429 before
	// retrying the same day.
	RateLimitCooldown time.Duration `env:"FETCHER_RATE_LIMIT_COOLDOWN" envDefault:"60s"`

	// MaxRateLimitHits is the circuit-breaker ceiling: once this many
	// 429s accumulate within one run, the run aborts and the job fails.
	MaxRateLimitHits int `env:"FETCHER_MAX_RATE_LIMIT_HITS" envDefault:"15"`

	// BatchSize is the consumer's flush threshold.
	BatchSize int `env:"FETCHER_BATCH_SIZE" envDefault:"100"`

	// IdleFlushTimeout flushes a partial batch once the queue has been
	// quiet this long.
	IdleFlushTimeout time.Duration `env:"FETCHER_IDLE_FLUSH_TIMEOUT" envDefault:"60s"`

	// QueueDepth bounds the producer/consumer work queue.
	QueueDepth int `env:"FETCHER_QUEUE_DEPTH" envDefault:"16"`

	// Workers is the number of concurrent fetch workers. The limiter,
	// not this number, governs the request rate.
	Workers int `env:"FETCHER_WORKERS" envDefault:"2"`

	// BackfillDays is the span of the historical backfill operation.
	BackfillDays int `env:"FETCHER_BACKFILL_DAYS" envDefault:"730"`

	// RequestTimeout bounds a single upstream request.
	RequestTimeout time.Duration `env:"FETCHER_REQUEST_TIMEOUT" envDefault:"30s"`
}

// DefaultFetcherConfig returns a FetcherConfig with sensible defaults.
func DefaultFetcherConfig() FetcherConfig {
	cfg := FetcherConfig{BaseURL: "https://api.polygon.io", KeyService: "Polygon.io"}
	cfg.Sanitize()
	return cfg
}

// Sanitize applies guardrails to fetcher configuration values.
func (c *FetcherConfig) Sanitize() {
	if c.MaxRequestsPerMinute <= 0 {
		c.MaxRequestsPerMinute = 5
	}
	if c.RateLimitCooldown <= 0 {
		c.RateLimitCooldown = 60 * time.Second
	}
	if c.MaxRateLimitHits <= 0 {
		c.MaxRateLimitHits = 15
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.IdleFlushTimeout <= 0 {
		c.IdleFlushTimeout = 60 * time.Second
	}
	if c.QueueDepth <= 0 {
		c.QueueDepth = 16
	}
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.BackfillDays <= 0 {
		c.BackfillDays = 730
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
}

// ScreenerConfig holds configuration for the screener scrape client.
type ScreenerConfig struct {
	// URL is the full screener endpoint including the column selection
	// query parameters.
	URL string `env:"SCREENER_URL" envDefault:"https://api.stockanalysis.com/api/screener/s/f?m=s&s=asc&c=s,revenue,marketCap,n,industry,price,change,volume,peRatio&cn=all&p=1&i=stocks&sc=s"`

	// UserAgent is sent with each request; the endpoint rejects clients
	// without a browser-looking agent.
	UserAgent string `env:"SCREENER_USER_AGENT" envDefault:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/87.0.4280.88 Safari/537.36"`

	// RequestTimeout bounds a single snapshot request.
	RequestTimeout time.Duration `env:"SCREENER_REQUEST_TIMEOUT" envDefault:"30s"`
}

// Sanitize applies guardrails to screener configuration values.
func (c *ScreenerConfig) Sanitize() {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
}
