// Package fetch implements the clients for the external market-data
// sources: the daily-aggregates API and the screener snapshot endpoint.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/tickerwatch/tickerwatch/internal/core"
	"github.com/tickerwatch/tickerwatch/internal/domain"
	apperrors "github.com/tickerwatch/tickerwatch/internal/errors"
)

// PolygonClient fetches grouped daily OHLC aggregates. One request
// covers every US ticker for one market day.
type PolygonClient struct {
	baseURL    string
	keyService string
	keys       core.KeyProvider
	httpClient *http.Client
	logger     *slog.Logger
}

// PolygonClientOptions groups dependencies for NewPolygonClient.
type PolygonClientOptions struct {
	BaseURL    string           // Required, e.g. "https://api.polygon.io"
	KeyService string           // Required: credential name in the key store
	Keys       core.KeyProvider // Required
	Timeout    time.Duration    // Optional: defaults to 30s
	Logger     *slog.Logger     // Optional
}

// NewPolygonClient creates a PolygonClient.
func NewPolygonClient(opts PolygonClientOptions) *PolygonClient {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PolygonClient{
		baseURL:    opts.BaseURL,
		keyService: opts.KeyService,
		keys:       opts.Keys,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "polygon_client"),
	}
}

// groupedDailyResponse mirrors the grouped-daily aggregates payload.
// Result fields use the API's single-letter keys.
type groupedDailyResponse struct {
	Status       string             `json:"status"`
	ResultsCount int                `json:"resultsCount"`
	Results      []groupedDailyBar  `json:"results"`
}

type groupedDailyBar struct {
	Ticker string  `json:"T"`
	Open   float64 `json:"o"`
	High   float64 `json:"h"`
	Low    float64 `json:"l"`
	Close  float64 `json:"c"`
	Volume float64 `json:"v"`
	EndMS  int64   `json:"t"`
}

// FetchDay returns the OHLC aggregates for one market day. An empty
// slice with a nil error means the market was closed that day. HTTP 429
// surfaces as a rate-limited error so the pipeline can cool down and
// retry the same day.
func (c *PolygonClient) FetchDay(ctx context.Context, day time.Time) ([]domain.StockPrice, error) {
	apiKey, err := c.keys.APIKey(ctx, c.keyService)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v2/aggs/grouped/locale/us/market/stocks/%s",
		c.baseURL, day.UTC().Format("2006-01-02"))
	query := url.Values{}
	query.Set("adjusted", "true")
	query.Set("apiKey", apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "build aggregates request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeExternal, "aggregates request failed")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, apperrors.RateLimited("aggregates source returned 429")
	case resp.StatusCode != http.StatusOK:
		return nil, apperrors.Externalf("aggregates source returned status %d", resp.StatusCode)
	}

	var payload groupedDailyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeExternal, "decode aggregates response")
	}

	// Weekends and market holidays come back with zero results.
	if payload.ResultsCount == 0 || len(payload.Results) == 0 {
		c.logger.DebugContext(ctx, "no aggregates for day, market closed",
			"day", day.UTC().Format("2006-01-02"))
		return []domain.StockPrice{}, nil
	}

	records := make([]domain.StockPrice, 0, len(payload.Results))
	for _, bar := range payload.Results {
		if bar.Ticker == "" {
			continue
		}
		records = append(records, domain.StockPrice{
			Ticker:    bar.Ticker,
			Open:      bar.Open,
			High:      bar.High,
			Low:       bar.Low,
			Close:     bar.Close,
			Volume:    bar.Volume,
			PeriodEnd: time.UnixMilli(bar.EndMS).UTC(),
		})
	}
	return records, nil
}
