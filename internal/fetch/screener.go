package fetch

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/tickerwatch/tickerwatch/internal/data"
	"github.com/tickerwatch/tickerwatch/internal/domain"
	apperrors "github.com/tickerwatch/tickerwatch/internal/errors"
)

// rowsExpression locates the row list inside the screener payload
// envelope.
const rowsExpression = "data.data"

// ScreenerClient fetches full-universe screener snapshots. The endpoint
// serves a browser frontend, so requests carry a browser user agent.
type ScreenerClient struct {
	url          string
	userAgent    string
	httpClient   *http.Client
	timeProvider data.TimeProvider
	logger       *slog.Logger
}

// ScreenerClientOptions groups dependencies for NewScreenerClient.
type ScreenerClientOptions struct {
	URL          string            // Required: full screener query URL
	UserAgent    string            // Required
	Timeout      time.Duration     // Optional: defaults to 30s
	TimeProvider data.TimeProvider // Optional: defaults to real time
	Logger       *slog.Logger      // Optional
}

// NewScreenerClient creates a ScreenerClient.
func NewScreenerClient(opts ScreenerClientOptions) *ScreenerClient {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	tp := opts.TimeProvider
	if tp == nil {
		tp = &data.RealTimeProvider{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ScreenerClient{
		url:          opts.URL,
		userAgent:    opts.UserAgent,
		httpClient:   &http.Client{Timeout: timeout},
		timeProvider: tp,
		logger:       logger.With("component", "screener_client"),
	}
}

// FetchSnapshot pulls one snapshot of every screener row. All rows in a
// snapshot share the same capture timestamp, which joins them into one
// observable batch downstream.
func (c *ScreenerClient) FetchSnapshot(ctx context.Context) ([]domain.ScreenerRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "build screener request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeExternal, "screener request failed")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, apperrors.RateLimited("screener source returned 429")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Externalf("screener source returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeExternal, "read screener response")
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeExternal, "decode screener response")
	}

	extracted, err := jmespath.Search(rowsExpression, payload)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeExternal, "extract screener rows")
	}
	rawRows, ok := extracted.([]any)
	if !ok {
		return nil, apperrors.External("screener payload missing row list")
	}

	capturedAt := c.timeProvider.Now().UTC()
	rows := make([]domain.ScreenerRow, 0, len(rawRows))
	for _, raw := range rawRows {
		fields, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		ticker := stringField(fields, "s")
		if ticker == "" {
			continue
		}
		rows = append(rows, domain.ScreenerRow{
			Ticker:     ticker,
			Company:    stringField(fields, "n"),
			Price:      floatField(fields, "price"),
			Change:     floatField(fields, "change"),
			Industry:   stringField(fields, "industry"),
			Volume:     floatField(fields, "volume"),
			PERatio:    floatField(fields, "peRatio"),
			CapturedAt: capturedAt,
		})
	}

	c.logger.DebugContext(ctx, "screener snapshot fetched", "rows", len(rows))
	return rows, nil
}

func stringField(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

// floatField tolerates the endpoint serving numbers as strings for some
// columns.
func floatField(fields map[string]any, key string) float64 {
	switch v := fields[key].(type) {
	case float64:
		return v
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return 0
}
