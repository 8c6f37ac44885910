package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickerwatch/tickerwatch/internal/data"
	apperrors "github.com/tickerwatch/tickerwatch/internal/errors"
)

func TestScreenerClient_FetchSnapshot(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": 200,
			"data": {
				"data": [
					{"s": "AAPL", "n": "Apple Inc.", "price": 178.5, "change": 1.2, "industry": "Consumer Electronics", "volume": 51000000, "peRatio": 29.4},
					{"s": "XOM", "n": "Exxon Mobil", "price": "104.75", "change": -0.8, "industry": "Oil & Gas", "volume": 12000000, "peRatio": 10.1},
					{"n": "row without ticker is dropped"}
				]
			}
		}`))
	}))
	defer server.Close()

	capturedAt := time.Date(2026, 3, 2, 23, 0, 0, 0, time.UTC)
	client := NewScreenerClient(ScreenerClientOptions{
		URL:          server.URL,
		UserAgent:    "test-agent/1.0",
		TimeProvider: data.NewFixedTimeProvider(capturedAt),
	})

	rows, err := client.FetchSnapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "test-agent/1.0", gotUA)

	assert.Equal(t, "AAPL", rows[0].Ticker)
	assert.Equal(t, "Apple Inc.", rows[0].Company)
	assert.InDelta(t, 178.5, rows[0].Price, 1e-9)
	assert.Equal(t, capturedAt, rows[0].CapturedAt)

	// Numeric column served as a string still parses.
	assert.InDelta(t, 104.75, rows[1].Price, 1e-9)
	// Every row in a snapshot shares one capture timestamp.
	assert.Equal(t, rows[0].CapturedAt, rows[1].CapturedAt)
}

func TestScreenerClient_MissingRowList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": 200, "data": {}}`))
	}))
	defer server.Close()

	client := NewScreenerClient(ScreenerClientOptions{URL: server.URL, UserAgent: "test-agent/1.0"})

	_, err := client.FetchSnapshot(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsExternal(err))
}

func TestScreenerClient_UpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewScreenerClient(ScreenerClientOptions{URL: server.URL, UserAgent: "test-agent/1.0"})

	_, err := client.FetchSnapshot(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsExternal(err))
}
