package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/tickerwatch/tickerwatch/internal/fetch"
)

// BackfillRunner runs the historical price backfill.
type BackfillRunner interface {
	Backfill(ctx context.Context) (fetch.RunResult, error)
}

// IngestHandlers exposes manual ingestion controls.
type IngestHandlers struct {
	Ingest  BackfillRunner
	Logger  *slog.Logger
	Timeout time.Duration // Optional, bounds the background run. Default 6h.
}

// Backfill handles POST /api/backfill. The run can take hours, so the
// request returns 202 immediately and the backfill proceeds in the
// background.
func (h *IngestHandlers) Backfill(w http.ResponseWriter, r *http.Request) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 6 * time.Hour
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		res, err := h.Ingest.Backfill(ctx)
		if err != nil {
			h.Logger.Error("backfill failed", "error", err)
			return
		}
		h.Logger.Info("backfill complete",
			"days_fetched", res.DaysFetched,
			"days_closed", res.DaysClosed,
			"records", res.Records,
			"rate_limit_hits", res.RateLimitHits)
	}()

	WriteJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}
