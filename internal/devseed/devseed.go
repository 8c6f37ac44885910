// Package devseed populates a development database with the rows needed
// to exercise the ingestion pipeline locally. It is only invoked in dev
// mode and every write is idempotent.
package devseed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/tickerwatch/tickerwatch/config"
	"github.com/tickerwatch/tickerwatch/internal/data"
)

// Seed upserts the API key rows the fetch clients look up. The key value
// comes from POLYGON_API_KEY so a real credential never lands in source
// control; without it a placeholder is stored and upstream requests will
// be rejected until a real key is set.
func Seed(ctx context.Context, db *sql.DB, cfg *config.AppConfig, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "devseed")

	keys := data.NewAPIKeyRepo(db)

	apiKey := os.Getenv("POLYGON_API_KEY")
	if apiKey == "" {
		apiKey = "dev-placeholder"
		logger.WarnContext(ctx, "POLYGON_API_KEY not set, seeding placeholder key",
			"service", cfg.Fetcher.KeyService)
	}

	if err := keys.Upsert(ctx, cfg.Fetcher.KeyService, apiKey); err != nil {
		return fmt.Errorf("seed api key: %w", err)
	}

	logger.InfoContext(ctx, "dev seed complete", "key_service", cfg.Fetcher.KeyService)
	return nil
}
