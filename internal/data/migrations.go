package data

import (
	"context"
	"database/sql"

	"github.com/tickerwatch/tickerwatch/internal/migrate"
)

// RunMigrations brings the schema up to date by delegating to the migrate package.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrate.Run(ctx, db)
}
