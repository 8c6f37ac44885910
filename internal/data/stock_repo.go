package data

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tickerwatch/tickerwatch/internal/domain"
	apperrors "github.com/tickerwatch/tickerwatch/internal/errors"
)

// Postgres caps bind parameters at 65535 per statement; stay well under
// it when building multi-VALUES inserts.
const maxInsertChunk = 500

// StockRepo provides database operations for OHLC price aggregates.
type StockRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewStockRepo creates a new StockRepo instance with the given database connection.
func NewStockRepo(db *sql.DB) *StockRepo {
	return &StockRepo{
		DB:           db,
		timeProvider: &RealTimeProvider{},
	}
}

// UpsertBatch writes a batch of price records in one statement per chunk.
// The (ticker_symbol, period_end) natural key deduplicates: a re-run of
// the same market day overwrites the previous values instead of
// accumulating rows.
func (r *StockRepo) UpsertBatch(ctx context.Context, records []domain.StockPrice) error {
	for len(records) > 0 {
		chunk := records
		if len(chunk) > maxInsertChunk {
			chunk = chunk[:maxInsertChunk]
		}
		records = records[len(chunk):]

		if err := r.upsertChunk(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (r *StockRepo) upsertChunk(ctx context.Context, chunk []domain.StockPrice) error {
	now := r.timeProvider.Now().UTC()

	var b strings.Builder
	b.WriteString(`
		INSERT INTO stocks (
			ticker_symbol, open_price, highest_price, lowest_price,
			close_price, volume, period_end, created_at
		) VALUES `)

	args := make([]any, 0, len(chunk)*8)
	for i, rec := range chunk {
		if i > 0 {
			b.WriteString(", ")
		}
		base := i * 8
		fmt.Fprintf(&b, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8)
		args = append(args,
			rec.Ticker, rec.Open, rec.High, rec.Low,
			rec.Close, rec.Volume, rec.PeriodEnd.UTC(), now)
	}

	b.WriteString(`
		ON CONFLICT (ticker_symbol, period_end) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			highest_price = EXCLUDED.highest_price,
			lowest_price = EXCLUDED.lowest_price,
			close_price = EXCLUDED.close_price,
			volume = EXCLUDED.volume`)

	if _, err := r.DB.ExecContext(ctx, b.String(), args...); err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}
