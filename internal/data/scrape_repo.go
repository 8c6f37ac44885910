package data

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tickerwatch/tickerwatch/internal/domain"
	apperrors "github.com/tickerwatch/tickerwatch/internal/errors"
)

// ScrapeRepo provides database operations for screener snapshot rows.
type ScrapeRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewScrapeRepo creates a new ScrapeRepo instance with the given database connection.
func NewScrapeRepo(db *sql.DB) *ScrapeRepo {
	return &ScrapeRepo{
		DB:           db,
		timeProvider: &RealTimeProvider{},
	}
}

// InsertBatch writes one screener snapshot. Snapshots are append-only
// history; a retried snapshot with the same (ticker_symbol, captured_at)
// key is dropped rather than duplicated.
func (r *ScrapeRepo) InsertBatch(ctx context.Context, rows []domain.ScreenerRow) error {
	for len(rows) > 0 {
		chunk := rows
		if len(chunk) > maxInsertChunk {
			chunk = chunk[:maxInsertChunk]
		}
		rows = rows[len(chunk):]

		if err := r.insertChunk(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (r *ScrapeRepo) insertChunk(ctx context.Context, chunk []domain.ScreenerRow) error {
	now := r.timeProvider.Now().UTC()

	var b strings.Builder
	b.WriteString(`
		INSERT INTO scrapes (
			ticker_symbol, company_name, price, change, industry,
			volume, pe_ratio, captured_at, created_at
		) VALUES `)

	args := make([]any, 0, len(chunk)*9)
	for i, row := range chunk {
		if i > 0 {
			b.WriteString(", ")
		}
		base := i * 9
		fmt.Fprintf(&b, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9)
		args = append(args,
			row.Ticker, row.Company, row.Price, row.Change, row.Industry,
			row.Volume, row.PERatio, row.CapturedAt.UTC(), now)
	}

	b.WriteString(`
		ON CONFLICT (ticker_symbol, captured_at) DO NOTHING`)

	if _, err := r.DB.ExecContext(ctx, b.String(), args...); err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}
