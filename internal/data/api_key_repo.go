package data

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tickerwatch/tickerwatch/internal/domain"
	apperrors "github.com/tickerwatch/tickerwatch/internal/errors"
)

// APIKeyRepo provides database operations for external service
// credentials. Keys live in the database rather than env so rotation
// does not require a deploy.
type APIKeyRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewAPIKeyRepo creates a new APIKeyRepo instance with the given database connection.
func NewAPIKeyRepo(db *sql.DB) *APIKeyRepo {
	return &APIKeyRepo{
		DB:           db,
		timeProvider: &RealTimeProvider{},
	}
}

// Get returns the current key for the named service.
func (r *APIKeyRepo) Get(ctx context.Context, service string) (domain.APIKey, error) {
	query := `
		SELECT service, api_key, updated_at
		FROM api_keys
		WHERE service = $1
	`

	var key domain.APIKey
	err := r.DB.QueryRowContext(ctx, query, service).
		Scan(&key.Service, &key.Key, &key.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.APIKey{}, apperrors.NotFoundf("no api key for service %q", service)
		}
		return domain.APIKey{}, apperrors.MapDBError(err)
	}

	return key, nil
}

// Upsert stores or rotates the key for a service.
func (r *APIKeyRepo) Upsert(ctx context.Context, service, apiKey string) error {
	now := r.timeProvider.Now().UTC()

	query := `
		INSERT INTO api_keys (service, api_key, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (service) DO UPDATE SET
			api_key = EXCLUDED.api_key,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := r.DB.ExecContext(ctx, query, service, apiKey, now); err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}
