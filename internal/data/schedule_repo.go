// Package data implements the persistence layer over PostgreSQL and
// Redis, bridging database/sql connections to pgx v5 helpers.
package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tickerwatch/tickerwatch/internal/data/pgxutil"
	"github.com/tickerwatch/tickerwatch/internal/domain"
	apperrors "github.com/tickerwatch/tickerwatch/internal/errors"
)

// ScheduleRepo provides database operations for job schedule rows.
// Rows are identified by the composite natural key
// (job_type, service, frequency, scheduled_start_date); the id column is
// a surrogate for foreign references only.
type ScheduleRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewScheduleRepo creates a new ScheduleRepo instance with the given database connection.
func NewScheduleRepo(db *sql.DB) *ScheduleRepo {
	return &ScheduleRepo{
		DB:           db,
		timeProvider: &RealTimeProvider{},
	}
}

// NewScheduleRepoWithTimeProvider creates a ScheduleRepo with a custom TimeProvider (useful for testing).
func NewScheduleRepoWithTimeProvider(db *sql.DB, timeProvider TimeProvider) *ScheduleRepo {
	return &ScheduleRepo{
		DB:           db,
		timeProvider: timeProvider,
	}
}

const scheduleColumns = `
  job_type,
  service,
  frequency,
  scheduled_start_date,
  scheduled_end_date,
  data_fetch_start_date,
  data_fetch_end_date,
  interval_days,
  weekdays,
  run_time,
  status,
  owner,
  created_at,
  updated_at
`

// Insert persists a new schedule row. Inserting a key that already
// exists is a no-op: ON CONFLICT DO NOTHING keeps re-arms and restart
// reconciliation idempotent. Returns created=false for the no-op case.
func (r *ScheduleRepo) Insert(ctx context.Context, s domain.JobSchedule) (bool, error) {
	now := r.timeProvider.Now().UTC()

	query := `
		INSERT INTO job_schedules (
			id, job_type, service, frequency, scheduled_start_date,
			scheduled_end_date, data_fetch_start_date, data_fetch_end_date,
			interval_days, weekdays, run_time, status, owner,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (job_type, service, frequency, scheduled_start_date) DO NOTHING
	`

	status := s.Status
	if status == "" {
		status = domain.StatusScheduled
	}

	res, err := r.DB.ExecContext(ctx, query,
		uuid.NewString(),
		s.Key.JobType,
		s.Key.Service,
		s.Key.Frequency,
		s.Key.StartAt.UTC(),
		nullableTime(s.EndAt),
		nullableTime(s.FetchStart),
		nullableTime(s.FetchEnd),
		nullableInt(s.IntervalDays),
		nullableString(s.Weekdays.String()),
		nullableString(s.RunTime),
		status,
		s.Owner,
		now,
		now,
	)
	if err != nil {
		return false, apperrors.MapDBError(err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	return rowsAffected > 0, nil
}

// Get returns the row for the composite key, or nil when no row exists.
func (r *ScheduleRepo) Get(ctx context.Context, key domain.ScheduleKey) (*domain.JobSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM job_schedules
		WHERE job_type = $1 AND service = $2 AND frequency = $3 AND scheduled_start_date = $4
	`

	var sched *domain.JobSchedule
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, query,
			key.JobType, key.Service, key.Frequency, key.StartAt.UTC())
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		collected, collectErr := pgx.CollectOneRow(rows, rowToJobSchedule)
		if collectErr != nil {
			return collectErr
		}
		sched = &collected
		return nil
	})
	if err != nil {
		mapped := apperrors.MapDBError(err)
		if apperrors.IsNotFound(mapped) {
			return nil, nil
		}
		return nil, mapped
	}

	return sched, nil
}

// List returns every persisted schedule row, oldest start date first.
func (r *ScheduleRepo) List(ctx context.Context) ([]domain.JobSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM job_schedules
		ORDER BY scheduled_start_date ASC, job_type ASC, service ASC
	`

	var scheds []domain.JobSchedule
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, query)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		collected, collectErr := pgx.CollectRows(rows, rowToJobSchedule)
		if collectErr != nil {
			return collectErr
		}
		scheds = collected
		return nil
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}

	return scheds, nil
}

// UpdateStatus sets the lifecycle status of a row. Missing rows surface
// as NotFound so callers can tell a stale key from a silent success.
func (r *ScheduleRepo) UpdateStatus(ctx context.Context, key domain.ScheduleKey, status domain.Status) error {
	query := `
		UPDATE job_schedules
		SET status = $5, updated_at = $6
		WHERE job_type = $1 AND service = $2 AND frequency = $3 AND scheduled_start_date = $4
	`
	return r.execKeyed(ctx, query, key, status)
}

// UpdateRunTime records the formatted run duration audit string.
func (r *ScheduleRepo) UpdateRunTime(ctx context.Context, key domain.ScheduleKey, runTime string) error {
	query := `
		UPDATE job_schedules
		SET run_time = $5, updated_at = $6
		WHERE job_type = $1 AND service = $2 AND frequency = $3 AND scheduled_start_date = $4
	`
	return r.execKeyed(ctx, query, key, runTime)
}

func (r *ScheduleRepo) execKeyed(ctx context.Context, query string, key domain.ScheduleKey, value any) error {
	res, err := r.DB.ExecContext(ctx, query,
		key.JobType, key.Service, key.Frequency, key.StartAt.UTC(),
		value, r.timeProvider.Now().UTC())
	if err != nil {
		return apperrors.MapDBError(err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return apperrors.MapDBError(err)
	}
	if rowsAffected == 0 {
		return apperrors.NotFoundf("schedule %s not found", key.TriggerLabel())
	}
	return nil
}

// Delete removes a row. Returns true when a row was deleted, false when
// no row matched the key.
func (r *ScheduleRepo) Delete(ctx context.Context, key domain.ScheduleKey) (bool, error) {
	query := `
		DELETE FROM job_schedules
		WHERE job_type = $1 AND service = $2 AND frequency = $3 AND scheduled_start_date = $4
	`

	res, err := r.DB.ExecContext(ctx, query,
		key.JobType, key.Service, key.Frequency, key.StartAt.UTC())
	if err != nil {
		return false, apperrors.MapDBError(err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	return rowsAffected > 0, nil
}

// jobScheduleRow matches the job_schedules schema exactly so
// pgx.RowToStructByName can scan it.
type jobScheduleRow struct {
	JobType            string         `db:"job_type"`
	Service            string         `db:"service"`
	Frequency          string         `db:"frequency"`
	ScheduledStartDate time.Time      `db:"scheduled_start_date"`
	ScheduledEndDate   sql.NullTime   `db:"scheduled_end_date"`
	DataFetchStartDate sql.NullTime   `db:"data_fetch_start_date"`
	DataFetchEndDate   sql.NullTime   `db:"data_fetch_end_date"`
	IntervalDays       sql.NullInt64  `db:"interval_days"`
	Weekdays           sql.NullString `db:"weekdays"`
	RunTime            sql.NullString `db:"run_time"`
	Status             string         `db:"status"`
	Owner              string         `db:"owner"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

// toDomainSchedule converts a jobScheduleRow to domain.JobSchedule.
func (row *jobScheduleRow) toDomainSchedule() (domain.JobSchedule, error) {
	s := domain.JobSchedule{
		Key: domain.ScheduleKey{
			JobType:   domain.JobType(row.JobType),
			Service:   domain.Service(row.Service),
			Frequency: domain.Frequency(row.Frequency),
			StartAt:   row.ScheduledStartDate.UTC(),
		},
		Status:    domain.Status(row.Status),
		Owner:     row.Owner,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}

	if row.ScheduledEndDate.Valid {
		t := row.ScheduledEndDate.Time.UTC()
		s.EndAt = &t
	}
	if row.DataFetchStartDate.Valid {
		t := row.DataFetchStartDate.Time.UTC()
		s.FetchStart = &t
	}
	if row.DataFetchEndDate.Valid {
		t := row.DataFetchEndDate.Time.UTC()
		s.FetchEnd = &t
	}
	if row.IntervalDays.Valid {
		n := int(row.IntervalDays.Int64)
		s.IntervalDays = &n
	}
	if row.Weekdays.Valid && row.Weekdays.String != "" {
		days, err := domain.ParseWeekdays(row.Weekdays.String)
		if err != nil {
			return domain.JobSchedule{}, fmt.Errorf("parse stored weekdays: %w", err)
		}
		s.Weekdays = days
	}
	if row.RunTime.Valid {
		s.RunTime = row.RunTime.String
	}

	return s, nil
}

// rowToJobSchedule maps a pgx row to domain.JobSchedule using pgx v5 generics.
func rowToJobSchedule(row pgx.CollectableRow) (domain.JobSchedule, error) {
	dbRow, err := pgx.RowToStructByName[jobScheduleRow](row)
	if err != nil {
		return domain.JobSchedule{}, fmt.Errorf("scan schedule row: %w", err)
	}
	return dbRow.toDomainSchedule()
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nullableInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
