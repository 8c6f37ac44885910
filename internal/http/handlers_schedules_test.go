package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickerwatch/tickerwatch/config"
	"github.com/tickerwatch/tickerwatch/internal/data"
	"github.com/tickerwatch/tickerwatch/internal/domain"
	"github.com/tickerwatch/tickerwatch/internal/fetch"
	"github.com/tickerwatch/tickerwatch/internal/service"
)

// memScheduleStore is an in-memory ScheduleStore keyed by trigger label.
type memScheduleStore struct {
	mu   sync.Mutex
	rows map[string]domain.JobSchedule
}

func newMemScheduleStore() *memScheduleStore {
	return &memScheduleStore{rows: map[string]domain.JobSchedule{}}
}

func (m *memScheduleStore) Insert(_ context.Context, s domain.JobSchedule) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	label := s.Key.TriggerLabel()
	if _, ok := m.rows[label]; ok {
		return false, nil
	}
	m.rows[label] = s
	return true, nil
}

func (m *memScheduleStore) Get(_ context.Context, key domain.ScheduleKey) (*domain.JobSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[key.TriggerLabel()]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (m *memScheduleStore) List(_ context.Context) ([]domain.JobSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.JobSchedule, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, row)
	}
	return out, nil
}

func (m *memScheduleStore) UpdateStatus(_ context.Context, key domain.ScheduleKey, status domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[key.TriggerLabel()]
	if !ok {
		return fmt.Errorf("no row for %s", key.TriggerLabel())
	}
	row.Status = status
	m.rows[key.TriggerLabel()] = row
	return nil
}

func (m *memScheduleStore) UpdateRunTime(_ context.Context, key domain.ScheduleKey, runTime string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[key.TriggerLabel()]
	if !ok {
		return fmt.Errorf("no row for %s", key.TriggerLabel())
	}
	row.RunTime = runTime
	m.rows[key.TriggerLabel()] = row
	return nil
}

func (m *memScheduleStore) Delete(_ context.Context, key domain.ScheduleKey) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[key.TriggerLabel()]; !ok {
		return false, nil
	}
	delete(m.rows, key.TriggerLabel())
	return true, nil
}

type noopIngest struct{}

func (noopIngest) Run(context.Context, domain.JobSchedule) (fetch.RunResult, error) {
	return fetch.RunResult{}, nil
}

type noopScrape struct{}

func (noopScrape) RunOnce(context.Context) (int, error) { return 0, nil }

func newTestRouter(t *testing.T) (http.Handler, *memScheduleStore) {
	t.Helper()

	now := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	tp := data.NewFixedTimeProvider(now)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := newMemScheduleStore()
	registry := service.NewTriggerRegistry(service.TriggerRegistryOptions{
		TimeProvider: tp,
		Logger:       logger,
	})
	scheduler := service.NewSchedulerService(service.SchedulerServiceOptions{
		Schedules:    store,
		Registry:     registry,
		Ingest:       noopIngest{},
		Scrape:       noopScrape{},
		Config:       config.DefaultSchedulerConfig(),
		TimeProvider: tp,
		Logger:       logger,
	})

	router := NewRouter(RouterServices{Scheduler: scheduler, Logger: logger})
	return router, store
}

func postSchedule(t *testing.T, router http.Handler, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/schedules", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateScheduleReturnsCreated(t *testing.T) {
	router, store := newTestRouter(t)

	rec := postSchedule(t, router, map[string]any{
		"job_type":             "api_fetch",
		"service":              "polygon_io",
		"frequency":            "recurring_daily",
		"scheduled_start_date": "2026-03-03T01:00:00Z",
		"owner":                "alice",
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Created  bool               `json:"created"`
		Schedule domain.JobSchedule `json:"schedule"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Created)
	assert.Equal(t, domain.StatusScheduled, resp.Schedule.Status)
	assert.Equal(t, "alice", resp.Schedule.Owner)
	assert.Len(t, store.rows, 1)
}

func TestCreateScheduleDuplicateIsNoOp(t *testing.T) {
	router, store := newTestRouter(t)

	body := map[string]any{
		"job_type":             "api_fetch",
		"service":              "polygon_io",
		"frequency":            "once",
		"scheduled_start_date": "2026-03-03T01:00:00Z",
	}

	first := postSchedule(t, router, body)
	require.Equal(t, http.StatusCreated, first.Code)

	second := postSchedule(t, router, body)
	require.Equal(t, http.StatusOK, second.Code)

	var resp struct {
		Created bool `json:"created"`
	}
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.False(t, resp.Created)
	assert.Len(t, store.rows, 1)
}

func TestCreateScheduleValidationError(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postSchedule(t, router, map[string]any{
		"job_type":             "bogus_type",
		"service":              "polygon_io",
		"frequency":            "once",
		"scheduled_start_date": "2026-03-03T01:00:00Z",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation", resp["error"])
}

func TestCreateScheduleRejectsUnknownFields(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postSchedule(t, router, map[string]any{
		"job_type": "api_fetch",
		"surprise": true,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListSchedules(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, svc := range []string{"polygon_io", "stock_analysis"} {
		rec := postSchedule(t, router, map[string]any{
			"job_type":             "api_fetch",
			"service":              svc,
			"frequency":            "once",
			"scheduled_start_date": "2026-03-03T01:00:00Z",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/schedules", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Schedules []domain.JobSchedule `json:"schedules"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Schedules, 2)
}

func scheduleQuery(startAt string) string {
	q := url.Values{}
	q.Set("job_type", "api_fetch")
	q.Set("service", "polygon_io")
	q.Set("frequency", "once")
	q.Set("scheduled_start_date", startAt)
	return q.Encode()
}

func TestGetScheduleByKey(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postSchedule(t, router, map[string]any{
		"job_type":             "api_fetch",
		"service":              "polygon_io",
		"frequency":            "once",
		"scheduled_start_date": "2026-03-03T01:00:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodGet,
		"/api/schedules/one?"+scheduleQuery("2026-03-03T01:00:00Z"), nil)
	got := httptest.NewRecorder()
	router.ServeHTTP(got, req)

	require.Equal(t, http.StatusOK, got.Code)
	var row domain.JobSchedule
	require.NoError(t, json.Unmarshal(got.Body.Bytes(), &row))
	assert.Equal(t, domain.ServicePolygon, row.Key.Service)
}

func TestGetScheduleNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet,
		"/api/schedules/one?"+scheduleQuery("2026-03-03T01:00:00Z"), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetScheduleInvalidKey(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet,
		"/api/schedules/one?job_type=api_fetch&frequency=nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteSchedule(t *testing.T) {
	router, store := newTestRouter(t)

	rec := postSchedule(t, router, map[string]any{
		"job_type":             "api_fetch",
		"service":              "polygon_io",
		"frequency":            "once",
		"scheduled_start_date": "2026-03-03T01:00:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodDelete,
		"/api/schedules?"+scheduleQuery("2026-03-03T01:00:00Z"), nil)
	del := httptest.NewRecorder()
	router.ServeHTTP(del, req)

	require.Equal(t, http.StatusNoContent, del.Code)
	assert.Empty(t, store.rows)

	again := httptest.NewRecorder()
	router.ServeHTTP(again, httptest.NewRequest(http.MethodDelete,
		"/api/schedules?"+scheduleQuery("2026-03-03T01:00:00Z"), nil))
	assert.Equal(t, http.StatusNotFound, again.Code)
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
