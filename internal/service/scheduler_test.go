package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickerwatch/tickerwatch/config"
	"github.com/tickerwatch/tickerwatch/internal/data"
	"github.com/tickerwatch/tickerwatch/internal/domain"
	apperrors "github.com/tickerwatch/tickerwatch/internal/errors"
	"github.com/tickerwatch/tickerwatch/internal/fetch"
)

// memScheduleStore is an in-memory ScheduleStore for service tests.
type memScheduleStore struct {
	mu   sync.Mutex
	rows map[string]domain.JobSchedule
}

func newMemScheduleStore() *memScheduleStore {
	return &memScheduleStore{rows: map[string]domain.JobSchedule{}}
}

func (m *memScheduleStore) Insert(ctx context.Context, s domain.JobSchedule) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	label := s.Key.TriggerLabel()
	if _, ok := m.rows[label]; ok {
		return false, nil
	}
	m.rows[label] = s
	return true, nil
}

func (m *memScheduleStore) Get(ctx context.Context, key domain.ScheduleKey) (*domain.JobSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[key.TriggerLabel()]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (m *memScheduleStore) List(ctx context.Context) ([]domain.JobSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.JobSchedule, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, row)
	}
	return out, nil
}

func (m *memScheduleStore) UpdateStatus(ctx context.Context, key domain.ScheduleKey, status domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[key.TriggerLabel()]
	if !ok {
		return apperrors.NotFoundf("schedule %s not found", key.TriggerLabel())
	}
	row.Status = status
	m.rows[key.TriggerLabel()] = row
	return nil
}

func (m *memScheduleStore) UpdateRunTime(ctx context.Context, key domain.ScheduleKey, runTime string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[key.TriggerLabel()]
	if !ok {
		return apperrors.NotFoundf("schedule %s not found", key.TriggerLabel())
	}
	row.RunTime = runTime
	m.rows[key.TriggerLabel()] = row
	return nil
}

func (m *memScheduleStore) Delete(ctx context.Context, key domain.ScheduleKey) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[key.TriggerLabel()]
	delete(m.rows, key.TriggerLabel())
	return ok, nil
}

func (m *memScheduleStore) get(label string) (domain.JobSchedule, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[label]
	return row, ok
}

func (m *memScheduleStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type fakeIngest struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeIngest) Run(ctx context.Context, sched domain.JobSchedule) (fetch.RunResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return fetch.RunResult{}, f.err
	}
	return fetch.RunResult{DaysFetched: 1, Records: 10}, nil
}

type fakeScrape struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeScrape) RunOnce(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return 42, nil
}

type schedulerFixture struct {
	store    *memScheduleStore
	registry *TriggerRegistry
	ingest   *fakeIngest
	scrape   *fakeScrape
	clock    *data.FixedTimeProvider
	svc      *SchedulerService
}

func newSchedulerFixture(now time.Time) *schedulerFixture {
	clock := data.NewFixedTimeProvider(now)
	store := newMemScheduleStore()
	registry := NewTriggerRegistry(TriggerRegistryOptions{TimeProvider: clock})
	ingest := &fakeIngest{}
	scrape := &fakeScrape{}
	svc := NewSchedulerService(SchedulerServiceOptions{
		Schedules:    store,
		Registry:     registry,
		Ingest:       ingest,
		Scrape:       scrape,
		Config:       config.DefaultSchedulerConfig(),
		TimeProvider: clock,
	})
	return &schedulerFixture{
		store:    store,
		registry: registry,
		ingest:   ingest,
		scrape:   scrape,
		clock:    clock,
		svc:      svc,
	}
}

func dailyFetchSchedule(startAt time.Time) domain.JobSchedule {
	return domain.JobSchedule{
		Key: domain.ScheduleKey{
			JobType:   domain.JobTypeAPIFetch,
			Service:   domain.ServicePolygon,
			Frequency: domain.FrequencyRecurringDaily,
			StartAt:   startAt,
		},
		Status: domain.StatusScheduled,
		Owner:  "tester",
	}
}

func TestCreateSchedule_ArmsTrigger(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	f := newSchedulerFixture(now)

	sched := dailyFetchSchedule(now.Add(3 * time.Hour))
	created, err := f.svc.CreateSchedule(context.Background(), sched)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, f.registry.Armed(sched.Key.TriggerLabel()))
}

func TestCreateSchedule_DuplicateKeyIsNoOp(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	f := newSchedulerFixture(now)

	sched := dailyFetchSchedule(now.Add(3 * time.Hour))
	created, err := f.svc.CreateSchedule(context.Background(), sched)
	require.NoError(t, err)
	require.True(t, created)

	created, err = f.svc.CreateSchedule(context.Background(), sched)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, f.store.count())
}

func TestCreateSchedule_Validation(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	f := newSchedulerFixture(now)

	cases := []struct {
		name  string
		mut   func(*domain.JobSchedule)
	}{
		{"zero start", func(s *domain.JobSchedule) { s.Key.StartAt = time.Time{} }},
		{"bad job type", func(s *domain.JobSchedule) { s.Key.JobType = "mystery" }},
		{"bad frequency", func(s *domain.JobSchedule) { s.Key.Frequency = "hourly" }},
		{"end before start", func(s *domain.JobSchedule) {
			end := s.Key.StartAt.Add(-time.Hour)
			s.EndAt = &end
		}},
		{"window without end", func(s *domain.JobSchedule) {
			s.Key.Frequency = domain.FrequencyCustomSchedule
			s.EndAt = nil
		}},
		{"non-positive interval", func(s *domain.JobSchedule) {
			zero := 0
			end := s.Key.StartAt.Add(72 * time.Hour)
			s.IntervalDays = &zero
			s.EndAt = &end
		}},
		{"interval and weekdays", func(s *domain.JobSchedule) {
			one := 1
			end := s.Key.StartAt.Add(72 * time.Hour)
			s.IntervalDays = &one
			s.Weekdays = domain.Weekdays{time.Monday}
			s.EndAt = &end
		}},
		{"interval without end", func(s *domain.JobSchedule) {
			one := 1
			s.IntervalDays = &one
		}},
		{"weekdays without end", func(s *domain.JobSchedule) {
			s.Weekdays = domain.Weekdays{time.Monday, time.Friday}
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sched := dailyFetchSchedule(now.Add(time.Hour))
			tc.mut(&sched)
			_, err := f.svc.CreateSchedule(context.Background(), sched)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
		})
	}
}

func TestRunScheduled_CompletesAndChainsSuccessor(t *testing.T) {
	now := time.Date(2026, 3, 2, 11, 0, 30, 0, time.UTC)
	f := newSchedulerFixture(now)

	sched := dailyFetchSchedule(time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC))
	fs := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	sched.FetchStart = &fs
	sched.FetchEnd = &fs
	_, err := f.store.Insert(context.Background(), sched)
	require.NoError(t, err)

	f.svc.runScheduled(sched.Key)

	row, ok := f.store.get(sched.Key.TriggerLabel())
	require.True(t, ok)
	assert.Equal(t, domain.StatusComplete, row.Status)
	assert.Equal(t, "0h 0m 0.00s", row.RunTime)
	assert.Equal(t, 1, f.ingest.calls)

	// Daily recurrence chained one day forward, fetch window in lockstep.
	nextKey := sched.Key
	nextKey.StartAt = sched.Key.StartAt.AddDate(0, 0, 1)
	next, ok := f.store.get(nextKey.TriggerLabel())
	require.True(t, ok, "successor row should be persisted")
	assert.Equal(t, domain.StatusScheduled, next.Status)
	require.NotNil(t, next.FetchStart)
	assert.Equal(t, fs.AddDate(0, 0, 1), *next.FetchStart)
	assert.True(t, f.registry.Armed(nextKey.TriggerLabel()))
}

func TestRunScheduled_FailureSpawnsNoSuccessor(t *testing.T) {
	now := time.Date(2026, 3, 2, 11, 0, 30, 0, time.UTC)
	f := newSchedulerFixture(now)
	f.ingest.err = apperrors.RateLimited("ceiling reached")

	sched := dailyFetchSchedule(time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC))
	_, err := f.store.Insert(context.Background(), sched)
	require.NoError(t, err)

	f.svc.runScheduled(sched.Key)

	row, ok := f.store.get(sched.Key.TriggerLabel())
	require.True(t, ok)
	assert.Equal(t, domain.StatusFailed, row.Status)
	assert.Equal(t, 1, f.store.count(), "failed job must not chain a successor")
}

func TestRunScheduled_OnceJobDoesNotRecur(t *testing.T) {
	now := time.Date(2026, 3, 2, 11, 0, 30, 0, time.UTC)
	f := newSchedulerFixture(now)

	sched := dailyFetchSchedule(time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC))
	sched.Key.Frequency = domain.FrequencyOnce
	_, err := f.store.Insert(context.Background(), sched)
	require.NoError(t, err)

	f.svc.runScheduled(sched.Key)

	row, _ := f.store.get(sched.Key.TriggerLabel())
	assert.Equal(t, domain.StatusComplete, row.Status)
	assert.Equal(t, 1, f.store.count())
}

func TestRunScheduled_DispatchesScrapeJobs(t *testing.T) {
	now := time.Date(2026, 3, 2, 23, 0, 30, 0, time.UTC)
	f := newSchedulerFixture(now)

	sched := domain.JobSchedule{
		Key: domain.ScheduleKey{
			JobType:   domain.JobTypeDataScrape,
			Service:   domain.ServiceStockAnalysis,
			Frequency: domain.FrequencyOnce,
			StartAt:   time.Date(2026, 3, 2, 23, 0, 0, 0, time.UTC),
		},
		Status: domain.StatusScheduled,
	}
	_, err := f.store.Insert(context.Background(), sched)
	require.NoError(t, err)

	f.svc.runScheduled(sched.Key)

	assert.Equal(t, 1, f.scrape.calls)
	assert.Zero(t, f.ingest.calls)
}

func TestReconcile_ReArmsMissedJob(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	f := newSchedulerFixture(now)

	// Scheduled for two hours ago; the process was down.
	sched := dailyFetchSchedule(now.Add(-2 * time.Hour))
	_, err := f.store.Insert(context.Background(), sched)
	require.NoError(t, err)

	require.NoError(t, f.svc.Reconcile(context.Background()))
	assert.True(t, f.registry.Armed(sched.Key.TriggerLabel()))
}

func TestReconcile_SkipsFinishedRows(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	f := newSchedulerFixture(now)

	sched := dailyFetchSchedule(now.Add(-2 * time.Hour))
	sched.Status = domain.StatusComplete
	_, err := f.store.Insert(context.Background(), sched)
	require.NoError(t, err)

	require.NoError(t, f.svc.Reconcile(context.Background()))
	assert.False(t, f.registry.Armed(sched.Key.TriggerLabel()))
}

func TestReconcile_StaleMorningSnapshotRollsToNextDay(t *testing.T) {
	// 21:30 UTC: past the evening cutoff, the missed 11:00 AM snapshot
	// is no longer representative.
	now := time.Date(2026, 3, 2, 21, 30, 0, 0, time.UTC)
	f := newSchedulerFixture(now)

	sched := dailyFetchSchedule(time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC))
	sched.Key.Frequency = domain.FrequencyRecurringDailyAM
	_, err := f.store.Insert(context.Background(), sched)
	require.NoError(t, err)

	require.NoError(t, f.svc.Reconcile(context.Background()))

	row, _ := f.store.get(sched.Key.TriggerLabel())
	assert.Equal(t, domain.StatusSkipped, row.Status)

	nextKey := sched.Key
	nextKey.StartAt = time.Date(2026, 3, 3, 11, 0, 0, 0, time.UTC)
	_, ok := f.store.get(nextKey.TriggerLabel())
	assert.True(t, ok, "replacement should land on tomorrow's slot")
	assert.True(t, f.registry.Armed(nextKey.TriggerLabel()))
}

func TestReconcile_MorningSnapshotBeforeCutoffReArms(t *testing.T) {
	// 12:00 UTC: still before the 21:00 cutoff, run the missed snapshot
	// today.
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	f := newSchedulerFixture(now)

	sched := dailyFetchSchedule(time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC))
	sched.Key.Frequency = domain.FrequencyRecurringDailyAM
	_, err := f.store.Insert(context.Background(), sched)
	require.NoError(t, err)

	require.NoError(t, f.svc.Reconcile(context.Background()))

	row, _ := f.store.get(sched.Key.TriggerLabel())
	assert.Equal(t, domain.StatusScheduled, row.Status)
	assert.True(t, f.registry.Armed(sched.Key.TriggerLabel()))
	assert.Equal(t, 1, f.store.count())
}

func TestReconcile_MissedTickerSnapshotOutsideMarketWindow(t *testing.T) {
	// 12:00 UTC is past the 09:00-11:00 capture window for intraday
	// ticker snapshots, so the row rolls instead of re-arming.
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	f := newSchedulerFixture(now)

	sched := domain.JobSchedule{
		Key: domain.ScheduleKey{
			JobType:   domain.JobTypeDataScrape,
			Service:   domain.ServiceStockAnalysisTicker,
			Frequency: domain.FrequencyRecurringDailyAM,
			StartAt:   time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		},
		Status: domain.StatusScheduled,
	}
	_, err := f.store.Insert(context.Background(), sched)
	require.NoError(t, err)

	require.NoError(t, f.svc.Reconcile(context.Background()))

	row, _ := f.store.get(sched.Key.TriggerLabel())
	assert.Equal(t, domain.StatusSkipped, row.Status)
}

func TestReconcile_WindowedJobArmsEnableDisablePair(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	f := newSchedulerFixture(now)

	end := time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC)
	sched := domain.JobSchedule{
		Key: domain.ScheduleKey{
			JobType:   domain.JobTypeDataScrape,
			Service:   domain.ServiceStockAnalysis,
			Frequency: domain.FrequencyCustomSchedule,
			StartAt:   time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		},
		Status: domain.StatusScheduled,
		EndAt:  &end,
	}
	_, err := f.store.Insert(context.Background(), sched)
	require.NoError(t, err)

	require.NoError(t, f.svc.Reconcile(context.Background()))

	label := sched.Key.TriggerLabel()
	assert.True(t, f.registry.Armed("enable-"+label))
	assert.True(t, f.registry.Armed("disable-"+label))
	assert.False(t, f.registry.Armed(label))
}

func TestWindowLifecycle_EnableThenDisable(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	f := newSchedulerFixture(now)

	end := time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC)
	sched := domain.JobSchedule{
		Key: domain.ScheduleKey{
			JobType:   domain.JobTypeDataScrape,
			Service:   domain.ServiceStockAnalysis,
			Frequency: domain.FrequencyCustomSchedule,
			StartAt:   now,
		},
		Status: domain.StatusScheduled,
		EndAt:  &end,
	}
	_, err := f.store.Insert(context.Background(), sched)
	require.NoError(t, err)

	label := sched.Key.TriggerLabel()

	f.svc.enableWindow(sched.Key)
	row, _ := f.store.get(label)
	assert.Equal(t, domain.StatusRunning, row.Status)
	assert.True(t, f.registry.Armed("poll-"+label))

	f.clock.SetTime(end)
	f.svc.disableWindow(sched.Key)
	row, _ = f.store.get(label)
	assert.Equal(t, domain.StatusComplete, row.Status)
	assert.False(t, f.registry.Armed("poll-"+label))
	assert.Equal(t, "7h 0m 0.00s", row.RunTime, "run time spans the whole polling window")
}

func TestEnsureTickerJobs_ProvisionsBothSlots(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	f := newSchedulerFixture(now)

	require.NoError(t, f.svc.EnsureTickerJobs(context.Background()))
	assert.Equal(t, 2, f.store.count())

	amKey := domain.ScheduleKey{
		JobType:   domain.JobTypeDataScrape,
		Service:   domain.ServiceStockAnalysisTicker,
		Frequency: domain.FrequencyRecurringDailyAM,
		StartAt:   time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC),
	}
	_, ok := f.store.get(amKey.TriggerLabel())
	assert.True(t, ok, "AM slot lands today because 11:00 is still ahead")

	// Idempotent: a second call provisions nothing new.
	require.NoError(t, f.svc.EnsureTickerJobs(context.Background()))
	assert.Equal(t, 2, f.store.count())
}

func TestEnsureTickerJobs_PassedSlotRollsToTomorrow(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	f := newSchedulerFixture(now)

	require.NoError(t, f.svc.EnsureTickerJobs(context.Background()))

	amKey := domain.ScheduleKey{
		JobType:   domain.JobTypeDataScrape,
		Service:   domain.ServiceStockAnalysisTicker,
		Frequency: domain.FrequencyRecurringDailyAM,
		StartAt:   time.Date(2026, 3, 3, 11, 0, 0, 0, time.UTC),
	}
	_, ok := f.store.get(amKey.TriggerLabel())
	assert.True(t, ok, "11:00 already passed, AM slot lands tomorrow")
}

func TestDeleteSchedule_CancelsTriggers(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	f := newSchedulerFixture(now)

	sched := dailyFetchSchedule(now.Add(time.Hour))
	created, err := f.svc.CreateSchedule(context.Background(), sched)
	require.NoError(t, err)
	require.True(t, created)
	require.True(t, f.registry.Armed(sched.Key.TriggerLabel()))

	deleted, err := f.svc.DeleteSchedule(context.Background(), sched.Key)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.False(t, f.registry.Armed(sched.Key.TriggerLabel()))
	assert.Zero(t, f.store.count())

	// Deleting again reports false without error.
	deleted, err = f.svc.DeleteSchedule(context.Background(), sched.Key)
	require.NoError(t, err)
	assert.False(t, deleted)
}
