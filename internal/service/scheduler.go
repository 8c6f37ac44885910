package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tickerwatch/tickerwatch/config"
	"github.com/tickerwatch/tickerwatch/internal/core"
	"github.com/tickerwatch/tickerwatch/internal/data"
	"github.com/tickerwatch/tickerwatch/internal/domain"
	"github.com/tickerwatch/tickerwatch/internal/domain/recurrence"
	apperrors "github.com/tickerwatch/tickerwatch/internal/errors"
	"github.com/tickerwatch/tickerwatch/internal/fetch"
)

// aggregatesRunner executes the fetch half of a job. *IngestService
// satisfies it.
type aggregatesRunner interface {
	Run(ctx context.Context, sched domain.JobSchedule) (fetch.RunResult, error)
}

// snapshotRunner executes the scrape half of a job. *ScrapeService
// satisfies it.
type snapshotRunner interface {
	RunOnce(ctx context.Context) (int, error)
}

// SchedulerService owns the trigger registry and the schedule rows. It
// arms triggers for persisted rows, fires the right runner when they go
// off, records terminal status, and chains recurring rows forward. On
// startup Reconcile re-arms everything from the store, so triggers never
// outlive their rows.
type SchedulerService struct {
	schedules    core.ScheduleStore
	registry     *TriggerRegistry
	ingest       aggregatesRunner
	scrape       snapshotRunner
	cfg          config.SchedulerConfig
	timeProvider data.TimeProvider
	logger       *slog.Logger

	// baseCtx is the lifetime context handlers run under; trigger
	// callbacks have no caller to inherit one from.
	baseCtx context.Context
}

// SchedulerServiceOptions holds the dependencies for creating a SchedulerService.
type SchedulerServiceOptions struct {
	Schedules    core.ScheduleStore     // Required
	Registry     *TriggerRegistry       // Required
	Ingest       aggregatesRunner       // Required
	Scrape       snapshotRunner         // Required
	Config       config.SchedulerConfig // Required
	TimeProvider data.TimeProvider      // Optional: defaults to real time
	Logger       *slog.Logger           // Optional
}

// NewSchedulerService creates a new SchedulerService with the given dependencies.
func NewSchedulerService(opts SchedulerServiceOptions) *SchedulerService {
	if opts.TimeProvider == nil {
		opts.TimeProvider = &data.RealTimeProvider{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	cfg := opts.Config
	cfg.Sanitize()

	return &SchedulerService{
		schedules:    opts.Schedules,
		registry:     opts.Registry,
		ingest:       opts.Ingest,
		scrape:       opts.Scrape,
		cfg:          cfg,
		timeProvider: opts.TimeProvider,
		logger:       opts.Logger.With("component", "scheduler"),
		baseCtx:      context.Background(),
	}
}

// Start reconciles triggers from the store, provisions the standing
// ticker snapshot jobs, and launches the registry.
func (s *SchedulerService) Start(ctx context.Context) error {
	s.baseCtx = ctx
	if err := s.Reconcile(ctx); err != nil {
		return err
	}
	if err := s.EnsureTickerJobs(ctx); err != nil {
		return err
	}
	s.registry.Start()
	s.logger.InfoContext(ctx, "scheduler started", "triggers", len(s.registry.Names()))
	return nil
}

// Stop halts the registry, waiting for in-flight handlers.
func (s *SchedulerService) Stop() {
	s.registry.Stop()
}

// CreateSchedule validates and persists a new schedule row and arms its
// trigger. A duplicate key is a no-op: created=false and the existing
// row stands.
func (s *SchedulerService) CreateSchedule(ctx context.Context, sched domain.JobSchedule) (bool, error) {
	if err := validateSchedule(sched); err != nil {
		return false, err
	}
	sched.Status = domain.StatusScheduled

	created, err := s.schedules.Insert(ctx, sched)
	if err != nil {
		return false, err
	}
	if created {
		s.armSchedule(sched)
		s.logger.InfoContext(ctx, "schedule created", "trigger", sched.Key.TriggerLabel())
	}
	return created, nil
}

// DeleteSchedule removes a row and cancels every trigger armed for it.
func (s *SchedulerService) DeleteSchedule(ctx context.Context, key domain.ScheduleKey) (bool, error) {
	label := key.TriggerLabel()
	s.registry.Cancel(label)
	s.registry.Cancel("enable-" + label)
	s.registry.Cancel("disable-" + label)
	s.registry.Cancel("poll-" + label)

	deleted, err := s.schedules.Delete(ctx, key)
	if err != nil {
		return false, err
	}
	if deleted {
		s.logger.InfoContext(ctx, "schedule deleted", "trigger", label)
	}
	return deleted, nil
}

// GetSchedule returns one row, or nil when absent.
func (s *SchedulerService) GetSchedule(ctx context.Context, key domain.ScheduleKey) (*domain.JobSchedule, error) {
	return s.schedules.Get(ctx, key)
}

// ListSchedules returns every persisted row.
func (s *SchedulerService) ListSchedules(ctx context.Context) ([]domain.JobSchedule, error) {
	return s.schedules.List(ctx)
}

// Reconcile walks the store and arms a trigger for every row that still
// has work to do. Rows whose start passed while no process was running
// are re-armed shortly from now or rolled to their next occurrence;
// they are never silently dropped.
func (s *SchedulerService) Reconcile(ctx context.Context) error {
	rows, err := s.schedules.List(ctx)
	if err != nil {
		return fmt.Errorf("list schedules: %w", err)
	}

	now := s.timeProvider.Now().UTC()
	for _, row := range rows {
		if !row.Status.Restartable() {
			continue
		}
		if err := s.reconcileRow(ctx, row, now); err != nil {
			return err
		}
	}
	return nil
}

func (s *SchedulerService) reconcileRow(ctx context.Context, row domain.JobSchedule, now time.Time) error {
	if row.Windowed() {
		return s.reconcileWindowed(ctx, row, now)
	}

	if row.Key.StartAt.After(now) {
		s.armSchedule(row)
		return nil
	}
	return s.recoverMissed(ctx, row, now)
}

func (s *SchedulerService) reconcileWindowed(ctx context.Context, row domain.JobSchedule, now time.Time) error {
	if !now.Before(*row.EndAt) {
		// The whole window passed while nothing was running.
		return s.skipAndRoll(ctx, row, now)
	}
	s.armSchedule(row)
	return nil
}

// recoverMissed decides what to do with a row whose start time passed
// while no scheduler was running. Most jobs simply fire again shortly:
// the data they fetch is historical and still valid. Morning snapshot
// jobs are only representative within their capture window, so outside
// it the row is skipped and replaced by its next occurrence.
func (s *SchedulerService) recoverMissed(ctx context.Context, row domain.JobSchedule, now time.Time) error {
	if s.missedWindowClosed(row, now) {
		return s.skipAndRoll(ctx, row, now)
	}

	fireAt := now.Add(s.cfg.MissedRestartDelay)
	s.logger.InfoContext(ctx, "re-arming missed job",
		"trigger", row.Key.TriggerLabel(),
		"scheduled_for", row.Key.StartAt,
		"fire_at", fireAt)
	s.registry.Arm(row.Key.TriggerLabel(), fireAt, s.handlerFor(row.Key))
	return nil
}

// missedWindowClosed reports whether a missed morning job's capture
// window has already closed for today.
func (s *SchedulerService) missedWindowClosed(row domain.JobSchedule, now time.Time) bool {
	if row.Key.Frequency != domain.FrequencyRecurringDailyAM {
		return false
	}
	nowMinutes := now.Hour()*60 + now.Minute()

	// Intraday ticker snapshots are only meaningful around the open.
	if row.Key.Service == domain.ServiceStockAnalysisTicker {
		start := config.MustClock(s.cfg.MarketOpenStart).Minutes()
		end := config.MustClock(s.cfg.MarketOpenEnd).Minutes()
		return nowMinutes < start || nowMinutes >= end
	}

	// Other morning jobs stay useful until the evening cutoff.
	return nowMinutes >= config.MustClock(s.cfg.AMCutoff).Minutes()
}

// skipAndRoll marks a row Skipped and, when it recurs, persists and
// arms its replacement.
func (s *SchedulerService) skipAndRoll(ctx context.Context, row domain.JobSchedule, now time.Time) error {
	if err := s.schedules.UpdateStatus(ctx, row.Key, domain.StatusSkipped); err != nil {
		return fmt.Errorf("mark skipped: %w", err)
	}
	s.logger.InfoContext(ctx, "skipping stale job", "trigger", row.Key.TriggerLabel())

	next, ok := recurrence.Successor(row)
	if !ok {
		return nil
	}
	// Place the replacement relative to now, not to the stale start.
	if !next.Key.StartAt.After(now) {
		replacement := recurrence.MissedWindowSuccessor(row, now)
		replacement.EndAt = next.EndAt
		replacement.FetchStart = next.FetchStart
		replacement.FetchEnd = next.FetchEnd
		replacement.IntervalDays = next.IntervalDays
		replacement.Weekdays = next.Weekdays
		next = replacement
	}
	return s.insertAndArm(ctx, next)
}

// armSchedule registers the trigger(s) for one row. Windowed rows get an
// enable/disable pair; everything else gets a single one-shot.
func (s *SchedulerService) armSchedule(sched domain.JobSchedule) {
	label := sched.Key.TriggerLabel()
	if sched.Windowed() {
		key := sched.Key
		s.registry.Arm("enable-"+label, sched.Key.StartAt, func() { s.enableWindow(key) })
		s.registry.Arm("disable-"+label, *sched.EndAt, func() { s.disableWindow(key) })
		return
	}
	s.registry.Arm(label, sched.Key.StartAt, s.handlerFor(sched.Key))
}

func (s *SchedulerService) handlerFor(key domain.ScheduleKey) func() {
	return func() { s.runScheduled(key) }
}

// runScheduled is the one-shot trigger handler: it runs the job end to
// end and chains the next occurrence. Failures mark the row Failed and
// deliberately spawn no successor; a standing rate-limit or upstream
// problem should not re-fire itself every day.
func (s *SchedulerService) runScheduled(key domain.ScheduleKey) {
	ctx := s.baseCtx
	label := key.TriggerLabel()

	row, err := s.schedules.Get(ctx, key)
	if err != nil {
		s.logger.ErrorContext(ctx, "load schedule for trigger", "trigger", label, "error", err)
		return
	}
	if row == nil {
		s.logger.WarnContext(ctx, "trigger fired for deleted schedule", "trigger", label)
		return
	}
	if !row.Status.Restartable() {
		s.logger.WarnContext(ctx, "trigger fired for finished schedule",
			"trigger", label, "status", row.Status)
		return
	}

	now := s.timeProvider.Now().UTC()
	if late := now.Sub(key.StartAt); late > s.cfg.LateFireGrace {
		s.logger.WarnContext(ctx, "trigger firing late", "trigger", label, "late_by", late)
	}

	if err := s.schedules.UpdateStatus(ctx, key, domain.StatusRunning); err != nil {
		s.logger.ErrorContext(ctx, "mark running", "trigger", label, "error", err)
		return
	}

	started := s.timeProvider.Now()
	runErr := s.dispatch(ctx, *row)
	elapsed := s.timeProvider.Now().Sub(started)

	if runErr != nil {
		s.logger.ErrorContext(ctx, "job failed", "trigger", label, "error", runErr, "elapsed", elapsed)
		if err := s.schedules.UpdateStatus(ctx, key, domain.StatusFailed); err != nil {
			s.logger.ErrorContext(ctx, "mark failed", "trigger", label, "error", err)
		}
		return
	}

	runTime := domain.FormatRunTime(elapsed)
	if err := s.schedules.UpdateRunTime(ctx, key, runTime); err != nil {
		s.logger.ErrorContext(ctx, "record run time", "trigger", label, "error", err)
	}
	if err := s.schedules.UpdateStatus(ctx, key, domain.StatusComplete); err != nil {
		s.logger.ErrorContext(ctx, "mark complete", "trigger", label, "error", err)
		return
	}
	s.logger.InfoContext(ctx, "job complete", "trigger", label, "run_time", runTime)

	if next, ok := recurrence.Successor(*row); ok {
		if err := s.insertAndArm(ctx, next); err != nil {
			s.logger.ErrorContext(ctx, "chain next occurrence", "trigger", label, "error", err)
		}
	}
}

// dispatch routes a row to its runner by job type.
func (s *SchedulerService) dispatch(ctx context.Context, row domain.JobSchedule) error {
	switch row.Key.JobType {
	case domain.JobTypeAPIFetch:
		_, err := s.ingest.Run(ctx, row)
		return err
	case domain.JobTypeDataScrape:
		_, err := s.scrape.RunOnce(ctx)
		return err
	default:
		return apperrors.Validationf("no runner for job type %q", row.Key.JobType)
	}
}

// enableWindow starts the polling phase of a windowed job: the row goes
// Running and a recurring sub-trigger fires the work every poll
// interval until the disable trigger tears it down.
func (s *SchedulerService) enableWindow(key domain.ScheduleKey) {
	ctx := s.baseCtx
	label := key.TriggerLabel()

	if err := s.schedules.UpdateStatus(ctx, key, domain.StatusRunning); err != nil {
		s.logger.ErrorContext(ctx, "mark windowed job running", "trigger", label, "error", err)
		return
	}
	s.logger.InfoContext(ctx, "window opened, polling", "trigger", label, "interval", s.cfg.PollInterval)

	s.registry.ArmEvery("poll-"+label, s.cfg.PollInterval, func() {
		row, err := s.schedules.Get(s.baseCtx, key)
		if err != nil || row == nil {
			s.logger.WarnContext(s.baseCtx, "poll fired for missing schedule", "trigger", label, "error", err)
			return
		}
		if err := s.dispatch(s.baseCtx, *row); err != nil {
			// One failed poll is not fatal; the window keeps polling.
			s.logger.ErrorContext(s.baseCtx, "poll run failed", "trigger", label, "error", err)
		}
	})
}

// disableWindow closes the polling phase: the sub-trigger is cancelled,
// the row completes, and a recurring window chains forward.
func (s *SchedulerService) disableWindow(key domain.ScheduleKey) {
	ctx := s.baseCtx
	label := key.TriggerLabel()

	s.registry.Cancel("poll-" + label)

	row, err := s.schedules.Get(ctx, key)
	if err != nil {
		s.logger.ErrorContext(ctx, "load windowed schedule", "trigger", label, "error", err)
		return
	}
	if row == nil {
		return
	}

	// Run time of a windowed job is the whole polling window, not a
	// single dispatch.
	elapsed := s.timeProvider.Now().UTC().Sub(key.StartAt)
	if elapsed < 0 {
		elapsed = 0
	}
	runTime := domain.FormatRunTime(elapsed)
	if err := s.schedules.UpdateRunTime(ctx, key, runTime); err != nil {
		s.logger.ErrorContext(ctx, "record window run time", "trigger", label, "error", err)
	}

	if err := s.schedules.UpdateStatus(ctx, key, domain.StatusComplete); err != nil {
		s.logger.ErrorContext(ctx, "mark windowed job complete", "trigger", label, "error", err)
		return
	}
	s.logger.InfoContext(ctx, "window closed", "trigger", label, "run_time", runTime)

	if next, ok := recurrence.Successor(*row); ok {
		if err := s.insertAndArm(ctx, next); err != nil {
			s.logger.ErrorContext(ctx, "chain next window", "trigger", label, "error", err)
		}
	}
}

// insertAndArm persists a successor row and arms it. A duplicate key
// means the successor already exists (for example, a previous run
// chained it before crashing); it is re-armed either way because arming
// is idempotent.
func (s *SchedulerService) insertAndArm(ctx context.Context, sched domain.JobSchedule) error {
	created, err := s.schedules.Insert(ctx, sched)
	if err != nil {
		return err
	}
	if !created {
		s.logger.InfoContext(ctx, "successor already persisted",
			"trigger", sched.Key.TriggerLabel())
	}
	s.armSchedule(sched)
	return nil
}

// EnsureTickerJobs provisions the standing twice-daily ticker snapshot
// jobs when they are not already present. Once created, the daily
// recurrence keeps each chain going; this only bootstraps an empty
// store.
func (s *SchedulerService) EnsureTickerJobs(ctx context.Context) error {
	now := s.timeProvider.Now().UTC()

	slots := []struct {
		hour      int
		frequency domain.Frequency
	}{
		{s.cfg.TickerAMHourUTC, domain.FrequencyRecurringDailyAM},
		{s.cfg.TickerPMHourUTC, domain.FrequencyRecurringDailyPM},
	}

	for _, slot := range slots {
		startAt := time.Date(now.Year(), now.Month(), now.Day(), slot.hour, 0, 0, 0, time.UTC)
		if !startAt.After(now) {
			startAt = startAt.AddDate(0, 0, 1)
		}

		sched := domain.JobSchedule{
			Key: domain.ScheduleKey{
				JobType:   domain.JobTypeDataScrape,
				Service:   domain.ServiceStockAnalysisTicker,
				Frequency: slot.frequency,
				StartAt:   startAt,
			},
			Status: domain.StatusScheduled,
			Owner:  "system",
		}

		if s.alreadyChained(ctx, sched.Key) {
			continue
		}
		if err := s.insertAndArm(ctx, sched); err != nil {
			return fmt.Errorf("provision ticker job: %w", err)
		}
	}
	return nil
}

// alreadyChained reports whether a pending row for the same job is
// already in the store, regardless of its start date. Provisioning must
// not fork a second chain next to one mid-recurrence.
func (s *SchedulerService) alreadyChained(ctx context.Context, key domain.ScheduleKey) bool {
	rows, err := s.schedules.List(ctx)
	if err != nil {
		return false
	}
	for _, row := range rows {
		if row.Key.JobType == key.JobType &&
			row.Key.Service == key.Service &&
			row.Key.Frequency == key.Frequency &&
			row.Status.Restartable() {
			return true
		}
	}
	return false
}

// validateSchedule checks the invariants a new row must satisfy before
// it is persisted.
func validateSchedule(sched domain.JobSchedule) error {
	if sched.Key.StartAt.IsZero() {
		return apperrors.Validation("scheduled start date is required")
	}
	switch sched.Key.JobType {
	case domain.JobTypeAPIFetch, domain.JobTypeDataScrape:
	default:
		return apperrors.Validationf("invalid job type %q", sched.Key.JobType)
	}
	switch sched.Key.Frequency {
	case domain.FrequencyOnce, domain.FrequencyRecurringDaily,
		domain.FrequencyRecurringDailyAM, domain.FrequencyRecurringDailyPM,
		domain.FrequencyCustomSchedule:
	default:
		return apperrors.Validationf("invalid frequency %q", sched.Key.Frequency)
	}
	if sched.Key.Frequency == domain.FrequencyCustomSchedule && sched.EndAt == nil {
		return apperrors.Validation("custom_schedule requires a scheduled end date")
	}
	if (sched.IntervalDays != nil || len(sched.Weekdays) > 0) && sched.EndAt == nil {
		return apperrors.Validation("interval and weekday recurrences require a scheduled end date")
	}
	if sched.EndAt != nil && !sched.EndAt.After(sched.Key.StartAt) {
		return apperrors.Validation("scheduled end date must be after the start date")
	}
	if sched.FetchStart != nil && sched.FetchEnd != nil && sched.FetchEnd.Before(*sched.FetchStart) {
		return apperrors.Validation("data fetch end date before start date")
	}
	if sched.IntervalDays != nil && *sched.IntervalDays <= 0 {
		return apperrors.Validation("interval days must be positive")
	}
	if sched.IntervalDays != nil && len(sched.Weekdays) > 0 {
		return apperrors.Validation("interval days and weekdays are mutually exclusive")
	}
	return nil
}
