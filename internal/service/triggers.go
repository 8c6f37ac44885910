// Package service implements the scheduling and ingestion services of
// the tickerwatch system.
package service

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tickerwatch/tickerwatch/config"
	"github.com/tickerwatch/tickerwatch/internal/data"
)

// fireOnceSchedule fires exactly once at a fixed instant. After it
// fires, Next returns the zero time and cron retires the entry.
type fireOnceSchedule struct {
	at time.Time
}

func (s fireOnceSchedule) Next(t time.Time) time.Time {
	if t.Before(s.at) {
		return s.at
	}
	return time.Time{}
}

// TriggerRegistry arms named time triggers on top of a cron runner.
// Arming an existing name replaces the previous trigger, so re-arming
// during reconciliation is idempotent. Each firing runs in its own
// goroutine; a panicking handler is logged and never takes the runner
// down.
type TriggerRegistry struct {
	cron         *cron.Cron
	timeProvider data.TimeProvider
	logger       *slog.Logger

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// TriggerRegistryOptions groups dependencies for NewTriggerRegistry.
type TriggerRegistryOptions struct {
	TimeProvider data.TimeProvider // Optional: defaults to real time
	Logger       *slog.Logger      // Optional
}

// NewTriggerRegistry creates a TriggerRegistry. Call Start before
// arming triggers and Stop on shutdown.
func NewTriggerRegistry(opts TriggerRegistryOptions) *TriggerRegistry {
	tp := opts.TimeProvider
	if tp == nil {
		tp = &data.RealTimeProvider{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "trigger_registry")

	return &TriggerRegistry{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cronLogger{logger})),
		),
		timeProvider: tp,
		logger:       logger,
		entries:      map[string]cron.EntryID{},
	}
}

// Start launches the cron runner.
func (r *TriggerRegistry) Start() {
	r.cron.Start()
}

// Stop halts the runner and waits for in-flight handlers to finish.
func (r *TriggerRegistry) Stop() {
	<-r.cron.Stop().Done()
}

// Arm registers a one-shot trigger at the given instant, replacing any
// trigger with the same name. An instant already in the past is armed a
// moment from now rather than dropped: late jobs still fire.
func (r *TriggerRegistry) Arm(name string, at time.Time, fn func()) {
	now := r.timeProvider.Now()
	if !at.After(now) {
		r.logger.Info("arming past trigger for immediate fire",
			"trigger", name, "scheduled_for", at, "late_by", now.Sub(at))
		at = now.Add(time.Second)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(name)

	id := r.cron.Schedule(fireOnceSchedule{at: at.UTC()}, cron.FuncJob(func() {
		// One-shot: forget the entry before running so a handler that
		// re-arms the same name doesn't race its own cleanup.
		r.Cancel(name)
		fn()
	}))
	r.entries[name] = id
}

// ArmEvery registers a fixed-interval trigger, replacing any trigger
// with the same name. The first fire is one interval from now.
func (r *TriggerRegistry) ArmEvery(name string, every time.Duration, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(name)
	r.entries[name] = r.cron.Schedule(cron.Every(every), cron.FuncJob(fn))
}

// ArmDaily registers a trigger firing every day at the given UTC wall
// clock time, replacing any trigger with the same name.
func (r *TriggerRegistry) ArmDaily(name string, at config.Clock, fn func()) error {
	spec := fmt.Sprintf("%d %d * * *", at.Minute, at.Hour)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(name)

	id, err := r.cron.AddFunc(spec, fn)
	if err != nil {
		return fmt.Errorf("arm daily trigger %s: %w", name, err)
	}
	r.entries[name] = id
	return nil
}

// Cancel removes a trigger by name. Cancelling an unknown name is a
// no-op; reports whether a trigger was removed.
func (r *TriggerRegistry) Cancel(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[name]
	r.removeLocked(name)
	return ok
}

// Armed reports whether a trigger with the given name is registered.
func (r *TriggerRegistry) Armed(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[name]
	return ok
}

// Names returns the currently armed trigger names.
func (r *TriggerRegistry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}

func (r *TriggerRegistry) removeLocked(name string) {
	if id, ok := r.entries[name]; ok {
		r.cron.Remove(id)
		delete(r.entries, name)
	}
}

// cronLogger adapts slog to the cron logging interface so handler
// panics land in the structured log.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Info(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}
