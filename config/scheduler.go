package config

import (
	"fmt"
	"strings"
	"time"
)

// SchedulerConfig holds configuration for the trigger registry and
// startup reconciliation.
type SchedulerConfig struct {
	// MissedRestartDelay is how long after reconciliation a missed job
	// fires. Non-zero to avoid a thundering herd on restart.
	MissedRestartDelay time.Duration `env:"SCHEDULER_MISSED_RESTART_DELAY" envDefault:"30s"`

	// LateFireGrace is how late a trigger may fire before the scheduler
	// logs it as missed and fires it immediately instead of dropping it.
	LateFireGrace time.Duration `env:"SCHEDULER_LATE_FIRE_GRACE" envDefault:"2m"`

	// PollInterval is the cadence of the recurring sub-trigger armed for
	// windowed (enable/disable) polling jobs.
	PollInterval time.Duration `env:"SCHEDULER_POLL_INTERVAL" envDefault:"5m"`

	// AMCutoff is the wall-clock UTC time ("HH:MM") after which a missed
	// recurring_daily_am snapshot is no longer representative and rolls
	// to the next day instead of running late.
	AMCutoff string `env:"SCHEDULER_AM_CUTOFF" envDefault:"21:00"`

	// MarketOpenStart/MarketOpenEnd bound the UTC window during which a
	// missed intraday snapshot is rescheduled for the same day rather
	// than restarted.
	MarketOpenStart string `env:"SCHEDULER_MARKET_OPEN_START" envDefault:"09:00"`
	MarketOpenEnd   string `env:"SCHEDULER_MARKET_OPEN_END"   envDefault:"11:00"`

	// TickerAMHourUTC/TickerPMHourUTC are the start hours of the
	// auto-provisioned daily ticker snapshot jobs.
	TickerAMHourUTC int `env:"SCHEDULER_TICKER_AM_HOUR_UTC" envDefault:"11"`
	TickerPMHourUTC int `env:"SCHEDULER_TICKER_PM_HOUR_UTC" envDefault:"23"`
}

// DefaultSchedulerConfig returns a SchedulerConfig with sensible defaults.
func DefaultSchedulerConfig() SchedulerConfig {
	cfg := SchedulerConfig{}
	cfg.Sanitize()
	return cfg
}

// Sanitize applies guardrails to scheduler configuration values.
func (c *SchedulerConfig) Sanitize() {
	if c.MissedRestartDelay <= 0 {
		c.MissedRestartDelay = 30 * time.Second
	}
	if c.LateFireGrace <= 0 {
		c.LateFireGrace = 2 * time.Minute
	}
	if c.PollInterval < time.Second {
		c.PollInterval = 5 * time.Minute
	}
	if _, err := ParseClock(c.AMCutoff); err != nil {
		c.AMCutoff = "21:00"
	}
	if _, err := ParseClock(c.MarketOpenStart); err != nil {
		c.MarketOpenStart = "09:00"
	}
	if _, err := ParseClock(c.MarketOpenEnd); err != nil {
		c.MarketOpenEnd = "11:00"
	}
	if c.TickerAMHourUTC < 0 || c.TickerAMHourUTC > 23 {
		c.TickerAMHourUTC = 11
	}
	if c.TickerPMHourUTC < 0 || c.TickerPMHourUTC > 23 {
		c.TickerPMHourUTC = 23
	}
}

// Clock is a wall-clock time of day in UTC.
type Clock struct {
	Hour   int
	Minute int
}

// Minutes returns the clock as minutes since midnight.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

// ParseClock parses an "HH:MM" wall-clock string.
func ParseClock(v string) (Clock, error) {
	var c Clock
	if _, err := fmt.Sscanf(strings.TrimSpace(v), "%d:%d", &c.Hour, &c.Minute); err != nil {
		return Clock{}, fmt.Errorf("invalid clock %q: %w", v, err)
	}
	if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 {
		return Clock{}, fmt.Errorf("clock %q out of range", v)
	}
	return c, nil
}

// MustClock parses an "HH:MM" string that is already sanitized.
func MustClock(v string) Clock {
	c, err := ParseClock(v)
	if err != nil {
		panic(err)
	}
	return c
}
