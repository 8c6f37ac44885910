// Package domain contains the entities and pure business rules of the
// tickerwatch ingestion system.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// JobType identifies the kind of work a schedule row drives.
type JobType string

const (
	// JobTypeAPIFetch pulls daily OHLC aggregates for a date range.
	JobTypeAPIFetch JobType = "api_fetch"
	// JobTypeDataScrape pulls a full-universe screener snapshot.
	JobTypeDataScrape JobType = "data_scrape"
)

// Service names the external source a job talks to.
type Service string

const (
	// ServicePolygon is the paginated daily-aggregates API.
	ServicePolygon Service = "polygon_io"
	// ServiceStockAnalysis is the screener scrape endpoint.
	ServiceStockAnalysis Service = "stock_analysis"
	// ServiceStockAnalysisTicker is the intraday ticker snapshot variant of the screener.
	ServiceStockAnalysisTicker Service = "stock_analysis_ticker_data"
)

// Frequency describes how a schedule row recurs.
type Frequency string

const (
	FrequencyOnce             Frequency = "once"
	FrequencyRecurringDaily   Frequency = "recurring_daily"
	FrequencyRecurringDailyAM Frequency = "recurring_daily_am"
	FrequencyRecurringDailyPM Frequency = "recurring_daily_pm"
	FrequencyCustomSchedule   Frequency = "custom_schedule"
)

// IsDaily reports whether the frequency recurs once per calendar day.
func (f Frequency) IsDaily() bool {
	switch f {
	case FrequencyRecurringDaily, FrequencyRecurringDailyAM, FrequencyRecurringDailyPM:
		return true
	default:
		return false
	}
}

// UnmarshalText implements encoding.TextUnmarshaler so Frequency can be
// parsed from env or request bodies.
func (f *Frequency) UnmarshalText(text []byte) error {
	v := Frequency(strings.ToLower(strings.TrimSpace(string(text))))
	switch v {
	case FrequencyOnce, FrequencyRecurringDaily, FrequencyRecurringDailyAM,
		FrequencyRecurringDailyPM, FrequencyCustomSchedule:
		*f = v
		return nil
	default:
		return fmt.Errorf("invalid frequency: %q", string(text))
	}
}

// Status is the persisted lifecycle state of a schedule row.
type Status string

const (
	StatusScheduled Status = "Scheduled"
	StatusRunning   Status = "Running"
	StatusComplete  Status = "Complete"
	StatusFailed    Status = "Failed"
	StatusSkipped   Status = "Skipped"
)

// Restartable reports whether a row found in the past should be treated as
// missed and re-armed: the process died (Running) or never got to it
// (Scheduled).
func (s Status) Restartable() bool {
	return s == StatusScheduled || s == StatusRunning
}

// Weekdays is an ordered set of weekday abbreviations ("Mon".."Sun")
// driving weekday-list recurrence.
type Weekdays []time.Weekday

var weekdayNames = map[string]time.Weekday{
	"Sun": time.Sunday, "Mon": time.Monday, "Tue": time.Tuesday,
	"Wed": time.Wednesday, "Thu": time.Thursday, "Fri": time.Friday,
	"Sat": time.Saturday,
}

// ParseWeekdays parses a comma-separated list of three-letter weekday
// abbreviations ("Mon,Wed,Fri").
func ParseWeekdays(v string) (Weekdays, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	var days Weekdays
	for _, part := range strings.Split(v, ",") {
		name := strings.TrimSpace(part)
		day, ok := weekdayNames[name]
		if !ok {
			return nil, fmt.Errorf("invalid weekday: %q", name)
		}
		days = append(days, day)
	}
	return days, nil
}

// Contains reports whether the set includes the given weekday.
func (w Weekdays) Contains(day time.Weekday) bool {
	for _, d := range w {
		if d == day {
			return true
		}
	}
	return false
}

// String returns the comma-separated abbreviation form used at the
// storage and wire boundary.
func (w Weekdays) String() string {
	parts := make([]string, len(w))
	for i, d := range w {
		parts[i] = d.String()[:3]
	}
	return strings.Join(parts, ",")
}

// MarshalText implements encoding.TextMarshaler.
func (w Weekdays) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (w *Weekdays) UnmarshalText(text []byte) error {
	days, err := ParseWeekdays(string(text))
	if err != nil {
		return err
	}
	*w = days
	return nil
}

// ScheduleKey is the immutable composite natural key of a schedule row.
// At most one row exists per key; recurrence inserts new keys rather than
// mutating old rows.
type ScheduleKey struct {
	JobType   JobType   `json:"job_type"`
	Service   Service   `json:"service"`
	Frequency Frequency `json:"frequency"`
	StartAt   time.Time `json:"scheduled_start_date"`
}

// TriggerLabel renders the key as the human-readable trigger id used in
// logs ("job-api_fetch-polygon_io-once-1718000000"). It is a display
// label only; the typed key is what identifies triggers.
func (k ScheduleKey) TriggerLabel() string {
	return fmt.Sprintf("job-%s-%s-%s-%d", k.JobType, k.Service, k.Frequency, k.StartAt.Unix())
}

// JobSchedule is the unit of scheduling: one persisted occurrence of a
// data-ingestion task.
type JobSchedule struct {
	Key    ScheduleKey `json:"key"`
	Status Status      `json:"status"`
	Owner  string      `json:"owner"`

	// EndAt closes the execution window for custom_schedule and
	// weekday/interval recurrences.
	EndAt *time.Time `json:"scheduled_end_date,omitempty"`

	// FetchStart/FetchEnd bound the date range requested from the
	// external API; distinct from when the job itself runs.
	FetchStart *time.Time `json:"data_fetch_start_date,omitempty"`
	FetchEnd   *time.Time `json:"data_fetch_end_date,omitempty"`

	// IntervalDays drives "every N days" recurrence when set.
	IntervalDays *int `json:"interval_days,omitempty"`

	// Weekdays drives weekday-list recurrence when non-empty.
	Weekdays Weekdays `json:"weekdays,omitempty"`

	// RunTime is the audit string for the last run ("0h 4m 12.50s").
	RunTime string `json:"run_time,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Windowed reports whether the job polls between an enable and a disable
// time rather than running once.
func (s JobSchedule) Windowed() bool {
	return s.Key.Frequency == FrequencyCustomSchedule && s.EndAt != nil
}

// FormatRunTime renders an elapsed duration in the audit format stored on
// the schedule row.
func FormatRunTime(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := d.Seconds() - float64(hours*3600+minutes*60)
	return fmt.Sprintf("%dh %dm %.2fs", hours, minutes, seconds)
}

// StockPrice is one OHLC aggregate for a ticker, keyed by
// (ticker, period end).
type StockPrice struct {
	Ticker    string    `json:"ticker_symbol"`
	Open      float64   `json:"open_price"`
	High      float64   `json:"highest_price"`
	Low       float64   `json:"lowest_price"`
	Close     float64   `json:"close_price"`
	Volume    float64   `json:"volume"`
	PeriodEnd time.Time `json:"period_end"`
}

// APIKey is a stored credential for an external service. The key value
// itself is never serialized.
type APIKey struct {
	Service   string    `json:"service"`
	Key       string    `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScreenerRow is one company row from a screener snapshot, keyed by
// (ticker, captured at).
type ScreenerRow struct {
	Ticker     string    `json:"ticker_symbol"`
	Company    string    `json:"company_name"`
	Price      float64   `json:"price"`
	Change     float64   `json:"change"`
	Industry   string    `json:"industry"`
	Volume     float64   `json:"volume"`
	PERatio    float64   `json:"pe_ratio"`
	CapturedAt time.Time `json:"captured_at"`
}
