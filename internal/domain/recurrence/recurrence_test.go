package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tickerwatch/tickerwatch/internal/domain"
)

func mustWeekdays(t *testing.T, v string) domain.Weekdays {
	t.Helper()
	days, err := domain.ParseWeekdays(v)
	require.NoError(t, err)
	return days
}

func dailySchedule(start time.Time) domain.JobSchedule {
	return domain.JobSchedule{
		Key: domain.ScheduleKey{
			JobType:   domain.JobTypeAPIFetch,
			Service:   domain.ServicePolygon,
			Frequency: domain.FrequencyRecurringDaily,
			StartAt:   start,
		},
		Status: domain.StatusComplete,
		Owner:  "ops",
	}
}

func TestSuccessorOnceHasNoSuccessor(t *testing.T) {
	s := dailySchedule(time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC))
	s.Key.Frequency = domain.FrequencyOnce

	_, ok := Successor(s)
	assert.False(t, ok)
}

func TestSuccessorDailyAdvancesOneDay(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	s := dailySchedule(start)

	next, ok := Successor(s)
	require.True(t, ok)
	assert.Equal(t, start.AddDate(0, 0, 1), next.Key.StartAt)
	assert.Equal(t, domain.StatusScheduled, next.Status)
	assert.Equal(t, s.Owner, next.Owner)
	assert.Nil(t, next.FetchStart)
	assert.Nil(t, next.FetchEnd)
}

func TestSuccessorDailyAdvancesFetchRangeInLockstep(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	fetchStart := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	fetchEnd := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	s := dailySchedule(start)
	s.FetchStart = &fetchStart
	s.FetchEnd = &fetchEnd

	next, ok := Successor(s)
	require.True(t, ok)
	require.NotNil(t, next.FetchStart)
	require.NotNil(t, next.FetchEnd)
	assert.Equal(t, fetchStart.AddDate(0, 0, 1), *next.FetchStart)
	assert.Equal(t, fetchEnd.AddDate(0, 0, 1), *next.FetchEnd)
}

func TestSuccessorIsIdempotent(t *testing.T) {
	s := dailySchedule(time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC))

	first, ok := Successor(s)
	require.True(t, ok)
	second, ok := Successor(s)
	require.True(t, ok)
	assert.Equal(t, first.Key, second.Key)
}

func TestNextWeekdayMidWeek(t *testing.T) {
	days := mustWeekdays(t, "Mon,Wed,Fri")
	// Wednesday 2026-03-04 -> Friday 2026-03-06 of the same week.
	wed := time.Date(2026, 3, 4, 14, 0, 0, 0, time.UTC)

	next := NextWeekday(wed, days)
	assert.Equal(t, time.Friday, next.Weekday())
	assert.Equal(t, time.Date(2026, 3, 6, 14, 0, 0, 0, time.UTC), next)
}

func TestNextWeekdayOutsideSet(t *testing.T) {
	days := mustWeekdays(t, "Mon,Wed,Fri")
	// Saturday 2026-03-07 is not in the set -> following Monday.
	sat := time.Date(2026, 3, 7, 14, 0, 0, 0, time.UTC)

	next := NextWeekday(sat, days)
	assert.Equal(t, time.Monday, next.Weekday())
	assert.Equal(t, time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC), next)
}

func TestSuccessorWeekdayAdvancesWindow(t *testing.T) {
	days := mustWeekdays(t, "Mon,Wed,Fri")
	start := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC) // Wednesday
	end := time.Date(2026, 3, 4, 16, 0, 0, 0, time.UTC)

	s := domain.JobSchedule{
		Key: domain.ScheduleKey{
			JobType:   domain.JobTypeDataScrape,
			Service:   domain.ServiceStockAnalysis,
			Frequency: domain.FrequencyCustomSchedule,
			StartAt:   start,
		},
		EndAt:    &end,
		Weekdays: days,
		Owner:    "ops",
	}

	next, ok := Successor(s)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC), next.Key.StartAt)
	require.NotNil(t, next.EndAt)
	assert.Equal(t, time.Date(2026, 3, 6, 16, 0, 0, 0, time.UTC), *next.EndAt)
	assert.Equal(t, days, next.Weekdays)
}

func TestSuccessorIntervalDays(t *testing.T) {
	interval := 3
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC)

	s := domain.JobSchedule{
		Key: domain.ScheduleKey{
			JobType:   domain.JobTypeDataScrape,
			Service:   domain.ServiceStockAnalysis,
			Frequency: domain.FrequencyCustomSchedule,
			StartAt:   start,
		},
		EndAt:        &end,
		IntervalDays: &interval,
		Owner:        "ops",
	}

	next, ok := Successor(s)
	require.True(t, ok)
	assert.Equal(t, start.AddDate(0, 0, 3), next.Key.StartAt)
	require.NotNil(t, next.EndAt)
	assert.Equal(t, end.AddDate(0, 0, 3), *next.EndAt)
	require.NotNil(t, next.IntervalDays)
	assert.Equal(t, 3, *next.IntervalDays)
}

func TestMissedWindowSuccessorRollsToNextDay(t *testing.T) {
	// The 11:00 slot already passed at 21:30 -> successor fires tomorrow at 11:00.
	s := dailySchedule(time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC))
	s.Key.Frequency = domain.FrequencyRecurringDailyAM
	now := time.Date(2026, 3, 2, 21, 30, 0, 0, time.UTC)

	next := MissedWindowSuccessor(s, now)
	assert.Equal(t, time.Date(2026, 3, 3, 11, 0, 0, 0, time.UTC), next.Key.StartAt)
	assert.Equal(t, domain.StatusScheduled, next.Status)
}

func TestMissedWindowSuccessorKeepsTodayWhenSlotAhead(t *testing.T) {
	// Reconciling at 09:30 for a stale 11:00 row from a prior day -> today's 11:00.
	s := dailySchedule(time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC))
	s.Key.Frequency = domain.FrequencyRecurringDailyAM
	now := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

	next := MissedWindowSuccessor(s, now)
	assert.Equal(t, time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC), next.Key.StartAt)
}

func TestFormatRunTime(t *testing.T) {
	d := 1*time.Hour + 4*time.Minute + 12*time.Second + 500*time.Millisecond
	assert.Equal(t, "1h 4m 12.50s", domain.FormatRunTime(d))
}
