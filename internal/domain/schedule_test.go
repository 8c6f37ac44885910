package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekdays(t *testing.T) {
	days, err := ParseWeekdays("Mon, Wed ,Fri")
	require.NoError(t, err)
	assert.Equal(t, Weekdays{time.Monday, time.Wednesday, time.Friday}, days)
	assert.Equal(t, "Mon,Wed,Fri", days.String())

	_, err = ParseWeekdays("Mon,Funday")
	assert.Error(t, err)

	days, err = ParseWeekdays("")
	require.NoError(t, err)
	assert.Nil(t, days)
}

func TestFrequencyUnmarshalText(t *testing.T) {
	var f Frequency
	require.NoError(t, f.UnmarshalText([]byte(" Recurring_Daily ")))
	assert.Equal(t, FrequencyRecurringDaily, f)

	assert.Error(t, f.UnmarshalText([]byte("hourly")))
}

func TestTriggerLabel(t *testing.T) {
	start := time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC)
	key := ScheduleKey{
		JobType:   JobTypeAPIFetch,
		Service:   ServicePolygon,
		Frequency: FrequencyOnce,
		StartAt:   start,
	}
	assert.Equal(t, "job-api_fetch-polygon_io-once-1772449200", key.TriggerLabel())
}

func TestStatusRestartable(t *testing.T) {
	assert.True(t, StatusScheduled.Restartable())
	assert.True(t, StatusRunning.Restartable())
	assert.False(t, StatusComplete.Restartable())
	assert.False(t, StatusFailed.Restartable())
	assert.False(t, StatusSkipped.Restartable())
}
