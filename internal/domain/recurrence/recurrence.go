// Package recurrence computes the next occurrence of a completed job
// schedule. Everything here is pure: callers persist the returned rows.
package recurrence

import (
	"time"

	"github.com/tickerwatch/tickerwatch/internal/domain"
)

// Successor returns the next schedule row for a just-completed job, or
// ok=false when the job does not recur. The returned row carries a fresh
// Scheduled status and advanced dates; the composite key uniqueness of
// the store makes repeated insertion of the same successor a no-op.
func Successor(s domain.JobSchedule) (domain.JobSchedule, bool) {
	switch {
	case len(s.Weekdays) > 0:
		return weekdaySuccessor(s), true
	case s.IntervalDays != nil && *s.IntervalDays > 0:
		return intervalSuccessor(s), true
	case s.Key.Frequency.IsDaily():
		return dailySuccessor(s), true
	default:
		return domain.JobSchedule{}, false
	}
}

// dailySuccessor advances the schedule by one calendar day, keeping the
// time of day. A fetch range, when present, moves in lockstep so "fetch
// yesterday's data" semantics stay stable across occurrences.
func dailySuccessor(s domain.JobSchedule) domain.JobSchedule {
	next := fresh(s)
	next.Key.StartAt = s.Key.StartAt.AddDate(0, 0, 1)
	next.FetchStart = addDays(s.FetchStart, 1)
	next.FetchEnd = addDays(s.FetchEnd, 1)
	return next
}

// weekdaySuccessor advances both window bounds to the next matching
// weekday, preserving time of day.
func weekdaySuccessor(s domain.JobSchedule) domain.JobSchedule {
	next := fresh(s)
	next.Key.StartAt = NextWeekday(s.Key.StartAt, s.Weekdays)
	if s.EndAt != nil {
		end := NextWeekday(*s.EndAt, s.Weekdays)
		next.EndAt = &end
	}
	next.Weekdays = s.Weekdays
	return next
}

// intervalSuccessor advances both window bounds by the configured number
// of days.
func intervalSuccessor(s domain.JobSchedule) domain.JobSchedule {
	days := *s.IntervalDays
	next := fresh(s)
	next.Key.StartAt = s.Key.StartAt.AddDate(0, 0, days)
	next.EndAt = addDays(s.EndAt, days)
	next.IntervalDays = s.IntervalDays
	return next
}

// NextWeekday returns the first instant strictly after t whose weekday is
// in the set, scanning forward at most seven days and preserving the time
// of day. With an empty set it returns t unchanged.
func NextWeekday(t time.Time, days domain.Weekdays) time.Time {
	if len(days) == 0 {
		return t
	}
	for i := 1; i <= 7; i++ {
		candidate := t.AddDate(0, 0, i)
		if days.Contains(candidate.Weekday()) {
			return candidate
		}
	}
	return t
}

// MissedWindowSuccessor models the "don't run a stale intraday snapshot"
// policy: the missed row is marked Skipped by the caller and this returns
// its replacement at the same time of day on the next eligible calendar
// day relative to now (today if the slot is still ahead, tomorrow
// otherwise).
func MissedWindowSuccessor(s domain.JobSchedule, now time.Time) domain.JobSchedule {
	next := fresh(s)
	start := at(now, s.Key.StartAt)
	if !start.After(now) {
		start = start.AddDate(0, 0, 1)
	}
	next.Key.StartAt = start
	return next
}

// fresh copies the identity and ownership of a row into a new Scheduled
// occurrence, leaving all optional fields for the caller to fill.
func fresh(s domain.JobSchedule) domain.JobSchedule {
	return domain.JobSchedule{
		Key: domain.ScheduleKey{
			JobType:   s.Key.JobType,
			Service:   s.Key.Service,
			Frequency: s.Key.Frequency,
		},
		Status: domain.StatusScheduled,
		Owner:  s.Owner,
	}
}

// at places the time of day of ref onto the calendar date of day, in UTC.
func at(day, ref time.Time) time.Time {
	day = day.UTC()
	ref = ref.UTC()
	return time.Date(day.Year(), day.Month(), day.Day(),
		ref.Hour(), ref.Minute(), ref.Second(), 0, time.UTC)
}

func addDays(t *time.Time, days int) *time.Time {
	if t == nil {
		return nil
	}
	moved := t.AddDate(0, 0, days)
	return &moved
}
