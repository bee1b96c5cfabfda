/*
period_test.go - Period calculator tests

PURPOSE:
  Exercises the pure calculator across all leave types: normalization,
  the day-count span rule, and the past-start guard. The clock is passed
  in, so every case is fully deterministic.
*/
package leave_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/leave"
)

var testHours = leave.WorkingHours{HalfDay: 4, QuarterDay: 2}

func at(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

func ptrT(t time.Time) *time.Time { return &t }
func ptrF(f float64) *float64     { return &f }

func TestCalculatePeriod_DayOff_NormalizesToFullDays(t *testing.T) {
	// GIVEN: a five-day request with mid-day start and end instants
	now := at(2024, time.June, 1, 8, 0)
	start := at(2024, time.June, 10, 9, 0)
	end := at(2024, time.June, 14, 18, 0)

	// WHEN: the period is calculated
	p, err := leave.CalculatePeriod(leave.TypeDayOff, start, ptrT(end), ptrF(5), testHours, now)
	require.NoError(t, err)

	// THEN: the interval snaps to calendar-day bounds and the count is kept
	assert.Equal(t, at(2024, time.June, 10, 0, 0), p.StartAt)
	assert.Equal(t, time.Date(2024, time.June, 14, 23, 59, 59, 0, time.UTC), p.EndAt)
	assert.True(t, p.Days.Equal(leave.Days(5)), "day count should be taken as given")
}

func TestCalculatePeriod_DayOff_SingleDay(t *testing.T) {
	now := at(2024, time.June, 1, 8, 0)
	day := at(2024, time.June, 10, 14, 30)

	p, err := leave.CalculatePeriod(leave.TypeDayOff, day, ptrT(day), ptrF(1), testHours, now)
	require.NoError(t, err)

	assert.Equal(t, at(2024, time.June, 10, 0, 0), p.StartAt)
	assert.Equal(t, time.Date(2024, time.June, 10, 23, 59, 59, 0, time.UTC), p.EndAt)
	assert.True(t, p.Days.Equal(leave.Days(1)))
}

func TestCalculatePeriod_DayOff_MissingInputs(t *testing.T) {
	now := at(2024, time.June, 1, 8, 0)
	start := at(2024, time.June, 10, 9, 0)
	end := at(2024, time.June, 14, 18, 0)

	_, err := leave.CalculatePeriod(leave.TypeDayOff, start, nil, ptrF(5), testHours, now)
	assert.ErrorIs(t, err, leave.ErrMissingEndDate)

	_, err = leave.CalculatePeriod(leave.TypeDayOff, start, ptrT(end), nil, testHours, now)
	assert.ErrorIs(t, err, leave.ErrMissingDayCount)
}

func TestCalculatePeriod_DayOff_EndBeforeStart(t *testing.T) {
	now := at(2024, time.June, 1, 8, 0)
	start := at(2024, time.June, 14, 9, 0)
	end := at(2024, time.June, 10, 18, 0)

	_, err := leave.CalculatePeriod(leave.TypeDayOff, start, ptrT(end), ptrF(5), testHours, now)
	assert.ErrorIs(t, err, leave.ErrInvalidRange)
}

func TestCalculatePeriod_DayOff_DayCountTooSmall(t *testing.T) {
	// GIVEN: a five-calendar-day span but only three days requested
	now := at(2024, time.June, 1, 8, 0)
	start := at(2024, time.June, 10, 9, 0)
	end := at(2024, time.June, 14, 18, 0)

	// WHEN/THEN: the count cannot cover the span and is rejected
	_, err := leave.CalculatePeriod(leave.TypeDayOff, start, ptrT(end), ptrF(3), testHours, now)
	assert.ErrorIs(t, err, leave.ErrInvalidDayCount)
}

func TestCalculatePeriod_DayOff_DayCountLargerThanSpanPasses(t *testing.T) {
	// An over-span count passes the calculator and is charged in full;
	// only the balance check bounds it downstream.
	now := at(2024, time.June, 1, 8, 0)
	start := at(2024, time.June, 10, 9, 0)
	end := at(2024, time.June, 14, 18, 0)

	p, err := leave.CalculatePeriod(leave.TypeDayOff, start, ptrT(end), ptrF(16), testHours, now)
	require.NoError(t, err)
	assert.True(t, p.Days.Equal(leave.Days(16)))
}

func TestCalculatePeriod_HalfDay_Arithmetic(t *testing.T) {
	// GIVEN: a half-day at 09:00 with a four-hour configured span
	now := at(2024, time.June, 1, 8, 0)
	start := at(2024, time.June, 10, 9, 0)

	// WHEN: the period is calculated
	p, err := leave.CalculatePeriod(leave.TypeHalfDay, start, nil, nil, testHours, now)
	require.NoError(t, err)

	// THEN: it ends four hours later and charges half a day
	assert.Equal(t, at(2024, time.June, 10, 9, 0), p.StartAt)
	assert.Equal(t, at(2024, time.June, 10, 13, 0), p.EndAt)
	assert.True(t, p.Days.Equal(leave.HalfDayCharge))
}

func TestCalculatePeriod_HalfDay_IgnoresEndAndDays(t *testing.T) {
	now := at(2024, time.June, 1, 8, 0)
	start := at(2024, time.June, 10, 9, 0)
	bogusEnd := at(2024, time.June, 20, 9, 0)

	p, err := leave.CalculatePeriod(leave.TypeHalfDay, start, ptrT(bogusEnd), ptrF(7), testHours, now)
	require.NoError(t, err)
	assert.Equal(t, at(2024, time.June, 10, 13, 0), p.EndAt)
	assert.True(t, p.Days.Equal(leave.HalfDayCharge))
}

func TestCalculatePeriod_HalfDay_TruncatesToMinute(t *testing.T) {
	now := at(2024, time.June, 1, 8, 0)
	start := time.Date(2024, time.June, 10, 9, 30, 45, 123456789, time.UTC)

	p, err := leave.CalculatePeriod(leave.TypeHalfDay, start, nil, nil, testHours, now)
	require.NoError(t, err)
	assert.Equal(t, at(2024, time.June, 10, 9, 30), p.StartAt)
	assert.Equal(t, at(2024, time.June, 10, 13, 30), p.EndAt)
}

func TestCalculatePeriod_QuarterDay(t *testing.T) {
	now := at(2024, time.June, 1, 8, 0)
	start := at(2024, time.June, 10, 9, 15)

	p, err := leave.CalculatePeriod(leave.TypeQuarterDay, start, nil, nil, testHours, now)
	require.NoError(t, err)
	assert.Equal(t, at(2024, time.June, 10, 11, 15), p.EndAt)
	assert.True(t, p.Days.Equal(leave.QuarterDayCharge))
}

func TestCalculatePeriod_StartInPast(t *testing.T) {
	now := at(2024, time.June, 10, 8, 0)
	yesterday := at(2024, time.June, 9, 9, 0)
	end := at(2024, time.June, 12, 18, 0)

	for _, typ := range []leave.LeaveType{leave.TypeDayOff, leave.TypeHalfDay, leave.TypeQuarterDay} {
		_, err := leave.CalculatePeriod(typ, yesterday, ptrT(end), ptrF(4), testHours, now)
		assert.ErrorIs(t, err, leave.ErrStartInPast, "type %s", typ)
	}
}

func TestCalculatePeriod_StartEarlierTodayIsAllowed(t *testing.T) {
	// The guard compares at day granularity: a start earlier the same day
	// is still current-day and passes.
	now := at(2024, time.June, 10, 15, 0)
	earlier := at(2024, time.June, 10, 9, 0)

	_, err := leave.CalculatePeriod(leave.TypeHalfDay, earlier, nil, nil, testHours, now)
	assert.NoError(t, err)
}

func TestCalculatePeriod_UnknownType(t *testing.T) {
	now := at(2024, time.June, 1, 8, 0)
	start := at(2024, time.June, 10, 9, 0)

	_, err := leave.CalculatePeriod(leave.LeaveType("sabbatical"), start, nil, nil, testHours, now)
	assert.ErrorIs(t, err, leave.ErrInvalidType)
	assert.True(t, leave.IsValidation(err))
}
