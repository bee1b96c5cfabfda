/*
period.go - Pure period calculator

PURPOSE:
  Maps a requested leave type plus raw time inputs into a normalized,
  validated interval and the canonical day count charged against the
  entitlement. No I/O, no shared state; the caller supplies "now" so the
  function stays deterministic under test.

NORMALIZATION RULES:
  DayOff:     start -> 00:00:00 of its calendar day
              end   -> 23:59:59 of its calendar day (sub-second truncated)
  HalfDay:    start -> whole-minute precision; end = start + HalfDay hours
  QuarterDay: start -> whole-minute precision; end = start + QuarterDay hours

DAY COUNT:
  HalfDay and QuarterDay charge fixed 0.5 / 0.25 days and ignore any
  supplied end date or day count. DayOff takes the caller's day count as
  given once it is large enough to cover the calendar span from start to
  end inclusive.
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// WorkingHours carries the configured hour spans for partial-day leave.
type WorkingHours struct {
	HalfDay    int
	QuarterDay int
}

// Period is the normalized output of the calculator: the charged interval
// and the day count to debit.
type Period struct {
	StartAt time.Time
	EndAt   time.Time
	Days    decimal.Decimal
}

// CalculatePeriod normalizes raw request inputs per leave type.
//
// For every type the raw start instant must not fall before the current
// day; the comparison uses the caller-supplied start as-is against the
// start of "now"'s calendar day.
func CalculatePeriod(typ LeaveType, startAt time.Time, endAt *time.Time, days *float64, hours WorkingHours, now time.Time) (Period, error) {
	if startAt.Before(startOfDay(now)) {
		return Period{}, ErrStartInPast
	}

	switch typ {
	case TypeDayOff:
		return dayOffPeriod(startAt, endAt, days)
	case TypeHalfDay:
		return partialDayPeriod(startAt, hours.HalfDay, HalfDayCharge), nil
	case TypeQuarterDay:
		return partialDayPeriod(startAt, hours.QuarterDay, QuarterDayCharge), nil
	default:
		return Period{}, ErrInvalidType
	}
}

func dayOffPeriod(startAt time.Time, endAt *time.Time, days *float64) (Period, error) {
	if endAt == nil {
		return Period{}, ErrMissingEndDate
	}
	if days == nil {
		return Period{}, ErrMissingDayCount
	}

	start := startOfDay(startAt)
	end := endOfDay(*endAt)

	if end.Before(start) {
		return Period{}, ErrInvalidRange
	}

	// The requested day count must reach back from the end day to the start
	// day: stepping back (days - 1) calendar days from the end must not land
	// after the start. A count larger than the span passes here and is
	// charged in full; only the balance check bounds it.
	// TODO: confirm with product whether over-span day counts should be
	// rejected outright instead of relying on the balance check.
	back := startOfDay(end.AddDate(0, 0, 1-int(*days)))
	if back.After(start) {
		return Period{}, ErrInvalidDayCount
	}

	return Period{StartAt: start, EndAt: end, Days: Days(*days)}, nil
}

func partialDayPeriod(startAt time.Time, spanHours int, charge decimal.Decimal) Period {
	start := truncateToMinute(startAt)
	end := truncateToMinute(start.Add(time.Duration(spanHours) * time.Hour))
	return Period{StartAt: start, EndAt: end, Days: charge}
}

// =============================================================================
// TIME NORMALIZATION
// =============================================================================

// startOfDay returns 00:00:00 of t's calendar day.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// endOfDay returns 23:59:59 of t's calendar day, sub-second truncated.
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// truncateToMinute zeroes seconds and sub-seconds.
func truncateToMinute(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
}
