/*
Package leave implements the leave entitlement and request engine.

PURPOSE:
  Tracks a per-owner leave entitlement (a bounded balance of allotted days)
  and the leave requests drawn against it. Three guarantees hold at every
  observable state:
    1. No two Active requests for the same entitlement overlap in time.
    2. The remaining balance stays within [0, totalDays].
    3. Concurrent writers against the same entitlement are detected via an
       optimistic version check and rejected, never silently merged.

KEY CONCEPTS IN THIS FILE (types.go):
  - Typed identifiers: OwnerID, EntitlementID, RequestID
  - LeaveType: closed set of request kinds (day off, half day, quarter day)
  - RequestStatus: the two-state request lifecycle (active -> canceled)

DESIGN PRINCIPLES:
  1. Precision: day amounts use decimal.Decimal, never float64 arithmetic
  2. Type safety: identifiers are distinct types so they cannot be mixed
  3. Closed enums: unknown incoming codes are rejected at the boundary
     with a typed validation error, not discovered deep in business logic

SEE ALSO:
  - period.go: normalizes raw inputs into a charged interval per type
  - entitlement.go: the balance aggregate with debit/credit bounds
  - service.go: the request lifecycle orchestrator
*/
package leave

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type OwnerID string
type EntitlementID string
type RequestID string

// =============================================================================
// LEAVE TYPE - Closed set of request kinds
// =============================================================================

type LeaveType string

const (
	// TypeDayOff spans one or more whole calendar days. The caller supplies
	// the end date and the day count; both are validated by the period
	// calculator.
	TypeDayOff LeaveType = "day_off"

	// TypeHalfDay charges 0.5 days starting at the requested minute.
	TypeHalfDay LeaveType = "half_day"

	// TypeQuarterDay charges 0.25 days starting at the requested minute.
	TypeQuarterDay LeaveType = "quarter_day"
)

// ParseLeaveType converts an incoming code into a LeaveType.
// Unknown codes fail with ErrInvalidType so bad input never reaches the
// lifecycle.
func ParseLeaveType(code string) (LeaveType, error) {
	switch LeaveType(code) {
	case TypeDayOff, TypeHalfDay, TypeQuarterDay:
		return LeaveType(code), nil
	default:
		return "", ErrInvalidType
	}
}

// =============================================================================
// REQUEST STATUS - Two-state lifecycle
// =============================================================================

type RequestStatus string

const (
	// StatusActive is the initial state. A request is created fully debited
	// or not at all; there is no pending state.
	StatusActive RequestStatus = "active"

	// StatusCanceled is terminal. The transition credits the entitlement
	// back and records the cancellation time.
	StatusCanceled RequestStatus = "canceled"
)

// ParseRequestStatus converts an incoming code into a RequestStatus.
func ParseRequestStatus(code string) (RequestStatus, error) {
	switch RequestStatus(code) {
	case StatusActive, StatusCanceled:
		return RequestStatus(code), nil
	default:
		return "", ErrInvalidStatus
	}
}

// =============================================================================
// DAY AMOUNTS
// =============================================================================

// Canonical day charges per leave type. DayOff charges are caller-supplied
// and validated instead.
var (
	HalfDayCharge    = decimal.NewFromFloat(0.5)
	QuarterDayCharge = decimal.NewFromFloat(0.25)
)

// Days converts a caller-supplied float day count into the decimal
// representation used everywhere inside the engine.
func Days(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}
