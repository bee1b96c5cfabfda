/*
errors.go - Centralized error taxonomy for the leave engine

PURPOSE:
  All domain errors in one place. Callers classify with errors.Is; the
  HTTP adapter maps each category to a status code without inspecting
  strings.

ERROR CATEGORIES:
  1. Not-found     - referenced owner/entitlement/request does not exist
  2. Authorization - caller does not own the target resource
  3. Validation    - malformed period inputs, unknown type/status codes
  4. Conflict      - business-rule violations (duplicate period, shortfall)
  5. Concurrency   - optimistic version check failed; retry with fresh state

USAGE:
  if errors.Is(err, leave.ErrConcurrencyConflict) {
      // same operation may be resubmitted; it re-runs all checks
  }
*/
package leave

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrOwnerNotFound is returned when a referenced owner does not exist.
	ErrOwnerNotFound = errors.New("owner not found")

	// ErrEntitlementNotFound is returned when a referenced entitlement does
	// not exist.
	ErrEntitlementNotFound = errors.New("entitlement not found")

	// ErrRequestNotFound is returned when a referenced leave request does
	// not exist.
	ErrRequestNotFound = errors.New("leave request not found")

	// ErrAccessDenied is returned when the caller does not own the target
	// entitlement or request.
	ErrAccessDenied = errors.New("access denied")

	// ErrMissingEndDate is returned for day-off requests without an end date.
	ErrMissingEndDate = errors.New("end date required for day-off requests")

	// ErrMissingDayCount is returned for day-off requests without a day count.
	ErrMissingDayCount = errors.New("day count required for day-off requests")

	// ErrInvalidRange is returned when the normalized end falls before the
	// normalized start.
	ErrInvalidRange = errors.New("end date before start date")

	// ErrInvalidDayCount is returned when the requested day count cannot
	// cover the calendar span from start to end inclusive.
	ErrInvalidDayCount = errors.New("day count smaller than requested span")

	// ErrStartInPast is returned when the raw start instant falls before the
	// current day.
	ErrStartInPast = errors.New("start date in the past")

	// ErrInvalidType is returned when an incoming leave type code is not one
	// of the closed set.
	ErrInvalidType = errors.New("invalid leave type")

	// ErrInvalidStatus is returned when an incoming status code is unknown.
	ErrInvalidStatus = errors.New("invalid request status")

	// ErrAlreadyExists is returned when an entitlement already exists for
	// the (owner, period) pair.
	ErrAlreadyExists = errors.New("entitlement already exists for period")

	// ErrDuplicatePeriod is returned when the candidate interval overlaps an
	// active request on the same entitlement. Touching endpoints count.
	ErrDuplicatePeriod = errors.New("overlapping leave request exists")

	// ErrInsufficientBalance is returned when a debit exceeds the remaining
	// balance.
	ErrInsufficientBalance = errors.New("insufficient remaining days")

	// ErrAlreadyStarted is returned when cancellation is attempted at or
	// after the request's start instant.
	ErrAlreadyStarted = errors.New("leave already started")

	// ErrAlreadyCanceled is returned when cancelling a canceled request.
	ErrAlreadyCanceled = errors.New("leave request already canceled")

	// ErrConcurrencyConflict is returned when the versioned persist detects
	// another writer advanced the entitlement since it was loaded. This is
	// an expected outcome under contention, not a fault: the same operation
	// should be resubmitted against fresh state.
	ErrConcurrencyConflict = errors.New("concurrent modification detected")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError reports how far a debit overshot the balance.
type InsufficientBalanceError struct {
	EntitlementID EntitlementID
	Available     decimal.Decimal
	Requested     decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient remaining days: available %s, requested %s",
		e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound reports whether the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOwnerNotFound) ||
		errors.Is(err, ErrEntitlementNotFound) ||
		errors.Is(err, ErrRequestNotFound)
}

// IsValidation reports whether the error is due to invalid request inputs.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingEndDate) ||
		errors.Is(err, ErrMissingDayCount) ||
		errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInvalidDayCount) ||
		errors.Is(err, ErrStartInPast) ||
		errors.Is(err, ErrInvalidType) ||
		errors.Is(err, ErrInvalidStatus)
}

// IsConflict reports whether the error is a business-rule conflict. The
// request itself is invalid against current state; resubmitting unchanged
// will fail again.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrDuplicatePeriod) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrAlreadyStarted) ||
		errors.Is(err, ErrAlreadyCanceled)
}

// IsRetryable reports whether the same operation might succeed if
// resubmitted with fresh state. Distinguished from IsConflict: a
// concurrency conflict says nothing about the request's validity.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}
